// Package httpapi exposes the platform services over HTTP/JSON using gin.
package httpapi

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"eventhub-api/internal/auth"
	"eventhub-api/internal/models"
	"eventhub-api/internal/service"
	"eventhub-api/internal/storage"
)

// Services bundles the handlers' dependencies.
type Services struct {
	Auth          *service.Auth
	Users         *service.Users
	Venues        *service.Venues
	Categories    *service.Categories
	Events        *service.Events
	Registrations *service.Registrations
}

// Options tunes the router.
type Options struct {
	Logger         *slog.Logger
	CORSOrigins    []string
	AuthRateLimit  int
	AuthRateWindow time.Duration
	// Ready backs GET /healthz; nil reports healthy.
	Ready func(ctx context.Context) error
}

// NewRouter builds the engine with every route registered.
func NewRouter(svc Services, opts Options) *gin.Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(requestID(logger), logging(), recovery())
	if len(opts.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     opts.CORSOrigins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders:    []string{requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	r.NoRoute(func(c *gin.Context) {
		abortStatus(c, http.StatusNotFound, fmt.Sprintf("Cannot %s %s", c.Request.Method, c.Request.URL.Path))
	})

	h := &handlers{svc: svc, ready: opts.Ready}

	r.GET("/healthz", h.health)
	r.GET("/api", h.apiDoc)
	r.GET("/api-json", h.apiDoc)

	authed := authenticate(svc.Auth)
	admin := requireRoles(models.RoleAdmin)
	anyRole := requireRoles(models.RoleAdmin, models.RoleStudent)
	student := requireRoles(models.RoleStudent)

	authGroup := r.Group("/auth")
	{
		limited := rateLimit(opts.AuthRateLimit, opts.AuthRateWindow)
		authGroup.POST("/register", limited, h.register)
		authGroup.POST("/login", limited, h.login)
		authGroup.GET("/me", authed, h.me)
	}

	users := r.Group("/users", authed, admin)
	{
		users.GET("", h.listUsers)
		users.GET("/:id", h.getUser)
		users.PATCH("/:id/role", h.updateUserRole)
	}

	venues := r.Group("/venues", authed)
	{
		venues.GET("", anyRole, h.listVenues)
		venues.GET("/:id", anyRole, h.getVenue)
		venues.POST("", admin, h.createVenue)
		venues.PATCH("/:id", admin, h.updateVenue)
		venues.DELETE("/:id", admin, h.deleteVenue)
	}

	categories := r.Group("/categories", authed)
	{
		categories.GET("", anyRole, h.listCategories)
		categories.GET("/:id", anyRole, h.getCategory)
		categories.POST("", admin, h.createCategory)
		categories.PATCH("/:id", admin, h.updateCategory)
		categories.DELETE("/:id", admin, h.deleteCategory)
	}

	events := r.Group("/events", authed)
	{
		events.GET("", anyRole, h.listEvents)
		events.GET("/:id", anyRole, h.getEvent)
		events.POST("", admin, h.createEvent)
		events.PATCH("/:id", admin, h.updateEvent)
		events.DELETE("/:id", admin, h.deleteEvent)

		events.POST("/:id/register", student, h.registerForEvent)
		events.DELETE("/:id/register", student, h.unregisterFromEvent)
		events.GET("/:id/registrations", admin, h.listEventRegistrations)
		events.DELETE("/:id/registrations/:registrationId", admin, h.removeRegistration)
	}

	r.GET("/me/registrations", authed, student, h.listMyRegistrations)

	return r
}

// NewServices wires every service to store.
func NewServices(store storage.Store, tokens *auth.Issuer) Services {
	return Services{
		Auth:          service.NewAuth(store, tokens),
		Users:         service.NewUsers(store),
		Venues:        service.NewVenues(store, store),
		Categories:    service.NewCategories(store, store),
		Events:        service.NewEvents(store),
		Registrations: service.NewRegistrations(store),
	}
}

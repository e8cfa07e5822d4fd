package httpapi

import (
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"eventhub-api/internal/models"
	"eventhub-api/internal/service"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	loggerKey       = "logger"
	principalKey    = "principal"
)

// requestID tags the request with the caller-supplied id or a fresh uuid.
func requestID(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Set(loggerKey, logger.With("request_id", id))
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// logging logs the request and its duration once the handler returns.
func logging() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		loggerFrom(c).Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}

// recovery turns a panic into a 500 envelope.
func recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				loggerFrom(c).Error("panic recovered",
					"error", err,
					"trace", string(debug.Stack()),
				)
				abortStatus(c, http.StatusInternalServerError, "Internal server error")
			}
		}()
		c.Next()
	}
}

// rateLimit allows limit requests per client IP in each fixed window. A
// non-positive limit disables it. State is per process.
func rateLimit(limit int, window time.Duration) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if window <= 0 {
		window = time.Minute
	}

	var (
		mu        sync.Mutex
		visitors  = make(map[string]int)
		lastReset = time.Now()
	)
	return func(c *gin.Context) {
		mu.Lock()
		if time.Since(lastReset) > window {
			visitors = make(map[string]int)
			lastReset = time.Now()
		}
		ip := c.ClientIP()
		if visitors[ip] >= limit {
			mu.Unlock()
			abortStatus(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		visitors[ip]++
		mu.Unlock()

		c.Next()
	}
}

// authenticate requires a valid bearer token and stores its principal.
func authenticate(auth *service.Auth) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			abortStatus(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		p, err := auth.Verify(strings.TrimSpace(token))
		if err != nil {
			fail(c, err)
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// requireRoles admits only principals holding one of roles. It must run
// after authenticate.
func requireRoles(roles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, ok := principal(c)
		if !ok {
			abortStatus(c, http.StatusUnauthorized, "Unauthorized")
			return
		}
		for _, r := range roles {
			if p.Role == r {
				c.Next()
				return
			}
		}
		abortStatus(c, http.StatusForbidden, "Forbidden resource")
	}
}

func principal(c *gin.Context) (service.Principal, bool) {
	v, ok := c.Get(principalKey)
	if !ok {
		return service.Principal{}, false
	}
	p, ok := v.(service.Principal)
	return p, ok
}

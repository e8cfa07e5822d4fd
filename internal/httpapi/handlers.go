package httpapi

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-api/internal/service"
)

type handlers struct {
	svc   Services
	ready func(ctx context.Context) error
}

func (h *handlers) health(c *gin.Context) {
	if h.ready != nil {
		if err := h.ready(c.Request.Context()); err != nil {
			loggerFrom(c).Error("health check failed", "error", err)
			abortStatus(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Auth

func (h *handlers) register(c *gin.Context) {
	var in service.RegisterInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Auth.Register(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *handlers) login(c *gin.Context) {
	var in service.LoginInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.svc.Auth.Login(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *handlers) me(c *gin.Context) {
	p, _ := principal(c)
	u, err := h.svc.Auth.Me(c.Request.Context(), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// Users

func (h *handlers) listUsers(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	users, err := h.svc.Users.List(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

func (h *handlers) getUser(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	u, err := h.svc.Users.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *handlers) updateUserRole(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.RoleInput
	if !bindJSON(c, &in) {
		return
	}
	u, err := h.svc.Users.UpdateRole(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (h *handlers) registerForEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, _ := principal(c)
	r, err := h.svc.Registrations.Register(c.Request.Context(), p.UserID, eventID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, r)
}

func (h *handlers) unregisterFromEvent(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	p, _ := principal(c)
	res, err := h.svc.Registrations.Unregister(c.Request.Context(), p.UserID, eventID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *handlers) listMyRegistrations(c *gin.Context) {
	p, _ := principal(c)
	regs, err := h.svc.Registrations.ListMine(c.Request.Context(), p.UserID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, regs)
}

func (h *handlers) listEventRegistrations(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	regs, err := h.svc.Registrations.ListForEvent(c.Request.Context(), eventID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, regs)
}

func (h *handlers) removeRegistration(c *gin.Context) {
	eventID, ok := pathID(c, "id")
	if !ok {
		return
	}
	registrationID, ok := pathID(c, "registrationId")
	if !ok {
		return
	}
	res, err := h.svc.Registrations.Remove(c.Request.Context(), eventID, registrationID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

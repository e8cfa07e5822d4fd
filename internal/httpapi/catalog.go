package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"eventhub-api/internal/service"
)

// Venues

func (h *handlers) listVenues(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	venues, err := h.svc.Venues.List(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, venues)
}

func (h *handlers) getVenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Venues.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) createVenue(c *gin.Context) {
	var in service.CreateVenueInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.svc.Venues.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, v)
}

func (h *handlers) updateVenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateVenueInput
	if !bindJSON(c, &in) {
		return
	}
	v, err := h.svc.Venues.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

func (h *handlers) deleteVenue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	v, err := h.svc.Venues.Remove(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, v)
}

// Categories

func (h *handlers) listCategories(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	categories, err := h.svc.Categories.List(c.Request.Context(), page)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *handlers) getCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := h.svc.Categories.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *handlers) createCategory(c *gin.Context) {
	var in service.CategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.svc.Categories.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, cat)
}

func (h *handlers) updateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateCategoryInput
	if !bindJSON(c, &in) {
		return
	}
	cat, err := h.svc.Categories.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

func (h *handlers) deleteCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	cat, err := h.svc.Categories.Remove(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cat)
}

// Events

func (h *handlers) listEvents(c *gin.Context) {
	page, ok := pageNumber(c)
	if !ok {
		return
	}
	events, err := h.svc.Events.List(c.Request.Context(), service.EventQuery{
		Q:          c.Query("q"),
		CategoryID: c.Query("categoryId"),
		VenueID:    c.Query("venueId"),
		From:       c.Query("from"),
		To:         c.Query("to"),
		Page:       page,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, events)
}

func (h *handlers) getEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Events.Get(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

func (h *handlers) createEvent(c *gin.Context) {
	var in service.CreateEventInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.svc.Events.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, e)
}

func (h *handlers) updateEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var in service.UpdateEventInput
	if !bindJSON(c, &in) {
		return
	}
	e, err := h.svc.Events.Update(c.Request.Context(), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

// deleteEvent removes the event and its registrations.
func (h *handlers) deleteEvent(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	e, err := h.svc.Events.Remove(c.Request.Context(), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, e)
}

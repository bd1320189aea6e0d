package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/domain/audit"
)

// EventsHandler serves the audit event log.
type EventsHandler struct {
	*BaseHandler
	service *audit.Service
}

// NewEventsHandler creates a new events handler.
func NewEventsHandler(service *audit.Service) *EventsHandler {
	return &EventsHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List returns recent audit events, newest first.
// GET /api/events
func (h *EventsHandler) List(c *gin.Context) {
	h.list(c, "")
}

// ListByCategory returns recent audit events for one category.
// GET /api/events/:category
func (h *EventsHandler) ListByCategory(c *gin.Context) {
	h.list(c, c.Param("category"))
}

func (h *EventsHandler) list(c *gin.Context, category string) {
	filter := audit.Filter{
		Category: category,
		Limit:    h.ParseIntQuery(c, "limit", 0),
	}

	events, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if events == nil {
		events = []audit.Event{}
	}
	h.OK(c, events)
}

package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/ledger"
)

// LedgerHandler serves cash/bank ledger records.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Create inserts one ledger record.
// POST /api/records
func (h *LedgerHandler) Create(c *gin.Context) {
	var record ledger.Record
	if !h.BindJSON(c, &record) {
		return
	}

	created, err := h.service.CreateRecord(c.Request.Context(), &record)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, created)
}

// List returns ledger records, optionally filtered to one day.
// GET /api/records?date=YYYY-MM-DD&sortOrder=desc
func (h *LedgerHandler) List(c *gin.Context) {
	var filter ledger.Filter

	if raw := c.Query("date"); raw != "" {
		day, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("date must be formatted YYYY-MM-DD").
				WithDetail("date", raw))
			return
		}
		filter.Date = &day
	}
	filter.AmountDesc = c.Query("sortOrder") == "desc"

	records, err := h.service.ListRecords(c.Request.Context(), filter)
	if err != nil {
		h.Error(c, err)
		return
	}
	if records == nil {
		records = []ledger.Record{}
	}
	h.OK(c, records)
}

package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/domain/billing"
)

// TransactionHandler serves the end-of-day closing flow and bill history.
type TransactionHandler struct {
	*BaseHandler
	service *billing.Service
}

// NewTransactionHandler creates a new transaction handler.
func NewTransactionHandler(service *billing.Service) *TransactionHandler {
	return &TransactionHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// Close applies a batch of stock updates and records one bill history entry.
// PUT /api/transactions/updateStocksAndBill
func (h *TransactionHandler) Close(c *gin.Context) {
	var req billing.ClosingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	entry, err := h.service.CloseDay(c.Request.Context(), req)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, entry)
}

// History lists bill entries for one month.
// GET /api/billHistory?month=YYYY-MM
func (h *TransactionHandler) History(c *gin.Context) {
	month := c.Query("month")
	if month == "" {
		h.Error(c, apperror.NewValidation("month query parameter is required").
			WithDetail("field", "month"))
		return
	}

	entries, err := h.service.History(c.Request.Context(), month)
	if err != nil {
		h.Error(c, err)
		return
	}
	if entries == nil {
		entries = []billing.Entry{}
	}
	h.OK(c, entries)
}

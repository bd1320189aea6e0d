package handlers

import (
	"github.com/gin-gonic/gin"

	"shopledger/internal/core/apperror"
	"shopledger/internal/core/id"
	"shopledger/internal/domain/inventory"
	"shopledger/internal/infrastructure/http/v1/dto"
)

// StockHandler serves stock CRUD and cross-shop transfers.
type StockHandler struct {
	*BaseHandler
	service *inventory.Service
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(service *inventory.Service) *StockHandler {
	return &StockHandler{
		BaseHandler: NewBaseHandler(),
		service:     service,
	}
}

// List returns all stock rows for one shop.
// GET /api/stocks?shop=...
func (h *StockHandler) List(c *gin.Context) {
	items, err := h.service.GetStocks(c.Request.Context(), c.Query("shop"))
	if err != nil {
		h.Error(c, err)
		return
	}
	if items == nil {
		items = []inventory.StockItem{}
	}
	h.OK(c, items)
}

// Create inserts a new stock row.
// POST /api/stocks
func (h *StockHandler) Create(c *gin.Context) {
	var req dto.CreateStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	item, err := h.service.AddStock(c.Request.Context(),
		req.Product, req.Size, req.Quantity, req.Price, req.Shop)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, item)
}

// Update overwrites one stock row's quantity.
// PUT /api/stocks/:id
func (h *StockHandler) Update(c *gin.Context) {
	stockID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid stock id").WithDetail("id", c.Param("id")))
		return
	}

	var req dto.UpdateStockRequest
	if !h.BindJSON(c, &req) {
		return
	}

	change, err := h.service.SetQuantity(c.Request.Context(), stockID, req.Quantity)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, change.Item)
}

// Delete removes one stock row.
// DELETE /api/stocks/:id
func (h *StockHandler) Delete(c *gin.Context) {
	stockID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid stock id").WithDetail("id", c.Param("id")))
		return
	}

	if err := h.service.DeleteStock(c.Request.Context(), stockID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "Stock deleted successfully")
}

// Transfer moves quantity between two shops.
// POST /api/stocks/transfer
func (h *StockHandler) Transfer(c *gin.Context) {
	var req inventory.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Transfer(c.Request.Context(), req); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "Stock transferred successfully")
}

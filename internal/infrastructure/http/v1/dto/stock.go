package dto

import "shopledger/internal/core/types"

// CreateStockRequest is the body of POST /api/stocks.
type CreateStockRequest struct {
	Product  string      `json:"product" binding:"required"`
	Size     string      `json:"size" binding:"required"`
	Quantity int         `json:"quantity"`
	Price    types.Money `json:"price"`
	Shop     string      `json:"shop" binding:"required"`
}

// UpdateStockRequest is the body of PUT /api/stocks/:id.
type UpdateStockRequest struct {
	Quantity int `json:"quantity"`
}

// Package dto defines request/response shapes for the HTTP API.
package dto

// IDResponse returns the id of a created entity.
type IDResponse struct {
	ID string `json:"id"`
}

// SuccessResponse is a generic success message. Message is serialized as
// "msg" to match the clients consuming this API.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"msg"`
}

// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"time"

	"stockyard/internal/core/entity"
	"stockyard/internal/core/id"
)

// --- List Response ---

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      any   `json:"items"`
	TotalCount int64 `json:"totalCount"`
	Limit      int   `json:"limit"`
	Offset     int   `json:"offset"`
}

// --- Base DTOs ---

// BaseResponse contains common response fields.
type BaseResponse struct {
	ID        string    `json:"id"`
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromBase creates BaseResponse from entity.Base.
func FromBase(b entity.Base) BaseResponse {
	return BaseResponse{
		ID:        b.ID.String(),
		Version:   b.Version,
		CreatedAt: b.CreatedAt,
		UpdatedAt: b.UpdatedAt,
	}
}

// CatalogResponse contains catalog fields.
type CatalogResponse struct {
	BaseResponse
	Code         string `json:"code"`
	Name         string `json:"name"`
	DeletionMark bool   `json:"deletionMark"`
}

// FromCatalog creates CatalogResponse from entity.Catalog.
func FromCatalog(c entity.Catalog) CatalogResponse {
	return CatalogResponse{
		BaseResponse: FromBase(c.Base),
		Code:         c.Code,
		Name:         c.Name,
		DeletionMark: c.DeletionMark,
	}
}

// DocumentResponse contains document fields.
type DocumentResponse struct {
	BaseResponse
	Number    string    `json:"number"`
	Date      time.Time `json:"date"`
	CreatedBy string    `json:"createdBy"`
}

// FromDocument creates DocumentResponse from entity.Document.
func FromDocument(d entity.Document) DocumentResponse {
	return DocumentResponse{
		BaseResponse: FromBase(d.Base),
		Number:       d.Number,
		Date:         d.Date,
		CreatedBy:    d.CreatedBy.String(),
	}
}

// --- ID Response ---

// IDResponse for create operations.
type IDResponse struct {
	ID string `json:"id"`
}

// NewIDResponse creates ID response.
func NewIDResponse(i id.ID) IDResponse {
	return IDResponse{ID: i.String()}
}

// --- Success Response ---

// SuccessResponse for operations without data.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// --- Error Response ---

// ErrorResponse for error details.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// --- Deletion ---

type SetDeletionMarkRequest struct {
	Marked bool `json:"marked"`
}

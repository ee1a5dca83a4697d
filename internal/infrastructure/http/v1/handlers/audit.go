package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	"stockyard/internal/core/id"
	"stockyard/internal/infrastructure/http/v1/dto"
	"stockyard/internal/infrastructure/storage/postgres"
)

// HistorySource reads stored audit entries.
type HistorySource interface {
	SubjectHistory(ctx context.Context, subjectType string, subjectID id.ID, limit int) ([]postgres.AuditRecord, error)
	ProductHistory(ctx context.Context, productID id.ID, limit int) ([]postgres.AuditRecord, error)
}

// AuditHandler exposes the audit trail read API.
type AuditHandler struct {
	*BaseHandler
	source HistorySource
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, source HistorySource) *AuditHandler {
	return &AuditHandler{BaseHandler: base, source: source}
}

// SubjectHistory handles GET /audit/subjects/:type/:id
func (h *AuditHandler) SubjectHistory(c *gin.Context) {
	subjectType := c.Param("type")
	if subjectType == "" {
		h.Error(c, apperror.NewValidation("subject type is required"))
		return
	}
	subjectID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 100)

	records, err := h.source.SubjectHistory(c.Request.Context(), subjectType, subjectID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditRecords(records))
}

// ProductHistory handles GET /audit/products/:id
func (h *AuditHandler) ProductHistory(c *gin.Context) {
	productID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	limit := h.ParseIntQuery(c, "limit", 100)

	records, err := h.source.ProductHistory(c.Request.Context(), productID, limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromAuditRecords(records))
}

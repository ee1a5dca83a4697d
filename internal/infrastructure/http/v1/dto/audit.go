package dto

import (
	"encoding/json"
	"time"

	"stockyard/internal/infrastructure/storage/postgres"
)

// AuditEntryResponse is one stored audit entry.
type AuditEntryResponse struct {
	ID          string          `json:"id"`
	Action      string          `json:"action"`
	ProductID   *string         `json:"productId,omitempty"`
	SubjectType string          `json:"subjectType"`
	SubjectID   string          `json:"subjectId"`
	ActorID     string          `json:"actorId"`
	Changes     json.RawMessage `json:"changes,omitempty"`
	Description string          `json:"description"`
	CreatedAt   time.Time       `json:"createdAt"`
}

// FromAuditRecord maps a stored record to its response.
func FromAuditRecord(r postgres.AuditRecord) AuditEntryResponse {
	resp := AuditEntryResponse{
		ID:          r.ID.String(),
		Action:      string(r.Action),
		SubjectType: r.SubjectType,
		SubjectID:   r.SubjectID.String(),
		ActorID:     r.ActorID.String(),
		Changes:     r.Changes,
		Description: r.Description,
		CreatedAt:   r.CreatedAt,
	}
	if r.ProductID != nil {
		pid := r.ProductID.String()
		resp.ProductID = &pid
	}
	return resp
}

// FromAuditRecords maps a history slice.
func FromAuditRecords(records []postgres.AuditRecord) []AuditEntryResponse {
	out := make([]AuditEntryResponse, len(records))
	for i, r := range records {
		out[i] = FromAuditRecord(r)
	}
	return out
}

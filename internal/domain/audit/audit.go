// Package audit defines the audit trail contract for inventory mutations.
// Every stock movement records who did what, against which subject
// document, and the before/after state.
package audit

import (
	"context"
	"fmt"
	"time"

	"stockyard/internal/core/id"
)

// Action represents the type of audited operation.
type Action string

const (
	ActionCreate      Action = "create"
	ActionUpdate      Action = "update"
	ActionDelete      Action = "delete"
	ActionSale        Action = "sale"
	ActionReplenish   Action = "replenish"
	ActionTransfer    Action = "transfer"
	ActionAdjustment  Action = "adjustment"
	ActionApproval    Action = "approval"
	ActionRejection   Action = "rejection"
)

// Entry represents a single audit record.
type Entry struct {
	// Action is the operation kind
	Action Action

	// ProductID is set for stock movements, nil for document-only events
	ProductID *id.ID

	// SubjectType and SubjectID reference the document that caused the
	// movement (sale, stock_request, replenishment_batch, daily_report).
	SubjectType string
	SubjectID   id.ID

	// ActorID is resolved from context when empty
	ActorID id.ID

	// OldValues and NewValues hold the state before and after
	OldValues map[string]any
	NewValues map[string]any

	// Description is a free-form human-readable note
	Description string

	CreatedAt time.Time
}

// Sink records audit entries. Implementations must write within the
// caller's transaction so the trail commits or rolls back with the
// mutation it describes.
type Sink interface {
	Record(ctx context.Context, entry Entry) error
}

// NopSink discards all entries. Used in tests.
type NopSink struct{}

func (NopSink) Record(ctx context.Context, entry Entry) error { return nil }

// Diff calculates the difference between old and new states.
func Diff(oldState, newState map[string]any) map[string]any {
	changes := make(map[string]any)

	for key, newVal := range newState {
		oldVal, exists := oldState[key]
		if !exists {
			changes[key] = map[string]any{"old": nil, "new": newVal}
		} else if !equal(oldVal, newVal) {
			changes[key] = map[string]any{"old": oldVal, "new": newVal}
		}
	}

	for key, oldVal := range oldState {
		if _, exists := newState[key]; !exists {
			changes[key] = map[string]any{"old": oldVal, "new": nil}
		}
	}

	return changes
}

func equal(a, b any) bool {
	return fmt.Sprintf("%v", a) == fmt.Sprintf("%v", b)
}

// Package appctx provides request-scoped context values: tracing info and
// the acting user. Business operations never read the actor implicitly;
// coordinator calls take an explicit actor id. The context values exist for
// log and audit enrichment only.
package appctx

import (
	"context"
)

// TraceContext carries request correlation identifiers.
type TraceContext struct {
	TraceID   string
	SpanID    string
	RequestID string
}

type traceKey struct{}

// WithTrace adds trace info to the context.
func WithTrace(ctx context.Context, trace *TraceContext) context.Context {
	return context.WithValue(ctx, traceKey{}, trace)
}

// GetTrace returns trace info from the context, or nil.
func GetTrace(ctx context.Context) *TraceContext {
	if t, ok := ctx.Value(traceKey{}).(*TraceContext); ok {
		return t
	}
	return nil
}

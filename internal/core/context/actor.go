package appctx

import (
	"context"

	"stockyard/internal/core/id"
)

// ActorContext identifies the authenticated user behind a request.
// Authentication itself is external; the HTTP layer receives the actor id
// from the auth proxy and stores it here for logging and audit enrichment.
type ActorContext struct {
	ActorID id.ID
	Role    string
}

type actorKey struct{}

// WithActor adds the actor to the context.
func WithActor(ctx context.Context, actor *ActorContext) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// GetActor returns the actor from the context, or nil.
func GetActor(ctx context.Context) *ActorContext {
	if a, ok := ctx.Value(actorKey{}).(*ActorContext); ok {
		return a
	}
	return nil
}

// GetActorID returns the actor id from the context, or the nil ID.
func GetActorID(ctx context.Context) id.ID {
	if a := GetActor(ctx); a != nil {
		return a.ActorID
	}
	return id.Nil()
}

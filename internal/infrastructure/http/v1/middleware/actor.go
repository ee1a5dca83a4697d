package middleware

import (
	"github.com/gin-gonic/gin"

	"stockyard/internal/core/apperror"
	appctx "stockyard/internal/core/context"
	"stockyard/internal/core/id"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
)

// Actor middleware resolves the acting user from trusted proxy headers.
// Authentication happens upstream; this layer only carries identity
// into the request context for audit and log enrichment.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(HeaderActorID)
		if raw == "" {
			c.Next()
			return
		}

		actorID, err := id.Parse(raw)
		if err != nil {
			_ = c.Error(apperror.NewValidation("invalid actor id").WithDetail("header", HeaderActorID))
			c.Abort()
			return
		}

		actor := &appctx.ActorContext{
			ActorID: actorID,
			Role:    c.GetHeader(HeaderActorRole),
		}

		ctx := appctx.WithActor(c.Request.Context(), actor)
		c.Request = c.Request.WithContext(ctx)

		c.Next()
	}
}

// RequireActor rejects requests that carry no actor identity.
// Mutating endpoints use it so every movement has an accountable actor.
func RequireActor() gin.HandlerFunc {
	return func(c *gin.Context) {
		if appctx.GetActor(c.Request.Context()) == nil {
			appErr := apperror.NewValidation("actor identity required")
			appErr.HTTPStatus = 401
			_ = c.Error(appErr.WithDetail("header", HeaderActorID))
			c.Abort()
			return
		}
		c.Next()
	}
}

// Package middleware holds the gin middleware shared by every API route.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/henmanager/internal/apperror"
	"github.com/mamadbah2/henmanager/internal/domain/access"
)

// ActorKey is the gin context key holding the authenticated access.Actor.
const ActorKey = "actor"

// TokenValidator turns a bearer token into the caller's identity.
type TokenValidator interface {
	Validate(token string) (access.Actor, error)
}

// Auth validates the bearer token and stores the actor on the request.
func Auth(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" {
			abort(c, apperror.NewUnauthorized("missing authorization header"))
			return
		}

		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			abort(c, apperror.NewUnauthorized("invalid authorization header format"))
			return
		}

		actor, err := validator.Validate(strings.TrimSpace(parts[1]))
		if err != nil {
			abort(c, err)
			return
		}

		c.Request = c.Request.WithContext(access.WithActor(c.Request.Context(), actor))
		c.Set(ActorKey, actor)
		c.Next()
	}
}

// RequirePermission rejects callers lacking permission before the handler runs.
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor, ok := access.FromContext(c.Request.Context())
		if !ok {
			abort(c, apperror.NewUnauthorized("authentication required"))
			return
		}
		if err := actor.Require(permission); err != nil {
			abort(c, err)
			return
		}
		c.Next()
	}
}

func abort(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

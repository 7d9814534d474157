// Package entity implements the decoration pipeline applied to
// entity-storage records as they cross the storage boundary: stages run in a
// fixed order before every write and after every read. The shipped stage
// attaches ownership, stamping the acting user (and acting app, when an
// application operates on behalf of a user) on writes and resolving the raw
// numeric owner into a full user record on reads.
package entity

import (
	"context"

	"github.com/loftfs/loft/pkg/fs/models"
)

// Actor is the principal a request acts as. User is always set; AppUID is
// set when an application is acting on behalf of the user.
type Actor struct {
	User   *models.User
	AppUID string
}

// System is the privileged internal actor. It owns nothing and is used for
// maintenance work and transient privilege escalation.
var System = &Actor{User: &models.User{Username: "system"}}

// IsSystem reports whether the actor is the internal system principal.
func (a *Actor) IsSystem() bool {
	return a == System
}

type actorKey struct{}

// WithActor attaches the acting principal to the context.
func WithActor(ctx context.Context, actor *Actor) context.Context {
	return context.WithValue(ctx, actorKey{}, actor)
}

// ActorFromContext returns the acting principal, or nil if none is attached.
func ActorFromContext(ctx context.Context) *Actor {
	actor, _ := ctx.Value(actorKey{}).(*Actor)
	return actor
}

// Sudo returns a context acting as the system principal. Used for single
// operations that must succeed regardless of the caller's permissions.
func Sudo(ctx context.Context) context.Context {
	return WithActor(ctx, System)
}

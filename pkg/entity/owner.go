package entity

import (
	"context"
	"errors"
	"fmt"

	"github.com/loftfs/loft/pkg/apps"
	"github.com/loftfs/loft/pkg/cache"
	"github.com/loftfs/loft/pkg/fs/models"
)

// Well-known record fields managed by OwnerStage.
const (
	FieldOwner    = "owner"
	FieldAppOwner = "app_owner"
)

// ErrNoActor is returned when a write reaches the pipeline without an acting
// principal on the context.
var ErrNoActor = errors.New("no actor attached to context")

// UserReader resolves numeric owner ids into user records.
type UserReader interface {
	GetUserByID(ctx context.Context, id uint64) (*models.User, error)
}

// OwnerStage attaches ownership on writes and resolves it on reads.
//
// On write, the acting user's id becomes the record's owner unless an owner
// is already present. When an application acts on behalf of a user, the
// app's numeric id is additionally attached as app_owner; the app record is
// read with transiently escalated privilege, since the acting app may lack
// permission to read its own registration record.
//
// On read, a raw numeric owner is replaced with the full user record before
// the entity is returned to callers.
type OwnerStage struct {
	users UserReader
	apps  *apps.Cache
}

// NewOwnerStage creates the ownership stage.
func NewOwnerStage(users UserReader, appCache *apps.Cache) *OwnerStage {
	return &OwnerStage{users: users, apps: appCache}
}

func (s *OwnerStage) BeforeWrite(ctx context.Context, rec Record) error {
	actor := ActorFromContext(ctx)
	if actor == nil || actor.User == nil {
		return ErrNoActor
	}

	if _, ok := rec[FieldOwner]; !ok {
		rec[FieldOwner] = actor.User.ID
	}

	if actor.AppUID != "" {
		app, err := s.apps.Get(Sudo(ctx), cache.UIDKey(actor.AppUID), false)
		if err != nil {
			return fmt.Errorf("resolving acting app %q: %w", actor.AppUID, err)
		}
		if app == nil {
			return fmt.Errorf("acting app %q is not registered", actor.AppUID)
		}
		rec[FieldAppOwner] = app.ID
	}
	return nil
}

func (s *OwnerStage) AfterRead(ctx context.Context, rec Record) error {
	ownerID, ok := numericOwner(rec[FieldOwner])
	if !ok {
		return nil
	}
	user, err := s.users.GetUserByID(ctx, ownerID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil
		}
		return fmt.Errorf("resolving owner %d: %w", ownerID, err)
	}
	rec[FieldOwner] = user
	return nil
}

// numericOwner normalizes the persisted owner value, which round-trips
// through storage drivers as various integer widths.
func numericOwner(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint64:
		return n, true
	case int64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case int:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	case float64:
		if n < 0 {
			return 0, false
		}
		return uint64(n), true
	default:
		return 0, false
	}
}

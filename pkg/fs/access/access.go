// Package access makes permission decisions over filesystem entries and
// issues time-limited signed access grants.
//
// Permission checks are boolean and cheap: denial is a false return, never an
// error, because they sit on the hot path of every listing. Signed grants are
// stateless HMAC capabilities; there is no revocation short of secret
// rotation or expiry.
package access

import (
	"context"

	"github.com/loftfs/loft/internal/logger"
	"github.com/loftfs/loft/pkg/fs/models"
)

// Action is an operation a requester may perform on an entry.
type Action string

const (
	// ActionRead allows reading entry content and listings.
	ActionRead Action = "read"
	// ActionWrite allows mutation. A write grant implies every other action.
	ActionWrite Action = "write"
	// ActionMetadata allows reading entry metadata only.
	ActionMetadata Action = "metadata"
)

// ShareReader answers share-relation questions for permission checks.
type ShareReader interface {
	// IsSharedWith reports whether the entry is shared with the recipient.
	IsSharedWith(ctx context.Context, entryID, recipientID uint64) (bool, error)
	// HasSharedWith reports whether the owner shared anything with the recipient.
	HasSharedWith(ctx context.Context, ownerID, recipientID uint64) (bool, error)
}

// Controller makes permission decisions and issues signed grants.
type Controller struct {
	shares ShareReader
	signer *Signer
}

// New creates a Controller. The signer may be nil when only permission
// checks are needed.
func New(shares ShareReader, signer *Signer) *Controller {
	return &Controller{shares: shares, signer: signer}
}

// Signer returns the controller's grant signer.
func (c *Controller) Signer() *Signer {
	return c.signer
}

// Check decides whether the requester may perform action on the entry.
//
// Rules, in order:
//   - absent entry: deny
//   - synthetic root pseudo-directory: read only
//   - requester owns the entry: allow
//   - entry explicitly shared with the requester: allow
//   - entry is a user root whose owner has shared at least one entry with
//     the requester, and the action is not write: allow
//   - otherwise: deny
//
// Store failures during share lookups deny and log; a permission check never
// raises.
func (c *Controller) Check(ctx context.Context, entry *models.FSEntry, requesterID uint64, action Action) bool {
	if entry == nil {
		return false
	}

	// Synthetic pseudo-directories grafted onto "/" are readable only.
	if entry.IsRoot {
		return action == ActionRead
	}

	if entry.UserID == requesterID {
		return true
	}

	shared, err := c.shares.IsSharedWith(ctx, entry.ID, requesterID)
	if err != nil {
		logger.WarnCtx(ctx, "share lookup failed during permission check",
			logger.KeyEntryUID, entry.UUID, logger.KeyError, err.Error())
		return false
	}
	if shared {
		return true
	}

	// A user's root directory is visible to anyone they have shared
	// something with, so "/{owner_username}" can be listed. Write stays
	// owner-only.
	if entry.ParentUID == nil && action != ActionWrite {
		hasShared, err := c.shares.HasSharedWith(ctx, entry.UserID, requesterID)
		if err != nil {
			logger.WarnCtx(ctx, "share lookup failed during permission check",
				logger.KeyEntryUID, entry.UUID, logger.KeyError, err.Error())
			return false
		}
		if hasShared {
			return true
		}
	}

	return false
}

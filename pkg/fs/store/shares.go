package store

import (
	"context"

	"github.com/loftfs/loft/pkg/fs/models"
)

// ============================================
// SHARE OPERATIONS
// ============================================
//
// Shares are created and removed by the sharing feature; this layer reads
// them for descendant enumeration and permission checks.

// IsSharedWith reports whether the entry is shared with the recipient.
func (s *GORMStore) IsSharedWith(ctx context.Context, entryID, recipientID uint64) (bool, error) {
	return exists[models.Share](s.reader(), ctx,
		"fsentry_id = ? AND recipient_user_id = ?", entryID, recipientID)
}

// HasSharedWith reports whether the owner has shared at least one entry with
// the recipient.
func (s *GORMStore) HasSharedWith(ctx context.Context, ownerID, recipientID uint64) (bool, error) {
	return exists[models.Share](s.reader(), ctx,
		"owner_user_id = ? AND recipient_user_id = ?", ownerID, recipientID)
}

// SharingUsers returns the distinct users who have shared at least one entry
// with the recipient, joined to their usernames. The navigator grafts one
// synthetic directory per returned user onto the recipient's root listing.
func (s *GORMStore) SharingUsers(ctx context.Context, recipientID uint64) ([]models.SharingUser, error) {
	var results []models.SharingUser
	err := s.reader().WithContext(ctx).
		Table("share").
		Select("DISTINCT share.owner_user_id, user.username").
		Joins("INNER JOIN user ON user.id = share.owner_user_id").
		Where("share.recipient_user_id = ?", recipientID).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// SharedEntries returns the entries the owner explicitly shared with the
// recipient. This is the flattened, non-hierarchical view behind the
// "/{owner_username}" share root.
func (s *GORMStore) SharedEntries(ctx context.Context, ownerID, recipientID uint64) ([]*models.FSEntry, error) {
	var results []*models.FSEntry
	err := s.reader().WithContext(ctx).
		Table("fsentries").
		Select("fsentries.*").
		Joins("INNER JOIN share ON share.fsentry_id = fsentries.id").
		Where("share.recipient_user_id = ? AND share.owner_user_id = ?", recipientID, ownerID).
		Scan(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// CreateShare records a share grant. Exposed for the sharing feature and
// tests; duplicate (entry, recipient) pairs map to ErrDuplicateShare.
func (s *GORMStore) CreateShare(ctx context.Context, share *models.Share) error {
	if err := s.primary().WithContext(ctx).Create(share).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.ErrDuplicateShare
		}
		return err
	}
	return nil
}

// DeleteShare removes a share grant by id.
func (s *GORMStore) DeleteShare(ctx context.Context, id uint64) error {
	return deleteByField[models.Share](s.primary(), ctx, "id", id, models.ErrShareNotFound)
}

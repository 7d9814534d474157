package store

import (
	"context"

	"github.com/loftfs/loft/pkg/fs/models"
)

// ============================================
// SUBDOMAIN OPERATIONS
// ============================================

// RootDirIDsWithWebsite reports which of the given directory ids have a
// public website mapping for the user. One query covers a whole sibling set
// so directory listings annotate has_website without per-child lookups.
func (s *GORMStore) RootDirIDsWithWebsite(ctx context.Context, dirIDs []uint64, userID uint64) (map[uint64]bool, error) {
	if len(dirIDs) == 0 {
		return map[uint64]bool{}, nil
	}

	var rows []struct{ RootDirID uint64 }
	err := s.reader().WithContext(ctx).
		Model(&models.Subdomain{}).
		Select("root_dir_id").
		Where("root_dir_id IN ? AND user_id = ?", dirIDs, userID).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	result := make(map[uint64]bool, len(rows))
	for _, row := range rows {
		result[row.RootDirID] = true
	}
	return result, nil
}

// CreateSubdomain persists a website mapping.
func (s *GORMStore) CreateSubdomain(ctx context.Context, sub *models.Subdomain) error {
	return s.primary().WithContext(ctx).Create(sub).Error
}

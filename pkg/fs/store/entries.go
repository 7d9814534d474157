package store

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/loftfs/loft/pkg/fs/models"
)

// ============================================
// FSENTRY OPERATIONS
// ============================================

// GetEntryByUUID retrieves an entry by its public UUID from the read handle.
func (s *GORMStore) GetEntryByUUID(ctx context.Context, uid string) (*models.FSEntry, error) {
	return getByField[models.FSEntry](s.reader(), ctx, "uuid", uid, models.ErrEntryNotFound)
}

// GetEntryByUUIDPrimary is the consistent-read variant of GetEntryByUUID.
// The ancestor walk retries here when a replica read unexpectedly misses.
func (s *GORMStore) GetEntryByUUIDPrimary(ctx context.Context, uid string) (*models.FSEntry, error) {
	return getByField[models.FSEntry](s.primary(), ctx, "uuid", uid, models.ErrEntryNotFound)
}

// GetEntryByID retrieves an entry by its internal numeric id.
func (s *GORMStore) GetEntryByID(ctx context.Context, id uint64) (*models.FSEntry, error) {
	return getByField[models.FSEntry](s.reader(), ctx, "id", id, models.ErrEntryNotFound)
}

// UUIDForID translates an internal numeric id to the public UUID with a
// single-row lookup.
func (s *GORMStore) UUIDForID(ctx context.Context, id uint64) (string, error) {
	var row struct{ UUID string }
	err := s.reader().WithContext(ctx).
		Model(&models.FSEntry{}).
		Select("uuid").
		Where("id = ?", id).
		First(&row).Error
	if err != nil {
		return "", convertNotFoundError(err, models.ErrEntryNotFound)
	}
	return row.UUID, nil
}

// GetEntryByPath looks an entry up by its denormalized path column. This is
// the fast path of resolution; a miss is expected whenever the column has not
// been lazily populated yet.
func (s *GORMStore) GetEntryByPath(ctx context.Context, path string) (*models.FSEntry, error) {
	return getByField[models.FSEntry](s.reader(), ctx, "path", path, models.ErrEntryNotFound)
}

// GetRootByName finds a user root (parent_uid IS NULL) by name.
func (s *GORMStore) GetRootByName(ctx context.Context, name string) (*models.FSEntry, error) {
	var result models.FSEntry
	err := s.reader().WithContext(ctx).
		Where("parent_uid IS NULL AND name = ?", name).
		First(&result).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrEntryNotFound)
	}
	return &result, nil
}

// GetChildByName finds the child of parentUID with the given name.
func (s *GORMStore) GetChildByName(ctx context.Context, parentUID, name string) (*models.FSEntry, error) {
	var result models.FSEntry
	err := s.reader().WithContext(ctx).
		Where("parent_uid = ? AND name = ?", parentUID, name).
		First(&result).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrEntryNotFound)
	}
	return &result, nil
}

// ListChildren returns the direct children of parentUID.
func (s *GORMStore) ListChildren(ctx context.Context, parentUID string) ([]*models.FSEntry, error) {
	var results []*models.FSEntry
	err := s.reader().WithContext(ctx).
		Where("parent_uid = ?", parentUID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListRoots returns the user's root-level entries (parent_uid IS NULL).
func (s *GORMStore) ListRoots(ctx context.Context, userID uint64) ([]*models.FSEntry, error) {
	var results []*models.FSEntry
	err := s.reader().WithContext(ctx).
		Where("user_id = ? AND parent_uid IS NULL", userID).
		Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// IsEmptyDir reports whether the directory identified by dirUID has no
// children.
func (s *GORMStore) IsEmptyDir(ctx context.Context, dirUID string) (bool, error) {
	notEmpty, err := exists[models.FSEntry](s.reader(), ctx, "parent_uid = ?", dirUID)
	if err != nil {
		return false, err
	}
	return !notEmpty, nil
}

// PathForUUID computes the full path of an entry by a recursive ascent to its
// root, executed as a single recursive CTE round trip rather than N sequential
// lookups. It returns models.ErrEntryNotFound when the chain does not
// terminate at a root, which callers treat as a broken ancestor chain.
//
// The query always runs against the primary: path reconstruction often
// follows a write, and a replica-lag miss here is indistinguishable from
// corruption.
func (s *GORMStore) PathForUUID(ctx context.Context, uid string) (string, error) {
	concat := "CONCAT(e.name, '/', cte.path)"
	if s.db.Dialector.Name() == "sqlite" {
		concat = "e.name || '/' || cte.path"
	}

	query := fmt.Sprintf(`
		WITH RECURSIVE cte AS (
			SELECT uuid, parent_uid, name, name AS path
			FROM fsentries
			WHERE uuid = ?

			UNION ALL

			SELECT e.uuid, e.parent_uid, e.name, %s
			FROM fsentries e
			INNER JOIN cte ON cte.parent_uid = e.uuid
		)
		SELECT path
		FROM cte
		WHERE parent_uid IS NULL`, concat)

	var row struct{ Path string }
	err := s.primary().WithContext(ctx).Raw(query, uid).Scan(&row).Error
	if err != nil {
		return "", fmt.Errorf("recursive path query for %s: %w", uid, err)
	}
	if row.Path == "" {
		return "", models.ErrEntryNotFound
	}
	return "/" + row.Path, nil
}

// CreateEntry persists a new entry, assigning a UUID when absent. The parent
// must already exist, which keeps the tree acyclic by construction.
func (s *GORMStore) CreateEntry(ctx context.Context, entry *models.FSEntry) (string, error) {
	if entry.ParentUID != nil {
		parentExists, err := exists[models.FSEntry](s.primary(), ctx, "uuid = ?", *entry.ParentUID)
		if err != nil {
			return "", err
		}
		if !parentExists {
			return "", models.ErrEntryNotFound
		}
	}
	if entry.Accessed.IsZero() {
		entry.Accessed = time.Now()
	}
	return createWithUUID(s.primary(), ctx, entry,
		entry.UUID, func(e *models.FSEntry, id string) { e.UUID = id },
		models.ErrDuplicateEntry)
}

// MoveEntry updates name, parent_uid, and the denormalized path in one
// transaction so the three never diverge.
func (s *GORMStore) MoveEntry(ctx context.Context, uid string, newParentUID *string, newName, newPath string) error {
	return s.primary().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.FSEntry
		if err := tx.Where("uuid = ?", uid).First(&entry).Error; err != nil {
			return convertNotFoundError(err, models.ErrEntryNotFound)
		}
		updates := map[string]any{
			"name":       newName,
			"parent_uid": newParentUID,
			"path":       newPath,
			"modified":   time.Now(),
		}
		return tx.Model(&entry).Updates(updates).Error
	})
}

// SetEntryPath lazily populates the denormalized path column.
func (s *GORMStore) SetEntryPath(ctx context.Context, uid, path string) error {
	return s.primary().WithContext(ctx).
		Model(&models.FSEntry{}).
		Where("uuid = ?", uid).
		Update("path", path).Error
}

// TouchAccessed stamps the entry's accessed time.
func (s *GORMStore) TouchAccessed(ctx context.Context, uid string) error {
	return s.primary().WithContext(ctx).
		Model(&models.FSEntry{}).
		Where("uuid = ?", uid).
		Update("accessed", time.Now()).Error
}

// SetPublicToken stores (or clears, when nil) the anonymous-access capability
// token for the entry.
func (s *GORMStore) SetPublicToken(ctx context.Context, uid string, token *string) error {
	result := s.primary().WithContext(ctx).
		Model(&models.FSEntry{}).
		Where("uuid = ?", uid).
		Update("public_token", token)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return models.ErrEntryNotFound
	}
	return nil
}

// DeleteEntry removes an entry by UUID. Cascading deletion of descendants is
// the caller's responsibility.
func (s *GORMStore) DeleteEntry(ctx context.Context, uid string) error {
	return deleteByField[models.FSEntry](s.primary(), ctx, "uuid", uid, models.ErrEntryNotFound)
}

// TotalSize sums entry sizes for a user.
func (s *GORMStore) TotalSize(ctx context.Context, userID uint64) (int64, error) {
	var row struct{ Total int64 }
	err := s.reader().WithContext(ctx).
		Model(&models.FSEntry{}).
		Select("COALESCE(SUM(size), 0) AS total").
		Where("user_id = ?", userID).
		Scan(&row).Error
	if err != nil {
		return 0, err
	}
	return row.Total, nil
}

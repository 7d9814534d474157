package store

import (
	"context"

	"gorm.io/gorm"

	"github.com/loftfs/loft/pkg/fs/models"
)

// ============================================
// APP OPERATIONS
// ============================================

// appColumns applies the icon-light projection. The icon column dominates row
// size, so callers that do not need it never transfer it.
func appColumns(q *gorm.DB, withIcon bool) *gorm.DB {
	if withIcon {
		return q
	}
	return q.Omit("icon")
}

// GetAppByUID retrieves an app by UID.
func (s *GORMStore) GetAppByUID(ctx context.Context, uid string, withIcon bool) (*models.App, error) {
	var result models.App
	err := appColumns(s.reader().WithContext(ctx), withIcon).
		Where("uid = ?", uid).
		First(&result).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrAppNotFound)
	}
	return &result, nil
}

// GetAppByName retrieves an app by name.
func (s *GORMStore) GetAppByName(ctx context.Context, name string, withIcon bool) (*models.App, error) {
	var result models.App
	err := appColumns(s.reader().WithContext(ctx), withIcon).
		Where("name = ?", name).
		First(&result).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrAppNotFound)
	}
	return &result, nil
}

// GetAppByID retrieves an app by numeric id.
func (s *GORMStore) GetAppByID(ctx context.Context, id uint64, withIcon bool) (*models.App, error) {
	var result models.App
	err := appColumns(s.reader().WithContext(ctx), withIcon).
		Where("id = ?", id).
		First(&result).Error
	if err != nil {
		return nil, convertNotFoundError(err, models.ErrAppNotFound)
	}
	return &result, nil
}

// AppsByKeys fetches every app matching any of the given uids, names, or
// numeric ids in a single query. The coalescing cache funnels all of a
// batch's misses through here so a miss storm costs one round trip.
func (s *GORMStore) AppsByKeys(ctx context.Context, uids []string, names []string, ids []uint64, withIcon bool) ([]*models.App, error) {
	if len(uids) == 0 && len(names) == 0 && len(ids) == 0 {
		return nil, nil
	}

	q := appColumns(s.reader().WithContext(ctx).Model(&models.App{}), withIcon)

	cond := s.reader().Model(&models.App{})
	first := true
	or := func(query string, arg any) {
		if first {
			cond = cond.Where(query, arg)
			first = false
		} else {
			cond = cond.Or(query, arg)
		}
	}
	if len(uids) > 0 {
		or("uid IN ?", uids)
	}
	if len(names) > 0 {
		or("name IN ?", names)
	}
	if len(ids) > 0 {
		or("id IN ?", ids)
	}

	var results []*models.App
	if err := q.Where(cond).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// ListApps returns all apps, optionally without icons.
func (s *GORMStore) ListApps(ctx context.Context, withIcon bool) ([]*models.App, error) {
	var results []*models.App
	err := appColumns(s.reader().WithContext(ctx), withIcon).Find(&results).Error
	if err != nil {
		return nil, err
	}
	return results, nil
}

// ListAssociations returns every filetype association row. The extension
// index rebuild consumes this.
func (s *GORMStore) ListAssociations(ctx context.Context) ([]*models.AppFiletypeAssociation, error) {
	var results []*models.AppFiletypeAssociation
	if err := s.reader().WithContext(ctx).Find(&results).Error; err != nil {
		return nil, err
	}
	return results, nil
}

// CreateApp persists an app record, assigning a UID when absent.
func (s *GORMStore) CreateApp(ctx context.Context, app *models.App) (string, error) {
	return createWithUUID(s.primary(), ctx, app,
		app.UID, func(a *models.App, id string) { a.UID = id },
		models.ErrDuplicateApp)
}

// CreateAssociation registers an app as a handler for a file extension.
func (s *GORMStore) CreateAssociation(ctx context.Context, assoc *models.AppFiletypeAssociation) error {
	return s.primary().WithContext(ctx).Create(assoc).Error
}

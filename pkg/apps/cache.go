// Package apps resolves application records through a coalescing TTL cache
// and suggests applications for filesystem entries.
//
// App records are cached redundantly under uid, name and numeric id. Two
// independent namespaces hold the same records, one with and one without the
// heavyweight icon field, selected by a caller-supplied flag. The
// extension-to-app-id association index used for "open with" suggestions
// lives in the same cache client under its own namespace and is rebuilt
// wholesale by RefreshAssociations.
package apps

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"github.com/loftfs/loft/internal/logger"
	"github.com/loftfs/loft/pkg/cache"
	"github.com/loftfs/loft/pkg/fs/models"
)

// Store is the subset of the metadata store the app cache reads from.
type Store interface {
	GetAppByUID(ctx context.Context, uid string, withIcon bool) (*models.App, error)
	GetAppByName(ctx context.Context, name string, withIcon bool) (*models.App, error)
	GetAppByID(ctx context.Context, id uint64, withIcon bool) (*models.App, error)
	AppsByKeys(ctx context.Context, uids []string, names []string, ids []uint64, withIcon bool) ([]*models.App, error)
	ListApps(ctx context.Context, withIcon bool) ([]*models.App, error)
	ListAssociations(ctx context.Context) ([]*models.AppFiletypeAssociation, error)
}

// Config tunes the app cache.
type Config struct {
	// ResultTTL bounds cached app records. Default 5 minutes.
	ResultTTL time.Duration
	// PendingTTL bounds single-flight pending markers. Default 5 seconds.
	PendingTTL time.Duration
	// Metrics is optional.
	Metrics cache.Metrics
}

// Cache resolves app records by uid, name or id, coalescing concurrent
// lookups for the same key into one store read.
type Cache struct {
	store  Store
	client *ttlcache.Cache[string, any]
	full   *cache.Coalescer[models.App]
	lite   *cache.Coalescer[models.App]
}

// NewCache creates an app cache on top of the given store. The client holds
// both record namespaces, their pending markers, and the association index.
func NewCache(store Store, client *ttlcache.Cache[string, any], cfg Config) *Cache {
	c := &Cache{store: store, client: client}
	c.full = cache.NewCoalescer(cache.Config[models.App]{
		Cache:            client,
		Backing:          &storeBacking{store: store, withIcon: true},
		KeysOf:           appKeys,
		Namespace:        "apps",
		PendingNamespace: "pending_app",
		ResultTTL:        cfg.ResultTTL,
		PendingTTL:       cfg.PendingTTL,
		Metrics:          cfg.Metrics,
	})
	c.lite = cache.NewCoalescer(cache.Config[models.App]{
		Cache:            client,
		Backing:          &storeBacking{store: store, withIcon: false},
		KeysOf:           appKeys,
		Namespace:        "apps:lite",
		PendingNamespace: "pending_app_lite",
		ResultTTL:        cfg.ResultTTL,
		PendingTTL:       cfg.PendingTTL,
		Metrics:          cfg.Metrics,
	})
	return c
}

func appKeys(app *models.App) []cache.Key {
	return []cache.Key{
		cache.UIDKey(app.UID),
		cache.NameKey(app.Name),
		cache.IDKey(app.ID),
	}
}

func (c *Cache) coalescer(withIcon bool) *cache.Coalescer[models.App] {
	if withIcon {
		return c.full
	}
	return c.lite
}

// Get resolves one app by any key kind. Returns (nil, nil) when no app
// matches. The returned record is a shallow copy safe for the caller to
// mutate.
func (c *Cache) Get(ctx context.Context, key cache.Key, withIcon bool) (*models.App, error) {
	return c.coalescer(withIcon).GetOne(ctx, key)
}

// GetMany resolves a batch of keys in one backing read, preserving input
// order. Keys with no matching app yield nil at their position.
func (c *Cache) GetMany(ctx context.Context, keys []cache.Key, withIcon bool) ([]*models.App, error) {
	return c.coalescer(withIcon).GetMany(ctx, keys)
}

// RefreshAll reloads every app record into both cache namespaces.
func (c *Cache) RefreshAll(ctx context.Context) error {
	apps, err := c.store.ListApps(ctx, true)
	if err != nil {
		return fmt.Errorf("refreshing apps cache: %w", err)
	}
	for _, app := range apps {
		c.full.Put(app)
		lite := *app
		lite.Icon = ""
		c.lite.Put(&lite)
	}
	logger.InfoCtx(ctx, "apps cache refreshed", logger.KeyCount, len(apps))
	return nil
}

// RefreshAssociations rebuilds the extension-to-app-id index from the
// association table. Extensions are stored without their leading dot; rows
// with an empty type are skipped.
func (c *Cache) RefreshAssociations(ctx context.Context) error {
	assocs, err := c.store.ListAssociations(ctx)
	if err != nil {
		return fmt.Errorf("refreshing file associations: %w", err)
	}

	lists := make(map[string][]uint64)
	for _, assoc := range assocs {
		ext := strings.TrimPrefix(assoc.Type, ".")
		if ext == "" {
			continue
		}
		lists[ext] = append(lists[ext], assoc.AppID)
	}
	for ext, ids := range lists {
		c.client.Set(assocKey(ext), ids, ttlcache.NoTTL)
	}
	logger.InfoCtx(ctx, "file associations refreshed",
		logger.KeyCount, len(lists), logger.KeyBatchSize, len(assocs))
	return nil
}

// AppIDsForExt returns the registered handler app ids for a file extension
// (without the leading dot). Returns nil when no handlers are registered.
func (c *Cache) AppIDsForExt(ext string) []uint64 {
	item := c.client.Get(assocKey(ext))
	if item == nil {
		return nil
	}
	ids, ok := item.Value().([]uint64)
	if !ok {
		return nil
	}
	return ids
}

func assocKey(ext string) string {
	return "assocs:" + ext + ":apps"
}

// storeBacking adapts the metadata store to the coalescer's backing
// interface for one icon variant.
type storeBacking struct {
	store    Store
	withIcon bool
}

func (b *storeBacking) FetchOne(ctx context.Context, key cache.Key) (*models.App, error) {
	var (
		app *models.App
		err error
	)
	switch key.Kind {
	case cache.KindUID:
		app, err = b.store.GetAppByUID(ctx, key.Value, b.withIcon)
	case cache.KindName:
		app, err = b.store.GetAppByName(ctx, key.Value, b.withIcon)
	case cache.KindID:
		var id uint64
		id, err = strconv.ParseUint(key.Value, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid app id %q: %w", key.Value, err)
		}
		app, err = b.store.GetAppByID(ctx, id, b.withIcon)
	default:
		return nil, fmt.Errorf("unknown app key kind %q", key.Kind)
	}
	if errors.Is(err, models.ErrAppNotFound) {
		return nil, nil
	}
	return app, err
}

func (b *storeBacking) FetchBatch(ctx context.Context, keys []cache.Key) ([]*models.App, error) {
	var (
		uids  []string
		names []string
		ids   []uint64
	)
	for _, key := range keys {
		switch key.Kind {
		case cache.KindUID:
			uids = append(uids, key.Value)
		case cache.KindName:
			names = append(names, key.Value)
		case cache.KindID:
			id, err := strconv.ParseUint(key.Value, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid app id %q: %w", key.Value, err)
			}
			ids = append(ids, id)
		default:
			return nil, fmt.Errorf("unknown app key kind %q", key.Kind)
		}
	}
	return b.store.AppsByKeys(ctx, uids, names, ids, b.withIcon)
}

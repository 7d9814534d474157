// Package resolver maps absolute slash-delimited paths to filesystem entries
// and back.
//
// Forward resolution tries the denormalized path column first and falls back
// to a segment-by-segment walk from the root, inheriting is_public from the
// nearest ancestor that sets it. Reverse resolution runs as a single
// recursive query; a failure there means a dangling parent reference, which
// is data corruption and is reported before being returned.
package resolver

import (
	"context"
	"errors"
	"fmt"
	gopath "path"
	"strings"

	"github.com/loftfs/loft/internal/errtrack"
	"github.com/loftfs/loft/internal/logger"
	"github.com/loftfs/loft/pkg/fs/models"
)

// Store is the subset of the metadata store the resolver needs.
type Store interface {
	GetEntryByPath(ctx context.Context, path string) (*models.FSEntry, error)
	GetRootByName(ctx context.Context, name string) (*models.FSEntry, error)
	GetChildByName(ctx context.Context, parentUID, name string) (*models.FSEntry, error)
	PathForUUID(ctx context.Context, uid string) (string, error)
	UUIDForID(ctx context.Context, id uint64) (string, error)
}

// PathResolutionError indicates that an entry's path could not be
// reconstructed: either the entry does not exist or its ancestor chain is
// broken. Both cases are unexpected for entries handed out by this layer, so
// the resolver reports them to the error tracker before returning.
type PathResolutionError struct {
	EntryUID string
	Err      error
}

func (e *PathResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve path for %s: %v", e.EntryUID, e.Err)
}

func (e *PathResolutionError) Unwrap() error {
	return e.Err
}

// Resolver performs bidirectional path/entry mapping.
type Resolver struct {
	store  Store
	errors errtrack.Reporter
}

// New creates a Resolver. A nil reporter disables error tracking.
func New(store Store, reporter errtrack.Reporter) *Resolver {
	if reporter == nil {
		reporter = errtrack.Nop{}
	}
	return &Resolver{store: store, errors: reporter}
}

// Resolve maps an absolute path to its entry.
//
// The forest root "/" resolves to (nil, nil): a valid location with no entry
// object behind it, distinct from not-found. Any segment that fails to match
// returns models.ErrEntryNotFound. The returned entry's IsPublic is resolved
// against the walk's running inheritance flag, so callers always see an
// explicit value.
func (r *Resolver) Resolve(ctx context.Context, path string) (*models.FSEntry, error) {
	path = Normalize(path)
	if path == "/" {
		return nil, nil
	}

	// Try the denormalized path column first.
	entry, err := r.store.GetEntryByPath(ctx, path)
	if err == nil {
		return entry, nil
	}
	if !errors.Is(err, models.ErrEntryNotFound) {
		return nil, fmt.Errorf("path lookup for %s: %w", path, err)
	}

	segments := strings.Split(strings.TrimPrefix(path, "/"), "/")

	var (
		current  *models.FSEntry
		isPublic bool
	)
	for i, segment := range segments {
		if i == 0 {
			entry, err = r.store.GetRootByName(ctx, segment)
		} else {
			entry, err = r.store.GetChildByName(ctx, current.UUID, segment)
		}
		if err != nil {
			if errors.Is(err, models.ErrEntryNotFound) {
				return nil, models.ErrEntryNotFound
			}
			return nil, fmt.Errorf("segment walk for %s: %w", path, err)
		}

		// is_public is either directly specified or inherited from the
		// nearest ancestor that sets it.
		if entry.IsPublic == nil {
			inherited := isPublic
			entry.IsPublic = &inherited
		} else {
			isPublic = *entry.IsPublic
		}

		current = entry
	}

	return current, nil
}

// PathFor computes the full path of the entry identified by uid via a single
// recursive ascent. A miss or a broken chain is wrapped in a
// *PathResolutionError and reported with full context, because a chain that
// does not terminate at a root indicates corruption.
func (r *Resolver) PathFor(ctx context.Context, uid string) (string, error) {
	if uid == "" {
		return "", &PathResolutionError{EntryUID: uid, Err: errors.New("empty entry uid")}
	}

	path, err := r.store.PathForUUID(ctx, uid)
	if err != nil {
		resErr := &PathResolutionError{EntryUID: uid, Err: err}
		r.errors.Report(ctx, "resolver.path_for", resErr, true, logger.KeyEntryUID, uid)
		return "", resErr
	}
	return path, nil
}

// PathForID is PathFor for internal numeric ids: the id is first translated
// to its UUID with a single-row lookup.
func (r *Resolver) PathForID(ctx context.Context, id uint64) (string, error) {
	uid, err := r.store.UUIDForID(ctx, id)
	if err != nil {
		resErr := &PathResolutionError{EntryUID: fmt.Sprintf("id:%d", id), Err: err}
		r.errors.Report(ctx, "resolver.path_for_id", resErr, true, logger.KeyEntryID, id)
		return "", resErr
	}
	return r.PathFor(ctx, uid)
}

// Normalize converts a path to absolute canonical form: leading slash,
// no trailing slash (except the bare root), no empty or dot segments.
func Normalize(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return gopath.Clean(path)
}

// Package navigator implements tree traversal over the filesystem metadata
// store: descendant enumeration with depth limits and cross-user share
// grafting, ancestor walks, and glob-based search.
//
// The share graft gives every user a flattened "shared with me" namespace:
// listing a user's root includes one synthetic immutable pseudo-directory per
// user who has shared something with them, and listing such a pseudo-directory
// yields exactly the shared entries rather than the sharer's real tree.
package navigator

import (
	"context"
	"errors"
	"math"
	"mime"
	gopath "path"
	"strings"

	"github.com/loftfs/loft/internal/logger"
	"github.com/loftfs/loft/pkg/fs/access"
	"github.com/loftfs/loft/pkg/fs/models"
	"github.com/loftfs/loft/pkg/fs/resolver"
)

// DepthUnlimited disables the depth limit on Descendants.
const DepthUnlimited = math.MaxInt

// Store is the subset of the metadata store the navigator reads from.
type Store interface {
	GetEntryByUUID(ctx context.Context, uid string) (*models.FSEntry, error)
	GetEntryByUUIDPrimary(ctx context.Context, uid string) (*models.FSEntry, error)
	GetEntryByID(ctx context.Context, id uint64) (*models.FSEntry, error)
	ListChildren(ctx context.Context, parentUID string) ([]*models.FSEntry, error)
	ListRoots(ctx context.Context, userID uint64) ([]*models.FSEntry, error)
	SharingUsers(ctx context.Context, recipientID uint64) ([]models.SharingUser, error)
	SharedEntries(ctx context.Context, ownerID, recipientID uint64) ([]*models.FSEntry, error)
	GetUser(ctx context.Context, username string) (*models.User, error)
	RootDirIDsWithWebsite(ctx context.Context, dirIDs []uint64, userID uint64) (map[uint64]bool, error)
}

// Navigator traverses the filesystem tree on behalf of a requesting user.
type Navigator struct {
	store    Store
	resolver *resolver.Resolver
	access   *access.Controller
}

// New creates a Navigator.
func New(store Store, res *resolver.Resolver, ctrl *access.Controller) *Navigator {
	return &Navigator{
		store:    store,
		resolver: res,
		access:   ctrl,
	}
}

// Descendants lists every entry under path visible to the requester, down to
// the given depth (DepthUnlimited for the whole subtree, 1 for immediate
// children only). Results are flattened into one list in traversal order.
//
// Listing behaves differently at three kinds of location:
//
//  1. The forest root "/": the requester's own root entries, plus one
//     synthetic immutable pseudo-directory per user who has shared at least
//     one entry with the requester.
//  2. Another user's share root "/{username}": exactly the entries that user
//     has shared with the requester, as a flat list.
//  3. Anywhere else: direct children filtered by a read permission check.
//
// A path that does not resolve yields an empty list, not an error. Every
// listed directory is annotated with whether a public-website mapping exists
// for it, batch-checked across all siblings in one query, and every entry is
// annotated with its full path and MIME content type.
func (n *Navigator) Descendants(ctx context.Context, path string, requester *models.User, depth int) ([]*models.FSEntry, error) {
	if depth != DepthUnlimited {
		depth--
	}
	path = resolver.Normalize(path)

	parent, err := n.resolver.Resolve(ctx, path)
	if err != nil {
		if errors.Is(err, models.ErrEntryNotFound) {
			return []*models.FSEntry{}, nil
		}
		return nil, err
	}

	// A two-segment path names a potential share root.
	var rootUsername string
	if segments := strings.Split(path, "/"); len(segments) == 2 && segments[0] == "" {
		rootUsername = segments[1]
	}

	var children []*models.FSEntry
	basePath := path

	switch {
	case parent == nil:
		// Forest root: own roots plus one pseudo-directory per sharer.
		basePath = ""
		children, err = n.store.ListRoots(ctx, requester.ID)
		if err != nil {
			return nil, err
		}
		sharers, err := n.store.SharingUsers(ctx, requester.ID)
		if err != nil {
			return nil, err
		}
		for _, s := range sharers {
			children = append(children, models.SyntheticRoot(s.Username))
		}

	case rootUsername != "" && rootUsername != requester.Username:
		children, err = n.sharedBy(ctx, rootUsername, requester)
		if err != nil {
			return nil, err
		}

	default:
		all, err := n.store.ListChildren(ctx, parent.UUID)
		if err != nil {
			return nil, err
		}
		for _, child := range all {
			if n.access.Check(ctx, child, requester.ID, access.ActionRead) {
				children = append(children, child)
			}
		}
	}

	if len(children) == 0 {
		return []*models.FSEntry{}, nil
	}

	websites, err := n.websiteDirs(ctx, children, requester.ID)
	if err != nil {
		return nil, err
	}

	ret := make([]*models.FSEntry, 0, len(children))
	for _, child := range children {
		childPath := basePath + "/" + child.Name
		if child.Path == nil {
			child.Path = &childPath
		}
		child.ContentType = mime.TypeByExtension(gopath.Ext(child.Name))
		child.HasWebsite = child.IsDir && websites[child.ID]
		ret = append(ret, child)

		if child.IsDir && (depth == DepthUnlimited || depth > 0) {
			sub, err := n.Descendants(ctx, childPath, requester, depth)
			if err != nil {
				return nil, err
			}
			ret = append(ret, sub...)
		}
	}
	return ret, nil
}

// sharedBy lists the entries owner has shared with requester, each annotated
// with its real full path so glob matching and downstream display work.
func (n *Navigator) sharedBy(ctx context.Context, owner string, requester *models.User) ([]*models.FSEntry, error) {
	sharingUser, err := n.store.GetUser(ctx, owner)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}

	shared, err := n.store.SharedEntries(ctx, sharingUser.ID, requester.ID)
	if err != nil {
		return nil, err
	}
	for _, entry := range shared {
		p, err := n.resolver.PathFor(ctx, entry.UUID)
		if err != nil {
			return nil, err
		}
		entry.Path = &p
	}
	return shared, nil
}

// websiteDirs batch-checks which of the listed entries back a public website
// for this user. Synthetic pseudo-directories have no row id and are skipped.
func (n *Navigator) websiteDirs(ctx context.Context, children []*models.FSEntry, userID uint64) (map[uint64]bool, error) {
	ids := make([]uint64, 0, len(children))
	for _, child := range children {
		if child.IsDir && child.ID != 0 {
			ids = append(ids, child.ID)
		}
	}
	if len(ids) == 0 {
		return nil, nil
	}
	return n.store.RootDirIDsWithWebsite(ctx, ids, userID)
}

// Ancestors returns the chain of ancestors of the entry with the given row
// id, nearest first, ending at its root.
func (n *Navigator) Ancestors(ctx context.Context, entryID uint64) ([]*models.FSEntry, error) {
	entry, err := n.store.GetEntryByID(ctx, entryID)
	if err != nil {
		return nil, err
	}

	var chain []*models.FSEntry
	for entry.ParentUID != nil {
		parent, err := n.lookupConsistent(ctx, *entry.ParentUID)
		if err != nil {
			return nil, err
		}
		chain = append(chain, parent)
		entry = parent
	}
	return chain, nil
}

// IsAncestorOf reports whether the entry with ancestorUID lies on the parent
// chain of the entry with descendantUID. The empty uid stands for the forest
// root: it is an ancestor of everything and a descendant of nothing.
func (n *Navigator) IsAncestorOf(ctx context.Context, ancestorUID, descendantUID string) (bool, error) {
	if ancestorUID == "" {
		return true, nil
	}
	if descendantUID == "" {
		return false, nil
	}

	cur, err := n.lookupConsistent(ctx, descendantUID)
	if err != nil {
		return false, err
	}
	for {
		if cur.UUID == ancestorUID {
			return true, nil
		}
		if cur.ParentUID == nil {
			return false, nil
		}
		if *cur.ParentUID == ancestorUID {
			return true, nil
		}
		cur, err = n.lookupConsistent(ctx, *cur.ParentUID)
		if err != nil {
			return false, err
		}
	}
}

// lookupConsistent reads an entry, falling back to the primary when the read
// replica has not caught up. A parent referenced by an existing child must
// exist, so a replica miss on the walk is lag, not absence.
func (n *Navigator) lookupConsistent(ctx context.Context, uid string) (*models.FSEntry, error) {
	entry, err := n.store.GetEntryByUUID(ctx, uid)
	if errors.Is(err, models.ErrEntryNotFound) {
		logger.DebugCtx(ctx, "replica miss on ancestor walk, retrying on primary",
			logger.KeyEntryUID, uid)
		entry, err = n.store.GetEntryByUUIDPrimary(ctx, uid)
	}
	return entry, err
}

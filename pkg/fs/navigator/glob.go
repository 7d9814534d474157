package navigator

import (
	"context"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/loftfs/loft/pkg/fs/models"
	"github.com/loftfs/loft/pkg/fs/resolver"
)

// ResolveGlob finds every entry visible to the requester whose full path
// matches the pattern. Supports standard glob syntax including `*` and the
// recursive `**` over absolute paths.
//
// The traversal is bounded: the literal non-wildcard prefix of the pattern
// becomes the base directory, and the number of pattern segments bounds the
// depth, so a pattern like /alice/Documents/*.md never walks the whole tree.
// A `**` segment removes the depth bound.
func (n *Navigator) ResolveGlob(ctx context.Context, pattern string, requester *models.User) ([]*models.FSEntry, error) {
	pattern = resolver.Normalize(pattern)

	base := globBase(pattern)
	depth := 1
	for _, segment := range strings.Split(pattern, "/") {
		if strings.Contains(segment, "**") {
			depth = DepthUnlimited
			break
		}
		depth++
	}

	descendants, err := n.Descendants(ctx, base, requester, depth)
	if err != nil {
		return nil, err
	}

	matches := make([]*models.FSEntry, 0, len(descendants))
	for _, entry := range descendants {
		if entry.Path == nil {
			continue
		}
		ok, err := doublestar.Match(pattern, *entry.Path)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, entry)
		}
	}
	return matches, nil
}

// globBase returns the longest leading run of wildcard-free path segments.
func globBase(pattern string) string {
	segments := strings.Split(pattern, "/")
	base := make([]string, 0, len(segments))
	for _, segment := range segments {
		if strings.ContainsAny(segment, `*?[{\`) {
			break
		}
		base = append(base, segment)
	}
	if len(base) <= 1 {
		return "/"
	}
	return strings.Join(base, "/")
}

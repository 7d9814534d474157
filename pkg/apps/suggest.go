package apps

import (
	"context"
	"mime"
	gopath "path"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/loftfs/loft/pkg/cache"
	"github.com/loftfs/loft/pkg/fs/models"
)

// extsCode are extensions treated as source or plain-structured text, opened
// with the code editor.
var extsCode = []string{
	".asm", ".asp", ".aspx", ".bash", ".c", ".cpp", ".css", ".csv", ".dhtml",
	".f", ".go", ".h", ".htm", ".html", ".html5", ".java", ".jl", ".js",
	".jsa", ".json", ".jsonld", ".jsf", ".jsp", ".kt", ".log", ".lock",
	".lua", ".md", ".perl", ".phar", ".php", ".pl", ".py", ".r", ".rb",
	".rdata", ".rda", ".rdf", ".rds", ".rs", ".rlib", ".rpy", ".scala",
	".sc", ".scm", ".sh", ".sol", ".sql", ".ss", ".svg", ".swift", ".toml",
	".ts", ".wasm", ".xhtml", ".xml", ".yaml",
}

var extsImage = []string{".jpg", ".png", ".webp", ".svg", ".bmp", ".jpeg"}

var extsMedia = []string{".mp4", ".webm", ".mpg", ".mpv", ".mp3", ".m4a", ".ogg"}

func anyOf(exts []string, name string) bool {
	for _, ext := range exts {
		if strings.HasSuffix(name, ext) {
			return true
		}
	}
	return false
}

// SuggestOptions scope a suggestion request to a user. The user unlocks
// their own unapproved apps as candidates.
type SuggestOptions struct {
	User *models.User
}

// Engine suggests applications that can open filesystem entries, ranked by
// relevance. Per-entry results are memoized in a small LRU keyed by the
// requesting user and the entry's identity.
type Engine struct {
	apps *Cache
	memo *lru.Cache[suggestKey, []*models.App]
}

type suggestKey struct {
	userID uint64
	uid    string
	isDir  bool
	name   string
}

// DefaultSuggestionLRUSize bounds the per-entry memo.
const DefaultSuggestionLRUSize = 512

// NewEngine creates a suggestion engine over the app cache.
func NewEngine(apps *Cache, lruSize int) (*Engine, error) {
	if lruSize <= 0 {
		lruSize = DefaultSuggestionLRUSize
	}
	memo, err := lru.New[suggestKey, []*models.App](lruSize)
	if err != nil {
		return nil, err
	}
	return &Engine{apps: apps, memo: memo}, nil
}

// Suggest returns apps that could open the entry.
func (e *Engine) Suggest(ctx context.Context, entry *models.FSEntry, opts *SuggestOptions) ([]*models.App, error) {
	results, err := e.SuggestBatch(ctx, []*models.FSEntry{entry}, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// candidate is one specifier with the predicate it must pass.
type candidate struct {
	key cache.Key
	// thirdParty candidates come from the extension association index and
	// are included only when publicly approved for opening items or owned
	// by the requesting user.
	thirdParty bool
	// editorLike marks entries whose name rules matched the text editor, so
	// the shared code app is appended to their results.
	editorLike bool
}

// SuggestBatch resolves suggestions for several entries with one batched
// cache read. Results are positional: results[i] lists the apps suggested
// for entries[i].
func (e *Engine) SuggestBatch(ctx context.Context, entries []*models.FSEntry, opts *SuggestOptions) ([][]*models.App, error) {
	var userID uint64
	if opts != nil && opts.User != nil {
		userID = opts.User.ID
	}

	results := make([][]*models.App, len(entries))

	// Collect candidates for every entry not answered by the memo, tracking
	// each entry's offset and count into the flat specifier list.
	type pendingEntry struct {
		slot       int
		offset     int
		count      int
		editorLike bool
	}
	var (
		flat    []candidate
		pending []pendingEntry
	)
	for i, entry := range entries {
		key := suggestKey{userID: userID, uid: entry.UUID, isDir: entry.IsDir, name: entry.Name}
		if cached, ok := e.memo.Get(key); ok {
			results[i] = cached
			continue
		}
		cands := e.candidatesFor(entry)
		editorLike := false
		for _, c := range cands {
			if c.editorLike {
				editorLike = true
				break
			}
		}
		pending = append(pending, pendingEntry{
			slot:       i,
			offset:     len(flat),
			count:      len(cands),
			editorLike: editorLike,
		})
		flat = append(flat, cands...)
	}

	if len(pending) == 0 {
		return results, nil
	}

	keys := make([]cache.Key, len(flat))
	for i, c := range flat {
		keys[i] = c.key
	}
	resolved, err := e.apps.GetMany(ctx, keys, false)
	if err != nil {
		return nil, err
	}

	// The shared code app is appended once to every editor-like entry's
	// suggestions rather than fetched per entry.
	var codeApp *models.App
	for _, p := range pending {
		if p.editorLike {
			codeApp, err = e.apps.Get(ctx, cache.NameKey("code"), false)
			if err != nil {
				return nil, err
			}
			break
		}
	}

	for _, p := range pending {
		entry := entries[p.slot]
		suggested := make([]*models.App, 0, p.count+1)
		for j := 0; j < p.count; j++ {
			cand := flat[p.offset+j]
			app := resolved[p.offset+j]
			if app == nil {
				continue
			}
			if cand.thirdParty && !e.allowed(app, opts) {
				continue
			}
			suggested = append(suggested, app)
		}
		if p.editorLike && codeApp != nil {
			suggested = append(suggested, codeApp)
		}
		suggested = dedupe(suggested)

		key := suggestKey{userID: userID, uid: entry.UUID, isDir: entry.IsDir, name: entry.Name}
		e.memo.Add(key, suggested)
		results[p.slot] = suggested
	}
	return results, nil
}

// candidatesFor builds the ordered candidate specifiers for one entry:
// name-based rules from the entry's extension, then third-party handlers
// registered for it.
func (e *Engine) candidatesFor(entry *models.FSEntry) []candidate {
	fsname := entry.LookupName()
	if entry.IsDir {
		fsname += ".directory"
	}
	ext := strings.ToLower(gopath.Ext(fsname))
	contentType := mime.TypeByExtension(ext)

	byName := func(name string, editorLike bool) candidate {
		return candidate{key: cache.NameKey(name), editorLike: editorLike}
	}

	var cands []candidate
	if anyOf(extsCode, fsname) || !strings.Contains(fsname, ".") {
		cands = append(cands, byName("code", false), byName("editor", true))
	}
	if strings.HasSuffix(fsname, ".txt") || !strings.Contains(fsname, ".") {
		cands = append(cands, byName("editor", true), byName("code", false))
	}
	if strings.HasSuffix(fsname, ".md") {
		cands = append(cands, byName("markus", false))
	}
	if anyOf(extsImage, fsname) {
		cands = append(cands, byName("viewer", false))
	}
	if strings.HasSuffix(fsname, ".bmp") || strings.HasPrefix(contentType, "image/") {
		cands = append(cands, byName("draw", false))
	}
	if strings.HasSuffix(fsname, ".pdf") {
		cands = append(cands, byName("pdf", false))
	}
	if anyOf(extsMedia, fsname) {
		cands = append(cands, byName("player", false))
	}

	for _, appID := range e.apps.AppIDsForExt(strings.TrimPrefix(ext, ".")) {
		cands = append(cands, candidate{key: cache.IDKey(appID), thirdParty: true})
	}
	return cands
}

// allowed reports whether a third-party app may be suggested to this user.
func (e *Engine) allowed(app *models.App, opts *SuggestOptions) bool {
	if app.ApprovedForOpeningItems {
		return true
	}
	if opts == nil || opts.User == nil || app.OwnerUserID == nil {
		return false
	}
	return *app.OwnerUserID == opts.User.ID
}

// dedupe removes duplicate suggestions, first by pointer identity (apps
// resolved to the exact same cached object), then by id (the same app
// resolved from different fetches).
func dedupe(apps []*models.App) []*models.App {
	byPtr := make(map[*models.App]bool, len(apps))
	stage := apps[:0]
	for _, app := range apps {
		if byPtr[app] {
			continue
		}
		byPtr[app] = true
		stage = append(stage, app)
	}

	byID := make(map[uint64]bool, len(stage))
	out := stage[:0]
	for _, app := range stage {
		if byID[app.ID] {
			continue
		}
		byID[app.ID] = true
		out = append(out, app)
	}
	return out
}

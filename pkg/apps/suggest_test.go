package apps

import (
	"context"
	"testing"

	"github.com/loftfs/loft/pkg/fs/models"
)

func suggestionNames(apps []*models.App) []string {
	out := make([]string, 0, len(apps))
	for _, app := range apps {
		out = append(out, app.Name)
	}
	return out
}

func hasApp(apps []*models.App, name string) bool {
	for _, app := range apps {
		if app.Name == name {
			return true
		}
	}
	return false
}

func newTestEngine(t *testing.T, store *fakeAppStore) (*Engine, *Cache) {
	t.Helper()
	c := newTestCache(t, store)
	engine, err := NewEngine(c, 0)
	if err != nil {
		t.Fatalf("failed to create engine: %v", err)
	}
	return engine, c
}

func file(name string) *models.FSEntry {
	return &models.FSEntry{UUID: "uid-" + name, Name: name}
}

func TestSuggest(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 7, Username: "alice"}
	opts := &SuggestOptions{User: user}

	t.Run("markdown gets editors and the markdown app", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("notes.md"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		for _, want := range []string{"code", "editor", "markus"} {
			if !hasApp(apps, want) {
				t.Errorf("expected %s in %v", want, suggestionNames(apps))
			}
		}
		if len(apps) != 3 {
			t.Errorf("expected exactly 3 deduped suggestions, got %v", suggestionNames(apps))
		}
	})

	t.Run("image gets viewer and draw but no player", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("photo.png"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if !hasApp(apps, "viewer") || !hasApp(apps, "draw") {
			t.Errorf("expected viewer and draw, got %v", suggestionNames(apps))
		}
		if hasApp(apps, "player") || hasApp(apps, "editor") {
			t.Errorf("unexpected suggestion in %v", suggestionNames(apps))
		}
	})

	t.Run("media gets the player", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("movie.mp4"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(apps) != 1 || apps[0].Name != "player" {
			t.Errorf("expected only player, got %v", suggestionNames(apps))
		}
	})

	t.Run("extensionless file is treated as text", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("README"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(apps) != 2 || !hasApp(apps, "code") || !hasApp(apps, "editor") {
			t.Errorf("expected code and editor, got %v", suggestionNames(apps))
		}
	})

	t.Run("pdf gets the pdf app", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("paper.pdf"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(apps) != 1 || apps[0].Name != "pdf" {
			t.Errorf("expected only pdf, got %v", suggestionNames(apps))
		}
	})

	t.Run("matching is case insensitive", func(t *testing.T) {
		engine, _ := newTestEngine(t, &fakeAppStore{apps: builtinApps()})

		apps, err := engine.Suggest(ctx, file("PHOTO.PNG"), opts)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if !hasApp(apps, "viewer") {
			t.Errorf("expected viewer, got %v", suggestionNames(apps))
		}
	})
}

func TestSuggestThirdParty(t *testing.T) {
	ctx := context.Background()
	user := &models.User{ID: 7, Username: "alice"}
	otherID := uint64(8)

	store := &fakeAppStore{
		apps: append(builtinApps(),
			&models.App{ID: 100, UID: "app-pdfpro", Name: "pdfpro", ApprovedForOpeningItems: true},
			&models.App{ID: 101, UID: "app-mytool", Name: "mytool", OwnerUserID: &user.ID},
			&models.App{ID: 102, UID: "app-foreign", Name: "foreign", OwnerUserID: &otherID},
		),
		assocs: []*models.AppFiletypeAssociation{
			{AppID: 100, Type: "pdf"},
			{AppID: 101, Type: "pdf"},
			{AppID: 102, Type: "pdf"},
		},
	}
	engine, c := newTestEngine(t, store)
	if err := c.RefreshAssociations(ctx); err != nil {
		t.Fatalf("refresh failed: %v", err)
	}

	t.Run("approved and own apps pass the filter", func(t *testing.T) {
		apps, err := engine.Suggest(ctx, file("paper.pdf"), &SuggestOptions{User: user})
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		for _, want := range []string{"pdf", "pdfpro", "mytool"} {
			if !hasApp(apps, want) {
				t.Errorf("expected %s in %v", want, suggestionNames(apps))
			}
		}
		if hasApp(apps, "foreign") {
			t.Errorf("unapproved foreign app leaked into %v", suggestionNames(apps))
		}
	})

	t.Run("anonymous requests get approved handlers only", func(t *testing.T) {
		apps, err := engine.Suggest(ctx, file("other.pdf"), nil)
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if !hasApp(apps, "pdfpro") {
			t.Errorf("expected approved handler, got %v", suggestionNames(apps))
		}
		if hasApp(apps, "mytool") || hasApp(apps, "foreign") {
			t.Errorf("unapproved app leaked into %v", suggestionNames(apps))
		}
	})

	t.Run("directories match their synthetic extension", func(t *testing.T) {
		dirStore := &fakeAppStore{
			apps: append(builtinApps(),
				&models.App{ID: 200, UID: "app-explorer", Name: "explorer", ApprovedForOpeningItems: true},
			),
			assocs: []*models.AppFiletypeAssociation{
				{AppID: 200, Type: "directory"},
			},
		}
		dirEngine, dirCache := newTestEngine(t, dirStore)
		if err := dirCache.RefreshAssociations(ctx); err != nil {
			t.Fatalf("refresh failed: %v", err)
		}

		dir := &models.FSEntry{UUID: "uid-stuff", Name: "Stuff", IsDir: true}
		apps, err := dirEngine.Suggest(ctx, dir, &SuggestOptions{User: user})
		if err != nil {
			t.Fatalf("suggest failed: %v", err)
		}
		if len(apps) != 1 || apps[0].Name != "explorer" {
			t.Errorf("expected only explorer, got %v", suggestionNames(apps))
		}
	})
}

func TestSuggestBatch(t *testing.T) {
	ctx := context.Background()
	opts := &SuggestOptions{User: &models.User{ID: 7}}
	store := &fakeAppStore{apps: builtinApps()}
	engine, _ := newTestEngine(t, store)

	entries := []*models.FSEntry{
		file("notes.md"),
		file("photo.png"),
		file("movie.mp4"),
	}
	results, err := engine.SuggestBatch(ctx, entries, opts)
	if err != nil {
		t.Fatalf("batch failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 result slots, got %d", len(results))
	}
	if !hasApp(results[0], "markus") {
		t.Errorf("slot 0: %v", suggestionNames(results[0]))
	}
	if !hasApp(results[1], "viewer") {
		t.Errorf("slot 1: %v", suggestionNames(results[1]))
	}
	if !hasApp(results[2], "player") {
		t.Errorf("slot 2: %v", suggestionNames(results[2]))
	}
	if got := store.batches.Load(); got != 1 {
		t.Errorf("expected 1 batched store read, got %d", got)
	}
}

func TestSuggestMemo(t *testing.T) {
	ctx := context.Background()
	opts := &SuggestOptions{User: &models.User{ID: 7}}
	store := &fakeAppStore{apps: builtinApps()}
	engine, _ := newTestEngine(t, store)

	entry := file("notes.md")
	first, err := engine.Suggest(ctx, entry, opts)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	batches := store.batches.Load()

	second, err := engine.Suggest(ctx, entry, opts)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
	if store.batches.Load() != batches {
		t.Error("expected memoized result without a new store read")
	}
	if len(first) != len(second) {
		t.Errorf("memo returned different result: %v vs %v",
			suggestionNames(first), suggestionNames(second))
	}

	// A different user misses the memo.
	if _, err := engine.Suggest(ctx, entry, &SuggestOptions{User: &models.User{ID: 8}}); err != nil {
		t.Fatalf("suggest failed: %v", err)
	}
}

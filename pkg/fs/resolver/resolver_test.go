package resolver

import (
	"context"
	"errors"
	"testing"

	"github.com/loftfs/loft/pkg/fs/models"
	"github.com/loftfs/loft/pkg/fs/store"
)

func createTestStore(t *testing.T) *store.GORMStore {
	t.Helper()
	s, err := store.New(&store.Config{
		Type: store.DatabaseTypeSQLite,
		SQLite: store.SQLiteConfig{
			Path: ":memory:",
		},
	})
	if err != nil {
		t.Fatalf("failed to create test store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func seedTree(t *testing.T, s *store.GORMStore) (*models.User, map[string]*models.FSEntry) {
	t.Helper()
	ctx := context.Background()

	alice := &models.User{Username: "alice"}
	if _, err := s.CreateUser(ctx, alice, "pw"); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	entries := map[string]*models.FSEntry{}
	mk := func(parent *models.FSEntry, name string, isDir bool, isPublic *bool) *models.FSEntry {
		entry := &models.FSEntry{
			UserID:   alice.ID,
			Name:     name,
			IsDir:    isDir,
			IsPublic: isPublic,
		}
		if parent != nil {
			entry.ParentUID = &parent.UUID
		}
		if _, err := s.CreateEntry(ctx, entry); err != nil {
			t.Fatalf("failed to create entry %s: %v", name, err)
		}
		entries[name] = entry
		return entry
	}

	public := true
	root := mk(nil, "alice", true, nil)
	pub := mk(root, "Public", true, &public)
	mk(pub, "index.html", false, nil)
	docs := mk(root, "Documents", true, nil)
	mk(docs, "report.txt", false, nil)

	return alice, entries
}

func TestResolve(t *testing.T) {
	s := createTestStore(t)
	_, entries := seedTree(t, s)
	r := New(s, nil)
	ctx := context.Background()

	t.Run("forest root has no entry", func(t *testing.T) {
		entry, err := r.Resolve(ctx, "/")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if entry != nil {
			t.Errorf("expected nil entry for /, got %+v", entry)
		}
	})

	t.Run("segment walk", func(t *testing.T) {
		entry, err := r.Resolve(ctx, "/alice/Documents/report.txt")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if entry.UUID != entries["report.txt"].UUID {
			t.Errorf("resolved wrong entry: %s", entry.Name)
		}
	})

	t.Run("denormalized path column fast path", func(t *testing.T) {
		uid := entries["report.txt"].UUID
		if err := s.SetEntryPath(ctx, uid, "/alice/Documents/report.txt"); err != nil {
			t.Fatalf("set path failed: %v", err)
		}
		entry, err := r.Resolve(ctx, "/alice/Documents/report.txt")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if entry.UUID != uid {
			t.Errorf("resolved wrong entry: %s", entry.Name)
		}
	})

	t.Run("is_public inherited from ancestor", func(t *testing.T) {
		entry, err := r.Resolve(ctx, "/alice/Public/index.html")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if entry.IsPublic == nil || !*entry.IsPublic {
			t.Error("expected index.html to inherit is_public=true")
		}
	})

	t.Run("is_public defaults false without ancestor override", func(t *testing.T) {
		entry, err := r.Resolve(ctx, "/alice/Documents/report.txt")
		if err != nil {
			t.Fatalf("resolve failed: %v", err)
		}
		if entry.IsPublic != nil && *entry.IsPublic {
			t.Error("expected report.txt to be private")
		}
	})

	t.Run("missing segment", func(t *testing.T) {
		_, err := r.Resolve(ctx, "/alice/Documents/ghost.txt")
		if !errors.Is(err, models.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("missing root", func(t *testing.T) {
		_, err := r.Resolve(ctx, "/carol")
		if !errors.Is(err, models.ErrEntryNotFound) {
			t.Errorf("expected ErrEntryNotFound, got %v", err)
		}
	})
}

func TestPathFor(t *testing.T) {
	s := createTestStore(t)
	_, entries := seedTree(t, s)
	r := New(s, nil)
	ctx := context.Background()

	t.Run("deep entry", func(t *testing.T) {
		path, err := r.PathFor(ctx, entries["report.txt"].UUID)
		if err != nil {
			t.Fatalf("path failed: %v", err)
		}
		if path != "/alice/Documents/report.txt" {
			t.Errorf("unexpected path: %s", path)
		}
	})

	t.Run("by numeric id", func(t *testing.T) {
		path, err := r.PathForID(ctx, entries["Documents"].ID)
		if err != nil {
			t.Fatalf("path failed: %v", err)
		}
		if path != "/alice/Documents" {
			t.Errorf("unexpected path: %s", path)
		}
	})

	t.Run("missing entry wraps resolution error", func(t *testing.T) {
		_, err := r.PathFor(ctx, "missing-uid")
		var resErr *PathResolutionError
		if !errors.As(err, &resErr) {
			t.Fatalf("expected PathResolutionError, got %v", err)
		}
		if !errors.Is(err, models.ErrEntryNotFound) {
			t.Errorf("expected wrapped ErrEntryNotFound, got %v", err)
		}
	})

	t.Run("empty uid rejected", func(t *testing.T) {
		if _, err := r.PathFor(ctx, ""); err == nil {
			t.Error("expected error for empty uid")
		}
	})
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"/", "/"},
		{"", "/"},
		{"alice", "/alice"},
		{"/alice/", "/alice"},
		{"/alice//Documents", "/alice/Documents"},
		{"/alice/./Documents/../Public", "/alice/Public"},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

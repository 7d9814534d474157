package navigator

import (
	"context"
	"testing"
)

func TestResolveGlob(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	t.Run("recursive extension match", func(t *testing.T) {
		matches, err := f.nav.ResolveGlob(ctx, "/alice/**/*.md", f.alice)
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(matches) != 1 || matches[0].Name != "notes.md" {
			t.Errorf("expected only notes.md, got %v", names(matches))
		}
	})

	t.Run("single level wildcard", func(t *testing.T) {
		matches, err := f.nav.ResolveGlob(ctx, "/alice/Documents/*.txt", f.alice)
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(matches) != 1 || matches[0].Name != "report.txt" {
			t.Errorf("expected only report.txt, got %v", names(matches))
		}
	})

	t.Run("directory wildcard", func(t *testing.T) {
		matches, err := f.nav.ResolveGlob(ctx, "/alice/*", f.alice)
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(matches) != 2 {
			t.Errorf("expected Documents and site, got %v", names(matches))
		}
	})

	t.Run("no matches outside own tree", func(t *testing.T) {
		matches, err := f.nav.ResolveGlob(ctx, "/**/*.txt", f.bob)
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		for _, match := range matches {
			if match.UserID != f.bob.ID {
				t.Errorf("bob's glob matched foreign entry %s", match.Name)
			}
		}
	})

	t.Run("literal path", func(t *testing.T) {
		matches, err := f.nav.ResolveGlob(ctx, "/alice/Documents/notes.md", f.alice)
		if err != nil {
			t.Fatalf("glob failed: %v", err)
		}
		if len(matches) != 1 || matches[0].Name != "notes.md" {
			t.Errorf("expected exact match, got %v", names(matches))
		}
	})
}

func TestGlobBase(t *testing.T) {
	cases := []struct {
		pattern, want string
	}{
		{"/alice/Documents/*.md", "/alice/Documents"},
		{"/alice/**/*.md", "/alice"},
		{"/*/Documents", "/"},
		{"/**", "/"},
		{"/alice/Doc?ments/x", "/alice"},
	}
	for _, tc := range cases {
		if got := globBase(tc.pattern); got != tc.want {
			t.Errorf("globBase(%q) = %q, want %q", tc.pattern, got, tc.want)
		}
	}
}

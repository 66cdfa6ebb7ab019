package docsearch

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeDoc(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestBuildIndexAndSearch(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "align.md",
		"# align\n\nThe align verb produces regularly spaced metric points over a window.\nAccessors like m() are only valid inside align.\n")
	writeDoc(t, dir, "verbs/sort.md",
		"# sort\n\nSort orders rows. Use desc(field) for descending order.\n")
	writeDoc(t, dir, "notes.txt", "not indexed")

	idx, err := BuildIndex(dir)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v, want nil", err)
	}
	defer idx.Close()

	results, err := idx.Search("align window", 5)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil", err)
	}
	if len(results) == 0 {
		t.Fatal("Search(align window) returned no results")
	}
	if results[0].Path != "align.md" {
		t.Errorf("top hit = %s, want align.md", results[0].Path)
	}
	if results[0].Title != "align" {
		t.Errorf("title = %q, want align", results[0].Title)
	}
	if results[0].Snippet == "" {
		t.Error("top hit has no snippet")
	}
}

func TestSearch_DescendingOrderDoc(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "sort.md", "# sort\n\nUse desc(field) for descending order.\n")

	idx, err := BuildIndex(dir)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v, want nil", err)
	}
	defer idx.Close()

	results, err := idx.Search("descending", 1)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil", err)
	}
	if len(results) != 1 {
		t.Fatalf("Search(descending) = %d results, want 1", len(results))
	}
	if !strings.Contains(results[0].Snippet, "descending") {
		t.Errorf("snippet %q does not mention the match", results[0].Snippet)
	}
}

func TestSearch_EmptyQuery(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "a.md", "# a\n\nbody\n")

	idx, err := BuildIndex(dir)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v, want nil", err)
	}
	defer idx.Close()

	if _, err := idx.Search("  ", 5); err == nil {
		t.Error("Search(blank) error = nil, want error")
	}
}

func TestBuildIndex_TitleFallback(t *testing.T) {
	dir := t.TempDir()
	writeDoc(t, dir, "untitled.md", "no heading here, just prose about filters\n")

	idx, err := BuildIndex(dir)
	if err != nil {
		t.Fatalf("BuildIndex() error = %v, want nil", err)
	}
	defer idx.Close()

	results, err := idx.Search("filters", 1)
	if err != nil {
		t.Fatalf("Search() error = %v, want nil", err)
	}
	if len(results) != 1 || results[0].Title != "untitled" {
		t.Errorf("results = %+v, want one hit titled untitled", results)
	}
}

// Package docsearch serves full-text search over the OPAL reference
// documentation: a bleve index built at startup from a directory of
// markdown files.
package docsearch

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"go.uber.org/zap"

	"github.com/sievelabs/opalfix/internal/log"
)

// Result is one search hit.
type Result struct {
	Path    string  `json:"path"`
	Title   string  `json:"title"`
	Snippet string  `json:"snippet"`
	Score   float64 `json:"score"`
}

// Index is a searchable documentation index.
type Index struct {
	index bleve.Index
}

type document struct {
	Path  string `json:"path"`
	Title string `json:"title"`
	Body  string `json:"body"`
}

// BuildIndex walks dir for .md files and indexes them in memory. Titles
// come from the first level-one heading, falling back to the filename.
func BuildIndex(dir string) (*Index, error) {
	mapping := bleve.NewIndexMapping()
	index, err := bleve.NewMemOnly(mapping)
	if err != nil {
		return nil, fmt.Errorf("docsearch: creating index: %w", err)
	}

	count := 0
	err = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			rel = path
		}

		body := string(content)
		doc := document{
			Path:  rel,
			Title: extractTitle(body, rel),
			Body:  body,
		}
		if err := index.Index(rel, doc); err != nil {
			return fmt.Errorf("indexing %s: %w", rel, err)
		}
		count++
		return nil
	})
	if err != nil {
		index.Close()
		return nil, err
	}

	log.Info("documentation index built", zap.String("dir", dir), zap.Int("documents", count))
	return &Index{index: index}, nil
}

// Search runs a match query and returns up to limit hits with highlighted
// snippets.
func (x *Index) Search(query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("docsearch: query is empty")
	}
	if limit <= 0 {
		limit = 10
	}

	req := bleve.NewSearchRequest(bleve.NewMatchQuery(query))
	req.Size = limit
	req.Fields = []string{"title"}
	req.Highlight = bleve.NewHighlightWithStyle("html")
	req.Highlight.AddField("body")

	res, err := x.index.Search(req)
	if err != nil {
		return nil, fmt.Errorf("docsearch: %w", err)
	}

	results := make([]Result, 0, len(res.Hits))
	for _, hit := range res.Hits {
		r := Result{Path: hit.ID, Score: hit.Score}
		if title, ok := hit.Fields["title"].(string); ok {
			r.Title = title
		}
		if frags, ok := hit.Fragments["body"]; ok && len(frags) > 0 {
			r.Snippet = frags[0]
		}
		results = append(results, r)
	}
	return results, nil
}

// Close releases the index.
func (x *Index) Close() error {
	return x.index.Close()
}

// extractTitle returns the first "# " heading, or the filename without
// extension.
func extractTitle(body, rel string) string {
	for _, line := range strings.Split(body, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "# ") {
			return strings.TrimSpace(strings.TrimPrefix(line, "# "))
		}
	}
	base := filepath.Base(rel)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

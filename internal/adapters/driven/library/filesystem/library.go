// Package filesystem implements the document library over a directory
// tree of plain-text and Markdown files. A document's ID is its path
// relative to the library root, using forward slashes.
package filesystem

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/lricher7329/refsearch/internal/core/domain"
	"github.com/lricher7329/refsearch/internal/core/ports/driven"
)

// Ensure Library implements the interface.
var _ driven.Library = (*Library)(nil)

// Library serves documents from a directory tree.
type Library struct {
	root string
}

// NewLibrary creates a library rooted at the specified directory.
func NewLibrary(root string) (*Library, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("checking library root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: library root %s is not a directory",
			domain.ErrInvalidInput, root)
	}
	return &Library{root: root}, nil
}

// Root returns the library root directory.
func (l *Library) Root() string {
	return l.root
}

// ListDocuments walks the tree and returns relative paths of all
// indexable files, sorted. Hidden directories are skipped.
func (l *Library) ListDocuments(ctx context.Context) ([]string, error) {
	var ids []string

	err := filepath.WalkDir(l.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if d.IsDir() {
			if strings.HasPrefix(d.Name(), ".") && path != l.root {
				return filepath.SkipDir
			}
			return nil
		}
		if !indexable(d.Name()) {
			return nil
		}
		rel, err := filepath.Rel(l.root, path)
		if err != nil {
			return err
		}
		ids = append(ids, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking library: %w", err)
	}

	sort.Strings(ids)
	return ids, nil
}

// GetFullText reads a document's content and modification time. Both
// timestamps are the file's modtime; there is no separate attachment
// on a filesystem library.
func (l *Library) GetFullText(ctx context.Context, documentID string) (*domain.FullTextDocument, error) {
	path, err := l.resolve(documentID)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("document %s: %w", documentID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("checking document %s: %w", documentID, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading document %s: %w", documentID, err)
	}

	modTime := info.ModTime().UTC()
	return &domain.FullTextDocument{
		Text:                 string(data),
		SourceModifiedAt:     modTime,
		AttachmentModifiedAt: modTime,
	}, nil
}

// resolve maps a document ID back to an absolute path, rejecting IDs
// that would escape the library root.
func (l *Library) resolve(documentID string) (string, error) {
	if documentID == "" {
		return "", fmt.Errorf("%w: empty document id", domain.ErrInvalidInput)
	}
	path := filepath.Join(l.root, filepath.FromSlash(documentID))
	rel, err := filepath.Rel(l.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: document id %s escapes library root",
			domain.ErrInvalidInput, documentID)
	}
	return path, nil
}

// indexable reports whether the file extension is served.
func indexable(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".txt", ".md", ".markdown":
		return true
	default:
		return false
	}
}

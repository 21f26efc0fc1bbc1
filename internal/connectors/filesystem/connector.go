// Package filesystem reads a corpus from a local directory tree.
package filesystem

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/custodia-labs/topicmap/internal/core/domain"
	"github.com/custodia-labs/topicmap/internal/core/ports/driven"
	"github.com/custodia-labs/topicmap/internal/logger"
	"github.com/custodia-labs/topicmap/internal/normalisers/docx"
)

// DefaultMaxFileSize skips files larger than 10 MiB.
const DefaultMaxFileSize int64 = 10 << 20

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// mimeFallbacks covers extensions the platform mime table often lacks.
var mimeFallbacks = map[string]string{
	".txt":      "text/plain",
	".text":     "text/plain",
	".md":       "text/markdown",
	".markdown": "text/markdown",
	".html":     "text/html",
	".htm":      "text/html",
	".csv":      "text/csv",
	".json":     "application/json",
	".xml":      "application/xml",
	".docx":     docx.MIMEType,
}

// Connector walks a directory and returns every visible regular file.
type Connector struct {
	maxFileSize int64
}

// Option configures the connector.
type Option func(*Connector)

// WithMaxFileSize sets the largest file that will be read. Non-positive
// values disable the limit.
func WithMaxFileSize(size int64) Option {
	return func(c *Connector) {
		c.maxFileSize = size
	}
}

// New creates a filesystem connector.
func New(opts ...Option) *Connector {
	c := &Connector{maxFileSize: DefaultMaxFileSize}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Type returns the connector type identifier.
func (c *Connector) Type() string {
	return "filesystem"
}

// Read returns the files under root ordered by their slash-separated
// path relative to root. Hidden files and directories are skipped.
func (c *Connector) Read(ctx context.Context, root string) ([]domain.RawDocument, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: path does not exist: %s", domain.ErrInvalidInput, root)
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: not a directory: %s", domain.ErrInvalidInput, root)
	}

	var docs []domain.RawDocument
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		if isHidden(d.Name()) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		if c.maxFileSize > 0 {
			fi, err := d.Info()
			if err != nil {
				return err
			}
			if fi.Size() > c.maxFileSize {
				logger.Warn("skipping %s: %d bytes exceeds limit", rel, fi.Size())
				return nil
			}
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", rel, err)
		}
		docs = append(docs, domain.RawDocument{
			URI:      filepath.ToSlash(rel),
			MIMEType: detectMIMEType(path),
			Content:  content,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].URI < docs[j].URI })
	logger.Debug("filesystem: read %d files from %s", len(docs), root)
	return docs, nil
}

// detectMIMEType maps a file extension to a MIME type without parameters.
// Files without an extension are treated as plain text.
func detectMIMEType(path string) string {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == "" {
		return "text/plain"
	}
	if t, ok := mimeFallbacks[ext]; ok {
		return t
	}
	if t := mime.TypeByExtension(ext); t != "" {
		if base, _, err := mime.ParseMediaType(t); err == nil {
			return base
		}
		return t
	}
	return "application/octet-stream"
}

// isHidden reports whether a base name is a dotfile. "." and ".." are not.
func isHidden(name string) bool {
	return name != "." && name != ".." && strings.HasPrefix(name, ".")
}

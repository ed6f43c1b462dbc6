package normalisers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/partnerdocs/internal/core/domain"
	"github.com/custodia-labs/partnerdocs/internal/core/ports/driven"
	"github.com/custodia-labs/partnerdocs/internal/logger"
	"github.com/custodia-labs/partnerdocs/internal/normalisers/docx"
	"github.com/custodia-labs/partnerdocs/internal/normalisers/html"
	"github.com/custodia-labs/partnerdocs/internal/normalisers/markdown"
	"github.com/custodia-labs/partnerdocs/internal/normalisers/plaintext"
)

// Ensure Registry implements the interface.
var _ driven.TextLoader = (*Registry)(nil)

// DefaultMaxFileSize bounds the size of a single file read by Load.
const DefaultMaxFileSize int64 = 32 << 20

// Registry dispatches files to normalisers by extension. When several
// normalisers claim an extension the highest priority wins.
type Registry struct {
	mu          sync.RWMutex
	byExt       map[string][]driven.Normaliser
	maxFileSize int64
}

// NewRegistry creates a registry holding the given normalisers.
func NewRegistry(ns ...driven.Normaliser) *Registry {
	r := &Registry{
		byExt:       make(map[string][]driven.Normaliser),
		maxFileSize: DefaultMaxFileSize,
	}
	for _, n := range ns {
		r.Register(n)
	}
	return r
}

// NewDefaultRegistry creates a registry with every built-in normaliser.
func NewDefaultRegistry() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
	)
}

// SetMaxFileSize overrides the per-file size limit. Values <= 0 are ignored.
func (r *Registry) SetMaxFileSize(n int64) {
	if n <= 0 {
		return
	}
	r.mu.Lock()
	r.maxFileSize = n
	r.mu.Unlock()
}

// Register adds a normaliser for each of its extensions.
func (r *Registry) Register(n driven.Normaliser) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, ext := range n.Extensions() {
		ext = normaliseExt(ext)
		list := append(r.byExt[ext], n)
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].Priority() > list[j].Priority()
		})
		r.byExt[ext] = list
	}
}

// Supports reports whether a normaliser is registered for the path's extension.
func (r *Registry) Supports(path string) bool {
	return r.lookup(path) != nil
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// Load reads path and returns its text using the preferred normaliser.
func (r *Registry) Load(ctx context.Context, path string) (string, error) {
	n := r.lookup(path)
	if n == nil {
		return "", fmt.Errorf("%w: %q", domain.ErrUnsupportedType, filepath.Ext(path))
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return "", fmt.Errorf("%w: %s is a directory", domain.ErrInvalidInput, path)
	}

	r.mu.RLock()
	limit := r.maxFileSize
	r.mu.RUnlock()
	if info.Size() > limit {
		return "", fmt.Errorf("%w: %s is %d bytes, limit is %d", domain.ErrInvalidInput, path, info.Size(), limit)
	}

	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrCancelled, err)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}

	logger.Debug("Normalising %s with %s", filepath.Base(path), n.Name())
	text, err := n.Normalise(ctx, content)
	if err != nil {
		return "", fmt.Errorf("%s: %w", n.Name(), err)
	}
	return text, nil
}

func (r *Registry) lookup(path string) driven.Normaliser {
	ext := normaliseExt(filepath.Ext(path))
	if ext == "" {
		return nil
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if list := r.byExt[ext]; len(list) > 0 {
		return list[0]
	}
	return nil
}

func normaliseExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

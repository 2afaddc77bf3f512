package extract

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"cortex/internal/domain"
)

// Registry maps MIME types and file extensions to extractors.
type Registry struct {
	mu    sync.RWMutex
	mimes map[string]domain.Extractor
	exts  map[string]domain.Extractor // extension (without dot) → extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		mimes: make(map[string]domain.Extractor),
		exts:  make(map[string]domain.Extractor),
	}
}

// Register adds an extractor for the given MIME types and extensions.
func (r *Registry) Register(e domain.Extractor, mimeTypes, extensions []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range mimeTypes {
		r.mimes[strings.ToLower(m)] = e
	}
	for _, ext := range extensions {
		r.exts[strings.ToLower(strings.TrimPrefix(ext, "."))] = e
	}
}

// Lookup selects an extractor by MIME hint first, falling back to the path's
// extension. It fails with ErrUnsupportedType when neither matches.
func (r *Registry) Lookup(mimeHint, path string) (domain.Extractor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if mimeHint != "" {
		// Strip parameters like "; charset=utf-8".
		m := strings.ToLower(strings.TrimSpace(strings.SplitN(mimeHint, ";", 2)[0]))
		if e, ok := r.mimes[m]; ok {
			return e, nil
		}
	}
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if e, ok := r.exts[ext]; ok {
		return e, nil
	}
	return nil, fmt.Errorf("%w: %s (mime %q)", domain.ErrUnsupportedType, path, mimeHint)
}

// Extensions returns the set of all registered file extensions (without dot).
func (r *Registry) Extensions() map[string]bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	exts := make(map[string]bool, len(r.exts))
	for ext := range r.exts {
		exts[ext] = true
	}
	return exts
}

// Default returns a registry with the built-in extractors: plain text
// (txt/md/code files), PDF, and DOCX.
func Default() *Registry {
	r := NewRegistry()
	r.Register(&PlainText{},
		[]string{"text/plain", "text/markdown", "text/html", "application/json", "text/csv"},
		[]string{"txt", "md", "markdown", "csv", "json", "html", "py", "js", "go", "css", "xml"},
	)
	r.Register(&PDF{},
		[]string{"application/pdf"},
		[]string{"pdf"},
	)
	r.Register(&DOCX{},
		[]string{"application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		[]string{"docx"},
	)
	return r
}

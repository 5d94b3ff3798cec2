package source

import (
	"bookfetch/internal/errs"
)

// Registry dispatches URLs to sources. Sources are enumerated explicitly at
// startup; there is no reflection-based discovery. Find walks registration
// order and returns the first source whose match list claims the URL.
type Registry struct {
	sources []Source
}

// NewRegistry builds a registry over the given sources, in order.
func NewRegistry(sources ...Source) *Registry {
	return &Registry{sources: sources}
}

// Register appends a source to the dispatch order.
func (r *Registry) Register(src Source) {
	r.sources = append(r.sources, src)
}

// All returns the registered sources in registration order.
func (r *Registry) All() []Source {
	return append([]Source(nil), r.sources...)
}

// Find returns the first registered source claiming rawURL.
func (r *Registry) Find(rawURL string) (Source, error) {
	for _, src := range r.sources {
		for _, pattern := range src.Match() {
			if pattern.MatchString(rawURL) {
				return src, nil
			}
		}
	}
	return nil, errs.Wrap(errs.ErrNoSourceFound, "registry", "find", rawURL, nil)
}

// Package sources assembles the site adapter registry. Each adapter gets its
// own session (and therefore its own cookie jar and page cache); registration
// order decides URL dispatch priority.
package sources

import (
	"bookfetch/internal/source"
	"bookfetch/internal/sources/librivox"
)

// NewRegistry builds a registry with every bundled adapter.
func NewRegistry(opts ...source.SessionOption) *source.Registry {
	return source.NewRegistry(
		librivox.New(opts...),
	)
}

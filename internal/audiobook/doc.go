// Package audiobook defines the value types threaded through every stage of
// the download pipeline: remote file descriptors, chapters, cover art,
// metadata, and the resolved book/series aggregates a source produces.
package audiobook

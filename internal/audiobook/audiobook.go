package audiobook

import (
	"encoding/json"
	"net/http"
	"strconv"
)

// Book is the aggregate a source hands to the download pipeline: metadata,
// the ordered remote file list, and optional chapters and cover art. Client
// is the authenticated HTTP client the files must be fetched with. The file
// list order is authoritative; every later stage preserves it.
type Book struct {
	Client   *http.Client
	Metadata Metadata
	Files    []File
	Chapters []Chapter
	Cover    *Cover

	// SourceData carries adapter-opaque bookkeeping, such as the vendor
	// book key used by the download ledger.
	SourceData map[string]string

	// OnDownloadComplete, when set, runs after the pipeline finishes the
	// book successfully.
	OnDownloadComplete func()
}

// Title returns the book's title.
func (b *Book) Title() string {
	return b.Metadata.Title
}

func (b *Book) isResult() {}

// IDKind discriminates how a BookID payload should be interpreted by the
// source that produced it.
type IDKind int

const (
	// IDString identifies books by an opaque string token.
	IDString IDKind = iota
	// IDInt identifies books by a numeric vendor key.
	IDInt
	// IDRaw carries a source-specific JSON document.
	IDRaw
)

// BookID is an opaque reference to an unresolved book inside a series. Only
// the source that created it knows how to turn it back into a Book.
type BookID struct {
	kind IDKind
	str  string
	num  int64
	raw  json.RawMessage
}

// StringID wraps a string token as a BookID.
func StringID(id string) BookID {
	return BookID{kind: IDString, str: id}
}

// IntID wraps a numeric vendor key as a BookID.
func IntID(id int64) BookID {
	return BookID{kind: IDInt, num: id}
}

// RawID wraps a source-specific JSON payload as a BookID.
func RawID(payload json.RawMessage) BookID {
	return BookID{kind: IDRaw, raw: append(json.RawMessage(nil), payload...)}
}

// Kind reports how the payload should be read.
func (id BookID) Kind() IDKind { return id.kind }

// Int returns the numeric payload of an IDInt reference.
func (id BookID) Int() int64 { return id.num }

// Raw returns the JSON payload of an IDRaw reference.
func (id BookID) Raw() json.RawMessage { return id.raw }

// String renders the payload for logging and ledger keys.
func (id BookID) String() string {
	switch id.kind {
	case IDInt:
		return strconv.FormatInt(id.num, 10)
	case IDRaw:
		return string(id.raw)
	default:
		return id.str
	}
}

// SeriesEntry is one slot in a series: either an already-resolved book or a
// lazy BookID placeholder. Book nil means unresolved.
type SeriesEntry struct {
	Book *Book
	ID   BookID
}

// Series is a named, ordered collection of books. Unresolved entries are
// resolved one at a time through the owning source; a failure resolving one
// entry must not affect the others.
type Series struct {
	Title string
	Books []SeriesEntry
}

func (s *Series) isResult() {}

// Result is what a source download produces: a single Book or a Series.
type Result interface {
	isResult()
}

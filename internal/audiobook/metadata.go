package audiobook

import (
	"encoding/json"
	"strings"
	"time"

	"golang.org/x/text/language"
)

// ListMode selects how list-valued metadata fields are projected by
// AllProperties. Different tagging backends want different shapes: ID3 wants
// one joined string per key, MP4 freeform atoms want repeated keys, and the
// JSON ledger wants the raw lists.
type ListMode int

const (
	// ListJoined concatenates each list into a single value per key.
	ListJoined ListMode = iota
	// ListExpanded emits one property per list element, repeating the key.
	ListExpanded
	// ListRaw emits the list itself as a single property value.
	ListRaw
)

// Property is one key/value pair produced by AllProperties.
type Property struct {
	Key   string
	Value any
}

// Metadata carries everything known about a book besides its audio. Title is
// the only required field. The list fields preserve insertion order and are
// never de-duplicated; joined views are derived on demand, not stored.
type Metadata struct {
	Title       string
	Series      string
	SeriesOrder int
	Authors     []string
	Narrators   []string
	Genres      []string
	Language    string
	Description string
	ISBN        string
	Publisher   string
	ReleaseDate time.Time
}

// AddAuthor appends one author, keeping insertion order.
func (m *Metadata) AddAuthor(author string) {
	m.Authors = append(m.Authors, author)
}

// AddNarrator appends one narrator, keeping insertion order.
func (m *Metadata) AddNarrator(narrator string) {
	m.Narrators = append(m.Narrators, narrator)
}

// AddGenre appends one genre, keeping insertion order.
func (m *Metadata) AddGenre(genre string) {
	m.Genres = append(m.Genres, genre)
}

// AddAuthors appends authors in the given order.
func (m *Metadata) AddAuthors(authors []string) {
	m.Authors = append(m.Authors, authors...)
}

// AddNarrators appends narrators in the given order.
func (m *Metadata) AddNarrators(narrators []string) {
	m.Narrators = append(m.Narrators, narrators...)
}

// AddGenres appends genres in the given order.
func (m *Metadata) AddGenres(genres []string) {
	m.Genres = append(m.Genres, genres...)
}

// SetLanguage normalizes a language name or code to a BCP 47 tag. Values the
// parser does not recognize are stored verbatim so vendor-specific strings
// survive into the tags.
func (m *Metadata) SetLanguage(value string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return
	}
	if tag, err := language.Parse(trimmed); err == nil {
		m.Language = tag.String()
		return
	}
	m.Language = trimmed
}

// Author returns all authors joined into a single string.
func (m Metadata) Author() string {
	return strings.Join(m.Authors, "; ")
}

// Narrator returns all narrators joined into a single string.
func (m Metadata) Narrator() string {
	return strings.Join(m.Narrators, "; ")
}

// Genre returns all genres joined into a single string.
func (m Metadata) Genre() string {
	return strings.Join(m.Genres, "; ")
}

// AllProperties enumerates every set field as key/value pairs. Scalar fields
// come first in declaration order, then the list fields shaped according to
// mode. Calling it twice with the same receiver and mode yields identical
// output; nothing is mutated.
func (m Metadata) AllProperties(mode ListMode) []Property {
	props := make([]Property, 0, 8+len(m.Authors)+len(m.Narrators)+len(m.Genres))
	appendScalar := func(key, value string) {
		if value != "" {
			props = append(props, Property{Key: key, Value: value})
		}
	}
	appendScalar("title", m.Title)
	appendScalar("series", m.Series)
	if m.SeriesOrder > 0 {
		props = append(props, Property{Key: "series_order", Value: m.SeriesOrder})
	}
	appendScalar("language", m.Language)
	appendScalar("description", m.Description)
	appendScalar("isbn", m.ISBN)
	appendScalar("publisher", m.Publisher)
	if !m.ReleaseDate.IsZero() {
		props = append(props, Property{Key: "release_date", Value: m.ReleaseDate.Format("2006-01-02")})
	}

	switch mode {
	case ListExpanded:
		for _, author := range m.Authors {
			props = append(props, Property{Key: "author", Value: author})
		}
		for _, narrator := range m.Narrators {
			props = append(props, Property{Key: "narrator", Value: narrator})
		}
		for _, genre := range m.Genres {
			props = append(props, Property{Key: "genre", Value: genre})
		}
	case ListRaw:
		if len(m.Authors) > 0 {
			props = append(props, Property{Key: "authors", Value: append([]string(nil), m.Authors...)})
		}
		if len(m.Narrators) > 0 {
			props = append(props, Property{Key: "narrators", Value: append([]string(nil), m.Narrators...)})
		}
		if len(m.Genres) > 0 {
			props = append(props, Property{Key: "genres", Value: append([]string(nil), m.Genres...)})
		}
	default:
		if len(m.Authors) > 0 {
			props = append(props, Property{Key: "author", Value: m.Author()})
		}
		if len(m.Narrators) > 0 {
			props = append(props, Property{Key: "narrator", Value: m.Narrator()})
		}
		if len(m.Genres) > 0 {
			props = append(props, Property{Key: "genre", Value: m.Genre()})
		}
	}
	return props
}

// AsMap exports the metadata for the JSON ledger. Lists stay lists.
func (m Metadata) AsMap() map[string]any {
	result := map[string]any{
		"title":     m.Title,
		"authors":   append([]string(nil), m.Authors...),
		"narrators": append([]string(nil), m.Narrators...),
		"genres":    append([]string(nil), m.Genres...),
	}
	for _, prop := range m.AllProperties(ListJoined) {
		switch prop.Key {
		case "title", "author", "narrator", "genre":
		default:
			result[prop.Key] = prop.Value
		}
	}
	return result
}

// AsJSON renders the metadata as a JSON document.
func (m Metadata) AsJSON() ([]byte, error) {
	return json.Marshal(m.AsMap())
}

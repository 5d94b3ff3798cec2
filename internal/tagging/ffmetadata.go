package tagging

import (
	"fmt"
	"strings"

	"bookfetch/internal/audiobook"
)

// renderFFMetadata builds an FFMETADATA1 document carrying the global tags
// and one [CHAPTER] block per span. ffmpeg reads it as a metadata-only input.
func renderFFMetadata(meta audiobook.Metadata, spans []Span) string {
	var builder strings.Builder
	builder.WriteString(";FFMETADATA1\n")

	writeTag := func(key, value string) {
		if value != "" {
			fmt.Fprintf(&builder, "%s=%s\n", key, escapeFFMetadata(value))
		}
	}
	writeTag("title", meta.Title)
	writeTag("artist", joinPeople(meta.Authors))
	writeTag("album", meta.Series)
	writeTag("composer", joinPeople(meta.Narrators))
	writeTag("genre", joinGenres(meta.Genres))
	writeTag("language", meta.Language)
	writeTag("publisher", meta.Publisher)
	writeTag("description", meta.Description)
	if meta.SeriesOrder > 0 {
		writeTag("disc", fmt.Sprintf("%d", meta.SeriesOrder))
	}
	if !meta.ReleaseDate.IsZero() {
		writeTag("date", meta.ReleaseDate.Format("2006-01-02"))
	}

	for _, span := range spans {
		builder.WriteString("[CHAPTER]\nTIMEBASE=1/1000\n")
		fmt.Fprintf(&builder, "START=%d\n", span.Start)
		fmt.Fprintf(&builder, "END=%d\n", span.End)
		fmt.Fprintf(&builder, "title=%s\n", escapeFFMetadata(span.Title))
	}
	return builder.String()
}

// escapeFFMetadata escapes the characters the FFMETADATA format treats as
// special ('=', ';', '#', '\', newline).
func escapeFFMetadata(value string) string {
	var builder strings.Builder
	for _, r := range value {
		switch r {
		case '=', ';', '#', '\\', '\n':
			builder.WriteRune('\\')
		}
		builder.WriteRune(r)
	}
	return builder.String()
}

func joinPeople(people []string) string {
	return strings.Join(people, ", ")
}

func joinGenres(genres []string) string {
	return strings.Join(genres, " / ")
}

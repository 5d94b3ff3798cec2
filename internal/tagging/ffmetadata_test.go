package tagging

import (
	"strings"
	"testing"

	"bookfetch/internal/audiobook"
)

func TestRenderFFMetadata(t *testing.T) {
	meta := audiobook.Metadata{
		Title:     "The Long Way",
		Series:    "Wayfarers",
		Authors:   []string{"Becky Chambers"},
		Narrators: []string{"Rachel Dulude", "Another Reader"},
		Genres:    []string{"Sci-Fi", "Space Opera"},
	}
	spans := []Span{
		{Start: 0, End: 1000, Title: "Chapter 1"},
		{Start: 1000, End: 5000, Title: "Chapter 2"},
	}

	doc := renderFFMetadata(meta, spans)
	if !strings.HasPrefix(doc, ";FFMETADATA1\n") {
		t.Fatalf("missing header: %q", doc[:20])
	}
	for _, want := range []string{
		"title=The Long Way\n",
		"artist=Becky Chambers\n",
		"album=Wayfarers\n",
		"composer=Rachel Dulude, Another Reader\n",
		"genre=Sci-Fi / Space Opera\n",
		"[CHAPTER]\nTIMEBASE=1/1000\nSTART=0\nEND=1000\ntitle=Chapter 1\n",
		"[CHAPTER]\nTIMEBASE=1/1000\nSTART=1000\nEND=5000\ntitle=Chapter 2\n",
	} {
		if !strings.Contains(doc, want) {
			t.Errorf("missing %q in:\n%s", want, doc)
		}
	}
}

func TestRenderFFMetadataOmitsEmptyFields(t *testing.T) {
	doc := renderFFMetadata(audiobook.Metadata{Title: "Solo"}, nil)
	for _, forbidden := range []string{"artist=", "album=", "composer=", "genre=", "[CHAPTER]"} {
		if strings.Contains(doc, forbidden) {
			t.Errorf("unexpected %q in:\n%s", forbidden, doc)
		}
	}
}

func TestEscapeFFMetadata(t *testing.T) {
	got := escapeFFMetadata(`a=b;c#d\e`)
	want := `a\=b\;c\#d\\e`
	if got != want {
		t.Fatalf("escapeFFMetadata = %q, want %q", got, want)
	}
}

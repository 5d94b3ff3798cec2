package librivox

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/errs"
)

func bookPage(base string) string {
	return fmt.Sprintf(`<html><body>
<div class="content-wrap"><h1> The Art of War </h1></div>
<div class="book-page-author"><a href="/author/1">Sun Tzu</a></div>
<div class="book-page-book-cover"><img src="%s/cover.jpg"></div>
<table class="chapter-download">
<tr><td><a class="chapter-name" href="%s/part1.mp3">Chapter 1</a></td></tr>
<tr><td><a class="chapter-name" href="%s/part2.mp3">Chapter 2</a></td></tr>
</table>
</body></html>`, base, base, base)
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/book":
			fmt.Fprint(w, bookPage(server.URL))
		case "/cover.jpg":
			w.Write([]byte{0xff, 0xd8, 0xff})
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestMatchClaimsLibrivoxURLs(t *testing.T) {
	src := New()
	if !src.Match()[0].MatchString("https://librivox.org/the-art-of-war-by-sun-tzu/") {
		t.Error("book URL not claimed")
	}
	if src.Match()[0].MatchString("https://example.com/book") {
		t.Error("foreign URL claimed")
	}
}

func TestDownloadScrapesBook(t *testing.T) {
	server := testServer(t)
	src := New()

	result, err := src.Download(context.Background(), server.URL+"/book")
	if err != nil {
		t.Fatalf("Download returned error: %v", err)
	}
	book, ok := result.(*audiobook.Book)
	if !ok {
		t.Fatalf("unexpected result type %T", result)
	}
	if book.Title() != "The Art of War" {
		t.Errorf("title = %q", book.Title())
	}
	if got := book.Metadata.Author(); got != "Sun Tzu" {
		t.Errorf("author = %q", got)
	}
	if len(book.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(book.Files))
	}
	if book.Files[0].Title != "Chapter 1" || book.Files[0].Ext != "mp3" {
		t.Errorf("first file = %+v", book.Files[0])
	}
	if book.Cover == nil || book.Cover.Extension != "jpg" {
		t.Errorf("cover = %+v", book.Cover)
	}
}

func TestDownloadMissingTitleIsDataNotPresent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>nothing here</p></body></html>")
	}))
	defer server.Close()

	src := New()
	_, err := src.Download(context.Background(), server.URL+"/book")
	if !errors.Is(err, errs.ErrDataNotPresent) {
		t.Fatalf("expected data-not-present, got %v", err)
	}
}

func TestNoAuthenticationRequired(t *testing.T) {
	src := New()
	if src.RequiresAuthentication() {
		t.Error("librivox should not require authentication")
	}
}

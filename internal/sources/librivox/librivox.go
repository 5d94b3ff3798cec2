// Package librivox downloads public-domain audiobooks from librivox.org.
// LibriVox pages are plain HTML, so everything is CSS scraping; no
// authentication is ever needed.
package librivox

import (
	"context"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/errs"
	"bookfetch/internal/source"
)

var matchPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^https?://librivox\.org/.+`),
}

// Source is the LibriVox site adapter.
type Source struct {
	source.Base
}

// New builds a LibriVox adapter with its own session.
func New(opts ...source.SessionOption) *Source {
	return &Source{Base: source.NewBase(source.NewSession(opts...))}
}

// Names lists display names, primary first.
func (s *Source) Names() []string { return []string{"LibriVox"} }

// Match lists the URL patterns that claim this source.
func (s *Source) Match() []*regexp.Regexp { return matchPatterns }

// Download scrapes a book page into a Book.
func (s *Source) Download(ctx context.Context, rawURL string) (audiobook.Result, error) {
	session := s.Session()

	title, err := session.FindElemInPage(ctx, rawURL, ".content-wrap h1", "")
	if err != nil {
		return nil, err
	}
	meta := audiobook.Metadata{Title: strings.TrimSpace(title)}
	meta.AddGenre("Audiobook")
	if author, err := session.FindElemInPage(ctx, rawURL, ".book-page-author a", ""); err == nil {
		meta.AddAuthor(strings.TrimSpace(author))
	}

	files, err := s.files(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	book := &audiobook.Book{
		Client:   session.Client(),
		Metadata: meta,
		Files:    files,
	}
	if cover := s.cover(ctx, rawURL); cover != nil {
		book.Cover = cover
	}
	return book, nil
}

func (s *Source) files(ctx context.Context, rawURL string) ([]audiobook.File, error) {
	selection, err := s.Session().FindElemsInPage(ctx, rawURL, ".chapter-download .chapter-name")
	if err != nil {
		return nil, err
	}
	files := make([]audiobook.File, 0, selection.Length())
	selection.Each(func(_ int, elem *goquery.Selection) {
		href, ok := elem.Attr("href")
		if !ok {
			return
		}
		files = append(files, audiobook.File{
			URL:   href,
			Ext:   "mp3",
			Title: strings.TrimSpace(elem.Text()),
		})
	})
	if len(files) == 0 {
		return nil, errs.Wrap(errs.ErrNoFilesFound, "librivox", "scrape", rawURL, nil)
	}
	return files, nil
}

// cover fetches the book cover. A missing cover is not an error; the book is
// still delivered without one.
func (s *Source) cover(ctx context.Context, rawURL string) *audiobook.Cover {
	session := s.Session()
	src, err := session.FindElemInPage(ctx, rawURL, ".book-page-book-cover img", "src")
	if err != nil {
		return nil
	}
	image, err := session.Get(ctx, src)
	if err != nil {
		return nil
	}
	return &audiobook.Cover{Image: image, Extension: coverExtension(src)}
}

func coverExtension(rawURL string) string {
	lower := strings.ToLower(rawURL)
	if strings.HasSuffix(lower, ".png") {
		return "png"
	}
	return "jpg"
}

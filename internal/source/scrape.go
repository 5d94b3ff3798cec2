package source

import (
	"bytes"
	"context"
	"fmt"
	"regexp"

	"github.com/PuerkitoBio/goquery"

	"bookfetch/internal/errs"
)

func wrapRequestErr(operation, rawURL string, err error) error {
	return errs.Wrap(errs.ErrRequest, "session", operation, rawURL, err)
}

// FindInPage searches the cached page for the first regex match and returns
// the requested group. No match means the page shape changed or the caller
// is not authenticated, not a network fault.
func (s *Session) FindInPage(ctx context.Context, rawURL, pattern string, groupIndex int, opts ...RequestOption) (string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return "", fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	page, err := s.Page(ctx, rawURL, opts...)
	if err != nil {
		return "", err
	}
	match := re.FindSubmatch(page)
	if match == nil || groupIndex >= len(match) {
		s.logger.Debug("no regex match in page", "url", rawURL, "pattern", pattern)
		return "", errs.Wrap(errs.ErrDataNotPresent, "scrape", "regex", pattern, nil)
	}
	return string(match[groupIndex]), nil
}

// FindAllInPage returns every regex match in the cached page.
func (s *Session) FindAllInPage(ctx context.Context, rawURL, pattern string, opts ...RequestOption) ([]string, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("compile pattern %q: %w", pattern, err)
	}
	page, err := s.Page(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	matches := re.FindAll(page, -1)
	results := make([]string, 0, len(matches))
	for _, match := range matches {
		results = append(results, string(match))
	}
	return results, nil
}

// FindElemInPage returns the text of the first element matching the CSS
// selector, or the named attribute when attr is non-empty.
func (s *Session) FindElemInPage(ctx context.Context, rawURL, selector, attr string, opts ...RequestOption) (string, error) {
	selection, err := s.FindElemsInPage(ctx, rawURL, selector, opts...)
	if err != nil {
		return "", err
	}
	if selection.Length() == 0 {
		s.logger.Debug("no selector match in page", "url", rawURL, "selector", selector)
		return "", errs.Wrap(errs.ErrDataNotPresent, "scrape", "selector", selector, nil)
	}
	first := selection.First()
	if attr == "" {
		return first.Text(), nil
	}
	value, ok := first.Attr(attr)
	if !ok {
		return "", errs.Wrap(errs.ErrDataNotPresent, "scrape", "attribute", attr, nil)
	}
	return value, nil
}

// FindElemsInPage returns all elements matching the CSS selector.
func (s *Session) FindElemsInPage(ctx context.Context, rawURL, selector string, opts ...RequestOption) (*goquery.Selection, error) {
	page, err := s.Page(ctx, rawURL, opts...)
	if err != nil {
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse html from %s: %w", rawURL, err)
	}
	return doc.Find(selector), nil
}

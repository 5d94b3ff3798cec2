package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/config"
	"bookfetch/internal/errs"
	"bookfetch/internal/source"
)

type fakeSource struct {
	source.Base
	names    []string
	client   *http.Client
	fileURL  string
	download func(ctx context.Context, rawURL string) (audiobook.Result, error)
	fromID   func(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error)
}

func (s *fakeSource) Names() []string { return s.names }

func (s *fakeSource) Match() []*regexp.Regexp {
	return []*regexp.Regexp{regexp.MustCompile(`^https://books\.test/`)}
}

func (s *fakeSource) Download(ctx context.Context, rawURL string) (audiobook.Result, error) {
	return s.download(ctx, rawURL)
}

func (s *fakeSource) DownloadFromID(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error) {
	if s.fromID == nil {
		return s.Base.DownloadFromID(ctx, id)
	}
	return s.fromID(ctx, id)
}

func (s *fakeSource) book(title, key string) *audiobook.Book {
	return &audiobook.Book{
		Client:     s.client,
		Metadata:   audiobook.Metadata{Title: title},
		Files:      []audiobook.File{{URL: s.fileURL, Ext: "mp3"}},
		SourceData: map[string]string{LedgerKey: key},
	}
}

func testRunner(t *testing.T, src source.Source, mutate func(*config.Config)) *Runner {
	t.Helper()
	cfg := config.Default()
	cfg.Output.Dir = t.TempDir()
	if mutate != nil {
		mutate(&cfg)
	}
	registry := source.NewRegistry(src)
	return NewRunner(registry, &cfg, WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func newFakeSource(t *testing.T) *fakeSource {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("audio-bytes"))
	}))
	t.Cleanup(server.Close)

	src := &fakeSource{
		names:   []string{"faketest"},
		client:  server.Client(),
		fileURL: server.URL + "/file.mp3",
	}
	src.Base = source.NewBase(source.NewSession())
	return src
}

func TestProcessURLSingleBook(t *testing.T) {
	src := newFakeSource(t)
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		return src.book("Solo", "b1"), nil
	}
	runner := testRunner(t, src, nil)

	if err := runner.ProcessURL(context.Background(), "https://books.test/b1"); err != nil {
		t.Fatalf("ProcessURL returned error: %v", err)
	}
	finished := filepath.Join(runner.cfg.Output.Dir, "Solo.mp3")
	if _, err := os.Stat(finished); err != nil {
		t.Fatalf("finished file missing: %v", err)
	}
}

func TestProcessURLNoSource(t *testing.T) {
	src := newFakeSource(t)
	runner := testRunner(t, src, nil)
	err := runner.ProcessURL(context.Background(), "https://elsewhere.test/x")
	if !errors.Is(err, errs.ErrNoSourceFound) {
		t.Fatalf("expected no-source error, got %v", err)
	}
}

func TestSeriesSkipsUnreleasedBook(t *testing.T) {
	src := newFakeSource(t)
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		return &audiobook.Series{
			Title: "Trilogy",
			Books: []audiobook.SeriesEntry{
				{ID: audiobook.StringID("one")},
				{ID: audiobook.StringID("two")},
				{ID: audiobook.StringID("three")},
			},
		}, nil
	}
	src.fromID = func(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error) {
		if id.String() == "two" {
			return nil, errs.Wrap(errs.ErrBookNotReleased, "source", "download_from_id", "two", nil)
		}
		return src.book("Book "+id.String(), id.String()), nil
	}
	runner := testRunner(t, src, nil)

	if err := runner.ProcessURL(context.Background(), "https://books.test/series"); err != nil {
		t.Fatalf("ProcessURL returned error: %v", err)
	}
	for _, title := range []string{"Book one.mp3", "Book three.mp3"} {
		if _, err := os.Stat(filepath.Join(runner.cfg.Output.Dir, title)); err != nil {
			t.Errorf("expected %s: %v", title, err)
		}
	}
	if _, err := os.Stat(filepath.Join(runner.cfg.Output.Dir, "Book two.mp3")); !os.IsNotExist(err) {
		t.Error("unreleased book was downloaded")
	}
}

func TestSeriesFatalErrorStops(t *testing.T) {
	src := newFakeSource(t)
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		return &audiobook.Series{
			Books: []audiobook.SeriesEntry{
				{ID: audiobook.StringID("one")},
				{ID: audiobook.StringID("two")},
			},
		}, nil
	}
	src.fromID = func(ctx context.Context, id audiobook.BookID) (*audiobook.Book, error) {
		if id.String() == "one" {
			return nil, errs.Wrap(errs.ErrRequest, "source", "download_from_id", "one", nil)
		}
		return src.book("Book two", "two"), nil
	}
	runner := testRunner(t, src, nil)

	err := runner.ProcessURL(context.Background(), "https://books.test/series")
	if !errors.Is(err, errs.ErrRequest) {
		t.Fatalf("expected request error, got %v", err)
	}
	if _, statErr := os.Stat(filepath.Join(runner.cfg.Output.Dir, "Book two.mp3")); !os.IsNotExist(statErr) {
		t.Error("series continued past a fatal error")
	}
}

func TestAuthRequiredWithoutCredentials(t *testing.T) {
	src := newFakeSource(t)
	src.Base = source.NewBase(source.NewSession(), source.AuthLogin)
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		t.Fatal("download ran without authentication")
		return nil, nil
	}
	runner := testRunner(t, src, nil)

	procErr := runner.ProcessURL(context.Background(), "https://books.test/b1")
	if !errors.Is(procErr, errs.ErrUserNotAuthorized) {
		t.Fatalf("expected authorization error, got %v", procErr)
	}
}

func TestLedgerSkipsRecordedBook(t *testing.T) {
	src := newFakeSource(t)
	downloads := 0
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		downloads++
		return src.book("Solo", "b1"), nil
	}
	ledgerDir := t.TempDir()
	runner := testRunner(t, src, func(cfg *config.Config) {
		cfg.Output.LedgerDir = ledgerDir
	})

	ctx := context.Background()
	if err := runner.ProcessURL(ctx, "https://books.test/b1"); err != nil {
		t.Fatalf("first run: %v", err)
	}
	if err := os.Remove(filepath.Join(runner.cfg.Output.Dir, "Solo.mp3")); err != nil {
		t.Fatal(err)
	}
	if err := runner.ProcessURL(ctx, "https://books.test/b1"); err != nil {
		t.Fatalf("second run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(runner.cfg.Output.Dir, "Solo.mp3")); !os.IsNotExist(err) {
		t.Error("recorded book was downloaded again")
	}
}

func TestRunContinuesPastFailures(t *testing.T) {
	src := newFakeSource(t)
	src.download = func(ctx context.Context, rawURL string) (audiobook.Result, error) {
		if rawURL == "https://books.test/bad" {
			return nil, errs.Wrap(errs.ErrBookNotFound, "source", "download", rawURL, nil)
		}
		return src.book("Good", "good"), nil
	}
	runner := testRunner(t, src, nil)

	err := runner.Run(context.Background(), []string{
		"https://books.test/bad",
		"https://books.test/good",
	})
	if err == nil {
		t.Fatal("expected an aggregate error")
	}
	if _, statErr := os.Stat(filepath.Join(runner.cfg.Output.Dir, "Good.mp3")); statErr != nil {
		t.Errorf("batch did not continue past failure: %v", statErr)
	}
}

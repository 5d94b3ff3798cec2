// Package workflow drives a download run end to end: source dispatch,
// authentication, the download pool, the convert/combine pipeline, tagging,
// and the ledger. Books are processed one at a time; the download pool is the
// only concurrent phase.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/config"
	"bookfetch/internal/deps"
	"bookfetch/internal/download"
	"bookfetch/internal/errs"
	"bookfetch/internal/ledger"
	"bookfetch/internal/output"
	"bookfetch/internal/source"
	"bookfetch/internal/tagging"
)

// LedgerKey is the SourceData key a source sets to opt a book into the
// downloaded-books ledger.
const LedgerKey = "id"

// ProgressFactory builds a per-book progress sink. The sink receives
// fractional deltas that sum to the book's file count.
type ProgressFactory func(title string, fileCount int) func(delta float64)

// Runner orchestrates the per-URL workflow.
type Runner struct {
	registry   *source.Registry
	cfg        *config.Config
	downloader *download.Downloader
	pipeline   *output.Pipeline
	tagger     *tagging.Tagger
	ledger     *ledger.Ledger
	logger     *slog.Logger
	progress   ProgressFactory
	force      bool
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// WithProgress installs a per-book progress sink factory.
func WithProgress(factory ProgressFactory) RunnerOption {
	return func(r *Runner) { r.progress = factory }
}

// WithForce skips the existing-output confirmation prompt.
func WithForce(force bool) RunnerOption {
	return func(r *Runner) { r.force = force }
}

// WithDownloader overrides the downloader.
func WithDownloader(d *download.Downloader) RunnerOption {
	return func(r *Runner) {
		if d != nil {
			r.downloader = d
		}
	}
}

// WithPipeline overrides the convert/combine pipeline.
func WithPipeline(p *output.Pipeline) RunnerOption {
	return func(r *Runner) {
		if p != nil {
			r.pipeline = p
		}
	}
}

// WithTagger overrides the tag writer.
func WithTagger(t *tagging.Tagger) RunnerOption {
	return func(r *Runner) {
		if t != nil {
			r.tagger = t
		}
	}
}

// NewRunner builds a Runner from config defaults.
func NewRunner(registry *source.Registry, cfg *config.Config, opts ...RunnerOption) *Runner {
	r := &Runner{
		registry:   registry,
		cfg:        cfg,
		downloader: download.New(download.WithWorkers(cfg.Download.Workers)),
		pipeline:   output.NewPipeline(output.WithEncoder(cfg.Output.Encoder)),
		tagger:     tagging.NewTagger(),
		logger:     slog.Default(),
	}
	if cfg.Output.LedgerDir != "" {
		r.ledger = ledger.New(cfg.Output.LedgerDir)
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run processes each URL in order. One URL's failure is logged and does not
// stop the batch; the returned error reports how many URLs failed.
func (r *Runner) Run(ctx context.Context, urls []string) error {
	failed := 0
	for _, rawURL := range urls {
		if err := r.ProcessURL(ctx, rawURL); err != nil {
			failed++
			r.logger.Error("download failed", "url", rawURL, "error", err)
			fmt.Fprintln(os.Stderr, errs.UserMessage(err))
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d downloads failed", failed, len(urls))
	}
	return nil
}

// ProcessURL runs the full workflow for one URL.
func (r *Runner) ProcessURL(ctx context.Context, rawURL string) error {
	src, err := r.registry.Find(rawURL)
	if err != nil {
		return err
	}
	r.logger.Info("dispatching url", "url", rawURL, "source", src.Names()[0])

	if err := r.settleAuth(ctx, src, rawURL); err != nil {
		return err
	}
	if err := deps.Require(deps.ForPipeline(r.needsFFmpeg())); err != nil {
		return err
	}

	result, err := src.Download(ctx, rawURL)
	if err != nil {
		return err
	}

	switch v := result.(type) {
	case *audiobook.Book:
		return r.processBook(ctx, src, v)
	case *audiobook.Series:
		return r.processSeries(ctx, src, v)
	default:
		return fmt.Errorf("source %s returned no result", src.Names()[0])
	}
}

// settleAuth authenticates the source from configured credentials. A source
// that requires authentication and ends up without it is an authorization
// failure before any book data is requested.
func (r *Runner) settleAuth(ctx context.Context, src source.Source, rawURL string) error {
	if !src.RequiresAuthentication() || src.Authenticated() {
		return nil
	}
	auth, ok := r.cfg.Auth(src.Names())
	if ok {
		if auth.CookieFile != "" && src.SupportsCookies() {
			if err := src.LoadCookieFile(auth.CookieFile); err != nil {
				return errs.Wrap(errs.ErrUserNotAuthorized, "workflow", "auth", "cookie file", err)
			}
		} else if auth.Username != "" && src.SupportsLogin() {
			creds := source.Credentials{
				Username: auth.Username,
				Password: auth.Password,
				Library:  auth.Library,
			}
			if err := source.Login(ctx, src, rawURL, creds); err != nil {
				return err
			}
		}
	}
	if !src.Authenticated() {
		return errs.Wrap(errs.ErrUserNotAuthorized, "workflow", "auth",
			"no usable credentials configured for "+src.Names()[0], nil)
	}
	return nil
}

func (r *Runner) needsFFmpeg() bool {
	return r.cfg.Output.Combine || r.cfg.Output.Format != ""
}

// processSeries resolves and downloads each entry in order. Entries the
// vendor reports as unavailable are skipped with a message; the rest of the
// series continues.
func (r *Runner) processSeries(ctx context.Context, src source.Source, series *audiobook.Series) error {
	r.logger.Info("downloading series", "title", series.Title, "books", len(series.Books))
	for _, entry := range series.Books {
		book := entry.Book
		if book == nil {
			var err error
			book, err = src.DownloadFromID(ctx, entry.ID)
			if err != nil {
				if errs.SkippableInSeries(err) {
					r.logger.Warn("skipping book in series", "id", entry.ID.String(), "reason", errs.UserMessage(err))
					continue
				}
				return err
			}
		}
		if err := r.processBook(ctx, src, book); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) processBook(ctx context.Context, src source.Source, book *audiobook.Book) error {
	sourceName := src.Names()[0]
	key := book.SourceData[LedgerKey]
	if r.ledger != nil && key != "" && r.ledger.Has(sourceName, key) {
		r.logger.Info("already downloaded, skipping", "title", book.Title(), "id", key)
		return nil
	}
	if len(book.Files) == 0 {
		return errs.Wrap(errs.ErrNoFilesFound, "workflow", "download", book.Title(), nil)
	}

	location := output.GenerateLocation(r.cfg.Output.Template, book.Metadata, r.cfg.Output.RemoveChars)
	outputDir := filepath.Join(r.cfg.Output.Dir, location)
	if err := download.PrepareOutput(outputDir, r.force); err != nil {
		return err
	}
	if parent := filepath.Dir(outputDir); parent != "." {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	var sink func(float64)
	if r.progress != nil {
		sink = r.progress(book.Title(), len(book.Files))
	}
	paths, err := r.downloader.Download(ctx, book, outputDir, sink)
	if err != nil {
		return err
	}

	current, target := output.Format(r.cfg.Output.Format, paths)
	if current != target {
		if paths, err = r.pipeline.Convert(ctx, paths, target); err != nil {
			return err
		}
	}

	if r.cfg.Output.Combine && len(paths) > 1 {
		outputFile := outputDir + "." + target
		if err := r.pipeline.Combine(ctx, paths, outputFile); err != nil {
			return err
		}
		if err := os.RemoveAll(outputDir); err != nil {
			r.logger.Warn("could not remove part directory", "dir", outputDir, "error", err)
		}
		paths = []string{outputFile}
	}

	// Book-level chapters only make sense in a single finished file; parts
	// of an uncombined book get tags and cover but no chapter frames.
	chapters := book.Chapters
	if len(paths) > 1 {
		chapters = nil
	}
	for _, path := range paths {
		if err := r.tagger.Apply(ctx, path, book.Metadata, chapters, book.Cover); err != nil {
			return err
		}
	}
	if len(paths) > 1 {
		r.writeCompanions(outputDir, book)
	}

	if book.OnDownloadComplete != nil {
		book.OnDownloadComplete()
	}
	if r.ledger != nil && key != "" {
		if err := r.ledger.Record(sourceName, key, book.Metadata.AsMap()); err != nil {
			r.logger.Warn("could not record ledger entry", "id", key, "error", err)
		}
	}
	r.logger.Info("finished", "title", book.Title(), "files", len(paths))
	return nil
}

// writeCompanions drops the cover image and a metadata document next to the
// parts of an uncombined multi-file book.
func (r *Runner) writeCompanions(outputDir string, book *audiobook.Book) {
	if book.Cover != nil {
		coverPath := filepath.Join(outputDir, "cover."+book.Cover.Extension)
		if err := os.WriteFile(coverPath, book.Cover.Image, 0o644); err != nil {
			r.logger.Warn("could not write cover", "path", coverPath, "error", err)
		}
	}
	data, err := book.Metadata.AsJSON()
	if err != nil {
		return
	}
	metaPath := filepath.Join(outputDir, "metadata.json")
	if err := os.WriteFile(metaPath, data, 0o644); err != nil {
		r.logger.Warn("could not write metadata", "path", metaPath, "error", err)
	}
}

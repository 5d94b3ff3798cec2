// Package download fetches a book's remote files to disk with bounded
// parallelism, aggregate progress accounting, and per-file decryption.
package download

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"golang.org/x/sync/errgroup"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/errs"
)

const (
	defaultWorkers   = 20
	downloadChunkLen = 1024
)

// Option configures a Downloader.
type Option func(*Downloader)

// WithWorkers overrides the worker pool size.
func WithWorkers(workers int) Option {
	return func(d *Downloader) {
		if workers > 0 {
			d.workers = workers
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Downloader) {
		if logger != nil {
			d.logger = logger
		}
	}
}

// Downloader fetches all files of a book. Files are submitted in list order
// and may complete in any order; results are keyed by index so the caller
// always receives paths in the original order.
type Downloader struct {
	workers int
	logger  *slog.Logger
}

// New constructs a Downloader using defaults.
func New(opts ...Option) *Downloader {
	d := &Downloader{workers: defaultWorkers, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches every file of book under outputDir and returns the local
// paths in file-list order. A single-file book writes to "{outputDir}.{ext}"
// without creating a directory; a multi-file book writes zero-padded part
// files into outputDir. progress receives fraction-of-one-file deltas; the
// sum over a completed file is exactly 1. On any failure, including
// cancellation, partial output is removed: the directory for a multi-file
// book, the "{outputDir}.{ext}" file for a single-file one.
func (d *Downloader) Download(ctx context.Context, book *audiobook.Book, outputDir string, progress func(delta float64)) ([]string, error) {
	if len(book.Files) == 0 {
		return nil, errs.Wrap(errs.ErrNoFilesFound, "download", "start", book.Title(), nil)
	}
	if progress == nil {
		progress = func(float64) {}
	}
	client := book.Client
	if client == nil {
		client = http.DefaultClient
	}

	multi := len(book.Files) > 1
	if multi {
		if err := os.MkdirAll(outputDir, 0o755); err != nil {
			return nil, fmt.Errorf("create output directory: %w", err)
		}
	}

	tracker := &progressTracker{report: progress}
	paths := make([]string, len(book.Files))

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(d.workers)
	for index, file := range book.Files {
		index, file := index, file
		group.Go(func() error {
			path := partPath(outputDir, book.Title(), file, index, len(book.Files))
			d.logger.Debug("downloading file", "url", file.URL, "path", path)
			if err := d.fetchFile(groupCtx, client, file, path, tracker); err != nil {
				return err
			}
			paths[index] = path
			return nil
		})
	}

	if err := group.Wait(); err != nil {
		if multi {
			os.RemoveAll(outputDir)
		} else {
			os.Remove(partPath(outputDir, book.Title(), book.Files[0], 0, 1))
		}
		return nil, err
	}
	return paths, nil
}

// partPath builds the stable, sortable name for the indexth file. The
// zero-padded part number keeps glob order equal to download order.
func partPath(outputDir, title string, file audiobook.File, index, total int) string {
	if total == 1 {
		return outputDir + "." + file.Ext
	}
	name := fmt.Sprintf("%s - Part %03d.%s", title, index+1, file.Ext)
	return filepath.Join(outputDir, name)
}

func (d *Downloader) fetchFile(ctx context.Context, client *http.Client, file audiobook.File, path string, tracker *progressTracker) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, file.URL, nil)
	if err != nil {
		return errs.Wrap(errs.ErrRequest, "download", "build request", file.URL, err)
	}
	for key, value := range file.Headers {
		req.Header.Set(key, value)
	}

	resp, err := client.Do(req)
	if err != nil {
		return errs.Wrap(errs.ErrRequest, "download", "get", file.URL, err)
	}
	defer resp.Body.Close()

	wantStatus := http.StatusOK
	if file.ExpectedStatusCode != 0 {
		wantStatus = file.ExpectedStatusCode
	}
	if resp.StatusCode != wantStatus {
		return errs.Wrap(errs.ErrRequest, "download", "get", fmt.Sprintf("%s: status %d", file.URL, resp.StatusCode), nil)
	}
	if file.ExpectedContentType != "" && resp.Header.Get("Content-Type") != file.ExpectedContentType {
		return errs.Wrap(errs.ErrRequest, "download", "get",
			fmt.Sprintf("%s: content type %q", file.URL, resp.Header.Get("Content-Type")), nil)
	}

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()

	// Stream in fixed-size chunks; the body is never buffered whole.
	var written float64
	contentLength := resp.ContentLength
	chunk := make([]byte, downloadChunkLen)
	for {
		n, readErr := resp.Body.Read(chunk)
		if n > 0 {
			if _, writeErr := out.Write(chunk[:n]); writeErr != nil {
				return fmt.Errorf("write %s: %w", path, writeErr)
			}
			if contentLength > 0 {
				delta := float64(n) / float64(contentLength)
				written += delta
				tracker.add(delta)
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return errs.Wrap(errs.ErrRequest, "download", "read body", file.URL, readErr)
		}
	}
	// Absorb rounding drift: force this file to exactly 1.0.
	tracker.add(1 - written)

	if err := out.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	if file.Encryption != nil {
		if err := decryptFile(path, file.Encryption); err != nil {
			return fmt.Errorf("decrypt %s: %w", path, err)
		}
	}
	return nil
}

// progressTracker is the only state shared between workers.
type progressTracker struct {
	mu     sync.Mutex
	total  float64
	report func(float64)
}

func (t *progressTracker) add(delta float64) {
	t.mu.Lock()
	t.total += delta
	report := t.report
	t.mu.Unlock()
	report(delta)
}

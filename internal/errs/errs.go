// Package errs defines the error taxonomy shared across the source,
// download, and output layers, plus the user-facing message table the CLI
// renders instead of raw error chains.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoSourceFound means no registered source claims the URL.
	ErrNoSourceFound = errors.New("no source found")
	// ErrUserNotAuthorized means authentication was rejected or required
	// but never provided.
	ErrUserNotAuthorized = errors.New("user not authorized")
	// ErrDataNotPresent means an expected page selector or regex did not
	// match; the vendor's page or API shape has likely changed.
	ErrDataNotPresent = errors.New("data not present")
	// ErrMissingBookAccess means the vendor confirmed the account cannot
	// access this title.
	ErrMissingBookAccess = errors.New("missing book access")
	// ErrBookNotFound means the vendor has no such title.
	ErrBookNotFound = errors.New("book not found")
	// ErrBookNotReleased means the title exists but is not yet available.
	ErrBookNotReleased = errors.New("book not released")
	// ErrBookHasNoAudiobook means the title has no audio edition.
	ErrBookHasNoAudiobook = errors.New("book has no audiobook")
	// ErrRequest is a transport failure or non-2xx response. Requests are
	// never retried; see the workflow package.
	ErrRequest = errors.New("request failed")
	// ErrNoFilesFound means a source resolved a book with an empty file list.
	ErrNoFilesFound = errors.New("no files found")
	// ErrFailedCombining means ffmpeg produced no combined output file.
	ErrFailedCombining = errors.New("combining failed")
	// ErrMissingDependency means a required external binary is absent.
	ErrMissingDependency = errors.New("missing dependency")
	// ErrConfigNotFound means a user-specified config path does not exist.
	ErrConfigNotFound = errors.New("config not found")
)

// Wrap tags err with a sentinel marker and component/operation context so
// callers can classify it with errors.Is while keeping the detail chain.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrRequest
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// SkippableInSeries reports whether an error resolving one book of a series
// should skip that book and continue, rather than abort the whole series.
func SkippableInSeries(err error) bool {
	return errors.Is(err, ErrMissingBookAccess) ||
		errors.Is(err, ErrBookNotFound) ||
		errors.Is(err, ErrBookNotReleased) ||
		errors.Is(err, ErrBookHasNoAudiobook)
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}

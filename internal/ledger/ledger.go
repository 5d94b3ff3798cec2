// Package ledger persists one JSON document per downloaded book, keyed by the
// vendor's book ID under a per-source directory. It backs the
// "skip already downloaded" check. Writes are append-only; a key is never
// rewritten once recorded.
package ledger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// Ledger is a filesystem key/value store of downloaded books.
type Ledger struct {
	root string
	lock *flock.Flock
}

// New returns a Ledger rooted at dir. The directory is created on first
// write, not here.
func New(dir string) *Ledger {
	return &Ledger{
		root: dir,
		lock: flock.New(filepath.Join(dir, ".lock")),
	}
}

// Has reports whether source has already recorded key.
func (l *Ledger) Has(source, key string) bool {
	_, err := os.Stat(l.entryPath(source, key))
	return err == nil
}

// Record writes the book's metadata document for key. An existing entry is
// left untouched.
func (l *Ledger) Record(source, key string, document map[string]any) error {
	path := l.entryPath(source, key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create ledger directory: %w", err)
	}

	if err := l.lock.Lock(); err != nil {
		return fmt.Errorf("acquire ledger lock: %w", err)
	}
	defer l.lock.Unlock()

	if _, err := os.Stat(path); err == nil {
		return nil
	}
	data, err := json.MarshalIndent(document, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger entry: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write ledger entry: %w", err)
	}
	return nil
}

// Load reads back the document recorded for key.
func (l *Ledger) Load(source, key string) (map[string]any, error) {
	data, err := os.ReadFile(l.entryPath(source, key))
	if err != nil {
		return nil, err
	}
	var document map[string]any
	if err := json.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("decode ledger entry: %w", err)
	}
	return document, nil
}

func (l *Ledger) entryPath(source, key string) string {
	return filepath.Join(l.root, safeName(source), safeName(key)+".json")
}

// safeName makes a vendor-provided identifier usable as a file name.
func safeName(name string) string {
	replacer := strings.NewReplacer("/", "_", "\\", "_", ":", "_", "\x00", "_")
	cleaned := replacer.Replace(name)
	if cleaned == "" {
		cleaned = "_"
	}
	return cleaned
}

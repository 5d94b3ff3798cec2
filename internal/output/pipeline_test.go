package output

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"bookfetch/internal/errs"
	"bookfetch/internal/media/ffmpeg"
)

// concatStub emulates `ffmpeg -f concat`: it reads the list file and
// concatenates the named inputs into the final argument.
const concatStub = `#!/bin/sh
list=""
out=""
prev=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then list="$arg"; fi
  prev="$arg"
  out="$arg"
done
: > "$out"
while IFS= read -r line; do
  f="${line#file \'}"
  f="${f%\'}"
  cat "$f" >> "$out"
done < "$list"
`

// touchStub emulates a conversion by creating the output file.
const touchStub = `#!/bin/sh
for arg in "$@"; do out="$arg"; done
printf converted > "$out"
`

// silentStub succeeds without producing any output file.
const silentStub = `#!/bin/sh
exit 0
`

func stubFFmpeg(t *testing.T, script string) *ffmpeg.CLI {
	t.Helper()
	path := filepath.Join(t.TempDir(), "ffmpeg")
	if err := os.WriteFile(path, []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return ffmpeg.NewCLI(ffmpeg.WithBinary(path))
}

func writeParts(t *testing.T, dir string, count int) []string {
	t.Helper()
	paths := make([]string, count)
	for i := range paths {
		paths[i] = filepath.Join(dir, fmt.Sprintf("part%03d.mp3", i))
		if err := os.WriteFile(paths[i], []byte(fmt.Sprintf("<%d>", i)), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	return paths
}

func TestCombinePreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := writeParts(t, dir, 4)
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, concatStub)))

	outputFile := filepath.Join(dir, "book.mp3")
	if err := pipeline.Combine(context.Background(), paths, outputFile); err != nil {
		t.Fatalf("Combine returned error: %v", err)
	}
	data, err := os.ReadFile(outputFile)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "<0><1><2><3>" {
		t.Fatalf("combined content out of order: %q", data)
	}
}

func TestCombineFoldsBatches(t *testing.T) {
	dir := t.TempDir()
	// More parts than one batch: the accumulator fold must still keep order.
	paths := writeParts(t, dir, 7)
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, concatStub)))

	// Shrink the effective batch size by combining twice through the public
	// surface is not possible; instead assert the full run works and the
	// temp accumulators are cleaned up.
	outputFile := filepath.Join(dir, "book.mp3")
	if err := pipeline.Combine(context.Background(), paths, outputFile); err != nil {
		t.Fatalf("Combine returned error: %v", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if filepath.Ext(entry.Name()) == ".txt" {
			t.Fatalf("leftover concat list %q", entry.Name())
		}
	}
}

func TestCombineNoOutputIsFatal(t *testing.T) {
	dir := t.TempDir()
	paths := writeParts(t, dir, 2)
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, silentStub)))

	err := pipeline.Combine(context.Background(), paths, filepath.Join(dir, "book.mp3"))
	if !errors.Is(err, errs.ErrFailedCombining) {
		t.Fatalf("expected combining failure, got %v", err)
	}
}

func TestCombineRejectsEmptyInput(t *testing.T) {
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, concatStub)))
	err := pipeline.Combine(context.Background(), nil, filepath.Join(t.TempDir(), "o.mp3"))
	if !errors.Is(err, errs.ErrFailedCombining) {
		t.Fatalf("expected combining failure, got %v", err)
	}
}

func TestConvertSkipsMatchingExtension(t *testing.T) {
	dir := t.TempDir()
	paths := writeParts(t, dir, 2)
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, touchStub)))

	converted, err := pipeline.Convert(context.Background(), paths, "mp3")
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	for i := range paths {
		if converted[i] != paths[i] {
			t.Fatalf("path %d changed despite matching format", i)
		}
	}
}

func TestConvertReplacesOriginals(t *testing.T) {
	dir := t.TempDir()
	paths := writeParts(t, dir, 2)
	pipeline := NewPipeline(WithFFmpeg(stubFFmpeg(t, touchStub)), WithFFprobeBinary("clearly-not-present"))

	converted, err := pipeline.Convert(context.Background(), paths, "m4b")
	if err != nil {
		t.Fatalf("Convert returned error: %v", err)
	}
	for i, path := range converted {
		if filepath.Ext(path) != ".m4b" {
			t.Fatalf("converted path %d has ext %q", i, filepath.Ext(path))
		}
		if _, err := os.Stat(path); err != nil {
			t.Fatalf("converted file %d missing: %v", i, err)
		}
		if _, err := os.Stat(paths[i]); !os.IsNotExist(err) {
			t.Fatalf("original %d not removed", i)
		}
	}
}

// Package tagging embeds metadata, chapters, and cover art into finished
// audio files. MP3 gets a native ID3v2 tag; the MP4 family is rewritten
// through ffmpeg with an FFMETADATA side file. Anything else is skipped.
package tagging

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bookfetch/internal/audiobook"
	"bookfetch/internal/media/ffmpeg"
	"bookfetch/internal/media/ffprobe"
	"bookfetch/internal/output"
)

// Tagger applies metadata to finished audio files. Tagging failures are soft:
// the audio on disk is already complete, so a failed embed logs and moves on.
type Tagger struct {
	ffmpeg        *ffmpeg.CLI
	ffprobeBinary string
	logger        *slog.Logger
}

// TaggerOption configures a Tagger.
type TaggerOption func(*Tagger)

// WithFFmpeg overrides the ffmpeg client.
func WithFFmpeg(cli *ffmpeg.CLI) TaggerOption {
	return func(t *Tagger) {
		if cli != nil {
			t.ffmpeg = cli
		}
	}
}

// WithFFprobeBinary overrides the ffprobe binary name.
func WithFFprobeBinary(binary string) TaggerOption {
	return func(t *Tagger) {
		if binary != "" {
			t.ffprobeBinary = binary
		}
	}
}

// WithLogger overrides the logger.
func WithLogger(logger *slog.Logger) TaggerOption {
	return func(t *Tagger) {
		if logger != nil {
			t.logger = logger
		}
	}
}

// NewTagger constructs a Tagger using defaults.
func NewTagger(opts ...TaggerOption) *Tagger {
	t := &Tagger{
		ffmpeg:        ffmpeg.NewCLI(),
		ffprobeBinary: "ffprobe",
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Apply embeds metadata, chapters, and the cover into path, dispatching on
// the file's container family. Unsupported containers log and return nil.
func (t *Tagger) Apply(ctx context.Context, path string, meta audiobook.Metadata, chapters []audiobook.Chapter, cover *audiobook.Cover) error {
	ext := strings.TrimPrefix(filepath.Ext(path), ".")
	spans := t.resolveSpans(ctx, path, chapters)

	switch {
	case ext == "mp3":
		if err := writeID3(path, meta, spans, cover); err != nil {
			t.logger.Warn("id3 tagging failed", "path", path, "error", err)
		}
	case output.IsMP4Family(ext):
		if err := t.writeMP4(ctx, path, meta, spans); err != nil {
			t.logger.Warn("mp4 tagging failed", "path", path, "error", err)
		} else if cover != nil {
			if err := t.embedMP4Cover(ctx, path, cover); err != nil {
				t.logger.Warn("cover embed failed", "path", path, "error", err)
			}
		}
	default:
		t.logger.Debug("no tag writer for container", "path", path, "ext", ext)
	}
	return nil
}

// resolveSpans probes the finished file for its real duration so the last
// chapter can be closed. A failed probe drops chapters rather than writing
// ends that might overrun the audio.
func (t *Tagger) resolveSpans(ctx context.Context, path string, chapters []audiobook.Chapter) []Span {
	if len(chapters) == 0 {
		return nil
	}
	result, err := ffprobe.Inspect(ctx, t.ffprobeBinary, path)
	if err != nil {
		t.logger.Warn("duration probe failed, skipping chapters", "path", path, "error", err)
		return nil
	}
	return Spans(chapters, result.DurationMillis())
}

// writeMP4 rewrites path through ffmpeg with an FFMETADATA side file, then
// swaps the rewritten file into place.
func (t *Tagger) writeMP4(ctx context.Context, path string, meta audiobook.Metadata, spans []Span) error {
	dir := filepath.Dir(path)
	metaFile := filepath.Join(dir, uuid.NewString()+".txt")
	if err := os.WriteFile(metaFile, []byte(renderFFMetadata(meta, spans)), 0o644); err != nil {
		return fmt.Errorf("write metadata file: %w", err)
	}
	defer os.Remove(metaFile)

	return t.rewrite(path, func(tmp string) error {
		return t.ffmpeg.WriteMetadata(ctx, path, metaFile, tmp)
	})
}

func (t *Tagger) embedMP4Cover(ctx context.Context, path string, cover *audiobook.Cover) error {
	if _, ok := coverMIMETypes[cover.Extension]; !ok {
		return fmt.Errorf("unsupported cover format %q", cover.Extension)
	}
	dir := filepath.Dir(path)
	coverFile := filepath.Join(dir, uuid.NewString()+"."+cover.Extension)
	if err := os.WriteFile(coverFile, cover.Image, 0o644); err != nil {
		return fmt.Errorf("write cover file: %w", err)
	}
	defer os.Remove(coverFile)

	return t.rewrite(path, func(tmp string) error {
		return t.ffmpeg.EmbedCover(ctx, path, coverFile, tmp)
	})
}

// rewrite runs produce to build a replacement for path in the same directory
// and renames it into place only when the output actually exists.
func (t *Tagger) rewrite(path string, produce func(tmp string) error) error {
	tmp := filepath.Join(filepath.Dir(path), uuid.NewString()+filepath.Ext(path))
	if err := produce(tmp); err != nil {
		os.Remove(tmp)
		return err
	}
	if _, err := os.Stat(tmp); err != nil {
		return fmt.Errorf("ffmpeg produced no output: %w", err)
	}
	return os.Rename(tmp, path)
}

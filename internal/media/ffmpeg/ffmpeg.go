// Package ffmpeg wraps the ffmpeg command line for the convert, combine, and
// metadata-rewrite operations of the output pipeline. ffmpeg is always
// invoked as a subprocess with fixed argument shapes; nothing here decodes
// audio.
package ffmpeg

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

var commandContext = exec.CommandContext

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the ffmpeg command-line tool.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "ffmpeg"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// ConvertOptions controls a single-file conversion.
type ConvertOptions struct {
	// CopyCodec remuxes without re-encoding.
	CopyCodec bool
	// Encoder selects the audio encoder for a re-encode ("aac", ...).
	// Empty leaves the choice to ffmpeg's container default.
	Encoder string
	// BitRateKbps pins the output bitrate; 0 leaves encoder defaults.
	BitRateKbps int
}

// Convert re-encodes or remuxes inputPath into outputPath.
func (c *CLI) Convert(ctx context.Context, inputPath, outputPath string, opts ConvertOptions) error {
	if inputPath == "" {
		return errors.New("input path required")
	}
	if outputPath == "" {
		return errors.New("output path required")
	}

	args := []string{"-y", "-i", inputPath}
	switch {
	case opts.CopyCodec:
		args = append(args, "-codec", "copy")
	case opts.Encoder != "":
		args = append(args, "-c:a", opts.Encoder)
		if opts.BitRateKbps > 0 {
			args = append(args, "-b:a", strconv.Itoa(opts.BitRateKbps)+"k")
		}
	}
	args = append(args, outputPath)
	return c.run(ctx, "convert", args)
}

// Concat combines the files named in listFile (concat demuxer syntax) into
// outputPath with stream copy.
func (c *CLI) Concat(ctx context.Context, listFile, outputPath string) error {
	if listFile == "" || outputPath == "" {
		return errors.New("list file and output path required")
	}
	args := []string{"-y", "-f", "concat", "-safe", "0", "-i", listFile, "-c", "copy", outputPath}
	return c.run(ctx, "concat", args)
}

// WriteMetadata rewrites inputPath into outputPath taking global metadata
// and chapters from an FFMETADATA side file, with stream copy.
func (c *CLI) WriteMetadata(ctx context.Context, inputPath, metadataFile, outputPath string) error {
	if inputPath == "" || metadataFile == "" || outputPath == "" {
		return errors.New("input, metadata file, and output path required")
	}
	args := []string{
		"-y", "-i", inputPath, "-i", metadataFile,
		"-map_metadata", "1", "-map_chapters", "1",
		"-map", "0", "-c", "copy",
		outputPath,
	}
	return c.run(ctx, "write metadata", args)
}

// EmbedCover attaches coverPath to inputPath as the container's cover
// picture, writing outputPath.
func (c *CLI) EmbedCover(ctx context.Context, inputPath, coverPath, outputPath string) error {
	if inputPath == "" || coverPath == "" || outputPath == "" {
		return errors.New("input, cover, and output path required")
	}
	args := []string{
		"-y", "-i", inputPath, "-i", coverPath,
		"-map", "0", "-map", "1",
		"-c", "copy", "-disposition:v:0", "attached_pic",
		outputPath,
	}
	return c.run(ctx, "embed cover", args)
}

func (c *CLI) run(ctx context.Context, operation string, args []string) error {
	cmd := commandContext(ctx, c.binary, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		detail := strings.TrimSpace(string(output))
		if len(detail) > 2048 {
			detail = detail[len(detail)-2048:]
		}
		return fmt.Errorf("ffmpeg %s: %w: %s", operation, err, detail)
	}
	return nil
}

package output

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"bookfetch/internal/errs"
	"bookfetch/internal/media/ffmpeg"
	"bookfetch/internal/media/ffprobe"
)

// combineBatchSize bounds how many inputs one concat invocation sees, so a
// book with thousands of HLS segments cannot exhaust open file descriptors.
const combineBatchSize = 500

const defaultMP4Encoder = "aac"

// Pipeline performs the convert and combine stages on downloaded parts.
type Pipeline struct {
	ffmpeg        *ffmpeg.CLI
	ffprobeBinary string
	encoder       string
	logger        *slog.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*Pipeline)

// WithFFmpeg overrides the ffmpeg client.
func WithFFmpeg(cli *ffmpeg.CLI) PipelineOption {
	return func(p *Pipeline) {
		if cli != nil {
			p.ffmpeg = cli
		}
	}
}

// WithFFprobeBinary overrides the ffprobe binary name.
func WithFFprobeBinary(binary string) PipelineOption {
	return func(p *Pipeline) {
		if binary != "" {
			p.ffprobeBinary = binary
		}
	}
}

// WithEncoder overrides the audio encoder used for MP4-family targets.
func WithEncoder(encoder string) PipelineOption {
	return func(p *Pipeline) {
		if encoder != "" {
			p.encoder = encoder
		}
	}
}

// WithPipelineLogger attaches a logger.
func WithPipelineLogger(logger *slog.Logger) PipelineOption {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// NewPipeline constructs a Pipeline using defaults.
func NewPipeline(opts ...PipelineOption) *Pipeline {
	p := &Pipeline{
		ffmpeg:        ffmpeg.NewCLI(),
		ffprobeBinary: "ffprobe",
		encoder:       defaultMP4Encoder,
		logger:        slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Convert re-encodes or remuxes every path whose extension differs from
// target and returns the resulting paths, still in input order. Converted
// originals are removed. For MP4-family targets the output bitrate is
// matched to the detected source bitrate so audiobooks are not silently
// down-bitrated.
func (p *Pipeline) Convert(ctx context.Context, paths []string, target string) ([]string, error) {
	converted := make([]string, 0, len(paths))
	for _, path := range paths {
		current := strings.TrimPrefix(filepath.Ext(path), ".")
		if current == target {
			converted = append(converted, path)
			continue
		}
		newPath := strings.TrimSuffix(path, filepath.Ext(path)) + "." + target
		opts := ffmpeg.ConvertOptions{}
		switch {
		case copyCodecSafe(current, target):
			opts.CopyCodec = true
		case IsMP4Family(target):
			opts.Encoder = p.encoder
			opts.BitRateKbps = p.sourceBitrate(ctx, path)
		}
		p.logger.Debug("converting file", "from", path, "to", newPath, "copy", opts.CopyCodec)
		if err := p.ffmpeg.Convert(ctx, path, newPath, opts); err != nil {
			return nil, err
		}
		if err := os.Remove(path); err != nil {
			return nil, fmt.Errorf("remove converted original: %w", err)
		}
		converted = append(converted, newPath)
	}
	return converted, nil
}

func (p *Pipeline) sourceBitrate(ctx context.Context, path string) int {
	result, err := ffprobe.Inspect(ctx, p.ffprobeBinary, path)
	if err != nil {
		p.logger.Debug("bitrate probe failed", "path", path, "error", err)
		return 0
	}
	return result.AudioBitRateKbps()
}

// Combine concatenates paths, in order, into outputFile using the concat
// demuxer. Inputs are processed in batches folded into a running accumulator
// file. A missing output afterwards is a fatal combining failure.
func (p *Pipeline) Combine(ctx context.Context, paths []string, outputFile string) error {
	if len(paths) == 0 {
		return errs.Wrap(errs.ErrFailedCombining, "output", "combine", "no input files", nil)
	}

	workDir := filepath.Dir(outputFile)
	ext := filepath.Ext(outputFile)
	accumulator := ""
	for start := 0; start < len(paths); start += combineBatchSize {
		end := min(start+combineBatchSize, len(paths))
		batch := paths[start:end]

		inputs := make([]string, 0, len(batch)+1)
		if accumulator != "" {
			inputs = append(inputs, accumulator)
		}
		inputs = append(inputs, batch...)

		next := filepath.Join(workDir, uuid.NewString()+ext)
		listFile, err := writeConcatList(workDir, inputs)
		if err != nil {
			return err
		}
		err = p.ffmpeg.Concat(ctx, listFile, next)
		os.Remove(listFile)
		if err != nil {
			return err
		}
		if _, err := os.Stat(next); err != nil {
			return errs.Wrap(errs.ErrFailedCombining, "output", "combine", "ffmpeg produced no output", err)
		}
		if accumulator != "" {
			os.Remove(accumulator)
		}
		accumulator = next
	}

	if err := os.Rename(accumulator, outputFile); err != nil {
		return fmt.Errorf("finalize combined file: %w", err)
	}
	if _, err := os.Stat(outputFile); err != nil {
		return errs.Wrap(errs.ErrFailedCombining, "output", "combine", outputFile, err)
	}
	return nil
}

// writeConcatList writes a concat-demuxer list file naming inputs in order.
func writeConcatList(dir string, inputs []string) (string, error) {
	var builder strings.Builder
	for _, input := range inputs {
		absolute, err := filepath.Abs(input)
		if err != nil {
			return "", err
		}
		escaped := strings.ReplaceAll(absolute, "'", `'\''`)
		fmt.Fprintf(&builder, "file '%s'\n", escaped)
	}
	listFile := filepath.Join(dir, uuid.NewString()+".txt")
	if err := os.WriteFile(listFile, []byte(builder.String()), 0o644); err != nil {
		return "", fmt.Errorf("write concat list: %w", err)
	}
	return listFile, nil
}

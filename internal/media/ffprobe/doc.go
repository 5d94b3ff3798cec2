// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// The tagging stage relies on it for the one place real audio duration feeds
// back into metadata: the final chapter's end. The conversion stage uses it
// to match the output bitrate to the detected source bitrate.
package ffprobe

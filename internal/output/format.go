// Package output turns downloaded parts into the final artifact: format
// decision, filename templating, per-file conversion, and chunked combining
// through ffmpeg.
package output

import (
	"path/filepath"
	"strings"
)

// mp4Family lists the container extensions tagged through MP4 atoms.
var mp4Family = map[string]bool{
	"mp4": true, "m4a": true, "m4p": true, "m4b": true, "m4r": true, "m4v": true,
}

// IsMP4Family reports whether ext belongs to the MP4 container family.
func IsMP4Family(ext string) bool {
	return mp4Family[strings.ToLower(ext)]
}

// Format decides the source and target audio formats for a book. current is
// the extension of the first downloaded file; target is the requested format
// or, when none is requested, the source format with the transport-stream
// special case mapped to mp3. current != target means conversion is needed.
func Format(requested string, paths []string) (current, target string) {
	if len(paths) > 0 {
		current = strings.TrimPrefix(filepath.Ext(paths[0]), ".")
	}
	target = strings.TrimSpace(requested)
	if target == "" {
		target = current
		if target == "ts" {
			target = "mp3"
		}
	}
	return current, target
}

// copyCodecSafe reports whether remuxing without re-encoding is known to
// produce a valid file for this conversion.
func copyCodecSafe(current, target string) bool {
	if current == "ts" && target == "mp3" {
		return true
	}
	return target == "mkv" || target == "mka"
}

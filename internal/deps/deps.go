// Package deps preflights the external binaries the output pipeline shells
// out to. Checks run before any network activity so a missing tool fails the
// run immediately instead of mid-pipeline.
package deps

import (
	"fmt"
	"os/exec"
	"strings"

	"bookfetch/internal/errs"
)

// Requirement defines an external dependency bookfetch relies on.
type Requirement struct {
	Name        string
	Command     string
	Description string
	Optional    bool
}

// Status reports the availability of a dependency.
type Status struct {
	Name        string
	Command     string
	Description string
	Optional    bool
	Available   bool
	Detail      string
}

// ForPipeline returns the requirements of a pipeline run. ffmpeg and ffprobe
// are only required when conversion, combining, or tagging will happen.
func ForPipeline(needsFFmpeg bool) []Requirement {
	if !needsFFmpeg {
		return nil
	}
	return []Requirement{
		{Name: "FFmpeg", Command: "ffmpeg", Description: "Converts, combines, and tags audio files"},
		{Name: "FFprobe", Command: "ffprobe", Description: "Probes audio duration and bitrate"},
	}
}

// CheckBinaries evaluates the provided requirements and reports availability.
func CheckBinaries(requirements []Requirement) []Status {
	results := make([]Status, 0, len(requirements))
	for _, req := range requirements {
		cmd := strings.TrimSpace(req.Command)
		status := Status{
			Name:        req.Name,
			Command:     cmd,
			Description: strings.TrimSpace(req.Description),
			Optional:    req.Optional,
		}
		if cmd == "" {
			status.Available = false
			status.Detail = "command not configured"
			results = append(results, status)
			continue
		}
		if _, err := exec.LookPath(cmd); err != nil {
			status.Available = false
			status.Detail = fmt.Sprintf("binary %q not found", cmd)
			results = append(results, status)
			continue
		}
		status.Available = true
		results = append(results, status)
	}
	return results
}

// Require fails when any non-optional requirement is unavailable.
func Require(requirements []Requirement) error {
	for _, status := range CheckBinaries(requirements) {
		if !status.Available && !status.Optional {
			return errs.Wrap(errs.ErrMissingDependency, "deps", "check", status.Command, nil)
		}
	}
	return nil
}

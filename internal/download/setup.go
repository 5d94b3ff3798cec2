package download

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"
)

// ErrAborted reports that the user declined to overwrite existing output.
var ErrAborted = fmt.Errorf("download aborted")

// PrepareOutput gates the destructive part of a download. When the output
// directory already exists it prompts for confirmation (or aborts outright
// when stdin is not a terminal) and deletes the directory on yes. force
// skips the prompt and deletes. Only the bare directory path is checked;
// a single-file book overwrites its "{outputDir}.{ext}" file in place.
func PrepareOutput(outputDir string, force bool) error {
	if _, err := os.Stat(outputDir); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if force {
		return os.RemoveAll(outputDir)
	}
	if !isatty.IsTerminal(os.Stdin.Fd()) {
		return fmt.Errorf("%w: output %q already exists (use --force)", ErrAborted, outputDir)
	}
	if !confirm(os.Stdin, os.Stderr, fmt.Sprintf("The folder %q already exists. Overwrite it?", outputDir)) {
		return ErrAborted
	}
	return os.RemoveAll(outputDir)
}

func confirm(in io.Reader, out io.Writer, question string) bool {
	fmt.Fprintf(out, "%s [y/N] ", question)
	reader := bufio.NewReader(in)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

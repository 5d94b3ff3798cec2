package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"bookfetch/internal/errs"
)

//go:embed sample_config.toml
var sampleConfig string

// Output contains configuration for where and how finished books land.
type Output struct {
	Dir string `toml:"dir"`
	// Template is the output path template; {author}, {title}, and friends
	// are substituted from the book's metadata.
	Template string `toml:"template"`
	// Format forces an output container ("mp3", "m4b"). Empty follows the
	// source format.
	Format string `toml:"format"`
	// Combine merges multi-part books into a single file.
	Combine bool `toml:"combine"`
	// Encoder picks the audio encoder for MP4-family targets.
	Encoder string `toml:"encoder"`
	// RemoveChars lists characters stripped from substituted path values.
	RemoveChars string `toml:"remove_chars"`
	// LedgerDir, when set, enables the downloaded-books ledger.
	LedgerDir string `toml:"ledger_dir"`
}

// Network contains configuration for the HTTP session.
type Network struct {
	TimeoutSeconds int    `toml:"timeout_seconds"`
	UserAgent      string `toml:"user_agent"`
}

// Download contains configuration for the download worker pool.
type Download struct {
	Workers int `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// SourceAuth holds per-source credentials. The section name selects the
// source ([sources.librivox]).
type SourceAuth struct {
	Username   string `toml:"username"`
	Password   string `toml:"password"`
	Library    string `toml:"library"`
	CookieFile string `toml:"cookie_file"`
}

// Config encapsulates all configuration values for bookfetch.
type Config struct {
	Output   Output                `toml:"output"`
	Network  Network               `toml:"network"`
	Download Download              `toml:"download"`
	Logging  Logging               `toml:"logging"`
	Sources  map[string]SourceAuth `toml:"sources"`
}

// DefaultConfigPath returns the absolute path to the default configuration
// file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/bookfetch/config.toml")
}

// Load locates, parses, and validates a configuration file. A path the user
// named explicitly must exist; the default locations may be absent, in which
// case defaults apply. The returned config has all path fields expanded.
func Load(path string) (*Config, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, err
	}
	if path != "" && !exists {
		return nil, errs.Wrap(errs.ErrConfigNotFound, "config", "load", resolvedPath, nil)
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}
	projectPath, err := filepath.Abs("bookfetch.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}
	return defaultPath, false, nil
}

// Auth returns the credentials configured for a source name, matching any of
// the source's display names case-insensitively.
func (c *Config) Auth(names []string) (SourceAuth, bool) {
	for _, name := range names {
		for key, auth := range c.Sources {
			if strings.EqualFold(key, name) {
				return auth, true
			}
		}
	}
	return SourceAuth{}, false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

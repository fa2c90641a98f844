package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/getmockd/httpreplay/pkg/fingerprint"
	"github.com/getmockd/httpreplay/pkg/logging"
	"github.com/getmockd/httpreplay/pkg/matcher"
)

// DefaultStoragePath is where records are kept unless configured otherwise,
// relative to the project root.
const DefaultStoragePath = "testdata/http-replay"

// ErrInvalidConfig is returned by Validate.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the settings shared by every engine in a test run.
type Config struct {
	// StoragePath is the root directory for records. Relative paths are
	// resolved against the project root.
	StoragePath string `yaml:"storage_path"`

	// MatchBy is the default matcher sequence, as tokens.
	MatchBy []string `yaml:"match_by"`

	// ExpireAfter discards records older than this many days. Nil never expires.
	ExpireAfter *int `yaml:"expire_after"`

	// Fresh deletes stored records before loading them.
	Fresh bool `yaml:"fresh"`

	// Bail turns every would-be recording into an error.
	Bail bool `yaml:"bail"`

	// Patterns override MatchBy for matching URLs, first match wins.
	Patterns []PatternConfig `yaml:"patterns,omitempty"`

	Log LogConfig `yaml:"log"`
}

// PatternConfig overrides the matchers for URLs matching Pattern.
type PatternConfig struct {
	Pattern string   `yaml:"pattern"`
	MatchBy []string `yaml:"match_by"`
}

// LogConfig configures engine logging.
type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		StoragePath: DefaultStoragePath,
		MatchBy:     []string{"method", "url"},
		Log:         LogConfig{Level: "warn", Format: string(logging.FormatText)},
	}
}

// Validate checks paths, expiry and every matcher token.
func (c Config) Validate() error {
	if c.StoragePath == "" {
		return fmt.Errorf("%w: storage_path is required", ErrInvalidConfig)
	}
	if c.ExpireAfter != nil && *c.ExpireAfter < 0 {
		return fmt.Errorf("%w: expire_after must not be negative, got %d", ErrInvalidConfig, *c.ExpireAfter)
	}
	_, err := c.Policy()
	return err
}

// Policy parses the matcher tokens into a fingerprint policy.
func (c Config) Policy() (fingerprint.Policy, error) {
	var p fingerprint.Policy

	tokens := c.MatchBy
	if len(tokens) == 0 {
		tokens = Default().MatchBy
	}
	specs, err := matcher.ParseAll(tokens)
	if err != nil {
		return p, fmt.Errorf("match_by: %w", err)
	}
	p.Default = specs

	for i, pc := range c.Patterns {
		if pc.Pattern == "" {
			return p, fmt.Errorf("%w: patterns[%d]: pattern is required", ErrInvalidConfig, i)
		}
		specs, err := matcher.ParseAll(pc.MatchBy)
		if err != nil {
			return p, fmt.Errorf("patterns[%d] (%s): %w", i, pc.Pattern, err)
		}
		p.Overrides = append(p.Overrides, fingerprint.Override{Pattern: pc.Pattern, MatchBy: specs})
	}
	return p, nil
}

// StorageRoot resolves StoragePath against projectRoot. Absolute paths are
// returned unchanged.
func (c Config) StorageRoot(projectRoot string) string {
	path := c.StoragePath
	if path == "" {
		path = DefaultStoragePath
	}
	if filepath.IsAbs(path) {
		return filepath.Clean(path)
	}
	return filepath.Join(projectRoot, path)
}

// Logger builds a logger from the log settings, writing to w.
func (c Config) Logger(w io.Writer) *slog.Logger {
	return logging.New(logging.Config{
		Level:  logging.ParseLevel(c.Log.Level),
		Format: logging.ParseFormat(c.Log.Format),
		Output: w,
	})
}

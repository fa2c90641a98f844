package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Common errors for configuration loading.
var (
	ErrFileNotFound     = errors.New("configuration file not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidYAML      = errors.New("invalid YAML syntax")
	ErrEmptyFile        = errors.New("configuration file is empty")
	ErrInvalidEnv       = errors.New("invalid environment value")
)

// Environment variables read by Discover and ApplyEnv.
const (
	EnvConfig      = "HTTPREPLAY_CONFIG"
	EnvFresh       = "REPLAY_FRESH"
	EnvBail        = "REPLAY_BAIL"
	EnvStoragePath = "REPLAY_STORAGE_PATH"
	EnvLogLevel    = "REPLAY_LOG_LEVEL"
)

// DiscoveryOrder lists the file names Discover looks for.
var DiscoveryOrder = []string{"httpreplay.yaml", "httpreplay.yml", ".httpreplay.yaml"}

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-([^}]*))?\}`)

// Parse decodes YAML on top of Default and validates the result.
func Parse(data []byte) (*Config, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil, ErrEmptyFile
	}

	cfg := Default()
	if err := yaml.Unmarshal([]byte(ExpandEnvVars(string(data))), &cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYAML, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load reads and parses the config file at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		switch {
		case errors.Is(err, os.ErrNotExist):
			return nil, fmt.Errorf("%w: %s", ErrFileNotFound, path)
		case errors.Is(err, os.ErrPermission):
			return nil, fmt.Errorf("%w: %s", ErrPermissionDenied, path)
		default:
			return nil, fmt.Errorf("reading config: %w", err)
		}
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Discover returns the config file for a project rooted at dir: the
// HTTPREPLAY_CONFIG variable if set (relative to dir), else the first
// DiscoveryOrder name present in dir.
func Discover(dir string) (string, error) {
	if envPath := os.Getenv(EnvConfig); envPath != "" {
		if !filepath.IsAbs(envPath) {
			envPath = filepath.Join(dir, envPath)
		}
		if _, err := os.Stat(envPath); err != nil {
			return "", fmt.Errorf("%w: %s points to %s", ErrFileNotFound, EnvConfig, envPath)
		}
		return envPath, nil
	}

	for _, name := range DiscoveryOrder {
		path := filepath.Join(dir, name)
		if info, err := os.Stat(path); err == nil && !info.IsDir() {
			return path, nil
		}
	}
	return "", fmt.Errorf("%w in %s", ErrFileNotFound, dir)
}

// LoadProject loads the discovered config for dir, falling back to Default
// when there is none, and applies the process environment.
func LoadProject(dir string) (*Config, error) {
	var cfg *Config

	path, err := Discover(dir)
	switch {
	case err == nil:
		if cfg, err = Load(path); err != nil {
			return nil, err
		}
	case errors.Is(err, ErrFileNotFound) && os.Getenv(EnvConfig) == "":
		d := Default()
		cfg = &d
	default:
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ApplyEnv folds the REPLAY_* variables into c. Boolean flags only ever turn
// a mode on or off explicitly; unset variables leave c unchanged.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	for _, flag := range []struct {
		name string
		dst  *bool
	}{
		{EnvFresh, &c.Fresh},
		{EnvBail, &c.Bail},
	} {
		v, ok := lookup(flag.name)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %s=%q", ErrInvalidEnv, flag.name, v)
		}
		*flag.dst = b
	}

	if v, ok := lookup(EnvStoragePath); ok && v != "" {
		c.StoragePath = v
	}
	if v, ok := lookup(EnvLogLevel); ok && v != "" {
		c.Log.Level = v
	}
	return nil
}

// ExpandEnvVars expands environment variables in the input string.
// Supports ${VAR_NAME} and ${VAR_NAME:-default} syntax.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		submatch := envVarPattern.FindStringSubmatch(match)
		if val := os.Getenv(submatch[1]); val != "" {
			return val
		}
		return submatch[2]
	})
}

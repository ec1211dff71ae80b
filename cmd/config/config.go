package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	yaml "gopkg.in/yaml.v2"

	"github.com/tibbisekreter/cli/cmd/utils"
)

// SupportedConfigFiles are searched in this order in each directory.
var SupportedConfigFiles = []string{
	"tibbi.yaml",
	"tibbi.yml",
	"tibbi.toml",
	"tibbi.json",
}

// Environment overrides. They beat the config file but lose to flags.
const (
	EnvServerURL = "TIBBI_SERVER_URL"
	EnvStatsURL  = "TIBBI_STATS_URL"
)

// ErrNoConfigFile is returned by FindConfigFile when no directory holds a
// config file.
var ErrNoConfigFile = errors.New("no tibbi config file (yaml/toml/json) found")

// Load resolves the effective configuration. An explicit path must exist.
// Otherwise the working directory and then the data directory are searched,
// and a missing file just means defaults. Environment overrides are applied
// and the result validated. The returned path is "" when no file was used.
func Load(explicitPath string) (*Config, string, error) {
	path := explicitPath
	if path == "" {
		dirs := []string{utils.GetEffectiveCWD()}
		if dataDir, err := utils.GetDataDir(); err == nil {
			dirs = append(dirs, dataDir)
		}
		found, err := FindConfigFile(dirs...)
		if err != nil && !errors.Is(err, ErrNoConfigFile) {
			return nil, "", err
		}
		path = found
	}

	cfg := Default()
	if path != "" {
		loaded, err := LoadConfigFile(path)
		if err != nil {
			return nil, "", err
		}
		cfg = loaded
	}

	cfg.ApplyEnv(os.Getenv)
	if err := cfg.Validate(); err != nil {
		return nil, path, fmt.Errorf("invalid config %s: %w", displayPath(path), err)
	}
	return cfg, path, nil
}

func displayPath(path string) string {
	if path == "" {
		return "(defaults)"
	}
	return path
}

// LoadConfigFile parses one file on top of Default, choosing the decoder by
// extension.
func LoadConfigFile(filePath string) (*Config, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", filePath, err)
	}

	cfg := Default()
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config file %s: %w", filePath, err)
		}
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config file %s: %w", filePath, err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config file %s: %w", filePath, err)
		}
	default:
		return nil, fmt.Errorf("unsupported config file extension: %s", ext)
	}
	return cfg, nil
}

// FindConfigFile returns the first supported config file found, trying the
// directories in order.
func FindConfigFile(dirs ...string) (string, error) {
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range SupportedConfigFiles {
			full := filepath.Join(dir, name)
			if _, err := os.Stat(full); err == nil {
				return full, nil
			}
		}
	}
	return "", fmt.Errorf("%w in %s", ErrNoConfigFile, strings.Join(dirs, ", "))
}

// IsConfigFile reports whether filePath has a config file name.
func IsConfigFile(filePath string) bool {
	base := filepath.Base(filePath)
	for _, name := range SupportedConfigFiles {
		if base == name {
			return true
		}
	}
	return false
}

// ApplyEnv overlays environment overrides using getenv.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if v := strings.TrimSpace(getenv(EnvServerURL)); v != "" {
		c.Server.URL = v
	}
	if v := strings.TrimSpace(getenv(EnvStatsURL)); v != "" {
		c.Stats.URL = v
	}
}

// Validate checks the URLs and the reveal interval, normalising the URLs
// in place.
func (c *Config) Validate() error {
	var errs []error

	if u, err := utils.NormalizeBaseURL(c.Server.URL); err != nil {
		errs = append(errs, fmt.Errorf("server.url: %w", err))
	} else {
		c.Server.URL = u
	}
	if u, err := utils.NormalizeBaseURL(c.Stats.URL); err != nil {
		errs = append(errs, fmt.Errorf("stats.url: %w", err))
	} else {
		c.Stats.URL = u
	}
	if c.Chat.RevealIntervalMS <= 0 {
		errs = append(errs, fmt.Errorf("chat.reveal_interval_ms must be positive, got %d", c.Chat.RevealIntervalMS))
	}
	if strings.TrimSpace(c.Chat.ErrorText) == "" {
		c.Chat.ErrorText = DefaultErrorText
	}
	return errors.Join(errs...)
}

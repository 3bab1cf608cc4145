package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"tonearm/pkg/logging"
)

const (
	userConfigDir  = ".config/tonearm"
	configFileName = "config.yaml"

	// EnvPrefix prefixes every environment override.
	EnvPrefix = "TONEARM_"

	// DefaultDotEnv is the .env file read from the working directory.
	DefaultDotEnv = ".env"
)

// osUserHomeDir is swapped in tests.
var osUserHomeDir = os.UserHomeDir

// DefaultPath returns ~/.config/tonearm/config.yaml.
func DefaultPath() (string, error) {
	home, err := osUserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine user config directory: %w", err)
	}
	return filepath.Join(home, userConfigDir, configFileName), nil
}

// Loader describes where configuration comes from.
type Loader struct {
	// Path is the YAML file; empty means DefaultPath.
	Path string
	// DotEnv is the .env file; empty means none.
	DotEnv string
	// Environ replaces the process environment when non-nil.
	Environ map[string]string
}

// Load reads the YAML file at path (or the default one), ./.env and the
// process environment.
func Load(path string) (Config, error) {
	return Loader{Path: path, DotEnv: DefaultDotEnv}.Load()
}

// Load applies every layer over DefaultConfig.
func (l Loader) Load() (Config, error) {
	cfg := DefaultConfig()

	path := l.Path
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return Config{}, err
		}
		path = p
	}
	if err := loadYAML(path, &cfg); err != nil {
		return Config{}, err
	}

	environ, err := l.environment()
	if err != nil {
		return Config{}, err
	}
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix, Environment: environ}); err != nil {
		return Config{}, fmt.Errorf("parsing %s environment: %w", EnvPrefix, err)
	}
	return cfg, nil
}

func loadYAML(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logging.Debug("Config", "No config file at %s, using defaults", path)
			return nil
		}
		return fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("error loading config from %s: %w", path, err)
	}
	logging.Debug("Config", "Loaded configuration from %s", path)
	return nil
}

// environment merges the .env file under the real environment; variables
// already set in the environment win.
func (l Loader) environment() (map[string]string, error) {
	merged := make(map[string]string)

	if l.DotEnv != "" {
		values, err := godotenv.Read(l.DotEnv)
		switch {
		case err == nil:
			for k, v := range values {
				merged[k] = v
			}
			logging.Debug("Config", "Loaded %d variables from %s", len(values), l.DotEnv)
		case errors.Is(err, os.ErrNotExist):
		default:
			return nil, fmt.Errorf("reading %s: %w", l.DotEnv, err)
		}
	}

	if l.Environ != nil {
		for k, v := range l.Environ {
			merged[k] = v
		}
		return merged, nil
	}
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			merged[k] = v
		}
	}
	return merged, nil
}

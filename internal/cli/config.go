package cli

import (
	"os"
	"path/filepath"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/cockroachdb/errors"
)

// ConfigFileName is the project config file searched for by FindConfig.
const ConfigFileName = "lexc.toml"

// Config holds project defaults. Flags given on the command line win over
// values set here.
type Config struct {
	// Format is the output format, "text" or "json".
	Format string `toml:"format"`

	// DB is the store path used by lower and history.
	DB string `toml:"db"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `toml:"log_level"`

	// Parallelism bounds how many documents lower processes at once.
	Parallelism int `toml:"parallelism"`
}

// LoadConfig reads a config file. Unknown keys are rejected.
func LoadConfig(path string) (*Config, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		slices.Sort(keys)
		return nil, errors.Newf("parsing %s: unknown keys %v", path, keys)
	}
	if cfg.Parallelism < 0 {
		return nil, errors.Newf("parsing %s: parallelism must not be negative", path)
	}
	return &cfg, nil
}

// FindConfig searches for lexc.toml starting from dir and walking up to
// parent directories, stopping at a .git boundary. It returns ("", nil,
// nil) when no file is found.
func FindConfig(dir string) (string, *Config, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", nil, err
	}
	for {
		path := filepath.Join(dir, ConfigFileName)
		if _, err := os.Stat(path); err == nil {
			cfg, err := LoadConfig(path)
			if err != nil {
				return "", nil, err
			}
			return path, cfg, nil
		}

		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return "", nil, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil, nil
		}
		dir = parent
	}
}

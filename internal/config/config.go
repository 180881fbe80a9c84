// Package config loads saverpwd settings. Sources are layered, later ones
// overriding earlier: built-in defaults, an optional config file (JSON, YAML
// or TOML by extension), SAVERPWD_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/dmitrijs2005/saverpwd/internal/cryptox"
	"github.com/dmitrijs2005/saverpwd/internal/logging"
)

const EnvPrefix = "SAVERPWD"

// Config holds runtime settings for the vault.
//
// The production and test stores live side by side in DataDir; TestDB selects the latter.
type Config struct {
	DataDir    string `mapstructure:"data_dir"`
	DBFile     string `mapstructure:"db_file"`
	TestDBFile string `mapstructure:"test_db_file"`
	TestDB     bool   `mapstructure:"test_db"`
	KDF        string `mapstructure:"kdf"`
	Log        Log    `mapstructure:"log"`
}

type Log struct {
	Level     string `mapstructure:"level"`
	Dir       string `mapstructure:"dir"`
	MaxSizeMB int    `mapstructure:"max_size_mb"`
	MaxFiles  int    `mapstructure:"max_files"`
}

func defaults() map[string]any {
	return map[string]any{
		"data_dir":        "./databases",
		"db_file":         "saverpwd.sqlite",
		"test_db_file":    "saverpwd_test.sqlite",
		"test_db":         false,
		"kdf":             cryptox.KDFSHA256,
		"log.level":       "info",
		"log.dir":         "./logs",
		"log.max_size_mb": 10,
		"log.max_files":   5,
	}
}

// flagKeys maps command-line flag names to config keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"test-db":   "test_db",
	"kdf":       "kdf",
	"log-level": "log.level",
	"log-dir":   "log.dir",
}

// RegisterFlags adds the config-backed flags to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "path to a config file (json, yaml or toml)")
	fs.String("data-dir", "", "directory holding the vault databases")
	fs.Bool("test-db", false, "use the isolated test database")
	fs.String("kdf", "", "key derivation function: sha256 or argon2id")
	fs.String("log-level", "", "console log level: debug, info, warn, error")
	fs.String("log-dir", "", "directory for rotated log files, empty string disables them")
}

// Load builds a Config from every source. fs may be nil; flags that were not
// set on the command line do not override other sources.
func Load(fs *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	for k, val := range defaults() {
		v.SetDefault(k, val)
	}

	if fs != nil {
		if f := fs.Lookup("config"); f != nil && f.Value.String() != "" {
			v.SetConfigFile(f.Value.String())
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			f := fs.Lookup(name)
			if f == nil || !f.Changed {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, fmt.Errorf("bind flag %s: %w", name, err)
			}
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.DBFile == "" || c.TestDBFile == "" {
		errs = append(errs, errors.New("db_file and test_db_file must not be empty"))
	}
	if c.DBFile == c.TestDBFile {
		errs = append(errs, fmt.Errorf("db_file and test_db_file must differ, both are %q", c.DBFile))
	}
	if _, err := cryptox.NewKDF(c.KDF); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// DatabasePath returns the store file selected by TestDB.
func (c *Config) DatabasePath() string {
	if c.TestDB {
		return filepath.Join(c.DataDir, c.TestDBFile)
	}
	return filepath.Join(c.DataDir, c.DBFile)
}

// LogOptions converts the log section into logging.Options.
func (c *Config) LogOptions() logging.Options {
	return logging.Options{
		Level:     c.Log.Level,
		Dir:       c.Log.Dir,
		MaxSizeMB: c.Log.MaxSizeMB,
		MaxFiles:  c.Log.MaxFiles,
	}
}

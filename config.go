package lapindex

import (
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"justapengu.in/lapindex/pkg/laptime"
)

const (
	DefaultSessionsDir = "sessions"
	DefaultOutputFile  = "sessions-list.json"
	DefaultPattern     = "*.json"
	DefaultIndent      = "    "
	DefaultHTTPAddress = ":8080"
)

type Config struct {
	SessionsDir string `yaml:"sessions_dir"`
	// OutputFile is resolved against SessionsDir when it is a bare file name.
	OutputFile string `yaml:"output_file"`
	// Pattern is matched relative to SessionsDir, "**" matches any number of directories.
	Pattern  string `yaml:"pattern"`
	Workers  int    `yaml:"workers"`
	LogLevel string `yaml:"log_level"`
	Indent   string `yaml:"indent"`

	HTTP        HTTPConfig        `yaml:"http"`
	Consistency ConsistencyConfig `yaml:"consistency"`
}

type HTTPConfig struct {
	Address   string `yaml:"address"`
	StaticDir string `yaml:"static_dir"`
}

type ConsistencyConfig struct {
	Enabled       bool    `yaml:"enabled"`
	MaxLapSeconds float64 `yaml:"max_lap_seconds"`
	MedianWindow  float64 `yaml:"median_window"`
}

func DefaultConfig() *Config {
	config := &Config{}
	config.ApplyDefaults()

	return config
}

// LoadConfig reads a YAML config file. A missing file is not an error, the defaults are
// used instead.
func LoadConfig(path string) (*Config, error) {
	config := &Config{}

	f, err := os.Open(path)

	if err != nil && os.IsNotExist(err) {
		return DefaultConfig(), nil
	} else if err != nil {
		return nil, errors.Wrapf(err, "could not open config %s", path)
	}

	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(config); err != nil && err != io.EOF {
		return nil, errors.Wrapf(err, "could not parse config %s", path)
	}

	config.ApplyDefaults()

	return config, nil
}

func (c *Config) ApplyDefaults() {
	if c.SessionsDir == "" {
		c.SessionsDir = DefaultSessionsDir
	}

	if c.OutputFile == "" {
		c.OutputFile = DefaultOutputFile
	}

	if c.Pattern == "" {
		c.Pattern = DefaultPattern
	}

	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}

	if c.LogLevel == "" {
		c.LogLevel = logrus.InfoLevel.String()
	}

	if c.Indent == "" {
		c.Indent = DefaultIndent
	}

	if c.HTTP.Address == "" {
		c.HTTP.Address = DefaultHTTPAddress
	}

	if c.Consistency.MaxLapSeconds == 0 {
		c.Consistency.MaxLapSeconds = laptime.DefaultConsistencyOptions.MaxLapSeconds
	}

	if c.Consistency.MedianWindow == 0 {
		c.Consistency.MedianWindow = laptime.DefaultConsistencyOptions.MedianWindow
	}
}

func (c *Config) Validate() error {
	if c.Workers < 0 {
		return errors.Wrapf(ErrInvalidConfig, "workers must not be negative, got %d", c.Workers)
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "log_level %q", c.LogLevel)
	}

	if strings.TrimSpace(c.Indent) != "" {
		return errors.Wrapf(ErrInvalidConfig, "indent must only contain whitespace, got %q", c.Indent)
	}

	if _, err := filepath.Match(c.Pattern, ""); err != nil {
		return errors.Wrapf(ErrInvalidConfig, "pattern %q", c.Pattern)
	}

	if c.Consistency.MaxLapSeconds < 0 || c.Consistency.MedianWindow < 0 {
		return errors.Wrap(ErrInvalidConfig, "consistency limits must not be negative")
	}

	return nil
}

// OutputPath is where the sessions index is written.
func (c *Config) OutputPath() string {
	if filepath.Base(c.OutputFile) == c.OutputFile {
		return filepath.Join(c.SessionsDir, c.OutputFile)
	}

	return c.OutputFile
}

func (c *Config) Summarizer() Summarizer {
	if !c.Consistency.Enabled {
		return Summarizer{}
	}

	return Summarizer{
		Consistency: &laptime.ConsistencyOptions{
			MaxLapSeconds: c.Consistency.MaxLapSeconds,
			MedianWindow:  c.Consistency.MedianWindow,
		},
	}
}

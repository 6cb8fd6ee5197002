package runner

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

// Config holds the optional YAML runner configuration.
// All fields are optional; zero values represent defaults.
type Config struct {
	RawTimeout   string      `yaml:"timeout"`    // e.g. "5m", "30s"
	RawMaxOutput int         `yaml:"max_output"` // bytes
	Retry        RetryConfig `yaml:"retry"`
}

// RetryConfig is the YAML form of RetryPolicy.
type RetryConfig struct {
	MaxAttempts        int     `yaml:"max_attempts"`
	RawInitialInterval string  `yaml:"initial_interval"` // e.g. "2s"
	RawMaxInterval     string  `yaml:"max_interval"`     // e.g. "1m"
	Multiplier         float64 `yaml:"multiplier"`
}

// Timeout returns the configured default timeout, or zero for none.
func (c *Config) Timeout() time.Duration {
	if c.RawTimeout != "" {
		d, err := time.ParseDuration(c.RawTimeout)
		if err == nil && d > 0 {
			return d
		}
	}
	return 0
}

// MaxOutputBytes returns the configured diagnostic output cap or the
// default.
func (c *Config) MaxOutputBytes() int {
	if c.RawMaxOutput > 0 {
		return c.RawMaxOutput
	}
	return DefaultMaxOutput
}

// RetryPolicy returns the configured retry policy; unset fields keep
// their package defaults.
func (c *Config) RetryPolicy() RetryPolicy {
	p := RetryPolicy{
		MaxAttempts: c.Retry.MaxAttempts,
		Multiplier:  c.Retry.Multiplier,
	}
	if d, err := time.ParseDuration(c.Retry.RawInitialInterval); err == nil && d > 0 {
		p.InitialInterval = d
	}
	if d, err := time.ParseDuration(c.Retry.RawMaxInterval); err == nil && d > 0 {
		p.MaxInterval = d
	}
	return p
}

// LoadConfig reads a YAML config file. A missing file is not an error
// and yields a default Config.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return cfg, nil
}

// Runner builds a Runner from the config, logging through log.
func (c *Config) Runner(log zerolog.Logger) *Runner {
	r := New(log)
	r.MaxOutput = c.MaxOutputBytes()
	r.Timeout = c.Timeout()
	r.Retry = c.RetryPolicy()
	return r
}

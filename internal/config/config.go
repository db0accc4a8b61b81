package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"

	"whichmodel/internal/logging"
	"whichmodel/internal/utils"
)

const envPrefix = "WHICHMODEL"

// Config is read from WHICHMODEL_* environment variables, optionally seeded
// from a .env file at the project root.
type Config struct {
	APIURL           string        `envconfig:"API_URL" default:"http://localhost:8000"`
	HTTPTimeout      time.Duration `envconfig:"HTTP_TIMEOUT" default:"120s"`
	DBPath           string        `envconfig:"DB_PATH"`
	LogLevel         string        `envconfig:"LOG_LEVEL" default:"info"`
	LogEncoding      string        `envconfig:"LOG_ENCODING" default:"console"`
	LogOutput        string        `envconfig:"LOG_OUTPUT"`
	DefaultChunkSize int           `envconfig:"DEFAULT_CHUNK_SIZE" default:"5"`
	KeyringBackend   string        `envconfig:"KEYRING_BACKEND"`
}

// Load reads .env (a missing file is not an error) and decodes the environment.
func Load() (*Config, error) {
	_ = utils.LoadEnv()

	var cfg Config
	if err := envconfig.Process(envPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("process env: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	c.APIURL = strings.TrimRight(strings.TrimSpace(c.APIURL), "/")
	u, err := url.Parse(c.APIURL)
	if err != nil {
		return fmt.Errorf("invalid API_URL %q: %w", c.APIURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid API_URL %q: scheme must be http or https", c.APIURL)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid API_URL %q: host is required", c.APIURL)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("HTTP_TIMEOUT must be positive")
	}
	if c.DefaultChunkSize <= 0 {
		return errors.New("DEFAULT_CHUNK_SIZE must be positive")
	}
	return nil
}

func (c *Config) Logging() logging.Config {
	return logging.Config{
		Level:      c.LogLevel,
		Encoding:   c.LogEncoding,
		OutputPath: c.LogOutput,
	}
}

package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"

	"github.com/kenng/qv-strapi/pkg/strapi"
)

// Token store kinds
const (
	storeFile   = "file"
	storeSQLite = "sqlite"
	storeNone   = "none"
)

// Config holds configuration for the CLI
type Config struct {
	BaseURL    string `json:"url"`
	Token      string `json:"token,omitempty"`
	TokenStore string `json:"tokenStore"`
	TokenPath  string `json:"tokenPath,omitempty"`
	Timeout    string `json:"timeout"`
	QueriesDir string `json:"queriesDir,omitempty"`
	SentryDSN  string `json:"sentryDsn,omitempty"`
	LogLevel   string `json:"logLevel"`
	Verbose    bool   `json:"verbose"`
}

// defaultConfig returns the built-in defaults
func defaultConfig() *Config {
	return &Config{
		BaseURL:    strapi.DefaultBaseURL,
		TokenStore: storeFile,
		Timeout:    strapi.DefaultTimeout.String(),
		LogLevel:   "warn",
	}
}

// loadConfig layers defaults, the JSON config file, the environment and the
// global flags, in that order. It returns the arguments left after the flags.
func loadConfig(args []string, getenv func(string) string, stderr io.Writer) (*Config, []string, error) {
	fs := flag.NewFlagSet("strapi", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.Usage = func() { printUsage(stderr, fs) }

	var (
		configPath = fs.String("config", getenv("STRAPI_CONFIG"), "Path to a JSON config file")
		baseURL    = fs.String("url", "", "API base URL")
		token      = fs.String("token", "", "Bearer token, overrides the stored one")
		tokenStore = fs.String("token-store", "", "Where the token is kept between runs: file, sqlite or none")
		tokenPath  = fs.String("token-path", "", "Path of the token store")
		timeout    = fs.String("timeout", "", "HTTP timeout, e.g. 30s")
		queriesDir = fs.String("queries", "", "Directory of .graphql documents for the graphql command")
		sentryDSN  = fs.String("sentry-dsn", "", "Sentry DSN for error reporting")
		logLevel   = fs.String("log-level", "", "Log level: debug, info, warn or error")
		verbose    = fs.Bool("verbose", false, "Shorthand for -log-level debug")
	)

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}

	cfg := defaultConfig()

	if *configPath != "" {
		if err := cfg.loadFile(*configPath); err != nil {
			return nil, nil, err
		}
	}

	cfg.applyEnv(getenv)

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "url":
			cfg.BaseURL = *baseURL
		case "token":
			cfg.Token = *token
		case "token-store":
			cfg.TokenStore = *tokenStore
		case "token-path":
			cfg.TokenPath = *tokenPath
		case "timeout":
			cfg.Timeout = *timeout
		case "queries":
			cfg.QueriesDir = *queriesDir
		case "sentry-dsn":
			cfg.SentryDSN = *sentryDSN
		case "log-level":
			cfg.LogLevel = *logLevel
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	if err := cfg.validate(); err != nil {
		return nil, nil, err
	}

	return cfg, fs.Args(), nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return errors.Wrap(err, "failed to read config file")
	}
	if err := json.Unmarshal(data, c); err != nil {
		return errors.Wrapf(err, "failed to parse config file %s", path)
	}
	return nil
}

func (c *Config) applyEnv(getenv func(string) string) {
	if v := getenv("STRAPI_URL"); v != "" {
		c.BaseURL = v
	}
	if v := getenv("STRAPI_TOKEN"); v != "" {
		c.Token = v
	}
	if v := getenv("STRAPI_TOKEN_STORE"); v != "" {
		c.TokenStore = v
	}
	if v := getenv("STRAPI_SENTRY_DSN"); v != "" {
		c.SentryDSN = v
	}
}

func (c *Config) validate() error {
	switch c.TokenStore {
	case storeFile, storeSQLite, storeNone:
	default:
		return fmt.Errorf("unknown token store %q", c.TokenStore)
	}

	if _, err := c.timeout(); err != nil {
		return err
	}
	return nil
}

func (c *Config) timeout() (time.Duration, error) {
	if c.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid timeout %q", c.Timeout)
	}
	return d, nil
}

// tokenPath returns the configured token store path or the default one under
// the user config dir
func (c *Config) tokenPath() (string, error) {
	if c.TokenPath != "" {
		return c.TokenPath, nil
	}

	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "failed to locate config dir")
	}

	name := "session.json"
	if c.TokenStore == storeSQLite {
		name = "session.db"
	}
	return filepath.Join(dir, "qv-strapi", name), nil
}

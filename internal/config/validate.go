package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"time"
)

// logLevels are the accepted log.level values.
var logLevels = map[string]struct{}{
	"debug": {},
	"info":  {},
	"warn":  {},
	"error": {},
}

// Validate checks the structural validity of a Config. All problems are
// reported at once via errors.Join.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Version == "" {
		errs = append(errs, errors.New("config: version field is required"))
	} else if cfg.Version != "1" {
		errs = append(errs, fmt.Errorf("config: unsupported version %q (supported: \"1\")", cfg.Version))
	}

	if _, _, err := net.SplitHostPort(cfg.Server.Listen); err != nil {
		errs = append(errs, fmt.Errorf("config: server.listen %q: %w", cfg.Server.Listen, err))
	}

	if u, err := url.Parse(cfg.Ollama.BaseURL); err != nil {
		errs = append(errs, fmt.Errorf("config: ollama.base_url: %w", err))
	} else if u.Scheme != "http" && u.Scheme != "https" {
		errs = append(errs, fmt.Errorf("config: ollama.base_url %q: scheme must be http or https", cfg.Ollama.BaseURL))
	}

	if _, err := time.ParseDuration(cfg.Ollama.Timeout); err != nil {
		errs = append(errs, fmt.Errorf("config: ollama.timeout: %w", err))
	}

	if cfg.Store.Path == "" {
		errs = append(errs, errors.New("config: store.path is required"))
	}

	if cfg.Engine.CharsPerToken <= 0 {
		errs = append(errs, fmt.Errorf("config: engine.chars_per_token must be positive, got %v", cfg.Engine.CharsPerToken))
	}

	if _, err := time.ParseDuration(cfg.Jobs.SummaryMaxAge); err != nil {
		errs = append(errs, fmt.Errorf("config: jobs.summary_max_age: %w", err))
	}

	if _, ok := logLevels[cfg.Log.Level]; !ok {
		errs = append(errs, fmt.Errorf("config: log.level %q: must be one of debug, info, warn, error", cfg.Log.Level))
	}

	return errors.Join(errs...)
}

// OllamaTimeout returns the parsed ollama.timeout. Call Validate first.
func (c *Config) OllamaTimeout() time.Duration {
	d, _ := time.ParseDuration(c.Ollama.Timeout)
	return d
}

// SummaryMaxAge returns the parsed jobs.summary_max_age. Call Validate first.
func (c *Config) SummaryMaxAge() time.Duration {
	d, _ := time.ParseDuration(c.Jobs.SummaryMaxAge)
	return d
}

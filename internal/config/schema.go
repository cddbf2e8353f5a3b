// Package config handles YAML configuration loading, environment variable
// expansion, and structural validation for braid.
package config

// Config is the top-level configuration structure.
type Config struct {
	// Version is the config format version. Currently only "1" is supported.
	Version string `yaml:"version"`

	Server  ServerConfig  `yaml:"server"`
	Ollama  OllamaConfig  `yaml:"ollama"`
	Store   StoreConfig   `yaml:"store"`
	Engine  EngineConfig  `yaml:"engine"`
	Jobs    JobsConfig    `yaml:"jobs"`
	Tracing TracingConfig `yaml:"tracing"`
	Log     LogConfig     `yaml:"log"`
}

// ServerConfig configures the admin HTTP gateway.
type ServerConfig struct {
	// Listen is the bind address, e.g. "127.0.0.1:8321".
	Listen string `yaml:"listen"`

	// AuthToken protects the API endpoints. Empty disables auth;
	// /health and /metrics are always open.
	AuthToken string `yaml:"auth_token,omitempty"`
}

// OllamaConfig points at the inference server used for introspection
// and summarization.
type OllamaConfig struct {
	BaseURL string `yaml:"base_url"`

	// Timeout bounds each HTTP call, as a Go duration string.
	Timeout string `yaml:"timeout"`

	// SummaryModel is the model used for history compaction. Empty
	// falls back to the model the prompt is being built for.
	SummaryModel string `yaml:"summary_model,omitempty"`
}

// StoreConfig configures the SQLite store.
type StoreConfig struct {
	// Path is the database file location. Parent directories are
	// created on open.
	Path string `yaml:"path"`
}

// EngineConfig tunes the context engine.
type EngineConfig struct {
	// CharsPerToken is the token estimation ratio.
	CharsPerToken float64 `yaml:"chars_per_token"`
}

// JobsConfig configures the background scheduler.
type JobsConfig struct {
	// CatalogSync is the cron expression for the model catalog refresh.
	CatalogSync string `yaml:"catalog_sync"`

	// SummaryMaxAge is how long an idle conversation keeps its running
	// summary, as a Go duration string.
	SummaryMaxAge string `yaml:"summary_max_age"`
}

// TracingConfig configures OTLP trace export.
type TracingConfig struct {
	// Endpoint is the OTLP/HTTP collector host:port. Empty disables
	// tracing.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// LogConfig configures structured logging.
type LogConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// defaults fills zero values with sensible defaults.
func (c *Config) defaults() {
	if c.Server.Listen == "" {
		c.Server.Listen = "127.0.0.1:8321"
	}
	if c.Ollama.BaseURL == "" {
		c.Ollama.BaseURL = "http://localhost:11434"
	}
	if c.Ollama.Timeout == "" {
		c.Ollama.Timeout = "10s"
	}
	if c.Store.Path == "" {
		c.Store.Path = "data/braid.db"
	}
	if c.Engine.CharsPerToken == 0 {
		c.Engine.CharsPerToken = 4
	}
	if c.Jobs.CatalogSync == "" {
		c.Jobs.CatalogSync = "0 * * * *"
	}
	if c.Jobs.SummaryMaxAge == "" {
		c.Jobs.SummaryMaxAge = "720h"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

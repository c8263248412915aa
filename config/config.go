package config

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/lexandro/codecontext-mcp/project"
	"github.com/lexandro/codecontext-mcp/ranker"
)

// Transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

// Config is the complete server configuration.
type Config struct {
	App       AppConfig       `yaml:"app"`
	Workspace WorkspaceConfig `yaml:"workspace"`
	Cache     CacheConfig     `yaml:"cache"`
	Index     IndexConfig     `yaml:"index"`
	Selection SelectionConfig `yaml:"selection"`
	Render    RenderConfig    `yaml:"render"`
	Ranker    RankerConfig    `yaml:"ranker"`
}

// Validate validates every section.
func (c *Config) Validate() error {
	for _, section := range []Validator{&c.App, &c.Workspace, &c.Cache, &c.Index, &c.Selection, &c.Render, &c.Ranker} {
		if err := section.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// AppConfig holds process-level settings.
type AppConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	// LogFile is the log destination. Empty means <root>/codecontext-mcp.log;
	// "stderr" logs to standard error.
	LogFile   string     `yaml:"log_file"`
	Transport string     `yaml:"transport"`
	HTTP      HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *AppConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Transport, validation.Required, validation.In(TransportStdio, TransportHTTP)),
	); err != nil {
		return fmt.Errorf("app: %w", err)
	}
	if c.Transport == TransportHTTP {
		return c.HTTP.Validate()
	}
	return nil
}

// HTTPConfig holds HTTP transport settings.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns the listen address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	); err != nil {
		return fmt.Errorf("app.http: %w", err)
	}
	return nil
}

// WorkspaceConfig describes the project directory and how it is loaded.
type WorkspaceConfig struct {
	Root                string   `yaml:"root"`
	MaxFileSizeBytes    int64    `yaml:"max_file_size_bytes"`
	Excludes            []string `yaml:"excludes"`
	SyncIntervalSeconds int      `yaml:"sync_interval_seconds"` // 0 disables reconciliation
	Watch               bool     `yaml:"watch"`
}

// SyncInterval returns the reconciliation period, or 0 when disabled.
func (c *WorkspaceConfig) SyncInterval() time.Duration {
	return time.Duration(c.SyncIntervalSeconds) * time.Second
}

// Validate validates the workspace configuration.
func (c *WorkspaceConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Root, validation.Required),
		validation.Field(&c.MaxFileSizeBytes, validation.Min(int64(1))),
		validation.Field(&c.SyncIntervalSeconds, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("workspace: %w", err)
	}
	return nil
}

// CacheConfig sizes the shared in-memory cache.
type CacheConfig struct {
	MaxEntries    int           `yaml:"max_entries"`
	DefaultTTL    time.Duration `yaml:"default_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
}

// Validate validates the cache configuration.
func (c *CacheConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.MaxEntries, validation.Required, validation.Min(1)),
		validation.Field(&c.DefaultTTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.SweepInterval, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// IndexConfig controls the relevance index cache.
type IndexConfig struct {
	TTL time.Duration `yaml:"ttl"`
}

// Validate validates the index configuration.
func (c *IndexConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
	); err != nil {
		return fmt.Errorf("index: %w", err)
	}
	return nil
}

// SelectionConfig tunes the selection pipeline.
type SelectionConfig struct {
	TTL              time.Duration `yaml:"ttl"`
	CandidateCeiling int           `yaml:"candidate_ceiling"`
	RecentTurnWindow int           `yaml:"recent_turn_window"`
	MaxIncluded      int           `yaml:"max_included"`
	HashMode         string        `yaml:"hash_mode"`
}

// Validate validates the selection configuration.
func (c *SelectionConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.TTL, validation.Required, validation.Min(time.Second)),
		validation.Field(&c.CandidateCeiling, validation.Required, validation.Min(1)),
		validation.Field(&c.RecentTurnWindow, validation.Min(0)),
		validation.Field(&c.MaxIncluded, validation.Required, validation.Min(1)),
		validation.Field(&c.HashMode, validation.Required,
			validation.In(string(project.HashBySize), string(project.HashByContent))),
	); err != nil {
		return fmt.Errorf("selection: %w", err)
	}
	return nil
}

// RenderConfig sets the default serializer budget.
type RenderConfig struct {
	Budget         int `yaml:"budget"`
	PerFileCeiling int `yaml:"per_file_ceiling"`
}

// Validate validates the render configuration.
func (c *RenderConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Budget, validation.Required, validation.Min(1)),
		validation.Field(&c.PerFileCeiling, validation.Required, validation.Min(1)),
	); err != nil {
		return fmt.Errorf("render: %w", err)
	}
	return nil
}

// RankerConfig selects the model used for ranking.
type RankerConfig struct {
	Provider        string        `yaml:"provider"`
	Model           string        `yaml:"model"`
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Timeout         time.Duration `yaml:"timeout"`
	MaxOutputTokens int           `yaml:"max_output_tokens"`
}

// Validate validates the ranker configuration. The API key is checked when the
// ranker is created, so tools that never rank can run without one.
func (c *RankerConfig) Validate() error {
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(ranker.ProviderAnthropic, ranker.ProviderOpenAI, ranker.ProviderOpenAICompatible)),
		validation.Field(&c.Model, validation.Required),
		validation.Field(&c.BaseURL, validation.When(c.Provider == ranker.ProviderOpenAICompatible, validation.Required)),
		validation.Field(&c.Timeout, validation.Min(time.Duration(0))),
		validation.Field(&c.MaxOutputTokens, validation.Min(0)),
	); err != nil {
		return fmt.Errorf("ranker: %w", err)
	}
	return nil
}

// Options converts the section to ranker options.
func (c *RankerConfig) Options() ranker.Options {
	return ranker.Options{
		Provider:        c.Provider,
		Model:           c.Model,
		APIKey:          c.APIKeyOrEnv(),
		BaseURL:         c.BaseURL,
		Timeout:         c.Timeout,
		MaxOutputTokens: c.MaxOutputTokens,
	}
}

// APIKeyOrEnv returns APIKey, or the provider's conventional environment variable when empty.
func (c *RankerConfig) APIKeyOrEnv() string {
	if c.APIKey != "" {
		return c.APIKey
	}
	if c.Provider == ranker.ProviderAnthropic {
		return os.Getenv("ANTHROPIC_API_KEY")
	}
	return os.Getenv("OPENAI_API_KEY")
}

// NewDefaultConfig returns a Config with the default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			LogLevel:  slog.LevelInfo,
			Transport: TransportStdio,
			HTTP: HTTPConfig{
				Port: 8765,
			},
		},
		Workspace: WorkspaceConfig{
			Root:                ".",
			MaxFileSizeBytes:    1024 * 1024,
			SyncIntervalSeconds: 300,
			Watch:               true,
		},
		Cache: CacheConfig{
			MaxEntries:    100,
			DefaultTTL:    5 * time.Minute,
			SweepInterval: time.Minute,
		},
		Index: IndexConfig{
			TTL: 10 * time.Minute,
		},
		Selection: SelectionConfig{
			TTL:              3 * time.Minute,
			CandidateCeiling: 20,
			RecentTurnWindow: 3,
			MaxIncluded:      5,
			HashMode:         string(project.HashBySize),
		},
		Render: RenderConfig{
			Budget:         8000,
			PerFileCeiling: 2000,
		},
		Ranker: RankerConfig{
			Provider:        ranker.ProviderAnthropic,
			Model:           "claude-3-5-haiku-latest",
			Timeout:         60 * time.Second,
			MaxOutputTokens: 1024,
		},
	}
}

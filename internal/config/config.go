package config

import (
	"embed"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

//go:embed default_config.yaml
var defaultConfigFS embed.FS

// Feed is one RSS/Atom source ingested into the article index.
type Feed struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	URL     string `yaml:"url"`
	Enabled bool   `yaml:"enabled"`
}

// Outlet is a trusted publication: its name feeds the trusted-origin scoring
// bonus, its domain scopes the web-search fallback.
type Outlet struct {
	Name   string `yaml:"name"`
	Domain string `yaml:"domain"`
}

// AIConfig selects and configures the completion backend.
type AIConfig struct {
	Provider string `yaml:"provider"` // "claude" or "openai"
	APIKey   string `yaml:"api_key"`
	Model    string `yaml:"model"`
}

// ResearchConfig holds the aggregation pipeline tunables.
type ResearchConfig struct {
	ProviderTimeout     string  `yaml:"provider_timeout"`
	CompletionTimeout   string  `yaml:"completion_timeout"`
	GovernmentThreshold float64 `yaml:"government_threshold"`
	GeneralThreshold    float64 `yaml:"general_threshold"`
	FallbackFloor       int     `yaml:"fallback_floor"`
	MaxSources          int     `yaml:"max_sources"`
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Addr         string `yaml:"addr"`
	JobRetention string `yaml:"job_retention"`
}

type Config struct {
	Server          ServerConfig   `yaml:"server"`
	Research        ResearchConfig `yaml:"research"`
	RefreshInterval string         `yaml:"refresh_interval"`
	Retention       string         `yaml:"retention"`
	Feeds           []Feed         `yaml:"feeds"`
	TrustedOutlets  []Outlet       `yaml:"trusted_outlets"`
	AI              *AIConfig      `yaml:"ai,omitempty"`
	CongressAPIKey  string         `yaml:"congress_api_key"`
}

// AIEnabled reports whether a completion backend is configured with a key.
func (c *Config) AIEnabled() bool {
	return c.AI != nil && c.AIKey() != ""
}

// AIKey returns the completion API key (config value or CIVICD_AI_KEY).
func (c *Config) AIKey() string {
	if c.AI != nil && c.AI.APIKey != "" {
		return c.AI.APIKey
	}
	return os.Getenv("CIVICD_AI_KEY")
}

// CongressKey returns the Congress.gov API key (config or CONGRESS_API_KEY).
func (c *Config) CongressKey() string {
	if c.CongressAPIKey != "" {
		return c.CongressAPIKey
	}
	return os.Getenv("CONGRESS_API_KEY")
}

func (c *Config) RefreshDuration() time.Duration {
	return parseDurationDefault(c.RefreshInterval, time.Hour)
}

func (c *Config) RetentionDuration() time.Duration {
	return parseDayDuration(c.Retention, 365*24*time.Hour)
}

func (c *Config) JobRetentionDuration() time.Duration {
	return parseDurationDefault(c.Server.JobRetention, 15*time.Minute)
}

func (c *Config) ProviderTimeout() time.Duration {
	return parseDurationDefault(c.Research.ProviderTimeout, 10*time.Second)
}

func (c *Config) CompletionTimeout() time.Duration {
	return parseDurationDefault(c.Research.CompletionTimeout, 2*time.Minute)
}

func (c *Config) EnabledFeeds() []Feed {
	var out []Feed
	for _, f := range c.Feeds {
		if f.Enabled {
			out = append(out, f)
		}
	}
	return out
}

// OutletNames returns the trusted outlet names for the scoring allow-list.
func (c *Config) OutletNames() []string {
	names := make([]string, 0, len(c.TrustedOutlets))
	for _, o := range c.TrustedOutlets {
		names = append(names, o.Name)
	}
	return names
}

func parseDurationDefault(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return def
	}
	return d
}

// parseDayDuration supports the "Nd" day syntax on top of time.ParseDuration.
func parseDayDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if len(s) > 1 && s[len(s)-1] == 'd' {
		var days int
		if _, err := fmt.Sscanf(s, "%dd", &days); err == nil {
			return time.Duration(days) * 24 * time.Hour
		}
	}
	return parseDurationDefault(s, def)
}

func DefaultConfigPath() string {
	return filepath.Join(xdg.ConfigHome, "civicd", "config.yaml")
}

func IndexPath() string {
	return filepath.Join(xdg.DataHome, "civicd", "articles.db")
}

func loadDefaults() (*Config, error) {
	data, err := defaultConfigFS.ReadFile("default_config.yaml")
	if err != nil {
		return nil, fmt.Errorf("reading embedded config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded config: %w", err)
	}
	return &cfg, nil
}

func Load(path string) (*Config, error) {
	defaults, err := loadDefaults()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path = DefaultConfigPath()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			// Write defaults to the config path on first run
			if err := writeDefaults(path); err != nil {
				// Non-fatal: just use embedded defaults
				return defaults, nil
			}
			return defaults, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func writeDefaults(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, _ := defaultConfigFS.ReadFile("default_config.yaml")
	return os.WriteFile(path, data, 0o644)
}

func validate(cfg *Config) error {
	validTypes := map[string]bool{"rss": true, "atom": true}
	for i, f := range cfg.Feeds {
		if f.Name == "" {
			return fmt.Errorf("feed %d: name is required", i)
		}
		if f.URL == "" {
			return fmt.Errorf("feed %q: url is required", f.Name)
		}
		u, err := url.Parse(f.URL)
		if err != nil {
			return fmt.Errorf("feed %q: invalid url: %w", f.Name, err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("feed %q: url scheme must be http or https, got %q", f.Name, u.Scheme)
		}
		if !validTypes[f.Type] {
			return fmt.Errorf("feed %q: unknown type %q (valid: rss, atom)", f.Name, f.Type)
		}
	}
	for _, o := range cfg.TrustedOutlets {
		if o.Name == "" || o.Domain == "" {
			return fmt.Errorf("trusted outlet needs both name and domain, got %+v", o)
		}
	}
	if cfg.Research.FallbackFloor < 0 {
		return fmt.Errorf("research.fallback_floor must be >= 0")
	}
	if cfg.Research.MaxSources <= 0 {
		return fmt.Errorf("research.max_sources must be > 0")
	}
	return nil
}

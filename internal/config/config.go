package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"

	"github.com/wildscribe/site-search/internal/indexing"
)

const (
	// DefaultFile is the config file looked up in the working directory
	DefaultFile = "wildscribe.yml"

	// EnvPrefix prefixes every environment override
	EnvPrefix = "WILDSCRIBE_"
)

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		SiteURL:        "http://localhost:8080",
		PagePath:       "/index.html",
		SessionPath:    defaultSessionPath(),
		HTTPTimeout:    "10s",
		MaxResults:     indexing.DefaultMaxResults,
		AttributeBoost: indexing.AttributeBoost,
		Serve: ServeConfig{
			Addr:   "localhost:8080",
			Prefix: "/",
			Dir:    "site",
		},
	}
}

func defaultSessionPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "wildscribe", "session.db")
}

// Load reads configuration from the given YAML file, then overlays a .env
// file and environment variable overrides (WILDSCRIBE_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Variables already set in the environment win over .env
	_ = godotenv.Load()

	// WILDSCRIBE_SITE_URL -> site_url, WILDSCRIBE_SERVE_ADDR -> serve.addr
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	if rest, ok := strings.CutPrefix(key, "serve_"); ok {
		return "serve." + rest
	}
	return key
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Timeout returns the HTTP timeout; zero means none.
func (c *Config) Timeout() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil {
		return 0
	}
	return d
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.SiteURL == "" {
		return fmt.Errorf("site_url is required")
	}
	u, err := url.Parse(c.SiteURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid site_url %q: must include scheme and host", c.SiteURL)
	}

	if !strings.HasPrefix(c.PagePath, "/") {
		return fmt.Errorf("page_path %q must start with /", c.PagePath)
	}

	if c.HTTPTimeout != "" {
		d, err := time.ParseDuration(c.HTTPTimeout)
		if err != nil {
			return fmt.Errorf("invalid http_timeout %q: %w", c.HTTPTimeout, err)
		}
		if d < 0 {
			return fmt.Errorf("http_timeout must be non-negative")
		}
	}

	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must be non-negative")
	}

	if c.AttributeBoost <= 0 {
		return fmt.Errorf("attribute_boost must be positive")
	}

	if !strings.HasPrefix(c.Serve.Prefix, "/") {
		return fmt.Errorf("serve.prefix %q must start with /", c.Serve.Prefix)
	}

	return nil
}

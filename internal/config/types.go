package config

// Config is the site search configuration, corresponding to wildscribe.yml.
type Config struct {
	// SiteURL is the scheme and host the documentation site is served from
	SiteURL string `yaml:"site_url" koanf:"site_url"`

	// PagePath is the page the search is started from
	PagePath string `yaml:"page_path" koanf:"page_path"`

	// SessionPath is the bbolt file holding the session; empty keeps the
	// session in memory
	SessionPath    string      `yaml:"session_path" koanf:"session_path"`
	HTTPTimeout    string      `yaml:"http_timeout" koanf:"http_timeout"`
	MaxResults     int         `yaml:"max_results" koanf:"max_results"`
	AttributeBoost float64     `yaml:"attribute_boost" koanf:"attribute_boost"`
	Serve          ServeConfig `yaml:"serve" koanf:"serve"`
}

// ServeConfig holds the local preview server settings.
type ServeConfig struct {
	Addr string `yaml:"addr" koanf:"addr"`

	// Prefix mounts the site under a sub-path, e.g. /docs/v2
	Prefix   string `yaml:"prefix" koanf:"prefix"`
	Dir      string `yaml:"dir" koanf:"dir"`
	AllowAll bool   `yaml:"allow_all" koanf:"allow_all"`
}

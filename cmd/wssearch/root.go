package main

import (
	"fmt"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/wildscribe/site-search/internal/config"
	"github.com/wildscribe/site-search/internal/session"
)

var (
	cfgFile  string
	siteURL  string
	pagePath string
)

var rootCmd = &cobra.Command{
	Use:   "wssearch",
	Short: "Search and preview wildscribe generated documentation sites",
	Long: `wssearch queries the attribute index of a generated documentation site
the same way the site's search box does: it finds the context path the site
is served under, downloads search-index.json once per session and ranks
attributes by name and description.`,
	SilenceUsage: true,
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", config.DefaultFile, "config file path")
	rootCmd.PersistentFlags().StringVar(&siteURL, "site", "", "site URL (overrides site_url)")
	rootCmd.PersistentFlags().StringVar(&pagePath, "page", "", "page path (overrides page_path)")
}

// loadConfig reads the config file and applies the command line overrides
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if siteURL != "" {
		cfg.SiteURL = siteURL
	}
	if pagePath != "" {
		cfg.PagePath = pagePath
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// openSession opens the configured session file, or a memory session
func openSession(cfg *config.Config) (*session.Session, error) {
	if cfg.SessionPath == "" {
		return session.NewMemory(), nil
	}
	return session.NewBolt(cfg.SessionPath)
}

func httpClient(cfg *config.Config) *http.Client {
	return &http.Client{Timeout: cfg.Timeout()}
}

func warnf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Warning: "+format+"\n", args...)
}

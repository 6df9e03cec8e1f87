package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/wildscribe/site-search/internal/contextpath"
)

var resolveNoCache bool

var resolveCmd = &cobra.Command{
	Use:   "resolve [page-path]",
	Short: "Find the context path the site is served under",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		page := cfg.PagePath
		if len(args) == 1 {
			page = args[0]
		}

		prober, err := contextpath.NewHTTPProber(cfg.SiteURL, httpClient(cfg))
		if err != nil {
			return err
		}

		var cache contextpath.Cache
		if !resolveNoCache {
			sess, err := openSession(cfg)
			if err != nil {
				return fmt.Errorf("opening session: %w", err)
			}
			defer sess.Close()
			cache = sess
		}

		resolved, err := contextpath.NewResolver(prober, cache).Resolve(context.Background(), page)
		if err != nil {
			return err
		}

		fmt.Printf("context path: %s\n", resolved)
		fmt.Printf("index:        %s%s\n", cfg.SiteURL, contextpath.IndexURL(resolved))
		return nil
	},
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveNoCache, "no-cache", false, "ignore and do not update the session's context path")
	rootCmd.AddCommand(resolveCmd)
}

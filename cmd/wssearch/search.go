package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wildscribe/site-search/internal/bootstrap"
	"github.com/wildscribe/site-search/internal/fulltext"
	"github.com/wildscribe/site-search/internal/indexing"
	"github.com/wildscribe/site-search/internal/searchui"
)

var (
	searchJSON  bool
	searchHTML  bool
	searchFresh bool
)

var searchCmd = &cobra.Command{
	Use:   "search <query>",
	Short: "Search the site's attribute index",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		sess, err := openSession(cfg)
		if err != nil {
			return fmt.Errorf("opening session: %w", err)
		}
		defer sess.Close()

		if searchFresh {
			if err := sess.ForgetIndex(); err != nil {
				return fmt.Errorf("resetting session: %w", err)
			}
		}

		boot, err := bootstrap.NewForSite(sess, bootstrap.Options{
			SiteURL: cfg.SiteURL,
			Client:  httpClient(cfg),
			Fields: []fulltext.Field{
				{Name: indexing.FieldAttribute, Boost: cfg.AttributeBoost},
				{Name: indexing.FieldDescription, Boost: 1},
			},
		})
		if err != nil {
			return err
		}
		defer boot.Close()

		if state, err := boot.Start(context.Background(), cfg.PagePath); state != bootstrap.IndexReady {
			return fmt.Errorf("search unavailable: %v", err)
		}

		view := &searchui.HTMLView{}
		widget := searchui.NewWidget(boot, sess, view, nil)
		widget.MaxResults = cfg.MaxResults

		query := strings.Join(args, " ")
		if err := widget.KeyUp(searchui.KeyEvent{Value: query}); err != nil {
			return err
		}

		switch {
		case searchHTML:
			return view.Render(os.Stdout)
		case searchJSON:
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(view.Entries())
		}

		if view.Empty() {
			fmt.Println(searchui.NoResults)
			return nil
		}
		entries := view.Entries()
		if len(entries) == 0 {
			warnf("query must be longer than %d characters", indexing.MinQueryLength)
			return nil
		}
		for _, e := range entries {
			fmt.Printf("%s  (%s)\n  %s\n  %s\n\n", e.Name, e.Source, e.Href, e.Description)
		}
		return nil
	},
}

func init() {
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "print results as JSON")
	searchCmd.Flags().BoolVar(&searchHTML, "html", false, "print the rendered result list")
	searchCmd.Flags().BoolVar(&searchFresh, "fresh", false, "forget the cached index and context path first")
	rootCmd.AddCommand(searchCmd)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/wildscribe/site-search/internal/siteserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a generated site locally, optionally under a sub-path",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		info, err := os.Stat(cfg.Serve.Dir)
		if err != nil {
			return fmt.Errorf("site directory: %w", err)
		}
		if !info.IsDir() {
			return fmt.Errorf("site directory %s is not a directory", cfg.Serve.Dir)
		}

		srv := siteserver.New(siteserver.Config{
			Addr:     cfg.Serve.Addr,
			Prefix:   cfg.Serve.Prefix,
			AllowAll: cfg.Serve.AllowAll,
		}, os.DirFS(cfg.Serve.Dir))

		errCh := make(chan error, 1)
		go func() {
			errCh <- srv.Start()
		}()

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-sigCh:
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			return srv.Shutdown(ctx)
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

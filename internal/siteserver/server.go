// Package siteserver serves a generated documentation site for local
// preview, optionally under a sub-path to emulate non-root deployments.
package siteserver

import (
	"context"
	"io/fs"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Config holds server configuration.
type Config struct {
	Addr     string
	Prefix   string // mount path of the site, "/" for the root
	AllowAll bool   // allow all CORS origins
}

// Server serves a site directory.
type Server struct {
	cfg        Config
	site       fs.FS
	router     chi.Router
	httpServer *http.Server
}

// New creates a server for the site tree.
func New(cfg Config, site fs.FS) *Server {
	cfg.Prefix = normalizePrefix(cfg.Prefix)
	s := &Server{
		cfg:  cfg,
		site: site,
	}
	s.router = s.buildRouter()
	s.httpServer = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      120 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func normalizePrefix(prefix string) string {
	prefix = "/" + strings.Trim(prefix, "/")
	return prefix
}

func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	corsOpts := cors.Options{
		AllowedOrigins: []string{"http://localhost:*", "http://127.0.0.1:*"},
		AllowedMethods: []string{"GET", "HEAD", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}
	if s.cfg.AllowAll {
		corsOpts.AllowedOrigins = []string{"*"}
	}
	r.Use(cors.Handler(corsOpts))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	files := http.FileServer(http.FS(s.site))
	if s.cfg.Prefix == "/" {
		r.Handle("/*", files)
	} else {
		r.Mount(s.cfg.Prefix, http.StripPrefix(s.cfg.Prefix, files))
	}

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Prefix returns the normalized mount path.
func (s *Server) Prefix() string { return s.cfg.Prefix }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	log.Printf("Serving site at http://%s%s", s.cfg.Addr, s.cfg.Prefix)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

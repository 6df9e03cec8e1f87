package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/wildscribe/site-search/internal/config"
	"github.com/wildscribe/site-search/tools"
)

const (
	version     = "0.3.0"
	serverName  = "wildscribe-search-server"
	description = "MCP server for searching wildscribe generated documentation sites"
)

func main() {
	// Handle version flag
	if len(os.Args) > 1 && os.Args[1] == "--version" {
		fmt.Printf("%s version %s\n", serverName, version)
		os.Exit(0)
	}

	// Set up logging to stderr (MCP uses stdout for protocol)
	log.SetOutput(os.Stderr)
	log.Printf("%s v%s starting... (%s)", serverName, version, description)

	cfgPath := config.DefaultFile
	if path := os.Getenv("WILDSCRIBE_CONFIG"); path != "" {
		cfgPath = path
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid config: %v", err)
	}

	tools.Configure(tools.Settings{
		SiteURL:        cfg.SiteURL,
		PagePath:       cfg.PagePath,
		SessionPath:    cfg.SessionPath,
		Timeout:        cfg.Timeout(),
		MaxResults:     cfg.MaxResults,
		AttributeBoost: cfg.AttributeBoost,
	})

	server := createMCPServer()

	if err := registerTools(server); err != nil {
		log.Fatalf("Failed to register tools: %v", err)
	}

	log.Printf("✓ Server ready and waiting for connections")

	defer func() {
		if err := tools.CloseSiteSearch(); err != nil {
			log.Printf("Error closing site search: %v", err)
		}
	}()

	// Run server with stdio transport
	ctx := context.Background()
	if err := server.Run(ctx, &mcp.StdioTransport{}); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// createMCPServer initializes the MCP server
func createMCPServer() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    serverName,
			Version: version,
		},
		nil, // Default options
	)

	log.Printf("Server initialized: %s v%s", serverName, version)
	return server
}

// registerTools registers all MCP tools
func registerTools(server *mcp.Server) error {
	if err := tools.RegisterSiteSearchTools(server); err != nil {
		return fmt.Errorf("failed to register site search tools: %w", err)
	}

	log.Printf("✓ All tools registered: 3 tools (search_site, resolve_context_path, refresh_site_index)")
	return nil
}

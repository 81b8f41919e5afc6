package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/jmcastell/lorekeeper/internal/ingest"
	"github.com/jmcastell/lorekeeper/internal/personality"
	"github.com/jmcastell/lorekeeper/internal/search"
	"github.com/jmcastell/lorekeeper/internal/store"
)

// Server wraps the MCP server with dependencies.
type Server struct {
	server        *mcp.Server
	store         *store.Store
	engine        *search.Engine
	pipeline      *ingest.Pipeline
	personalities *personality.Manager
}

// Config holds server dependencies.
type Config struct {
	Store         *store.Store
	Engine        *search.Engine
	Pipeline      *ingest.Pipeline
	Personalities *personality.Manager
}

// NewServer creates a configured MCP server with tools registered.
func NewServer(cfg *Config) *Server {
	impl := &mcp.Implementation{
		Name:    "lorekeeper-server",
		Version: "v0.1.0",
	}

	server := mcp.NewServer(impl, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "search_rulebook",
		Description: "Search ingested rulebooks for rules, spells, monsters, and items. Semantic search with keyword fallback. Supports filtering by rulebook, system, and content type.",
	}, makeSearchHandler(cfg.Engine))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "add_rulebook",
		Description: "Ingest a rulebook document (PDF or markdown) into the searchable corpus. Extracts sections, chunks them, and generates embeddings.",
	}, makeAddRulebookHandler(cfg.Pipeline))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manage_campaign",
		Description: "Create, read, update, delete, and list campaign records such as characters, NPCs, locations, and session notes.",
	}, makeCampaignHandler(cfg.Store))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "manage_personality",
		Description: "Inspect or remove per-system personality profiles derived from ingested rulebooks.",
	}, makePersonalityHandler(cfg.Personalities))

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Report corpus statistics: chunk counts by rulebook, system, and content type.",
	}, makeStatusHandler(cfg.Store))

	return &Server{
		server:        server,
		store:         cfg.Store,
		engine:        cfg.Engine,
		pipeline:      cfg.Pipeline,
		personalities: cfg.Personalities,
	}
}

// Run starts the server with stdio transport (blocks until client disconnects).
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// MCPServer returns the underlying MCP server instance.
// Used by transport handlers that need to wrap the server.
func (s *Server) MCPServer() *mcp.Server {
	return s.server
}

package mcp

import (
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HTTPHandlerOptions configures the streamable-HTTP transport.
type HTTPHandlerOptions struct {
	// Stateless disables session management. The rulebook tools are all
	// request/response, so stateless mode is safe when no server-initiated
	// messages are needed.
	Stateless bool
}

// NewHTTPHandler wraps the server in the SDK's streamable-HTTP transport,
// mountable on a mux path next to the health and landing handlers.
func NewHTTPHandler(server *Server, opts *HTTPHandlerOptions) http.Handler {
	if opts == nil {
		opts = &HTTPHandlerOptions{}
	}

	sdkOpts := &mcp.StreamableHTTPOptions{
		Stateless: opts.Stateless,
	}

	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return server.MCPServer()
	}, sdkOpts)
}

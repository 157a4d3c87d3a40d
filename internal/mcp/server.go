package mcp

import (
	"github.com/mark3labs/mcp-go/server"

	"github.com/ziadkadry99/modguard/internal/moderation"
)

// Version is set via ldflags at build time.
var Version = "dev"

// Server wraps an MCP server that exposes the moderation queue as tools.
type Server struct {
	svc          *moderation.Service
	defaultAdmin string
	mcp          *server.MCPServer
}

// NewServer creates a new MCP server. defaultAdmin is recorded on reviews
// that do not name a moderator.
func NewServer(svc *moderation.Service, defaultAdmin string) *Server {
	if defaultAdmin == "" {
		defaultAdmin = moderation.DefaultAdminID
	}
	s := &Server{
		svc:          svc,
		defaultAdmin: defaultAdmin,
	}

	s.mcp = server.NewMCPServer(
		"modguard",
		Version,
		server.WithToolCapabilities(false),
	)

	s.registerTools()

	return s
}

// registerTools adds all tool definitions and their handlers to the MCP server.
func (s *Server) registerTools() {
	s.mcp.AddTool(flagContentTool, s.handleFlagContent)
	s.mcp.AddTool(reviewItemTool, s.handleReviewItem)
	s.mcp.AddTool(getQueueTool, s.handleGetQueue)
	s.mcp.AddTool(getAuditLogsTool, s.handleGetAuditLogs)
}

// Serve starts the MCP server on stdio. Stdout is used for MCP protocol
// messages; all logging must go to stderr.
func (s *Server) Serve() error {
	return server.ServeStdio(s.mcp)
}

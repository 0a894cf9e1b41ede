// Package mcp serves cached agent definitions to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/pkg/errors"

	"github.com/jingkaihe/agentdefs/pkg/definitions"
	"github.com/jingkaihe/agentdefs/pkg/logger"
	types "github.com/jingkaihe/agentdefs/pkg/types/definitions"
	"github.com/jingkaihe/agentdefs/pkg/version"
)

// ServerName is the name reported to MCP clients
const ServerName = "agentdefs"

// Backend resolves source labels; an empty label means every source
type Backend interface {
	Source(label string) (definitions.Source, error)
}

// Server exposes list, search and fetch over MCP
type Server struct {
	backend   Backend
	mcpServer *server.MCPServer
}

// NewServer creates a server with its tools registered
func NewServer(backend Backend) *Server {
	s := &Server{backend: backend}
	s.mcpServer = server.NewMCPServer(
		ServerName,
		version.Version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions("Browse agent, command, hook, MCP, setting and skill definitions "+
			"cached from the configured sources. Use search_definitions to find candidates and "+
			"get_definition to read one."),
	)
	s.mcpServer.AddTools(s.tools()...)
	return s
}

// MCPServer returns the underlying mcp-go server
func (s *Server) MCPServer() *server.MCPServer { return s.mcpServer }

// ServeStdio serves on stdin and stdout until the input closes
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

func sourceOption() mcp.ToolOption {
	return mcp.WithString("source",
		mcp.Description(`Source label to query. Omit or use "all" for every source.`),
	)
}

func (s *Server) tools() []server.ServerTool {
	return []server.ServerTool{
		{
			Tool: mcp.NewTool("list_definitions",
				mcp.WithDescription("List cached definitions, optionally filtered by kind, category or name glob."),
				sourceOption(),
				mcp.WithString("kind", mcp.Description("Comma separated kinds, e.g. agent,skill")),
				mcp.WithString("category", mcp.Description("Category to match, ignoring case")),
				mcp.WithString("name", mcp.Description("Glob matched against the name, e.g. code-*")),
			),
			Handler: s.handleList,
		},
		{
			Tool: mcp.NewTool("search_definitions",
				mcp.WithDescription("Case-insensitive substring search over cached definitions."),
				mcp.WithString("query", mcp.Required(), mcp.Description("Text to look for")),
				sourceOption(),
				mcp.WithString("kind", mcp.Description("Comma separated kinds to keep")),
			),
			Handler: s.handleSearch,
		},
		{
			Tool: mcp.NewTool("get_definition",
				mcp.WithDescription("Fetch one definition by ID. Returns JSON, or the original file with format=raw."),
				mcp.WithString("id", mcp.Required(), mcp.Description("Definition ID as returned by list or search")),
				sourceOption(),
				mcp.WithString("format", mcp.Description("json (default) or raw"), mcp.Enum("json", "raw")),
			),
			Handler: s.handleGet,
		},
	}
}

func (s *Server) handleList(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, err := s.backend.Source(request.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	compiled, err := definitions.Filter{
		Kinds:       parseKinds(request.GetString("kind", "")),
		Category:    request.GetString("category", ""),
		NamePattern: request.GetString("name", ""),
	}.Compile()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries, err := source.List(ctx)
	if err != nil {
		logger.G(ctx).WithError(err).Error("list_definitions failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to list definitions: %v", err)), nil
	}

	return jsonResult(compiled.Apply(summaries))
}

func (s *Server) handleSearch(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := request.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := s.backend.Source(request.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	compiled, err := definitions.Filter{Kinds: parseKinds(request.GetString("kind", ""))}.Compile()
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	summaries, err := source.Search(ctx, query)
	if err != nil {
		logger.G(ctx).WithError(err).Error("search_definitions failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to search definitions: %v", err)), nil
	}

	return jsonResult(compiled.Apply(summaries))
}

func (s *Server) handleGet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := request.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	source, err := s.backend.Source(request.GetString("source", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	def, err := source.Fetch(ctx, types.ID(id))
	if err != nil {
		if types.IsNotFound(err) {
			return mcp.NewToolResultError(fmt.Sprintf("definition %s not found", id)), nil
		}
		logger.G(ctx).WithError(err).WithField("id", id).Error("get_definition failed")
		return mcp.NewToolResultError(fmt.Sprintf("failed to fetch definition: %v", err)), nil
	}

	switch format := request.GetString("format", "json"); format {
	case "json", "":
		return jsonResult(def)
	case "raw":
		return mcp.NewToolResultText(def.Raw), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unsupported format %q", format)), nil
	}
}

func parseKinds(s string) []types.Kind {
	var kinds []types.Kind
	for _, k := range strings.Split(s, ",") {
		if k = strings.TrimSpace(k); k != "" {
			kinds = append(kinds, types.ParseKind(k))
		}
	}
	return kinds
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode result")
	}
	return mcp.NewToolResultText(string(data)), nil
}

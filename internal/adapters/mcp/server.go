// Package mcpadapter exposes the bibliographic question answering pipeline
// over the Model Context Protocol.
package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/domain"
	"github.com/m0m0i/OpenCitations-based-Research-Trend-Analysis/internal/core/ports"
)

const (
	ServerName    = "graphrag-bibliography"
	ServerVersion = "1.0.0"

	schemaURI       = "graph://schema"
	interactionsURI = "graph://interactions/recent"
)

// Deps holds the collaborators of the MCP server. Interactions is optional.
type Deps struct {
	Chat             ports.ChatResponder
	Schema           ports.SchemaReader
	Interactions     ports.InteractionLister
	InteractionLimit int
}

func NewServer(deps Deps) *server.MCPServer {
	s := server.NewMCPServer(
		ServerName,
		ServerVersion,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("Answers questions about publications, authors, venues and citations stored in a bibliographic graph."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("ask_bibliography",
			mcp.WithDescription("Ask a natural-language question about the bibliographic graph. Topic questions use semantic search; questions about authors, counts and citations are answered from the graph."),
			mcp.WithString("question", mcp.Description("The question to answer"), mcp.Required()),
		),
		askBibliography(deps),
	)

	s.AddResource(
		mcp.NewResource(
			schemaURI,
			"Graph Schema",
			mcp.WithResourceDescription("Node labels, relationship types and their properties as JSON"),
			mcp.WithMIMEType("application/json"),
		),
		graphSchemaResource(deps),
	)

	if deps.Interactions != nil {
		s.AddResource(
			mcp.NewResource(
				interactionsURI,
				"Recent Interactions",
				mcp.WithResourceDescription("Most recent answered questions as JSON"),
				mcp.WithMIMEType("application/json"),
			),
			recentInteractionsResource(deps),
		)
	}

	return s
}

func askBibliography(deps Deps) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		question, err := req.RequireString("question")
		if err != nil || strings.TrimSpace(question) == "" {
			return toolError("question is required"), nil
		}

		reply := deps.Chat.Reply(ctx, domain.ChatMessage{Role: "user", Content: question})
		slog.Debug("mcp_tool_answered", "tool", "ask_bibliography", "reply_id", reply.ID)
		return toolText(reply.Content), nil
	}
}

func graphSchemaResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		schema, err := deps.Schema.Schema(ctx)
		if err != nil {
			return nil, fmt.Errorf("read graph schema: %w", err)
		}
		return jsonContents(req.Params.URI, schema)
	}
}

func recentInteractionsResource(deps Deps) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		items, err := deps.Interactions.ListRecent(ctx, deps.InteractionLimit)
		if err != nil {
			return nil, fmt.Errorf("list interactions: %w", err)
		}
		if items == nil {
			items = []domain.Interaction{}
		}
		return jsonContents(req.Params.URI, items)
	}
}

func jsonContents(uri string, payload any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func toolText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func toolError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

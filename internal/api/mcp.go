package api

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer creates an MCP server exposing the recommender as a tool and
// the catalog statistics as a resource.
func NewMCPServer(rec Recommender, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"coursematch",
		version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithInstructions("coursematch recommends catalog courses similar to the ones a user liked."),
		server.WithRecovery(),
	)

	s.AddTool(
		mcp.NewTool("recommend_courses",
			mcp.WithDescription("Rank catalog courses for a user by text similarity to the courses they liked."),
			mcp.WithString("username", mcp.Description("Exact username"), mcp.Required()),
			mcp.WithNumber("limit", mcp.Description("Maximum number of results (defaults to the configured top N)")),
		),
		mcpRecommend(rec),
	)

	s.AddResource(
		mcp.NewResource(
			"catalog://stats",
			"Catalog Statistics",
			mcp.WithResourceDescription("Kept course count, user count, and vocabulary size of the current catalog"),
			mcp.WithMIMEType("application/json"),
		),
		mcpResourceStats(rec),
	)

	return s
}

func mcpRecommend(rec Recommender) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		username, err := req.RequireString("username")
		if err != nil {
			return mcpError("username is required"), nil
		}

		recs, err := rec.Recommend(ctx, username)
		if err != nil {
			return mcpError(fmt.Sprintf("%s: %s", errorType(err), messageOf(err))), nil
		}
		if limit := req.GetInt("limit", 0); limit > 0 && limit < len(recs) {
			recs = recs[:limit]
		}

		b, err := json.Marshal(recs)
		if err != nil {
			return mcpError(fmt.Sprintf("failed to marshal results: %v", err)), nil
		}
		return mcpText(string(b)), nil
	}
}

func mcpResourceStats(rec Recommender) server.ResourceHandlerFunc {
	return func(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		ranker, err := rec.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("loading catalog: %w", err)
		}
		b, err := json.Marshal(ranker.Stats())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal stats: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      req.Params.URI,
				MIMEType: "application/json",
				Text:     string(b),
			},
		}, nil
	}
}

func mcpText(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: text},
		},
	}
}

func mcpError(msg string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{Type: "text", Text: msg},
		},
		IsError: true,
	}
}

package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/banshee-data/beatremap/internal/report"
)

// StatsTool handles the pattern_db_stats MCP tool.
type StatsTool struct {
	ws *Workspace
}

// NewStatsTool creates a StatsTool over ws.
func NewStatsTool(ws *Workspace) *StatsTool {
	return &StatsTool{ws: ws}
}

// Definition returns the MCP tool definition for pattern_db_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("pattern_db_stats",
		mcp.WithDescription(
			"Summarise the pattern database: size, trait counts, patterns eligible per difficulty and start buckets.",
		),
	)
}

// Handle processes the pattern_db_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t.ws.mu.Lock()
	s, err := report.Summarize(t.ws.patterns)
	t.ws.mu.Unlock()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to summarize: %v", err)), nil
	}

	var sb strings.Builder
	sb.WriteString("## Pattern Database\n\n```\n")
	if err := s.WriteText(&sb); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to format summary: %v", err)), nil
	}
	sb.WriteString("```\n")
	return mcp.NewToolResultText(sb.String()), nil
}

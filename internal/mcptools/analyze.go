package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/banshee-data/beatremap/internal/analysis"
	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/classify"
	"github.com/banshee-data/beatremap/internal/report"
)

// AnalyzeTool handles the beatmap_analyze MCP tool.
type AnalyzeTool struct {
	ws *Workspace
}

// NewAnalyzeTool creates an AnalyzeTool over ws.
func NewAnalyzeTool(ws *Workspace) *AnalyzeTool {
	return &AnalyzeTool{ws: ws}
}

// Definition returns the MCP tool definition for beatmap_analyze.
func (t *AnalyzeTool) Definition() mcp.Tool {
	return mcp.NewTool("beatmap_analyze",
		mcp.WithDescription(
			"Segment a difficulty file into motion patterns, classify each one and "+
				"optionally add them to the pattern database.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the difficulty .dat/.json file"),
		),
		mcp.WithNumber("difficulty",
			mcp.Required(),
			mcp.Description("Difficulty rank of the file: 1, 3, 5, 7 or 9"),
		),
		mcp.WithBoolean("ingest",
			mcp.Description("Add the patterns to the database (default: true)"),
		),
	)
}

// Handle processes the beatmap_analyze tool call.
func (t *AnalyzeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	if path == "" {
		return mcp.NewToolResultError("path is required"), nil
	}
	difficulty, err := difficultyArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ingest := boolArg(req, "ingest", true)

	doc, err := beatmap.ReadDifficultyFile(path, difficulty)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read difficulty: %v", err)), nil
	}

	patterns := analysis.NewSegmenter(t.ws.cfg.SegmenterConfig()).Segment(doc.Notes)
	traits := make(map[string]int, len(report.TraitNames))
	eligible := 0
	for i := range patterns {
		c := classify.ClassifyWithWindow(&patterns[i], t.ws.cfg.GetStackWindow())
		for _, name := range report.TraitsOf(c) {
			traits[name]++
		}
		if classify.Suitable(difficulty, c) {
			eligible++
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Analysis of %s (%s)\n\n", path, difficulty))
	sb.WriteString(fmt.Sprintf("- **Notes**: %d\n", len(doc.Notes)))
	sb.WriteString(fmt.Sprintf("- **Patterns**: %d\n", len(patterns)))
	sb.WriteString(fmt.Sprintf("- **Suitable for %s**: %d\n", difficulty, eligible))
	for _, name := range report.TraitNames {
		if traits[name] > 0 {
			sb.WriteString(fmt.Sprintf("- **%s**: %d\n", name, traits[name]))
		}
	}

	if !ingest {
		return mcp.NewToolResultText(sb.String()), nil
	}

	t.ws.mu.Lock()
	defer t.ws.mu.Unlock()
	added := t.ws.patterns.IngestAll(patterns)
	t.ws.patterns.RecomputeIndices()
	saved, err := t.ws.persist(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("patterns ingested but not persisted: %v", err)), nil
	}
	logf("analyze %s: %d patterns, %d stored", path, len(patterns), added)

	sb.WriteString(fmt.Sprintf("\nStored **%d** patterns; database now holds %d.\n", added, t.ws.patterns.Size()))
	if t.ws.store != nil {
		sb.WriteString(fmt.Sprintf("Persisted %d patterns.\n", saved))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

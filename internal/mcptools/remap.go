package mcptools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/db"
	"github.com/banshee-data/beatremap/internal/remap"
	"github.com/banshee-data/beatremap/internal/security"
)

// RemapTool handles the beatmap_remap MCP tool.
type RemapTool struct {
	ws *Workspace
}

// NewRemapTool creates a RemapTool over ws.
func NewRemapTool(ws *Workspace) *RemapTool {
	return &RemapTool{ws: ws}
}

// Definition returns the MCP tool definition for beatmap_remap.
func (t *RemapTool) Definition() mcp.Tool {
	return mcp.NewTool("beatmap_remap",
		mcp.WithDescription(
			"Regenerate the notes of a difficulty file from the pattern database, keeping "+
				"its timing and every non-note field, and write the result to output.",
		),
		mcp.WithString("path",
			mcp.Required(),
			mcp.Description("Path to the source difficulty file"),
		),
		mcp.WithNumber("difficulty",
			mcp.Required(),
			mcp.Description("Target difficulty rank: 1, 3, 5, 7 or 9"),
		),
		mcp.WithString("output",
			mcp.Required(),
			mcp.Description("Where to write the regenerated file"),
		),
		mcp.WithNumber("seed",
			mcp.Description("Random seed for a reproducible run (default: configured seed or clock)"),
		),
	)
}

// Handle processes the beatmap_remap tool call.
func (t *RemapTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path := req.GetString("path", "")
	output := req.GetString("output", "")
	if path == "" || output == "" {
		return mcp.NewToolResultError("path and output are required"), nil
	}
	difficulty, err := difficultyArg(req)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if err := security.ValidateOutputPath(output, t.ws.outputDirs...); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid output path: %v", err)), nil
	}

	doc, err := beatmap.ReadDifficultyFile(path, difficulty)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read difficulty: %v", err)), nil
	}

	opts := t.ws.cfg.RemapOptions()
	var seed *int64
	if s, ok := intArg(req, "seed"); ok {
		v := int64(s)
		seed = &v
		opts.Source = remap.NewSource(uint64(v))
	} else if s, ok := t.ws.cfg.GetRandomSeed(); ok {
		seed = &s
	}

	t.ws.mu.Lock()
	defer t.ws.mu.Unlock()
	res, err := remap.New(t.ws.patterns, difficulty, opts).Remap(doc.Sequence())
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("remap failed: %v", err)), nil
	}

	originalCount := len(doc.Notes)
	doc.ReplaceNotes(res.Notes)
	if err := doc.WriteFile(output); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to write output: %v", err)), nil
	}
	if t.ws.store != nil {
		run := db.RunFromResult(res, seed, path)
		if err := t.ws.store.RecordRemapRun(ctx, &run); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("output written but run not recorded: %v", err)), nil
		}
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("## Remapped %s → %s\n\n", path, output))
	sb.WriteString(fmt.Sprintf("- **Run**: %s\n", res.RunID))
	sb.WriteString(fmt.Sprintf("- **Difficulty**: %s\n", difficulty))
	sb.WriteString(fmt.Sprintf("- **Skeleton slots**: %d\n", len(res.Skeleton)))
	sb.WriteString(fmt.Sprintf("- **Notes written**: %d (was %d)\n", len(res.Notes), originalCount))
	sb.WriteString(fmt.Sprintf("- **Patterns used**: %d\n", res.PatternsUsed))
	sb.WriteString(fmt.Sprintf("- **Fallbacks**: %d\n", res.Fallbacks))
	if seed != nil {
		sb.WriteString(fmt.Sprintf("- **Seed**: %d\n", *seed))
	}
	return mcp.NewToolResultText(sb.String()), nil
}

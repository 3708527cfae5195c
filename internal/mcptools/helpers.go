package mcptools

import (
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/banshee-data/beatremap/internal/beatmap"
)

// intArg extracts an integer argument. JSON numbers arrive as float64.
func intArg(req mcp.CallToolRequest, key string) (int, bool) {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return 0, false
	}
	return int(v), true
}

// boolArg extracts a boolean argument from a tool request.
func boolArg(req mcp.CallToolRequest, key string, defaultVal bool) bool {
	v, ok := req.GetArguments()[key].(bool)
	if !ok {
		return defaultVal
	}
	return v
}

// difficultyArg reads the required difficulty rank.
func difficultyArg(req mcp.CallToolRequest) (beatmap.Difficulty, error) {
	rank, ok := intArg(req, "difficulty")
	if !ok {
		return 0, fmt.Errorf("difficulty is required (one of 1, 3, 5, 7, 9)")
	}
	return beatmap.ParseDifficulty(rank)
}

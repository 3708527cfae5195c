// Package mcptools exposes pattern analysis, remapping and database
// statistics as MCP tools.
package mcptools

import (
	"context"
	"fmt"
	"sync"

	"github.com/mark3labs/mcp-go/server"

	"github.com/banshee-data/beatremap/internal/config"
	"github.com/banshee-data/beatremap/internal/db"
	"github.com/banshee-data/beatremap/internal/monitoring"
	"github.com/banshee-data/beatremap/internal/patterndb"
	"github.com/banshee-data/beatremap/internal/version"
)

var logf = monitoring.Prefixed("[mcp] ")

// Workspace is the state shared by every tool: one pattern database, an
// optional SQLite store mirroring it, and the tuning config. Tool calls may
// arrive concurrently, so all database access goes through mu.
type Workspace struct {
	mu         sync.Mutex
	patterns   *patterndb.Database
	store      *db.DB
	cfg        *config.TuningConfig
	outputDirs []string
}

// NewWorkspace wraps patterns and switches it to the configured stack
// window. store may be nil, in which case nothing is persisted. outputDirs
// are allowed for remap output in addition to the working and temp
// directories.
func NewWorkspace(patterns *patterndb.Database, store *db.DB, cfg *config.TuningConfig, outputDirs ...string) *Workspace {
	if cfg == nil {
		cfg = config.EmptyTuningConfig()
	}
	patterns.SetStackWindow(cfg.GetStackWindow())
	return &Workspace{patterns: patterns, store: store, cfg: cfg, outputDirs: outputDirs}
}

// persist writes the database to the store if there is one. Callers hold mu.
func (w *Workspace) persist(ctx context.Context) (int, error) {
	if w.store == nil {
		return 0, nil
	}
	n, err := w.store.SavePatterns(ctx, w.patterns)
	if err != nil {
		return 0, fmt.Errorf("save patterns: %w", err)
	}
	return n, nil
}

// NewServer creates the MCP server with every tool registered.
func NewServer(ws *Workspace) *server.MCPServer {
	s := server.NewMCPServer(
		"beatremap",
		version.Version,
		server.WithToolCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions),
	)

	analyze := NewAnalyzeTool(ws)
	s.AddTool(analyze.Definition(), analyze.Handle)

	remapTool := NewRemapTool(ws)
	s.AddTool(remapTool.Definition(), remapTool.Handle)

	stats := NewStatsTool(ws)
	s.AddTool(stats.Definition(), stats.Handle)

	logf("registered 3 tools, %d patterns loaded", ws.patterns.Size())
	return s
}

const serverInstructions = `beatremap learns motion patterns from existing difficulty files and
regenerates notes for a difficulty from those patterns.

Typical flow: call beatmap_analyze on a few well-mapped difficulty files to
grow the pattern database, check pattern_db_stats, then call beatmap_remap
with the target difficulty to write a regenerated copy.`

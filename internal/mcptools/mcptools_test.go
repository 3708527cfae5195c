package mcptools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/config"
	"github.com/banshee-data/beatremap/internal/db"
	"github.com/banshee-data/beatremap/internal/patterndb"
	"github.com/banshee-data/beatremap/internal/testutil"
)

func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

// writeDifficulty writes three alternating runs separated by pauses. The
// first two close on a pause and the last one is trailing.
func writeDifficulty(t *testing.T, dir string) string {
	t.Helper()
	var notes []beatmap.Note
	for _, offset := range []float64{0, 2, 4} {
		for _, n := range testutil.Alternating(4, 0.25) {
			notes = append(notes, n.At(offset+n.Time))
		}
	}
	return testutil.WriteDifficulty(t, filepath.Join(dir, "Expert.dat"), beatmap.Expert, notes)
}

func newWorkspace(t *testing.T, store *db.DB) *Workspace {
	t.Helper()
	testutil.MuteLogs(t)
	return NewWorkspace(patterndb.New(), store, config.DefaultTuningConfig())
}

func TestAnalyzeTool_Definition(t *testing.T) {
	def := NewAnalyzeTool(nil).Definition()
	assert.Equal(t, "beatmap_analyze", def.Name)
	assert.ElementsMatch(t, []string{"path", "difficulty"}, def.InputSchema.Required)
}

func TestAnalyzeTool_Ingest(t *testing.T) {
	ws := newWorkspace(t, nil)
	path := writeDifficulty(t, t.TempDir())

	r, err := NewAnalyzeTool(ws).Handle(context.Background(), makeReq(map[string]interface{}{
		"path":       path,
		"difficulty": float64(7),
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))

	text := resultText(r)
	assert.Contains(t, text, "**Notes**: 12")
	assert.Contains(t, text, "**Patterns**: 2")
	assert.Contains(t, text, "**Suitable for Expert**: 2")
	assert.Contains(t, text, "Stored **2** patterns; database now holds 2.")

	bucket, err := ws.patterns.StartBucket("S-S")
	require.NoError(t, err)
	assert.Len(t, bucket, 1)
}

func TestAnalyzeTool_NoIngest(t *testing.T) {
	ws := newWorkspace(t, nil)
	path := writeDifficulty(t, t.TempDir())

	r, err := NewAnalyzeTool(ws).Handle(context.Background(), makeReq(map[string]interface{}{
		"path":       path,
		"difficulty": float64(7),
		"ingest":     false,
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))
	assert.NotContains(t, resultText(r), "Stored")
	assert.Equal(t, 1, ws.patterns.Size())
}

func TestAnalyzeTool_Errors(t *testing.T) {
	ws := newWorkspace(t, nil)
	path := writeDifficulty(t, t.TempDir())
	tool := NewAnalyzeTool(ws)

	cases := map[string]map[string]interface{}{
		"missing path":       {"difficulty": float64(7)},
		"missing difficulty": {"path": path},
		"bad difficulty":     {"path": path, "difficulty": float64(4)},
		"missing file":       {"path": filepath.Join(t.TempDir(), "nope.dat"), "difficulty": float64(7)},
	}
	for name, args := range cases {
		t.Run(name, func(t *testing.T) {
			r, err := tool.Handle(context.Background(), makeReq(args))
			require.NoError(t, err)
			assert.True(t, r.IsError)
		})
	}
}

func TestRemapTool_WritesReproducibleOutput(t *testing.T) {
	ws := newWorkspace(t, nil)
	dir := t.TempDir()
	path := writeDifficulty(t, dir)
	ws.patterns.Ingest(testutil.DownUp(0))
	ws.patterns.RecomputeIndices()

	run := func(out string) []byte {
		r, err := NewRemapTool(ws).Handle(context.Background(), makeReq(map[string]interface{}{
			"path":       path,
			"difficulty": float64(9),
			"output":     out,
			"seed":       float64(42),
		}))
		require.NoError(t, err)
		require.False(t, r.IsError, resultText(r))
		assert.Contains(t, resultText(r), "**Seed**: 42")
		assert.Contains(t, resultText(r), "**Skeleton slots**: 12")
		data, err := os.ReadFile(out)
		require.NoError(t, err)
		return data
	}

	first := run(filepath.Join(dir, "a.dat"))
	second := run(filepath.Join(dir, "b.dat"))
	assert.Equal(t, first, second)

	doc, err := beatmap.DecodeDifficulty(first, beatmap.ExpertPlus)
	require.NoError(t, err)
	require.NotEmpty(t, doc.Notes)
	src, err := beatmap.ReadDifficultyFile(path, beatmap.ExpertPlus)
	require.NoError(t, err)
	slots := make(map[float64]bool)
	for _, n := range src.Notes {
		slots[n.Time] = true
	}
	for _, n := range doc.Notes {
		assert.True(t, slots[n.Time], "note at %v is off the skeleton", n.Time)
	}
	assert.Contains(t, string(first), `"_version": "2.0.0"`)
}

func TestRemapTool_Errors(t *testing.T) {
	ws := newWorkspace(t, nil)
	dir := t.TempDir()
	path := writeDifficulty(t, dir)
	tool := NewRemapTool(ws)

	r, err := tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": path, "difficulty": float64(9),
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)

	r, err = tool.Handle(context.Background(), makeReq(map[string]interface{}{
		"path": path, "difficulty": float64(9), "output": "/proc/beatremap.dat",
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "invalid output path")

	empty := NewWorkspace(patterndb.NewEmpty(), nil, nil)
	r, err = NewRemapTool(empty).Handle(context.Background(), makeReq(map[string]interface{}{
		"path": path, "difficulty": float64(9), "output": filepath.Join(dir, "out.dat"),
	}))
	require.NoError(t, err)
	assert.True(t, r.IsError)
	assert.Contains(t, resultText(r), "remap failed")
}

func TestTools_PersistToStore(t *testing.T) {
	dir := t.TempDir()
	store, err := db.NewDB(filepath.Join(dir, "patterns.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ws := newWorkspace(t, store)
	path := writeDifficulty(t, dir)
	ctx := context.Background()

	r, err := NewAnalyzeTool(ws).Handle(ctx, makeReq(map[string]interface{}{
		"path": path, "difficulty": float64(7),
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))

	n, err := store.CountPatterns(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	r, err = NewRemapTool(ws).Handle(ctx, makeReq(map[string]interface{}{
		"path": path, "difficulty": float64(7), "output": filepath.Join(dir, "out.dat"), "seed": float64(7),
	}))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))

	runs, err := store.ListRemapRuns(ctx, 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	require.NotNil(t, runs[0].Seed)
	assert.Equal(t, int64(7), *runs[0].Seed)
	assert.Equal(t, beatmap.Expert, runs[0].Difficulty)
	assert.Equal(t, path, runs[0].SourcePath)
}

func TestStatsTool(t *testing.T) {
	ws := newWorkspace(t, nil)
	r, err := NewStatsTool(ws).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	require.False(t, r.IsError, resultText(r))
	text := resultText(r)
	assert.Contains(t, text, "## Pattern Database")
	assert.Contains(t, text, "ExpertPlus")

	ws.patterns.Ingest(testutil.DownUp(0))
	r, err = NewStatsTool(ws).Handle(context.Background(), makeReq(nil))
	require.NoError(t, err)
	assert.True(t, r.IsError, "stale indices should be reported")
}

func TestNewServer(t *testing.T) {
	s := NewServer(newWorkspace(t, nil))
	require.NotNil(t, s)
}

func TestNewWorkspace_AppliesStackWindow(t *testing.T) {
	cfg := config.DefaultTuningConfig()
	w := 0.2
	cfg.StackWindow = &w

	patterns := patterndb.New()
	ws := NewWorkspace(patterns, nil, cfg)
	assert.Equal(t, 0.2, ws.patterns.StackWindow())

	ws = NewWorkspace(patterndb.New(), nil, nil)
	assert.Equal(t, 1.0/64, ws.patterns.StackWindow())
}

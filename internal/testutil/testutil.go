// Package testutil provides shared test fixtures for notes, patterns and
// logging.
//
// It must not import packages that use it from their own internal tests,
// so it stays below the pattern database in the import graph.
package testutil

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/monitoring"
	"github.com/banshee-data/beatremap/internal/pattern"
)

// Note builds a note on the bottom row.
func Note(t float64, col int, h beatmap.Hand, d beatmap.Direction) beatmap.Note {
	return beatmap.Note{Time: t, Column: col, Hand: h, Direction: d}
}

// DownUp is a clean two-hand pattern: both hands cut down together from the
// middle columns, then both cut up half a beat later. It starts "S-S" and
// ends "N-N".
func DownUp(offset float64) pattern.Pattern {
	return pattern.Pattern{Notes: []beatmap.Note{
		Note(offset, 1, beatmap.Left, beatmap.South),
		Note(offset, 2, beatmap.Right, beatmap.South),
		Note(offset+0.5, 1, beatmap.Left, beatmap.North),
		Note(offset+0.5, 2, beatmap.Right, beatmap.North),
	}}
}

// Alternating returns n notes alternating left and right at the given
// spacing, each hand flipping between down and up so parity holds.
func Alternating(n int, spacing float64) []beatmap.Note {
	notes := make([]beatmap.Note, n)
	for i := range notes {
		h, col := beatmap.Left, 1
		if i%2 == 1 {
			h, col = beatmap.Right, 2
		}
		d := beatmap.South
		if (i/2)%2 == 1 {
			d = beatmap.North
		}
		notes[i] = Note(float64(i)*spacing, col, h, d)
	}
	return notes
}

// Times returns the timestamps of notes.
func Times(notes []beatmap.Note) []float64 {
	out := make([]float64, len(notes))
	for i, n := range notes {
		out[i] = n.Time
	}
	return out
}

// WriteDifficulty writes a minimal difficulty document holding notes to
// path and returns path.
func WriteDifficulty(t testing.TB, path string, difficulty beatmap.Difficulty, notes []beatmap.Note) string {
	t.Helper()
	doc, err := beatmap.DecodeDifficulty([]byte(`{"_version":"2.0.0","_notes":[],"_events":[]}`), difficulty)
	AssertNoError(t, err)
	doc.ReplaceNotes(notes)
	AssertNoError(t, doc.WriteFile(path))
	return path
}

// LogRecorder collects lines written through monitoring.Logf.
type LogRecorder struct {
	mu    sync.Mutex
	lines []string
}

// Lines returns a copy of the recorded lines.
func (r *LogRecorder) Lines() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.lines...)
}

// Count returns how many recorded lines contain substr.
func (r *LogRecorder) Count(substr string) int {
	n := 0
	for _, l := range r.Lines() {
		if strings.Contains(l, substr) {
			n++
		}
	}
	return n
}

// CaptureLogs redirects monitoring.Logf into a recorder until the test ends.
func CaptureLogs(t testing.TB) *LogRecorder {
	t.Helper()
	rec := &LogRecorder{}
	original := monitoring.Logf
	monitoring.SetLogger(func(format string, v ...interface{}) {
		rec.mu.Lock()
		defer rec.mu.Unlock()
		rec.lines = append(rec.lines, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.Logf = original })
	return rec
}

// MuteLogs silences monitoring.Logf until the test ends.
func MuteLogs(t testing.TB) {
	t.Helper()
	original := monitoring.Logf
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.Logf = original })
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t testing.TB, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t testing.TB, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected error, got nil")
	}
}

package hands

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/beatremap/internal/beatmap"
)

func red(t float64, col, row int, d beatmap.Direction) beatmap.Note {
	return beatmap.Note{Time: t, Column: col, Row: row, Hand: beatmap.Left, Direction: d}
}

func blue(t float64, col, row int, d beatmap.Direction) beatmap.Note {
	return beatmap.Note{Time: t, Column: col, Row: row, Hand: beatmap.Right, Direction: d}
}

func TestNewTracker_Unpositioned(t *testing.T) {
	tr := NewTracker()
	_, ok := tr.Hand(beatmap.Left)
	assert.False(t, ok)
	_, ok = tr.Hand(beatmap.Right)
	assert.False(t, ok)
	assert.False(t, tr.AreHandsTangled())
	assert.False(t, tr.AreHandsHorizontal())

	l, r := tr.Directions()
	assert.Equal(t, beatmap.North, l)
	assert.Equal(t, beatmap.North, r)
}

func TestApplyNote_BombIgnored(t *testing.T) {
	tr := NewTracker()
	tr.ApplyNote(beatmap.Note{Time: 1, Column: 2, Row: 1, Hand: beatmap.Bomb, Direction: beatmap.Dot})
	assert.Equal(t, NewTracker().Snapshot(), tr.Snapshot())
}

func TestApplyNote_Overwrites(t *testing.T) {
	tr := NewTracker()
	tr.ApplyNote(red(1, 0, 0, beatmap.South))
	tr.ApplyNote(red(2, 1, 2, beatmap.North))

	st, ok := tr.Hand(beatmap.Left)
	require.True(t, ok)
	assert.Equal(t, State{Column: 1, Row: 2, Direction: beatmap.North}, st)
	last, ok := tr.LastHitTime(beatmap.Left)
	require.True(t, ok)
	assert.Equal(t, 2.0, last)
}

func TestAreHandsTangled_SameColumnAlwaysTangled(t *testing.T) {
	for col := 0; col < beatmap.Columns; col++ {
		for _, ld := range beatmap.AllDirections {
			for _, rd := range beatmap.AllDirections {
				tr := NewTracker()
				tr.ApplyNote(red(0, col, 0, ld))
				tr.ApplyNote(blue(0, col, 1, rd))
				assert.True(t, tr.AreHandsTangled(), "col=%d left=%s right=%s", col, ld, rd)
			}
		}
	}
}

func TestAreHandsTangled_Columns(t *testing.T) {
	tr := NewTracker()
	tr.ApplyNote(red(0, 1, 0, beatmap.South))
	assert.False(t, tr.AreHandsTangled(), "one hand only")

	tr.ApplyNote(blue(0, 2, 0, beatmap.South))
	assert.False(t, tr.AreHandsTangled(), "right of left is normal")

	tr.ApplyNote(blue(1, 0, 0, beatmap.North))
	assert.True(t, tr.AreHandsTangled(), "right crossed over left")
}

func TestAreHandsHorizontal(t *testing.T) {
	tests := []struct {
		name string
		l, r beatmap.Direction
		want bool
	}{
		{"both east", beatmap.East, beatmap.NorthEast, true},
		{"both west", beatmap.SouthWest, beatmap.West, true},
		{"opposite", beatmap.West, beatmap.East, false},
		{"vertical left", beatmap.North, beatmap.East, false},
		{"dot right", beatmap.West, beatmap.Dot, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := NewTracker()
			tr.ApplyNote(red(0, 1, 0, tt.l))
			tr.ApplyNote(blue(0, 2, 0, tt.r))
			assert.Equal(t, tt.want, tr.AreHandsHorizontal())
		})
	}
}

func TestCanNoteFollowFluidly(t *testing.T) {
	prior := State{Direction: beatmap.South}
	assert.True(t, CanNoteFollowFluidly(prior, red(0, 0, 0, beatmap.South)))
	assert.True(t, CanNoteFollowFluidly(prior, red(0, 0, 0, beatmap.SouthWest)))
	assert.True(t, CanNoteFollowFluidly(prior, red(0, 0, 0, beatmap.Dot)))
	assert.False(t, CanNoteFollowFluidly(prior, red(0, 0, 0, beatmap.West)))
	assert.False(t, CanNoteFollowFluidly(prior, red(0, 0, 0, beatmap.North)))
	assert.True(t, CanNoteFollowFluidly(State{Direction: beatmap.Dot}, red(0, 0, 0, beatmap.North)))
}

func TestCanNoteBeApplied(t *testing.T) {
	t.Run("both unpositioned", func(t *testing.T) {
		tr := NewTracker()
		assert.True(t, tr.CanNoteBeApplied(red(0, 3, 2, beatmap.East)))
	})

	t.Run("only other hand positioned", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(blue(0, 2, 0, beatmap.South))
		assert.True(t, tr.CanNoteBeApplied(red(1, 1, 0, beatmap.North)))
		assert.False(t, tr.CanNoteBeApplied(red(1, 2, 0, beatmap.South)), "same column tangles")
		assert.False(t, tr.CanNoteBeApplied(red(1, 3, 0, beatmap.South)), "crossing tangles")
	})

	t.Run("only other hand positioned horizontal pair", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(blue(0, 3, 0, beatmap.East))
		assert.False(t, tr.CanNoteBeApplied(red(1, 0, 0, beatmap.NorthEast)))
		assert.True(t, tr.CanNoteBeApplied(red(1, 0, 0, beatmap.West)))
	})

	t.Run("only target positioned", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(red(0, 0, 0, beatmap.South))
		assert.True(t, tr.CanNoteBeApplied(red(1, 3, 2, beatmap.SouthEast)))
		assert.False(t, tr.CanNoteBeApplied(red(1, 0, 0, beatmap.North)))
	})

	t.Run("both positioned", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(red(0, 1, 0, beatmap.South))
		tr.ApplyNote(blue(0, 2, 0, beatmap.South))
		assert.True(t, tr.CanNoteBeApplied(red(1, 0, 0, beatmap.SouthWest)))
		assert.False(t, tr.CanNoteBeApplied(red(1, 0, 0, beatmap.North)), "not fluid")
		assert.False(t, tr.CanNoteBeApplied(red(1, 2, 0, beatmap.South)), "tangle after apply")
	})

	t.Run("does not mutate", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(red(0, 1, 0, beatmap.South))
		before := tr.Snapshot()
		tr.CanNoteBeApplied(blue(1, 0, 0, beatmap.North))
		assert.Equal(t, before, tr.Snapshot())
	})

	t.Run("bomb", func(t *testing.T) {
		tr := NewTracker()
		tr.ApplyNote(red(0, 1, 0, beatmap.South))
		tr.ApplyNote(blue(0, 2, 0, beatmap.South))
		assert.True(t, tr.CanNoteBeApplied(beatmap.Note{Time: 1, Column: 1, Hand: beatmap.Bomb, Direction: beatmap.Dot}))
	})
}

func TestCanPatternBeAppliedNext(t *testing.T) {
	base := func() *Tracker {
		tr := NewTracker()
		tr.ApplyNote(red(0, 1, 0, beatmap.South))
		tr.ApplyNote(blue(0, 2, 0, beatmap.South))
		return tr
	}

	t.Run("rejects first note not fluid", func(t *testing.T) {
		tr := base()
		assert.False(t, tr.CanPatternBeAppliedNext([]beatmap.Note{
			red(1, 1, 0, beatmap.North),
			blue(1, 2, 0, beatmap.SouthEast),
		}))
	})

	t.Run("accepts when both first notes chain", func(t *testing.T) {
		tr := base()
		assert.True(t, tr.CanPatternBeAppliedNext([]beatmap.Note{
			red(1, 0, 0, beatmap.SouthWest),
			blue(1, 3, 0, beatmap.SouthEast),
			// Would tangle if checked, but both hands are already chained.
			red(2, 3, 0, beatmap.North),
		}))
	})

	t.Run("later same-hand notes are not rechecked", func(t *testing.T) {
		tr := base()
		assert.True(t, tr.CanPatternBeAppliedNext([]beatmap.Note{
			red(1, 1, 0, beatmap.South),
			red(2, 1, 0, beatmap.North),
		}))
	})

	t.Run("second hand checked against updated copy", func(t *testing.T) {
		tr := base()
		// The left hand moves to column 3; the right hand's first note in
		// column 2 would then be crossed.
		assert.False(t, tr.CanPatternBeAppliedNext([]beatmap.Note{
			red(1, 1, 0, beatmap.South),
			red(1.5, 3, 0, beatmap.SouthEast),
			blue(2, 2, 0, beatmap.South),
		}))
	})

	t.Run("empty pattern and live state untouched", func(t *testing.T) {
		tr := base()
		before := tr.Snapshot()
		assert.True(t, tr.CanPatternBeAppliedNext(nil))
		tr.CanPatternBeAppliedNext([]beatmap.Note{red(1, 3, 2, beatmap.East)})
		assert.Equal(t, before, tr.Snapshot())
	})
}

func TestSnapshotRestoreAndClone(t *testing.T) {
	tr := NewTracker()
	tr.ApplyNote(red(0, 1, 0, beatmap.South))
	snap := tr.Snapshot()

	clone := tr.Clone()
	clone.ApplyNote(red(1, 3, 2, beatmap.South))
	assert.Equal(t, snap, tr.Snapshot(), "clone must not share state")

	tr.ApplyNote(blue(2, 2, 0, beatmap.North))
	tr.Restore(snap)
	_, ok := tr.Hand(beatmap.Right)
	assert.False(t, ok)
}

// Package hands tracks the physical state of both sabers while notes are
// applied, and answers whether a note or pattern can be played next without
// tangling the hands, pairing them horizontally, or breaking swing flow.
package hands

import (
	"github.com/banshee-data/beatremap/internal/beatmap"
)

// DefaultStackWindow is the minimum gap between two hits of the same hand
// for parity to be checked. Closer hits are stacks and are exempt.
const DefaultStackWindow = 1.0 / 64

// State is where a hand last cut and in which direction.
type State struct {
	Column    int
	Row       int
	Direction beatmap.Direction
}

// HandState is the full per-hand record. ParityViolated is sticky: once
// set it is never cleared for the life of the tracker.
type HandState struct {
	Position       State
	Positioned     bool
	LastHitTime    float64
	ParityViolated bool
}

// Snapshot is a value copy of everything a Tracker knows. Copying a
// Snapshot is a deep copy.
type Snapshot struct {
	Left        HandState
	Right       HandState
	StackWindow float64
}

// Tracker is the two-hand state machine. Each hand is either unpositioned
// or positioned at (column, row, direction); only ApplyNote changes it.
// A Tracker is owned by a single analysis or remap run and is not safe for
// concurrent use.
type Tracker struct {
	snap Snapshot
}

// NewTracker returns a tracker with both hands unpositioned.
func NewTracker() *Tracker {
	return NewTrackerWithWindow(DefaultStackWindow)
}

// NewTrackerWithWindow returns a tracker using a custom stack window for
// parity checks. Non-positive windows fall back to DefaultStackWindow.
func NewTrackerWithWindow(stackWindow float64) *Tracker {
	if stackWindow <= 0 {
		stackWindow = DefaultStackWindow
	}
	return &Tracker{snap: Snapshot{StackWindow: stackWindow}}
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() Snapshot {
	return t.snap
}

// Restore replaces the current state with s.
func (t *Tracker) Restore(s Snapshot) {
	t.snap = s
}

// Clone returns an independent tracker with the same state, used for
// speculative lookahead.
func (t *Tracker) Clone() *Tracker {
	return &Tracker{snap: t.snap}
}

func (t *Tracker) hand(h beatmap.Hand) *HandState {
	if h == beatmap.Left {
		return &t.snap.Left
	}
	return &t.snap.Right
}

// Hand returns the position of h and whether it has been positioned.
func (t *Tracker) Hand(h beatmap.Hand) (State, bool) {
	if h == beatmap.Bomb {
		return State{}, false
	}
	hs := t.hand(h)
	return hs.Position, hs.Positioned
}

// LastHitTime returns when h was last applied, if ever.
func (t *Tracker) LastHitTime(h beatmap.Hand) (float64, bool) {
	if h == beatmap.Bomb {
		return 0, false
	}
	hs := t.hand(h)
	return hs.LastHitTime, hs.Positioned
}

// ParityViolated reports the sticky parity flag for h.
func (t *Tracker) ParityViolated(h beatmap.Hand) bool {
	if h == beatmap.Bomb {
		return false
	}
	return t.hand(h).ParityViolated
}

// AnyParityViolated reports whether either hand has violated parity.
func (t *Tracker) AnyParityViolated() bool {
	return t.snap.Left.ParityViolated || t.snap.Right.ParityViolated
}

// Directions returns the last direction of each hand, defaulting to North
// for a hand that has not been positioned yet.
func (t *Tracker) Directions() (left, right beatmap.Direction) {
	left, right = beatmap.North, beatmap.North
	if t.snap.Left.Positioned {
		left = t.snap.Left.Position.Direction
	}
	if t.snap.Right.Positioned {
		right = t.snap.Right.Position.Direction
	}
	return left, right
}

// ApplyNote moves the note's hand to the note, unconditionally. Bombs do not
// touch hand state. Before overwriting, the swing is checked for parity
// against the previous one unless the two hits fall within the stack window.
func (t *Tracker) ApplyNote(note beatmap.Note) {
	if note.Hand == beatmap.Bomb {
		return
	}
	hs := t.hand(note.Hand)
	if hs.Positioned && note.Time-hs.LastHitTime > t.snap.StackWindow &&
		!ParityRespected(note.Hand, hs.Position.Direction, note.Direction) {
		hs.ParityViolated = true
	}
	hs.Position = State{Column: note.Column, Row: note.Row, Direction: note.Direction}
	hs.Positioned = true
	hs.LastHitTime = note.Time
}

// AreHandsTangled reports crossed hands. The right hand strictly right of
// the left is normal; strictly left is crossed; the same column is always
// treated as tangled since two sabers cannot share it comfortably whatever
// their directions.
func (t *Tracker) AreHandsTangled() bool {
	l, r := t.snap.Left, t.snap.Right
	if !l.Positioned || !r.Positioned {
		return false
	}
	if r.Position.Column > l.Position.Column {
		return false
	}
	// Crossed, or sharing a column.
	return true
}

// AreHandsHorizontal reports both hands swinging the same horizontal way.
func (t *Tracker) AreHandsHorizontal() bool {
	l, r := t.snap.Left, t.snap.Right
	if !l.Positioned || !r.Positioned {
		return false
	}
	lh := beatmap.Horizontal(l.Position.Direction)
	rh := beatmap.Horizontal(r.Position.Direction)
	if lh == beatmap.HorizontalNone || rh == beatmap.HorizontalNone {
		return false
	}
	return lh == rh
}

// CanNoteFollowFluidly reports whether note is at most one 45° step away
// from the prior direction of its hand.
func CanNoteFollowFluidly(prior State, note beatmap.Note) bool {
	return beatmap.AngularDistance(prior.Direction, note.Direction) <= 1
}

// CanNoteBeApplied reports whether note could be played next. It does not
// modify the tracker. Bombs are always appliable. The remapper does not
// consult it; it chains patterns by orientation key only. This is a
// lookahead check for callers that want to vet a note first.
func (t *Tracker) CanNoteBeApplied(note beatmap.Note) bool {
	if note.Hand == beatmap.Bomb {
		return true
	}
	target := t.hand(note.Hand)
	other := t.hand(note.Hand.Other())

	if !target.Positioned && !other.Positioned {
		return true
	}
	if target.Positioned && !CanNoteFollowFluidly(target.Position, note) {
		return false
	}
	if !other.Positioned {
		return true
	}

	next := t.Clone()
	next.ApplyNote(note)
	return !next.AreHandsTangled() && !next.AreHandsHorizontal()
}

// CanPatternBeAppliedNext checks whether notes can follow the current state.
// Only the first note of each hand is validated against the tracker; later
// notes of the same hand were validated when the pattern was captured. The
// check runs on a private copy. Like CanNoteBeApplied it is a lookahead
// check that generation does not use.
func (t *Tracker) CanPatternBeAppliedNext(notes []beatmap.Note) bool {
	ahead := t.Clone()
	leftChained, rightChained := false, false

	for _, note := range notes {
		if leftChained && rightChained {
			return true
		}
		switch note.Hand {
		case beatmap.Left:
			if !leftChained {
				if !ahead.CanNoteBeApplied(note) {
					return false
				}
				leftChained = true
			}
		case beatmap.Right:
			if !rightChained {
				if !ahead.CanNoteBeApplied(note) {
					return false
				}
				rightChained = true
			}
		}
		ahead.ApplyNote(note)
	}
	return true
}

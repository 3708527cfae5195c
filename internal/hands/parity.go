package hands

import "github.com/banshee-data/beatremap/internal/beatmap"

// IsDownBiased reports whether a swing in direction d counts as a
// "down" swing for the given hand. The sets are mirrored per hand to
// follow natural wrist rotation: the left hand treats E as down, the right
// hand treats W as down.
func IsDownBiased(hand beatmap.Hand, d beatmap.Direction) bool {
	switch hand {
	case beatmap.Left:
		switch d {
		case beatmap.East, beatmap.SouthEast, beatmap.South, beatmap.SouthWest:
			return true
		}
	case beatmap.Right:
		switch d {
		case beatmap.SouthEast, beatmap.South, beatmap.SouthWest, beatmap.West:
			return true
		}
	}
	return false
}

// ParityRespected reports whether a swing in next may follow a swing in
// prev with the same hand: consecutive swings must alternate between
// down-biased and up-biased. Dot on either side always passes. Bombs are
// never checked.
func ParityRespected(hand beatmap.Hand, prev, next beatmap.Direction) bool {
	if hand == beatmap.Bomb || prev.IsDot() || next.IsDot() {
		return true
	}
	return IsDownBiased(hand, prev) != IsDownBiased(hand, next)
}

// IsParityRespected checks note against the tracker's last recorded
// direction for the note's hand. A hand with no previous note trivially
// respects parity.
func (t *Tracker) IsParityRespected(note beatmap.Note) bool {
	if note.Hand == beatmap.Bomb {
		return true
	}
	h := t.hand(note.Hand)
	if !h.Positioned {
		return true
	}
	return ParityRespected(note.Hand, h.Position.Direction, note.Direction)
}

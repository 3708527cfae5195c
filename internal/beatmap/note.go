// Package beatmap holds the note model shared by every stage of the
// analysis and remapping pipeline: notes, hands, cut directions and the
// difficulty-tagged note sequence.
package beatmap

import (
	"errors"
	"fmt"
	"strings"
)

// Hand identifies which saber a note belongs to. Bombs belong to neither.
type Hand uint8

const (
	// Left is the red saber.
	Left Hand = iota
	// Right is the blue saber.
	Right
	// Bomb notes do not move either hand.
	Bomb
)

var handNames = [...]string{"red", "blue", "bomb"}

func (h Hand) String() string {
	if int(h) < len(handNames) {
		return handNames[h]
	}
	return fmt.Sprintf("Hand(%d)", uint8(h))
}

// Other returns the opposite saber. Bomb has no opposite and returns itself.
func (h Hand) Other() Hand {
	switch h {
	case Left:
		return Right
	case Right:
		return Left
	default:
		return h
	}
}

// ParseHand accepts "red"/"blue"/"bomb" and the aliases "left"/"right".
func ParseHand(s string) (Hand, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "red", "left":
		return Left, nil
	case "blue", "right":
		return Right, nil
	case "bomb":
		return Bomb, nil
	default:
		return 0, fmt.Errorf("unrecognized hand %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (h Hand) MarshalText() ([]byte, error) {
	if h > Bomb {
		return nil, fmt.Errorf("invalid hand %d", uint8(h))
	}
	return []byte(h.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (h *Hand) UnmarshalText(text []byte) error {
	parsed, err := ParseHand(string(text))
	if err != nil {
		return err
	}
	*h = parsed
	return nil
}

// Grid dimensions.
const (
	Columns = 4
	Rows    = 3
	// TopRow is the row index of high notes.
	TopRow = Rows - 1
)

// Note is a single timestamped input. Notes are values and are never
// mutated once parsed; the remapper builds new notes instead.
type Note struct {
	Time      float64   `json:"time"`
	Column    int       `json:"column"`
	Row       int       `json:"row"`
	Hand      Hand      `json:"type"`
	Direction Direction `json:"direction"`
}

// Validate checks grid bounds and enum ranges.
func (n Note) Validate() error {
	if n.Column < 0 || n.Column >= Columns {
		return fmt.Errorf("column %d out of range 0..%d", n.Column, Columns-1)
	}
	if n.Row < 0 || n.Row >= Rows {
		return fmt.Errorf("row %d out of range 0..%d", n.Row, Rows-1)
	}
	if n.Hand > Bomb {
		return fmt.Errorf("invalid hand %d", uint8(n.Hand))
	}
	if !n.Direction.Valid() {
		return fmt.Errorf("invalid direction %d", uint8(n.Direction))
	}
	return nil
}

// At returns a copy of n placed at time t.
func (n Note) At(t float64) Note {
	n.Time = t
	return n
}

// Difficulty is one of the five ordinal tiers, easiest to hardest.
type Difficulty int

const (
	Easy       Difficulty = 1
	Normal     Difficulty = 3
	Hard       Difficulty = 5
	Expert     Difficulty = 7
	ExpertPlus Difficulty = 9
)

// Difficulties lists every tier in ascending order.
var Difficulties = []Difficulty{Easy, Normal, Hard, Expert, ExpertPlus}

// ErrInvalidDifficulty is returned for difficulty ranks outside 1,3,5,7,9.
var ErrInvalidDifficulty = errors.New("invalid difficulty rank")

// ParseDifficulty validates a raw difficulty rank.
func ParseDifficulty(rank int) (Difficulty, error) {
	switch d := Difficulty(rank); d {
	case Easy, Normal, Hard, Expert, ExpertPlus:
		return d, nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrInvalidDifficulty, rank)
	}
}

func (d Difficulty) String() string {
	switch d {
	case Easy:
		return "Easy"
	case Normal:
		return "Normal"
	case Hard:
		return "Hard"
	case Expert:
		return "Expert"
	case ExpertPlus:
		return "ExpertPlus"
	default:
		return fmt.Sprintf("Difficulty(%d)", int(d))
	}
}

// Sequence is a difficulty's time-ordered notes.
type Sequence struct {
	Difficulty Difficulty
	Notes      []Note
}

// Validate checks every note and that times never decrease.
func (s Sequence) Validate() error {
	for i, n := range s.Notes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
		if i > 0 && n.Time < s.Notes[i-1].Time {
			return fmt.Errorf("note %d: time %g precedes previous note time %g", i, n.Time, s.Notes[i-1].Time)
		}
	}
	return nil
}

package beatmap

import (
	"fmt"
	"strings"
)

// Direction is a note cut direction. The eight compass points are indexed
// 0..7 clockwise starting at North; Dot has no compass index.
type Direction uint8

const (
	North Direction = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	Dot
)

// CompassPoints lists the eight indexed directions in clockwise order.
var CompassPoints = [8]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest}

// AllDirections lists every direction including Dot.
var AllDirections = [9]Direction{North, NorthEast, East, SouthEast, South, SouthWest, West, NorthWest, Dot}

var directionNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "DOT"}

// HorizontalComponent is the left/right part of a direction.
type HorizontalComponent string

const (
	HorizontalNone  HorizontalComponent = "none"
	HorizontalLeft  HorizontalComponent = "left"
	HorizontalRight HorizontalComponent = "right"
)

// VerticalComponent is the up/down part of a direction.
type VerticalComponent string

const (
	VerticalNone VerticalComponent = "none"
	VerticalUp   VerticalComponent = "up"
	VerticalDown VerticalComponent = "down"
)

// String returns the symbolic name used in orientation keys and JSON
// ("N", "NE", ..., "DOT").
func (d Direction) String() string {
	if int(d) < len(directionNames) {
		return directionNames[d]
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Valid reports whether d is one of the nine defined directions.
func (d Direction) Valid() bool {
	return d <= Dot
}

// IsDot reports whether d is the direction-less dot note.
func (d Direction) IsDot() bool {
	return d == Dot
}

// ParseDirection converts a symbolic name back into a Direction.
func ParseDirection(s string) (Direction, error) {
	upper := strings.ToUpper(strings.TrimSpace(s))
	for i, name := range directionNames {
		if name == upper {
			return Direction(i), nil
		}
	}
	return 0, fmt.Errorf("unrecognized direction %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("invalid direction %d", uint8(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// AngularDistance returns the number of 45° steps between a and b around
// the compass, in the range 0..4. Dot is compatible with everything, so any
// pairing involving Dot has distance 0.
func AngularDistance(a, b Direction) int {
	if a.IsDot() || b.IsDot() {
		return 0
	}
	diff := int(a) - int(b)
	if diff < 0 {
		diff = -diff
	}
	if diff > 4 {
		diff = 8 - diff
	}
	return diff
}

// Reverse returns the opposite compass point. Dot reverses to itself.
func Reverse(d Direction) Direction {
	if d.IsDot() || !d.Valid() {
		return d
	}
	return CompassPoints[(int(d)+4)%8]
}

// Horizontal classifies the left/right component of d.
func Horizontal(d Direction) HorizontalComponent {
	switch d {
	case West, NorthWest, SouthWest:
		return HorizontalLeft
	case East, NorthEast, SouthEast:
		return HorizontalRight
	default:
		return HorizontalNone
	}
}

// Vertical classifies the up/down component of d.
func Vertical(d Direction) VerticalComponent {
	switch d {
	case North, NorthWest, NorthEast:
		return VerticalUp
	case South, SouthWest, SouthEast:
		return VerticalDown
	default:
		return VerticalNone
	}
}

package beatmap

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverse_Involution(t *testing.T) {
	for _, d := range CompassPoints {
		assert.Equal(t, d, Reverse(Reverse(d)), "reverse(reverse(%s))", d)
		assert.NotEqual(t, d, Reverse(d), "compass point %s must not reverse to itself", d)
	}
}

func TestReverse_Pairs(t *testing.T) {
	pairs := map[Direction]Direction{
		North:     South,
		NorthEast: SouthWest,
		East:      West,
		SouthEast: NorthWest,
	}
	for a, b := range pairs {
		assert.Equal(t, b, Reverse(a))
		assert.Equal(t, a, Reverse(b))
	}
	assert.Equal(t, Dot, Reverse(Dot))
}

func TestAngularDistance_SymmetryAndRange(t *testing.T) {
	for _, a := range AllDirections {
		for _, b := range AllDirections {
			d := AngularDistance(a, b)
			assert.Equal(t, d, AngularDistance(b, a), "%s/%s", a, b)
			assert.GreaterOrEqual(t, d, 0)
			assert.LessOrEqual(t, d, 4)
			if a == Dot || b == Dot {
				assert.Zero(t, d, "%s/%s", a, b)
			}
		}
	}
}

func TestAngularDistance_Values(t *testing.T) {
	tests := []struct {
		a, b Direction
		want int
	}{
		{North, North, 0},
		{North, NorthEast, 1},
		{North, NorthWest, 1},
		{North, East, 2},
		{North, South, 4},
		{NorthWest, East, 3},
		{SouthWest, NorthEast, 4},
		{West, SouthEast, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, AngularDistance(tt.a, tt.b), "%s -> %s", tt.a, tt.b)
	}
}

func TestComponents(t *testing.T) {
	tests := []struct {
		d Direction
		h HorizontalComponent
		v VerticalComponent
	}{
		{North, HorizontalNone, VerticalUp},
		{NorthEast, HorizontalRight, VerticalUp},
		{East, HorizontalRight, VerticalNone},
		{SouthEast, HorizontalRight, VerticalDown},
		{South, HorizontalNone, VerticalDown},
		{SouthWest, HorizontalLeft, VerticalDown},
		{West, HorizontalLeft, VerticalNone},
		{NorthWest, HorizontalLeft, VerticalUp},
		{Dot, HorizontalNone, VerticalNone},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.h, Horizontal(tt.d), "horizontal %s", tt.d)
		assert.Equal(t, tt.v, Vertical(tt.d), "vertical %s", tt.d)
	}
}

func TestDirection_TextRoundTrip(t *testing.T) {
	for _, d := range AllDirections {
		parsed, err := ParseDirection(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, parsed)
	}

	_, err := ParseDirection("UP")
	assert.Error(t, err)

	var n Note
	require.NoError(t, json.Unmarshal([]byte(`{"time":1.5,"column":2,"row":1,"type":"blue","direction":"sw"}`), &n))
	assert.Equal(t, Note{Time: 1.5, Column: 2, Row: 1, Hand: Right, Direction: SouthWest}, n)

	assert.Error(t, json.Unmarshal([]byte(`{"type":"green"}`), &n))
}

// Package pattern defines the reusable motion unit extracted from a note
// sequence, its content hash and its boundary hand orientations.
package pattern

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strings"

	"github.com/banshee-data/beatremap/internal/beatmap"
)

// NeutralKey is the orientation key of two hands that both point North (or
// were never touched). The database always holds at least one pattern
// starting here.
const NeutralKey = "N-N"

// hashTimeResolution is the precision of relative times in the content hash.
const hashTimeResolution = 1e-6

// Classification is the fixed trait vector used to gate a pattern by
// difficulty.
type Classification struct {
	HasHorizontals    bool `json:"hasHorizontals"`
	HasStacksOrTowers bool `json:"hasStacksOrTowers"`
	HasTangles        bool `json:"hasTangles"`
	HasHighNotes      bool `json:"hasHighNotes"`
	HasBombs          bool `json:"hasBombs"`
	HasParityIssues   bool `json:"hasParityIssues"`
}

// Pattern is a contiguous run of notes. Classification is nil until the
// pattern has been classified.
type Pattern struct {
	Notes          []beatmap.Note  `json:"notes"`
	Classification *Classification `json:"classification,omitempty"`
}

// Len returns the number of notes.
func (p *Pattern) Len() int {
	return len(p.Notes)
}

// Duration is the time between the first and last note.
func (p *Pattern) Duration() float64 {
	if len(p.Notes) == 0 {
		return 0
	}
	return p.Notes[len(p.Notes)-1].Time - p.Notes[0].Time
}

// HasDots reports whether any note is a dot note.
func (p *Pattern) HasDots() bool {
	for _, n := range p.Notes {
		if n.Direction.IsDot() {
			return true
		}
	}
	return false
}

// Rebased returns a copy whose first note is at time 0. The classification
// is carried over since it depends only on relative timing.
func (p *Pattern) Rebased() Pattern {
	out := Pattern{Notes: make([]beatmap.Note, len(p.Notes))}
	if p.Classification != nil {
		c := *p.Classification
		out.Classification = &c
	}
	if len(p.Notes) == 0 {
		return out
	}
	t0 := p.Notes[0].Time
	for i, n := range p.Notes {
		out.Notes[i] = n.At(n.Time - t0)
	}
	return out
}

// Hash is the content address of the pattern: a SHA-256 over each note's
// time relative to the first note, column, row, hand and direction. Two
// patterns with the same shape hash equally wherever they were extracted.
func (p *Pattern) Hash() string {
	var b strings.Builder
	var t0 float64
	if len(p.Notes) > 0 {
		t0 = p.Notes[0].Time
	}
	for _, n := range p.Notes {
		rel := math.Round((n.Time-t0)/hashTimeResolution) * hashTimeResolution
		if rel == 0 {
			rel = 0 // normalise -0
		}
		fmt.Fprintf(&b, "%.6f|%d|%d|%s|%s;", rel, n.Column, n.Row, n.Hand, n.Direction)
	}
	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}

// OrientationKey formats a left/right direction pair as "<left>-<right>".
func OrientationKey(left, right beatmap.Direction) string {
	return left.String() + "-" + right.String()
}

// StartKey is the orientation of each hand at its first note in the
// pattern. A hand the pattern never touches reads as "N".
func (p *Pattern) StartKey() string {
	left, right := beatmap.North, beatmap.North
	seenLeft, seenRight := false, false
	for _, n := range p.Notes {
		switch {
		case n.Hand == beatmap.Left && !seenLeft:
			left, seenLeft = n.Direction, true
		case n.Hand == beatmap.Right && !seenRight:
			right, seenRight = n.Direction, true
		}
		if seenLeft && seenRight {
			break
		}
	}
	return OrientationKey(left, right)
}

// EndKey is the orientation of each hand at its last note in the pattern.
func (p *Pattern) EndKey() string {
	left, right := beatmap.North, beatmap.North
	for _, n := range p.Notes {
		switch n.Hand {
		case beatmap.Left:
			left = n.Direction
		case beatmap.Right:
			right = n.Direction
		}
	}
	return OrientationKey(left, right)
}

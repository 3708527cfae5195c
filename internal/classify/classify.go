// Package classify derives difficulty-relevant traits from a pattern and
// decides which difficulty tiers a pattern may be used for.
package classify

import (
	"errors"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/pattern"
)

// ErrNotClassified is returned when suitability is checked on a pattern
// that was never classified. It indicates API misuse.
var ErrNotClassified = errors.New("pattern classification was not run")

// Classify computes the trait vector of p with the default stack window.
// It is a pure function of the notes.
func Classify(p *pattern.Pattern) pattern.Classification {
	return ClassifyWithWindow(p, hands.DefaultStackWindow)
}

// ClassifyWithWindow is Classify with a custom stack window. The window
// decides both what counts as a stack or tower and which same-hand repeats
// are exempt from parity. Non-positive windows use the default.
func ClassifyWithWindow(p *pattern.Pattern, stackWindow float64) pattern.Classification {
	if stackWindow <= 0 {
		stackWindow = hands.DefaultStackWindow
	}
	return pattern.Classification{
		HasHorizontals:    hasHorizontals(p),
		HasStacksOrTowers: hasStacksOrTowers(p, stackWindow),
		HasTangles:        hasTangles(p),
		HasHighNotes:      hasHighNotes(p),
		HasBombs:          hasBombs(p),
		HasParityIssues:   hasParityIssues(p, stackWindow),
	}
}

// Ensure classifies p in place unless it already carries a classification.
func Ensure(p *pattern.Pattern) pattern.Classification {
	if p.Classification == nil {
		c := Classify(p)
		p.Classification = &c
	}
	return *p.Classification
}

func hasHorizontals(p *pattern.Pattern) bool {
	for _, n := range p.Notes {
		if n.Direction == beatmap.East || n.Direction == beatmap.West {
			return true
		}
	}
	return false
}

// hasStacksOrTowers reports a hand receiving two notes within window of the
// previous note. The per-hand flags reset whenever time advances past the
// window.
func hasStacksOrTowers(p *pattern.Pattern, window float64) bool {
	lastTime := -1.0
	lastLeft, lastRight := false, false
	for _, n := range p.Notes {
		if n.Time-lastTime > window {
			lastLeft, lastRight = false, false
		}
		if (n.Hand == beatmap.Left && lastLeft) || (n.Hand == beatmap.Right && lastRight) {
			return true
		}
		switch n.Hand {
		case beatmap.Left:
			lastLeft = true
		case beatmap.Right:
			lastRight = true
		}
		lastTime = n.Time
	}
	return false
}

func hasTangles(p *pattern.Pattern) bool {
	tracker := hands.NewTracker()
	for _, n := range p.Notes {
		tracker.ApplyNote(n)
		if tracker.AreHandsTangled() {
			return true
		}
	}
	return false
}

func hasHighNotes(p *pattern.Pattern) bool {
	for _, n := range p.Notes {
		if n.Row == beatmap.TopRow {
			return true
		}
	}
	return false
}

func hasBombs(p *pattern.Pattern) bool {
	for _, n := range p.Notes {
		if n.Hand == beatmap.Bomb {
			return true
		}
	}
	return false
}

func hasParityIssues(p *pattern.Pattern, stackWindow float64) bool {
	tracker := hands.NewTrackerWithWindow(stackWindow)
	for _, n := range p.Notes {
		tracker.ApplyNote(n)
	}
	return tracker.AnyParityViolated()
}

// IsSuitableForDifficulty applies the hard exclusions for difficulty:
// parity issues at every tier, horizontals at 7 and below, stacks or towers
// at 5 and below, tangles at 3 and below, high notes at 1.
func IsSuitableForDifficulty(difficulty beatmap.Difficulty, p *pattern.Pattern) (bool, error) {
	if p.Classification == nil {
		return false, ErrNotClassified
	}
	return Suitable(difficulty, *p.Classification), nil
}

// Suitable applies the difficulty exclusions to a classification.
func Suitable(difficulty beatmap.Difficulty, c pattern.Classification) bool {
	switch {
	case c.HasParityIssues:
		return false
	case difficulty <= beatmap.Expert && c.HasHorizontals:
		return false
	case difficulty <= beatmap.Hard && c.HasStacksOrTowers:
		return false
	case difficulty <= beatmap.Normal && c.HasTangles:
		return false
	case difficulty <= beatmap.Easy && c.HasHighNotes:
		return false
	}
	return true
}

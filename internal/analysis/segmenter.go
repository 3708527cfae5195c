// Package analysis cuts a difficulty's note sequence into reusable motion
// patterns.
package analysis

import (
	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/pattern"
)

// Defaults for Config.
const (
	DefaultPauseThreshold = 1.0
	DefaultMaxGroupSize   = 15
)

// Config controls where the segmenter cuts.
type Config struct {
	// PauseThreshold is the gap after which a pattern always ends.
	PauseThreshold float64
	// MaxGroupSize caps a pattern's length, but only where the hands are
	// neither tangled nor horizontally paired at the cut.
	MaxGroupSize int
	// StackWindow is passed to the hand tracker for parity bookkeeping.
	StackWindow float64
	// SkipDotPatterns drops closed groups that contain any dot note.
	SkipDotPatterns bool
	// FlushTrailing emits the final open group. By default it is discarded
	// because it has no natural boundary.
	FlushTrailing bool
}

// DefaultConfig returns the standard segmentation rules.
func DefaultConfig() Config {
	return Config{
		PauseThreshold: DefaultPauseThreshold,
		MaxGroupSize:   DefaultMaxGroupSize,
		StackWindow:    hands.DefaultStackWindow,
	}
}

// Segmenter splits note sequences into patterns. It holds no state between
// calls, so the same input always yields the same groups.
type Segmenter struct {
	cfg Config
}

// NewSegmenter creates a segmenter. Zero or negative limits fall back to
// the defaults.
func NewSegmenter(cfg Config) *Segmenter {
	if cfg.PauseThreshold <= 0 {
		cfg.PauseThreshold = DefaultPauseThreshold
	}
	if cfg.MaxGroupSize <= 0 {
		cfg.MaxGroupSize = DefaultMaxGroupSize
	}
	if cfg.StackWindow <= 0 {
		cfg.StackWindow = hands.DefaultStackWindow
	}
	return &Segmenter{cfg: cfg}
}

// Config returns the effective configuration.
func (s *Segmenter) Config() Config {
	return s.cfg
}

// Segment walks notes in order and returns the closed groups. Every note is
// applied to a running hand tracker before the grouping decision, so the
// size cap sees the hands as they are after the note. A note that closes
// a group starts the next one.
func (s *Segmenter) Segment(notes []beatmap.Note) []pattern.Pattern {
	tracker := hands.NewTrackerWithWindow(s.cfg.StackWindow)

	var groups []pattern.Pattern
	var current []beatmap.Note
	lastTime := 0.0

	closeGroup := func() {
		p := pattern.Pattern{Notes: current}
		if !(s.cfg.SkipDotPatterns && p.HasDots()) {
			groups = append(groups, p)
		}
		current = nil
	}

	for _, n := range notes {
		tracker.ApplyNote(n)

		switch {
		case len(current) > 0 && n.Time-lastTime > s.cfg.PauseThreshold:
			closeGroup()
		case len(current) >= s.cfg.MaxGroupSize && !tracker.AreHandsHorizontal() && !tracker.AreHandsTangled():
			closeGroup()
		}
		current = append(current, n)
		lastTime = n.Time
	}

	if s.cfg.FlushTrailing && len(current) > 0 {
		closeGroup()
	}
	return groups
}

// Analyze segments a sequence with the default rules.
func Analyze(seq beatmap.Sequence) []pattern.Pattern {
	return NewSegmenter(DefaultConfig()).Segment(seq.Notes)
}

// Package remap regenerates a difficulty's notes by chaining patterns from a
// pattern database onto the timing skeleton of an existing note sequence.
package remap

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/classify"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/monitoring"
	"github.com/banshee-data/beatremap/internal/pattern"
	"github.com/banshee-data/beatremap/internal/patterndb"
)

// ErrNoDefaultPattern means the neutral fallback bucket is empty, so the
// database can no longer guarantee that generation makes progress.
var ErrNoDefaultPattern = errors.New("pattern database has no pattern for the neutral key")

// Source picks uniform random integers in [0, n). *rand.Rand satisfies it.
type Source interface {
	IntN(n int) int
}

// NewSource returns a deterministic source for seed.
func NewSource(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TimeSeededSource returns a source seeded from the wall clock.
func TimeSeededSource() *rand.Rand {
	return NewSource(uint64(time.Now().UnixNano()))
}

// Options tune a Remapper. Zero values select the defaults.
type Options struct {
	// Source defaults to a time-seeded PCG generator.
	Source Source
	// StackWindow is passed to the hand tracker.
	StackWindow float64
	// MergeWindow is used by Remap when extracting the skeleton.
	MergeWindow float64
}

// Result is the outcome of one generation run.
type Result struct {
	RunID        uuid.UUID
	Difficulty   beatmap.Difficulty
	Skeleton     []float64
	Notes        []beatmap.Note
	PatternsUsed int
	// Fallbacks counts lookups that found no suitable continuation and
	// reset to the neutral bucket.
	Fallbacks int
}

// Remapper generates note sequences for one difficulty tier. A Remapper is
// not safe for concurrent use since it shares its random source.
type Remapper struct {
	db         *patterndb.Database
	difficulty beatmap.Difficulty
	rng        Source
	opts       Options
}

// New returns a Remapper drawing from db for difficulty.
func New(db *patterndb.Database, difficulty beatmap.Difficulty, opts Options) *Remapper {
	if opts.Source == nil {
		opts.Source = TimeSeededSource()
	}
	if opts.StackWindow <= 0 {
		opts.StackWindow = hands.DefaultStackWindow
	}
	return &Remapper{db: db, difficulty: difficulty, rng: opts.Source, opts: opts}
}

// Remap extracts the skeleton of seq and fills it with generated notes.
func (r *Remapper) Remap(seq beatmap.Sequence) (*Result, error) {
	return r.Generate(ExtractSkeleton(seq.Notes, r.opts.MergeWindow))
}

// Generate fills skeleton with patterns chained by hand orientation. Each
// step looks up patterns starting at the reverse of both hands' current
// directions, keeps those suitable for the difficulty and picks one at
// random; when none qualify it resets to the neutral bucket. Generation
// stops as soon as the skeleton is exhausted, even mid-pattern.
func (r *Remapper) Generate(skeleton []float64) (*Result, error) {
	res := &Result{
		RunID:      uuid.New(),
		Difficulty: r.difficulty,
		Skeleton:   skeleton,
		Notes:      make([]beatmap.Note, 0, len(skeleton)),
	}
	if len(skeleton) == 0 {
		return res, nil
	}

	tracker := hands.NewTrackerWithWindow(r.opts.StackWindow)
	cursor := -1
	for {
		left, right := tracker.Directions()
		key := pattern.OrientationKey(beatmap.Reverse(left), beatmap.Reverse(right))
		chosen, fellBack, err := r.choose(key)
		if err != nil {
			return nil, err
		}

		prevTime, first := 0.0, true
		for _, src := range chosen.Notes {
			if first || src.Time != prevTime {
				cursor++
			}
			if cursor >= len(skeleton) {
				monitoring.Logf("remap %s: %d notes from %d patterns over %d slots, %d fallbacks",
					res.RunID, len(res.Notes), res.PatternsUsed, len(skeleton), res.Fallbacks)
				return res, nil
			}
			if first {
				// Only patterns that place at least one note are counted.
				res.PatternsUsed++
				if fellBack {
					res.Fallbacks++
					monitoring.Warnf("no %s pattern continues from %s at %.3f; resetting to %s",
						r.difficulty, key, skeleton[cursor], pattern.NeutralKey)
				}
			}
			first, prevTime = false, src.Time
			out := src.At(skeleton[cursor])
			tracker.ApplyNote(out)
			res.Notes = append(res.Notes, out)
		}
	}
}

// choose returns a random suitable pattern starting at key, or a random
// pattern from the neutral bucket when there is none.
func (r *Remapper) choose(key string) (*pattern.Pattern, bool, error) {
	bucket, err := r.db.StartBucket(key)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", key, err)
	}
	candidates := make([]*pattern.Pattern, 0, len(bucket))
	for _, p := range bucket {
		ok, err := classify.IsSuitableForDifficulty(r.difficulty, p)
		if err != nil {
			return nil, false, fmt.Errorf("check pattern %s: %w", p.Hash(), err)
		}
		if ok {
			candidates = append(candidates, p)
		}
	}
	if len(candidates) > 0 {
		return candidates[r.rng.IntN(len(candidates))], false, nil
	}

	neutral, err := r.db.StartBucket(pattern.NeutralKey)
	if err != nil {
		return nil, false, fmt.Errorf("lookup %s: %w", pattern.NeutralKey, err)
	}
	if len(neutral) == 0 {
		return nil, false, ErrNoDefaultPattern
	}
	return neutral[r.rng.IntN(len(neutral))], true, nil
}

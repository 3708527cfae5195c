// Package patterndb is the content-addressed pattern store. Patterns are
// deduplicated by their content hash and indexed by the hand orientation at
// their start and end so that the remapper can find continuations quickly.
package patterndb

import (
	"errors"
	"sort"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/classify"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/pattern"
)

// ErrStaleIndex is returned when an index is queried after a mutation
// without RecomputeIndices.
var ErrStaleIndex = errors.New("pattern indices are stale")

// Database holds unique patterns keyed by content hash plus two derived
// orientation indices. It assumes a single owner; it is not safe for
// concurrent mutation.
type Database struct {
	patterns   map[string]*pattern.Pattern
	startIndex map[string][]*pattern.Pattern
	endIndex   map[string][]*pattern.Pattern
	stale      bool

	stackWindow float64
}

// DefaultPattern is the seed pattern: both hands cutting up at the same
// instant from the two middle columns. Its start key is the neutral key, so
// a cold-start fallback lookup always succeeds.
func DefaultPattern() pattern.Pattern {
	return pattern.Pattern{Notes: []beatmap.Note{
		{Time: 0, Column: 1, Row: 0, Hand: beatmap.Left, Direction: beatmap.North},
		{Time: 0, Column: 2, Row: 0, Hand: beatmap.Right, Direction: beatmap.North},
	}}
}

// New returns a database seeded with DefaultPattern and fresh indices.
func New() *Database {
	d := NewEmpty()
	d.Ingest(DefaultPattern())
	d.RecomputeIndices()
	return d
}

// NewEmpty returns a database with no patterns, not even the seed.
func NewEmpty() *Database {
	return &Database{
		patterns:   make(map[string]*pattern.Pattern),
		startIndex: make(map[string][]*pattern.Pattern),
		endIndex:   make(map[string][]*pattern.Pattern),

		stackWindow: hands.DefaultStackWindow,
	}
}

// StackWindow returns the window used to classify ingested patterns.
func (d *Database) StackWindow() float64 {
	return d.stackWindow
}

// SetStackWindow changes the classification window and reclassifies every
// stored pattern. Non-positive windows select the default. Keys and hashes
// do not depend on the window, so the indices stay valid.
func (d *Database) SetStackWindow(w float64) {
	if w <= 0 {
		w = hands.DefaultStackWindow
	}
	d.stackWindow = w
	for _, p := range d.patterns {
		c := classify.ClassifyWithWindow(p, w)
		p.Classification = &c
	}
}

// Ingest rebases p to start at time 0, classifies it from its notes and
// upserts it under its content hash. Any classification p carries is
// replaced, since imported or loaded traits cannot be trusted. Patterns
// with bombs and empty patterns are rejected silently. It returns the hash
// and whether the pattern was stored.
func (d *Database) Ingest(p pattern.Pattern) (string, bool) {
	if len(p.Notes) == 0 {
		return "", false
	}
	stored := p.Rebased()
	c := classify.ClassifyWithWindow(&stored, d.stackWindow)
	if c.HasBombs {
		return "", false
	}
	stored.Classification = &c
	hash := stored.Hash()
	d.patterns[hash] = &stored
	d.stale = true
	return hash, true
}

// IngestAll ingests every pattern and returns how many were stored. Indices
// still need recomputing afterwards.
func (d *Database) IngestAll(patterns []pattern.Pattern) int {
	stored := 0
	for _, p := range patterns {
		if _, ok := d.Ingest(p); ok {
			stored++
		}
	}
	return stored
}

// RecomputeIndices rebuilds both orientation indices from scratch. Buckets
// are filled in hash order so that bucket contents are reproducible.
func (d *Database) RecomputeIndices() {
	d.startIndex = make(map[string][]*pattern.Pattern)
	d.endIndex = make(map[string][]*pattern.Pattern)
	for _, hash := range d.Hashes() {
		p := d.patterns[hash]
		start, end := p.StartKey(), p.EndKey()
		d.startIndex[start] = append(d.startIndex[start], p)
		d.endIndex[end] = append(d.endIndex[end], p)
	}
	d.stale = false
}

// Stale reports whether the indices lag behind the stored patterns.
func (d *Database) Stale() bool {
	return d.stale
}

// Size is the number of distinct patterns.
func (d *Database) Size() int {
	return len(d.patterns)
}

// Clear drops every pattern and both indices, including the seed.
func (d *Database) Clear() {
	d.patterns = make(map[string]*pattern.Pattern)
	d.startIndex = make(map[string][]*pattern.Pattern)
	d.endIndex = make(map[string][]*pattern.Pattern)
	d.stale = false
}

// Get returns the pattern stored under hash.
func (d *Database) Get(hash string) (*pattern.Pattern, bool) {
	p, ok := d.patterns[hash]
	return p, ok
}

// Hashes returns every stored hash in sorted order.
func (d *Database) Hashes() []string {
	hashes := make([]string, 0, len(d.patterns))
	for h := range d.patterns {
		hashes = append(hashes, h)
	}
	sort.Strings(hashes)
	return hashes
}

// Patterns returns every stored pattern in hash order.
func (d *Database) Patterns() []*pattern.Pattern {
	hashes := d.Hashes()
	out := make([]*pattern.Pattern, 0, len(hashes))
	for _, h := range hashes {
		out = append(out, d.patterns[h])
	}
	return out
}

// StartBucket returns the patterns whose start orientation is key. The
// returned slice must not be modified.
func (d *Database) StartBucket(key string) ([]*pattern.Pattern, error) {
	if d.stale {
		return nil, ErrStaleIndex
	}
	return d.startIndex[key], nil
}

// EndBucket returns the patterns whose end orientation is key.
func (d *Database) EndBucket(key string) ([]*pattern.Pattern, error) {
	if d.stale {
		return nil, ErrStaleIndex
	}
	return d.endIndex[key], nil
}

// StartKeyCounts returns the size of every start bucket.
func (d *Database) StartKeyCounts() (map[string]int, error) {
	if d.stale {
		return nil, ErrStaleIndex
	}
	counts := make(map[string]int, len(d.startIndex))
	for k, ps := range d.startIndex {
		counts[k] = len(ps)
	}
	return counts, nil
}

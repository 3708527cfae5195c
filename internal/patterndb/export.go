package patterndb

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/banshee-data/beatremap/internal/pattern"
)

// Export writes every pattern as a JSON array sorted by content hash, so
// two exports of the same database are byte-identical.
func (d *Database) Export(w io.Writer) error {
	patterns := d.Patterns()
	out := make([]pattern.Pattern, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, *p)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode patterns: %w", err)
	}
	return nil
}

// ReadPatterns decodes an exported pattern array and validates every note.
func ReadPatterns(r io.Reader) ([]pattern.Pattern, error) {
	var patterns []pattern.Pattern
	if err := json.NewDecoder(r).Decode(&patterns); err != nil {
		return nil, fmt.Errorf("decode patterns: %w", err)
	}
	for i, p := range patterns {
		for j, n := range p.Notes {
			if err := n.Validate(); err != nil {
				return nil, fmt.Errorf("pattern %d note %d: %w", i, j, err)
			}
		}
	}
	return patterns, nil
}

// Import reads an exported array and ingests it. Order does not matter
// since every pattern is re-hashed. Indices are recomputed before return.
func (d *Database) Import(r io.Reader) (int, error) {
	patterns, err := ReadPatterns(r)
	if err != nil {
		return 0, err
	}
	n := d.IngestAll(patterns)
	d.RecomputeIndices()
	return n, nil
}

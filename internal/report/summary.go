// Package report summarises a pattern database and renders the summary as
// text, an HTML chart page and a PNG histogram.
package report

import (
	"fmt"
	"io"
	"sort"
	"text/tabwriter"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/classify"
	"github.com/banshee-data/beatremap/internal/pattern"
	"github.com/banshee-data/beatremap/internal/patterndb"
)

// Trait names in display order.
const (
	TraitHorizontals    = "horizontals"
	TraitStacksOrTowers = "stacks_or_towers"
	TraitTangles        = "tangles"
	TraitHighNotes      = "high_notes"
	TraitBombs          = "bombs"
	TraitParityIssues   = "parity_issues"
)

// TraitNames lists every trait in display order.
var TraitNames = []string{
	TraitHorizontals, TraitStacksOrTowers, TraitTangles,
	TraitHighNotes, TraitBombs, TraitParityIssues,
}

// Distribution describes a sample of per-pattern values.
type Distribution struct {
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
	Min    float64 `json:"min"`
	Median float64 `json:"median"`
	P90    float64 `json:"p90"`
	Max    float64 `json:"max"`
}

// Summary is a snapshot of database contents.
type Summary struct {
	Patterns             int            `json:"patterns"`
	Traits               map[string]int `json:"traits"`
	EligibleByDifficulty map[string]int `json:"eligible_by_difficulty"`
	StartKeys            map[string]int `json:"start_keys"`
	NoteCount            Distribution   `json:"note_count"`
	Duration             Distribution   `json:"duration"`
}

// Summarize computes trait counts, per-tier eligibility, start bucket sizes
// and length statistics. It fails if the database indices are stale.
func Summarize(db *patterndb.Database) (*Summary, error) {
	startKeys, err := db.StartKeyCounts()
	if err != nil {
		return nil, fmt.Errorf("summarize patterns: %w", err)
	}

	s := &Summary{
		Traits:               make(map[string]int, len(TraitNames)),
		EligibleByDifficulty: make(map[string]int, len(beatmap.Difficulties)),
		StartKeys:            startKeys,
	}
	for _, name := range TraitNames {
		s.Traits[name] = 0
	}
	for _, d := range beatmap.Difficulties {
		s.EligibleByDifficulty[d.String()] = 0
	}

	patterns := db.Patterns()
	counts := make([]float64, 0, len(patterns))
	durations := make([]float64, 0, len(patterns))
	for _, p := range patterns {
		c := classify.Ensure(p)
		for _, name := range TraitsOf(c) {
			s.Traits[name]++
		}
		for _, d := range beatmap.Difficulties {
			if classify.Suitable(d, c) {
				s.EligibleByDifficulty[d.String()]++
			}
		}
		counts = append(counts, float64(p.Len()))
		durations = append(durations, p.Duration())
	}
	s.Patterns = len(patterns)
	s.NoteCount = describe(counts)
	s.Duration = describe(durations)
	return s, nil
}

// TraitsOf lists the traits set in c, in display order.
func TraitsOf(c pattern.Classification) []string {
	var out []string
	if c.HasHorizontals {
		out = append(out, TraitHorizontals)
	}
	if c.HasStacksOrTowers {
		out = append(out, TraitStacksOrTowers)
	}
	if c.HasTangles {
		out = append(out, TraitTangles)
	}
	if c.HasHighNotes {
		out = append(out, TraitHighNotes)
	}
	if c.HasBombs {
		out = append(out, TraitBombs)
	}
	if c.HasParityIssues {
		out = append(out, TraitParityIssues)
	}
	return out
}

// describe sorts x in place.
func describe(x []float64) Distribution {
	if len(x) == 0 {
		return Distribution{}
	}
	sort.Float64s(x)
	d := Distribution{
		Mean:   stat.Mean(x, nil),
		Min:    x[0],
		Median: stat.Quantile(0.5, stat.Empirical, x, nil),
		P90:    stat.Quantile(0.9, stat.Empirical, x, nil),
		Max:    x[len(x)-1],
	}
	// Sample std-dev is undefined for a single value.
	if len(x) > 1 {
		d.StdDev = stat.StdDev(x, nil)
	}
	return d
}

// SortedStartKeys returns the start keys by descending bucket size, ties
// broken by key.
func (s *Summary) SortedStartKeys() []string {
	keys := make([]string, 0, len(s.StartKeys))
	for k := range s.StartKeys {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if s.StartKeys[keys[i]] != s.StartKeys[keys[j]] {
			return s.StartKeys[keys[i]] > s.StartKeys[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

// WriteText writes a human-readable summary.
func (s *Summary) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "patterns\t%d\n", s.Patterns)
	fmt.Fprintf(tw, "notes/pattern\tmean %.2f\tsd %.2f\tmedian %.0f\tp90 %.0f\tmax %.0f\n",
		s.NoteCount.Mean, s.NoteCount.StdDev, s.NoteCount.Median, s.NoteCount.P90, s.NoteCount.Max)
	fmt.Fprintf(tw, "duration (beats)\tmean %.3f\tsd %.3f\tmedian %.3f\tp90 %.3f\tmax %.3f\n",
		s.Duration.Mean, s.Duration.StdDev, s.Duration.Median, s.Duration.P90, s.Duration.Max)
	fmt.Fprintln(tw, "\ntrait\tpatterns")
	for _, name := range TraitNames {
		fmt.Fprintf(tw, "%s\t%d\n", name, s.Traits[name])
	}
	fmt.Fprintln(tw, "\ndifficulty\teligible")
	for _, d := range beatmap.Difficulties {
		fmt.Fprintf(tw, "%s\t%d\n", d, s.EligibleByDifficulty[d.String()])
	}
	fmt.Fprintln(tw, "\nstart key\tpatterns")
	for _, k := range s.SortedStartKeys() {
		fmt.Fprintf(tw, "%s\t%d\n", k, s.StartKeys[k])
	}
	return tw.Flush()
}

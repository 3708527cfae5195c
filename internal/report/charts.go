package report

import (
	"errors"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/patterndb"
)

// ErrNoPatterns is returned when a plot is requested for an empty database.
var ErrNoPatterns = errors.New("no patterns to plot")

// maxStartKeyBars limits the start-key chart to the largest buckets.
const maxStartKeyBars = 24

// RenderCharts writes an HTML page with bar charts of trait counts,
// eligibility per difficulty and the largest start buckets.
func RenderCharts(w io.Writer, s *Summary) error {
	traits := make([]opts.BarData, 0, len(TraitNames))
	for _, name := range TraitNames {
		traits = append(traits, opts.BarData{Value: s.Traits[name]})
	}
	traitBar := newBar("Pattern traits", fmt.Sprintf("patterns=%d", s.Patterns))
	traitBar.SetXAxis(TraitNames).
		AddSeries("patterns", traits,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	tiers := make([]string, 0, len(beatmap.Difficulties))
	eligible := make([]opts.BarData, 0, len(beatmap.Difficulties))
	for _, d := range beatmap.Difficulties {
		tiers = append(tiers, d.String())
		eligible = append(eligible, opts.BarData{Value: s.EligibleByDifficulty[d.String()]})
	}
	tierBar := newBar("Eligible patterns by difficulty", "")
	tierBar.SetXAxis(tiers).
		AddSeries("eligible", eligible,
			charts.WithLabelOpts(opts.Label{Show: opts.Bool(true), Position: "top"}),
		)

	keys := s.SortedStartKeys()
	if len(keys) > maxStartKeyBars {
		keys = keys[:maxStartKeyBars]
	}
	buckets := make([]opts.BarData, 0, len(keys))
	for _, k := range keys {
		buckets = append(buckets, opts.BarData{Value: s.StartKeys[k]})
	}
	keyBar := newBar("Largest start buckets", fmt.Sprintf("keys=%d", len(s.StartKeys)))
	keyBar.SetXAxis(keys).AddSeries("patterns", buckets)

	page := components.NewPage()
	page.AddCharts(traitBar, tierBar, keyBar)
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func newBar(title, subtitle string) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Width: "100%", Height: "480px"}),
		charts.WithTitleOpts(opts.Title{Title: title, Subtitle: subtitle}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true)}),
	)
	return bar
}

func sizeHistogram(db *patterndb.Database) (*plot.Plot, error) {
	patterns := db.Patterns()
	if len(patterns) == 0 {
		return nil, ErrNoPatterns
	}
	values := make(plotter.Values, len(patterns))
	maxLen := 1
	for i, p := range patterns {
		values[i] = float64(p.Len())
		maxLen = max(maxLen, p.Len())
	}

	p := plot.New()
	p.Title.Text = "Notes per pattern"
	p.X.Label.Text = "notes"
	p.Y.Label.Text = "patterns"

	hist, err := plotter.NewHist(values, maxLen)
	if err != nil {
		return nil, fmt.Errorf("build histogram: %w", err)
	}
	p.Add(hist)
	return p, nil
}

// PlotPatternSizes saves a PNG histogram of notes per pattern to path.
func PlotPatternSizes(db *patterndb.Database, path string) error {
	p, err := sizeHistogram(db)
	if err != nil {
		return err
	}
	if err := p.Save(8*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

// WritePatternSizes writes the same histogram as PNG to w.
func WritePatternSizes(db *patterndb.Database, w io.Writer) error {
	p, err := sizeHistogram(db)
	if err != nil {
		return err
	}
	wt, err := p.WriterTo(8*vg.Inch, 4*vg.Inch, "png")
	if err != nil {
		return fmt.Errorf("encode histogram: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("write histogram: %w", err)
	}
	return nil
}

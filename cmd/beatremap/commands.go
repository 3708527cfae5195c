package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/banshee-data/beatremap/internal/analysis"
	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/config"
	"github.com/banshee-data/beatremap/internal/db"
	"github.com/banshee-data/beatremap/internal/mcptools"
	"github.com/banshee-data/beatremap/internal/monitoring"
	"github.com/banshee-data/beatremap/internal/patterndb"
	"github.com/banshee-data/beatremap/internal/remap"
	"github.com/banshee-data/beatremap/internal/report"
	"github.com/banshee-data/beatremap/internal/security"
)

// commonFlags holds the --config and --db flags every command accepts.
type commonFlags struct {
	configPath *string
	dbPath     *string
}

func (a *app) newFlagSet(name string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.stderr)
	return fs, commonFlags{
		configPath: fs.String("config", "", "Tuning config file (.json, .yaml or .yml)"),
		dbPath:     fs.String("db", "", "Pattern database path (overrides database_path)"),
	}
}

// loadConfig reads the explicit config, or the defaults file when it exists,
// or falls back to the compiled-in defaults.
func (c commonFlags) loadConfig() (*config.TuningConfig, error) {
	path := *c.configPath
	if path == "" {
		if _, err := os.Stat(config.DefaultConfigPath); err != nil {
			return config.DefaultTuningConfig(), nil
		}
		path = config.DefaultConfigPath
	}
	return config.LoadTuningConfig(path)
}

func (c commonFlags) databasePath(cfg *config.TuningConfig) string {
	if *c.dbPath != "" {
		return *c.dbPath
	}
	return cfg.GetDatabasePath()
}

// openWorkspace loads the config, opens and migrates the store and loads
// every stored pattern into a fresh database.
func (a *app) openWorkspace(ctx context.Context, c commonFlags) (*config.TuningConfig, *db.DB, *patterndb.Database, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, nil, err
	}
	store, err := db.NewDB(c.databasePath(cfg))
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}
	store.SetClock(a.clock)
	patterns := cfg.PatternDatabase()
	if _, err := store.LoadPatterns(ctx, patterns); err != nil {
		store.Close()
		return nil, nil, nil, err
	}
	return cfg, store, patterns, nil
}

func parseDifficulty(rank int) (beatmap.Difficulty, error) {
	d, err := beatmap.ParseDifficulty(rank)
	if err != nil {
		return 0, fmt.Errorf("--difficulty must be one of 1, 3, 5, 7, 9: %w", err)
	}
	return d, nil
}

func (a *app) handleAnalyze(args []string) error {
	fs, common := a.newFlagSet("analyze")
	rank := fs.Int("difficulty", 0, "Difficulty rank of the input files (required)")
	dryRun := fs.Bool("dry-run", false, "Segment and classify without storing")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fmt.Fprintln(a.stderr, "Error: at least one difficulty file is required")
		fs.Usage()
		return errUsage
	}
	difficulty, err := parseDifficulty(*rank)
	if err != nil {
		return err
	}

	ctx := context.Background()
	cfg, store, patterns, err := a.openWorkspace(ctx, common)
	if err != nil {
		return err
	}
	defer store.Close()

	start := a.clock.Now()
	segmenter := analysis.NewSegmenter(cfg.SegmenterConfig())
	total, stored := 0, 0
	for _, path := range fs.Args() {
		doc, err := beatmap.ReadDifficultyFile(path, difficulty)
		if err != nil {
			return err
		}
		found := segmenter.Segment(doc.Notes)
		total += len(found)
		if !*dryRun {
			stored += patterns.IngestAll(found)
		}
		fmt.Fprintf(a.stdout, "%s: %d notes, %d patterns\n", path, len(doc.Notes), len(found))
	}

	if *dryRun {
		fmt.Fprintf(a.stdout, "dry run: %d patterns found, nothing stored\n", total)
		return nil
	}
	patterns.RecomputeIndices()
	if _, err := store.SavePatterns(ctx, patterns); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "stored %d of %d patterns; database holds %d (%s)\n",
		stored, total, patterns.Size(), a.clock.Since(start).Round(time.Millisecond))
	return nil
}

func (a *app) handleRemap(args []string) error {
	fs, common := a.newFlagSet("remap")
	rank := fs.Int("difficulty", 0, "Target difficulty rank (required)")
	out := fs.String("out", "", "Output path (required)")
	seed := fs.Int64("seed", 0, "Random seed (overrides random_seed)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 || *out == "" {
		fmt.Fprintln(a.stderr, "Error: exactly one input file and --out are required")
		fs.Usage()
		return errUsage
	}
	difficulty, err := parseDifficulty(*rank)
	if err != nil {
		return err
	}
	if err := security.ValidateOutputPath(*out, filepath.Dir(fs.Arg(0))); err != nil {
		return err
	}

	ctx := context.Background()
	cfg, store, patterns, err := a.openWorkspace(ctx, common)
	if err != nil {
		return err
	}
	defer store.Close()

	opts := cfg.RemapOptions()
	var runSeed *int64
	if seedSet(fs) {
		runSeed = seed
		opts.Source = remap.NewSource(uint64(*seed))
	} else if s, ok := cfg.GetRandomSeed(); ok {
		runSeed = &s
	}

	doc, err := beatmap.ReadDifficultyFile(fs.Arg(0), difficulty)
	if err != nil {
		return err
	}
	res, err := remap.New(patterns, difficulty, opts).Remap(doc.Sequence())
	if err != nil {
		return err
	}
	doc.ReplaceNotes(res.Notes)
	if err := doc.WriteFile(*out); err != nil {
		return err
	}

	run := db.RunFromResult(res, runSeed, fs.Arg(0))
	if err := store.RecordRemapRun(ctx, &run); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "run %s: wrote %d notes over %d slots from %d patterns (%d fallbacks) to %s\n",
		res.RunID, len(res.Notes), len(res.Skeleton), res.PatternsUsed, res.Fallbacks, *out)
	return nil
}

func seedSet(fs *flag.FlagSet) bool {
	set := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "seed" {
			set = true
		}
	})
	return set
}

func (a *app) handleExport(args []string) error {
	fs, common := a.newFlagSet("export")
	out := fs.String("out", "-", "Output file, or - for stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, store, patterns, err := a.openWorkspace(context.Background(), common)
	if err != nil {
		return err
	}
	defer store.Close()

	if *out == "-" {
		return patterns.Export(a.stdout)
	}
	if err := security.ValidateOutputPath(*out); err != nil {
		return err
	}
	f, err := os.Create(*out)
	if err != nil {
		return fmt.Errorf("create %s: %w", *out, err)
	}
	if err := patterns.Export(f); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "exported %d patterns to %s\n", patterns.Size(), *out)
	return nil
}

func (a *app) handleImport(args []string) error {
	fs, common := a.newFlagSet("import")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fmt.Fprintln(a.stderr, "Error: exactly one export file is required")
		fs.Usage()
		return errUsage
	}
	path := fs.Arg(0)
	if err := security.ValidateInputFile(path); err != nil {
		return err
	}

	ctx := context.Background()
	_, store, patterns, err := a.openWorkspace(ctx, common)
	if err != nil {
		return err
	}
	defer store.Close()

	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return err
	}
	defer f.Close()
	n, err := patterns.Import(f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	if _, err := store.SavePatterns(ctx, patterns); err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "imported %d patterns; database holds %d\n", n, patterns.Size())
	return nil
}

func (a *app) handleStats(args []string) error {
	fs, common := a.newFlagSet("stats")
	htmlOut := fs.String("html", "", "Write an HTML chart page to this path")
	pngOut := fs.String("png", "", "Write a PNG histogram of pattern sizes to this path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, store, patterns, err := a.openWorkspace(context.Background(), common)
	if err != nil {
		return err
	}
	defer store.Close()

	s, err := report.Summarize(patterns)
	if err != nil {
		return err
	}
	if err := s.WriteText(a.stdout); err != nil {
		return err
	}

	if *htmlOut != "" {
		if err := security.ValidateOutputPath(*htmlOut); err != nil {
			return err
		}
		f, err := os.Create(*htmlOut)
		if err != nil {
			return fmt.Errorf("create %s: %w", *htmlOut, err)
		}
		if err := report.RenderCharts(f, s); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "\ncharts written to %s\n", *htmlOut)
	}
	if *pngOut != "" {
		if err := security.ValidateOutputPath(*pngOut); err != nil {
			return err
		}
		if err := report.PlotPatternSizes(patterns, *pngOut); err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "histogram written to %s\n", *pngOut)
	}
	return nil
}

func (a *app) handleRuns(args []string) error {
	fs, common := a.newFlagSet("runs")
	limit := fs.Int("limit", 20, "Number of runs to show")
	if err := fs.Parse(args); err != nil {
		return err
	}

	_, store, _, err := a.openWorkspace(context.Background(), common)
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.ListRemapRuns(context.Background(), *limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(a.stdout, "no remap runs recorded")
		return nil
	}
	for _, r := range runs {
		seed := "clock"
		if r.Seed != nil {
			seed = fmt.Sprint(*r.Seed)
		}
		fmt.Fprintf(a.stdout, "%s  %s  %-10s  notes=%d slots=%d patterns=%d fallbacks=%d seed=%s  %s\n",
			r.CreatedAt.Format("2006-01-02 15:04:05"), r.RunID, r.Difficulty,
			r.NoteCount, r.SkeletonSlots, r.PatternsUsed, r.Fallbacks, seed, r.SourcePath)
	}
	return nil
}

func (a *app) handleMigrate(args []string) error {
	fs, common := a.newFlagSet("migrate")
	fs.Usage = func() { db.PrintMigrateHelp(a.stderr) }
	if err := fs.Parse(args); err != nil {
		return err
	}
	cfg, err := common.loadConfig()
	if err != nil {
		return err
	}
	return db.RunMigrateCommand(fs.Args(), common.databasePath(cfg), a.stdout)
}

func (a *app) handleServe(args []string) error {
	fs, common := a.newFlagSet("serve")
	outDir := fs.String("output-dir", "", "Extra directory remap output may be written to")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, store, patterns, err := a.openWorkspace(context.Background(), common)
	if err != nil {
		return err
	}
	defer store.Close()

	var dirs []string
	if *outDir != "" {
		dirs = append(dirs, *outDir)
	}
	// stdout carries the protocol, so diagnostics must go to stderr.
	monitoring.SetLogger(func(format string, v ...interface{}) {
		fmt.Fprintf(a.stderr, format+"\n", v...)
	})
	ws := mcptools.NewWorkspace(patterns, store, cfg, dirs...)
	if err := server.ServeStdio(mcptools.NewServer(ws)); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

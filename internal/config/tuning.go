package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/banshee-data/beatremap/internal/analysis"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/patterndb"
	"github.com/banshee-data/beatremap/internal/remap"
)

// DefaultConfigPath is the path to the canonical tuning defaults file.
const DefaultConfigPath = "config/tuning.defaults.json"

const maxFileSize = 1 * 1024 * 1024 // 1MB

// TuningConfig holds every tunable of the analysis and remapping pipeline.
// Unset fields fall back to the defaults returned by the Get* methods, so
// a file only needs the values it overrides.
type TuningConfig struct {
	// Segmenter params
	PauseThreshold     *float64 `json:"pause_threshold,omitempty" yaml:"pause_threshold,omitempty"`
	MaxGroupSize       *int     `json:"max_group_size,omitempty" yaml:"max_group_size,omitempty"`
	StackWindow        *float64 `json:"stack_window,omitempty" yaml:"stack_window,omitempty"`
	SkipDotPatterns    *bool    `json:"skip_dot_patterns,omitempty" yaml:"skip_dot_patterns,omitempty"`
	FlushTrailingGroup *bool    `json:"flush_trailing_group,omitempty" yaml:"flush_trailing_group,omitempty"`

	// Remapper params
	SkeletonMergeWindow *float64 `json:"skeleton_merge_window,omitempty" yaml:"skeleton_merge_window,omitempty"`
	RandomSeed          *int64   `json:"random_seed,omitempty" yaml:"random_seed,omitempty"` // unset: time-seeded

	// Storage
	DatabasePath *string `json:"database_path,omitempty" yaml:"database_path,omitempty"`
}

func ptrFloat64(v float64) *float64 { return &v }
func ptrBool(v bool) *bool          { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a config with every field except RandomSeed
// set to its default.
func DefaultTuningConfig() *TuningConfig {
	return &TuningConfig{
		PauseThreshold:      ptrFloat64(analysis.DefaultPauseThreshold),
		MaxGroupSize:        ptrInt(analysis.DefaultMaxGroupSize),
		StackWindow:         ptrFloat64(hands.DefaultStackWindow),
		SkipDotPatterns:     ptrBool(false),
		FlushTrailingGroup:  ptrBool(false),
		SkeletonMergeWindow: ptrFloat64(0),
		DatabasePath:        ptrString("patterns.db"),
	}
}

// LoadTuningConfig loads a tuning config from a .json, .yaml or .yml file.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	ext := strings.ToLower(filepath.Ext(cleanPath))
	if ext != ".json" && ext != ".yaml" && ext != ".yml" {
		return nil, fmt.Errorf("config file must have .json, .yaml or .yml extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if ext == ".json" {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config JSON: %w", err)
		}
	} else {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config YAML: %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate checks that the configuration values are valid.
func (c *TuningConfig) Validate() error {
	if c.PauseThreshold != nil && *c.PauseThreshold <= 0 {
		return fmt.Errorf("pause_threshold must be positive, got %f", *c.PauseThreshold)
	}
	if c.MaxGroupSize != nil && *c.MaxGroupSize < 1 {
		return fmt.Errorf("max_group_size must be at least 1, got %d", *c.MaxGroupSize)
	}
	if c.StackWindow != nil && *c.StackWindow < 0 {
		return fmt.Errorf("stack_window must be non-negative, got %f", *c.StackWindow)
	}
	if c.GetStackWindow() >= c.GetPauseThreshold() {
		return fmt.Errorf("stack_window (%f) must be shorter than pause_threshold (%f)",
			c.GetStackWindow(), c.GetPauseThreshold())
	}
	if c.SkeletonMergeWindow != nil && *c.SkeletonMergeWindow < 0 {
		return fmt.Errorf("skeleton_merge_window must be non-negative, got %f", *c.SkeletonMergeWindow)
	}
	if c.DatabasePath != nil && strings.TrimSpace(*c.DatabasePath) == "" {
		return fmt.Errorf("database_path must not be empty")
	}
	return nil
}

// GetPauseThreshold returns the pause_threshold value or the default.
func (c *TuningConfig) GetPauseThreshold() float64 {
	if c.PauseThreshold == nil {
		return analysis.DefaultPauseThreshold
	}
	return *c.PauseThreshold
}

// GetMaxGroupSize returns the max_group_size value or the default.
func (c *TuningConfig) GetMaxGroupSize() int {
	if c.MaxGroupSize == nil {
		return analysis.DefaultMaxGroupSize
	}
	return *c.MaxGroupSize
}

// GetStackWindow returns the stack_window value or the default.
func (c *TuningConfig) GetStackWindow() float64 {
	if c.StackWindow == nil {
		return hands.DefaultStackWindow
	}
	return *c.StackWindow
}

// GetSkipDotPatterns returns the skip_dot_patterns value or the default.
func (c *TuningConfig) GetSkipDotPatterns() bool {
	if c.SkipDotPatterns == nil {
		return false
	}
	return *c.SkipDotPatterns
}

// GetFlushTrailingGroup returns the flush_trailing_group value or the default.
func (c *TuningConfig) GetFlushTrailingGroup() bool {
	if c.FlushTrailingGroup == nil {
		return false
	}
	return *c.FlushTrailingGroup
}

// GetSkeletonMergeWindow returns the skeleton_merge_window value or the default.
func (c *TuningConfig) GetSkeletonMergeWindow() float64 {
	if c.SkeletonMergeWindow == nil {
		return 0
	}
	return *c.SkeletonMergeWindow
}

// GetRandomSeed returns the seed and whether one was configured.
func (c *TuningConfig) GetRandomSeed() (int64, bool) {
	if c.RandomSeed == nil {
		return 0, false
	}
	return *c.RandomSeed, true
}

// GetDatabasePath returns the database_path value or the default.
func (c *TuningConfig) GetDatabasePath() string {
	if c.DatabasePath == nil {
		return "patterns.db"
	}
	return *c.DatabasePath
}

// SegmenterConfig converts the segmenter params.
func (c *TuningConfig) SegmenterConfig() analysis.Config {
	return analysis.Config{
		PauseThreshold:  c.GetPauseThreshold(),
		MaxGroupSize:    c.GetMaxGroupSize(),
		StackWindow:     c.GetStackWindow(),
		SkipDotPatterns: c.GetSkipDotPatterns(),
		FlushTrailing:   c.GetFlushTrailingGroup(),
	}
}

// RemapOptions converts the remapper params. The source is seeded from
// random_seed when set and from the clock otherwise.
func (c *TuningConfig) RemapOptions() remap.Options {
	opts := remap.Options{
		StackWindow: c.GetStackWindow(),
		MergeWindow: c.GetSkeletonMergeWindow(),
	}
	if seed, ok := c.GetRandomSeed(); ok {
		opts.Source = remap.NewSource(uint64(seed))
	}
	return opts
}

// PatternDatabase returns a seeded pattern database that classifies with
// the configured stack window.
func (c *TuningConfig) PatternDatabase() *patterndb.Database {
	db := patterndb.New()
	db.SetStackWindow(c.GetStackWindow())
	return db
}

package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/remap"
	"github.com/banshee-data/beatremap/internal/timeutil"
)

// RemapRun is one persisted generation run.
type RemapRun struct {
	RunID         uuid.UUID
	Difficulty    beatmap.Difficulty
	SkeletonSlots int
	NoteCount     int
	PatternsUsed  int
	Fallbacks     int
	// Seed is nil when the run used a time-seeded source.
	Seed       *int64
	SourcePath string
	CreatedAt  time.Time
}

// RunFromResult summarises a remap result for storage.
func RunFromResult(res *remap.Result, seed *int64, sourcePath string) RemapRun {
	return RemapRun{
		RunID:         res.RunID,
		Difficulty:    res.Difficulty,
		SkeletonSlots: len(res.Skeleton),
		NoteCount:     len(res.Notes),
		PatternsUsed:  res.PatternsUsed,
		Fallbacks:     res.Fallbacks,
		Seed:          seed,
		SourcePath:    sourcePath,
	}
}

// RecordRemapRun inserts run. A zero CreatedAt is filled from the clock.
func (db *DB) RecordRemapRun(ctx context.Context, run *RemapRun) error {
	if run.CreatedAt.IsZero() {
		run.CreatedAt = db.clock.Now()
	}
	var seed sql.NullInt64
	if run.Seed != nil {
		seed = sql.NullInt64{Int64: *run.Seed, Valid: true}
	}
	_, err := db.ExecContext(ctx, `
		INSERT INTO remap_runs (
			run_id, difficulty, skeleton_slots, note_count, patterns_used,
			fallbacks, random_seed, source_path, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.RunID.String(), int(run.Difficulty), run.SkeletonSlots, run.NoteCount,
		run.PatternsUsed, run.Fallbacks, seed, run.SourcePath,
		timeutil.UnixSeconds(run.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert remap run: %w", err)
	}
	return nil
}

// ListRemapRuns returns up to limit runs, newest first. A limit of zero or
// less returns every run.
func (db *DB) ListRemapRuns(ctx context.Context, limit int) ([]RemapRun, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := db.QueryContext(ctx, `
		SELECT run_id, difficulty, skeleton_slots, note_count, patterns_used,
		       fallbacks, random_seed, source_path, created_at
		FROM remap_runs
		ORDER BY created_at DESC, run_id
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query remap runs: %w", err)
	}
	defer rows.Close()

	var runs []RemapRun
	for rows.Next() {
		var (
			run        RemapRun
			id         string
			difficulty int
			seed       sql.NullInt64
			source     sql.NullString
			created    float64
		)
		if err := rows.Scan(&id, &difficulty, &run.SkeletonSlots, &run.NoteCount,
			&run.PatternsUsed, &run.Fallbacks, &seed, &source, &created); err != nil {
			return nil, fmt.Errorf("scan remap run: %w", err)
		}
		if run.RunID, err = uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("parse run id %q: %w", id, err)
		}
		run.Difficulty = beatmap.Difficulty(difficulty)
		if seed.Valid {
			s := seed.Int64
			run.Seed = &s
		}
		run.SourcePath = source.String
		run.CreatedAt = timeutil.FromUnixSeconds(created)
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/monitoring"
	"github.com/banshee-data/beatremap/internal/pattern"
	"github.com/banshee-data/beatremap/internal/patterndb"
)

// SavePatterns upserts every pattern in src in a single transaction and
// returns how many rows were written.
func (db *DB) SavePatterns(ctx context.Context, src *patterndb.Database) (int, error) {
	tx, err := db.BeginTx(ctx, &sql.TxOptions{})
	if err != nil {
		return 0, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			monitoring.Logf("warning: failed to rollback transaction: %v", err)
		}
	}()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO patterns (
			hash, notes_json, classification_json, start_key, end_key,
			note_count, duration, ingested_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(hash) DO UPDATE SET
			classification_json = excluded.classification_json
	`)
	if err != nil {
		return 0, fmt.Errorf("prepare pattern upsert: %w", err)
	}
	defer stmt.Close()

	now := db.now()
	written := 0
	for _, p := range src.Patterns() {
		notes, err := json.Marshal(p.Notes)
		if err != nil {
			return 0, fmt.Errorf("encode notes: %w", err)
		}
		var classification sql.NullString
		if p.Classification != nil {
			raw, err := json.Marshal(p.Classification)
			if err != nil {
				return 0, fmt.Errorf("encode classification: %w", err)
			}
			classification = sql.NullString{String: string(raw), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			p.Hash(), string(notes), classification, p.StartKey(), p.EndKey(),
			p.Len(), p.Duration(), now,
		); err != nil {
			return 0, fmt.Errorf("upsert pattern: %w", err)
		}
		written++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit patterns: %w", err)
	}
	return written, nil
}

// LoadPatterns ingests every stored pattern into dst and recomputes its
// indices. Rows are re-hashed and reclassified on ingest, so a row whose
// stored hash or classification_json is stale still lands correctly, and a
// bomb pattern written by hand is dropped.
func (db *DB) LoadPatterns(ctx context.Context, dst *patterndb.Database) (int, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT hash, notes_json FROM patterns ORDER BY hash
	`)
	if err != nil {
		return 0, fmt.Errorf("query patterns: %w", err)
	}
	defer rows.Close()

	var patterns []pattern.Pattern
	for rows.Next() {
		var hash, notesJSON string
		if err := rows.Scan(&hash, &notesJSON); err != nil {
			return 0, fmt.Errorf("scan pattern: %w", err)
		}
		var p pattern.Pattern
		if err := json.Unmarshal([]byte(notesJSON), &p.Notes); err != nil {
			return 0, fmt.Errorf("decode notes of %s: %w", hash, err)
		}
		if err := validateNotes(p.Notes); err != nil {
			return 0, fmt.Errorf("pattern %s: %w", hash, err)
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return 0, err
	}

	n := dst.IngestAll(patterns)
	dst.RecomputeIndices()
	monitoring.Logf("loaded %d of %d stored patterns", n, len(patterns))
	return n, nil
}

// CountPatterns returns the number of stored rows.
func (db *DB) CountPatterns(ctx context.Context) (int, error) {
	var n int
	if err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM patterns`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count patterns: %w", err)
	}
	return n, nil
}

func validateNotes(notes []beatmap.Note) error {
	for i, n := range notes {
		if err := n.Validate(); err != nil {
			return fmt.Errorf("note %d: %w", i, err)
		}
	}
	return nil
}

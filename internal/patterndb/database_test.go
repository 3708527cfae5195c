package patterndb

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/beatremap/internal/beatmap"
	"github.com/banshee-data/beatremap/internal/hands"
	"github.com/banshee-data/beatremap/internal/pattern"
)

func mk(t float64, col int, h beatmap.Hand, d beatmap.Direction) beatmap.Note {
	return beatmap.Note{Time: t, Column: col, Hand: h, Direction: d}
}

func downUp(offset float64) pattern.Pattern {
	return pattern.Pattern{Notes: []beatmap.Note{
		mk(offset, 1, beatmap.Left, beatmap.South),
		mk(offset, 2, beatmap.Right, beatmap.South),
		mk(offset+0.5, 1, beatmap.Left, beatmap.North),
		mk(offset+0.5, 2, beatmap.Right, beatmap.NorthEast),
	}}
}

func TestNew_SeededWithNeutralPattern(t *testing.T) {
	db := New()
	assert.Equal(t, 1, db.Size())
	assert.False(t, db.Stale())

	bucket, err := db.StartBucket(pattern.NeutralKey)
	require.NoError(t, err)
	require.Len(t, bucket, 1)
	require.NotNil(t, bucket[0].Classification)
	assert.Equal(t, pattern.Classification{}, *bucket[0].Classification)

	end, err := db.EndBucket(pattern.NeutralKey)
	require.NoError(t, err)
	assert.Len(t, end, 1)
}

func TestIngest_Dedup(t *testing.T) {
	db := NewEmpty()
	h1, ok := db.Ingest(downUp(3))
	require.True(t, ok)
	h2, ok := db.Ingest(downUp(42.25))
	require.True(t, ok)

	assert.Equal(t, h1, h2)
	assert.Equal(t, 1, db.Size())

	stored, ok := db.Get(h1)
	require.True(t, ok)
	assert.Equal(t, 0.0, stored.Notes[0].Time, "stored patterns are rebased")
	assert.NotNil(t, stored.Classification)
}

func TestIngest_RejectsBombsAndEmpty(t *testing.T) {
	db := NewEmpty()
	p := downUp(0)
	p.Notes = append(p.Notes, beatmap.Note{Time: 1, Column: 0, Hand: beatmap.Bomb, Direction: beatmap.Dot})

	_, ok := db.Ingest(p)
	assert.False(t, ok)
	_, ok = db.Ingest(pattern.Pattern{})
	assert.False(t, ok)
	assert.Zero(t, db.Size())

	for _, stored := range db.Patterns() {
		for _, n := range stored.Notes {
			assert.NotEqual(t, beatmap.Bomb, n.Hand)
		}
	}
}

func TestIngest_DoesNotModifyInput(t *testing.T) {
	db := NewEmpty()
	p := downUp(5)
	db.Ingest(p)
	assert.Nil(t, p.Classification)
	assert.Equal(t, 5.0, p.Notes[0].Time)
}

func TestIndices(t *testing.T) {
	db := New()
	db.Ingest(downUp(0))
	leftOnly := pattern.Pattern{Notes: []beatmap.Note{
		mk(0, 0, beatmap.Left, beatmap.South),
		mk(0.5, 0, beatmap.Left, beatmap.North),
	}}
	db.Ingest(leftOnly)

	_, err := db.StartBucket("S-S")
	assert.ErrorIs(t, err, ErrStaleIndex)
	_, err = db.EndBucket("S-S")
	assert.ErrorIs(t, err, ErrStaleIndex)
	_, err = db.StartKeyCounts()
	assert.ErrorIs(t, err, ErrStaleIndex)

	db.RecomputeIndices()

	ss, err := db.StartBucket("S-S")
	require.NoError(t, err)
	assert.Len(t, ss, 1)

	sn, err := db.StartBucket("S-N")
	require.NoError(t, err)
	assert.Len(t, sn, 1)

	end, err := db.EndBucket("N-NE")
	require.NoError(t, err)
	assert.Len(t, end, 1)

	// The left-only pattern ends N-N alongside the seed.
	nn, err := db.EndBucket(pattern.NeutralKey)
	require.NoError(t, err)
	assert.Len(t, nn, 2)

	missing, err := db.StartBucket("E-W")
	require.NoError(t, err)
	assert.Empty(t, missing)

	counts, err := db.StartKeyCounts()
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"N-N": 1, "S-S": 1, "S-N": 1}, counts)
}

func TestClear(t *testing.T) {
	db := New()
	db.Ingest(downUp(0))
	db.Clear()

	assert.Zero(t, db.Size())
	assert.False(t, db.Stale())
	bucket, err := db.StartBucket(pattern.NeutralKey)
	require.NoError(t, err)
	assert.Empty(t, bucket)
}

func TestExportImport(t *testing.T) {
	db := New()
	db.Ingest(downUp(0))
	db.Ingest(pattern.Pattern{Notes: []beatmap.Note{mk(0, 3, beatmap.Right, beatmap.East)}})
	db.RecomputeIndices()

	var first, second bytes.Buffer
	require.NoError(t, db.Export(&first))
	require.NoError(t, db.Export(&second))
	assert.Equal(t, first.String(), second.String(), "export must be deterministic")
	assert.Contains(t, first.String(), `"direction": "NE"`)
	assert.Contains(t, first.String(), `"type": "blue"`)

	restored := NewEmpty()
	n, err := restored.Import(bytes.NewReader(first.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Equal(t, db.Hashes(), restored.Hashes())
	assert.False(t, restored.Stale())

	var third bytes.Buffer
	require.NoError(t, restored.Export(&third))
	assert.Equal(t, first.String(), third.String())
}

func TestImport_Invalid(t *testing.T) {
	db := NewEmpty()
	_, err := db.Import(strings.NewReader(`[{"notes":[{"time":0,"column":9,"row":0,"type":"red","direction":"N"}]}]`))
	assert.Error(t, err)

	_, err = db.Import(strings.NewReader(`[{"notes":[{"time":0,"column":1,"row":0,"type":"red","direction":"UP"}]}]`))
	assert.Error(t, err)

	_, err = db.Import(strings.NewReader(`{`))
	assert.Error(t, err)
}

func TestImport_OrderIndependent(t *testing.T) {
	a := `{"notes":[{"time":0,"column":1,"row":0,"type":"red","direction":"S"}]}`
	b := `{"notes":[{"time":2,"column":2,"row":0,"type":"blue","direction":"S"}]}`

	db1 := NewEmpty()
	_, err := db1.Import(strings.NewReader("[" + a + "," + b + "]"))
	require.NoError(t, err)
	db2 := NewEmpty()
	_, err = db2.Import(strings.NewReader("[" + b + "," + a + "]"))
	require.NoError(t, err)

	assert.Equal(t, db1.Hashes(), db2.Hashes())
}

func TestImport_IgnoresCarriedClassification(t *testing.T) {
	db := New()
	n, err := db.Import(strings.NewReader(`[
		{"notes":[
			{"time":0,"column":1,"row":0,"type":"red","direction":"S"},
			{"time":0.5,"column":2,"row":0,"type":"bomb","direction":"DOT"}
		],"classification":{"hasBombs":false}},
		{"notes":[
			{"time":0,"column":1,"row":0,"type":"red","direction":"S"},
			{"time":0.5,"column":1,"row":0,"type":"red","direction":"S"}
		],"classification":{"hasParityIssues":false}}
	]`))
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 2, db.Size())

	for _, p := range db.Patterns() {
		for _, note := range p.Notes {
			assert.NotEqual(t, beatmap.Bomb, note.Hand)
		}
	}
	bucket, err := db.StartBucket("S-N")
	require.NoError(t, err)
	require.Len(t, bucket, 1)
	assert.True(t, bucket[0].Classification.HasParityIssues)
}

func TestSetStackWindow(t *testing.T) {
	db := NewEmpty()
	assert.Equal(t, hands.DefaultStackWindow, db.StackWindow())

	// Two left downswings a tenth of a beat apart.
	hash, ok := db.Ingest(pattern.Pattern{Notes: []beatmap.Note{
		mk(0, 1, beatmap.Left, beatmap.South),
		mk(0.1, 1, beatmap.Left, beatmap.South),
	}})
	require.True(t, ok)
	db.RecomputeIndices()
	p, _ := db.Get(hash)
	assert.True(t, p.Classification.HasParityIssues)
	assert.False(t, p.Classification.HasStacksOrTowers)

	db.SetStackWindow(0.2)
	assert.False(t, p.Classification.HasParityIssues)
	assert.True(t, p.Classification.HasStacksOrTowers)
	assert.False(t, db.Stale())

	other, ok := db.Ingest(pattern.Pattern{Notes: []beatmap.Note{
		mk(0, 2, beatmap.Right, beatmap.South),
		mk(0.15, 2, beatmap.Right, beatmap.South),
	}})
	require.True(t, ok)
	q, _ := db.Get(other)
	assert.True(t, q.Classification.HasStacksOrTowers)

	db.SetStackWindow(0)
	assert.Equal(t, hands.DefaultStackWindow, db.StackWindow())
}

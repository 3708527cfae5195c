package beatmap

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

var (
	// ErrUnrecognizedCode is wrapped by ParseError when a raw code has no mapping.
	ErrUnrecognizedCode = errors.New("unrecognized code")
	// ErrUnusedNoteType is wrapped by ParseError for the reserved note type 2.
	ErrUnusedNoteType = errors.New("note type 2 is unused")
	// ErrMissingField is wrapped by ParseError when a required key is absent.
	ErrMissingField = errors.New("missing field")
)

// ParseError reports a malformed note in a raw difficulty document. Parsing
// never guesses an encoding: the first bad field aborts the whole decode.
type ParseError struct {
	Index int
	Field string
	Value any
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("note %d: %s: %v", e.Index, e.Field, e.Err)
	}
	return fmt.Sprintf("note %d: %s=%v: %v", e.Index, e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Raw note codes as stored in difficulty documents.
var (
	rawDirections = map[int]Direction{
		0: North, 1: South, 2: West, 3: East,
		4: NorthWest, 5: NorthEast, 6: SouthWest, 7: SouthEast, 8: Dot,
	}
	rawHands = map[int]Hand{0: Left, 1: Right, 3: Bomb}
)

func directionCode(d Direction) int {
	for code, dir := range rawDirections {
		if dir == d {
			return code
		}
	}
	return -1
}

func handCode(h Hand) int {
	for code, hand := range rawHands {
		if hand == h {
			return code
		}
	}
	return -1
}

type rawNote struct {
	Time         *float64 `json:"_time"`
	LineIndex    *int     `json:"_lineIndex"`
	LineLayer    *int     `json:"_lineLayer"`
	Type         *int     `json:"_type"`
	CutDirection *int     `json:"_cutDirection"`
}

// ParseRawNote converts the raw codes of a single note. index is only used
// to tag errors.
func ParseRawNote(index int, raw json.RawMessage) (Note, error) {
	var rn rawNote
	if err := json.Unmarshal(raw, &rn); err != nil {
		return Note{}, &ParseError{Index: index, Field: "note", Err: err}
	}

	var n Note
	switch {
	case rn.Time == nil:
		return Note{}, &ParseError{Index: index, Field: "_time", Err: ErrMissingField}
	case rn.LineIndex == nil:
		return Note{}, &ParseError{Index: index, Field: "_lineIndex", Err: ErrMissingField}
	case rn.LineLayer == nil:
		return Note{}, &ParseError{Index: index, Field: "_lineLayer", Err: ErrMissingField}
	case rn.Type == nil:
		return Note{}, &ParseError{Index: index, Field: "_type", Err: ErrMissingField}
	case rn.CutDirection == nil:
		return Note{}, &ParseError{Index: index, Field: "_cutDirection", Err: ErrMissingField}
	}

	n.Time = *rn.Time
	if *rn.LineIndex < 0 || *rn.LineIndex >= Columns {
		return Note{}, &ParseError{Index: index, Field: "_lineIndex", Value: *rn.LineIndex, Err: ErrUnrecognizedCode}
	}
	n.Column = *rn.LineIndex
	if *rn.LineLayer < 0 || *rn.LineLayer >= Rows {
		return Note{}, &ParseError{Index: index, Field: "_lineLayer", Value: *rn.LineLayer, Err: ErrUnrecognizedCode}
	}
	n.Row = *rn.LineLayer

	if *rn.Type == 2 {
		return Note{}, &ParseError{Index: index, Field: "_type", Value: 2, Err: ErrUnusedNoteType}
	}
	hand, ok := rawHands[*rn.Type]
	if !ok {
		return Note{}, &ParseError{Index: index, Field: "_type", Value: *rn.Type, Err: ErrUnrecognizedCode}
	}
	n.Hand = hand

	dir, ok := rawDirections[*rn.CutDirection]
	if !ok {
		return Note{}, &ParseError{Index: index, Field: "_cutDirection", Value: *rn.CutDirection, Err: ErrUnrecognizedCode}
	}
	n.Direction = dir
	return n, nil
}

// Document is a decoded difficulty file. Keys other than _notes are kept
// verbatim so that Encode writes them back untouched.
type Document struct {
	Difficulty Difficulty
	Notes      []Note

	raw map[string]json.RawMessage
}

// DecodeDifficulty parses a difficulty document. Notes are stably sorted by
// time; any malformed note aborts the decode with a *ParseError.
func DecodeDifficulty(data []byte, difficulty Difficulty) (*Document, error) {
	if _, err := ParseDifficulty(int(difficulty)); err != nil {
		return nil, err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse difficulty JSON: %w", err)
	}
	notesRaw, ok := raw["_notes"]
	if !ok {
		return nil, fmt.Errorf("difficulty document has no _notes array")
	}
	var items []json.RawMessage
	if err := json.Unmarshal(notesRaw, &items); err != nil {
		return nil, fmt.Errorf("failed to parse _notes array: %w", err)
	}

	notes := make([]Note, 0, len(items))
	for i, item := range items {
		n, err := ParseRawNote(i, item)
		if err != nil {
			return nil, err
		}
		notes = append(notes, n)
	}
	sort.SliceStable(notes, func(i, j int) bool { return notes[i].Time < notes[j].Time })

	return &Document{Difficulty: difficulty, Notes: notes, raw: raw}, nil
}

// Sequence returns the document's notes tagged with its difficulty.
func (d *Document) Sequence() Sequence {
	return Sequence{Difficulty: d.Difficulty, Notes: d.Notes}
}

// ReplaceNotes swaps in a new note sequence, e.g. remapper output.
func (d *Document) ReplaceNotes(notes []Note) {
	d.Notes = notes
}

// Encode serialises the document with its current notes in raw code form.
func (d *Document) Encode() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(d.raw)+1)
	for k, v := range d.raw {
		out[k] = v
	}

	encoded := make([]map[string]any, 0, len(d.Notes))
	for i, n := range d.Notes {
		if err := n.Validate(); err != nil {
			return nil, fmt.Errorf("note %d: %w", i, err)
		}
		encoded = append(encoded, map[string]any{
			"_time":         n.Time,
			"_lineIndex":    n.Column,
			"_lineLayer":    n.Row,
			"_type":         handCode(n.Hand),
			"_cutDirection": directionCode(n.Direction),
		})
	}
	notesJSON, err := json.Marshal(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to encode notes: %w", err)
	}
	out["_notes"] = notesJSON

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode difficulty document: %w", err)
	}
	return data, nil
}

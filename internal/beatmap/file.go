package beatmap

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/beatremap/internal/security"
)

// ReadDifficultyFile checks and decodes the difficulty document at path.
func ReadDifficultyFile(path string, difficulty Difficulty) (*Document, error) {
	if err := security.ValidateInputFile(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := DecodeDifficulty(data, difficulty)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return doc, nil
}

// WriteFile encodes d and writes it to path, replacing any existing file.
func (d *Document) WriteFile(path string) error {
	data, err := d.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

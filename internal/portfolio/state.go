package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"QuantumFlow/internal/model"
)

// LoadState reads the portfolio state file. A missing file, or an empty
// path, yields a zero state.
func LoadState(filePath string) (*model.PortfolioState, error) {
	if filePath == "" {
		return &model.PortfolioState{}, nil
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &model.PortfolioState{}, nil
		}
		return nil, err
	}
	var state model.PortfolioState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("decode %s: %w", filePath, err)
	}
	return &state, nil
}

// SaveState writes the state to a temp file and renames it into place.
func SaveState(filePath string, state *model.PortfolioState) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create state dir: %w", err)
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, filePath)
}

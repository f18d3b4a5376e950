// Package seed loads checklist seed files from disk and feeds them to the
// reconciliation engine. A seed file holds either a single checklist
// object or an array of them.
package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/nhle/checklist-sync/internal/model"
)

// LoadFile parses one seed file. Both the single-object and the array
// form are accepted; the single form is returned as a one-element slice.
// Every parsed seed is validated before it is returned.
func LoadFile(path string) ([]model.ChecklistSeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file %s: %w", path, err)
	}

	seeds, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing seed file %s: %w", path, err)
	}

	for _, s := range seeds {
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("seed file %s: %w", path, err)
		}
	}
	return seeds, nil
}

// LoadDir loads every .json file in dir, in lexical order so runs are
// deterministic.
func LoadDir(dir string) ([]model.ChecklistSeed, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading seed directory %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)

	var seeds []model.ChecklistSeed
	for _, path := range paths {
		fileSeeds, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		seeds = append(seeds, fileSeeds...)
	}
	return seeds, nil
}

func parse(data []byte) ([]model.ChecklistSeed, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var seeds []model.ChecklistSeed
		if err := json.Unmarshal(trimmed, &seeds); err != nil {
			return nil, err
		}
		return seeds, nil
	}

	var single model.ChecklistSeed
	if err := json.Unmarshal(trimmed, &single); err != nil {
		return nil, err
	}
	return []model.ChecklistSeed{single}, nil
}

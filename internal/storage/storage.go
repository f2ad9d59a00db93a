// Package storage provides access to model weights and evaluation fixtures
// kept in a data folder.
//
// Layout:
//
//	<folder>/<model-name>/weights.json
//	<folder>/test_text_<granularity>.json
package storage

import (
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/happyhackingspace/wordseg/lstm"
)

// WeightsFile is the file name of a model inside its directory.
const WeightsFile = "weights.json"

// Storage wraps the data folder.
type Storage struct {
	Folder string
}

// NewStorage creates a Storage for the given data folder.
func NewStorage(folder string) *Storage {
	return &Storage{Folder: folder}
}

// ListModels returns the names of all model directories, sorted.
func (s *Storage) ListModels() ([]string, error) {
	entries, err := os.ReadDir(s.Folder)
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		if _, err := os.Stat(filepath.Join(s.Folder, e.Name(), WeightsFile)); err == nil {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	return names, nil
}

// ModelPath returns the weights file path for a model name.
func (s *Storage) ModelPath(name string) string {
	return filepath.Join(s.Folder, name, WeightsFile)
}

// LoadModel reads and validates the named model.
func (s *Storage) LoadModel(name string) (*lstm.Model, error) {
	model, err := lstm.LoadModel(s.ModelPath(name))
	if err != nil {
		return nil, fmt.Errorf("load model %s: %w", name, err)
	}
	if model.Name != name {
		slog.Debug("Model name differs from directory", "dir", name, "model", model.Name)
	}
	return model, nil
}

// TestTextPath returns the fixture path for a granularity.
func (s *Storage) TestTextPath(g lstm.Granularity) string {
	return filepath.Join(s.Folder, "test_text_"+g.String()+".json")
}

// LoadTestText reads a fixture file.
func LoadTestText(path string) (*TestText, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var tt TestText
	if err := json.Unmarshal(data, &tt); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &tt, nil
}

// IterOptions controls test case iteration.
type IterOptions struct {
	DropDuplicates bool
	DropEmpty      bool
}

// DefaultIterOptions returns the default options for iterating test cases.
func DefaultIterOptions() IterOptions {
	return IterOptions{
		DropDuplicates: true,
		DropEmpty:      true,
	}
}

// IterTestCases loads a fixture file and filters its cases.
func IterTestCases(path string, opts IterOptions) ([]TestCase, error) {
	tt, err := LoadTestText(path)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool)
	var cases []TestCase
	for i, tc := range tt.TestCases {
		if opts.DropEmpty && strings.TrimSpace(tc.Unseg) == "" {
			continue
		}
		if tc.TrueBIES == "" {
			slog.Warn("Test case without gold tags", "path", path, "index", i)
			continue
		}
		if opts.DropDuplicates {
			hash := fmt.Sprintf("%x", md5.Sum([]byte(tc.Unseg)))
			if seen[hash] {
				continue
			}
			seen[hash] = true
		}
		cases = append(cases, tc)
	}
	if len(cases) == 0 {
		return nil, errors.New("no test cases in " + path)
	}
	return cases, nil
}

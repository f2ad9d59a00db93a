// Package wordseg finds word boundaries in text written without spaces,
// such as Thai, using a bidirectional LSTM.
//
//	s, _ := wordseg.Load("Thai_graphclust_exclusive_model4_heavy/weights.json")
//	tags, _ := s.Segment("ภาษาไทยง่ายนิดเดียว") // "BIIEBIEBIEBIIIE..."
//	words, _ := s.Words("ภาษาไทยง่ายนิดเดียว") // ["ภาษา", "ไทย", "ง่าย", ...]
package wordseg

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/happyhackingspace/wordseg/lstm"
	"golang.org/x/sync/errgroup"
)

// Segmenter wraps a loaded LSTM segmentation model.
type Segmenter struct {
	seg *lstm.Segmenter
}

// Result holds the segmentation of one line of text.
type Result struct {
	Text  string   `json:"text"`
	Tags  string   `json:"tags"`
	Words []string `json:"words"`
}

// Info describes the active model.
type Info struct {
	Name        string `json:"name"`
	Granularity string `json:"granularity"`
	OOVRow      int    `json:"oov_row"`
	Vocabulary  int    `json:"vocabulary"`
	EmbedDim    int    `json:"embed_dim"`
	HiddenUnits int    `json:"hidden_units"`
}

// ModelDir returns the per-user directory where downloaded models are cached.
func ModelDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "wordseg")
}

// New loads the segmenter from "model.json", searching the current directory
// and parent directories up to the module root (where go.mod lives), then
// the cache directory.
func New() (*Segmenter, error) {
	path, err := findModel("model.json")
	if err != nil {
		return nil, fmt.Errorf("wordseg: %w", err)
	}
	return Load(path)
}

func findModel(name string) (string, error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", err
	}
	for {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
		// Stop at module root
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	cached := filepath.Join(ModelDir(), name)
	if _, err := os.Stat(cached); err == nil {
		return cached, nil
	}
	return "", fmt.Errorf("%s not found", name)
}

// Load loads a segmenter from a weights file.
func Load(path string) (*Segmenter, error) {
	model, err := lstm.LoadModel(path)
	if err != nil {
		return nil, fmt.Errorf("wordseg: %w", err)
	}
	slog.Debug("Model loaded", "path", path, "name", model.Name, "hunits", model.HiddenUnits())
	return FromModel(model)
}

// FromModel wraps an already decoded model.
func FromModel(model *lstm.Model) (*Segmenter, error) {
	seg, err := lstm.New(model)
	if err != nil {
		return nil, fmt.Errorf("wordseg: %w", err)
	}
	return &Segmenter{seg: seg}, nil
}

// Save writes the model to a weights file.
func (s *Segmenter) Save(path string) error {
	if s.seg == nil {
		return fmt.Errorf("wordseg: segmenter not initialized")
	}
	if err := lstm.SaveModel(s.seg.Model(), path); err != nil {
		return fmt.Errorf("wordseg: %w", err)
	}
	return nil
}

// ModelName returns the name of the active model.
func (s *Segmenter) ModelName() string {
	if s.seg == nil {
		return ""
	}
	return s.seg.ModelName()
}

// Info returns the active model's name and dimensions.
func (s *Segmenter) Info() (Info, error) {
	if s.seg == nil {
		return Info{}, fmt.Errorf("wordseg: segmenter not initialized")
	}
	m := s.seg.Model()
	dict := s.seg.Dictionary()
	info := Info{
		Name:        m.Name,
		Vocabulary:  dict.Len(),
		OOVRow:      int(dict.OOV()),
		EmbedDim:    m.EmbedDim(),
		HiddenUnits: m.HiddenUnits(),
	}
	g, err := s.seg.Granularity()
	if err != nil {
		return info, fmt.Errorf("wordseg: %w", err)
	}
	info.Granularity = g.String()
	return info, nil
}

// Segment returns one BIES tag per token of text.
func (s *Segmenter) Segment(text string) (string, error) {
	if s.seg == nil {
		return "", fmt.Errorf("wordseg: segmenter not initialized")
	}
	tags, err := s.seg.Segment(text)
	if err != nil {
		return "", fmt.Errorf("wordseg: %w", err)
	}
	return tags, nil
}

// Words splits text into words.
func (s *Segmenter) Words(text string) ([]string, error) {
	r, err := s.segmentLine(text)
	if err != nil {
		return nil, err
	}
	return r.Words, nil
}

func (s *Segmenter) segmentLine(text string) (Result, error) {
	if s.seg == nil {
		return Result{}, fmt.Errorf("wordseg: segmenter not initialized")
	}
	tokens, tags, err := s.seg.Label(text)
	if err != nil {
		return Result{}, fmt.Errorf("wordseg: %w", err)
	}
	return Result{Text: text, Tags: tags, Words: lstm.JoinWords(tokens, tags)}, nil
}

// SegmentLines segments every line using up to workers goroutines.
// Results are returned in input order. workers <= 0 means one per line.
func (s *Segmenter) SegmentLines(ctx context.Context, lines []string, workers int) ([]Result, error) {
	results := make([]Result, len(lines))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, line := range lines {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.segmentLine(line)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

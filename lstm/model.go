// Package lstm implements a bidirectional LSTM word segmenter that tags each
// token of an unsegmented string as Begin, Inside, End or Single.
package lstm

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// MaxDictionarySize is the largest dictionary whose ids (plus the OOV id) fit int16.
const MaxDictionarySize = math.MaxInt16

// Model holds the trained network parameters.
//
// JSON field names follow the published weight files: mat1 is the embedding,
// mat2..mat4 the forward direction, mat5..mat7 the backward direction and
// mat8/mat9 the time-distributed dense layer.
type Model struct {
	Name       string           `json:"model"`
	Dictionary map[string]int16 `json:"dic"`
	Embedding  Matrix           `json:"mat1"`

	ForwardInput  Matrix `json:"mat2"` // [embed][4*hunits]
	ForwardHidden Matrix `json:"mat3"` // [hunits][4*hunits]
	ForwardBias   Vector `json:"mat4"` // [4*hunits]

	BackwardInput  Matrix `json:"mat5"`
	BackwardHidden Matrix `json:"mat6"`
	BackwardBias   Vector `json:"mat7"`

	DenseWeight Matrix `json:"mat8"` // [2*hunits][4]
	DenseBias   Vector `json:"mat9"` // [4]
}

// HiddenUnits returns the LSTM hidden width.
func (m *Model) HiddenUnits() int {
	return m.ForwardHidden.Rows
}

// EmbedDim returns the embedding width.
func (m *Model) EmbedDim() int {
	return m.Embedding.Cols
}

// VocabSize returns the dictionary size, not counting the OOV row.
func (m *Model) VocabSize() int {
	return len(m.Dictionary)
}

// Validate checks that all weight shapes agree with each other.
func (m *Model) Validate() error {
	h := m.HiddenUnits()
	e := m.EmbedDim()
	if h == 0 {
		return fmt.Errorf("%w: zero hidden units", ErrShape)
	}
	if m.Embedding.Rows < len(m.Dictionary)+1 {
		return fmt.Errorf("%w: embedding has %d rows, need %d (dictionary + OOV)",
			ErrShape, m.Embedding.Rows, len(m.Dictionary)+1)
	}

	dirs := []struct {
		name   string
		input  Matrix
		hidden Matrix
		bias   Vector
	}{
		{"forward", m.ForwardInput, m.ForwardHidden, m.ForwardBias},
		{"backward", m.BackwardInput, m.BackwardHidden, m.BackwardBias},
	}
	for _, d := range dirs {
		if d.input.Rows != e || d.input.Cols != 4*h {
			return fmt.Errorf("%w: %s input weights are %dx%d, want %dx%d",
				ErrShape, d.name, d.input.Rows, d.input.Cols, e, 4*h)
		}
		if d.hidden.Rows != h || d.hidden.Cols != 4*h {
			return fmt.Errorf("%w: %s hidden weights are %dx%d, want %dx%d",
				ErrShape, d.name, d.hidden.Rows, d.hidden.Cols, h, 4*h)
		}
		if len(d.bias) != 4*h {
			return fmt.Errorf("%w: %s bias has %d values, want %d", ErrShape, d.name, len(d.bias), 4*h)
		}
	}

	if m.DenseWeight.Rows != 2*h || m.DenseWeight.Cols != numTags {
		return fmt.Errorf("%w: dense weights are %dx%d, want %dx%d",
			ErrShape, m.DenseWeight.Rows, m.DenseWeight.Cols, 2*h, numTags)
	}
	if len(m.DenseBias) != numTags {
		return fmt.Errorf("%w: dense bias has %d values, want %d", ErrShape, len(m.DenseBias), numTags)
	}
	for tok, id := range m.Dictionary {
		if id < 0 || int(id) >= m.Embedding.Rows {
			return fmt.Errorf("%w: token %q has id %d outside embedding", ErrShape, tok, id)
		}
	}
	return nil
}

// SaveModel serializes the model to JSON.
func SaveModel(model *Model, path string) error {
	data, err := json.Marshal(model)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadModel deserializes and validates a model from a JSON file.
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return UnmarshalModel(data)
}

// MarshalModel serializes the model to JSON bytes.
func MarshalModel(model *Model) ([]byte, error) {
	return json.Marshal(model)
}

// UnmarshalModel deserializes and validates a model from JSON bytes.
func UnmarshalModel(data []byte) (*Model, error) {
	var model Model
	if err := json.Unmarshal(data, &model); err != nil {
		return nil, err
	}
	if err := model.Validate(); err != nil {
		return nil, err
	}
	return &model, nil
}

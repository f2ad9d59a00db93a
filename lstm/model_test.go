package lstm

import (
	"encoding/json"
	"errors"
	"path/filepath"
	"reflect"
	"testing"
)

func TestMatrixJSONForms(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Matrix
	}{
		{"ndarray", `{"v":1,"dim":[2,3],"data":[1,2,3,4,5,6]}`, Matrix{2, 3, []float32{1, 2, 3, 4, 5, 6}}},
		{"nested", `[[1,2,3],[4,5,6]]`, Matrix{2, 3, []float32{1, 2, 3, 4, 5, 6}}},
	}
	for _, tt := range tests {
		var m Matrix
		if err := json.Unmarshal([]byte(tt.data), &m); err != nil {
			t.Fatalf("%s: %v", tt.name, err)
		}
		if !reflect.DeepEqual(m, tt.want) {
			t.Errorf("%s: got %+v, want %+v", tt.name, m, tt.want)
		}
		if m.At(1, 2) != 6 {
			t.Errorf("%s: At(1,2) = %v, want 6", tt.name, m.At(1, 2))
		}
	}
}

func TestMatrixJSONErrors(t *testing.T) {
	bad := []string{
		`{"v":1,"dim":[2,2],"data":[1,2,3]}`,
		`{"v":1,"dim":[4],"data":[1,2,3,4]}`,
		`[[1,2],[3]]`,
	}
	for _, data := range bad {
		var m Matrix
		if err := json.Unmarshal([]byte(data), &m); !errors.Is(err, ErrShape) {
			t.Errorf("Unmarshal(%s) error = %v, want ErrShape", data, err)
		}
	}
}

func TestVectorJSONForms(t *testing.T) {
	for _, data := range []string{`[1,2,3,4]`, `{"v":1,"dim":[4],"data":[1,2,3,4]}`} {
		var v Vector
		if err := json.Unmarshal([]byte(data), &v); err != nil {
			t.Fatal(err)
		}
		if !reflect.DeepEqual(v, Vector{1, 2, 3, 4}) {
			t.Errorf("Unmarshal(%s) = %v", data, v)
		}
	}
	var v Vector
	if err := json.Unmarshal([]byte(`{"v":1,"dim":[3],"data":[1,2]}`), &v); !errors.Is(err, ErrShape) {
		t.Errorf("error = %v, want ErrShape", err)
	}
}

func TestModelSaveLoad(t *testing.T) {
	model := testModel("Thai_graphclust_test", 2)
	path := filepath.Join(t.TempDir(), "weights.json")
	if err := SaveModel(model, path); err != nil {
		t.Fatal(err)
	}
	loaded, err := LoadModel(path)
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(loaded, model) {
		t.Errorf("loaded model differs from saved model")
	}

	data, err := MarshalModel(model)
	if err != nil {
		t.Fatal(err)
	}
	again, err := UnmarshalModel(data)
	if err != nil {
		t.Fatal(err)
	}
	if again.HiddenUnits() != 2 || again.EmbedDim() != 2 || again.VocabSize() != 2 {
		t.Errorf("dims = %d/%d/%d, want 2/2/2", again.HiddenUnits(), again.EmbedDim(), again.VocabSize())
	}
}

func TestModelValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(m *Model)
	}{
		{"short embedding", func(m *Model) { m.Embedding = NewMatrix(2, 2) }},
		{"forward input width", func(m *Model) { m.ForwardInput = NewMatrix(2, 7) }},
		{"backward hidden rows", func(m *Model) { m.BackwardHidden = NewMatrix(1, 8) }},
		{"backward bias", func(m *Model) { m.BackwardBias = make(Vector, 4) }},
		{"dense rows", func(m *Model) { m.DenseWeight = NewMatrix(3, 4) }},
		{"dense classes", func(m *Model) { m.DenseWeight = NewMatrix(4, 5) }},
		{"dense bias", func(m *Model) { m.DenseBias = Vector{0} }},
		{"id outside embedding", func(m *Model) { m.Dictionary["c"] = 9 }},
		{"no hidden units", func(m *Model) { m.ForwardHidden = Matrix{} }},
	}
	if err := testModel("test_codepoints", 2).Validate(); err != nil {
		t.Fatalf("valid model: %v", err)
	}
	for _, tt := range tests {
		m := testModel("test_codepoints", 2)
		tt.mutate(m)
		if err := m.Validate(); !errors.Is(err, ErrShape) {
			t.Errorf("%s: Validate = %v, want ErrShape", tt.name, err)
		}
	}
}

func TestVecMul(t *testing.T) {
	m, err := MatrixFromRows([][]float32{
		{1, 2, 3},
		{4, 5, 6},
		{7, 8, 9},
	})
	if err != nil {
		t.Fatal(err)
	}

	out := []float32{1, 1, 1}
	m.VecMul([]float32{1, 0, -1}, out)
	if want := []float32{-5, -5, -5}; !reflect.DeepEqual(out, want) {
		t.Errorf("VecMul = %v, want %v", out, want)
	}

	tail := m.RowSlice(1, 3)
	if tail.Rows != 2 || tail.At(0, 0) != 4 {
		t.Fatalf("RowSlice(1, 3) = %+v", tail)
	}
	out = make([]float32, 3)
	tail.VecMul([]float32{2, 1}, out)
	if want := []float32{15, 18, 21}; !reflect.DeepEqual(out, want) {
		t.Errorf("RowSlice VecMul = %v, want %v", out, want)
	}
}

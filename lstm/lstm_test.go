package lstm

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"
	"testing"
)

// testModel builds a tiny model over {"a", "b"} with embed dim 2 and the
// given hidden width. Weights are small fixed values so outputs are stable.
func testModel(name string, hunits int) *Model {
	fill := func(m Matrix, seed float32) Matrix {
		for i := range m.Data {
			m.Data[i] = seed * float32((i%7)-3) / 10
		}
		return m
	}
	vec := func(n int, seed float32) Vector {
		v := make(Vector, n)
		for i := range v {
			v[i] = seed * float32((i%5)-2) / 10
		}
		return v
	}

	emb := NewMatrix(3, 2)
	copy(emb.Data, []float32{
		1, 0, // a
		0, 1, // b
		0.5, 0.5, // OOV
	})

	return &Model{
		Name:           name,
		Dictionary:     map[string]int16{"a": 0, "b": 1},
		Embedding:      emb,
		ForwardInput:   fill(NewMatrix(2, 4*hunits), 1),
		ForwardHidden:  fill(NewMatrix(hunits, 4*hunits), 0.5),
		ForwardBias:    vec(4*hunits, 1),
		BackwardInput:  fill(NewMatrix(2, 4*hunits), -1),
		BackwardHidden: fill(NewMatrix(hunits, 4*hunits), -0.5),
		BackwardBias:   vec(4*hunits, -1),
		DenseWeight:    fill(NewMatrix(2*hunits, 4), 2),
		DenseBias:      Vector{0.1, -0.1, 0.2, 0},
	}
}

func mustNew(t *testing.T, m *Model) *Segmenter {
	t.Helper()
	s, err := New(m)
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func isBIES(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("BIES", r) {
			return false
		}
	}
	return true
}

func TestNewDictionaryLimit(t *testing.T) {
	tests := []struct {
		size    int
		wantErr bool
	}{
		{2, false},
		{MaxDictionarySize, false},
		{MaxDictionarySize + 1, true},
	}
	for _, tt := range tests {
		m := testModel("test_graphclust", 1)
		m.Dictionary = make(map[string]int16, tt.size)
		for i := range tt.size {
			m.Dictionary[fmt.Sprintf("t%d", i)] = int16(i)
		}
		_, err := New(m)
		if tt.wantErr && !errors.Is(err, ErrLimit) {
			t.Errorf("New(dict=%d) error = %v, want ErrLimit", tt.size, err)
		}
		if !tt.wantErr && err != nil {
			t.Errorf("New(dict=%d) error = %v, want nil", tt.size, err)
		}
	}
}

func TestModelName(t *testing.T) {
	s := mustNew(t, testModel("Thai_graphclust_exclusive_model4_heavy", 1))
	if got := s.ModelName(); got != "Thai_graphclust_exclusive_model4_heavy" {
		t.Errorf("ModelName = %q", got)
	}
}

func TestSegmentEndToEnd(t *testing.T) {
	s := mustNew(t, testModel("test_graphclust", 1))

	got, err := s.Segment("ab")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("Segment(ab) = %q, want 2 tags", got)
	}
	if !isBIES(got) {
		t.Errorf("Segment(ab) = %q, want only BIES", got)
	}

	again, err := s.Segment("ab")
	if err != nil {
		t.Fatal(err)
	}
	if again != got {
		t.Errorf("second Segment(ab) = %q, first %q", again, got)
	}
}

func TestSegmentEmpty(t *testing.T) {
	for _, name := range []string{"test_graphclust", "test_codepoints"} {
		s := mustNew(t, testModel(name, 2))
		got, err := s.Segment("")
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		if got != "" {
			t.Errorf("%s: Segment(\"\") = %q, want empty", name, got)
		}
	}
}

func TestSegmentUnknownGranularity(t *testing.T) {
	s := mustNew(t, testModel("test_unknown", 1))
	_, err := s.Segment("ab")
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("Segment error = %v, want ErrSyntax", err)
	}
}

func TestSegmentLengthMatchesTokens(t *testing.T) {
	inputs := []string{
		"a",
		"abba",
		"e\u0301a",                // e + combining acute
		"\U0001F1E9\U0001F1EA", // regional indicator pair
		"ภาษาไทยง่ายนิดเดียว",
		"ab xyz",
	}
	wantGraph := []int{1, 4, 2, 1, 0, 6}
	wantCode := []int{1, 4, 3, 2, 0, 6}

	graph := mustNew(t, testModel("test_graphclust", 2))
	code := mustNew(t, testModel("test_codepoints", 2))

	for i, in := range inputs {
		for _, c := range []struct {
			s    *Segmenter
			g    Granularity
			want int
		}{
			{graph, GraphemeClusters, wantGraph[i]},
			{code, CodePoints, wantCode[i]},
		} {
			toks, err := Tokenize(in, c.g)
			if err != nil {
				t.Fatal(err)
			}
			if c.want > 0 && len(toks) != c.want {
				t.Errorf("Tokenize(%q, %v) = %d tokens, want %d", in, c.g, len(toks), c.want)
			}
			tags, err := c.s.Segment(in)
			if err != nil {
				t.Fatal(err)
			}
			if len(tags) != len(toks) {
				t.Errorf("Segment(%q) with %v = %d tags, want %d", in, c.g, len(tags), len(toks))
			}
			if !isBIES(tags) {
				t.Errorf("Segment(%q) = %q, want only BIES", in, tags)
			}
		}
	}
}

func TestGranularityOf(t *testing.T) {
	tests := []struct {
		name    string
		want    Granularity
		wantErr bool
	}{
		{"Thai_codepoints_exclusive_model4_heavy", CodePoints, false},
		{"Thai_graphclust_exclusive_model4_heavy", GraphemeClusters, false},
		{"codepoints_graphclust", CodePoints, false},
		{"test_unknown", 0, true},
		{"", 0, true},
	}
	for _, tt := range tests {
		got, err := GranularityOf(tt.name)
		if tt.wantErr {
			if !errors.Is(err, ErrSyntax) {
				t.Errorf("GranularityOf(%q) error = %v, want ErrSyntax", tt.name, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("GranularityOf(%q) = %v, %v; want %v", tt.name, got, err, tt.want)
		}
	}
}

func TestOOVTokensShareID(t *testing.T) {
	s := mustNew(t, testModel("test_codepoints", 1))

	ids, err := s.TokenIDs("axyb")
	if err != nil {
		t.Fatal(err)
	}
	want := []int16{0, 2, 2, 1}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("TokenIDs = %v, want %v", ids, want)
	}

	x, err := s.Segment("x")
	if err != nil {
		t.Fatal(err)
	}
	y, err := s.Segment("y")
	if err != nil {
		t.Fatal(err)
	}
	if x != y {
		t.Errorf("Segment(x) = %q, Segment(y) = %q; unseen tokens should behave the same", x, y)
	}
}

func TestDictionary(t *testing.T) {
	d := NewDictionary(map[string]int16{"ก": 0, "ข": 1, "ค": 2})
	if d.OOV() != 3 || d.Len() != 3 {
		t.Errorf("OOV = %d, Len = %d; want 3, 3", d.OOV(), d.Len())
	}
	if id, ok := d.Lookup("ข"); !ok || id != 1 {
		t.Errorf("Lookup(ข) = %d, %v", id, ok)
	}
	if _, ok := d.Lookup("z"); ok {
		t.Error("Lookup(z) should miss")
	}
	if d.ID("z") != d.OOV() {
		t.Errorf("ID(z) = %d, want OOV %d", d.ID("z"), d.OOV())
	}
}

func TestComputeHC(t *testing.T) {
	// All weights zero, candidate bias 1: i = f = o = 0.5, g = tanh(1).
	d := direction{
		input:  NewMatrix(1, 4),
		hidden: NewMatrix(1, 4),
		bias:   Vector{0, 0, 1, 0},
	}
	h, c := computeHC([]float32{1}, []float32{0}, []float32{0}, d)

	wantC := 0.5 * math.Tanh(1)
	wantH := 0.5 * math.Tanh(wantC)
	if math.Abs(float64(c[0])-wantC) > 1e-6 {
		t.Errorf("c = %v, want %v", c[0], wantC)
	}
	if math.Abs(float64(h[0])-wantH) > 1e-6 {
		t.Errorf("h = %v, want %v", h[0], wantH)
	}

	// Carry: forget gate 0.5 keeps half the previous cell.
	_, c2 := computeHC([]float32{1}, h, []float32{2}, d)
	wantC2 := 0.5*math.Tanh(1) + 0.5*2
	if math.Abs(float64(c2[0])-wantC2) > 1e-6 {
		t.Errorf("c2 = %v, want %v", c2[0], wantC2)
	}
}

func TestComputeHCGateOrder(t *testing.T) {
	// Saturate one gate at a time; only the input+candidate pair writes the cell.
	big := float32(50)
	tests := []struct {
		bias  Vector
		wantC float64
	}{
		{Vector{big, -big, big, big}, 1},   // i=1, f=0, g=1
		{Vector{-big, -big, big, big}, 0},  // input closed
		{Vector{big, -big, -big, big}, -1}, // candidate negative
	}
	for _, tt := range tests {
		d := direction{input: NewMatrix(1, 4), hidden: NewMatrix(1, 4), bias: tt.bias}
		_, c := computeHC([]float32{0}, []float32{0}, []float32{0}, d)
		if math.Abs(float64(c[0])-tt.wantC) > 1e-5 {
			t.Errorf("bias %v: c = %v, want %v", tt.bias, c[0], tt.wantC)
		}
	}
}

func TestBackwardSweepIndexing(t *testing.T) {
	m := testModel("test_codepoints", 3)
	ids := []int16{0, 1, 1, 2, 0}
	bwd := direction{m.BackwardInput, m.BackwardHidden, m.BackwardBias}
	fwd := direction{m.ForwardInput, m.ForwardHidden, m.ForwardBias}

	zero := make([]float32, 3)
	bw := sweep(ids, m.Embedding, bwd, true)
	first, _ := computeHC(m.Embedding.Row(int(ids[4])), zero, zero, bwd)
	if !reflect.DeepEqual(bw.Row(4), first) {
		t.Errorf("backward row 4 = %v, want first step %v", bw.Row(4), first)
	}

	fw := sweep(ids, m.Embedding, fwd, false)
	first, _ = computeHC(m.Embedding.Row(int(ids[0])), zero, zero, fwd)
	if !reflect.DeepEqual(fw.Row(0), first) {
		t.Errorf("forward row 0 = %v, want first step %v", fw.Row(0), first)
	}
}

func TestParallelSweepsMatchSequential(t *testing.T) {
	s := mustNew(t, testModel("test_codepoints", 4))
	ids, err := s.TokenIDs(strings.Repeat("abxba", 30))
	if err != nil {
		t.Fatal(err)
	}
	seq, err := s.tag(ids, false)
	if err != nil {
		t.Fatal(err)
	}
	par, err := s.tag(ids, true)
	if err != nil {
		t.Fatal(err)
	}
	if seq != par {
		t.Errorf("parallel tags differ:\n seq %s\n par %s", seq, par)
	}
}

func TestDenseBiasDecidesTag(t *testing.T) {
	tests := []struct {
		bias Vector
		want string
	}{
		{Vector{9, 0, 0, 0}, "BBB"},
		{Vector{0, 9, 0, 0}, "III"},
		{Vector{0, 0, 9, 0}, "EEE"},
		{Vector{0, 0, 0, 9}, "SSS"},
	}
	for _, tt := range tests {
		m := testModel("test_codepoints", 1)
		m.DenseWeight = NewMatrix(2, 4)
		m.DenseBias = tt.bias
		got, err := mustNew(t, m).Segment("abc")
		if err != nil {
			t.Fatal(err)
		}
		if got != tt.want {
			t.Errorf("bias %v: Segment = %q, want %q", tt.bias, got, tt.want)
		}
	}
}

func TestArgmaxFirstMax(t *testing.T) {
	tests := []struct {
		in   []float32
		want int
	}{
		{[]float32{0.25, 0.25, 0.25, 0.25}, 0},
		{[]float32{0.1, 0.4, 0.4, 0.1}, 1},
		{[]float32{0.1, 0.2, 0.3, 0.4}, 3},
	}
	for _, tt := range tests {
		if got := argmax(tt.in); got != tt.want {
			t.Errorf("argmax(%v) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestDecodeTagOutOfRange(t *testing.T) {
	_, err := decodeTag([]float32{0, 0, 0, 0, 1})
	if !errors.Is(err, ErrSyntax) {
		t.Errorf("decodeTag error = %v, want ErrSyntax", err)
	}
	tag, err := decodeTag([]float32{0.1, 0.1, 0.7, 0.1})
	if err != nil || tag != TagEnd {
		t.Errorf("decodeTag = %c, %v; want E", tag, err)
	}
}

func TestSoftmax(t *testing.T) {
	p := softmax([]float32{1, 2, 3, 1000})
	var sum float64
	for _, v := range p {
		sum += float64(v)
	}
	if math.Abs(sum-1) > 1e-5 {
		t.Errorf("softmax sums to %v", sum)
	}
	if argmax(p) != 3 {
		t.Errorf("softmax argmax = %d, want 3", argmax(p))
	}
}

func TestJoinWords(t *testing.T) {
	tests := []struct {
		tokens []string
		tags   string
		want   []string
	}{
		{[]string{"ก", "ข", "ค"}, "BIE", []string{"กขค"}},
		{[]string{"a", "b", "c", "d"}, "BESS", []string{"ab", "c", "d"}},
		{[]string{"a", "b", "c"}, "BIB", []string{"ab", "c"}},
		{[]string{"a", "b"}, "II", []string{"ab"}},
		{nil, "", nil},
	}
	for _, tt := range tests {
		got := JoinWords(tt.tokens, tt.tags)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("JoinWords(%v, %q) = %v, want %v", tt.tokens, tt.tags, got, tt.want)
		}
	}
}

func TestWords(t *testing.T) {
	m := testModel("test_codepoints", 1)
	m.DenseWeight = NewMatrix(2, 4)
	m.DenseBias = Vector{0, 0, 0, 9}
	words, err := mustNew(t, m).Words("abc")
	if err != nil {
		t.Fatal(err)
	}
	if want := []string{"a", "b", "c"}; !reflect.DeepEqual(words, want) {
		t.Errorf("Words = %v, want %v", words, want)
	}
}

func TestConcurrentSegment(t *testing.T) {
	s := mustNew(t, testModel("test_graphclust", 2))
	want, err := s.Segment("abbaab")
	if err != nil {
		t.Fatal(err)
	}
	done := make(chan string, 8)
	for range 8 {
		go func() {
			got, _ := s.Segment("abbaab")
			done <- got
		}()
	}
	for range 8 {
		if got := <-done; got != want {
			t.Errorf("concurrent Segment = %q, want %q", got, want)
		}
	}
}

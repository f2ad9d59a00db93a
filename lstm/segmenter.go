package lstm

import (
	"fmt"
	"strings"
)

// Segmenter tags unsegmented text with BIES word-boundary labels.
// It holds no per-call state and is safe for concurrent use.
type Segmenter struct {
	model *Model
	dict  Dictionary
}

// New returns a Segmenter for model. It fails with ErrLimit when the
// dictionary has more than MaxDictionarySize entries.
func New(model *Model) (*Segmenter, error) {
	if len(model.Dictionary) > MaxDictionarySize {
		return nil, fmt.Errorf("%w: %d entries, max %d", ErrLimit, len(model.Dictionary), MaxDictionarySize)
	}
	return &Segmenter{model: model, dict: NewDictionary(model.Dictionary)}, nil
}

// ModelName returns the name carried by the model.
func (s *Segmenter) ModelName() string {
	return s.model.Name
}

// Model returns the underlying model. Callers must not modify it.
func (s *Segmenter) Model() *Model {
	return s.model
}

// Dictionary returns the token to embedding row mapping.
func (s *Segmenter) Dictionary() Dictionary {
	return s.dict
}

// Granularity returns the tokenization the model expects.
func (s *Segmenter) Granularity() (Granularity, error) {
	return GranularityOf(s.model.Name)
}

// Tokens splits text the way the model expects.
func (s *Segmenter) Tokens(text string) ([]string, error) {
	g, err := s.Granularity()
	if err != nil {
		return nil, err
	}
	return Tokenize(text, g)
}

// TokenIDs returns the embedding row for every token of text.
func (s *Segmenter) TokenIDs(text string) ([]int16, error) {
	tokens, err := s.Tokens(text)
	if err != nil {
		return nil, err
	}
	return s.dict.IDs(tokens), nil
}

// Segment returns one of B, I, E, S per token of text.
func (s *Segmenter) Segment(text string) (string, error) {
	ids, err := s.TokenIDs(text)
	if err != nil {
		return "", err
	}
	return s.tag(ids, len(ids) >= parallelSweepMin)
}

func (s *Segmenter) tag(ids []int16, parallel bool) (string, error) {
	if len(ids) == 0 {
		return "", nil
	}
	fw, bw := bidirectional(ids, s.model, parallel)

	tags := make([]byte, len(ids))
	for i := range ids {
		probs := project(fw.Row(i), bw.Row(i), s.model.DenseWeight, s.model.DenseBias)
		t, err := decodeTag(probs)
		if err != nil {
			return "", err
		}
		tags[i] = t
	}
	return string(tags), nil
}

// Label returns the tokens of text together with their tags.
func (s *Segmenter) Label(text string) ([]string, string, error) {
	tokens, err := s.Tokens(text)
	if err != nil {
		return nil, "", err
	}
	tags, err := s.tag(s.dict.IDs(tokens), len(tokens) >= parallelSweepMin)
	if err != nil {
		return nil, "", err
	}
	return tokens, tags, nil
}

// Words splits text into words using the predicted tags. A word starts at
// B or S (or after E or S) and ends at E or S.
func (s *Segmenter) Words(text string) ([]string, error) {
	tokens, tags, err := s.Label(text)
	if err != nil {
		return nil, err
	}
	return JoinWords(tokens, tags), nil
}

// JoinWords groups tokens into words according to their BIES tags.
func JoinWords(tokens []string, tags string) []string {
	var words []string
	var cur strings.Builder
	flush := func() {
		if cur.Len() > 0 {
			words = append(words, cur.String())
			cur.Reset()
		}
	}
	for i, tok := range tokens {
		var t byte
		if i < len(tags) {
			t = tags[i]
		}
		if t == TagBegin || t == TagSingle {
			flush()
		}
		cur.WriteString(tok)
		if t == TagEnd || t == TagSingle {
			flush()
		}
	}
	flush()
	return words
}

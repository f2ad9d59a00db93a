package lstm

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rivo/uniseg"
)

// Granularity is the unit the model was trained on.
type Granularity int

const (
	CodePoints Granularity = iota + 1
	GraphemeClusters
)

func (g Granularity) String() string {
	switch g {
	case CodePoints:
		return "codepoints"
	case GraphemeClusters:
		return "graphclust"
	default:
		return "unknown"
	}
}

// GranularityOf derives the tokenization from a model name such as
// "Thai_graphclust_exclusive_model4_heavy".
func GranularityOf(modelName string) (Granularity, error) {
	switch {
	case strings.Contains(modelName, "codepoints"):
		return CodePoints, nil
	case strings.Contains(modelName, "graphclust"):
		return GraphemeClusters, nil
	}
	return 0, fmt.Errorf("%w: model name %q names no tokenization", ErrSyntax, modelName)
}

// Tokenize splits text into code points or extended grapheme clusters.
func Tokenize(text string, g Granularity) ([]string, error) {
	switch g {
	case CodePoints:
		tokens := make([]string, 0, utf8.RuneCountInString(text))
		for _, r := range text {
			tokens = append(tokens, string(r))
		}
		return tokens, nil
	case GraphemeClusters:
		var tokens []string
		state := -1
		rest := text
		for len(rest) > 0 {
			var cluster string
			cluster, rest, _, state = uniseg.FirstGraphemeClusterInString(rest, state)
			tokens = append(tokens, cluster)
		}
		return tokens, nil
	}
	return nil, fmt.Errorf("%w: granularity %d", ErrSyntax, int(g))
}

// Dictionary maps tokens to embedding rows. Tokens not in the vocabulary
// share one reserved row directly after it.
type Dictionary struct {
	ids map[string]int16
	oov int16
}

// NewDictionary wraps ids. len(ids) must not exceed MaxDictionarySize.
func NewDictionary(ids map[string]int16) Dictionary {
	return Dictionary{ids: ids, oov: int16(len(ids))}
}

// Lookup returns the id of tok and whether it is in the vocabulary.
func (d Dictionary) Lookup(tok string) (int16, bool) {
	id, ok := d.ids[tok]
	return id, ok
}

// ID returns the id of tok, or the OOV id.
func (d Dictionary) ID(tok string) int16 {
	if id, ok := d.Lookup(tok); ok {
		return id
	}
	return d.oov
}

// OOV returns the out-of-vocabulary id.
func (d Dictionary) OOV() int16 {
	return d.oov
}

// Len returns the vocabulary size.
func (d Dictionary) Len() int {
	return len(d.ids)
}

// IDs maps every token to its id.
func (d Dictionary) IDs(tokens []string) []int16 {
	ids := make([]int16, len(tokens))
	for i, tok := range tokens {
		ids[i] = d.ID(tok)
	}
	return ids
}

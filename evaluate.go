package wordseg

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/happyhackingspace/wordseg/internal/storage"
)

// Tags lists the BIES classes in output order.
var Tags = []string{"B", "I", "E", "S"}

// EvalConfig holds configuration for evaluation.
type EvalConfig struct {
	KeepDuplicates bool
}

// EvalResult holds evaluation results against gold BIES fixtures.
type EvalResult struct {
	TagAccuracy      float64
	SequenceAccuracy float64
	TagCorrect       int
	TagTotal         int
	SequenceCorrect  int
	SequenceTotal    int
	Skipped          int // gold length differs from the model's tokenization
	OOVTokens        int // evaluated tokens missing from the model dictionary

	// Word boundaries are the positions tagged B or S.
	BoundaryPrecision float64
	BoundaryRecall    float64
	BoundaryF1        float64

	Confusion map[string]map[string]int // gold -> predicted -> count
	Precision map[string]float64
	Recall    map[string]float64
	F1        map[string]float64
}

// Evaluate segments every test case of a fixture file and compares the
// predicted tags to the gold tags. Gold tags are compared case-insensitively.
func (s *Segmenter) Evaluate(fixturePath string, config *EvalConfig) (*EvalResult, error) {
	if s.seg == nil {
		return nil, fmt.Errorf("wordseg: segmenter not initialized")
	}
	opts := storage.DefaultIterOptions()
	if config != nil {
		opts.DropDuplicates = !config.KeepDuplicates
	}
	dict := s.seg.Dictionary()

	cases, err := storage.IterTestCases(fixturePath, opts)
	if err != nil {
		return nil, fmt.Errorf("wordseg: %w", err)
	}

	result := &EvalResult{Confusion: make(map[string]map[string]int)}
	for _, c := range Tags {
		result.Confusion[c] = make(map[string]int)
	}

	var tp, fp, fn int
	for i, tc := range cases {
		tokens, pred, err := s.seg.Label(tc.Unseg)
		if err != nil {
			return nil, fmt.Errorf("wordseg: %w", err)
		}
		gold := strings.ToUpper(tc.TrueBIES)
		if len(gold) != len(pred) {
			slog.Warn("Gold tags do not match tokenization", "case", i, "gold", len(gold), "predicted", len(pred))
			result.Skipped++
			continue
		}
		slog.Debug("Test case", "unseg", tc.Unseg, "gold", gold, "predicted", pred)
		for _, tok := range tokens {
			if _, ok := dict.Lookup(tok); !ok {
				result.OOVTokens++
			}
		}

		allCorrect := true
		for j := range gold {
			g, p := gold[j:j+1], pred[j:j+1]
			if result.Confusion[g] == nil {
				result.Confusion[g] = make(map[string]int)
			}
			result.Confusion[g][p]++
			if g == p {
				result.TagCorrect++
			} else {
				allCorrect = false
			}
			result.TagTotal++

			gb, pb := isBoundary(g), isBoundary(p)
			switch {
			case gb && pb:
				tp++
			case pb:
				fp++
			case gb:
				fn++
			}
		}
		if allCorrect {
			result.SequenceCorrect++
		}
		result.SequenceTotal++
	}

	if result.TagTotal > 0 {
		result.TagAccuracy = float64(result.TagCorrect) / float64(result.TagTotal)
	}
	if result.SequenceTotal > 0 {
		result.SequenceAccuracy = float64(result.SequenceCorrect) / float64(result.SequenceTotal)
	}
	result.BoundaryPrecision, result.BoundaryRecall, result.BoundaryF1 = prf(tp, fp, fn)
	result.Precision, result.Recall, result.F1 = classReport(result.Confusion)
	return result, nil
}

func isBoundary(tag string) bool {
	return tag == "B" || tag == "S"
}

func prf(tp, fp, fn int) (precision, recall, f1 float64) {
	if tp+fp > 0 {
		precision = float64(tp) / float64(tp+fp)
	}
	if tp+fn > 0 {
		recall = float64(tp) / float64(tp+fn)
	}
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}
	return precision, recall, f1
}

func classReport(confusion map[string]map[string]int) (precision, recall, f1 map[string]float64) {
	precision = make(map[string]float64)
	recall = make(map[string]float64)
	f1 = make(map[string]float64)
	for _, c := range Tags {
		var tp, fp, fn int
		for gold, row := range confusion {
			for pred, n := range row {
				switch {
				case gold == c && pred == c:
					tp += n
				case pred == c:
					fp += n
				case gold == c:
					fn += n
				}
			}
		}
		precision[c], recall[c], f1[c] = prf(tp, fp, fn)
	}
	return precision, recall, f1
}

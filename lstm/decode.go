package lstm

import (
	"fmt"
	"math"
)

const numTags = 4

// Tag letters, indexed by output class.
const (
	TagBegin  = 'B'
	TagInside = 'I'
	TagEnd    = 'E'
	TagSingle = 'S'
)

// project fuses the forward and backward state at one position into a
// probability distribution over BIES.
func project(fwH, bwH []float32, weight Matrix, bias Vector) []float32 {
	logits := make([]float32, weight.Cols)
	copy(logits, bias)
	// rows [0, h) read the forward state, rows [h, 2h) the backward state
	h := len(fwH)
	weight.RowSlice(0, h).VecMul(fwH, logits)
	weight.RowSlice(h, h+len(bwH)).VecMul(bwH, logits)
	return softmax(logits)
}

func softmax(x []float32) []float32 {
	maxVal := float32(math.Inf(-1))
	for _, v := range x {
		if v > maxVal {
			maxVal = v
		}
	}
	out := make([]float32, len(x))
	var sum float32
	for i, v := range x {
		out[i] = float32(math.Exp(float64(v - maxVal)))
		sum += out[i]
	}
	for i := range out {
		out[i] /= sum
	}
	return out
}

// argmax returns the index of the largest value; ties go to the first.
func argmax(x []float32) int {
	best := 0
	for i := 1; i < len(x); i++ {
		if x[i] > x[best] {
			best = i
		}
	}
	return best
}

func decodeTag(probs []float32) (byte, error) {
	switch idx := argmax(probs); idx {
	case 0:
		return TagBegin, nil
	case 1:
		return TagInside, nil
	case 2:
		return TagEnd, nil
	case 3:
		return TagSingle, nil
	default:
		return 0, fmt.Errorf("%w: class index %d", ErrSyntax, idx)
	}
}

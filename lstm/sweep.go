package lstm

import "sync"

// parallelSweepMin is the sequence length from which the two directions are
// computed on separate goroutines.
const parallelSweepMin = 64

// sweep runs one direction over ids and returns a [len(ids)][hunits] matrix
// whose row i is the hidden state at original position i.
func sweep(ids []int16, emb Matrix, d direction, reverse bool) Matrix {
	n := len(ids)
	hunits := d.hidden.Rows
	out := NewMatrix(n, hunits)

	h := make([]float32, hunits)
	c := make([]float32, hunits)
	for step := range n {
		pos := step
		if reverse {
			pos = n - 1 - step
		}
		h, c = computeHC(emb.Row(int(ids[pos])), h, c, d)
		copy(out.Row(pos), h)
	}
	return out
}

// bidirectional runs the forward and backward sweeps.
func bidirectional(ids []int16, m *Model, parallel bool) (fw, bw Matrix) {
	fwd := direction{m.ForwardInput, m.ForwardHidden, m.ForwardBias}
	bwd := direction{m.BackwardInput, m.BackwardHidden, m.BackwardBias}

	if !parallel {
		return sweep(ids, m.Embedding, fwd, false), sweep(ids, m.Embedding, bwd, true)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		bw = sweep(ids, m.Embedding, bwd, true)
	}()
	fw = sweep(ids, m.Embedding, fwd, false)
	wg.Wait()
	return fw, bw
}

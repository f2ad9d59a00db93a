package lstm

import "math"

// direction is one directional weight set (W, U, b).
type direction struct {
	input  Matrix // [embed][4*hunits]
	hidden Matrix // [hunits][4*hunits]
	bias   Vector // [4*hunits]
}

func sigmoid(x float32) float32 {
	return 1 / (1 + float32(math.Exp(float64(-x))))
}

func tanh(x float32) float32 {
	return float32(math.Tanh(float64(x)))
}

// computeHC evaluates one LSTM step and returns the new (h, c).
// The gate pre-activations are packed as [input | forget | candidate | output].
func computeHC(x, hPrev, cPrev []float32, d direction) ([]float32, []float32) {
	hunits := d.hidden.Rows

	s := make([]float32, 4*hunits)
	copy(s, d.bias)
	d.input.VecMul(x, s)
	d.hidden.VecMul(hPrev, s)

	h := make([]float32, hunits)
	c := make([]float32, hunits)
	for k := range hunits {
		i := sigmoid(s[k])
		f := sigmoid(s[hunits+k])
		g := tanh(s[2*hunits+k])
		o := sigmoid(s[3*hunits+k])
		c[k] = i*g + f*cPrev[k]
		h[k] = o * tanh(c[k])
	}
	return h, c
}

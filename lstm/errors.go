package lstm

import "errors"

var (
	// ErrLimit is returned by New when the dictionary does not fit 16-bit ids.
	ErrLimit = errors.New("lstm: dictionary exceeds 16-bit id range")

	// ErrSyntax is returned by Segment when the model name names no known
	// tokenization, or when decoding produces a class outside BIES.
	ErrSyntax = errors.New("lstm: malformed model")

	// ErrShape is returned when matrix dimensions are inconsistent.
	ErrShape = errors.New("lstm: inconsistent weight shapes")
)

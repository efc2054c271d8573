package huffman

import (
	"errors"
	"fmt"
)

var (
	ErrInputUnavailable = errors.New("input unavailable")
	ErrOutputUnwritable = errors.New("output unwritable")
	ErrTruncatedStream  = errors.New("compressed stream truncated")
	ErrMalformedTree    = errors.New("malformed huffman tree")
)

// OverflowWarning reports a frequency counter that saturated while counting.
// Compression still succeeds; the symbol's code may just be longer than optimal.
type OverflowWarning struct {
	Symbol Symbol
}

func (w OverflowWarning) Error() string {
	return fmt.Sprintf("count of symbol %v has overflowed, compression may not be optimized", w.Symbol)
}

package fitness

import (
	"errors"
	"fmt"
	"math"
	"math/bits"
)

// Max is the worst possible score and the saturation ceiling.
const Max uint64 = math.MaxUint64

var (
	ErrMissingBuffer  = errors.New("pixel buffer is missing")
	ErrLengthMismatch = errors.New("pixel buffer lengths differ")
)

// Score sums the squared per-byte differences of two equally laid out pixel
// buffers. The sum saturates at Max instead of wrapping.
func Score(reference, candidate []byte) (uint64, error) {
	if reference == nil || candidate == nil {
		return 0, ErrMissingBuffer
	}
	if len(reference) != len(candidate) {
		return 0, fmt.Errorf("%w: reference=%d candidate=%d", ErrLengthMismatch, len(reference), len(candidate))
	}

	var total uint64
	for i := range reference {
		d := int(reference[i]) - int(candidate[i])
		total = saturatingAdd(total, uint64(d*d))
		if total == Max {
			return Max, nil
		}
	}
	return total, nil
}

func saturatingAdd(a, b uint64) uint64 {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return Max
	}
	return sum
}

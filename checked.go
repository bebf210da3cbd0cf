package vkres

import (
	"fmt"
	"math/bits"
)

// checkedAdd returns a+b or ErrIntegerOverflow.
func checkedAdd(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, fmt.Errorf("%w: %d + %d", ErrIntegerOverflow, a, b)
	}
	return sum, nil
}

// checkedMul returns a*b or ErrIntegerOverflow.
func checkedMul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d * %d", ErrIntegerOverflow, a, b)
	}
	return lo, nil
}

// checkedMul32 returns a*b or ErrIntegerOverflow if it does not fit 32 bits.
func checkedMul32(a, b uint32) (uint32, error) {
	p := uint64(a) * uint64(b)
	if p > 1<<32-1 {
		return 0, fmt.Errorf("%w: %d * %d", ErrIntegerOverflow, a, b)
	}
	return uint32(p), nil
}

// roundUp rounds v up to a multiple of alignment. It returns
// ErrIntegerOverflow when the result does not fit.
func roundUp(v, alignment uint64) (uint64, error) {
	if alignment == 0 {
		panic("vkres: zero alignment")
	}
	rem := v % alignment
	if rem == 0 {
		return v, nil
	}
	return checkedAdd(v, alignment-rem)
}

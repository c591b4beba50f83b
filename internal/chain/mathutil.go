package chain

import "math/bits"

// SafeAdd adds x and y, reporting overflow instead of wrapping.
func SafeAdd(x, y uint64) (sum uint64, overflow bool) {
	sum, carry := bits.Add64(x, y, 0)
	return sum, carry != 0
}

// SafeMul multiplies x and y, reporting overflow instead of wrapping.
func SafeMul(x, y uint64) (product uint64, overflow bool) {
	hi, lo := bits.Mul64(x, y)
	return lo, hi != 0
}

// AbsoluteDifference returns |x - y| without risking the underflow a naive
// x - y invites when the operands are unsigned.
func AbsoluteDifference(x, y uint64) uint64 {
	if x > y {
		return x - y
	}
	return y - x
}

// CeilDiv returns ceil(x / y) for y != 0.
func CeilDiv(x, y uint64) uint64 {
	if x == 0 {
		return 0
	}
	return (x-1)/y + 1
}

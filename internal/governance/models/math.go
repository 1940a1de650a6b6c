package models

import "math/bits"

// mulDiv returns floor(a*b/d) without intermediate overflow. d must be
// non-zero and the result must fit in 64 bits, which holds when b <= d.
func mulDiv(a, b, d uint64) uint64 {
	hi, lo := bits.Mul64(a, b)
	q, _ := bits.Div64(hi, lo, d)
	return q
}

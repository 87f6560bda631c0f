package field

import (
	"math/big"

	"github.com/holiman/uint256"
)

// Field is the arithmetic needed to arithmetize trace data over a prime
// scalar field. E is the element type and is handled by value.
type Field[E any] interface {
	Zero() E
	One() E
	Add(a, b E) E
	Mul(a, b E) E
	FromUint64(v uint64) E
	// FromBytesBE interprets b as a big-endian integer reduced modulo the field order.
	FromBytesBE(b []byte) E
	Equal(a, b E) bool
	// Capacity is the number of bits that always fit in an element without reduction.
	Capacity() int
	BigInt(e E) *big.Int
}

// Pow returns x^n.
func Pow[E any](f Field[E], x E, n int) E {
	res := f.One()
	for i := 0; i < n; i++ {
		res = f.Mul(res, x)
	}
	return res
}

// Horner folds values as acc = acc*base + v, starting from zero.
func Horner[E any](f Field[E], base E, values []E) E {
	acc := f.Zero()
	for _, v := range values {
		acc = f.Add(f.Mul(acc, base), v)
	}
	return acc
}

// HornerBytes is Horner over byte values.
func HornerBytes[E any](f Field[E], base E, bz []byte) E {
	acc := f.Zero()
	for _, b := range bz {
		acc = f.Add(f.Mul(acc, base), f.FromUint64(uint64(b)))
	}
	return acc
}

// WordLoHi splits a 256-bit word into its low and high 128-bit halves.
func WordLoHi[E any](f Field[E], w *uint256.Int) (lo, hi E) {
	bz := w.Bytes32()
	return f.FromBytesBE(bz[16:]), f.FromBytesBE(bz[:16])
}

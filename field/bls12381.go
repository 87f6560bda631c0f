package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
)

// BLS12381 is the scalar field of BLS12-381.
type BLS12381 struct{}

var _ Field[fr.Element] = BLS12381{}

func (BLS12381) Zero() fr.Element {
	return fr.Element{}
}

func (BLS12381) One() fr.Element {
	return fr.One()
}

func (BLS12381) Add(a, b fr.Element) fr.Element {
	var r fr.Element
	r.Add(&a, &b)
	return r
}

func (BLS12381) Mul(a, b fr.Element) fr.Element {
	var r fr.Element
	r.Mul(&a, &b)
	return r
}

func (BLS12381) FromUint64(v uint64) fr.Element {
	var r fr.Element
	r.SetUint64(v)
	return r
}

func (BLS12381) FromBytesBE(b []byte) fr.Element {
	var r fr.Element
	r.SetBigInt(new(big.Int).SetBytes(b))
	return r
}

func (BLS12381) Equal(a, b fr.Element) bool {
	return a.Equal(&b)
}

func (BLS12381) Capacity() int {
	return fr.Bits - 1
}

func (BLS12381) BigInt(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

func (BLS12381) Curve() ecc.ID {
	return ecc.BLS12_381
}

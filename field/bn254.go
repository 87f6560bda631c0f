package field

import (
	"math/big"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
)

// BN254 is the scalar field of BN254, the field groth16 circuits in this
// module are compiled over.
type BN254 struct{}

var _ Field[fr.Element] = BN254{}

func (BN254) Zero() fr.Element {
	return fr.Element{}
}

func (BN254) One() fr.Element {
	return fr.One()
}

func (BN254) Add(a, b fr.Element) fr.Element {
	var r fr.Element
	r.Add(&a, &b)
	return r
}

func (BN254) Mul(a, b fr.Element) fr.Element {
	var r fr.Element
	r.Mul(&a, &b)
	return r
}

func (BN254) FromUint64(v uint64) fr.Element {
	var r fr.Element
	r.SetUint64(v)
	return r
}

func (BN254) FromBytesBE(b []byte) fr.Element {
	var r fr.Element
	r.SetBigInt(new(big.Int).SetBytes(b))
	return r
}

func (BN254) Equal(a, b fr.Element) bool {
	return a.Equal(&b)
}

func (BN254) Capacity() int {
	return fr.Bits - 1
}

func (BN254) BigInt(e fr.Element) *big.Int {
	return e.BigInt(new(big.Int))
}

// Curve returns the curve whose scalar field this is.
func (BN254) Curve() ecc.ID {
	return ecc.BN254
}

// RandomBN254 samples a uniformly random element, used for test challenges.
func RandomBN254() (fr.Element, error) {
	var r fr.Element
	_, err := r.SetRandom()
	return r, err
}

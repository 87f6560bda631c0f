package circuit

import (
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	"github.com/consensys/gnark/std/math/uints"
	gnark_test "github.com/consensys/gnark/test"
	"github.com/kysee/zk-arith/publicdata"
	"github.com/stretchr/testify/require"
)

func TestPublicInputCircuit_IsSolved(t *testing.T) {
	pd := loadPublicData(t)
	witness := NewPublicInputAssignment(pd)

	assert := gnark_test.NewAssert(t)
	err := gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	assert.NoError(err, "Circuit constraints should be satisfied")
}

func TestPublicInputCircuit_DigestHalves(t *testing.T) {
	pd := loadPublicData(t)
	witness := NewPublicInputAssignment(pd)

	hi, lo := publicdata.SplitDigest(pd.Digest())
	require.Equal(t, hi, witness.DigestHi)
	require.Equal(t, lo, witness.DigestLo)

	witness.DigestLo = new(big.Int).Add(lo, big.NewInt(1))
	err := gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "wrong low half must not solve")

	witness = NewPublicInputAssignment(pd)
	witness.DigestHi, witness.DigestLo = lo, hi
	err = gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "swapped halves must not solve")
}

func TestPublicInputCircuit_BlockHashMismatch(t *testing.T) {
	pd := loadPublicData(t)
	// the digest stays consistent with the mutated preimage, only the
	// block table disagrees
	pd.BlockHash[31] ^= 0x01
	witness := NewPublicInputAssignment(pd)

	err := gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "block hash cross-check must fail")
}

func TestPublicInputCircuit_KeccakTable(t *testing.T) {
	pd := loadPublicData(t)

	// claimed output differs from the hash of the row input
	digest := pd.Digest()
	witness := NewPublicInputAssignment(pd)
	witness.Keccak[0].Output[0] = uints.NewU8(digest[0] ^ 0x01)
	err := gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "forged keccak output must not solve")

	// relation missing from the table
	witness = NewPublicInputAssignment(pd)
	witness.Keccak[0] = DisabledKeccakRow()
	err = gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "digest lookup must miss")

	// relation in another row
	witness = NewPublicInputAssignment(pd)
	witness.Keccak[0], witness.Keccak[1] = witness.Keccak[1], witness.Keccak[0]
	err = gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.NoError(t, err)
}

func TestPublicInputCircuit_InvalidByte(t *testing.T) {
	pd := loadPublicData(t)
	witness := NewPublicInputAssignment(pd)
	witness.Fields[publicdata.FieldGraffiti][0] = uints.U8{Val: 256}

	err := gnark_test.IsSolved(&PublicInputCircuit{}, witness, ecc.BN254.ScalarField())
	require.Error(t, err, "out of range byte must not solve")
}

func TestPublicInputCircuit_Compile(t *testing.T) {
	if testing.Short() {
		t.Skip("compiling the keccak table is slow")
	}
	ccs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &PublicInputCircuit{})
	require.NoError(t, err)
	require.GreaterOrEqual(t, ccs.GetNbPublicVariables(), 3)
	t.Logf("PublicInputCircuit has %d constraints", ccs.GetNbConstraints())
}

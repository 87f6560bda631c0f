package circuit

import (
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/backend"
	"github.com/consensys/gnark/backend/groth16"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/constraint/solver"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
	gnark_test "github.com/consensys/gnark/test"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/field"
	"github.com/kysee/zk-arith/rwtable"
	"github.com/stretchr/testify/require"
)

const testChunkRows = 8

var (
	fingerprintCCS constraint.ConstraintSystem
	fingerprintPK  groth16.ProvingKey
	fingerprintVK  groth16.VerifyingKey
)

type foldedChunk struct {
	table      *rwtable.Table
	prev, next rwtable.Fingerprints[fr.Element]
}

func foldFixtureChunks(t *testing.T, ch rwtable.Challenges[fr.Element]) []foldedChunk {
	_, block := loadBlock(t)
	chunks, err := block.Chunks(testChunkRows)
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	chain := rwtable.NewFingerprintChain[fr.Element](field.BN254{}, ch)
	var out []foldedChunk
	for _, chunk := range chunks {
		table, err := rwtable.Materialize(chunk.Operations, testChunkRows, chunk.Context.IsFirst())
		require.NoError(t, err)
		require.NoError(t, rwtable.CheckContinuity(table.Chronological))
		prev, next := chain.Fold(table)
		out = append(out, foldedChunk{table: table, prev: prev, next: next})
	}
	return out
}

func randomChallenges(t *testing.T) rwtable.Challenges[fr.Element] {
	alpha, err := field.RandomBN254()
	require.NoError(t, err)
	gamma, err := field.RandomBN254()
	require.NoError(t, err)
	return rwtable.Challenges[fr.Element]{Alpha: alpha, Gamma: gamma}
}

func TestRwFingerprintCircuit_IsSolved(t *testing.T) {
	ch := randomChallenges(t)
	chunks := foldFixtureChunks(t, ch)
	require.Equal(t, chunks[0].next, chunks[1].prev)

	for i, c := range chunks {
		witness := NewRwFingerprintAssignment(c.table, ch, c.prev, c.next)
		err := gnark_test.IsSolved(NewRwFingerprintCircuit(testChunkRows), witness, ecc.BN254.ScalarField())
		require.NoError(t, err, "chunk %d", i)
	}
}

func TestRwFingerprintCircuit_WrongNext(t *testing.T) {
	ch := randomChallenges(t)
	chunks := foldFixtureChunks(t, ch)

	// the second chunk cannot start from the first chunk's start value
	c := chunks[1]
	witness := NewRwFingerprintAssignment(c.table, ch, chunks[0].prev, c.next)
	err := gnark_test.IsSolved(NewRwFingerprintCircuit(testChunkRows), witness, ecc.BN254.ScalarField())
	require.Error(t, err)
}

func TestRwFingerprintCircuit_NotPermutation(t *testing.T) {
	ch := randomChallenges(t)
	c := foldFixtureChunks(t, ch)[0]

	tampered := *c.table
	tampered.Chronological = append([]rwtable.Row(nil), c.table.Chronological...)
	tampered.Chronological[2].Value = *uint256.NewInt(0xdead)

	// fingerprints are consistent with the tampered table, the multisets are not
	next := c.next
	next.Chronological = rwtable.Fingerprint[fr.Element](field.BN254{}, tampered.Chronological, ch, c.prev.Chronological)

	witness := NewRwFingerprintAssignment(&tampered, ch, c.prev, next)
	err := gnark_test.IsSolved(NewRwFingerprintCircuit(testChunkRows), witness, ecc.BN254.ScalarField())
	require.Error(t, err)
}

func gammaCombination(cells [rwtable.NumColumns]fr.Element, gamma fr.Element) fr.Element {
	var acc fr.Element
	pow := fr.One()
	for j := range cells {
		var term fr.Element
		term.Mul(&cells[j], &pow)
		acc.Add(&acc, &term)
		pow.Mul(&pow, &gamma)
	}
	return acc
}

func TestRwFingerprintCircuit_GammaCollision(t *testing.T) {
	ch := randomChallenges(t)
	c := foldFixtureChunks(t, ch)[0]
	witness := NewRwFingerprintAssignment(c.table, ch, c.prev, c.next)

	// value_lo + 1 and value_hi - 1/γ keep the γ combination of the row, so
	// both public folds still hold for a table that is not a permutation
	f := field.BN254{}
	cells := rwtable.Cells[fr.Element](f, &c.table.Chronological[2])
	forged := cells
	one := f.One()
	var gammaInv fr.Element
	gammaInv.Inverse(&ch.Gamma)
	forged[8].Add(&cells[8], &one)
	forged[9].Sub(&cells[9], &gammaInv)
	require.Equal(t, gammaCombination(cells, ch.Gamma), gammaCombination(forged, ch.Gamma))

	witness.Chronological[2][8] = f.BigInt(forged[8])
	witness.Chronological[2][9] = f.BigInt(forged[9])
	err := gnark_test.IsSolved(NewRwFingerprintCircuit(testChunkRows), witness, ecc.BN254.ScalarField())
	require.Error(t, err)
}

func TestRwFingerprintCircuit_CellOutOfRange(t *testing.T) {
	ch := randomChallenges(t)
	c := foldFixtureChunks(t, ch)[0]
	witness := NewRwFingerprintAssignment(c.table, ch, c.prev, c.next)

	// is_write must be boolean
	witness.TraceOrder[1][1] = 2
	err := gnark_test.IsSolved(NewRwFingerprintCircuit(testChunkRows), witness, ecc.BN254.ScalarField())
	require.Error(t, err)
}

func TestRwFingerprintCircuit(t *testing.T) {
	if testing.Short() {
		t.Skip("groth16 setup is slow")
	}
	onceSetupCircuit()

	ch := randomChallenges(t)
	for i, c := range foldFixtureChunks(t, ch) {
		witness := NewRwFingerprintAssignment(c.table, ch, c.prev, c.next)

		fullWitness, err := frontend.NewWitness(witness, ecc.BN254.ScalarField())
		require.NoError(t, err, "Failed to create witness")

		proof, err := groth16.Prove(fingerprintCCS, fingerprintPK, fullWitness,
			backend.WithProverHashToFieldFunction(sha256.New()),
			backend.WithSolverOptions(
				solver.WithLogger(gnarkLogger),
			))
		require.NoError(t, err, "Proof generation failed for chunk %d", i)

		publicWitness, err := frontend.NewWitness(witness, ecc.BN254.ScalarField(), frontend.PublicOnly())
		require.NoError(t, err, "Failed to create public witness")

		err = groth16.Verify(proof, fingerprintVK, publicWitness, backend.WithVerifierHashToFieldFunction(sha256.New()))
		require.NoError(t, err, "Proof verification failed for chunk %d", i)
	}
}

func onceSetupCircuit() {
	if fingerprintCCS != nil {
		fmt.Println("Circuit already compiled and setup")
		return
	}

	buildDir := filepath.Join(rootDir, ".build")
	if err := os.MkdirAll(buildDir, 0o755); err != nil {
		panic(err)
	}
	name := fmt.Sprintf("RwFingerprintCircuit_%d", testChunkRows)
	ccsPath := filepath.Join(buildDir, name+".ccs")
	pkPath := filepath.Join(buildDir, name+".pk")
	vkPath := filepath.Join(buildDir, name+".vk")

	var err error
	if fCcs, openErr := os.Open(ccsPath); openErr != nil {
		fmt.Println("Compiling RwFingerprintCircuit circuit...")
		fingerprintCCS, err = frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, NewRwFingerprintCircuit(testChunkRows))
		if err != nil {
			panic(err)
		}
		if fCcs, err = os.Create(ccsPath); err == nil {
			_, _ = fingerprintCCS.WriteTo(fCcs)
			fCcs.Close()
		}
	} else {
		fmt.Println("Loading RwFingerprintCircuit circuit...")
		fingerprintCCS = groth16.NewCS(ecc.BN254)
		_, err = fingerprintCCS.ReadFrom(fCcs)
		fCcs.Close()
		if err != nil {
			panic(err)
		}
	}
	fmt.Printf("✓ Circuit has %d constraints, %d public inputs\n", fingerprintCCS.GetNbConstraints(), fingerprintCCS.GetNbPublicVariables())

	fpk, err0 := os.Open(pkPath)
	fvk, err1 := os.Open(vkPath)
	if err0 != nil || err1 != nil {
		fmt.Println("Generating proving and verifying keys...")
		fingerprintPK, fingerprintVK, err = groth16.Setup(fingerprintCCS)
		if err != nil {
			panic(err)
		}
		if f, err := os.Create(pkPath); err == nil {
			_, _ = fingerprintPK.WriteTo(f)
			f.Close()
		}
		if f, err := os.Create(vkPath); err == nil {
			_, _ = fingerprintVK.WriteTo(f)
			f.Close()
		}
	} else {
		fmt.Println("Loading proving and verifying keys...")
		defer fpk.Close()
		defer fvk.Close()
		fingerprintPK = groth16.NewProvingKey(ecc.BN254)
		fingerprintVK = groth16.NewVerifyingKey(ecc.BN254)
		if _, err := fingerprintPK.ReadFrom(fpk); err != nil {
			panic(err)
		}
		if _, err := fingerprintVK.ReadFrom(fvk); err != nil {
			panic(err)
		}
	}
	fmt.Println("✓ Setup complete")
}

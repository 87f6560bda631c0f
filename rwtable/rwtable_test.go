package rwtable

import (
	"testing"

	blsfr "github.com/consensys/gnark-crypto/ecc/bls12-381/fr"
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/field"
	"github.com/kysee/zk-arith/operation"
	"github.com/stretchr/testify/require"
)

var bn254 = field.BN254{}

func word(v uint64) uint256.Int {
	return *uint256.NewInt(v)
}

// testOps records a small log touching a stack slot and a storage slot.
func testOps(t *testing.T) *operation.Container {
	stack := operation.Target{Kind: operation.KindStack, ID: 1, Key: word(1023)}
	storage := operation.Target{Kind: operation.KindStorage, Address: common.HexToAddress("0xaa"), Key: word(5)}

	ops := operation.NewContainer()
	for _, op := range []operation.Operation{
		operation.NewOperation(1, true, 1, stack, word(0), word(7)),
		operation.NewOperation(2, false, 1, storage, word(100), word(0)),
		operation.NewOperation(3, false, 1, stack, word(7), word(0)),
		operation.NewOperation(4, true, 1, storage, word(100), word(200)),
		operation.NewOperation(5, true, 1, stack, word(7), word(9)),
	} {
		_, err := ops.Insert(op)
		require.NoError(t, err)
	}
	return ops
}

func randomChallenges(t *testing.T) Challenges[fr.Element] {
	alpha, err := field.RandomBN254()
	require.NoError(t, err)
	gamma, err := field.RandomBN254()
	require.NoError(t, err)
	return Challenges[fr.Element]{Alpha: alpha, Gamma: gamma}
}

func TestMaterializeBudget(t *testing.T) {
	ops := testOps(t)
	for budget := 0; budget <= 10; budget++ {
		for _, first := range []bool{true, false} {
			table, err := Materialize(ops, budget, first)
			if budget < ops.Len() {
				require.ErrorIs(t, err, ErrRowBudgetExceeded, "budget %d", budget)
				continue
			}
			require.NoError(t, err, "budget %d", budget)
			require.Len(t, table.TraceOrder, budget)
			require.Len(t, table.Chronological, budget)
			require.Equal(t, budget-ops.Len(), table.Padding)
			require.Equal(t, ops.Len(), table.Real())
		}
	}
}

func TestMaterializeEmpty(t *testing.T) {
	empty := operation.NewContainer()

	table, err := Materialize(empty, 3, true)
	require.NoError(t, err)
	require.Equal(t, operation.KindStart, table.TraceOrder[0].Tag)
	require.Equal(t, uint64(1), table.TraceOrder[1].RWC)
	require.Equal(t, uint64(2), table.TraceOrder[2].RWC)

	_, err = Materialize(empty, 3, false)
	require.ErrorIs(t, err, ErrEmptyChunk)

	table, err = Materialize(empty, 0, false)
	require.NoError(t, err)
	require.Empty(t, table.TraceOrder)
}

func TestMaterializeSentinels(t *testing.T) {
	ops := testOps(t)

	table, err := Materialize(ops, 8, true)
	require.NoError(t, err)
	require.Equal(t, operation.KindStart, table.TraceOrder[0].Tag)
	require.Equal(t, uint64(0), table.TraceOrder[0].RWC)
	require.Equal(t, operation.KindStart, table.Chronological[0].Tag)
	require.Equal(t, uint64(1), table.TraceOrder[1].RWC)
	require.Equal(t, PaddingRow(6), table.TraceOrder[6])
	require.Equal(t, PaddingRow(7), table.TraceOrder[7])
	require.Equal(t, PaddingRow(7), table.Chronological[7])

	table, err = Materialize(ops, 7, false)
	require.NoError(t, err)
	require.Equal(t, uint64(1), table.TraceOrder[0].RWC)
	require.Equal(t, PaddingRow(6), table.TraceOrder[5])
	require.Equal(t, PaddingRow(7), table.TraceOrder[6])

	// a full first chunk has no room for the start row
	table, err = Materialize(ops, ops.Len(), true)
	require.NoError(t, err)
	require.Equal(t, uint64(1), table.TraceOrder[0].RWC)
	require.Zero(t, table.Padding)
}

func TestChronologicalOrder(t *testing.T) {
	table, err := Materialize(testOps(t), 6, true)
	require.NoError(t, err)

	var rwcs []uint64
	for _, r := range table.Chronological {
		rwcs = append(rwcs, r.RWC)
	}
	// stack sorts before storage
	require.Equal(t, []uint64{0, 1, 3, 5, 2, 4}, rwcs)
	require.NoError(t, CheckContinuity(table.Chronological))
}

func TestCheckContinuity(t *testing.T) {
	table, err := Materialize(testOps(t), 5, false)
	require.NoError(t, err)

	broken := append([]Row(nil), table.Chronological...)
	broken[1].ValuePrev = word(8)
	broken[1].Value = word(8)
	require.ErrorIs(t, CheckContinuity(broken), ErrInconsistentState)

	broken = append([]Row(nil), table.Chronological...)
	broken[0].Value = word(1)
	require.ErrorIs(t, CheckContinuity(broken), ErrInconsistentState)

	broken = append([]Row(nil), table.Chronological...)
	broken[0], broken[1] = broken[1], broken[0]
	require.ErrorIs(t, CheckContinuity(broken), ErrInconsistentState)

	broken = append([]Row(nil), table.Chronological...)
	broken[0], broken[4] = broken[4], broken[0]
	require.ErrorIs(t, CheckContinuity(broken), ErrInconsistentState)
}

func TestFingerprintAssociative(t *testing.T) {
	table, err := Materialize(testOps(t), 9, true)
	require.NoError(t, err)
	ch := randomChallenges(t)
	one := bn254.One()

	for _, rows := range [][]Row{table.TraceOrder, table.Chronological} {
		whole := Fingerprint(bn254, rows, ch, one)
		for split := 0; split <= len(rows); split++ {
			mid := Fingerprint(bn254, rows[:split], ch, one)
			got := Fingerprint(bn254, rows[split:], ch, mid)
			require.True(t, got.Equal(&whole), "split at %d", split)
		}
	}
}

func TestFingerprintAssociativeBLS12381(t *testing.T) {
	table, err := Materialize(testOps(t), 9, true)
	require.NoError(t, err)

	f := field.BLS12381{}
	var alpha, gamma blsfr.Element
	_, err = alpha.SetRandom()
	require.NoError(t, err)
	_, err = gamma.SetRandom()
	require.NoError(t, err)
	ch := Challenges[blsfr.Element]{Alpha: alpha, Gamma: gamma}
	one := f.One()

	for _, rows := range [][]Row{table.TraceOrder, table.Chronological} {
		whole := Fingerprint[blsfr.Element](f, rows, ch, one)
		for split := 0; split <= len(rows); split++ {
			mid := Fingerprint[blsfr.Element](f, rows[:split], ch, one)
			got := Fingerprint[blsfr.Element](f, rows[split:], ch, mid)
			require.True(t, got.Equal(&whole), "split at %d", split)
		}
	}

	chain := NewFingerprintChain[blsfr.Element](f, ch)
	_, next := chain.Fold(table)
	want := Fingerprint[blsfr.Element](f, table.TraceOrder, ch, one)
	require.True(t, next.TraceOrder.Equal(&want))
}

func TestFingerprintSensitive(t *testing.T) {
	table, err := Materialize(testOps(t), 5, false)
	require.NoError(t, err)
	ch := randomChallenges(t)

	fp := Fingerprint(bn254, table.TraceOrder, ch, bn254.One())
	mutated := append([]Row(nil), table.TraceOrder...)
	mutated[2].Value = word(8)
	other := Fingerprint(bn254, mutated, ch, bn254.One())
	require.False(t, fp.Equal(&other))
}

func TestFingerprintChain(t *testing.T) {
	ops := testOps(t)
	ch := randomChallenges(t)
	chain := NewFingerprintChain[fr.Element](bn254, ch)

	first, err := Materialize(ops.Slice(0, 2), 3, true)
	require.NoError(t, err)
	second, err := Materialize(ops.Slice(2, 5), 3, false)
	require.NoError(t, err)

	prev0, next0 := chain.Fold(first)
	one := bn254.One()
	require.True(t, prev0.TraceOrder.Equal(&one))
	require.True(t, prev0.Chronological.Equal(&one))

	prev1, next1 := chain.Fold(second)
	require.Equal(t, next0, prev1)
	require.Equal(t, next1, chain.Current())

	whole := Fingerprint(bn254, append(append([]Row(nil), first.TraceOrder...), second.TraceOrder...), ch, one)
	require.True(t, whole.Equal(&next1.TraceOrder))
}

func TestCellsSplitWords(t *testing.T) {
	var key uint256.Int
	key.Lsh(uint256.NewInt(3), 128)
	key.Or(&key, uint256.NewInt(4))
	row := Row{RWC: 9, IsWrite: true, Tag: operation.KindMemory, Key: key}

	cells := Cells[fr.Element](bn254, &row)
	require.Equal(t, bn254.FromUint64(9), cells[0])
	require.Equal(t, bn254.FromUint64(1), cells[1])
	require.Equal(t, bn254.FromUint64(uint64(operation.KindMemory)), cells[2])
	require.Equal(t, bn254.FromUint64(4), cells[6])
	require.Equal(t, bn254.FromUint64(3), cells[7])
}

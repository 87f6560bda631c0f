package publicdata

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kysee/zk-arith/field"
)

// Challenges are the random bases of the public input accumulation.
// KeccakInput folds hash preimages and EvmWord folds 32-byte words.
type Challenges[E any] struct {
	KeccakInput E
	EvmWord     E
}

// KeccakRow is one (enabled, input rlc, input length, output rlc) relation.
type KeccakRow[E any] struct {
	Enabled   E
	InputRLC  E
	Len       E
	OutputRLC E
}

// KeccakTable is the externally supplied keccak relation table the digest
// is looked up in. Row zero is the disabled all-zero row.
type KeccakTable[E any] struct {
	f    field.Field[E]
	ch   Challenges[E]
	rows []KeccakRow[E]
}

func NewKeccakTable[E any](f field.Field[E], ch Challenges[E]) *KeccakTable[E] {
	zero := f.Zero()
	return &KeccakTable[E]{
		f:    f,
		ch:   ch,
		rows: []KeccakRow[E]{{Enabled: zero, InputRLC: zero, Len: zero, OutputRLC: zero}},
	}
}

// Add hashes input and records the relation.
func (t *KeccakTable[E]) Add(input []byte) common.Hash {
	out := crypto.Keccak256Hash(input)
	t.rows = append(t.rows, KeccakRow[E]{
		Enabled:   t.f.One(),
		InputRLC:  field.HornerBytes(t.f, t.ch.KeccakInput, input),
		Len:       t.f.FromUint64(uint64(len(input))),
		OutputRLC: field.HornerBytes(t.f, t.ch.EvmWord, out[:]),
	})
	return out
}

func (t *KeccakTable[E]) Rows() []KeccakRow[E] {
	return t.rows
}

func (t *KeccakTable[E]) Contains(row KeccakRow[E]) bool {
	for _, r := range t.rows {
		if t.f.Equal(r.Enabled, row.Enabled) &&
			t.f.Equal(r.InputRLC, row.InputRLC) &&
			t.f.Equal(r.Len, row.Len) &&
			t.f.Equal(r.OutputRLC, row.OutputRLC) {
			return true
		}
	}
	return false
}

package publicdata

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/field"
)

// BlockHashIndex is the position of the block's own hash in the block
// table value column.
const BlockHashIndex = 7

// Row is one byte row of the public input region.
type Row[E any] struct {
	Byte   E
	Start  bool
	End    bool
	UseRLC bool
	// FieldAcc folds the bytes of the current field.
	FieldAcc E
	// RLCAcc folds the bytes of every field of the current segment.
	RLCAcc E
	LenAcc uint64
}

// FieldCells are the designated cells of an assigned field.
type FieldCells[E any] struct {
	Value  E
	RLCAcc E
	Bytes  []E
}

// Layout is the assigned public input region: the nine preimage fields,
// the keccak lookup row, then the high and low halves of the digest.
type Layout[E any] struct {
	f          field.Field[E]
	Challenges Challenges[E]
	Rows       []Row[E]
	Fields     [FieldCount]FieldCells[E]
	Keccak     KeccakRow[E]
	DigestHi   FieldCells[E]
	DigestLo   FieldCells[E]
	BlockTable []E
	Instances  [2]E
}

// UseRLC reports whether a field of n bytes needs a random base to stay
// injective in a field of the given capacity.
func UseRLC(n, capacity int) bool {
	return n*8 > capacity
}

func fieldBase[E any](f field.Field[E], n int, ch Challenges[E]) (E, bool) {
	if UseRLC(n, f.Capacity()) {
		return ch.EvmWord, true
	}
	return f.FromUint64(256), false
}

// BlockTableValues returns the block table value column: coinbase,
// timestamp, number, difficulty, gas limit, base fee, chain id, block hash
// and the history hashes. Words are folded with the evm word challenge.
func BlockTableValues[E any](f field.Field[E], bv *BlockValues, evmWord E) []E {
	rlcWord := func(w *uint256.Int) E {
		bz := w.Bytes32()
		return field.HornerBytes(f, evmWord, bz[:])
	}
	rlcHash := func(h common.Hash) E {
		return field.HornerBytes(f, evmWord, h[:])
	}
	values := []E{
		f.FromBytesBE(bv.Coinbase[:]),
		f.FromUint64(bv.Timestamp),
		f.FromUint64(bv.Number),
		rlcWord(&bv.Difficulty),
		f.FromUint64(bv.GasLimit),
		rlcWord(&bv.BaseFee),
		f.FromUint64(bv.ChainID),
		rlcHash(bv.BlockHash),
	}
	for _, h := range bv.HistoryHashes {
		values = append(values, rlcHash(h))
	}
	return values
}

// assignField appends the rows of one field and returns its designated cells.
func (l *Layout[E]) assignField(bz []byte, rlcBase E, rlcAcc *E, lenAcc *uint64) FieldCells[E] {
	f := l.f
	base, useRLC := fieldBase(f, len(bz), l.Challenges)
	cells := FieldCells[E]{Value: f.Zero(), RLCAcc: *rlcAcc, Bytes: make([]E, len(bz))}
	acc := f.Zero()
	for i, b := range bz {
		v := f.FromUint64(uint64(b))
		acc = f.Add(f.Mul(acc, base), v)
		*rlcAcc = f.Add(f.Mul(*rlcAcc, rlcBase), v)
		*lenAcc++
		l.Rows = append(l.Rows, Row[E]{
			Byte:     v,
			Start:    i == 0,
			End:      i == len(bz)-1,
			UseRLC:   useRLC,
			FieldAcc: acc,
			RLCAcc:   *rlcAcc,
			LenAcc:   *lenAcc,
		})
		cells.Bytes[i] = v
	}
	cells.Value = acc
	cells.RLCAcc = *rlcAcc
	return cells
}

// AssignRows lays the public data out as the accumulation region.
func AssignRows[E any](f field.Field[E], pd *PublicData, ch Challenges[E]) *Layout[E] {
	l := &Layout[E]{
		f:          f,
		Challenges: ch,
		Rows:       make([]Row[E], 0, PreimageLen+2*HalfBytes),
		BlockTable: BlockTableValues(f, &pd.Block, ch.EvmWord),
	}

	rlcAcc := f.Zero()
	var lenAcc uint64
	for i, bz := range pd.Fields() {
		l.Fields[i] = l.assignField(bz[:], ch.KeccakInput, &rlcAcc, &lenAcc)
	}

	digest := pd.Digest()
	l.Keccak = KeccakRow[E]{
		Enabled:   f.One(),
		InputRLC:  rlcAcc,
		Len:       f.FromUint64(lenAcc),
		OutputRLC: field.HornerBytes(f, ch.EvmWord, digest[:]),
	}

	rlcAcc = f.Zero()
	l.DigestHi = l.assignField(digest[:HalfBytes], ch.EvmWord, &rlcAcc, &lenAcc)
	l.DigestLo = l.assignField(digest[HalfBytes:], ch.EvmWord, &rlcAcc, &lenAcc)
	l.Instances = Instances(f, digest)
	return l
}

// Verify checks the assigned region against its constraints, with keccak
// as the lookup table of the digest relation.
func (l *Layout[E]) Verify(keccak *KeccakTable[E]) error {
	f := l.f
	if len(l.Rows) != PreimageLen+2*HalfBytes {
		return fmt.Errorf("%w: %d rows", ErrInvalidLength, len(l.Rows))
	}

	bytes := make(map[string]struct{}, 256)
	for i := 0; i < 256; i++ {
		bytes[f.BigInt(f.FromUint64(uint64(i))).String()] = struct{}{}
	}
	for i := range l.Rows {
		if _, ok := bytes[f.BigInt(l.Rows[i].Byte).String()]; !ok {
			return fmt.Errorf("%w: row %d", ErrInvalidByte, i)
		}
	}

	// preimage fields
	rlcAcc := f.Zero()
	for i := 0; i < FieldCount; i++ {
		rows := l.Rows[i*FieldBytes : (i+1)*FieldBytes]
		if err := l.verifyField(FieldNames[i], rows, &l.Fields[i], l.Challenges.KeccakInput, &rlcAcc); err != nil {
			return err
		}
	}
	if !f.Equal(l.Fields[FieldBlockHash].Value, l.BlockTable[BlockHashIndex]) {
		return ErrBlockHashMismatch
	}

	if !f.Equal(l.Keccak.Enabled, f.One()) ||
		!f.Equal(l.Keccak.InputRLC, l.Fields[FieldCount-1].RLCAcc) ||
		!f.Equal(l.Keccak.Len, f.FromUint64(PreimageLen)) {
		return fmt.Errorf("%w: keccak row does not match the preimage", ErrAccumulation)
	}
	if !keccak.Contains(l.Keccak) {
		return ErrDigestLookupMiss
	}

	// digest halves
	rlcAcc = f.Zero()
	if err := l.verifyField("digest_hi", l.Rows[PreimageLen:PreimageLen+HalfBytes], &l.DigestHi, l.Challenges.EvmWord, &rlcAcc); err != nil {
		return err
	}
	if err := l.verifyField("digest_lo", l.Rows[PreimageLen+HalfBytes:], &l.DigestLo, l.Challenges.EvmWord, &rlcAcc); err != nil {
		return err
	}
	if !f.Equal(l.DigestLo.RLCAcc, l.Keccak.OutputRLC) {
		return fmt.Errorf("%w: digest bytes do not fold to the keccak output", ErrAccumulation)
	}
	if !f.Equal(l.DigestHi.Value, l.Instances[0]) || !f.Equal(l.DigestLo.Value, l.Instances[1]) {
		return fmt.Errorf("%w: digest halves differ from the instances", ErrAccumulation)
	}
	return nil
}

func (l *Layout[E]) verifyField(name string, rows []Row[E], cells *FieldCells[E], rlcBase E, rlcAcc *E) error {
	f := l.f
	base, _ := fieldBase(f, len(rows), l.Challenges)
	acc := f.Zero()
	for i := range rows {
		r := &rows[i]
		if r.Start != (i == 0) || r.End != (i == len(rows)-1) {
			return fmt.Errorf("%w: %s row %d has wrong selectors", ErrAccumulation, name, i)
		}
		acc = f.Add(f.Mul(acc, base), r.Byte)
		if !f.Equal(r.FieldAcc, acc) {
			return fmt.Errorf("%w: %s byte accumulator at row %d", ErrAccumulation, name, i)
		}
		*rlcAcc = f.Add(f.Mul(*rlcAcc, rlcBase), r.Byte)
		if !f.Equal(r.RLCAcc, *rlcAcc) {
			return fmt.Errorf("%w: %s rlc accumulator at row %d", ErrAccumulation, name, i)
		}
	}
	if !f.Equal(cells.Value, acc) || !f.Equal(cells.RLCAcc, *rlcAcc) {
		return fmt.Errorf("%w: %s designated cells", ErrAccumulation, name)
	}
	return nil
}

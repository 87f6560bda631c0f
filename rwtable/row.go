package rwtable

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/field"
	"github.com/kysee/zk-arith/operation"
)

// NumColumns is the width of an RW table row.
const NumColumns = 12

// Row is one RW table row. Value is the value after the access and
// ValuePrev the value before it.
type Row struct {
	RWC       uint64
	IsWrite   bool
	Tag       operation.Kind
	ID        uint64
	Address   common.Address
	FieldTag  uint64
	Key       uint256.Int
	Value     uint256.Int
	ValuePrev uint256.Int
}

func RowFromOperation(op *operation.Operation) Row {
	return Row{
		RWC:       op.RWC,
		IsWrite:   op.IsWrite,
		Tag:       op.Target.Kind,
		ID:        op.Target.ID,
		Address:   op.Target.Address,
		FieldTag:  op.Target.FieldTag,
		Key:       op.Target.Key,
		Value:     op.After,
		ValuePrev: op.Before,
	}
}

// StartRow is the sentinel that opens the table of a block's first chunk.
func StartRow() Row {
	return Row{Tag: operation.KindStart}
}

// PaddingRow fills unused rows. Its rwc keeps the trace order column increasing.
func PaddingRow(rwc uint64) Row {
	return Row{RWC: rwc, Tag: operation.KindPadding}
}

func (r *Row) Sentinel() bool {
	return r.Tag.Sentinel()
}

// Target returns the state location the row touches.
func (r *Row) Target() operation.Target {
	return operation.Target{
		Kind:     r.Tag,
		ID:       r.ID,
		Address:  r.Address,
		FieldTag: r.FieldTag,
		Key:      r.Key,
	}
}

func (r Row) String() string {
	return fmt.Sprintf("%d w=%t %s id=%d addr=%s field=%d key=%s %s->%s",
		r.RWC, r.IsWrite, r.Tag, r.ID, r.Address.Hex(), r.FieldTag,
		r.Key.Hex(), r.ValuePrev.Hex(), r.Value.Hex())
}

// Cells lays the row out as field elements in column order: rwc, is_write,
// tag, id, address, field_tag, key_lo, key_hi, value_lo, value_hi,
// value_prev_lo, value_prev_hi.
func Cells[E any](f field.Field[E], r *Row) [NumColumns]E {
	var isWrite uint64
	if r.IsWrite {
		isWrite = 1
	}
	keyLo, keyHi := field.WordLoHi(f, &r.Key)
	valLo, valHi := field.WordLoHi(f, &r.Value)
	prevLo, prevHi := field.WordLoHi(f, &r.ValuePrev)
	return [NumColumns]E{
		f.FromUint64(r.RWC),
		f.FromUint64(isWrite),
		f.FromUint64(uint64(r.Tag)),
		f.FromUint64(r.ID),
		f.FromBytesBE(r.Address[:]),
		f.FromUint64(r.FieldTag),
		keyLo, keyHi,
		valLo, valHi,
		prevLo, prevHi,
	}
}

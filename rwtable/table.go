package rwtable

import (
	"errors"
	"fmt"

	"github.com/kysee/zk-arith/operation"
)

var (
	ErrRowBudgetExceeded = errors.New("rw row budget exceeded")
	ErrEmptyChunk        = errors.New("empty chunk cannot be padded")
)

// Table is a materialized chunk of the RW log in both orderings. Both
// orderings hold the same multiset of rows.
type Table struct {
	TraceOrder    []Row
	Chronological []Row
	// Padding counts the synthetic rows, the start row included.
	Padding int
}

// Real returns the number of rows backed by an operation.
func (t *Table) Real() int {
	return len(t.TraceOrder) - t.Padding
}

// Materialize lays ops out in exactly budget rows. On the first chunk the
// first free row holds the start sentinel at the head of both orderings;
// the remaining free rows are padding sentinels at the tail.
func Materialize(ops *operation.Container, budget int, isFirstChunk bool) (*Table, error) {
	n := ops.Len()
	if n > budget {
		return nil, fmt.Errorf("%w: %d operations, budget %d", ErrRowBudgetExceeded, n, budget)
	}
	padding := budget - n
	// padding rwcs continue from the last operation, which a later chunk
	// without operations does not have
	if n == 0 && !isFirstChunk && padding > 0 {
		return nil, ErrEmptyChunk
	}

	var head []Row
	if isFirstChunk && padding > 0 {
		head = append(head, StartRow())
	}

	var lastRWC uint64
	if n > 0 {
		lastRWC = ops.At(n - 1).RWC
	}
	tail := make([]Row, padding-len(head))
	for i := range tail {
		tail[i] = PaddingRow(lastRWC + 1 + uint64(i))
	}

	all := ops.Operations()
	traceOrder := make([]Row, 0, budget)
	traceOrder = append(traceOrder, head...)
	for i := range all {
		traceOrder = append(traceOrder, RowFromOperation(&all[i]))
	}
	traceOrder = append(traceOrder, tail...)

	chronological := make([]Row, 0, budget)
	chronological = append(chronological, head...)
	for _, idx := range ops.Chronological() {
		chronological = append(chronological, RowFromOperation(&all[idx]))
	}
	chronological = append(chronological, tail...)

	return &Table{
		TraceOrder:    traceOrder,
		Chronological: chronological,
		Padding:       padding,
	}, nil
}

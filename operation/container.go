package operation

import (
	"errors"
	"fmt"
	"sort"
)

var ErrOutOfOrder = errors.New("operation recorded out of rw counter order")

// Container is the append-only operation log of a block. Insertion order is
// trace order and rw counter order.
type Container struct {
	ops []Operation
}

func NewContainer() *Container {
	return &Container{}
}

// Insert appends op and returns its position in the log.
func (c *Container) Insert(op Operation) (int, error) {
	if n := len(c.ops); n > 0 && c.ops[n-1].RWC >= op.RWC {
		return 0, fmt.Errorf("%w: rwc %d after %d", ErrOutOfOrder, op.RWC, c.ops[n-1].RWC)
	}
	c.ops = append(c.ops, op)
	return len(c.ops) - 1, nil
}

func (c *Container) Len() int {
	return len(c.ops)
}

func (c *Container) At(i int) Operation {
	return c.ops[i]
}

// Operations returns the log in trace order. The returned slice must not be modified.
func (c *Container) Operations() []Operation {
	return c.ops
}

// Slice returns the operations in [from, to) as a new container.
func (c *Container) Slice(from, to int) *Container {
	ops := make([]Operation, to-from)
	copy(ops, c.ops[from:to])
	return &Container{ops: ops}
}

// Chronological returns log positions sorted by target and then rw counter.
func (c *Container) Chronological() []int {
	idx := make([]int, len(c.ops))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		a, b := &c.ops[idx[i]], &c.ops[idx[j]]
		if cmp := a.Target.Compare(b.Target); cmp != 0 {
			return cmp < 0
		}
		return a.RWC < b.RWC
	})
	return idx
}

package operation

import (
	"errors"
	"math"
)

var ErrCounterOverflow = errors.New("rw counter overflow")

// RWCounter issues the sequence number of every state access in a block.
// The zero value is ready to use and issues 1 first.
type RWCounter struct {
	issued uint64
}

func NewRWCounter() *RWCounter {
	return &RWCounter{}
}

// Issue returns the current counter value and advances it.
func (c *RWCounter) Issue() (uint64, error) {
	if c.issued == math.MaxUint64 {
		return 0, ErrCounterOverflow
	}
	c.issued++
	return c.issued, nil
}

// Peek returns the value the next Issue call would return.
func (c *RWCounter) Peek() uint64 {
	return c.issued + 1
}

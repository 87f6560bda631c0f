package types

import (
	"github.com/kysee/zk-arith/types"
)

// Fetcher defines the interface for fetching block traces
type Fetcher interface {
	// Trace retrieves the execution trace of the block to prove
	Trace() (*types.BlockTrace, error)
}

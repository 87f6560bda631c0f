package builder

import (
	"fmt"

	"github.com/kysee/zk-arith/operation"
)

// ChunkContext locates a chunk inside its block. EndRWC is exclusive.
type ChunkContext struct {
	Index      int
	Total      int
	InitialRWC uint64
	EndRWC     uint64
}

func (c ChunkContext) IsFirst() bool {
	return c.Index == 0
}

func (c ChunkContext) IsLast() bool {
	return c.Index == c.Total-1
}

// Chunk is a contiguous slice of a block's operation log proven by one proof.
type Chunk struct {
	Context    ChunkContext
	Operations *operation.Container
}

// Chunks splits the operation log into chunks that fit a table of rowBudget
// rows. The first chunk keeps one row free for the start row.
func (b *Block) Chunks(rowBudget int) ([]Chunk, error) {
	if rowBudget < 2 {
		return nil, fmt.Errorf("row budget %d too small to chunk", rowBudget)
	}

	total := b.Operations.Len()
	var bounds [][2]int
	for from, capacity := 0, rowBudget-1; ; capacity = rowBudget {
		to := min(from+capacity, total)
		bounds = append(bounds, [2]int{from, to})
		if to == total {
			break
		}
		from = to
	}

	chunks := make([]Chunk, len(bounds))
	for i, bd := range bounds {
		ops := b.Operations.Slice(bd[0], bd[1])
		ctx := ChunkContext{Index: i, Total: len(bounds)}
		if ops.Len() > 0 {
			ctx.InitialRWC = ops.At(0).RWC
			ctx.EndRWC = ops.At(ops.Len()-1).RWC + 1
		} else if i > 0 {
			ctx.InitialRWC = chunks[i-1].Context.EndRWC
			ctx.EndRWC = ctx.InitialRWC
		} else {
			ctx.InitialRWC, ctx.EndRWC = 1, 1
		}
		chunks[i] = Chunk{Context: ctx, Operations: ops}
	}
	return chunks, nil
}

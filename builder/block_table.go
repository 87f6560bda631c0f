package builder

import (
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/field"
)

// BlockField tags a block table row.
type BlockField uint64

const (
	BlockFieldCoinbase BlockField = iota + 1
	BlockFieldTimestamp
	BlockFieldNumber
	BlockFieldDifficulty
	BlockFieldGasLimit
	BlockFieldBaseFee
	BlockFieldBlockHash
	BlockFieldChainID
)

// BlockTableRow is one row of the block table. Index is the absolute block
// number for history hash rows and zero otherwise.
type BlockTableRow struct {
	Tag   BlockField
	Index uint64
	Value uint256.Int
}

// TableRows lays out the block table: the header fields, the block hash of
// the block itself, then one row per history hash.
func (c *Context) TableRows() []BlockTableRow {
	word := func(v uint64) uint256.Int { return *uint256.NewInt(v) }

	var coinbase, blockHash uint256.Int
	coinbase.SetBytes(c.Coinbase[:])
	blockHash.SetBytes(c.BlockHash[:])

	rows := []BlockTableRow{
		{Tag: BlockFieldCoinbase, Value: coinbase},
		{Tag: BlockFieldTimestamp, Value: word(c.Timestamp)},
		{Tag: BlockFieldNumber, Value: word(c.Number)},
		{Tag: BlockFieldDifficulty, Value: c.Difficulty},
		{Tag: BlockFieldGasLimit, Value: word(c.GasLimit)},
		{Tag: BlockFieldBaseFee, Value: c.BaseFee},
		{Tag: BlockFieldChainID, Value: word(c.ChainID)},
		{Tag: BlockFieldBlockHash, Index: c.Number, Value: blockHash},
	}

	first := c.Number - uint64(len(c.HistoryHashes))
	for i, h := range c.HistoryHashes {
		var v uint256.Int
		v.SetBytes(h[:])
		rows = append(rows, BlockTableRow{Tag: BlockFieldBlockHash, Index: first + uint64(i), Value: v})
	}
	return rows
}

// BlockTableCells returns the (tag, index, value lo, value hi) cells of a row.
func BlockTableCells[E any](f field.Field[E], row BlockTableRow) [4]E {
	lo, hi := field.WordLoHi(f, &row.Value)
	return [4]E{
		f.FromUint64(uint64(row.Tag)),
		f.FromUint64(row.Index),
		lo,
		hi,
	}
}

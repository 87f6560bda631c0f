package circuit

import (
	"github.com/consensys/gnark/std/math/uints"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kysee/zk-arith/publicdata"
)

// NewPublicInputAssignment assigns pd to a PublicInputCircuit. The keccak
// table holds the relation of pd's preimage in its first row; the other
// rows are disabled.
func NewPublicInputAssignment(pd *publicdata.PublicData) *PublicInputCircuit {
	w := &PublicInputCircuit{}

	for i, f := range pd.Fields() {
		w.Fields[i] = [publicdata.FieldBytes]uints.U8(uints.NewU8Array(f[:]))
	}

	preimage := pd.CanonicalBytes()
	digest := pd.Digest()
	w.Digest = [32]uints.U8(uints.NewU8Array(digest[:]))
	hi, lo := publicdata.SplitDigest(digest)
	w.DigestHi = hi
	w.DigestLo = lo

	w.Block = BlockTable{
		Coinbase:   pd.Block.Coinbase.Big(),
		Timestamp:  pd.Block.Timestamp,
		Number:     pd.Block.Number,
		Difficulty: u8Word(pd.Block.Difficulty.Bytes32()),
		GasLimit:   pd.Block.GasLimit,
		BaseFee:    u8Word(pd.Block.BaseFee.Bytes32()),
		ChainID:    pd.Block.ChainID,
		BlockHash:  u8Word(pd.Block.BlockHash),
	}

	w.Keccak[0] = KeccakRow{
		Enabled: 1,
		Input:   [publicdata.PreimageLen]uints.U8(uints.NewU8Array(preimage[:])),
		Output:  w.Digest,
	}
	for k := 1; k < KeccakTableRows; k++ {
		w.Keccak[k] = DisabledKeccakRow()
	}
	return w
}

// DisabledKeccakRow is an unused keccak table row.
func DisabledKeccakRow() KeccakRow {
	var zero [publicdata.PreimageLen]byte
	return KeccakRow{
		Enabled: 0,
		Input:   [publicdata.PreimageLen]uints.U8(uints.NewU8Array(zero[:])),
		Output:  u8Word(common.Hash{}),
	}
}

func u8Word(w [32]byte) [32]uints.U8 {
	return [32]uints.U8(uints.NewU8Array(w[:]))
}

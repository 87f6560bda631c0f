package types

import (
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/operation"
)

// BlockTrace is the execution trace of one block as produced by the tracer.
type BlockTrace struct {
	ChainID       uint64        `json:"chainID"`
	Header        HeaderTrace   `json:"header"`
	HistoryHashes []common.Hash `json:"historyHashes"`
	Codes         []HexBytes    `json:"codes"`
	Transactions  []TxTrace     `json:"transactions"`
	Protocol      ProtocolTrace `json:"protocol"`
}

// HeaderTrace carries the header fields the circuits read. Number and
// BaseFee are optional on the wire so that incomplete headers reach the
// block builder instead of failing at decoding.
type HeaderTrace struct {
	ParentHash  common.Hash    `json:"parentHash"`
	Coinbase    common.Address `json:"miner"`
	Root        common.Hash    `json:"stateRoot"`
	TxHash      common.Hash    `json:"transactionsRoot"`
	ReceiptHash common.Hash    `json:"receiptsRoot"`
	Difficulty  *hexutil.Big   `json:"difficulty"`
	Number      *hexutil.Big   `json:"number"`
	GasLimit    hexutil.Uint64 `json:"gasLimit"`
	GasUsed     hexutil.Uint64 `json:"gasUsed"`
	Time        hexutil.Uint64 `json:"timestamp"`
	Extra       HexBytes       `json:"extraData"`
	MixDigest   common.Hash    `json:"mixHash"`
	BaseFee     *hexutil.Big   `json:"baseFeePerGas"`
}

// ToHeader converts the trace header to a go-ethereum header.
func (h *HeaderTrace) ToHeader() *gethtypes.Header {
	header := &gethtypes.Header{
		ParentHash:  h.ParentHash,
		UncleHash:   gethtypes.EmptyUncleHash,
		Coinbase:    h.Coinbase,
		Root:        h.Root,
		TxHash:      h.TxHash,
		ReceiptHash: h.ReceiptHash,
		Difficulty:  new(big.Int),
		GasLimit:    uint64(h.GasLimit),
		GasUsed:     uint64(h.GasUsed),
		Time:        uint64(h.Time),
		Extra:       h.Extra,
		MixDigest:   h.MixDigest,
	}
	if h.Difficulty != nil {
		header.Difficulty = h.Difficulty.ToInt()
	}
	if h.Number != nil {
		header.Number = h.Number.ToInt()
	}
	if h.BaseFee != nil {
		header.BaseFee = h.BaseFee.ToInt()
	}
	return header
}

type TxTrace struct {
	Hash  common.Hash `json:"hash"`
	Calls []CallTrace `json:"calls"`
	Steps []StepTrace `json:"steps"`
}

// CallTrace registers a call id at its index inside the transaction.
type CallTrace struct {
	CallID uint64 `json:"callID"`
	Index  int    `json:"index"`
}

type StepTrace struct {
	Op     string    `json:"op"`
	Events []RwEvent `json:"rw"`
}

// RwEvent is one state access emitted by a step.
type RwEvent struct {
	Kind     operation.Kind `json:"kind"`
	IsWrite  bool           `json:"isWrite"`
	CallID   uint64         `json:"callID"`
	Address  common.Address `json:"address"`
	FieldTag uint64         `json:"field"`
	Key      *hexutil.Big   `json:"key"`
	Before   *hexutil.Big   `json:"before"`
	After    *hexutil.Big   `json:"after"`
}

// Words returns key, before and after as 256-bit words.
func (e *RwEvent) Words() (key, before, after uint256.Int, err error) {
	if err = toWord(e.Key, &key); err != nil {
		return key, before, after, fmt.Errorf("key: %w", err)
	}
	if err = toWord(e.Before, &before); err != nil {
		return key, before, after, fmt.Errorf("before: %w", err)
	}
	if err = toWord(e.After, &after); err != nil {
		return key, before, after, fmt.Errorf("after: %w", err)
	}
	return key, before, after, nil
}

func toWord(v *hexutil.Big, out *uint256.Int) error {
	if v == nil {
		out.Clear()
		return nil
	}
	if overflow := out.SetFromBig(v.ToInt()); overflow {
		return fmt.Errorf("value %s exceeds 256 bits", v.String())
	}
	return nil
}

// ProtocolTrace carries the rollup protocol values committed in the public input.
type ProtocolTrace struct {
	L1SignalService common.Address `json:"l1SignalService"`
	L2SignalService common.Address `json:"l2SignalService"`
	L2Contract      common.Address `json:"l2Contract"`
	MetaHash        common.Hash    `json:"metaHash"`
	BlockHash       common.Hash    `json:"blockHash"`
	ParentHash      common.Hash    `json:"parentHash"`
	SignalRoot      common.Hash    `json:"signalRoot"`
	Graffiti        common.Hash    `json:"graffiti"`
	Prover          common.Address `json:"prover"`
	ParentGasUsed   uint32         `json:"parentGasUsed"`
	GasUsed         uint32         `json:"gasUsed"`
}

package publicdata

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/builder"
	"github.com/kysee/zk-arith/field"
	"github.com/kysee/zk-arith/types"
)

const (
	FieldCount  = 9
	FieldBytes  = 32
	PreimageLen = FieldCount * FieldBytes
	// HalfBytes is the width of each digest half exposed as an instance.
	HalfBytes = 16
)

// Field positions in the preimage.
const (
	FieldL1SignalService = iota
	FieldL2SignalService
	FieldL2Contract
	FieldMetaHash
	FieldParentHash
	FieldBlockHash
	FieldSignalRoot
	FieldGraffiti
	FieldProverGas
)

var FieldNames = [FieldCount]string{
	"l1_signal_service",
	"l2_signal_service",
	"l2_contract",
	"meta_hash",
	"parent_hash",
	"block_hash",
	"signal_root",
	"graffiti",
	"prover+parent_gas_used+gas_used",
}

var (
	ErrInvalidLength     = errors.New("invalid public data length")
	ErrNonCanonical      = errors.New("non canonical public data encoding")
	ErrInvalidByte       = errors.New("cell is not a byte")
	ErrAccumulation      = errors.New("accumulator mismatch")
	ErrDigestLookupMiss  = errors.New("digest not in keccak table")
	ErrBlockHashMismatch = errors.New("block hash differs from block table")
)

// ProtocolFields are the rollup protocol values committed next to the block.
type ProtocolFields struct {
	L1SignalService common.Address
	L2SignalService common.Address
	L2Contract      common.Address
	MetaHash        common.Hash
	BlockHash       common.Hash
	ParentHash      common.Hash
	SignalRoot      common.Hash
	Graffiti        common.Hash
	Prover          common.Address
	ParentGasUsed   uint32
	GasUsed         uint32
}

func ProtocolFromTrace(p *types.ProtocolTrace) ProtocolFields {
	return ProtocolFields{
		L1SignalService: p.L1SignalService,
		L2SignalService: p.L2SignalService,
		L2Contract:      p.L2Contract,
		MetaHash:        p.MetaHash,
		BlockHash:       p.BlockHash,
		ParentHash:      p.ParentHash,
		SignalRoot:      p.SignalRoot,
		Graffiti:        p.Graffiti,
		Prover:          p.Prover,
		ParentGasUsed:   p.ParentGasUsed,
		GasUsed:         p.GasUsed,
	}
}

// BlockValues are the block context values the block table is built from.
type BlockValues struct {
	Coinbase      common.Address
	GasLimit      uint64
	Number        uint64
	Timestamp     uint64
	Difficulty    uint256.Int
	BaseFee       uint256.Int
	ChainID       uint64
	BlockHash     common.Hash
	HistoryHashes []common.Hash
}

func BlockValuesFromContext(ctx *builder.Context) BlockValues {
	return BlockValues{
		Coinbase:      ctx.Coinbase,
		GasLimit:      ctx.GasLimit,
		Number:        ctx.Number,
		Timestamp:     ctx.Timestamp,
		Difficulty:    ctx.Difficulty,
		BaseFee:       ctx.BaseFee,
		ChainID:       ctx.ChainID,
		BlockHash:     ctx.BlockHash,
		HistoryHashes: ctx.HistoryHashes,
	}
}

// PublicData is the public input of a block proof. Only the protocol
// fields enter the digest; Block feeds the block table.
type PublicData struct {
	ProtocolFields
	Block BlockValues
}

// Encode assembles the public data of a finalized block.
func Encode(ctx *builder.Context, protocol ProtocolFields) *PublicData {
	return &PublicData{
		ProtocolFields: protocol,
		Block:          BlockValuesFromContext(ctx),
	}
}

func addressWord(a common.Address) [FieldBytes]byte {
	return common.BytesToHash(a[:])
}

// packed lays out prover<<96 | parentGasUsed<<64 | gasUsed<<32.
func (pd *PublicData) packed() [FieldBytes]byte {
	var w [FieldBytes]byte
	copy(w[:common.AddressLength], pd.Prover[:])
	binary.BigEndian.PutUint32(w[20:24], pd.ParentGasUsed)
	binary.BigEndian.PutUint32(w[24:28], pd.GasUsed)
	return w
}

// Fields returns the nine preimage fields in canonical order.
func (pd *PublicData) Fields() [FieldCount][FieldBytes]byte {
	return [FieldCount][FieldBytes]byte{
		addressWord(pd.L1SignalService),
		addressWord(pd.L2SignalService),
		addressWord(pd.L2Contract),
		pd.MetaHash,
		pd.ParentHash,
		pd.BlockHash,
		pd.SignalRoot,
		pd.Graffiti,
		pd.packed(),
	}
}

// CanonicalBytes is the digest preimage.
func (pd *PublicData) CanonicalBytes() [PreimageLen]byte {
	var out [PreimageLen]byte
	for i, f := range pd.Fields() {
		copy(out[i*FieldBytes:], f[:])
	}
	return out
}

// Digest is the keccak256 of the preimage.
func (pd *PublicData) Digest() common.Hash {
	bz := pd.CanonicalBytes()
	return crypto.Keccak256Hash(bz[:])
}

// Decode parses a preimage back into its protocol fields. Block values are
// not part of the preimage and stay zero.
func Decode(bz []byte) (*PublicData, error) {
	if len(bz) != PreimageLen {
		return nil, fmt.Errorf("%w: %d bytes, want %d", ErrInvalidLength, len(bz), PreimageLen)
	}
	word := func(i int) []byte {
		return bz[i*FieldBytes : (i+1)*FieldBytes]
	}
	address := func(i int) (common.Address, error) {
		w := word(i)
		if !isZero(w[:FieldBytes-common.AddressLength]) {
			return common.Address{}, fmt.Errorf("%w: %s has a non zero high part", ErrNonCanonical, FieldNames[i])
		}
		return common.BytesToAddress(w), nil
	}

	pd := &PublicData{}
	var err error
	if pd.L1SignalService, err = address(FieldL1SignalService); err != nil {
		return nil, err
	}
	if pd.L2SignalService, err = address(FieldL2SignalService); err != nil {
		return nil, err
	}
	if pd.L2Contract, err = address(FieldL2Contract); err != nil {
		return nil, err
	}
	pd.MetaHash = common.BytesToHash(word(FieldMetaHash))
	pd.ParentHash = common.BytesToHash(word(FieldParentHash))
	pd.BlockHash = common.BytesToHash(word(FieldBlockHash))
	pd.SignalRoot = common.BytesToHash(word(FieldSignalRoot))
	pd.Graffiti = common.BytesToHash(word(FieldGraffiti))

	packed := word(FieldProverGas)
	if !isZero(packed[28:]) {
		return nil, fmt.Errorf("%w: %s has non zero low bits", ErrNonCanonical, FieldNames[FieldProverGas])
	}
	pd.Prover = common.BytesToAddress(packed[:common.AddressLength])
	pd.ParentGasUsed = binary.BigEndian.Uint32(packed[20:24])
	pd.GasUsed = binary.BigEndian.Uint32(packed[24:28])
	return pd, nil
}

func isZero(bz []byte) bool {
	for _, b := range bz {
		if b != 0 {
			return false
		}
	}
	return true
}

// SplitDigest returns the big-endian high and low 16 bytes of d.
func SplitDigest(d common.Hash) (hi, lo *big.Int) {
	return new(big.Int).SetBytes(d[:HalfBytes]), new(big.Int).SetBytes(d[HalfBytes:])
}

// Instances returns the public instance column: hi then lo.
func Instances[E any](f field.Field[E], d common.Hash) [2]E {
	return [2]E{f.FromBytesBE(d[:HalfBytes]), f.FromBytesBE(d[HalfBytes:])}
}

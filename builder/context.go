package builder

import (
	"errors"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"github.com/rs/zerolog"
)

// MaxHistoryHashes is the number of past block hashes reachable by BLOCKHASH.
const MaxHistoryHashes = 256

var (
	ErrUnknownCall     = errors.New("unknown call id")
	ErrDuplicateCall   = errors.New("call already registered")
	ErrIncompleteBlock = errors.New("incomplete block")
)

// Options controls how strictly block headers are validated.
type Options struct {
	// AllowMissingBaseFee accepts pre EIP-1559 headers and commits a zero
	// base fee for them. Otherwise such headers fail with ErrIncompleteBlock.
	AllowMissingBaseFee bool
	Logger              zerolog.Logger
}

// CallPosition locates a call inside a block.
type CallPosition struct {
	TxIndex   int
	CallIndex int
}

// CallMap maps call ids assigned during the trace walk to their position.
// It is a bijection: neither a call id nor a position is registered twice.
type CallMap struct {
	byID  map[uint64]CallPosition
	byPos map[CallPosition]uint64
}

func NewCallMap() *CallMap {
	return &CallMap{
		byID:  make(map[uint64]CallPosition),
		byPos: make(map[CallPosition]uint64),
	}
}

func (m *CallMap) Register(callID uint64, pos CallPosition) error {
	if prev, ok := m.byID[callID]; ok {
		return fmt.Errorf("%w: call id %d at tx %d call %d", ErrDuplicateCall, callID, prev.TxIndex, prev.CallIndex)
	}
	if prev, ok := m.byPos[pos]; ok {
		return fmt.Errorf("%w: tx %d call %d has call id %d", ErrDuplicateCall, pos.TxIndex, pos.CallIndex, prev)
	}
	m.byID[callID] = pos
	m.byPos[pos] = callID
	return nil
}

func (m *CallMap) Lookup(callID uint64) (CallPosition, error) {
	pos, ok := m.byID[callID]
	if !ok {
		return CallPosition{}, fmt.Errorf("%w: %d", ErrUnknownCall, callID)
	}
	return pos, nil
}

// CallID is the inverse of Lookup.
func (m *CallMap) CallID(pos CallPosition) (uint64, bool) {
	id, ok := m.byPos[pos]
	return id, ok
}

func (m *CallMap) Len() int {
	return len(m.byID)
}

// Context is the per block metadata read by the block table and the public
// input encoder.
type Context struct {
	Coinbase   common.Address
	GasLimit   uint64
	GasUsed    uint64
	Number     uint64
	Timestamp  uint64
	Difficulty uint256.Int
	BaseFee    uint256.Int
	ChainID    uint64
	BlockHash  common.Hash
	ParentHash common.Hash
	// HistoryHashes holds up to 256 previous block hashes, most recent last.
	HistoryHashes []common.Hash

	Calls *CallMap
}

// NewContext reads the block context out of a finalized header.
func NewContext(header *gethtypes.Header, chainID uint64, history []common.Hash, opts Options) (*Context, error) {
	if header == nil {
		return nil, fmt.Errorf("%w: missing header", ErrIncompleteBlock)
	}
	if header.Number == nil {
		return nil, fmt.Errorf("%w: missing block number", ErrIncompleteBlock)
	}
	if !header.Number.IsUint64() {
		return nil, fmt.Errorf("%w: block number %s out of range", ErrIncompleteBlock, header.Number)
	}
	number := header.Number.Uint64()
	if len(history) > MaxHistoryHashes {
		return nil, fmt.Errorf("%w: %d history hashes, at most %d", ErrIncompleteBlock, len(history), MaxHistoryHashes)
	}
	if uint64(len(history)) > number {
		return nil, fmt.Errorf("%w: %d history hashes before block %d", ErrIncompleteBlock, len(history), number)
	}

	ctx := &Context{
		Coinbase:      header.Coinbase,
		GasLimit:      header.GasLimit,
		GasUsed:       header.GasUsed,
		Number:        number,
		Timestamp:     header.Time,
		ChainID:       chainID,
		BlockHash:     header.Hash(),
		ParentHash:    header.ParentHash,
		HistoryHashes: append([]common.Hash(nil), history...),
		Calls:         NewCallMap(),
	}
	if err := setWord(&ctx.Difficulty, header.Difficulty); err != nil {
		return nil, fmt.Errorf("%w: difficulty: %v", ErrIncompleteBlock, err)
	}

	if header.BaseFee == nil {
		if !opts.AllowMissingBaseFee {
			return nil, fmt.Errorf("%w: missing base fee", ErrIncompleteBlock)
		}
		opts.Logger.Warn().
			Uint64("number", number).
			Msg("header has no base fee, committing zero")
	} else if err := setWord(&ctx.BaseFee, header.BaseFee); err != nil {
		return nil, fmt.Errorf("%w: base fee: %v", ErrIncompleteBlock, err)
	}

	return ctx, nil
}

func setWord(dst *uint256.Int, v *big.Int) error {
	if v == nil {
		dst.Clear()
		return nil
	}
	if v.Sign() < 0 {
		return fmt.Errorf("negative value %s", v)
	}
	if overflow := dst.SetFromBig(v); overflow {
		return fmt.Errorf("value %s exceeds 256 bits", v)
	}
	return nil
}

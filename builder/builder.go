package builder

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/operation"
)

var (
	ErrNoTransaction = errors.New("no transaction in progress")
	ErrInvalidTarget = errors.New("invalid operation target")
)

// Builder walks the trace of one block. It owns the rw counter and the
// operation log exclusively and is not safe for concurrent use.
type Builder struct {
	ctx  *Context
	rwc  operation.RWCounter
	ops  *operation.Container
	code *CodeDB
	txs  []Transaction
}

func New(ctx *Context) *Builder {
	return &Builder{
		ctx:  ctx,
		ops:  operation.NewContainer(),
		code: NewCodeDB(),
	}
}

func (b *Builder) Context() *Context {
	return b.ctx
}

// BeginTx starts a new transaction and returns its index.
func (b *Builder) BeginTx(hash common.Hash) int {
	b.txs = append(b.txs, Transaction{Index: len(b.txs), Hash: hash})
	return len(b.txs) - 1
}

// RegisterCall maps callID to callIndex inside the current transaction.
func (b *Builder) RegisterCall(callID uint64, callIndex int) error {
	tx, err := b.currentTx()
	if err != nil {
		return err
	}
	return b.ctx.Calls.Register(callID, CallPosition{TxIndex: tx.Index, CallIndex: callIndex})
}

// BeginStep opens a step in the current transaction. Operations recorded
// afterwards are attached to it.
func (b *Builder) BeginStep(op string) error {
	tx, err := b.currentTx()
	if err != nil {
		return err
	}
	tx.Steps = append(tx.Steps, ExecStep{Op: op})
	return nil
}

// Record appends a state access performed by callID and returns the rw
// counter issued to it.
func (b *Builder) Record(callID uint64, isWrite bool, target operation.Target, before, after uint256.Int) (uint64, error) {
	if target.Kind.Sentinel() || target.Kind == 0 {
		return 0, fmt.Errorf("%w: kind %s", ErrInvalidTarget, target.Kind)
	}
	pos, err := b.ctx.Calls.Lookup(callID)
	if err != nil {
		return 0, err
	}

	switch {
	case target.Kind.CallScoped():
		target.ID = callID
	case target.Kind.TxScoped():
		target.ID = uint64(pos.TxIndex) + 1
	default:
		target.ID = 0
	}

	rwc, err := b.rwc.Issue()
	if err != nil {
		return 0, err
	}
	idx, err := b.ops.Insert(operation.NewOperation(rwc, isWrite, callID, target, before, after))
	if err != nil {
		return 0, err
	}

	if len(b.txs) > 0 {
		tx := &b.txs[len(b.txs)-1]
		if n := len(tx.Steps); n > 0 {
			tx.Steps[n-1].RwIndices = append(tx.Steps[n-1].RwIndices, idx)
		}
	}
	return rwc, nil
}

// AddCode stores bytecode executed in the block.
func (b *Builder) AddCode(code []byte) common.Hash {
	return b.code.Insert(code)
}

// Finalize hands the built block over. The builder must not be used afterwards.
func (b *Builder) Finalize() *Block {
	return &Block{
		Context:    b.ctx,
		Txs:        b.txs,
		Operations: b.ops,
		Code:       b.code,
	}
}

func (b *Builder) currentTx() (*Transaction, error) {
	if len(b.txs) == 0 {
		return nil, ErrNoTransaction
	}
	return &b.txs[len(b.txs)-1], nil
}

package builder

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kysee/zk-arith/operation"
)

// ExecStep is one execution step. It references the operations it
// performed by position in the block's operation log.
type ExecStep struct {
	Op        string
	RwIndices []int
}

type Transaction struct {
	Index int
	Hash  common.Hash
	Steps []ExecStep
}

// CodeDB stores the bytecode executed in a block by code hash.
type CodeDB struct {
	codes map[common.Hash][]byte
}

func NewCodeDB() *CodeDB {
	return &CodeDB{codes: make(map[common.Hash][]byte)}
}

// Insert stores code and returns its keccak hash.
func (db *CodeDB) Insert(code []byte) common.Hash {
	hash := crypto.Keccak256Hash(code)
	if _, ok := db.codes[hash]; !ok {
		db.codes[hash] = common.CopyBytes(code)
	}
	return hash
}

func (db *CodeDB) Get(hash common.Hash) ([]byte, bool) {
	code, ok := db.codes[hash]
	return code, ok
}

func (db *CodeDB) Len() int {
	return len(db.codes)
}

// Block is the circuit input of one block.
type Block struct {
	Context    *Context
	Txs        []Transaction
	Operations *operation.Container
	Code       *CodeDB
}

// StepOperations resolves the operations referenced by step.
func (b *Block) StepOperations(step *ExecStep) []operation.Operation {
	ops := make([]operation.Operation, len(step.RwIndices))
	for i, idx := range step.RwIndices {
		ops[i] = b.Operations.At(idx)
	}
	return ops
}

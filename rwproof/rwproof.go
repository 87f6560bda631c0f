// Package rwproof commits a block's RW log to a Merkle Patricia trie keyed
// by log position, the way receipts and transactions are committed in a
// header. A single operation can then be handed out with an inclusion proof
// against the root for replay and debugging.
package rwproof

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/rawdb"
	gethtypes "github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethdb/memorydb"
	"github.com/ethereum/go-ethereum/rlp"
	"github.com/ethereum/go-ethereum/trie"
	"github.com/ethereum/go-ethereum/triedb"
	"github.com/holiman/uint256"
	"github.com/kysee/zk-arith/operation"
)

var ErrNotIncluded = errors.New("operation not included in rw trie")

type encodedOp struct {
	RWC      uint64
	IsWrite  bool
	CallID   uint64
	Kind     uint64
	ID       uint64
	Address  common.Address
	FieldTag uint64
	Key      *uint256.Int
	Before   *uint256.Int
	After    *uint256.Int
}

// EncodeOperation returns the RLP encoding of op stored in the trie.
func EncodeOperation(op *operation.Operation) ([]byte, error) {
	return rlp.EncodeToBytes(&encodedOp{
		RWC:      op.RWC,
		IsWrite:  op.IsWrite,
		CallID:   op.CallID,
		Kind:     uint64(op.Target.Kind),
		ID:       op.Target.ID,
		Address:  op.Target.Address,
		FieldTag: op.Target.FieldTag,
		Key:      &op.Target.Key,
		Before:   &op.Before,
		After:    &op.After,
	})
}

func DecodeOperation(bz []byte) (operation.Operation, error) {
	var enc encodedOp
	if err := rlp.DecodeBytes(bz, &enc); err != nil {
		return operation.Operation{}, fmt.Errorf("failed to decode operation: %w", err)
	}
	target := operation.Target{
		Kind:     operation.Kind(enc.Kind),
		ID:       enc.ID,
		Address:  enc.Address,
		FieldTag: enc.FieldTag,
	}
	var before, after uint256.Int
	if enc.Key != nil {
		target.Key = *enc.Key
	}
	if enc.Before != nil {
		before = *enc.Before
	}
	if enc.After != nil {
		after = *enc.After
	}
	return operation.Operation{
		RWC:     enc.RWC,
		IsWrite: enc.IsWrite,
		CallID:  enc.CallID,
		Target:  target,
		Before:  before,
		After:   after,
	}, nil
}

// List adapts an operation log to go-ethereum's DerivableList.
type List struct {
	ops *operation.Container
}

var _ gethtypes.DerivableList = List{}

func (l List) Len() int {
	return l.ops.Len()
}

func (l List) EncodeIndex(i int, w *bytes.Buffer) {
	op := l.ops.At(i)
	bz, err := EncodeOperation(&op)
	if err != nil {
		panic(fmt.Sprintf("rw operation %d not encodable: %v", i, err))
	}
	w.Write(bz)
}

// Root computes the trie root of ops without keeping the trie.
func Root(ops *operation.Container) common.Hash {
	return gethtypes.DeriveSha(List{ops: ops}, trie.NewStackTrie(nil))
}

func indexKey(i int) []byte {
	return rlp.AppendUint64(nil, uint64(i))
}

// Trie is the full RW trie kept in memory for proving.
type Trie struct {
	tr *trie.Trie
	n  int
}

func New(ops *operation.Container) (*Trie, error) {
	db := rawdb.NewMemoryDatabase()
	tr := trie.NewEmpty(triedb.NewDatabase(db, nil))

	list := List{ops: ops}
	for i := 0; i < list.Len(); i++ {
		var buf bytes.Buffer
		list.EncodeIndex(i, &buf)
		if err := tr.Update(indexKey(i), buf.Bytes()); err != nil {
			return nil, fmt.Errorf("failed to insert operation %d: %w", i, err)
		}
	}
	return &Trie{tr: tr, n: list.Len()}, nil
}

func (t *Trie) Root() common.Hash {
	return t.tr.Hash()
}

func (t *Trie) Len() int {
	return t.n
}

// Prove returns the proof nodes of the operation at index.
func (t *Trie) Prove(index int) ([][]byte, error) {
	if index < 0 || index >= t.n {
		return nil, fmt.Errorf("index %d of %d: %w", index, t.n, ErrNotIncluded)
	}
	proofDb := memorydb.New()
	if err := t.tr.Prove(indexKey(index), proofDb); err != nil {
		return nil, fmt.Errorf("failed to prove operation %d: %w", index, err)
	}
	return extractProofNodes(proofDb), nil
}

// Verify checks nodes against root and returns the operation at index.
func Verify(root common.Hash, index int, nodes [][]byte) (operation.Operation, error) {
	value, err := trie.VerifyProof(root, indexKey(index), proofNodesToDatabase(nodes))
	if err != nil {
		return operation.Operation{}, fmt.Errorf("invalid proof for operation %d: %w", index, err)
	}
	if value == nil {
		return operation.Operation{}, fmt.Errorf("index %d: %w", index, ErrNotIncluded)
	}
	return DecodeOperation(value)
}

func extractProofNodes(proofDb *memorydb.Database) [][]byte {
	var nodes [][]byte
	iter := proofDb.NewIterator(nil, nil)
	defer iter.Release()

	for iter.Next() {
		nodes = append(nodes, common.CopyBytes(iter.Value()))
	}
	return nodes
}

func proofNodesToDatabase(nodes [][]byte) *memorydb.Database {
	proofDb := memorydb.New()
	for _, node := range nodes {
		_ = proofDb.Put(crypto.Keccak256(node), node)
	}
	return proofDb
}

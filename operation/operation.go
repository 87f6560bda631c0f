package operation

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Kind is the RW table tag of an operation.
type Kind uint64

const (
	KindStart Kind = iota + 1
	KindStack
	KindMemory
	KindStorage
	KindAccount
	KindCallContext
	KindTxRefund
	KindTxLog
	KindPadding
)

var kindNames = map[Kind]string{
	KindStart:       "start",
	KindStack:       "stack",
	KindMemory:      "memory",
	KindStorage:     "storage",
	KindAccount:     "account",
	KindCallContext: "call_context",
	KindTxRefund:    "tx_refund",
	KindTxLog:       "tx_log",
	KindPadding:     "padding",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint64(k))
}

// CallScoped reports whether operations of this kind are keyed by the call
// that performs them.
func (k Kind) CallScoped() bool {
	return k == KindStack || k == KindMemory || k == KindCallContext
}

// TxScoped reports whether operations of this kind are keyed by transaction.
func (k Kind) TxScoped() bool {
	return k == KindTxRefund || k == KindTxLog
}

// Sentinel reports whether k marks a synthetic table row.
func (k Kind) Sentinel() bool {
	return k == KindStart || k == KindPadding
}

func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, s) {
			if k.Sentinel() {
				break
			}
			return k, nil
		}
	}
	return 0, fmt.Errorf("unknown operation kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// Target identifies the state location an operation touches.
type Target struct {
	Kind Kind
	// ID is the call id for call scoped kinds, the transaction id for
	// transaction scoped kinds and zero otherwise.
	ID       uint64
	Address  common.Address
	FieldTag uint64
	Key      uint256.Int
}

// Compare orders targets by kind, id, address, field tag and key.
func (t Target) Compare(o Target) int {
	switch {
	case t.Kind != o.Kind:
		return cmpUint64(uint64(t.Kind), uint64(o.Kind))
	case t.ID != o.ID:
		return cmpUint64(t.ID, o.ID)
	}
	if c := bytes.Compare(t.Address[:], o.Address[:]); c != 0 {
		return c
	}
	if t.FieldTag != o.FieldTag {
		return cmpUint64(t.FieldTag, o.FieldTag)
	}
	return t.Key.Cmp(&o.Key)
}

func cmpUint64(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Operation is a single state access. It is immutable once created.
type Operation struct {
	RWC     uint64
	IsWrite bool
	CallID  uint64
	Target  Target
	Before  uint256.Int
	After   uint256.Int
}

// NewOperation builds an operation. Reads carry the same value before and after.
func NewOperation(rwc uint64, isWrite bool, callID uint64, target Target, before, after uint256.Int) Operation {
	if !isWrite {
		after = before
	}
	return Operation{
		RWC:     rwc,
		IsWrite: isWrite,
		CallID:  callID,
		Target:  target,
		Before:  before,
		After:   after,
	}
}

func (op *Operation) String() string {
	rw := "READ"
	if op.IsWrite {
		rw = "WRIT"
	}
	return fmt.Sprintf("%d %s %s id=%d addr=%s field=%d key=%s %s->%s",
		op.RWC, rw, op.Target.Kind, op.Target.ID, op.Target.Address.Hex(), op.Target.FieldTag,
		op.Target.Key.Hex(), op.Before.Hex(), op.After.Hex())
}

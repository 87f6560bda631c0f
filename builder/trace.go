package builder

import (
	"fmt"

	"github.com/kysee/zk-arith/operation"
	"github.com/kysee/zk-arith/types"
)

// BuildFromTrace walks a block trace and builds its circuit input.
func BuildFromTrace(trace *types.BlockTrace, opts Options) (*Block, error) {
	ctx, err := NewContext(trace.Header.ToHeader(), trace.ChainID, trace.HistoryHashes, opts)
	if err != nil {
		return nil, err
	}

	b := New(ctx)
	for _, code := range trace.Codes {
		b.AddCode(code)
	}

	for txIdx := range trace.Transactions {
		tx := &trace.Transactions[txIdx]
		b.BeginTx(tx.Hash)
		for _, call := range tx.Calls {
			if err := b.RegisterCall(call.CallID, call.Index); err != nil {
				return nil, fmt.Errorf("tx %d: %w", txIdx, err)
			}
		}
		for stepIdx := range tx.Steps {
			step := &tx.Steps[stepIdx]
			if err := b.BeginStep(step.Op); err != nil {
				return nil, err
			}
			for evIdx := range step.Events {
				if err := recordEvent(b, &step.Events[evIdx]); err != nil {
					return nil, fmt.Errorf("tx %d step %d (%s) event %d: %w", txIdx, stepIdx, step.Op, evIdx, err)
				}
			}
		}
	}

	block := b.Finalize()
	opts.Logger.Debug().
		Uint64("number", ctx.Number).
		Int("txs", len(block.Txs)).
		Int("rws", block.Operations.Len()).
		Int("calls", ctx.Calls.Len()).
		Msg("block built")
	return block, nil
}

func recordEvent(b *Builder, ev *types.RwEvent) error {
	key, before, after, err := ev.Words()
	if err != nil {
		return err
	}
	target := operation.Target{
		Kind:     ev.Kind,
		Address:  ev.Address,
		FieldTag: ev.FieldTag,
		Key:      key,
	}
	_, err = b.Record(ev.CallID, ev.IsWrite, target, before, after)
	return err
}

package prover

import (
	"context"
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/kysee/zk-arith/builder"
	"github.com/kysee/zk-arith/field"
	cfgtypes "github.com/kysee/zk-arith/provers/types"
	"github.com/kysee/zk-arith/publicdata"
	"github.com/kysee/zk-arith/rwproof"
	"github.com/kysee/zk-arith/rwtable"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Main entry point for the prover
func ProverMain(config *cfgtypes.Config) {
	log := config.Logger()
	if err := config.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	p := NewProver(config, NewFileFetcher(config.Path(config.TracePath)))
	if _, err := p.Run(context.Background()); err != nil {
		log.Fatal().Err(err).Msg("prover failed")
	}
}

// Prover turns a block trace into the witnesses of the public input
// circuit and of every RW chunk, and optionally proves them.
type Prover struct {
	config  *cfgtypes.Config
	fetcher cfgtypes.Fetcher
	log     zerolog.Logger
}

func NewProver(config *cfgtypes.Config, fetcher cfgtypes.Fetcher) *Prover {
	return &Prover{
		config:  config,
		fetcher: fetcher,
		log:     config.Logger(),
	}
}

// WithLogger replaces the logger built from the config.
func (p *Prover) WithLogger(log zerolog.Logger) *Prover {
	p.log = log
	return p
}

// ChunkWitness is one materialized chunk with the fingerprints folded
// over it.
type ChunkWitness struct {
	Context    builder.ChunkContext
	Table      *rwtable.Table
	Prev, Next rwtable.Fingerprints[fr.Element]
}

// Witness is everything the circuits of one block are assigned from.
type Witness struct {
	Block      *builder.Block
	PublicData *publicdata.PublicData
	Digest     common.Hash
	// RwRoot commits the operation log for inclusion proofs.
	RwRoot     common.Hash
	Challenges rwtable.Challenges[fr.Element]
	Chunks     []ChunkWitness
}

// DeriveChallenges derives the fingerprint and accumulation challenges
// from the block digest.
func DeriveChallenges(digest common.Hash) (rwtable.Challenges[fr.Element], publicdata.Challenges[fr.Element]) {
	f := field.BN254{}
	derive := func(label string) fr.Element {
		return f.FromBytesBE(crypto.Keccak256(digest[:], []byte(label)))
	}
	return rwtable.Challenges[fr.Element]{
			Alpha: derive("rw-alpha"),
			Gamma: derive("rw-gamma"),
		}, publicdata.Challenges[fr.Element]{
			KeccakInput: derive("keccak-input"),
			EvmWord:     derive("evm-word"),
		}
}

// Run builds the witness, writes the block summary and, when configured,
// proves every circuit.
func (p *Prover) Run(ctx context.Context) (*Witness, error) {
	w, err := p.BuildWitness(ctx)
	if err != nil {
		return nil, err
	}
	if err := p.writeSummary(w); err != nil {
		return nil, err
	}
	if p.config.Prove {
		if err := p.Prove(w); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// BuildWitness fetches the trace and assigns every table of the block.
func (p *Prover) BuildWitness(ctx context.Context) (*Witness, error) {
	trace, err := p.fetcher.Trace()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch trace: %w", err)
	}

	block, err := builder.BuildFromTrace(trace, builder.Options{
		AllowMissingBaseFee: p.config.AllowMissingBaseFee,
		Logger:              p.log,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build block: %w", err)
	}
	if n := block.Operations.Len(); n > p.config.MaxRws {
		return nil, fmt.Errorf("%w: block has %d operations, max %d", rwtable.ErrRowBudgetExceeded, n, p.config.MaxRws)
	}

	// the whole log must be consistent, not just every chunk on its own
	full, err := rwtable.Materialize(block.Operations, block.Operations.Len(), false)
	if err != nil {
		return nil, err
	}
	if err := rwtable.CheckContinuity(full.Chronological); err != nil {
		return nil, fmt.Errorf("block %d: %w", block.Context.Number, err)
	}

	protocol := publicdata.ProtocolFromTrace(&trace.Protocol)
	if protocol.BlockHash == (common.Hash{}) {
		protocol.BlockHash = block.Context.BlockHash
	}
	pd := publicdata.Encode(block.Context, protocol)
	digest := pd.Digest()
	rwCh, piCh := DeriveChallenges(digest)

	if err := verifyPublicData(pd, piCh); err != nil {
		return nil, err
	}
	p.log.Info().
		Uint64("number", block.Context.Number).
		Str("digest", digest.Hex()).
		Msg("public data assigned")

	chunks, err := p.foldChunks(ctx, block, rwCh)
	if err != nil {
		return nil, err
	}

	return &Witness{
		Block:      block,
		PublicData: pd,
		Digest:     digest,
		RwRoot:     rwproof.Root(block.Operations),
		Challenges: rwCh,
		Chunks:     chunks,
	}, nil
}

func verifyPublicData(pd *publicdata.PublicData, ch publicdata.Challenges[fr.Element]) error {
	f := field.BN254{}
	keccak := publicdata.NewKeccakTable[fr.Element](f, ch)
	preimage := pd.CanonicalBytes()
	keccak.Add(preimage[:])

	layout := publicdata.AssignRows[fr.Element](f, pd, ch)
	if err := layout.Verify(keccak); err != nil {
		return fmt.Errorf("public data layout: %w", err)
	}
	return nil
}

// foldChunks materializes the chunks in parallel and folds their
// fingerprints in order.
func (p *Prover) foldChunks(ctx context.Context, block *builder.Block, ch rwtable.Challenges[fr.Element]) ([]ChunkWitness, error) {
	chunks, err := block.Chunks(p.config.ChunkRws)
	if err != nil {
		return nil, err
	}

	out := make([]ChunkWitness, len(chunks))
	g, gctx := errgroup.WithContext(ctx)
	for i := range chunks {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			chunk := &chunks[i]
			table, err := rwtable.Materialize(chunk.Operations, p.config.ChunkRws, chunk.Context.IsFirst())
			if err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			if err := rwtable.CheckContinuity(table.Chronological); err != nil {
				return fmt.Errorf("chunk %d: %w", i, err)
			}
			out[i] = ChunkWitness{Context: chunk.Context, Table: table}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	chain := rwtable.NewFingerprintChain[fr.Element](field.BN254{}, ch)
	for i := range out {
		out[i].Prev, out[i].Next = chain.Fold(out[i].Table)
		p.log.Debug().
			Int("chunk", i).
			Uint64("initialRwc", out[i].Context.InitialRWC).
			Uint64("endRwc", out[i].Context.EndRWC).
			Int("rows", out[i].Table.Real()).
			Int("padding", out[i].Table.Padding).
			Msg("chunk folded")
	}
	return out, nil
}

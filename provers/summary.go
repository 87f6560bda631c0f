package prover

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/ethereum/go-ethereum/common"
	"github.com/kysee/zk-arith/publicdata"
	"github.com/kysee/zk-arith/types"
)

// Summary is the public outcome of witness generation for one block.
type Summary struct {
	Number   uint64         `json:"number"`
	Digest   common.Hash    `json:"digest"`
	DigestHi types.HexBytes `json:"digestHi"`
	DigestLo types.HexBytes `json:"digestLo"`
	RwRoot   common.Hash    `json:"rwRoot"`
	Rws      int            `json:"rws"`
	Alpha    types.HexBytes `json:"alpha"`
	Gamma    types.HexBytes `json:"gamma"`
	Chunks   []ChunkSummary `json:"chunks"`
}

type ChunkSummary struct {
	Index             int            `json:"index"`
	InitialRWC        uint64         `json:"initialRwc"`
	EndRWC            uint64         `json:"endRwc"`
	Rows              int            `json:"rows"`
	Padding           int            `json:"padding"`
	PrevTraceOrder    types.HexBytes `json:"prevTraceOrder"`
	NextTraceOrder    types.HexBytes `json:"nextTraceOrder"`
	PrevChronological types.HexBytes `json:"prevChronological"`
	NextChronological types.HexBytes `json:"nextChronological"`
}

func frBytes(e fr.Element) types.HexBytes {
	b := e.Bytes()
	return b[:]
}

func NewSummary(w *Witness) *Summary {
	hi, lo := publicdata.SplitDigest(w.Digest)
	s := &Summary{
		Number:   w.Block.Context.Number,
		Digest:   w.Digest,
		DigestHi: hi.FillBytes(make([]byte, publicdata.HalfBytes)),
		DigestLo: lo.FillBytes(make([]byte, publicdata.HalfBytes)),
		RwRoot:   w.RwRoot,
		Rws:      w.Block.Operations.Len(),
		Alpha:    frBytes(w.Challenges.Alpha),
		Gamma:    frBytes(w.Challenges.Gamma),
	}
	for i := range w.Chunks {
		c := &w.Chunks[i]
		s.Chunks = append(s.Chunks, ChunkSummary{
			Index:             c.Context.Index,
			InitialRWC:        c.Context.InitialRWC,
			EndRWC:            c.Context.EndRWC,
			Rows:              c.Table.Real(),
			Padding:           c.Table.Padding,
			PrevTraceOrder:    frBytes(c.Prev.TraceOrder),
			NextTraceOrder:    frBytes(c.Next.TraceOrder),
			PrevChronological: frBytes(c.Prev.Chronological),
			NextChronological: frBytes(c.Next.Chronological),
		})
	}
	return s
}

func (p *Prover) writeSummary(w *Witness) error {
	return p.writeJSON(fmt.Sprintf("block-%d.json", w.Block.Context.Number), NewSummary(w))
}

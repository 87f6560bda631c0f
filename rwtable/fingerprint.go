package rwtable

import "github.com/kysee/zk-arith/field"

// Challenges are the permutation challenges shared by every chunk of a proof.
type Challenges[E any] struct {
	Alpha E
	Gamma E
}

// Fingerprints holds one accumulator per table ordering.
type Fingerprints[E any] struct {
	TraceOrder    E
	Chronological E
}

// RowValue combines a row's cells with powers of gamma, starting at gamma^0.
func RowValue[E any](f field.Field[E], r *Row, gamma E) E {
	cells := Cells(f, r)
	acc := f.Zero()
	pow := f.One()
	for _, c := range cells {
		acc = f.Add(acc, f.Mul(c, pow))
		pow = f.Mul(pow, gamma)
	}
	return acc
}

// Fingerprint folds rows into prev as fp = fp*alpha + RowValue(row, gamma).
func Fingerprint[E any](f field.Field[E], rows []Row, ch Challenges[E], prev E) E {
	fp := prev
	for i := range rows {
		fp = f.Add(f.Mul(fp, ch.Alpha), RowValue(f, &rows[i], ch.Gamma))
	}
	return fp
}

// FingerprintChain carries both fingerprint chains of a block from chunk
// to chunk. Chunks must be folded in order.
type FingerprintChain[E any] struct {
	f   field.Field[E]
	ch  Challenges[E]
	cur Fingerprints[E]
}

// NewFingerprintChain starts both chains at one.
func NewFingerprintChain[E any](f field.Field[E], ch Challenges[E]) *FingerprintChain[E] {
	return &FingerprintChain[E]{
		f:  f,
		ch: ch,
		cur: Fingerprints[E]{
			TraceOrder:    f.One(),
			Chronological: f.One(),
		},
	}
}

func (c *FingerprintChain[E]) Challenges() Challenges[E] {
	return c.ch
}

func (c *FingerprintChain[E]) Current() Fingerprints[E] {
	return c.cur
}

// Fold advances both chains over t and returns the accumulators before and after.
func (c *FingerprintChain[E]) Fold(t *Table) (prev, next Fingerprints[E]) {
	prev = c.cur
	next = Fingerprints[E]{
		TraceOrder:    Fingerprint(c.f, t.TraceOrder, c.ch, prev.TraceOrder),
		Chronological: Fingerprint(c.f, t.Chronological, c.ch, prev.Chronological),
	}
	c.cur = next
	return prev, next
}

package circuit

import (
	"github.com/consensys/gnark-crypto/ecc/bn254/fr"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/std/multicommit"
	"github.com/kysee/zk-arith/field"
	"github.com/kysee/zk-arith/rwtable"
)

// RwFingerprintCircuit proves the fingerprints of one chunk of the RW table.
// Prev and Next are public so that consecutive chunk proofs can be chained
// by the verifier: chunk n+1's Prev must equal chunk n's Next.
//
// It also checks that the chronological table is a permutation of the
// trace order table with a grand product over challenges derived from a
// commitment to the cells.
type RwFingerprintCircuit struct {
	TraceOrder    [][rwtable.NumColumns]frontend.Variable
	Chronological [][rwtable.NumColumns]frontend.Variable

	Alpha             frontend.Variable `gnark:",public"`
	Gamma             frontend.Variable `gnark:",public"`
	PrevTraceOrder    frontend.Variable `gnark:",public"`
	NextTraceOrder    frontend.Variable `gnark:",public"`
	PrevChronological frontend.Variable `gnark:",public"`
	NextChronological frontend.Variable `gnark:",public"`
}

// NewRwFingerprintCircuit returns a circuit shaped for tables of rows rows.
func NewRwFingerprintCircuit(rows int) *RwFingerprintCircuit {
	return &RwFingerprintCircuit{
		TraceOrder:    make([][rwtable.NumColumns]frontend.Variable, rows),
		Chronological: make([][rwtable.NumColumns]frontend.Variable, rows),
	}
}

// Challenge domains of the permutation argument.
const (
	challengeRowCompress = iota + 1
	challengePermutation
)

// columnBits bounds every column: rwc, is_write, tag, id, address,
// field_tag and the 128-bit halves of key, value and value_prev.
var columnBits = [rwtable.NumColumns]int{64, 1, 64, 64, 160, 64, 128, 128, 128, 128, 128, 128}

func (c *RwFingerprintCircuit) Define(api frontend.API) error {
	c.checkCells(api)

	next := foldRows(api, c.TraceOrder, c.Alpha, c.Gamma, c.PrevTraceOrder)
	api.AssertIsEqual(next, c.NextTraceOrder)
	next = foldRows(api, c.Chronological, c.Alpha, c.Gamma, c.PrevChronological)
	api.AssertIsEqual(next, c.NextChronological)

	var committed []frontend.Variable
	for _, rows := range [][][rwtable.NumColumns]frontend.Variable{c.TraceOrder, c.Chronological} {
		for i := range rows {
			committed = append(committed, rows[i][:]...)
		}
	}

	// the permutation uses committed challenges, never the public Gamma
	multicommit.WithCommitment(api, func(api frontend.API, commitment frontend.Variable) error {
		ch, err := commitmentChallenges(api, commitment, challengeRowCompress, challengePermutation)
		if err != nil {
			return err
		}
		compress, r := ch[0], ch[1]

		var lhs, rhs frontend.Variable = 1, 1
		for i := range c.TraceOrder {
			lhs = api.Mul(lhs, api.Sub(r, rowValue(api, c.TraceOrder[i], compress)))
			rhs = api.Mul(rhs, api.Sub(r, rowValue(api, c.Chronological[i], compress)))
		}
		api.AssertIsEqual(lhs, rhs)
		return nil
	}, committed...)
	return nil
}

// checkCells bounds every cell to its column width.
func (c *RwFingerprintCircuit) checkCells(api frontend.API) {
	for _, rows := range [][][rwtable.NumColumns]frontend.Variable{c.TraceOrder, c.Chronological} {
		for i := range rows {
			for j, bits := range columnBits {
				if bits == 1 {
					api.AssertIsBoolean(rows[i][j])
					continue
				}
				api.ToBinary(rows[i][j], bits)
			}
		}
	}
}

func rowValue(api frontend.API, row [rwtable.NumColumns]frontend.Variable, gamma frontend.Variable) frontend.Variable {
	var acc frontend.Variable = 0
	var pow frontend.Variable = 1
	for j := range row {
		acc = api.Add(acc, api.Mul(row[j], pow))
		pow = api.Mul(pow, gamma)
	}
	return acc
}

func foldRows(api frontend.API, rows [][rwtable.NumColumns]frontend.Variable, alpha, gamma, prev frontend.Variable) frontend.Variable {
	fp := prev
	for i := range rows {
		fp = api.Add(api.Mul(fp, alpha), rowValue(api, rows[i], gamma))
	}
	return fp
}

// NewRwFingerprintAssignment assigns a materialized chunk and the
// fingerprints folded over it.
func NewRwFingerprintAssignment(t *rwtable.Table, ch rwtable.Challenges[fr.Element], prev, next rwtable.Fingerprints[fr.Element]) *RwFingerprintCircuit {
	f := field.BN254{}
	w := NewRwFingerprintCircuit(len(t.TraceOrder))
	assignRows := func(dst [][rwtable.NumColumns]frontend.Variable, rows []rwtable.Row) {
		for i := range rows {
			cells := rwtable.Cells[fr.Element](f, &rows[i])
			for j := range cells {
				dst[i][j] = f.BigInt(cells[j])
			}
		}
	}
	assignRows(w.TraceOrder, t.TraceOrder)
	assignRows(w.Chronological, t.Chronological)

	w.Alpha = f.BigInt(ch.Alpha)
	w.Gamma = f.BigInt(ch.Gamma)
	w.PrevTraceOrder = f.BigInt(prev.TraceOrder)
	w.NextTraceOrder = f.BigInt(next.TraceOrder)
	w.PrevChronological = f.BigInt(prev.Chronological)
	w.NextChronological = f.BigInt(next.Chronological)
	return w
}

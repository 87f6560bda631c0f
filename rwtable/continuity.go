package rwtable

import (
	"errors"
	"fmt"
)

var ErrInconsistentState = errors.New("inconsistent rw state")

// CheckContinuity walks rows in chronological order and checks that every
// target's accesses have increasing rwc, that reads keep the value and that
// each access starts from the value the previous one left.
func CheckContinuity(rows []Row) error {
	var prev *Row
	for i := range rows {
		row := &rows[i]
		if row.Sentinel() {
			continue
		}
		if !row.IsWrite && !row.Value.Eq(&row.ValuePrev) {
			return fmt.Errorf("%w: read at rwc %d changes %s to %s", ErrInconsistentState, row.RWC, row.ValuePrev.Hex(), row.Value.Hex())
		}
		if prev != nil {
			switch c := prev.Target().Compare(row.Target()); {
			case c > 0:
				return fmt.Errorf("%w: rwc %d out of target order", ErrInconsistentState, row.RWC)
			case c == 0:
				if prev.RWC >= row.RWC {
					return fmt.Errorf("%w: rwc %d after %d on %s", ErrInconsistentState, row.RWC, prev.RWC, row.Tag)
				}
				if !prev.Value.Eq(&row.ValuePrev) {
					return fmt.Errorf("%w: rwc %d starts from %s, rwc %d left %s",
						ErrInconsistentState, row.RWC, row.ValuePrev.Hex(), prev.RWC, prev.Value.Hex())
				}
			}
		}
		prev = row
	}
	return nil
}

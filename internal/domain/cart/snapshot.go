package cart

import (
	"github.com/shopspring/decimal"
)

// Snapshot is an immutable view of a cart at a given version. Every
// mutation returns a new Snapshot.
type Snapshot struct {
	lines   []Line
	version int64
}

type Totals struct {
	ItemCount int
	Subtotal  decimal.Decimal
}

func NewSnapshot(lines []Line, version int64) (Snapshot, error) {
	seen := make(map[string]struct{}, len(lines))
	cp := make([]Line, 0, len(lines))
	for _, l := range lines {
		if _, dup := seen[l.id]; dup {
			return Snapshot{}, ErrDuplicateLine
		}
		seen[l.id] = struct{}{}
		cp = append(cp, l)
	}
	return Snapshot{lines: cp, version: version}, nil
}

func Empty() Snapshot {
	return Snapshot{}
}

func (s Snapshot) Version() int64 { return s.version }
func (s Snapshot) Len() int       { return len(s.lines) }
func (s Snapshot) IsEmpty() bool  { return len(s.lines) == 0 }

func (s Snapshot) Lines() []Line {
	out := make([]Line, len(s.lines))
	copy(out, s.lines)
	return out
}

func (s Snapshot) Line(id string) (Line, bool) {
	for _, l := range s.lines {
		if l.id == id {
			return l, true
		}
	}
	return Line{}, false
}

func (s Snapshot) ContainsProduct(productID string) bool {
	for _, l := range s.lines {
		if l.productID == productID {
			return true
		}
	}
	return false
}

func (s Snapshot) LineForProduct(productID string) (Line, bool) {
	for _, l := range s.lines {
		if l.productID == productID {
			return l, true
		}
	}
	return Line{}, false
}

func (s Snapshot) Subtotal() decimal.Decimal {
	total := decimal.Zero
	for _, l := range s.lines {
		total = total.Add(l.LineTotal())
	}
	return total
}

func (s Snapshot) Totals() Totals {
	count := 0
	for _, l := range s.lines {
		count += l.quantity
	}
	return Totals{ItemCount: count, Subtotal: s.Subtotal()}
}

// WithQuantity keeps the version: the result is a local, unconfirmed view.
func (s Snapshot) WithQuantity(lineID string, q int) (Snapshot, error) {
	idx := s.index(lineID)
	if idx < 0 {
		return Snapshot{}, ErrLineNotFound
	}
	updated, err := s.lines[idx].WithQuantity(q)
	if err != nil {
		return Snapshot{}, err
	}
	lines := s.Lines()
	lines[idx] = updated
	return Snapshot{lines: lines, version: s.version}, nil
}

func (s Snapshot) WithoutLine(lineID string) (Snapshot, error) {
	idx := s.index(lineID)
	if idx < 0 {
		return Snapshot{}, ErrLineNotFound
	}
	lines := make([]Line, 0, len(s.lines)-1)
	lines = append(lines, s.lines[:idx]...)
	lines = append(lines, s.lines[idx+1:]...)
	return Snapshot{lines: lines, version: s.version}, nil
}

// Equal compares line content and order, ignoring version.
func (s Snapshot) Equal(o Snapshot) bool {
	if len(s.lines) != len(o.lines) {
		return false
	}
	for i := range s.lines {
		if !s.lines[i].Equal(o.lines[i]) {
			return false
		}
	}
	return true
}

func (s Snapshot) index(lineID string) int {
	for i, l := range s.lines {
		if l.id == lineID {
			return i
		}
	}
	return -1
}

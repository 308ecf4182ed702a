package cart

import (
	"github.com/shopspring/decimal"
)

// Line is one product row of a cart. Its total is never stored; it is
// always derived from unit price and quantity.
type Line struct {
	id        string
	productID string
	name      string
	unitPrice decimal.Decimal
	quantity  int
}

func NewLine(id, productID, name string, unitPrice decimal.Decimal, quantity int) (Line, error) {
	if id == "" {
		return Line{}, ErrEmptyLineID
	}
	if unitPrice.IsNegative() {
		return Line{}, ErrInvalidPrice
	}
	if quantity < 1 {
		return Line{}, ErrInvalidQuantity
	}
	return Line{
		id:        id,
		productID: productID,
		name:      name,
		unitPrice: unitPrice,
		quantity:  quantity,
	}, nil
}

func (l Line) ID() string                 { return l.id }
func (l Line) ProductID() string          { return l.productID }
func (l Line) Name() string               { return l.name }
func (l Line) UnitPrice() decimal.Decimal { return l.unitPrice }
func (l Line) Quantity() int              { return l.quantity }

func (l Line) LineTotal() decimal.Decimal {
	return l.unitPrice.Mul(decimal.NewFromInt(int64(l.quantity)))
}

// WithQuantity returns a copy of l with q units. Removal is not a quantity
// change, so q must stay positive.
func (l Line) WithQuantity(q int) (Line, error) {
	if q < 1 {
		return Line{}, ErrInvalidQuantity
	}
	l.quantity = q
	return l, nil
}

// MatchesReportedTotal cross-checks a total reported by another party
// against the derived one.
func (l Line) MatchesReportedTotal(reported decimal.Decimal) bool {
	return l.LineTotal().Equal(reported)
}

func (l Line) Equal(o Line) bool {
	return l.id == o.id &&
		l.productID == o.productID &&
		l.name == o.name &&
		l.unitPrice.Equal(o.unitPrice) &&
		l.quantity == o.quantity
}

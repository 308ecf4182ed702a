//go:build unit || e2e || integration

package builder

import (
	"strconv"

	"storefront/internal/domain/cart"

	"github.com/shopspring/decimal"
)

type LineBuilder struct {
	ID        string
	ProductID string
	Name      string
	UnitPrice string
	Quantity  int
}

func NewLineBuilder() *LineBuilder {
	return &LineBuilder{
		ID:        "11",
		ProductID: "7",
		Name:      "Ink Cartridge",
		UnitPrice: "500",
		Quantity:  2,
	}
}

func (b *LineBuilder) With(mutate func(*LineBuilder)) *LineBuilder {
	mutate(b)
	return b
}

func (b *LineBuilder) BuildDomain() (cart.Line, error) {
	price, err := decimal.NewFromString(b.UnitPrice)
	if err != nil {
		return cart.Line{}, err
	}
	return cart.NewLine(b.ID, b.ProductID, b.Name, price, b.Quantity)
}

func (b *LineBuilder) MustBuild() cart.Line {
	l, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return l
}

func (b *LineBuilder) WithID(id string) *LineBuilder {
	b.ID = id
	return b
}

func (b *LineBuilder) WithProductID(id string) *LineBuilder {
	b.ProductID = id
	return b
}

func (b *LineBuilder) WithUnitPrice(p string) *LineBuilder {
	b.UnitPrice = p
	return b
}

func (b *LineBuilder) WithQuantity(q int) *LineBuilder {
	b.Quantity = q
	return b
}

type CartBuilder struct {
	Lines   []*LineBuilder
	Version int64
}

func NewCartBuilder() *CartBuilder {
	return &CartBuilder{Version: 1}
}

func (b *CartBuilder) With(mutate func(*CartBuilder)) *CartBuilder {
	mutate(b)
	return b
}

// WithLine appends a line whose ids are derived from its position.
func (b *CartBuilder) WithLine(productID, unitPrice string, quantity int) *CartBuilder {
	b.Lines = append(b.Lines, NewLineBuilder().
		WithID(strconv.Itoa(100+len(b.Lines))).
		WithProductID(productID).
		WithUnitPrice(unitPrice).
		WithQuantity(quantity))
	return b
}

func (b *CartBuilder) WithVersion(v int64) *CartBuilder {
	b.Version = v
	return b
}

func (b *CartBuilder) BuildDomain() (cart.Snapshot, error) {
	lines := make([]cart.Line, 0, len(b.Lines))
	for _, lb := range b.Lines {
		l, err := lb.BuildDomain()
		if err != nil {
			return cart.Snapshot{}, err
		}
		lines = append(lines, l)
	}
	return cart.NewSnapshot(lines, b.Version)
}

func (b *CartBuilder) MustBuild() cart.Snapshot {
	s, err := b.BuildDomain()
	if err != nil {
		panic(err)
	}
	return s
}

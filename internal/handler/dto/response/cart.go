package response

import (
	"storefront/internal/domain/cart"
	"storefront/internal/usecase/cartsync"

	"github.com/shopspring/decimal"
)

type CartLineResponse struct {
	ID        string          `json:"id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"line_total"`
}

// CartResponse is the cart as the caller should render it. Reverted tells
// the client its last change was undone; Resynced that the cart was fetched
// again from the store.
type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	ItemCount int                `json:"item_count"`
	Subtotal  decimal.Decimal    `json:"subtotal"`
	Version   int64              `json:"version"`
	State     string             `json:"state"`
	Reverted  bool               `json:"reverted,omitempty"`
	Resynced  bool               `json:"resynced,omitempty"`
}

type ProductInCartResponse struct {
	ProductID string `json:"product_id"`
	InCart    bool   `json:"in_cart"`
	LineID    string `json:"line_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"`
}

func FromSnapshot(s cart.Snapshot, state cartsync.State) *CartResponse {
	lines := s.Lines()
	out := make([]CartLineResponse, len(lines))
	for i, l := range lines {
		out[i] = CartLineResponse{
			ID:        l.ID(),
			ProductID: l.ProductID(),
			Name:      l.Name(),
			UnitPrice: l.UnitPrice(),
			Quantity:  l.Quantity(),
			LineTotal: l.LineTotal(),
		}
	}
	totals := s.Totals()
	return &CartResponse{
		Lines:     out,
		ItemCount: totals.ItemCount,
		Subtotal:  totals.Subtotal,
		Version:   s.Version(),
		State:     state.String(),
	}
}

func FromOutcome(o cartsync.Outcome, state cartsync.State) *CartResponse {
	res := FromSnapshot(o.Snapshot, state)
	res.Reverted = o.Reverted
	res.Resynced = o.Resynced
	return res
}

func FromProductLookup(productID string, s cart.Snapshot) *ProductInCartResponse {
	res := &ProductInCartResponse{ProductID: productID}
	if l, ok := s.LineForProduct(productID); ok {
		res.InCart = true
		res.LineID = l.ID()
		res.Quantity = l.Quantity()
	}
	return res
}

package commerce

import (
	"container/list"
	"context"
	"log/slog"
	"net/http"
	"net/url"
	"sync"

	"storefront/internal/domain/cart"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"
)

const defaultLineIndexSize = 10000

const (
	cartPath       = "/api/orders/view-cart/"
	addLinePath    = "/api/orders/add-to-cart/"
	updateLinePath = "/api/orders/update-cart-item/"
	removeLinePath = "/api/orders/remove-from-cart/"
)

// productIndex remembers which product each cart line was created for. The
// store's cart listing does not always carry product ids. Lines are dropped
// when deleted or ordered; past capacity the least recently used line goes.
type productIndex struct {
	mu       sync.Mutex
	capacity int
	order    *list.List
	byLine   map[string]*list.Element
}

type indexEntry struct {
	lineID    string
	productID string
}

func newProductIndex(capacity int) *productIndex {
	if capacity < 1 {
		capacity = defaultLineIndexSize
	}
	return &productIndex{
		capacity: capacity,
		order:    list.New(),
		byLine:   make(map[string]*list.Element),
	}
}

func (p *productIndex) remember(lineID, productID string) {
	if lineID == "" || productID == "" {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if el, ok := p.byLine[lineID]; ok {
		el.Value.(*indexEntry).productID = productID
		p.order.MoveToFront(el)
		return
	}
	p.byLine[lineID] = p.order.PushFront(&indexEntry{lineID: lineID, productID: productID})
	for p.order.Len() > p.capacity {
		oldest := p.order.Back()
		p.order.Remove(oldest)
		delete(p.byLine, oldest.Value.(*indexEntry).lineID)
	}
}

func (p *productIndex) lookup(lineID string) string {
	p.mu.Lock()
	defer p.mu.Unlock()
	el, ok := p.byLine[lineID]
	if !ok {
		return ""
	}
	p.order.MoveToFront(el)
	return el.Value.(*indexEntry).productID
}

func (p *productIndex) forget(lineIDs ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range lineIDs {
		if el, ok := p.byLine[id]; ok {
			p.order.Remove(el)
			delete(p.byLine, id)
		}
	}
}

func (p *productIndex) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.order.Len()
}

func (c *Client) FetchCart(ctx context.Context) (cart.Snapshot, error) {
	version := c.nextVersion()
	resp, err := c.do(ctx, http.MethodGet, cartPath, nil, true)
	if err != nil {
		return cart.Snapshot{}, err
	}
	if !isSuccess(resp) {
		return cart.Snapshot{}, statusError(resp, nil)
	}

	var body cartWire
	if err := decode(resp, &body); err != nil {
		return cart.Snapshot{}, err
	}
	if body.Version > 0 {
		version = body.Version
	}
	return c.toSnapshot(body, version)
}

func (c *Client) CreateLine(ctx context.Context, productID string) (cart.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodPost, addLinePath+url.PathEscape(productID)+"/", nil, true)
	if err != nil {
		return cart.Snapshot{}, err
	}
	if !isSuccess(resp) {
		return cart.Snapshot{}, statusError(resp, shared.ErrProductNotFound)
	}

	var body addToCartWire
	if err := decode(resp, &body); err != nil {
		return cart.Snapshot{}, err
	}
	if body.CartItem != nil {
		c.products.remember(body.CartItem.ID.String(), productID)
	}
	return c.answer(ctx, body.cartWire)
}

func (c *Client) UpdateLine(ctx context.Context, lineID string, quantity int) (cart.Snapshot, error) {
	in := struct {
		Quantity int `json:"quantity"`
	}{Quantity: quantity}

	resp, err := c.do(ctx, http.MethodPost, updateLinePath+url.PathEscape(lineID)+"/", in, true)
	if err != nil {
		return cart.Snapshot{}, err
	}
	if !isSuccess(resp) {
		return cart.Snapshot{}, statusError(resp, cart.ErrLineNotFound)
	}

	var body cartWire
	if len(resp.body) > 0 {
		if err := decode(resp, &body); err != nil {
			return cart.Snapshot{}, err
		}
	}
	return c.answer(ctx, body)
}

func (c *Client) DeleteLine(ctx context.Context, lineID string) (cart.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodDelete, removeLinePath+url.PathEscape(lineID)+"/", nil, true)
	if err != nil {
		return cart.Snapshot{}, err
	}
	if !isSuccess(resp) {
		return cart.Snapshot{}, statusError(resp, cart.ErrLineNotFound)
	}
	c.products.forget(lineID)

	var body cartWire
	if resp.status != http.StatusNoContent && len(resp.body) > 0 {
		if err := decode(resp, &body); err != nil {
			return cart.Snapshot{}, err
		}
	}
	return c.answer(ctx, body)
}

// answer turns a mutation response into the cart after the change. Stores
// that only acknowledge the mutation are asked for the cart again.
func (c *Client) answer(ctx context.Context, body cartWire) (cart.Snapshot, error) {
	if body.Items == nil {
		return c.FetchCart(ctx)
	}
	version := body.Version
	if version <= 0 {
		version = c.nextVersion()
	}
	return c.toSnapshot(body, version)
}

func (c *Client) toSnapshot(body cartWire, version int64) (cart.Snapshot, error) {
	lines := make([]cart.Line, 0, len(body.Items))
	for _, it := range body.Items {
		productID := it.ProductID.String()
		if productID == "" {
			productID = c.products.lookup(it.ID.String())
		}

		line, err := cart.NewLine(it.ID.String(), productID, it.ProductName, it.Price, it.Quantity)
		if err != nil {
			return cart.Snapshot{}, errs.Transient(errs.Mark(errs.Wrapf(err, "unusable cart line %q", it.ID), shared.ErrStoreUnavailable))
		}
		if !it.TotalPrice.IsZero() && !line.MatchesReportedTotal(it.TotalPrice) {
			slog.Warn("store line total differs from unit price times quantity",
				"line_id", line.ID(),
				"reported", it.TotalPrice.String(),
				"derived", line.LineTotal().String())
		}
		lines = append(lines, line)
	}

	snap, err := cart.NewSnapshot(lines, version)
	if err != nil {
		return cart.Snapshot{}, errs.Transient(errs.Mark(errs.Wrap(err, "unusable cart"), shared.ErrStoreUnavailable))
	}
	return snap, nil
}

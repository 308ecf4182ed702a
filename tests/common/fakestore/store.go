//go:build unit || e2e || integration

// Package fakestore is an in-memory stand-in for the remote commerce store
// with injectable failures and request gates.
package fakestore

import (
	"context"
	"strconv"
	"sync"

	"storefront/internal/domain/cart"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/shopspring/decimal"
)

type Op string

const (
	OpFetch  Op = "fetch"
	OpCreate Op = "create"
	OpUpdate Op = "update"
	OpDelete Op = "delete"
)

type Product struct {
	Name  string
	Price string
	Stock int
}

type line struct {
	id        string
	productID string
	qty       int
}

type gate struct {
	entered chan struct{}
	release chan struct{}
}

type Store struct {
	mu       sync.Mutex
	catalog  map[string]Product
	lines    []line
	version  int64
	nextID   int
	failures map[Op][]error
	gates    map[Op]*gate
	calls    map[Op]int
	stale    bool
}

func New() *Store {
	return &Store{
		catalog: map[string]Product{
			"7": {Name: "Ink Cartridge", Price: "500", Stock: 10},
			"8": {Name: "Refill Kit", Price: "120.50", Stock: 3},
			"9": {Name: "Photo Paper", Price: "35", Stock: 0},
		},
		version:  1,
		nextID:   100,
		failures: map[Op][]error{},
		gates:    map[Op]*gate{},
		calls:    map[Op]int{},
	}
}

func (s *Store) AddProduct(id string, p Product) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.catalog[id] = p
	return s
}

// Seed puts a line directly into the remote cart and returns its id.
func (s *Store) Seed(productID string, qty int) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := s.newID()
	s.lines = append(s.lines, line{id: id, productID: productID, qty: qty})
	s.version++
	return id
}

// FailNext queues err for the next call of op.
func (s *Store) FailNext(op Op, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], err)
}

// Block holds the next call of op until release is called. entered is
// closed once that call has started.
func (s *Store) Block(op Op) (entered <-chan struct{}, release func()) {
	g := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	s.mu.Lock()
	s.gates[op] = g
	s.mu.Unlock()
	var once sync.Once
	return g.entered, func() { once.Do(func() { close(g.release) }) }
}

// ServeStaleNext makes the next mutation answer with a version older than
// any the caller has seen.
func (s *Store) ServeStaleNext() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stale = true
}

func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

func (s *Store) Snapshot() cart.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) FetchCart(ctx context.Context) (cart.Snapshot, error) {
	if err := s.enter(ctx, OpFetch); err != nil {
		return cart.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), nil
}

func (s *Store) CreateLine(ctx context.Context, productID string) (cart.Snapshot, error) {
	if err := s.enter(ctx, OpCreate); err != nil {
		return cart.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.catalog[productID]
	if !ok {
		return cart.Snapshot{}, errs.Conflict(shared.ErrProductNotFound)
	}
	if s.indexByProduct(productID) >= 0 {
		return cart.Snapshot{}, errs.Conflict(shared.ErrAlreadyInCart)
	}
	if p.Stock < 1 {
		return cart.Snapshot{}, errs.Conflict(shared.ErrOutOfStock)
	}
	s.lines = append(s.lines, line{id: s.newID(), productID: productID, qty: 1})
	s.version++
	return s.answerLocked(), nil
}

func (s *Store) UpdateLine(ctx context.Context, lineID string, quantity int) (cart.Snapshot, error) {
	if err := s.enter(ctx, OpUpdate); err != nil {
		return cart.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(lineID)
	if idx < 0 {
		return cart.Snapshot{}, errs.Conflict(cart.ErrLineNotFound)
	}
	if quantity < 1 {
		return cart.Snapshot{}, errs.Validation(shared.ErrRequestRejected)
	}
	if quantity > s.catalog[s.lines[idx].productID].Stock {
		return cart.Snapshot{}, errs.Conflict(shared.ErrOutOfStock)
	}
	s.lines[idx].qty = quantity
	s.version++
	return s.answerLocked(), nil
}

func (s *Store) DeleteLine(ctx context.Context, lineID string) (cart.Snapshot, error) {
	if err := s.enter(ctx, OpDelete); err != nil {
		return cart.Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexByID(lineID)
	if idx < 0 {
		return cart.Snapshot{}, errs.Conflict(cart.ErrLineNotFound)
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	s.version++
	return s.answerLocked(), nil
}

// Clear empties the remote cart, as a completed checkout does.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.version++
}

func (s *Store) enter(ctx context.Context, op Op) error {
	s.mu.Lock()
	s.calls[op]++
	g := s.gates[op]
	delete(s.gates, op)
	var injected error
	if q := s.failures[op]; len(q) > 0 {
		injected = q[0]
		s.failures[op] = q[1:]
	}
	s.mu.Unlock()

	if g != nil {
		close(g.entered)
		select {
		case <-g.release:
		case <-ctx.Done():
			return errs.Transient(ctx.Err())
		}
	}
	return injected
}

func (s *Store) answerLocked() cart.Snapshot {
	snap := s.snapshotLocked()
	if !s.stale {
		return snap
	}
	s.stale = false
	old, _ := cart.NewSnapshot(snap.Lines(), 1)
	return old
}

func (s *Store) snapshotLocked() cart.Snapshot {
	lines := make([]cart.Line, 0, len(s.lines))
	for _, l := range s.lines {
		p := s.catalog[l.productID]
		cl, err := cart.NewLine(l.id, l.productID, p.Name, decimal.RequireFromString(p.Price), l.qty)
		if err != nil {
			panic(err)
		}
		lines = append(lines, cl)
	}
	snap, err := cart.NewSnapshot(lines, s.version)
	if err != nil {
		panic(err)
	}
	return snap
}

func (s *Store) newID() string {
	s.nextID++
	return strconv.Itoa(s.nextID)
}

func (s *Store) indexByID(id string) int {
	for i, l := range s.lines {
		if l.id == id {
			return i
		}
	}
	return -1
}

func (s *Store) indexByProduct(productID string) int {
	for i, l := range s.lines {
		if l.productID == productID {
			return i
		}
	}
	return -1
}

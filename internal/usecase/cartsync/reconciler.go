package cartsync

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"storefront/internal/domain/cart"
	"storefront/internal/pkg/errs"

	"golang.org/x/sync/singleflight"
)

var (
	ErrInvalidProduct = errs.New("product id is required")
	ErrSessionEnded   = errs.New("cart session ended while the request was in flight")
)

const defaultResyncTimeout = 5 * time.Second

// Store is the remote side of the cart. Each mutation answers with the
// authoritative cart after the change.
type Store interface {
	FetchCart(ctx context.Context) (cart.Snapshot, error)
	CreateLine(ctx context.Context, productID string) (cart.Snapshot, error)
	UpdateLine(ctx context.Context, lineID string, quantity int) (cart.Snapshot, error)
	DeleteLine(ctx context.Context, lineID string) (cart.Snapshot, error)
}

// Outcome is the settled result of a cart operation. Reverted is set when a
// local change had to be discarded; Resynced when the cart was fetched
// again to recover from a failure.
type Outcome struct {
	Snapshot cart.Snapshot
	Reverted bool
	Resynced bool
}

type Option func(*Reconciler)

// WithResyncTimeout bounds the requests that run on after their caller is
// gone: the healing fetch and a shared add.
func WithResyncTimeout(d time.Duration) Option {
	return func(r *Reconciler) { r.resyncTimeout = d }
}

// Reconciler keeps a locally rendered cart in step with the store.
// Mutations are serialized; reads never block on the network and observe
// optimistic changes while their requests are in flight.
type Reconciler struct {
	store         Store
	resyncTimeout time.Duration

	opMu sync.Mutex
	adds singleflight.Group

	mu        sync.RWMutex
	state     State
	confirmed cart.Snapshot
	view      cart.Snapshot
	// epoch changes on Teardown; responses carrying an older epoch are
	// dropped.
	epoch uint64
}

func NewReconciler(store Store, opts ...Option) *Reconciler {
	r := &Reconciler{
		store:         store,
		resyncTimeout: defaultResyncTimeout,
		confirmed:     cart.Empty(),
		view:          cart.Empty(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state
}

func (r *Reconciler) Snapshot() cart.Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.view
}

func (r *Reconciler) Totals() cart.Totals {
	return r.Snapshot().Totals()
}

func (r *Reconciler) IsProductInCart(productID string) bool {
	return r.Snapshot().ContainsProduct(productID)
}

// Init loads the authoritative cart at session start. On failure the cart
// is left empty.
func (r *Reconciler) Init(ctx context.Context) (Outcome, error) {
	return r.Refresh(ctx)
}

// Refresh replaces the local cart with the store's.
func (r *Reconciler) Refresh(ctx context.Context) (Outcome, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	epoch := r.currentEpoch()
	snap, err := r.store.FetchCart(ctx)
	if err != nil {
		return r.current(), errs.Wrap(err, "fetch cart")
	}
	return r.settle(ctx, epoch, snap)
}

// Teardown empties the cart and drops any response still in flight.
func (r *Reconciler) Teardown() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.epoch++
	r.state = StateIdle
	r.confirmed = cart.Empty()
	r.view = cart.Empty()
}

// AddLine asks the store to add productID. Nothing is inserted locally
// before the store answers because price and stock are unknown until then.
// Concurrent calls for the same product share a single request. The shared
// request is detached from any one caller, so a caller that goes away only
// stops waiting for it.
func (r *Reconciler) AddLine(ctx context.Context, productID string) (Outcome, error) {
	if productID == "" {
		return r.current(), errs.Validation(ErrInvalidProduct)
	}
	ch := r.adds.DoChan(productID, func() (any, error) {
		detached, cancel := r.detach(ctx)
		defer cancel()
		return r.addLine(detached, productID)
	})

	select {
	case res := <-ch:
		if res.Shared {
			slog.Debug("add to cart coalesced", "product_id", productID)
		}
		out, ok := res.Val.(Outcome)
		if !ok {
			out = r.current()
		}
		return out, res.Err
	case <-ctx.Done():
		return r.current(), errs.Transient(errs.Wrapf(ctx.Err(), "add product %s", productID))
	}
}

func (r *Reconciler) addLine(ctx context.Context, productID string) (Outcome, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	epoch := r.beginLocked(nil)
	r.mu.Unlock()

	snap, err := r.store.CreateLine(ctx, productID)
	if err != nil {
		return r.recover(ctx, epoch, errs.Wrapf(err, "add product %s", productID), false)
	}
	return r.settle(ctx, epoch, snap)
}

// UpdateQuantity shows the new quantity immediately, then replaces the cart
// with the store's answer, or restores the last confirmed cart if the store
// refuses.
func (r *Reconciler) UpdateQuantity(ctx context.Context, lineID string, quantity int) (Outcome, error) {
	if quantity < 1 {
		return r.current(), errs.Validation(cart.ErrInvalidQuantity)
	}

	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	line, ok := r.view.Line(lineID)
	if !ok {
		r.mu.Unlock()
		return r.current(), errs.Conflict(cart.ErrLineNotFound)
	}
	if line.Quantity() == quantity && r.state == StateIdle {
		out := Outcome{Snapshot: r.view}
		r.mu.Unlock()
		return out, nil
	}
	optimistic, err := r.view.WithQuantity(lineID, quantity)
	if err != nil {
		r.mu.Unlock()
		return r.current(), errs.Validation(err)
	}
	epoch := r.beginLocked(&optimistic)
	r.mu.Unlock()

	snap, err := r.store.UpdateLine(ctx, lineID, quantity)
	if err != nil {
		return r.recover(ctx, epoch, errs.Wrapf(err, "update line %s", lineID), true)
	}
	return r.settle(ctx, epoch, snap)
}

// RemoveLine drops the line locally, then confirms with the store.
func (r *Reconciler) RemoveLine(ctx context.Context, lineID string) (Outcome, error) {
	r.opMu.Lock()
	defer r.opMu.Unlock()

	r.mu.Lock()
	optimistic, err := r.view.WithoutLine(lineID)
	if err != nil {
		r.mu.Unlock()
		return r.current(), errs.Conflict(err)
	}
	epoch := r.beginLocked(&optimistic)
	r.mu.Unlock()

	snap, err := r.store.DeleteLine(ctx, lineID)
	if err != nil {
		return r.recover(ctx, epoch, errs.Wrapf(err, "remove line %s", lineID), true)
	}
	return r.settle(ctx, epoch, snap)
}

func (r *Reconciler) current() Outcome {
	return Outcome{Snapshot: r.Snapshot()}
}

func (r *Reconciler) currentEpoch() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.epoch
}

// beginLocked enters Mutating, applying optimistic when given. mu must be
// held.
func (r *Reconciler) beginLocked(optimistic *cart.Snapshot) uint64 {
	r.state = StateMutating
	if optimistic != nil {
		r.view = *optimistic
	}
	return r.epoch
}

// settle applies an authoritative snapshot. A snapshot older than the last
// confirmed one triggers a fresh fetch instead.
func (r *Reconciler) settle(ctx context.Context, epoch uint64, snap cart.Snapshot) (Outcome, error) {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return r.current(), errs.AuthRequired(ErrSessionEnded)
	}
	stale := snap.Version() != 0 && snap.Version() < r.confirmed.Version()
	if !stale {
		r.apply(snap)
		out := Outcome{Snapshot: r.view}
		r.mu.Unlock()
		return out, nil
	}
	r.mu.Unlock()

	slog.Warn("discarding stale cart snapshot",
		"received_version", snap.Version(),
		"confirmed_version", r.confirmedVersion())

	fresh, err := r.resync(ctx)
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return Outcome{Snapshot: r.view}, errs.AuthRequired(ErrSessionEnded)
	}
	if err != nil {
		r.view = r.confirmed
		r.state = StateIdle
		return Outcome{Snapshot: r.view, Reverted: true}, errs.Wrap(err, "resync after stale snapshot")
	}
	r.apply(fresh)
	return Outcome{Snapshot: r.view, Resynced: true}, nil
}

// recover handles a failed mutation. The view returns to the last
// confirmed cart. Unless the credential is gone, the cart is fetched again
// whenever a local change was pending or the failure was transient.
func (r *Reconciler) recover(ctx context.Context, epoch uint64, cause error, optimistic bool) (Outcome, error) {
	r.mu.Lock()
	if r.epoch != epoch {
		r.mu.Unlock()
		return r.current(), errs.AuthRequired(ErrSessionEnded)
	}
	r.view = r.confirmed
	kind := errs.KindOf(cause)
	refetch := kind != errs.KindAuthRequired && (optimistic || kind == errs.KindTransient)
	if !refetch {
		r.state = StateIdle
		out := Outcome{Snapshot: r.view, Reverted: optimistic}
		r.mu.Unlock()
		return out, cause
	}
	r.state = StateReverting
	r.mu.Unlock()

	fresh, err := r.resync(ctx)

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.epoch != epoch {
		return Outcome{Snapshot: r.view}, errs.AuthRequired(ErrSessionEnded)
	}
	out := Outcome{Reverted: optimistic}
	if err != nil {
		slog.Warn("cart resync failed", "error", err.Error(), "cause", cause.Error())
	} else {
		r.apply(fresh)
		out.Resynced = true
	}
	r.state = StateIdle
	out.Snapshot = r.view
	return out, cause
}

// resync outlives the caller's cancellation so the cart heals even when the
// client has gone away.
func (r *Reconciler) resync(ctx context.Context) (cart.Snapshot, error) {
	ctx, cancel := r.detach(ctx)
	defer cancel()
	return r.store.FetchCart(ctx)
}

// detach keeps ctx values but not its cancellation, bounded by the resync
// timeout.
func (r *Reconciler) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), r.resyncTimeout)
}

// apply must be called with mu held.
func (r *Reconciler) apply(snap cart.Snapshot) {
	r.confirmed = snap
	r.view = snap
	r.state = StateIdle
}

func (r *Reconciler) confirmedVersion() int64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.confirmed.Version()
}

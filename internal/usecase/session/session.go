package session

import (
	"sync"
	"time"

	"storefront/internal/domain/discount"
	"storefront/internal/usecase/cartsync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppliedPromo is a promo code the store accepted for a given subtotal.
type AppliedPromo struct {
	Code              discount.PromoCode
	Amount            decimal.Decimal
	ValidatedSubtotal decimal.Decimal
}

// StaleFor reports whether the promo was validated against a different
// subtotal and must be checked again.
func (p AppliedPromo) StaleFor(subtotal decimal.Decimal) bool {
	return !p.ValidatedSubtotal.Equal(subtotal)
}

// Session is one signed-in user's view of the storefront: the cart and the
// discount choices made at checkout.
type Session struct {
	ID     uuid.UUID
	UserID string
	Cart   *cartsync.Reconciler

	mu       sync.Mutex
	promo    *AppliedPromo
	lastSeen time.Time
}

func newSession(id uuid.UUID, userID string, cart *cartsync.Reconciler, now time.Time) *Session {
	return &Session{ID: id, UserID: userID, Cart: cart, lastSeen: now}
}

func (s *Session) Promo() (AppliedPromo, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.promo == nil {
		return AppliedPromo{}, false
	}
	return *s.promo, true
}

func (s *Session) SetPromo(p AppliedPromo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promo = &p
}

func (s *Session) ClearPromo() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.promo = nil
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if now.After(s.lastSeen) {
		s.lastSeen = now
	}
}

func (s *Session) idleSince(now time.Time) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return now.Sub(s.lastSeen)
}

// end drops the cart and any checkout state.
func (s *Session) end() {
	s.Cart.Teardown()
	s.ClearPromo()
}

//go:build unit

package commerce_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"storefront/internal/domain/auth"
	"storefront/internal/domain/cart"
	"storefront/internal/domain/discount"
	"storefront/internal/domain/order"
	"storefront/internal/infra/commerce"
	"storefront/internal/pkg/config"
	"storefront/internal/pkg/errs"
	"storefront/internal/usecase/shared"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

const bearer = "store-access"

type storeLine struct {
	id        int
	productID int
	name      string
	price     string
	qty       int
}

// fakeCommerce mimics the store's HTTP API closely enough for the client:
// the cart listing omits product ids and mutations answer with a message.
type fakeCommerce struct {
	mu       sync.Mutex
	lines    []storeLine
	stock    map[int]int
	nextID   int
	hits     atomic.Int64
	failWith atomic.Int64
	lastBody map[string]any
}

func newFakeCommerce() *fakeCommerce {
	return &fakeCommerce{
		stock:  map[int]int{7: 10, 9: 1},
		nextID: 100,
	}
}

func (f *fakeCommerce) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/orders/view-cart/", f.authed(f.viewCart))
	mux.HandleFunc("POST /api/orders/add-to-cart/{id}/", f.authed(f.addToCart))
	mux.HandleFunc("POST /api/orders/update-cart-item/{id}/", f.authed(f.updateItem))
	mux.HandleFunc("DELETE /api/orders/remove-from-cart/{id}/", f.authed(f.removeItem))
	mux.HandleFunc("POST /api/orders/checkout/", f.authed(f.checkout))
	mux.HandleFunc("GET /api/orders/view-orders/", f.authed(f.viewOrders))
	mux.HandleFunc("POST /api/discounts/validate-promo/", f.authed(f.validatePromo))
	mux.HandleFunc("GET /api/discounts/my-discounts/", f.authed(f.myDiscounts))
	mux.HandleFunc("POST /api/accounts/login/", f.login)
	mux.HandleFunc("GET /api/accounts/profile/", f.authed(f.profile))
	mux.HandleFunc("POST /api/token/refresh/", f.refresh)
	mux.HandleFunc("POST /api/accounts/logout/", f.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusResetContent, map[string]any{"message": "Logged out successfully"})
	}))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.hits.Add(1)
		if code := f.failWith.Load(); code != 0 {
			writeJSON(w, int(code), map[string]any{"error": "boom"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (f *fakeCommerce) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+bearer {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Authentication credentials were not provided."})
			return
		}
		next(w, r)
	}
}

func (f *fakeCommerce) viewCart(w http.ResponseWriter, _ *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]map[string]any, 0, len(f.lines))
	for _, l := range f.lines {
		price := decimal.RequireFromString(l.price)
		items = append(items, map[string]any{
			"id":           l.id,
			"product_name": l.name,
			"image":        "/media/p.png",
			"price":        l.price,
			"quantity":     l.qty,
			"total_price":  price.Mul(decimal.NewFromInt(int64(l.qty))).StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart_items": items, "total_price": "0"})
}

func (f *fakeCommerce) addToCart(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var pid int
	_ = json.Unmarshal([]byte(r.PathValue("id")), &pid)
	if _, ok := f.stock[pid]; !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Product not found"})
		return
	}
	f.nextID++
	l := storeLine{id: f.nextID, productID: pid, name: "Fountain Pen", price: "560.25", qty: 1}
	f.lines = append(f.lines, l)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Added Fountain Pen to your cart.",
		"cart_item": map[string]any{"id": l.id, "product_name": l.name, "price": l.price, "quantity": 1},
	})
}

func (f *fakeCommerce) updateItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var in struct {
		Quantity int `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	idx := f.index(r.PathValue("id"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cart item not found"})
		return
	}
	if in.Quantity > f.stock[f.lines[idx].productID] {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Not enough stock!"})
		return
	}
	if in.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Quantity must be at least 1."})
		return
	}
	f.lines[idx].qty = in.Quantity
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cart updated successfully!"})
}

func (f *fakeCommerce) removeItem(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	idx := f.index(r.PathValue("id"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cart item not found"})
		return
	}
	f.lines = append(f.lines[:idx], f.lines[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (f *fakeCommerce) checkout(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	_ = json.NewDecoder(r.Body).Decode(&f.lastBody)
	if len(f.lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Your cart is empty!"})
		return
	}
	f.lines = nil
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully!",
		"order": map[string]any{
			"id": 501, "uuid": "a1b2c3d4", "total_price": "1120.50",
			"final_price": 1008.45, "payment_status": "pending", "cart_items": []any{},
		},
		"payment_form": "<form></form>",
	})
}

func (f *fakeCommerce) viewOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, []map[string]any{
		{
			"id": 12, "uuid": "ffee0011", "total_price": "300.00", "final_price": "270.00",
			"payment_status": "completed", "created_at": "2026-03-01T10:00:00Z",
			"cart_items": []map[string]any{{"id": 1, "price": "100.00", "quantity": 3, "total_price": "300.00"}},
		},
		{
			"id": 13, "uuid": "ffee0012", "total_price": "50.00", "final_price": "50.00",
			"payment_status": "weird", "cart_items": []any{},
		},
	})
}

func (f *fakeCommerce) validatePromo(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	switch in.Code {
	case "SAVE10":
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "promo_code": map[string]any{
			"code": "SAVE10", "discount_amount": "10.00", "is_percentage": true, "is_valid": true,
		}})
	case "FLAT50":
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "promo_code": map[string]any{
			"code": "FLAT50", "discount_amount": "50.00", "is_percentage": false, "is_valid": true,
		}})
	case "OLD":
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "This promo code has expired"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "message": "Invalid promo code"})
	}
}

func (f *fakeCommerce) myDiscounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"discounts": []map[string]any{
		{"discount_percentage": "15.00", "reason": "7-day login streak reward", "valid_until": "2026-12-01T00:00:00Z"},
		{"discount_percentage": "5.00", "reason": "Ink bottle return reward", "valid_until": "2026-11-01T00:00:00Z"},
	}})
}

func (f *fakeCommerce) login(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["username"] != "sankalpa" || in["password"] != "secret-pass" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access": bearer, "refresh": "store-refresh",
		"user": map[string]any{"id": 42, "username": "sankalpa"},
	})
}

func (f *fakeCommerce) profile(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"id": 42, "username": "sankalpa", "email": "s@example.com", "points": 250})
}

func (f *fakeCommerce) refresh(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["refresh"] != "store-refresh" {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": "store-access-2"})
}

func (f *fakeCommerce) index(id string) int {
	for i, l := range f.lines {
		b, _ := json.Marshal(l.id)
		if string(b) == id {
			return i
		}
	}
	return -1
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type ClientTestSuite struct {
	suite.Suite
	fake   *fakeCommerce
	server *httptest.Server
	client *commerce.Client
	ctx    context.Context
}

func TestClientSuite(t *testing.T) {
	suite.Run(t, new(ClientTestSuite))
}

func (s *ClientTestSuite) SetupTest() {
	s.fake = newFakeCommerce()
	s.server = httptest.NewServer(s.fake.handler())

	cfg := config.NewTestConfig().Commerce
	cfg.BaseURL = s.server.URL + "/"
	client, err := commerce.NewClient(cfg)
	s.Require().NoError(err)
	s.client = client
	s.ctx = shared.WithBearer(context.Background(), bearer)
}

func (s *ClientTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ClientTestSuite) TestCart() {
	s.Run("add answers with the cart after the change", func() {
		snap, err := s.client.CreateLine(s.ctx, "7")
		s.Require().NoError(err)
		s.Require().Equal(1, snap.Len())

		line := snap.Lines()[0]
		s.Equal("101", line.ID())
		s.Equal("7", line.ProductID())
		s.True(decimal.RequireFromString("560.25").Equal(line.UnitPrice()))
		s.True(snap.ContainsProduct("7"))
	})

	s.Run("listing keeps product ids learned from adds", func() {
		snap, err := s.client.FetchCart(s.ctx)
		s.Require().NoError(err)
		l, ok := snap.LineForProduct("7")
		s.True(ok)
		s.Equal("101", l.ID())
	})

	s.Run("snapshots are stamped in request order", func() {
		first, err := s.client.FetchCart(s.ctx)
		s.Require().NoError(err)
		second, err := s.client.FetchCart(s.ctx)
		s.Require().NoError(err)
		s.Greater(second.Version(), first.Version())
	})

	s.Run("update", func() {
		snap, err := s.client.UpdateLine(s.ctx, "101", 3)
		s.Require().NoError(err)
		l, _ := snap.Line("101")
		s.Equal(3, l.Quantity())
		s.True(decimal.RequireFromString("1680.75").Equal(snap.Subtotal()))
	})

	s.Run("update beyond stock", func() {
		_, err := s.client.UpdateLine(s.ctx, "101", 11)
		s.True(errs.Is(err, shared.ErrOutOfStock))
		s.Equal(errs.KindConflict, errs.KindOf(err))
	})

	s.Run("update unknown line", func() {
		_, err := s.client.UpdateLine(s.ctx, "999", 2)
		s.True(errs.Is(err, cart.ErrLineNotFound))
		s.Equal(errs.KindConflict, errs.KindOf(err))
	})

	s.Run("unknown product", func() {
		_, err := s.client.CreateLine(s.ctx, "404")
		s.True(errs.Is(err, shared.ErrProductNotFound))
		s.Equal(errs.KindConflict, errs.KindOf(err))
	})

	s.Run("delete answers with the remaining cart", func() {
		snap, err := s.client.DeleteLine(s.ctx, "101")
		s.Require().NoError(err)
		s.True(snap.IsEmpty())
	})
}

func (s *ClientTestSuite) TestCredentials() {
	s.Run("missing bearer never reaches the store", func() {
		_, err := s.client.FetchCart(context.Background())
		s.Equal(errs.KindAuthRequired, errs.KindOf(err))
		s.Zero(s.fake.hits.Load())
	})

	s.Run("rejected bearer", func() {
		_, err := s.client.FetchCart(shared.WithBearer(context.Background(), "expired"))
		s.Equal(errs.KindAuthRequired, errs.KindOf(err))
		s.True(errs.Is(err, shared.ErrNotAuthenticated))
	})
}

func (s *ClientTestSuite) TestAccounts() {
	s.Run("login fetches the profile with the new credential", func() {
		creds, err := auth.NewCredentials("sankalpa", "secret-pass")
		s.Require().NoError(err)

		tokens, profile, err := s.client.Login(context.Background(), creds)
		s.Require().NoError(err)
		s.Equal(auth.TokenPair{Access: bearer, Refresh: "store-refresh"}, tokens)
		s.Equal("42", profile.ID())
		s.Equal(int64(250), profile.Points())
	})

	s.Run("wrong password", func() {
		creds, err := auth.NewCredentials("sankalpa", "wrong-pass")
		s.Require().NoError(err)

		_, _, err = s.client.Login(context.Background(), creds)
		s.True(errs.Is(err, shared.ErrInvalidCredential))
		s.Equal(errs.KindAuthRequired, errs.KindOf(err))
	})

	s.Run("refresh without rotation", func() {
		tokens, err := s.client.RefreshToken(context.Background(), "store-refresh")
		s.Require().NoError(err)
		s.Equal("store-access-2", tokens.Access)
		s.Empty(tokens.Refresh)
	})

	s.Run("refresh token refused", func() {
		_, err := s.client.RefreshToken(context.Background(), "blacklisted")
		s.Equal(errs.KindAuthRequired, errs.KindOf(err))
	})

	s.Run("logout", func() {
		s.NoError(s.client.Logout(s.ctx, "store-refresh"))
	})
}

func (s *ClientTestSuite) TestDiscounts() {
	total := decimal.RequireFromString("1120.50")

	s.Run("percentage promo becomes an amount", func() {
		res, err := s.client.ValidatePromo(s.ctx, discount.PromoCode("SAVE10"), total)
		s.Require().NoError(err)
		s.True(decimal.RequireFromString("112.05").Equal(res.DiscountAmount), res.DiscountAmount.String())
	})

	s.Run("fixed promo", func() {
		res, err := s.client.ValidatePromo(s.ctx, discount.PromoCode("FLAT50"), total)
		s.Require().NoError(err)
		s.True(decimal.NewFromInt(50).Equal(res.DiscountAmount))
	})

	for _, code := range []string{"OLD", "NOPE"} {
		s.Run("rejected "+code, func() {
			_, err := s.client.ValidatePromo(s.ctx, discount.PromoCode(code), total)
			s.True(errs.Is(err, shared.ErrInvalidPromo))
			s.Equal(errs.KindValidation, errs.KindOf(err))
		})
	}

	s.Run("personal discount is the newest entry", func() {
		pct, err := s.client.FetchPersonalDiscount(s.ctx)
		s.Require().NoError(err)
		s.Require().NotNil(pct)
		s.True(decimal.NewFromInt(15).Equal(pct.Value()))
	})
}

func (s *ClientTestSuite) TestOrders() {
	s.Run("empty cart checkout is rejected", func() {
		_, err := s.client.Checkout(s.ctx, s.payload())
		s.Equal(errs.KindValidation, errs.KindOf(err))
	})

	s.Run("checkout", func() {
		_, err := s.client.CreateLine(s.ctx, "7")
		s.Require().NoError(err)

		conf, err := s.client.Checkout(s.ctx, s.payload())
		s.Require().NoError(err)
		s.Equal("501", conf.OrderID)
		s.Equal("a1b2c3d4", conf.Reference)
		s.True(decimal.RequireFromString("1008.45").Equal(conf.FinalPrice))
		s.Equal(order.PaymentPending, conf.PaymentStatus)
		s.Equal("1008.45", s.fake.lastBody["expected_total"])
		s.Equal("SAVE10", s.fake.lastBody["promo_code"])
	})

	s.Run("history", func() {
		orders, err := s.client.ListOrders(s.ctx)
		s.Require().NoError(err)
		s.Require().Len(orders, 2)
		s.Equal(3, orders[0].ItemCount)
		s.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC), orders[0].PlacedAt.UTC())
		s.Equal(order.PaymentCompleted, orders[0].PaymentStatus)
		s.Equal(order.PaymentPending, orders[1].PaymentStatus)
		s.True(orders[1].PlacedAt.IsZero())
	})
}

func (s *ClientTestSuite) payload() shared.CheckoutPayload {
	ship, err := order.NewShippingInfo("Sankalpa Shrestha", "s@example.com", "+977 9800000000", "Thamel Marg 12", "Kathmandu")
	s.Require().NoError(err)
	return shared.CheckoutPayload{
		Shipping:      ship,
		PaymentMethod: order.PaymentCashOnDelivery,
		PromoCode:     discount.PromoCode("SAVE10"),
		PromoDiscount: decimal.RequireFromString("112.05"),
		ExpectedTotal: decimal.RequireFromString("1008.45"),
	}
}

func (s *ClientTestSuite) TestBreaker() {
	s.fake.failWith.Store(http.StatusBadGateway)

	// NewTestConfig opens the breaker after three consecutive failures.
	for range 3 {
		_, err := s.client.FetchCart(s.ctx)
		s.Equal(errs.KindTransient, errs.KindOf(err))
		s.True(errs.Is(err, shared.ErrStoreUnavailable))
		s.False(errs.Is(err, shared.ErrRequestNotSent))
	}
	s.Equal(int64(3), s.fake.hits.Load())

	_, err := s.client.FetchCart(s.ctx)
	s.Equal(errs.KindTransient, errs.KindOf(err))
	s.Equal(int64(3), s.fake.hits.Load(), "open breaker must not reach the store")
	s.True(errs.Is(err, shared.ErrRequestNotSent))

	s.fake.failWith.Store(0)
	s.Eventually(func() bool {
		_, err := s.client.FetchCart(s.ctx)
		return err == nil
	}, 3*time.Second, 100*time.Millisecond)
}

func TestClientFailures(t *testing.T) {
	t.Run("client errors do not trip the breaker", func(t *testing.T) {
		var hits atomic.Int64
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
			_, _ = io.Copy(io.Discard, r.Body)
			writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cart item not found"})
		}))
		defer srv.Close()

		cfg := config.NewTestConfig().Commerce
		cfg.BaseURL = srv.URL
		client, err := commerce.NewClient(cfg)
		require.NoError(t, err)

		ctx := shared.WithBearer(context.Background(), bearer)
		for range 5 {
			_, err := client.DeleteLine(ctx, "1")
			assert.Equal(t, errs.KindConflict, errs.KindOf(err))
		}
		assert.Equal(t, int64(5), hits.Load())
	})

	t.Run("timeout is transient", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			select {
			case <-r.Context().Done():
			case <-time.After(time.Second):
			}
		}))
		defer srv.Close()

		cfg := config.NewTestConfig().Commerce
		cfg.BaseURL = srv.URL
		cfg.Timeout = 50 * time.Millisecond
		client, err := commerce.NewClient(cfg)
		require.NoError(t, err)

		_, err = client.FetchCart(shared.WithBearer(context.Background(), bearer))
		assert.Equal(t, errs.KindTransient, errs.KindOf(err))
	})

	t.Run("relative base URL", func(t *testing.T) {
		cfg := config.NewTestConfig().Commerce
		cfg.BaseURL = "commerce.local"
		_, err := commerce.NewClient(cfg)
		assert.Error(t, err)
	})
}

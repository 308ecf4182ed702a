//go:build e2e || integration

// Package fakecommerce serves the subset of the commerce store's HTTP API
// the storefront talks to, backed by memory.
package fakecommerce

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Username = "sankalpa"
	Password = "secret-pass"

	AccessToken  = "store-access"
	RefreshToken = "store-refresh"
)

type Product struct {
	Name  string
	Price string
	Stock int
}

type line struct {
	id        int
	productID int
	qty       int
}

type placedOrder struct {
	id         int
	total      decimal.Decimal
	finalPrice decimal.Decimal
	items      int
	placedAt   time.Time
}

type Server struct {
	*httptest.Server

	mu       sync.Mutex
	catalog  map[int]Product
	lines    []line
	orders   []placedOrder
	nextID   int
	points   int64
	failWith atomic.Int64

	checkouts atomic.Int64
	lastOrder map[string]any
}

// New starts a store with three products and an empty cart. The server is
// closed when t ends.
func New(t *testing.T) *Server {
	t.Helper()
	s := &Server{
		catalog: map[int]Product{
			7: {Name: "Ink Cartridge", Price: "500.00", Stock: 10},
			8: {Name: "Refill Kit", Price: "120.50", Stock: 3},
			9: {Name: "Photo Paper", Price: "35.00", Stock: 0},
		},
		nextID: 100,
		points: 250,
	}
	s.Server = httptest.NewServer(s.handler())
	t.Cleanup(s.Close)
	return s
}

// Reset empties the cart and order history.
func (s *Server) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = nil
	s.orders = nil
	s.lastOrder = nil
	s.points = 250
	s.failWith.Store(0)
	s.checkouts.Store(0)
}

// FailAll answers every request with status until called with 0.
func (s *Server) FailAll(status int) {
	s.failWith.Store(int64(status))
}

func (s *Server) Checkouts() int64 {
	return s.checkouts.Load()
}

// LastOrder is the body of the most recent checkout request.
func (s *Server) LastOrder() map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastOrder
}

func (s *Server) CartQuantity(productID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, l := range s.lines {
		if l.productID == productID {
			return l.qty
		}
	}
	return 0
}

func (s *Server) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/accounts/login/", s.login)
	mux.HandleFunc("POST /api/token/refresh/", s.refresh)
	mux.HandleFunc("POST /api/accounts/logout/", s.authed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusResetContent, map[string]any{"message": "Logged out successfully"})
	}))
	mux.HandleFunc("GET /api/accounts/profile/", s.authed(s.profile))
	mux.HandleFunc("GET /api/orders/view-cart/", s.authed(s.viewCart))
	mux.HandleFunc("POST /api/orders/add-to-cart/{id}/", s.authed(s.addToCart))
	mux.HandleFunc("POST /api/orders/update-cart-item/{id}/", s.authed(s.updateItem))
	mux.HandleFunc("DELETE /api/orders/remove-from-cart/{id}/", s.authed(s.removeItem))
	mux.HandleFunc("POST /api/orders/checkout/", s.authed(s.checkout))
	mux.HandleFunc("GET /api/orders/view-orders/", s.authed(s.viewOrders))
	mux.HandleFunc("POST /api/discounts/validate-promo/", s.authed(s.validatePromo))
	mux.HandleFunc("GET /api/discounts/my-discounts/", s.authed(s.myDiscounts))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if code := s.failWith.Load(); code != 0 {
			writeJSON(w, int(code), map[string]any{"error": "unavailable"})
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func (s *Server) authed(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h := r.Header.Get("Authorization")
		if h != "Bearer "+AccessToken && h != "Bearer "+AccessToken+"-2" {
			writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Given token not valid for any token type"})
			return
		}
		next(w, r)
	}
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["username"] != Username || in["password"] != Password {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"error": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"access": AccessToken, "refresh": RefreshToken,
		"user": map[string]any{"id": 42, "username": Username},
	})
}

func (s *Server) refresh(w http.ResponseWriter, r *http.Request) {
	var in map[string]string
	_ = json.NewDecoder(r.Body).Decode(&in)
	if in["refresh"] != RefreshToken {
		writeJSON(w, http.StatusUnauthorized, map[string]any{"detail": "Token is invalid or expired"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"access": AccessToken + "-2"})
}

func (s *Server) profile(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	points := s.points
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]any{
		"id": 42, "username": Username, "email": "sankalpa@example.com", "points": points,
	})
}

func (s *Server) viewCart(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]map[string]any, 0, len(s.lines))
	total := decimal.Zero
	for _, l := range s.lines {
		p := s.catalog[l.productID]
		price := decimal.RequireFromString(p.Price)
		lineTotal := price.Mul(decimal.NewFromInt(int64(l.qty)))
		total = total.Add(lineTotal)
		items = append(items, map[string]any{
			"id":           l.id,
			"product_id":   l.productID,
			"product_name": p.Name,
			"price":        p.Price,
			"quantity":     l.qty,
			"total_price":  lineTotal.StringFixed(2),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"cart_items": items, "total_price": total.StringFixed(2)})
}

func (s *Server) addToCart(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pid, err := strconv.Atoi(r.PathValue("id"))
	p, ok := s.catalog[pid]
	if err != nil || !ok {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Product not found"})
		return
	}
	for i, l := range s.lines {
		if l.productID == pid {
			if l.qty+1 > p.Stock {
				writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Not enough stock!"})
				return
			}
			s.lines[i].qty++
			writeJSON(w, http.StatusOK, map[string]any{"message": "Updated " + p.Name + " quantity."})
			return
		}
	}
	if p.Stock < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Not enough stock!"})
		return
	}
	s.nextID++
	l := line{id: s.nextID, productID: pid, qty: 1}
	s.lines = append(s.lines, l)
	writeJSON(w, http.StatusCreated, map[string]any{
		"message":   "Added " + p.Name + " to your cart.",
		"cart_item": map[string]any{"id": l.id, "product_id": pid, "product_name": p.Name, "price": p.Price, "quantity": 1},
	})
}

func (s *Server) updateItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var in struct {
		Quantity int `json:"quantity"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	idx := s.index(r.PathValue("id"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cart item not found"})
		return
	}
	if in.Quantity < 1 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Quantity must be at least 1."})
		return
	}
	if in.Quantity > s.catalog[s.lines[idx].productID].Stock {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Not enough stock!"})
		return
	}
	s.lines[idx].qty = in.Quantity
	writeJSON(w, http.StatusOK, map[string]any{"message": "Cart updated successfully!"})
}

func (s *Server) removeItem(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.index(r.PathValue("id"))
	if idx < 0 {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "Cart item not found"})
		return
	}
	s.lines = append(s.lines[:idx], s.lines[idx+1:]...)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) checkout(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var in map[string]any
	_ = json.NewDecoder(r.Body).Decode(&in)
	s.lastOrder = in
	s.checkouts.Add(1)
	if len(s.lines) == 0 {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": "Your cart is empty!"})
		return
	}

	total := decimal.Zero
	items := 0
	for _, l := range s.lines {
		total = total.Add(decimal.RequireFromString(s.catalog[l.productID].Price).Mul(decimal.NewFromInt(int64(l.qty))))
		items += l.qty
	}
	final := total
	if v, ok := in["expected_total"].(string); ok {
		final = decimal.RequireFromString(v)
	}
	if pts, ok := in["points_to_redeem"].(float64); ok {
		s.points -= int64(pts)
	}

	s.nextID++
	o := placedOrder{id: s.nextID, total: total, finalPrice: final, items: items, placedAt: time.Now().UTC()}
	s.orders = append(s.orders, o)
	s.lines = nil

	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Order placed successfully!",
		"order": map[string]any{
			"id": o.id, "uuid": "ord-" + strconv.Itoa(o.id),
			"total_price": o.total.StringFixed(2), "final_price": o.finalPrice.StringFixed(2),
			"payment_status": "pending", "cart_items": []any{},
		},
		"payment_form": "<form></form>",
	})
}

func (s *Server) viewOrders(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]map[string]any, 0, len(s.orders))
	for _, o := range s.orders {
		out = append(out, map[string]any{
			"id": o.id, "uuid": "ord-" + strconv.Itoa(o.id),
			"total_price": o.total.StringFixed(2), "final_price": o.finalPrice.StringFixed(2),
			"payment_status": "pending", "created_at": o.placedAt.Format(time.RFC3339),
			"cart_items": []map[string]any{{"id": 1, "price": o.total.StringFixed(2), "quantity": o.items}},
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) validatePromo(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Code string `json:"code"`
	}
	_ = json.NewDecoder(r.Body).Decode(&in)
	switch in.Code {
	case "SAVE10":
		writeJSON(w, http.StatusOK, map[string]any{"valid": true, "promo_code": map[string]any{
			"code": "SAVE10", "discount_amount": "10.00", "is_percentage": true, "is_valid": true,
		}})
	case "OLD":
		writeJSON(w, http.StatusBadRequest, map[string]any{"valid": false, "message": "This promo code has expired"})
	default:
		writeJSON(w, http.StatusNotFound, map[string]any{"valid": false, "message": "Invalid promo code"})
	}
}

func (s *Server) myDiscounts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"discounts": []map[string]any{
		{"discount_percentage": "5.00", "reason": "7-day login streak reward", "valid_until": "2099-12-01T00:00:00Z"},
	}})
}

func (s *Server) index(id string) int {
	n, err := strconv.Atoi(id)
	if err != nil {
		return -1
	}
	for i, l := range s.lines {
		if l.id == n {
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

//go:build unit

package commerce

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"storefront/internal/pkg/config"
	"storefront/internal/usecase/shared"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductIndexIsBounded(t *testing.T) {
	idx := newProductIndex(3)
	for i := range 10 {
		idx.remember(strconv.Itoa(i), "p"+strconv.Itoa(i))
	}

	assert.Equal(t, 3, idx.size())
	assert.Empty(t, idx.lookup("0"))
	assert.Equal(t, "p9", idx.lookup("9"))
}

func TestProductIndexKeepsRecentlyUsedLines(t *testing.T) {
	idx := newProductIndex(2)
	idx.remember("1", "7")
	idx.remember("2", "8")

	require.Equal(t, "7", idx.lookup("1"))
	idx.remember("3", "9")

	assert.Equal(t, "7", idx.lookup("1"))
	assert.Empty(t, idx.lookup("2"))
	assert.Equal(t, "9", idx.lookup("3"))
}

func TestProductIndexForget(t *testing.T) {
	idx := newProductIndex(0)
	idx.remember("1", "7")
	idx.remember("2", "8")
	idx.remember("", "9")

	idx.forget("1", "2", "unknown")
	assert.Zero(t, idx.size())
}

func TestCheckoutDropsOrderedLinesFromIndex(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/orders/add-to-cart/{id}/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"message":"Product added to cart!","cart_item":{"id":101,"quantity":1},` +
			`"cart_items":[{"id":101,"product_name":"Ink Cartridge","price":"500.00","quantity":1,"total_price":"500.00"}],"total_price":"500.00"}`))
	})
	mux.HandleFunc("POST /api/orders/checkout/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"message":"Order placed successfully!","order":{"id":501,"uuid":"a1b2","total_price":"500.00",` +
			`"final_price":"500.00","payment_status":"pending","cart_items":[{"id":101,"price":"500.00","quantity":1}]}}`))
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	cfg := config.NewTestConfig().Commerce
	cfg.BaseURL = server.URL
	c, err := NewClient(cfg)
	require.NoError(t, err)
	ctx := shared.WithBearer(context.Background(), "store-access")

	snap, err := c.CreateLine(ctx, "7")
	require.NoError(t, err)
	require.True(t, snap.ContainsProduct("7"))
	require.Equal(t, 1, c.products.size())

	_, err = c.Checkout(ctx, shared.CheckoutPayload{})
	require.NoError(t, err)
	assert.Zero(t, c.products.size())
}

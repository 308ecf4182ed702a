package commerce

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// flexID accepts identifiers sent either as JSON numbers or strings.
type flexID string

func (id *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*id = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*id = flexID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*id = flexID(n.String())
	return nil
}

func (id flexID) String() string { return string(id) }

type cartItemWire struct {
	ID          flexID          `json:"id"`
	ProductID   flexID          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Image       string          `json:"image"`
	Price       decimal.Decimal `json:"price"`
	Quantity    int             `json:"quantity"`
	TotalPrice  decimal.Decimal `json:"total_price"`
}

type cartWire struct {
	Items      []cartItemWire  `json:"cart_items"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Version    int64           `json:"version"`
}

type addToCartWire struct {
	Message  string        `json:"message"`
	CartItem *cartItemWire `json:"cart_item"`
	cartWire
}

type tokenPairWire struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

type loginRequestWire struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type refreshRequestWire struct {
	Refresh string `json:"refresh"`
}

type profileWire struct {
	ID       flexID `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Points   int64  `json:"points"`
}

type promoRequestWire struct {
	Code       string          `json:"code"`
	OrderTotal decimal.Decimal `json:"order_total"`
}

type promoWire struct {
	Code           string          `json:"code"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	IsPercentage   bool            `json:"is_percentage"`
	IsValid        *bool           `json:"is_valid"`
}

type promoResponseWire struct {
	Valid   bool       `json:"valid"`
	Message string     `json:"message"`
	Promo   *promoWire `json:"promo_code"`
}

type personalDiscountWire struct {
	Percentage decimal.Decimal `json:"discount_percentage"`
	Reason     string          `json:"reason"`
	ValidUntil time.Time       `json:"valid_until"`
}

type personalDiscountsWire struct {
	Discounts []personalDiscountWire `json:"discounts"`
}

type checkoutRequestWire struct {
	FullName         string          `json:"full_name"`
	Email            string          `json:"email"`
	Phone            string          `json:"phone"`
	Address          string          `json:"address"`
	City             string          `json:"city"`
	PaymentMethod    string          `json:"payment_method"`
	PointsToRedeem   int64           `json:"points_to_redeem"`
	PromoCode        string          `json:"promo_code,omitempty"`
	PromoDiscount    decimal.Decimal `json:"promo_discount"`
	PersonalDiscount decimal.Decimal `json:"personal_discount"`
	ExpectedTotal    decimal.Decimal `json:"expected_total"`
}

type orderWire struct {
	ID            flexID          `json:"id"`
	UUID          string          `json:"uuid"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	FinalPrice    decimal.Decimal `json:"final_price"`
	PaymentStatus string          `json:"payment_status"`
	CartItems     []cartItemWire  `json:"cart_items"`
	CreatedAt     *time.Time      `json:"created_at"`
}

type checkoutResponseWire struct {
	Message     string     `json:"message"`
	Order       *orderWire `json:"order"`
	PaymentURL  string     `json:"payment_url"`
	PaymentForm string     `json:"payment_form"`
}

func quantityOf(items []cartItemWire) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func lineIDs(items []cartItemWire) []string {
	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ID.String())
	}
	return ids
}

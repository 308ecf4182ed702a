package order

import (
	"time"

	"github.com/shopspring/decimal"
)

// Confirmation is what the store returns for an accepted checkout.
type Confirmation struct {
	OrderID       string
	Reference     string
	TotalPrice    decimal.Decimal
	FinalPrice    decimal.Decimal
	PaymentStatus PaymentStatus
	PaymentURL    string
}

// Summary is one entry of a user's order history.
type Summary struct {
	OrderID       string
	Reference     string
	TotalPrice    decimal.Decimal
	FinalPrice    decimal.Decimal
	PaymentStatus PaymentStatus
	ItemCount     int
	PlacedAt      time.Time
}

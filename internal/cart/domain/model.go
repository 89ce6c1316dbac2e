package domain

import (
	"errors"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
	"github.com/shopspring/decimal"
)

var (
	ErrItemNotFound   = errors.New("cart item not found")
	ErrInvalidProduct = errors.New("product cannot be added to the cart")
)

// MaxQuantity caps a single line. Adds and increments past it saturate.
const MaxQuantity = 9999

// ClampQuantity forces q into [1, MaxQuantity].
func ClampQuantity(q int) int {
	switch {
	case q < 1:
		return 1
	case q > MaxQuantity:
		return MaxQuantity
	}
	return q
}

// AddQuantity sums two quantities without overflowing past MaxQuantity.
func AddQuantity(a, b int) int {
	a, b = ClampQuantity(a), ClampQuantity(b)
	if b > MaxQuantity-a {
		return MaxQuantity
	}
	return a + b
}

// LineItem is a snapshot of a product taken when it was added. Later catalog
// edits do not touch it.
type LineItem struct {
	ID       int         `json:"id"`
	Title    string      `json:"title"`
	Price    money.Price `json:"price"`
	Quantity int         `json:"quantity"`
	Image    string      `json:"image"`
}

// Subtotal is price times quantity, with an unusable price counted as zero.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.Price.OrZero().Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Snapshot is what the cart copies from a product.
type Snapshot struct {
	ID    int
	Title string
	Price money.Price
	Image string
}

// Summary is the cart as shown to the shopper.
type Summary struct {
	Items []LineItem  `json:"items"`
	Count int         `json:"count"`
	Total money.Price `json:"total"`
}

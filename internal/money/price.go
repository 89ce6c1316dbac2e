// Package money holds the price type shared by catalog records and cart
// snapshots.
package money

import (
	"bytes"
	"strconv"

	"github.com/shopspring/decimal"
)

// Price is a decimal amount that remembers whether it was decoded from a
// usable value. Snapshots written by older or buggy clients may carry junk in
// the price field; those decode to an invalid Price instead of failing the
// whole document.
type Price struct {
	amount decimal.Decimal
	valid  bool
}

func New(d decimal.Decimal) Price {
	return Price{amount: d, valid: true}
}

func FromFloat(f float64) Price {
	return New(decimal.NewFromFloat(f))
}

// MustParse is for literals in tests and fixtures.
func MustParse(s string) Price {
	return New(decimal.RequireFromString(s))
}

func Parse(s string) (Price, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Price{}, err
	}
	return New(d), nil
}

func (p Price) Valid() bool { return p.valid }

func (p Price) Decimal() decimal.Decimal { return p.amount }

// OrZero returns the amount, or zero when the price is invalid.
func (p Price) OrZero() decimal.Decimal {
	if !p.valid {
		return decimal.Zero
	}
	return p.amount
}

func (p Price) Equal(other Price) bool {
	if p.valid != other.valid {
		return false
	}
	return !p.valid || p.amount.Equal(other.amount)
}

func (p Price) String() string {
	if !p.valid {
		return "invalid"
	}
	return p.amount.String()
}

// MarshalJSON writes a bare JSON number, or null for an invalid price.
func (p Price) MarshalJSON() ([]byte, error) {
	if !p.valid {
		return []byte("null"), nil
	}
	return []byte(p.amount.String()), nil
}

// UnmarshalJSON accepts numbers and numeric strings. Anything else yields an
// invalid price and no error.
func (p *Price) UnmarshalJSON(data []byte) error {
	raw := bytes.TrimSpace(data)
	*p = Price{}

	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	text := string(raw)
	if raw[0] == '"' {
		unquoted, err := strconv.Unquote(text)
		if err != nil {
			return nil
		}
		text = unquoted
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return nil
	}
	*p = New(d)
	return nil
}

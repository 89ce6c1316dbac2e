package domain

import (
	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
)

// Product is one catalog record as stored locally and exchanged with the
// remote products API.
type Product struct {
	ID          int         `json:"id"`
	Title       string      `json:"title"`
	Price       money.Price `json:"price"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
	Rating      *Rating     `json:"rating,omitempty"`
}

// Rating is carried through untouched when the remote API provides it.
type Rating struct {
	Rate  float64 `json:"rate"`
	Count int     `json:"count"`
}

// Draft is the admin-supplied shape for create and update.
type Draft struct {
	Title       string      `json:"title"`
	Price       money.Price `json:"price"`
	Description string      `json:"description"`
	Category    string      `json:"category"`
	Image       string      `json:"image"`
}

// State is a point-in-time copy of the catalog store.
type State struct {
	Products []Product `json:"products"`
	Loading  bool      `json:"loading"`
	Error    string    `json:"error,omitempty"`
}

// Result is the outcome of a mutating catalog operation, shaped for display.
type Result struct {
	Success bool     `json:"success"`
	Message string   `json:"message"`
	Product *Product `json:"product,omitempty"`
}

// DefaultCategories are offered by the admin forms even before any product
// uses them.
var DefaultCategories = []string{
	"electronics",
	"jewelery",
	"men's clothing",
	"women's clothing",
	"books",
	"toys",
	"sports",
	"home",
}

// Malformed reports whether a record coming from the remote API or from
// storage breaks the catalog schema.
func (p Product) Malformed() bool {
	if p.ID <= 0 || p.Title == "" {
		return true
	}
	return !p.Price.Valid() || p.Price.Decimal().IsNegative()
}

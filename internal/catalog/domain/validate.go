package domain

import (
	"errors"
	"net/url"
	"reflect"
	"strings"
	"sync"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
	"github.com/go-playground/validator/v10"
)

const MaxPrice = 999999

type draftRules struct {
	Title       string      `json:"title" validate:"required,min=3,max=100"`
	Price       money.Price `json:"price" validate:"gt=0,lte=999999"`
	Description string      `json:"description" validate:"required,min=10,max=500"`
	Category    string      `json:"category" validate:"required"`
	Image       string      `json:"image" validate:"required,weburl"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func draftValidator() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())

		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			return name
		})

		// Prices compare as floats. Invalid prices are reported separately.
		v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
			p, ok := field.Interface().(money.Price)
			if !ok || !p.Valid() {
				return nil
			}
			f, _ := p.Decimal().Float64()
			return f
		}, money.Price{})

		_ = v.RegisterValidation("weburl", func(fl validator.FieldLevel) bool {
			u, err := url.ParseRequestURI(fl.Field().String())
			return err == nil && u.Scheme != "" && u.Host != ""
		})

		validate = v
	})
	return validate
}

// Normalize trims the free-text fields the way the admin forms submit them.
func (d Draft) Normalize() Draft {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Category = strings.TrimSpace(d.Category)
	d.Image = strings.TrimSpace(d.Image)
	return d
}

// Validate checks a normalized draft. It returns nil or a *ValidationError
// listing every failing field.
func (d Draft) Validate() error {
	err := draftValidator().Struct(draftRules(d))
	if err == nil && d.Price.Valid() {
		return nil
	}
	if err == nil {
		return &ValidationError{Fields: map[string]string{"price": "price must be a number"}}
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return &ValidationError{Fields: map[string]string{"draft": err.Error()}}
	}

	out := &ValidationError{Fields: make(map[string]string, len(fieldErrs))}
	for _, fe := range fieldErrs {
		if _, seen := out.Fields[fe.Field()]; seen {
			continue
		}
		out.Fields[fe.Field()] = message(fe)
	}
	if !d.Price.Valid() {
		out.Fields["price"] = "price must be a number"
	}
	return out
}

func message(fe validator.FieldError) string {
	switch fe.Field() {
	case "title":
		switch fe.Tag() {
		case "required":
			return "title is required"
		case "min":
			return "title must be at least 3 characters"
		default:
			return "title must be at most 100 characters"
		}
	case "price":
		if fe.Tag() == "gt" {
			return "price must be greater than 0"
		}
		return "price must not exceed 999999"
	case "description":
		switch fe.Tag() {
		case "required":
			return "description is required"
		case "min":
			return "description must be at least 10 characters"
		default:
			return "description must be at most 500 characters"
		}
	case "category":
		return "category is required"
	case "image":
		if fe.Tag() == "required" {
			return "image URL is required"
		}
		return "image must be a valid URL"
	}
	return fe.Error()
}

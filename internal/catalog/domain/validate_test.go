package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/GoSim-25-26J-441/go-storefront-backend/internal/money"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validDraft() Draft {
	return Draft{
		Title:       "Mochila urbana",
		Price:       money.MustParse("49.90"),
		Description: "Mochila resistente al agua con compartimento para laptop",
		Category:    "home",
		Image:       "https://example.com/img/mochila.png",
	}
}

func TestDraftValidate_Valid(t *testing.T) {
	assert.NoError(t, validDraft().Validate())
}

func TestDraftValidate_Boundaries(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Draft)
		field   string
		wantErr bool
	}{
		{"title of 2 runes", func(d *Draft) { d.Title = "ab" }, "title", true},
		{"title of 3 runes", func(d *Draft) { d.Title = "abc" }, "title", false},
		{"title of 3 multibyte runes", func(d *Draft) { d.Title = "ñáé" }, "title", false},
		{"title of 100 runes", func(d *Draft) { d.Title = strings.Repeat("x", 100) }, "title", false},
		{"title of 101 runes", func(d *Draft) { d.Title = strings.Repeat("x", 101) }, "title", true},
		{"empty title", func(d *Draft) { d.Title = "" }, "title", true},
		{"price zero", func(d *Draft) { d.Price = money.MustParse("0") }, "price", true},
		{"negative price", func(d *Draft) { d.Price = money.MustParse("-1") }, "price", true},
		{"price at limit", func(d *Draft) { d.Price = money.MustParse("999999") }, "price", false},
		{"price above limit", func(d *Draft) { d.Price = money.MustParse("999999.01") }, "price", true},
		{"smallest positive price", func(d *Draft) { d.Price = money.MustParse("0.01") }, "price", false},
		{"missing price", func(d *Draft) { d.Price = money.Price{} }, "price", true},
		{"description of 9 runes", func(d *Draft) { d.Description = "123456789" }, "description", true},
		{"description of 10 runes", func(d *Draft) { d.Description = "1234567890" }, "description", false},
		{"description of 501 runes", func(d *Draft) { d.Description = strings.Repeat("d", 501) }, "description", true},
		{"no category", func(d *Draft) { d.Category = "" }, "category", true},
		{"relative image", func(d *Draft) { d.Image = "/img/a.png" }, "image", true},
		{"image without host", func(d *Draft) { d.Image = "http://" }, "image", true},
		{"image not a url", func(d *Draft) { d.Image = "not a url" }, "image", true},
		{"empty image", func(d *Draft) { d.Image = "" }, "image", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := validDraft()
			tt.mutate(&d)

			err := d.Validate()
			if !tt.wantErr {
				assert.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))

			var verr *ValidationError
			require.True(t, errors.As(err, &verr))
			assert.Contains(t, verr.Fields, tt.field)
			assert.Len(t, verr.Fields, 1, "only the broken field is reported")
		})
	}
}

func TestDraftValidate_ReportsEveryField(t *testing.T) {
	err := Draft{}.Validate()

	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, map[string]string{
		"title":       "title is required",
		"price":       "price must be a number",
		"description": "description is required",
		"category":    "category is required",
		"image":       "image URL is required",
	}, verr.Fields)
}

func TestDraftValidate_Messages(t *testing.T) {
	d := validDraft()
	d.Title = "ab"
	d.Price = money.MustParse("0")

	var verr *ValidationError
	require.True(t, errors.As(d.Validate(), &verr))
	assert.Equal(t, "title must be at least 3 characters", verr.Fields["title"])
	assert.Equal(t, "price must be greater than 0", verr.Fields["price"])
}

func TestDraftNormalize(t *testing.T) {
	d := Draft{Title: "  abc  ", Image: " https://x.test/a.png\n", Category: " toys "}.Normalize()

	assert.Equal(t, "abc", d.Title)
	assert.Equal(t, "https://x.test/a.png", d.Image)
	assert.Equal(t, "toys", d.Category)
}

func TestProductMalformed(t *testing.T) {
	ok := Product{ID: 1, Title: "x", Price: money.MustParse("1")}
	assert.False(t, ok.Malformed())

	assert.True(t, Product{Title: "x", Price: money.MustParse("1")}.Malformed())
	assert.True(t, Product{ID: 1, Price: money.MustParse("1")}.Malformed())
	assert.True(t, Product{ID: 1, Title: "x"}.Malformed())
	assert.True(t, Product{ID: 1, Title: "x", Price: money.MustParse("-2")}.Malformed())
}

func TestRemoteErrorWrapsSentinel(t *testing.T) {
	cause := errors.New("dial tcp: refused")
	err := error(&RemoteError{Op: "create product", Message: "connection refused", Err: cause})

	assert.ErrorIs(t, err, ErrRemote)
	assert.ErrorIs(t, err, cause)
	assert.Contains(t, (&RemoteError{Op: "delete product", Status: 500, Message: "boom"}).Error(), "status 500")
}

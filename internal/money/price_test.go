package money

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrice_UnmarshalJSON(t *testing.T) {
	cases := []struct {
		name  string
		input string
		valid bool
		want  string
	}{
		{"number", `109.95`, true, "109.95"},
		{"integer", `10`, true, "10"},
		{"numeric string", `"22.3"`, true, "22.3"},
		{"null", `null`, false, ""},
		{"garbage string", `"abc"`, false, ""},
		{"bool", `true`, false, ""},
		{"object", `{"amount":1}`, false, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var p Price
			require.NoError(t, json.Unmarshal([]byte(tc.input), &p))
			assert.Equal(t, tc.valid, p.Valid())
			if tc.valid {
				assert.Equal(t, tc.want, p.Decimal().String())
			}
		})
	}
}

func TestPrice_InvalidFieldDoesNotFailDocument(t *testing.T) {
	var doc struct {
		ID    int   `json:"id"`
		Price Price `json:"price"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"id":3,"price":{"x":1}}`), &doc))
	assert.Equal(t, 3, doc.ID)
	assert.False(t, doc.Price.Valid())
	assert.True(t, doc.Price.OrZero().IsZero())
}

func TestPrice_MarshalJSON(t *testing.T) {
	b, err := json.Marshal(MustParse("19.99"))
	require.NoError(t, err)
	assert.Equal(t, `19.99`, string(b))

	b, err = json.Marshal(Price{})
	require.NoError(t, err)
	assert.Equal(t, `null`, string(b))
}

func TestPrice_RoundTrip(t *testing.T) {
	in := MustParse("999999")
	b, err := json.Marshal(in)
	require.NoError(t, err)

	var out Price
	require.NoError(t, json.Unmarshal(b, &out))
	assert.True(t, in.Equal(out))
}

func TestPrice_OrZero(t *testing.T) {
	assert.True(t, MustParse("5").OrZero().Equal(decimal.NewFromInt(5)))
	assert.True(t, Price{}.OrZero().Equal(decimal.Zero))
}

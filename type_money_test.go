package sidekick

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCurrency(t *testing.T) {
	tests := []struct {
		input   string
		want    Currency
		wantErr bool
	}{
		{"EUR", EUR, false},
		{" usd ", USD, false},
		{"GBp", "GBp", false},
		{"ZAc", "ZAc", false},
		{"gbp", GBP, false},
		{"XYZ", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseCurrency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseCurrency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseCurrency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestMustCurrency(t *testing.T) {
	assert.Equal(t, GBP, MustCurrency("gbp"))
	assert.Equal(t, Currency("GBX"), MustCurrency("GBX"))
	assert.Panics(t, func() { MustCurrency("EURO") })
}

func TestCurrency_Major(t *testing.T) {
	major, factor := Currency("GBp").Major()
	assert.Equal(t, GBP, major)
	assert.True(t, factor.Equal(decimal.NewFromInt(100)))

	major, factor = EUR.Major()
	assert.Equal(t, EUR, major)
	assert.True(t, factor.Equal(decimal.NewFromInt(1)))
}

func TestMoney_Equal(t *testing.T) {
	assert.True(t, M(77.3, EUR).Equal(M(77.30000000001, EUR)), "differences past the 10th digit are ignored")
	assert.False(t, M(77.3, EUR).Equal(M(77.3000000001, EUR)))
	assert.False(t, M(1, EUR).Equal(M(1, USD)))

	at := time.Date(2023, 12, 29, 18, 47, 0, 0, time.UTC)
	assert.True(t, M(1, EUR).At(at).Equal(M(1, EUR)), "time of record is metadata")
}

func TestMoney_Arithmetic(t *testing.T) {
	early := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	late := early.Add(time.Hour)

	sum := M(10, EUR).At(early).Add(M(2.5, EUR).At(late))
	assert.True(t, sum.Equal(M(12.5, EUR)))
	assert.Equal(t, late, sum.TimeOfRecord)

	assert.True(t, M(10, EUR).Sub(M(12, EUR)).Equal(M(-2, EUR)))
	assert.True(t, M(-2, EUR).Abs().Equal(M(2, EUR)))
	assert.True(t, M(2, EUR).Times(decimal.NewFromInt(3)).Equal(M(6, EUR)))

	// the zero value has no currency and adopts the other operand's
	assert.Equal(t, USD, Money{}.Add(M(1, USD)).Currency)

	assert.Panics(t, func() { M(1, EUR).Add(M(1, USD)) })
}

func TestMoney_Round(t *testing.T) {
	m := M(decimal.RequireFromString("1.123456789012345"), EUR).Round()
	require.True(t, m.Amount.Equal(decimal.RequireFromString("1.1234567890")))
}

package sidekick_test

import (
	"context"
	"testing"

	"github.com/etnz/sidekick"
	"github.com/etnz/sidekick/ledgertest"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var day = sidekick.NewDate(2023, 12, 29)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestExchangeService_Rate(t *testing.T) {
	ctx := context.Background()
	ledger := ledgertest.New()
	ledger.Rates["USD|EUR"] = dec("0.9")
	ledger.Rates["GBP|EUR|2023-12-29"] = dec("1.15")
	ledger.Rates["CHF|USD"] = dec("1.1")
	ledger.Rates["USD|JPY"] = dec("150")
	ledger.Rates["CNY|EUR"] = dec("0.13")

	s := sidekick.NewExchangeService(ledger, nil, zerolog.Nop()).
		WithAliases(map[sidekick.Currency]sidekick.Currency{"RMB": "CNY"})

	tests := []struct {
		name     string
		from, to sidekick.Currency
		want     string
	}{
		{"same currency", sidekick.EUR, sidekick.EUR, "1"},
		{"direct", sidekick.USD, sidekick.EUR, "0.9"},
		{"dated direct", sidekick.GBP, sidekick.EUR, "1.15"},
		{"minor unit", "GBp", sidekick.EUR, "0.0115"},
		{"through an intermediate", "CHF", "JPY", "165"},
		{"alias", "RMB", sidekick.EUR, "0.13"},
		{"unknown falls back to 1", "SEK", "NOK", "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := s.Rate(ctx, tt.from, tt.to, day)
			assert.True(t, got.Equal(dec(tt.want)), "Rate(%s, %s) = %s, want %s", tt.from, tt.to, got, tt.want)
		})
	}
}

func TestExchangeService_ConvertedPrice(t *testing.T) {
	ctx := context.Background()
	ledger := ledgertest.New()
	ledger.Rates["USD|EUR"] = dec("0.9")
	s := sidekick.NewExchangeService(ledger, sidekick.NewMemoryCache(), zerolog.Nop())

	got := s.ConvertedPrice(ctx, sidekick.M(10, sidekick.USD), sidekick.EUR, day)
	assert.True(t, got.Equal(sidekick.M(9, sidekick.EUR)), "got %v", got)
	calls := ledger.RateCalls

	// cached
	got = s.ConvertedPrice(ctx, sidekick.M(20, sidekick.USD), sidekick.EUR, day)
	assert.True(t, got.Equal(sidekick.M(18, sidekick.EUR)), "got %v", got)
	assert.Equal(t, calls, ledger.RateCalls)

	// no rate needed
	got = s.ConvertedPrice(ctx, sidekick.M(0, sidekick.USD), sidekick.GBP, day)
	assert.True(t, got.IsZero())
	got = s.ConvertedPrice(ctx, sidekick.M(5, sidekick.GBP), sidekick.GBP, day)
	assert.True(t, got.Equal(sidekick.M(5, sidekick.GBP)))
	assert.Equal(t, calls, ledger.RateCalls)

	// rate 1 fallback relabels the amount
	got = s.ConvertedPrice(ctx, sidekick.M(5, "SEK"), sidekick.EUR, day)
	assert.True(t, got.Equal(sidekick.M(5, sidekick.EUR)), "got %v", got)
}

func TestExchangeService_Intermediates(t *testing.T) {
	ctx := context.Background()
	ledger := ledgertest.New()
	ledger.Rates["CHF|EUR"] = dec("1.05")
	ledger.Rates["EUR|JPY"] = dec("160")
	ledger.Rates["CHF|USD"] = dec("1.1")
	ledger.Rates["USD|JPY"] = dec("150")

	s := sidekick.NewExchangeService(ledger, nil, zerolog.Nop())
	assert.True(t, s.Rate(ctx, "CHF", "JPY", day).Equal(dec("165")), "USD is tried first")

	s = s.WithIntermediates(sidekick.EUR)
	assert.True(t, s.Rate(ctx, "CHF", "JPY", day).Equal(dec("168")))
}

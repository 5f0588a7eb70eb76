package sidekick_test

import (
	"context"
	"testing"
	"time"

	"github.com/etnz/sidekick"
	"github.com/etnz/sidekick/ledgertest"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestActivity_CashImpact(t *testing.T) {
	fee := []sidekick.Money{sidekick.M(1, sidekick.EUR)}
	tests := []struct {
		name string
		typ  sidekick.ActivityType
		want []string
	}{
		{"buy", sidekick.Buy, []string{"-77.3", "-1"}},
		{"sell", sidekick.Sell, []string{"77.3", "-1"}},
		{"dividend", sidekick.Dividend, []string{"77.3", "-1"}},
		{"deposit", sidekick.CashDeposit, []string{"77.3", "-1"}},
		{"withdrawal", sidekick.CashWithdrawal, []string{"-77.3", "-1"}},
		{"send", sidekick.Send, []string{"-1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := sidekick.NewActivity(tt.typ, asset, at, dec("1"), sidekick.M(77.3, sidekick.EUR), fee, "ref")
			var got []string
			for _, m := range a.CashImpact() {
				got = append(got, m.Amount.String())
				assert.Equal(t, at, m.TimeOfRecord)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMultipartReference(t *testing.T) {
	assert.Equal(t, "Buy_x", sidekick.MultipartReference("Buy_x", 1))
	assert.Equal(t, "Buy_x 2", sidekick.MultipartReference("Buy_x", 2))
	assert.Equal(t, "Buy_x 3", sidekick.MultipartReference("Buy_x", 3))
}

func TestAccount_ReferenceCollisions(t *testing.T) {
	a := sidekick.NewAccount("", "DeGiro", sidekick.EUR)
	for _, ref := range []string{"a", "b", "a", "a"} {
		a.AddActivity(sidekick.NewActivity(sidekick.Buy, asset, at, dec("1"), sidekick.M(1, sidekick.EUR), nil, ref))
	}
	assert.Equal(t, []string{"a"}, a.ReferenceCollisions())
}

func TestBalance_Current(t *testing.T) {
	ctx := context.Background()
	ledger := ledgertest.New()
	ledger.Rates["USD|EUR"] = dec("0.5")
	converter := sidekick.NewExchangeService(ledger, nil, zerolog.Nop())

	b := sidekick.EmptyBalance(sidekick.EUR).
		Record(sidekick.M(10, sidekick.EUR).At(at)).
		Record(sidekick.M(4, sidekick.USD).At(at.Add(time.Hour)))
	got := b.Current(ctx, converter)
	assert.True(t, got.Equal(sidekick.M(12, sidekick.EUR)), "got %v", got)
	assert.Equal(t, at.Add(time.Hour), got.TimeOfRecord)

	known := b.SetKnown(sidekick.M(21.7, sidekick.EUR).At(at))
	assert.True(t, known.Current(ctx, converter).Equal(sidekick.M(21.7, sidekick.EUR)))

	empty := sidekick.EmptyBalance(sidekick.EUR).Current(ctx, converter)
	assert.True(t, empty.IsZero())
	assert.Equal(t, sidekick.EUR, empty.Currency)
}

package degiro

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/etnz/sidekick"
	"github.com/etnz/sidekick/ledgertest"
	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

func testdata(name string) []string { return []string{filepath.Join("testdata", name)} }

func newImporter(t *testing.T, currency sidekick.Currency, profiles ...sidekick.SymbolProfile) *Importer {
	t.Helper()
	l := ledgertest.New()
	l.AddAccount("DeGiro", currency)
	for _, p := range profiles {
		l.AddProfile(p)
	}
	resolver := sidekick.NewSymbolResolver(l, l, sidekick.NewMemoryCache(), nil, zerolog.Nop())
	return New(l, resolver, zerolog.Nop())
}

func TestCanParse(t *testing.T) {
	imp := newImporter(t, sidekick.EUR)
	tests := []struct {
		file string
		want bool
	}{
		{"single_deposit.csv", true},
		{"single_buy_euro.csv", true},
		{"single_buy_euro_multipart.csv", true},
		{"single_dividend.csv", true},
		{"deposit_and_ignored.csv", true},
		{"invalid_date.csv", false},
		{"invalid_isin.csv", false},
		{"missing.csv", false},
	}
	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			if got := imp.CanParse(context.Background(), testdata(tt.file)); got != tt.want {
				t.Errorf("CanParse(%s) = %v, want %v", tt.file, got, tt.want)
			}
		})
	}
	// one bad file rejects the whole set
	files := append(testdata("single_deposit.csv"), testdata("invalid_date.csv")...)
	assert.False(t, imp.CanParse(context.Background(), files))
}

func TestSingleDeposit(t *testing.T) {
	imp := newImporter(t, sidekick.EUR)
	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("single_deposit.csv"))
	require.NoError(t, err)

	balance := account.Balance.Current(context.Background(), ledgertest.Identity{})
	assert.True(t, balance.Equal(sidekick.M(43.17, sidekick.EUR)), "balance %v", balance)
	assert.True(t, balance.TimeOfRecord.Equal(time.Date(2023, 12, 29, 18, 47, 0, 0, time.UTC)), "time %v", balance.TimeOfRecord)

	require.Len(t, account.Activities, 1)
	a := account.Activities[0]
	assert.Equal(t, sidekick.CashDeposit, a.Type)
	assert.Nil(t, a.Asset)
	assert.Equal(t, "Deposit_2023-12-29_18:47", a.ReferenceCode)
}

func TestSingleBuyEuro(t *testing.T) {
	asset := sidekick.SymbolProfile{Symbol: "VWRL.AS", ISIN: "IE00B3XXRP09", Name: "Vanguard FTSE All-World", Currency: sidekick.EUR, DataSource: "YAHOO"}
	imp := newImporter(t, sidekick.EUR, asset)

	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("single_buy_euro.csv"))
	require.NoError(t, err)

	at := time.Date(2023, 7, 6, 9, 39, 0, 0, time.UTC)
	balance := account.Balance.Current(context.Background(), ledgertest.Identity{})
	assert.True(t, balance.Equal(sidekick.M(21.70, sidekick.EUR)), "balance %v", balance)
	assert.True(t, balance.TimeOfRecord.Equal(at))

	want := []sidekick.Activity{{
		Type:          sidekick.Buy,
		Asset:         &asset,
		Date:          at,
		Quantity:      decimal.NewFromInt(1),
		UnitPrice:     sidekick.M(77.30, sidekick.EUR).At(at),
		Fees:          []sidekick.Money{sidekick.M(1, sidekick.EUR).At(at)},
		Comment:       "Transaction Reference: [b7ab0494-1b46-4e2f-9bd2-f79e6c87cb5a] (Details: asset IE00B3XXRP09)",
		ReferenceCode: "b7ab0494-1b46-4e2f-9bd2-f79e6c87cb5a",
	}}
	if diff := cmp.Diff(want, account.Activities, decimalEqual); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
}

func TestSingleBuyEuroMultipart(t *testing.T) {
	asset := sidekick.SymbolProfile{Symbol: "AD.AS", ISIN: "NL0011794037", Name: "Ahold Delhaize", Currency: sidekick.EUR, DataSource: "YAHOO"}
	imp := newImporter(t, sidekick.EUR, asset)

	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("single_buy_euro_multipart.csv"))
	require.NoError(t, err)

	at := time.Date(2023, 11, 10, 17, 10, 0, 0, time.UTC)
	const code = "35d4345a-467c-42bd-848c-f6087737dd36"
	want := []sidekick.Activity{
		sidekick.NewActivity(sidekick.Buy, &asset, at, decimal.NewFromInt(34), sidekick.M(26.88, sidekick.EUR).At(at), []sidekick.Money{sidekick.M(3, sidekick.EUR).At(at)}, code),
		sidekick.NewActivity(sidekick.Buy, &asset, at, decimal.NewFromInt(4), sidekick.M(26.88, sidekick.EUR).At(at), nil, code+" 2"),
	}
	if diff := cmp.Diff(want, account.Activities, decimalEqual); diff != "" {
		t.Errorf("activities mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "Transaction Reference: ["+code+" 2] (Details: asset NL0011794037)", account.Activities[1].Comment)
	assert.True(t, account.Balance.Current(context.Background(), ledgertest.Identity{}).Equal(sidekick.M(75.56, sidekick.EUR)))
}

func TestSingleDividend(t *testing.T) {
	asset := sidekick.SymbolProfile{Symbol: "IAEX.AS", ISIN: "NL0009690239", Name: "VanEck AEX", Currency: sidekick.EUR, DataSource: "YAHOO"}
	imp := newImporter(t, sidekick.EUR, asset)

	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("single_dividend.csv"))
	require.NoError(t, err)

	at := time.Date(2023, 9, 14, 6, 32, 0, 0, time.UTC)
	require.Len(t, account.Activities, 1)
	a := account.Activities[0]
	assert.Equal(t, sidekick.Dividend, a.Type)
	assert.Equal(t, "Dividend_2023-09-14_06:32_NL0009690239", a.ReferenceCode)
	assert.Equal(t, "Transaction Reference: [Dividend_2023-09-14_06:32_NL0009690239] (Details: asset NL0009690239)", a.Comment)
	assert.True(t, a.UnitPrice.Equal(sidekick.M(8.13, sidekick.EUR)), "unit price %v", a.UnitPrice)
	assert.Empty(t, a.Fees)
	assert.True(t, a.Date.Equal(at))

	balance := account.Balance.Current(context.Background(), ledgertest.Identity{})
	assert.True(t, balance.Equal(sidekick.M(24.39, sidekick.EUR)), "balance %v", balance)
}

func TestIgnoredRows(t *testing.T) {
	imp := newImporter(t, sidekick.EUR)
	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("deposit_and_ignored.csv"))
	require.NoError(t, err)

	require.Len(t, account.Activities, 1)
	assert.Equal(t, sidekick.CashDeposit, account.Activities[0].Type)
	assert.True(t, account.Activities[0].UnitPrice.Equal(sidekick.M(40, sidekick.EUR)))
	// the balance is the newest reported one, including the ignored row
	assert.True(t, account.Balance.Current(context.Background(), ledgertest.Identity{}).Equal(sidekick.M(52.40, sidekick.EUR)))
}

func TestUnknownSymbolSkipsTrade(t *testing.T) {
	imp := newImporter(t, sidekick.EUR)
	account, err := imp.ConvertActivitiesForAccount(context.Background(), "DeGiro", testdata("single_buy_euro.csv"))
	require.NoError(t, err)
	assert.Empty(t, account.Activities)
}

func TestMissingAccount(t *testing.T) {
	imp := newImporter(t, sidekick.EUR)
	_, err := imp.ConvertActivitiesForAccount(context.Background(), "Unknown", testdata("single_deposit.csv"))
	if !errors.Is(err, sidekick.ErrAccountNotFound) {
		t.Errorf("got error %v, want ErrAccountNotFound", err)
	}
}

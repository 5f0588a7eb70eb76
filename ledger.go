package sidekick

import (
	"context"

	"github.com/shopspring/decimal"
)

// RemoteAccount is an account as the remote ledger stores it.
type RemoteAccount struct {
	ID         string
	Name       string
	Currency   Currency
	Balance    decimal.Decimal
	Comment    string
	PlatformID string
	IsExcluded bool
}

// Platform is the institution an account is held at.
type Platform struct {
	ID   string
	Name string
	URL  string
}

// MarketPrice is the price of a symbol on a given day, in the symbol currency.
type MarketPrice struct {
	Date  Date
	Price decimal.Decimal
}

// MarketData is a symbol profile and its known daily prices.
type MarketData struct {
	Profile SymbolProfile
	Prices  []MarketPrice
}

// PriceOn returns the market price on day.
func (m MarketData) PriceOn(day Date) (decimal.Decimal, bool) {
	for _, p := range m.Prices {
		if p.Date == day {
			return p.Price, true
		}
	}
	return decimal.Zero, false
}

// The remote ledger is an external collaborator. None of its operations is
// transactional; lookups return an error wrapping ErrNotFound when there is no
// value, and writes an error wrapping ErrRemoteOperation when rejected.

// AccountLookup finds remote accounts by name.
type AccountLookup interface {
	AccountByName(ctx context.Context, name string) (RemoteAccount, error)
}

// AccountStore manages accounts, platforms and balances.
type AccountStore interface {
	AccountLookup
	CreateAccount(ctx context.Context, account RemoteAccount) error
	UpdateBalance(ctx context.Context, accountID string, balance Money) error
	PlatformByName(ctx context.Context, name string) (Platform, error)
	CreatePlatform(ctx context.Context, platform Platform) error
}

// OrderStore manages activities.
type OrderStore interface {
	Orders(ctx context.Context, accountID string) ([]Order, error)
	AllOrders(ctx context.Context) ([]Order, error)
	// CreateOrder returns an error wrapping ErrDuplicate when the remote ledger
	// treated the order as an already known one.
	CreateOrder(ctx context.Context, order Order) error
	DeleteOrder(ctx context.Context, order Order) error
}

// MarketStore manages market data. Benchmark symbols are excluded from MarketData.
type MarketStore interface {
	MarketData(ctx context.Context) ([]MarketData, error)
	MarketDataFor(ctx context.Context, dataSource, symbol string) (MarketData, error)
	SetMarketPrice(ctx context.Context, profile SymbolProfile, price Money) error
	Gather(ctx context.Context) error
}

// SymbolStore manages symbol profiles.
type SymbolStore interface {
	LookupSymbol(ctx context.Context, query string) ([]SymbolProfile, error)
	CreateManualSymbol(ctx context.Context, profile SymbolProfile) error
	UpdateSymbolProfile(ctx context.Context, profile SymbolProfile) error
	DeleteSymbol(ctx context.Context, profile SymbolProfile) error
}

// RateSource provides same-day exchange rates: one unit of from is worth rate units of to.
type RateSource interface {
	ExchangeRate(ctx context.Context, from, to Currency, day Date) (decimal.Decimal, error)
}

// Ledger is the whole remote portfolio ledger.
type Ledger interface {
	AccountStore
	OrderStore
	MarketStore
	SymbolStore
	RateSource
}

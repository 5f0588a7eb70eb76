// Package ledgertest provides an in-memory remote ledger for tests.
package ledgertest

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/etnz/sidekick"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Ledger is an in-memory sidekick.Ledger. Its exported fields can be set up
// before use and inspected afterwards; methods are safe for concurrent use.
type Ledger struct {
	mu sync.Mutex

	Accounts  []sidekick.RemoteAccount
	Platforms []sidekick.Platform
	Stored    []sidekick.Order
	Profiles  []sidekick.MarketData
	// Lookups are the results of LookupSymbol, by query.
	Lookups map[string][]sidekick.SymbolProfile
	// Rates are exchange rates by "FROM|TO|yyyy-mm-dd", or "FROM|TO" for every day.
	Rates map[string]decimal.Decimal

	// Failures make the named operations fail, e.g. "CreateOrder".
	Failures map[string]error

	// Calls counts the calls per operation.
	Calls     map[string]int
	Deleted   []sidekick.Order
	Created   []sidekick.Order
	Updated   []sidekick.SymbolProfile
	Gathered  int
	RateCalls int
}

// New returns an empty ledger.
func New() *Ledger {
	return &Ledger{Lookups: make(map[string][]sidekick.SymbolProfile), Rates: make(map[string]decimal.Decimal)}
}

func (l *Ledger) call(name string) error {
	if l.Calls == nil {
		l.Calls = make(map[string]int)
	}
	l.Calls[name]++
	if err := l.Failures[name]; err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// AddAccount registers a remote account and returns its ID.
func (l *Ledger) AddAccount(name string, currency sidekick.Currency) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	id := uuid.NewString()
	l.Accounts = append(l.Accounts, sidekick.RemoteAccount{ID: id, Name: name, Currency: currency})
	return id
}

// AddProfile registers a symbol profile with no market price.
func (l *Ledger) AddProfile(p sidekick.SymbolProfile) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Profiles = append(l.Profiles, sidekick.MarketData{Profile: p})
}

func (l *Ledger) AccountByName(_ context.Context, name string) (sidekick.RemoteAccount, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("AccountByName"); err != nil {
		return sidekick.RemoteAccount{}, err
	}
	for _, a := range l.Accounts {
		if strings.EqualFold(a.Name, name) {
			return a, nil
		}
	}
	return sidekick.RemoteAccount{}, fmt.Errorf("account %q: %w", name, sidekick.ErrNotFound)
}

func (l *Ledger) CreateAccount(_ context.Context, account sidekick.RemoteAccount) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("CreateAccount"); err != nil {
		return err
	}
	account.ID = uuid.NewString()
	l.Accounts = append(l.Accounts, account)
	return nil
}

func (l *Ledger) UpdateBalance(_ context.Context, accountID string, balance sidekick.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("UpdateBalance"); err != nil {
		return err
	}
	for i, a := range l.Accounts {
		if a.ID == accountID {
			l.Accounts[i].Balance = balance.Amount
			return nil
		}
	}
	return fmt.Errorf("account %s: %w", accountID, sidekick.ErrNotFound)
}

func (l *Ledger) PlatformByName(_ context.Context, name string) (sidekick.Platform, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("PlatformByName"); err != nil {
		return sidekick.Platform{}, err
	}
	for _, p := range l.Platforms {
		if strings.EqualFold(p.Name, name) {
			return p, nil
		}
	}
	return sidekick.Platform{}, fmt.Errorf("platform %q: %w", name, sidekick.ErrNotFound)
}

func (l *Ledger) CreatePlatform(_ context.Context, platform sidekick.Platform) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("CreatePlatform"); err != nil {
		return err
	}
	platform.ID = uuid.NewString()
	l.Platforms = append(l.Platforms, platform)
	return nil
}

func (l *Ledger) Orders(_ context.Context, accountID string) ([]sidekick.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("Orders"); err != nil {
		return nil, err
	}
	var orders []sidekick.Order
	for _, o := range l.Stored {
		if o.AccountID == accountID {
			orders = append(orders, o)
		}
	}
	return orders, nil
}

func (l *Ledger) AllOrders(context.Context) ([]sidekick.Order, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("AllOrders"); err != nil {
		return nil, err
	}
	return slices.Clone(l.Stored), nil
}

// CreateOrder stores order. Like the real ledger, it rejects an order identical
// to a stored one with sidekick.ErrDuplicate. The reference code is not
// stored: remote orders only carry it in their comment.
func (l *Ledger) CreateOrder(_ context.Context, order sidekick.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("CreateOrder"); err != nil {
		return err
	}
	for _, o := range l.Stored {
		if o.AccountID == order.AccountID && sidekick.Equivalent(o, order) && o.Symbol == order.Symbol {
			return fmt.Errorf("order %s: %w", order.Comment, sidekick.ErrDuplicate)
		}
	}
	order.ID = uuid.NewString()
	order.ReferenceCode = ""
	l.Stored = append(l.Stored, order)
	l.Created = append(l.Created, order)
	return nil
}

func (l *Ledger) DeleteOrder(_ context.Context, order sidekick.Order) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("DeleteOrder"); err != nil {
		return err
	}
	i := slices.IndexFunc(l.Stored, func(o sidekick.Order) bool { return o.ID == order.ID })
	if i < 0 {
		return fmt.Errorf("order %s: %w", order.ID, sidekick.ErrNotFound)
	}
	l.Deleted = append(l.Deleted, l.Stored[i])
	l.Stored = slices.Delete(l.Stored, i, i+1)
	return nil
}

// MarketData returns the stored profiles, their activities count computed from the orders.
func (l *Ledger) MarketData(context.Context) ([]sidekick.MarketData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("MarketData"); err != nil {
		return nil, err
	}
	data := make([]sidekick.MarketData, len(l.Profiles))
	for i, md := range l.Profiles {
		md.Profile.ActivitiesCount = 0
		for _, o := range l.Stored {
			if o.Symbol == md.Profile.Symbol {
				md.Profile.ActivitiesCount++
			}
		}
		md.Prices = slices.Clone(md.Prices)
		data[i] = md
	}
	return data, nil
}

func (l *Ledger) MarketDataFor(_ context.Context, dataSource, symbol string) (sidekick.MarketData, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("MarketDataFor"); err != nil {
		return sidekick.MarketData{}, err
	}
	for _, md := range l.Profiles {
		if md.Profile.DataSource == dataSource && md.Profile.Symbol == symbol {
			md.Prices = slices.Clone(md.Prices)
			return md, nil
		}
	}
	return sidekick.MarketData{}, fmt.Errorf("%s/%s: %w", dataSource, symbol, sidekick.ErrNotFound)
}

// SetMarketPrice sets the price of a stored profile, replacing the price of that day.
func (l *Ledger) SetMarketPrice(_ context.Context, profile sidekick.SymbolProfile, price sidekick.Money) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("SetMarketPrice"); err != nil {
		return err
	}
	day := sidekick.DateOf(price.TimeOfRecord.UTC())
	for i, md := range l.Profiles {
		if md.Profile.DataSource != profile.DataSource || md.Profile.Symbol != profile.Symbol {
			continue
		}
		prices := slices.DeleteFunc(slices.Clone(md.Prices), func(p sidekick.MarketPrice) bool { return p.Date == day })
		l.Profiles[i].Prices = append(prices, sidekick.MarketPrice{Date: day, Price: price.Amount})
		return nil
	}
	return fmt.Errorf("%s/%s: %w", profile.DataSource, profile.Symbol, sidekick.ErrNotFound)
}

func (l *Ledger) Gather(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("Gather"); err != nil {
		return err
	}
	l.Gathered++
	return nil
}

func (l *Ledger) LookupSymbol(_ context.Context, query string) ([]sidekick.SymbolProfile, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("LookupSymbol"); err != nil {
		return nil, err
	}
	return slices.Clone(l.Lookups[query]), nil
}

func (l *Ledger) CreateManualSymbol(_ context.Context, profile sidekick.SymbolProfile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("CreateManualSymbol"); err != nil {
		return err
	}
	l.Profiles = append(l.Profiles, sidekick.MarketData{Profile: profile})
	return nil
}

func (l *Ledger) UpdateSymbolProfile(_ context.Context, profile sidekick.SymbolProfile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("UpdateSymbolProfile"); err != nil {
		return err
	}
	l.Updated = append(l.Updated, profile)
	for i, md := range l.Profiles {
		if md.Profile.DataSource == profile.DataSource && md.Profile.Symbol == profile.Symbol {
			l.Profiles[i].Profile = profile
		}
	}
	return nil
}

func (l *Ledger) DeleteSymbol(_ context.Context, profile sidekick.SymbolProfile) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.call("DeleteSymbol"); err != nil {
		return err
	}
	n := len(l.Profiles)
	l.Profiles = slices.DeleteFunc(l.Profiles, func(md sidekick.MarketData) bool {
		return md.Profile.DataSource == profile.DataSource && md.Profile.Symbol == profile.Symbol
	})
	if len(l.Profiles) == n {
		return fmt.Errorf("%s/%s: %w", profile.DataSource, profile.Symbol, sidekick.ErrNotFound)
	}
	return nil
}

// ExchangeRate returns the configured rate of the pair on day, or the pair's
// every-day rate.
func (l *Ledger) ExchangeRate(_ context.Context, from, to sidekick.Currency, day sidekick.Date) (decimal.Decimal, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.RateCalls++
	if err := l.call("ExchangeRate"); err != nil {
		return decimal.Zero, err
	}
	if r, ok := l.Rates[fmt.Sprintf("%s|%s|%s", from, to, day)]; ok {
		return r, nil
	}
	if r, ok := l.Rates[fmt.Sprintf("%s|%s", from, to)]; ok {
		return r, nil
	}
	return decimal.Zero, fmt.Errorf("rate %s-%s on %s: %w", from, to, day, sidekick.ErrNotFound)
}

// Identity is a sidekick.PriceConverter keeping amounts unchanged, only
// relabelling the currency.
type Identity struct{}

func (Identity) ConvertedPrice(_ context.Context, m sidekick.Money, target sidekick.Currency, _ sidekick.Date) sidekick.Money {
	m.Currency = target
	return m
}

var _ sidekick.Ledger = (*Ledger)(nil)

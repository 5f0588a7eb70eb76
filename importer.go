package sidekick

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
)

// Importer converts the files of one account into canonical activities.
type Importer interface {
	// Name identifies the importer in logs.
	Name() string
	// CanParse reports whether every file of the set is in the importer's format.
	// Any parse failure makes the whole set unparseable.
	CanParse(ctx context.Context, files []string) bool
	// ConvertActivitiesForAccount parses files into the remote account named
	// accountName. It returns an error wrapping ErrAccountNotFound when the
	// account does not exist remotely.
	ConvertActivitiesForAccount(ctx context.Context, accountName string, files []string) (*Account, error)
}

// SymbolFinder resolves broker identifiers to symbol profiles.
type SymbolFinder interface {
	FindSymbol(ctx context.Context, q SymbolQuery) (SymbolProfile, bool)
}

// MarketPricer provides the known market price of a symbol on a given day.
type MarketPricer interface {
	MarketPrice(ctx context.Context, profile SymbolProfile, day Date) (Money, bool)
}

// Registry is the ordered list of available importers.
type Registry []Importer

// Select returns the first importer able to parse files.
func (r Registry) Select(ctx context.Context, files []string) (Importer, error) {
	for _, imp := range r {
		if imp.CanParse(ctx, files) {
			return imp, nil
		}
	}
	return nil, fmt.Errorf("no importer for %s: %w", strings.Join(files, ", "), ErrNotFound)
}

// Names returns the importer names, in selection order.
func (r Registry) Names() []string {
	names := make([]string, len(r))
	for i, imp := range r {
		names[i] = imp.Name()
	}
	return names
}

// LookupAccount returns a local account bound to the remote account named name.
func LookupAccount(ctx context.Context, accounts AccountLookup, name string) (*Account, error) {
	remote, err := accounts.AccountByName(ctx, name)
	if errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("account %q: %w", name, ErrAccountNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("looking up account %q: %w", name, err)
	}
	a := NewAccount(remote.ID, remote.Name, remote.Currency)
	a.Comment = remote.Comment
	a.PlatformID = remote.PlatformID
	return a, nil
}

// LedgerPricer reads market prices from the remote ledger.
type LedgerPricer struct {
	Markets MarketStore
}

// MarketPrice implements MarketPricer.
func (l LedgerPricer) MarketPrice(ctx context.Context, profile SymbolProfile, day Date) (Money, bool) {
	md, err := l.Markets.MarketDataFor(ctx, profile.DataSource, profile.Symbol)
	if err != nil {
		return Money{}, false
	}
	price, ok := md.PriceOn(day)
	if !ok {
		return Money{}, false
	}
	return NewMoney(profile.Currency, price, day.Time()), true
}

// CorrectUnitPrice returns price, or the market price of asset at day when the
// price is exactly zero. Brokers report a zero price for rewards and gifts.
func CorrectUnitPrice(ctx context.Context, pricer MarketPricer, log zerolog.Logger, price Money, asset SymbolProfile, day Date) Money {
	if !price.Amount.IsZero() {
		return price
	}
	if m, ok := pricer.MarketPrice(ctx, asset, day); ok {
		return m.At(price.TimeOfRecord)
	}
	log.Warn().Str("symbol", asset.Symbol).Stringer("date", day).Msg("no market price for a zero priced activity, keeping zero")
	return price
}

package sidekick

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PricePoint is a known price of a symbol at a given day.
type PricePoint struct {
	Date  Date
	Price decimal.Decimal
}

// priceTolerance is the smallest difference worth writing to the ledger.
var priceTolerance = decimal.New(1, -7)

// ExpectedPrices returns one price per day from the first point to tomorrow,
// linearly interpolated between consecutive points. After the last point the
// price stays flat up to tomorrow. When two points share a day the latest one
// in date order wins.
func ExpectedPrices(points []PricePoint, tomorrow Date) []PricePoint {
	if len(points) == 0 {
		return nil
	}
	sorted := slices.Clone(points)
	slices.SortStableFunc(sorted, func(a, b PricePoint) int { return a.Date.time().Compare(b.Date.time()) })

	expected := make(map[Date]decimal.Decimal)
	var days []Date
	for i, from := range sorted {
		to := PricePoint{Date: tomorrow, Price: from.Price}
		if i+1 < len(sorted) {
			to = sorted[i+1]
		}
		for d := from.Date; !d.After(to.Date); d = d.Add(1) {
			a := decimal.NewFromInt(int64(from.Date.DaysUntil(d)))
			b := decimal.NewFromInt(int64(d.DaysUntil(to.Date)))
			weight := decimal.NewFromInt(1)
			if !a.Add(b).IsZero() {
				weight = a.Div(a.Add(b))
			}
			if _, ok := expected[d]; !ok {
				days = append(days, d)
			}
			expected[d] = from.Price.Add(weight.Mul(to.Price.Sub(from.Price)))
		}
	}
	slices.SortFunc(days, func(a, b Date) int { return a.time().Compare(b.time()) })
	out := make([]PricePoint, len(days))
	for i, d := range days {
		out[i] = PricePoint{Date: d, Price: expected[d]}
	}
	return out
}

// Interpolator maintains the daily prices of manual symbols from the prices
// they were traded at.
type Interpolator struct {
	markets MarketStore
	now     func() time.Time
	log     zerolog.Logger
}

// NewInterpolator returns an interpolator writing prices to markets.
func NewInterpolator(markets MarketStore, log zerolog.Logger) *Interpolator {
	return &Interpolator{markets: markets, now: time.Now, log: log.With().Str("component", "interpolate").Logger()}
}

// SetKnownPrices writes the interpolated price of profile for every day its
// stored price differs from the expected one. orders may hold any symbol: only
// the buy and sell orders of profile, matched on symbol and data source, are used. It returns the number of prices
// written.
func (ip *Interpolator) SetKnownPrices(ctx context.Context, profile SymbolProfile, orders []Order) (int, error) {
	var points []PricePoint
	currency := profile.Currency
	for _, o := range orders {
		if o.Symbol != profile.Symbol || o.DataSource != profile.DataSource || !o.IsBuyOrSell() {
			continue
		}
		points = append(points, PricePoint{Date: DateOf(o.Date.UTC()), Price: o.UnitPrice})
		if currency == "" {
			currency = o.Currency
		}
	}
	if len(points) == 0 {
		return 0, nil
	}

	md, err := ip.markets.MarketDataFor(ctx, profile.DataSource, profile.Symbol)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return 0, fmt.Errorf("market data of %s: %w", profile.Symbol, err)
	}

	written := 0
	tomorrow := DateOf(ip.now()).Add(1)
	for _, p := range ExpectedPrices(points, tomorrow) {
		current, _ := md.PriceOn(p.Date)
		if current.Sub(p.Price).Abs().LessThan(priceTolerance) {
			continue
		}
		if err := ip.markets.SetMarketPrice(ctx, profile, NewMoney(currency, p.Price, p.Date.Time())); err != nil {
			ip.log.Error().Err(err).Str("symbol", profile.Symbol).Stringer("date", p.Date).Stringer("price", p.Price).Msg("could not set market price")
			continue
		}
		written++
	}
	if written > 0 {
		ip.log.Info().Str("symbol", profile.Symbol).Int("prices", written).Msg("market prices updated")
	}
	return written, nil
}

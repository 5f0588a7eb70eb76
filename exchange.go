package sidekick

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultIntermediates are the currencies tried, in order, as a routing hop when
// no direct exchange rate exists.
var DefaultIntermediates = []Currency{USD, EUR, GBP}

// ExchangeService converts money between currencies using same-day exchange
// rates, with a fallback chain through intermediate currencies.
type ExchangeService struct {
	rates         RateSource
	cache         Cache
	intermediates []Currency
	aliases       map[Currency]Currency
	log           zerolog.Logger
}

// NewExchangeService returns an ExchangeService routing through DefaultIntermediates.
func NewExchangeService(rates RateSource, cache Cache, log zerolog.Logger) *ExchangeService {
	if cache == nil {
		cache = NoCache{}
	}
	return &ExchangeService{
		rates:         rates,
		cache:         cache,
		intermediates: DefaultIntermediates,
		log:           log.With().Str("component", "exchange").Logger(),
	}
}

// WithIntermediates returns a copy of s routing through the given currencies.
func (s *ExchangeService) WithIntermediates(intermediates ...Currency) *ExchangeService {
	c := *s
	c.intermediates = intermediates
	return &c
}

// WithAliases returns a copy of s that reads every currency found in aliases as
// its mapped currency, for providers quoting with non-standard codes.
func (s *ExchangeService) WithAliases(aliases map[Currency]Currency) *ExchangeService {
	c := *s
	c.aliases = aliases
	return &c
}

func (s *ExchangeService) alias(c Currency) Currency {
	if a, ok := s.aliases[c]; ok {
		return a
	}
	return c
}

// ConvertedPrice returns m in the target currency at day. It never fails: when
// no rate can be found the amount is kept unchanged.
func (s *ExchangeService) ConvertedPrice(ctx context.Context, m Money, target Currency, day Date) Money {
	if m.Currency == target || m.IsZero() {
		return m
	}
	rate := s.Rate(ctx, m.Currency, target, day)
	return NewMoney(target, m.Amount.Mul(rate), m.TimeOfRecord)
}

// Rate returns the value of one unit of from in to, at day. It returns 1 and logs
// a warning when every path fails.
func (s *ExchangeService) Rate(ctx context.Context, from, to Currency, day Date) decimal.Decimal {
	from, to = s.alias(from), s.alias(to)
	if from == to {
		return decimal.NewFromInt(1)
	}
	key := fmt.Sprintf("rate|%s|%s|%s", from, to, day)
	if v, ok := s.cache.Get(key); ok {
		return v.(decimal.Decimal)
	}

	// minor units (GBp) are converted through their major currency.
	fromMajor, fromFactor := from.Major()
	toMajor, toFactor := to.Major()
	scale := toFactor.Div(fromFactor)

	rate, err := s.majorRate(ctx, fromMajor, toMajor, day)
	if err != nil {
		s.log.Warn().Err(err).
			Str("from", string(from)).
			Str("to", string(to)).
			Stringer("date", day).
			Msg("exchange rate not found, assuming a rate of 1")
		return decimal.NewFromInt(1)
	}
	rate = rate.Mul(scale)
	s.cache.Set(key, rate, ExpiryShort)
	return rate
}

// majorRate resolves the direct pair, then every intermediate path.
func (s *ExchangeService) majorRate(ctx context.Context, from, to Currency, day Date) (decimal.Decimal, error) {
	if from == to {
		return decimal.NewFromInt(1), nil
	}
	rate, err := s.rates.ExchangeRate(ctx, from, to, day)
	if err == nil {
		return rate, nil
	}
	errs := []error{err}
	for _, mid := range s.intermediates {
		if mid == from || mid == to {
			continue
		}
		first, err := s.rates.ExchangeRate(ctx, from, mid, day)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		second, err := s.rates.ExchangeRate(ctx, mid, to, day)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		s.log.Debug().
			Str("from", string(from)).
			Str("via", string(mid)).
			Str("to", string(to)).
			Stringer("date", day).
			Msg("exchange rate resolved through an intermediate currency")
		return first.Mul(second), nil
	}
	return decimal.Zero, errors.Join(errs...)
}

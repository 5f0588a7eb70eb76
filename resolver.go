package sidekick

import (
	"context"
	"errors"
	"slices"

	"github.com/rs/zerolog"
)

// SymbolQuery describes the instrument an importer is looking for.
type SymbolQuery struct {
	// Identifiers are tried in order, the first one found wins.
	Identifiers      []string
	ExpectedCurrency Currency
	AssetClasses     []AssetClass
	AssetSubClasses  []AssetSubClass
}

// Query returns a query for a single identifier.
func Query(identifier string, currency Currency) SymbolQuery {
	return SymbolQuery{Identifiers: []string{identifier}, ExpectedCurrency: currency}
}

// WellKnownCurrencies are preferred, in that order, among otherwise equivalent candidates.
var WellKnownCurrencies = []Currency{EUR, USD, GBP}

// lookupAttempts is the number of times the remote lookup is asked before giving up.
const lookupAttempts = 5

// RankProfiles returns candidates ordered from the best match for identifier and q
// to the worst. The order is stable: equivalent candidates keep their order.
func RankProfiles(candidates []SymbolProfile, identifier string, q SymbolQuery) []SymbolProfile {
	rank := func(p SymbolProfile) []int {
		known := slices.Index(WellKnownCurrencies, p.Currency)
		if known < 0 {
			known = len(WellKnownCurrencies)
		}
		return []int{
			miss(p.ISIN == identifier),
			miss(p.Symbol == identifier),
			miss(p.Name == identifier),
			miss(slices.Contains(q.AssetClasses, p.AssetClass)),
			miss(slices.Contains(q.AssetSubClasses, p.AssetSubClass)),
			miss(q.ExpectedCurrency != "" && p.Currency == q.ExpectedCurrency),
			known,
			len(p.Name),
		}
	}
	ranked := slices.Clone(candidates)
	slices.SortStableFunc(ranked, func(a, b SymbolProfile) int {
		return slices.Compare(rank(a), rank(b))
	})
	return ranked
}

func miss(ok bool) int {
	if ok {
		return 0
	}
	return 1
}

// SymbolResolver maps broker identifiers (ISIN, ticker, name) to the remote
// ledger's symbol profiles.
type SymbolResolver struct {
	markets MarketStore
	symbols SymbolStore
	cache   Cache
	// mapping rewrites broker identifiers before they are looked up.
	mapping map[string]string
	log     zerolog.Logger
}

// NewSymbolResolver returns a resolver using mapping to rewrite identifiers.
func NewSymbolResolver(markets MarketStore, symbols SymbolStore, cache Cache, mapping map[string]string, log zerolog.Logger) *SymbolResolver {
	if cache == nil {
		cache = NoCache{}
	}
	return &SymbolResolver{
		markets: markets,
		symbols: symbols,
		cache:   cache,
		mapping: mapping,
		log:     log.With().Str("component", "symbols").Logger(),
	}
}

// FindSymbol returns the profile matching q, trying every identifier in turn.
// Absence is not an error: it is logged and reported with false.
func (r *SymbolResolver) FindSymbol(ctx context.Context, q SymbolQuery) (SymbolProfile, bool) {
	for _, id := range q.Identifiers {
		if id == "" {
			continue
		}
		if p, ok := r.find(ctx, id, q); ok {
			return p, true
		}
	}
	r.log.Error().Strs("identifiers", q.Identifiers).Str("currency", string(q.ExpectedCurrency)).Msg("could not find symbol")
	return SymbolProfile{}, false
}

func (r *SymbolResolver) find(ctx context.Context, id string, q SymbolQuery) (SymbolProfile, bool) {
	key := "symbol|" + id
	if v, ok := r.cache.Get(key); ok {
		return v.(SymbolProfile), true
	}
	mapped := id
	if m, ok := r.mapping[id]; ok && m != "" {
		mapped = m
	}

	p, ok := r.fromMarketData(ctx, id, mapped)
	if !ok {
		p, ok = r.fromLookup(ctx, id, mapped, q)
	}
	if !ok {
		return SymbolProfile{}, false
	}
	p = r.recordIdentifiers(ctx, p, mapped, id)
	r.cache.Set(key, p, ExpiryLong)
	return p, true
}

// fromMarketData searches the profiles the ledger already holds prices for.
func (r *SymbolResolver) fromMarketData(ctx context.Context, ids ...string) (SymbolProfile, bool) {
	data, err := r.markets.MarketData(ctx)
	if err != nil {
		r.log.Debug().Err(err).Msg("market data unavailable for symbol lookup")
		return SymbolProfile{}, false
	}
	for _, md := range data {
		for _, id := range ids {
			if md.Profile.HasIdentifier(id) {
				return md.Profile, true
			}
		}
	}
	return SymbolProfile{}, false
}

func (r *SymbolResolver) fromLookup(ctx context.Context, id, query string, q SymbolQuery) (SymbolProfile, bool) {
	for range lookupAttempts {
		candidates, err := r.symbols.LookupSymbol(ctx, query)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return SymbolProfile{}, false
			}
			r.log.Debug().Err(err).Str("query", query).Msg("symbol lookup failed")
			continue
		}
		if len(candidates) == 0 {
			continue
		}
		return RankProfiles(candidates, id, q)[0], true
	}
	return SymbolProfile{}, false
}

// recordIdentifiers persists ids as alternate identifiers of p. Failures are
// not fatal: the identifiers will be recorded by a later lookup.
func (r *SymbolResolver) recordIdentifiers(ctx context.Context, p SymbolProfile, ids ...string) SymbolProfile {
	for _, id := range slices.Compact(slices.Clone(ids)) {
		if p.HasIdentifier(id) {
			continue
		}
		p = p.AddIdentifier(id)
		if err := r.symbols.UpdateSymbolProfile(ctx, p); err != nil {
			r.log.Debug().Err(err).Str("symbol", p.Symbol).Str("identifier", id).Msg("could not record identifier")
		}
	}
	return p
}


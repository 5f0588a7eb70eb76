package sidekick

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
)

// ManualSymbol describes a symbol no data provider knows, created in the remote
// ledger with the MANUAL data source.
type ManualSymbol struct {
	Currency      Currency
	ISIN          string
	Name          string
	AssetClass    AssetClass
	AssetSubClass AssetSubClass
}

// SymbolConfig is the configuration of one symbol.
type SymbolConfig struct {
	Symbol       string
	TrackInsight string        // TrackInsight identifier, empty to clear it
	Manual       *ManualSymbol // nil for symbols known by a data provider
}

// Profile returns the profile of a manual symbol.
func (c SymbolConfig) Profile() SymbolProfile {
	if c.Manual == nil {
		return SymbolProfile{Symbol: c.Symbol}
	}
	return SymbolProfile{
		Symbol:        c.Symbol,
		ISIN:          c.Manual.ISIN,
		Name:          c.Manual.Name,
		Currency:      c.Manual.Currency,
		AssetClass:    c.Manual.AssetClass,
		AssetSubClass: c.Manual.AssetSubClass,
		DataSource:    DataSourceManual,
	}
}

// Maintainer keeps the remote market data tidy: unused symbols are deleted,
// manual symbols created and priced, third party mappings set.
type Maintainer struct {
	ledger  Ledger
	symbols SymbolFinder
	prices  *Interpolator
	cache   Cache
	configs []SymbolConfig
	log     zerolog.Logger
}

// NewMaintainer returns a maintainer for the configured symbols.
func NewMaintainer(ledger Ledger, symbols SymbolFinder, cache Cache, configs []SymbolConfig, log zerolog.Logger) *Maintainer {
	if cache == nil {
		cache = NoCache{}
	}
	return &Maintainer{
		ledger:  ledger,
		symbols: symbols,
		prices:  NewInterpolator(ledger, log),
		cache:   cache,
		configs: configs,
		log:     log.With().Str("component", "maintain").Logger(),
	}
}

// Run executes one maintenance cycle. Every step runs even if a previous one
// failed; the returned error joins the failures. gather also asks the remote
// ledger to refresh all its market data.
func (m *Maintainer) Run(ctx context.Context, gather bool) error {
	m.log.Info().Msg("maintenance started")
	// listings and rates must not outlive one cycle
	m.cache.Purge()

	type step struct {
		name string
		run  func(context.Context) error
	}
	steps := []step{
		{"delete unused symbols", m.DeleteUnusedSymbols},
		{"manage manual symbols", m.ManageManualSymbols},
		{"set trackinsight mappings", m.SetTrackInsightOnSymbols},
	}
	if gather {
		steps = append(steps, step{"gather market data", m.ledger.Gather})
	}
	var errs []error
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			m.log.Error().Err(err).Str("step", step.name).Msg("maintenance step failed")
			errs = append(errs, fmt.Errorf("%s: %w", step.name, err))
		}
	}
	m.log.Info().Msg("maintenance done")
	return errors.Join(errs...)
}

// DeleteUnusedSymbols deletes the symbol profiles no activity refers to.
func (m *Maintainer) DeleteUnusedSymbols(ctx context.Context) error {
	data, err := m.ledger.MarketData(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, md := range data {
		if md.Profile.ActivitiesCount > 0 {
			continue
		}
		if err := m.ledger.DeleteSymbol(ctx, md.Profile); err != nil {
			errs = append(errs, err)
			continue
		}
		m.log.Info().Str("symbol", md.Profile.Symbol).Msg("deleted unused symbol")
	}
	return errors.Join(errs...)
}

// ManageManualSymbols creates the configured manual symbols missing remotely,
// then interpolates their daily prices from the prices they were traded at.
func (m *Maintainer) ManageManualSymbols(ctx context.Context) error {
	var manual []SymbolConfig
	for _, c := range m.configs {
		if c.Manual != nil {
			manual = append(manual, c)
		}
	}
	if len(manual) == 0 {
		return nil
	}

	var errs []error
	for _, c := range manual {
		q := SymbolQuery{
			Identifiers:     []string{c.Symbol},
			AssetClasses:    []AssetClass{c.Manual.AssetClass},
			AssetSubClasses: []AssetSubClass{c.Manual.AssetSubClass},
		}
		if _, ok := m.symbols.FindSymbol(ctx, q); ok {
			continue
		}
		if err := m.ledger.CreateManualSymbol(ctx, c.Profile()); err != nil {
			errs = append(errs, fmt.Errorf("creating %s: %w", c.Symbol, err))
			continue
		}
		m.log.Info().Str("symbol", c.Symbol).Msg("created manual symbol")
	}

	data, err := m.ledger.MarketData(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	orders, err := m.ledger.AllOrders(ctx)
	if err != nil {
		return errors.Join(append(errs, err)...)
	}
	for _, c := range manual {
		for _, md := range data {
			if md.Profile.Symbol != c.Symbol || md.Profile.ActivitiesCount <= 0 {
				continue
			}
			if _, err := m.prices.SetKnownPrices(ctx, md.Profile, orders); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// SetTrackInsightOnSymbols aligns the TrackInsight mapping of every configured
// symbol with the configuration.
func (m *Maintainer) SetTrackInsightOnSymbols(ctx context.Context) error {
	data, err := m.ledger.MarketData(ctx)
	if err != nil {
		return err
	}
	var errs []error
	for _, md := range data {
		for _, c := range m.configs {
			if c.Symbol != md.Profile.Symbol || md.Profile.Mappings.TrackInsight == c.TrackInsight {
				continue
			}
			p := md.Profile
			p.Mappings.TrackInsight = c.TrackInsight
			if err := m.ledger.UpdateSymbolProfile(ctx, p); err != nil {
				errs = append(errs, err)
				continue
			}
			m.log.Info().Str("symbol", p.Symbol).Str("trackinsight", c.TrackInsight).Msg("updated symbol mapping")
		}
	}
	return errors.Join(errs...)
}

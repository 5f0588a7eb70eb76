package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/etnz/sidekick"
)

// File is the parsed configuration file.
type File struct {
	SymbolMappings   map[string]string
	CurrencyMappings map[sidekick.Currency]sidekick.Currency
	Symbols          []sidekick.SymbolConfig
	Accounts         []sidekick.AccountConfig
	Platforms        []sidekick.PlatformConfig
}

// raw JSON layout of the configuration file.
type fileJSON struct {
	Mappings []struct {
		Type   string `json:"type"`
		Source string `json:"source"`
		Target string `json:"target"`
	} `json:"mappings"`
	Symbols []struct {
		Symbol       string `json:"symbol"`
		TrackInsight string `json:"trackinsight"`
		Manual       *struct {
			Currency      string `json:"currency"`
			ISIN          string `json:"isin"`
			Name          string `json:"name"`
			AssetClass    string `json:"assetClass"`
			AssetSubClass string `json:"assetSubClass"`
		} `json:"manualSymbolConfiguration"`
	} `json:"symbols"`
	Accounts []struct {
		Name     string `json:"name"`
		Currency string `json:"currency"`
		Comment  string `json:"comment"`
		Platform string `json:"platform"`
	} `json:"accounts"`
	Platforms []struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	} `json:"platforms"`
}

// LoadFile reads and parses the configuration file at path.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, fmt.Errorf("cannot open configuration file: %w", err)
	}
	defer f.Close()
	file, err := ParseFile(f)
	if err != nil {
		return File{}, fmt.Errorf("invalid configuration file %q: %w", path, err)
	}
	return file, nil
}

// ParseFile parses a configuration file. Unknown enum values (mapping types,
// currencies, asset classes) are errors.
func ParseFile(r io.Reader) (File, error) {
	var raw fileJSON
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return File{}, err
	}

	file := File{
		SymbolMappings:   make(map[string]string),
		CurrencyMappings: make(map[sidekick.Currency]sidekick.Currency),
	}
	var errs []error

	for i, m := range raw.Mappings {
		switch strings.ToLower(m.Type) {
		case "symbol":
			file.SymbolMappings[m.Source] = m.Target
		case "currency":
			target, err := sidekick.ParseCurrency(m.Target)
			if err != nil {
				errs = append(errs, fmt.Errorf("mappings[%d]: %w", i, err))
				continue
			}
			// the source is a code providers use, not necessarily a valid one.
			file.CurrencyMappings[sidekick.Currency(m.Source)] = target
		default:
			errs = append(errs, fmt.Errorf("mappings[%d]: unknown mapping type %q", i, m.Type))
		}
	}

	for i, s := range raw.Symbols {
		if s.Symbol == "" {
			errs = append(errs, fmt.Errorf("symbols[%d]: missing symbol", i))
			continue
		}
		c := sidekick.SymbolConfig{Symbol: s.Symbol, TrackInsight: s.TrackInsight}
		if m := s.Manual; m != nil {
			cur, err1 := sidekick.ParseCurrency(m.Currency)
			class, err2 := sidekick.ParseAssetClass(m.AssetClass)
			sub, err3 := sidekick.ParseAssetSubClass(m.AssetSubClass)
			if err := errors.Join(err1, err2, err3); err != nil {
				errs = append(errs, fmt.Errorf("symbols[%d] %s: %w", i, s.Symbol, err))
				continue
			}
			c.Manual = &sidekick.ManualSymbol{
				Currency:      cur,
				ISIN:          m.ISIN,
				Name:          m.Name,
				AssetClass:    class,
				AssetSubClass: sub,
			}
		}
		file.Symbols = append(file.Symbols, c)
	}

	for i, a := range raw.Accounts {
		cur, err := sidekick.ParseCurrency(a.Currency)
		if err != nil {
			errs = append(errs, fmt.Errorf("accounts[%d] %s: %w", i, a.Name, err))
			continue
		}
		file.Accounts = append(file.Accounts, sidekick.AccountConfig{
			Name:     a.Name,
			Currency: cur,
			Comment:  a.Comment,
			Platform: a.Platform,
		})
	}

	for _, p := range raw.Platforms {
		file.Platforms = append(file.Platforms, sidekick.PlatformConfig{Name: p.Name, URL: p.URL})
	}

	if err := errors.Join(errs...); err != nil {
		return File{}, err
	}
	return file, nil
}

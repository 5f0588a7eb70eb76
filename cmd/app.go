// Package cmd implements the CLI application synchronizing broker exports with
// a Ghostfolio instance.
package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/etnz/sidekick"
	"github.com/etnz/sidekick/coinbase"
	"github.com/etnz/sidekick/config"
	"github.com/etnz/sidekick/degiro"
	"github.com/etnz/sidekick/generic"
	"github.com/etnz/sidekick/ghostfolio"
	"github.com/etnz/sidekick/logger"
	"github.com/google/subcommands"
	"github.com/rs/zerolog"
)

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	c.Register(&importCmd{}, "accounts")
	c.Register(&planCmd{}, "accounts")
	c.Register(&syncCmd{}, "accounts")

	c.Register(&maintainCmd{}, "market data")
	c.Register(&rateCmd{}, "market data")

	c.Register(&daemonCmd{}, "")
}

// app is the application wired from the configuration.
type app struct {
	cfg        *config.Config
	log        zerolog.Logger
	exchange   *sidekick.ExchangeService
	reconciler *sidekick.Reconciler
	task       *sidekick.ImportTask
	maintainer *sidekick.Maintainer
}

// newApp loads the configuration and wires every component.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Config{Level: cfg.LogLevel, Pretty: cfg.LogPretty})
	cache := sidekick.NewMemoryCache()

	client := ghostfolio.New(cfg.GhostfolioURL, cfg.AccessToken, cache, log)
	exchange := sidekick.NewExchangeService(client, cache, log).WithAliases(cfg.File.CurrencyMappings)
	symbols := sidekick.NewSymbolResolver(client, client, cache, cfg.File.SymbolMappings, log)

	registry := sidekick.Registry{
		degiro.New(client, symbols, log),
		coinbase.New(client, symbols, sidekick.LedgerPricer{Markets: client}, log),
		generic.New(client, symbols, log),
	}
	reconciler := sidekick.NewReconciler(client, client, exchange, log)

	return &app{
		cfg:        cfg,
		log:        log,
		exchange:   exchange,
		reconciler: reconciler,
		task: &sidekick.ImportTask{
			Registry:        registry,
			Accounts:        client,
			Reconciler:      reconciler,
			AccountConfigs:  cfg.File.Accounts,
			PlatformConfigs: cfg.File.Platforms,
			CreateAccounts:  cfg.CreateAccounts,
			Concurrency:     cfg.Concurrency,
			Log:             log,
		},
		maintainer: sidekick.NewMaintainer(client, symbols, cache, cfg.File.Symbols, log),
	}, nil
}

// accountDirs returns the account directories under the import path, restricted
// to the named account when not empty.
func (a *app) accountDirs(path, account string) ([]sidekick.AccountDir, error) {
	if path == "" {
		path = a.cfg.FileImporterPath
	}
	if path == "" {
		return nil, fmt.Errorf("no import path: set FILEIMPORTER_PATH or -dir")
	}
	dirs, err := sidekick.ScanAccounts(path)
	if err != nil {
		return nil, err
	}
	if account == "" {
		return dirs, nil
	}
	for _, d := range dirs {
		if strings.EqualFold(d.Name, account) {
			return []sidekick.AccountDir{d}, nil
		}
	}
	return nil, fmt.Errorf("no directory for account %q in %s", account, path)
}

// printMarkdown prints md, rendered for the terminal when pretty is set.
func printMarkdown(md string, pretty bool) {
	if pretty {
		out, err := glamour.Render(md, "auto")
		if err == nil {
			md = out
		} else {
			fmt.Fprintf(os.Stderr, "Error rendering markdown: %v\n", err)
		}
	}
	fmt.Print(md)
}

package sidekick

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// AccountConfig declares an account that is created remotely when missing.
type AccountConfig struct {
	Name     string
	Currency Currency
	Comment  string
	Platform string
}

// PlatformConfig declares a platform accounts can be attached to.
type PlatformConfig struct {
	Name string
	URL  string
}

// ImportTask imports a directory tree: each sub-directory of the root is an
// account, named after the directory, and its regular files are the account's
// file set.
type ImportTask struct {
	Registry   Registry
	Accounts   AccountStore
	Reconciler *Reconciler

	// AccountConfigs and PlatformConfigs are created remotely on demand when
	// CreateAccounts is set.
	AccountConfigs  []AccountConfig
	PlatformConfigs []PlatformConfig
	CreateAccounts  bool

	// Concurrency is the number of accounts imported at once, 0 for no limit.
	Concurrency int
	Log         zerolog.Logger
}

// AccountDir is one account directory.
type AccountDir struct {
	Name  string
	Files []string
}

// ScanAccounts lists the account directories under root.
func ScanAccounts(root string) ([]AccountDir, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	var dirs []AccountDir
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		files, err := os.ReadDir(filepath.Join(root, e.Name()))
		if err != nil {
			return nil, err
		}
		dir := AccountDir{Name: e.Name()}
		for _, f := range files {
			if f.Type().IsRegular() && !strings.HasPrefix(f.Name(), ".") {
				dir.Files = append(dir.Files, filepath.Join(root, e.Name(), f.Name()))
			}
		}
		if len(dir.Files) > 0 {
			dirs = append(dirs, dir)
		}
	}
	return dirs, nil
}

// Run imports and synchronizes every account under root. A failing account
// does not stop the others. Reports are in the order of ScanAccounts.
func (t *ImportTask) Run(ctx context.Context, root string) ([]Report, error) {
	dirs, err := ScanAccounts(root)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", root, err)
	}
	reports := make([]Report, len(dirs))
	errs := make([]error, len(dirs))
	g, ctx := errgroup.WithContext(ctx)
	if t.Concurrency > 0 {
		g.SetLimit(t.Concurrency)
	}
	for i, dir := range dirs {
		g.Go(func() error {
			report, err := t.ImportAccount(ctx, dir.Name, dir.Files)
			reports[i] = report
			if err != nil {
				t.Log.Error().Err(err).Str("account", dir.Name).Msg("import failed")
				errs[i] = fmt.Errorf("account %s: %w", dir.Name, err)
			}
			return nil
		})
	}
	_ = g.Wait()
	return reports, errors.Join(errs...)
}

// ImportAccount converts the files of an account and synchronizes the remote ledger.
func (t *ImportTask) ImportAccount(ctx context.Context, name string, files []string) (Report, error) {
	account, err := t.Convert(ctx, name, files)
	if err != nil {
		return Report{Account: name}, err
	}
	return t.Reconciler.Sync(ctx, account)
}

// Convert selects the importer of files and converts them into the account
// named name. When the account is missing remotely and declared in the
// configuration it is created, and the conversion retried once.
func (t *ImportTask) Convert(ctx context.Context, name string, files []string) (*Account, error) {
	imp, err := t.Registry.Select(ctx, files)
	if err != nil {
		return nil, err
	}
	log := t.Log.With().Str("account", name).Str("importer", imp.Name()).Logger()
	log.Debug().Int("files", len(files)).Msg("converting")

	account, err := imp.ConvertActivitiesForAccount(ctx, name, files)
	if errors.Is(err, ErrAccountNotFound) && t.CreateAccounts {
		cfg, ok := t.accountConfig(name)
		if !ok {
			return nil, err
		}
		if err := t.createAccount(ctx, cfg); err != nil {
			return nil, err
		}
		log.Info().Msg("created account")
		account, err = imp.ConvertActivitiesForAccount(ctx, name, files)
	}
	if err != nil {
		return nil, err
	}
	log.Debug().Int("activities", len(account.Activities)).Msg("converted")
	return account, nil
}

func (t *ImportTask) accountConfig(name string) (AccountConfig, bool) {
	for _, c := range t.AccountConfigs {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return AccountConfig{}, false
}

func (t *ImportTask) createAccount(ctx context.Context, cfg AccountConfig) error {
	remote := RemoteAccount{Name: cfg.Name, Currency: cfg.Currency, Comment: cfg.Comment}
	if cfg.Platform != "" {
		p, err := t.platform(ctx, cfg.Platform)
		if err != nil {
			return err
		}
		remote.PlatformID = p.ID
	}
	if err := t.Accounts.CreateAccount(ctx, remote); err != nil {
		return fmt.Errorf("creating account %s: %w", cfg.Name, err)
	}
	return nil
}

// platform returns the remote platform named name, creating it from the
// configuration when missing.
func (t *ImportTask) platform(ctx context.Context, name string) (Platform, error) {
	p, err := t.Accounts.PlatformByName(ctx, name)
	if !errors.Is(err, ErrNotFound) {
		return p, err
	}
	create := Platform{Name: name}
	for _, c := range t.PlatformConfigs {
		if strings.EqualFold(c.Name, name) {
			create.URL = c.URL
		}
	}
	if err := t.Accounts.CreatePlatform(ctx, create); err != nil {
		return Platform{}, fmt.Errorf("creating platform %s: %w", name, err)
	}
	return t.Accounts.PlatformByName(ctx, name)
}

package degiro

import (
	"context"

	"github.com/etnz/sidekick"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// assetClasses are the classes of the instruments DeGiro trades.
var assetClasses = []sidekick.AssetClass{sidekick.Equity, sidekick.FixedIncome, sidekick.Commodity, sidekick.RealEstate}

// Importer is the DeGiro sidekick.Importer.
type Importer struct {
	accounts sidekick.AccountLookup
	symbols  sidekick.SymbolFinder
	log      zerolog.Logger
}

// New returns a DeGiro importer.
func New(accounts sidekick.AccountLookup, symbols sidekick.SymbolFinder, log zerolog.Logger) *Importer {
	return &Importer{accounts: accounts, symbols: symbols, log: log.With().Str("importer", "degiro").Logger()}
}

func (*Importer) Name() string { return "DeGiro" }

// CanParse reports whether files are DeGiro statements with no malformed row.
func (imp *Importer) CanParse(_ context.Context, files []string) bool {
	if len(files) == 0 {
		return false
	}
	if _, err := readRows(files); err != nil {
		imp.log.Debug().Err(err).Msg("cannot parse")
		return false
	}
	return true
}

// ConvertActivitiesForAccount implements sidekick.Importer. The account balance
// is the balance DeGiro reports on the newest row.
func (imp *Importer) ConvertActivitiesForAccount(ctx context.Context, accountName string, files []string) (*sidekick.Account, error) {
	account, err := sidekick.LookupAccount(ctx, imp.accounts, accountName)
	if err != nil {
		return nil, err
	}
	rows, err := readRows(files)
	if err != nil {
		return nil, err
	}
	log := imp.log.With().Str("account", accountName).Logger()

	fees := make(map[string][]sidekick.Money)
	taxes := make(map[string]decimal.Decimal)
	for _, r := range rows {
		switch r.kind {
		case fee:
			if r.orderID != "" && !r.mutation.IsZero() {
				fees[r.orderID] = addFee(fees[r.orderID], r.mutation.Neg())
			}
		case dividendTax:
			taxes[r.reference("Dividend")] = taxes[r.reference("Dividend")].Add(r.mutation.Amount.Neg())
		}
	}

	parts := make(map[string]int)
	for _, r := range rows {
		switch r.kind {
		case buy, sell:
			code := r.orderID
			if code == "" {
				code = r.reference("Trade")
			}
			parts[code]++
			var lotFees []sidekick.Money
			if parts[code] == 1 {
				lotFees = fees[r.orderID]
			}
			asset, ok := imp.symbols.FindSymbol(ctx, sidekick.SymbolQuery{
				Identifiers:      []string{r.isin, r.product},
				ExpectedCurrency: r.price.Currency,
				AssetClasses:     assetClasses,
			})
			if !ok {
				log.Error().Str("isin", r.isin).Str("product", r.product).Time("date", r.time).Msg("unknown symbol, skipping trade")
				continue
			}
			typ := sidekick.Buy
			if r.kind == sell {
				typ = sidekick.Sell
			}
			account.AddActivity(sidekick.NewActivity(typ, &asset, r.time, r.quantity, r.price, lotFees, sidekick.MultipartReference(code, parts[code])))

		case dividend:
			ref := r.reference("Dividend")
			asset, ok := imp.symbols.FindSymbol(ctx, sidekick.SymbolQuery{
				Identifiers:      []string{r.isin, r.product},
				ExpectedCurrency: r.mutation.Currency,
				AssetClasses:     assetClasses,
			})
			if !ok {
				log.Error().Str("isin", r.isin).Time("date", r.time).Msg("unknown symbol, skipping dividend")
				continue
			}
			net := r.mutation
			net.Amount = net.Amount.Sub(taxes[ref])
			account.AddActivity(sidekick.NewActivity(sidekick.Dividend, &asset, r.time, decimal.NewFromInt(1), net, nil, ref))

		case deposit, withdrawal, interest:
			account.AddActivity(cashActivity(r))

		case ignored:
			if !r.mutation.IsZero() {
				log.Debug().Str("description", r.description).Time("date", r.time).Msg("ignored row")
			}
		}
	}

	if len(rows) > 0 {
		newest := rows[len(rows)-1]
		account.Balance = account.Balance.SetKnown(newest.balance)
	}
	return account, nil
}

// cashActivity converts a row moving cash only.
func cashActivity(r row) sidekick.Activity {
	typ, prefix := sidekick.CashDeposit, "Deposit"
	switch {
	case r.kind == withdrawal:
		typ, prefix = sidekick.CashWithdrawal, "Withdrawal"
	case r.kind == interest && r.mutation.IsNegative():
		// debit interest
		typ, prefix = sidekick.CashWithdrawal, "Interest"
	case r.kind == interest:
		typ, prefix = sidekick.Interest, "Interest"
	}
	ref := r.orderID
	if ref == "" {
		ref = r.reference(prefix)
	}
	amount := r.mutation
	amount.Amount = amount.Amount.Abs()
	return sidekick.NewActivity(typ, nil, r.time, decimal.NewFromInt(1), amount, nil, ref)
}

// addFee adds m to the fee of the same currency.
func addFee(fees []sidekick.Money, m sidekick.Money) []sidekick.Money {
	for i, f := range fees {
		if f.Currency == m.Currency {
			fees[i] = f.Add(m)
			return fees
		}
	}
	return append(fees, m)
}

var _ sidekick.Importer = (*Importer)(nil)

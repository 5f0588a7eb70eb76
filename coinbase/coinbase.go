// Package coinbase imports the transaction history exported by Coinbase.
package coinbase

import (
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/etnz/sidekick"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var header = []string{
	"Timestamp", "Transaction Type", "Asset", "Quantity Transacted", "Spot Price Currency",
	"Spot Price at Transaction", "Subtotal", "Total (inclusive of fees and/or spreads)",
	"Fees and/or Spread", "Notes",
}

type record struct {
	Timestamp       string `csv:"Timestamp"`
	TransactionType string `csv:"Transaction Type"`
	Asset           string `csv:"Asset"`
	Quantity        string `csv:"Quantity Transacted"`
	SpotCurrency    string `csv:"Spot Price Currency"`
	SpotPrice       string `csv:"Spot Price at Transaction"`
	Subtotal        string `csv:"Subtotal"`
	Total           string `csv:"Total (inclusive of fees and/or spreads)"`
	Fees            string `csv:"Fees and/or Spread"`
	Notes           string `csv:"Notes"`
}

var types = map[string]sidekick.ActivityType{
	"Buy":                 sidekick.Buy,
	"Advanced Trade Buy":  sidekick.Buy,
	"Sell":                sidekick.Sell,
	"Advanced Trade Sell": sidekick.Sell,
	"Send":                sidekick.Send,
	"Receive":             sidekick.Receive,
	"Convert":             sidekick.Convert,
	"Rewards Income":      sidekick.StakingReward,
	"Staking Income":      sidekick.StakingReward,
	"Inflation Reward":    sidekick.StakingReward,
	"Coinbase Earn":       sidekick.LearningReward,
	"Learning Reward":     sidekick.LearningReward,
	"Deposit":             sidekick.CashDeposit,
	"Withdrawal":          sidekick.CashWithdrawal,
}

// names are the full names of common crypto assets, looked up before their ticker.
var names = map[string]string{
	"ADA":   "Cardano",
	"ALGO":  "Algorand",
	"ATOM":  "Cosmos",
	"BCH":   "Bitcoin Cash",
	"BTC":   "Bitcoin",
	"DOGE":  "Dogecoin",
	"DOT":   "Polkadot",
	"ETH":   "Ethereum",
	"LINK":  "Chainlink",
	"LTC":   "Litecoin",
	"MATIC": "Polygon",
	"SOL":   "Solana",
	"UNI":   "Uniswap",
	"USDC":  "USD Coin",
	"XLM":   "Stellar",
	"XRP":   "XRP",
	"XTZ":   "Tezos",
}

// FullName returns the name of a crypto asset from its ticker, or the ticker itself.
func FullName(ticker string) string {
	if n, ok := names[strings.ToUpper(ticker)]; ok {
		return n
	}
	return ticker
}

var convertRE = regexp.MustCompile(`^Converted ([\d.,]+) (\w+) to ([\d.,]+) (\w+)`)

type line struct {
	typ      sidekick.ActivityType
	date     time.Time
	asset    string
	quantity decimal.Decimal
	price    sidekick.Money
	subtotal sidekick.Money
	fee      sidekick.Money

	// convert target
	toAsset    string
	toQuantity decimal.Decimal
}

// parseNumber parses amounts, possibly prefixed with a currency sign.
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.TrimLeft(strings.TrimSpace(s), "$€£")
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05 MST"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

func parseLine(r record) (line, error) {
	var l line
	var ok bool
	var err error
	if l.typ, ok = types[strings.TrimSpace(r.TransactionType)]; !ok {
		return l, fmt.Errorf("unknown transaction type %q", r.TransactionType)
	}
	if l.date, err = parseTime(r.Timestamp); err != nil {
		return l, err
	}
	cur, err := sidekick.ParseCurrency(r.SpotCurrency)
	if err != nil {
		return l, err
	}
	values := make([]decimal.Decimal, 4)
	for i, s := range []string{r.Quantity, r.SpotPrice, r.Subtotal, r.Fees} {
		if values[i], err = parseNumber(s); err != nil {
			return l, fmt.Errorf("invalid number %q", s)
		}
	}
	l.asset = strings.TrimSpace(r.Asset)
	l.quantity = values[0]
	l.price = sidekick.NewMoney(cur, values[1], l.date)
	l.subtotal = sidekick.NewMoney(cur, values[2], l.date)
	l.fee = sidekick.NewMoney(cur, values[3], l.date)
	if l.typ == sidekick.Convert {
		m := convertRE.FindStringSubmatch(strings.TrimSpace(r.Notes))
		if m == nil {
			return l, fmt.Errorf("invalid conversion notes %q", r.Notes)
		}
		if l.toQuantity, err = parseNumber(m[3]); err != nil {
			return l, err
		}
		l.toAsset = m[4]
	}
	return l, nil
}

func readLines(files []string) ([]line, error) {
	var lines []line
	for _, file := range files {
		got, err := sidekick.ReadHeader(file, ',')
		if err != nil {
			return nil, err
		}
		if !slices.Equal(got, header) {
			return nil, fmt.Errorf("%s: not a Coinbase export", file)
		}
		var records []record
		if err := sidekick.DecodeCSV(file, ',', nil, &records); err != nil {
			return nil, err
		}
		for i, r := range records {
			l, err := parseLine(r)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", file, i+2, err)
			}
			lines = append(lines, l)
		}
	}
	slices.SortStableFunc(lines, func(a, b line) int { return a.date.Compare(b.date) })
	return lines, nil
}

// Importer is the Coinbase sidekick.Importer.
type Importer struct {
	accounts sidekick.AccountLookup
	symbols  sidekick.SymbolFinder
	prices   sidekick.MarketPricer
	log      zerolog.Logger
}

// New returns a Coinbase importer. prices provides the price of rewards
// Coinbase reports at zero.
func New(accounts sidekick.AccountLookup, symbols sidekick.SymbolFinder, prices sidekick.MarketPricer, log zerolog.Logger) *Importer {
	return &Importer{accounts: accounts, symbols: symbols, prices: prices, log: log.With().Str("importer", "coinbase").Logger()}
}

func (*Importer) Name() string { return "Coinbase" }

func (imp *Importer) CanParse(_ context.Context, files []string) bool {
	if len(files) == 0 {
		return false
	}
	if _, err := readLines(files); err != nil {
		imp.log.Debug().Err(err).Msg("cannot parse")
		return false
	}
	return true
}

func (imp *Importer) ConvertActivitiesForAccount(ctx context.Context, accountName string, files []string) (*sidekick.Account, error) {
	account, err := sidekick.LookupAccount(ctx, imp.accounts, accountName)
	if err != nil {
		return nil, err
	}
	lines, err := readLines(files)
	if err != nil {
		return nil, err
	}
	parts := make(map[string]int)
	for _, l := range lines {
		ref := fmt.Sprintf("%s_%s_%s", l.typ, l.date.Format(time.RFC3339), l.asset)
		parts[ref]++
		ref = sidekick.MultipartReference(ref, parts[ref])

		var fees []sidekick.Money
		if !l.fee.IsZero() {
			fees = []sidekick.Money{l.fee.Abs()}
		}
		if l.typ.IsCashOnly() {
			account.AddActivity(sidekick.NewActivity(l.typ, nil, l.date, decimal.NewFromInt(1), cashAmount(l), fees, ref))
			continue
		}
		asset, ok := imp.asset(ctx, l.asset, account.Currency)
		if !ok {
			continue
		}
		price := sidekick.CorrectUnitPrice(ctx, imp.prices, imp.log, l.price, asset, sidekick.DateOf(l.date))

		if l.typ != sidekick.Convert {
			account.AddActivity(sidekick.NewActivity(l.typ, &asset, l.date, l.quantity.Abs(), price, fees, ref))
			continue
		}
		// a conversion sells the source asset and buys the target one
		account.AddActivity(sidekick.NewActivity(sidekick.Sell, &asset, l.date, l.quantity.Abs(), price, fees, sidekick.MultipartReference(ref, 1)))
		target, ok := imp.asset(ctx, l.toAsset, account.Currency)
		if !ok || l.toQuantity.IsZero() {
			continue
		}
		targetPrice := l.subtotal.Abs()
		targetPrice.Amount = targetPrice.Amount.Div(l.toQuantity)
		account.AddActivity(sidekick.NewActivity(sidekick.Buy, &target, l.date, l.toQuantity, targetPrice, nil, sidekick.MultipartReference(ref, 2)))
	}
	return account, nil
}

// cashAmount is the fiat amount of a deposit or withdrawal, in the spot price currency.
func cashAmount(l line) sidekick.Money {
	if !l.subtotal.IsZero() {
		return l.subtotal.Abs()
	}
	if strings.EqualFold(l.asset, string(l.price.Currency)) || l.price.IsZero() {
		return sidekick.NewMoney(l.price.Currency, l.quantity.Abs(), l.date)
	}
	return l.price.Times(l.quantity.Abs())
}

func (imp *Importer) asset(ctx context.Context, ticker string, currency sidekick.Currency) (sidekick.SymbolProfile, bool) {
	p, ok := imp.symbols.FindSymbol(ctx, sidekick.SymbolQuery{
		Identifiers:      []string{FullName(ticker), ticker},
		ExpectedCurrency: currency,
		AssetClasses:     []sidekick.AssetClass{sidekick.Cash, sidekick.AlternativeInvestment},
		AssetSubClasses:  []sidekick.AssetSubClass{sidekick.CryptoCurrency},
	})
	if !ok {
		imp.log.Error().Str("asset", ticker).Msg("unknown crypto asset, skipping activity")
	}
	return p, ok
}

var _ sidekick.Importer = (*Importer)(nil)

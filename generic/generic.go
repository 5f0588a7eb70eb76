// Package generic imports activities written in a broker independent CSV
// layout, for brokers without a dedicated importer.
package generic

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/etnz/sidekick"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

var header = []string{"ActivityType", "Symbol", "Date", "Currency", "Quantity", "UnitPrice", "Fee", "Tax", "Id"}

type record struct {
	ActivityType string `csv:"ActivityType"`
	Symbol       string `csv:"Symbol"`
	Date         string `csv:"Date"`
	Currency     string `csv:"Currency"`
	Quantity     string `csv:"Quantity"`
	UnitPrice    string `csv:"UnitPrice"`
	Fee          string `csv:"Fee"`
	Tax          string `csv:"Tax"`
	ID           string `csv:"Id"`
}

// aliases are accepted activity type names besides the canonical ones.
var aliases = map[string]sidekick.ActivityType{
	"DEPOSIT":    sidekick.CashDeposit,
	"WITHDRAWAL": sidekick.CashWithdrawal,
}

func parseType(s string) (sidekick.ActivityType, error) {
	s = strings.TrimSpace(s)
	if t, ok := aliases[strings.ToUpper(s)]; ok {
		return t, nil
	}
	for t := sidekick.Buy; t <= sidekick.CashWithdrawal; t++ {
		if strings.EqualFold(t.String(), s) {
			return t, nil
		}
	}
	return sidekick.Undefined, fmt.Errorf("unknown activity type %q", s)
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	return time.Parse(sidekick.DateFormat, s)
}

func parseAmount(s string) (decimal.Decimal, error) {
	if strings.TrimSpace(s) == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(strings.TrimSpace(s))
}

// line is a parsed record.
type line struct {
	typ       sidekick.ActivityType
	symbol    string
	date      time.Time
	quantity  decimal.Decimal
	unitPrice sidekick.Money
	fee       sidekick.Money
	tax       sidekick.Money
	id        string
}

func parseLine(r record) (line, error) {
	var l line
	var err error
	if l.typ, err = parseType(r.ActivityType); err != nil {
		return l, err
	}
	if l.date, err = parseDate(r.Date); err != nil {
		return l, fmt.Errorf("invalid date %q", r.Date)
	}
	cur, err := sidekick.ParseCurrency(r.Currency)
	if err != nil {
		return l, err
	}
	values := make([]decimal.Decimal, 4)
	for i, s := range []string{r.Quantity, r.UnitPrice, r.Fee, r.Tax} {
		if values[i], err = parseAmount(s); err != nil {
			return l, fmt.Errorf("invalid number %q", s)
		}
	}
	l.symbol = strings.TrimSpace(r.Symbol)
	if l.symbol == "" && !l.typ.IsCashOnly() && l.typ != sidekick.Interest {
		return l, fmt.Errorf("missing symbol for %v", l.typ)
	}
	l.quantity = values[0]
	l.unitPrice = sidekick.NewMoney(cur, values[1], l.date)
	l.fee = sidekick.NewMoney(cur, values[2], l.date)
	l.tax = sidekick.NewMoney(cur, values[3], l.date)
	l.id = strings.TrimSpace(r.ID)
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
			return nil, fmt.Errorf("%s: unexpected header", file)
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

// Importer is the generic sidekick.Importer.
type Importer struct {
	accounts sidekick.AccountLookup
	symbols  sidekick.SymbolFinder
	log      zerolog.Logger
}

// New returns a generic importer.
func New(accounts sidekick.AccountLookup, symbols sidekick.SymbolFinder, log zerolog.Logger) *Importer {
	return &Importer{accounts: accounts, symbols: symbols, log: log.With().Str("importer", "generic").Logger()}
}

func (*Importer) Name() string { return "Generic" }

func (imp *Importer) CanParse(_ context.Context, files []string) bool {
	if len(files) == 0 {
		return false
	}
	_, err := readLines(files)
	if err != nil {
		imp.log.Debug().Err(err).Msg("cannot parse")
	}
	return err == nil
}

// ConvertActivitiesForAccount implements sidekick.Importer. The balance is
// computed from the cash impact of the activities.
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
		ref := l.id
		if ref == "" {
			ref = l.typ.String() + "_" + l.date.Format("2006-01-02_15:04") + "_" + l.symbol
		}
		parts[ref]++
		ref = sidekick.MultipartReference(ref, parts[ref])
		var fees []sidekick.Money
		if !l.fee.IsZero() {
			fees = append(fees, l.fee.Abs())
		}
		price := l.unitPrice
		if !l.tax.IsZero() {
			if l.typ == sidekick.Dividend && !l.quantity.IsZero() {
				// dividends are booked net of withholding tax
				price.Amount = price.Amount.Sub(l.tax.Amount.Abs().Div(l.quantity))
			} else {
				fees = append(fees, l.tax.Abs())
			}
		}

		var asset *sidekick.SymbolProfile
		if l.symbol != "" && !l.typ.IsCashOnly() {
			p, ok := imp.symbols.FindSymbol(ctx, sidekick.Query(l.symbol, l.unitPrice.Currency))
			if !ok {
				imp.log.Error().Str("account", accountName).Str("symbol", l.symbol).Time("date", l.date).Msg("unknown symbol, skipping activity")
				continue
			}
			asset = &p
		}
		account.AddActivity(sidekick.NewActivity(l.typ, asset, l.date, l.quantity, price, fees, ref))
	}
	return account, nil
}

var _ sidekick.Importer = (*Importer)(nil)

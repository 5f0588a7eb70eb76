// Package degiro imports the account statements exported by DeGiro, in their
// Dutch layout.
package degiro

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"
	_ "time/tzdata" // statements are in Amsterdam time

	"github.com/etnz/sidekick"
	"github.com/shopspring/decimal"
)

// header is the header of a statement. The blank columns hold currencies.
var header = []string{"Datum", "Tijd", "Valutadatum", "Product", "ISIN", "Omschrijving", "FX", "Mutatie", "", "Saldo", "", "Order Id"}

// columns renames header to the record fields.
var columns = []string{"Date", "Time", "CurrencyDate", "Product", "ISIN", "Description", "FX", "MutationCurrency", "Mutation", "BalanceCurrency", "Balance", "OrderID"}

type record struct {
	Date             string `csv:"Date"`
	Time             string `csv:"Time"`
	CurrencyDate     string `csv:"CurrencyDate"`
	Product          string `csv:"Product"`
	ISIN             string `csv:"ISIN"`
	Description      string `csv:"Description"`
	FX               string `csv:"FX"`
	MutationCurrency string `csv:"MutationCurrency"`
	Mutation         string `csv:"Mutation"`
	BalanceCurrency  string `csv:"BalanceCurrency"`
	Balance          string `csv:"Balance"`
	OrderID          string `csv:"OrderID"`
}

var amsterdam = mustLocation("Europe/Amsterdam")

func mustLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

// kind is the meaning of a statement row.
type kind int

const (
	ignored kind = iota
	buy
	sell
	fee
	dividend
	dividendTax
	deposit
	withdrawal
	interest
)

var (
	buyRE  = regexp.MustCompile(`^Koop ([\d.,]+) @ ([\d.,]+) ([A-Za-z]+)`)
	sellRE = regexp.MustCompile(`^Verkoop ([\d.,]+) @ ([\d.,]+) ([A-Za-z]+)`)
)

// kinds maps description prefixes to row kinds, first match wins.
var kinds = []struct {
	prefix string
	kind   kind
}{
	{"DEGIRO Transactiekosten", fee},
	{"Dividendbelasting", dividendTax},
	{"Dividend", dividend},
	{"iDEAL storting", deposit},
	{"iDEAL Deposit", deposit},
	{"Storting", deposit},
	{"Terugstorting", withdrawal},
	{"flatex terugstorting", withdrawal},
	{"Rente", interest},
	{"Flatex Interest", interest},
}

// row is a parsed statement row.
type row struct {
	time        time.Time // UTC
	product     string
	isin        string
	description string
	orderID     string
	kind        kind
	mutation    sidekick.Money // zero when the row moves no cash
	balance     sidekick.Money

	// trade details, for buy and sell rows
	quantity decimal.Decimal
	price    sidekick.Money
}

func parseRow(r record) (row, error) {
	t, err := time.ParseInLocation("02-01-2006 15:04", strings.TrimSpace(r.Date)+" "+strings.TrimSpace(r.Time), amsterdam)
	if err != nil {
		return row{}, fmt.Errorf("invalid date %q %q: %w", r.Date, r.Time, err)
	}
	out := row{
		time:        t.UTC(),
		product:     strings.TrimSpace(r.Product),
		isin:        strings.TrimSpace(r.ISIN),
		description: strings.TrimSpace(r.Description),
		orderID:     strings.TrimSpace(r.OrderID),
	}
	if out.isin != "" {
		if err := sidekick.ValidateISIN(out.isin); err != nil {
			return row{}, fmt.Errorf("ISIN %q: %w", out.isin, err)
		}
	}
	if out.mutation, err = parseMoney(r.Mutation, r.MutationCurrency); err != nil {
		return row{}, fmt.Errorf("mutation: %w", err)
	}
	if out.balance, err = parseMoney(r.Balance, r.BalanceCurrency); err != nil {
		return row{}, fmt.Errorf("balance: %w", err)
	}
	if strings.TrimSpace(r.Balance) == "" {
		return row{}, fmt.Errorf("missing balance")
	}
	out.mutation = out.mutation.At(out.time)
	out.balance = out.balance.At(out.time)

	for _, k := range kinds {
		if strings.HasPrefix(out.description, k.prefix) {
			out.kind = k.kind
			break
		}
	}
	if m := buyRE.FindStringSubmatch(out.description); m != nil {
		out.kind = buy
		err = out.parseTrade(m)
	} else if m := sellRE.FindStringSubmatch(out.description); m != nil {
		out.kind = sell
		err = out.parseTrade(m)
	}
	return out, err
}

func (r *row) parseTrade(m []string) error {
	q, err := parseNumber(m[1])
	if err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	price, err := parseMoney(m[2], m[3])
	if err != nil {
		return fmt.Errorf("price: %w", err)
	}
	r.quantity = q
	r.price = price.At(r.time)
	return nil
}

// parseNumber parses a number with a decimal comma, e.g. "-1.234,56".
func parseNumber(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ".", "")
	return decimal.NewFromString(strings.ReplaceAll(s, ",", "."))
}

// parseMoney parses an amount and its currency. An empty amount is zero.
func parseMoney(amount, currency string) (sidekick.Money, error) {
	if strings.TrimSpace(amount) == "" {
		return sidekick.Money{}, nil
	}
	cur, err := sidekick.ParseCurrency(currency)
	if err != nil {
		return sidekick.Money{}, err
	}
	v, err := parseNumber(amount)
	if err != nil {
		return sidekick.Money{}, err
	}
	return sidekick.M(v, cur), nil
}

// reference returns the reference code of a row without an order id.
func (r row) reference(prefix string) string {
	ref := prefix + "_" + r.time.Format("2006-01-02_15:04")
	if r.isin != "" {
		ref += "_" + r.isin
	}
	return ref
}

// readRows parses every file and returns the rows in chronological order.
// Statements list the newest row first, rows sharing a time keep that order
// reversed.
func readRows(files []string) ([]row, error) {
	var rows []row
	for _, file := range files {
		got, err := sidekick.ReadHeader(file, ',')
		if err != nil {
			return nil, err
		}
		if !slices.Equal(got, header) {
			return nil, fmt.Errorf("%s: not a DeGiro statement", file)
		}
		var records []record
		if err := sidekick.DecodeCSV(file, ',', rename, &records); err != nil {
			return nil, err
		}
		parsed := make([]row, len(records))
		for i, rec := range records {
			r, err := parseRow(rec)
			if err != nil {
				return nil, fmt.Errorf("%s line %d: %w", file, i+2, err)
			}
			parsed[len(records)-1-i] = r
		}
		rows = append(rows, parsed...)
	}
	slices.SortStableFunc(rows, func(a, b row) int { return a.time.Compare(b.time) })
	return rows, nil
}

func rename(h []string) []string {
	if slices.Equal(h, header) {
		return slices.Clone(columns)
	}
	return h
}

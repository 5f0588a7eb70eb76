package sidekick

import (
	"fmt"
	"strings"
	"time"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// Precision is the number of fractional digits amounts are rounded to before
// they are compared or persisted.
const Precision = 10

// Currency is the code of a currency, compared by symbol.
type Currency string

// Well-known currencies.
const (
	EUR Currency = "EUR"
	USD Currency = "USD"
	GBP Currency = "GBP"
)

// subunit describes a minor unit quoted as a currency on its own (e.g. British pence).
type subunit struct {
	major  Currency
	factor int64 // number of minor units in one major unit
}

var subunits = map[Currency]subunit{
	"GBp": {GBP, 100},
	"GBX": {GBP, 100},
	"ZAc": {"ZAR", 100},
	"ILA": {"ILS", 100},
}

// ParseCurrency parses a currency code. The code must be a known ISO-4217 code or
// one of the minor unit codes (GBp, GBX, ZAc, ILA).
func ParseCurrency(code string) (Currency, error) {
	code = strings.TrimSpace(code)
	if _, ok := subunits[Currency(code)]; ok {
		return Currency(code), nil
	}
	upper := strings.ToUpper(code)
	if money.GetCurrency(upper) == nil {
		return "", fmt.Errorf("unknown currency %q", code)
	}
	return Currency(upper), nil
}

// MustCurrency is like ParseCurrency but panics on error.
func MustCurrency(code string) Currency {
	c, err := ParseCurrency(code)
	if err != nil {
		panic(err.Error())
	}
	return c
}

func (c Currency) String() string { return string(c) }

// Major returns the currency c is a minor unit of, and the number of c in one of
// it. For regular currencies it returns c and 1.
func (c Currency) Major() (Currency, decimal.Decimal) {
	if s, ok := subunits[c]; ok {
		return s.major, decimal.NewFromInt(s.factor)
	}
	return c, decimal.NewFromInt(1)
}

// newDecimal is a convenient factory for decimal.Decimal
func newDecimal[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T) decimal.Decimal {
	switch v := any(value).(type) {
	case decimal.Decimal:
		return v
	case float32:
		return decimal.NewFromFloat32(v)
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int32:
		return decimal.NewFromInt32(v)
	case int64:
		return decimal.NewFromInt(v)
	default:
		panic("unsupported type")
	}
}

// Money is a currency-tagged decimal amount, recorded at a given time.
//
// Money is a value type: every operation returns a new value.
type Money struct {
	Currency     Currency
	Amount       decimal.Decimal
	TimeOfRecord time.Time
}

// M returns a money value with no time of record.
func M[T float32 | float64 | int | int32 | int64 | decimal.Decimal](value T, currency Currency) Money {
	return Money{Currency: currency, Amount: newDecimal(value)}
}

// NewMoney returns a money value recorded at a given time.
func NewMoney(currency Currency, amount decimal.Decimal, at time.Time) Money {
	return Money{Currency: currency, Amount: amount, TimeOfRecord: at}
}

// At returns a copy of m recorded at t.
func (m Money) At(t time.Time) Money {
	m.TimeOfRecord = t
	return m
}

// Round returns m with its amount rounded to Precision digits.
func (m Money) Round() Money {
	m.Amount = m.Amount.Round(Precision)
	return m
}

// Equal reports whether m and n have the same currency and the same amount once
// rounded to Precision digits. The time of record is not compared.
func (m Money) Equal(n Money) bool {
	return m.Currency == n.Currency && m.Amount.Round(Precision).Equal(n.Amount.Round(Precision))
}

func (m Money) IsZero() bool     { return m.Amount.IsZero() }
func (m Money) IsNegative() bool { return m.Amount.IsNegative() }

// Neg returns the opposite of m.
func (m Money) Neg() Money {
	m.Amount = m.Amount.Neg()
	return m
}

// Abs returns m with a non-negative amount.
func (m Money) Abs() Money {
	m.Amount = m.Amount.Abs()
	return m
}

// Times returns m multiplied by a quantity.
func (m Money) Times(q decimal.Decimal) Money {
	m.Amount = m.Amount.Mul(q)
	return m
}

// binary operators, the latest time of record wins.
func (m Money) Add(n Money) Money {
	return Money{Currency: cur(m, n), Amount: m.Amount.Add(n.Amount), TimeOfRecord: latest(m.TimeOfRecord, n.TimeOfRecord)}
}
func (m Money) Sub(n Money) Money { return m.Add(n.Neg()) }

// makes the "" currency totally weak.
func cur(A, B Money) Currency {
	if A.Currency == "" {
		return B.Currency
	}
	if B.Currency == "" {
		return A.Currency
	}
	if A.Currency != B.Currency {
		panic("currency mismatch " + string(A.Currency) + "!=" + string(B.Currency))
	}
	return A.Currency
}

func latest(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

// String returns the amount formatted for its currency.
func (m Money) String() string {
	c := money.GetCurrency(string(m.Currency))
	if c == nil {
		return m.Amount.String() + " " + string(m.Currency)
	}
	dec := m.Amount.Round(int32(c.Fraction)).Shift(int32(c.Fraction))
	return c.Formatter().Format(dec.IntPart())
}

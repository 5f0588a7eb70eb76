package sidekick

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderType is the type of an activity as the remote ledger knows it.
type OrderType string

// Order types of the remote ledger.
const (
	OrderBuy       OrderType = "BUY"
	OrderSell      OrderType = "SELL"
	OrderDividend  OrderType = "DIVIDEND"
	OrderInterest  OrderType = "INTEREST"
	OrderFee       OrderType = "FEE"
	OrderItem      OrderType = "ITEM"
	OrderLiability OrderType = "LIABILITY"
	OrderIgnore    OrderType = "IGNORE"
)

// InterestSymbol is the symbol interest orders are booked under.
const InterestSymbol = "Interest"

// Order is an activity in the remote ledger representation: amounts are plain
// decimals in the order currency and fees are summed.
type Order struct {
	ID            string // remote identifier, empty for local orders
	AccountID     string
	Type          OrderType
	Symbol        string
	DataSource    string
	Currency      Currency
	Date          time.Time
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Fee           decimal.Decimal
	Comment       string
	ReferenceCode string // set on local orders only, remote ones carry it in Comment
}

// Rounded returns o with quantity, unit price and fee rounded to Precision digits.
func (o Order) Rounded() Order {
	o.Quantity = o.Quantity.Round(Precision)
	o.UnitPrice = o.UnitPrice.Round(Precision)
	o.Fee = o.Fee.Round(Precision)
	return o
}

// IsEmpty reports whether both the unit price and the quantity are zero.
func (o Order) IsEmpty() bool { return o.UnitPrice.IsZero() && o.Quantity.IsZero() }

// IsBuyOrSell reports whether o changes a position at a known price.
func (o Order) IsBuyOrSell() bool { return o.Type == OrderBuy || o.Type == OrderSell }

package sidekick

import (
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// ActivityType is the kind of a canonical activity.
type ActivityType int

// Activity types.
const (
	Undefined ActivityType = iota
	Buy
	Sell
	Dividend
	Send
	Receive
	Interest
	Gift
	LearningReward
	StakingReward
	Convert
	CashDeposit
	CashWithdrawal
)

var activityTypeNames = []string{
	Undefined:      "Undefined",
	Buy:            "Buy",
	Sell:           "Sell",
	Dividend:       "Dividend",
	Send:           "Send",
	Receive:        "Receive",
	Interest:       "Interest",
	Gift:           "Gift",
	LearningReward: "LearningReward",
	StakingReward:  "StakingReward",
	Convert:        "Convert",
	CashDeposit:    "CashDeposit",
	CashWithdrawal: "CashWithdrawal",
}

func (t ActivityType) String() string {
	if t < 0 || int(t) >= len(activityTypeNames) {
		return "ActivityType(" + strconv.Itoa(int(t)) + ")"
	}
	return activityTypeNames[t]
}

// ParseActivityType parses the name of an activity type, as returned by String.
func ParseActivityType(s string) (ActivityType, error) {
	if i := slices.Index(activityTypeNames, s); i > 0 {
		return ActivityType(i), nil
	}
	return Undefined, fmt.Errorf("unknown activity type %q", s)
}

// IsCashOnly reports whether activities of that type never involve an asset.
func (t ActivityType) IsCashOnly() bool { return t == CashDeposit || t == CashWithdrawal }

// Activity is one logical transaction in the canonical model.
//
// Activities are values: they are never modified once built, reconciliation
// produces new values instead.
type Activity struct {
	Type          ActivityType
	Asset         *SymbolProfile // nil for cash-only activities
	Date          time.Time
	Quantity      decimal.Decimal
	UnitPrice     Money
	Fees          []Money
	Comment       string
	ReferenceCode string // stable identity of the transaction, unique within an account
}

// NewActivity returns an activity whose comment carries its reference code.
func NewActivity(typ ActivityType, asset *SymbolProfile, date time.Time, quantity decimal.Decimal, unitPrice Money, fees []Money, referenceCode string) Activity {
	a := Activity{
		Type:          typ,
		Asset:         asset,
		Date:          date,
		Quantity:      quantity,
		UnitPrice:     unitPrice,
		Fees:          slices.Clone(fees),
		ReferenceCode: referenceCode,
	}
	a.Comment = a.ReferenceComment()
	return a
}

// ReferenceComment renders the free-text comment the remote ledger stores, from
// which the reference code is extracted on the next run.
func (a Activity) ReferenceComment() string {
	details := ""
	if a.Asset != nil {
		id := a.Asset.ISIN
		if id == "" {
			id = a.Asset.Symbol
		}
		details = " (Details: asset " + id + ")"
	}
	return referencePrefix + a.ReferenceCode + referenceSuffix + details
}

// Total returns quantity times unit price.
func (a Activity) Total() Money { return a.UnitPrice.Times(a.Quantity) }

// CashImpact returns the signed cash movements of the activity, in their own
// currencies: the principal first, then every fee as a debit.
func (a Activity) CashImpact() []Money {
	var principal Money
	switch a.Type {
	case Buy:
		principal = a.Total().Neg()
	case Sell, Dividend, Interest, CashDeposit:
		principal = a.Total()
	case CashWithdrawal:
		principal = a.Total().Neg()
	}
	impact := make([]Money, 0, len(a.Fees)+1)
	if !principal.IsZero() {
		impact = append(impact, principal.At(a.Date))
	}
	for _, fee := range a.Fees {
		impact = append(impact, fee.Neg().At(a.Date))
	}
	return impact
}

// MultipartReference returns the reference code of a part of a transaction
// reported over several rows: the base for the first part, then "base 2", "base 3"...
func MultipartReference(base string, part int) string {
	if part <= 1 {
		return base
	}
	return base + " " + strconv.Itoa(part)
}

package sidekick

import (
	"context"
	"slices"
	"time"
)

// PriceConverter converts money into another currency at a given day.
//
// Conversions never fail: an implementation degrades to a rate of 1 when no
// exchange rate can be found.
type PriceConverter interface {
	ConvertedPrice(ctx context.Context, m Money, target Currency, day Date) Money
}

// Balance is the cash position of an account, in the account currency.
type Balance struct {
	currency Currency
	entries  []Money
}

// EmptyBalance returns a zero balance in currency.
func EmptyBalance(currency Currency) Balance { return Balance{currency: currency} }

// Currency returns the balance currency.
func (b Balance) Currency() Currency { return b.currency }

// Record returns b with m added. m can be in any currency.
func (b Balance) Record(m ...Money) Balance {
	b.entries = append(slices.Clone(b.entries), m...)
	return b
}

// SetKnown returns a balance equal to a value reported by the broker, discarding
// previous entries.
func (b Balance) SetKnown(m Money) Balance {
	b.entries = []Money{m}
	return b
}

// Current resolves the balance to a single amount in the balance currency. Its
// time of record is the latest entry's, or now for an empty balance.
func (b Balance) Current(ctx context.Context, converter PriceConverter) Money {
	total := Money{Currency: b.currency}
	if len(b.entries) == 0 {
		return total.At(time.Now().UTC())
	}
	for _, e := range b.entries {
		if e.Currency != b.currency {
			e = converter.ConvertedPrice(ctx, e, b.currency, DateOf(e.TimeOfRecord)).At(e.TimeOfRecord)
		}
		total = total.Add(e)
	}
	return total
}

// Account is the unit of reconciliation: all the activities imported for one
// remote account.
type Account struct {
	ID         string // remote identifier, empty until known
	Name       string
	Currency   Currency
	Comment    string
	PlatformID string
	Balance    Balance
	Activities []Activity
}

// NewAccount returns an account with an empty balance in currency.
func NewAccount(id, name string, currency Currency) *Account {
	return &Account{ID: id, Name: name, Currency: currency, Balance: EmptyBalance(currency)}
}

// AddActivity appends activities to the account and records their cash impact
// in the balance.
func (a *Account) AddActivity(activities ...Activity) {
	for _, act := range activities {
		a.Activities = append(a.Activities, act)
		a.Balance = a.Balance.Record(act.CashImpact()...)
	}
}

// ReferenceCollisions returns the reference codes shared by more than one activity.
func (a *Account) ReferenceCollisions() []string {
	seen := make(map[string]int)
	var collisions []string
	for _, act := range a.Activities {
		seen[act.ReferenceCode]++
		if seen[act.ReferenceCode] == 2 {
			collisions = append(collisions, act.ReferenceCode)
		}
	}
	return collisions
}

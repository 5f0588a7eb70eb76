package sidekick

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Reference codes travel to the remote ledger inside the order comment.
const (
	referencePrefix = "Transaction Reference: ["
	referenceSuffix = "]"
)

var referenceRE = regexp.MustCompile(`Transaction Reference: \[(.*?)\]`)

// ExtractReference returns the reference code embedded in a remote order comment.
func ExtractReference(comment string) (string, bool) {
	m := referenceRE.FindStringSubmatch(comment)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Operation is the action needed to bring the remote ledger in line with a local order.
type Operation int

// Operations, in the order they are applied.
const (
	New Operation = iota
	Duplicate
	Updated
	Removed
)

func (o Operation) String() string {
	switch o {
	case New:
		return "New"
	case Duplicate:
		return "Duplicate"
	case Updated:
		return "Updated"
	case Removed:
		return "Removed"
	}
	return fmt.Sprintf("Operation(%d)", int(o))
}

// Mutation is one planned change. Local is nil for Removed, Remote is nil for New.
type Mutation struct {
	Operation Operation
	Local     *Order
	Remote    *Order
}

// Plan computes the mutations turning remote into local. Both sides are
// rounded to Precision digits first. Remote orders are matched on the
// reference code in their comment, each at most once; those left unmatched are
// Removed.
func Plan(local, remote []Order) []Mutation {
	type candidate struct {
		order   Order
		matched bool
	}
	byRef := make(map[string][]*candidate)
	remotes := make([]*candidate, len(remote))
	for i, o := range remote {
		c := &candidate{order: o.Rounded()}
		remotes[i] = c
		key, ok := ExtractReference(o.Comment)
		if !ok {
			// never matches a local order
			key = uuid.NewString()
		}
		byRef[key] = append(byRef[key], c)
	}

	var plan []Mutation
	for _, o := range local {
		l := o.Rounded()
		var match *candidate
		if l.ReferenceCode != "" {
			for _, c := range byRef[l.ReferenceCode] {
				if !c.matched {
					match = c
					break
				}
			}
		}
		if match == nil {
			plan = append(plan, Mutation{Operation: New, Local: &l})
			continue
		}
		match.matched = true
		r := match.order
		op := Updated
		if Equivalent(l, r) {
			op = Duplicate
		}
		plan = append(plan, Mutation{Operation: op, Local: &l, Remote: &r})
	}
	for _, c := range remotes {
		if !c.matched {
			r := c.order
			plan = append(plan, Mutation{Operation: Removed, Remote: &r})
		}
	}
	slices.SortStableFunc(plan, func(a, b Mutation) int { return int(a.Operation) - int(b.Operation) })
	return plan
}

// Equivalent reports whether a and b describe the same activity. The symbol of
// interest orders is not compared, they are booked on a manual symbol.
func Equivalent(a, b Order) bool {
	return (a.Symbol == b.Symbol || a.Type == OrderInterest) &&
		a.Quantity.Equal(b.Quantity) &&
		a.UnitPrice.Equal(b.UnitPrice) &&
		a.Fee.Equal(b.Fee) &&
		a.Type == b.Type &&
		a.Date.Equal(b.Date)
}

var orderTypes = map[ActivityType]OrderType{
	Buy:            OrderBuy,
	Receive:        OrderBuy,
	Gift:           OrderBuy,
	LearningReward: OrderBuy,
	StakingReward:  OrderBuy,
	Sell:           OrderSell,
	Send:           OrderSell,
	Dividend:       OrderDividend,
	Interest:       OrderInterest,
}

// OrderTypeOf returns the remote order type of an activity type. Activities
// without a remote counterpart map to OrderIgnore.
func OrderTypeOf(t ActivityType) OrderType {
	if ot, ok := orderTypes[t]; ok {
		return ot
	}
	return OrderIgnore
}

// Mapper converts canonical activities into remote orders.
type Mapper struct {
	Converter PriceConverter
}

// ToOrder returns the order of activity a in account, and false when the
// activity has no remote counterpart. Amounts are expressed in the asset
// currency.
func (m Mapper) ToOrder(ctx context.Context, account *Account, a Activity) (Order, bool) {
	typ := OrderTypeOf(a.Type)
	if typ == OrderIgnore {
		return Order{}, false
	}
	o := Order{
		AccountID:     account.ID,
		Type:          typ,
		Date:          a.Date,
		Quantity:      a.Quantity,
		Comment:       a.ReferenceComment(),
		ReferenceCode: a.ReferenceCode,
	}
	currency := a.UnitPrice.Currency
	switch {
	case typ == OrderInterest:
		o.Symbol = InterestSymbol
		o.DataSource = DataSourceManual
	case a.Asset != nil:
		o.Symbol = a.Asset.Symbol
		o.DataSource = a.Asset.DataSource
		if a.Asset.Currency != "" {
			currency = a.Asset.Currency
		}
	default:
		return Order{}, false
	}
	day := DateOf(a.Date)
	o.Currency = currency
	o.UnitPrice = m.Converter.ConvertedPrice(ctx, a.UnitPrice, currency, day).Amount
	fee := decimal.Zero
	for _, f := range a.Fees {
		fee = fee.Add(m.Converter.ConvertedPrice(ctx, f, currency, day).Amount)
	}
	o.Fee = fee
	return o, true
}

// Failure is a mutation the remote ledger rejected.
type Failure struct {
	Mutation Mutation
	Err      error
}

// Report summarizes one account synchronization.
type Report struct {
	Account        string
	BalanceUpdated bool
	Counts         map[Operation]int
	Failures       []Failure
}

// Reconciler makes the remote ledger converge to the local activities.
type Reconciler struct {
	accounts  AccountStore
	orders    OrderStore
	converter PriceConverter
	log       zerolog.Logger
}

// NewReconciler returns a reconciler writing to accounts and orders.
func NewReconciler(accounts AccountStore, orders OrderStore, converter PriceConverter, log zerolog.Logger) *Reconciler {
	return &Reconciler{
		accounts:  accounts,
		orders:    orders,
		converter: converter,
		log:       log.With().Str("component", "reconcile").Logger(),
	}
}

// PlanAccount returns the mutations needed to synchronize account, without applying them.
func (r *Reconciler) PlanAccount(ctx context.Context, account *Account) (RemoteAccount, []Mutation, error) {
	remote, err := r.accounts.AccountByName(ctx, account.Name)
	if err != nil {
		return RemoteAccount{}, nil, fmt.Errorf("account %q: %w", account.Name, err)
	}
	if collisions := account.ReferenceCollisions(); len(collisions) > 0 {
		r.log.Error().Str("account", account.Name).Strs("references", collisions).Msg("several activities share a reference code")
	}
	bound := *account
	bound.ID = remote.ID

	mapper := Mapper{Converter: r.converter}
	local := make([]Order, 0, len(account.Activities))
	for _, a := range account.Activities {
		if o, ok := mapper.ToOrder(ctx, &bound, a); ok {
			local = append(local, o)
		}
	}
	existing, err := r.orders.Orders(ctx, remote.ID)
	if err != nil {
		return remote, nil, fmt.Errorf("orders of account %q: %w", account.Name, err)
	}
	return remote, Plan(local, existing), nil
}

// Sync updates the remote balance and orders of account. Failed mutations are
// logged and reported, they do not stop the synchronization.
func (r *Reconciler) Sync(ctx context.Context, account *Account) (Report, error) {
	report := Report{Account: account.Name, Counts: make(map[Operation]int)}
	remote, plan, err := r.PlanAccount(ctx, account)
	if err != nil {
		return report, err
	}
	log := r.log.With().Str("account", account.Name).Logger()

	balance := account.Balance.Current(ctx, r.converter)
	if balance.Currency != remote.Currency && remote.Currency != "" {
		balance = r.converter.ConvertedPrice(ctx, balance, remote.Currency, DateOf(balance.TimeOfRecord))
	}
	if !balance.Amount.Round(Precision).Equal(remote.Balance.Round(Precision)) {
		if err := r.accounts.UpdateBalance(ctx, remote.ID, balance); err != nil {
			log.Error().Err(err).Stringer("balance", balance).Msg("could not update balance")
		} else {
			report.BalanceUpdated = true
		}
	}

	for _, m := range plan {
		report.Counts[m.Operation]++
		if err := r.apply(ctx, m); err != nil {
			log.Error().Err(err).Stringer("operation", m.Operation).Msg("mutation failed, skipping")
			report.Failures = append(report.Failures, Failure{Mutation: m, Err: err})
		}
	}
	log.Info().
		Int("new", report.Counts[New]).
		Int("duplicate", report.Counts[Duplicate]).
		Int("updated", report.Counts[Updated]).
		Int("removed", report.Counts[Removed]).
		Int("failed", len(report.Failures)).
		Msg("account synchronized")
	return report, nil
}

func (r *Reconciler) apply(ctx context.Context, m Mutation) error {
	switch m.Operation {
	case New:
		return r.create(ctx, *m.Local)
	case Duplicate:
		return nil
	case Updated:
		if err := r.orders.DeleteOrder(ctx, *m.Remote); err != nil {
			return err
		}
		return r.create(ctx, *m.Local)
	case Removed:
		return r.orders.DeleteOrder(ctx, *m.Remote)
	}
	return fmt.Errorf("unknown operation %v", m.Operation)
}

func (r *Reconciler) create(ctx context.Context, o Order) error {
	switch {
	case o.IsEmpty():
		r.log.Debug().Str("symbol", o.Symbol).Time("date", o.Date).Str("type", string(o.Type)).Msg("writing an empty order")
	case o.Type == OrderIgnore:
		r.log.Debug().Str("symbol", o.Symbol).Time("date", o.Date).Msg("writing an ignored order")
	}
	err := r.orders.CreateOrder(ctx, o)
	if errors.Is(err, ErrDuplicate) {
		r.log.Debug().Str("symbol", o.Symbol).Time("date", o.Date).Msg("duplicate order")
		return nil
	}
	return err
}

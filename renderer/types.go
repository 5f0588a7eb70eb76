package renderer

import (
	"sort"
	"strings"

	"github.com/etnz/sidekick"
)

const dateFormat = "2006-01-02"

// Count is the number of mutations of one operation.
type Count struct {
	Operation string
	Count     int
}

// Row is one order of a plan.
type Row struct {
	Operation string
	Date      string
	Type      string
	Symbol    string
	Quantity  string
	UnitPrice string
	Fee       string
	Currency  string
	Reference string
}

// Plan is the view of the mutations planned for an account.
type Plan struct {
	Account string
	Balance string
	Counts  []Count
	Rows    []Row
}

var operations = []sidekick.Operation{sidekick.New, sidekick.Duplicate, sidekick.Updated, sidekick.Removed}

// NewPlan builds the view of mutations. Duplicates are counted but not listed
// unless all is set.
func NewPlan(account string, balance sidekick.Money, mutations []sidekick.Mutation, all bool) *Plan {
	p := &Plan{Account: account, Balance: balance.String()}
	counts := make(map[sidekick.Operation]int)
	for _, m := range mutations {
		counts[m.Operation]++
		if m.Operation == sidekick.Duplicate && !all {
			continue
		}
		p.Rows = append(p.Rows, newRow(m))
	}
	for _, op := range operations {
		p.Counts = append(p.Counts, Count{Operation: op.String(), Count: counts[op]})
	}
	return p
}

func newRow(m sidekick.Mutation) Row {
	o := m.Local
	ref := ""
	if o != nil {
		ref = o.ReferenceCode
	} else {
		o = m.Remote
		ref, _ = sidekick.ExtractReference(o.Comment)
	}
	return Row{
		Operation: m.Operation.String(),
		Date:      o.Date.UTC().Format(dateFormat),
		Type:      string(o.Type),
		Symbol:    o.Symbol,
		Quantity:  o.Quantity.String(),
		UnitPrice: o.UnitPrice.String(),
		Fee:       o.Fee.String(),
		Currency:  string(o.Currency),
		Reference: ref,
	}
}

// ActivityRow is one converted activity.
type ActivityRow struct {
	Date      string
	Type      string
	Asset     string
	Quantity  string
	UnitPrice string
	Fees      string
	Reference string
}

// Activities is the view of an account as converted from its files.
type Activities struct {
	Account string
	Balance string
	Rows    []ActivityRow
}

// NewActivities builds the view of account, activities sorted by date.
func NewActivities(account *sidekick.Account, balance sidekick.Money) *Activities {
	acts := make([]sidekick.Activity, len(account.Activities))
	copy(acts, account.Activities)
	sort.SliceStable(acts, func(i, j int) bool { return acts[i].Date.Before(acts[j].Date) })

	v := &Activities{Account: account.Name, Balance: balance.String()}
	for _, a := range acts {
		asset := ""
		if a.Asset != nil {
			asset = a.Asset.Symbol
		}
		fees := make([]string, len(a.Fees))
		for i, f := range a.Fees {
			fees[i] = f.String()
		}
		v.Rows = append(v.Rows, ActivityRow{
			Date:      a.Date.UTC().Format(dateFormat),
			Type:      a.Type.String(),
			Asset:     asset,
			Quantity:  a.Quantity.String(),
			UnitPrice: a.UnitPrice.String(),
			Fees:      strings.Join(fees, ", "),
			Reference: a.ReferenceCode,
		})
	}
	return v
}

// SyncRow is the outcome of one account synchronization.
type SyncRow struct {
	Account        string
	BalanceUpdated bool
	New            int
	Duplicate      int
	Updated        int
	Removed        int
	Failures       []string
}

// Sync is the view of a synchronization run.
type Sync struct {
	Rows []SyncRow
}

// NewSync builds the view of reports, sorted by account name.
func NewSync(reports []sidekick.Report) *Sync {
	s := &Sync{}
	for _, r := range reports {
		row := SyncRow{
			Account:        r.Account,
			BalanceUpdated: r.BalanceUpdated,
			New:            r.Counts[sidekick.New],
			Duplicate:      r.Counts[sidekick.Duplicate],
			Updated:        r.Counts[sidekick.Updated],
			Removed:        r.Counts[sidekick.Removed],
		}
		for _, f := range r.Failures {
			row.Failures = append(row.Failures, f.Mutation.Operation.String()+": "+f.Err.Error())
		}
		s.Rows = append(s.Rows, row)
	}
	sort.Slice(s.Rows, func(i, j int) bool { return s.Rows[i].Account < s.Rows[j].Account })
	return s
}

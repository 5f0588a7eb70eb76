package renderer

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/etnz/sidekick"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// document is the structure of a rendered markdown document.
type document struct {
	headings  []string
	listItems int
	rows      [][]string // body rows of every table, cell texts
}

func parseMarkdown(t *testing.T, md string) document {
	t.Helper()
	src := []byte(md)
	root := goldmark.New(goldmark.WithExtensions(extension.Table)).Parser().Parse(text.NewReader(src))

	var doc document
	err := ast.Walk(root, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n := n.(type) {
		case *ast.Heading:
			doc.headings = append(doc.headings, inlineText(n, src))
		case *ast.ListItem:
			doc.listItems++
		case *east.TableRow:
			var cells []string
			for c := n.FirstChild(); c != nil; c = c.NextSibling() {
				cells = append(cells, inlineText(c, src))
			}
			doc.rows = append(doc.rows, cells)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	require.NoError(t, err)
	return doc
}

// inlineText concatenates the text and code spans below n.
func inlineText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if t, ok := c.(*ast.Text); ok && entering {
			b.Write(t.Segment.Value(src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func order(typ sidekick.OrderType, symbol string, qty, price float64, ref string) *sidekick.Order {
	return &sidekick.Order{
		Type:          typ,
		Symbol:        symbol,
		Currency:      sidekick.EUR,
		Date:          time.Date(2023, 12, 29, 18, 47, 0, 0, time.UTC),
		Quantity:      decimal.NewFromFloat(qty),
		UnitPrice:     decimal.NewFromFloat(price),
		Fee:           decimal.Zero,
		ReferenceCode: ref,
	}
}

func TestRenderPlan(t *testing.T) {
	removed := order(sidekick.OrderBuy, "ASML.AS", 2, 600, "")
	removed.Comment = "Transaction Reference: [Buy_old] (Details: asset NL0010273215)"
	mutations := []sidekick.Mutation{
		{Operation: sidekick.New, Local: order(sidekick.OrderBuy, "VWRL.AS", 1, 77.3, "Buy_2023-12-29_18:47_IE00B3RBWM25")},
		{Operation: sidekick.Duplicate, Local: order(sidekick.OrderDividend, "VWRL.AS", 1, 0.5, "Dividend_x")},
		{Operation: sidekick.Removed, Remote: removed},
	}

	md := RenderPlan(NewPlan("DeGiro", sidekick.M(21.7, sidekick.EUR), mutations, false))
	doc := parseMarkdown(t, md)

	assert.Equal(t, []string{"Plan for DeGiro"}, doc.headings)
	assert.Equal(t, 4, doc.listItems, "one count per operation")
	require.Len(t, doc.rows, 2, "duplicates are not listed:\n%s", md)
	assert.Equal(t, "New", doc.rows[0][0])
	assert.Equal(t, "2023-12-29", doc.rows[0][1])
	assert.Equal(t, "77.3", doc.rows[0][5])
	assert.Equal(t, "Buy_2023-12-29_18:47_IE00B3RBWM25", doc.rows[0][8])
	assert.Equal(t, "Removed", doc.rows[1][0])
	assert.Equal(t, "Buy_old", doc.rows[1][8])
	assert.Contains(t, md, "- Duplicate: 1")
}

func TestRenderPlan_Empty(t *testing.T) {
	md := RenderPlan(NewPlan("Cash", sidekick.M(0, sidekick.EUR), nil, false))
	assert.Contains(t, md, "Nothing to change.")
	assert.Empty(t, parseMarkdown(t, md).rows)
}

func TestRenderActivities(t *testing.T) {
	account := sidekick.NewAccount("", "DeGiro", sidekick.EUR)
	asset := &sidekick.SymbolProfile{Symbol: "VWRL.AS", ISIN: "IE00B3RBWM25", Currency: sidekick.EUR}
	day := time.Date(2023, 12, 29, 18, 47, 0, 0, time.UTC)
	account.AddActivity(
		sidekick.NewActivity(sidekick.Buy, asset, day, decimal.NewFromInt(1), sidekick.M(77.3, sidekick.EUR), []sidekick.Money{sidekick.M(1, sidekick.EUR)}, "b"),
		sidekick.NewActivity(sidekick.CashDeposit, nil, day.AddDate(0, 0, -1), decimal.NewFromInt(1), sidekick.M(100, sidekick.EUR), nil, "d"),
	)

	doc := parseMarkdown(t, RenderActivities(NewActivities(account, sidekick.M(21.7, sidekick.EUR))))
	assert.Equal(t, []string{"Activities of DeGiro"}, doc.headings)
	require.Len(t, doc.rows, 2)
	assert.Equal(t, "CashDeposit", doc.rows[0][1], "sorted by date")
	assert.Equal(t, "VWRL.AS", doc.rows[1][2])
	assert.Equal(t, "b", doc.rows[1][6])
}

func TestRenderSync(t *testing.T) {
	reports := []sidekick.Report{
		{Account: "Generic", Counts: map[sidekick.Operation]int{sidekick.Duplicate: 3}},
		{
			Account:        "DeGiro",
			BalanceUpdated: true,
			Counts:         map[sidekick.Operation]int{sidekick.New: 2, sidekick.Removed: 1},
			Failures:       []sidekick.Failure{{Mutation: sidekick.Mutation{Operation: sidekick.New}, Err: errors.New("rejected")}},
		},
	}

	md := RenderSync(NewSync(reports))
	doc := parseMarkdown(t, md)
	assert.Equal(t, []string{"Synchronization", "Failures of DeGiro"}, doc.headings)
	require.Len(t, doc.rows, 2)
	assert.Equal(t, []string{"DeGiro", "updated", "2", "0", "0", "1"}, doc.rows[0])
	assert.Equal(t, []string{"Generic", "unchanged", "0", "3", "0", "0"}, doc.rows[1])
	assert.Equal(t, 1, doc.listItems)
	assert.Contains(t, md, "- New: rejected")
}

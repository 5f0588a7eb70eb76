package ghostfolio

import (
	"encoding/json"
	"time"

	"github.com/etnz/sidekick"
	"github.com/shopspring/decimal"
)

// JSON documents of the Ghostfolio API.

type account struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Currency   string          `json:"currency"`
	Balance    decimal.Decimal `json:"balance"`
	Comment    string          `json:"comment"`
	PlatformID string          `json:"platformId"`
	IsExcluded bool            `json:"isExcluded"`
}

type accountList struct {
	Accounts []account `json:"accounts"`
}

type platform struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type symbolProfile struct {
	Symbol          string            `json:"symbol"`
	ISIN            string            `json:"isin"`
	Name            string            `json:"name"`
	Currency        string            `json:"currency"`
	AssetClass      string            `json:"assetClass"`
	AssetSubClass   string            `json:"assetSubClass"`
	DataSource      string            `json:"dataSource"`
	Comment         string            `json:"comment"`
	ActivitiesCount int               `json:"activitiesCount"`
	SymbolMapping   map[string]string `json:"symbolMapping"`
}

type activity struct {
	ID            string          `json:"id"`
	AccountID     string          `json:"accountId"`
	Type          string          `json:"type"`
	Date          time.Time       `json:"date"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`
	Fee           decimal.Decimal `json:"fee"`
	Comment       string          `json:"comment"`
	SymbolProfile symbolProfile   `json:"SymbolProfile"`
}

type activityList struct {
	Activities []activity `json:"activities"`
}

type marketPoint struct {
	Date        time.Time       `json:"date"`
	MarketPrice decimal.Decimal `json:"marketPrice"`
}

type marketData struct {
	AssetProfile symbolProfile `json:"assetProfile"`
	MarketData   []marketPoint `json:"marketData"`
}

type marketOverview struct {
	MarketData []symbolProfile `json:"marketData"`
}

type lookup struct {
	Items []symbolProfile `json:"items"`
}

// orderBody is the document creating an order. Numbers are sent as JSON numbers.
type orderBody struct {
	AccountID  string      `json:"accountId"`
	Comment    string      `json:"comment"`
	Currency   string      `json:"currency"`
	DataSource string      `json:"dataSource"`
	Date       string      `json:"date"`
	Fee        json.Number `json:"fee"`
	Quantity   json.Number `json:"quantity"`
	Symbol     string      `json:"symbol"`
	Type       string      `json:"type"`
	UnitPrice  json.Number `json:"unitPrice"`
}

// trackInsight is the symbol mapping key of TrackInsight identifiers.
const trackInsight = "TRACKINSIGHT"

func number(d decimal.Decimal) json.Number { return json.Number(d.String()) }

func (p symbolProfile) model() sidekick.SymbolProfile {
	// unknown enum values are kept out of the model, the remote is not validated
	class, _ := sidekick.ParseAssetClass(p.AssetClass)
	subClass, _ := sidekick.ParseAssetSubClass(p.AssetSubClass)
	cur, err := sidekick.ParseCurrency(p.Currency)
	if err != nil {
		cur = sidekick.Currency(p.Currency)
	}
	return sidekick.SymbolProfile{
		Symbol:          p.Symbol,
		ISIN:            p.ISIN,
		Name:            p.Name,
		Currency:        cur,
		AssetClass:      class,
		AssetSubClass:   subClass,
		DataSource:      p.DataSource,
		Identifiers:     sidekick.ParseIdentifiers(p.Comment),
		Mappings:        sidekick.Mappings{TrackInsight: p.SymbolMapping[trackInsight]},
		ActivitiesCount: p.ActivitiesCount,
		Comment:         p.Comment,
	}
}

func (a account) model() sidekick.RemoteAccount {
	return sidekick.RemoteAccount{
		ID:         a.ID,
		Name:       a.Name,
		Currency:   sidekick.Currency(a.Currency),
		Balance:    a.Balance,
		Comment:    a.Comment,
		PlatformID: a.PlatformID,
		IsExcluded: a.IsExcluded,
	}
}

func (a activity) model() sidekick.Order {
	return sidekick.Order{
		ID:         a.ID,
		AccountID:  a.AccountID,
		Type:       sidekick.OrderType(a.Type),
		Symbol:     a.SymbolProfile.Symbol,
		DataSource: a.SymbolProfile.DataSource,
		Currency:   sidekick.Currency(a.SymbolProfile.Currency),
		Date:       a.Date,
		Quantity:   a.Quantity,
		UnitPrice:  a.UnitPrice,
		Fee:        a.Fee,
		Comment:    a.Comment,
	}
}

func newOrderBody(o sidekick.Order) orderBody {
	return orderBody{
		AccountID:  o.AccountID,
		Comment:    o.Comment,
		Currency:   string(o.Currency),
		DataSource: o.DataSource,
		Date:       o.Date.UTC().Format(time.RFC3339),
		Fee:        number(o.Fee),
		Quantity:   number(o.Quantity),
		Symbol:     o.Symbol,
		Type:       string(o.Type),
		UnitPrice:  number(o.UnitPrice),
	}
}

package ghostfolio

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/etnz/sidekick"
	"github.com/shopspring/decimal"
)

const (
	accountsPath = "/api/v1/account"
	platformPath = "/api/v1/platform"
	ordersPath   = "/api/v1/order"
	marketPath   = "/api/v1/admin/market-data/"
	profilePath  = "/api/v1/admin/profile-data/"
	infoPath     = "/api/v1/info/"
)

// duplicateMarkers are the responses of an order creation the server treated
// as a duplicate.
var duplicateMarkers = []string{"is a duplicate activity"}

const emptyImport = `{"activities":[]}`

func symbolPath(base, dataSource, symbol string) string {
	return base + url.PathEscape(dataSource) + "/" + url.PathEscape(symbol)
}

// --- Accounts ---

func (c *Client) accounts(ctx context.Context) ([]account, error) {
	var list accountList
	if err := c.get(ctx, accountsPath, sidekick.ExpiryShort, &list); err != nil {
		return nil, err
	}
	return list.Accounts, nil
}

func (c *Client) AccountByName(ctx context.Context, name string) (sidekick.RemoteAccount, error) {
	accounts, err := c.accounts(ctx)
	if err != nil {
		return sidekick.RemoteAccount{}, err
	}
	for _, a := range accounts {
		if strings.EqualFold(a.Name, name) {
			return a.model(), nil
		}
	}
	return sidekick.RemoteAccount{}, fmt.Errorf("account %q: %w", name, sidekick.ErrNotFound)
}

func (c *Client) CreateAccount(ctx context.Context, a sidekick.RemoteAccount) error {
	body := map[string]any{
		"name":       a.Name,
		"currency":   string(a.Currency),
		"comment":    a.Comment,
		"platformId": nil,
		"isExcluded": false,
		"balance":    0,
	}
	if a.PlatformID != "" {
		body["platformId"] = a.PlatformID
	}
	if _, err := c.send(ctx, "POST", accountsPath+"/", body); err != nil {
		return err
	}
	c.invalidate(accountsPath)
	c.log.Info().Str("account", a.Name).Msg("created account")
	return nil
}

// UpdateBalance sets the cash balance of an account. The balance currency must
// be the account's.
func (c *Client) UpdateBalance(ctx context.Context, accountID string, balance sidekick.Money) error {
	accounts, err := c.accounts(ctx)
	if err != nil {
		return err
	}
	i := slices.IndexFunc(accounts, func(a account) bool { return strings.EqualFold(a.ID, accountID) })
	if i < 0 {
		return fmt.Errorf("account %s: %w", accountID, sidekick.ErrNotFound)
	}
	a := accounts[i]
	body := map[string]any{
		"balance":    number(balance.Amount),
		"comment":    a.Comment,
		"currency":   a.Currency,
		"id":         a.ID,
		"isExcluded": a.IsExcluded,
		"name":       a.Name,
		"platformId": nil,
	}
	if a.PlatformID != "" {
		body["platformId"] = a.PlatformID
	}
	if _, err := c.send(ctx, "PUT", accountsPath+"/"+url.PathEscape(a.ID), body); err != nil {
		return err
	}
	c.invalidate(accountsPath)
	c.log.Info().Str("account", a.Name).Stringer("balance", balance).Msg("updated balance")
	return nil
}

func (c *Client) PlatformByName(ctx context.Context, name string) (sidekick.Platform, error) {
	var platforms []platform
	if err := c.get(ctx, platformPath, sidekick.ExpiryNone, &platforms); err != nil {
		return sidekick.Platform{}, err
	}
	for _, p := range platforms {
		if strings.EqualFold(p.Name, name) {
			return sidekick.Platform{ID: p.ID, Name: p.Name, URL: p.URL}, nil
		}
	}
	return sidekick.Platform{}, fmt.Errorf("platform %q: %w", name, sidekick.ErrNotFound)
}

func (c *Client) CreatePlatform(ctx context.Context, p sidekick.Platform) error {
	if _, err := c.send(ctx, "POST", platformPath+"/", map[string]string{"name": p.Name, "url": p.URL}); err != nil {
		return err
	}
	c.log.Info().Str("platform", p.Name).Msg("created platform")
	return nil
}

// --- Orders ---

func (c *Client) orders(ctx context.Context, path string) ([]sidekick.Order, error) {
	var list activityList
	if err := c.get(ctx, path, sidekick.ExpiryNone, &list); err != nil {
		return nil, err
	}
	orders := make([]sidekick.Order, len(list.Activities))
	for i, a := range list.Activities {
		orders[i] = a.model()
	}
	return orders, nil
}

func (c *Client) Orders(ctx context.Context, accountID string) ([]sidekick.Order, error) {
	return c.orders(ctx, ordersPath+"?accounts="+url.QueryEscape(accountID))
}

func (c *Client) AllOrders(ctx context.Context) ([]sidekick.Order, error) {
	return c.orders(ctx, ordersPath)
}

// CreateOrder creates an order. The server reports duplicates either with an
// error message or with an empty list of created activities; both are
// returned as sidekick.ErrDuplicate.
func (c *Client) CreateOrder(ctx context.Context, o sidekick.Order) error {
	status, content, err := c.do(ctx, "POST", ordersPath, newOrderBody(o))
	if err != nil {
		return err
	}
	if string(bytes.TrimSpace(content)) == emptyImport || (status/100 != 2 && containsAny(string(content), duplicateMarkers)) {
		return fmt.Errorf("order %s %s %v: %w", o.Type, o.Symbol, o.Date, sidekick.ErrDuplicate)
	}
	if status/100 != 2 {
		return fmt.Errorf("cannot create order %s %s %v: %d %s: %w", o.Type, o.Symbol, o.Date, status, strings.TrimSpace(string(content)), sidekick.ErrRemoteOperation)
	}
	c.log.Info().Str("type", string(o.Type)).Str("symbol", o.Symbol).Time("date", o.Date).Stringer("quantity", o.Quantity).Msg("created order")
	return nil
}

func (c *Client) DeleteOrder(ctx context.Context, o sidekick.Order) error {
	if _, err := c.send(ctx, "DELETE", ordersPath+"/"+url.PathEscape(o.ID), nil); err != nil {
		return err
	}
	c.log.Info().Str("id", o.ID).Str("symbol", o.Symbol).Time("date", o.Date).Msg("deleted order")
	return nil
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// --- Market data ---

// benchmarks returns the symbols the instance uses as benchmarks.
func (c *Client) benchmarks(ctx context.Context) ([]string, error) {
	var info any
	if err := c.get(ctx, infoPath, sidekick.ExpiryShort, &info); err != nil {
		return nil, err
	}
	v, err := jsonpath.Get("$.benchmarks[*].symbol", info)
	if err != nil {
		// an instance without benchmarks has no such field
		return nil, nil
	}
	var symbols []string
	list, _ := v.([]any)
	for _, s := range list {
		if s, ok := s.(string); ok {
			symbols = append(symbols, s)
		}
	}
	return symbols, nil
}

func (c *Client) MarketData(ctx context.Context) ([]sidekick.MarketData, error) {
	var overview marketOverview
	if err := c.get(ctx, marketPath, sidekick.ExpiryShort, &overview); err != nil {
		return nil, err
	}
	benchmarks, err := c.benchmarks(ctx)
	if err != nil {
		return nil, err
	}
	var data []sidekick.MarketData
	for _, p := range overview.MarketData {
		if slices.Contains(benchmarks, p.Symbol) {
			continue
		}
		md, err := c.MarketDataFor(ctx, p.DataSource, p.Symbol)
		if err != nil {
			return nil, err
		}
		md.Profile.ActivitiesCount = p.ActivitiesCount
		data = append(data, md)
	}
	return data, nil
}

func (c *Client) MarketDataFor(ctx context.Context, dataSource, symbol string) (sidekick.MarketData, error) {
	var md marketData
	if err := c.get(ctx, symbolPath(marketPath, dataSource, symbol), sidekick.ExpiryShort, &md); err != nil {
		return sidekick.MarketData{}, err
	}
	if md.AssetProfile.Symbol == "" {
		return sidekick.MarketData{}, fmt.Errorf("%s/%s: %w", dataSource, symbol, sidekick.ErrNotFound)
	}
	out := sidekick.MarketData{Profile: md.AssetProfile.model()}
	for _, p := range md.MarketData {
		out.Prices = append(out.Prices, sidekick.MarketPrice{Date: sidekick.DateOf(p.Date.UTC()), Price: p.MarketPrice})
	}
	return out, nil
}

func (c *Client) SetMarketPrice(ctx context.Context, profile sidekick.SymbolProfile, price sidekick.Money) error {
	day := sidekick.DateOf(price.TimeOfRecord.UTC())
	path := symbolPath(marketPath, profile.DataSource, profile.Symbol)
	if _, err := c.send(ctx, "PUT", path+"/"+day.String(), map[string]any{"marketPrice": number(price.Amount)}); err != nil {
		return err
	}
	c.invalidate(path)
	c.log.Info().Str("symbol", profile.Symbol).Stringer("date", day).Stringer("price", price.Amount).Msg("set market price")
	return nil
}

func (c *Client) Gather(ctx context.Context) error {
	if _, err := c.send(ctx, "POST", "/api/v1/admin/gather/max/", map[string]any{}); err != nil {
		return err
	}
	c.log.Info().Msg("gathering requested")
	return nil
}

// --- Symbols ---

func (c *Client) LookupSymbol(ctx context.Context, query string) ([]sidekick.SymbolProfile, error) {
	var res lookup
	if err := c.get(ctx, "/api/v1/symbol/lookup?query="+url.QueryEscape(strings.TrimSpace(query)), sidekick.ExpiryNone, &res); err != nil {
		return nil, err
	}
	profiles := make([]sidekick.SymbolProfile, len(res.Items))
	for i, p := range res.Items {
		profiles[i] = p.model()
	}
	return profiles, nil
}

// CreateManualSymbol creates a profile, then sets the fields the server
// ignores on creation.
func (c *Client) CreateManualSymbol(ctx context.Context, p sidekick.SymbolProfile) error {
	path := symbolPath(profilePath, p.DataSource, p.Symbol)
	create := map[string]any{
		"symbol":        p.Symbol,
		"isin":          p.ISIN,
		"name":          p.Name,
		"assetClass":    string(p.AssetClass),
		"assetSubClass": string(p.AssetSubClass),
		"currency":      string(p.Currency),
		"datasource":    p.DataSource,
	}
	if _, err := c.send(ctx, "POST", path, create); err != nil {
		return err
	}
	update := map[string]any{
		"name":                 p.Name,
		"assetClass":           string(p.AssetClass),
		"assetSubClass":        string(p.AssetSubClass),
		"comment":              "",
		"scraperConfiguration": map[string]any{},
		"symbolMapping":        map[string]any{},
	}
	if _, err := c.send(ctx, "PATCH", path, update); err != nil {
		return fmt.Errorf("updating created symbol %s: %w", p.Symbol, err)
	}
	c.invalidate(marketPath)
	c.log.Info().Str("symbol", p.Symbol).Msg("created symbol")
	return nil
}

// UpdateSymbolProfile writes the comment and the third party mappings of p.
func (c *Client) UpdateSymbolProfile(ctx context.Context, p sidekick.SymbolProfile) error {
	mapping := map[string]string{}
	if p.Mappings.TrackInsight != "" {
		mapping[trackInsight] = p.Mappings.TrackInsight
	}
	body := map[string]any{"comment": p.Comment, "symbolMapping": mapping}
	if _, err := c.send(ctx, "PATCH", symbolPath(profilePath, p.DataSource, p.Symbol), body); err != nil {
		return err
	}
	c.invalidate(marketPath, symbolPath(marketPath, p.DataSource, p.Symbol))
	c.log.Info().Str("symbol", p.Symbol).Msg("updated symbol")
	return nil
}

func (c *Client) DeleteSymbol(ctx context.Context, p sidekick.SymbolProfile) error {
	if _, err := c.send(ctx, "DELETE", symbolPath(profilePath, p.DataSource, p.Symbol), nil); err != nil {
		return err
	}
	c.invalidate(marketPath, symbolPath(marketPath, p.DataSource, p.Symbol))
	c.log.Info().Str("symbol", p.Symbol).Msg("deleted symbol")
	return nil
}

// --- Exchange rates ---

// ExchangeRate returns the rate of the pair on day, as known by the instance.
func (c *Client) ExchangeRate(ctx context.Context, from, to sidekick.Currency, day sidekick.Date) (decimal.Decimal, error) {
	var doc any
	path := fmt.Sprintf("/api/v1/exchange-rate/%s-%s/%s", from, to, day)
	if err := c.get(ctx, path, sidekick.ExpiryNone, &doc); err != nil {
		return decimal.Zero, err
	}
	v, err := jsonpath.Get("$.marketPrice", doc)
	if err != nil {
		return decimal.Zero, fmt.Errorf("rate %s-%s on %s: %w", from, to, day, sidekick.ErrNotFound)
	}
	var rate decimal.Decimal
	switch v := v.(type) {
	case float64:
		rate = decimal.NewFromFloat(v)
	case json.Number:
		rate, err = decimal.NewFromString(v.String())
	case string:
		rate, err = decimal.NewFromString(v)
	default:
		err = errors.New("not a number")
	}
	if err != nil || !rate.IsPositive() {
		return decimal.Zero, fmt.Errorf("rate %s-%s on %s: %v: %w", from, to, day, v, sidekick.ErrNotFound)
	}
	return rate, nil
}

var _ sidekick.Ledger = (*Client)(nil)

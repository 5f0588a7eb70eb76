package ghostfolio

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/etnz/sidekick"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer serves canned responses by "METHOD path", and records request bodies.
type fakeServer struct {
	t         *testing.T
	mu        sync.Mutex
	responses map[string]response
	bodies    map[string][]string
	hits      map[string]int
	authCount int
}

type response struct {
	status int
	body   string
}

func newFakeServer(t *testing.T) (*fakeServer, *Client) {
	f := &fakeServer{t: t, responses: make(map[string]response), bodies: make(map[string][]string), hits: make(map[string]int)}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	c := New(srv.URL, "secret", sidekick.NewMemoryCache(), zerolog.Nop()).WithHTTPClient(srv.Client())
	return f, c
}

func (f *fakeServer) on(method, path string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[method+" "+path] = response{status, body}
}

func (f *fakeServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := io.ReadAll(r.Body)
	if r.URL.Path == "/api/v1/auth/anonymous" {
		f.authCount++
		var req map[string]string
		if err := json.Unmarshal(body, &req); err != nil || req["accessToken"] != "secret" {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		_, _ = w.Write([]byte(`{"authToken":"jwt"}`))
		return
	}
	if r.Header.Get("Authorization") != "Bearer jwt" {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	key := r.Method + " " + r.URL.RequestURI()
	f.hits[key]++
	f.bodies[key] = append(f.bodies[key], string(body))
	resp, ok := f.responses[key]
	if !ok {
		w.WriteHeader(http.StatusNotFound)
		return
	}
	w.WriteHeader(resp.status)
	_, _ = w.Write([]byte(resp.body))
}

func TestAccountByName(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("GET", "/api/v1/account", 200, `{"accounts":[{"id":"a1","name":"DeGiro","currency":"EUR","balance":12.5,"comment":null,"platformId":"p1","isExcluded":false}]}`)

	a, err := c.AccountByName(context.Background(), "degiro")
	require.NoError(t, err)
	assert.Equal(t, "a1", a.ID)
	assert.Equal(t, sidekick.EUR, a.Currency)
	assert.True(t, a.Balance.Equal(decimal.RequireFromString("12.5")))

	_, err = c.AccountByName(context.Background(), "Other")
	assert.True(t, errors.Is(err, sidekick.ErrNotFound), "got %v", err)

	// the listing is cached, and authentication happens once
	assert.Equal(t, 1, f.hits["GET /api/v1/account"])
	assert.Equal(t, 1, f.authCount)
}

func TestCreateOrder(t *testing.T) {
	f, c := newFakeServer(t)
	o := sidekick.Order{
		AccountID:  "a1",
		Type:       sidekick.OrderBuy,
		Symbol:     "VWRL.AS",
		DataSource: "YAHOO",
		Currency:   sidekick.EUR,
		Date:       time.Date(2023, 7, 6, 9, 39, 0, 0, time.UTC),
		Quantity:   decimal.NewFromInt(1),
		UnitPrice:  decimal.RequireFromString("77.3"),
		Fee:        decimal.NewFromInt(1),
		Comment:    "Transaction Reference: [b7ab] (Details: asset IE00B3XXRP09)",
	}

	f.on("POST", "/api/v1/order", 201, `{"id":"o1"}`)
	require.NoError(t, c.CreateOrder(context.Background(), o))
	var body map[string]any
	require.NoError(t, json.Unmarshal([]byte(f.bodies["POST /api/v1/order"][0]), &body))
	assert.Equal(t, 77.3, body["unitPrice"], "amounts are sent as JSON numbers")
	assert.Equal(t, "2023-07-06T09:39:00Z", body["date"])
	assert.Equal(t, "BUY", body["type"])

	f.on("POST", "/api/v1/order", 400, `{"message":["activities.1 is a duplicate activity"]}`)
	err := c.CreateOrder(context.Background(), o)
	assert.True(t, errors.Is(err, sidekick.ErrDuplicate), "got %v", err)

	f.on("POST", "/api/v1/order", 201, `{"activities":[]}`)
	err = c.CreateOrder(context.Background(), o)
	assert.True(t, errors.Is(err, sidekick.ErrDuplicate), "got %v", err)

	f.on("POST", "/api/v1/order", 500, `boom`)
	err = c.CreateOrder(context.Background(), o)
	assert.True(t, errors.Is(err, sidekick.ErrRemoteOperation), "got %v", err)
}

func TestOrders(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("GET", "/api/v1/order?accounts=a1", 200, `{"activities":[{"id":"o1","accountId":"a1","type":"SELL","date":"2023-07-06T09:39:00.000Z","quantity":2,"unitPrice":10.5,"fee":0,"comment":"Transaction Reference: [x]","SymbolProfile":{"symbol":"AAPL","dataSource":"YAHOO","currency":"USD"}}]}`)

	orders, err := c.Orders(context.Background(), "a1")
	require.NoError(t, err)
	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, sidekick.OrderSell, o.Type)
	assert.Equal(t, "AAPL", o.Symbol)
	assert.Equal(t, sidekick.USD, o.Currency)
	assert.True(t, o.UnitPrice.Equal(decimal.RequireFromString("10.5")))
	ref, ok := sidekick.ExtractReference(o.Comment)
	assert.True(t, ok)
	assert.Equal(t, "x", ref)
}

func TestMarketDataSkipsBenchmarks(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("GET", "/api/v1/admin/market-data/", 200, `{"marketData":[{"symbol":"AAPL","dataSource":"YAHOO","activitiesCount":3},{"symbol":"^GSPC","dataSource":"YAHOO","activitiesCount":0}]}`)
	f.on("GET", "/api/v1/info/", 200, `{"benchmarks":[{"symbol":"^GSPC","dataSource":"YAHOO"}]}`)
	f.on("GET", "/api/v1/admin/market-data/YAHOO/AAPL", 200, `{"assetProfile":{"symbol":"AAPL","dataSource":"YAHOO","currency":"USD","assetClass":"EQUITY","comment":"Known Identifiers: [US0378331005,Apple]","symbolMapping":{"TRACKINSIGHT":"AAPL-TI"}},"marketData":[{"date":"2024-01-02T00:00:00.000Z","marketPrice":185.64}]}`)

	data, err := c.MarketData(context.Background())
	require.NoError(t, err)
	require.Len(t, data, 1)
	p := data[0].Profile
	assert.Equal(t, 3, p.ActivitiesCount)
	assert.Equal(t, sidekick.Equity, p.AssetClass)
	assert.Equal(t, []string{"US0378331005", "Apple"}, p.Identifiers)
	assert.Equal(t, "AAPL-TI", p.Mappings.TrackInsight)
	price, ok := data[0].PriceOn(sidekick.NewDate(2024, 1, 2))
	assert.True(t, ok)
	assert.True(t, price.Equal(decimal.RequireFromString("185.64")))
}

func TestExchangeRate(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("GET", "/api/v1/exchange-rate/USD-EUR/2024-01-02", 200, `{"marketPrice":0.91}`)
	f.on("GET", "/api/v1/exchange-rate/EUR-JPY/2024-01-02", 200, `{"marketPrice":0}`)

	rate, err := c.ExchangeRate(context.Background(), sidekick.USD, sidekick.EUR, sidekick.NewDate(2024, 1, 2))
	require.NoError(t, err)
	assert.True(t, rate.Equal(decimal.RequireFromString("0.91")))

	_, err = c.ExchangeRate(context.Background(), sidekick.EUR, "JPY", sidekick.NewDate(2024, 1, 2))
	assert.True(t, errors.Is(err, sidekick.ErrNotFound), "zero rate is no rate, got %v", err)

	_, err = c.ExchangeRate(context.Background(), sidekick.EUR, sidekick.GBP, sidekick.NewDate(2024, 1, 2))
	assert.True(t, errors.Is(err, sidekick.ErrNotFound), "got %v", err)
}

func TestTokenRenewal(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("GET", "/api/v1/platform", 200, `[{"id":"p1","name":"DeGiro","url":"https://degiro.nl"}]`)
	c.authToken = "expired"

	p, err := c.PlatformByName(context.Background(), "DeGiro")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, 1, f.authCount)
}

func TestUpdateSymbolProfile(t *testing.T) {
	f, c := newFakeServer(t)
	f.on("PATCH", "/api/v1/admin/profile-data/MANUAL/GOLD", 200, `{}`)
	p := sidekick.SymbolProfile{Symbol: "GOLD", DataSource: sidekick.DataSourceManual}.AddIdentifier("XAU")
	p.Mappings.TrackInsight = "GLD"
	require.NoError(t, c.UpdateSymbolProfile(context.Background(), p))

	body := f.bodies["PATCH /api/v1/admin/profile-data/MANUAL/GOLD"][0]
	assert.True(t, strings.Contains(body, `"comment":"Known Identifiers: [XAU]"`), body)
	assert.True(t, strings.Contains(body, `"TRACKINSIGHT":"GLD"`), body)
}

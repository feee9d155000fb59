package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cs2-arbitrage/internal/config"
	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/monitor"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	name      string
	quotes    []market.Quote
	seeds     []market.ItemSeed
	searchErr error
	feeRate   float64
	available bool
}

func (f *fakeSource) Name() string    { return f.name }
func (f *fakeSource) BaseURL() string { return "https://" + f.name + ".test" }

func (f *fakeSource) SearchItem(itemName, weapon string) ([]market.Quote, error) {
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.quotes, nil
}

func (f *fakeSource) PopularItems(limit int) ([]market.ItemSeed, error) {
	if len(f.seeds) > limit {
		return f.seeds[:limit], nil
	}
	return f.seeds, nil
}

func (f *fakeSource) FeeFor(price float64) float64 { return price * f.feeRate }
func (f *fakeSource) IsAvailable() bool            { return f.available }

func quoteAt(marketplace string, price float64) market.Quote {
	return market.Quote{
		Marketplace: marketplace,
		Price:       price,
		Currency:    "USD",
		Available:   true,
		Condition:   "Field-Tested",
		Timestamp:   time.Now().UTC(),
	}
}

// newTestRouter builds a stateless engine over the given sources and mounts
// the API under /api/v1, mirroring the production wiring.
func newTestRouter(sources ...market.Marketplace) *gin.Engine {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		UpdateInterval:     time.Hour,
		MinProfitThreshold: 5.0,
		MinSpread:          1.0,
		ItemLimit:          100,
		QuoteWindow:        10 * time.Minute,
	}
	engine := monitor.New(cfg, sources, nil)

	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), engine)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var resp map[string]interface{}
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet" {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	}
	return w, resp
}

func TestHandlersRejectWithoutEngine(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	SetupRoutes(r.Group("/api/v1"), nil)

	for _, path := range []string{
		"/api/v1/items/AK-47/prices",
		"/api/v1/opportunities",
		"/api/v1/marketplaces",
		"/api/v1/stats",
	} {
		w, resp := doJSON(t, r, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusServiceUnavailable, w.Code, path)
		assert.Equal(t, "price monitor not initialized", resp["error"], path)
	}
}

func TestGetItemPrices(t *testing.T) {
	r := newTestRouter(
		&fakeSource{name: "CSFloat", quotes: []market.Quote{quoteAt("CSFloat", 10)}, available: true},
		&fakeSource{name: "Steam", quotes: []market.Quote{quoteAt("Steam", 16)}, available: true},
	)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/items/AK-47%20%7C%20Redline/prices?weapon=AK-47", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "AK-47 | Redline", resp["item_name"])
	assert.EqualValues(t, 2, resp["total_marketplaces"])

	prices, ok := resp["prices"].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, prices, "CSFloat")
	assert.Contains(t, prices, "Steam")
}

func TestGetItemPricesNoListings(t *testing.T) {
	r := newTestRouter(&fakeSource{name: "CSFloat", available: true})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/items/Nonexistent/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, resp["total_marketplaces"])
}

func TestSearchItemsGroupsVariants(t *testing.T) {
	ft := quoteAt("CSFloat", 12)
	ftCheaper := quoteAt("CSFloat", 10)
	mw := quoteAt("Steam", 20)
	mw.Condition = "Minimal Wear"

	r := newTestRouter(&fakeSource{name: "CSFloat", quotes: []market.Quote{ft, ftCheaper, mw}, available: true})

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/search", gin.H{"query": "AK-47 | Redline"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp["total_results"], "one variant per condition")

	results, ok := resp["results"].([]interface{})
	require.True(t, ok)
	first, ok := results[0].(map[string]interface{})
	require.True(t, ok)
	// Cheapest variant listed first, lowest price per marketplace kept.
	assert.EqualValues(t, 10, first["min_price"])
}

func TestSearchItemsRequiresQuery(t *testing.T) {
	r := newTestRouter(&fakeSource{name: "CSFloat", available: true})
	w, _ := doJSON(t, r, http.MethodPost, "/api/v1/search", gin.H{"weapon": "AK-47"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComparePrices(t *testing.T) {
	r := newTestRouter(
		&fakeSource{name: "CSFloat", quotes: []market.Quote{quoteAt("CSFloat", 10)}, available: true},
		&fakeSource{name: "Steam", quotes: []market.Quote{quoteAt("Steam", 16)}, feeRate: 0.15, available: true},
	)

	w, resp := doJSON(t, r, http.MethodPost, "/api/v1/compare-prices", gin.H{"weapon": "AK-47", "skin": "Redline"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 10, resp["lowest_price"])
	assert.EqualValues(t, 16, resp["highest_price"])

	opps, ok := resp["arbitrage_opportunities"].([]interface{})
	require.True(t, ok)
	require.Len(t, opps, 1)
	opp := opps[0].(map[string]interface{})
	assert.Equal(t, "CSFloat", opp["buy_marketplace"])
	assert.Equal(t, "Steam", opp["sell_marketplace"])
}

func TestGetOpportunitiesStatelessScanWithBandFilter(t *testing.T) {
	r := newTestRouter(
		&fakeSource{name: "CSFloat", quotes: []market.Quote{quoteAt("CSFloat", 10)}, available: true},
		&fakeSource{name: "Steam", quotes: []market.Quote{quoteAt("Steam", 16)}, available: true},
	)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/opportunities?item=Redline&weapon=AK-47", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["total"])

	// 60% profit falls outside a 5-50% band.
	w, resp = doJSON(t, r, http.MethodGet, "/api/v1/opportunities?item=Redline&weapon=AK-47&max_profit=50", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, resp["total"])
}

func TestGetOpportunitiesWithoutLedgerIsEmpty(t *testing.T) {
	r := newTestRouter(&fakeSource{name: "CSFloat", available: true})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/opportunities", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 0, resp["total"])
}

func TestExportOpportunitiesWithoutLedger(t *testing.T) {
	r := newTestRouter(&fakeSource{name: "CSFloat", available: true})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/opportunities/export", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "no ledger attached", resp["error"])
}

func TestGetMarketplaceStatus(t *testing.T) {
	r := newTestRouter(
		&fakeSource{name: "CSFloat", available: true},
		&fakeSource{name: "Steam", available: false},
	)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/marketplaces", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp["total_marketplaces"])
	assert.EqualValues(t, 1, resp["available_marketplaces"])
}

func TestGetPopularItems(t *testing.T) {
	r := newTestRouter(
		&fakeSource{
			name:      "CSFloat",
			seeds:     []market.ItemSeed{{Name: "AK-47 | Redline (Field-Tested)"}, {Name: "AWP | Asiimov (Field-Tested)"}},
			available: true,
		},
		&fakeSource{
			name:      "Steam",
			seeds:     []market.ItemSeed{{Name: "AK-47 | Redline (Field-Tested)"}},
			available: true,
		},
	)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/popular-items", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 2, resp["total"], "duplicates collapse by name")
}

func TestGetStatistics(t *testing.T) {
	r := newTestRouter(&fakeSource{name: "CSFloat", available: true})

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["total_marketplaces"])
	assert.Equal(t, false, resp["monitoring"])
	assert.NotContains(t, resp, "items", "no ledger record counts in stateless mode")
}

func TestSearchSurvivesFailingSource(t *testing.T) {
	r := newTestRouter(
		&fakeSource{name: "CSFloat", searchErr: errors.New("rate limited"), available: true},
		&fakeSource{name: "Steam", quotes: []market.Quote{quoteAt("Steam", 16)}, available: true},
	)

	w, resp := doJSON(t, r, http.MethodGet, "/api/v1/items/Redline/prices", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, resp["total_marketplaces"])
}

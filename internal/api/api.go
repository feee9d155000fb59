package api

import (
	"net/http"
	"strconv"
	"time"

	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/monitor"
	"cs2-arbitrage/internal/report"
	"cs2-arbitrage/internal/store"

	"github.com/gin-gonic/gin"
)

type APIHandler struct {
	engine *monitor.Monitor
}

// SetupRoutes wires the query surface. The engine is injected explicitly;
// handlers answer 503 until one is attached.
func SetupRoutes(r *gin.RouterGroup, engine *monitor.Monitor) *APIHandler {
	handler := &APIHandler{engine: engine}

	r.GET("/items/:name/prices", handler.GetItemPrices)
	r.POST("/search", handler.SearchItems)
	r.POST("/compare-prices", handler.ComparePrices)

	r.GET("/opportunities", handler.GetOpportunities)
	r.GET("/opportunities/export", handler.ExportOpportunities)

	r.GET("/marketplaces", handler.GetMarketplaceStatus)
	r.GET("/popular-items", handler.GetPopularItems)
	r.GET("/stats", handler.GetStatistics)

	return handler
}

// ready answers 503 and reports false while no engine is attached.
func (h *APIHandler) ready(c *gin.Context) bool {
	if h.engine == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "price monitor not initialized"})
		return false
	}
	return true
}

// GetItemPrices returns current quotes for one item, grouped by marketplace.
// An item nobody lists yields an empty group set, not an error.
func (h *APIHandler) GetItemPrices(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	itemName := c.Param("name")
	weapon := c.Query("weapon")

	quotes := h.engine.SearchItem(itemName, weapon)

	grouped := make(map[string][]gin.H)
	for _, q := range quotes {
		grouped[q.Marketplace] = append(grouped[q.Marketplace], quoteJSON(q))
	}

	c.JSON(http.StatusOK, gin.H{
		"item_name":          itemName,
		"weapon":             weapon,
		"prices":             grouped,
		"total_marketplaces": len(grouped),
	})
}

func quoteJSON(q market.Quote) gin.H {
	return gin.H{
		"price":     q.Price,
		"currency":  q.Currency,
		"condition": q.Condition,
		"stattrak":  q.StatTrak,
		"souvenir":  q.Souvenir,
		"url":       q.URL,
		"timestamp": q.Timestamp.Format(time.RFC3339),
	}
}

// GetOpportunities returns arbitrage opportunities, filtered to a profit
// percentage band. With an ?item= parameter it runs a live stateless scan of
// that item; without one it reads the ledger's active rows.
func (h *APIHandler) GetOpportunities(c *gin.Context) {
	if !h.ready(c) {
		return
	}

	minProfit := queryFloat(c, "min_profit", 0.0)
	maxProfit := queryFloat(c, "max_profit", 1000.0)
	limit := queryInt(c, "limit", 50)

	if itemName := c.Query("item"); itemName != "" {
		weapon := c.Query("weapon")
		all := h.engine.FindOpportunities(itemName, weapon)

		filtered := make([]monitor.Candidate, 0, len(all))
		for _, opp := range all {
			if opp.ProfitPercentage >= minProfit && opp.ProfitPercentage <= maxProfit {
				filtered = append(filtered, opp)
			}
		}
		if len(filtered) > limit {
			filtered = filtered[:limit]
		}

		c.JSON(http.StatusOK, gin.H{
			"opportunities":     filtered,
			"total":             len(filtered),
			"min_profit_filter": minProfit,
			"max_profit_filter": maxProfit,
		})
		return
	}

	ledger := h.engine.Ledger()
	if ledger == nil {
		c.JSON(http.StatusOK, gin.H{
			"opportunities":     []monitor.Candidate{},
			"total":             0,
			"min_profit_filter": minProfit,
			"max_profit_filter": maxProfit,
		})
		return
	}

	opportunities, err := ledger.ActiveOpportunities(store.OpportunityFilter{
		MinProfitPct: minProfit,
		MaxProfitPct: maxProfit,
		Limit:        limit,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"opportunities":     opportunities,
		"total":             len(opportunities),
		"min_profit_filter": minProfit,
		"max_profit_filter": maxProfit,
	})
}

// ExportOpportunities streams the ledger's active opportunities as an xlsx
// workbook.
func (h *APIHandler) ExportOpportunities(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	ledger := h.engine.Ledger()
	if ledger == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "no ledger attached"})
		return
	}

	opportunities, err := ledger.ActiveOpportunities(store.OpportunityFilter{
		MaxProfitPct: 1000.0,
		Limit:        queryInt(c, "limit", 500),
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	workbook, err := report.OpportunityWorkbook(opportunities)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.Header("Content-Disposition", `attachment; filename="opportunities.xlsx"`)
	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	if err := workbook.Write(c.Writer); err != nil {
		c.Status(http.StatusInternalServerError)
	}
}

// GetMarketplaceStatus probes each configured marketplace.
func (h *APIHandler) GetMarketplaceStatus(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	status := h.engine.MarketplaceStatus()

	available := 0
	for _, s := range status {
		if s.Available {
			available++
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"marketplaces":           status,
		"total_marketplaces":     len(status),
		"available_marketplaces": available,
	})
}

// GetPopularItems returns the merged, deduplicated seed list.
func (h *APIHandler) GetPopularItems(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	limit := queryInt(c, "limit", 20)
	items := h.engine.PopularItems(limit)
	c.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": len(items),
	})
}

// GetStatistics reports marketplace availability and, when a ledger is
// attached, record counts.
func (h *APIHandler) GetStatistics(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	status := h.engine.MarketplaceStatus()
	available := 0
	for _, s := range status {
		if s.Available {
			available++
		}
	}

	resp := gin.H{
		"total_marketplaces":     len(status),
		"available_marketplaces": available,
		"monitoring":             h.engine.Running(),
		"last_updated":           time.Now().UTC().Format(time.RFC3339),
	}

	if ledger := h.engine.Ledger(); ledger != nil {
		stats, err := ledger.Stats()
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		resp["items"] = stats.Items
		resp["quotes"] = stats.Quotes
		resp["active_opportunities"] = stats.ActiveOpportunities
	}

	c.JSON(http.StatusOK, resp)
}

type searchRequest struct {
	Query  string `json:"query" binding:"required"`
	Weapon string `json:"weapon"`
	Limit  int    `json:"limit"`
}

// SearchItems searches all marketplaces and collapses the quotes per variant
// (condition, stattrak, souvenir), keeping the lowest price per marketplace.
func (h *APIHandler) SearchItems(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Limit <= 0 {
		req.Limit = 20
	}

	quotes := h.engine.SearchItem(req.Query, req.Weapon)
	results := groupVariants(quotes)
	if len(results) > req.Limit {
		results = results[:req.Limit]
	}

	c.JSON(http.StatusOK, gin.H{
		"query":         req.Query,
		"weapon":        req.Weapon,
		"results":       results,
		"total_results": len(results),
	})
}

type compareRequest struct {
	Weapon string `json:"weapon" binding:"required"`
	Skin   string `json:"skin" binding:"required"`
}

// ComparePrices returns per-marketplace price lists for a skin together with
// the arbitrage opportunities a live scan finds.
func (h *APIHandler) ComparePrices(c *gin.Context) {
	if !h.ready(c) {
		return
	}
	var req compareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	quotes := h.engine.SearchItem(req.Skin, req.Weapon)

	grouped := make(map[string][]gin.H)
	var lowest, highest float64
	for i, q := range quotes {
		grouped[q.Marketplace] = append(grouped[q.Marketplace], quoteJSON(q))
		if i == 0 || q.Price < lowest {
			lowest = q.Price
		}
		if i == 0 || q.Price > highest {
			highest = q.Price
		}
	}

	opportunities := h.engine.FindOpportunities(req.Skin, req.Weapon)

	resp := gin.H{
		"weapon":                  req.Weapon,
		"skin":                    req.Skin,
		"prices":                  grouped,
		"total_marketplaces":      len(grouped),
		"arbitrage_opportunities": opportunities,
	}
	if len(quotes) > 0 {
		resp["lowest_price"] = lowest
		resp["highest_price"] = highest
	}
	c.JSON(http.StatusOK, resp)
}

func queryFloat(c *gin.Context, key string, defaultValue float64) float64 {
	if v := c.Query(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func queryInt(c *gin.Context, key string, defaultValue int) int {
	if v := c.Query(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

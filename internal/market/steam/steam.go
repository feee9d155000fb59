package steam

import (
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"cs2-arbitrage/internal/market"

	"github.com/go-resty/resty/v2"
)

const (
	baseURL   = "https://steamcommunity.com"
	marketURL = "https://steamcommunity.com/market"

	// CS2 app id on Steam.
	appID = "730"

	// Steam takes roughly 15% between its own cut and the game fee.
	feeRate = 0.15
)

var nonPrice = regexp.MustCompile(`[^\d.]`)

// Source queries the Steam Community Market search endpoint. The API key is
// optional and unused by the public market endpoints; it is kept so
// authenticated lookups can be added without changing the wiring.
type Source struct {
	apiKey string
	client *resty.Client
}

func New(apiKey string) *Source {
	client := resty.New()
	client.SetTimeout(30 * time.Second)

	return &Source{
		apiKey: apiKey,
		client: client,
	}
}

func (s *Source) Name() string    { return "Steam" }
func (s *Source) BaseURL() string { return baseURL }

type searchResult struct {
	Name          string `json:"name"`
	HashName      string `json:"hash_name"`
	SellPriceText string `json:"sell_price_text"`
	SellListings  int    `json:"sell_listings"`
}

type searchResponse struct {
	Success bool           `json:"success"`
	Results []searchResult `json:"results"`
}

func (s *Source) SearchItem(itemName, weapon string) ([]market.Quote, error) {
	query := itemName
	if weapon != "" {
		query = weapon + " " + itemName
	}

	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"appid":               appID,
			"norender":            "1",
			"count":               "50",
			"search_descriptions": "0",
			"sort_column":         "price",
			"sort_dir":            "asc",
			"query":               query,
		}).
		Get(marketURL + "/search/render")
	if err != nil {
		return nil, fmt.Errorf("steam search: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("steam search: status %d", resp.StatusCode())
	}

	var parsed searchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("steam search: %w", err)
	}

	quotes := make([]market.Quote, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		q, ok := s.parseResult(r)
		if ok {
			quotes = append(quotes, q)
		}
	}
	return quotes, nil
}

func (s *Source) parseResult(r searchResult) (market.Quote, bool) {
	price, err := strconv.ParseFloat(nonPrice.ReplaceAllString(r.SellPriceText, ""), 64)
	if err != nil || price <= 0 {
		return market.Quote{}, false
	}

	hashName := r.HashName
	if hashName == "" {
		hashName = r.Name
	}

	listings := r.SellListings
	if listings < 1 {
		listings = 1
	}

	return market.Quote{
		Marketplace:  s.Name(),
		Price:        price,
		Currency:     "USD",
		Available:    true,
		ListingCount: listings,
		Timestamp:    time.Now().UTC(),
		URL:          fmt.Sprintf("%s/listings/%s/%s", marketURL, appID, hashName),
		Condition:    ConditionOf(r.Name),
		StatTrak:     strings.Contains(r.Name, "StatTrak"),
		Souvenir:     strings.Contains(r.Name, "Souvenir"),
	}, true
}

func (s *Source) PopularItems(limit int) ([]market.ItemSeed, error) {
	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"appid":       appID,
			"norender":    "1",
			"count":       strconv.Itoa(limit),
			"sort_column": "popular",
			"sort_dir":    "desc",
		}).
		Get(marketURL + "/search/render")
	if err != nil {
		return nil, fmt.Errorf("steam popular: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("steam popular: status %d", resp.StatusCode())
	}

	var parsed searchResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("steam popular: %w", err)
	}

	seeds := make([]market.ItemSeed, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		if r.Name == "" {
			continue
		}
		seeds = append(seeds, market.ItemSeed{
			Name:     r.Name,
			Weapon:   weaponOf(r.Name),
			Exterior: ConditionOf(r.Name),
			StatTrak: strings.Contains(r.Name, "StatTrak"),
			Souvenir: strings.Contains(r.Name, "Souvenir"),
		})
	}
	return seeds, nil
}

func (s *Source) FeeFor(price float64) float64 {
	return price * feeRate
}

func (s *Source) IsAvailable() bool {
	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"appid":            appID,
			"currency":         "1",
			"market_hash_name": "AK-47 | Redline (Field-Tested)",
		}).
		Get(marketURL + "/priceoverview/")
	return err == nil && resp.StatusCode() == http.StatusOK
}

var conditions = []string{
	"Factory New",
	"Minimal Wear",
	"Field-Tested",
	"Well-Worn",
	"Battle-Scarred",
}

// ConditionOf extracts the wear condition embedded in a Steam listing name.
func ConditionOf(name string) string {
	for _, c := range conditions {
		if strings.Contains(name, c) {
			return c
		}
	}
	return ""
}

// weaponOf extracts the weapon part of a listing name
// ("StatTrak™ AK-47 | Redline (Field-Tested)" -> "AK-47").
func weaponOf(name string) string {
	n := strings.TrimPrefix(name, "StatTrak™ ")
	n = strings.TrimPrefix(n, "Souvenir ")
	if i := strings.Index(n, " | "); i > 0 {
		return n[:i]
	}
	return ""
}

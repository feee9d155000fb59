package csfloat

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"cs2-arbitrage/internal/market"

	"github.com/go-resty/resty/v2"
)

const (
	baseURL = "https://csfloat.com"
	apiURL  = "https://csfloat.com/api/v1"

	// CSFloat charges a flat 2.5% sale fee.
	feeRate = 0.025
)

// Source queries the CSFloat listing API. An API key is optional; without one
// requests go out unauthenticated and rely on the public endpoints.
type Source struct {
	apiKey string
	client *resty.Client
}

func New(apiKey string) *Source {
	client := resty.New()
	client.SetTimeout(30 * time.Second)
	client.SetHeader("Accept", "application/json, text/plain, */*")
	if apiKey != "" {
		client.SetHeader("Authorization", apiKey)
	}

	return &Source{
		apiKey: apiKey,
		client: client,
	}
}

func (s *Source) Name() string    { return "CSFloat" }
func (s *Source) BaseURL() string { return baseURL }

type listing struct {
	ID    string          `json:"id"`
	Price json.RawMessage `json:"price"`
	Item  struct {
		MarketHashName string `json:"market_hash_name"`
		ItemName       string `json:"item_name"`
		WearName       string `json:"wear_name"`
		IsStatTrak     bool   `json:"is_stattrak"`
		IsSouvenir     bool   `json:"is_souvenir"`
	} `json:"item"`
}

type listingsResponse struct {
	Data []listing `json:"data"`
}

func (s *Source) SearchItem(itemName, weapon string) ([]market.Quote, error) {
	query := itemName
	if weapon != "" {
		query = weapon + " " + itemName
	}

	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"q":     query,
			"limit": "50",
			"sort":  "price_asc",
		}).
		Get(apiURL + "/listings")
	if err != nil {
		return nil, fmt.Errorf("csfloat search: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("csfloat search: status %d", resp.StatusCode())
	}

	var parsed listingsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("csfloat search: %w", err)
	}

	return s.parseListings(parsed.Data), nil
}

func (s *Source) parseListings(listings []listing) []market.Quote {
	quotes := make([]market.Quote, 0, len(listings))
	for _, l := range listings {
		price, ok := parsePrice(l.Price)
		if !ok || price <= 0 {
			continue
		}

		url := ""
		if l.ID != "" {
			url = fmt.Sprintf("%s/item/%s", baseURL, l.ID)
		}

		quotes = append(quotes, market.Quote{
			Marketplace:  s.Name(),
			Price:        price,
			Currency:     "USD",
			Available:    true,
			ListingCount: 1,
			Timestamp:    time.Now().UTC(),
			URL:          url,
			Condition:    l.Item.WearName,
			StatTrak:     l.Item.IsStatTrak,
			Souvenir:     l.Item.IsSouvenir,
		})
	}
	return quotes
}

// parsePrice handles both shapes CSFloat has used: an integer amount in cents
// and an object {"usd": <amount>}.
func parsePrice(raw json.RawMessage) (float64, bool) {
	if len(raw) == 0 {
		return 0, false
	}
	var cents float64
	if err := json.Unmarshal(raw, &cents); err == nil {
		return cents / 100, true
	}
	var obj struct {
		USD float64 `json:"usd"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.USD > 0 {
		return obj.USD, true
	}
	return 0, false
}

func (s *Source) PopularItems(limit int) ([]market.ItemSeed, error) {
	resp, err := s.client.R().
		SetQueryParams(map[string]string{
			"limit": fmt.Sprintf("%d", limit),
			"sort":  "volume_desc",
		}).
		Get(apiURL + "/listings")
	if err != nil {
		return nil, fmt.Errorf("csfloat popular: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("csfloat popular: status %d", resp.StatusCode())
	}

	var parsed listingsResponse
	if err := json.Unmarshal(resp.Body(), &parsed); err != nil {
		return nil, fmt.Errorf("csfloat popular: %w", err)
	}

	seeds := make([]market.ItemSeed, 0, len(parsed.Data))
	for _, l := range parsed.Data {
		name := l.Item.MarketHashName
		if name == "" {
			name = l.Item.ItemName
		}
		if name == "" {
			continue
		}
		seeds = append(seeds, market.ItemSeed{
			Name:     name,
			Weapon:   weaponOf(name),
			Exterior: l.Item.WearName,
			StatTrak: l.Item.IsStatTrak,
			Souvenir: l.Item.IsSouvenir,
		})
	}
	return seeds, nil
}

// weaponOf extracts the weapon part of a market hash name
// ("AK-47 | Redline (Field-Tested)" -> "AK-47").
func weaponOf(marketHashName string) string {
	name := strings.TrimPrefix(marketHashName, "StatTrak™ ")
	name = strings.TrimPrefix(name, "Souvenir ")
	if i := strings.Index(name, " | "); i > 0 {
		return name[:i]
	}
	return ""
}

func (s *Source) FeeFor(price float64) float64 {
	return price * feeRate
}

func (s *Source) IsAvailable() bool {
	resp, err := s.client.R().Get(baseURL)
	return err == nil && resp.StatusCode() == http.StatusOK
}

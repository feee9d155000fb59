package api

import (
	"sort"

	"cs2-arbitrage/internal/market"
)

type variantKey struct {
	condition string
	statTrak  bool
	souvenir  bool
}

type variantPrice struct {
	Price    float64 `json:"price"`
	Currency string  `json:"currency"`
	URL      string  `json:"url"`
}

type variantResult struct {
	Condition    string                  `json:"condition"`
	StatTrak     bool                    `json:"stattrak"`
	Souvenir     bool                    `json:"souvenir"`
	MinPrice     float64                 `json:"min_price"`
	Marketplaces map[string]variantPrice `json:"marketplaces"`
}

// groupVariants collapses quotes per (condition, stattrak, souvenir) variant,
// keeping the lowest price per marketplace, and ranks variants cheapest first.
func groupVariants(quotes []market.Quote) []variantResult {
	grouped := make(map[variantKey]*variantResult)
	var order []variantKey

	for _, q := range quotes {
		key := variantKey{
			condition: market.NormalizeCondition(q.Condition),
			statTrak:  q.StatTrak,
			souvenir:  q.Souvenir,
		}
		v, ok := grouped[key]
		if !ok {
			v = &variantResult{
				Condition:    q.Condition,
				StatTrak:     q.StatTrak,
				Souvenir:     q.Souvenir,
				Marketplaces: make(map[string]variantPrice),
			}
			grouped[key] = v
			order = append(order, key)
		}

		current, seen := v.Marketplaces[q.Marketplace]
		if !seen || q.Price < current.Price {
			v.Marketplaces[q.Marketplace] = variantPrice{
				Price:    q.Price,
				Currency: q.Currency,
				URL:      q.URL,
			}
		}
	}

	results := make([]variantResult, 0, len(order))
	for _, key := range order {
		v := grouped[key]
		first := true
		for _, mp := range v.Marketplaces {
			if first || mp.Price < v.MinPrice {
				v.MinPrice = mp.Price
				first = false
			}
		}
		results = append(results, *v)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].MinPrice < results[j].MinPrice
	})
	return results
}

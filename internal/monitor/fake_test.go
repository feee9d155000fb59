package monitor

import (
	"cs2-arbitrage/internal/market"
)

// fakeSource is a canned marketplace used across the engine tests.
type fakeSource struct {
	name      string
	quotes    []market.Quote
	seeds     []market.ItemSeed
	searchErr error
	seedErr   error
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
	if f.seedErr != nil {
		return nil, f.seedErr
	}
	if len(f.seeds) > limit {
		return f.seeds[:limit], nil
	}
	return f.seeds, nil
}

func (f *fakeSource) FeeFor(price float64) float64 { return price * f.feeRate }
func (f *fakeSource) IsAvailable() bool            { return f.available }

func quote(marketplace string, price float64, condition string) market.Quote {
	return market.Quote{
		Marketplace:  marketplace,
		Price:        price,
		Currency:     "USD",
		Available:    true,
		ListingCount: 1,
		Condition:    condition,
	}
}

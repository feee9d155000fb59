package monitor

import (
	"log"

	"cs2-arbitrage/internal/market"
)

// Aggregator fans a search out to every configured marketplace and collects
// the results. A failing marketplace contributes zero quotes and never
// prevents the others from being queried.
type Aggregator struct {
	sources []market.Marketplace
}

func NewAggregator(sources []market.Marketplace) *Aggregator {
	return &Aggregator{sources: sources}
}

// Aggregate concatenates every source's quotes for the item, in source order.
// Listings for the same item on different sources are kept separate on
// purpose; comparing them is the whole point downstream.
func (a *Aggregator) Aggregate(itemName, weapon string) []market.Quote {
	var all []market.Quote
	for _, src := range a.sources {
		quotes, err := src.SearchItem(itemName, weapon)
		if err != nil {
			log.Printf("Error searching %s for %q: %v", src.Name(), itemName, err)
			continue
		}
		all = append(all, quotes...)
	}
	return all
}

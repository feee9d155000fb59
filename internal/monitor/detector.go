package monitor

import (
	"sort"
	"strings"
	"time"

	"cs2-arbitrage/internal/market"
)

// Candidate is a detected arbitrage opportunity before persistence.
type Candidate struct {
	ItemName         string    `json:"item_name"`
	Weapon           string    `json:"weapon"`
	Condition        string    `json:"condition"`
	StatTrak         bool      `json:"stattrak"`
	Souvenir         bool      `json:"souvenir"`
	BuyMarketplace   string    `json:"buy_marketplace"`
	SellMarketplace  string    `json:"sell_marketplace"`
	BuyPrice         float64   `json:"buy_price"`
	SellPrice        float64   `json:"sell_price"`
	BuyURL           string    `json:"buy_url"`
	SellURL          string    `json:"sell_url"`
	ProfitAmount     float64   `json:"profit_amount"`
	ProfitPercentage float64   `json:"profit_percentage"`
	Fees             float64   `json:"fees"`
	NetProfit        float64   `json:"net_profit"`
	DetectedAt       time.Time `json:"detected_at"`
}

// Detector finds cross-marketplace price gaps in a set of quotes.
//
// Detection is deterministic: identical input yields identical output. When
// several quotes on one marketplace tie at the lowest price, the first one in
// input order wins; which listing URL that surfaces is not semantic and
// callers must not depend on it.
type Detector struct {
	sources      []market.Marketplace
	minProfitPct float64
	minSpread    float64
}

func NewDetector(sources []market.Marketplace, minProfitPct, minSpread float64) *Detector {
	return &Detector{
		sources:      sources,
		minProfitPct: minProfitPct,
		minSpread:    minSpread,
	}
}

// Detect groups quotes by item identity and, per group, compares the cheapest
// listing of each marketplace. A group qualifies when its cheapest and most
// expensive marketplaces differ, the spread reaches the configured minimum,
// the gross profit percentage reaches the threshold, and the profit net of
// both marketplaces' fees stays positive.
func (d *Detector) Detect(quotes []market.Quote, itemName, weapon string) []Candidate {
	groups := make(map[market.ItemIdentity][]market.Quote)
	var order []market.ItemIdentity
	for _, q := range quotes {
		identity, ok := market.IdentityFor(q, weapon, itemName)
		if !ok {
			continue
		}
		if _, seen := groups[identity]; !seen {
			order = append(order, identity)
		}
		groups[identity] = append(groups[identity], q)
	}

	var candidates []Candidate
	now := time.Now().UTC()

	for _, identity := range order {
		c, ok := d.evaluateGroup(identity, groups[identity], itemName, weapon, now)
		if ok {
			candidates = append(candidates, c)
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].NetProfit > candidates[j].NetProfit
	})
	return candidates
}

func (d *Detector) evaluateGroup(identity market.ItemIdentity, quotes []market.Quote, itemName, weapon string, now time.Time) (Candidate, bool) {
	// Cheapest listing per marketplace; first quote wins price ties.
	cheapest := make(map[string]market.Quote)
	var marketplaces []string
	for _, q := range quotes {
		best, seen := cheapest[q.Marketplace]
		if !seen {
			cheapest[q.Marketplace] = q
			marketplaces = append(marketplaces, q.Marketplace)
			continue
		}
		if q.Price < best.Price {
			cheapest[q.Marketplace] = q
		}
	}

	// Comparison needs at least two marketplaces offering this exact item.
	if len(marketplaces) < 2 {
		return Candidate{}, false
	}

	buy := cheapest[marketplaces[0]]
	sell := cheapest[marketplaces[0]]
	for _, m := range marketplaces[1:] {
		q := cheapest[m]
		if q.Price < buy.Price {
			buy = q
		}
		if q.Price > sell.Price {
			sell = q
		}
	}

	if buy.Marketplace == sell.Marketplace {
		return Candidate{}, false
	}

	spread := sell.Price - buy.Price
	if spread < d.minSpread {
		return Candidate{}, false
	}

	profitPct := spread / buy.Price * 100
	if profitPct < d.minProfitPct {
		return Candidate{}, false
	}

	fees := d.feeFor(buy.Marketplace, buy.Price) + d.feeFor(sell.Marketplace, sell.Price)
	netProfit := spread - fees
	if netProfit <= 0 {
		return Candidate{}, false
	}

	return Candidate{
		ItemName:         itemName,
		Weapon:           weapon,
		Condition:        identity.Condition,
		StatTrak:         identity.StatTrak,
		Souvenir:         identity.Souvenir,
		BuyMarketplace:   buy.Marketplace,
		SellMarketplace:  sell.Marketplace,
		BuyPrice:         buy.Price,
		SellPrice:        sell.Price,
		BuyURL:           buy.URL,
		SellURL:          sell.URL,
		ProfitAmount:     spread,
		ProfitPercentage: profitPct,
		Fees:             fees,
		NetProfit:        netProfit,
		DetectedAt:       now,
	}, true
}

// feeFor resolves a quote's marketplace label to a source and asks it for the
// fee at the given price. Exact (case-insensitive) name match is tried first;
// the legacy substring-containment rule is kept as a compatibility shim for
// labels that embed the source name. An unmatched label costs nothing.
func (d *Detector) feeFor(marketplace string, price float64) float64 {
	label := strings.ToLower(marketplace)
	for _, src := range d.sources {
		if strings.ToLower(src.Name()) == label {
			return src.FeeFor(price)
		}
	}
	for _, src := range d.sources {
		if strings.Contains(label, strings.ToLower(src.Name())) {
			return src.FeeFor(price)
		}
	}
	return 0
}

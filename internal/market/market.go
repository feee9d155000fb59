package market

import "time"

// Quote is a single marketplace observation of an item at a point in time.
// Quotes are immutable once captured; a fresh observation is a new Quote.
type Quote struct {
	Marketplace  string    `json:"marketplace"`
	Price        float64   `json:"price"`
	Currency     string    `json:"currency"`
	Available    bool      `json:"available"`
	ListingCount int       `json:"listing_count"`
	Timestamp    time.Time `json:"timestamp"`
	URL          string    `json:"url"`
	Condition    string    `json:"condition"` // Factory New, Minimal Wear, etc.
	StatTrak     bool      `json:"stattrak"`
	Souvenir     bool      `json:"souvenir"`
}

// ItemSeed describes an item a marketplace considers worth monitoring.
type ItemSeed struct {
	Name     string `json:"name"`
	Weapon   string `json:"weapon"`
	Rarity   string `json:"rarity"`
	Exterior string `json:"exterior"`
	StatTrak bool   `json:"stattrak"`
	Souvenir bool   `json:"souvenir"`
}

// Status reports a marketplace's reachability for display purposes.
type Status struct {
	Name      string `json:"name"`
	Available bool   `json:"available"`
	BaseURL   string `json:"base_url"`
}

// Marketplace is the capability contract every price source implements.
// Each call may fail independently; callers isolate failures and treat an
// error as zero quotes from that source. SearchItem returns an empty slice,
// not an error, when nothing matches.
type Marketplace interface {
	Name() string
	BaseURL() string
	SearchItem(itemName, weapon string) ([]Quote, error)
	PopularItems(limit int) ([]ItemSeed, error)
	FeeFor(price float64) float64
	IsAvailable() bool
}

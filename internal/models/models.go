package models

import (
	"time"

	"gorm.io/gorm"
)

// Item represents a tracked CS2 skin.
type Item struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	Name      string         `json:"name" gorm:"uniqueIndex;not null"`
	Weapon    string         `json:"weapon" gorm:"index"`
	Rarity    string         `json:"rarity"`
	Exterior  string         `json:"exterior"`
	StatTrak  bool           `json:"stattrak" gorm:"default:false"`
	Souvenir  bool           `json:"souvenir" gorm:"default:false"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

// Quote represents one marketplace price observation for an item. Rows are
// append-only history; observations are never updated in place.
type Quote struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	ItemID       uint      `json:"item_id" gorm:"index;not null"`
	Item         Item      `json:"-" gorm:"foreignKey:ItemID"`
	Marketplace  string    `json:"marketplace" gorm:"index;not null"`
	Price        float64   `json:"price" gorm:"not null"`
	Currency     string    `json:"currency" gorm:"default:'USD'"`
	Available    bool      `json:"available" gorm:"default:true"`
	ListingCount int       `json:"listing_count" gorm:"default:0"`
	Condition    string    `json:"condition"`
	StatTrak     bool      `json:"stattrak" gorm:"default:false"`
	Souvenir     bool      `json:"souvenir" gorm:"default:false"`
	URL          string    `json:"url"`
	Timestamp    time.Time `json:"timestamp" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
}

// Opportunity represents a detected arbitrage gap between two marketplaces.
// One active row exists per (item, buy marketplace, sell marketplace) triple;
// re-detection refreshes the row instead of inserting a new one.
type Opportunity struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	ItemID           uint      `json:"item_id" gorm:"index;not null"`
	Item             Item      `json:"item" gorm:"foreignKey:ItemID"`
	Condition        string    `json:"condition"`
	StatTrak         bool      `json:"stattrak" gorm:"default:false"`
	Souvenir         bool      `json:"souvenir" gorm:"default:false"`
	BuyMarketplace   string    `json:"buy_marketplace" gorm:"not null"`
	SellMarketplace  string    `json:"sell_marketplace" gorm:"not null"`
	BuyPrice         float64   `json:"buy_price" gorm:"not null"`
	SellPrice        float64   `json:"sell_price" gorm:"not null"`
	BuyURL           string    `json:"buy_url"`
	SellURL          string    `json:"sell_url"`
	ProfitAmount     float64   `json:"profit_amount" gorm:"not null"`
	ProfitPercentage float64   `json:"profit_percentage" gorm:"index;not null"`
	Fees             float64   `json:"fees" gorm:"default:0"`
	NetProfit        float64   `json:"net_profit" gorm:"index;not null"`
	DetectedAt       time.Time `json:"detected_at" gorm:"index"`
	IsActive         bool      `json:"is_active" gorm:"index;default:true"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

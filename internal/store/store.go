package store

import (
	"errors"
	"fmt"
	"time"

	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Store is the persistence layer behind the monitoring engine: item records,
// quote history, and the opportunity ledger.
type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindOrCreateItem returns the item record for a seed, creating it on first
// sight. Items are keyed by name.
func (s *Store) FindOrCreateItem(seed market.ItemSeed) (*models.Item, error) {
	var item models.Item
	err := s.db.Where("name = ?", seed.Name).First(&item).Error
	if err == nil {
		return &item, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("find item %q: %w", seed.Name, err)
	}

	item = models.Item{
		Name:     seed.Name,
		Weapon:   seed.Weapon,
		Rarity:   seed.Rarity,
		Exterior: seed.Exterior,
		StatTrak: seed.StatTrak,
		Souvenir: seed.Souvenir,
	}
	if err := s.db.Create(&item).Error; err != nil {
		return nil, fmt.Errorf("create item %q: %w", seed.Name, err)
	}
	return &item, nil
}

// SaveQuote appends one observation to the quote history. An observation
// without a capture time is stamped at persistence.
func (s *Store) SaveQuote(itemID uint, q market.Quote) error {
	if q.Timestamp.IsZero() {
		q.Timestamp = time.Now().UTC()
	}
	record := models.Quote{
		ItemID:       itemID,
		Marketplace:  q.Marketplace,
		Price:        q.Price,
		Currency:     q.Currency,
		Available:    q.Available,
		ListingCount: q.ListingCount,
		Condition:    q.Condition,
		StatTrak:     q.StatTrak,
		Souvenir:     q.Souvenir,
		URL:          q.URL,
		Timestamp:    q.Timestamp,
	}
	if err := s.db.Create(&record).Error; err != nil {
		return fmt.Errorf("save quote for item %d: %w", itemID, err)
	}
	return nil
}

// RecentQuotes returns available observations for an item captured at or
// after the given time, oldest first.
func (s *Store) RecentQuotes(itemID uint, since time.Time) ([]market.Quote, error) {
	var records []models.Quote
	err := s.db.
		Where("item_id = ? AND timestamp >= ? AND available = ?", itemID, since, true).
		Order("timestamp asc, id asc").
		Find(&records).Error
	if err != nil {
		return nil, fmt.Errorf("recent quotes for item %d: %w", itemID, err)
	}

	quotes := make([]market.Quote, 0, len(records))
	for _, r := range records {
		quotes = append(quotes, market.Quote{
			Marketplace:  r.Marketplace,
			Price:        r.Price,
			Currency:     r.Currency,
			Available:    r.Available,
			ListingCount: r.ListingCount,
			Timestamp:    r.Timestamp,
			URL:          r.URL,
			Condition:    r.Condition,
			StatTrak:     r.StatTrak,
			Souvenir:     r.Souvenir,
		})
	}
	return quotes, nil
}

// ItemsWithRecentQuotes returns the items that have at least one observation
// at or after the given time.
func (s *Store) ItemsWithRecentQuotes(since time.Time) ([]models.Item, error) {
	var items []models.Item
	err := s.db.
		Distinct("items.*").
		Joins("JOIN quotes ON quotes.item_id = items.id").
		Where("quotes.timestamp >= ?", since).
		Find(&items).Error
	if err != nil {
		return nil, fmt.Errorf("items with recent quotes: %w", err)
	}
	return items, nil
}

// UpsertOpportunity refreshes the active row for the opportunity's
// (item, buy marketplace, sell marketplace) triple, or inserts a new one.
// The lookup takes a row-level lock so concurrent upserts of the same triple
// serialize instead of losing updates.
func (s *Store) UpsertOpportunity(opp *models.Opportunity) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		lookup := tx.Where("item_id = ? AND buy_marketplace = ? AND sell_marketplace = ? AND is_active = ?",
			opp.ItemID, opp.BuyMarketplace, opp.SellMarketplace, true)
		// SQLite has no SELECT ... FOR UPDATE; its writes serialize anyway.
		if tx.Dialector.Name() == "mysql" {
			lookup = lookup.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var existing models.Opportunity
		err := lookup.First(&existing).Error

		if errors.Is(err, gorm.ErrRecordNotFound) {
			opp.IsActive = true
			if opp.DetectedAt.IsZero() {
				opp.DetectedAt = time.Now().UTC()
			}
			return tx.Create(opp).Error
		}
		if err != nil {
			return fmt.Errorf("lookup opportunity: %w", err)
		}

		detectedAt := opp.DetectedAt
		if detectedAt.IsZero() {
			detectedAt = time.Now().UTC()
		}
		updates := map[string]interface{}{
			"condition":         opp.Condition,
			"stat_trak":         opp.StatTrak,
			"souvenir":          opp.Souvenir,
			"buy_price":         opp.BuyPrice,
			"sell_price":        opp.SellPrice,
			"buy_url":           opp.BuyURL,
			"sell_url":          opp.SellURL,
			"profit_amount":     opp.ProfitAmount,
			"profit_percentage": opp.ProfitPercentage,
			"fees":              opp.Fees,
			"net_profit":        opp.NetProfit,
			"detected_at":       detectedAt,
		}
		if err := tx.Model(&existing).Updates(updates).Error; err != nil {
			return fmt.Errorf("refresh opportunity %d: %w", existing.ID, err)
		}
		opp.ID = existing.ID
		return nil
	})
}

// OpportunityFilter narrows an active-opportunity query.
type OpportunityFilter struct {
	ItemID       uint // 0 = all items
	MinProfitPct float64
	MaxProfitPct float64
	Limit        int
}

// ActiveOpportunities returns active rows whose profit percentage falls in
// the requested band, ranked by net profit descending.
func (s *Store) ActiveOpportunities(f OpportunityFilter) ([]models.Opportunity, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	maxPct := f.MaxProfitPct
	if maxPct <= 0 {
		maxPct = 1000.0
	}

	q := s.db.
		Preload("Item").
		Where("is_active = ? AND profit_percentage >= ? AND profit_percentage <= ?",
			true, f.MinProfitPct, maxPct)
	if f.ItemID != 0 {
		q = q.Where("item_id = ?", f.ItemID)
	}

	var opportunities []models.Opportunity
	if err := q.Order("net_profit desc").Limit(limit).Find(&opportunities).Error; err != nil {
		return nil, fmt.Errorf("active opportunities: %w", err)
	}
	return opportunities, nil
}

// DeactivateStaleBefore flips active opportunities whose last detection
// predates the given time. Called after a detection pass so gaps that were
// not reconfirmed stop being reported.
func (s *Store) DeactivateStaleBefore(t time.Time) (int64, error) {
	result := s.db.Model(&models.Opportunity{}).
		Where("is_active = ? AND detected_at < ?", true, t).
		Update("is_active", false)
	if result.Error != nil {
		return 0, fmt.Errorf("deactivate stale opportunities: %w", result.Error)
	}
	return result.RowsAffected, nil
}

// Stats summarizes ledger contents for the stats endpoint.
type Stats struct {
	Items               int64 `json:"items"`
	Quotes              int64 `json:"quotes"`
	ActiveOpportunities int64 `json:"active_opportunities"`
}

func (s *Store) Stats() (Stats, error) {
	var st Stats
	if err := s.db.Model(&models.Item{}).Count(&st.Items).Error; err != nil {
		return st, fmt.Errorf("count items: %w", err)
	}
	if err := s.db.Model(&models.Quote{}).Count(&st.Quotes).Error; err != nil {
		return st, fmt.Errorf("count quotes: %w", err)
	}
	err := s.db.Model(&models.Opportunity{}).Where("is_active = ?", true).
		Count(&st.ActiveOpportunities).Error
	if err != nil {
		return st, fmt.Errorf("count opportunities: %w", err)
	}
	return st, nil
}

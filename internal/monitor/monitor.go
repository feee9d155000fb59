package monitor

import (
	"fmt"
	"log"
	"sync"
	"time"

	"cs2-arbitrage/internal/config"
	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/models"
	"cs2-arbitrage/internal/store"
)

// Publisher receives opportunity candidates as the scheduler confirms them.
type Publisher interface {
	PublishOpportunity(c Candidate)
}

// Monitor is the price monitoring engine: it owns the source registry, the
// aggregator and detector, and the background cycle loop that keeps the
// opportunity ledger current. With a nil ledger it runs stateless and only
// serves on-demand queries.
type Monitor struct {
	cfg        *config.Config
	sources    []market.Marketplace
	aggregator *Aggregator
	detector   *Detector
	ledger     *store.Store
	publisher  Publisher

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	done    chan struct{}
}

func New(cfg *config.Config, sources []market.Marketplace, ledger *store.Store) *Monitor {
	return &Monitor{
		cfg:        cfg,
		sources:    sources,
		aggregator: NewAggregator(sources),
		detector:   NewDetector(sources, cfg.MinProfitThreshold, cfg.MinSpread),
		ledger:     ledger,
	}
}

// SetPublisher attaches an optional sink for confirmed opportunities.
func (m *Monitor) SetPublisher(p Publisher) {
	m.publisher = p
}

// Start launches the background cycle loop. It fails when monitoring is
// already running or no ledger is attached.
func (m *Monitor) Start() error {
	if m.ledger == nil {
		return fmt.Errorf("monitoring requires a ledger")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.running {
		return fmt.Errorf("monitoring is already running")
	}
	m.running = true
	m.stopCh = make(chan struct{})
	m.done = make(chan struct{})

	go m.loop(m.stopCh, m.done)
	log.Printf("Price monitoring started (%d marketplaces, interval %v)", len(m.sources), m.cfg.UpdateInterval)
	return nil
}

// Stop requests the loop to exit and waits for it. Work already in flight
// finishes; the flag is observed before the next cycle starts.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	close(m.stopCh)
	done := m.done
	m.mu.Unlock()

	<-done
	log.Println("Price monitoring stopped")
}

// Running reports whether the cycle loop is active.
func (m *Monitor) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

func (m *Monitor) loop(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	for {
		select {
		case <-stop:
			return
		default:
		}

		if err := m.runCycle(stop); err != nil {
			log.Printf("Error in price monitoring cycle: %v", err)
			if !sleepOrStop(m.cfg.CycleBackoff, stop) {
				return
			}
			continue
		}

		if !sleepOrStop(m.cfg.UpdateInterval, stop) {
			return
		}
	}
}

// sleepOrStop waits for the duration and reports false when stop fires first.
func sleepOrStop(d time.Duration, stop <-chan struct{}) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-stop:
		return false
	case <-timer.C:
		return true
	}
}

// runCycle performs one full pass: refresh quotes for the candidate item set,
// then detect and persist opportunities. A panic anywhere inside is converted
// to an error so a bad cycle backs off instead of killing the scheduler.
func (m *Monitor) runCycle(stop <-chan struct{}) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	log.Println("Starting price update cycle...")
	cycleStart := time.Now().UTC()

	seeds := m.PopularItems(m.cfg.ItemLimit)
	for _, seed := range seeds {
		if err := m.updateItem(seed); err != nil {
			// Skipped this cycle; the item is retried on the next one.
			log.Printf("Error updating prices for %q: %v", seed.Name, err)
		}
		// Fixed pacing between items so marketplaces are not hammered.
		if !sleepOrStop(m.cfg.ItemDelay, stop) {
			break
		}
	}

	m.detectOpportunities(cycleStart)

	log.Println("Price update cycle completed")
	return nil
}

func (m *Monitor) updateItem(seed market.ItemSeed) error {
	item, err := m.ledger.FindOrCreateItem(seed)
	if err != nil {
		return err
	}
	for _, q := range m.aggregator.Aggregate(seed.Name, seed.Weapon) {
		if err := m.ledger.SaveQuote(item.ID, q); err != nil {
			return err
		}
	}
	return nil
}

// detectOpportunities runs the detector over the trailing quote window of
// every recently updated item, upserts confirmed candidates, and deactivates
// ledger rows this cycle did not reconfirm.
func (m *Monitor) detectOpportunities(cycleStart time.Time) {
	since := time.Now().UTC().Add(-m.cfg.QuoteWindow)

	items, err := m.ledger.ItemsWithRecentQuotes(since)
	if err != nil {
		log.Printf("Error loading items for detection: %v", err)
		return
	}

	for _, item := range items {
		quotes, err := m.ledger.RecentQuotes(item.ID, since)
		if err != nil {
			log.Printf("Error loading quotes for %q: %v", item.Name, err)
			continue
		}

		for _, c := range m.detector.Detect(quotes, item.Name, item.Weapon) {
			opp := c.toRecord(item.ID)
			if err := m.ledger.UpsertOpportunity(opp); err != nil {
				log.Printf("Error saving opportunity for %q: %v", item.Name, err)
				continue
			}
			if m.publisher != nil {
				m.publisher.PublishOpportunity(c)
			}
			log.Printf("Arbitrage opportunity for %s: %s -> %s, net profit $%.2f (%.1f%%)",
				item.Name, c.BuyMarketplace, c.SellMarketplace, c.NetProfit, c.ProfitPercentage)
		}
	}

	if n, err := m.ledger.DeactivateStaleBefore(cycleStart); err != nil {
		log.Printf("Error deactivating stale opportunities: %v", err)
	} else if n > 0 {
		log.Printf("Deactivated %d stale opportunities", n)
	}
}

func (c Candidate) toRecord(itemID uint) *models.Opportunity {
	return &models.Opportunity{
		ItemID:           itemID,
		Condition:        c.Condition,
		StatTrak:         c.StatTrak,
		Souvenir:         c.Souvenir,
		BuyMarketplace:   c.BuyMarketplace,
		SellMarketplace:  c.SellMarketplace,
		BuyPrice:         c.BuyPrice,
		SellPrice:        c.SellPrice,
		BuyURL:           c.BuyURL,
		SellURL:          c.SellURL,
		ProfitAmount:     c.ProfitAmount,
		ProfitPercentage: c.ProfitPercentage,
		Fees:             c.Fees,
		NetProfit:        c.NetProfit,
		DetectedAt:       c.DetectedAt,
	}
}

// SearchItem queries every marketplace for an item, on demand.
func (m *Monitor) SearchItem(itemName, weapon string) []market.Quote {
	return m.aggregator.Aggregate(itemName, weapon)
}

// FindOpportunities runs a stateless aggregate-and-detect pass for one item.
// Nothing is persisted; the ledger is not consulted.
func (m *Monitor) FindOpportunities(itemName, weapon string) []Candidate {
	quotes := m.aggregator.Aggregate(itemName, weapon)
	return m.detector.Detect(quotes, itemName, weapon)
}

// PopularItems merges every source's seed list, deduplicated by name in
// encounter order and capped at limit.
func (m *Monitor) PopularItems(limit int) []market.ItemSeed {
	var merged []market.ItemSeed
	seen := make(map[string]bool)

	for _, src := range m.sources {
		seeds, err := src.PopularItems(limit)
		if err != nil {
			log.Printf("Error getting popular items from %s: %v", src.Name(), err)
			continue
		}
		for _, seed := range seeds {
			if seed.Name == "" || seen[seed.Name] {
				continue
			}
			seen[seed.Name] = true
			merged = append(merged, seed)
			if len(merged) >= limit {
				return merged
			}
		}
	}
	return merged
}

// MarketplaceStatus probes every source's availability. The result is for
// display only; an unavailable source is still queried during detection.
func (m *Monitor) MarketplaceStatus() []market.Status {
	status := make([]market.Status, 0, len(m.sources))
	for _, src := range m.sources {
		status = append(status, market.Status{
			Name:      src.Name(),
			Available: src.IsAvailable(),
			BaseURL:   src.BaseURL(),
		})
	}
	return status
}

// Ledger exposes the attached store; nil in stateless mode.
func (m *Monitor) Ledger() *store.Store {
	return m.ledger
}

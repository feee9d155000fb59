package monitor

import (
	"errors"
	"testing"

	"cs2-arbitrage/internal/market"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregateConcatenatesInSourceOrder(t *testing.T) {
	a := NewAggregator([]market.Marketplace{
		&fakeSource{name: "A", quotes: []market.Quote{quote("A", 10, "Factory New")}},
		&fakeSource{name: "B", quotes: []market.Quote{quote("B", 16, "Factory New"), quote("B", 17, "Factory New")}},
	})

	quotes := a.Aggregate("Redline", "AK-47")
	require.Len(t, quotes, 3)
	assert.Equal(t, "A", quotes[0].Marketplace)
	assert.Equal(t, "B", quotes[1].Marketplace)
	assert.Equal(t, "B", quotes[2].Marketplace)
}

func TestAggregateIsolatesFailingSource(t *testing.T) {
	a := NewAggregator([]market.Marketplace{
		&fakeSource{name: "A", searchErr: errors.New("connection refused")},
		&fakeSource{name: "B", quotes: []market.Quote{quote("B", 16, "Factory New")}},
	})

	quotes := a.Aggregate("Redline", "AK-47")
	require.Len(t, quotes, 1, "failing source contributes zero quotes, others still aggregate")
	assert.Equal(t, "B", quotes[0].Marketplace)
}

func TestAggregateEmptyIsNotAnError(t *testing.T) {
	a := NewAggregator([]market.Marketplace{
		&fakeSource{name: "A"},
		&fakeSource{name: "B"},
	})
	assert.Empty(t, a.Aggregate("Nonexistent", "AK-47"))
}

func TestFailingSourceStillDetectable(t *testing.T) {
	sources := []market.Marketplace{
		&fakeSource{name: "A", searchErr: errors.New("parse failure")},
		&fakeSource{name: "B", quotes: []market.Quote{quote("B", 10, "Factory New")}},
		&fakeSource{name: "C", quotes: []market.Quote{quote("C", 16, "Factory New")}},
	}
	cfg := testConfig()
	m := New(cfg, sources, nil)

	opps := m.FindOpportunities("Redline", "AK-47")
	require.Len(t, opps, 1)
	assert.Equal(t, "B", opps[0].BuyMarketplace)
	assert.Equal(t, "C", opps[0].SellMarketplace)
}

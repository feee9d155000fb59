package report

import (
	"testing"
	"time"

	"cs2-arbitrage/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityWorkbook(t *testing.T) {
	opps := []models.Opportunity{
		{
			Item:             models.Item{Name: "AK-47 | Redline (Field-Tested)"},
			Condition:        "field-tested",
			BuyMarketplace:   "CSFloat",
			BuyPrice:         10,
			SellMarketplace:  "Steam",
			SellPrice:        16,
			ProfitAmount:     6,
			ProfitPercentage: 60,
			NetProfit:        6,
			DetectedAt:       time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
		},
	}

	f, err := OpportunityWorkbook(opps)
	require.NoError(t, err)

	rows, err := f.GetRows("Opportunities")
	require.NoError(t, err)
	require.Len(t, rows, 2, "header plus one data row")
	assert.Equal(t, "Item", rows[0][0])
	assert.Equal(t, "AK-47 | Redline (Field-Tested)", rows[1][0])
	assert.Equal(t, "CSFloat", rows[1][4])
	assert.Equal(t, "Steam", rows[1][6])
}

func TestOpportunityWorkbookEmpty(t *testing.T) {
	f, err := OpportunityWorkbook(nil)
	require.NoError(t, err)

	rows, err := f.GetRows("Opportunities")
	require.NoError(t, err)
	require.Len(t, rows, 1, "header only")
}

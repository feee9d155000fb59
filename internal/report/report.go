package report

import (
	"fmt"

	"cs2-arbitrage/internal/models"

	"github.com/xuri/excelize/v2"
)

const sheet = "Opportunities"

var headers = []string{
	"Item", "Condition", "StatTrak", "Souvenir",
	"Buy Marketplace", "Buy Price", "Sell Marketplace", "Sell Price",
	"Spread", "Profit %", "Fees", "Net Profit", "Detected At",
}

// OpportunityWorkbook renders active opportunities into an xlsx workbook,
// one row per opportunity in the order given.
func OpportunityWorkbook(opportunities []models.Opportunity) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, h := range headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	for row, opp := range opportunities {
		values := []interface{}{
			opp.Item.Name,
			opp.Condition,
			opp.StatTrak,
			opp.Souvenir,
			opp.BuyMarketplace,
			opp.BuyPrice,
			opp.SellMarketplace,
			opp.SellPrice,
			opp.ProfitAmount,
			opp.ProfitPercentage,
			opp.Fees,
			opp.NetProfit,
			opp.DetectedAt.Format("2006-01-02 15:04:05"),
		}
		for col, v := range values {
			cell, err := excelize.CoordinatesToCellName(col+1, row+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, err
			}
		}
	}

	return f, nil
}

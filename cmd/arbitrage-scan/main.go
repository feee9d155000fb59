package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"cs2-arbitrage/internal/config"
	"cs2-arbitrage/internal/market"
	"cs2-arbitrage/internal/market/csfloat"
	"cs2-arbitrage/internal/market/steam"
	"cs2-arbitrage/internal/monitor"

	"github.com/joho/godotenv"
)

var (
	skin   = flag.String("skin", "", "skin name to scan (e.g. \"Redline\")")
	weapon = flag.String("weapon", "", "weapon name (e.g. \"AK-47\")")
)

// One-shot scan: search every marketplace for a skin and print the arbitrage
// opportunities a stateless detection pass finds.
func main() {
	flag.Parse()

	if *skin == "" || *weapon == "" {
		fmt.Fprintln(os.Stderr, "usage: arbitrage-scan -weapon <weapon> -skin <skin>")
		os.Exit(2)
	}

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()

	sources := []market.Marketplace{
		csfloat.New(cfg.CSFloatAPIKey),
		steam.New(cfg.SteamAPIKey),
	}
	engine := monitor.New(cfg, sources, nil)

	quotes := engine.SearchItem(*skin, *weapon)
	log.Printf("Collected %d quotes for %s | %s", len(quotes), *weapon, *skin)

	opportunities := engine.FindOpportunities(*skin, *weapon)
	if len(opportunities) == 0 {
		log.Printf("No opportunities (min spread $%.2f, min profit %.1f%%)", cfg.MinSpread, cfg.MinProfitThreshold)
		return
	}

	for i, opp := range opportunities {
		fmt.Printf("%d. [%s] buy %s @ $%.2f -> sell %s @ $%.2f | spread $%.2f (%.1f%%) | fees $%.2f | net $%.2f\n",
			i+1, opp.Condition,
			opp.BuyMarketplace, opp.BuyPrice,
			opp.SellMarketplace, opp.SellPrice,
			opp.ProfitAmount, opp.ProfitPercentage,
			opp.Fees, opp.NetProfit)
	}
}

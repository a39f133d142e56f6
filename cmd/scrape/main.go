// Package main provides a one-shot scrape for debugging extraction
// heuristics against a live account.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/account-explorer/internal/config"
	"github.com/account-explorer/internal/fetcher"
	"github.com/account-explorer/internal/logging"
	"github.com/account-explorer/internal/scraper"
)

func main() {
	addrFlag := flag.String("address", "", "Account address to scrape")
	sourceFlag := flag.String("source", "", "Override scrape source (api|headless|service)")
	balanceFlag := flag.Bool("balance", false, "Also fetch the native balance")
	flag.Parse()

	if *addrFlag == "" {
		fmt.Fprintln(os.Stderr, "usage: scrape -address <account> [-source api|headless|service] [-balance]")
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *sourceFlag != "" {
		os.Setenv("SCRAPE_SOURCE", *sourceFlag)
		if cfg, err = config.LoadConfig(); err != nil {
			fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
			os.Exit(1)
		}
	}

	logger := logging.New(logging.LevelWarn, logging.FormatText)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if *balanceFlag {
		reading, err := fetcher.NewBalanceFetcher(&cfg.Flow).Fetch(ctx, *addrFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "balance fetch failed: %v\n", err)
		} else {
			fmt.Printf("balance: %s FLOW\n", reading.Amount)
		}
	}

	details := scraper.NewAccountScraper(&cfg.Explorer, logger).Scrape(ctx, *addrFlag)

	out, err := json.MarshalIndent(details, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to render details: %v\n", err)
		os.Exit(1)
	}
	fmt.Println(string(out))
}

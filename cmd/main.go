package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/va6996/tsetools/config"
	"github.com/va6996/tsetools/log"
	"github.com/va6996/tsetools/plugins/tsetmc"
)

func main() {
	query := flag.String("query", "", "stock name or ticker to search for (e.g. خودرو)")
	days := flag.Int("days", tsetmc.DefaultHistoryDays, "number of history days to fetch")
	flag.Parse()

	if *query == "" {
		fmt.Fprintln(os.Stderr, "usage: cmd -query <name> [-days N]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf(context.Background(), "Failed to load config: %v", err)
	}
	if err := log.Init(cfg.Log.Level); err != nil {
		log.Warnf(context.Background(), "%v", err)
	}

	client := tsetmc.NewClient(cfg.TSETMC.BaseURL, cfg.TSETMC.UserAgent, cfg.TSETMC.Timeout())
	stocks := tsetmc.NewStockTools(client, tsetmc.NewMemoryCache(), nil, nil)

	if err := walkthrough(context.Background(), stocks, *query, *days, os.Stdout); err != nil {
		log.Fatalf(context.Background(), "Walkthrough failed: %v", err)
	}
}

// walkthrough searches for query, then fetches info and history for the
// first match, printing every envelope.
func walkthrough(ctx context.Context, stocks *tsetmc.StockTools, query string, days int, w io.Writer) error {
	search := stocks.SearchStock(ctx, &tsetmc.SearchInput{Query: query})
	if err := printEnvelope(w, tsetmc.SearchStockTool, search); err != nil {
		return err
	}

	results, _ := search.Data.([]tsetmc.SearchResult)
	if !search.IsSuccess || len(results) == 0 {
		return nil
	}
	symbol := results[0].Symbol

	info := stocks.GetStockInfo(ctx, &tsetmc.InfoInput{Symbol: symbol})
	if err := printEnvelope(w, tsetmc.GetStockInfoTool, info); err != nil {
		return err
	}

	history := stocks.GetStockHistory(ctx, &tsetmc.HistoryInput{Symbol: symbol, Days: days})
	return printEnvelope(w, tsetmc.GetStockHistoryTool, history)
}

func printEnvelope(w io.Writer, tool string, env *tsetmc.Envelope) error {
	b, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding %s result: %w", tool, err)
	}
	_, err = fmt.Fprintf(w, "=== %s ===\n%s\n", tool, b)
	return err
}

package tsetmc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/sirupsen/logrus"

	"github.com/va6996/tsetools/log"
	"github.com/va6996/tsetools/tools"
)

const (
	SearchStockTool     = "search_stock"
	GetStockInfoTool    = "get_stock_info"
	GetStockHistoryTool = "get_stock_history"

	genericFailureMessage = "An unexpected error occurred while processing the request."
	noTickersMessage      = "No tickers found. Make sure you used a correct query."
)

// Upstream is the subset of the TSETMC API the tools consume
type Upstream interface {
	SearchInstruments(ctx context.Context, query string) ([]Instrument, error)
	GetClosingPriceInfo(ctx context.Context, instrumentCode string) (*ClosingPriceInfo, error)
	GetDailyClosingPrices(ctx context.Context, instrumentCode string) ([]DailyClosingPrice, error)
}

type SearchInput struct {
	Query string `json:"query" description:"Stock name or ticker symbol to search for, in Persian (e.g. خودرو)"`
}

type InfoInput struct {
	Symbol string `json:"symbol" description:"Ticker symbol in Persian as returned by search_stock (e.g. خودرو)"`
}

// HistoryInput leaves Days untyped in the inferred schema so that malformed
// values reach ClampDays and fall back to the default.
type HistoryInput struct {
	Symbol string `json:"symbol" description:"Ticker symbol in Persian as returned by search_stock"`
	Days   any    `json:"days,omitempty" description:"Integer number of most recent trading days to return (1-365, default 30)"`
}

// StockTools implements the three TSE agent tools on top of an Upstream and a SymbolCache
type StockTools struct {
	upstream Upstream
	cache    SymbolCache
	Now      func() time.Time
}

// NewStockTools creates the tools and, when gk and registry are set, registers them
func NewStockTools(upstream Upstream, cache SymbolCache, gk *genkit.Genkit, registry *tools.Registry) *StockTools {
	t := &StockTools{
		upstream: upstream,
		cache:    cache,
		Now:      time.Now,
	}
	t.RegisterTools(gk, registry)
	return t
}

// RegisterTools implements tools.ToolPlugin
func (t *StockTools) RegisterTools(gk *genkit.Genkit, registry *tools.Registry) {
	if gk == nil || registry == nil {
		return
	}

	registry.Register(genkit.DefineTool(gk, SearchStockTool,
		`Search for stock names in the Tehran stock market.
Use this tool first to find the correct ticker symbol before fetching data; the other tools only know symbols returned here.
Present the matches to the user and ask them to confirm which stock they mean.`,
		func(ctx *ai.ToolContext, input *SearchInput) (*Envelope, error) {
			return t.SearchStock(ctx, input), nil
		},
	), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		var input SearchInput
		if err := decodeArgs(args, &input); err != nil {
			return nil, err
		}
		return t.SearchStock(ctx, &input), nil
	})

	registry.Register(genkit.DefineTool(gk, GetStockInfoTool,
		`Retrieve the latest closing price snapshot for a ticker symbol found with search_stock:
open, close, high, low, last and previous close prices, transaction count, volume and value, plus change and change percent.`,
		func(ctx *ai.ToolContext, input *InfoInput) (*Envelope, error) {
			return t.GetStockInfo(ctx, input), nil
		},
	), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		var input InfoInput
		if err := decodeArgs(args, &input); err != nil {
			return nil, err
		}
		return t.GetStockInfo(ctx, &input), nil
	})

	registry.Register(genkit.DefineTool(gk, GetStockHistoryTool,
		`Retrieve daily price history (most recent first) for a ticker symbol found with search_stock.
Arguments: symbol (string, required), days (integer 1-365, default 30).`,
		func(ctx *ai.ToolContext, input *HistoryInput) (*Envelope, error) {
			return t.GetStockHistory(ctx, input), nil
		},
	), func(ctx context.Context, args map[string]interface{}) (interface{}, error) {
		var input HistoryInput
		if err := decodeArgs(args, &input); err != nil {
			return nil, err
		}
		return t.GetStockHistory(ctx, &input), nil
	})

	log.Infof(context.Background(), "[TSETMC] Registered tools: %s, %s, %s", SearchStockTool, GetStockInfoTool, GetStockHistoryTool)
}

// SearchStock looks up tickers matching query and caches their instrument codes
func (t *StockTools) SearchStock(ctx context.Context, input *SearchInput) *Envelope {
	query := ""
	if input != nil {
		query = strings.TrimSpace(input.Query)
	}
	log.Debugf(ctx, "[TSETMC] search_stock executing with query=%q", query)

	if query == "" {
		return Failure([]SearchResult{}, "Query is required.")
	}

	instruments, err := t.upstream.SearchInstruments(ctx, query)
	if err != nil {
		return t.failure(ctx, SearchStockTool, query, []SearchResult{}, noTickersMessage, err)
	}

	if len(instruments) > MaxSearchResults {
		instruments = instruments[:MaxSearchResults]
	}

	results := make([]SearchResult, 0, len(instruments))
	for _, ins := range instruments {
		results = append(results, SearchResult{
			Name:           orUnknown(ins.Name),
			Symbol:         orUnknown(ins.Symbol),
			MarketName:     orUnknown(ins.MarketName),
			InstrumentCode: orUnknown(ins.InstrumentCode),
		})
		if ins.Symbol != "" && ins.InstrumentCode != "" {
			t.cache.Store(ins.Symbol, ins.InstrumentCode)
		}
	}

	log.Debugf(ctx, "[TSETMC] search_stock completed. Found %d tickers", len(results))
	return Success(results, fmt.Sprintf("Found %d matching tickers.", len(results)))
}

// GetStockInfo returns the latest closing price snapshot of a cached symbol
func (t *StockTools) GetStockInfo(ctx context.Context, input *InfoInput) *Envelope {
	symbol := ""
	if input != nil {
		symbol = strings.TrimSpace(input.Symbol)
	}
	log.Debugf(ctx, "[TSETMC] get_stock_info executing with symbol=%q", symbol)

	empty := map[string]any{}
	noData := fmt.Sprintf("No data found for stock '%s'.", symbol)

	code, ok := t.cache.Lookup(symbol)
	if !ok {
		return t.failure(ctx, GetStockInfoTool, symbol, empty, noData, ErrNotCached)
	}

	info, err := t.upstream.GetClosingPriceInfo(ctx, code)
	if err != nil {
		return t.failure(ctx, GetStockInfoTool, symbol, empty, noData, err)
	}

	snapshot := newSnapshot(symbol, code, info, t.Now())
	return Success(snapshot, fmt.Sprintf("Retrieved latest closing price for %s.", symbol))
}

// GetStockHistory returns up to input.Days trading days of a cached symbol, newest first
func (t *StockTools) GetStockHistory(ctx context.Context, input *HistoryInput) *Envelope {
	if input == nil {
		input = &HistoryInput{}
	}
	symbol := strings.TrimSpace(input.Symbol)
	days := ClampDays(input.Days)
	log.Debugf(ctx, "[TSETMC] get_stock_history executing with symbol=%q days=%d", symbol, days)

	if symbol == "" {
		return Failure([]HistoryEntry{}, "Symbol is required.")
	}

	noData := fmt.Sprintf("No history found for stock '%s'.", symbol)

	code, ok := t.cache.Lookup(symbol)
	if !ok {
		return t.failure(ctx, GetStockHistoryTool, symbol, []HistoryEntry{}, noData, ErrNotCached)
	}

	daily, err := t.upstream.GetDailyClosingPrices(ctx, code)
	if err != nil {
		return t.failure(ctx, GetStockHistoryTool, symbol, []HistoryEntry{}, noData, err)
	}

	entries := recentHistory(daily, days)
	return Success(entries, fmt.Sprintf("Retrieved %d days of history for %s.", len(entries), symbol))
}

// failure translates an internal error into the tool's failure envelope.
// Expected conditions keep their guidance message; anything else is logged
// and reported generically.
func (t *StockTools) failure(ctx context.Context, tool, input string, empty any, noData string, err error) *Envelope {
	var statusErr *StatusError
	switch {
	case errors.Is(err, ErrNotCached):
		return Failure(empty, notCachedMessage(input))
	case errors.Is(err, ErrNoData):
		log.Debugf(ctx, "[TSETMC] %s: %v", tool, err)
		return Failure(empty, noData)
	case errors.As(err, &statusErr):
		log.WithFields(ctx, logrus.Fields{"tool": tool, "input": input, "status": statusErr.StatusCode}).
			Warn("[TSETMC] upstream returned non-200 status")
		return Failure(empty, noData)
	default:
		log.WithFields(ctx, logrus.Fields{"tool": tool, "input": input}).
			Errorf("[TSETMC] tool failed: %v", err)
		return Failure(empty, genericFailureMessage)
	}
}

func notCachedMessage(symbol string) string {
	return fmt.Sprintf("Stock '%s' not found in cache. Please search for the stock first using search_stock tool.", symbol)
}

// decodeArgs maps loosely typed registry arguments onto a tool input struct
func decodeArgs(args map[string]interface{}, out any) error {
	b, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("failed to encode arguments: %w", err)
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("failed to parse arguments: %w", err)
	}
	return nil
}

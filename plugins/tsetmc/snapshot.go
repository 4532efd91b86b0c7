package tsetmc

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// SearchResult is one ticker returned by search_stock
type SearchResult struct {
	Name           string `json:"name"`
	Symbol         string `json:"symbol"`
	MarketName     string `json:"market_name"`
	InstrumentCode string `json:"instrument_code"`
}

// TradingData holds the price side of a snapshot
type TradingData struct {
	Open           *float64 `json:"open"`
	Close          *float64 `json:"close"`
	High           *float64 `json:"high"`
	Low            *float64 `json:"low"`
	Last           *float64 `json:"last"`
	YesterdayPrice *float64 `json:"yesterday_price"`
}

// VolumeData holds the activity side of a snapshot
type VolumeData struct {
	TransactionCount   *float64 `json:"transaction_count"`
	Volume             *float64 `json:"volume"`
	TotalValueRial     *float64 `json:"total_value_rial"`
	TotalValueMillions *float64 `json:"total_value_millions"`
}

// StockSnapshot is the get_stock_info payload
type StockSnapshot struct {
	Symbol         string      `json:"symbol"`
	InstrumentCode string      `json:"instrument_code"`
	TradingData    TradingData `json:"trading_data"`
	VolumeData     VolumeData  `json:"volume_data"`
	Change         *float64    `json:"change"`
	ChangePercent  *float64    `json:"change_percent"`
	Currency       string      `json:"currency"`
	Timestamp      string      `json:"timestamp"`
}

// HistoryEntry is one trading day of get_stock_history
type HistoryEntry struct {
	Date         string   `json:"date"`
	Open         *float64 `json:"open"`
	High         *float64 `json:"high"`
	Low          *float64 `json:"low"`
	Close        *float64 `json:"close"`
	Volume       *float64 `json:"volume"`
	Value        *float64 `json:"value"`
	Transactions *float64 `json:"transactions"`
}

const (
	DefaultHistoryDays = 30
	MaxHistoryDays     = 365
	MaxSearchResults   = 10
	unknownField       = "Unknown"
)

var (
	hundred = decimal.NewFromInt(100)
	million = decimal.NewFromInt(1_000_000)

	// exchangeCurrency is the ISO code prices are quoted in on TSE
	exchangeCurrency = currencyFor("IR")
)

func currencyFor(region string) string {
	r, err := language.ParseRegion(region)
	if err != nil {
		return ""
	}
	unit, ok := currency.FromRegion(r)
	if !ok {
		return ""
	}
	return unit.String()
}

// newSnapshot assembles the info payload and its derived fields
func newSnapshot(symbol, instrumentCode string, info *ClosingPriceInfo, capturedAt time.Time) *StockSnapshot {
	s := &StockSnapshot{
		Symbol:         symbol,
		InstrumentCode: instrumentCode,
		TradingData: TradingData{
			Open:           info.Open,
			Close:          info.Close,
			High:           info.High,
			Low:            info.Low,
			Last:           info.Last,
			YesterdayPrice: info.Yesterday,
		},
		VolumeData: VolumeData{
			TransactionCount:   info.TransactionCount,
			Volume:             info.Volume,
			TotalValueRial:     info.TotalValue,
			TotalValueMillions: toMillions(info.TotalValue),
		},
		Currency:  exchangeCurrency,
		Timestamp: capturedAt.Format(time.RFC3339),
	}
	s.Change, s.ChangePercent = priceChange(info.Close, info.Yesterday)
	return s
}

// priceChange returns close-yesterday and its percentage of yesterday rounded
// to 2 places. The percentage is 0 when yesterday is 0.
func priceChange(closePrice, yesterday *float64) (*float64, *float64) {
	if closePrice == nil || yesterday == nil {
		return nil, nil
	}

	prev := decimal.NewFromFloat(*yesterday)
	diff := decimal.NewFromFloat(*closePrice).Sub(prev)

	change := diff.InexactFloat64()
	percent := 0.0
	if !prev.IsZero() {
		percent = diff.Div(prev).Mul(hundred).Round(2).InexactFloat64()
	}
	return &change, &percent
}

func toMillions(rial *float64) *float64 {
	if rial == nil {
		return nil
	}
	v := decimal.NewFromFloat(*rial).Div(million).Round(2).InexactFloat64()
	return &v
}

// ClampDays coerces a raw days argument into [1, MaxHistoryDays].
// Missing, non-integer and non-positive values give DefaultHistoryDays.
func ClampDays(raw any) int {
	var days float64
	switch v := raw.(type) {
	case int:
		days = float64(v)
	case int32:
		days = float64(v)
	case int64:
		days = float64(v)
	case float32:
		days = float64(v)
	case float64:
		days = v
	default:
		return DefaultHistoryDays
	}

	if math.IsNaN(days) || math.IsInf(days, 0) || days != math.Trunc(days) || days <= 0 {
		return DefaultHistoryDays
	}
	if days > MaxHistoryDays {
		return MaxHistoryDays
	}
	return int(days)
}

// recentHistory sorts days newest first and keeps at most limit entries
func recentHistory(days []DailyClosingPrice, limit int) []HistoryEntry {
	sorted := make([]DailyClosingPrice, len(days))
	copy(sorted, days)
	// dEven is a fixed-width YYYYMMDD number, so string order is date order.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date > sorted[j].Date
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]HistoryEntry, 0, len(sorted))
	for _, d := range sorted {
		entries = append(entries, HistoryEntry{
			Date:         d.Date,
			Open:         d.Open,
			High:         d.High,
			Low:          d.Low,
			Close:        d.Close,
			Volume:       d.Volume,
			Value:        d.Value,
			Transactions: d.Transactions,
		})
	}
	return entries
}

func orUnknown(s string) string {
	if s == "" {
		return unknownField
	}
	return s
}

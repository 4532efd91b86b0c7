package tsetmc

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/tidwall/gjson"

	"github.com/va6996/tsetools/log"
)

const (
	DefaultBaseURL   = "https://cdn.tsetmc.com/api"
	DefaultUserAgent = "tsetools/1.0"
)

// Client handles TSETMC API requests
type Client struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
}

// NewClient creates a TSETMC client. A zero timeout leaves requests bounded
// only by the context passed to each call.
func NewClient(baseURL, userAgent string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &Client{
		BaseURL:    strings.TrimRight(baseURL, "/"),
		UserAgent:  userAgent,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// Instrument is one hit of the instrument search endpoint.
// Fields absent upstream are left empty.
type Instrument struct {
	Name           string // lVal30
	Symbol         string // lVal18AFC
	MarketName     string // flowTitle
	InstrumentCode string // insCode
}

// ClosingPriceInfo is the end-of-day snapshot of one instrument.
// Nil fields were absent or non-numeric upstream.
type ClosingPriceInfo struct {
	Open             *float64
	Close            *float64
	High             *float64
	Low              *float64
	Last             *float64
	Yesterday        *float64
	TransactionCount *float64
	Volume           *float64
	TotalValue       *float64
}

// DailyClosingPrice is one trading day of the daily closing list
type DailyClosingPrice struct {
	Date         string
	Open         *float64
	High         *float64
	Low          *float64
	Close        *float64
	Volume       *float64
	Value        *float64
	Transactions *float64
}

// SearchInstruments runs a free-text instrument search. Results keep upstream order.
func (c *Client) SearchInstruments(ctx context.Context, query string) ([]Instrument, error) {
	res, err := c.getJSON(ctx, "/Instrument/GetInstrumentSearch/"+url.PathEscape(query))
	if err != nil {
		return nil, err
	}

	list := res.Get("instrumentSearch")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil, fmt.Errorf("instrument search %q: %w", query, ErrNoData)
	}

	items := list.Array()
	instruments := make([]Instrument, 0, len(items))
	for _, item := range items {
		instruments = append(instruments, Instrument{
			Name:           text(item, "lVal30"),
			Symbol:         text(item, "lVal18AFC"),
			MarketName:     text(item, "flowTitle"),
			InstrumentCode: text(item, "insCode"),
		})
	}
	return instruments, nil
}

// GetClosingPriceInfo returns the latest closing price snapshot for an instrument
func (c *Client) GetClosingPriceInfo(ctx context.Context, instrumentCode string) (*ClosingPriceInfo, error) {
	res, err := c.getJSON(ctx, "/ClosingPrice/GetClosingPriceInfo/"+url.PathEscape(instrumentCode))
	if err != nil {
		return nil, err
	}

	info := res.Get("closingPriceInfo")
	if !info.IsObject() || len(info.Map()) == 0 {
		return nil, fmt.Errorf("closing price info %s: %w", instrumentCode, ErrNoData)
	}

	return &ClosingPriceInfo{
		Open:             number(info, "price_first", "priceFirst"),
		Close:            number(info, "pDrCotVal"),
		High:             number(info, "priceMax"),
		Low:              number(info, "priceMin"),
		Last:             number(info, "last", "pClosing"),
		Yesterday:        number(info, "priceYesterday"),
		TransactionCount: number(info, "zTotTran"),
		Volume:           number(info, "qTotTran5J"),
		TotalValue:       number(info, "qTotCap"),
	}, nil
}

// GetDailyClosingPrices returns the daily closing list in upstream order
func (c *Client) GetDailyClosingPrices(ctx context.Context, instrumentCode string) ([]DailyClosingPrice, error) {
	res, err := c.getJSON(ctx, "/ClosingPrice/GetClosingPriceDailyList/"+url.PathEscape(instrumentCode)+"/0")
	if err != nil {
		return nil, err
	}

	list := res.Get("closingPriceDaily")
	if !list.IsArray() || len(list.Array()) == 0 {
		return nil, fmt.Errorf("daily closing list %s: %w", instrumentCode, ErrNoData)
	}

	items := list.Array()
	days := make([]DailyClosingPrice, 0, len(items))
	for _, item := range items {
		days = append(days, DailyClosingPrice{
			Date:         text(item, "dEven"),
			Open:         number(item, "priceFirst", "price_first"),
			High:         number(item, "priceMax"),
			Low:          number(item, "priceMin"),
			Close:        number(item, "pDrCotVal"),
			Volume:       number(item, "qTotTran5J"),
			Value:        number(item, "qTotCap"),
			Transactions: number(item, "zTotTran"),
		})
	}
	return days, nil
}

// getJSON issues a single GET against BaseURL+path and parses the body
func (c *Client) getJSON(ctx context.Context, path string) (gjson.Result, error) {
	endpoint := c.BaseURL + path

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.UserAgent)

	log.Debugf(ctx, "[TSETMC] GET %s", endpoint)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return gjson.Result{}, &StatusError{StatusCode: resp.StatusCode, URL: endpoint}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return gjson.Result{}, fmt.Errorf("%w: reading body: %w", ErrRequestFailed, err)
	}
	if !gjson.ValidBytes(body) {
		return gjson.Result{}, fmt.Errorf("%w: body is not JSON", ErrInvalidResponse)
	}

	return gjson.ParseBytes(body), nil
}

// number returns the first of keys holding a finite JSON number.
// Literals outside float64 range (e.g. 1e400) parse as infinity and are skipped.
func number(obj gjson.Result, keys ...string) *float64 {
	for _, key := range keys {
		if r := obj.Get(key); r.Type == gjson.Number && !math.IsInf(r.Num, 0) && !math.IsNaN(r.Num) {
			v := r.Num
			return &v
		}
	}
	return nil
}

// text returns the field as a string, or "" when absent or null
func text(obj gjson.Result, key string) string {
	r := obj.Get(key)
	if !r.Exists() || r.Type == gjson.Null {
		return ""
	}
	return strings.TrimSpace(r.String())
}

package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// Client is the public (unsigned) market-data client for the Binance spot API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a market-data client. baseURL defaults to the production
// spot API when empty.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		// Public endpoints allow ~1200 weight/min; stay well under it.
		limiter: rate.NewLimiter(rate.Limit(10), 20),
	}
}

// Kline represents a candlestick
type Kline struct {
	OpenTime int64   `json:"open_time"`
	Open     float64 `json:"open"`
	High     float64 `json:"high"`
	Low      float64 `json:"low"`
	Close    float64 `json:"close"`
	Volume   float64 `json:"volume"`
}

// GetKlines fetches the most recent candlesticks for a symbol and interval.
func (c *Client) GetKlines(symbol, interval string, limit int) ([]Kline, error) {
	params := url.Values{}
	params.Set("symbol", symbol)
	params.Set("interval", interval)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := fmt.Sprintf("%s/api/v3/klines?%s", c.baseURL, params.Encode())

	body, err := c.get("klines", endpoint)
	if err != nil {
		return nil, err
	}

	var rawKlines [][]interface{}
	if err := json.Unmarshal(body, &rawKlines); err != nil {
		return nil, fmt.Errorf("error parsing klines: %w", err)
	}

	klines := make([]Kline, 0, len(rawKlines))
	for _, raw := range rawKlines {
		if len(raw) < 6 {
			continue
		}
		openTime, ok := raw[0].(float64)
		if !ok {
			continue
		}
		klines = append(klines, Kline{
			OpenTime: int64(openTime),
			Open:     parseFloat(raw[1]),
			High:     parseFloat(raw[2]),
			Low:      parseFloat(raw[3]),
			Close:    parseFloat(raw[4]),
			Volume:   parseFloat(raw[5]),
		})
	}

	return klines, nil
}

// GetCurrentPrice fetches the current price for a symbol.
func (c *Client) GetCurrentPrice(symbol string) (float64, error) {
	endpoint := fmt.Sprintf("%s/api/v3/ticker/price?symbol=%s", c.baseURL, symbol)

	body, err := c.get("ticker", endpoint)
	if err != nil {
		return 0, err
	}

	var priceResp struct {
		Symbol string  `json:"symbol"`
		Price  float64 `json:"price,string"`
	}
	if err := json.Unmarshal(body, &priceResp); err != nil {
		return 0, fmt.Errorf("error parsing price: %w", err)
	}

	return priceResp.Price, nil
}

// SymbolInfo represents basic symbol information including quantity filters.
type SymbolInfo struct {
	Symbol     string `json:"symbol"`
	Status     string `json:"status"`
	BaseAsset  string `json:"baseAsset"`
	QuoteAsset string `json:"quoteAsset"`
	Filters    []struct {
		FilterType string `json:"filterType"`
		StepSize   string `json:"stepSize"`
		MinQty     string `json:"minQty"`
	} `json:"filters"`
}

// LotStep returns the LOT_SIZE step for the symbol, or 0 when not published.
func (s *SymbolInfo) LotStep() float64 {
	for _, f := range s.Filters {
		if f.FilterType == "LOT_SIZE" {
			step, _ := strconv.ParseFloat(f.StepSize, 64)
			return step
		}
	}
	return 0
}

// ExchangeInfo represents exchange information response
type ExchangeInfo struct {
	Symbols []SymbolInfo `json:"symbols"`
}

// GetExchangeInfo fetches exchange information including symbol filters.
func (c *Client) GetExchangeInfo() (*ExchangeInfo, error) {
	endpoint := fmt.Sprintf("%s/api/v3/exchangeInfo", c.baseURL)

	body, err := c.get("exchangeInfo", endpoint)
	if err != nil {
		return nil, err
	}

	var exchangeInfo ExchangeInfo
	if err := json.Unmarshal(body, &exchangeInfo); err != nil {
		return nil, fmt.Errorf("error parsing exchange info: %w", err)
	}

	return &exchangeInfo, nil
}

func (c *Client) get(op, endpoint string) ([]byte, error) {
	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	resp, err := c.httpClient.Get(endpoint)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, apiError(op, resp.StatusCode, body)
	}

	return body, nil
}

func apiError(op string, status int, body []byte) error {
	var apiErr struct {
		Code int    `json:"code"`
		Msg  string `json:"msg"`
	}
	if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Msg == "" {
		apiErr.Msg = string(body)
	}
	return classifyHTTPError(op, status, apiErr.Code, apiErr.Msg)
}

func parseFloat(val interface{}) float64 {
	switch v := val.(type) {
	case string:
		f, _ := strconv.ParseFloat(v, 64)
		return f
	case float64:
		return v
	default:
		return 0
	}
}

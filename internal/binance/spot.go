package binance

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"time"

	"golang.org/x/time/rate"
)

// SpotClient is the signed client for account and order endpoints. The same
// implementation serves the sandbox (testnet base URL) and the real exchange.
type SpotClient struct {
	apiKey     string
	secretKey  string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewSpotClient creates a signed spot client.
func NewSpotClient(apiKey, secretKey, baseURL string) *SpotClient {
	if baseURL == "" {
		baseURL = "https://api.binance.com"
	}
	return &SpotClient{
		apiKey:     apiKey,
		secretKey:  secretKey,
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(5), 10),
	}
}

// OrderResponse represents a response from placing an order
type OrderResponse struct {
	Symbol              string  `json:"symbol"`
	OrderId             int64   `json:"orderId"`
	ClientOrderId       string  `json:"clientOrderId"`
	TransactTime        int64   `json:"transactTime"`
	Price               float64 `json:"price,string"`
	OrigQty             float64 `json:"origQty,string"`
	ExecutedQty         float64 `json:"executedQty,string"`
	CummulativeQuoteQty float64 `json:"cummulativeQuoteQty,string"`
	Status              string  `json:"status"`
	Type                string  `json:"type"`
	Side                string  `json:"side"`
}

// GetBalance returns the free (unlocked) balance for an asset.
func (c *SpotClient) GetBalance(asset string) (float64, error) {
	body, err := c.signedRequest("GET", "/api/v3/account", map[string]string{})
	if err != nil {
		return 0, err
	}

	var account struct {
		Balances []struct {
			Asset string  `json:"asset"`
			Free  float64 `json:"free,string"`
		} `json:"balances"`
	}
	if err := json.Unmarshal(body, &account); err != nil {
		return 0, fmt.Errorf("error parsing account: %w", err)
	}

	for _, b := range account.Balances {
		if b.Asset == asset {
			return b.Free, nil
		}
	}
	return 0, nil
}

// PlaceOrder places a new order. params must contain at least symbol, side,
// type and quantity; price and stopPrice are added by the caller when the
// order type requires them.
func (c *SpotClient) PlaceOrder(params map[string]string) (*OrderResponse, error) {
	body, err := c.signedRequest("POST", "/api/v3/order", params)
	if err != nil {
		return nil, err
	}

	var orderResp OrderResponse
	if err := json.Unmarshal(body, &orderResp); err != nil {
		return nil, fmt.Errorf("error parsing order response: %w", err)
	}

	return &orderResp, nil
}

// CancelOrder cancels an existing order.
func (c *SpotClient) CancelOrder(symbol string, orderId int64) error {
	_, err := c.signedRequest("DELETE", "/api/v3/order", map[string]string{
		"symbol":  symbol,
		"orderId": strconv.FormatInt(orderId, 10),
	})
	return err
}

// OpenOrders lists the currently open orders, optionally filtered by symbol.
func (c *SpotClient) OpenOrders(symbol string) ([]OrderResponse, error) {
	params := map[string]string{}
	if symbol != "" {
		params["symbol"] = symbol
	}
	body, err := c.signedRequest("GET", "/api/v3/openOrders", params)
	if err != nil {
		return nil, err
	}

	var orders []OrderResponse
	if err := json.Unmarshal(body, &orders); err != nil {
		return nil, fmt.Errorf("error parsing open orders: %w", err)
	}
	return orders, nil
}

func (c *SpotClient) signedRequest(method, path string, params map[string]string) ([]byte, error) {
	op := method + " " + path

	if c.apiKey == "" || c.secretKey == "" {
		return nil, &AuthenticationError{Op: op, Message: "missing API key or secret"}
	}

	if err := c.limiter.Wait(context.Background()); err != nil {
		return nil, &NetworkError{Op: op, Err: err}
	}

	params["timestamp"] = strconv.FormatInt(time.Now().UnixMilli(), 10)
	params["signature"] = c.sign(params)

	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}

	req, err := http.NewRequest(method, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("error building request: %w", err)
	}
	req.URL.RawQuery = values.Encode()
	req.Header.Set("X-MBX-APIKEY", c.apiKey)

	resp, err := c.httpClient.Do(req)
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

// sign creates the HMAC-SHA256 signature over the sorted query string.
func (c *SpotClient) sign(params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != "signature" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	query := ""
	for _, k := range keys {
		if query != "" {
			query += "&"
		}
		query += k + "=" + params[k]
	}

	mac := hmac.New(sha256.New, []byte(c.secretKey))
	mac.Write([]byte(query))
	return hex.EncodeToString(mac.Sum(nil))
}

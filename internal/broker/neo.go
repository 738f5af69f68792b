package broker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"neo-trader/internal/errors"
	"neo-trader/internal/models"
)

const defaultAuthBaseURL = "https://gw-napi.kotaksecurities.com"

// NeoClient implements API against the Kotak Neo HTTP gateway.
type NeoClient struct {
	httpClient  *http.Client
	consumerKey string
	authBaseURL string

	mu      sync.RWMutex
	session models.SessionData
	viewTok string // interim token between the two login steps
	viewSID string
}

// NeoConfig holds configuration for the Neo client.
type NeoConfig struct {
	ConsumerKey string
	AuthBaseURL string // override for tests
	Timeout     time.Duration
}

// NewNeoClient creates a new Neo API client.
func NewNeoClient(cfg NeoConfig) *NeoClient {
	baseURL := cfg.AuthBaseURL
	if baseURL == "" {
		baseURL = defaultAuthBaseURL
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &NeoClient{
		httpClient:  &http.Client{Timeout: timeout},
		consumerKey: cfg.ConsumerKey,
		authBaseURL: baseURL,
	}
}

// ApplySession configures the client from a persisted session record.
func (c *NeoClient) ApplySession(data models.SessionData) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.session = data
}

// Session returns a copy of the current session data.
func (c *NeoClient) Session() models.SessionData {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.session
}

// TOTPLogin performs the first handshake step: the one-time-passcode
// challenge bound to the account's mobile number and client code.
func (c *NeoClient) TOTPLogin(ctx context.Context, mobile, ucc, otp string) (*AuthResponse, error) {
	body := map[string]string{
		"mobileNumber": mobile,
		"ucc":          ucc,
		"totp":         otp,
	}

	var resp AuthResponse
	if err := c.post(ctx, c.authBaseURL+"/login/1.0/login/v6/totp/login", body, nil, &resp); err != nil {
		return nil, errors.NewAuthError("totp_login", "request failed", err)
	}
	if resp.Data.Token == "" {
		return nil, errors.NewAuthError("totp_login", "response carries no token", nil)
	}

	c.mu.Lock()
	c.viewTok = resp.Data.Token
	c.viewSID = resp.Data.SID
	c.mu.Unlock()

	return &resp, nil
}

// TOTPValidate performs the second handshake step: PIN validation that
// yields the full trading session.
func (c *NeoClient) TOTPValidate(ctx context.Context, mpin string) (*AuthResponse, error) {
	c.mu.RLock()
	headers := map[string]string{
		"Authorization": "Bearer " + c.viewTok,
		"sid":           c.viewSID,
	}
	c.mu.RUnlock()

	body := map[string]string{"mpin": mpin}

	var resp AuthResponse
	if err := c.post(ctx, c.authBaseURL+"/login/1.0/login/v6/totp/validate", body, headers, &resp); err != nil {
		return nil, errors.NewAuthError("mpin_validate", "request failed", err)
	}
	if resp.Data.Token == "" {
		return nil, errors.NewAuthError("mpin_validate", "response carries no token", nil)
	}

	c.ApplySession(resp.Data)
	return &resp, nil
}

// Positions fetches the raw position records.
func (c *NeoClient) Positions(ctx context.Context) (*PositionsResponse, error) {
	var resp PositionsResponse
	if err := c.get(ctx, c.tradeURL("/positions"), &resp); err != nil {
		return nil, errors.NewBrokerError("positions", 0, "request failed", err)
	}
	return &resp, nil
}

// Limits fetches the account limits.
func (c *NeoClient) Limits(ctx context.Context) (*LimitsResponse, error) {
	var resp LimitsResponse
	if err := c.get(ctx, c.tradeURL("/limits"), &resp); err != nil {
		return nil, errors.NewBrokerError("limits", 0, "request failed", err)
	}
	return &resp, nil
}

// PlaceOrder submits an order and returns the broker's acknowledgment.
func (c *NeoClient) PlaceOrder(ctx context.Context, order *models.Order) (*PlaceOrderResponse, error) {
	body := map[string]string{
		"es": order.ExchangeSegment,
		"pc": order.Product,
		"pr": order.Price,
		"pt": string(order.Type),
		"qt": order.Quantity,
		"rt": order.Validity,
		"ts": order.Symbol,
		"tt": string(order.Side),
		"tp": order.TriggerPrice,
		"dq": order.DisclosedQty,
		"am": "NO",
	}

	var resp PlaceOrderResponse
	if err := c.post(ctx, c.tradeURL("/orders"), body, c.sessionHeaders(), &resp); err != nil {
		return nil, errors.NewBrokerError("place_order", 0, "request failed", err)
	}
	return &resp, nil
}

// OrderReport fetches the full order report for the day.
func (c *NeoClient) OrderReport(ctx context.Context) (*OrderReportResponse, error) {
	var resp OrderReportResponse
	if err := c.get(ctx, c.tradeURL("/order/report"), &resp); err != nil {
		return nil, errors.NewBrokerError("order_report", 0, "request failed", err)
	}
	return &resp, nil
}

// OrderHistory fetches the history of one order.
func (c *NeoClient) OrderHistory(ctx context.Context, orderNo string) (*OrderHistoryResponse, error) {
	body := map[string]string{"nOrdNo": orderNo}

	var resp OrderHistoryResponse
	if err := c.post(ctx, c.tradeURL("/order/history"), body, c.sessionHeaders(), &resp); err != nil {
		return nil, errors.NewBrokerError("order_history", 0, "request failed", err)
	}
	return &resp, nil
}

// Logout invalidates the session on the broker side.
func (c *NeoClient) Logout(ctx context.Context) error {
	if err := c.post(ctx, c.tradeURL("/logout"), nil, c.sessionHeaders(), nil); err != nil {
		return errors.NewBrokerError("logout", 0, "request failed", err)
	}
	return nil
}

func (c *NeoClient) tradeURL(path string) string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	base := c.session.BaseURL
	if base == "" {
		base = c.authBaseURL
	}
	return base + path
}

func (c *NeoClient) sessionHeaders() map[string]string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return map[string]string{
		"Authorization": "Bearer " + c.session.Token,
		"sid":           c.session.SID,
		"rid":           c.session.RID,
		"hsServerId":    c.session.HSServerID,
	}
}

func (c *NeoClient) get(ctx context.Context, url string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	return c.do(req, c.sessionHeaders(), out)
}

func (c *NeoClient) post(ctx context.Context, url string, body interface{}, headers map[string]string, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, headers, out)
}

func (c *NeoClient) do(req *http.Request, headers map[string]string, out interface{}) error {
	req.Header.Set("neo-fin-key", c.consumerKey)
	req.Header.Set("Accept", "application/json")
	for k, v := range headers {
		if v != "" {
			req.Header.Set(k, v)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("http %d: %s", resp.StatusCode, bytes.TrimSpace(payload))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// Ensure NeoClient implements the API interface
var _ API = (*NeoClient)(nil)

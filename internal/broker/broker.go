// Package broker provides the Kotak Neo API client.
package broker

import (
	"context"
	"encoding/json"

	"neo-trader/internal/models"
)

// StatusOK is the service's "OK" status code carried in response envelopes.
const StatusOK = 200

// StatOK is the acknowledgment value on order placement responses.
const StatOK = "Ok"

// API defines the broker operations the application consumes. The wire
// protocol behind it is opaque; tests substitute fakes.
type API interface {
	// Authentication handshake
	TOTPLogin(ctx context.Context, mobile, ucc, otp string) (*AuthResponse, error)
	TOTPValidate(ctx context.Context, mpin string) (*AuthResponse, error)

	// ApplySession configures the client from a previously persisted
	// session instead of a fresh handshake.
	ApplySession(data models.SessionData)

	// Account
	Positions(ctx context.Context) (*PositionsResponse, error)
	Limits(ctx context.Context) (*LimitsResponse, error)
	Logout(ctx context.Context) error

	// Orders
	PlaceOrder(ctx context.Context, order *models.Order) (*PlaceOrderResponse, error)
	OrderReport(ctx context.Context) (*OrderReportResponse, error)
	OrderHistory(ctx context.Context, orderNo string) (*OrderHistoryResponse, error)
}

// AuthResponse is the envelope of both login handshake steps.
type AuthResponse struct {
	Data models.SessionData `json:"data"`
}

// PositionsResponse is the envelope of the positions call.
type PositionsResponse struct {
	StCode int                  `json:"stCode"`
	Data   []models.RawPosition `json:"data"`
}

// PlaceOrderResponse is the acknowledgment of an order placement.
// OrderNo is only meaningful when Stat equals StatOK.
type PlaceOrderResponse struct {
	Stat    string `json:"stat"`
	OrderNo string `json:"nOrdNo"`
}

// OrderReportResponse is the envelope of the full order report.
type OrderReportResponse struct {
	StCode int                       `json:"stCode"`
	Data   []models.OrderReportEntry `json:"data"`
}

// OrderHistoryResponse is the envelope of the per-order history call.
// The rows are display-only, so they stay raw.
type OrderHistoryResponse struct {
	StCode int               `json:"stCode"`
	Data   []json.RawMessage `json:"data"`
}

// LimitsResponse is the envelope of the limits call.
type LimitsResponse struct {
	StCode int             `json:"stCode"`
	Data   json.RawMessage `json:"data"`
}

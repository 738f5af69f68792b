// Package trading provides order execution and the price-stepper strategy.
package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"neo-trader/internal/broker"
	"neo-trader/internal/errors"
	"neo-trader/internal/logging"
	"neo-trader/internal/models"
)

// PollConfig bounds the order report polling loop. The zero MaxPolls
// keeps the original poll-until-terminal behavior; cancellation then
// only comes from the context.
type PollConfig struct {
	Interval time.Duration
	MaxPolls int
}

// DefaultPollConfig returns the default polling configuration.
func DefaultPollConfig() PollConfig {
	return PollConfig{Interval: 2 * time.Second}
}

// TrackedOrder is the live view of one order as it moves through the
// report. AvgPrice is refreshed on every poll so a caller can seed the
// next leg from the realized price even before completion.
type TrackedOrder struct {
	OrderNo      string
	Symbol       string
	Side         models.OrderSide
	State        models.OrderState
	Status       string
	RejectReason string
	AvgPrice     string
	Price        string
}

// Executor places orders and drives them to a terminal state.
type Executor struct {
	api    broker.API
	poll   PollConfig
	logger zerolog.Logger
}

// NewExecutor creates an order executor.
func NewExecutor(api broker.API, poll PollConfig, logger zerolog.Logger) *Executor {
	if poll.Interval <= 0 {
		poll.Interval = DefaultPollConfig().Interval
	}
	return &Executor{api: api, poll: poll, logger: logger}
}

// Place submits an order. Acknowledgment ("Ok") assigns the broker order
// number and moves the order to OPEN; anything else is a terminal
// rejection with no order number.
func (e *Executor) Place(ctx context.Context, order *models.Order) (*TrackedOrder, error) {
	tracked := &TrackedOrder{
		Symbol: order.Symbol,
		Side:   order.Side,
		State:  models.OrderSubmitted,
	}

	resp, err := e.api.PlaceOrder(ctx, order)
	if err != nil {
		return nil, err
	}
	if resp.Stat != broker.StatOK {
		tracked.State = models.OrderRejected
		return tracked, errors.NewOrderError("", order.Symbol, "place", "not acknowledged", errors.ErrOrderRejected)
	}

	tracked.OrderNo = resp.OrderNo
	tracked.State = models.OrderOpen
	logging.LogOrder(e.logger, tracked.OrderNo, order.Symbol, string(order.Side), string(models.OrderOpen))
	return tracked, nil
}

// Track polls the order report until the order reaches the terminal fill
// status. A poll that finds no matching entry just re-polls: report
// visibility lags placement. A report call error propagates; retry
// policy belongs to the caller.
func (e *Executor) Track(ctx context.Context, tracked *TrackedOrder) error {
	polls := 0
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		report, err := e.api.OrderReport(ctx)
		if err != nil {
			return err
		}

		if entry, ok := findOrder(report.Data, tracked.OrderNo); ok {
			tracked.Status = entry.Status
			tracked.RejectReason = entry.RejectReason
			tracked.Price = entry.Price
			if entry.AvgPrice != "" {
				tracked.AvgPrice = entry.AvgPrice
			}
			e.logger.Debug().
				Str("order_no", tracked.OrderNo).
				Str("status", entry.Status).
				Str("avg_price", tracked.AvgPrice).
				Msg("Order report poll")

			if entry.Status == models.StatusComplete {
				tracked.State = models.OrderComplete
				logging.LogFill(e.logger, tracked.OrderNo, tracked.Symbol, string(tracked.Side), tracked.AvgPrice)
				return nil
			}
		}

		polls++
		if e.poll.MaxPolls > 0 && polls >= e.poll.MaxPolls {
			return errors.NewOrderError(tracked.OrderNo, tracked.Symbol, "track",
				"order not terminal after poll budget", errors.ErrPollBudget)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(e.poll.Interval):
		}
	}
}

// Execute places an order and tracks it to completion.
func (e *Executor) Execute(ctx context.Context, order *models.Order) (*TrackedOrder, error) {
	tracked, err := e.Place(ctx, order)
	if err != nil {
		return tracked, err
	}
	if err := e.Track(ctx, tracked); err != nil {
		return tracked, err
	}
	return tracked, nil
}

// findOrder scans the report for the entry with the given order number.
// First match wins.
func findOrder(entries []models.OrderReportEntry, orderNo string) (models.OrderReportEntry, bool) {
	for _, entry := range entries {
		if entry.OrderNo == orderNo {
			return entry, true
		}
	}
	return models.OrderReportEntry{}, false
}

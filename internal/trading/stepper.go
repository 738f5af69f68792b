package trading

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"neo-trader/internal/models"
	"neo-trader/internal/positions"
)

// LegRecord is one completed strategy leg, handed to the journal.
type LegRecord struct {
	OrderNo  string
	Symbol   string
	Side     models.OrderSide
	Quantity string
	Price    string
	AvgPrice string
	Status   string
	PlacedAt time.Time
}

// LegRecorder persists completed legs. The stepper works fine without
// one; a nil recorder just skips journaling.
type LegRecorder interface {
	RecordLeg(ctx context.Context, leg LegRecord) error
}

// StepperConfig configures the alternating sell/buy strategy.
type StepperConfig struct {
	Order      models.Order    // template: symbol, segment, product, quantity, validity
	StartPrice decimal.Decimal // first sell leg price
	DownOffset decimal.Decimal // subtracted from the realized sell price
	UpOffset   decimal.Decimal // added to the realized buy price
	MaxCycles  int             // sell+buy pairs; 0 runs until the context is cancelled
}

// Stepper alternates sell and buy legs, stepping each leg's limit price
// off the previous leg's realized average price.
type Stepper struct {
	exec    *Executor
	journal LegRecorder
	cfg     StepperConfig
	logger  zerolog.Logger
}

// NewStepper creates a price-stepper strategy.
func NewStepper(exec *Executor, journal LegRecorder, cfg StepperConfig, logger zerolog.Logger) *Stepper {
	return &Stepper{exec: exec, journal: journal, cfg: cfg, logger: logger}
}

// Run drives the strategy: sell at the start price, track to completion,
// buy at realized minus the down offset, track, sell at realized plus
// the up offset, and so on. One leg is in flight at a time. The loop
// ends when the context is cancelled, MaxCycles pairs have completed, or
// a leg fails.
func (s *Stepper) Run(ctx context.Context) error {
	price := s.cfg.StartPrice
	side := models.SideSell
	cycles := 0

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		order := s.cfg.Order
		order.Side = side
		order.Type = models.OrderTypeLimit
		order.Price = price.String()

		s.logger.Info().
			Str("side", string(side)).
			Str("price", order.Price).
			Int("cycle", cycles).
			Msg("Placing strategy leg")

		tracked, err := s.exec.Execute(ctx, &order)
		if err != nil {
			return err
		}

		realized := positions.ParseDecimal(tracked.AvgPrice, price)
		s.record(ctx, tracked, &order)

		// The broker reports fractional fills; legs step in whole
		// currency units like the report price ladder.
		realized = realized.Truncate(0)
		if side == models.SideSell {
			price = realized.Sub(s.cfg.DownOffset)
		} else {
			price = realized.Add(s.cfg.UpOffset)
		}

		side = side.Opposite()
		if side == models.SideSell {
			// A sell/buy pair just finished.
			cycles++
			if s.cfg.MaxCycles > 0 && cycles >= s.cfg.MaxCycles {
				s.logger.Info().Int("cycles", cycles).Msg("Cycle budget reached, stopping")
				return nil
			}
		}
	}
}

func (s *Stepper) record(ctx context.Context, tracked *TrackedOrder, order *models.Order) {
	if s.journal == nil {
		return
	}
	leg := LegRecord{
		OrderNo:  tracked.OrderNo,
		Symbol:   order.Symbol,
		Side:     order.Side,
		Quantity: order.Quantity,
		Price:    order.Price,
		AvgPrice: tracked.AvgPrice,
		Status:   tracked.Status,
		PlacedAt: time.Now(),
	}
	if err := s.journal.RecordLeg(ctx, leg); err != nil {
		// Journaling is best-effort; the strategy keeps running.
		s.logger.Warn().Err(err).Str("order_no", leg.OrderNo).Msg("Failed to journal leg")
	}
}

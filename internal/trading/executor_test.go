package trading

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"neo-trader/internal/broker"
	apperrors "neo-trader/internal/errors"
	"neo-trader/internal/models"
)

// fakeBroker is a scriptable broker.API for execution tests. Reports are
// consumed in order; the last one repeats once the script runs out.
type fakeBroker struct {
	placeResp  *broker.PlaceOrderResponse
	placeErr   error
	placeCalls int
	placed     []models.Order

	reports    []broker.OrderReportResponse
	reportErr  error
	reportCall int
}

func (f *fakeBroker) PlaceOrder(ctx context.Context, order *models.Order) (*broker.PlaceOrderResponse, error) {
	f.placeCalls++
	f.placed = append(f.placed, *order)
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	if f.placeResp != nil {
		return f.placeResp, nil
	}
	return &broker.PlaceOrderResponse{Stat: broker.StatOK, OrderNo: "240001"}, nil
}

func (f *fakeBroker) OrderReport(ctx context.Context) (*broker.OrderReportResponse, error) {
	f.reportCall++
	if f.reportErr != nil {
		return nil, f.reportErr
	}
	if len(f.reports) == 0 {
		return &broker.OrderReportResponse{StCode: broker.StatusOK}, nil
	}
	i := f.reportCall - 1
	if i >= len(f.reports) {
		i = len(f.reports) - 1
	}
	resp := f.reports[i]
	return &resp, nil
}

func (f *fakeBroker) TOTPLogin(ctx context.Context, mobile, ucc, otp string) (*broker.AuthResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBroker) TOTPValidate(ctx context.Context, mpin string) (*broker.AuthResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeBroker) ApplySession(data models.SessionData) {}

func (f *fakeBroker) Positions(ctx context.Context) (*broker.PositionsResponse, error) {
	return &broker.PositionsResponse{StCode: broker.StatusOK}, nil
}

func (f *fakeBroker) Limits(ctx context.Context) (*broker.LimitsResponse, error) {
	return &broker.LimitsResponse{StCode: broker.StatusOK}, nil
}

func (f *fakeBroker) Logout(ctx context.Context) error { return nil }

func (f *fakeBroker) OrderHistory(ctx context.Context, orderNo string) (*broker.OrderHistoryResponse, error) {
	return &broker.OrderHistoryResponse{StCode: broker.StatusOK, Data: []json.RawMessage{}}, nil
}

func testExecutor(api broker.API, maxPolls int) *Executor {
	return NewExecutor(api, PollConfig{Interval: time.Millisecond, MaxPolls: maxPolls}, zerolog.Nop())
}

func limitOrder(side models.OrderSide, price string) *models.Order {
	return &models.Order{
		Symbol:          "SILVERMIC25AUGFUT",
		ExchangeSegment: "mcx_fo",
		Product:         "MIS",
		Side:            side,
		Type:            models.OrderTypeLimit,
		Quantity:        "1",
		Price:           price,
		Validity:        "DAY",
	}
}

func TestPlaceAcknowledged(t *testing.T) {
	api := &fakeBroker{placeResp: &broker.PlaceOrderResponse{Stat: broker.StatOK, OrderNo: "240042"}}
	exec := testExecutor(api, 0)

	tracked, err := exec.Place(context.Background(), limitOrder(models.SideSell, "91000"))
	if err != nil {
		t.Fatalf("Place: %v", err)
	}
	if tracked.OrderNo != "240042" {
		t.Errorf("order no = %q, want 240042", tracked.OrderNo)
	}
	if tracked.State != models.OrderOpen {
		t.Errorf("state = %v, want OPEN", tracked.State)
	}
}

func TestPlaceRejection(t *testing.T) {
	api := &fakeBroker{placeResp: &broker.PlaceOrderResponse{Stat: "Not_Ok"}}
	exec := testExecutor(api, 0)

	tracked, err := exec.Place(context.Background(), limitOrder(models.SideSell, "91000"))
	if err == nil {
		t.Fatal("want error for unacknowledged placement")
	}
	if !apperrors.Is(err, apperrors.ErrOrderRejected) {
		t.Errorf("want ErrOrderRejected in chain, got %v", err)
	}
	if tracked.State != models.OrderRejected {
		t.Errorf("state = %v, want REJECTED", tracked.State)
	}
	if tracked.OrderNo != "" {
		t.Errorf("rejected order carries an order number: %q", tracked.OrderNo)
	}
}

func TestTrackPollsUntilComplete(t *testing.T) {
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: "open"}}},
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: "open", AvgPrice: "90995.00"}}},
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: models.StatusComplete, AvgPrice: "90998.50"}}},
		},
	}
	exec := testExecutor(api, 0)

	tracked, err := exec.Execute(context.Background(), limitOrder(models.SideSell, "91000"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tracked.State != models.OrderComplete {
		t.Errorf("state = %v, want COMPLETE", tracked.State)
	}
	if tracked.AvgPrice != "90998.50" {
		t.Errorf("avg price = %q, want 90998.50", tracked.AvgPrice)
	}
	if api.reportCall != 3 {
		t.Errorf("report calls = %d, want 3", api.reportCall)
	}
}

func TestTrackRepollsWhenOrderMissingFromReport(t *testing.T) {
	// The report lags placement: the first poll does not show the order
	// at all. That is not an error, just another poll.
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{{OrderNo: "999999", Status: "open"}}},
			{Data: []models.OrderReportEntry{
				{OrderNo: "999999", Status: "open"},
				{OrderNo: "240001", Status: models.StatusComplete, AvgPrice: "100.00"},
			}},
		},
	}
	exec := testExecutor(api, 0)

	tracked, err := exec.Execute(context.Background(), limitOrder(models.SideBuy, "100"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tracked.State != models.OrderComplete {
		t.Errorf("state = %v, want COMPLETE", tracked.State)
	}
}

func TestTrackFirstMatchWins(t *testing.T) {
	// Duplicate order numbers in one report: the first entry is the one
	// that counts.
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{
				{OrderNo: "240001", Status: models.StatusComplete, AvgPrice: "111.00"},
				{OrderNo: "240001", Status: "open", AvgPrice: "222.00"},
			}},
		},
	}
	exec := testExecutor(api, 0)

	tracked, err := exec.Execute(context.Background(), limitOrder(models.SideSell, "110"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tracked.AvgPrice != "111.00" {
		t.Errorf("avg price = %q, want first entry's 111.00", tracked.AvgPrice)
	}
}

func TestTrackKeepsLastAvgPriceWhenEntryOmitsIt(t *testing.T) {
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: "open", AvgPrice: "105.25"}}},
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: models.StatusComplete}}},
		},
	}
	exec := testExecutor(api, 0)

	tracked, err := exec.Execute(context.Background(), limitOrder(models.SideSell, "105"))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if tracked.AvgPrice != "105.25" {
		t.Errorf("avg price = %q, want retained 105.25", tracked.AvgPrice)
	}
}

func TestTrackPollBudgetExhausted(t *testing.T) {
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: "open"}}},
		},
	}
	exec := testExecutor(api, 3)

	_, err := exec.Execute(context.Background(), limitOrder(models.SideSell, "91000"))
	if err == nil {
		t.Fatal("want error when poll budget is exhausted")
	}
	if !apperrors.Is(err, apperrors.ErrPollBudget) {
		t.Errorf("want ErrPollBudget in chain, got %v", err)
	}
	if api.reportCall != 3 {
		t.Errorf("report calls = %d, want 3", api.reportCall)
	}
}

func TestTrackReportErrorPropagates(t *testing.T) {
	reportErr := errors.New("gateway timeout")
	api := &fakeBroker{reportErr: reportErr}
	exec := testExecutor(api, 0)

	_, err := exec.Execute(context.Background(), limitOrder(models.SideSell, "91000"))
	if !errors.Is(err, reportErr) {
		t.Errorf("want report error to propagate, got %v", err)
	}
	if api.reportCall != 1 {
		t.Errorf("report calls = %d, want 1 (no retry inside Track)", api.reportCall)
	}
}

func TestTrackCancellation(t *testing.T) {
	api := &fakeBroker{
		reports: []broker.OrderReportResponse{
			{Data: []models.OrderReportEntry{{OrderNo: "240001", Status: "open"}}},
		},
	}
	exec := NewExecutor(api, PollConfig{Interval: time.Hour}, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := exec.Execute(ctx, limitOrder(models.SideSell, "91000"))
		done <- err
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("want context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Track did not return after cancellation")
	}
}

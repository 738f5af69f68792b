package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"

	"neo-trader/internal/broker"
	"neo-trader/internal/config"
	apperrors "neo-trader/internal/errors"
	"neo-trader/internal/models"
)

// fakeAPI is a scriptable broker.API for lifecycle tests.
type fakeAPI struct {
	positionsStCode int
	positionsErr    error

	loginCalls    int
	validateCalls int
	loginResp     *broker.AuthResponse
	validateResp  *broker.AuthResponse
	loginErr      error
	validateErr   error

	applied []models.SessionData
}

func (f *fakeAPI) TOTPLogin(ctx context.Context, mobile, ucc, otp string) (*broker.AuthResponse, error) {
	f.loginCalls++
	if f.loginErr != nil {
		return nil, f.loginErr
	}
	if f.loginResp != nil {
		return f.loginResp, nil
	}
	return &broker.AuthResponse{Data: models.SessionData{Token: "view-token"}}, nil
}

func (f *fakeAPI) TOTPValidate(ctx context.Context, mpin string) (*broker.AuthResponse, error) {
	f.validateCalls++
	if f.validateErr != nil {
		return nil, f.validateErr
	}
	if f.validateResp != nil {
		return f.validateResp, nil
	}
	return &broker.AuthResponse{Data: models.SessionData{Token: "fresh-token", SID: "fresh-sid"}}, nil
}

func (f *fakeAPI) ApplySession(data models.SessionData) {
	f.applied = append(f.applied, data)
}

func (f *fakeAPI) Positions(ctx context.Context) (*broker.PositionsResponse, error) {
	if f.positionsErr != nil {
		return nil, f.positionsErr
	}
	return &broker.PositionsResponse{StCode: f.positionsStCode}, nil
}

func (f *fakeAPI) Limits(ctx context.Context) (*broker.LimitsResponse, error) {
	return &broker.LimitsResponse{StCode: broker.StatusOK}, nil
}

func (f *fakeAPI) Logout(ctx context.Context) error { return nil }

func (f *fakeAPI) PlaceOrder(ctx context.Context, order *models.Order) (*broker.PlaceOrderResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) OrderReport(ctx context.Context) (*broker.OrderReportResponse, error) {
	return nil, errors.New("not implemented")
}

func (f *fakeAPI) OrderHistory(ctx context.Context, orderNo string) (*broker.OrderHistoryResponse, error) {
	return nil, errors.New("not implemented")
}

func fixedOTP() (string, error) { return "123456", nil }

func newTestManager(t *testing.T, api *fakeAPI) (*Manager, *Store) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "session.json"))
	creds := config.Credentials{ConsumerKey: "ck", Mobile: "+911234567890", UCC: "UCC1", MPIN: "000000"}
	return NewManager(api, store, creds, fixedOTP, zerolog.Nop()), store
}

func TestHandleReusesLiveSession(t *testing.T) {
	api := &fakeAPI{positionsStCode: broker.StatusOK}
	mgr, store := newTestManager(t, api)

	if err := store.Save(&models.SessionRecord{Data: models.SessionData{Token: "cached", SID: "s1"}}); err != nil {
		t.Fatal(err)
	}

	handle, err := mgr.Handle(context.Background())
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if handle == nil {
		t.Fatal("nil handle")
	}
	if api.loginCalls != 0 || api.validateCalls != 0 {
		t.Errorf("login invoked for a live session: login=%d validate=%d", api.loginCalls, api.validateCalls)
	}
	if len(api.applied) != 1 || api.applied[0].Token != "cached" {
		t.Errorf("cached session not applied: %+v", api.applied)
	}
}

func TestHandleReauthenticatesStaleSession(t *testing.T) {
	cases := []struct {
		name string
		api  *fakeAPI
	}{
		{"non-OK status", &fakeAPI{positionsStCode: 401}},
		{"transport error", &fakeAPI{positionsErr: errors.New("connection reset")}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mgr, store := newTestManager(t, tc.api)
			if err := store.Save(&models.SessionRecord{Data: models.SessionData{Token: "stale"}}); err != nil {
				t.Fatal(err)
			}

			if _, err := mgr.Handle(context.Background()); err != nil {
				t.Fatalf("Handle: %v", err)
			}

			if tc.api.loginCalls != 1 || tc.api.validateCalls != 1 {
				t.Errorf("want exactly one auth sequence, got login=%d validate=%d",
					tc.api.loginCalls, tc.api.validateCalls)
			}

			rec, state := store.Load()
			if state != StateValid || rec.Data.Token != "fresh-token" {
				t.Errorf("fresh session not persisted: state=%v rec=%+v", state, rec)
			}
		})
	}
}

func TestHandleAuthenticatesWhenRecordAbsent(t *testing.T) {
	api := &fakeAPI{positionsStCode: broker.StatusOK}
	mgr, store := newTestManager(t, api)

	if _, err := mgr.Handle(context.Background()); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if api.loginCalls != 1 || api.validateCalls != 1 {
		t.Errorf("want one auth sequence, got login=%d validate=%d", api.loginCalls, api.validateCalls)
	}

	rec, state := store.Load()
	if state != StateValid || rec.Data.SID != "fresh-sid" {
		t.Errorf("session not persisted: state=%v rec=%+v", state, rec)
	}
}

func TestHandleIsIdempotent(t *testing.T) {
	api := &fakeAPI{positionsStCode: broker.StatusOK}
	mgr, store := newTestManager(t, api)
	if err := store.Save(&models.SessionRecord{Data: models.SessionData{Token: "cached"}}); err != nil {
		t.Fatal(err)
	}

	first, err := mgr.Handle(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	// Break the API so any re-validation would fail loudly.
	api.positionsErr = errors.New("should not be called again")

	second, err := mgr.Handle(context.Background())
	if err != nil {
		t.Fatalf("second Handle: %v", err)
	}
	if first != second {
		t.Error("second call returned a different handle")
	}
	if api.loginCalls != 0 {
		t.Errorf("login invoked on cached handle: %d", api.loginCalls)
	}
}

func TestHandleAuthFailureIsFatal(t *testing.T) {
	api := &fakeAPI{
		positionsStCode: 401,
		validateErr:     apperrors.NewAuthError("mpin_validate", "bad pin", nil),
	}
	mgr, store := newTestManager(t, api)

	_, err := mgr.Handle(context.Background())
	if err == nil {
		t.Fatal("want error for failed validation")
	}
	var authErr *apperrors.AuthError
	if !apperrors.As(err, &authErr) {
		t.Errorf("want AuthError, got %T: %v", err, err)
	}
	// Exactly one attempt, no retry loop.
	if api.loginCalls != 1 || api.validateCalls != 1 {
		t.Errorf("retried: login=%d validate=%d", api.loginCalls, api.validateCalls)
	}
	if _, state := store.Load(); state != StateAbsent {
		t.Error("failed authentication must not persist a record")
	}
}

func TestHandleRejectsTokenlessAuthResponse(t *testing.T) {
	api := &fakeAPI{
		positionsStCode: 401,
		validateResp:    &broker.AuthResponse{Data: models.SessionData{SID: "sid-only"}},
	}
	mgr, _ := newTestManager(t, api)

	_, err := mgr.Handle(context.Background())
	if err == nil {
		t.Fatal("want error for token-less validate response")
	}
	if !apperrors.Is(err, apperrors.ErrAuthFailed) {
		t.Errorf("want ErrAuthFailed in chain, got %v", err)
	}
}

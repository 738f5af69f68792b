package session

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"neo-trader/internal/broker"
	"neo-trader/internal/config"
	"neo-trader/internal/errors"
	"neo-trader/internal/logging"
	"neo-trader/internal/models"
)

// OTPSource supplies the one-time passcode for the login handshake,
// either generated from a TOTP secret or read interactively.
type OTPSource func() (string, error)

// Manager decides whether the cached session is usable and falls back to
// the full two-step login when it is not. It is constructed once at
// process entry and passed explicitly to everything that needs a handle.
type Manager struct {
	api    broker.API
	store  *Store
	creds  config.Credentials
	otp    OTPSource
	logger zerolog.Logger

	mu     sync.Mutex
	handle broker.API
}

// NewManager creates a session lifecycle manager.
func NewManager(api broker.API, store *Store, creds config.Credentials, otp OTPSource, logger zerolog.Logger) *Manager {
	return &Manager{
		api:    api,
		store:  store,
		creds:  creds,
		otp:    otp,
		logger: logger,
	}
}

// Handle returns an authenticated handle, reusing the persisted session
// when it still passes a liveness check and re-authenticating otherwise.
// The first call does the work; subsequent calls return the cached
// handle without re-validating.
func (m *Manager) Handle(ctx context.Context) (broker.API, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil {
		return m.handle, nil
	}

	if rec, state := m.store.Load(); state == StateValid {
		m.api.ApplySession(rec.Data)
		if m.alive(ctx) {
			logging.LogSession(m.logger, "reused", rec.Data.Token)
			m.handle = m.api
			return m.handle, nil
		}
		// Transport failure, malformed response, and expired credential
		// all read the same here: the stored session is stale.
		m.logger.Warn().Msg("Stored session failed liveness check, re-authenticating")
	} else {
		m.logger.Info().Msg("No usable session record, authenticating")
	}

	if err := m.authenticate(ctx); err != nil {
		return nil, err
	}

	m.handle = m.api
	return m.handle, nil
}

// alive probes the session with a lightweight read-only call. Only a
// structured response with the OK status code counts as alive.
func (m *Manager) alive(ctx context.Context) bool {
	resp, err := m.api.Positions(ctx)
	if err != nil || resp == nil {
		return false
	}
	return resp.StCode == broker.StatusOK
}

// authenticate runs the full two-step handshake and persists the result.
// Failures are fatal to the caller; there is no retry loop.
func (m *Manager) authenticate(ctx context.Context) error {
	otp, err := m.otp()
	if err != nil {
		return errors.NewAuthError("totp_login", "obtaining one-time passcode", err)
	}

	login, err := m.api.TOTPLogin(ctx, m.creds.Mobile, m.creds.UCC, otp)
	if err != nil {
		return err
	}
	if login.Data.Token == "" {
		return errors.NewAuthError("totp_login", "response carries no token", nil)
	}
	m.logger.Debug().Msg("TOTP login step accepted")

	resp, err := m.api.TOTPValidate(ctx, m.creds.MPIN)
	if err != nil {
		return err
	}
	if resp.Data.Token == "" {
		return errors.NewAuthError("mpin_validate", "response carries no token", nil)
	}

	// Persist before handing the session out so the next run can reuse it.
	rec := &models.SessionRecord{Data: resp.Data}
	if err := m.store.Save(rec); err != nil {
		return errors.Wrap(err, "persisting session record")
	}

	logging.LogSession(m.logger, "authenticated", resp.Data.Token)
	return nil
}

// Logout invalidates the broker session and removes the persisted record.
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.api.Logout(ctx); err != nil {
		m.logger.Warn().Err(err).Msg("Broker logout failed, clearing local record anyway")
	}
	m.handle = nil
	return m.store.Remove()
}

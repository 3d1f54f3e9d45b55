package goSession

import (
	"context"
	"strings"
	"time"

	"github.com/MrEthical07/goSession/token"
)

// Initialize restores a previous session from stored credentials. It is
// called once after [Builder.Build]. Bootstrap is silent: any failure path
// resolves to the unauthenticated state without surfacing an error, so a
// user who was never shown as logged in never sees an error banner on
// cold start.
func (m *Manager) Initialize(ctx context.Context) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	gen := m.beginAuthenticating()

	access, err := m.storedToken(ctx, m.config.Keys.AccessToken)
	if err != nil {
		return m.bootstrapUnauthenticated(ctx, gen, "missing_access_token"), nil
	}
	if _, err := m.storedToken(ctx, m.config.Keys.RefreshToken); err != nil {
		return m.bootstrapUnauthenticated(ctx, gen, "missing_refresh_token"), nil
	}

	var user *User
	if !token.Expired(access, time.Now()) {
		user, _ = m.client.GetCurrentUser(ctx, access)
	}
	if user == nil {
		// One refresh attempt, then a single getCurrentUser retry.
		if ok, _ := m.refreshOnce(ctx, triggerBootstrap); ok {
			if access, err = m.storedToken(ctx, m.config.Keys.AccessToken); err == nil {
				user, _ = m.client.GetCurrentUser(ctx, access)
			}
		}
	}
	if user == nil {
		return m.bootstrapUnauthenticated(ctx, gen, "session_restore_failed"), nil
	}

	m.metricInc(MetricBootstrapRestored)
	m.emitAudit(ctx, auditEventBootstrapRestored, triggerBootstrap, true, user.ID, nil, nil)
	st := stateAuthenticated(user.clone())
	if !m.setState(gen, st) {
		return m.CurrentState(), nil
	}
	return st, nil
}

func (m *Manager) bootstrapUnauthenticated(ctx context.Context, gen uint64, reason string) SessionState {
	m.clearCredentials(ctx)
	m.metricInc(MetricBootstrapUnauthenticated)
	m.emitAudit(ctx, auditEventBootstrapUnauthenticated, triggerBootstrap, false, "", nil, func() map[string]string {
		return map[string]string{
			"reason": reason,
		}
	})
	st := stateUnauthenticated()
	if !m.setState(gen, st) {
		return m.CurrentState()
	}
	return st
}

// Login authenticates with email and password. On success the state
// becomes authenticated and both background timers start. When the
// backend demands a second factor, Login returns a [*TwoFactorChallenge]
// and the state returns to unauthenticated rather than error, so the UI
// can route to the 2FA flow.
func (m *Manager) Login(ctx context.Context, email, password string) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return m.CurrentState(), ErrInvalidEmail
	}
	if password == "" {
		return m.CurrentState(), ErrInvalidInput
	}

	gen := m.beginAuthenticating()
	outcome, err := m.client.Login(ctx, email, password)
	return m.finishAuthFlow(ctx, gen, outcome, err, auditEventLogin, MetricLoginSuccess, MetricLoginFailure)
}

// Register creates a new account and, on success, establishes an
// authenticated session exactly like a login.
func (m *Manager) Register(ctx context.Context, req RegisterRequest) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	req.Email = strings.TrimSpace(req.Email)
	req.FullName = strings.TrimSpace(req.FullName)
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		return m.CurrentState(), ErrInvalidEmail
	}
	if req.Password == "" || req.FullName == "" {
		return m.CurrentState(), ErrInvalidInput
	}

	gen := m.beginAuthenticating()
	outcome, err := m.client.Register(ctx, req)
	return m.finishAuthFlow(ctx, gen, outcome, err, auditEventRegister, MetricRegisterSuccess, MetricRegisterFailure)
}

// VerifyTwoFactor completes a login challenge previously surfaced through
// a [*TwoFactorChallenge].
func (m *Manager) VerifyTwoFactor(ctx context.Context, challengeSession, code string) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	if strings.TrimSpace(challengeSession) == "" || strings.TrimSpace(code) == "" {
		return m.CurrentState(), ErrInvalidInput
	}

	gen := m.beginAuthenticating()
	outcome, err := m.client.VerifyTwoFactor(ctx, challengeSession, code)
	return m.finishAuthFlow(ctx, gen, outcome, err, auditEventTwoFactor, MetricTwoFactorSuccess, MetricTwoFactorFailure)
}

// VerifyMagicLink redeems a passwordless login token.
func (m *Manager) VerifyMagicLink(ctx context.Context, linkToken string) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	if strings.TrimSpace(linkToken) == "" {
		return m.CurrentState(), ErrInvalidInput
	}

	gen := m.beginAuthenticating()
	outcome, err := m.client.VerifyMagicLink(ctx, linkToken)
	return m.finishAuthFlow(ctx, gen, outcome, err, auditEventMagicLink, MetricMagicLinkSuccess, MetricMagicLinkFailure)
}

// OAuthLogin exchanges an OAuth redirect callback for a session.
func (m *Manager) OAuthLogin(ctx context.Context, req OAuthRequest) (SessionState, error) {
	if err := m.ready(); err != nil {
		return m.CurrentState(), err
	}
	if strings.TrimSpace(req.Provider) == "" || strings.TrimSpace(req.Code) == "" {
		return m.CurrentState(), ErrInvalidInput
	}

	gen := m.beginAuthenticating()
	outcome, err := m.client.OAuthLogin(ctx, req)
	return m.finishAuthFlow(ctx, gen, outcome, err, auditEventOAuth, MetricOAuthSuccess, MetricOAuthFailure)
}

// UpdateUser replaces the embedded user snapshot in place when the
// session is authenticated. The state kind does not change and the timers
// keep their schedule. A no-op in any other phase.
func (m *Manager) UpdateUser(user *User) SessionState {
	if m == nil || user == nil {
		return m.CurrentState()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || m.state.Phase != PhaseAuthenticated {
		return m.state
	}
	m.applyStateLocked(stateAuthenticated(user.clone()))
	return m.state
}

// finishAuthFlow maps a tagged AuthClient outcome onto the state machine.
// All interactive credential flows (login, register, 2FA, magic link,
// OAuth) converge here.
func (m *Manager) finishAuthFlow(
	ctx context.Context,
	gen uint64,
	outcome *LoginOutcome,
	err error,
	eventType string,
	successMetric, failureMetric MetricID,
) (SessionState, error) {
	if err != nil {
		m.metricInc(failureMetric)
		m.emitAudit(ctx, eventType, triggerManual, false, "", err, nil)
		st := stateError(errorMessage(err))
		if !m.setState(gen, st) {
			return m.CurrentState(), err
		}
		return st, err
	}
	if outcome == nil {
		m.metricInc(failureMetric)
		st := stateError(ErrTransport.Error())
		if !m.setState(gen, st) {
			return m.CurrentState(), ErrTransport
		}
		return st, ErrTransport
	}

	if outcome.TwoFactorRequired {
		m.metricInc(MetricTwoFactorRequired)
		m.emitAudit(ctx, eventType, triggerManual, false, "", ErrTwoFactorRequired, nil)
		st := stateUnauthenticated()
		if !m.setState(gen, st) {
			st = m.CurrentState()
		}
		return st, &TwoFactorChallenge{Session: outcome.TwoFactorSession}
	}

	if err := m.persistTokens(ctx, gen, outcome.Tokens); err != nil {
		m.metricInc(failureMetric)
		m.emitAudit(ctx, eventType, triggerManual, false, "", err, nil)
		st := stateError(errorMessage(err))
		if !m.setState(gen, st) {
			return m.CurrentState(), err
		}
		return st, err
	}

	user := outcome.User
	if user == nil {
		// Some backends return only tokens; resolve the profile before
		// declaring the session authenticated.
		fetched, ferr := m.client.GetCurrentUser(ctx, outcome.Tokens.AccessToken)
		if ferr != nil {
			m.metricInc(failureMetric)
			m.emitAudit(ctx, eventType, triggerManual, false, "", ferr, nil)
			st := stateError(errorMessage(ferr))
			if !m.setState(gen, st) {
				return m.CurrentState(), ferr
			}
			return st, ferr
		}
		user = fetched
	}

	m.metricInc(successMetric)
	m.emitAudit(ctx, eventType, triggerManual, true, user.ID, nil, nil)
	st := stateAuthenticated(user.clone())
	if !m.setState(gen, st) {
		return m.CurrentState(), nil
	}
	return st, nil
}

// persistTokens writes the new token pair to the credential store unless
// a logout or dispose invalidated the operation's generation; a stale
// write would resurrect credentials the logout just cleared.
func (m *Manager) persistTokens(ctx context.Context, gen uint64, pair TokenPair) error {
	if pair.AccessToken == "" {
		return ErrTransport
	}
	if m.currentGen() != gen {
		m.metricInc(MetricStaleResultDiscarded)
		return ErrManagerClosed
	}
	if err := m.store.Set(ctx, m.config.Keys.AccessToken, pair.AccessToken); err != nil {
		return ErrCredentialStoreUnavailable
	}
	if pair.RefreshToken != "" {
		if err := m.store.Set(ctx, m.config.Keys.RefreshToken, pair.RefreshToken); err != nil {
			return ErrCredentialStoreUnavailable
		}
	}
	return nil
}

func (m *Manager) storedToken(ctx context.Context, key string) (string, error) {
	value, found, err := m.store.Get(ctx, key)
	if err != nil {
		return "", ErrCredentialStoreUnavailable
	}
	if !found || value == "" {
		return "", ErrNoStoredCredentials
	}
	return value, nil
}

func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

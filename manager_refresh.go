package goSession

import (
	"context"
	"log"
	"time"

	"github.com/MrEthical07/goSession/token"
)

type refreshResult struct {
	ok  bool
	err error
}

// startTimersLocked arms both background loops. Callers hold m.mu. The
// operation is idempotent: an already armed pair is left untouched so a
// repeated authenticated transition cannot shorten or double a schedule.
func (m *Manager) startTimersLocked() {
	if m.timerCancel != nil {
		return
	}
	cancel := make(chan struct{})
	m.timerCancel = cancel
	m.timerWG.Add(2)
	go m.runRefreshTimer(cancel)
	go m.runValidityTimer(cancel)
}

// stopTimersLocked disarms both loops. Callers hold m.mu. Idempotent.
func (m *Manager) stopTimersLocked() {
	if m.timerCancel == nil {
		return
	}
	close(m.timerCancel)
	m.timerCancel = nil
}

func (m *Manager) runRefreshTimer(cancel <-chan struct{}) {
	defer m.timerWG.Done()
	for {
		timer := time.NewTimer(m.nextRefreshDelay())
		select {
		case <-cancel:
			timer.Stop()
			return
		case <-timer.C:
		}
		ctx, done := context.WithTimeout(context.Background(), m.config.Calls.BackgroundTimeout)
		if _, err := m.refreshOnce(ctx, triggerTimer); err != nil {
			// A failed background refresh is not fatal on its own. The
			// validity loop decides whether the session is actually dead.
			log.Print("goSession: background token refresh failed: ", err)
		}
		done()
	}
}

func (m *Manager) runValidityTimer(cancel <-chan struct{}) {
	defer m.timerWG.Done()
	ticker := time.NewTicker(m.config.Timers.ValidityInterval)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
		}
		ctx, done := context.WithTimeout(context.Background(), m.config.Calls.BackgroundTimeout)
		if _, err := m.checkValidityOnce(ctx, triggerTimer); err != nil {
			log.Print("goSession: session validity check failed: ", err)
		}
		done()
	}
}

// nextRefreshDelay schedules the next refresh run. When the stored access
// token carries a readable expiry that lands before the regular interval,
// the refresh is pulled forward to fire one margin ahead of it.
func (m *Manager) nextRefreshDelay() time.Duration {
	interval := m.config.Timers.RefreshInterval
	ctx, done := context.WithTimeout(context.Background(), m.config.Calls.BackgroundTimeout)
	defer done()
	access, err := m.storedToken(ctx, m.config.Keys.AccessToken)
	if err != nil {
		return interval
	}
	claims, err := token.Inspect(access)
	if err != nil || claims.ExpiresAt.IsZero() {
		return interval
	}
	until := time.Until(claims.ExpiresAt) - m.config.Timers.RefreshMargin
	if until <= 0 {
		return time.Second
	}
	if until < interval {
		return until
	}
	return interval
}

// RefreshToken exchanges the stored refresh token for a new pair. The
// boolean reports whether the credentials were rotated. Concurrent calls
// collapse into one network request; every caller observes the shared
// result. RefreshToken never changes the session phase.
func (m *Manager) RefreshToken(ctx context.Context) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.refreshOnce(ctx, triggerManual)
}

func (m *Manager) refreshOnce(ctx context.Context, trigger string) (bool, error) {
	gen := m.currentGen()
	started := time.Now()
	v, err, shared := m.flight.Do("refresh", func() (any, error) {
		refresh, err := m.storedToken(ctx, m.config.Keys.RefreshToken)
		if err != nil {
			return refreshResult{}, err
		}
		pair, err := m.client.RefreshToken(ctx, refresh)
		if err != nil {
			return refreshResult{}, err
		}
		if pair == nil || pair.AccessToken == "" {
			return refreshResult{}, ErrTransport
		}
		if err := m.persistTokens(ctx, gen, *pair); err != nil {
			return refreshResult{}, err
		}
		return refreshResult{ok: true}, nil
	})
	if shared {
		m.metricInc(MetricRefreshShared)
	}
	if err != nil {
		m.metricInc(MetricRefreshFailure)
		m.emitAudit(ctx, auditEventRefresh, trigger, false, "", err, nil)
		return false, err
	}
	m.metrics.Observe(MetricRefreshLatency, time.Since(started))
	m.metricInc(MetricRefreshSuccess)
	m.emitAudit(ctx, auditEventRefresh, trigger, true, "", nil, nil)
	return v.(refreshResult).ok, nil
}

// CheckSessionValidity confirms the session is still accepted by the
// backend. A rejected access token earns exactly one refresh attempt and
// one retry; a second rejection forces a logout so the caller is never
// left holding a session the backend has revoked. The boolean reports
// whether the session survived.
func (m *Manager) CheckSessionValidity(ctx context.Context) (bool, error) {
	if err := m.ready(); err != nil {
		return false, err
	}
	if !m.IsAuthenticated() {
		return false, ErrNotAuthenticated
	}
	if ctx == nil {
		ctx = context.Background()
	}
	return m.checkValidityOnce(ctx, triggerManual)
}

func (m *Manager) checkValidityOnce(ctx context.Context, trigger string) (bool, error) {
	gen := m.currentGen()
	v, err, _ := m.flight.Do("validity", func() (any, error) {
		user, err := m.fetchCurrentUser(ctx)
		if err != nil {
			if ok, _ := m.refreshOnce(ctx, trigger); ok {
				user, err = m.fetchCurrentUser(ctx)
			}
		}
		if err != nil {
			return refreshResult{err: err}, nil
		}
		if m.currentGen() != gen {
			m.metricInc(MetricStaleResultDiscarded)
			return refreshResult{ok: true}, nil
		}
		m.mu.Lock()
		if !m.closed && m.state.Phase == PhaseAuthenticated && m.generation == gen {
			m.applyStateLocked(stateAuthenticated(user.clone()))
		}
		m.mu.Unlock()
		return refreshResult{ok: true}, nil
	})
	if err != nil {
		return false, err
	}
	res := v.(refreshResult)
	if res.err != nil {
		m.metricInc(MetricValidityFailure)
		m.emitAudit(ctx, auditEventValidityFailure, trigger, false, "", res.err, nil)
		if m.currentGen() == gen {
			m.forceLogout(ctx, trigger, res.err)
		}
		return false, res.err
	}
	m.metricInc(MetricValiditySuccess)
	return true, nil
}

func (m *Manager) fetchCurrentUser(ctx context.Context) (*User, error) {
	access, err := m.storedToken(ctx, m.config.Keys.AccessToken)
	if err != nil {
		return nil, err
	}
	return m.client.GetCurrentUser(ctx, access)
}

// Logout tears the session down. The backend call is best effort with a
// short deadline and its failure is swallowed: local credentials are
// cleared and the state resolves to unauthenticated no matter what the
// network does. Logout never returns the error state.
func (m *Manager) Logout(ctx context.Context) SessionState {
	if m == nil {
		return SessionState{}
	}
	if ctx == nil {
		ctx = context.Background()
	}

	m.mu.Lock()
	if m.closed {
		st := m.state
		m.mu.Unlock()
		return st
	}
	m.generation++
	var userID string
	if m.state.User != nil {
		userID = m.state.User.ID
	}
	m.applyStateLocked(stateLoggingOut())
	m.mu.Unlock()

	if access, err := m.storedToken(ctx, m.config.Keys.AccessToken); err == nil {
		callCtx, done := context.WithTimeout(ctx, m.config.Calls.LogoutTimeout)
		if err := m.client.Logout(callCtx, access); err != nil {
			log.Print("goSession: backend logout call failed: ", err)
		}
		done()
	}
	// A login issued while the backend call drained supersedes this
	// teardown; its credentials and state must survive.
	m.mu.Lock()
	superseded := m.state.Phase != PhaseLoggingOut
	m.mu.Unlock()
	if !superseded {
		m.clearCredentials(ctx)
	}

	m.metricInc(MetricLogout)
	m.emitAudit(ctx, auditEventLogout, triggerManual, true, userID, nil, nil)

	m.mu.Lock()
	if !m.closed && m.state.Phase == PhaseLoggingOut {
		m.applyStateLocked(stateUnauthenticated())
	}
	st := m.state
	m.mu.Unlock()
	return st
}

// forceLogout is the server-initiated variant used when the backend no
// longer recognizes the session. No logout call is made; the backend has
// already rejected us.
func (m *Manager) forceLogout(ctx context.Context, trigger string, cause error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.generation++
	var userID string
	if m.state.User != nil {
		userID = m.state.User.ID
	}
	m.applyStateLocked(stateUnauthenticated())
	m.mu.Unlock()

	m.clearCredentials(ctx)
	m.metricInc(MetricForcedLogout)
	m.emitAudit(ctx, auditEventForcedLogout, trigger, false, userID, cause, nil)
}

// clearCredentials removes both stored tokens. Store failures are logged
// and otherwise ignored; a logout must not be blockable by a bad disk.
func (m *Manager) clearCredentials(ctx context.Context) {
	if err := m.store.Delete(ctx, m.config.Keys.AccessToken); err != nil {
		log.Print("goSession: failed to clear access token: ", err)
	}
	if err := m.store.Delete(ctx, m.config.Keys.RefreshToken); err != nil {
		log.Print("goSession: failed to clear refresh token: ", err)
	}
}

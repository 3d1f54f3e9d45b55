package goSession

import (
	"context"
	"time"
)

// Audit event types emitted by the manager.
const (
	auditEventLogin                    = "login"
	auditEventRegister                 = "register"
	auditEventTwoFactor                = "two_factor_verify"
	auditEventMagicLink                = "magic_link_verify"
	auditEventOAuth                    = "oauth_login"
	auditEventRefresh                  = "token_refresh"
	auditEventValidityFailure          = "validity_failure"
	auditEventLogout                   = "logout"
	auditEventForcedLogout             = "forced_logout"
	auditEventBootstrapRestored        = "bootstrap_restored"
	auditEventBootstrapUnauthenticated = "bootstrap_unauthenticated"
)

// Triggers recorded on refresh and validity events.
const (
	triggerManual    = "manual"
	triggerTimer     = "timer"
	triggerBootstrap = "bootstrap"
	triggerRealtime  = "realtime"
)

// emitAudit builds and enqueues one audit event. The metadata callback is
// only invoked when auditing is enabled so disabled deployments pay
// nothing for map construction.
func (m *Manager) emitAudit(
	ctx context.Context,
	eventType, trigger string,
	success bool,
	userID string,
	cause error,
	metadata func() map[string]string,
) {
	if m.audit == nil {
		return
	}
	ev := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		ManagerID: m.instanceID,
		UserID:    userID,
		Phase:     m.CurrentState().Phase.String(),
		Trigger:   trigger,
		Success:   success,
	}
	if cause != nil {
		ev.Error = cause.Error()
	}
	if metadata != nil {
		ev.Metadata = metadata()
	}
	m.audit.Emit(ctx, ev)
}

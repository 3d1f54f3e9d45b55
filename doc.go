// Package goSession provides a client-side session lifecycle manager with
// background token refresh, periodic session validity checks, and an
// observable authentication state machine.
//
// The package is the client companion to a remote authentication backend:
// it never issues or verifies credentials itself. Manager methods are safe
// to call from multiple goroutines after initialization through
// [Builder.Build].
//
// # Architecture boundaries
//
// goSession is the public surface. It exposes [Manager], [Builder],
// [Config], [SessionState], and value types (MetricsSnapshot, AuditEvent,
// etc.). The [AuthClient] and [CredentialStore] collaborators are consumed
// contracts; reference implementations live in httpapi/ and store/ and may
// be swapped freely.
//
// # What this package must NOT do
//
//   - Hold raw tokens in [SessionState] or any observable snapshot. Tokens
//     live only behind the [CredentialStore] contract.
//   - Interpret transport details (HTTP status codes, headers). Only the
//     tagged outcome produced by the [AuthClient] boundary is inspected.
//   - Verify token signatures. Claim inspection in token/ is structural
//     only; trust decisions belong to the backend.
//
// # Concurrency contract
//
// Exactly one Manager owns the session state. Refresh and validity checks
// are single-flight: concurrent callers share one in-flight collaborator
// call and observe the same outcome. State transitions are applied in
// completion order and guarded by a generation counter so a stale success
// cannot resurrect an authenticated state after logout.
package goSession

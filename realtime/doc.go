// Package realtime listens for server pushed session events over a
// WebSocket. Backends that revoke sessions out of band (admin action,
// password change on another device) push a small JSON event instead of
// waiting for the next validity poll to notice.
//
// The listener owns reconnection. Connection loss is expected and is
// retried with capped exponential backoff; event handling failures are
// logged and never kill the loop.
package realtime

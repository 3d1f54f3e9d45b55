// Package store provides credential store implementations for goSession.
//
// A credential store holds exactly two secrets, the access token and the
// refresh token, under caller-chosen keys. The in-memory store suits
// tests and single-process tools. The Redis store suits deployments where
// several processes share one session, a CLI and its daemon for example.
package store

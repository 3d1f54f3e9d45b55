// Package token reads registered claims out of JWT access tokens without
// verifying their signatures. The session manager is a client: it never
// holds the signing key and never makes trust decisions from a token. The
// only use of the payload here is scheduling, deciding when a refresh
// should run relative to the token's expiry.
//
// Nothing in this package must ever be used to authorize anything.
package token

// Package transport provides an http.RoundTripper that authenticates
// outgoing requests with the session's access token.
//
// The round tripper reads the current access token from the credential
// store before each request and retries exactly once after a refresh when
// the backend answers 401. Application code keeps using a plain
// *http.Client and never touches tokens.
package transport

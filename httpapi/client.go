package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	goSession "github.com/MrEthical07/goSession"
)

// ErrNilBaseURL is an exported constant or variable used by the session manager.
var ErrNilBaseURL = errors.New("httpapi: base URL is empty")

const apiPrefix = "/api/v1/auth"

// Client defines a public type used by goSession APIs. It satisfies
// goSession.AuthClient over plain HTTP.
//
// The zero value is not usable; construct with NewClient.
type Client struct {
	baseURL    string
	httpClient *http.Client
	userAgent  string
}

// Option defines a public type used by goSession APIs.
type Option func(*Client)

// WithHTTPClient describes the withhttpclient operation and its observable behavior.
//
// WithHTTPClient may return an error when input validation, dependency calls, or security checks fail.
// WithHTTPClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithUserAgent describes the withuseragent operation and its observable behavior.
//
// WithUserAgent may return an error when input validation, dependency calls, or security checks fail.
// WithUserAgent does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// NewClient describes the newclient operation and its observable behavior.
//
// NewClient may return an error when input validation, dependency calls, or security checks fail.
// NewClient does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrNilBaseURL
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		userAgent:  "goSession/1.0",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *envelopeError  `json:"error"`
}

type envelopeError struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Details map[string]string `json:"details,omitempty"`
}

type userPayload struct {
	ID               string     `json:"id"`
	Email            string     `json:"email"`
	FullName         string     `json:"full_name"`
	EmailVerified    bool       `json:"email_verified"`
	TwoFactorEnabled bool       `json:"two_factor_enabled"`
	IsActive         bool       `json:"is_active"`
	Roles            []string   `json:"roles"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
	LastLoginAt      *time.Time `json:"last_login_at,omitempty"`
}

type loginPayload struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         *userPayload `json:"user"`
	Requires2FA  bool         `json:"requires_2fa"`
	TempToken    string       `json:"temp_token"`
}

type tokenPayload struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (p *userPayload) toUser() *goSession.User {
	if p == nil {
		return nil
	}
	u := &goSession.User{
		ID:               p.ID,
		Email:            p.Email,
		FullName:         p.FullName,
		EmailVerified:    p.EmailVerified,
		TwoFactorEnabled: p.TwoFactorEnabled,
		Active:           p.IsActive,
		Roles:            append([]string(nil), p.Roles...),
		CreatedAt:        p.CreatedAt,
		UpdatedAt:        p.UpdatedAt,
	}
	if p.LastLoginAt != nil {
		last := *p.LastLoginAt
		u.LastLoginAt = &last
	}
	return u
}

func (p *loginPayload) toOutcome() *goSession.LoginOutcome {
	return &goSession.LoginOutcome{
		User: p.User.toUser(),
		Tokens: goSession.TokenPair{
			AccessToken:  p.AccessToken,
			RefreshToken: p.RefreshToken,
		},
		TwoFactorRequired: p.Requires2FA,
		TwoFactorSession:  p.TempToken,
	}
}

// do executes one API call and decodes the envelope. A nil out skips data
// decoding. Network level failures wrap goSession.ErrTransport.
func (c *Client) do(ctx context.Context, method, path, bearer string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("httpapi: encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+apiPrefix+path, reader)
	if err != nil {
		return fmt.Errorf("httpapi: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", goSession.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		io.Copy(io.Discard, resp.Body)
		return goSession.ErrRateLimited
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", goSession.ErrTransport, err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return fmt.Errorf("%w: malformed response body", goSession.ErrTransport)
	}
	if !env.Success {
		return mapAPIError(env.Error)
	}
	if out != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return fmt.Errorf("%w: malformed response data", goSession.ErrTransport)
		}
	}
	return nil
}

// mapAPIError translates well-known backend error codes to the sentinel
// errors of the root package.
func mapAPIError(e *envelopeError) error {
	if e == nil {
		return goSession.ErrTransport
	}
	switch e.Code {
	case "INVALID_CREDENTIALS", "AUTHENTICATION_FAILED":
		return goSession.ErrInvalidCredentials
	case "TWO_FACTOR_REQUIRED":
		return goSession.ErrTwoFactorRequired
	case "INVALID_2FA_CODE", "TWO_FACTOR_INVALID":
		return goSession.ErrTwoFactorInvalid
	case "MAGIC_LINK_INVALID", "MAGIC_LINK_EXPIRED":
		return goSession.ErrMagicLinkInvalid
	case "TOKEN_EXPIRED", "REFRESH_TOKEN_EXPIRED":
		return goSession.ErrTokenExpired
	case "RATE_LIMITED":
		return goSession.ErrRateLimited
	case "VALIDATION_ERROR":
		return goSession.ErrInvalidInput
	}
	return &goSession.APIError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
	}
}

// Login describes the login operation and its observable behavior.
//
// Login may return an error when input validation, dependency calls, or security checks fail.
// Login does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Login(ctx context.Context, email, password string) (*goSession.LoginOutcome, error) {
	var payload loginPayload
	err := c.do(ctx, http.MethodPost, "/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toOutcome(), nil
}

// Register describes the register operation and its observable behavior.
//
// Register may return an error when input validation, dependency calls, or security checks fail.
// Register does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Register(ctx context.Context, req goSession.RegisterRequest) (*goSession.LoginOutcome, error) {
	var payload loginPayload
	err := c.do(ctx, http.MethodPost, "/register", "", map[string]string{
		"email":     req.Email,
		"password":  req.Password,
		"full_name": req.FullName,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toOutcome(), nil
}

// VerifyTwoFactor describes the verifytwofactor operation and its observable behavior.
//
// VerifyTwoFactor may return an error when input validation, dependency calls, or security checks fail.
// VerifyTwoFactor does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) VerifyTwoFactor(ctx context.Context, challengeSession, code string) (*goSession.LoginOutcome, error) {
	var payload loginPayload
	err := c.do(ctx, http.MethodPost, "/2fa/verify", "", map[string]string{
		"temp_token": challengeSession,
		"code":       code,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toOutcome(), nil
}

// VerifyMagicLink describes the verifymagiclink operation and its observable behavior.
//
// VerifyMagicLink may return an error when input validation, dependency calls, or security checks fail.
// VerifyMagicLink does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) VerifyMagicLink(ctx context.Context, linkToken string) (*goSession.LoginOutcome, error) {
	var payload loginPayload
	err := c.do(ctx, http.MethodPost, "/magic-link/verify", "", map[string]string{
		"token": linkToken,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toOutcome(), nil
}

// OAuthLogin describes the oauthlogin operation and its observable behavior.
//
// OAuthLogin may return an error when input validation, dependency calls, or security checks fail.
// OAuthLogin does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) OAuthLogin(ctx context.Context, req goSession.OAuthRequest) (*goSession.LoginOutcome, error) {
	var payload loginPayload
	err := c.do(ctx, http.MethodPost, "/oauth/callback", "", map[string]string{
		"provider": req.Provider,
		"code":     req.Code,
		"state":    req.State,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return payload.toOutcome(), nil
}

// RefreshToken describes the refreshtoken operation and its observable behavior.
//
// RefreshToken may return an error when input validation, dependency calls, or security checks fail.
// RefreshToken does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*goSession.TokenPair, error) {
	var payload tokenPayload
	err := c.do(ctx, http.MethodPost, "/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	}, &payload)
	if err != nil {
		return nil, err
	}
	return &goSession.TokenPair{
		AccessToken:  payload.AccessToken,
		RefreshToken: payload.RefreshToken,
	}, nil
}

// GetCurrentUser describes the getcurrentuser operation and its observable behavior.
//
// GetCurrentUser may return an error when input validation, dependency calls, or security checks fail.
// GetCurrentUser does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) GetCurrentUser(ctx context.Context, accessToken string) (*goSession.User, error) {
	var payload userPayload
	if err := c.do(ctx, http.MethodGet, "/me", accessToken, nil, &payload); err != nil {
		return nil, err
	}
	return payload.toUser(), nil
}

// Logout describes the logout operation and its observable behavior.
//
// Logout may return an error when input validation, dependency calls, or security checks fail.
// Logout does not mutate shared global state and can be used concurrently when the receiver and dependencies are concurrently safe.
func (c *Client) Logout(ctx context.Context, accessToken string) error {
	return c.do(ctx, http.MethodPost, "/logout", accessToken, nil, nil)
}

// Package gotrue implements backend.AuthProvider against a GoTrue compatible
// auth service.
package gotrue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/sitecrew/sitecrew/internal/backend"
)

// ErrOAuthUnavailable indicates no identity token source is configured.
var ErrOAuthUnavailable = errors.New("gotrue: oauth sign-in not configured")

// IDTokenSource obtains an identity token from a federated provider.
type IDTokenSource interface {
	IDToken(ctx context.Context, provider backend.OAuthProvider) (string, error)
}

// Config configures the client.
type Config struct {
	BaseURL    string
	AnonKey    string
	Timeout    time.Duration
	RetryCount int
}

// Client talks to the auth REST API.
type Client struct {
	http    *resty.Client
	storage TokenStorage
	tokens  IDTokenSource
	logger  *slog.Logger
	now     func() time.Time
}

// Option customises the client.
type Option func(*Client)

// WithStorage replaces the in-memory session storage.
func WithStorage(s TokenStorage) Option {
	return func(c *Client) { c.storage = s }
}

// WithIDTokenSource enables OAuth sign-in.
func WithIDTokenSource(src IDTokenSource) Option {
	return func(c *Client) { c.tokens = src }
}

// WithLogger sets the client logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New constructs a Client.
func New(cfg Config, opts ...Option) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", cfg.AnonKey).
		SetRetryCount(cfg.RetryCount).
		SetRetryWaitTime(100 * time.Millisecond).
		SetRetryMaxWaitTime(2 * time.Second)
	httpClient.AddRetryCondition(retryCondition)

	c := &Client{
		http:    httpClient,
		storage: &MemoryStorage{},
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func retryCondition(r *resty.Response, err error) bool {
	if err != nil {
		return true
	}
	if r == nil {
		return false
	}
	code := r.StatusCode()
	return code >= 500 || code == http.StatusTooManyRequests
}

// APIError is the error body returned by the auth service.
type APIError struct {
	Code             int    `json:"code"`
	ErrorCode        string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Msg              string `json:"msg"`
	Message          string `json:"message"`
}

// Error returns the provider message verbatim.
func (e *APIError) Error() string {
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.ErrorCode} {
		if s != "" {
			return s
		}
	}
	if e.Code != 0 {
		return fmt.Sprintf("auth request failed with status %d", e.Code)
	}
	return "auth request failed"
}

type tokenResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	ExpiresIn    int64            `json:"expires_in"`
	ExpiresAt    int64            `json:"expires_at"`
	User         backend.AuthUser `json:"user"`
	// Sign-up without auto-confirm returns the bare user.
	ID    string `json:"id"`
	Email string `json:"email"`
}

func (t tokenResponse) session(now time.Time) *backend.AuthSession {
	sess := &backend.AuthSession{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		User:         t.User,
	}
	switch {
	case t.ExpiresAt > 0:
		sess.ExpiresAt = time.Unix(t.ExpiresAt, 0).UTC()
	case t.ExpiresIn > 0:
		sess.ExpiresAt = now.Add(time.Duration(t.ExpiresIn) * time.Second).UTC()
	}
	if sess.User.ID == "" {
		sess.User = backend.AuthUser{ID: t.ID, Email: t.Email}
	}
	return sess
}

func (c *Client) do(ctx context.Context, method, path string, token string, body any, out any) error {
	apiErr := &APIError{}
	req := c.http.R().SetContext(ctx).SetError(apiErr)
	if token != "" {
		req.SetAuthToken(token)
	}
	if body != nil {
		req.SetBody(body)
	}
	if out != nil {
		req.SetResult(out)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return fmt.Errorf("gotrue: %s %s: %w", method, path, err)
	}
	if resp.IsError() {
		if apiErr.Code == 0 {
			apiErr.Code = resp.StatusCode()
		}
		return apiErr
	}
	return nil
}

func (c *Client) grant(ctx context.Context, grantType string, body any) (*backend.AuthSession, error) {
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/token?grant_type="+grantType, "", body, &out); err != nil {
		return nil, err
	}
	sess := out.session(c.now())
	if err := c.storage.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("gotrue: store session: %w", err)
	}
	return sess, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*backend.AuthSession, error) {
	return c.grant(ctx, "password", map[string]string{"email": email, "password": password})
}

// SignInWithOAuth exchanges a federated identity token for a session.
func (c *Client) SignInWithOAuth(ctx context.Context, provider backend.OAuthProvider) (*backend.AuthSession, error) {
	if c.tokens == nil {
		return nil, ErrOAuthUnavailable
	}
	idToken, err := c.tokens.IDToken(ctx, provider)
	if err != nil {
		return nil, fmt.Errorf("gotrue: %s id token: %w", provider, err)
	}
	return c.grant(ctx, "id_token", map[string]string{"provider": string(provider), "id_token": idToken})
}

// SignUp registers a new account. When the service requires email
// confirmation the returned session carries the user but no tokens.
func (c *Client) SignUp(ctx context.Context, in backend.SignUpInput) (*backend.AuthSession, error) {
	body := map[string]any{"email": in.Email, "password": in.Password}
	if len(in.Metadata) > 0 {
		body["data"] = in.Metadata
	}
	var out tokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", body, &out); err != nil {
		return nil, err
	}
	sess := out.session(c.now())
	if sess.AccessToken != "" {
		if err := c.storage.Save(ctx, sess); err != nil {
			return nil, fmt.Errorf("gotrue: store session: %w", err)
		}
	}
	return sess, nil
}

// GetSession returns the stored session, refreshing it when expired.
func (c *Client) GetSession(ctx context.Context) (*backend.AuthSession, error) {
	sess, err := c.storage.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("gotrue: load session: %w", err)
	}
	if sess == nil || sess.AccessToken == "" {
		return nil, backend.ErrNoSession
	}
	if !sess.Expired(c.now()) {
		return sess, nil
	}
	if sess.RefreshToken == "" {
		_ = c.storage.Clear(ctx)
		return nil, backend.ErrNoSession
	}
	refreshed, err := c.grant(ctx, "refresh_token", map[string]string{"refresh_token": sess.RefreshToken})
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) {
			_ = c.storage.Clear(ctx)
			return nil, backend.ErrNoSession
		}
		return nil, err
	}
	return refreshed, nil
}

// GetUser fetches the identity behind the current session.
func (c *Client) GetUser(ctx context.Context) (*backend.AuthUser, error) {
	sess, err := c.GetSession(ctx)
	if err != nil {
		return nil, err
	}
	var out backend.AuthUser
	if err := c.do(ctx, http.MethodGet, "/auth/v1/user", sess.AccessToken, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SignOut revokes the session remotely and always clears local storage.
func (c *Client) SignOut(ctx context.Context) error {
	sess, err := c.storage.Load(ctx)
	if err != nil {
		return fmt.Errorf("gotrue: load session: %w", err)
	}
	var remoteErr error
	if sess != nil && sess.AccessToken != "" {
		remoteErr = c.do(ctx, http.MethodPost, "/auth/v1/logout", sess.AccessToken, nil, nil)
		if remoteErr != nil {
			c.logger.Warn("remote sign-out failed", slog.Any("error", remoteErr))
		}
	}
	if err := c.storage.Clear(ctx); err != nil {
		return fmt.Errorf("gotrue: clear session: %w", err)
	}
	return remoteErr
}

var _ backend.AuthProvider = (*Client)(nil)

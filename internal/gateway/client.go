// Package gateway wraps every outbound call to the errand-mate backend.
//
// The session rides on cookies held in the client's jar; no bearer token is
// stored in application memory. All failure modes are normalized into the
// small taxonomy in errors.go before they reach callers.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/errandmate/errandmate/internal/log"
	"github.com/errandmate/errandmate/internal/metrics"
)

const defaultTimeout = 30 * time.Second

// Client is the HTTP client for the errand-mate backend.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
	metrics    *metrics.Metrics
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. The caller is
// responsible for attaching a cookie jar if sessions should persist.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMetrics attaches Prometheus instruments.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Client) { c.metrics = m }
}

// WithTimeout sets the per-request timeout on the default HTTP client.
// Non-positive durations keep the built-in default rather than disabling
// the timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// NewClient creates a gateway client for the given base URL. A cookie jar
// is installed so the backend's session cookie is carried automatically.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: defaultTimeout,
			Jar:     jar,
		},
		logger: log.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the configured backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// do executes one request and normalizes the outcome. probe marks a session
// probe, where a 401 is the expected "not logged in" answer and is logged
// at debug instead of warn.
func (c *Client) do(ctx context.Context, method, endpoint string, body any, probe bool) (*Envelope, error) {
	start := time.Now()
	env, err := c.roundTrip(ctx, method, endpoint, body)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		apiErr, ok := AsAPIError(err)
		if !ok {
			apiErr = WrapError(CodeUnknown, err.Error(), err)
			err = apiErr
		}
		status = apiErr.Code
		c.metrics.ObserveRequestError(endpoint, apiErr.Code)

		if probe && apiErr.Code == CodeAuthentication {
			c.logger.DebugContext(ctx, "session probe unauthenticated", "endpoint", endpoint)
		} else {
			c.logger.WithError(err).WarnContext(ctx, "backend request failed", "endpoint", endpoint, "method", method)
		}
	}
	c.metrics.ObserveRequest(endpoint, method, status, elapsed)
	return env, err
}

func (c *Client) roundTrip(ctx context.Context, method, endpoint string, body any) (*Envelope, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, WrapError(CodeUnknown, "failed to encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reader)
	if err != nil {
		return nil, WrapError(CodeUnknown, "failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, classifyTransport(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, WrapError(CodeNetwork, "failed to read response", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, normalizeHTTPError(resp.StatusCode, respBody)
	}

	var env Envelope
	if len(respBody) > 0 {
		if err := json.Unmarshal(respBody, &env); err != nil {
			return nil, WrapError(CodeUnknown, "failed to decode response", err)
		}
	}
	return &env, nil
}

// classifyTransport buckets a no-response failure. Proxy-level cross-origin
// refusals surface as transport errors whose text names CORS; everything
// else without a response is a network error.
func classifyTransport(err error) *APIError {
	if strings.Contains(strings.ToLower(err.Error()), "cors") {
		return WrapError(CodeCORS, "Connection error. Please try again later.", err)
	}
	return WrapError(CodeNetwork, "Network error. Please check your connection and try again.", err)
}

// normalizeHTTPError maps an error response onto the taxonomy. A 401 is
// always an authentication error regardless of body; a non-401 body with a
// message is a validation error surfaced verbatim.
func normalizeHTTPError(status int, body []byte) *APIError {
	var parsed struct {
		Message string `json:"message"`
		Code    string `json:"code"`
		Error   string `json:"error"`
	}
	_ = json.Unmarshal(body, &parsed)

	message := parsed.Message
	if message == "" {
		message = parsed.Error
	}

	if status == http.StatusUnauthorized || parsed.Code == "UNAUTHORIZED" {
		if message == "" {
			message = "Authentication required"
		}
		return NewError(CodeAuthentication, message, status)
	}
	if message != "" {
		return NewError(CodeValidation, message, status)
	}
	return NewError(CodeUnknown, fmt.Sprintf("HTTP %d: %s", status, http.StatusText(status)), status)
}

// Auth endpoints

// Signup registers a new credentials account. The backend may withhold the
// user record and set RequiresVerification instead.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/auth/signup", req, false)
}

// Login authenticates with email and password. On success the session
// cookie lands in the jar; a missing user with RequiresVerification set
// means the account still needs email verification.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/auth/login", req, false)
}

// Logout ends the server-side session. Best effort: callers clear local
// state regardless of the outcome.
func (c *Client) Logout(ctx context.Context) (*Envelope, error) {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, false)
}

// VerifyEmail confirms an email address with the emailed token.
func (c *Client) VerifyEmail(ctx context.Context, token string) (*Envelope, error) {
	body := map[string]string{"token": token}
	return c.do(ctx, http.MethodPost, "/api/auth/verify-email", body, false)
}

// ResendVerification requests a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context, email string) (*Envelope, error) {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/resend-verification", body, false)
}

// ForgotPassword starts a password reset.
func (c *Client) ForgotPassword(ctx context.Context, email string) (*Envelope, error) {
	body := map[string]string{"email": email}
	return c.do(ctx, http.MethodPost, "/api/auth/forgot-password", body, false)
}

// ResetPassword completes a password reset with the emailed token.
func (c *Client) ResetPassword(ctx context.Context, token, password string) (*Envelope, error) {
	body := map[string]string{"token": token, "password": password}
	return c.do(ctx, http.MethodPost, "/api/auth/reset-password", body, false)
}

// GoogleAuth exchanges a Google ID token for a session.
func (c *Client) GoogleAuth(ctx context.Context, idToken string) (*Envelope, error) {
	body := map[string]string{"idToken": idToken}
	return c.do(ctx, http.MethodPost, "/api/auth/google", body, false)
}

// AppleAuth exchanges an Apple ID token for a session. user carries the
// name details Apple only provides on the first sign-in.
func (c *Client) AppleAuth(ctx context.Context, idToken string, user *AppleUser) (*Envelope, error) {
	body := struct {
		IDToken string     `json:"idToken"`
		User    *AppleUser `json:"user,omitempty"`
	}{IDToken: idToken, User: user}
	return c.do(ctx, http.MethodPost, "/api/auth/apple", body, false)
}

// LinkProvider attaches an additional identity provider to the current
// account.
func (c *Client) LinkProvider(ctx context.Context, provider Provider, idToken string) (*Envelope, error) {
	body := struct {
		Provider Provider `json:"provider"`
		IDToken  string   `json:"idToken"`
	}{Provider: provider, IDToken: idToken}
	return c.do(ctx, http.MethodPost, "/api/auth/link-provider", body, false)
}

// Profile endpoints

// ProbeSession fetches the profile as a session probe. Identical to
// GetProfile on the wire; a 401 here is the expected "not logged in"
// outcome and is not logged as an application error.
func (c *Client) ProbeSession(ctx context.Context) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, "/api/profile", nil, true)
}

// GetProfile fetches the current user and profile.
func (c *Client) GetProfile(ctx context.Context) (*Envelope, error) {
	return c.do(ctx, http.MethodGet, "/api/profile", nil, false)
}

// UpdateProfile applies a combined user/profile update and returns the
// authoritative records.
func (c *Client) UpdateProfile(ctx context.Context, req UpdateProfileRequest) (*Envelope, error) {
	return c.do(ctx, http.MethodPut, "/api/profile", req, false)
}

// GetCompleteness fetches the profile completeness score (0-100).
func (c *Client) GetCompleteness(ctx context.Context) (int, error) {
	env, err := c.do(ctx, http.MethodGet, "/api/profile/completeness", nil, false)
	if err != nil {
		return 0, err
	}
	if v, ok := env.CompletenessValue(); ok {
		return v, nil
	}
	return 0, nil
}

// UpdateRole sets the marketplace role. The response is an acknowledgement
// only; callers re-fetch the full profile rather than trusting it.
func (c *Client) UpdateRole(ctx context.Context, role ProfileRole) (*Envelope, error) {
	body := struct {
		Role ProfileRole `json:"role"`
	}{Role: role}
	return c.do(ctx, http.MethodPatch, "/api/profile/role", body, false)
}

// UpdateLocation sets the profile location. Acknowledgement only, as with
// UpdateRole.
func (c *Client) UpdateLocation(ctx context.Context, location Location) (*Envelope, error) {
	body := struct {
		Location Location `json:"location"`
	}{Location: location}
	return c.do(ctx, http.MethodPatch, "/api/profile/location", body, false)
}

// Health checks backend reachability.
func (c *Client) Health(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/api/health", nil, false)
	return err
}

// Package api implements the HTTP client for the TrovKa backend REST API.
// Every call is context-bound, rate-limited and instrumented; the backend
// stays authoritative for validation, persistence and OTP issuance.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"trovka.org/internal/ids"
	"trovka.org/internal/obs"
)

const (
	defaultTimeout = 15 * time.Second
	defaultRate    = 20 // requests per second
	defaultBurst   = 10

	// maxResponseBody caps how much of any response body is buffered,
	// whether it becomes a decoded payload or a passed-through error.
	maxResponseBody = 64 << 10
)

// Client talks to the TrovKa backend.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// Option configures Client behavior.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client (tests, custom transports).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithRateLimit caps outbound requests per second.
func WithRateLimit(perSecond float64, burst int) Option {
	return func(c *Client) {
		if perSecond > 0 && burst > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
		}
	}
}

// WithTimeout overrides the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// New constructs a client for the given base URL.
func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, fmt.Errorf("api: base URL is required")
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: defaultTimeout},
		limiter: rate.NewLimiter(rate.Limit(defaultRate), defaultBurst),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Register creates an account; the backend mails an OTP to the address.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	var user User
	err := c.do(ctx, "register", http.MethodPost, "/register/", "", req, &user)
	return user, err
}

// VerifyOTP confirms the emailed one-time code.
func (c *Client) VerifyOTP(ctx context.Context, req VerifyOTPRequest) (User, error) {
	var user User
	err := c.do(ctx, "verify_otp", http.MethodPost, "/verify-otp/", "", req, &user)
	return user, err
}

// Login exchanges credentials for a profile, role and access token.
func (c *Client) Login(ctx context.Context, email, password string) (LoginPayload, error) {
	body := map[string]string{"email": email, "password": password}
	var payload LoginPayload
	err := c.do(ctx, "login", http.MethodPost, "/login/", "", body, &payload)
	return payload, err
}

// Profile fetches the authenticated user's profile.
func (c *Client) Profile(ctx context.Context, token string) (User, error) {
	var user User
	err := c.do(ctx, "profile", http.MethodGet, "/profile/", token, nil, &user)
	return user, err
}

// UpdateProfile replaces profile fields and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, token string, user User) (User, error) {
	var updated User
	err := c.do(ctx, "update_profile", http.MethodPut, "/profile/", token, user, &updated)
	return updated, err
}

// Categories returns the full sub-category reference list.
func (c *Client) Categories(ctx context.Context) ([]Category, error) {
	var out []Category
	err := c.do(ctx, "categories", http.MethodGet, "/categories/", "", nil, &out)
	return out, err
}

// CategoryTypes returns the top-level category reference list.
func (c *Client) CategoryTypes(ctx context.Context) ([]CategoryType, error) {
	var out []CategoryType
	err := c.do(ctx, "category_types", http.MethodGet, "/category-types/", "", nil, &out)
	return out, err
}

// Locations returns the location reference list.
func (c *Client) Locations(ctx context.Context) ([]Location, error) {
	var out []Location
	err := c.do(ctx, "locations", http.MethodGet, "/locations/", "", nil, &out)
	return out, err
}

// CreateService submits a composed service record.
func (c *Client) CreateService(ctx context.Context, token string, req ServiceRequest) (Service, error) {
	var svc Service
	err := c.do(ctx, "create_service", http.MethodPost, "/services/", token, req, &svc)
	return svc, err
}

// Services lists service records, optionally filtered.
func (c *Client) Services(ctx context.Context, filter ServiceFilter) ([]Service, error) {
	path := "/services/"
	params := url.Values{}
	if filter.Category > 0 {
		params.Set("category", strconv.FormatInt(filter.Category, 10))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		params.Set("search", s)
	}
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	var out []Service
	err := c.do(ctx, "services", http.MethodGet, path, "", nil, &out)
	return out, err
}

// do issues one JSON request and folds the response into out. A transport
// failure comes back wrapped with the operation name; a non-2xx response
// comes back as *Error carrying the body verbatim.
func (c *Client) do(ctx context.Context, op, method, path, token string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: marshal request: %w", op, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: create request: %w", op, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setCommonHeaders(req, token)

	obs.RequestStarted()
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		obs.RequestFinished(op, 0, start)
		return fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()
	obs.RequestFinished(op, resp.StatusCode, start)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return readError(resp)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%s: decode response: %w", op, err)
	}
	return nil
}

func (c *Client) setCommonHeaders(req *http.Request, token string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", ids.Request())
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
}

func readError(resp *http.Response) error {
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	return &Error{Status: resp.StatusCode, Body: bytes.TrimSpace(data)}
}

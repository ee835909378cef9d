// Package apiclient is a thin wrapper over net/http for the marketplace API.
// It attaches the session token, decodes JSON and turns non-2xx responses
// into *Error values. It does not retry, deduplicate or impose timeouts of
// its own; deadlines come from the caller's context.
package apiclient

import (
	"context"
	"net/http"
	"strings"

	"github.com/iliyamo/carshare-web/internal/model"
)

const (
	// DefaultRESTPath is appended to the base URL when no REST base is configured.
	DefaultRESTPath  = "/rest"
	defaultUserAgent = "carshare-web/1.0"
)

// Session supplies the token for authenticated calls and is told when the
// API rejects it.
type Session interface {
	// Token returns the current API token, or "" when signed out.
	Token(ctx context.Context) string
	// Expire clears the session after an authentication rejection.
	Expire(ctx context.Context)
}

// Client talks to the marketplace API. A zero-session Client is shared by
// the whole process; WithSession derives a per-browser view that shares the
// same transport.
type Client struct {
	baseURL     string
	restBaseURL string
	userAgent   string
	httpClient  *http.Client
	session     Session

	// Services
	Auth     *AuthService
	Cars     *CarsService
	Bookings *BookingsService
	Tickets  *TicketsService
	Reports  *ReportsService
	Users    *Viewset[model.User]
	Reviews  *Viewset[model.Review]
}

// Option configures the client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithRESTBaseURL sets the base URL of the generic REST viewsets.
func WithRESTBaseURL(u string) Option {
	return func(c *Client) { c.restBaseURL = strings.TrimRight(u, "/") }
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(c *Client) { c.userAgent = ua }
}

// New creates a client for the API rooted at baseURL (e.g. https://host/api).
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.restBaseURL == "" {
		c.restBaseURL = c.baseURL + DefaultRESTPath
	}
	c.initServices()
	return c
}

func (c *Client) initServices() {
	c.Auth = &AuthService{client: c}
	c.Cars = &CarsService{client: c}
	c.Bookings = &BookingsService{client: c}
	c.Tickets = &TicketsService{client: c}
	c.Reports = &ReportsService{client: c}
	c.Users = NewViewset[model.User](c, "users")
	c.Reviews = NewViewset[model.Review](c, "reviews")
}

// WithSession returns a copy of c that authenticates as s.
func (c *Client) WithSession(s Session) *Client {
	cp := &Client{
		baseURL:     c.baseURL,
		restBaseURL: c.restBaseURL,
		userAgent:   c.userAgent,
		httpClient:  c.httpClient,
		session:     s,
	}
	cp.initServices()
	return cp
}

// BaseURL returns the API base URL.
func (c *Client) BaseURL() string { return c.baseURL }

// RESTBaseURL returns the base URL of the REST viewsets.
func (c *Client) RESTBaseURL() string { return c.restBaseURL }

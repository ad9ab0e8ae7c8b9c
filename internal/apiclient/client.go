package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/pscheid92/applyme/internal/domain"
	"github.com/pscheid92/applyme/internal/platform/correlation"
	"github.com/pscheid92/applyme/internal/platform/version"
	"github.com/sony/gobreaker"
)

// Observer receives one call per upstream request. route is the endpoint
// template (e.g. "/dashboard/{batchId}"), status is 0 for transport failures.
type Observer interface {
	ObserveAPIRequest(route string, status int, duration time.Duration)
	ObserveBreakerState(state string)
}

type noopObserver struct{}

func (noopObserver) ObserveAPIRequest(string, int, time.Duration) {}
func (noopObserver) ObserveBreakerState(string)                   {}

// Request describes one call. Token is attached as a bearer credential only
// when non-empty; Body is JSON-encoded only when non-nil.
type Request struct {
	Method string
	Path   string
	Route  string
	Token  string
	Body   any
}

type Client struct {
	baseURL  string
	http     *http.Client
	breaker  *gobreaker.CircuitBreaker
	observer Observer
	clock    clockwork.Clock
}

type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout bounds each call. Zero keeps the default of no timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

func WithObserver(o Observer) Option {
	return func(c *Client) { c.observer = o }
}

func WithClock(clock clockwork.Clock) Option {
	return func(c *Client) { c.clock = clock }
}

// WithBreaker enables the circuit breaker around the transport.
func WithBreaker(settings BreakerSettings) Option {
	return func(c *Client) { c.breaker = newBreaker(settings, c) }
}

// New creates a client for the API at baseURL (e.g. "http://localhost:8000").
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{},
		observer: noopObserver{},
		clock:    clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs a single call. Any status outside [200,300) yields a
// *domain.RequestError carrying the body's detail or "HTTP <status>".
func (c *Client) Do(ctx context.Context, r Request) (*Response, error) {
	req, err := c.newHTTPRequest(ctx, r)
	if err != nil {
		return nil, err
	}

	route := r.Route
	if route == "" {
		route = r.Path
	}

	start := c.clock.Now()
	status, raw, err := c.execute(req)
	c.observer.ObserveAPIRequest(route, status, c.clock.Since(start))
	if err != nil {
		return nil, err
	}

	resp := newResponse(status, raw)
	if resp.Unparseable() {
		slog.DebugContext(ctx, "API returned unparseable body", "route", route, "status", status, "error", resp.DecodeErr)
	}
	if !resp.OK() {
		return resp, domain.NewHTTPError(status, resp.detail())
	}
	return resp, nil
}

func (c *Client) newHTTPRequest(ctx context.Context, r Request) (*http.Request, error) {
	var body io.Reader
	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, &domain.RequestError{Message: fmt.Sprintf("encode request body: %v", err), Err: err}
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, r.Method, c.baseURL+r.Path, body)
	if err != nil {
		return nil, &domain.RequestError{Message: fmt.Sprintf("build request: %v", err), Err: err}
	}

	if r.Body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.Token != "" {
		req.Header.Set("Authorization", "Bearer "+r.Token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())
	correlation.Inject(ctx, req.Header)

	return req, nil
}

type rawResult struct {
	status int
	body   []byte
}

// execute sends the request, through the breaker when one is configured.
// Only transport failures count against the breaker: any HTTP status proves
// the API is reachable.
func (c *Client) execute(req *http.Request) (int, []byte, error) {
	if c.breaker == nil {
		res, err := c.send(req)
		if err != nil {
			return 0, nil, err
		}
		return res.status, res.body, nil
	}

	out, err := c.breaker.Execute(func() (any, error) {
		return c.send(req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return 0, nil, domain.ErrAPIUnavailable
	}
	if err != nil {
		return 0, nil, err
	}
	res := out.(*rawResult)
	return res.status, res.body, nil
}

func (c *Client) send(req *http.Request) (*rawResult, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &domain.RequestError{Message: err.Error(), Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RequestError{Message: fmt.Sprintf("read response body: %v", err), Err: err}
	}
	return &rawResult{status: resp.StatusCode, body: raw}, nil
}

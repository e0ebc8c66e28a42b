package backend

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kilianp07/fjsm/auth"
	coremetrics "github.com/kilianp07/fjsm/core/metrics"
	"github.com/kilianp07/fjsm/core/model"
	"github.com/kilianp07/fjsm/infra/logger"
)

// DefaultBaseURL is the backend origin used when none is configured.
const DefaultBaseURL = "http://localhost:5000"

// Config defines how to reach the backend.
type Config struct {
	BaseURL string `json:"base_url"`
	// TimeoutSeconds bounds each request. Zero leaves requests unbounded.
	TimeoutSeconds int `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base_url must be an http(s) URL, got %q", c.BaseURL)
	}
	if c.TimeoutSeconds < 0 {
		return fmt.Errorf("timeout_seconds must not be negative")
	}
	return nil
}

// SelectionSource yields the database selection to tag requests with.
type SelectionSource interface {
	Current() model.DatabaseSelection
}

// StaticSelection is a SelectionSource that never changes.
type StaticSelection model.DatabaseSelection

func (s StaticSelection) Current() model.DatabaseSelection { return model.Normalize(string(s)) }

// Client calls the backend REST API.
type Client struct {
	baseURL string
	sel     SelectionSource
	http    *http.Client
	auth    auth.Authorizer
	sink    coremetrics.MetricsSink
	log     logger.Logger
	newID   func() string
	delay   time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

// WithAuthorizer decorates every request with credentials.
func WithAuthorizer(a auth.Authorizer) Option {
	return func(c *Client) {
		if a != nil {
			c.auth = a
		}
	}
}

// WithMetrics reports every operation to sink.
func WithMetrics(sink coremetrics.MetricsSink) Option {
	return func(c *Client) {
		if sink != nil {
			c.sink = sink
		}
	}
}

// WithLogger sets the logger used for request tracing.
func WithLogger(l logger.Logger) Option {
	return func(c *Client) {
		if l != nil {
			c.log = l
		}
	}
}

// New creates a Client for cfg that reads the database selection from sel
// each time a request is built.
func New(cfg Config, sel SelectionSource, opts ...Option) *Client {
	cfg.SetDefaults()
	if sel == nil {
		sel = StaticSelection(model.DefaultSelection)
	}
	c := &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		sel:     sel,
		http:    &http.Client{Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second},
		auth:    auth.None{},
		sink:    coremetrics.NopSink{},
		log:     logger.NopLogger{},
		newID:   uuid.NewString,
		delay:   metricsDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the backend origin requests are sent to.
func (c *Client) BaseURL() string { return c.baseURL }

type call struct {
	op       string
	method   string
	path     string
	body     []byte
	jsonBody bool
}

type response struct {
	status int
	body   []byte
}

func (r *response) ok() bool { return r.status >= 200 && r.status < 300 }

// do sends the call and reads the whole body. The selection is read once
// here, so a concurrent change does not affect a request in flight.
func (c *Client) do(ctx context.Context, cl call) (*response, *coremetrics.RequestEvent, error) {
	sel := c.sel.Current()
	target := WithDB(cl.path, sel)
	ev := &coremetrics.RequestEvent{
		RequestID: c.newID(),
		Operation: cl.op,
		Method:    cl.method,
		Path:      target,
		DB:        sel,
		Time:      time.Now(),
	}

	var body io.Reader
	if cl.body != nil {
		body = bytes.NewReader(cl.body)
	}
	req, err := http.NewRequestWithContext(ctx, cl.method, c.baseURL+target, body)
	if err != nil {
		return nil, ev, fmt.Errorf("%s: failed to create request: %w", cl.op, err)
	}
	for k, v := range Headers(sel, cl.jsonBody) {
		req.Header[k] = v
	}
	req.Header.Set(HeaderRequestID, ev.RequestID)
	if err := c.auth.Authorize(ctx, req); err != nil {
		return nil, ev, fmt.Errorf("%s: failed to set auth header: %w", cl.op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		ev.Duration = time.Since(ev.Time)
		return nil, ev, fmt.Errorf("%s: failed to send request: %w", cl.op, err)
	}
	defer func() { _ = resp.Body.Close() }()
	data, err := io.ReadAll(resp.Body)
	ev.Status = resp.StatusCode
	ev.Duration = time.Since(ev.Time)
	if err != nil {
		return nil, ev, fmt.Errorf("%s: failed to read response: %w", cl.op, err)
	}
	c.log.Debugw("backend call", map[string]any{
		"request_id":  ev.RequestID,
		"op":          cl.op,
		"method":      cl.method,
		"path":        target,
		"status":      resp.StatusCode,
		"duration_ms": ev.Duration.Milliseconds(),
	})
	return &response{status: resp.StatusCode, body: data}, ev, nil
}

// record reports ev with the given outcome. Sink failures are logged and
// never surface to the caller.
func (c *Client) record(ev *coremetrics.RequestEvent, outcome coremetrics.Outcome) {
	if ev == nil {
		return
	}
	ev.Outcome = outcome
	if err := c.sink.RecordRequest(*ev); err != nil {
		c.log.Warnf("record %s: %v", ev.Operation, err)
	}
}

// skipped reports an operation that returned without touching the network.
func (c *Client) skipped(op string) {
	sel := c.sel.Current()
	c.record(&coremetrics.RequestEvent{Operation: op, DB: sel, Time: time.Now()}, coremetrics.OutcomeSkipped)
}

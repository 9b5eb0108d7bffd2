package upstream

import (
	"context"
	"time"

	"github.com/valyala/fasthttp"
)

// Config controls the outbound HTTP client.
type Config struct {
	// Timeout bounds one exchange when the context has no deadline.
	// Zero means no timeout.
	Timeout   time.Duration
	UserAgent string
}

// Observer is notified after every exchange.
type Observer interface {
	ObserveUpstream(method string, status int, err error, elapsed time.Duration)
}

// Option customises a Client.
type Option func(*Client)

// WithDial replaces the dialer, e.g. with an in-memory listener in tests.
func WithDial(dial fasthttp.DialFunc) Option {
	return func(c *Client) {
		c.client.Dial = dial
	}
}

// WithObserver reports every exchange to o.
func WithObserver(o Observer) Option {
	return func(c *Client) {
		c.observer = o
	}
}

// Client sends requests to the accounting API.
type Client struct {
	client   *fasthttp.Client
	timeout  time.Duration
	observer Observer
}

// New creates a Client. Path normalization is disabled so that the
// upstream's ":action" and ">subresource" segments are sent verbatim.
func New(cfg Config, opts ...Option) *Client {
	name := cfg.UserAgent
	if name == "" {
		name = "tripletex-mcp"
	}
	hc := &fasthttp.Client{
		Name:                   name,
		DisablePathNormalizing: true,
		MaxIdleConnDuration:    90 * time.Second,
		ReadBufferSize:         16 * 1024,
	}
	c := &Client{client: hc, timeout: cfg.Timeout}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Do performs one exchange, honouring the context deadline when set.
func (c *Client) Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	req.URI().DisablePathNormalizing = true

	started := time.Now()
	err := c.do(ctx, req, resp)
	if c.observer != nil {
		c.observer.ObserveUpstream(string(req.Header.Method()), resp.StatusCode(), err, time.Since(started))
	}
	return err
}

func (c *Client) do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error {
	if deadline, ok := ctx.Deadline(); ok {
		return c.client.DoDeadline(req, resp, deadline)
	}
	if c.timeout > 0 {
		return c.client.DoTimeout(req, resp, c.timeout)
	}
	return c.client.Do(req, resp)
}

// CloseIdleConnections releases pooled connections.
func (c *Client) CloseIdleConnections() {
	c.client.CloseIdleConnections()
}

package usecase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
)

// Transport performs one HTTP exchange.
type Transport interface {
	Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error
}

// SessionProvider hands out credentials for business calls.
type SessionProvider interface {
	EnsureSession(ctx context.Context) (*domain.Session, error)
	AuthHeaderFor(session *domain.Session) (string, error)
}

// Dispatcher performs authenticated business calls against the upstream API.
type Dispatcher struct {
	baseURL   string
	sessions  SessionProvider
	transport Transport
	logger    *zap.Logger
}

// NewDispatcher creates a Dispatcher sending requests below baseURL.
func NewDispatcher(baseURL string, sessions SessionProvider, transport Transport, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		baseURL:   baseURL,
		sessions:  sessions,
		transport: transport,
		logger:    logger,
	}
}

// Execute sends one request and returns the decoded JSON response.
// An empty success body yields an empty object.
func (d *Dispatcher) Execute(ctx context.Context, method, path string, query map[string]any, body any) (any, error) {
	return d.Do(ctx, domain.Request{Method: method, Path: path, Query: query, Body: body})
}

// Do is Execute for a prepared request descriptor.
func (d *Dispatcher) Do(ctx context.Context, r domain.Request) (any, error) {
	method := strings.ToUpper(r.Method)
	switch method {
	case fasthttp.MethodGet, fasthttp.MethodPost, fasthttp.MethodPut, fasthttp.MethodDelete:
	default:
		return nil, domain.NewError(domain.ErrCodeInvalid, fmt.Sprintf("unsupported method %q", r.Method))
	}

	current, err := d.sessions.EnsureSession(ctx)
	if err != nil {
		return nil, err
	}
	auth, err := d.sessions.AuthHeaderFor(current)
	if err != nil {
		return nil, err
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(method)
	req.SetRequestURI(domain.JoinURL(d.baseURL, r.Path))
	args := req.URI().QueryArgs()
	for _, p := range r.QueryParams() {
		args.Add(p.Key, p.Value)
	}
	req.Header.SetContentType("application/json")
	req.Header.Set(fasthttp.HeaderAccept, "application/json")
	req.Header.Set(fasthttp.HeaderAuthorization, auth)

	if r.Body != nil {
		payload, err := json.Marshal(r.Body)
		if err != nil {
			return nil, domain.WrapError(domain.ErrCodeInvalid, "encode request body", err)
		}
		req.SetBodyRaw(payload)
	}

	log := logger.WithRequestID(ctx, d.logger).With(
		zap.String("method", method),
		zap.String("path", r.Path),
	)

	started := time.Now()
	if err := d.transport.Do(ctx, req, resp); err != nil {
		log.Error("upstream call failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, fmt.Sprintf("%s %s", method, r.Path), err)
	}

	status := resp.StatusCode()
	raw := resp.Body()
	log.Debug("upstream call completed",
		zap.Int("status", status),
		zap.Int("bytes", len(raw)),
		zap.Duration("elapsed", time.Since(started)))

	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		log.Warn("upstream returned error status", zap.Int("status", status))
		return nil, domain.NewUpstreamError(status, string(raw))
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}

	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, &domain.Error{
			Code:       domain.ErrCodeProtocol,
			Message:    "upstream returned invalid JSON",
			StatusCode: status,
			Body:       string(raw),
			Err:        err,
		}
	}
	return out, nil
}

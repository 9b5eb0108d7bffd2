package session

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
	"github.com/fastygo/tripletex-mcp/repository"
)

const (
	createPath = "/token/session/:create"
	flightKey  = "session"
)

// Transport performs one HTTP exchange.
type Transport interface {
	Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error
}

// Config describes the account the manager authenticates as.
type Config struct {
	Credentials domain.Credentials
	BaseURL     string
	// TTL is the validity requested from the upstream. Defaults to one day.
	TTL time.Duration
	// RefreshMargin makes a session stale this long before it expires.
	RefreshMargin time.Duration
}

// Option customises a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// Manager owns the lifecycle of the process' upstream session.
type Manager struct {
	cfg       Config
	store     repository.SessionRepository
	transport Transport
	logger    *zap.Logger
	now       func() time.Time
	flight    singleflight.Group
}

// New creates a Manager. No session is created until first use.
func New(cfg Config, store repository.SessionRepository, transport Transport, logger *zap.Logger, opts ...Option) *Manager {
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.RefreshMargin < 0 || cfg.RefreshMargin >= cfg.TTL {
		cfg.RefreshMargin = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &Manager{
		cfg:       cfg,
		store:     store,
		transport: transport,
		logger:    logger,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// EnsureSession returns the cached session, creating it when none is cached
// or the cached one is stale. Concurrent callers share one creation exchange.
func (m *Manager) EnsureSession(ctx context.Context) (*domain.Session, error) {
	if err := m.cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	if session, ok := m.current(ctx); ok {
		return session, nil
	}
	return m.create(ctx, false)
}

// AuthHeader returns the Basic credential for the cached session.
// EnsureSession must have succeeded first.
func (m *Manager) AuthHeader(ctx context.Context) (string, error) {
	session, err := m.store.Get(ctx)
	if err != nil {
		return "", domain.ErrNoSession
	}
	return m.AuthHeaderFor(session)
}

// AuthHeaderFor returns the Basic credential for session, as returned by
// EnsureSession. It does not consult the store.
func (m *Manager) AuthHeaderFor(session *domain.Session) (string, error) {
	if session == nil || session.Token == "" {
		return "", domain.ErrNoSession
	}
	return BasicAuth(m.cfg.Credentials.Company(), session.Token), nil
}

// Refresh forces a new session exchange.
func (m *Manager) Refresh(ctx context.Context) (*domain.Session, error) {
	if err := m.cfg.Credentials.Validate(); err != nil {
		return nil, err
	}
	return m.create(ctx, true)
}

// RefreshIfStale renews an existing session that is about to expire.
// It never creates the first session.
func (m *Manager) RefreshIfStale(ctx context.Context) (bool, error) {
	session, err := m.store.Get(ctx)
	if err != nil {
		return false, nil
	}
	if !session.IsStale(m.now(), m.cfg.RefreshMargin) {
		return false, nil
	}
	if _, err := m.Refresh(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// Invalidate drops the cached session; the next call creates a new one.
func (m *Manager) Invalidate(ctx context.Context) error {
	return m.store.Delete(ctx)
}

// Status reports the session state without exposing the token.
func (m *Manager) Status(ctx context.Context) domain.SessionStatus {
	session, err := m.store.Get(ctx)
	if err != nil {
		return domain.SessionStatus{}
	}
	return session.Status()
}

// BasicAuth encodes "{companyID}:{token}" as an HTTP Basic credential.
func BasicAuth(companyID, token string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(companyID+":"+token))
}

func (m *Manager) current(ctx context.Context) (*domain.Session, bool) {
	session, err := m.store.Get(ctx)
	if err != nil || session.IsStale(m.now(), m.cfg.RefreshMargin) {
		return nil, false
	}
	return session, true
}

func (m *Manager) create(ctx context.Context, force bool) (*domain.Session, error) {
	// The exchange outlives a caller that gives up; others may be waiting on it.
	flightCtx := context.WithoutCancel(ctx)
	ch := m.flight.DoChan(flightKey, func() (interface{}, error) {
		if !force {
			if session, ok := m.current(flightCtx); ok {
				return session, nil
			}
		}
		return m.exchange(flightCtx)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*domain.Session), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

type createRequest struct {
	ConsumerToken  string `json:"consumerToken"`
	EmployeeToken  string `json:"employeeToken"`
	ExpirationDate string `json:"expirationDate"`
}

type createResponse struct {
	Value struct {
		Token string `json:"token"`
	} `json:"value"`
}

func (m *Manager) exchange(ctx context.Context) (*domain.Session, error) {
	log := logger.WithRequestID(ctx, m.logger)
	if m.cfg.BaseURL == "" {
		return nil, domain.NewError(domain.ErrCodeConfiguration, "upstream base URL is not configured")
	}

	createdAt := m.now()
	expiresAt := createdAt.Add(m.cfg.TTL)
	payload, err := json.Marshal(createRequest{
		ConsumerToken:  m.cfg.Credentials.ConsumerToken,
		EmployeeToken:  m.cfg.Credentials.EmployeeToken,
		ExpirationDate: expiresAt.Format(time.DateOnly),
	})
	if err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "encode session request", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	req.Header.SetMethod(fasthttp.MethodPost)
	req.SetRequestURI(domain.JoinURL(m.cfg.BaseURL, createPath))
	req.Header.SetContentType("application/json")
	req.SetBodyRaw(payload)

	if err := m.transport.Do(ctx, req, resp); err != nil {
		log.Error("session exchange failed", zap.Error(err))
		return nil, domain.WrapError(domain.ErrCodeInternal, "session exchange failed", err)
	}

	status := resp.StatusCode()
	body := string(resp.Body())
	if status < fasthttp.StatusOK || status >= fasthttp.StatusMultipleChoices {
		log.Warn("session creation rejected", zap.Int("status", status))
		return nil, domain.NewAuthenticationError(status, body)
	}

	var out createResponse
	if err := json.Unmarshal([]byte(body), &out); err != nil {
		return nil, &domain.Error{Code: domain.ErrCodeProtocol, Message: "invalid session response", StatusCode: status, Body: body, Err: err}
	}
	if out.Value.Token == "" {
		return nil, &domain.Error{Code: domain.ErrCodeProtocol, Message: "session response has no token", StatusCode: status, Body: body}
	}

	session := &domain.Session{
		Token:     out.Value.Token,
		CreatedAt: createdAt,
		ExpiresAt: expiresAt,
	}
	if err := m.store.Save(ctx, session); err != nil {
		return nil, domain.WrapError(domain.ErrCodeInternal, "store session", err)
	}

	log.Info("upstream session created", zap.Time("expires_at", expiresAt))
	return session, nil
}

package router

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	apiHandler "github.com/fastygo/tripletex-mcp/api/handler"
	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/internal/infrastructure/monitor"
	"github.com/fastygo/tripletex-mcp/pkg/httpcontext"
	"github.com/fastygo/tripletex-mcp/pkg/metrics"
)

type stubMonitor struct {
	status monitor.Status
}

func (m stubMonitor) GetStatus() monitor.Status {
	return m.status
}

type stubSessions struct {
	status      domain.SessionStatus
	invalidated int
	err         error
}

func (s *stubSessions) Status(ctx context.Context) domain.SessionStatus {
	return s.status
}

func (s *stubSessions) Invalidate(ctx context.Context) error {
	if s.err != nil {
		return s.err
	}
	s.invalidated++
	s.status = domain.SessionStatus{}
	return nil
}

func newRouter(t *testing.T, sessions *stubSessions) fasthttp.RequestHandler {
	t.Helper()
	return newRouterWithMonitor(t, sessions, nil)
}

func newRouterWithMonitor(t *testing.T, sessions *stubSessions, mon apiHandler.UpstreamMonitor) fasthttp.RequestHandler {
	t.Helper()
	log := zaptest.NewLogger(t)
	adapter := httpcontext.NewAdapter(time.Second)
	r := New(Handlers{
		Health:  apiHandler.NewHealthHandler(sessions, mon, "https://tripletex.no/v2", adapter, log),
		Session: apiHandler.NewSessionHandler(sessions, adapter, log),
	})
	return r.Handler
}

func serve(h fasthttp.RequestHandler, method, uri string) (*fasthttp.RequestCtx, map[string]any) {
	ctx := &fasthttp.RequestCtx{}
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	h(ctx)

	var body map[string]any
	_ = json.Unmarshal(ctx.Response.Body(), &body)
	return ctx, body
}

func activeStatus() domain.SessionStatus {
	created := time.Now()
	expires := created.Add(24 * time.Hour)
	return domain.SessionStatus{Active: true, CreatedAt: &created, ExpiresAt: &expires}
}

func TestHealth(t *testing.T) {
	h := newRouter(t, &stubSessions{status: activeStatus()})

	ctx, body := serve(h, fasthttp.MethodGet, "/health")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, "success", body["status"])
	assert.NotEmpty(t, string(ctx.Response.Header.Peek("X-Request-ID")))

	data := body["data"].(map[string]any)
	assert.Equal(t, "https://tripletex.no/v2", data["upstream"])
	assert.Equal(t, true, data["session"].(map[string]any)["active"])
	assert.NotContains(t, data, "session_expired")
}

func TestHealth_FlagsExpiredSession(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	h := newRouter(t, &stubSessions{status: domain.SessionStatus{Active: true, ExpiresAt: &past}})

	_, body := serve(h, fasthttp.MethodGet, "/health")
	assert.Equal(t, true, body["data"].(map[string]any)["session_expired"])
}

func TestHealth_ReportsProbe(t *testing.T) {
	checked := time.Now()
	mon := stubMonitor{status: monitor.Status{Reachable: true, StatusCode: 401, LastCheck: checked}}
	h := newRouterWithMonitor(t, &stubSessions{}, mon)

	ctx, body := serve(h, fasthttp.MethodGet, "/health")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	probe := body["data"].(map[string]any)["probe"].(map[string]any)
	assert.Equal(t, true, probe["reachable"])
	assert.Equal(t, float64(401), probe["status_code"])
}

func TestHealth_DegradedWhenUpstreamUnreachable(t *testing.T) {
	mon := stubMonitor{status: monitor.Status{Error: "connection refused", LastCheck: time.Now()}}
	h := newRouterWithMonitor(t, &stubSessions{}, mon)

	ctx, body := serve(h, fasthttp.MethodGet, "/health")
	assert.Equal(t, fasthttp.StatusServiceUnavailable, ctx.Response.StatusCode())
	assert.Equal(t, "DEGRADED", body["code"])
	probe := body["meta"].(map[string]any)["probe"].(map[string]any)
	assert.Equal(t, "connection refused", probe["error"])
}

func TestHealth_UncheckedProbeIsNotDegraded(t *testing.T) {
	h := newRouterWithMonitor(t, &stubSessions{}, stubMonitor{})

	ctx, _ := serve(h, fasthttp.MethodGet, "/health")
	assert.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
}

func TestSession_GetAndReset(t *testing.T) {
	sessions := &stubSessions{status: activeStatus()}
	h := newRouter(t, sessions)

	ctx, body := serve(h, fasthttp.MethodGet, "/session")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, true, body["data"].(map[string]any)["active"])

	ctx, body = serve(h, fasthttp.MethodDelete, "/session")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Equal(t, 1, sessions.invalidated)
	assert.Equal(t, false, body["data"].(map[string]any)["active"])
}

func TestSession_ResetFailure(t *testing.T) {
	h := newRouter(t, &stubSessions{err: errors.New("store unavailable")})

	ctx, body := serve(h, fasthttp.MethodDelete, "/session")
	assert.Equal(t, fasthttp.StatusInternalServerError, ctx.Response.StatusCode())
	assert.Equal(t, "error", body["status"])
	assert.Equal(t, "INTERNAL", body["code"])
	assert.Equal(t, "store unavailable", body["error"])
}

func TestUnknownRoute(t *testing.T) {
	h := newRouter(t, &stubSessions{})

	ctx, _ := serve(h, fasthttp.MethodGet, "/project")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	m.ObserveToolCall("whoami", metrics.OutcomeOK, 0)

	adapter := httpcontext.NewAdapter(time.Second)
	sessions := &stubSessions{}
	r := New(Handlers{
		Health:  apiHandler.NewHealthHandler(sessions, nil, "https://tripletex.no/v2", adapter, nil),
		Session: apiHandler.NewSessionHandler(sessions, adapter, nil),
		Metrics: metrics.Handler(reg),
	})

	ctx, _ := serve(r.Handler, fasthttp.MethodGet, "/metrics")
	require.Equal(t, fasthttp.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), `tripletex_mcp_tool_calls_total{outcome="ok",tool="whoami"} 1`)
}

func TestMetrics_NotRoutedWhenDisabled(t *testing.T) {
	h := newRouter(t, &stubSessions{})

	ctx, _ := serve(h, fasthttp.MethodGet, "/metrics")
	assert.Equal(t, fasthttp.StatusNotFound, ctx.Response.StatusCode())
}

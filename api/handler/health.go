package handler

import (
	"net/http"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tripletex-mcp/api/transport"
	"github.com/fastygo/tripletex-mcp/internal/infrastructure/monitor"
	"github.com/fastygo/tripletex-mcp/pkg/httpcontext"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
)

// UpstreamMonitor reports the latest reachability probe.
type UpstreamMonitor interface {
	GetStatus() monitor.Status
}

type HealthHandler struct {
	baseHandler
	sessions SessionStatusProvider
	monitor  UpstreamMonitor
	upstream string
	started  time.Time
}

// NewHealthHandler builds the health endpoint. mon may be nil when probing
// is disabled.
func NewHealthHandler(sessions SessionStatusProvider, mon UpstreamMonitor, upstreamURL string, adapter *httpcontext.Adapter, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
		monitor:     mon,
		upstream:    upstreamURL,
		started:     time.Now(),
	}
}

// @Summary Health check
// @Tags health
// @Router /health [get]
func (h *HealthHandler) Check(ctx *fasthttp.RequestCtx) {
	reqCtx, cancel := h.requestContext(ctx)
	defer cancel()

	status := h.sessions.Status(reqCtx)
	payload := map[string]interface{}{
		"timestamp": time.Now().UTC(),
		"uptime":    time.Since(h.started).Round(time.Second).String(),
		"upstream":  h.upstream,
		"session":   status,
	}
	if status.ExpiresAt != nil && !status.ExpiresAt.After(time.Now()) {
		logger.WithRequestID(reqCtx, h.logger).Warn("cached session is past its expiry")
		payload["session_expired"] = true
	}

	if h.monitor != nil {
		probe := h.monitor.GetStatus()
		payload["probe"] = probe
		if probe.Checked() && !probe.Reachable {
			h.respondJSON(ctx, http.StatusServiceUnavailable, transport.NewError("DEGRADED", "upstream unreachable", payload))
			return
		}
	}
	h.respondSuccess(ctx, http.StatusOK, payload)
}

package handler

import (
	"context"
	"net/http"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/pkg/httpcontext"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
)

// SessionStatusProvider exposes the token-free session state.
type SessionStatusProvider interface {
	Status(ctx context.Context) domain.SessionStatus
}

// SessionController inspects and resets the upstream session.
type SessionController interface {
	SessionStatusProvider
	Invalidate(ctx context.Context) error
}

type SessionHandler struct {
	baseHandler
	sessions SessionController
}

func NewSessionHandler(sessions SessionController, adapter *httpcontext.Adapter, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		baseHandler: newBaseHandler(adapter, logger),
		sessions:    sessions,
	}
}

// @Summary Session status
// @Tags session
// @Router /session [get]
func (h *SessionHandler) Get(ctx *fasthttp.RequestCtx) {
	reqCtx, cancel := h.requestContext(ctx)
	defer cancel()
	h.respondSuccess(ctx, http.StatusOK, h.sessions.Status(reqCtx))
}

// @Summary Drop the cached session; the next tool call creates a new one
// @Tags session
// @Router /session [delete]
func (h *SessionHandler) Reset(ctx *fasthttp.RequestCtx) {
	reqCtx, cancel := h.requestContext(ctx)
	defer cancel()

	if err := h.sessions.Invalidate(reqCtx); err != nil {
		logger.WithRequestID(reqCtx, h.logger).Error("session reset failed", zap.Error(err))
		h.respondError(ctx, err)
		return
	}
	logger.WithRequestID(reqCtx, h.logger).Info("session reset")
	h.respondSuccess(ctx, http.StatusOK, h.sessions.Status(reqCtx))
}

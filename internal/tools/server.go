package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
	"github.com/fastygo/tripletex-mcp/pkg/metrics"
)

// Executor performs a bound request.
type Executor interface {
	Do(ctx context.Context, r domain.Request) (any, error)
}

// CallObserver records tool invocations.
type CallObserver interface {
	ObserveToolCall(tool, outcome string, elapsed time.Duration)
}

type handlerOptions struct {
	observer CallObserver
}

// Option customises tool handlers.
type Option func(*handlerOptions)

// WithCallObserver reports every call outcome to o.
func WithCallObserver(o CallObserver) Option {
	return func(h *handlerOptions) {
		h.observer = o
	}
}

const instructions = `Tools in this server call the Tripletex accounting API on behalf of one configured employee.
Dates are YYYY-MM-DD. Search tools page with "from" and "count"; narrow responses with "fields".
Write tools (create, update, delete, approve, reject) change real accounting data.`

// NewServer builds an MCP server exposing defs.
func NewServer(name, version string, exec Executor, defs []Definition, log *zap.Logger, opts ...Option) *server.MCPServer {
	s := server.NewMCPServer(
		name,
		version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
		server.WithInstructions(instructions),
	)
	Register(s, exec, defs, log, opts...)
	return s
}

// Register adds every definition to s.
func Register(s *server.MCPServer, exec Executor, defs []Definition, log *zap.Logger, opts ...Option) {
	for _, def := range defs {
		s.AddTool(def.Tool(), Handler(def, exec, log, opts...))
	}
}

// Tool renders the MCP schema of d.
func (d Definition) Tool() mcp.Tool {
	opts := []mcp.ToolOption{mcp.WithDescription(d.Description)}
	switch d.Method {
	case fasthttp.MethodGet:
		opts = append(opts, mcp.WithReadOnlyHintAnnotation(true))
	case fasthttp.MethodDelete:
		opts = append(opts, mcp.WithDestructiveHintAnnotation(true))
	default:
		opts = append(opts, mcp.WithReadOnlyHintAnnotation(false))
	}

	for _, p := range d.Params {
		props := []mcp.PropertyOption{mcp.Description(p.Description)}
		if p.Required {
			props = append(props, mcp.Required())
		}
		switch p.Type {
		case TypeBoolean:
			opts = append(opts, mcp.WithBoolean(p.Name, props...))
		case TypeNumber, TypeInteger:
			opts = append(opts, mcp.WithNumber(p.Name, props...))
		default:
			opts = append(opts, mcp.WithString(p.Name, props...))
		}
	}
	return mcp.NewTool(d.Name, opts...)
}

// Handler binds call arguments, dispatches the request and renders the
// upstream JSON as text. Failures become MCP error results.
func Handler(def Definition, exec Executor, log *zap.Logger, opts ...Option) server.ToolHandlerFunc {
	if log == nil {
		log = zap.NewNop()
	}
	var o handlerOptions
	for _, opt := range opts {
		opt(&o)
	}
	observe := func(outcome string, started time.Time) {
		if o.observer != nil {
			o.observer.ObserveToolCall(def.Name, outcome, time.Since(started))
		}
	}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		started := time.Now()
		ctx = logger.ContextWithRequestID(ctx, uuid.NewString())
		l := logger.WithRequestID(ctx, log).With(zap.String("tool", def.Name))

		req, err := Bind(def, request.GetArguments())
		if err != nil {
			l.Warn("rejected tool arguments", zap.Error(err))
			observe(metrics.OutcomeInvalid, started)
			return mcp.NewToolResultError(err.Error()), nil
		}

		out, err := exec.Do(ctx, req)
		if err != nil {
			l.Warn("tool call failed", zap.Error(err))
			observe(metrics.OutcomeError, started)
			return mcp.NewToolResultError(err.Error()), nil
		}

		text, err := json.Marshal(out)
		if err != nil {
			l.Error("encode tool result", zap.Error(err))
			observe(metrics.OutcomeError, started)
			return mcp.NewToolResultError("encode result: " + err.Error()), nil
		}
		l.Info("tool call completed", zap.Duration("elapsed", time.Since(started)))
		observe(metrics.OutcomeOK, started)
		return mcp.NewToolResultText(string(text)), nil
	}
}

package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/tripletex-mcp/api/handler"
)

type Handlers struct {
	Health  *apiHandler.HealthHandler
	Session *apiHandler.SessionHandler
	// Metrics is optional.
	Metrics fasthttp.RequestHandler
}

func New(handlers Handlers) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	r.GET("/session", handlers.Session.Get)
	r.DELETE("/session", handlers.Session.Reset)

	if handlers.Metrics != nil {
		r.GET("/metrics", handlers.Metrics)
	}

	return r
}

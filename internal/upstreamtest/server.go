// Package upstreamtest runs an in-memory fake of the accounting API for tests.
package upstreamtest

import (
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttputil"

	"github.com/fastygo/tripletex-mcp/internal/infrastructure/upstream"
)

// BaseURL is the base URL clients should be configured with.
const BaseURL = "http://tripletex.test/v2"

// SessionPath is the raw request URI of the session-creation exchange.
const SessionPath = "/v2/token/session/:create"

// Recorded is a captured inbound request.
type Recorded struct {
	Method        string
	RequestURI    string
	Authorization string
	ContentType   string
	Body          []byte
}

// Server is a fake upstream. Requests to SessionPath are answered by the
// session handler; everything else goes to the business handler.
type Server struct {
	ln *fasthttputil.InmemoryListener

	SessionCalls atomic.Int32
	Token        string

	mu       sync.Mutex
	session  fasthttp.RequestHandler
	business fasthttp.RequestHandler
	requests []Recorded
}

// New starts a fake upstream that issues Token "session-token" and answers
// business calls with `{}`.
func New(t *testing.T) *Server {
	t.Helper()

	s := &Server{
		ln:    fasthttputil.NewInmemoryListener(),
		Token: "session-token",
	}
	srv := &fasthttp.Server{Handler: s.handle}
	go func() {
		_ = srv.Serve(s.ln)
	}()
	t.Cleanup(func() {
		_ = s.ln.Close()
	})
	return s
}

// Client returns an upstream client dialing this server.
func (s *Server) Client(cfg upstream.Config, opts ...upstream.Option) *upstream.Client {
	dial := upstream.WithDial(func(string) (net.Conn, error) {
		return s.ln.Dial()
	})
	return upstream.New(cfg, append([]upstream.Option{dial}, opts...)...)
}

// OnSession overrides the session-creation handler.
func (s *Server) OnSession(h fasthttp.RequestHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = h
}

// OnBusiness sets the handler for business calls.
func (s *Server) OnBusiness(h fasthttp.RequestHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.business = h
}

// Requests returns the business calls received so far.
func (s *Server) Requests() []Recorded {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Recorded, len(s.requests))
	copy(out, s.requests)
	return out
}

// LastRequest returns the most recent business call.
func (s *Server) LastRequest(t *testing.T) Recorded {
	t.Helper()
	reqs := s.Requests()
	if len(reqs) == 0 {
		t.Fatal("no business request recorded")
	}
	return reqs[len(reqs)-1]
}

func (s *Server) handle(ctx *fasthttp.RequestCtx) {
	uri := string(ctx.Request.Header.RequestURI())
	s.mu.Lock()
	session, business := s.session, s.business
	s.mu.Unlock()

	if uri == SessionPath {
		s.SessionCalls.Add(1)
		if session != nil {
			session(ctx)
			return
		}
		WriteJSON(ctx, fasthttp.StatusOK, map[string]any{
			"value": map[string]any{"token": s.Token},
		})
		return
	}

	s.mu.Lock()
	s.requests = append(s.requests, Recorded{
		Method:        string(ctx.Method()),
		RequestURI:    uri,
		Authorization: string(ctx.Request.Header.Peek(fasthttp.HeaderAuthorization)),
		ContentType:   string(ctx.Request.Header.ContentType()),
		Body:          append([]byte(nil), ctx.PostBody()...),
	})
	s.mu.Unlock()

	if business != nil {
		business(ctx)
		return
	}
	WriteJSON(ctx, fasthttp.StatusOK, map[string]any{})
}

// WriteJSON writes payload as a JSON response.
func WriteJSON(ctx *fasthttp.RequestCtx, status int, payload any) {
	body, _ := json.Marshal(payload)
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

// Respond returns a handler replying with a fixed status and raw body.
func Respond(status int, body string) fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetStatusCode(status)
		ctx.SetBodyString(body)
	}
}

// Echo returns a handler that replies with the request body.
func Echo() fasthttp.RequestHandler {
	return func(ctx *fasthttp.RequestCtx) {
		ctx.SetContentType("application/json")
		ctx.SetStatusCode(fasthttp.StatusOK)
		ctx.SetBody(ctx.PostBody())
	}
}

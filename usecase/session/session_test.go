package session_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap/zaptest"

	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/internal/infrastructure/upstream"
	"github.com/fastygo/tripletex-mcp/internal/upstreamtest"
	"github.com/fastygo/tripletex-mcp/repository/memory"
	"github.com/fastygo/tripletex-mcp/usecase/session"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

var validCredentials = domain.Credentials{
	ConsumerToken: "consumer",
	EmployeeToken: "employee",
}

func newManager(t *testing.T, srv *upstreamtest.Server, creds domain.Credentials, clock *fakeClock) *session.Manager {
	t.Helper()
	if clock == nil {
		clock = &fakeClock{now: time.Now()}
	}
	return session.New(
		session.Config{
			Credentials:   creds,
			BaseURL:       upstreamtest.BaseURL,
			TTL:           24 * time.Hour,
			RefreshMargin: 10 * time.Minute,
		},
		memory.NewSessionRepository(24*time.Hour),
		srv.Client(upstream.Config{Timeout: 2 * time.Second}),
		zaptest.NewLogger(t),
		session.WithClock(clock.Now),
	)
}

func TestEnsureSession_CreatesOnceAndReuses(t *testing.T) {
	srv := upstreamtest.New(t)
	mgr := newManager(t, srv, validCredentials, nil)
	ctx := context.Background()

	first, err := mgr.EnsureSession(ctx)
	require.NoError(t, err)
	second, err := mgr.EnsureSession(ctx)
	require.NoError(t, err)

	assert.Equal(t, "session-token", first.Token)
	assert.Equal(t, first.Token, second.Token)
	assert.Equal(t, int32(1), srv.SessionCalls.Load())
}

func TestEnsureSession_SendsCredentialsAndExpirationDate(t *testing.T) {
	srv := upstreamtest.New(t)
	var (
		mu       sync.Mutex
		received map[string]any
		method   string
	)
	srv.OnSession(func(ctx *fasthttp.RequestCtx) {
		mu.Lock()
		defer mu.Unlock()
		method = string(ctx.Method())
		_ = json.Unmarshal(ctx.PostBody(), &received)
		upstreamtest.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"value": map[string]any{"token": "abc"}})
	})
	clock := &fakeClock{now: time.Date(2026, 10, 19, 23, 30, 0, 0, time.UTC)}
	mgr := newManager(t, srv, validCredentials, clock)

	sess, err := mgr.EnsureSession(context.Background())
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, fasthttp.MethodPost, method)
	assert.Equal(t, map[string]any{
		"consumerToken":  "consumer",
		"employeeToken":  "employee",
		"expirationDate": "2026-10-20",
	}, received)
	assert.Equal(t, clock.Now(), sess.CreatedAt)
	assert.Equal(t, clock.Now().Add(24*time.Hour), sess.ExpiresAt)
}

func TestEnsureSession_MissingCredentials(t *testing.T) {
	cases := map[string]domain.Credentials{
		"consumer token": {EmployeeToken: "employee"},
		"employee token": {ConsumerToken: "consumer"},
		"both":           {},
	}
	for name, creds := range cases {
		t.Run(name, func(t *testing.T) {
			srv := upstreamtest.New(t)
			mgr := newManager(t, srv, creds, nil)

			for i := 0; i < 2; i++ {
				_, err := mgr.EnsureSession(context.Background())
				assert.True(t, domain.IsDomainError(err, domain.ErrCodeConfiguration), "got %v", err)
			}
			assert.Zero(t, srv.SessionCalls.Load())
		})
	}
}

func TestEnsureSession_RejectedExchange(t *testing.T) {
	srv := upstreamtest.New(t)
	srv.OnSession(upstreamtest.Respond(fasthttp.StatusUnauthorized, `{"status":401,"message":"Invalid consumer token"}`))
	mgr := newManager(t, srv, validCredentials, nil)

	_, err := mgr.EnsureSession(context.Background())
	require.Error(t, err)

	var dErr *domain.Error
	require.ErrorAs(t, err, &dErr)
	assert.Equal(t, domain.ErrCodeAuthentication, dErr.Code)
	assert.Equal(t, fasthttp.StatusUnauthorized, dErr.StatusCode)
	assert.Equal(t, `{"status":401,"message":"Invalid consumer token"}`, dErr.Body)
	assert.Contains(t, err.Error(), "401")

	// Nothing was cached, so the next call tries again.
	_, err = mgr.EnsureSession(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(2), srv.SessionCalls.Load())
	assert.False(t, mgr.Status(context.Background()).Active)
}

func TestEnsureSession_InvalidResponse(t *testing.T) {
	cases := map[string]string{
		"not json":      "<html>maintenance</html>",
		"missing token": `{"value":{}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			srv := upstreamtest.New(t)
			srv.OnSession(upstreamtest.Respond(fasthttp.StatusOK, body))
			mgr := newManager(t, srv, validCredentials, nil)

			_, err := mgr.EnsureSession(context.Background())
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeProtocol), "got %v", err)
		})
	}
}

func TestEnsureSession_ConcurrentFirstUseCreatesOnce(t *testing.T) {
	srv := upstreamtest.New(t)
	srv.OnSession(func(ctx *fasthttp.RequestCtx) {
		time.Sleep(50 * time.Millisecond)
		upstreamtest.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"value": map[string]any{"token": "shared"}})
	})
	mgr := newManager(t, srv, validCredentials, nil)

	const callers = 16
	var wg sync.WaitGroup
	tokens := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sess, err := mgr.EnsureSession(context.Background())
			errs[i] = err
			if sess != nil {
				tokens[i] = sess.Token
			}
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "shared", tokens[i])
	}
	assert.Equal(t, int32(1), srv.SessionCalls.Load())
}

func TestEnsureSession_CallerCancellationDoesNotAbortSharedExchange(t *testing.T) {
	srv := upstreamtest.New(t)
	release := make(chan struct{})
	srv.OnSession(func(ctx *fasthttp.RequestCtx) {
		<-release
		upstreamtest.WriteJSON(ctx, fasthttp.StatusOK, map[string]any{"value": map[string]any{"token": "late"}})
	})
	mgr := newManager(t, srv, validCredentials, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		_, err := mgr.EnsureSession(ctx)
		done <- err
	}()
	require.Eventually(t, func() bool { return srv.SessionCalls.Load() == 1 }, time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	close(release)
	sess, err := mgr.EnsureSession(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "late", sess.Token)
	assert.Equal(t, int32(1), srv.SessionCalls.Load())
}

func TestEnsureSession_RecreatesStaleSession(t *testing.T) {
	srv := upstreamtest.New(t)
	clock := &fakeClock{now: time.Now()}
	mgr := newManager(t, srv, validCredentials, clock)
	ctx := context.Background()

	_, err := mgr.EnsureSession(ctx)
	require.NoError(t, err)

	clock.Advance(23 * time.Hour)
	_, err = mgr.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(1), srv.SessionCalls.Load())

	clock.Advance(55 * time.Minute)
	_, err = mgr.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.SessionCalls.Load())
}

func TestAuthHeader(t *testing.T) {
	srv := upstreamtest.New(t)
	creds := validCredentials
	creds.CompanyID = "12345"
	mgr := newManager(t, srv, creds, nil)
	ctx := context.Background()

	_, err := mgr.AuthHeader(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNoSession))

	_, err = mgr.EnsureSession(ctx)
	require.NoError(t, err)

	header, err := mgr.AuthHeader(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Basic "+base64.StdEncoding.EncodeToString([]byte("12345:session-token")), header)
}

func TestAuthHeaderFor(t *testing.T) {
	srv := upstreamtest.New(t)
	mgr := newManager(t, srv, validCredentials, nil)

	_, err := mgr.AuthHeaderFor(nil)
	assert.ErrorIs(t, err, domain.ErrNoSession)
	_, err = mgr.AuthHeaderFor(&domain.Session{})
	assert.ErrorIs(t, err, domain.ErrNoSession)

	header, err := mgr.AuthHeaderFor(&domain.Session{Token: "secret"})
	require.NoError(t, err)
	assert.Equal(t, "Basic MDpzZWNyZXQ=", header)
	assert.Zero(t, srv.SessionCalls.Load())
}

func TestBasicAuth_DefaultCompany(t *testing.T) {
	creds := domain.Credentials{}
	assert.Equal(t, "Basic MDpzZWNyZXQ=", session.BasicAuth(creds.Company(), "secret"))
}

func TestInvalidate(t *testing.T) {
	srv := upstreamtest.New(t)
	mgr := newManager(t, srv, validCredentials, nil)
	ctx := context.Background()

	_, err := mgr.EnsureSession(ctx)
	require.NoError(t, err)
	require.NoError(t, mgr.Invalidate(ctx))

	_, err = mgr.AuthHeader(ctx)
	assert.ErrorIs(t, err, domain.ErrNoSession)

	_, err = mgr.EnsureSession(ctx)
	require.NoError(t, err)
	assert.Equal(t, int32(2), srv.SessionCalls.Load())
}

func TestRefreshIfStale(t *testing.T) {
	srv := upstreamtest.New(t)
	clock := &fakeClock{now: time.Now()}
	mgr := newManager(t, srv, validCredentials, clock)
	ctx := context.Background()

	refreshed, err := mgr.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.False(t, refreshed, "no session yet, nothing to refresh")
	assert.Zero(t, srv.SessionCalls.Load())

	_, err = mgr.EnsureSession(ctx)
	require.NoError(t, err)

	refreshed, err = mgr.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.False(t, refreshed)

	clock.Advance(24 * time.Hour)
	refreshed, err = mgr.RefreshIfStale(ctx)
	require.NoError(t, err)
	assert.True(t, refreshed)
	assert.Equal(t, int32(2), srv.SessionCalls.Load())
}

func TestStatus(t *testing.T) {
	srv := upstreamtest.New(t)
	clock := &fakeClock{now: time.Date(2026, 10, 19, 8, 0, 0, 0, time.UTC)}
	mgr := newManager(t, srv, validCredentials, clock)
	ctx := context.Background()

	assert.Equal(t, domain.SessionStatus{}, mgr.Status(ctx))

	_, err := mgr.EnsureSession(ctx)
	require.NoError(t, err)

	status := mgr.Status(ctx)
	assert.True(t, status.Active)
	require.NotNil(t, status.ExpiresAt)
	assert.Equal(t, clock.Now().Add(24*time.Hour), *status.ExpiresAt)
}

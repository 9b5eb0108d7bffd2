// Package monitor probes the accounting API in the background so the status
// server can report whether it is reachable.
package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// Doer performs one HTTP exchange.
type Doer interface {
	Do(ctx context.Context, req *fasthttp.Request, resp *fasthttp.Response) error
}

type Monitor struct {
	client  Doer
	target  string
	timeout time.Duration

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
	logger   *zap.Logger
}

// New creates a monitor probing target. Any HTTP response counts as
// reachable; only transport failures mark the upstream offline.
func New(client Doer, target string, interval, timeout time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = time.Minute
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		client:   client,
		target:   target,
		timeout:  timeout,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}

func (m *Monitor) IsOnline() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status.Reachable
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.Check(context.Background())
	for {
		select {
		case <-ticker.C:
			m.Check(context.Background())
		case <-m.stopCh:
			return
		}
	}
}

// Check runs one probe and stores its outcome.
func (m *Monitor) Check(ctx context.Context) Status {
	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(m.target)
	req.Header.SetMethod(fasthttp.MethodGet)
	resp.SkipBody = true

	started := time.Now()
	err := m.client.Do(ctx, req, resp)
	status := Status{LastCheck: time.Now()}
	if err != nil {
		status.Error = err.Error()
	} else {
		status.Reachable = true
		status.StatusCode = resp.StatusCode()
		status.Latency = time.Since(started).Round(time.Millisecond).String()
	}

	m.mu.Lock()
	previous := m.status
	m.status = status
	m.mu.Unlock()

	if previous.Checked() && previous.Reachable != status.Reachable {
		if status.Reachable {
			m.logger.Info("upstream reachable again", zap.String("target", m.target))
		} else {
			m.logger.Warn("upstream unreachable", zap.String("target", m.target), zap.String("error", status.Error))
		}
	}
	return status
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionRefresher renews the upstream session when it is close to expiry.
type SessionRefresher interface {
	RefreshIfStale(ctx context.Context) (bool, error)
}

// KeeperConfig controls how often the session is checked.
type KeeperConfig struct {
	Interval time.Duration
	Timeout  time.Duration
}

// SessionKeeper periodically renews the upstream session so that long-running
// processes do not send business calls with an expired token.
type SessionKeeper struct {
	sessions SessionRefresher
	logger   *zap.Logger
	cron     *cron.Cron
	cfg      KeeperConfig
}

// NewSessionKeeper schedules RefreshIfStale every cfg.Interval. The
// scheduler does not run until Start.
func NewSessionKeeper(sessions SessionRefresher, logger *zap.Logger, cfg KeeperConfig) (*SessionKeeper, error) {
	if cfg.Interval < time.Second {
		return nil, fmt.Errorf("session keeper interval must be at least 1s, got %s", cfg.Interval)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	k := &SessionKeeper{
		sessions: sessions,
		logger:   logger,
		cfg:      cfg,
		cron:     cron.New(),
	}

	k.cron.Schedule(intervalSchedule(cfg.Interval), cron.FuncJob(func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
		defer cancel()
		k.Tick(ctx)
	}))
	return k, nil
}

// intervalSchedule fires at a fixed delay after the previous activation.
// cron.Every truncates to whole seconds; this keeps the full duration.
type intervalSchedule time.Duration

func (s intervalSchedule) Next(t time.Time) time.Time {
	return t.Add(time.Duration(s))
}

// Start launches the cron scheduler.
func (k *SessionKeeper) Start() {
	if k == nil || k.cron == nil {
		return
	}
	k.cron.Start()
	k.logger.Info("session keeper started", zap.Duration("interval", k.cfg.Interval))
}

// Stop waits for a running check to finish or ctx to expire.
func (k *SessionKeeper) Stop(ctx context.Context) {
	if k == nil || k.cron == nil {
		return
	}
	stopCtx := k.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
	}
	k.logger.Info("session keeper stopped")
}

// Tick runs one check synchronously.
func (k *SessionKeeper) Tick(ctx context.Context) {
	refreshed, err := k.sessions.RefreshIfStale(ctx)
	if err != nil {
		k.logger.Error("session refresh failed", zap.Error(err))
		return
	}
	if refreshed {
		k.logger.Info("session refreshed ahead of expiry")
	}
}

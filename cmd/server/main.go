package main

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/pflag"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	apiHandler "github.com/fastygo/tripletex-mcp/api/handler"
	"github.com/fastygo/tripletex-mcp/domain"
	"github.com/fastygo/tripletex-mcp/internal/config"
	"github.com/fastygo/tripletex-mcp/internal/infrastructure/monitor"
	"github.com/fastygo/tripletex-mcp/internal/infrastructure/upstream"
	"github.com/fastygo/tripletex-mcp/internal/router"
	"github.com/fastygo/tripletex-mcp/internal/services"
	"github.com/fastygo/tripletex-mcp/internal/services/lifecycle"
	"github.com/fastygo/tripletex-mcp/internal/tools"
	"github.com/fastygo/tripletex-mcp/pkg/httpcontext"
	"github.com/fastygo/tripletex-mcp/pkg/logger"
	"github.com/fastygo/tripletex-mcp/pkg/metrics"
	"github.com/fastygo/tripletex-mcp/repository/memory"
	"github.com/fastygo/tripletex-mcp/usecase"
	"github.com/fastygo/tripletex-mcp/usecase/session"
)

// version is set at build time via ldflags.
var version = "dev"

func main() {
	envFile := pflag.String("env-file", "", "load environment from this file instead of ./.env")
	logLevel := pflag.String("log-level", "", "override LOG_LEVEL")
	pflag.Parse()

	cfg, err := config.Load(*envFile)
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if *logLevel != "" {
		cfg.Logger.Level = *logLevel
	}

	zapLogger, err := logger.New(logger.Config{
		Level:    cfg.Logger.Level,
		Encoding: cfg.Logger.Encoding,
		Output:   os.Stderr,
	})
	if err != nil {
		log.Fatalf("logger error: %v", err)
	}
	defer zapLogger.Sync()

	appCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := lifecycle.New(cfg.Context.ShutdownTimeout, zapLogger)
	stopSignals := manager.Listen(cancel)
	defer stopSignals()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	appMetrics := metrics.New(registry)

	client := upstream.New(upstream.Config{
		Timeout:   cfg.Context.RequestTimeout,
		UserAgent: cfg.AppName + "/" + version,
	}, upstream.WithObserver(appMetrics))
	manager.Register("upstream_client", func(ctx context.Context) error {
		client.CloseIdleConnections()
		return nil
	})

	sessions := session.New(
		session.Config{
			Credentials: domain.Credentials{
				ConsumerToken: cfg.Tripletex.ConsumerToken,
				EmployeeToken: cfg.Tripletex.EmployeeToken,
				CompanyID:     cfg.Tripletex.CompanyID,
			},
			BaseURL:       cfg.Tripletex.BaseURL,
			TTL:           cfg.Session.TTL,
			RefreshMargin: cfg.Session.RefreshMargin,
		},
		memory.NewSessionRepository(cfg.Session.TTL),
		client,
		zapLogger.Named("session"),
	)
	if cfg.Tripletex.ConsumerToken == "" || cfg.Tripletex.EmployeeToken == "" {
		zapLogger.Warn("TRIPLETEX_CONSUMER_TOKEN or TRIPLETEX_EMPLOYEE_TOKEN is not set; tool calls will fail")
	}

	dispatcher := usecase.NewDispatcher(cfg.Tripletex.BaseURL, sessions, client, zapLogger.Named("dispatcher"))

	if cfg.Session.RefreshInterval > 0 {
		keeper, err := services.NewSessionKeeper(sessions, zapLogger.Named("keeper"), services.KeeperConfig{
			Interval: cfg.Session.RefreshInterval,
			Timeout:  cfg.Context.RequestTimeout,
		})
		if err != nil {
			zapLogger.Fatal("session keeper setup failed", zap.Error(err))
		}
		keeper.Start()
		manager.Register("session_keeper", func(ctx context.Context) error {
			keeper.Stop(ctx)
			return nil
		})
	}

	if cfg.HTTP.Enabled {
		var mon apiHandler.UpstreamMonitor
		if cfg.HTTP.ProbeInterval > 0 {
			probe := monitor.New(client, cfg.Tripletex.BaseURL, cfg.HTTP.ProbeInterval, cfg.Context.RequestTimeout, zapLogger.Named("monitor"))
			probe.Start()
			manager.Register("upstream_monitor", func(ctx context.Context) error {
				probe.Stop()
				return nil
			})
			mon = probe
		}

		ctxAdapter := httpcontext.NewAdapter(cfg.HTTP.ReadTimeout)
		r := router.New(router.Handlers{
			Health:  apiHandler.NewHealthHandler(sessions, mon, cfg.Tripletex.BaseURL, ctxAdapter, zapLogger),
			Session: apiHandler.NewSessionHandler(sessions, ctxAdapter, zapLogger),
			Metrics: metrics.Handler(registry),
		})
		statusServer := &fasthttp.Server{
			Handler:      r.Handler,
			ReadTimeout:  cfg.HTTP.ReadTimeout,
			WriteTimeout: cfg.HTTP.WriteTimeout,
			IdleTimeout:  cfg.HTTP.IdleTimeout,
			Name:         cfg.AppName,
		}
		go func() {
			zapLogger.Info("status server started", zap.String("address", cfg.Address()))
			if err := statusServer.ListenAndServe(cfg.Address()); err != nil {
				zapLogger.Error("status server stopped", zap.Error(err))
			}
		}()
		manager.Register("status_server", func(ctx context.Context) error {
			return statusServer.ShutdownWithContext(ctx)
		})
	}

	mcpServer := tools.NewServer(cfg.AppName, version, dispatcher, tools.Catalog(), zapLogger.Named("tools"),
		tools.WithCallObserver(appMetrics))
	stdio := server.NewStdioServer(mcpServer)
	stdio.SetErrorLogger(zap.NewStdLog(zapLogger.Named("mcp")))

	go func() {
		zapLogger.Info("serving MCP over stdio",
			zap.String("upstream", cfg.Tripletex.BaseURL),
			zap.String("company_id", cfg.Tripletex.CompanyID),
			zap.Int("tools", len(tools.Catalog())))
		err := stdio.Listen(appCtx, os.Stdin, os.Stdout)
		if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, io.EOF) {
			zapLogger.Error("stdio server stopped", zap.Error(err))
		}
		cancel()
	}()

	<-appCtx.Done()

	if err := manager.Shutdown(context.Background()); err != nil {
		zapLogger.Error("graceful shutdown error", zap.Error(err))
	}
}

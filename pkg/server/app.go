package server

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"HemoWatch/internal/handler/api"
	"HemoWatch/internal/usecase"
	pkgcache "HemoWatch/pkg/cache"
	pkgch "HemoWatch/pkg/clickhouse"
	"HemoWatch/pkg/config"
	xhttp "HemoWatch/pkg/http"
	pkgkafka "HemoWatch/pkg/kafka"
	applogger "HemoWatch/pkg/logger"
	pkgqueue "HemoWatch/pkg/queue"

	"github.com/labstack/echo/v4"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	collector   *usecase.SessionCollector
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
	chClient    *pkgch.Client
	redis       *pkgcache.RedisCache
	httpServer  *xhttp.Server
	httpHandler xhttp.Handler
	queue       *pkgqueue.RedisQueue
	l           *applogger.Logger

	Monitor     *usecase.MonitorUseCase
	Series      *usecase.SeriesUseCase
	DriftReport *usecase.DriftReportUseCase
	Replay      *usecase.ReplayJob
	SampleProc  *usecase.SampleProcessor
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	collector *usecase.SessionCollector,
	consumer *pkgkafka.Consumer,
	kh pkgkafka.MessageHandler,
	chClient *pkgch.Client,
	redis *pkgcache.RedisCache,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		collector: collector,
		consumer:  consumer,
		kh:        kh,
		chClient:  chClient,
		redis:     redis,
		l:         l,
	}
}

// SetHTTPHandler allows DI to inject an HTTP handler.
func (a *App) SetHTTPHandler(h xhttp.Handler) { a.httpHandler = h }

// routeFunc adapts a closure to the xhttp.Handler interface.
type routeFunc func(e *echo.Echo)

func (f routeFunc) RegisterRoutes(e *echo.Echo) { f(e) }

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	l := a.l
	if l == nil {
		l, _ = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
	}

	// Setup Echo HTTP server using pkg/http and register routes via handler
	httpHandler := a.httpHandler
	if httpHandler == nil && a.Monitor != nil {
		eh := api.NewMonitorEchoHandler(l, a.Monitor, a.Series)
		mh := api.NewMonitorHandler(a.DriftReport, a.Monitor)
		mh.SetLogger(l)
		httpHandler = routeFunc(func(e *echo.Echo) {
			eh.RegisterRoutes(e)
			g := e.Group("/api")
			g.GET("/drift", echo.WrapHandler(mh.Drift()))
			g.GET("/state", echo.WrapHandler(mh.State()))
		})
	}

	a.httpServer = xhttp.NewServer(httpHandler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	// Start collector
	go func() {
		if err := a.collector.Start(ctx); err != nil {
			l.Error("collector error", applogger.Error(err))
		}
	}()
	l.Info("collector started", applogger.Strings("patients", a.cfg.Gateway.Patients))

	// Start consumer if configured
	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		go func() {
			if err := a.consumer.Start(); err != nil {
				l.Error("kafka consumer error", applogger.Error(err))
			}
		}()
		l.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	// Start replay queue if configured
	if a.redis != nil && a.Replay != nil {
		a.queue = pkgqueue.NewRedisConsumer(l, &pkgqueue.QueueConfig{
			Workers:   2,
			QueueSize: 100,
		}, a.redis.Client(), []pkgqueue.Job{a.Replay})
		go func() {
			if err := a.queue.Start(); err != nil {
				l.Error("replay queue error", applogger.Error(err))
			}
		}()
		l.Info("replay queue started")
	}

	// Start HTTP server
	if err := a.httpServer.Start(); err != nil {
		l.Error("http server start error", applogger.Error(err))
		return err
	}

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	l.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	l := a.l
	if l == nil {
		var err error
		l, err = applogger.New(&applogger.Config{Level: "info", Format: "console", Output: "stdout"})
		if err != nil {
			log.Printf("failed to create logger: %v", err)
			return err
		}
	}
	l.Info("shutting down...")

	// Stop collector (pipeline + stream)
	if err := a.collector.Shutdown(ctx); err != nil {
		l.Warn("collector stop error", applogger.Error(err))
	}

	// Shutdown HTTP server
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		l.Error("http shutdown error", applogger.Error(err))
	}

	// Stop replay queue
	if a.queue != nil {
		if err := a.queue.Stop(shutdownCtx); err != nil {
			l.Warn("replay queue stop error", applogger.Error(err))
		}
	}

	// Stop consumer
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			l.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}

	// Close sample processor resources (publisher/storage)
	if a.SampleProc != nil {
		a.SampleProc.Close()
	}

	// Close infrastructure clients
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			l.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			l.Warn("redis close error", applogger.Error(err))
		}
	}

	l.Info("shutdown complete")
	return nil
}

package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aayeshatech/SYMBOLASTRO/internal/usecase"
	"github.com/aayeshatech/SYMBOLASTRO/pkg/config"
	xhttp "github.com/aayeshatech/SYMBOLASTRO/pkg/http"
	pkgkafka "github.com/aayeshatech/SYMBOLASTRO/pkg/kafka"
	applogger "github.com/aayeshatech/SYMBOLASTRO/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg         *config.Config
	log         *applogger.Logger
	httpHandler xhttp.Handler
	httpServer  *xhttp.Server
	analysis    *usecase.AnalysisUseCase
	consumer    *pkgkafka.Consumer
	kh          pkgkafka.MessageHandler
}

// Deps groups what App starts and stops. Consumer and Handler may be nil.
// Infrastructure clients are closed by the injector's cleanup.
type Deps struct {
	HTTPHandler xhttp.Handler
	Analysis    *usecase.AnalysisUseCase
	Consumer    *pkgkafka.Consumer
	Handler     pkgkafka.MessageHandler
}

// New creates a new App instance with all dependencies.
func New(cfg *config.Config, l *applogger.Logger, d Deps) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{
		cfg:         cfg,
		log:         l,
		httpHandler: d.HTTPHandler,
		analysis:    d.Analysis,
		consumer:    d.Consumer,
		kh:          d.Handler,
	}
}

// Logger returns the application logger.
func (a *App) Logger() *applogger.Logger { return a.log }

// Start starts the HTTP server and, when configured, the Kafka consumer.
func (a *App) Start() error {
	metricsPath := ""
	if a.cfg.Metrics.Enabled {
		metricsPath = a.cfg.Metrics.Path
	}
	a.httpServer = xhttp.NewServer(a.httpHandler,
		xhttp.WithHost(a.cfg.Server.Host),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORS(a.cfg.Server.CORS),
		xhttp.WithMetricsPath(metricsPath),
		xhttp.WithLogger(a.log),
	)

	if a.consumer != nil && a.kh != nil {
		a.consumer.RegisterHandler(a.kh)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("kafka consumer started", applogger.String("topic", a.kh.Topic()))
	}

	return a.httpServer.Start()
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	if err := a.Start(); err != nil {
		a.log.Error("app start error", applogger.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()
	return a.Shutdown(ctx)
}

// Shutdown stops intake first, then drains background work. Kafka and
// cache clients stay open for the injector's cleanup.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error

	if a.httpServer != nil {
		if err := a.httpServer.Stop(ctx); err != nil {
			errs = append(errs, err)
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
			errs = append(errs, err)
		}
	}

	if a.analysis != nil {
		if err := a.analysis.Wait(ctx); err != nil {
			a.log.Warn("analysis fan-out did not drain", applogger.Error(err))
		}
	}

	// Flushes aggregated error logs through the producer before it closes.
	a.log.RemoveCollector()

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

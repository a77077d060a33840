package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"SignalFusion/internal/service/ratelimit"
	"SignalFusion/internal/services/ledger"
	"SignalFusion/internal/usecase"
	"SignalFusion/pkg/config"
	xhttp "SignalFusion/pkg/http"
	pkgkafka "SignalFusion/pkg/kafka"
	xlogger "SignalFusion/pkg/logger"
)

const (
	limiterSweep = time.Minute
	limiterIdle  = 10 * time.Minute
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg      *config.Config
	logger   *xlogger.Logger
	engine   *usecase.FusionUseCase
	decay    *ledger.DecayTracker
	limiter  *ratelimit.Limiter
	http     *xhttp.Server
	consumer *pkgkafka.Consumer
	outcomes pkgkafka.MessageHandler

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a new App instance with all dependencies. consumer may be nil
// when Kafka is not configured.
func New(
	cfg *config.Config,
	logger *xlogger.Logger,
	engine *usecase.FusionUseCase,
	decay *ledger.DecayTracker,
	limiter *ratelimit.Limiter,
	httpServer *xhttp.Server,
	consumer *pkgkafka.Consumer,
	outcomes pkgkafka.MessageHandler,
) *App {
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &App{
		cfg:      cfg,
		logger:   logger,
		engine:   engine,
		decay:    decay,
		limiter:  limiter,
		http:     httpServer,
		consumer: consumer,
		outcomes: outcomes,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := a.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	a.logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return a.Shutdown(shutdownCtx)
}

// Start restores the ledger, then brings up background loops, the outcome
// consumer and the HTTP server.
func (a *App) Start(ctx context.Context) error {
	if err := a.engine.Start(ctx); err != nil {
		return err
	}

	bg, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.decay.Run(bg, a.cfg.Decay.SweepInterval)
	}()
	if a.limiter != nil {
		a.wg.Add(1)
		go func() {
			defer a.wg.Done()
			a.evictLoop(bg)
		}()
	}

	if a.consumer != nil && a.outcomes != nil {
		a.consumer.RegisterHandler(a.outcomes)
		a.consumer.WithConsumerHook(pkgkafka.TraceHook())
		if err := a.consumer.Start(); err != nil {
			cancel()
			return err
		}
		a.logger.Info("outcome consumer started", xlogger.String("topic", a.outcomes.Topic()))
	}

	if err := a.http.Start(); err != nil {
		a.logger.Error("http server start error", xlogger.Error(err))
		cancel()
		return err
	}
	a.logger.Info("signal fusion started",
		xlogger.String("env", a.cfg.Environment),
		xlogger.String("ledger_backend", a.cfg.Ledger.Backend),
		xlogger.Bool("kafka", a.consumer != nil),
	)
	return nil
}

func (a *App) evictLoop(ctx context.Context) {
	ticker := time.NewTicker(limiterSweep)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := a.limiter.Evict(limiterIdle); n > 0 {
				a.logger.Debug("rate limit buckets evicted", xlogger.Int("count", n))
			}
		}
	}
}

// Shutdown stops serving and the background loops. Storage and producer
// clients are released by the injector's cleanup once Run returns.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")
	var errs []error

	if err := a.http.Stop(ctx); err != nil {
		a.logger.Error("http shutdown error", xlogger.Error(err))
		errs = append(errs, err)
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.logger.Warn("kafka consumer stop error", xlogger.Error(err))
			errs = append(errs, err)
		}
	}
	if a.cancel != nil {
		a.cancel()
	}
	a.wg.Wait()

	a.logger.Info("shutdown complete")
	return errors.Join(errs...)
}

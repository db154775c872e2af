package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"PaperDesk/internal/domain/repository"
	"PaperDesk/internal/usecase"
	"PaperDesk/internal/ws"
	pkgch "PaperDesk/pkg/clickhouse"
	"PaperDesk/pkg/config"
	xhttp "PaperDesk/pkg/http"
	applogger "PaperDesk/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	desk       *usecase.Desk
	handler    xhttp.Handler
	hub        *ws.Hub
	store      repository.AccountStore
	archive    repository.TickArchive
	publisher  repository.EventPublisher
	chClient   *pkgch.Client
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	desk *usecase.Desk,
	handler xhttp.Handler,
	hub *ws.Hub,
	store repository.AccountStore,
	archive repository.TickArchive,
	publisher repository.EventPublisher,
	chClient *pkgch.Client,
) *App {
	return &App{
		cfg:       cfg,
		log:       log,
		desk:      desk,
		handler:   handler,
		hub:       hub,
		store:     store,
		archive:   archive,
		publisher: publisher,
		chClient:  chClient,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go a.hub.Run()
	a.log.Info("ws hub started")

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithMetrics(a.cfg.Metrics.Enabled),
	)
	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services. Sessions close first so pending
// settlements flush and final records save before the stores go away.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	a.desk.CloseAll(shutdownCtx)

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}

	a.hub.Stop()

	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("event publisher close error", applogger.Error(err))
		}
	}
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			a.log.Warn("tick archive close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}
	if err := a.store.Close(); err != nil {
		a.log.Warn("account store close error", applogger.Error(err))
	}

	a.log.Info("shutdown complete")
	return nil
}

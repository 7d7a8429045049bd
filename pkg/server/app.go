package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"EconDash/pkg/config"
	xhttp "EconDash/pkg/http"
	applogger "EconDash/pkg/logger"
)

// Background is a long-running component started with the server.
type Background interface {
	Run(ctx context.Context)
}

// Schedule is the optional in-process weekly job.
type Schedule interface {
	Start() error
	NextRun() time.Time
	Stop()
}

// App encapsulates the web process lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	background Background
	schedule   Schedule
	l          *applogger.Logger
	httpServer *xhttp.Server
}

// New creates the app. background and schedule may be nil.
func New(cfg *config.Config, handler xhttp.Handler, background Background, schedule Schedule, l *applogger.Logger) *App {
	if l == nil {
		l = applogger.Nop()
	}
	return &App{cfg: cfg, handler: handler, background: background, schedule: schedule, l: l.With("app")}
}

// Handler exposes the routed echo instance, mainly for tests.
func (a *App) Handler() http.Handler {
	if a.httpServer == nil {
		a.httpServer = a.newServer()
	}
	return a.httpServer.Echo()
}

func (a *App) newServer() *xhttp.Server {
	return xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithLogger(a.l),
	)
}

// Run starts the application and blocks until SIGINT or SIGTERM.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and blocks until ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.httpServer == nil {
		a.httpServer = a.newServer()
	}

	bgCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	done := make(chan struct{})
	if a.background != nil {
		go func() {
			defer close(done)
			a.background.Run(bgCtx)
		}()
	} else {
		close(done)
	}

	if a.schedule != nil {
		if err := a.schedule.Start(); err != nil {
			a.l.Error("scheduler start error", applogger.Error(err))
			return err
		}
		a.l.Info("weekly refresh scheduled", applogger.Time("next_run", a.schedule.NextRun()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.l.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.l.Info("shutdown signal received")

	cancel()
	<-done
	return a.shutdown()
}

// shutdown gracefully stops the scheduler and the HTTP server. Stores and
// sinks are closed by the injector cleanup.
func (a *App) shutdown() error {
	if a.schedule != nil {
		a.schedule.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(ctx); err != nil {
		a.l.Error("http shutdown error", applogger.Error(err))
		return err
	}

	a.l.Info("shutdown complete")
	return nil
}

package server

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"StockInsight/internal/usecase"
	"StockInsight/pkg/config"
	xhttp "StockInsight/pkg/http"
	"StockInsight/pkg/logger"
	"StockInsight/pkg/queue"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	log        *logger.Logger
	httpServer *xhttp.Server
	events     queue.Queue
	board      *usecase.TickerBoard
	watchlist  *usecase.WatchlistService
}

// New creates a new App. events and board may be nil when the event export
// or the live stream is disabled.
func New(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	events queue.Queue,
	board *usecase.TickerBoard,
	watchlist *usecase.WatchlistService,
) *App {
	return &App{
		cfg:        cfg,
		log:        log.With(logger.String("component", "app")),
		httpServer: httpServer,
		events:     events,
		board:      board,
		watchlist:  watchlist,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.run(ctx)
}

func (a *App) run(ctx context.Context) error {
	if a.events != nil {
		if err := a.events.Start(); err != nil {
			return err
		}
		a.log.Info("event export started", logger.String("backend", a.cfg.Events.Backend))
	}

	if a.board != nil {
		// A failed first connect leaves /api/ticker reporting disconnected.
		if err := a.board.Start(ctx); err != nil {
			a.log.Error("ticker board start error", logger.Error(err))
		} else {
			a.log.Info("ticker board started", logger.Strings("symbols", a.cfg.Stream.Symbols))
		}
	}

	if err := a.watchlist.StartScheduler(ctx, a.cfg.Watchlist.RefreshCron); err != nil {
		a.log.Warn("watchlist scheduler disabled", logger.Error(err))
	}

	if err := a.httpServer.Start(); err != nil {
		return errors.Join(err, a.shutdown())
	}
	a.log.Info("application started", logger.String("env", a.cfg.Environment))

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then the background workers.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()

	var errs []error
	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
		errs = append(errs, err)
	}

	a.watchlist.StopScheduler(ctx)

	if a.board != nil {
		if err := a.board.Shutdown(ctx); err != nil {
			a.log.Warn("ticker board stop error", logger.Error(err))
		}
	}

	// The memory queue drains its buffer here; the Redis queue leaves pending
	// events in Redis. Either way this runs before the DI cleanup closes the
	// producers.
	if a.events != nil {
		if err := a.events.Stop(ctx); err != nil {
			a.log.Warn("event queue stop error", logger.Error(err))
			errs = append(errs, err)
		}
	}

	a.log.Info("shutdown complete")
	return errors.Join(errs...)
}

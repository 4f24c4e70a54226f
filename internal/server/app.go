// Package server initializes and runs the application: database, redis,
// domain services, the HTTP endpoint and graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dropnote/dropnote/internal/dbx"
	"github.com/dropnote/dropnote/internal/logging"
	"github.com/dropnote/dropnote/internal/server/config"
	"github.com/dropnote/dropnote/internal/server/gifs"
	"github.com/dropnote/dropnote/internal/server/httpapi"
	"github.com/dropnote/dropnote/internal/server/repositories/repomanager"
	"github.com/dropnote/dropnote/internal/server/services"
	"github.com/redis/go-redis/v9"
)

const (
	shutdownTimeout = 10 * time.Second

	// expired rows are kept around for a day so the viewer endpoints keep
	// answering with their usual not-found instead of flapping
	janitorInterval = time.Hour
	purgeGrace      = 24 * time.Hour
)

type App struct {
	config         *config.Config
	logger         logging.Logger
	db             *sql.DB
	rdb            *redis.Client
	repos          repomanager.RepositoryManager
	userService    *services.UserService
	messageService *services.MessageService
	catalogue      gifs.Catalogue
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("db migration error: %w", err)
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})

	tenor := gifs.NewTenorProvider(cfg.GifBaseEndpoint, cfg.GifAPIKey, logger)
	catalogue := gifs.NewCachedCatalogue(gifs.NewService(logger, tenor), rdb, logger)

	return &App{
		config:         cfg,
		logger:         logger,
		db:             db,
		rdb:            rdb,
		repos:          rm,
		userService:    services.NewUserService(rm.Users(db), cfg, logger),
		messageService: services.NewMessageService(rm.Messages(db), cfg, logger),
		catalogue:      catalogue,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// runJanitor periodically purges long-expired messages. Each sweep runs in
// its own transaction through a tx-bound repository.
func (app *App) runJanitor(ctx context.Context) {
	ticker := time.NewTicker(janitorInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			err := dbx.WithTx(ctx, app.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
				purged, err := app.repos.Messages(tx).PurgeExpired(ctx, time.Now().Add(-purgeGrace))
				if err != nil {
					return err
				}
				if purged > 0 {
					app.logger.Info(ctx, "purged expired messages", "count", purged)
				}
				return nil
			})
			if err != nil {
				app.logger.Error(ctx, "janitor sweep failed", "error", err.Error())
			}
		}
	}
}

// Run serves until the context is cancelled or the listener fails, then
// drains in-flight requests and closes the backends.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "starting app")

	app.initSignalHandler(cancelFunc)

	router := httpapi.NewRouter(app.config, app.logger,
		app.userService, app.messageService, app.catalogue)
	srv := httpapi.NewServer(app.config.EndpointAddr, router, app.logger)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Run(ctx); err != nil {
			app.logger.Error(ctx, err.Error())
			cancelFunc()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.runJanitor(ctx)
	}()

	<-ctx.Done()

	shutdownCtx, stop := context.WithTimeout(context.Background(), shutdownTimeout)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	wg.Wait()

	if err := app.rdb.Close(); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(shutdownCtx, err.Error())
	}

	app.logger.Info(shutdownCtx, "app stopped")
}

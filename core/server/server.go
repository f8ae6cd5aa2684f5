package server

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-huddle/core/cache"
	"go-huddle/core/config"
	"go-huddle/core/database"
	"go-huddle/core/logger"
	"go-huddle/core/middleware"
	"go-huddle/core/queue"
	"go-huddle/core/storage"
	"go-huddle/modules/archive"
	"go-huddle/modules/calendar"
	"go-huddle/modules/event"
	"go-huddle/modules/event/repository"
	"go-huddle/modules/event/session"
	"go-huddle/modules/invitation"
	"go-huddle/modules/notification"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	echoSwagger "github.com/swaggo/echo-swagger"
)

// Run wires every module, serves HTTP and the job worker, and blocks until
// SIGINT or SIGTERM.
func Run() error {
	cfg, err := config.Init()
	if err != nil {
		return err
	}
	logger.Init(cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	db, err := database.InitDB(cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		return err
	}

	redisCache, err := cache.NewRedisCache(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	defer redisCache.Close()

	jobs := queue.NewClient(cfg.Redis)
	defer jobs.Close()
	worker := queue.NewWorker(cfg.Redis, cfg.Queue)

	var objects storage.ObjectStorage
	if s3 := storage.NewS3Storage(cfg.Storage); s3 != nil {
		objects = s3
	}

	events := repository.NewEventRepository(db, redisCache)
	sessions := session.NewManager(events, session.Options{
		SuppressionWindow: cfg.Scheduling.EditSuppressionWindow,
		SaveDebounce:      cfg.Scheduling.SaveDebounce,
		IdleTimeout:       cfg.Scheduling.SessionIdleTimeout,
	})

	e := echo.New()
	e.HideBanner = true
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger())

	mw := middleware.NewMiddleware(cfg.JWT.Secret)
	v1 := e.Group("/api/v1")
	v1.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	calendarService := calendar.Init(e, mw, db, redisCache, jobs, worker, cfg)
	notificationService := notification.Init(v1.Group("/private"), db, mw)
	eventService := event.Init(e, mw, events, sessions, calendarService, notificationService, jobs, cfg.Scheduling)
	invitation.Init(v1, mw, eventService, cfg)
	archive.Init(worker, events, objects)

	if err := worker.Start(); err != nil {
		return fmt.Errorf("start worker: %w", err)
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Server:Run:Listening", "addr", addr)
		if err := e.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	var runErr error
	select {
	case sig := <-stop:
		logger.Info("Server:Run:Signal", "signal", sig.String())
	case runErr = <-serveErr:
		logger.Error("Server:Run:ServeError", "error", runErr)
	}

	timeout := cfg.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server:Run:Shutdown:Error", "error", err)
	}
	// Pending edits are flushed before the store connections close.
	sessions.Shutdown()
	worker.Shutdown()

	logger.Info("Server:Run:Stopped")
	return runErr
}

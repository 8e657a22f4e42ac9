package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jmoiron/sqlx"
	"github.com/phbpx/frontdesk"
	"github.com/phbpx/frontdesk/handler"
	"github.com/phbpx/frontdesk/postgres"
	"github.com/phbpx/frontdesk/sqlite"
	"github.com/riandyrn/otelchi"
	"github.com/uptrace/opentelemetry-go-extra/otelzap"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

func main() {
	cfg, err := parseConfig()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return
		}
		fmt.Println(err)
		os.Exit(1)
	}

	log, err := newLog(cfg.Jaeger.ServiceName, cfg.Log.Level)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Errorw("startup", "err", err)
		log.Sync()
		os.Exit(1)
	}
}

func run(cfg config, log *zap.SugaredLogger) error {
	out, err := conf.String(&cfg)
	if err != nil {
		return fmt.Errorf("generating config for output: %w", err)
	}
	log.Infow("startup", "config", out)

	loc, err := time.LoadLocation(cfg.Desk.TimeZone)
	if err != nil {
		return fmt.Errorf("loading time zone: %w", err)
	}
	weekStart, err := frontdesk.ParseWeekday(cfg.Desk.WeekStart)
	if err != nil {
		return fmt.Errorf("parsing week start: %w", err)
	}
	locale, err := language.Parse(cfg.Desk.Locale)
	if err != nil {
		return fmt.Errorf("parsing locale: %w", err)
	}

	// =========================================================================
	// Database Support

	var (
		db    *sqlx.DB
		store frontdesk.Store
	)

	switch cfg.DB.Driver {
	case "postgres":
		log.Infow("startup", "status", "initializing database support", "driver", "postgres", "host", cfg.DB.Host)

		db, err = postgres.Open(postgres.Config{
			User:         cfg.DB.User,
			Password:     cfg.DB.Password,
			Host:         cfg.DB.Host,
			Name:         cfg.DB.Name,
			MaxIdleConns: cfg.DB.MaxIdleConns,
			MaxOpenConns: cfg.DB.MaxOpenConns,
			DisableTLS:   cfg.DB.DisableTLS,
		})
		if err != nil {
			return fmt.Errorf("connecting to db: %w", err)
		}

		log.Infow("startup", "status", "updating database schema", "database", cfg.DB.Name, "host", cfg.DB.Host)

		if err := postgres.Migrate(context.Background(), db); err != nil {
			db.Close()
			return fmt.Errorf("updating database schema: %w", err)
		}
		store = postgres.NewReservationStore(db, loc)

	case "sqlite":
		log.Infow("startup", "status", "initializing database support", "driver", "sqlite", "path", cfg.DB.Path)

		db, err = sqlite.Open(sqlite.Config{Path: cfg.DB.Path})
		if err != nil {
			return fmt.Errorf("opening db: %w", err)
		}
		if err := sqlite.Migrate(context.Background(), db); err != nil {
			db.Close()
			return fmt.Errorf("updating database schema: %w", err)
		}
		store = sqlite.NewReservationStore(db, loc)

	default:
		return fmt.Errorf("unknown db driver %q", cfg.DB.Driver)
	}
	defer func() {
		log.Infow("shutdown", "status", "stopping database support", "driver", cfg.DB.Driver)
		db.Close()
	}()

	// =========================================================================
	// Start Tracing Support

	log.Infow("startup", "status", "initializing OT/Jaeger tracing support")

	traceProvider, err := startTracing(cfg.Jaeger.ServiceName, cfg.Jaeger.ReporterURI, cfg.Build, cfg.Jaeger.Probability)
	if err != nil {
		return fmt.Errorf("starting tracing: %w", err)
	}
	defer traceProvider.Shutdown(context.Background())

	// =========================================================================
	// Create router

	log.Infow("startup", "status", "initializing router")

	otelLog := otelzap.New(log.Desugar(), otelzap.WithStackTrace(true)).Sugar()

	desk, err := frontdesk.NewDesk(store, frontdesk.DeskConfig{
		Rooms:     cfg.Desk.Rooms,
		Location:  loc,
		WeekStart: weekStart,
		PageSize:  cfg.Desk.PageSize,
		Locale:    locale,
	}, otelLog)
	if err != nil {
		return fmt.Errorf("constructing desk: %w", err)
	}
	reservationHandler := handler.NewReservationHandler(desk, otelLog)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(otelchi.Middleware(cfg.Jaeger.ServiceName, otelchi.WithChiRoutes(r)))

	reservationHandler.Mount(r)

	// =========================================================================
	// Start API Server

	log.Infow("startup", "status", "initializing http server", "host", cfg.Http.Host)

	server := &http.Server{
		Addr:         cfg.Http.Host,
		Handler:      r,
		ReadTimeout:  cfg.Http.ReadTimeout,
		WriteTimeout: cfg.Http.WriteTimeout,
		IdleTimeout:  cfg.Http.IdleTimeout,
		ErrorLog:     zap.NewStdLog(log.Desugar()),
	}

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.ListenAndServe()
	}()

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		log.Infow("shutdown", "status", "shutdown started", "signal", sig)
		defer log.Infow("shutdown", "status", "shutdown complete", "signal", sig)

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Http.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	httpapi "github.com/immxrtalbeast/axenix_meet/internal/api/http"
	"github.com/immxrtalbeast/axenix_meet/internal/auth"
	"github.com/immxrtalbeast/axenix_meet/internal/config"
	"github.com/immxrtalbeast/axenix_meet/internal/domain"
	"github.com/immxrtalbeast/axenix_meet/internal/hub"
	"github.com/immxrtalbeast/axenix_meet/internal/registry"
	"github.com/immxrtalbeast/axenix_meet/internal/repository"
	"github.com/immxrtalbeast/axenix_meet/internal/service"
	"github.com/immxrtalbeast/axenix_meet/internal/tasks"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/sl"
	"github.com/immxrtalbeast/axenix_meet/lib/logger/slogpretty"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	_ = godotenv.Load(".env")

	cfg := config.MustLoad()
	log := setupLogger(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	stores, closers, err := setupStorage(ctx, cfg, log)
	if err != nil {
		log.Error("failed to set up storage", sl.Err(err))
		os.Exit(1)
	}

	if cfg.Auth.Secret == "" {
		log.Warn("ACCESS_TOKEN_SECRET is empty, every connection will be refused")
	}

	runner := tasks.New(log, cfg.Storage.TaskTimeout)
	rooms := service.NewRoomService(log, registry.New(), hub.New(log), stores, runner, service.Options{
		HistoryLimit:     cfg.Chat.HistoryLimit,
		MaxMessageLength: cfg.Chat.MaxMessageLength,
		ICEServers:       cfg.WebRTC.ICEServers(),
	})

	verifier := auth.NewVerifier(cfg.Auth.Secret, cfg.Auth.Issuer)
	sockets := httpapi.NewSocketController(ctx, rooms, log, httpapi.SocketOptions{
		AllowedOrigins: cfg.HTTP.AllowedOrigins,
		ReadLimit:      cfg.WS.ReadLimit,
		SendBuffer:     cfg.WS.SendBuffer,
		WriteWait:      cfg.WS.WriteWait,
		PongWait:       cfg.WS.PongWait,
		PingPeriod:     cfg.WS.PingPeriod,
	})
	router := httpapi.SetupRouter(
		cfg.HTTP.AllowedOrigins,
		httpapi.AuthMiddleware(verifier, cfg.Auth.CookieName, log),
		httpapi.NewRoomController(rooms),
		sockets,
	)

	srv := &http.Server{
		Addr:    cfg.HTTP.Address,
		Handler: router,
	}

	go func() {
		log.Info("starting application",
			slog.String("addr", cfg.HTTP.Address),
			slog.String("env", cfg.Env),
			slog.String("storage", cfg.Storage.Driver),
			slog.String("messages", cfg.Storage.Messages),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", sl.Err(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http server shutdown failed", sl.Err(err))
	}

	// hijacked connections are not tracked by Shutdown; their disconnects schedule tasks
	sockets.Wait()
	runner.Wait()

	for _, c := range closers {
		if err := c.Close(); err != nil {
			log.Error("failed to close store", sl.Err(err))
		}
	}
	log.Info("application stopped")
}

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = setupPrettySlog()
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = setupPrettySlog()
	}

	return log
}

func setupPrettySlog() *slog.Logger {
	opts := slogpretty.PrettyHandlerOptions{
		SlogOpts: &slog.HandlerOptions{
			Level: slog.LevelDebug,
		},
	}

	handler := opts.NewPrettyHandler(os.Stdout)

	return slog.New(handler)
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }

// setupStorage picks the meeting/participant driver and the message driver independently.
func setupStorage(ctx context.Context, cfg *config.Config, log *slog.Logger) (service.Stores, []io.Closer, error) {
	var (
		stores  service.Stores
		closers []io.Closer
		db      *gorm.DB
	)

	openDB := func() (*gorm.DB, error) {
		if db != nil {
			return db, nil
		}
		conn, err := connectDatabase(cfg.Database)
		if err != nil {
			return nil, err
		}
		db = conn
		sqlDB, err := db.DB()
		if err != nil {
			return nil, err
		}
		closers = append(closers, sqlDB)
		return db, nil
	}

	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		conn, err := openDB()
		if err != nil {
			return stores, closers, err
		}
		stores.Meetings = repository.NewPostgresMeetingStore(conn)
		stores.Participants = repository.NewPostgresParticipantStore(conn)
	case config.DriverMemory:
		meetings := repository.NewInMemoryMeetingStore()
		for _, seed := range cfg.Storage.Seed {
			if err := meetings.Save(ctx, &domain.Meeting{
				ID:        seed.ID,
				HostID:    seed.HostID,
				Title:     seed.Title,
				IsActive:  true,
				CreatedAt: time.Now().UTC(),
			}); err != nil {
				return stores, closers, err
			}
		}
		log.Info("in-memory meetings seeded", slog.Int("count", len(cfg.Storage.Seed)))
		stores.Meetings = meetings
		stores.Participants = repository.NewInMemoryParticipantStore(nil)
	default:
		return stores, closers, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}

	switch cfg.Storage.Messages {
	case config.DriverPostgres:
		conn, err := openDB()
		if err != nil {
			return stores, closers, err
		}
		stores.Messages = repository.NewPostgresMessageStore(conn)
	case config.DriverBadger:
		bdb, err := badger.Open(badger.DefaultOptions(cfg.Storage.BadgerPath).WithLoggingLevel(badger.WARNING))
		if err != nil {
			return stores, closers, fmt.Errorf("open badger: %w", err)
		}
		closers = append(closers, closerFunc(bdb.Close))
		stores.Messages = repository.NewBadgerMessageStore(bdb, log, nil)
	case config.DriverMemory:
		stores.Messages = repository.NewInMemoryMessageStore(nil)
	default:
		return stores, closers, fmt.Errorf("unknown message storage %q", cfg.Storage.Messages)
	}

	return stores, closers, nil
}

func connectDatabase(cfg config.DatabaseConfig) (*gorm.DB, error) {
	if cfg.DSN == "" {
		return nil, errors.New("database dsn is empty")
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := db.AutoMigrate(repository.Models()...); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	return db, nil
}

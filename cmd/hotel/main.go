package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/example/hotel-reservations/internal/application"
	"github.com/example/hotel-reservations/internal/config"
	httptransport "github.com/example/hotel-reservations/internal/http"
	"github.com/example/hotel-reservations/internal/logging"
	"github.com/example/hotel-reservations/internal/observability/tracing"
	"github.com/example/hotel-reservations/internal/persistence"
	"github.com/example/hotel-reservations/internal/persistence/migration"
	"github.com/example/hotel-reservations/internal/persistence/postgres"
	redisstore "github.com/example/hotel-reservations/internal/persistence/redis"
	"github.com/example/hotel-reservations/internal/persistence/sqlite"
	"github.com/example/hotel-reservations/internal/worker"
)

const serviceName = "hotel-reservations"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.New(slog.NewJSONHandler(os.Stderr, nil)).Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)

	shutdownTracing, err := tracing.Init(ctx, logger, cfg.OTLPEndpoint, serviceName, cfg.Environment)
	if err != nil {
		logger.Error("failed to initialise tracing", "error", err)
		os.Exit(1)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to flush traces", "error", err)
		}
	}()

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to open storage", "error", err, "driver", cfg.DatabaseDriver)
		os.Exit(1)
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	if err := store.Migrate(ctx); err != nil {
		logger.Error("failed to apply migrations", "error", err)
		os.Exit(1)
	}

	var sessions persistence.SessionRepository = store
	var pingers multiPinger = []httptransport.Pinger{store}
	if cfg.RedisURL != "" {
		rdb, err := redisstore.NewClient(ctx, cfg.RedisURL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		sessionStore := redisstore.NewSessionStore(rdb, logger)
		defer func() {
			if cerr := sessionStore.Close(); cerr != nil {
				logger.Error("failed to close redis", "error", cerr)
			}
		}()
		sessions = sessionStore
		pingers = append(pingers, sessionStore)
		logger.Info("sessions stored in redis")
	}

	site, err := buildSite(ctx, cfg, siteDeps{
		Store:    store,
		Sessions: sessions,
		Database: pingers,
		Logger:   logger,
	})
	if err != nil {
		logger.Error("failed to assemble site", "error", err)
		os.Exit(1)
	}

	go site.Pruner.Start(ctx)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           otelhttp.NewHandler(site.Handler, serviceName),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("hotel reservations listening", "addr", server.Addr, "environment", cfg.Environment)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (persistence.Store, error) {
	switch cfg.DatabaseDriver {
	case config.DriverPostgres:
		store, err := postgres.Open(ctx, postgres.DefaultConfig(cfg.PostgresURL), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	case config.DriverSQLite, "":
		store, err := sqlite.Open(migration.DefaultSQLiteConfig(cfg.SQLitePath), logger)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return nil, fmt.Errorf("unsupported database driver %q", cfg.DatabaseDriver)
}

// siteDeps carries the datastore handles and the overridable sources of
// time, identifiers and hashes.
type siteDeps struct {
	Store    persistence.Store
	Sessions persistence.SessionRepository
	Database httptransport.Pinger
	Now      func() time.Time
	NewID    func() string
	NewToken func() string
	Hash     application.Hasher
	Logger   *slog.Logger
}

type site struct {
	Handler      http.Handler
	Pruner       *worker.SessionPruner
	Auth         *application.AuthService
	Credentials  *application.CredentialService
	Reservations *application.ReservationService
	Users        *application.UserService
	Rooms        *application.RoomService
}

// buildSite wires the services around the store and bootstraps the
// administrator account when one is configured.
func buildSite(ctx context.Context, cfg config.Config, deps siteDeps) (*site, error) {
	if deps.Store == nil {
		return nil, errors.New("store is required")
	}
	if deps.Sessions == nil {
		deps.Sessions = deps.Store
	}
	if deps.Database == nil {
		deps.Database = deps.Store
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.NewID == nil {
		deps.NewID = uuid.NewString
	}
	if deps.NewToken == nil {
		deps.NewToken = func() string { return randomHex(32) }
	}
	if deps.Logger == nil {
		deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	logger := deps.Logger

	credentialStore := newCredentialStoreAdapter(deps.Store)
	userStore := newUserStoreAdapter(deps.Store)
	roomRepo := newRoomRepositoryAdapter(deps.Store)
	reservationRepo := newReservationRepositoryAdapter(deps.Store)
	sessionRepo := newSessionRepositoryAdapter(deps.Sessions)

	authService := application.NewAuthService(application.AuthServiceConfig{
		Credentials:    credentialStore,
		Sessions:       sessionRepo,
		TokenGenerator: deps.NewToken,
		IDGenerator:    deps.NewID,
		Now:            deps.Now,
		SessionTTL:     cfg.SessionTTL,
		Logger:         logger,
	})
	credentialService := application.NewCredentialService(application.CredentialServiceConfig{
		Users:       userStore,
		Sessions:    sessionRepo,
		Hash:        deps.Hash,
		IDGenerator: deps.NewID,
		Now:         deps.Now,
		Logger:      logger,
	})
	reservationService := application.NewReservationServiceWithLogger(reservationRepo, roomRepo, deps.NewID, deps.Now, logger)
	roomService := application.NewRoomServiceWithLogger(roomRepo, logger)
	userService := application.NewUserService(userStore, reservationRepo, logger)

	if cfg.Admin.Enabled() {
		if _, err := credentialService.EnsureAdmin(ctx, application.AdminAccount{
			Username: cfg.Admin.Username,
			Email:    cfg.Admin.Email,
			Password: cfg.Admin.Password,
		}); err != nil {
			return nil, fmt.Errorf("bootstrap admin: %w", err)
		}
	}

	handler, err := httptransport.NewRouter(httptransport.RouterConfig{
		Rooms:          roomService,
		Reservations:   reservationService,
		Auth:           authService,
		Credentials:    credentialService,
		Users:          userService,
		Sessions:       authService,
		Database:       deps.Database,
		CSRFKey:        csrfKey(cfg.SessionSecret),
		SecureCookies:  cfg.SecureCookies,
		MetricsHandler: promhttp.Handler(),
		Logger:         logger,
	})
	if err != nil {
		return nil, err
	}

	return &site{
		Handler:      handler,
		Pruner:       worker.NewSessionPruner(sessionRepo, worker.DefaultPruneInterval, deps.Now, logger),
		Auth:         authService,
		Credentials:  credentialService,
		Reservations: reservationService,
		Users:        userService,
		Rooms:        roomService,
	}, nil
}

// csrfKey stretches the configured secret to the 32 bytes gorilla/csrf expects.
func csrfKey(secret string) []byte {
	if secret == "" {
		return nil
	}
	sum := sha256.Sum256([]byte(secret))
	return sum[:]
}

// multiPinger reports the first datastore that fails to answer.
type multiPinger []httptransport.Pinger

func (m multiPinger) Ping(ctx context.Context) error {
	for _, p := range m {
		if err := p.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func randomHex(bytes int) string {
	if bytes <= 0 {
		bytes = 16
	}
	buf := make([]byte, bytes)
	if _, err := io.ReadFull(rand.Reader, buf); err != nil {
		return fmt.Sprintf("fallback-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(buf)
}

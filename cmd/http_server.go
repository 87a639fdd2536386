package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/gym-management/internal"
	"github.com/frahmantamala/gym-management/internal/auth"
	authPostgres "github.com/frahmantamala/gym-management/internal/auth/postgres"
	"github.com/frahmantamala/gym-management/internal/billing"
	billingPostgres "github.com/frahmantamala/gym-management/internal/billing/postgres"
	"github.com/frahmantamala/gym-management/internal/booking"
	bookingPostgres "github.com/frahmantamala/gym-management/internal/booking/postgres"
	"github.com/frahmantamala/gym-management/internal/card"
	cardPostgres "github.com/frahmantamala/gym-management/internal/card/postgres"
	"github.com/frahmantamala/gym-management/internal/checkin"
	checkinPostgres "github.com/frahmantamala/gym-management/internal/checkin/postgres"
	"github.com/frahmantamala/gym-management/internal/coach"
	coachPostgres "github.com/frahmantamala/gym-management/internal/coach/postgres"
	"github.com/frahmantamala/gym-management/internal/core/database"
	"github.com/frahmantamala/gym-management/internal/core/events"
	"github.com/frahmantamala/gym-management/internal/member"
	memberPostgres "github.com/frahmantamala/gym-management/internal/member/postgres"
	"github.com/frahmantamala/gym-management/internal/transport/rest"
	"github.com/frahmantamala/gym-management/internal/transport/swagger"
	"github.com/frahmantamala/gym-management/internal/user"
	userPostgres "github.com/frahmantamala/gym-management/internal/user/postgres"
	"github.com/frahmantamala/gym-management/pkg/logger"
	"github.com/frahmantamala/gym-management/pkg/metrics"
	"github.com/frahmantamala/gym-management/pkg/redis"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

const openAPIPath = "./api/openapi.yml"

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Redis    *redis.Client
	Registry *prometheus.Registry
	EventBus *events.EventBus
	Router   *chi.Mux
	Logger   *slog.Logger

	Members *member.Service
	Coaches *coach.Service
	Cards   *card.Service
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}
	defer deps.Close()

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	cfg := deps.Config
	lg := deps.Logger

	if _, err := swagger.Load(context.Background(), openAPIPath); err != nil {
		return err
	}

	resolver := auth.NewPermissionResolver(auth.DefaultPermissionTable())
	rbac := auth.NewRBACAuthorization(resolver, metrics.NewAuthorizationMetrics(deps.Registry), lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authService := auth.NewService(authPostgres.NewRepository(deps.Gorm), tokens, cfg.Security.BCryptCost)
	userService := user.NewService(userPostgres.NewRepository(deps.DB), resolver, lg)

	var lookup coach.Lookup = deps.Coaches
	if deps.Redis != nil {
		lookup = coach.NewCachedLookup(deps.Coaches, deps.Redis, cfg.Redis.CoachCacheTTL, lg)
	}
	gate := coach.NewGate(lookup, lg)

	tx := database.NewClient(deps.Gorm)
	bookings := booking.NewService(bookingPostgres.NewBookingRepository(deps.Gorm), tx, deps.Members, deps.Coaches, deps.Cards, lg)
	checkIns := checkin.NewService(checkinPostgres.NewCheckInRepository(deps.Gorm), tx, deps.Members, bookings, deps.Cards, lg)

	handlers := rest.Handlers{
		Auth:    auth.NewHandler(authService, lg),
		User:    user.NewHandler(userService, lg),
		Member:  member.NewHandler(deps.Members, lg),
		Coach:   coach.NewHandler(deps.Coaches, lg),
		Card:    card.NewHandler(deps.Cards, lg),
		Booking: booking.NewHandler(bookings, lg),
		CheckIn: checkin.NewHandler(checkIns, lg),
	}

	opts := rest.Options{
		SpecPath:       openAPIPath,
		AllowedOrigins: cfg.Server.AllowedOrigins,
		LoginRateLimit: 20,
		HealthChecks:   map[string]rest.Pinger{},
	}
	if deps.Redis != nil {
		opts.HealthChecks["redis"] = deps.Redis
	}
	if cfg.Observability.Metrics.Enabled {
		opts.MetricsPath = cfg.Observability.Metrics.Path
		opts.MetricsHandler = promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})
	}

	rest.RegisterAllRoutes(deps.Router, deps.DB, handlers, rbac, gate, opts, lg)
	return nil
}

// initializeDependencies opens the shared connections and builds the services
// both the HTTP server and the workers need.
func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(config)
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gormDB, err := database.OpenPostgres(db.DB)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	deps := &Dependencies{
		Config:   config,
		DB:       db,
		Gorm:     gormDB,
		Registry: prometheus.NewRegistry(),
		EventBus: events.NewEventBus(lg),
		Router:   chi.NewRouter(),
		Logger:   lg,
	}
	deps.Registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	if config.Redis.Enabled {
		ctx, cancel := internal.WithTimeout(context.Background(), config.Redis.DialTimeout)
		deps.Redis, err = redis.New(ctx, redis.Options{
			Address:     config.Redis.Address,
			URL:         config.Redis.URL,
			Password:    config.Redis.Password,
			DB:          config.Redis.DB,
			PoolSize:    config.Redis.PoolSize,
			DialTimeout: config.Redis.DialTimeout,
		})
		cancel()
		if err != nil {
			deps.Close()
			return nil, fmt.Errorf("failed to connect to redis: %w", err)
		}
	}

	registerBilling(deps)

	deps.Members = member.NewService(memberPostgres.NewMemberRepository(gormDB), lg)
	deps.Coaches = coach.NewService(coachPostgres.NewCoachRepository(gormDB), lg)
	deps.Cards = card.NewService(
		cardPostgres.NewCardRepository(gormDB),
		database.NewClient(gormDB),
		deps.Members,
		card.NewMachine(card.Policy{FreezeExtendsExpiry: config.Card.FreezeExtendsExpiry}),
		lg,
		card.WithPublisher(deps.EventBus),
		card.WithMetrics(metrics.NewCardMetrics(deps.Registry)),
		card.WithActivateOnPurchase(config.Card.ActivateOnPurchase),
	)

	return deps, nil
}

func registerBilling(deps *Dependencies) {
	var ledger billing.Ledger = billing.NewLogLedger(deps.Logger)
	if deps.Config.Billing.Ledger == internal.LedgerPostgres {
		ledger = billingPostgres.NewLedgerRepository(deps.Gorm)
	}
	billing.NewEventHandler(ledger, deps.Logger).RegisterEventHandlers(deps.EventBus)
}

func (d *Dependencies) Close() {
	if d.Redis != nil {
		if err := d.Redis.Close(); err != nil {
			d.Logger.Error("Redis close error", "error", err)
		}
	}
	if d.DB != nil {
		if err := d.DB.Close(); err != nil {
			d.Logger.Error("Database close error", "error", err)
		}
	}
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// verify connection; close underlying *sql.DB on failure
	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

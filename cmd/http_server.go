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

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormPostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/filevault/filevault/internal"
	"github.com/filevault/filevault/internal/audit"
	auditPostgres "github.com/filevault/filevault/internal/audit/postgres"
	"github.com/filevault/filevault/internal/auth"
	authPostgres "github.com/filevault/filevault/internal/auth/postgres"
	"github.com/filevault/filevault/internal/storage"
	"github.com/filevault/filevault/internal/transport/rest"
	"github.com/filevault/filevault/internal/user"
	userPostgres "github.com/filevault/filevault/internal/user/postgres"
	"github.com/filevault/filevault/internal/vault"
	vaultPostgres "github.com/filevault/filevault/internal/vault/postgres"
	"github.com/filevault/filevault/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config *internal.Config
	DB     *sqlx.DB
	Blobs  storage.BlobStore
	Router *chi.Mux
	Logger *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("received signal, shutting down", "signal", sig.String())
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("server shutdown error", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	cfg, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Init(cfg.Observability.Logging.Format, cfg.Observability.Logging.Level)
	lg := logger.LoggerWrapper()

	db, err := initDB(cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm rides on the already-pooled pgx connection
	gormDB, err := gorm.Open(gormPostgres.New(gormPostgres.Config{Conn: db.DB}), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize orm: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	bucket, err := storage.OpenBucket(ctx, cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open blob storage: %w", err)
	}
	blobs := storage.NewBucketStore(bucket)

	auditRepo := auditPostgres.NewAuditRepository(gormDB)
	recorder := audit.NewRecorder(auditRepo, lg)

	tokens := auth.NewJWTTokenGenerator(
		cfg.Security.AccessTokenSecret,
		cfg.Security.RefreshTokenSecret,
		cfg.Security.AccessTokenDuration,
		cfg.Security.RefreshTokenDuration,
	)
	authRepo := authPostgres.NewRepository(gormDB)
	authService := auth.NewService(authRepo, tokens, recorder, cfg.Security.BCryptCost, lg)
	authHandler := auth.NewHandler(authService)

	userRepo := userPostgres.NewRepository(gormDB)
	userService := user.NewService(userRepo, blobs, recorder, lg)
	userHandler := user.NewHandler(userService)

	fileRepo := vaultPostgres.NewFileRepository(gormDB)
	grantRepo := vaultPostgres.NewGrantRepository(gormDB)
	vaultService := vault.NewService(fileRepo, grantRepo, userRepo, blobs, recorder, lg)
	vaultHandler := vault.NewHandler(vaultService, cfg.Storage.MaxUpload())

	auditHandler := audit.NewHandler(recorder)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, blobs,
		authHandler, vaultHandler, userHandler, auditHandler,
		cfg.Server.AllowedOrigins, lg)

	return &Dependencies{
		Config: cfg,
		DB:     db,
		Blobs:  blobs,
		Router: router,
		Logger: lg,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

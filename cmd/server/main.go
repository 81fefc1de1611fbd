package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"organigrama/internal/auth"
	"organigrama/internal/config"
	"organigrama/internal/db"
	"organigrama/internal/httpapi"
	"organigrama/internal/repository"
	"organigrama/internal/service"
)

func newLogger(cfg config.Config) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if !cfg.IsProduction() {
		zapCfg = zap.NewDevelopmentConfig()
	}
	if err := zapCfg.Level.UnmarshalText([]byte(cfg.LogLevel)); err != nil {
		return nil, err
	}
	return zapCfg.Build()
}

func main() {
	// -- Configs preload --
	cfg, err := config.Load(".env", ".env.local")
	if err != nil {
		_, _ = os.Stderr.WriteString("config error: " + err.Error() + "\n")
		os.Exit(1)
	}

	// -- Logger --
	logger, err := newLogger(cfg)
	if err != nil {
		_, _ = os.Stderr.WriteString("logger error: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if cfg.JWTSecret == "" {
		logger.Fatal("JWT_SECRET required")
	}

	chart, err := config.LoadOrgChart(cfg.OrgChartPath)
	if err != nil {
		logger.Fatal("org chart config error", zap.Error(err))
	}

	// -- Connect to DB --
	database, err := db.Connect(cfg, logger)
	if err != nil {
		logger.Fatal("database connection error", zap.Error(err))
	}

	employees := repository.NewEmployeeRepository(database)
	accounts := repository.NewAccountRepository(database)
	tokens := auth.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL, cfg.TokenIssuer)

	loginLimiter, err := httpapi.NewLoginLimiter(cfg.LoginRateLimit)
	if err != nil {
		logger.Fatal("rate limit config error", zap.Error(err))
	}

	handler := httpapi.NewHandler(
		service.NewOrgChartService(employees, chart, logger.Named("orgchart")),
		service.NewAuthService(accounts, employees, tokens, logger.Named("auth")),
		tokens,
		logger.Named("http"),
		httpapi.Options{
			OrgChartVista: cfg.OrgChartVista,
			Health: func(ctx context.Context) error {
				return db.Ping(ctx, database)
			},
			LoginLimiter: loginLimiter,
		},
	)

	// -- Router --
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORSAllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           corsHandler.Handler(mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// -- Startup --
	go func() {
		logger.Info("starting server", zap.String("port", cfg.Port), zap.String("driver", cfg.DatabaseDriver))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	// -- Shutdown --
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
	closeDatabase(database, logger)
}

func closeDatabase(database *gorm.DB, logger *zap.Logger) {
	sqlDB, err := database.DB()
	if err != nil {
		return
	}
	if err := sqlDB.Close(); err != nil {
		logger.Warn("closing database", zap.Error(err))
	}
}

package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"storefront/internal/admin"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/config"
	"storefront/internal/db"
	"storefront/internal/middleware"
	"storefront/internal/session"
	"storefront/internal/store"
)

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}
	return cfg.Build()
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	defer logger.Sync()

	gdb, err := db.Connect(cfg.DatabaseURL, cfg.SQLLogging)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}

	if err := auth.Migrate(gdb); err != nil {
		logger.Fatal("failed to migrate user tables", zap.Error(err))
	}
	if err := session.Migrate(gdb); err != nil {
		logger.Fatal("failed to migrate session table", zap.Error(err))
	}
	if err := catalog.Migrate(gdb); err != nil {
		logger.Fatal("failed to migrate catalog tables", zap.Error(err))
	}

	sessions := session.NewStore(gdb)

	// Expired sessions are otherwise only reaped lazily on access.
	swept, err := sessions.SweepExpired()
	if err != nil {
		logger.Fatal("failed to sweep expired sessions", zap.Error(err))
	}
	logger.Info("startup sweep", zap.Int64("expired_sessions_deleted", swept))

	docs := store.New(gdb)
	verifier := auth.NewVerifier(gdb, sessions, logger)
	authHandler := auth.NewHandler(gdb, sessions, verifier, logger, cfg.SecureCookies)
	catalogHandler := catalog.NewHandler(docs, logger)
	adminHandler := admin.NewHandler(docs, sessions, verifier, logger, cfg.SecureCookies)

	r := chi.NewRouter()
	r.Use(middleware.CORSMiddleware)

	r.Get("/", catalogHandler.Home)
	r.Mount("/products", catalogHandler.SetupRoutes())
	r.Mount("/admin", adminHandler.SetupRoutes())
	authHandler.Routes(r)

	logger.Info("server listening", zap.String("port", cfg.Port))
	if err := http.ListenAndServe("0.0.0.0:"+cfg.Port, r); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	hazardapp "github.com/safework/backend/internal/application/hazard"
	identityapp "github.com/safework/backend/internal/application/identity"
	"github.com/safework/backend/internal/infrastructure/auth"
	"github.com/safework/backend/internal/infrastructure/config"
	"github.com/safework/backend/internal/infrastructure/event"
	"github.com/safework/backend/internal/infrastructure/logger"
	"github.com/safework/backend/internal/infrastructure/persistence"
	"github.com/safework/backend/internal/interfaces/http/handler"
	"github.com/safework/backend/internal/interfaces/http/middleware"
	"github.com/safework/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
	gormlogger "gorm.io/gorm/logger"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	log.Info("Starting SafeWork Backend",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("version", Version),
	)

	// Database
	gormLogLevel := gormlogger.Warn
	if cfg.App.Env == "development" {
		gormLogLevel = gormlogger.Info
	}
	db, err := persistence.NewDatabaseWithLogger(&cfg.Database, logger.NewGormLogger(log, gormLogLevel))
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", zap.Error(err))
		}
	}()

	// Session token infrastructure
	jwtService := auth.NewJWTService(cfg.JWT)
	var blacklist auth.TokenBlacklist
	if cfg.Redis.Enabled {
		redisBlacklist, err := auth.NewRedisTokenBlacklist(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			_ = redisBlacklist.Close()
		}()
		blacklist = redisBlacklist
		log.Info("Session revocation backed by Redis", zap.String("addr", cfg.Redis.Addr()))
	} else {
		blacklist = auth.NewInMemoryTokenBlacklist()
		log.Info("Session revocation backed by process memory")
	}

	// Push channel for report lifecycle events
	broadcaster := event.NewBroadcaster(
		event.WithLogger(log),
		event.WithClientBufferSize(cfg.Stream.ClientBufferSize),
		event.WithWriteTimeout(cfg.Stream.WriteTimeout),
		event.WithMaxClients(cfg.Stream.MaxClients),
	)
	defer broadcaster.Close()

	// Repositories
	accountRepo := persistence.NewGormAccountRepository(db.DB)
	reportRepo := persistence.NewGormReportRepository(db.DB)

	// Application services
	authService := identityapp.NewAuthService(accountRepo, jwtService, blacklist, log)
	reportService := hazardapp.NewReportService(reportRepo, broadcaster, log)

	// Seed the default administrator on first boot
	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	err = authService.EnsureDefaultAdmin(seedCtx, cfg.Admin.Username, cfg.Admin.Password)
	cancelSeed()
	if err != nil {
		log.Fatal("Failed to ensure default administrator", zap.Error(err))
	}

	// Middleware
	sessionMW := middleware.SessionAuth(middleware.SessionMiddlewareConfig{
		JWTService:     jwtService,
		TokenBlacklist: blacklist,
		CookieName:     cfg.Cookie.Name,
		Logger:         log,
	})
	adminMW := middleware.RequireAdministrator()

	// HTTP surface
	engine := router.NewEngine(cfg, log)
	r := router.NewRouter(engine)
	r.Register(handler.NewAuthHandler(authService, jwtService, cfg.Cookie, sessionMW))
	r.Register(handler.NewHazardHandler(reportService, sessionMW, adminMW))
	r.Register(handler.NewStreamHandler(broadcaster, sessionMW, cfg.HTTP.CORSAllowOrigins, log))
	r.RegisterSystem(handler.NewSystemHandler(db, broadcaster, Version))
	r.Setup()

	server := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("HTTP server listening", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Forced shutdown", zap.Error(err))
	}

	log.Info("Server stopped")
}

package main

import (
	"context"
	"log"
	"net/http"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/lamnguyen-dev/walletcore/internal/auth"
	"github.com/lamnguyen-dev/walletcore/internal/bankinfo"
	"github.com/lamnguyen-dev/walletcore/internal/config"
	"github.com/lamnguyen-dev/walletcore/internal/db"
	mware "github.com/lamnguyen-dev/walletcore/internal/middleware"
	"github.com/lamnguyen-dev/walletcore/internal/wallet"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("logger init failed: %v", err)
	}
	defer logger.Sync()

	var store wallet.Store
	var banks bankinfo.Directory
	if cfg.Backend == "memory" {
		// Dev mode: everything in process, nothing survives a restart.
		logger.Warn("running with the in-memory wallet backend")
		store = wallet.NewMemStore()
		banks = bankinfo.NewMemDirectory()
	} else {
		db.Init(cfg.DSN())
		store = wallet.NewPgStore(db.Conn)
		banks = bankinfo.NewPgDirectory(db.Conn)
	}

	svc := wallet.NewService(store, banks, logger)
	walletHandler := wallet.NewHandler(svc, banks)
	adminHandler := wallet.NewAdminHandler(svc)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
	})
	e.GET("/ready", func(c echo.Context) error {
		if cfg.Backend != "memory" {
			if err := db.Conn.Ping(context.Background()); err != nil {
				return c.JSON(http.StatusServiceUnavailable, echo.Map{"status": "not_ready", "error": "db unreachable"})
			}
		}
		return c.JSON(http.StatusOK, echo.Map{"status": "ready"})
	})

	// Auth routes with per-IP rate limiting to protect signup/login from abuse
	authGroup := e.Group("/auth")
	authGroup.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(20)))
	authGroup.POST("/signup", auth.Signup)
	authGroup.POST("/login", auth.Login)

	api := e.Group("")
	api.Use(mware.JWTMiddleware)
	api.GET("/auth/me", auth.Me)
	walletHandler.Register(api)

	admin := e.Group("/admin")
	admin.Use(mware.JWTMiddleware)
	admin.Use(mware.AdminGuard)
	adminHandler.Register(admin)

	logger.Info("starting wallet service", zap.String("port", cfg.Port), zap.String("backend", cfg.Backend))
	if err := e.Start(":" + cfg.Port); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

package main // Entry point package

import (
	"log" // Logging library

	"github.com/joho/godotenv"    // Loads .env files into the environment
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/iliyamo/group-order/internal/config"
	"github.com/iliyamo/group-order/internal/database"
	"github.com/iliyamo/group-order/internal/extract"
	"github.com/iliyamo/group-order/internal/handler"
	"github.com/iliyamo/group-order/internal/middleware"
	"github.com/iliyamo/group-order/internal/queue"
	"github.com/iliyamo/group-order/internal/repository"
	"github.com/iliyamo/group-order/internal/router"
	"github.com/iliyamo/group-order/internal/sharecode"
)

func main() {
	// A .env file is optional; real deployments set the environment directly.
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close()

	// Redis backs the response cache and the rate limiter.  A nil client
	// disables both so the service still runs without Redis.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}
	cacheCfg := config.LoadCacheConfig()
	rateCfg := config.LoadRateLimitConfig()

	shopRepo := repository.NewShopRepo(db)
	menuItemRepo := repository.NewMenuItemRepo(db)
	orderRepo := repository.NewOrderRepo(db)
	selectionRepo := repository.NewSelectionRepo(db)

	codes := sharecode.New()
	extractor := extract.NewClient(cfg.AIBaseURL, cfg.AIAPIKey, cfg.AIModel)
	if !extractor.Enabled() {
		log.Println("extraction provider not configured; menu photo extraction disabled, titles use local fallbacks")
	}

	shopHandler := handler.NewShopHandler(shopRepo, menuItemRepo, orderRepo)
	menuHandler := handler.NewMenuHandler(shopRepo, menuItemRepo, extractor)
	sessionHandler := handler.NewSessionHandler(shopRepo, orderRepo, selectionRepo, codes, extractor, rdb, cacheCfg, cfg.PublicBaseURL)
	orderHandler := handler.NewOrderHandler(shopRepo, menuItemRepo, orderRepo, selectionRepo, rdb, cacheCfg, cfg.PublicBaseURL)

	e := echo.New()
	router.RegisterRoutes(e)
	router.RegisterShop(e, shopHandler, menuHandler, sessionHandler)
	router.RegisterPublicOrder(e, orderHandler,
		middleware.NewTokenBucket(rateCfg, rdb),
		middleware.NewRedisCache(cacheCfg, rdb),
	)

	// The receipt-log consumer runs for the lifetime of the process and
	// reconnects on broker failures.
	go func() {
		if err := queue.StartOrderConsumer(); err != nil {
			log.Printf("order consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err)
	}
}

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/PrecedenceMarkets/lexgate/internal/chain"
	"github.com/PrecedenceMarkets/lexgate/internal/config"
	"github.com/PrecedenceMarkets/lexgate/internal/handler"
	"github.com/PrecedenceMarkets/lexgate/internal/market"
	"github.com/PrecedenceMarkets/lexgate/internal/pkg/logger"
	"github.com/PrecedenceMarkets/lexgate/internal/repository"
	"github.com/PrecedenceMarkets/lexgate/internal/service"
	"github.com/PrecedenceMarkets/lexgate/internal/session"
	"github.com/PrecedenceMarkets/lexgate/internal/venue"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	logger.Init(cfg.Server.LogLevel)

	sessionTTL := time.Duration(cfg.Session.TTLHours) * time.Hour

	// Session persistence (Redis > Memory)
	var sessionStore session.Store
	if cfg.Redis.Addr != "" {
		redisClient, err := repository.NewRedisClient(cfg)
		if err == nil {
			logger.Info("✅ Connected to Redis")
			sessionStore = session.NewRedisStore(redisClient, sessionTTL)
		} else {
			logger.Error("⚠️ Failed to connect to Redis, falling back to memory", "error", err)
		}
	}
	if sessionStore == nil {
		sessionStore = session.NewMemoryStore(sessionTTL)
	}

	// Trade history (Postgres, optional)
	var tradeRepo repository.TradeRepo
	if cfg.Database.DSN != "" {
		db, err := repository.NewDB(cfg)
		if err == nil {
			logger.Info("✅ Connected to PostgreSQL")
			tradeRepo = repository.NewPostgresTradeRepo(db)
		} else {
			logger.Error("⚠️ Failed to connect to DB, trade history disabled", "error", err)
		}
	}

	chainClient, err := chain.NewClient(cfg.Chain.RPCURL)
	chainOK := err == nil
	if err != nil {
		log.Fatalf("Failed to connect to chain RPC: %v", err)
	}

	credClient := venue.NewCredentialClient(cfg.Venue.ClobURL, nil)
	gammaClient := venue.NewGammaClient(cfg.Venue.GammaURL, nil)
	dataClient := venue.NewDataClient(cfg.Venue.DataURL, nil)

	bookCache := market.NewBookCache(cfg.Venue.WSURL)
	bookCache.Start()

	factory := service.NewClientFactory(cfg)

	sessionSvc := service.NewSessionService(sessionStore, chainClient, credClient, factory, cfg)
	orderSvc := service.NewOrderService(sessionSvc, gammaClient, bookCache, tradeRepo, cfg)
	positionSvc := service.NewPositionService(chainClient, dataClient, bookCache)

	router := handler.NewRouter(cfg,
		handler.NewSessionHandler(sessionSvc),
		handler.NewOrderHandler(orderSvc, positionSvc),
		handler.NewHealthHandler("lexgate", handler.ClientStatus{
			Clob:  cfg.Venue.ClobURL != "",
			Relay: cfg.Relayer.BaseURL != "",
			Chain: chainOK,
		}),
	)

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		logger.Info("🚀 LexGate started", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	bookCache.Stop()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	logger.Info("Server exiting")
}

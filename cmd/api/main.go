package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/caioevelyn/giftregistry/internal/adapters/crdb"
	mongoadapter "github.com/caioevelyn/giftregistry/internal/adapters/mongo"
	redisadapter "github.com/caioevelyn/giftregistry/internal/adapters/redis"
	"github.com/caioevelyn/giftregistry/internal/config"
	httphandler "github.com/caioevelyn/giftregistry/internal/http"
	"github.com/caioevelyn/giftregistry/internal/idempotency"
	"github.com/caioevelyn/giftregistry/internal/observability"
	"github.com/caioevelyn/giftregistry/internal/rateLimit"
	"github.com/caioevelyn/giftregistry/internal/registry"
	"github.com/caioevelyn/giftregistry/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdown, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdown()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to ledger store: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)
	if err := repo.Migrate(context.Background()); err != nil {
		log.Fatalf("failed to migrate ledger schema: %v", err)
	}

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	audit := mongoadapter.NewAuditLogger(mongoClient.Database("giftregistry"), logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)
	redisIdemp := redisadapter.NewIdempotency(redisClient)
	idemp := idempotency.NewIdempotency(redisIdemp, time.Hour)
	rl := rateLimit.NewRateLimiter(redisCache)

	engine := registry.NewEngine(repo, cfg.StoreTimeout, logger)
	ledger := registry.NewLedger(repo, redisCache, logger)
	orchestrator := registry.NewOrchestrator(repo, engine, ledger, audit, cfg.StoreTimeout, logger)
	guests := registry.NewGuests(repo, cfg.StoreTimeout, logger)
	catalog := registry.NewCatalog(repo, audit, logger)
	sessions := session.NewManager()

	handlers := httphandler.NewHandlers(cfg, guests, catalog, ledger, orchestrator, sessions, idemp)
	r := httphandler.SetupRouter(handlers, logger, rl, cfg.AdminToken)

	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()
	logger.WithField("addr", cfg.HTTPAddr).Info("registry API listening")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutdown Server ...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}
	logger.Info("Server exiting")
}

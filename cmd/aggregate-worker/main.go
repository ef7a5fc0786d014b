package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"

	"github.com/caioevelyn/giftregistry/internal/adapters/crdb"
	redisadapter "github.com/caioevelyn/giftregistry/internal/adapters/redis"
	"github.com/caioevelyn/giftregistry/internal/config"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg.OTLPEndpoint)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.CRDBDSN)
	if err != nil {
		log.Fatalf("failed to connect to ledger store: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	redisCache := redisadapter.NewCache(redisClient)

	worker := NewAggregateWorker(repo, redisCache, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go worker.Run(ctx, cfg.RefreshInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown aggregate worker")
}

// AggregateWorker recomputes the pledge (count, sum) from the ledger on a
// ticker and caches the snapshot in Redis. The ledger rows stay the source
// of truth; this only keeps dashboard reads off the hot path.
type AggregateWorker struct {
	repo   *crdb.Repository
	cache  *redisadapter.Cache
	logger observability.Logger
}

func NewAggregateWorker(repo *crdb.Repository, cache *redisadapter.Cache, logger observability.Logger) *AggregateWorker {
	return &AggregateWorker{repo: repo, cache: cache, logger: logger}
}

func (w *AggregateWorker) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	w.refresh(ctx, interval)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.refresh(ctx, interval)
		}
	}
}

func (w *AggregateWorker) refresh(ctx context.Context, interval time.Duration) {
	agg, err := w.repo.PledgeAggregate(ctx)
	if err != nil {
		w.logger.Error("failed to compute pledge aggregate: ", err)
		return
	}
	// TTL of three intervals keeps readers on the fallback path when the
	// worker stalls rather than pinning a stale figure forever.
	if err := w.cache.SetPledgeAggregate(ctx, agg, 3*interval); err != nil {
		w.logger.Error("failed to cache pledge aggregate: ", err)
		return
	}
	w.logger.WithField("count", agg.Count).WithField("sum", agg.Sum.String()).Debug("pledge aggregate refreshed")
}

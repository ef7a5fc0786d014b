package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/caioevelyn/giftregistry/internal/domain"
)

const aggregateKey = "pledges:aggregate"

type Cache struct {
	client *redis.Client
}

func NewCache(client *redis.Client) *Cache {
	return &Cache{client: client}
}

func (c *Cache) Client() *redis.Client {
	return c.client
}

type aggregateDoc struct {
	Count    int   `json:"count"`
	SumCents int64 `json:"sum_cents"`
}

// GetPledgeAggregate returns the cached (count, sum) snapshot, or nil on a
// miss. Readers fall back to the ledger.
func (c *Cache) GetPledgeAggregate(ctx context.Context) (*domain.PledgeAggregate, error) {
	val, err := c.client.Get(ctx, aggregateKey).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var doc aggregateDoc
	if err := json.Unmarshal(val, &doc); err != nil {
		return nil, err
	}
	return &domain.PledgeAggregate{Count: doc.Count, Sum: domain.Amount(doc.SumCents)}, nil
}

func (c *Cache) SetPledgeAggregate(ctx context.Context, agg domain.PledgeAggregate, ttl time.Duration) error {
	data, err := json.Marshal(aggregateDoc{Count: agg.Count, SumCents: agg.Sum.Cents()})
	if err != nil {
		return err
	}
	return c.client.Set(ctx, aggregateKey, data, ttl).Err()
}

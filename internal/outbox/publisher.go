package outbox

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/caioevelyn/giftregistry/internal/adapters/crdb"
	"github.com/caioevelyn/giftregistry/internal/adapters/rabbit"
	"github.com/caioevelyn/giftregistry/internal/observability"
)

// Publisher drains NEW outbox rows to the broker. At-least-once: a crash
// between Publish and MarkPublished re-delivers, and consumers dedupe on
// the message id.
type Publisher struct {
	repo      *crdb.Repository
	rabbitPub *rabbit.Publisher
	logger    observability.Logger
	interval  time.Duration
	batchSize int
}

func NewPublisher(repo *crdb.Repository, rabbitPub *rabbit.Publisher, logger observability.Logger) *Publisher {
	return &Publisher{
		repo:      repo,
		rabbitPub: rabbitPub,
		logger:    logger,
		interval:  5 * time.Second,
		batchSize: 50,
	}
}

func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.drain(ctx)
		}
	}
}

// drain fetches, publishes and marks one batch inside a single transaction.
// The row locks taken by the fetch keep a second publisher instance off the
// batch until the marks commit; a crash mid-batch rolls the marks back and
// re-delivers, which consumers dedupe on the message id.
func (p *Publisher) drain(ctx context.Context) {
	err := p.repo.WithTx(ctx, func(tx pgx.Tx) error {
		records, err := p.repo.GetUnpublishedOutbox(ctx, tx, p.batchSize)
		if err != nil {
			return err
		}
		if len(records) > 0 {
			observability.OutboxLag.Set(time.Since(records[0].CreatedAt).Seconds())
		} else {
			observability.OutboxLag.Set(0)
		}
		for _, rec := range records {
			msg := amqp.Publishing{
				MessageId:   rec.DedupeKey,
				ContentType: "application/json",
				Body:        rec.Payload,
			}
			if err := p.rabbitPub.Publish(ctx, rec.EventType, msg); err != nil {
				p.logger.WithField("event_type", rec.EventType).Error("outbox publish failed: ", err)
				continue
			}
			if err := p.repo.MarkPublished(ctx, tx, rec.ID, time.Now()); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		p.logger.Error("outbox drain failed: ", err)
	}
}

// Package relay publishes committed audit events from the transactional
// outbox to Kafka. Events reach the outbox in the same transaction as the
// mutation they document, so the relay only ever sees committed realities;
// rows are marked published after a successful produce, giving at-least-once
// delivery downstream.
package relay

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/twmb/franz-go/pkg/kgo"
)

const (
	defaultInterval  = time.Second
	defaultBatchSize = 100
)

// Relay drains the outbox table on an interval.
type Relay struct {
	db        *sql.DB
	client    *kgo.Client
	logger    *slog.Logger
	interval  time.Duration
	batchSize int
}

func New(db *sql.DB, brokers []string, logger *slog.Logger) (*Relay, error) {
	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.AllowAutoTopicCreation(),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	return &Relay{
		db:        db,
		client:    client,
		logger:    logger,
		interval:  defaultInterval,
		batchSize: defaultBatchSize,
	}, nil
}

// Run drains the outbox until ctx is cancelled. Publish failures are logged
// and retried on the next tick; rows stay unpublished until produce
// succeeds.
func (r *Relay) Run(ctx context.Context) error {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n, err := r.relayBatch(ctx); err != nil {
				r.logger.ErrorContext(ctx, "outbox relay batch failed", "error", err.Error())
			} else if n > 0 {
				r.logger.DebugContext(ctx, "outbox batch relayed", "events", n)
			}
		}
	}
}

// Close flushes and releases the Kafka client.
func (r *Relay) Close() {
	r.client.Close()
}

type outboxRow struct {
	id      uuid.UUID
	topic   string
	payload []byte
}

// relayBatch claims up to batchSize unpublished rows with SKIP LOCKED so
// multiple relay instances never double-claim, produces them, and marks them
// published inside the same transaction.
func (r *Relay) relayBatch(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin outbox tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	rows, err := tx.QueryContext(ctx, `
		SELECT id, topic, payload
		FROM outbox
		WHERE published_at IS NULL
		ORDER BY created_at
		LIMIT $1
		FOR UPDATE SKIP LOCKED
	`, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("claim outbox rows: %w", err)
	}

	var batch []outboxRow
	for rows.Next() {
		var row outboxRow
		if err := rows.Scan(&row.id, &row.topic, &row.payload); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan outbox row: %w", err)
		}
		batch = append(batch, row)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("iterate outbox rows: %w", err)
	}
	if len(batch) == 0 {
		return 0, nil
	}

	now := time.Now()
	for _, row := range batch {
		record := &kgo.Record{Topic: row.topic, Key: row.id[:], Value: row.payload}
		if err := r.client.ProduceSync(ctx, record).FirstErr(); err != nil {
			return 0, fmt.Errorf("produce outbox event: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE outbox SET published_at = $2 WHERE id = $1`, row.id, now); err != nil {
			return 0, fmt.Errorf("mark outbox row published: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit outbox tx: %w", err)
	}
	return len(batch), nil
}

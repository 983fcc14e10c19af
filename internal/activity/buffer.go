package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"delivery-service/internal/domain"
	"delivery-service/internal/logger"
	"delivery-service/internal/repository"

	"github.com/redis/go-redis/v9"
)

// Buffer queues user activity in a Redis list so request handling never
// waits on the database. Flush drains the list into MySQL in batches.
type Buffer struct {
	rdb   *redis.Client
	repo  repository.ActivityRepository
	key   string
	batch int
	log   *logger.Logger
}

func NewBuffer(rdb *redis.Client, repo repository.ActivityRepository, key string, batch int, log *logger.Logger) *Buffer {
	if batch <= 0 {
		batch = 500
	}
	return &Buffer{rdb: rdb, repo: repo, key: key, batch: batch, log: log.WithComponent("activity")}
}

func (b *Buffer) Record(ctx context.Context, a domain.UserActivity) error {
	data, err := json.Marshal(a)
	if err != nil {
		return err
	}
	return b.rdb.RPush(ctx, b.key, data).Err()
}

// Flush moves buffered entries to the repository until the list is empty.
// A failed batch is pushed back to the head of the list.
func (b *Buffer) Flush(ctx context.Context) (int, error) {
	total := 0
	for {
		raw, err := b.rdb.LPopCount(ctx, b.key, b.batch).Result()
		if errors.Is(err, redis.Nil) || len(raw) == 0 {
			return total, nil
		}
		if err != nil {
			return total, fmt.Errorf("pop activity batch: %w", err)
		}

		entries := make([]domain.UserActivity, 0, len(raw))
		for _, r := range raw {
			var a domain.UserActivity
			if err := json.Unmarshal([]byte(r), &a); err != nil {
				b.log.Warn("dropping malformed activity entry", "error", err)
				continue
			}
			entries = append(entries, a)
		}

		if err := b.repo.SaveBatch(ctx, entries); err != nil {
			b.requeue(ctx, raw)
			return total, fmt.Errorf("save activity batch: %w", err)
		}
		total += len(entries)

		if len(raw) < b.batch {
			return total, nil
		}
	}
}

func (b *Buffer) requeue(ctx context.Context, raw []string) {
	values := make([]any, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		values = append(values, raw[i])
	}
	if err := b.rdb.LPush(context.WithoutCancel(ctx), b.key, values...).Err(); err != nil {
		b.log.Error("activity entries lost", "count", len(raw), "error", err)
	}
}

func (b *Buffer) Len(ctx context.Context) (int64, error) {
	return b.rdb.LLen(ctx, b.key).Result()
}

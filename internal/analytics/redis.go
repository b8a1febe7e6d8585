// Package analytics keeps a lightweight run history in Redis: per-pipeline,
// per-stage outcome counters in daily buckets with a retention TTL. It is
// optional; when Redis is not configured the pipeline runs without it.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/guildops/guildflow/internal/domain"
)

type RedisSink struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisSink(client *redis.Client, retention time.Duration) *RedisSink {
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &RedisSink{client: client, retention: retention}
}

// Record increments the outcome counter for the event's stage in its daily
// bucket and refreshes the bucket's TTL.
func (s *RedisSink) Record(ctx context.Context, event domain.StageEvent) error {
	key := buildKey(event.Pipeline, event.Stage, event.Outcome, event.At)

	pipe := s.client.Pipeline()
	pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, s.retention)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis pipeline: %w", err)
	}
	return nil
}

func buildKey(pipeline, stage, outcome string, t time.Time) string {
	return fmt.Sprintf("gf:%s:%s:%s:%s", pipeline, stage, outcome, t.UTC().Format("20060102"))
}

package hipaa

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultRedisPrefix = "medassist:audit:outbox"

// RedisOutbox stores messages in a hash keyed by id and schedules them in
// a sorted set scored by next attempt time (unix ms).
type RedisOutbox struct {
	client   redis.UniversalClient
	schedKey string
	msgsKey  string
}

// NewRedisOutbox creates an outbox under keyPrefix; an empty prefix uses
// the default.
func NewRedisOutbox(client redis.UniversalClient, keyPrefix string) *RedisOutbox {
	if keyPrefix == "" {
		keyPrefix = defaultRedisPrefix
	}
	return &RedisOutbox{
		client:   client,
		schedKey: keyPrefix + ":schedule",
		msgsKey:  keyPrefix + ":messages",
	}
}

// NewRedisClient parses url and verifies the connection.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (o *RedisOutbox) Enqueue(ctx context.Context, msg OutboxMessage) error {
	return o.store(ctx, msg)
}

func (o *RedisOutbox) Reschedule(ctx context.Context, msg OutboxMessage) error {
	return o.store(ctx, msg)
}

func (o *RedisOutbox) store(ctx context.Context, msg OutboxMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode outbox message: %w", err)
	}
	_, err = o.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, o.msgsKey, msg.ID, payload)
		p.ZAdd(ctx, o.schedKey, redis.Z{Score: float64(msg.NextAttempt.UnixMilli()), Member: msg.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("store outbox message %s: %w", msg.ID, err)
	}
	return nil
}

func (o *RedisOutbox) Due(ctx context.Context, now time.Time, max int) ([]OutboxMessage, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: strconv.FormatInt(now.UnixMilli(), 10)}
	if max > 0 {
		rng.Count = int64(max)
	}
	ids, err := o.client.ZRangeByScore(ctx, o.schedKey, rng).Result()
	if err != nil {
		return nil, fmt.Errorf("read outbox schedule: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	vals, err := o.client.HMGet(ctx, o.msgsKey, ids...).Result()
	if err != nil {
		return nil, fmt.Errorf("read outbox messages: %w", err)
	}

	msgs := make([]OutboxMessage, 0, len(vals))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			// Scheduled without a body; drop the dangling schedule entry.
			o.client.ZRem(ctx, o.schedKey, ids[i])
			continue
		}
		var m OutboxMessage
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, fmt.Errorf("decode outbox message %s: %w", ids[i], err)
		}
		msgs = append(msgs, m)
	}
	return msgs, nil
}

func (o *RedisOutbox) Ack(ctx context.Context, id string) error {
	_, err := o.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, o.schedKey, id)
		p.HDel(ctx, o.msgsKey, id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("ack outbox message %s: %w", id, err)
	}
	return nil
}

func (o *RedisOutbox) Len(ctx context.Context) (int, error) {
	n, err := o.client.ZCard(ctx, o.schedKey).Result()
	if err != nil {
		return 0, fmt.Errorf("outbox length: %w", err)
	}
	return int(n), nil
}

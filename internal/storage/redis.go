package storage

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"
)

// Redis keeps items as plain string keys under "moviemark:<namespace>:".
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps a connected client. The caller keeps ownership of it.
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, prefix: "moviemark:" + namespace + ":"}
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := r.client.Get(ctx, r.prefix+key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, r.prefix+key).Err()
}

func (r *Redis) Keys(ctx context.Context) ([]string, error) {
	full, err := r.scan(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(full))
	for _, key := range full {
		keys = append(keys, strings.TrimPrefix(key, r.prefix))
	}
	return sortedKeys(keys), nil
}

func (r *Redis) Clear(ctx context.Context) error {
	full, err := r.scan(ctx)
	if err != nil {
		return err
	}
	if len(full) == 0 {
		return nil
	}
	return r.client.Del(ctx, full...).Err()
}

// Close is a no-op; the client belongs to whoever created it.
func (r *Redis) Close() error { return nil }

func (r *Redis) scan(ctx context.Context) ([]string, error) {
	var keys []string
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("failed to scan keys: %w", err)
	}
	return keys, nil
}

package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Redis keeps each namespace in a hash named "<prefix><namespace>".
type Redis struct {
	rdb    *redis.Client
	prefix string
}

// NewRedis connects to addr and verifies the connection with PING.
func NewRedis(ctx context.Context, addr, password string, db int, prefix string) (*Redis, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close() //nolint:errcheck
		return nil, fmt.Errorf("store.NewRedis: ping %s: %w", addr, err)
	}
	return &Redis{rdb: rdb, prefix: prefix}, nil
}

func (r *Redis) hash(namespace string) string {
	return r.prefix + namespace
}

func (r *Redis) Get(ctx context.Context, namespace, key string) (string, bool, error) {
	v, err := r.rdb.HGet(ctx, r.hash(namespace), key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("store.Redis.Get: %w", err)
	}
	return v, true, nil
}

func (r *Redis) Put(ctx context.Context, namespace, key, value string) error {
	if err := r.rdb.HSet(ctx, r.hash(namespace), key, value).Err(); err != nil {
		return fmt.Errorf("store.Redis.Put: %w", err)
	}
	return nil
}

func (r *Redis) Delete(ctx context.Context, namespace, key string) error {
	if err := r.rdb.HDel(ctx, r.hash(namespace), key).Err(); err != nil {
		return fmt.Errorf("store.Redis.Delete: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

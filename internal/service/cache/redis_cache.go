package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// opTimeout bounds every cache round trip so a slow Redis cannot stall
// a report request.
const opTimeout = 500 * time.Millisecond

// RedisCache is a BytesCache backed by a dedicated Redis connection.
type RedisCache struct {
	cli *redis.Client
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

func NewRedisCache(cfg RedisConfig) *RedisCache {
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	return &RedisCache{cli: rdb}
}

func (r *RedisCache) GetBytes(key string) ([]byte, bool, error) {
    ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
    defer cancel()

    b, err := r.cli.Get(ctx, key).Bytes()
    if err != nil {
        if err == redis.Nil {
            return nil, false, nil
        }
        return nil, false, err
    }
    return b, true, nil
}

func (r *RedisCache) SetBytes(key string, value []byte, ttl time.Duration) error {
    ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
    defer cancel()

    return r.cli.Set(ctx, key, value, ttl).Err()
}

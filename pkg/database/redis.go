package database

import (
	"github.com/redis/go-redis/v9"
)

// RedisConfig holds Redis connection configuration.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// OpenRedisClient builds a client without contacting the server. go-redis
// dials lazily and redials after failures, so a cache that is down at startup
// starts working once it comes back.
func OpenRedisClient(cfg RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

package config

import (
	"context"
	"crypto/tls"
	"log"
	"os"
	"time"

	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to the Redis instance backing the rate limiter and
// the schedule-browse response cache.  REDIS_ADDR (or REDIS_HOST with
// REDIS_PORT), REDIS_PASSWORD, REDIS_DB and REDIS_TLS configure the client.
// Redis is optional infrastructure: when the startup ping fails the function
// logs and returns nil, and callers run without limiting or caching.
func NewRedisClient() *redis.Client {
	addr := strOr("REDIS_ADDR", "localhost:6379")
	if host, port := os.Getenv("REDIS_HOST"), os.Getenv("REDIS_PORT"); host != "" && port != "" {
		addr = host + ":" + port
	}
	var tlsConf *tls.Config
	if boolOr("REDIS_TLS", false) {
		tlsConf = &tls.Config{InsecureSkipVerify: true}
	}
	client := redis.NewClient(&redis.Options{
		Addr:      addr,
		Password:  os.Getenv("REDIS_PASSWORD"),
		DB:        intOr("REDIS_DB", 0),
		TLSConfig: tlsConf,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		log.Printf("redis unavailable at %s, caching and rate limiting disabled: %v", addr, err)
		return nil
	}
	return client
}

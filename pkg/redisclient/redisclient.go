// Package redisclient builds go-redis clients from the REDIS_URL style
// settings, which accept either a redis:// URL or a bare host:port.
package redisclient

import (
	"strings"

	"github.com/redis/go-redis/v9"
)

func Options(url string) (*redis.Options, error) {
	if strings.HasPrefix(url, "redis://") || strings.HasPrefix(url, "rediss://") || strings.HasPrefix(url, "unix://") {
		return redis.ParseURL(url)
	}
	return &redis.Options{Addr: url}, nil
}

func New(url string) (*redis.Client, error) {
	opts, err := Options(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

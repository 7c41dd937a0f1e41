package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

const DefaultRedisRouteKey = "traffic:routes"

// RedisRouteCache keeps routing decisions in a single Redis hash so several processes
// share one cache window. Fields are "<src>:<dst>", values "<cost>,<a>-<b>".
type RedisRouteCache struct {
	Client *redis.Client
	Key    string
}

func NewRedisRouteCache(client *redis.Client, key string) *RedisRouteCache {
	if key == "" {
		key = DefaultRedisRouteKey
	}
	return &RedisRouteCache{Client: client, Key: key}
}

func (c *RedisRouteCache) Get(ctx context.Context, src, dst domain.IntersectionID) (ports.CachedRoute, bool, error) {
	if c.Client == nil {
		return ports.CachedRoute{}, false, errors.New("redis route cache: client is nil")
	}

	v, err := c.Client.HGet(ctx, c.Key, routeField(src, dst)).Result()
	if errors.Is(err, redis.Nil) {
		return ports.CachedRoute{}, false, nil
	}
	if err != nil {
		return ports.CachedRoute{}, false, fmt.Errorf("get route cache %d->%d: %w", src, dst, err)
	}

	route, err := decodeRoute(v)
	if err != nil {
		return ports.CachedRoute{}, false, fmt.Errorf("get route cache %d->%d: %w", src, dst, err)
	}
	return route, true, nil
}

func (c *RedisRouteCache) Put(ctx context.Context, src, dst domain.IntersectionID, route ports.CachedRoute) error {
	if c.Client == nil {
		return errors.New("redis route cache: client is nil")
	}

	if err := c.Client.HSet(ctx, c.Key, routeField(src, dst), encodeRoute(route)).Err(); err != nil {
		return fmt.Errorf("put route cache %d->%d: %w", src, dst, err)
	}
	return nil
}

func (c *RedisRouteCache) Flush(ctx context.Context) error {
	if c.Client == nil {
		return errors.New("redis route cache: client is nil")
	}

	if err := c.Client.Del(ctx, c.Key).Err(); err != nil {
		return fmt.Errorf("flush route cache: %w", err)
	}
	return nil
}

func routeField(src, dst domain.IntersectionID) string {
	return fmt.Sprintf("%d:%d", src, dst)
}

func encodeRoute(r ports.CachedRoute) string {
	road := ""
	if r.Road != nil {
		road = r.Road.String()
	}
	return strconv.FormatFloat(r.Cost, 'g', -1, 64) + "," + road
}

func decodeRoute(v string) (ports.CachedRoute, error) {
	costStr, roadStr, ok := strings.Cut(v, ",")
	if !ok {
		return ports.CachedRoute{}, fmt.Errorf("decode route %q: missing separator", v)
	}

	cost, err := strconv.ParseFloat(costStr, 64)
	if err != nil {
		return ports.CachedRoute{}, fmt.Errorf("decode route %q: %w", v, err)
	}

	route := ports.CachedRoute{Cost: cost}
	if roadStr != "" {
		road, err := domain.ParseRoadID(roadStr)
		if err != nil {
			return ports.CachedRoute{}, fmt.Errorf("decode route %q: %w", v, err)
		}
		route.Road = &road
	}
	return route, nil
}

package cache

import (
	"database/sql"
	"fmt"
	"traffic-reroute-service/internal/ports"

	"github.com/redis/go-redis/v9"
)

// New returns the route cache for a backend name. "none" yields a nil cache, which
// the route engine treats as always missing.
func New(backend string, db *sql.DB, rdb *redis.Client) (ports.RouteCache, error) {
	switch backend {
	case "", "memory":
		return NewMemoryRouteCache(), nil
	case "redis":
		if rdb == nil {
			return nil, fmt.Errorf("new route cache: redis backend needs REDIS_ADDR")
		}
		return NewRedisRouteCache(rdb, DefaultRedisRouteKey), nil
	case "sql":
		if db == nil {
			return nil, fmt.Errorf("new route cache: sql backend needs DATABASE_URL or DB_PATH")
		}
		return NewSQLRouteCache(db), nil
	case "none":
		return nil, nil
	default:
		return nil, fmt.Errorf("new route cache: unknown backend %q", backend)
	}
}

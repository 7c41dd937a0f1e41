package cache

import (
	"context"
	"sync"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
)

type routeKey struct {
	src domain.IntersectionID
	dst domain.IntersectionID
}

// MemoryRouteCache is an in-process RouteCache.
type MemoryRouteCache struct {
	mu     sync.RWMutex
	routes map[routeKey]ports.CachedRoute
}

func NewMemoryRouteCache() *MemoryRouteCache {
	return &MemoryRouteCache{routes: make(map[routeKey]ports.CachedRoute)}
}

func (c *MemoryRouteCache) Get(_ context.Context, src, dst domain.IntersectionID) (ports.CachedRoute, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	r, ok := c.routes[routeKey{src, dst}]
	if ok && r.Road != nil {
		road := *r.Road
		r.Road = &road
	}
	return r, ok, nil
}

func (c *MemoryRouteCache) Put(_ context.Context, src, dst domain.IntersectionID, route ports.CachedRoute) error {
	if route.Road != nil {
		road := *route.Road
		route.Road = &road
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.routes[routeKey{src, dst}] = route
	return nil
}

func (c *MemoryRouteCache) Flush(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	clear(c.routes)
	return nil
}

// Len returns the number of cached pairs.
func (c *MemoryRouteCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.routes)
}

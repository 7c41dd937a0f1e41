package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"traffic-reroute-service/internal/domain"
)

var ErrNetworkPanic = errors.New("panic while holding network lock")

// Network guards a road map and its route engine with a single lock.
// Every reader and writer goes through it; critical sections are kept short.
type Network struct {
	mu     sync.Mutex
	roads  *domain.RoadMap
	routes *RouteEngine
}

func NewNetwork(roads *domain.RoadMap, routes *RouteEngine) *Network {
	return &Network{roads: roads, routes: routes}
}

// WithLock runs fn with exclusive access. A panic inside fn is recovered and
// reported as ErrNetworkPanic; the lock is released either way.
func (n *Network) WithLock(fn func(roads *domain.RoadMap, routes *RouteEngine) error) (err error) {
	n.mu.Lock()
	defer n.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrNetworkPanic, r)
		}
	}()

	return fn(n.roads, n.routes)
}

// BestNextHop implements ports.Router.
func (n *Network) BestNextHop(
	ctx context.Context,
	src, dst domain.IntersectionID,
	exclude *domain.RoadID,
) (cost float64, road *domain.RoadID, err error) {
	err = n.WithLock(func(_ *domain.RoadMap, routes *RouteEngine) error {
		var e error
		cost, road, e = routes.BestNextHop(ctx, src, dst, exclude)
		return e
	})
	if err != nil {
		return 0, nil, fmt.Errorf("best next hop %d->%d: %w", src, dst, err)
	}
	return cost, road, nil
}

// SetCost writes dynamic costs of a road. It reports false if the road does not exist.
func (n *Network) SetCost(id domain.RoadID, forward, backward *float64) (bool, error) {
	var ok bool
	err := n.WithLock(func(roads *domain.RoadMap, _ *RouteEngine) error {
		ok = roads.SetCost(id, forward, backward)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("set cost %s: %w", id, err)
	}
	return ok, nil
}

// Snapshot copies the road map for readers outside the lock.
func (n *Network) Snapshot() (domain.NetworkSnapshot, error) {
	var snap domain.NetworkSnapshot
	err := n.WithLock(func(roads *domain.RoadMap, _ *RouteEngine) error {
		snap = roads.Snapshot()
		return nil
	})
	if err != nil {
		return domain.NetworkSnapshot{}, fmt.Errorf("snapshot network: %w", err)
	}
	return snap, nil
}

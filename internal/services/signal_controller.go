package services

import (
	"context"
	"fmt"
	"log"
	"slices"
	"time"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"

	"github.com/samber/lo"
)

const DefaultSignalInterval = 300 * time.Millisecond

// SignalController turns routing decisions at fixed decision points into signal outputs.
type SignalController struct {
	router   ports.Router
	output   ports.SignalOutput
	table    ports.SignalTable
	points   []domain.DecisionPoint
	interval time.Duration

	on map[string]bool
}

func NewSignalController(
	router ports.Router,
	output ports.SignalOutput,
	table ports.SignalTable,
	points []domain.DecisionPoint,
	interval time.Duration,
) *SignalController {
	if interval <= 0 {
		interval = DefaultSignalInterval
	}
	return &SignalController{
		router:   router,
		output:   output,
		table:    table,
		points:   points,
		interval: interval,
		on:       make(map[string]bool),
	}
}

// Run refreshes the signals immediately and then on every interval until ctx is done.
// A failed refresh is logged and retried on the next interval.
func (c *SignalController) Run(ctx context.Context) error {
	c.refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			c.refresh(ctx)
		}
	}
}

func (c *SignalController) refresh(ctx context.Context) {
	if err := c.Refresh(ctx); err != nil {
		log.Printf("op=signals.Run err=%v", err)
	}
}

// Refresh switches off every lit signal, then lights the signal of the chosen road
// for each decision point and destination. Output failures are logged and skipped.
func (c *SignalController) Refresh(ctx context.Context) (err error) {
	defer obs.Time(ctx, "signals.Refresh")(&err)

	c.clear(ctx)

	for _, p := range c.points {
		exclude := p.Road
		for _, route := range p.Routes {
			_, road, err := c.router.BestNextHop(ctx, p.Intersection, route.Destination, &exclude)
			if err != nil {
				return fmt.Errorf("refresh signals: at %d for %d: %w", p.Intersection, route.Destination, err)
			}
			if road == nil {
				continue
			}
			if name, ok := route.Signals[*road]; ok {
				c.set(ctx, name, true)
			}
		}
	}

	return nil
}

// Lit returns the names of the signals currently switched on, sorted.
func (c *SignalController) Lit() []string {
	names := lo.Keys(lo.PickBy(c.on, func(_ string, on bool) bool { return on }))
	slices.Sort(names)
	return names
}

func (c *SignalController) clear(ctx context.Context) {
	for _, name := range c.Lit() {
		c.set(ctx, name, false)
	}
}

func (c *SignalController) set(ctx context.Context, name string, on bool) {
	c.on[name] = on

	addr, ok := c.table.Lookup(name)
	if !ok {
		log.Printf("op=signals.set signal=%s err=unknown signal", name)
		return
	}
	if err := c.output.Set(ctx, addr, on); err != nil {
		log.Printf("op=signals.set signal=%s bank=%d index=%d on=%t err=%v", name, addr.Bank, addr.Index, on, err)
	}
}

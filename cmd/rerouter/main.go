package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"
	"traffic-reroute-service/internal/adapters/cache"
	"traffic-reroute-service/internal/adapters/lanemask"
	"traffic-reroute-service/internal/adapters/sensor"
	sigout "traffic-reroute-service/internal/adapters/signal"
	"traffic-reroute-service/internal/config"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/ports"
	"traffic-reroute-service/internal/services"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

const (
	// How often stale vehicles are evicted and lane costs are pushed into the network.
	costInterval = 50 * time.Millisecond

	// Signal hardware layout: 5 banks of 16 outputs.
	signalBanks   = 5
	signalPerBank = 16
)

var errSensorClosed = errors.New("sensor feed closed")

// main is the composition root of the live deployment: a sensor reader, a cost
// updater and a signal controller share one network.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found (using environment variables)")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	preset, err := config.LoadPreset(cfg.PresetPath)
	if err != nil {
		log.Fatal(err)
	}
	roads, err := services.BuildRoadMap(preset.Topology())
	if err != nil {
		log.Fatal(err)
	}

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			log.Fatalf("open redis %s: %v", cfg.RedisAddr, err)
		}
	}

	mode, err := services.ParseRoutingMode(cfg.RoutingMode)
	if err != nil {
		log.Fatal(err)
	}
	backend := cfg.CacheBackend
	if backend == "sql" {
		log.Println("SQL route cache is not used by the rerouter (using memory)")
		backend = "memory"
	}
	routeCache, err := cache.New(backend, nil, rdb)
	if err != nil {
		log.Fatal(err)
	}
	engine := services.NewRouteEngine(roads, routeCache, mode, cfg.Scale)
	if err := engine.Flush(ctx); err != nil {
		log.Fatal(err)
	}
	network := services.NewNetwork(roads, engine)

	classifier, err := lanemask.Load(cfg.MaskDir)
	if err != nil {
		log.Fatal(err)
	}
	trackerCfg := services.DefaultTrackerConfig()
	trackerCfg.Coefficients = domain.CostCoefficients{Density: cfg.DensityCoeff, Velocity: cfg.VelocityCoeff}
	tracker := services.NewTracker(classifier, classifier.Lanes(), trackerCfg)

	table, err := sigout.NewTable(preset.SignalEntries())
	if err != nil {
		log.Fatal(err)
	}
	output, closeOutput, err := openSignalOutput(ctx, cfg, rdb)
	if err != nil {
		log.Fatal(err)
	}
	defer closeOutput()

	controller := services.NewSignalController(network, output, table, preset.Decisions(), cfg.SignalInterval)

	log.Printf(
		"Rerouter starting mode=%s cache=%s signals=%s lanes=%d decision_points=%d",
		mode, backend, cfg.SignalBackend, len(classifier.Lanes()), len(preset.DecisionPoints),
	)

	detections := make(chan []domain.Detection, 16)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readSensor(gctx, cfg.SensorCmd, detections) })
	g.Go(func() error { return controller.Run(gctx) })
	g.Go(func() error { return tracker.Run(gctx, network, detections, costInterval) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}
	log.Println("Rerouter stopped")
}

// readSensor streams detections from the detector process, or stdin when no
// command is configured. The group is stopped when the feed ends.
func readSensor(ctx context.Context, command string, out chan<- []domain.Detection) error {
	var r io.Reader = os.Stdin
	if command != "" {
		stdout, cmd, err := sensor.StartCommand(ctx, command)
		if err != nil {
			return err
		}
		defer func() {
			if err := cmd.Wait(); err != nil && ctx.Err() == nil {
				log.Printf("sensor command exited: %v", err)
			}
		}()
		r = stdout
	}

	if err := sensor.Feed(ctx, r, out); err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	return errSensorClosed
}

func openSignalOutput(ctx context.Context, cfg config.Config, rdb *redis.Client) (ports.SignalOutput, func(), error) {
	switch cfg.SignalBackend {
	case "redis":
		if rdb == nil {
			return nil, nil, fmt.Errorf("open signal output: redis backend needs REDIS_ADDR")
		}
		return sigout.NewRedisOutput(rdb), func() {}, nil

	case "log":
		return sigout.LogOutput{}, func() {}, nil
	}

	if cfg.SignalPort == "" {
		return nil, nil, fmt.Errorf("open signal output: SIGNAL_PORT is required for the serial backend")
	}
	// line settings (baud rate) are configured on the device beforehand
	port, err := os.OpenFile(cfg.SignalPort, os.O_RDWR, 0)
	if err != nil {
		return nil, nil, fmt.Errorf("open signal output %s: %w", cfg.SignalPort, err)
	}

	out := sigout.NewWriterOutput(port)
	readyCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := out.WaitReady(readyCtx, sigout.DefaultBanner); err != nil {
		port.Close()
		return nil, nil, fmt.Errorf("open signal output %s: %w", cfg.SignalPort, err)
	}
	if err := out.ClearAll(ctx, signalBanks, signalPerBank); err != nil {
		log.Printf("clear signals failed: %v", err)
	}

	return out, func() {
		if err := out.ClearAll(context.Background(), signalBanks, signalPerBank); err != nil {
			log.Printf("clear signals failed: %v", err)
		}
		port.Close()
	}, nil
}

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	"traffic-reroute-service/internal/adapters/cache"
	"traffic-reroute-service/internal/adapters/repositories"
	"traffic-reroute-service/internal/api"
	"traffic-reroute-service/internal/config"
	"traffic-reroute-service/internal/domain"
	"traffic-reroute-service/internal/platform/db"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"
	"traffic-reroute-service/internal/services"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"
)

// main is the composition root of the headless simulator.
// It loads the network, runs the tick loop and serves the HTTP API alongside it.
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

	store, err := openStore(cfg)
	if err != nil {
		log.Fatal(err)
	}
	if store != nil {
		defer store.Close()
	}

	rdb, err := openRedis(ctx, cfg.RedisAddr)
	if err != nil {
		log.Fatal(err)
	}
	if rdb != nil {
		defer rdb.Close()
	}

	topo, err := loadTopology(ctx, cfg, store)
	if err != nil {
		log.Fatal(err)
	}
	roads, err := services.BuildRoadMap(topo)
	if err != nil {
		log.Fatal(err)
	}

	mode, err := services.ParseRoutingMode(cfg.RoutingMode)
	if err != nil {
		log.Fatal(err)
	}
	routeCache, err := cache.New(cfg.CacheBackend, store, rdb)
	if err != nil {
		log.Fatal(err)
	}
	engine := services.NewRouteEngine(roads, routeCache, mode, cfg.Scale)
	if err := engine.Flush(ctx); err != nil {
		log.Fatal(err)
	}
	network := services.NewNetwork(roads, engine)

	simCfg := services.DefaultSimulatorConfig()
	simCfg.Scale = cfg.Scale
	simCfg.Seed = cfg.Seed
	simCfg.Coefficients = domain.CostCoefficients{Density: cfg.DensityCoeff, Velocity: cfg.VelocityCoeff}
	simCfg.SpawnInterval = cfg.SpawnInterval
	simCfg.SpawnBatch = cfg.SpawnBatch
	simCfg.MaxVehicles = cfg.MaxVehicles
	sim := services.NewSimulator(network, simCfg)

	run := ports.RunRecord{RunID: uuid.NewString(), StartedAt: time.Now().UTC()}
	ctx = obs.WithRequestID(ctx, run.RunID)

	router := api.NewRouter(api.Deps{
		Router:  network,
		Network: network,
		Costs:   network,
		Sim:     sim,
		Editor:  sim,
	})
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	log.Printf(
		"Simulator starting run_id=%s addr=:%s mode=%s cache=%s scale=%v seed=%d intersections=%d roads=%d",
		run.RunID, cfg.Port, mode, cfg.CacheBackend, cfg.Scale, cfg.Seed, len(topo.Intersections), len(topo.Roads),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		defer shutdown(srv)

		err := sim.Run(gctx, cfg.Ticks, cfg.TickInterval)
		run.Completed = err == nil && cfg.Ticks > 0 && gctx.Err() == nil
		return err
	})

	runErr := g.Wait()

	if stats, err := sim.Stats(); err == nil {
		run.Stats = stats
		log.Printf(
			"Simulator stopped run_id=%s ticks=%d completed=%d on_road=%d avg_flux=%.6f avg_velocity=%.3f",
			run.RunID, stats.Ticks, stats.CompletedCount, stats.VehiclesOnRoad, stats.AvgFlux, stats.AvgVelocity,
		)
	}

	if store != nil {
		saveCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := repositories.NewSQLRunRepository(store).SaveRun(obs.WithRequestID(saveCtx, run.RunID), run); err != nil {
			log.Printf("save run failed: run_id=%s err=%v", run.RunID, err)
		}
	}

	if runErr != nil {
		log.Fatal(runErr)
	}
}

func shutdown(srv *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("http shutdown failed: %v", err)
	}
}

// openStore returns nil when no database is configured.
func openStore(cfg config.Config) (*sql.DB, error) {
	driver, dsn, ok := db.Select(cfg.DatabaseURL, cfg.DBPath)
	if !ok {
		return nil, nil
	}

	store, err := db.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == db.DriverSQLite {
		// local databases are created on first use
		if err := repositories.InitSchema(store); err != nil {
			store.Close()
			return nil, err
		}
	}
	return store, nil
}

func openRedis(ctx context.Context, addr string) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("open redis %s: %w", addr, err)
	}
	return rdb, nil
}

// loadTopology prefers an explicit preset file, then the database, then the bundled preset.
func loadTopology(ctx context.Context, cfg config.Config, store *sql.DB) (*ports.Topology, error) {
	if store != nil && cfg.PresetPath == "" {
		topo, err := repositories.NewSQLTopologyRepository(store).LoadTopology(ctx)
		if err != nil {
			return nil, err
		}
		if len(topo.Intersections) > 0 {
			return topo, nil
		}
		log.Println("No topology stored in database (using bundled preset)")
	}

	preset, err := config.LoadPreset(cfg.PresetPath)
	if err != nil {
		return nil, err
	}
	return preset.Topology(), nil
}

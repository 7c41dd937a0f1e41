package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"traffic-reroute-service/internal/platform/obs"
	"traffic-reroute-service/internal/ports"

	"github.com/google/uuid"
)

// SQL-backed implementation of the RunRepository port.
type SQLRunRepository struct{ DB *sql.DB }

func NewSQLRunRepository(db *sql.DB) *SQLRunRepository {
	return &SQLRunRepository{DB: db}
}

// Store the summary of a run. An empty run id is replaced by a fresh UUID.
func (s *SQLRunRepository) SaveRun(ctx context.Context, run ports.RunRecord) (err error) {
	defer obs.Time(ctx, "runs.Save")(&err)

	if s.DB == nil {
		return errors.New("sql run repository: DB is nil")
	}

	if run.RunID == "" {
		run.RunID = uuid.NewString()
	}
	if _, err := uuid.Parse(run.RunID); err != nil {
		return fmt.Errorf("save run: invalid run id %q: %w", run.RunID, err)
	}

	_, err = s.DB.ExecContext(ctx, `
	INSERT INTO simulation_runs (
		run_id,
		started_at,
		ticks,
		completed,
		vehicles_on_road,
		avg_flux,
		avg_velocity,
		finished
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (run_id) DO UPDATE
	SET ticks = EXCLUDED.ticks,
		completed = EXCLUDED.completed,
		vehicles_on_road = EXCLUDED.vehicles_on_road,
		avg_flux = EXCLUDED.avg_flux,
		avg_velocity = EXCLUDED.avg_velocity,
		finished = EXCLUDED.finished;
	`,
		run.RunID,
		run.StartedAt.UTC(),
		run.Stats.Ticks,
		run.Stats.CompletedCount,
		run.Stats.VehiclesOnRoad,
		run.Stats.AvgFlux,
		run.Stats.AvgVelocity,
		run.Completed,
	)
	if err != nil {
		return fmt.Errorf("save run run_id=%s: %w", run.RunID, err)
	}

	return nil
}

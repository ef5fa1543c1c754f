package repository

import (
	"context"

	"github.com/perf-attribution/pkg/model"
)

// RunRepository defines run lifecycle operations.
type RunRepository interface {
	// CreateRun records a new scene run and returns its ID.
	CreateRun(ctx context.Context, scene *model.TestSceneInfo, version string) (int64, error)

	// GetRun retrieves a run by ID.
	GetRun(ctx context.Context, id int64) (*SceneRunRecord, error)

	// LatestRun retrieves the most recent run for a scene.
	LatestRun(ctx context.Context, scene string) (*SceneRunRecord, error)
}

// DetailRepository defines classified-sample persistence.
type DetailRepository interface {
	// SaveDetails persists classified samples for one round in batches.
	SaveDetails(ctx context.Context, runID int64, roundIndex int, samples []model.PerfSymbolDetailData) error

	// CountDetails returns the number of sample rows stored for a run.
	CountDetails(ctx context.Context, runID int64) (int64, error)
}

// SumRepository defines aggregated step-sum persistence.
type SumRepository interface {
	// SaveSums persists all finalized step sums of one round's result.
	SaveSums(ctx context.Context, runID int64, sum *model.PerfSum) error

	// GetSums retrieves the step sums for one round of a run, ordered
	// by step index.
	GetSums(ctx context.Context, runID int64, roundIndex int) (*model.PerfSum, error)
}

package repository

import (
	"context"
	goerrors "errors"

	"gorm.io/gorm"

	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
)

// detailBatchSize bounds insert statement size; sample files routinely
// carry hundreds of thousands of rows.
const detailBatchSize = 500

// GormRepository implements RunRepository, DetailRepository, and
// SumRepository on one GORM connection.
type GormRepository struct {
	db *gorm.DB
}

// NewGormRepository creates a repository backed by the given GORM DB.
func NewGormRepository(db *gorm.DB) *GormRepository {
	return &GormRepository{db: db}
}

// CreateRun records a new scene run and returns its ID.
func (r *GormRepository) CreateRun(ctx context.Context, scene *model.TestSceneInfo, version string) (int64, error) {
	rec := &SceneRunRecord{
		Scene:       scene.Name,
		PackageName: scene.PackageName,
		Rounds:      len(scene.Rounds),
		Version:     version,
	}
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return 0, errors.Wrap(errors.CodeDatabaseError, "failed to create run", err)
	}
	return rec.ID, nil
}

// GetRun retrieves a run by ID.
func (r *GormRepository) GetRun(ctx context.Context, id int64) (*SceneRunRecord, error) {
	var rec SceneRunRecord
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.CodeNotFound, "run %d not found", id)
		}
		return nil, errors.Wrap(errors.CodeDatabaseError, "failed to get run", err)
	}
	return &rec, nil
}

// LatestRun retrieves the most recent run for a scene.
func (r *GormRepository) LatestRun(ctx context.Context, scene string) (*SceneRunRecord, error) {
	var rec SceneRunRecord
	err := r.db.WithContext(ctx).
		Where("scene = ?", scene).
		Order("id DESC").
		First(&rec).Error
	if err != nil {
		if goerrors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf(errors.CodeNotFound, "no runs for scene %s", scene)
		}
		return nil, errors.Wrap(errors.CodeDatabaseError, "failed to get latest run", err)
	}
	return &rec, nil
}

// SaveDetails persists classified samples for one round in batches.
func (r *GormRepository) SaveDetails(ctx context.Context, runID int64, roundIndex int, samples []model.PerfSymbolDetailData) error {
	if len(samples) == 0 {
		return nil
	}
	records := make([]*SymbolDetailRecord, len(samples))
	for i := range samples {
		records[i] = NewSymbolDetailRecord(runID, roundIndex, &samples[i])
	}
	err := r.db.WithContext(ctx).CreateInBatches(records, detailBatchSize).Error
	if err != nil {
		return errors.Wrap(errors.CodeDatabaseError, "failed to save sample details", err)
	}
	return nil
}

// CountDetails returns the number of sample rows stored for a run.
func (r *GormRepository) CountDetails(ctx context.Context, runID int64) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&SymbolDetailRecord{}).
		Where("run_id = ?", runID).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(errors.CodeDatabaseError, "failed to count details", err)
	}
	return count, nil
}

// SaveSums persists all finalized step sums of one round's result.
func (r *GormRepository) SaveSums(ctx context.Context, runID int64, sum *model.PerfSum) error {
	records := make([]*StepSumRecord, 0, len(sum.Steps))
	for _, step := range sum.Steps {
		rec, err := NewStepSumRecord(runID, sum.RoundIndex, step)
		if err != nil {
			return errors.Wrap(errors.CodeDatabaseError, "failed to encode step sum", err)
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return nil
	}
	if err := r.db.WithContext(ctx).Create(records).Error; err != nil {
		return errors.Wrap(errors.CodeDatabaseError, "failed to save step sums", err)
	}
	return nil
}

// GetSums retrieves the step sums for one round of a run.
func (r *GormRepository) GetSums(ctx context.Context, runID int64, roundIndex int) (*model.PerfSum, error) {
	run, err := r.GetRun(ctx, runID)
	if err != nil {
		return nil, err
	}

	var records []StepSumRecord
	err = r.db.WithContext(ctx).
		Where("run_id = ? AND round_index = ?", runID, roundIndex).
		Order("step_idx ASC").
		Find(&records).Error
	if err != nil {
		return nil, errors.Wrap(errors.CodeDatabaseError, "failed to load step sums", err)
	}

	sum := &model.PerfSum{
		Scene:       run.Scene,
		PackageName: run.PackageName,
		RoundIndex:  roundIndex,
		Steps:       make([]*model.PerfStepSum, 0, len(records)),
	}
	for i := range records {
		step, err := records[i].ToModel()
		if err != nil {
			return nil, errors.Wrap(errors.CodeDatabaseError, "failed to decode step sum", err)
		}
		sum.Steps = append(sum.Steps, step)
	}
	return sum, nil
}

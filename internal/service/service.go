// Package service wires loading, classification, aggregation, and
// persistence into the scene analysis pipeline.
package service

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/perf-attribution/internal/aggregator"
	"github.com/perf-attribution/internal/classifier"
	"github.com/perf-attribution/internal/loader"
	"github.com/perf-attribution/internal/repository"
	"github.com/perf-attribution/internal/storage"
	"github.com/perf-attribution/pkg/config"
	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/parallel"
	"github.com/perf-attribution/pkg/utils"
)

const tracerName = "perf-attribution/service"

// Service is the scene analysis service.
type Service struct {
	config *config.Config
	logger utils.Logger

	loader   *loader.Loader
	rules    *classifier.Ruleset
	registry *classifier.ComponentRegistry

	db    *gorm.DB
	repo  *repository.GormRepository
	store storage.Store
}

// New creates a Service.
func New(cfg *config.Config, logger utils.Logger) (*Service, error) {
	if cfg == nil {
		return nil, errors.New(errors.CodeConfigError, "config is nil")
	}
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	return &Service{
		config: cfg,
		logger: logger,
		loader: loader.New(loader.WithLogger(logger)),
	}, nil
}

// Initialize loads the rule table and component manifest and connects
// the persistence backends. The rule table is mandatory; everything
// else degrades gracefully.
func (s *Service) Initialize(ctx context.Context) error {
	rulesCfg, err := config.LoadRules(s.config.Analysis.RulesFile)
	if err != nil {
		return err
	}
	s.rules = classifier.NewRuleset(rulesCfg, s.logger)

	if s.config.Analysis.ComponentManifest != "" {
		registry, err := classifier.LoadManifest(s.config.Analysis.ComponentManifest)
		if err != nil {
			return err
		}
		s.registry = registry
	} else {
		s.registry = classifier.NewComponentRegistry()
	}

	db, err := repository.NewGormDB(&s.config.Database)
	if err != nil {
		return err
	}
	s.db = db
	s.repo = repository.NewGormRepository(db)

	store, err := storage.New(&s.config.Storage)
	if err != nil {
		return err
	}
	s.store = store

	s.logger.Info("service initialized: rules=%s db=%s storage=%s",
		s.config.Analysis.RulesFile, s.config.Database.Type, s.config.Storage.Type)
	return nil
}

// Close releases the database connection.
func (s *Service) Close() error {
	return repository.Close(s.db)
}

// RunResult summarizes one completed scene analysis.
type RunResult struct {
	RunID  int64
	Scene  string
	Rounds []*model.PerfSum
}

// AnalyzeScene runs the full pipeline for the scene manifest at
// scenePath. Rounds are analyzed concurrently; each round gets its own
// classifier engine so memoization caches never cross rounds. Steps
// within a round stay sequential.
func (s *Service) AnalyzeScene(ctx context.Context, scenePath string) (*RunResult, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AnalyzeScene")
	defer span.End()

	scene, err := s.loader.LoadScene(scenePath)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(
		attribute.String("scene", scene.Name),
		attribute.String("package", scene.PackageName),
		attribute.Int("rounds", len(scene.Rounds)),
	)

	runID, err := s.repo.CreateRun(ctx, scene, s.config.Analysis.Version)
	if err != nil {
		return nil, err
	}
	s.logger.Info("analyzing scene %s (%d rounds) as run %d", scene.Name, len(scene.Rounds), runID)

	pool := parallel.NewWorkerPool[model.Round, *model.PerfSum](
		parallel.PoolConfig{MaxWorkers: s.config.Analysis.MaxWorker})
	results := pool.ExecuteFunc(ctx, scene.Rounds, func(ctx context.Context, round model.Round) (*model.PerfSum, error) {
		return s.analyzeRound(ctx, scene, round, runID)
	})
	if err := parallel.FirstError(results); err != nil {
		return nil, errors.Wrap(errors.CodeAnalysisError,
			fmt.Sprintf("scene %s analysis failed", scene.Name), err)
	}

	result := &RunResult{RunID: runID, Scene: scene.Name}
	for _, r := range results {
		result.Rounds = append(result.Rounds, r.Result)
	}
	return result, nil
}

// analyzeRound classifies and aggregates all steps of one round, then
// persists and publishes the round's results.
func (s *Service) analyzeRound(ctx context.Context, scene *model.TestSceneInfo, round model.Round, runID int64) (*model.PerfSum, error) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "AnalyzeRound")
	defer span.End()
	span.SetAttributes(attribute.Int("round", round.Index))

	engine := classifier.NewEngine(s.rules, s.registry, scene.Name, scene.PackageName,
		classifier.WithEngineLogger(s.logger))
	agg := aggregator.New(scene, aggregator.WithRoundIndex(round.Index))

	for _, step := range round.Steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		samples, err := s.loader.LoadStep(step)
		if err != nil {
			return nil, err
		}

		kept := samples[:0]
		for i := range samples {
			if engine.IsSkipSymbol(samples[i].Symbol) {
				continue
			}
			engine.Classify(&samples[i])
			agg.Fold(&samples[i])
			kept = append(kept, samples[i])
		}

		if err := s.repo.SaveDetails(ctx, runID, round.Index, kept); err != nil {
			return nil, err
		}
	}

	sum := agg.Finalize()
	if err := s.repo.SaveSums(ctx, runID, sum); err != nil {
		return nil, err
	}

	key := storage.ResultKey(scene.Name, runID, round.Index)
	if err := storage.PublishJSON(ctx, s.store, key, sum); err != nil {
		return nil, err
	}
	s.logger.Info("round %d of scene %s published to %s", round.Index, scene.Name, s.store.URL(key))
	return sum, nil
}

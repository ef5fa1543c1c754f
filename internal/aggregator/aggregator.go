// Package aggregator folds classified CPU samples into per-step sums
// with component, category and technology-stack breakdowns.
package aggregator

import (
	"math"
	"sort"
	"strings"

	"github.com/perf-attribution/pkg/model"
)

type stepAccum struct {
	sum    *model.PerfStepSum
	stacks map[string]*model.EventSum
}

// Aggregator consumes a stream of classified samples and produces
// per-step sums. It is single-threaded; run one aggregator per worker
// when parallelizing across rounds.
type Aggregator struct {
	scene       *model.TestSceneInfo
	packageName string
	roundIndex  int
	steps       map[int]*stepAccum
}

// Option configures an Aggregator.
type Option func(*Aggregator)

// WithRoundIndex tags the output with the round being aggregated.
func WithRoundIndex(idx int) Option {
	return func(a *Aggregator) { a.roundIndex = idx }
}

// New creates an aggregator for one scene. Step names and the target
// package come from the scene descriptor.
func New(scene *model.TestSceneInfo, opts ...Option) *Aggregator {
	a := &Aggregator{
		scene: scene,
		steps: make(map[int]*stepAccum),
	}
	if scene != nil {
		a.packageName = scene.PackageName
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Aggregator) step(idx int) *stepAccum {
	acc, ok := a.steps[idx]
	if !ok {
		name := ""
		if a.scene != nil {
			name = a.scene.StepName(idx)
		}
		acc = &stepAccum{
			sum: &model.PerfStepSum{
				StepIdx:     idx,
				StepName:    name,
				ByComponent: make(map[string]*model.EventSum),
				ByCategory:  make(map[string]*model.EventSum),
			},
			stacks: make(map[string]*model.EventSum),
		}
		a.steps[idx] = acc
	}
	return acc
}

// componentKey names the business-component bucket for a sample.
func componentKey(k model.ClassifyCategory) string {
	if k.SubCategoryName != "" {
		return k.SubCategoryName
	}
	if k.ThirdCategoryName != "" {
		return k.ThirdCategoryName
	}
	return k.CategoryName
}

// Fold adds one classified sample. Samples must already carry their
// classification results; unclassified samples land in the UNKNOWN
// buckets.
func (a *Aggregator) Fold(s *model.PerfSymbolDetailData) {
	acc := a.step(s.StepIdx)
	sum := acc.sum

	sum.Total.Add(s.EventType, s.SymbolEvents)

	comp := componentKey(s.ComponentCategory)
	if _, ok := sum.ByComponent[comp]; !ok {
		sum.ByComponent[comp] = &model.EventSum{}
	}
	sum.ByComponent[comp].Add(s.EventType, s.SymbolEvents)

	cat := s.ComponentCategory.CategoryName
	if cat == "" {
		cat = model.CategoryUnknown.String()
	}
	if _, ok := sum.ByCategory[cat]; !ok {
		sum.ByCategory[cat] = &model.EventSum{}
	}
	sum.ByCategory[cat].Add(s.EventType, s.SymbolEvents)

	if s.IsCompute {
		sum.ComputeCount.Add(s.EventType, s.SymbolEvents)
	}

	if !s.IsMainApp {
		return
	}
	// Application totals include every main-app sample, even ones whose
	// category is excluded from the stack table below.
	sum.AppCount.Add(s.EventType, s.SymbolEvents)

	// The technology-stack table is a per-package export: the process
	// must belong to the target package.
	if a.packageName != "" && !strings.Contains(s.ProcessName, a.packageName) {
		return
	}
	if stack, ok := StackName(s.ComponentCategory); ok {
		if _, exists := acc.stacks[stack]; !exists {
			acc.stacks[stack] = &model.EventSum{}
		}
		acc.stacks[stack].Add(s.EventType, s.SymbolEvents)
	}
}

// round1 rounds to one decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// Finalize computes the per-stack percentages and returns the assembled
// scene sum. Steps are ordered by index and stacks by name so output is
// deterministic.
func (a *Aggregator) Finalize() *model.PerfSum {
	out := &model.PerfSum{RoundIndex: a.roundIndex}
	if a.scene != nil {
		out.Scene = a.scene.Name
		out.PackageName = a.scene.PackageName
	}

	indices := make([]int, 0, len(a.steps))
	for idx := range a.steps {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	for _, idx := range indices {
		acc := a.steps[idx]

		var includedInstr int64
		for _, es := range acc.stacks {
			includedInstr += es.Instructions
		}
		appInstr := acc.sum.AppCount.Instructions

		names := make([]string, 0, len(acc.stacks))
		for name := range acc.stacks {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			es := acc.stacks[name]
			entry := model.TechStackEntry{
				Name:         name,
				Cycles:       es.Cycles,
				Instructions: es.Instructions,
			}
			if includedInstr > 0 {
				entry.RelativePct = round1(float64(es.Instructions) / float64(includedInstr) * 100)
			}
			if appInstr > 0 {
				entry.AppPct = round1(float64(es.Instructions) / float64(appInstr) * 100)
			}
			acc.sum.Stacks = append(acc.sum.Stacks, entry)
		}

		out.Steps = append(out.Steps, acc.sum)
	}
	return out
}

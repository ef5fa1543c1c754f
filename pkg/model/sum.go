package model

// EventSum accumulates both counter channels.
type EventSum struct {
	Cycles       int64 `json:"cycles"`
	Instructions int64 `json:"instructions"`
}

// Add folds one sample's event count into the sum.
func (e *EventSum) Add(event EventType, count int64) {
	switch event {
	case EventCycles:
		e.Cycles += count
	case EventInstructions:
		e.Instructions += count
	}
}

// TechStackEntry is one row of the per-step technology-stack breakdown.
type TechStackEntry struct {
	Name         string  `json:"name"`
	Cycles       int64   `json:"cycles"`
	Instructions int64   `json:"instructions"`
	// RelativePct is the stack's share of instructions across all
	// included stacks in the step, rounded to one decimal place.
	RelativePct float64 `json:"relative_pct"`
	// AppPct is the stack's share of instructions across all
	// main-application samples in the step, rounded to one decimal
	// place. It need not sum to 100 across stacks.
	AppPct float64 `json:"app_pct"`
}

// PerfStepSum is the aggregated output for one step, finalized once.
type PerfStepSum struct {
	StepIdx  int    `json:"step_idx"`
	StepName string `json:"step_name"`

	Total        EventSum `json:"total"`
	AppCount     EventSum `json:"app_count"`
	ComputeCount EventSum `json:"compute_count"`

	ByComponent map[string]*EventSum `json:"by_component"`
	ByCategory  map[string]*EventSum `json:"by_category"`

	Stacks []TechStackEntry `json:"stacks"`
}

// PerfSum is the aggregated output for a whole scene.
type PerfSum struct {
	Scene       string         `json:"scene"`
	PackageName string         `json:"package_name"`
	RoundIndex  int            `json:"round_index"`
	Steps       []*PerfStepSum `json:"steps"`
}

// Step returns the step sum for the given index, or nil.
func (p *PerfSum) Step(stepIdx int) *PerfStepSum {
	for _, s := range p.Steps {
		if s.StepIdx == stepIdx {
			return s
		}
	}
	return nil
}

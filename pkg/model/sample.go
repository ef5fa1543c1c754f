package model

// EventType discriminates the two counter channels carried by a sample.
type EventType string

const (
	// EventCycles is the CPU cycle counter channel.
	EventCycles EventType = "cycles"
	// EventInstructions is the retired-instruction counter channel.
	EventInstructions EventType = "instructions"
)

// PerfSymbolDetailData is one raw CPU-performance sample. It is created
// per captured sample, consumed exactly once by the aggregation engine,
// and never mutated after creation except to attach classification
// results.
type PerfSymbolDetailData struct {
	StepIdx     int       `json:"step_idx"`
	EventType   EventType `json:"event_type"`
	PID         int       `json:"pid"`
	ProcessName string    `json:"process_name"`
	TID         int       `json:"tid"`
	ThreadName  string    `json:"thread_name"`

	File   string `json:"file"`
	Symbol string `json:"symbol"`

	// FileID and SymbolID are numeric identifiers assigned by the
	// capture tooling. They are only unique within one analysis run
	// and serve as memoization keys for classification.
	FileID   int64 `json:"file_id"`
	SymbolID int64 `json:"symbol_id"`

	SymbolEvents      int64 `json:"symbol_events"`
	SymbolTotalEvents int64 `json:"symbol_total_events"`

	// Attached by classification.
	ComponentCategory ClassifyCategory `json:"component_category"`
	ThreadCategory    ClassifyCategory `json:"thread_category"`
	IsMainApp         bool             `json:"is_main_app"`
	IsCompute         bool             `json:"is_compute,omitempty"`
	SysDomain         string           `json:"sys_domain,omitempty"`
	SysSubSystem      string           `json:"sys_sub_system,omitempty"`
	SysComponent      string           `json:"sys_component,omitempty"`
}

// TestSceneInfo describes one captured test session: a scene has
// multiple rounds, a round has ordered steps, each step references its
// own sample-source file(s). Read-only after load.
type TestSceneInfo struct {
	Name        string  `json:"name"`
	PackageName string  `json:"package_name"`
	Rounds      []Round `json:"rounds"`
}

// Round is one repetition of the scene's step sequence.
type Round struct {
	Index int             `json:"index"`
	Steps []TestStepGroup `json:"steps"`
}

// TestStepGroup is one ordered step within a round.
type TestStepGroup struct {
	StepIdx   int      `json:"step_idx"`
	Name      string   `json:"name"`
	DataFiles []string `json:"data_files"`
}

// StepName maps a numeric step index to its human-readable name. The
// first round is authoritative; an unknown index maps to the empty
// string.
func (s *TestSceneInfo) StepName(stepIdx int) string {
	for _, round := range s.Rounds {
		for _, step := range round.Steps {
			if step.StepIdx == stepIdx {
				return step.Name
			}
		}
	}
	return ""
}

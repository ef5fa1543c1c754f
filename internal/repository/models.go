// Package repository persists classified samples and aggregated step
// sums to a relational sink.
package repository

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/perf-attribution/pkg/model"
)

// SceneRunRecord represents the attribution_run table. One row per
// analyzed scene run.
type SceneRunRecord struct {
	ID          int64     `gorm:"column:id;primaryKey;autoIncrement"`
	Scene       string    `gorm:"column:scene;type:varchar(128);index"`
	PackageName string    `gorm:"column:package_name;type:varchar(256)"`
	Rounds      int       `gorm:"column:rounds"`
	Version     string    `gorm:"column:version;type:varchar(32)"`
	CreateTime  time.Time `gorm:"column:create_time;autoCreateTime"`
}

// TableName returns the table name for SceneRunRecord.
func (SceneRunRecord) TableName() string {
	return "attribution_run"
}

// SymbolDetailRecord represents the perf_symbol_detail table: one
// classified sample row.
type SymbolDetailRecord struct {
	ID         int64 `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      int64 `gorm:"column:run_id;index"`
	RoundIndex int   `gorm:"column:round_index"`
	StepIdx    int   `gorm:"column:step_idx;index"`

	EventType   string `gorm:"column:event_type;type:varchar(16)"`
	PID         int    `gorm:"column:pid"`
	ProcessName string `gorm:"column:process_name;type:varchar(256)"`
	TID               int    `gorm:"column:tid"`
	ThreadName        string `gorm:"column:thread_name;type:varchar(256)"`
	ThreadCategory    string `gorm:"column:thread_category;type:varchar(64)"`
	ThreadSubCategory string `gorm:"column:thread_sub_category;type:varchar(128)"`

	File   string `gorm:"column:file;type:varchar(512)"`
	Symbol string `gorm:"column:symbol;type:text"`

	SymbolEvents      int64 `gorm:"column:symbol_events"`
	SymbolTotalEvents int64 `gorm:"column:symbol_total_events"`

	Category      string `gorm:"column:category;type:varchar(64)"`
	SubCategory   string `gorm:"column:sub_category;type:varchar(128)"`
	ThirdCategory string `gorm:"column:third_category;type:varchar(256)"`
	IsMainApp     bool   `gorm:"column:is_main_app"`
	IsCompute     bool   `gorm:"column:is_compute"`
	SysDomain     string `gorm:"column:sys_domain;type:varchar(64)"`
	SysSubSystem  string `gorm:"column:sys_sub_system;type:varchar(128)"`
	SysComponent  string `gorm:"column:sys_component;type:varchar(128)"`
}

// TableName returns the table name for SymbolDetailRecord.
func (SymbolDetailRecord) TableName() string {
	return "perf_symbol_detail"
}

// NewSymbolDetailRecord flattens a classified sample into a row.
func NewSymbolDetailRecord(runID int64, roundIndex int, s *model.PerfSymbolDetailData) *SymbolDetailRecord {
	return &SymbolDetailRecord{
		RunID:             runID,
		RoundIndex:        roundIndex,
		StepIdx:           s.StepIdx,
		EventType:         string(s.EventType),
		PID:               s.PID,
		ProcessName:       s.ProcessName,
		TID:               s.TID,
		ThreadName:        s.ThreadName,
		ThreadCategory:    s.ThreadCategory.CategoryName,
		ThreadSubCategory: s.ThreadCategory.SubCategoryName,
		File:              s.File,
		Symbol:            s.Symbol,
		SymbolEvents:      s.SymbolEvents,
		SymbolTotalEvents: s.SymbolTotalEvents,
		Category:          s.ComponentCategory.CategoryName,
		SubCategory:       s.ComponentCategory.SubCategoryName,
		ThirdCategory:     s.ComponentCategory.ThirdCategoryName,
		IsMainApp:         s.IsMainApp,
		IsCompute:         s.IsCompute,
		SysDomain:         s.SysDomain,
		SysSubSystem:      s.SysSubSystem,
		SysComponent:      s.SysComponent,
	}
}

// StepSumRecord represents the perf_step_sum table: one aggregated
// step per round. The component, category, and stack breakdowns keep
// their JSON shape; the headline counters are flattened into columns
// so they can be queried directly.
type StepSumRecord struct {
	ID         int64  `gorm:"column:id;primaryKey;autoIncrement"`
	RunID      int64  `gorm:"column:run_id;index"`
	RoundIndex int    `gorm:"column:round_index"`
	StepIdx    int    `gorm:"column:step_idx"`
	StepName   string `gorm:"column:step_name;type:varchar(128)"`

	TotalCycles         int64 `gorm:"column:total_cycles"`
	TotalInstructions   int64 `gorm:"column:total_instructions"`
	AppCycles           int64 `gorm:"column:app_cycles"`
	AppInstructions     int64 `gorm:"column:app_instructions"`
	ComputeCycles       int64 `gorm:"column:compute_cycles"`
	ComputeInstructions int64 `gorm:"column:compute_instructions"`

	Breakdown JSONField `gorm:"column:breakdown;type:json"`
}

// TableName returns the table name for StepSumRecord.
func (StepSumRecord) TableName() string {
	return "perf_step_sum"
}

// stepBreakdown is the JSON payload stored in StepSumRecord.Breakdown.
type stepBreakdown struct {
	ByComponent map[string]*model.EventSum `json:"by_component"`
	ByCategory  map[string]*model.EventSum `json:"by_category"`
	Stacks      []model.TechStackEntry     `json:"stacks"`
}

// NewStepSumRecord flattens one finalized step sum into a row.
func NewStepSumRecord(runID int64, roundIndex int, s *model.PerfStepSum) (*StepSumRecord, error) {
	breakdown, err := json.Marshal(stepBreakdown{
		ByComponent: s.ByComponent,
		ByCategory:  s.ByCategory,
		Stacks:      s.Stacks,
	})
	if err != nil {
		return nil, err
	}
	return &StepSumRecord{
		RunID:               runID,
		RoundIndex:          roundIndex,
		StepIdx:             s.StepIdx,
		StepName:            s.StepName,
		TotalCycles:         s.Total.Cycles,
		TotalInstructions:   s.Total.Instructions,
		AppCycles:           s.AppCount.Cycles,
		AppInstructions:     s.AppCount.Instructions,
		ComputeCycles:       s.ComputeCount.Cycles,
		ComputeInstructions: s.ComputeCount.Instructions,
		Breakdown:           JSONField(breakdown),
	}, nil
}

// ToModel reconstructs the step sum from a row.
func (r *StepSumRecord) ToModel() (*model.PerfStepSum, error) {
	sum := &model.PerfStepSum{
		StepIdx:  r.StepIdx,
		StepName: r.StepName,
		Total: model.EventSum{
			Cycles:       r.TotalCycles,
			Instructions: r.TotalInstructions,
		},
		AppCount: model.EventSum{
			Cycles:       r.AppCycles,
			Instructions: r.AppInstructions,
		},
		ComputeCount: model.EventSum{
			Cycles:       r.ComputeCycles,
			Instructions: r.ComputeInstructions,
		},
	}
	if r.Breakdown != nil {
		var breakdown stepBreakdown
		if err := json.Unmarshal(r.Breakdown, &breakdown); err != nil {
			return nil, err
		}
		sum.ByComponent = breakdown.ByComponent
		sum.ByCategory = breakdown.ByCategory
		sum.Stacks = breakdown.Stacks
	}
	return sum, nil
}

// JSONField is a custom type for handling JSON fields in GORM.
type JSONField []byte

// Value implements driver.Valuer interface.
func (j JSONField) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return []byte(j), nil
}

// Scan implements sql.Scanner interface.
func (j *JSONField) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	switch v := value.(type) {
	case []byte:
		*j = append((*j)[0:0], v...)
		return nil
	case string:
		*j = []byte(v)
		return nil
	default:
		return errors.New("unsupported type for JSONField")
	}
}

// MarshalJSON implements json.Marshaler interface.
func (j JSONField) MarshalJSON() ([]byte, error) {
	if j == nil {
		return []byte("null"), nil
	}
	return j, nil
}

// UnmarshalJSON implements json.Unmarshaler interface.
func (j *JSONField) UnmarshalJSON(data []byte) error {
	if data == nil || string(data) == "null" {
		*j = nil
		return nil
	}
	*j = append((*j)[0:0], data...)
	return nil
}

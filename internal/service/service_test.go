package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-attribution/internal/repository"
	"github.com/perf-attribution/pkg/config"
	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/utils"
)

const testRulesYAML = `
files:
  exact:
    - path: "libapp.so"
      category: "APP"
      sub: "APP_SO"
      third: "libapp.so"
  regex:
    - pattern: '\.so$'
      category: "SYS_SDK"
      priority: 1
threads:
  - pattern: "^main$"
    category: "UI"
    sub: "main_thread"
    priority: 1
processes:
  global:
    - domain: "sys"
      sub_system: "render"
      component: "render_service"
      patterns: ["render_service"]
skip_symbols:
  literals: ["__perf_counter_probe"]
`

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func sampleRecords(file, symbol, process string, events int64) string {
	return fmt.Sprintf(`[
	  {"step_idx": 1, "event_type": "cycles", "process_name": %q, "thread_name": "main",
	   "file": %q, "symbol": %q, "file_id": 1, "symbol_id": 1,
	   "symbol_events": %d, "symbol_total_events": %d},
	  {"step_idx": 1, "event_type": "instructions", "process_name": %q, "thread_name": "main",
	   "file": %q, "symbol": %q, "file_id": 1, "symbol_id": 1,
	   "symbol_events": %d, "symbol_total_events": %d}
	]`, process, file, symbol, events, events, process, file, symbol, events, events)
}

func newTestService(t *testing.T) (*Service, string) {
	t.Helper()
	dir := t.TempDir()

	rulesPath := writeTestFile(t, dir, "rules.yaml", testRulesYAML)
	storePath := filepath.Join(dir, "results")

	cfg := &config.Config{
		Analysis: config.AnalysisConfig{
			Version:   "test",
			RulesFile: rulesPath,
			MaxWorker: 2,
		},
		Database: config.DatabaseConfig{
			Type: "sqlite",
			Path: filepath.Join(dir, "sink.db"),
		},
		Storage: config.StorageConfig{
			Type:      "local",
			LocalPath: storePath,
		},
	}

	svc, err := New(cfg, utils.NewNullLogger())
	require.NoError(t, err)
	require.NoError(t, svc.Initialize(context.Background()))
	t.Cleanup(func() { svc.Close() })

	return svc, dir
}

func writeTestScene(t *testing.T, dir string) string {
	appFile := writeTestFile(t, dir, "app.json",
		sampleRecords("/data/app/libapp.so", "app::work", "com.example.app", 600))
	sysFile := writeTestFile(t, dir, "sys.json",
		sampleRecords("/system/lib64/libfoo.so", "foo::render", "render_service", 300))
	skipFile := writeTestFile(t, dir, "skip.json",
		sampleRecords("/system/lib64/libdfx.so", "__perf_counter_probe", "com.example.app", 9999))

	manifest := fmt.Sprintf(`{
	  "name": "cold_start",
	  "package_name": "com.example.app",
	  "rounds": [
	    {"index": 1, "steps": [
	      {"step_idx": 1, "name": "launch", "data_files": [%q, %q, %q]}
	    ]},
	    {"index": 2, "steps": [
	      {"step_idx": 1, "name": "launch", "data_files": [%q]}
	    ]}
	  ]
	}`, appFile, sysFile, skipFile, appFile)
	return writeTestFile(t, dir, "scene.json", manifest)
}

func TestAnalyzeScene(t *testing.T) {
	svc, dir := newTestService(t)
	scenePath := writeTestScene(t, dir)

	result, err := svc.AnalyzeScene(context.Background(), scenePath)
	require.NoError(t, err)
	require.NotZero(t, result.RunID)
	assert.Equal(t, "cold_start", result.Scene)
	require.Len(t, result.Rounds, 2)

	var round1 *model.PerfSum
	for _, r := range result.Rounds {
		if r.RoundIndex == 1 {
			round1 = r
		}
	}
	require.NotNil(t, round1)

	step := round1.Step(1)
	require.NotNil(t, step)
	assert.Equal(t, "launch", step.StepName)

	// Skip-marked samples are dropped before counting; both remaining
	// samples land in the total, only main-app work in the app count.
	assert.Equal(t, int64(900), step.Total.Cycles)
	assert.Equal(t, int64(900), step.Total.Instructions)
	assert.Equal(t, int64(600), step.AppCount.Cycles)

	require.Contains(t, step.ByComponent, "APP_SO")
	assert.Equal(t, int64(600), step.ByComponent["APP_SO"].Cycles)
	require.Contains(t, step.ByCategory, "APP")
	require.Contains(t, step.ByCategory, "SYS_SDK")
}

func TestAnalyzeSceneClassifiesThreads(t *testing.T) {
	svc, dir := newTestService(t)
	scenePath := writeTestScene(t, dir)

	result, err := svc.AnalyzeScene(context.Background(), scenePath)
	require.NoError(t, err)

	// Every persisted sample ran on the main thread, which the thread
	// table maps to UI.
	var rows []repository.SymbolDetailRecord
	require.NoError(t, svc.db.Where("run_id = ?", result.RunID).Find(&rows).Error)
	require.NotEmpty(t, rows)
	for _, row := range rows {
		assert.Equal(t, "UI", row.ThreadCategory)
		assert.Equal(t, "main_thread", row.ThreadSubCategory)
	}
}

func TestAnalyzeScenePublishesResults(t *testing.T) {
	svc, dir := newTestService(t)
	scenePath := writeTestScene(t, dir)

	result, err := svc.AnalyzeScene(context.Background(), scenePath)
	require.NoError(t, err)

	published := filepath.Join(dir, "results", "cold_start",
		fmt.Sprintf("run-%d", result.RunID), "round-1", "result.json")
	data, err := os.ReadFile(published)
	require.NoError(t, err)

	var sum model.PerfSum
	require.NoError(t, json.Unmarshal(data, &sum))
	assert.Equal(t, "cold_start", sum.Scene)
	assert.Equal(t, 1, sum.RoundIndex)
}

func TestAnalyzeSceneMissingManifest(t *testing.T) {
	svc, dir := newTestService(t)

	_, err := svc.AnalyzeScene(context.Background(), filepath.Join(dir, "absent.json"))
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigError, errors.GetErrorCode(err))
}

func TestAnalyzeSceneBadSampleFile(t *testing.T) {
	svc, dir := newTestService(t)

	bad := writeTestFile(t, dir, "bad.json", "{broken")
	manifest := fmt.Sprintf(`{
	  "name": "s", "package_name": "p",
	  "rounds": [{"index": 1, "steps": [{"step_idx": 1, "name": "x", "data_files": [%q]}]}]
	}`, bad)
	scenePath := writeTestFile(t, dir, "scene.json", manifest)

	_, err := svc.AnalyzeScene(context.Background(), scenePath)
	require.Error(t, err)
	assert.Equal(t, errors.CodeAnalysisError, errors.GetErrorCode(err))
}

func TestInitializeRequiresRules(t *testing.T) {
	cfg := &config.Config{
		Analysis: config.AnalysisConfig{RulesFile: "/nonexistent/rules.yaml"},
	}
	svc, err := New(cfg, utils.NewNullLogger())
	require.NoError(t, err)

	err = svc.Initialize(context.Background())
	require.Error(t, err)
	assert.Equal(t, errors.CodeConfigError, errors.GetErrorCode(err))
}

func TestNewNilConfig(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)
}

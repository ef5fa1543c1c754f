package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/pprof/profile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
)

// buildTestProfile assembles a two-frame CPU profile: work() called
// from main(), plus a second leaf in another mapping.
func buildTestProfile(t *testing.T) []byte {
	t.Helper()

	mapApp := &profile.Mapping{ID: 1, File: "/data/app/libapp.so"}
	mapSys := &profile.Mapping{ID: 2, File: "/system/lib64/libace.so"}

	fnWork := &profile.Function{ID: 1, Name: "app::work", Filename: "work.cpp"}
	fnMain := &profile.Function{ID: 2, Name: "main", Filename: "main.cpp"}
	fnDraw := &profile.Function{ID: 3, Name: "OHOS::Ace::Draw", Filename: "draw.cpp"}

	locWork := &profile.Location{ID: 1, Mapping: mapApp, Line: []profile.Line{{Function: fnWork, Line: 10}}}
	locMain := &profile.Location{ID: 2, Mapping: mapApp, Line: []profile.Line{{Function: fnMain, Line: 1}}}
	locDraw := &profile.Location{ID: 3, Mapping: mapSys, Line: []profile.Line{{Function: fnDraw, Line: 42}}}

	prof := &profile.Profile{
		SampleType: []*profile.ValueType{
			{Type: "samples", Unit: "count"},
			{Type: "cpu", Unit: "nanoseconds"},
		},
		Sample: []*profile.Sample{
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{3, 300}},
			{Location: []*profile.Location{locWork, locMain}, Value: []int64{2, 200}},
			{Location: []*profile.Location{locDraw}, Value: []int64{5, 500}},
		},
		Location: []*profile.Location{locWork, locMain, locDraw},
		Function: []*profile.Function{fnWork, fnMain, fnDraw},
		Mapping:  []*profile.Mapping{mapApp, mapSys},
	}

	var buf bytes.Buffer
	require.NoError(t, prof.Write(&buf))
	return buf.Bytes()
}

func TestConvertProfile(t *testing.T) {
	data := buildTestProfile(t)

	samples, err := newTestLoader().ConvertProfile(bytes.NewReader(data), 3, "com.example.app")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	// Leaf attribution: the two app::work samples merge, the draw
	// sample stands alone. "cpu" outranks "samples" in type priority.
	work := samples[0]
	assert.Equal(t, 3, work.StepIdx)
	assert.Equal(t, model.EventCycles, work.EventType)
	assert.Equal(t, "com.example.app", work.ProcessName)
	assert.Equal(t, "libapp.so", work.File)
	assert.Equal(t, "app::work", work.Symbol)
	assert.Equal(t, int64(500), work.SymbolEvents)
	assert.Equal(t, int64(1000), work.SymbolTotalEvents)

	draw := samples[1]
	assert.Equal(t, "libace.so", draw.File)
	assert.Equal(t, "OHOS::Ace::Draw", draw.Symbol)
	assert.Equal(t, int64(500), draw.SymbolEvents)
}

func TestConvertProfileDenseIDs(t *testing.T) {
	data := buildTestProfile(t)

	samples, err := newTestLoader().ConvertProfile(bytes.NewReader(data), 1, "p")
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, int64(1), samples[0].FileID)
	assert.Equal(t, int64(1), samples[0].SymbolID)
	assert.Equal(t, int64(2), samples[1].FileID)
	assert.Equal(t, int64(2), samples[1].SymbolID)
}

func TestLoadStepProfileFile(t *testing.T) {
	// profile.Write emits gzip-compressed protobuf, so the file is a
	// genuine .pb.gz.
	path := filepath.Join(t.TempDir(), "step0.pb.gz")
	require.NoError(t, os.WriteFile(path, buildTestProfile(t), 0o644))

	samples, err := newTestLoader().LoadStep(model.TestStepGroup{
		StepIdx:   4,
		Name:      "launch",
		DataFiles: []string{path},
	})
	require.NoError(t, err)
	require.Len(t, samples, 2)

	assert.Equal(t, "libapp.so", samples[0].File)
	assert.Equal(t, "app::work", samples[0].Symbol)
	assert.Equal(t, int64(500), samples[0].SymbolEvents)
	for _, s := range samples {
		assert.Equal(t, 4, s.StepIdx)
	}
}

func TestLoadStepMixedFormats(t *testing.T) {
	dir := t.TempDir()
	jsonPath := filepath.Join(dir, "step1.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(sampleJSON), 0o644))
	profPath := filepath.Join(dir, "step1.pb.gz")
	require.NoError(t, os.WriteFile(profPath, buildTestProfile(t), 0o644))

	samples, err := newTestLoader().LoadStep(model.TestStepGroup{
		StepIdx:   1,
		Name:      "launch",
		DataFiles: []string{jsonPath, profPath},
	})
	require.NoError(t, err)
	assert.Len(t, samples, 4)
}

func TestIsProfilePath(t *testing.T) {
	assert.True(t, isProfilePath("r1/step0.pb"))
	assert.True(t, isProfilePath("r1/step0.pb.gz"))
	assert.True(t, isProfilePath("r1/cpu.pprof.zst"))
	assert.False(t, isProfilePath("r1/step0.json"))
	assert.False(t, isProfilePath("r1/step0.json.gz"))
}

func TestConvertProfileGarbage(t *testing.T) {
	_, err := newTestLoader().ConvertProfile(strings.NewReader("not a profile"), 1, "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeParseError, errors.GetErrorCode(err))
}

func TestConvertProfileNoUsableSampleType(t *testing.T) {
	prof := &profile.Profile{
		SampleType: []*profile.ValueType{{Type: "inuse_space", Unit: "bytes"}},
	}
	var buf bytes.Buffer
	require.NoError(t, prof.Write(&buf))

	_, err := newTestLoader().ConvertProfile(&buf, 1, "p")
	require.Error(t, err)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetErrorCode(err))
}

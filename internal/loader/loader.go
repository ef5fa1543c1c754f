// Package loader reads captured sample data into memory: scene
// manifests, per-step JSON sample files (optionally compressed), and
// pprof CPU profiles converted into the same sample shape.
package loader

import (
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/perf-attribution/pkg/compression"
	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/utils"
)

// Loader reads sample-source files. A single Loader is safe for
// concurrent use; it holds no per-load state.
type Loader struct {
	logger utils.Logger
}

// Option configures a Loader.
type Option func(*Loader)

// WithLogger sets the loader's logger.
func WithLogger(l utils.Logger) Option {
	return func(ld *Loader) { ld.logger = l }
}

// New creates a Loader.
func New(opts ...Option) *Loader {
	ld := &Loader{logger: utils.GetGlobalLogger()}
	for _, opt := range opts {
		opt(ld)
	}
	return ld
}

// LoadScene reads a scene manifest describing rounds, steps, and the
// sample files each step references.
func (ld *Loader) LoadScene(path string) (*model.TestSceneInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeConfigError, "failed to read scene manifest", err)
	}
	var scene model.TestSceneInfo
	if err := json.Unmarshal(data, &scene); err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "malformed scene manifest", err)
	}
	if scene.Name == "" {
		return nil, errors.New(errors.CodeInvalidInput, "scene manifest has no name")
	}
	if len(scene.Rounds) == 0 {
		return nil, errors.New(errors.CodeInvalidInput, "scene manifest has no rounds")
	}
	return &scene, nil
}

// LoadSamples reads one sample file. Compression is detected from the
// file extension, so plain, gzip, and zstd files all load the same way.
// Files with a .pb or .pprof base extension are treated as pprof CPU
// profiles and converted; everything else decodes as JSON sample
// records.
func (ld *Loader) LoadSamples(path string) ([]model.PerfSymbolDetailData, error) {
	r, err := compression.OpenFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "failed to open sample file "+path, err)
	}
	defer r.Close()

	var samples []model.PerfSymbolDetailData
	if isProfilePath(path) {
		samples, err = ld.ConvertProfile(r, 0, "")
	} else {
		samples, err = ld.LoadSamplesFromReader(r)
	}
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "failed to parse sample file "+path, err)
	}
	return samples, nil
}

// isProfilePath reports whether a data file carries a pprof profile,
// judged by its base extension after stripping compression suffixes.
func isProfilePath(path string) bool {
	name := strings.ToLower(filepath.Base(path))
	for _, suffix := range []string{".gz", ".zst", ".zstd"} {
		name = strings.TrimSuffix(name, suffix)
	}
	return strings.HasSuffix(name, ".pb") || strings.HasSuffix(name, ".pprof")
}

// LoadSamplesFromReader decodes a JSON array of sample records.
func (ld *Loader) LoadSamplesFromReader(r io.Reader) ([]model.PerfSymbolDetailData, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "failed to read sample data", err)
	}
	if len(data) == 0 {
		return nil, errors.ErrEmptyFile
	}
	var samples []model.PerfSymbolDetailData
	if err := json.Unmarshal(data, &samples); err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "malformed sample data", err)
	}
	return samples, nil
}

// LoadStep loads and concatenates all sample files a step references.
// A step with no data files yields an empty slice, not an error.
func (ld *Loader) LoadStep(step model.TestStepGroup) ([]model.PerfSymbolDetailData, error) {
	var all []model.PerfSymbolDetailData
	for _, path := range step.DataFiles {
		samples, err := ld.LoadSamples(path)
		if err != nil {
			return nil, err
		}
		for i := range samples {
			samples[i].StepIdx = step.StepIdx
		}
		all = append(all, samples...)
	}
	ld.logger.Debug("loaded %d samples for step %d (%s)", len(all), step.StepIdx, step.Name)
	return all, nil
}

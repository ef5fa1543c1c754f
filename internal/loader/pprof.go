package loader

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/pprof/profile"

	"github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
)

// sampleTypePriority orders the pprof value channels we know how to
// interpret. The first present wins.
var sampleTypePriority = []string{"cycles", "cpu", "samples"}

// ConvertProfile parses a pprof CPU profile and flattens it into leaf
// sample records: one record per distinct (file, symbol) pair,
// attributed to the given step. Counts land on the cycles channel
// verbatim in the chosen sample type's own unit; when the profile
// carries no "cycles" type the fallback values are cpu nanoseconds or
// raw sample counts, with no conversion applied. File and symbol
// identifiers are assigned densely in first-seen order, so they are
// stable within one conversion but meaningless across runs.
func (ld *Loader) ConvertProfile(r io.Reader, stepIdx int, processName string) ([]model.PerfSymbolDetailData, error) {
	prof, err := profile.Parse(r)
	if err != nil {
		return nil, errors.Wrap(errors.CodeParseError, "failed to parse pprof profile", err)
	}

	valueIdx := -1
	for _, want := range sampleTypePriority {
		for i, st := range prof.SampleType {
			if st.Type == want {
				valueIdx = i
				break
			}
		}
		if valueIdx >= 0 {
			break
		}
	}
	if valueIdx < 0 {
		return nil, errors.Newf(errors.CodeInvalidInput,
			"profile carries no usable sample type (have %s)", sampleTypeNames(prof))
	}

	fileIDs := make(map[string]int64)
	symbolIDs := make(map[string]int64)
	id := func(ids map[string]int64, key string) int64 {
		if v, ok := ids[key]; ok {
			return v
		}
		v := int64(len(ids) + 1)
		ids[key] = v
		return v
	}

	type leafKey struct {
		file   string
		symbol string
	}
	accum := make(map[leafKey]int64)
	order := []leafKey{}
	var total int64

	for _, s := range prof.Sample {
		if len(s.Location) == 0 {
			continue
		}
		value := s.Value[valueIdx]
		if value == 0 {
			continue
		}
		total += value

		file, symbol := leafFrame(s.Location[0])
		key := leafKey{file: file, symbol: symbol}
		if _, seen := accum[key]; !seen {
			order = append(order, key)
		}
		accum[key] += value
	}

	samples := make([]model.PerfSymbolDetailData, 0, len(order))
	for _, key := range order {
		samples = append(samples, model.PerfSymbolDetailData{
			StepIdx:           stepIdx,
			EventType:         model.EventCycles,
			ProcessName:       processName,
			File:              key.file,
			Symbol:            key.symbol,
			FileID:            id(fileIDs, key.file),
			SymbolID:          id(symbolIDs, key.symbol),
			SymbolEvents:      accum[key],
			SymbolTotalEvents: total,
		})
	}
	ld.logger.Debug("converted pprof profile: %d samples, %d leaf records", len(prof.Sample), len(samples))
	return samples, nil
}

// leafFrame extracts the file and symbol of the innermost frame at a
// location. Inlined frames report the deepest line; frames without
// function info fall back to the mapped binary and the raw address.
func leafFrame(loc *profile.Location) (file, symbol string) {
	if loc.Mapping != nil {
		file = filepath.Base(loc.Mapping.File)
	}
	for _, line := range loc.Line {
		if line.Function == nil || line.Function.Name == "" {
			continue
		}
		symbol = line.Function.Name
		if file == "" && line.Function.Filename != "" {
			file = filepath.Base(line.Function.Filename)
		}
		break
	}
	if symbol == "" {
		symbol = fmt.Sprintf("0x%x", loc.Address)
	}
	if file == "" {
		file = "[unknown]"
	}
	return file, symbol
}

func sampleTypeNames(prof *profile.Profile) string {
	names := ""
	for i, st := range prof.SampleType {
		if i > 0 {
			names += ","
		}
		names += st.Type
	}
	return names
}

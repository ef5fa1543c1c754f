package elfinfo

import (
	"bufio"
	"io"
	"os"
	"regexp"

	"github.com/perf-attribution/pkg/errors"
)

// DefaultMinStringLength is the minimum run length reported by
// ScanStrings when the caller passes a non-positive minimum.
const DefaultMinStringLength = 4

// ScanStrings extracts printable-ASCII runs of at least minLen
// characters from the file at path, optionally filtered by pattern.
// The file is read as a stream so peak memory stays bounded on very
// large binaries.
func (a *Analyzer) ScanStrings(path, pattern string, minLen int) ([]string, error) {
	if minLen <= 0 {
		minLen = DefaultMinStringLength
	}

	var re *regexp.Regexp
	if pattern != "" {
		var err error
		re, err = regexp.Compile(pattern)
		if err != nil {
			return nil, errors.Wrap(errors.CodeInvalidInput, "invalid strings filter pattern", err)
		}
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(errors.CodeElfError, "failed to open binary", err)
	}
	defer f.Close()

	return scanStrings(f, re, minLen), nil
}

func scanStrings(r io.Reader, re *regexp.Regexp, minLen int) []string {
	out := []string{}
	br := bufio.NewReaderSize(r, 64*1024)
	run := make([]byte, 0, 256)

	emit := func() {
		if len(run) >= minLen {
			s := string(run)
			if re == nil || re.MatchString(s) {
				out = append(out, s)
			}
		}
		run = run[:0]
	}

	for {
		b, err := br.ReadByte()
		if err != nil {
			emit()
			break
		}
		if b >= 0x20 && b <= 0x7e {
			run = append(run, b)
		} else {
			emit()
		}
	}
	return out
}

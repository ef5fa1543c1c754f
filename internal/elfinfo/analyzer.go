// Package elfinfo introspects shared-library binaries: exported and
// imported symbols, direct dependencies, and printable-string scans.
// The analyzer is tolerant: one malformed or foreign binary must never
// abort a whole analysis run.
package elfinfo

import (
	"debug/elf"
	"io"

	"github.com/ianlancetaylor/demangle"

	"github.com/perf-attribution/pkg/utils"
)

// Info is the introspection result for one shared library.
type Info struct {
	Exports      []string `json:"exports"`
	Imports      []string `json:"imports"`
	Dependencies []string `json:"dependencies"`
}

// Demangler decodes mangled symbol names. Implementations must be
// stateless or internally synchronized: a single demangler is shared
// across parallel per-file analyses.
type Demangler interface {
	Demangle(name string) string
}

// DemanglerFunc adapts a function to the Demangler interface.
type DemanglerFunc func(name string) string

// Demangle implements Demangler.
func (f DemanglerFunc) Demangle(name string) string {
	return f(name)
}

// DefaultDemangler demangles Itanium C++ and Rust symbols, returning
// the raw name unchanged when decoding fails.
func DefaultDemangler() Demangler {
	return DemanglerFunc(func(name string) string {
		return demangle.Filter(name)
	})
}

// Analyzer parses ELF shared libraries. Analyses of distinct files are
// independent and safe to run in parallel.
type Analyzer struct {
	logger    utils.Logger
	demangler Demangler
}

// Option configures an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the analyzer's logger.
func WithLogger(l utils.Logger) Option {
	return func(a *Analyzer) { a.logger = l }
}

// WithDemangler sets the symbol demangler.
func WithDemangler(d Demangler) Option {
	return func(a *Analyzer) { a.demangler = d }
}

// NewAnalyzer creates an Analyzer with the default demangler.
func NewAnalyzer(opts ...Option) *Analyzer {
	a := &Analyzer{
		logger:    utils.GetGlobalLogger(),
		demangler: DefaultDemangler(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func emptyInfo() *Info {
	return &Info{
		Exports:      []string{},
		Imports:      []string{},
		Dependencies: []string{},
	}
}

// Analyze opens and introspects the shared library at path. Structural
// parse failures are logged and yield all-empty results.
func (a *Analyzer) Analyze(path string) *Info {
	f, err := elf.Open(path)
	if err != nil {
		a.logger.Warn("not a parseable ELF file %s: %v", path, err)
		return emptyInfo()
	}
	defer f.Close()
	return a.analyze(f, path)
}

// AnalyzeReader introspects an in-memory or already-open binary.
func (a *Analyzer) AnalyzeReader(r io.ReaderAt) *Info {
	f, err := elf.NewFile(r)
	if err != nil {
		a.logger.Warn("not a parseable ELF buffer: %v", err)
		return emptyInfo()
	}
	return a.analyze(f, "<buffer>")
}

func (a *Analyzer) analyze(f *elf.File, path string) *Info {
	info := emptyInfo()

	exportSeen := make(map[string]bool)
	importSeen := make(map[string]bool)
	collect := func(syms []elf.Symbol) {
		for _, sym := range syms {
			if sym.Name == "" {
				continue
			}
			name := a.demangler.Demangle(sym.Name)
			if sym.Section == elf.SHN_UNDEF {
				if !importSeen[name] {
					importSeen[name] = true
					info.Imports = append(info.Imports, name)
				}
			} else if !exportSeen[name] {
				exportSeen[name] = true
				info.Exports = append(info.Exports, name)
			}
		}
	}

	// Both tables contribute; either may be absent.
	if syms, err := f.DynamicSymbols(); err == nil {
		collect(syms)
	}
	if syms, err := f.Symbols(); err == nil {
		collect(syms)
	}

	info.Dependencies = a.dependencies(f, path)
	return info
}

// dependencies walks the .dynamic section's fixed-size tag/value
// entries (8 bytes on 32-bit, 16 bytes on 64-bit) until DT_NULL,
// resolving each DT_NEEDED value through the dynamic string table. Any
// failure mid-walk is logged and the partial list collected so far is
// returned.
func (a *Analyzer) dependencies(f *elf.File, path string) []string {
	deps := []string{}

	dyn := f.SectionByType(elf.SHT_DYNAMIC)
	if dyn == nil {
		return deps
	}
	data, err := dyn.Data()
	if err != nil {
		a.logger.Warn("failed to read dynamic section of %s: %v", path, err)
		return deps
	}
	strtab := f.Section(".dynstr")
	if strtab == nil {
		a.logger.Warn("missing .dynstr in %s", path)
		return deps
	}
	strs, err := strtab.Data()
	if err != nil {
		a.logger.Warn("failed to read .dynstr of %s: %v", path, err)
		return deps
	}

	entrySize := 8
	if f.Class == elf.ELFCLASS64 {
		entrySize = 16
	}
	bo := f.ByteOrder

	for off := 0; off+entrySize <= len(data); off += entrySize {
		var tag, value uint64
		if f.Class == elf.ELFCLASS64 {
			tag = bo.Uint64(data[off:])
			value = bo.Uint64(data[off+8:])
		} else {
			tag = uint64(bo.Uint32(data[off:]))
			value = uint64(bo.Uint32(data[off+4:]))
		}
		if elf.DynTag(tag) == elf.DT_NULL {
			break
		}
		if elf.DynTag(tag) != elf.DT_NEEDED {
			continue
		}
		name, ok := nullTerminated(strs, value)
		if !ok {
			a.logger.Warn("DT_NEEDED offset %d out of range in %s", value, path)
			return deps
		}
		deps = append(deps, name)
	}
	return deps
}

// nullTerminated extracts the NUL-terminated string at off.
func nullTerminated(strs []byte, off uint64) (string, bool) {
	if off >= uint64(len(strs)) {
		return "", false
	}
	end := off
	for end < uint64(len(strs)) && strs[end] != 0 {
		end++
	}
	return string(strs[off:end]), true
}

// ElfStat summarizes one shared library of a package for origin
// reporting.
type ElfStat struct {
	Path         string `json:"path"`
	ExportCount  int    `json:"export_count"`
	ImportCount  int    `json:"import_count"`
	Dependencies int    `json:"dependencies"`
}

// Stat analyzes path and reduces the result to counts.
func (a *Analyzer) Stat(path string) ElfStat {
	info := a.Analyze(path)
	return ElfStat{
		Path:         path,
		ExportCount:  len(info.Exports),
		ImportCount:  len(info.Imports),
		Dependencies: len(info.Dependencies),
	}
}

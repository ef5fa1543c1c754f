package classifier

import (
	"strings"

	"github.com/perf-attribution/internal/symbol"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/utils"
)

// Placeholder names for processes no rule can attribute.
const (
	// DomainOther is the catch-all process domain.
	DomainOther = "其他"
	// DomainApp is the synthetic domain for main-application
	// processes.
	DomainApp = "app"
	// ComponentMainApp marks the main-application component within
	// DomainApp.
	ComponentMainApp = "main_app"
)

// FileClassification is the classification of one binary/bytecode unit.
// Symbol-split rules may remap File to a synthetic destination name
// while keeping the category.
type FileClassification struct {
	Kind model.ClassifyCategory
	File string
}

// ProcessClassification is the process-level verdict.
type ProcessClassification struct {
	Domain    string
	SubSystem string
	Component string
	IsMainApp bool
}

// Engine classifies samples against a compiled ruleset. Classification
// is a deterministic pure function of (file, symbol, thread, process,
// scene) plus the loaded tables.
//
// The engine owns memoization caches keyed by the capture tooling's
// numeric file/symbol ids. Those ids are only unique within a single
// run, so caches must never be shared or persisted across engine
// instances; run parallel analyses with one engine each.
type Engine struct {
	rules    *Ruleset
	registry *ComponentRegistry
	logger   utils.Logger

	scene       string
	packageName string

	fileCache   map[int64]FileClassification
	symbolCache map[int64]FileClassification
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithEngineLogger sets the engine's logger.
func WithEngineLogger(l utils.Logger) EngineOption {
	return func(e *Engine) { e.logger = l }
}

// NewEngine creates an engine for one analysis run of the given scene
// and application package.
func NewEngine(rules *Ruleset, registry *ComponentRegistry, scene, packageName string, opts ...EngineOption) *Engine {
	e := &Engine{
		rules:       rules,
		registry:    registry,
		logger:      utils.GetGlobalLogger(),
		scene:       scene,
		packageName: packageName,
		fileCache:   make(map[int64]FileClassification),
		symbolCache: make(map[int64]FileClassification),
	}
	if e.registry == nil {
		e.registry = NewComponentRegistry()
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ClassifyFile classifies a binary/bytecode unit by path. Exact matches
// (full path, then basename) take precedence over any regex rule
// regardless of priority; the regex table is scanned in its pre-sorted
// priority order; the default is SYS_SDK with the basename as sub and
// third category.
func (e *Engine) ClassifyFile(file string) FileClassification {
	if kind, ok := e.rules.fileExact[file]; ok {
		return FileClassification{Kind: kind, File: file}
	}
	base := pathBase(file)
	if kind, ok := e.rules.fileExact[base]; ok {
		return FileClassification{Kind: kind, File: file}
	}
	for _, rule := range e.rules.fileRegex {
		if rule.pattern.Match(file) {
			return FileClassification{Kind: rule.kind, File: file}
		}
	}
	return FileClassification{
		Kind: model.NewClassifyCategory(model.CategorySysSDK, base, base),
		File: file,
	}
}

// ClassifyFileByID is ClassifyFile memoized by the sample's numeric
// file id.
func (e *Engine) ClassifyFileByID(fileID int64, file string) FileClassification {
	if fc, ok := e.fileCache[fileID]; ok {
		return fc
	}
	fc := e.ClassifyFile(file)
	e.fileCache[fileID] = fc
	return fc
}

// ClassifyThread classifies a thread by name. An empty name yields
// UNKNOWN without scanning; otherwise the pattern table is scanned in
// priority order, case-insensitively.
func (e *Engine) ClassifyThread(threadName string) model.ClassifyCategory {
	if threadName == "" {
		return model.UnknownCategory()
	}
	for _, rule := range e.rules.threads {
		if rule.pattern.Match(threadName) {
			return rule.kind
		}
	}
	return model.UnknownCategory()
}

// ClassifyProcess classifies a process. Scene-specific override tables
// are consulted first (scene key matched as a regex, tables in
// declaration order), then the global table. A process whose name
// exactly equals the application package name is always flagged as the
// main application, whichever rule matched. With no matching rule, a
// process equal to or prefixed by the package name becomes the
// synthetic main-application domain; anything else is DomainOther.
func (e *Engine) ClassifyProcess(processName string) ProcessClassification {
	for _, override := range e.rules.sceneRules {
		if !override.scene.Match(e.scene) {
			continue
		}
		if rule, ok := matchProcess(override.rules, processName); ok {
			return e.finishProcess(rule, processName)
		}
	}
	if rule, ok := matchProcess(e.rules.processes, processName); ok {
		return e.finishProcess(rule, processName)
	}

	if e.packageName != "" && (processName == e.packageName || strings.HasPrefix(processName, e.packageName)) {
		return ProcessClassification{
			Domain:    DomainApp,
			SubSystem: ComponentMainApp,
			Component: e.packageName,
			IsMainApp: true,
		}
	}
	return ProcessClassification{
		Domain:    DomainOther,
		SubSystem: DomainOther,
		Component: DomainOther,
	}
}

func (e *Engine) finishProcess(rule processRule, processName string) ProcessClassification {
	pc := ProcessClassification{
		Domain:    rule.domain,
		SubSystem: rule.subSystem,
		Component: rule.component,
		IsMainApp: rule.mainApp,
	}
	if processName == e.packageName {
		pc.IsMainApp = true
	}
	return pc
}

// ClassifySymbol refines a file classification using the symbol,
// memoized by the sample's numeric symbol id: only the first call for a
// given id derives the classification, later calls return the cached
// result unconditionally.
func (e *Engine) ClassifySymbol(symbolID int64, sym string, fc FileClassification) FileClassification {
	if cached, ok := e.symbolCache[symbolID]; ok {
		return cached
	}
	result := e.classifySymbol(sym, fc)
	e.symbolCache[symbolID] = result
	return result
}

func (e *Engine) classifySymbol(sym string, fc FileClassification) FileClassification {
	kind := fc.Kind

	if kind.Category == model.CategoryApp && kind.SubCategoryName == model.SubCategoryBytecodeApp {
		if parsed, ok := symbol.ParseURLSymbol(sym); ok {
			return e.classifyBytecodePackage(parsed.PackageName, fc)
		}
		// Not a url symbol: fall through to the split rules.
	} else if kind.Category == model.CategoryKMP && symbol.IsKfunSymbol(sym) {
		if parsed, ok := symbol.ParseKfunSymbol(sym, e.registry.Matcher()); ok {
			return FileClassification{
				Kind: model.NewClassifyCategory(model.CategoryKMP, model.SubCategoryKMPLib, parsed.PackageName),
				File: fc.File,
			}
		}
	}

	for _, rule := range e.rules.symbolSplits {
		if !rule.file.Match(fc.File) {
			continue
		}
		for _, symPat := range rule.symbols {
			if symPat.Match(sym) {
				// Remap the file, keep the original category.
				return FileClassification{Kind: kind, File: rule.dest}
			}
		}
	}

	return fc
}

// classifyBytecodePackage resolves a url-symbol package name: a package
// literally named "compose" is forced into the KMP category regardless
// of any component declaration; otherwise a declared component's kind
// wins; otherwise the package becomes the third category.
func (e *Engine) classifyBytecodePackage(pkg string, fc FileClassification) FileClassification {
	if pkg == "compose" {
		return FileClassification{
			Kind: model.NewClassifyCategory(model.CategoryKMP, model.SubCategoryKMPLib, pkg),
			File: fc.File,
		}
	}
	if comp, ok := e.registry.Lookup(pkg); ok {
		return FileClassification{Kind: comp.Kind, File: fc.File}
	}
	return FileClassification{
		Kind: model.NewClassifyCategory(fc.Kind.Category, fc.Kind.SubCategoryName, pkg),
		File: fc.File,
	}
}

// IsSkipSymbol reports whether the symbol belongs to the
// diagnostics-exclusion set and should be dropped before aggregation.
func (e *Engine) IsSkipSymbol(sym string) bool {
	if e.rules.skipLiterals[sym] {
		return true
	}
	for _, p := range e.rules.skipPatterns {
		if p.Match(sym) {
			return true
		}
	}
	return false
}

// IsComputeSymbol reports whether the (file, symbol) pair matches a
// compute-only rule.
func (e *Engine) IsComputeSymbol(file, sym string) bool {
	for _, rule := range e.rules.computeRules {
		if rule.file.Match(file) && rule.symbol.Match(sym) {
			return true
		}
	}
	return false
}

// ClassifySoOrigins looks up a shared library's provenance by basename.
// All three origin kinds (first-party, third-party, open-source) are
// reported; unknown libraries return false.
func (e *Engine) ClassifySoOrigins(file string) (model.SoOrigin, bool) {
	entry, ok := e.rules.origins[pathBase(file)]
	if !ok {
		return model.SoOrigin{}, false
	}
	third := entry.vendor
	if third == "" {
		third = pathBase(file)
	}
	return model.SoOrigin{
		SubCategoryName:   string(entry.origin),
		ThirdCategoryName: third,
	}, true
}

// Classify applies the full pipeline to one sample and attaches the
// results to it.
func (e *Engine) Classify(s *model.PerfSymbolDetailData) {
	pc := e.ClassifyProcess(s.ProcessName)
	s.IsMainApp = pc.IsMainApp
	s.SysDomain = pc.Domain
	s.SysSubSystem = pc.SubSystem
	s.SysComponent = pc.Component

	s.ThreadCategory = e.ClassifyThread(s.ThreadName)

	fc := e.ClassifyFileByID(s.FileID, s.File)
	fc = e.ClassifySymbol(s.SymbolID, s.Symbol, fc)
	s.ComponentCategory = fc.Kind
	s.IsCompute = e.IsComputeSymbol(s.File, s.Symbol)
	s.File = fc.File
}

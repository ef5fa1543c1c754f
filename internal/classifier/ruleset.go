// Package classifier maps raw (file, thread, process, symbol) tuples to
// classification categories using priority-ordered rule tables.
package classifier

import (
	"regexp"
	"sort"
	"strings"

	"github.com/perf-attribution/pkg/config"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/utils"
)

// safePattern wraps a compiled regex. A pattern that failed to compile
// is kept as a nil regex and never matches; the failure is logged once
// at load time with the offending pattern text.
type safePattern struct {
	re  *regexp.Regexp
	raw string
}

func compilePattern(pattern string, caseInsensitive bool, logger utils.Logger) safePattern {
	p := pattern
	if caseInsensitive {
		p = "(?i)" + p
	}
	re, err := regexp.Compile(p)
	if err != nil {
		logger.Warn("invalid rule pattern %q: %v", pattern, err)
		return safePattern{raw: pattern}
	}
	return safePattern{re: re, raw: pattern}
}

func (p safePattern) Match(s string) bool {
	return p.re != nil && p.re.MatchString(s)
}

type fileRegexRule struct {
	pattern  safePattern
	kind     model.ClassifyCategory
	priority int
}

type threadRule struct {
	pattern  safePattern
	kind     model.ClassifyCategory
	priority int
}

type processRule struct {
	patterns  []safePattern
	domain    string
	subSystem string
	component string
	mainApp   bool
}

type sceneOverride struct {
	scene safePattern
	rules []processRule
}

type symbolSplitRule struct {
	file    safePattern
	symbols []safePattern
	dest    string
}

type computeRule struct {
	file   safePattern
	symbol safePattern
}

type originEntry struct {
	origin model.OriginKind
	vendor string
}

// Ruleset holds the compiled, read-only rule tables for one run.
// Regex tables are sorted once at load time, descending by priority;
// equal priorities keep declaration order.
type Ruleset struct {
	fileExact    map[string]model.ClassifyCategory
	fileRegex    []fileRegexRule
	threads      []threadRule
	processes    []processRule
	sceneRules   []sceneOverride
	symbolSplits []symbolSplitRule
	computeRules []computeRule
	skipLiterals map[string]bool
	skipPatterns []safePattern
	origins      map[string]originEntry
}

// NewRuleset compiles the raw rule configuration. Malformed regex
// patterns are logged and become never-matching; structural validation
// has already happened in config.LoadRules.
func NewRuleset(cfg *config.RulesConfig, logger utils.Logger) *Ruleset {
	if logger == nil {
		logger = utils.GetGlobalLogger()
	}
	rs := &Ruleset{
		fileExact:    make(map[string]model.ClassifyCategory),
		skipLiterals: make(map[string]bool),
		origins:      make(map[string]originEntry),
	}

	for _, r := range cfg.Files.Exact {
		rs.fileExact[r.Path] = model.NewClassifyCategory(model.ParseCategory(r.Category), r.Sub, r.Third)
	}
	for _, r := range cfg.Files.Regex {
		rs.fileRegex = append(rs.fileRegex, fileRegexRule{
			pattern:  compilePattern(r.Pattern, false, logger),
			kind:     model.NewClassifyCategory(model.ParseCategory(r.Category), r.Sub, r.Third),
			priority: r.Priority,
		})
	}
	// Stable sort: equal priorities stay in declaration order.
	sort.SliceStable(rs.fileRegex, func(i, j int) bool {
		return rs.fileRegex[i].priority > rs.fileRegex[j].priority
	})

	for _, r := range cfg.Threads {
		rs.threads = append(rs.threads, threadRule{
			pattern:  compilePattern(r.Pattern, true, logger),
			kind:     model.NewClassifyCategory(model.ParseCategory(r.Category), r.Sub, ""),
			priority: r.Priority,
		})
	}
	sort.SliceStable(rs.threads, func(i, j int) bool {
		return rs.threads[i].priority > rs.threads[j].priority
	})

	rs.processes = compileProcessRules(cfg.Processes.Global, logger)
	for _, sc := range cfg.Processes.Scenes {
		rs.sceneRules = append(rs.sceneRules, sceneOverride{
			scene: compilePattern(sc.Scene, false, logger),
			rules: compileProcessRules(sc.Rules, logger),
		})
	}

	for _, r := range cfg.SymbolSplits {
		rule := symbolSplitRule{
			file: compilePattern(r.File, false, logger),
			dest: r.Dest,
		}
		for _, sym := range r.Symbols {
			rule.symbols = append(rule.symbols, compilePattern(sym, false, logger))
		}
		rs.symbolSplits = append(rs.symbolSplits, rule)
	}

	for _, r := range cfg.ComputeRules {
		rs.computeRules = append(rs.computeRules, computeRule{
			file:   compilePattern(r.File, false, logger),
			symbol: compilePattern(r.Symbol, false, logger),
		})
	}

	for _, lit := range cfg.SkipSymbols.Literals {
		rs.skipLiterals[lit] = true
	}
	for _, pat := range cfg.SkipSymbols.Patterns {
		rs.skipPatterns = append(rs.skipPatterns, compilePattern(pat, false, logger))
	}

	for _, r := range cfg.Origins {
		rs.origins[r.File] = originEntry{
			origin: model.OriginKind(r.Origin),
			vendor: r.Vendor,
		}
	}

	return rs
}

func compileProcessRules(rules []config.ProcessRuleConfig, logger utils.Logger) []processRule {
	out := make([]processRule, 0, len(rules))
	for _, r := range rules {
		rule := processRule{
			domain:    r.Domain,
			subSystem: r.SubSystem,
			component: r.Component,
			mainApp:   r.MainApp,
		}
		for _, p := range r.Patterns {
			rule.patterns = append(rule.patterns, compilePattern(p, true, logger))
		}
		out = append(out, rule)
	}
	return out
}

// matchProcess scans rules in table order against the full process name
// and its path basename.
func matchProcess(rules []processRule, processName string) (processRule, bool) {
	base := pathBase(processName)
	for _, rule := range rules {
		for _, p := range rule.patterns {
			if p.Match(processName) || p.Match(base) {
				return rule, true
			}
		}
	}
	return processRule{}, false
}

// pathBase returns the final path segment for either separator style.
func pathBase(name string) string {
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		return name[i+1:]
	}
	return name
}

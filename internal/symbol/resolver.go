// Package symbol decomposes raw symbol strings for the two managed
// runtimes: bytecode-runtime "url" symbols and Kotlin Multiplatform
// "kfun" symbols. Both parsers are pure string-to-struct functions with
// no side effects.
package symbol

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/perf-attribution/pkg/trie"
)

// KfunPrefix is the Kotlin Multiplatform mangling prefix.
const KfunPrefix = "kfun:"

// urlSymbolRe matches the bytecode-runtime symbol grammar:
//
//	name:[url:entryPoint|packageName|version|filePath:line:col]
var urlSymbolRe = regexp.MustCompile(`^(.*?):\[url:([^|]*)\|([^|]*)\|([^|]*)\|(.*):(\d+):(\d+)\]$`)

// URLSymbol is a decomposed bytecode-runtime symbol.
type URLSymbol struct {
	FunctionName string
	EntryPoint   string
	PackageName  string
	Version      string
	FilePath     string
	Line         int
	Col          int
}

// ParseURLSymbol extracts the parts of a bytecode-runtime symbol. The
// second return is false when the symbol does not follow the url
// grammar; such symbols fall through to the split rules instead.
func ParseURLSymbol(sym string) (URLSymbol, bool) {
	m := urlSymbolRe.FindStringSubmatch(sym)
	if m == nil {
		return URLSymbol{}, false
	}
	line, _ := strconv.Atoi(m[6])
	col, _ := strconv.Atoi(m[7])
	return URLSymbol{
		FunctionName: m[1],
		EntryPoint:   m[2],
		PackageName:  m[3],
		Version:      m[4],
		FilePath:     m[5],
		Line:         line,
		Col:          col,
	}, true
}

// KfunSymbol is a decomposed Kotlin Multiplatform symbol.
type KfunSymbol struct {
	PackageName string
	ClassName   string
	// FullFunctionName retains the original symbol string verbatim.
	FullFunctionName string
}

// IsKfunSymbol reports whether the symbol carries the KMP mangling
// prefix.
func IsKfunSymbol(sym string) bool {
	return strings.HasPrefix(sym, KfunPrefix)
}

// ParseKfunSymbol decomposes a kfun-mangled symbol. The class path is
// everything before the first '#'; package resolution prefers the
// matcher's longest-prefix answer and falls back to the first four
// dot-segments of the class path. A dotless class path resolves to the
// literal "kotlin" package. A nil matcher skips straight to the
// fallback.
func ParseKfunSymbol(sym string, matcher *trie.PackageMatcher) (KfunSymbol, bool) {
	if !IsKfunSymbol(sym) {
		return KfunSymbol{}, false
	}
	body := strings.TrimPrefix(sym, KfunPrefix)
	classPath := body
	if i := strings.Index(body, "#"); i >= 0 {
		classPath = body[:i]
	}

	out := KfunSymbol{FullFunctionName: sym}
	if !strings.Contains(classPath, ".") {
		out.PackageName = "kotlin"
		out.ClassName = classPath
		return out, true
	}

	if matcher != nil {
		if mod, ok := matcher.FindMostSpecificModule(classPath); ok {
			out.PackageName = mod
		}
	}
	if out.PackageName == "" {
		segs := strings.Split(classPath, ".")
		if len(segs) > 4 {
			segs = segs[:4]
		}
		out.PackageName = strings.Join(segs, ".")
	}
	out.ClassName = classPath[strings.LastIndex(classPath, ".")+1:]
	return out, true
}

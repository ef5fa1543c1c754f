package config

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/viper"

	apperrors "github.com/perf-attribution/pkg/errors"
)

// RulesConfig is the raw, declaration-ordered rule table file. Each
// rule kind has its own typed entry; the classifier compiles these into
// its matching structures and fails fast on structurally invalid
// entries.
type RulesConfig struct {
	Files        FileRulesConfig        `mapstructure:"files"`
	Threads      []ThreadRuleConfig     `mapstructure:"threads"`
	Processes    ProcessRulesConfig     `mapstructure:"processes"`
	SymbolSplits []SymbolSplitConfig    `mapstructure:"symbol_splits"`
	ComputeRules []ComputeRuleConfig    `mapstructure:"compute_rules"`
	SkipSymbols  SkipSymbolsConfig      `mapstructure:"skip_symbols"`
	Origins      []OriginRuleConfig     `mapstructure:"origins"`
}

// FileRulesConfig holds the exact-match and regex file tables.
type FileRulesConfig struct {
	Exact []FileExactConfig `mapstructure:"exact"`
	Regex []FileRegexConfig `mapstructure:"regex"`
}

// FileExactConfig classifies one exact file path or basename.
type FileExactConfig struct {
	Path     string `mapstructure:"path"`
	Category string `mapstructure:"category"`
	Sub      string `mapstructure:"sub"`
	Third    string `mapstructure:"third"`
}

// FileRegexConfig classifies files matching a pattern. Higher priority
// wins; equal priority keeps declaration order.
type FileRegexConfig struct {
	Pattern  string `mapstructure:"pattern"`
	Category string `mapstructure:"category"`
	Sub      string `mapstructure:"sub"`
	Third    string `mapstructure:"third"`
	Priority int    `mapstructure:"priority"`
}

// ThreadRuleConfig classifies threads by name pattern
// (case-insensitive).
type ThreadRuleConfig struct {
	Pattern  string `mapstructure:"pattern"`
	Category string `mapstructure:"category"`
	Sub      string `mapstructure:"sub"`
	Priority int    `mapstructure:"priority"`
}

// ProcessRulesConfig holds the global process table plus per-scene
// overrides, both in declaration order.
type ProcessRulesConfig struct {
	Global []ProcessRuleConfig      `mapstructure:"global"`
	Scenes []SceneProcessRuleConfig `mapstructure:"scenes"`
}

// ProcessRuleConfig maps process-name patterns to a
// domain/subsystem/component triple.
type ProcessRuleConfig struct {
	Domain    string   `mapstructure:"domain"`
	SubSystem string   `mapstructure:"sub_system"`
	Component string   `mapstructure:"component"`
	Patterns  []string `mapstructure:"patterns"`
	MainApp   bool     `mapstructure:"main_app"`
}

// SceneProcessRuleConfig overrides process classification for scenes
// matching the scene pattern.
type SceneProcessRuleConfig struct {
	Scene string              `mapstructure:"scene"`
	Rules []ProcessRuleConfig `mapstructure:"rules"`
}

// SymbolSplitConfig remaps symbols of a matching source file to a
// synthetic destination file name.
type SymbolSplitConfig struct {
	File    string   `mapstructure:"file"`
	Symbols []string `mapstructure:"symbols"`
	Dest    string   `mapstructure:"dest"`
}

// ComputeRuleConfig marks compute-only work by file/symbol pattern
// pair.
type ComputeRuleConfig struct {
	File   string `mapstructure:"file"`
	Symbol string `mapstructure:"symbol"`
}

// SkipSymbolsConfig is the diagnostics-exclusion set: literal symbol
// names plus patterns.
type SkipSymbolsConfig struct {
	Literals []string `mapstructure:"literals"`
	Patterns []string `mapstructure:"patterns"`
}

// OriginRuleConfig tags a shared-library basename with its provenance.
type OriginRuleConfig struct {
	File   string `mapstructure:"file"`
	Origin string `mapstructure:"origin"` // first_party, third_party or open_source
	Vendor string `mapstructure:"vendor"`
}

// LoadRules reads the rule table file. A missing file is fatal: the
// engine cannot run without its rule tables.
func LoadRules(path string) (*RulesConfig, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError,
			fmt.Sprintf("rules file %s is required", path), err)
	}

	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read rules file", err)
	}

	var rules RulesConfig
	if err := v.Unmarshal(&rules); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to unmarshal rules", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// LoadRulesFromReader parses rule tables from raw YAML content.
func LoadRulesFromReader(content []byte) (*RulesConfig, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(content)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read rules", err)
	}

	var rules RulesConfig
	if err := v.Unmarshal(&rules); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to unmarshal rules", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, err
	}
	return &rules, nil
}

// Validate rejects structurally invalid entries. Pattern compilation is
// not checked here: a malformed regex is logged by the classifier and
// treated as never-matching, per the error-handling policy.
func (r *RulesConfig) Validate() error {
	for i, rule := range r.Files.Exact {
		if rule.Path == "" {
			return apperrors.Newf(apperrors.CodeRuleError, "files.exact[%d]: path is required", i)
		}
	}
	for i, rule := range r.Files.Regex {
		if rule.Pattern == "" {
			return apperrors.Newf(apperrors.CodeRuleError, "files.regex[%d]: pattern is required", i)
		}
	}
	for i, rule := range r.Threads {
		if rule.Pattern == "" {
			return apperrors.Newf(apperrors.CodeRuleError, "threads[%d]: pattern is required", i)
		}
	}
	for i, rule := range r.SymbolSplits {
		if rule.File == "" || rule.Dest == "" {
			return apperrors.Newf(apperrors.CodeRuleError, "symbol_splits[%d]: file and dest are required", i)
		}
		if len(rule.Symbols) == 0 {
			return apperrors.Newf(apperrors.CodeRuleError, "symbol_splits[%d]: at least one symbol pattern is required", i)
		}
	}
	for i, rule := range r.Origins {
		if rule.File == "" {
			return apperrors.Newf(apperrors.CodeRuleError, "origins[%d]: file is required", i)
		}
		switch rule.Origin {
		case "first_party", "third_party", "open_source":
		default:
			return apperrors.Newf(apperrors.CodeRuleError, "origins[%d]: unknown origin %q", i, rule.Origin)
		}
	}
	return nil
}

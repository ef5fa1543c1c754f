package classifier

import (
	"encoding/json"
	"os"

	apperrors "github.com/perf-attribution/pkg/errors"
	"github.com/perf-attribution/pkg/model"
	"github.com/perf-attribution/pkg/trie"
)

// Manifest is the project manifest format: component declarations, KMP
// namespace declarations and dependency-manager package lists.
type Manifest struct {
	Components []ManifestComponent `json:"components"`
	Namespaces []ManifestNamespace `json:"namespaces"`
	// Packages are package names pulled in through the dependency
	// manager. They are always registered as generic
	// application-library components.
	Packages []string `json:"packages"`
}

// ManifestComponent declares how a named library/package is classified.
type ManifestComponent struct {
	Name     string `json:"name"`
	Category string `json:"category"`
	Sub      string `json:"sub"`
	Third    string `json:"third"`
}

// ManifestNamespace binds a dotted namespace to a KMP module name.
type ManifestNamespace struct {
	Namespace string `json:"namespace"`
	Module    string `json:"module"`
}

// ComponentRegistry is the merged name→kind lookup table. Read-only
// after load.
type ComponentRegistry struct {
	components map[string]model.Component
	matcher    *trie.PackageMatcher
}

// NewComponentRegistry creates an empty registry.
func NewComponentRegistry() *ComponentRegistry {
	return &ComponentRegistry{
		components: make(map[string]model.Component),
		matcher:    trie.NewPackageMatcher(),
	}
}

// LoadManifest reads a project manifest file and merges it into a
// registry.
func LoadManifest(path string) (*ComponentRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeConfigError, "failed to read component manifest", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeParseError, "failed to parse component manifest", err)
	}
	reg := NewComponentRegistry()
	reg.Merge(&m)
	return reg, nil
}

// Merge folds a manifest into the registry. Manifest component entries
// never overwrite earlier ones; dependency packages are tagged as
// generic application-library components and likewise never overwrite.
func (r *ComponentRegistry) Merge(m *Manifest) {
	for _, c := range m.Components {
		if _, exists := r.components[c.Name]; exists {
			continue
		}
		r.components[c.Name] = model.Component{
			Name: c.Name,
			Kind: model.NewClassifyCategory(model.ParseCategory(c.Category), c.Sub, c.Third),
		}
	}
	for _, pkg := range m.Packages {
		if _, exists := r.components[pkg]; exists {
			continue
		}
		r.components[pkg] = model.Component{
			Name: pkg,
			Kind: model.NewClassifyCategory(model.CategoryApp, model.SubCategoryAppLib, pkg),
		}
	}
	for _, ns := range m.Namespaces {
		r.matcher.Insert(ns.Namespace, ns.Module)
	}
}

// Lookup returns the declared component for a name.
func (r *ComponentRegistry) Lookup(name string) (model.Component, bool) {
	c, ok := r.components[name]
	return c, ok
}

// Matcher returns the KMP namespace matcher built from the manifest.
func (r *ComponentRegistry) Matcher() *trie.PackageMatcher {
	return r.matcher
}

// Len returns the number of registered components.
func (r *ComponentRegistry) Len() int {
	return len(r.components)
}

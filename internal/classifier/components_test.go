package classifier

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perf-attribution/pkg/model"
)

func TestComponentRegistry_MergeDoesNotOverwrite(t *testing.T) {
	reg := NewComponentRegistry()
	reg.Merge(&Manifest{
		Components: []ManifestComponent{
			{Name: "com.vendor.net", Category: "APP", Sub: "network"},
			{Name: "com.vendor.net", Category: "OS", Sub: "should_lose"},
		},
	})

	c, ok := reg.Lookup("com.vendor.net")
	require.True(t, ok)
	assert.Equal(t, "network", c.Kind.SubCategoryName)
	assert.Equal(t, 1, reg.Len())
}

func TestComponentRegistry_DependencyPackages(t *testing.T) {
	reg := NewComponentRegistry()
	reg.Merge(&Manifest{
		Components: []ManifestComponent{
			{Name: "declared", Category: "UI", Sub: "widget"},
		},
		Packages: []string{"declared", "com.ohpm.lottie"},
	})

	// The explicit manifest entry wins over the dependency list.
	c, _ := reg.Lookup("declared")
	assert.Equal(t, model.CategoryUI, c.Kind.Category)

	// Dependency packages are generic application libraries.
	c, ok := reg.Lookup("com.ohpm.lottie")
	require.True(t, ok)
	assert.Equal(t, model.CategoryApp, c.Kind.Category)
	assert.Equal(t, model.SubCategoryAppLib, c.Kind.SubCategoryName)
	assert.Equal(t, "com.ohpm.lottie", c.Kind.ThirdCategoryName)
}

func TestComponentRegistry_Namespaces(t *testing.T) {
	reg := NewComponentRegistry()
	reg.Merge(&Manifest{
		Namespaces: []ManifestNamespace{
			{Namespace: "androidx.compose", Module: "compose"},
			{Namespace: "androidx.compose.ui", Module: "compose-ui"},
		},
	})

	mod, ok := reg.Matcher().FindMostSpecificModule("androidx.compose.ui.node.LayoutNode")
	require.True(t, ok)
	assert.Equal(t, "compose-ui", mod)
}

func TestLoadManifest(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "manifest.json")
	content := `{
		"components": [{"name": "com.example.feed", "category": "UI", "sub": "feed"}],
		"namespaces": [{"namespace": "io.ktor", "module": "ktor"}],
		"packages": ["com.ohpm.axios"]
	}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	reg, err := LoadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, 2, reg.Len())

	_, ok := reg.Lookup("com.example.feed")
	assert.True(t, ok)

	mod, ok := reg.Matcher().FindMostSpecificModule("io.ktor.client.HttpClient")
	require.True(t, ok)
	assert.Equal(t, "ktor", mod)
}

func TestLoadManifest_Missing(t *testing.T) {
	_, err := LoadManifest(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

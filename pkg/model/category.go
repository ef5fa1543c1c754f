// Package model defines the core domain types for CPU sample attribution.
package model

// Category is the coarse classification bucket a unit of CPU work
// belongs to.
type Category int

const (
	// CategoryUnknown indicates the sample could not be attributed.
	CategoryUnknown Category = iota
	// CategoryApp indicates application code (bytecode, native or library).
	CategoryApp
	// CategoryUI indicates the UI runtime.
	CategoryUI
	// CategoryAbility indicates the ability/component framework.
	CategoryAbility
	// CategoryRuntime indicates language runtime libraries.
	CategoryRuntime
	// CategoryOS indicates core operating system code.
	CategoryOS
	// CategorySysSDK indicates system SDK libraries.
	CategorySysSDK
	// CategoryKMP indicates the Kotlin Multiplatform runtime.
	CategoryKMP
	// CategoryWeb indicates the web/browser engine.
	CategoryWeb
	// CategoryDFX indicates diagnostics/telemetry-only code.
	CategoryDFX
)

// String returns the string representation of the category.
func (c Category) String() string {
	switch c {
	case CategoryApp:
		return "APP"
	case CategoryUI:
		return "UI"
	case CategoryAbility:
		return "ABILITY"
	case CategoryRuntime:
		return "RUNTIME"
	case CategoryOS:
		return "OS"
	case CategorySysSDK:
		return "SYS_SDK"
	case CategoryKMP:
		return "KMP"
	case CategoryWeb:
		return "WEB"
	case CategoryDFX:
		return "DFX"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory parses a category name as it appears in rule files.
func ParseCategory(s string) Category {
	switch s {
	case "APP":
		return CategoryApp
	case "UI":
		return CategoryUI
	case "ABILITY":
		return CategoryAbility
	case "RUNTIME":
		return CategoryRuntime
	case "OS":
		return CategoryOS
	case "SYS_SDK":
		return CategorySysSDK
	case "KMP":
		return CategoryKMP
	case "WEB":
		return CategoryWeb
	case "DFX":
		return CategoryDFX
	default:
		return CategoryUnknown
	}
}

// Well-known sub-category markers.
const (
	// SubCategoryBytecodeApp marks application bytecode units whose
	// symbols carry url-style source locations.
	SubCategoryBytecodeApp = "APP_ABC"
	// SubCategoryNativeApp marks application shared libraries.
	SubCategoryNativeApp = "APP_SO"
	// SubCategoryAppLib marks generic application-library components
	// pulled in through the dependency manager.
	SubCategoryAppLib = "APP_LIB"
	// SubCategoryKMPLib marks Kotlin Multiplatform library code.
	SubCategoryKMPLib = "KMP_LIB"
)

// ClassifyCategory is a three-level taxonomy node produced by
// classification. It is immutable once created.
type ClassifyCategory struct {
	Category          Category `json:"category"`
	CategoryName      string   `json:"category_name"`
	SubCategoryName   string   `json:"sub_category_name"`
	ThirdCategoryName string   `json:"third_category_name,omitempty"`
}

// NewClassifyCategory builds a taxonomy node; the category name is
// derived from the enum value.
func NewClassifyCategory(cat Category, sub, third string) ClassifyCategory {
	return ClassifyCategory{
		Category:          cat,
		CategoryName:      cat.String(),
		SubCategoryName:   sub,
		ThirdCategoryName: third,
	}
}

// UnknownCategory returns the default node for unattributable work.
func UnknownCategory() ClassifyCategory {
	return NewClassifyCategory(CategoryUnknown, "", "")
}

// Component declares how a named library/package should be classified.
// Components are loaded once from the project manifest and from
// dependency-manager package lists, then read-only.
type Component struct {
	Name string           `json:"name"`
	Kind ClassifyCategory `json:"kind"`
}

// OriginKind tags the provenance of a shared library.
type OriginKind string

// Origin kinds for shared-library provenance.
const (
	OriginFirstParty OriginKind = "first_party"
	OriginThirdParty OriginKind = "third_party"
	OriginOpenSource OriginKind = "open_source"
)

// SoOrigin is the provenance lookup result for a shared library.
type SoOrigin struct {
	SubCategoryName   string `json:"sub_category_name"`
	ThirdCategoryName string `json:"third_category_name"`
}

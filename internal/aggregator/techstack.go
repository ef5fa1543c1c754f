package aggregator

import "github.com/perf-attribution/pkg/model"

// Technology-stack bucket names.
const (
	StackArkUI  = "ArkUI"
	StackArkTS  = "ArkTS"
	StackNative = "Native"
	StackAppLib = "AppLib"
	StackKMP    = "KMP"
	StackWeb    = "Web"
)

// arkUIRuntimeSubs lists the runtime-library sub-categories folded into
// the ArkUI bucket alongside the UI and ability categories.
var arkUIRuntimeSubs = map[string]bool{
	"libace.so":      true,
	"libace_napi.so": true,
	"ark_ui":         true,
}

func isArkUI(k model.ClassifyCategory) bool {
	switch k.Category {
	case model.CategoryUI, model.CategoryAbility:
		return true
	case model.CategoryRuntime:
		return arkUIRuntimeSubs[k.SubCategoryName]
	}
	return false
}

// StackName maps a classification to its technology-stack bucket. The
// UI-runtime, ability, and designated runtime-library combinations fold
// into the single ArkUI bucket first; after that, low-signal categories
// (generic app container, OS runtime, SDK, unknown, diagnostics) are
// excluded from the stack table and return false.
func StackName(k model.ClassifyCategory) (string, bool) {
	if isArkUI(k) {
		return StackArkUI, true
	}
	switch k.Category {
	case model.CategoryApp:
		switch k.SubCategoryName {
		case model.SubCategoryBytecodeApp:
			return StackArkTS, true
		case model.SubCategoryNativeApp:
			return StackNative, true
		case model.SubCategoryAppLib:
			return StackAppLib, true
		}
		return "", false
	case model.CategoryKMP:
		return StackKMP, true
	case model.CategoryWeb:
		return StackWeb, true
	}
	return "", false
}

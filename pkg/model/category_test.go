package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "APP", CategoryApp.String())
	assert.Equal(t, "UI", CategoryUI.String())
	assert.Equal(t, "ABILITY", CategoryAbility.String())
	assert.Equal(t, "RUNTIME", CategoryRuntime.String())
	assert.Equal(t, "OS", CategoryOS.String())
	assert.Equal(t, "SYS_SDK", CategorySysSDK.String())
	assert.Equal(t, "KMP", CategoryKMP.String())
	assert.Equal(t, "WEB", CategoryWeb.String())
	assert.Equal(t, "DFX", CategoryDFX.String())
	assert.Equal(t, "UNKNOWN", CategoryUnknown.String())
	assert.Equal(t, "UNKNOWN", Category(99).String())
}

func TestParseCategory_RoundTrip(t *testing.T) {
	for _, cat := range []Category{
		CategoryApp, CategoryUI, CategoryAbility, CategoryRuntime,
		CategoryOS, CategorySysSDK, CategoryKMP, CategoryWeb, CategoryDFX,
	} {
		assert.Equal(t, cat, ParseCategory(cat.String()))
	}
	assert.Equal(t, CategoryUnknown, ParseCategory("no_such_category"))
	assert.Equal(t, CategoryUnknown, ParseCategory(""))
}

func TestNewClassifyCategory(t *testing.T) {
	cc := NewClassifyCategory(CategoryApp, SubCategoryNativeApp, "libfoo.so")

	assert.Equal(t, CategoryApp, cc.Category)
	assert.Equal(t, "APP", cc.CategoryName)
	assert.Equal(t, SubCategoryNativeApp, cc.SubCategoryName)
	assert.Equal(t, "libfoo.so", cc.ThirdCategoryName)
}

func TestUnknownCategory(t *testing.T) {
	cc := UnknownCategory()

	assert.Equal(t, CategoryUnknown, cc.Category)
	assert.Equal(t, "UNKNOWN", cc.CategoryName)
	assert.Empty(t, cc.SubCategoryName)
	assert.Empty(t, cc.ThirdCategoryName)
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	err := New(CodeRuleError, "bad rule table")
	assert.Equal(t, "[RULE_ERROR] bad rule table", err.Error())

	wrapped := Wrap(CodeConfigError, "loading rules", errors.New("no such file"))
	assert.Equal(t, "[CONFIG_ERROR] loading rules: no such file", wrapped.Error())
}

func TestAppError_Is(t *testing.T) {
	err := Wrap(CodeConfigError, "missing rules file", errors.New("open failed"))
	assert.True(t, errors.Is(err, ErrConfigError))
	assert.False(t, errors.Is(err, ErrDatabaseError))
	assert.True(t, IsConfigError(err))
	assert.False(t, IsDatabaseError(err))
}

func TestAppError_Unwrap(t *testing.T) {
	inner := errors.New("inner")
	err := Wrap(CodeElfError, "parsing .dynamic", inner)
	assert.Equal(t, inner, errors.Unwrap(err))

	outer := fmt.Errorf("analyze: %w", err)
	assert.True(t, errors.Is(outer, ErrElfError))
}

func TestGetErrorCode(t *testing.T) {
	assert.Equal(t, CodeParseError, GetErrorCode(New(CodeParseError, "x")))
	assert.Equal(t, CodeUnknown, GetErrorCode(errors.New("plain")))
}

func TestGetErrorMessage(t *testing.T) {
	assert.Equal(t, "x", GetErrorMessage(New(CodeParseError, "x")))
	assert.Equal(t, "plain", GetErrorMessage(errors.New("plain")))
	assert.Equal(t, "", GetErrorMessage(nil))
}

func TestNewf(t *testing.T) {
	err := Newf(CodeInvalidInput, "step %d out of range", 7)
	require.NotNil(t, err)
	assert.Equal(t, "step 7 out of range", err.Message)
}

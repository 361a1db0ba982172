package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	e := New(ErrCodeOffenseNotFound, "offense IPC 999 not in catalog")
	assert.Equal(t, "[CAT_001] offense IPC 999 not in catalog", e.Error())

	withDetail := e.WithDetail("catalog size=42")
	assert.Equal(t, "[CAT_001] offense IPC 999 not in catalog: catalog size=42", withDetail.Error())
	// Original must not be mutated.
	assert.Empty(t, e.Detail)
}

func TestWrap(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := Wrap(cause, ErrCodeDatabaseError, "catalog load failed")

	assert.Equal(t, ErrCodeDatabaseError, wrapped.Code)
	assert.ErrorIs(t, wrapped, cause)
	assert.Nil(t, Wrap(nil, ErrCodeDatabaseError, "never happens"))
}

func TestWrap_PreservesCodeOnUnknown(t *testing.T) {
	inner := New(ErrCodeIndexNotInitialized, "index not built")
	outer := Wrap(inner, ErrCodeUnknown, "search failed")
	assert.Equal(t, ErrCodeIndexNotInitialized, outer.Code)
}

func TestIsCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NotInitialized("index not built"))
	assert.True(t, IsCode(err, ErrCodeIndexNotInitialized))
	assert.False(t, IsCode(err, ErrCodeNotFound))
	assert.False(t, IsCode(nil, ErrCodeNotFound))
}

func TestIsNotFound(t *testing.T) {
	assert.True(t, IsNotFound(New(ErrCodeOffenseNotFound, "x")))
	assert.True(t, IsNotFound(New(ErrCodeCaseNotFound, "x")))
	assert.True(t, IsNotFound(NotFound("x")))
	assert.False(t, IsNotFound(Internal("x")))
	assert.False(t, IsNotFound(errors.New("plain")))
}

func TestIsNotInitialized(t *testing.T) {
	assert.True(t, IsNotInitialized(NotInitialized("index not built")))
	assert.False(t, IsNotInitialized(NotFound("x")))
}

func TestIsProviderUnavailable(t *testing.T) {
	assert.True(t, IsProviderUnavailable(ProviderUnavailable("zero-shot down")))
	assert.True(t, IsProviderUnavailable(New(ErrCodeInferenceTimeout, "slow")))
	assert.False(t, IsProviderUnavailable(Internal("x")))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, CodeOK, GetCode(nil))
	assert.Equal(t, ErrCodeUnknown, GetCode(errors.New("plain")))
	assert.Equal(t, ErrCodeBadRequest, GetCode(InvalidParam("top_k must be positive")))
}

func TestHTTPStatusForCode(t *testing.T) {
	assert.Equal(t, 503, HTTPStatusForCode(ErrCodeIndexNotInitialized))
	assert.Equal(t, 400, HTTPStatusForCode(ErrCodeBadRequest))
	assert.Equal(t, 500, HTTPStatusForCode(ErrorCode("NOPE_000")))
}

func TestModuleForCode(t *testing.T) {
	assert.Equal(t, "RET", ModuleForCode(ErrCodeIndexNotInitialized))
	assert.Equal(t, "CLS", ModuleForCode(ErrCodeClassifyFailed))
	assert.Equal(t, "AI", ModuleForCode(ErrCodeProviderUnavailable))
}

func TestIsClientServerError(t *testing.T) {
	assert.True(t, IsClientError(ErrCodeInvalidTopK))
	assert.False(t, IsServerError(ErrCodeInvalidTopK))
	assert.True(t, IsServerError(ErrCodeRetrievalFailed))
}

package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewUsesDefaultMessage(t *testing.T) {
	err := New(CodeNotFound, "")
	assert.Equal(t, CodeNotFound, err.Code())
	assert.Equal(t, "resource not found", err.Message())
	assert.Equal(t, http.StatusNotFound, err.HTTPStatus())
}

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := Wrap(CodeDependency, cause, "redis unavailable")

	require.ErrorIs(t, err, cause)
	assert.Contains(t, err.Error(), "DEPENDENCY")
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAsThroughWrappedChain(t *testing.T) {
	inner := New(CodeStateConflict, "already restored")
	outer := fmt.Errorf("handling request: %w", inner)

	coded, ok := As(outer)
	require.True(t, ok)
	assert.Equal(t, CodeStateConflict, coded.Code())
	assert.Equal(t, http.StatusConflict, coded.HTTPStatus())
}

func TestCodeOfUncodedError(t *testing.T) {
	assert.Equal(t, CodeInternal, CodeOf(fmt.Errorf("plain")))
	assert.True(t, IsCode(New(CodeForbidden, ""), CodeForbidden))
	assert.False(t, IsCode(fmt.Errorf("plain"), CodeForbidden))
}

func TestWithDetails(t *testing.T) {
	err := New(CodeValidation, "bad row").
		WithDetail("row", 3).
		WithDetail("column", "floor")

	assert.Equal(t, 3, err.Details()["row"])
	assert.Equal(t, "floor", err.Details()["column"])
}

func TestMetadataForUnknownCode(t *testing.T) {
	m := MetadataFor(Code("???"))
	assert.Equal(t, http.StatusInternalServerError, m.HTTPStatus)
}

package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWrapKeepsCause(t *testing.T) {
	cause := errors.New("connection refused")
	err := Wrap(CodeStoreError, "persist aggregate", cause)

	require.EqualError(t, err, "persist aggregate: connection refused")
	require.ErrorIs(t, err, cause)
	require.True(t, IsCode(err, CodeStoreError))
	require.False(t, IsCode(err, CodeProviderError))
}

func TestCodeOfNestedError(t *testing.T) {
	err := fmt.Errorf("ingest: %w", Wrap(CodeProviderError, "forecast unavailable", nil))

	require.Equal(t, CodeProviderError, CodeOf(err))
	require.Equal(t, "", CodeOf(errors.New("plain")))
}

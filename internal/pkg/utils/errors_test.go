package utils

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrProvider_Unwrap(t *testing.T) {
	inner := fmt.Errorf("olia")
	err := NewErrProvider(inner)
	assert.Equal(t, "provider error: olia", err.Error())
	assert.True(t, errors.Is(err, inner))
	var pErr *ErrProvider
	assert.True(t, errors.As(err, &pErr))
}

func TestErrConfig(t *testing.T) {
	err := NewErrConfig("no key")
	assert.Equal(t, "configuration error: no key", err.Error())
	var cErr *ErrConfig
	assert.True(t, errors.As(err, &cErr))
	assert.Equal(t, "no key", cErr.Msg)
}

func TestWrapped_NotFound(t *testing.T) {
	err := fmt.Errorf("can't load: %w", ErrNotFound)
	assert.True(t, errors.Is(err, ErrNotFound))
}

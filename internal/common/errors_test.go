package common

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAppError_Error(t *testing.T) {
	base := errors.New("boom")
	e := NewAppError("CONFIG_ERROR", "bad value", base)
	assert.Equal(t, "CONFIG_ERROR: bad value: boom", e.Error())
	assert.ErrorIs(t, e, base)

	bare := NewAppError("CONFIG_ERROR", "bad value", nil)
	assert.Equal(t, "CONFIG_ERROR: bad value", bare.Error())
}

package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromErrorWrapsUnknownAsInternal(t *testing.T) {
	appErr := FromError(fmt.Errorf("boom"))
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.Equal(t, http.StatusInternalServerError, appErr.Status)
}

func TestFromErrorKeepsTypedError(t *testing.T) {
	wrapped := fmt.Errorf("load: %w", Clone(ErrValidation, "month out of range"))
	appErr := FromError(wrapped)
	assert.Equal(t, ErrValidation.Code, appErr.Code)
	assert.Equal(t, "month out of range", appErr.Message)
}

func TestClonedSentinelMatchesWithIs(t *testing.T) {
	err := Wrap(stdErrors.New("redis down"), ErrInputUnavailable.Code, ErrInputUnavailable.Status, "failed to load roster")
	assert.True(t, stdErrors.Is(err, ErrInputUnavailable))
	assert.False(t, stdErrors.Is(err, ErrNotFound))
	assert.Equal(t, "failed to load roster: redis down", err.Error())
}

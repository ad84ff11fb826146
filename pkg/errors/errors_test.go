package errors

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromErrorWrapsUnknownErrors(t *testing.T) {
	appErr := FromError(sql.ErrConnDone)
	require.NotNil(t, appErr)
	assert.Equal(t, ErrInternal.Code, appErr.Code)
	assert.ErrorIs(t, appErr, sql.ErrConnDone)
}

func TestCloneMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("load template: %w", Clone(ErrNotFound, "template not found"))
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.False(t, errors.Is(err, ErrConflict))
	assert.Equal(t, "template not found", FromError(err).Message)
}

func TestValidationCarriesDetails(t *testing.T) {
	details := []string{"classType is required", "shortName must match ^[A-Z0-9_]+$"}
	appErr := Validation("invalid template", details)
	details[0] = "mutated"

	assert.Equal(t, http.StatusBadRequest, appErr.Status)
	assert.Equal(t, []string{"classType is required", "shortName must match ^[A-Z0-9_]+$"}, appErr.Details)
	assert.Empty(t, ErrValidation.Details)
}

package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pitchside/internal/domain"
)

func TestErrorKindsMatchThroughWrapping(t *testing.T) {
	err := fmt.Errorf("browse: %w", domain.NotFound("Category \"Balls\" not found", "Bats", "Gloves"))

	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrValidation))

	e, ok := domain.AsError(err)
	require.True(t, ok)
	assert.Equal(t, []string{"Bats", "Gloves"}, e.Alternatives)
}

func TestUpstreamKeepsCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := domain.Upstream("Failed to upload image", cause)

	assert.True(t, errors.Is(err, domain.ErrUpstream))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, "Failed to upload image: connection reset", err.Error())
}

package domainerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeExtraction(t *testing.T) {
	t.Run("direct domain error", func(t *testing.T) {
		err := New(CodeNotFound, "asset not found")
		assert.Equal(t, CodeNotFound, CodeOf(err))
		assert.True(t, HasCode(err, CodeNotFound))
		assert.False(t, HasCode(err, CodeConflict))
	})

	t.Run("wrapped by fmt.Errorf", func(t *testing.T) {
		inner := New(CodeConflict, "already reserved")
		err := fmt.Errorf("reserve: %w", inner)
		assert.Equal(t, CodeConflict, CodeOf(err))
	})

	t.Run("foreign error defaults to internal", func(t *testing.T) {
		assert.Equal(t, CodeInternal, CodeOf(errors.New("boom")))
	})
}

func TestReasonExtraction(t *testing.T) {
	err := NewWithReason(CodeForbidden, "NOT_OWNER", "reservation belongs to another user")
	assert.Equal(t, "NOT_OWNER", ReasonOf(err))
	assert.True(t, HasReason(err, "NOT_OWNER"))

	assert.Empty(t, ReasonOf(New(CodeForbidden, "no reason")))
	assert.Empty(t, ReasonOf(errors.New("foreign")))
}

func TestWrapPreservesChain(t *testing.T) {
	cause := errors.New("connection reset")
	err := Wrap(cause, CodeTimeout, "transaction aborted")

	require.ErrorIs(t, err, cause)
	assert.Equal(t, CodeTimeout, CodeOf(err))
	assert.Contains(t, err.Error(), "transaction aborted")
	assert.Contains(t, err.Error(), "connection reset")
}

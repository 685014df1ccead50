package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewQaStatus(t *testing.T) {
	t.Run("AcceptsKnownValues", func(t *testing.T) {
		for _, raw := range []string{"pending", "processing", "completed", "error"} {
			status, err := NewQaStatus(raw)
			require.NoError(t, err)
			assert.Equal(t, raw, status.String())
		}
	})

	t.Run("RejectsUnknownValues", func(t *testing.T) {
		for _, raw := range []string{"", "done", "PENDING", "pending "} {
			_, err := NewQaStatus(raw)
			require.Error(t, err, "raw=%q", raw)
			assert.True(t, IsValidation(err))
		}
	})
}

func TestReconstructQaStatus(t *testing.T) {
	// Trusted reload skips validation but produces comparable values.
	assert.Equal(t, StatusCompleted, ReconstructQaStatus("completed"))
	assert.True(t, ReconstructQaStatus("error").IsError())
}

func TestQaStatusTransitions(t *testing.T) {
	all := []QaStatus{StatusPending, StatusProcessing, StatusCompleted, StatusError}
	allowed := map[[2]string]bool{
		{"pending", "processing"}:   true,
		{"processing", "completed"}: true,
		{"processing", "error"}:     true,
		{"error", "pending"}:        true,
	}

	for _, from := range all {
		for _, to := range all {
			next, err := from.Transition(to)
			if allowed[[2]string{from.String(), to.String()}] {
				require.NoError(t, err, "%s -> %s", from, to)
				assert.Equal(t, to, next)
				continue
			}

			require.Error(t, err, "%s -> %s", from, to)
			assert.True(t, IsInvalidTransition(err))

			var te *TransitionError
			require.ErrorAs(t, err, &te)
			assert.Equal(t, from.String(), te.From)
			assert.Equal(t, to.String(), te.To)
		}
	}
}

func TestQaStatusTerminality(t *testing.T) {
	assert.False(t, StatusPending.IsTerminal())
	assert.False(t, StatusProcessing.IsTerminal())
	assert.True(t, StatusCompleted.IsTerminal())
	assert.True(t, StatusError.IsTerminal())
}

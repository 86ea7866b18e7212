package errs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCycleErrorIncludesNetName(t *testing.T) {
	err := NewCycleError("q_next").WithSuggestion("insert a register to break the loop").Build()
	require.Equal(t, KindCycle, err.Kind)
	require.Contains(t, err.Error(), "q_next")
	require.Len(t, err.Suggestions, 1)
}

func TestIOErrorUnwraps(t *testing.T) {
	cause := errors.New("file not found")
	err := NewIOError("loading rule file", cause).Build()
	require.ErrorIs(t, err, cause)
}

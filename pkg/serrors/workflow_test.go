package serrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore(t *testing.T) {
	t.Parallel()

	require.NoError(t, Store(nil))

	wrapped := fmt.Errorf("%w: suggestion already resolved", ErrInvalidStateTransition)
	assert.Same(t, wrapped, Store(wrapped))

	err := Store(context.DeadlineExceeded)
	require.ErrorIs(t, err, ErrTransientStore)
	require.ErrorIs(t, err, context.DeadlineExceeded)

	err = Store(errors.New("connection reset by peer"))
	require.ErrorIs(t, err, ErrTransientStore)
	assert.Equal(t, "TRANSIENT_STORE_FAILURE", Code(err))

	verr := ValidationErrors{"Name": ValidationError{Field: "Name"}}
	assert.Equal(t, verr, Store(verr))
}

func TestIsWorkflow(t *testing.T) {
	t.Parallel()

	assert.True(t, IsWorkflow(fmt.Errorf("wrap: %w", ErrPartialFailure)))
	assert.False(t, IsWorkflow(errors.New("boom")))
	assert.Empty(t, Code(errors.New("boom")))
}

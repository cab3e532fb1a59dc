package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunReturnsValue(t *testing.T) {
	p := New(2)
	v, err := Run(context.Background(), p, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	require.Equal(t, 42, v)
}

func TestRunPropagatesError(t *testing.T) {
	p := New(2)
	boom := errors.New("boom")
	_, err := Run(context.Background(), p, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)
}

func TestRunRespectsCancellation(t *testing.T) {
	p := New(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Run(ctx, p, func() (int, error) { return 1, nil })
	require.ErrorIs(t, err, context.Canceled)
}

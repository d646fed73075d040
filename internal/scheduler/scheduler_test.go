package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStartRunsJobImmediately(t *testing.T) {
	ran := make(chan bool, 1)
	s := New(time.Hour, time.Second, func(ctx context.Context) {
		_, hasDeadline := ctx.Deadline()
		select {
		case ran <- hasDeadline:
		default:
		}
	})
	require.NoError(t, s.Start())
	defer s.Stop()

	select {
	case hasDeadline := <-ran:
		assert.True(t, hasDeadline, "each run is bounded by the timeout")
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestStartRejectsZeroInterval(t *testing.T) {
	s := New(0, 0, func(context.Context) {})
	assert.ErrorIs(t, s.Start(), errInvalidInterval)
}

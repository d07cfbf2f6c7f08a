package jobs_test

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spaghettifunk/atlas/engine/core"
	"github.com/spaghettifunk/atlas/engine/jobs"
)

func TestPoolRunsSubmittedTasks(t *testing.T) {
	pool, err := jobs.NewPool(4, 16, core.NewNopLogger())
	require.NoError(t, err)

	var completed atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		pool.Submit(jobs.Task{
			Run: func() ([]byte, error) {
				return []byte("ok"), nil
			},
			OnComplete: func(data []byte, err error) {
				defer wg.Done()
				assert.NoError(t, err)
				assert.Equal(t, []byte("ok"), data)
				completed.Add(1)
			},
		})
	}
	wg.Wait()
	assert.Equal(t, int32(32), completed.Load())

	require.NoError(t, pool.Shutdown())
}

func TestPoolPassesErrorsToCompletion(t *testing.T) {
	pool, err := jobs.NewPool(1, 0, core.NewNopLogger())
	require.NoError(t, err)

	boom := errors.New("boom")
	done := make(chan struct{})
	pool.Submit(jobs.Task{
		Run: func() ([]byte, error) {
			return nil, boom
		},
		OnComplete: func(data []byte, err error) {
			assert.Nil(t, data)
			assert.ErrorIs(t, err, boom)
			close(done)
		},
	})
	<-done

	require.NoError(t, pool.Shutdown())
}

func TestPoolShutdownDrainsInFlightTasks(t *testing.T) {
	pool, err := jobs.NewPool(2, 64, core.NewNopLogger())
	require.NoError(t, err)

	var completed atomic.Int32
	for i := 0; i < 64; i++ {
		pool.Submit(jobs.Task{
			Run:        func() ([]byte, error) { return nil, nil },
			OnComplete: func([]byte, error) { completed.Add(1) },
		})
	}

	require.NoError(t, pool.Shutdown())
	assert.Equal(t, int32(64), completed.Load())
}

func TestPoolRejectsBadConfiguration(t *testing.T) {
	_, err := jobs.NewPool(0, 16, core.NewNopLogger())
	assert.ErrorIs(t, err, jobs.ErrNoWorkers)

	_, err = jobs.NewPool(2, -1, core.NewNopLogger())
	assert.ErrorIs(t, err, jobs.ErrNegativeChannelSize)
}

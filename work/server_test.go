package work

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
	"github.com/stretchr/testify/require"
)

// stubManager returns a Manager whose generate function is under test
// control.
func stubManager(generate generateFunc) *Manager {
	m := NewManager()
	m.generate = generate
	return m
}

func instantWork(work nano.Work) generateFunc {
	return func(context.Context, *rpc.Config, [32]byte, uint64) (nano.Work, rpc.Failures, error) {
		return work, nil, nil
	}
}

func TestRequestAndWait(t *testing.T) {
	m := stubManager(instantWork(nano.Work{7}))
	defer m.Stop()

	hash := [32]byte{1}
	m.Request(rpc.Config{}, 0, hash)

	result := m.WaitOn(hash)
	require.NoError(t, result.Err)
	require.Equal(t, hash, result.WorkHash)
	require.Equal(t, nano.Work{7}, result.Work)

	// The job was consumed.
	require.Equal(t, 0, m.Pending())
}

func TestWaitOnUnknownHash(t *testing.T) {
	m := stubManager(instantWork(nano.Work{}))
	defer m.Stop()

	result := m.WaitOn([32]byte{9})
	require.ErrorIs(t, result.Err, ErrWorkNotRequested)
}

func TestRequestIdempotent(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	m := stubManager(func(context.Context, *rpc.Config, [32]byte, uint64) (nano.Work, rpc.Failures, error) {
		atomic.AddInt32(&calls, 1)
		<-release
		return nano.Work{1}, nil, nil
	})
	defer m.Stop()

	hash := [32]byte{2}
	for i := 0; i < 5; i++ {
		m.Request(rpc.Config{}, 0, hash)
	}
	require.Equal(t, 1, m.Pending())
	require.True(t, m.Contains(hash))

	close(release)
	result := m.WaitOn(hash)
	require.NoError(t, result.Err)
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestResultsDrainFinishedJobs(t *testing.T) {
	slow := make(chan struct{})
	m := stubManager(func(_ context.Context, _ *rpc.Config, hash [32]byte, _ uint64) (nano.Work, rpc.Failures, error) {
		if hash == ([32]byte{2}) {
			<-slow
		}
		return nano.Work{hash[0]}, nil, nil
	})
	defer m.Stop()

	m.Request(rpc.Config{}, 0, [32]byte{1})
	m.Request(rpc.Config{}, 0, [32]byte{2})

	// Only the fast job is drained.
	require.Eventually(t, func() bool {
		return len(m.Results()) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, 1, m.Pending())

	close(slow)
	require.Eventually(t, func() bool {
		return len(m.Results()) == 1
	}, time.Second, time.Millisecond)
	require.Equal(t, 0, m.Pending())
}

func TestResultsKeepFailures(t *testing.T) {
	failure := rpc.Failure{Err: errors.New("boom"), URL: "https://example.com"}
	m := stubManager(func(context.Context, *rpc.Config, [32]byte, uint64) (nano.Work, rpc.Failures, error) {
		return nano.Work{}, rpc.Failures{failure}, rpc.ErrCommandFailed
	})
	defer m.Stop()

	hash := [32]byte{3}
	m.Request(rpc.Config{}, 0, hash)
	result := m.WaitOn(hash)
	require.ErrorIs(t, result.Err, rpc.ErrCommandFailed)
	require.Equal(t, rpc.Failures{failure}, result.Failures)
}

func TestStopAbandonsJobs(t *testing.T) {
	m := stubManager(func(ctx context.Context, _ *rpc.Config, _ [32]byte, _ uint64) (nano.Work, rpc.Failures, error) {
		<-ctx.Done()
		return nano.Work{}, nil, ctx.Err()
	})

	hash := [32]byte{4}
	m.Request(rpc.Config{}, 0, hash)
	m.Stop()

	result := m.WaitOn(hash)
	require.Error(t, result.Err)
}

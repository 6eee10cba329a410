// Package work prefetches proof-of-work for likely next blocks. Jobs are
// keyed by work hash and resolved through the RPC pool in the background.
package work

import (
	"context"
	"errors"
	"sync"

	"github.com/CamoNano/camonanowallet/nano"
	"github.com/CamoNano/camonanowallet/rpc"
)

// ErrWorkNotRequested is returned when waiting on a hash no job was ever
// requested for.
var ErrWorkNotRequested = errors.New("work was not requested for this hash")

// ErrStopped is returned for jobs abandoned because the service was stopped.
var ErrStopped = errors.New("work service stopped")

// MaxPrefetches is the number of concurrent prefetch jobs the engine keeps
// in flight.
const MaxPrefetches = 2

// Result is the outcome of one work job.
type Result struct {
	// WorkHash identifies the job.
	WorkHash [32]byte

	// Work is the nonce, valid only when Err is nil.
	Work nano.Work

	// Failures are the RPC failures collected while generating.
	Failures rpc.Failures

	// Err is the terminal error of the job, if any.
	Err error
}

// generateFunc resolves one work hash. It is a seam for tests.
type generateFunc func(ctx context.Context, cfg *rpc.Config, hash [32]byte, difficulty uint64) (nano.Work, rpc.Failures, error)

type job struct {
	done   chan struct{}
	result Result
}

// Manager owns the job map. Each job runs in its own goroutine and delivers
// exactly one Result; duplicate requests for a hash collapse into the
// pending job.
type Manager struct {
	mu   sync.Mutex
	jobs map[[32]byte]*job

	ctx    context.Context
	cancel context.CancelFunc

	generate generateFunc
}

// NewManager returns a work service backed by the RPC pool.
func NewManager() *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		jobs:   make(map[[32]byte]*job),
		ctx:    ctx,
		cancel: cancel,
		generate: func(ctx context.Context, cfg *rpc.Config, hash [32]byte,
			difficulty uint64) (nano.Work, rpc.Failures, error) {

			return rpc.Manager{}.WorkGenerate(ctx, cfg, hash, &difficulty)
		},
	}
}

// Request starts a background job for the given work hash. It returns
// immediately; if a job for the hash is already pending or completed the
// call is a no-op. The config is snapshotted at request time.
func (m *Manager) Request(cfg rpc.Config, difficulty uint64, workHash [32]byte) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.jobs[workHash]; ok {
		return
	}
	j := &job{done: make(chan struct{})}
	m.jobs[workHash] = j

	go func() {
		log.Debugf("Getting work for %s", nano.EncodeHash(workHash))
		work, failures, err := m.generate(m.ctx, &cfg, workHash, difficulty)
		j.result = Result{
			WorkHash: workHash,
			Work:     work,
			Failures: failures,
			Err:      err,
		}
		if err == nil {
			log.Debugf("Got work for %s", nano.EncodeHash(workHash))
		} else {
			log.Debugf("Work for %s failed: %v", nano.EncodeHash(workHash), err)
		}
		close(j.done)
	}()
}

// Results drains every finished job, removing them from the map.
func (m *Manager) Results() []Result {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Result
	for hash, j := range m.jobs {
		select {
		case <-j.done:
			out = append(out, j.result)
			delete(m.jobs, hash)
		default:
		}
	}
	return out
}

// WaitOn blocks until the job for the given hash finishes and returns its
// result, removing the job. Waiting on a hash that was never requested is
// an error, not a panic.
func (m *Manager) WaitOn(workHash [32]byte) Result {
	m.mu.Lock()
	j, ok := m.jobs[workHash]
	if ok {
		delete(m.jobs, workHash)
	}
	m.mu.Unlock()

	if !ok {
		return Result{WorkHash: workHash, Err: ErrWorkNotRequested}
	}

	select {
	case <-j.done:
		return j.result
	case <-m.ctx.Done():
		return Result{WorkHash: workHash, Err: ErrStopped}
	}
}

// Pending returns the number of jobs that have not been collected yet.
func (m *Manager) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.jobs)
}

// Contains reports whether a job for the hash is pending or uncollected.
func (m *Manager) Contains(workHash [32]byte) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.jobs[workHash]
	return ok
}

// Stop abandons all pending jobs. Their results are discarded silently.
func (m *Manager) Stop() {
	m.cancel()
}

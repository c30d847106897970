package adminapi

import (
	"sync"
	"sync/atomic"
	"time"
)

// Status is the live, concurrency-safe view of one rank's pipeline
// progress: which phase and ring iteration it is in, whether an operator
// has asked it to abort, and how long it has been running. Both the REST
// handlers and the hand-declared gRPC ClusterStatus RPC read from the
// same Status; internal/pipeline writes to it through the narrower
// pipeline.StatusReporter interface, which Status satisfies.
type Status struct {
	rank      int
	worldSize int
	startTime time.Time

	mu        sync.RWMutex
	phase     string
	iteration int64
	aborted   atomic.Bool
}

// NewStatus creates a Status for the given rank/worldSize, phase "idle".
func NewStatus(rank, worldSize int) *Status {
	return &Status{
		rank:      rank,
		worldSize: worldSize,
		startTime: time.Now(),
		phase:     "idle",
	}
}

// SetPhase records the pipeline stage currently executing ("loading",
// "knn", "labeling", "classify", "done").
func (s *Status) SetPhase(phase string) {
	s.mu.Lock()
	s.phase = phase
	s.mu.Unlock()
}

// SetIteration records the in-flight ring iteration index.
func (s *Status) SetIteration(iteration int) {
	s.mu.Lock()
	s.iteration = int64(iteration)
	s.mu.Unlock()
}

// RequestAbort sets the cooperative abort flag; the pipeline observes it
// at the top of its next ring iteration and unwinds with knnerr.ErrAborted.
func (s *Status) RequestAbort() {
	s.aborted.Store(true)
}

// Aborted reports whether an abort has been requested.
func (s *Status) Aborted() bool {
	return s.aborted.Load()
}

// Snapshot is an immutable point-in-time copy of Status, safe to
// marshal or send over gRPC without holding any lock.
type Snapshot struct {
	Rank      int
	WorldSize int
	Phase     string
	Iteration int64
	Aborted   bool
	UptimeSec float64
}

// Snapshot takes a consistent copy of the current status.
func (s *Status) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Rank:      s.rank,
		WorldSize: s.worldSize,
		Phase:     s.phase,
		Iteration: s.iteration,
		Aborted:   s.aborted.Load(),
		UptimeSec: time.Since(s.startTime).Seconds(),
	}
}

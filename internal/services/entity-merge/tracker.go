package entitymerge

import (
	"sync"

	"formassist/internal/common/logger"
	"formassist/internal/common/metrics"
	"formassist/internal/models"
)

// Tracker owns a session's entity state and orders concurrent writers.
//
// Every writer takes a sequence number with Begin before it starts its
// request. When it completes, a key is written only if no writer that
// started later has already written it, so the outcome depends on start
// order and not on which response arrives first.
type Tracker struct {
	mu      sync.Mutex
	seq     uint64
	state   models.EntityMap
	written map[string]uint64
	logger  logger.Logger
}

func NewTracker(log logger.Logger) *Tracker {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Tracker{
		state:   models.EntityMap{},
		written: map[string]uint64{},
		logger:  log,
	}
}

// Begin stamps a new writer.
func (t *Tracker) Begin() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.seq++
	return t.seq
}

// Apply merges updates stamped with seq and returns the number of keys
// written. Keys already written by a later writer are skipped.
func (t *Tracker) Apply(seq uint64, updates models.EntityMap, source string) int {
	t.mu.Lock()
	defer t.mu.Unlock()

	accepted := make(models.EntityMap, len(updates))
	dropped := 0
	for k, v := range updates {
		if t.written[k] > seq {
			dropped++
			continue
		}
		accepted[k] = v
		t.written[k] = seq
	}
	t.state = Merge(t.state, accepted)

	if dropped > 0 {
		metrics.StaleUpdatesDropped.Add(float64(dropped))
		t.logger.Debug("Skipped stale entity updates", map[string]interface{}{
			"seq":     seq,
			"source":  source,
			"dropped": dropped,
		})
	}
	if len(accepted) > 0 {
		metrics.EntityUpdates.WithLabelValues(source).Add(float64(len(accepted)))
	}
	return len(accepted)
}

// Replace swaps in a freshly loaded state. Keys written by a writer that
// started after seq survive the swap.
func (t *Tracker) Replace(seq uint64, state models.EntityMap) {
	t.mu.Lock()
	defer t.mu.Unlock()

	next := make(models.EntityMap, len(state))
	for k, v := range t.state {
		if t.written[k] > seq {
			next[k] = v
		}
	}
	for k, v := range state {
		if t.written[k] > seq {
			continue
		}
		next[k] = v
		t.written[k] = seq
	}
	for k := range t.written {
		if _, ok := next[k]; !ok {
			delete(t.written, k)
		}
	}
	t.state = next
}

// Snapshot returns a copy of the current state.
func (t *Tracker) Snapshot() models.EntityMap {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state.Clone()
}

// Get returns one entity.
func (t *Tracker) Get(key string) (models.Entity, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	e, ok := t.state[key]
	return e, ok
}

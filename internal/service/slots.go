package service

// slots.go bounds the number of documents converted at the same time.
// When every slot is taken, callers wait up to maxWait before failing with
// ErrTooManyConversions. Running conversions are counted per backend so the
// health endpoint and the active gauge show what the converter is busy with.

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/JonMunkholm/regmap/internal/metrics"
)

// ErrTooManyConversions is returned when all slots are occupied and the
// wait timeout expires. Clients should retry after a short delay.
var ErrTooManyConversions = errors.New("too many conversions in progress, please try again later")

const (
	// DefaultMaxConcurrent is used when the configured slot count is not positive.
	DefaultMaxConcurrent = 4

	// DefaultMaxWait is used when the configured wait is not positive.
	DefaultMaxWait = 30 * time.Second
)

// SlotStatus is a snapshot of the conversion slots.
type SlotStatus struct {
	Active        int            `json:"active"`
	Available     int            `json:"available"`
	MaxConcurrent int            `json:"max_concurrent"`
	ByBackend     map[string]int `json:"by_backend,omitempty"`
}

// slots is a counting semaphore around pipeline runs.
type slots struct {
	sem     chan struct{}
	maxWait time.Duration

	mu        sync.Mutex
	byBackend map[string]int
	total     int
	idle      chan struct{} // closed while total == 0
}

func newSlots(maxConcurrent int, maxWait time.Duration) *slots {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrent
	}
	if maxWait <= 0 {
		maxWait = DefaultMaxWait
	}
	idle := make(chan struct{})
	close(idle)
	return &slots{
		sem:       make(chan struct{}, maxConcurrent),
		maxWait:   maxWait,
		byBackend: make(map[string]int),
		idle:      idle,
	}
}

// acquire waits for a slot for one conversion with backend. The returned
// release func frees the slot; calling it more than once is a no-op.
func (s *slots) acquire(ctx context.Context, backend string) (func(), error) {
	timer := time.NewTimer(s.maxWait)
	defer timer.Stop()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-timer.C:
		return nil, ErrTooManyConversions
	}

	s.mu.Lock()
	if s.total == 0 {
		s.idle = make(chan struct{})
	}
	s.total++
	s.byBackend[backend]++
	s.mu.Unlock()
	metrics.ConversionsActive.WithLabelValues(backend).Inc()

	var once sync.Once
	return func() {
		once.Do(func() { s.release(backend) })
	}, nil
}

func (s *slots) release(backend string) {
	metrics.ConversionsActive.WithLabelValues(backend).Dec()

	s.mu.Lock()
	s.total--
	if s.byBackend[backend]--; s.byBackend[backend] <= 0 {
		delete(s.byBackend, backend)
	}
	if s.total == 0 {
		close(s.idle)
	}
	s.mu.Unlock()

	<-s.sem
}

// wait blocks until no conversion is running or ctx is done.
func (s *slots) wait(ctx context.Context) error {
	s.mu.Lock()
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *slots) status() SlotStatus {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := SlotStatus{
		Active:        s.total,
		Available:     cap(s.sem) - s.total,
		MaxConcurrent: cap(s.sem),
	}
	if len(s.byBackend) > 0 {
		st.ByBackend = make(map[string]int, len(s.byBackend))
		for k, v := range s.byBackend {
			st.ByBackend[k] = v
		}
	}
	return st
}

// busiest returns the backends holding slots, most active first.
func (st SlotStatus) busiest() []string {
	keys := make([]string, 0, len(st.ByBackend))
	for k := range st.ByBackend {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if st.ByBackend[keys[i]] != st.ByBackend[keys[j]] {
			return st.ByBackend[keys[i]] > st.ByBackend[keys[j]]
		}
		return keys[i] < keys[j]
	})
	return keys
}

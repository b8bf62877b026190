package service

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JonMunkholm/regmap/internal/metrics"
)

func TestSlots_PerBackendAccounting(t *testing.T) {
	s := newSlots(3, time.Second)
	ctx := context.Background()
	gauge := metrics.ConversionsActive.WithLabelValues("cefa")
	base := testutil.ToFloat64(gauge)

	releaseA, err := s.acquire(ctx, "cefa")
	require.NoError(t, err)
	releaseB, err := s.acquire(ctx, "cefa")
	require.NoError(t, err)
	releaseC, err := s.acquire(ctx, "ipro")
	require.NoError(t, err)

	st := s.status()
	assert.Equal(t, 3, st.Active)
	assert.Equal(t, 0, st.Available)
	assert.Equal(t, map[string]int{"cefa": 2, "ipro": 1}, st.ByBackend)
	assert.Equal(t, []string{"cefa", "ipro"}, st.busiest())
	assert.Equal(t, base+2, testutil.ToFloat64(gauge))

	releaseA()
	releaseA() // second call is a no-op
	releaseC()

	st = s.status()
	assert.Equal(t, 1, st.Active)
	assert.Equal(t, 2, st.Available)
	assert.Equal(t, map[string]int{"cefa": 1}, st.ByBackend)
	assert.Equal(t, base+1, testutil.ToFloat64(gauge))

	releaseB()
	st = s.status()
	assert.Equal(t, 0, st.Active)
	assert.Nil(t, st.ByBackend)
	assert.Equal(t, base, testutil.ToFloat64(gauge))
}

func TestSlots_Full(t *testing.T) {
	tests := []struct {
		name       string
		maxWait    time.Duration
		ctxTimeout time.Duration
		wantErr    error
	}{
		{"wait expires", 20 * time.Millisecond, time.Second, ErrTooManyConversions},
		{"caller gives up first", time.Second, 20 * time.Millisecond, context.DeadlineExceeded},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSlots(1, tt.maxWait)
			release, err := s.acquire(context.Background(), "bae")
			require.NoError(t, err)
			defer release()

			ctx, cancel := context.WithTimeout(context.Background(), tt.ctxTimeout)
			defer cancel()

			_, err = s.acquire(ctx, "dixell")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, map[string]int{"bae": 1}, s.status().ByBackend)
		})
	}
}

func TestSlots_WaiterGetsReleasedSlot(t *testing.T) {
	s := newSlots(1, time.Second)
	release, err := s.acquire(context.Background(), "keyter")
	require.NoError(t, err)

	got := make(chan error, 1)
	go func() {
		r, err := s.acquire(context.Background(), "general")
		if err == nil {
			defer r()
		}
		got <- err
	}()

	time.Sleep(20 * time.Millisecond)
	release()

	select {
	case err := <-got:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("waiting conversion did not get the released slot")
	}
}

func TestSlots_Wait(t *testing.T) {
	s := newSlots(2, time.Second)

	// Idle: returns at once.
	require.NoError(t, s.wait(context.Background()))

	release, err := s.acquire(context.Background(), "cefa")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, s.wait(ctx), context.DeadlineExceeded)

	done := make(chan error, 1)
	go func() { done <- s.wait(context.Background()) }()
	release()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("wait did not return after the last conversion finished")
	}

	// A new conversion makes the slots busy again.
	release, err = s.acquire(context.Background(), "cefa")
	require.NoError(t, err)
	defer release()
	ctx2, cancel2 := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel2()
	assert.ErrorIs(t, s.wait(ctx2), context.DeadlineExceeded)
}

func TestSlots_NeverExceedsMax(t *testing.T) {
	const limit = 3
	s := newSlots(limit, 5*time.Second)

	var running, peak atomic.Int32
	var wg sync.WaitGroup
	backends := []string{"bae", "cefa", "dixell", "ipro"}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(backend string) {
			defer wg.Done()
			release, err := s.acquire(context.Background(), backend)
			if err != nil {
				t.Error(err)
				return
			}
			defer release()

			n := running.Add(1)
			for {
				p := peak.Load()
				if n <= p || peak.CompareAndSwap(p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			running.Add(-1)
		}(backends[i%len(backends)])
	}
	wg.Wait()

	assert.LessOrEqual(t, peak.Load(), int32(limit))
	assert.Equal(t, SlotStatus{Available: limit, MaxConcurrent: limit}, s.status())
}

func TestSlots_Defaults(t *testing.T) {
	s := newSlots(0, 0)
	assert.Equal(t, DefaultMaxConcurrent, s.status().MaxConcurrent)
	assert.Equal(t, DefaultMaxWait, s.maxWait)
}

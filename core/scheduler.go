package orchestration

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// countdownScheduler samples the time left until a scheduled start and fires
// the preload and advance triggers, each at most once.
type countdownScheduler struct {
	clock   clock.Clock
	startAt time.Time
	timings Timings

	onPreload func()
	onAdvance func()

	mu        sync.Mutex
	preloaded bool
	advanced  bool
	stopped   bool

	stopOnce sync.Once
	stop     chan struct{}
	done     chan struct{}
}

func newCountdownScheduler(
	clk clock.Clock,
	startAt time.Time,
	timings Timings,
	alreadyPreloaded bool,
	onPreload, onAdvance func(),
) *countdownScheduler {
	return &countdownScheduler{
		clock:     clk,
		startAt:   startAt,
		timings:   timings,
		onPreload: onPreload,
		onAdvance: onAdvance,
		preloaded: alreadyPreloaded,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start samples immediately and then on every tick until Stop or ctx is done.
func (s *countdownScheduler) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *countdownScheduler) run(ctx context.Context) {
	defer close(s.done)

	ticker := s.clock.Ticker(s.timings.Tick)
	defer ticker.Stop()

	s.evaluate()
	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stop:
			return
		case <-ticker.C:
			s.evaluate()
		}
	}
}

// evaluate takes one sample and fires whatever triggers became due.
func (s *countdownScheduler) evaluate() (preload, advance bool) {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return false, false
	}

	remaining := s.startAt.Sub(s.clock.Now())
	if !s.preloaded && remaining > 0 && remaining <= s.timings.PreloadLead {
		s.preloaded = true
		preload = true
	}
	if !s.advanced && remaining <= s.timings.AdvanceLead {
		s.advanced = true
		advance = true
	}
	s.mu.Unlock()

	if preload {
		s.onPreload()
	}
	if advance {
		s.onAdvance()
	}
	return preload, advance
}

func (s *countdownScheduler) Remaining() time.Duration {
	return max(s.startAt.Sub(s.clock.Now()), 0)
}

// Stop halts sampling. Triggers already being fired are guarded by the
// stage lease of their callbacks.
func (s *countdownScheduler) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		s.stopped = true
		s.mu.Unlock()
		close(s.stop)
	})
}

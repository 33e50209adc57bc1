package camera

import (
	"slices"
	"sync"
	"time"
)

// Scheduler runs deferred work on the host's frame clock.
type Scheduler interface {
	// Schedule runs fn once after d. The returned function cancels it; it is
	// safe to call more than once and after fn has run.
	Schedule(d time.Duration, fn func(now time.Time)) (cancel func())
}

// TimerScheduler runs steps on wall-clock timers. Steps execute on timer
// goroutines, so the receiving side must synchronize.
type TimerScheduler struct{}

// Schedule implements [Scheduler].
func (TimerScheduler) Schedule(d time.Duration, fn func(now time.Time)) func() {
	t := time.AfterFunc(d, func() { fn(time.Now()) })
	return func() { t.Stop() }
}

// ManualScheduler runs steps only when time is advanced explicitly. It is
// used by tests, simulations, and hosts with their own frame loop.
type ManualScheduler struct {
	mu    sync.Mutex
	now   time.Time
	seq   uint64
	tasks []*manualTask
}

type manualTask struct {
	at  time.Time
	seq uint64
	fn  func(time.Time)
}

// NewManualScheduler starts the clock at start.
func NewManualScheduler(start time.Time) *ManualScheduler {
	return &ManualScheduler{now: start}
}

// Now returns the scheduler clock.
func (m *ManualScheduler) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled steps.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// Schedule implements [Scheduler].
func (m *ManualScheduler) Schedule(d time.Duration, fn func(now time.Time)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTask{at: m.now.Add(d), seq: m.seq, fn: fn}
	m.tasks = append(m.tasks, t)
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.tasks = slices.DeleteFunc(m.tasks, func(x *manualTask) bool { return x == t })
	}
}

// Advance moves the clock forward by d, running every step that comes due in
// time order. Steps scheduled while advancing run too if they fall due
// before the new time.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	end := m.now.Add(d)
	m.mu.Unlock()
	for {
		m.mu.Lock()
		next := -1
		for i, t := range m.tasks {
			if t.at.After(end) {
				continue
			}
			if next < 0 || t.at.Before(m.tasks[next].at) ||
				(t.at.Equal(m.tasks[next].at) && t.seq < m.tasks[next].seq) {
				next = i
			}
		}
		if next < 0 {
			m.now = end
			m.mu.Unlock()
			return
		}
		t := m.tasks[next]
		m.tasks = slices.Delete(m.tasks, next, next+1)
		if t.at.After(m.now) {
			m.now = t.at
		}
		now := m.now
		m.mu.Unlock()
		t.fn(now)
	}
}

// RunFor advances in steps of interval until total has elapsed.
func (m *ManualScheduler) RunFor(total, interval time.Duration) {
	for elapsed := time.Duration(0); elapsed < total; elapsed += interval {
		m.Advance(min(interval, total-elapsed))
	}
}

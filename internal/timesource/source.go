// Package timesource models the time surfaces a hosted page can reach
// (wall-clock reads, the monotonic elapsed counter, delayed-callback
// scheduling) as swappable bindings. The real variants delegate to the
// runtime; the warped variants answer from a warp.Engine and delegate the
// actual work to the binding they displaced.
package timesource

import (
	"sync"
	"time"
)

// ClockSource is the wall-clock read/construct surface. Only Now is
// virtualized by a warped source; the explicit constructors build concrete
// time values and always pass through. Every method returns an ordinary
// time.Time, so type identity is preserved for callers that check.
type ClockSource interface {
	Now() time.Time
	Date(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) time.Time
	Unix(sec, nsec int64) time.Time
}

// ElapsedSource is the monotonic elapsed-time-since-origin surface.
type ElapsedSource interface {
	Elapsed() time.Duration
}

// Scheduler is the delayed/repeating callback surface. Handles returned by
// either method stay valid for Stop regardless of which binding created
// them.
type Scheduler interface {
	SetTimeout(f func(), d time.Duration) *Timer
	SetInterval(f func(), d time.Duration) *Timer
}

// minInterval is the floor for repeating delays; a zero-period ticker is
// invalid, and browsers clamp intervals similarly.
const minInterval = time.Millisecond

// Timer is the cancellation handle for a scheduled callback.
type Timer struct {
	mu      sync.Mutex
	stop    func()
	stopped bool
}

// Stop cancels the timer. It reports whether this call stopped it; a
// one-shot timer that already fired returns true as well, matching the
// underlying primitive's cancel being a no-op then.
func (t *Timer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return false
	}
	t.stopped = true
	t.stop()
	return true
}

// RealClockSource delegates every read and construction to package time.
type RealClockSource struct{}

func (RealClockSource) Now() time.Time {
	return time.Now()
}

func (RealClockSource) Date(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) time.Time {
	return time.Date(year, month, day, hour, min, sec, nsec, loc)
}

func (RealClockSource) Unix(sec, nsec int64) time.Time {
	return time.Unix(sec, nsec)
}

// RealElapsedSource reports monotonic time elapsed since its construction.
type RealElapsedSource struct {
	origin time.Time
}

func NewRealElapsedSource() *RealElapsedSource {
	return &RealElapsedSource{origin: time.Now()}
}

func (s *RealElapsedSource) Elapsed() time.Duration {
	return time.Since(s.origin)
}

// RealScheduler schedules on the runtime's own timers.
type RealScheduler struct{}

func (RealScheduler) SetTimeout(f func(), d time.Duration) *Timer {
	if d < 0 {
		d = 0
	}
	tm := time.AfterFunc(d, f)
	return &Timer{stop: func() { tm.Stop() }}
}

func (RealScheduler) SetInterval(f func(), d time.Duration) *Timer {
	if d < minInterval {
		d = minInterval
	}
	tk := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-tk.C:
				f()
			case <-done:
				return
			}
		}
	}()
	return &Timer{stop: func() {
		tk.Stop()
		close(done)
	}}
}

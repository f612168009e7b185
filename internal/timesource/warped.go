package timesource

import (
	"time"

	"github.com/timewarplabs/timewarp/internal/warp"
)

// WarpedClockSource answers no-argument reads with virtual time. Explicit
// constructions are forwarded to the displaced binding unmodified: a caller
// building a concrete time value is not asking what time it is.
type WarpedClockSource struct {
	eng  *warp.Engine
	orig ClockSource
}

func NewWarpedClockSource(eng *warp.Engine, orig ClockSource) *WarpedClockSource {
	return &WarpedClockSource{eng: eng, orig: orig}
}

func (s *WarpedClockSource) Now() time.Time {
	clockReads.Inc()
	return s.eng.VirtualTimeAt(s.orig.Now())
}

func (s *WarpedClockSource) Date(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) time.Time {
	return s.orig.Date(year, month, day, hour, min, sec, nsec, loc)
}

func (s *WarpedClockSource) Unix(sec, nsec int64) time.Time {
	return s.orig.Unix(sec, nsec)
}

// WarpedElapsedSource scales the displaced binding's reading by the current
// multiplier. This favors short intervals read entirely under one
// multiplier; an interval straddling a change is approximately, not
// exactly, scaled. Known trade-off, kept deliberately.
type WarpedElapsedSource struct {
	eng  *warp.Engine
	orig ElapsedSource
}

func NewWarpedElapsedSource(eng *warp.Engine, orig ElapsedSource) *WarpedElapsedSource {
	return &WarpedElapsedSource{eng: eng, orig: orig}
}

func (s *WarpedElapsedSource) Elapsed() time.Duration {
	return time.Duration(float64(s.orig.Elapsed()) * s.eng.Multiplier())
}

// WarpedScheduler shrinks delays by the multiplier in effect at the moment
// of scheduling and delegates to the displaced binding. Already-pending
// timers keep the delay computed when they were scheduled; a multiplier
// change is only observed by timers scheduled after it.
type WarpedScheduler struct {
	eng  *warp.Engine
	orig Scheduler
}

func NewWarpedScheduler(eng *warp.Engine, orig Scheduler) *WarpedScheduler {
	return &WarpedScheduler{eng: eng, orig: orig}
}

func (s *WarpedScheduler) SetTimeout(f func(), d time.Duration) *Timer {
	timersScheduled.Inc()
	return s.orig.SetTimeout(f, scaleDelay(d, s.eng.Multiplier()))
}

func (s *WarpedScheduler) SetInterval(f func(), d time.Duration) *Timer {
	timersScheduled.Inc()
	return s.orig.SetInterval(f, scaleDelay(d, s.eng.Multiplier()))
}

// scaleDelay computes max(0, d/m).
func scaleDelay(d time.Duration, m float64) time.Duration {
	if d < 0 {
		d = 0
	}
	if m != 1.0 {
		d = time.Duration(float64(d) / m)
	}
	return d
}

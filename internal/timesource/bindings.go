package timesource

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/timewarplabs/timewarp/internal/warp"
)

// Surface names one independently-installable time surface.
type Surface string

const (
	SurfaceClock     Surface = "clock"
	SurfaceElapsed   Surface = "elapsed"
	SurfaceScheduler Surface = "scheduler"
)

// ErrSealedSurface is returned when installation targets a surface the host
// has marked non-configurable.
var ErrSealedSurface = errors.New("timesource: surface is not configurable")

// Bindings is the per-context table of time surfaces. Every consumer reads
// through it, so swapping a slot retargets all of them at once. Each context
// constructs its own Bindings and threads it through explicitly; there is no
// package-level default.
type Bindings struct {
	mu      sync.RWMutex
	clock   ClockSource
	elapsed ElapsedSource
	sched   Scheduler
	sealed  map[Surface]bool
}

// NewBindings returns a table with every surface bound to its real variant
// and every surface configurable.
func NewBindings() *Bindings {
	return &Bindings{
		clock:   RealClockSource{},
		elapsed: NewRealElapsedSource(),
		sched:   RealScheduler{},
		sealed:  make(map[Surface]bool),
	}
}

// Seal marks a surface non-configurable. Subsequent installs on it fail.
// Hosts use this to model environments that reject overrides.
func (b *Bindings) Seal(s Surface) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sealed[s] = true
}

// InstallClock swaps the clock surface, returning the displaced binding for
// restoration or delegation.
func (b *Bindings) InstallClock(src ClockSource) (ClockSource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed[SurfaceClock] {
		return nil, fmt.Errorf("%w: %s", ErrSealedSurface, SurfaceClock)
	}
	prev := b.clock
	b.clock = src
	return prev, nil
}

// InstallElapsed swaps the elapsed-counter surface.
func (b *Bindings) InstallElapsed(src ElapsedSource) (ElapsedSource, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed[SurfaceElapsed] {
		return nil, fmt.Errorf("%w: %s", ErrSealedSurface, SurfaceElapsed)
	}
	prev := b.elapsed
	b.elapsed = src
	return prev, nil
}

// InstallScheduler swaps the scheduling surface.
func (b *Bindings) InstallScheduler(s Scheduler) (Scheduler, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.sealed[SurfaceScheduler] {
		return nil, fmt.Errorf("%w: %s", ErrSealedSurface, SurfaceScheduler)
	}
	prev := b.sched
	b.sched = s
	return prev, nil
}

// ClockSource returns the current clock binding.
func (b *Bindings) ClockSource() ClockSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clock
}

// ElapsedSource returns the current elapsed-counter binding.
func (b *Bindings) ElapsedSource() ElapsedSource {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.elapsed
}

// Scheduler returns the current scheduling binding.
func (b *Bindings) Scheduler() Scheduler {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.sched
}

// Now reads the clock surface.
func (b *Bindings) Now() time.Time {
	return b.ClockSource().Now()
}

// Date constructs an explicit time value through the clock surface.
func (b *Bindings) Date(year int, month time.Month, day, hour, min, sec, nsec int, loc *time.Location) time.Time {
	return b.ClockSource().Date(year, month, day, hour, min, sec, nsec, loc)
}

// Unix constructs a time value from a timestamp through the clock surface.
func (b *Bindings) Unix(sec, nsec int64) time.Time {
	return b.ClockSource().Unix(sec, nsec)
}

// Elapsed reads the elapsed-counter surface.
func (b *Bindings) Elapsed() time.Duration {
	return b.ElapsedSource().Elapsed()
}

// SetTimeout schedules a one-shot callback through the scheduling surface.
func (b *Bindings) SetTimeout(f func(), d time.Duration) *Timer {
	return b.Scheduler().SetTimeout(f, d)
}

// SetInterval schedules a repeating callback through the scheduling surface.
func (b *Bindings) SetInterval(f func(), d time.Duration) *Timer {
	return b.Scheduler().SetInterval(f, d)
}

// InstallWarp retargets every configurable surface in b onto eng, wrapping
// the displaced bindings. A sealed surface is logged and skipped; the others
// still install, so virtualization degrades per surface instead of failing
// startup. The returned func restores the bindings that were displaced.
func InstallWarp(b *Bindings, eng *warp.Engine, log *zap.Logger) (restore func()) {
	if log == nil {
		log = zap.NewNop()
	}
	var undos []func()

	if prev, err := b.InstallClock(NewWarpedClockSource(eng, b.ClockSource())); err != nil {
		log.Warn("surface left unvirtualized", zap.String("surface", string(SurfaceClock)), zap.Error(err))
	} else {
		undos = append(undos, func() { b.InstallClock(prev) })
	}

	if prev, err := b.InstallElapsed(NewWarpedElapsedSource(eng, b.ElapsedSource())); err != nil {
		log.Warn("surface left unvirtualized", zap.String("surface", string(SurfaceElapsed)), zap.Error(err))
	} else {
		undos = append(undos, func() { b.InstallElapsed(prev) })
	}

	if prev, err := b.InstallScheduler(NewWarpedScheduler(eng, b.Scheduler())); err != nil {
		log.Warn("surface left unvirtualized", zap.String("surface", string(SurfaceScheduler)), zap.Error(err))
	} else {
		undos = append(undos, func() { b.InstallScheduler(prev) })
	}

	return func() {
		for _, undo := range undos {
			undo()
		}
	}
}

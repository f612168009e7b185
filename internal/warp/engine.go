package warp

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

// Limits bound the multiplier the engine will accept. Requests outside the
// range are clamped, never rejected.
type Limits struct {
	Min     float64
	Max     float64
	Default float64
}

// DefaultLimits returns the stock multiplier range.
func DefaultLimits() Limits {
	return Limits{
		Min:     0.0625,
		Max:     16.0,
		Default: 1.0,
	}
}

// Engine owns the process-wide mapping from real time to virtual time.
//
// The mapping is a single line segment: virtual time grows from the virtual
// anchor at a slope of multiplier per unit of real time elapsed since the
// real anchor. Changing the multiplier re-anchors the line at the current
// instant, so virtual time is continuous at every change and only the slope
// moves.
//
// Safe for concurrent use. The anchor-read-then-write sequence in
// SetMultiplier is one critical section; readers never observe a state where
// only one anchor has been updated.
type Engine struct {
	clk RealClock
	log *zap.Logger

	mu         sync.Mutex
	multiplier float64
	virtAnchor time.Time
	realAnchor time.Time
	min, max   float64

	subs []func(float64)
}

// NewEngine creates an Engine running at lim.Default with both anchors set
// to the current real time. A nil clk falls back to the system clock, a nil
// log discards.
func NewEngine(lim Limits, clk RealClock, log *zap.Logger) *Engine {
	if clk == nil {
		clk = SystemClock{}
	}
	if log == nil {
		log = zap.NewNop()
	}
	if lim.Min <= 0 {
		lim.Min = DefaultLimits().Min
	}
	if lim.Max < lim.Min {
		lim.Max = DefaultLimits().Max
	}
	now := clk.Now()
	e := &Engine{
		clk:        clk,
		log:        log,
		multiplier: clampMultiplier(lim.Default, lim.Min, lim.Max),
		virtAnchor: now,
		realAnchor: now,
		min:        lim.Min,
		max:        lim.Max,
	}
	multiplierGauge.Set(e.multiplier)
	return e
}

// Multiplier returns the currently installed multiplier.
func (e *Engine) Multiplier() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.multiplier
}

// Bounds returns the clamping interval fixed at construction.
func (e *Engine) Bounds() (min, max float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.min, e.max
}

// VirtualTime returns the virtual time corresponding to the current real
// time, sampling the real clock exactly once.
func (e *Engine) VirtualTime() time.Time {
	return e.VirtualTimeAt(e.clk.Now())
}

// VirtualTimeAt maps a caller-supplied real time onto the virtual timeline.
// Pure given the current state; callers that already hold a real-time sample
// use this to avoid a redundant clock read.
func (e *Engine) VirtualTimeAt(real time.Time) time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.virtualAt(real)
}

// virtualAt computes virtAnchor + (t - realAnchor) * multiplier.
// Callers must hold e.mu.
func (e *Engine) virtualAt(t time.Time) time.Time {
	dt := t.Sub(e.realAnchor)
	if e.multiplier != 1.0 {
		dt = time.Duration(float64(dt) * e.multiplier)
	}
	return e.virtAnchor.Add(dt)
}

// SetMultiplier clamps target into the configured bounds and installs it,
// returning the value actually installed. Setting the current value is a
// no-op: anchors are left untouched and subscribers are not notified.
//
// The virtual anchor is recomputed with the old multiplier before the new
// one takes effect, so virtual time never jumps at a change.
func (e *Engine) SetMultiplier(target float64) float64 {
	e.mu.Lock()
	target = clampMultiplier(target, e.min, e.max)
	if target == e.multiplier {
		e.mu.Unlock()
		return target
	}
	// Sampled under the lock: a racing update must not re-anchor with a
	// stale reading, which would drag the virtual anchor backward.
	now := e.clk.Now()
	e.virtAnchor = e.virtualAt(now)
	e.realAnchor = now
	e.multiplier = target
	subs := make([]func(float64), len(e.subs))
	copy(subs, e.subs)
	e.mu.Unlock()

	multiplierGauge.Set(target)
	e.log.Info("multiplier changed", zap.Float64("multiplier", target))

	// Synchronous fan-out (media enforcement, control surface push).
	// Outside the lock so subscribers may read the engine.
	for _, f := range subs {
		f(target)
	}
	return target
}

// OnChange registers a subscriber invoked synchronously after every
// effective multiplier change with the newly installed value.
func (e *Engine) OnChange(f func(multiplier float64)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.subs = append(e.subs, f)
}

func clampMultiplier(m, min, max float64) float64 {
	if m < min {
		return min
	}
	if m > max {
		return max
	}
	return m
}

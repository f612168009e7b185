// Package media models continuous-media elements inside a hosted document
// and keeps their playback rates synchronized with the warp engine's
// multiplier against competing writes by host code.
package media

import "sync"

// RateArbiter decides the effective playback rate when host code writes one.
type RateArbiter interface {
	// ArbitrateRate returns the rate to actually install for a requested
	// native write.
	ArbitrateRate(requested float64) float64
}

// Element is a continuous-media element: a node with an independently
// running playback clock and an observable playback-rate property.
//
// The rate mutator is the interception point. Writes go through the
// attached arbiter, so a host that reads straight after writing observes
// the arbitrated value, never a momentarily-wrong one. The reader passes
// through.
type Element struct {
	mu      sync.Mutex
	id      string
	rate    float64
	arbiter RateArbiter
}

// NewElement creates a media element playing at the neutral rate.
func NewElement(id string) *Element {
	return &Element{id: id, rate: 1.0}
}

func (e *Element) ID() string {
	return e.id
}

// PlaybackRate reads the element's native rate. Reads are never arbitrated.
func (e *Element) PlaybackRate() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.rate
}

// SetPlaybackRate is the host-facing mutator. With no arbiter attached the
// write lands natively; otherwise the arbiter's verdict is installed.
func (e *Element) SetPlaybackRate(rate float64) {
	e.mu.Lock()
	arb := e.arbiter
	e.mu.Unlock()

	if arb != nil {
		rate = arb.ArbitrateRate(rate)
	}

	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
}

// forceRate installs a rate directly, bypassing arbitration. Enforcement
// sweeps use it; host code never reaches it.
func (e *Element) forceRate(rate float64) {
	e.mu.Lock()
	e.rate = rate
	e.mu.Unlock()
}

// attachArbiter claims the element's mutator for the given arbiter.
func (e *Element) attachArbiter(a RateArbiter) {
	e.mu.Lock()
	e.arbiter = a
	e.mu.Unlock()
}

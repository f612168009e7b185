package media

import (
	"sync"

	"go.uber.org/zap"

	"github.com/timewarplabs/timewarp/internal/warp"
)

// Enforcer keeps every media element's playback rate equal to the engine's
// multiplier. It re-sweeps on every multiplier change and whenever a
// media-carrying subtree is inserted: a full pass over all known elements
// rather than incremental tracking. Redundant writes are cheap and sweeps
// are infrequent.
//
// Arbitration: at the neutral multiplier host writes pass through
// unmodified; at any other multiplier the engine wins and the write is
// overridden inside the mutator itself.
type Enforcer struct {
	eng *warp.Engine
	doc *Document
	log *zap.Logger

	// Serializes sweeps when the host runs them from parallel goroutines.
	sweepMu sync.Mutex
}

// NewEnforcer wires enforcement to eng and doc, claims the mutator of every
// media element already present, and runs an initial sweep.
func NewEnforcer(eng *warp.Engine, doc *Document, log *zap.Logger) *Enforcer {
	if log == nil {
		log = zap.NewNop()
	}
	e := &Enforcer{
		eng: eng,
		doc: doc,
		log: log,
	}
	doc.Observe(e.onMutation)
	eng.OnChange(func(float64) { e.Sweep() })
	e.Sweep()
	return e
}

// ArbitrateRate implements RateArbiter for host-initiated writes.
func (e *Enforcer) ArbitrateRate(requested float64) float64 {
	m := e.eng.Multiplier()
	if m == 1.0 {
		return requested
	}
	overriddenWrites.Inc()
	e.log.Debug("native rate write overridden",
		zap.Float64("requested", requested),
		zap.Float64("multiplier", m))
	return m
}

// onMutation triggers a sweep when an inserted subtree carries media.
func (e *Enforcer) onMutation(added *Node) {
	if !e.doc.SubtreeContainsMedia(added) {
		return
	}
	e.Sweep()
}

// Sweep forces every attached media element's rate to the current
// multiplier and claims its mutator.
func (e *Enforcer) Sweep() {
	e.sweepMu.Lock()
	defer e.sweepMu.Unlock()

	m := e.eng.Multiplier()
	els := e.doc.MediaElements()
	for _, el := range els {
		el.attachArbiter(e)
		el.forceRate(m)
	}
	sweeps.Inc()
	e.log.Debug("media sweep", zap.Int("elements", len(els)), zap.Float64("multiplier", m))
}

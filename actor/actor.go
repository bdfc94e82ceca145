// Package actor holds the cycle-scoped behaviors the orchestrator drives
// once per cycle, after inputs are decoded and before outputs are
// encoded: blinkers, loggers, and setters over a single I/O handle.
// Grounded on original_source/control-core/src/actors/*.rs and
// original_source/ethercat-hal/src/actors/*.rs, ported from their
// async/RwLock-guarded futures to plain synchronous methods since the
// cycle thread here is the sole caller.
package actor

import (
	"time"

	"github.com/rs/zerolog"
)

// Actor is anything the orchestrator calls exactly once per cycle. An
// Actor that panics or returns an error is logged and skipped; the cycle
// never aborts because of one.
type Actor interface {
	Act(now time.Time) error
}

// Runner applies the orchestrator's failure-isolation policy across a
// set of actors: recover from panics, log errors, never abort the cycle.
type Runner struct {
	log zerolog.Logger
	actors []Actor
}

func NewRunner(log zerolog.Logger, actors ...Actor) *Runner {
	return &Runner{log: log, actors: actors}
}

func (r *Runner) Add(a Actor) { r.actors = append(r.actors, a) }

// RunAll calls Act on every actor, isolating panics and errors so one
// misbehaving actor never stops the rest from running this cycle.
func (r *Runner) RunAll(now time.Time) {
	for _, a := range r.actors {
		r.runOne(a, now)
	}
}

func (r *Runner) runOne(a Actor, now time.Time) {
	defer func() {
		if rec := recover(); rec != nil {
			r.log.Error().Interface("panic", rec).Msg("actor panicked")
		}
	}()
	if err := a.Act(now); err != nil {
		r.log.Error().Err(err).Msg("actor failed")
	}
}

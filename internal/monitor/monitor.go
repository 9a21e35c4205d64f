// Package monitor turns polls of instrument quotes into deltas and mover
// events, and aggregates the mover log over a trailing window.
//
// The functions in this package are pure in-memory computations: Normalize
// builds a Snapshot, ComputeDeltas diffs it against an explicit Retained
// State, Events applies the recording threshold, and NetChange sums logged
// changes per instrument. Monitor wraps them with the State a polling loop
// carries from one cycle to the next.
package monitor

import (
	"time"

	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
)

// Config holds the computation settings.
type Config struct {
	Scale        models.Scale
	Threshold    float64
	Window       time.Duration
	RecordMovers bool
}

// Cycle is the outcome of one processed poll.
type Cycle struct {
	Snapshot models.Snapshot
	Deltas   []Delta
	// Movers is nil when no delta cleared the threshold or recording is off.
	Movers *models.MoverDocument

	next State
}

// Monitor carries the Retained State between polls.
type Monitor struct {
	config     Config
	state      *StateHolder
	cycleCount int
}

// New creates a Monitor with empty Retained State.
func New(config Config) *Monitor {
	if config.Scale == "" {
		config.Scale = models.ScaleProbability
	}
	return &Monitor{
		config: config,
		state:  NewStateHolder(config.Scale),
	}
}

// Config returns the monitor settings.
func (m *Monitor) Config() Config {
	return m.config
}

// State returns the currently retained State.
func (m *Monitor) State() State {
	return m.state.Current()
}

// Evaluate normalizes one poll, diffs it against the retained State, and
// batches threshold-clearing changes into a mover document. The retained
// State is not touched until the cycle is committed.
func (m *Monitor) Evaluate(raw []models.RawQuote, at time.Time) Cycle {
	snap := Normalize(raw, at)
	deltas, next := ComputeDeltas(snap, m.state.Current(), m.config.Scale)

	cycle := Cycle{Snapshot: snap, Deltas: deltas, next: next}
	if m.config.RecordMovers {
		cycle.Movers = NewMoverDocument(Events(deltas, m.config.Threshold, at))
	}
	return cycle
}

// Commit makes the cycle's State the retained one. Commit a cycle only once
// its mover document is in the log; an uncommitted cycle is diffed again
// from the old State on the next poll.
func (m *Monitor) Commit(cycle Cycle) {
	if cycle.next.values == nil {
		return
	}
	m.state.Replace(cycle.next)
	m.cycleCount++

	var up, down int
	for _, d := range cycle.Deltas {
		switch d.Direction {
		case models.DirectionUp:
			up++
		case models.DirectionDown:
			down++
		}
	}
	recorded := 0
	if cycle.Movers != nil {
		recorded = len(cycle.Movers.Items)
	}
	logger.Debug("Cycle %d: %d quotes, %d valued, %d up, %d down, %d recorded (threshold %.4f %s)",
		m.cycleCount, cycle.Snapshot.Len(), len(cycle.Deltas), up, down, recorded, m.config.Threshold, m.config.Scale)
}

// NetMovers aggregates mover documents over the configured window ending at now.
func (m *Monitor) NetMovers(docs []models.MoverDocument, now time.Time) map[string]float64 {
	return NetChange(Flatten(docs), m.config.Window, now)
}

package monitor

import (
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
)

// Delta is the change of one instrument between the retained State and the
// current Snapshot. Change is absent when there is no previous value, which
// is distinct from a genuine zero change; both classify as flat.
type Delta struct {
	Identifier  string
	DisplayName string
	Current     float64
	Previous    models.Float
	Change      models.Float
	Direction   models.Direction
}

// ComputeDeltas diffs the snapshot against the previous State in the given
// scale. It returns one Delta per quote that has a current value, in snapshot
// order, and the State to retain for the next cycle. Quotes without a current
// value are skipped and instruments absent from the snapshot are not carried
// forward. Neither input is modified.
func ComputeDeltas(snap models.Snapshot, prev State, scale models.Scale) ([]Delta, State) {
	if prev.Len() > 0 && prev.Scale() != scale {
		logger.Warn("ComputeDeltas: retained state is in %s scale, want %s; ignoring it", prev.Scale(), scale)
		prev = NewState(scale)
	}

	quotes := snap.Quotes()
	deltas := make([]Delta, 0, len(quotes))
	next := State{scale: scale, values: make(map[string]float64, len(quotes))}

	for _, q := range quotes {
		current, ok := ValueOf(q, scale).Get()
		if !ok {
			continue
		}
		next.values[q.Identifier] = current

		d := Delta{
			Identifier:  q.Identifier,
			DisplayName: q.DisplayName,
			Current:     current,
		}
		if previous, ok := prev.Value(q.Identifier); ok {
			d.Previous = models.SomeFloat(previous)
			d.Change = models.SomeFloat(current - previous)
		}
		d.Direction = models.DirectionOf(d.Change)
		deltas = append(deltas, d)
	}

	return deltas, next
}

// thresholdTolerance absorbs float rounding in a change computed as
// current - previous, so 0.40 -> 0.42 clears a 0.02 threshold.
const thresholdTolerance = 1e-9

// Events returns a mover event for every delta whose change is known,
// non-zero, and at least threshold in magnitude. A threshold of 0 records
// every non-zero move; negative thresholds are treated as 0.
func Events(deltas []Delta, threshold float64, at time.Time) []models.MoverEvent {
	if threshold < 0 {
		threshold = 0
	}
	ts := models.FormatTimestamp(at)

	var events []models.MoverEvent
	for _, d := range deltas {
		change, ok := d.Change.Get()
		if !ok || change == 0 || math.Abs(change) < threshold-thresholdTolerance {
			continue
		}
		previous, _ := d.Previous.Get()
		events = append(events, models.MoverEvent{
			Timestamp: ts,
			MoverItem: models.MoverItem{
				Ticker: d.Identifier,
				Old:    previous,
				New:    d.Current,
				Change: change,
			},
		})
	}
	return events
}

// NewMoverDocument batches events that share one timestamp into a document
// ready to append to the mover log. It returns nil when there is nothing to
// record.
func NewMoverDocument(events []models.MoverEvent) *models.MoverDocument {
	if len(events) == 0 {
		return nil
	}
	doc := &models.MoverDocument{
		ID:        uuid.New().String(),
		Timestamp: events[0].Timestamp,
		Items:     make([]models.MoverItem, 0, len(events)),
	}
	for _, e := range events {
		doc.Items = append(doc.Items, e.MoverItem)
	}
	return doc
}

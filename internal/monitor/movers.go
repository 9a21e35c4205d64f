package monitor

import (
	"math"
	"sort"
	"time"

	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
)

// Flatten expands mover documents into events, preserving document order.
func Flatten(docs []models.MoverDocument) []models.MoverEvent {
	var events []models.MoverEvent
	for i := range docs {
		events = append(events, docs[i].Events()...)
	}
	return events
}

// NetChange sums the recorded change per instrument over events whose
// timestamp falls within [now-window, now]. Events with unparseable
// timestamps are skipped. Instruments without qualifying events are absent
// from the result and should be read as a net change of zero.
func NetChange(events []models.MoverEvent, window time.Duration, now time.Time) map[string]float64 {
	net := make(map[string]float64)
	if window < 0 {
		return net
	}
	start := now.Add(-window)
	skipped := 0

	for _, e := range events {
		at, err := models.ParseTimestamp(e.Timestamp)
		if err != nil {
			skipped++
			continue
		}
		if at.Before(start) || at.After(now) {
			continue
		}
		net[e.Ticker] += e.Change
	}

	if skipped > 0 {
		logger.Debug("NetChange: skipped %d events with unparseable timestamps", skipped)
	}
	return net
}

// NetMove is one instrument's aggregated movement, for display.
type NetMove struct {
	Identifier string
	Net        float64
	Direction  models.Direction
}

// RankNet orders net changes by magnitude descending, then by identifier.
func RankNet(net map[string]float64) []NetMove {
	moves := make([]NetMove, 0, len(net))
	for id, v := range net {
		moves = append(moves, NetMove{
			Identifier: id,
			Net:        v,
			Direction:  models.DirectionOf(models.SomeFloat(v)),
		})
	}
	sort.Slice(moves, func(i, j int) bool {
		ai, aj := math.Abs(moves[i].Net), math.Abs(moves[j].Net)
		if ai != aj {
			return ai > aj
		}
		return moves[i].Identifier < moves[j].Identifier
	})
	return moves
}

package monitor

import (
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
)

// DisplayName returns the last hyphen-delimited segment of an identifier,
// e.g. "KXCFP-26-OSU" -> "OSU".
func DisplayName(identifier string) string {
	if identifier == "" {
		return ""
	}
	parts := strings.Split(identifier, "-")
	return parts[len(parts)-1]
}

// SelectedPrice is the single display price of a quote: the yes price when
// present, otherwise the last traded price.
func SelectedPrice(q models.Quote) models.Float {
	if q.YesPrice.Valid() {
		return q.YesPrice
	}
	return q.LastPrice
}

// ValueOf returns the quote's value in the given scale.
func ValueOf(q models.Quote, scale models.Scale) models.Float {
	if scale == models.ScalePoints {
		return SelectedPrice(q)
	}
	return q.Probability
}

// Normalize turns raw records into a Snapshot. Records without an identifier
// are dropped, duplicates keep their first occurrence, and out-of-range values
// are treated as unknown. The result is stably sorted by probability
// descending with unknown probabilities last.
func Normalize(raw []models.RawQuote, takenAt time.Time) models.Snapshot {
	quotes := make([]models.Quote, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	dropped, duplicates := 0, 0

	for i := range raw {
		r := &raw[i]
		if err := r.Validate(); err != nil {
			dropped++
			continue
		}
		id := strings.TrimSpace(r.Ticker)
		if seen[id] {
			duplicates++
			continue
		}
		seen[id] = true

		quotes = append(quotes, models.Quote{
			Identifier:  id,
			DisplayName: DisplayName(id),
			Probability: inRange(r.Probability, 0, 1),
			YesPrice:    inRange(r.YesPrice, 0, 100),
			NoPrice:     inRange(r.NoPrice, 0, 100),
			LastPrice:   inRange(r.LastPrice, 0, 100),
			Volume:      r.Volume,
		})
	}

	if dropped > 0 || duplicates > 0 {
		logger.Debug("Normalize: dropped %d records without ticker, %d duplicates", dropped, duplicates)
	}

	sort.SliceStable(quotes, func(i, j int) bool {
		pi, iok := quotes[i].Probability.Get()
		pj, jok := quotes[j].Probability.Get()
		if iok != jok {
			return iok
		}
		return iok && pi > pj
	})

	return models.NewSnapshot(takenAt, quotes)
}

func inRange(f models.Float, lo, hi float64) models.Float {
	v, ok := f.Get()
	if !ok || v < lo || v > hi {
		return models.Float{}
	}
	return f
}

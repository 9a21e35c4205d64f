// Package models defines the domain records shared by the ticker: upstream
// quotes, normalized snapshots, and the append-only mover log.
//
// Terminology:
//   - Instrument: one tradable outcome market, keyed by its exchange ticker.
//   - Snapshot: one full poll of all instruments at one instant.
//   - Mover event: a recorded change in one instrument's value.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// RawQuote is one instrument record as delivered by the quote source.
// Every field may be missing; Validate reports whether it can be normalized.
type RawQuote struct {
	Ticker      string `json:"ticker"`
	Probability Float  `json:"probability"`
	YesPrice    Float  `json:"yes_price"`
	NoPrice     Float  `json:"no_price"`
	LastPrice   Float  `json:"last_price"`
	Volume      Int    `json:"volume"`
}

// Validate rejects records without an identifier.
func (r *RawQuote) Validate() error {
	if strings.TrimSpace(r.Ticker) == "" {
		return errors.New("ticker must not be empty")
	}
	return nil
}

// Quote is a normalized instrument row of a Snapshot.
type Quote struct {
	Identifier  string
	DisplayName string
	Probability Float // 0–1
	YesPrice    Float // 0–100 points
	NoPrice     Float // 0–100 points
	LastPrice   Float // 0–100 points
	Volume      Int
}

// Validate checks quote field constraints.
func (q *Quote) Validate() error {
	if q.Identifier == "" {
		return errors.New("identifier must not be empty")
	}
	if p, ok := q.Probability.Get(); ok && (p < 0.0 || p > 1.0) {
		return fmt.Errorf("probability %v must be between 0.0 and 1.0", p)
	}
	for name, f := range map[string]Float{"yes_price": q.YesPrice, "no_price": q.NoPrice, "last_price": q.LastPrice} {
		if v, ok := f.Get(); ok && (v < 0 || v > 100) {
			return fmt.Errorf("%s %v must be between 0 and 100", name, v)
		}
	}
	return nil
}

// Raw converts the quote back to its upstream record shape.
func (q Quote) Raw() RawQuote {
	return RawQuote{
		Ticker:      q.Identifier,
		Probability: q.Probability,
		YesPrice:    q.YesPrice,
		NoPrice:     q.NoPrice,
		LastPrice:   q.LastPrice,
		Volume:      q.Volume,
	}
}

// Snapshot is an immutable, ordered set of quotes taken at one instant.
// Quotes are ordered by descending probability, unknown probabilities last.
type Snapshot struct {
	takenAt time.Time
	quotes  []Quote
	index   map[string]int
}

// NewSnapshot copies quotes into a new Snapshot. Callers are responsible for
// ordering; use monitor.Normalize to build one from raw records.
func NewSnapshot(takenAt time.Time, quotes []Quote) Snapshot {
	s := Snapshot{
		takenAt: takenAt,
		quotes:  make([]Quote, len(quotes)),
		index:   make(map[string]int, len(quotes)),
	}
	copy(s.quotes, quotes)
	for i, q := range s.quotes {
		s.index[q.Identifier] = i
	}
	return s
}

// TakenAt returns the poll instant.
func (s Snapshot) TakenAt() time.Time {
	return s.takenAt
}

// Len returns the number of quotes.
func (s Snapshot) Len() int {
	return len(s.quotes)
}

// Quotes returns a copy of the ordered quotes.
func (s Snapshot) Quotes() []Quote {
	out := make([]Quote, len(s.quotes))
	copy(out, s.quotes)
	return out
}

// Lookup returns the quote for an identifier.
func (s Snapshot) Lookup(id string) (Quote, bool) {
	i, ok := s.index[id]
	if !ok {
		return Quote{}, false
	}
	return s.quotes[i], true
}

// Raw returns the snapshot as upstream records, in snapshot order.
func (s Snapshot) Raw() []RawQuote {
	out := make([]RawQuote, len(s.quotes))
	for i, q := range s.quotes {
		out[i] = q.Raw()
	}
	return out
}

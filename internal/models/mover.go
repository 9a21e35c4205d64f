package models

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// Direction classifies a delta.
type Direction string

const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
	DirectionFlat Direction = "flat"
)

// DirectionOf returns up for a positive change, down for negative, and flat
// for zero or unknown.
func DirectionOf(change Float) Direction {
	v, ok := change.Get()
	switch {
	case !ok:
		return DirectionFlat
	case v > 0:
		return DirectionUp
	case v < 0:
		return DirectionDown
	default:
		return DirectionFlat
	}
}

// Scale is the unit a computation diffs in. Values of different scales are
// never compared with each other.
type Scale string

const (
	ScaleProbability Scale = "probability" // 0–1
	ScalePoints      Scale = "points"      // 0–100
)

// ParseScale validates a configured scale name.
func ParseScale(s string) (Scale, error) {
	switch Scale(strings.ToLower(strings.TrimSpace(s))) {
	case ScaleProbability:
		return ScaleProbability, nil
	case ScalePoints:
		return ScalePoints, nil
	default:
		return "", fmt.Errorf("unknown scale %q: must be probability or points", s)
	}
}

// changeTolerance absorbs float rounding when checking change == new - old.
const changeTolerance = 1e-9

// MoverItem is one instrument's recorded change inside a mover document.
type MoverItem struct {
	Ticker string  `json:"ticker"`
	Old    float64 `json:"old"`
	New    float64 `json:"new"`
	Change float64 `json:"change"`
}

// Validate checks that the change is consistent and non-zero.
func (m *MoverItem) Validate() error {
	if m.Ticker == "" {
		return errors.New("mover ticker must not be empty")
	}
	if math.Abs(m.Change-(m.New-m.Old)) > changeTolerance {
		return errors.New("change must equal new - old")
	}
	if m.Change == 0 {
		return errors.New("change must not be zero")
	}
	return nil
}

// MoverDocument is a batch of mover items recorded at one timestamp.
// Documents are append-only; nothing edits or deletes them once written.
type MoverDocument struct {
	ID        string      `json:"id"`
	Timestamp string      `json:"timestamp"`
	Items     []MoverItem `json:"items"`
}

// Validate checks document field constraints.
func (d *MoverDocument) Validate() error {
	if d.ID == "" {
		return errors.New("mover document ID must not be empty")
	}
	if _, err := ParseTimestamp(d.Timestamp); err != nil {
		return fmt.Errorf("mover document timestamp: %w", err)
	}
	if len(d.Items) == 0 {
		return errors.New("mover document must contain at least one item")
	}
	for i := range d.Items {
		if err := d.Items[i].Validate(); err != nil {
			return fmt.Errorf("item %d: %w", i, err)
		}
	}
	return nil
}

// Events flattens the document into per-instrument events.
func (d *MoverDocument) Events() []MoverEvent {
	events := make([]MoverEvent, 0, len(d.Items))
	for _, item := range d.Items {
		events = append(events, MoverEvent{Timestamp: d.Timestamp, MoverItem: item})
	}
	return events
}

// MoverEvent is one recorded change for one instrument at one timestamp.
type MoverEvent struct {
	Timestamp string
	MoverItem
}

// FormatTimestamp renders t the way mover documents store it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// ParseTimestamp parses an ISO-8601 instant. A trailing Z or an explicit
// offset is honored; timestamps without an offset are taken as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t.UTC(), nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparseable timestamp %q", s)
}

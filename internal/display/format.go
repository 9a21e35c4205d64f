// Package display formats snapshots, deltas, and the mover log for the
// terminal dashboard.
package display

import (
	"fmt"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// ProbPct converts a probability to a percentage rounded to one decimal.
func ProbPct(p models.Float) (decimal.Decimal, bool) {
	v, ok := p.Get()
	if !ok {
		return decimal.Zero, false
	}
	return decimal.NewFromFloat(v).Mul(hundred).Round(1), true
}

// ProbText renders a probability as "45.0%", or "--" when unknown.
func ProbText(p models.Float) string {
	pct, ok := ProbPct(p)
	if !ok {
		return "--"
	}
	return pct.StringFixed(1) + "%"
}

// DeltaText renders a change as "+5.0%", "-2.5%" or "0.0%" in the
// probability scale and "+2.0 pts" in the points scale. An unknown change
// renders as the empty string.
func DeltaText(change models.Float, scale models.Scale) string {
	v, ok := change.Get()
	if !ok {
		return ""
	}
	d := decimal.NewFromFloat(v)
	unit := " pts"
	if scale != models.ScalePoints {
		d = d.Mul(hundred)
		unit = "%"
	}
	d = d.Round(1)

	sign := ""
	if v > 0 {
		sign = "+"
	}
	if d.IsZero() {
		sign = ""
		d = decimal.Zero
	}
	return sign + d.StringFixed(1) + unit
}

// ValueText renders a value in its scale: a percentage for probabilities,
// a price for points.
func ValueText(v models.Float, scale models.Scale) string {
	if scale == models.ScalePoints {
		return PriceText(v)
	}
	return ProbText(v)
}

// PriceText renders a 0-100 point price, or "--" when unknown.
func PriceText(p models.Float) string {
	v, ok := p.Get()
	if !ok {
		return "--"
	}
	return decimal.NewFromFloat(v).Round(2).String()
}

// NumberText renders a raw mover value with at most four decimals.
func NumberText(v float64) string {
	return decimal.NewFromFloat(v).Round(4).String()
}

// Arrow returns the ticker glyph for a direction.
func Arrow(d models.Direction) string {
	switch d {
	case models.DirectionUp:
		return "▲"
	case models.DirectionDown:
		return "▼"
	default:
		return ""
	}
}

// MoverLabel classifies a recorded change for the movers table.
func MoverLabel(change float64) string {
	switch {
	case change > 0:
		return "🟢 UP"
	case change < 0:
		return "🔴 DOWN"
	default:
		return "⚪ FLAT"
	}
}

// PrettyTime converts a mover timestamp to a relative label in loc:
//   - same calendar day as now: "7:32 PM"
//   - within the last 7 days: "Sat 7:32 PM"
//   - older: "Nov 15, 7:32 PM"
//
// Malformed timestamps are returned unchanged.
func PrettyTime(ts string, now time.Time, loc *time.Location) string {
	t, err := models.ParseTimestamp(ts)
	if err != nil {
		return ts
	}
	if loc == nil {
		loc = time.UTC
	}
	t, now = t.In(loc), now.In(loc)

	ty, tm, td := t.Date()
	ny, nm, nd := now.Date()
	if ty == ny && tm == nm && td == nd {
		return t.Format("3:04 PM")
	}
	if diff := now.Sub(t); diff >= 0 && diff < 7*24*time.Hour {
		return t.Format("Mon 3:04 PM")
	}
	return t.Format("Jan 2, 3:04 PM")
}

// WindowText renders an aggregation window, e.g. "6h" or "90m".
func WindowText(d time.Duration) string {
	switch {
	case d >= time.Hour && d%time.Hour == 0:
		return fmt.Sprintf("%dh", d/time.Hour)
	case d >= time.Minute && d%time.Minute == 0:
		return fmt.Sprintf("%dm", d/time.Minute)
	default:
		return d.String()
	}
}

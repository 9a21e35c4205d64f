package display

import (
	"sort"
	"strings"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/rewired-gh/oddsticker/internal/monitor"
	"github.com/shopspring/decimal"
)

// TickerRow is one item of the scrolling ticker.
type TickerRow struct {
	Name      string
	Value     string
	Delta     string
	Arrow     string
	Direction models.Direction
}

// MoverRow is one recorded change in the recent movers table.
type MoverRow struct {
	Time   string
	Name   string
	Old    string
	New    string
	Change string
	Label  string
}

// NetRow is one instrument's aggregated movement over the window.
type NetRow struct {
	Name      string
	Net       string
	Arrow     string
	Direction models.Direction
}

// PriceRow is one line of the current prices table.
type PriceRow struct {
	Name        string
	Probability string
	Price       string
}

// View is everything the dashboard shows for one cycle.
type View struct {
	Title     string
	UpdatedAt string
	Window    string
	Ticker    []TickerRow
	Movers    []MoverRow
	Net       []NetRow
	Prices    []PriceRow
}

// Input gathers the results of one cycle for BuildView.
type Input struct {
	Title    string
	Snapshot models.Snapshot
	Deltas   []monitor.Delta
	Recent   []models.MoverDocument // newest first
	Net      map[string]float64
	Scale    models.Scale
	Window   time.Duration
	Now      time.Time
	Location *time.Location
}

// BuildView assembles the dashboard rows. It does not reorder the ticker or
// the mover log; only the prices table is sorted here.
func BuildView(in Input) View {
	loc := in.Location
	if loc == nil {
		loc = time.UTC
	}
	v := View{
		Title:     in.Title,
		UpdatedAt: in.Snapshot.TakenAt().In(loc).Format("Jan 2, 3:04:05 PM MST"),
		Window:    WindowText(in.Window),
	}

	byID := make(map[string]monitor.Delta, len(in.Deltas))
	for _, d := range in.Deltas {
		byID[d.Identifier] = d
	}

	for _, q := range in.Snapshot.Quotes() {
		row := TickerRow{
			Name:      q.DisplayName,
			Value:     ValueText(monitor.ValueOf(q, in.Scale), in.Scale),
			Direction: models.DirectionFlat,
		}
		if d, ok := byID[q.Identifier]; ok {
			row.Delta = DeltaText(d.Change, in.Scale)
			row.Direction = d.Direction
			row.Arrow = Arrow(d.Direction)
		}
		v.Ticker = append(v.Ticker, row)
	}

	for _, doc := range in.Recent {
		if strings.TrimSpace(doc.Timestamp) == "" {
			continue
		}
		when := PrettyTime(doc.Timestamp, in.Now, loc)
		for _, item := range doc.Items {
			v.Movers = append(v.Movers, MoverRow{
				Time:   when,
				Name:   monitor.DisplayName(item.Ticker),
				Old:    NumberText(item.Old),
				New:    NumberText(item.New),
				Change: NumberText(item.Change),
				Label:  MoverLabel(item.Change),
			})
		}
	}

	for _, m := range monitor.RankNet(in.Net) {
		v.Net = append(v.Net, NetRow{
			Name:      monitor.DisplayName(m.Identifier),
			Net:       DeltaText(models.SomeFloat(m.Net), in.Scale),
			Arrow:     Arrow(m.Direction),
			Direction: m.Direction,
		})
	}

	v.Prices = priceRows(in.Snapshot)
	return v
}

// priceRows lists every quote by rounded probability percentage descending,
// unknown probabilities last.
func priceRows(snap models.Snapshot) []PriceRow {
	type entry struct {
		row PriceRow
		pct decimal.Decimal
		ok  bool
	}
	quotes := snap.Quotes()
	entries := make([]entry, 0, len(quotes))
	for _, q := range quotes {
		pct, ok := ProbPct(q.Probability)
		row := PriceRow{
			Name:        q.DisplayName,
			Probability: "--",
			Price:       PriceText(monitor.SelectedPrice(q)),
		}
		if ok {
			row.Probability = pct.StringFixed(1)
		}
		entries = append(entries, entry{row: row, pct: pct, ok: ok})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].ok != entries[j].ok {
			return entries[i].ok
		}
		return entries[i].ok && entries[i].pct.GreaterThan(entries[j].pct)
	})

	rows := make([]PriceRow, len(entries))
	for i, e := range entries {
		rows[i] = e.row
	}
	return rows
}

package display

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/rewired-gh/oddsticker/internal/monitor"
)

func TestProbText(t *testing.T) {
	tests := []struct {
		input models.Float
		want  string
	}{
		{models.Float{}, "--"},
		{models.SomeFloat(0.45), "45.0%"},
		{models.SomeFloat(0), "0.0%"},
		{models.SomeFloat(1), "100.0%"},
		{models.SomeFloat(0.1234), "12.3%"},
	}
	for _, tt := range tests {
		if got := ProbText(tt.input); got != tt.want {
			t.Errorf("ProbText(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestProbPct(t *testing.T) {
	if _, ok := ProbPct(models.Float{}); ok {
		t.Error("expected absent for unknown probability")
	}
	pct, ok := ProbPct(models.SomeFloat(0.4567))
	if !ok || pct.String() != "45.7" {
		t.Errorf("ProbPct(0.4567) = %v/%v, want 45.7", pct, ok)
	}
}

func TestDeltaText(t *testing.T) {
	tests := []struct {
		name   string
		change models.Float
		scale  models.Scale
		want   string
	}{
		{"unknown", models.Float{}, models.ScaleProbability, ""},
		{"zero", models.SomeFloat(0), models.ScaleProbability, "0.0%"},
		{"up", models.SomeFloat(0.05), models.ScaleProbability, "+5.0%"},
		{"down", models.SomeFloat(-0.025), models.ScaleProbability, "-2.5%"},
		{"points up", models.SomeFloat(2), models.ScalePoints, "+2.0 pts"},
		{"points down", models.SomeFloat(-0.5), models.ScalePoints, "-0.5 pts"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DeltaText(tt.change, tt.scale); got != tt.want {
				t.Errorf("DeltaText() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestPriceText(t *testing.T) {
	tests := []struct {
		input models.Float
		want  string
	}{
		{models.Float{}, "--"},
		{models.SomeFloat(45), "45"},
		{models.SomeFloat(52.5), "52.5"},
	}
	for _, tt := range tests {
		if got := PriceText(tt.input); got != tt.want {
			t.Errorf("PriceText(%v) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestArrowAndLabel(t *testing.T) {
	if Arrow(models.DirectionUp) != "▲" || Arrow(models.DirectionDown) != "▼" || Arrow(models.DirectionFlat) != "" {
		t.Error("unexpected arrow glyphs")
	}
	if MoverLabel(1) != "🟢 UP" || MoverLabel(-1) != "🔴 DOWN" || MoverLabel(0) != "⚪ FLAT" {
		t.Error("unexpected mover labels")
	}
}

func TestPrettyTime(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("time zone data unavailable: %v", err)
	}
	// Thursday, Nov 20 2025, 2:00 PM in New York.
	now := time.Date(2025, 11, 20, 19, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		ts   string
		want string
	}{
		{"same day", "2025-11-20T12:32:00Z", "7:32 AM"},
		{"same day naive utc", "2025-11-20T17:05:00", "12:05 PM"},
		{"previous local day", "2025-11-20T03:00:00Z", "Wed 10:00 PM"},
		{"within week", "2025-11-15T23:32:00Z", "Sat 6:32 PM"},
		{"older", "2025-11-10T00:32:00Z", "Nov 9, 7:32 PM"},
		{"malformed", "not-a-time", "not-a-time"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := PrettyTime(tt.ts, now, ny); got != tt.want {
				t.Errorf("PrettyTime(%q) = %q, want %q", tt.ts, got, tt.want)
			}
		})
	}
}

func TestWindowText(t *testing.T) {
	tests := map[time.Duration]string{
		6 * time.Hour:    "6h",
		90 * time.Minute: "90m",
		45 * time.Second: "45s",
	}
	for d, want := range tests {
		if got := WindowText(d); got != want {
			t.Errorf("WindowText(%v) = %q, want %q", d, got, want)
		}
	}
}

func testInput() Input {
	now := time.Date(2025, 11, 20, 19, 0, 0, 0, time.UTC)
	raw := []models.RawQuote{
		{Ticker: "KXCFP-26-UGA", Probability: models.SomeFloat(0.30), LastPrice: models.SomeFloat(31)},
		{Ticker: "KXCFP-26-OSU", Probability: models.SomeFloat(0.45), YesPrice: models.SomeFloat(45)},
		{Ticker: "KXCFP-26-TBD"},
	}
	snap := monitor.Normalize(raw, now)
	deltas, _ := monitor.ComputeDeltas(snap,
		monitor.StateFrom(models.ScaleProbability, map[string]float64{"KXCFP-26-OSU": 0.40, "KXCFP-26-UGA": 0.30}),
		models.ScaleProbability)

	return Input{
		Title:    "CFP Playoff Odds",
		Snapshot: snap,
		Deltas:   deltas,
		Recent: []models.MoverDocument{
			{ID: "2", Timestamp: "2025-11-20T18:30:00Z", Items: []models.MoverItem{{Ticker: "KXCFP-26-OSU", Old: 0.4, New: 0.45, Change: 0.05}}},
			{ID: "skip", Timestamp: "", Items: []models.MoverItem{{Ticker: "KXCFP-26-X", Old: 0, New: 1, Change: 1}}},
			{ID: "1", Timestamp: "2025-11-20T18:00:00Z", Items: []models.MoverItem{{Ticker: "KXCFP-26-UGA", Old: 0.35, New: 0.3, Change: -0.05}}},
		},
		Net:      map[string]float64{"KXCFP-26-OSU": 0.05, "KXCFP-26-UGA": -0.08},
		Scale:    models.ScaleProbability,
		Window:   6 * time.Hour,
		Now:      now,
		Location: time.UTC,
	}
}

func TestBuildView(t *testing.T) {
	v := BuildView(testInput())

	if len(v.Ticker) != 3 {
		t.Fatalf("ticker rows = %d, want 3", len(v.Ticker))
	}
	osu := v.Ticker[0]
	if osu.Name != "OSU" || osu.Value != "45.0%" || osu.Delta != "+5.0%" || osu.Arrow != "▲" {
		t.Errorf("OSU row = %+v", osu)
	}
	uga := v.Ticker[1]
	if uga.Delta != "0.0%" || uga.Direction != models.DirectionFlat || uga.Arrow != "" {
		t.Errorf("UGA row = %+v", uga)
	}
	tbd := v.Ticker[2]
	if tbd.Value != "--" || tbd.Delta != "" {
		t.Errorf("TBD row = %+v", tbd)
	}

	if len(v.Movers) != 2 {
		t.Fatalf("mover rows = %d, want 2", len(v.Movers))
	}
	if v.Movers[0].Name != "OSU" || v.Movers[0].Time != "6:30 PM" || v.Movers[0].Label != "🟢 UP" {
		t.Errorf("first mover = %+v", v.Movers[0])
	}
	if v.Movers[1].Change != "-0.05" || v.Movers[1].Label != "🔴 DOWN" {
		t.Errorf("second mover = %+v", v.Movers[1])
	}

	if len(v.Net) != 2 || v.Net[0].Name != "UGA" || v.Net[0].Net != "-8.0%" {
		t.Errorf("net rows = %+v", v.Net)
	}
	if v.Window != "6h" {
		t.Errorf("window = %q", v.Window)
	}

	wantPrices := []PriceRow{
		{Name: "OSU", Probability: "45.0", Price: "45"},
		{Name: "UGA", Probability: "30.0", Price: "31"},
		{Name: "TBD", Probability: "--", Price: "--"},
	}
	for i, want := range wantPrices {
		if v.Prices[i] != want {
			t.Errorf("prices[%d] = %+v, want %+v", i, v.Prices[i], want)
		}
	}
}

func TestRender(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, BuildView(testInput()), Options{NoColor: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{"CFP Playoff Odds", "OSU", "▲ +5.0%", "Recent Movers", "🔴 DOWN", "Net Movers (6h)", "probability (%)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("NoColor output contains escape codes")
	}
}

func TestRender_EmptyStates(t *testing.T) {
	var buf bytes.Buffer
	v := BuildView(Input{Snapshot: monitor.Normalize(nil, time.Now()), Scale: models.ScaleProbability, Window: time.Hour})
	if err := Render(&buf, v, Options{ClearScreen: true}); err != nil {
		t.Fatalf("Render: %v", err)
	}
	out := buf.String()

	if !strings.HasPrefix(out, ClearScreen) {
		t.Error("expected clear-screen prefix")
	}
	for _, want := range []string{"No markets in snapshot.", "No movers yet.", "No movement in window."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

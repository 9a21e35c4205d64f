package display

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/rewired-gh/oddsticker/internal/models"
)

// ANSI escape codes
const (
	ClearScreen = "\033[2J\033[H"

	Reset = "\033[0m"
	Bold  = "\033[1m"
	Dim   = "\033[2m"

	FgRed   = "\033[31m"
	FgGreen = "\033[32m"
	FgCyan  = "\033[36m"
	FgGrey  = "\033[90m"
)

const ruleWidth = 64

// Options controls terminal output.
type Options struct {
	ClearScreen bool
	NoColor     bool
}

// Render writes the dashboard for one view.
func Render(w io.Writer, v View, opts Options) error {
	var buf strings.Builder
	r := renderer{buf: &buf, color: !opts.NoColor}

	if opts.ClearScreen {
		buf.WriteString(ClearScreen)
	}

	r.header(v)
	r.ticker(v.Ticker)
	r.movers(v.Movers)
	r.net(v)
	r.prices(v.Prices)

	_, err := io.WriteString(w, buf.String())
	return err
}

type renderer struct {
	buf   *strings.Builder
	color bool
}

func (r renderer) paint(code, s string) string {
	if !r.color || s == "" {
		return s
	}
	return code + s + Reset
}

func (r renderer) directionColor(d models.Direction) string {
	switch d {
	case models.DirectionUp:
		return FgGreen
	case models.DirectionDown:
		return FgRed
	default:
		return FgGrey
	}
}

func (r renderer) section(title string) {
	fmt.Fprintf(r.buf, "\n%s\n%s\n", r.paint(Bold, title), strings.Repeat("─", ruleWidth))
}

func (r renderer) empty(msg string) {
	fmt.Fprintf(r.buf, "  %s\n", r.paint(Dim, msg))
}

func (r renderer) header(v View) {
	title := v.Title
	if title == "" {
		title = "Odds Ticker"
	}
	fmt.Fprintf(r.buf, "%s\n", r.paint(Bold+FgCyan, title))
	fmt.Fprintf(r.buf, "%s\n", r.paint(Dim, "Updated "+v.UpdatedAt))
}

func (r renderer) ticker(rows []TickerRow) {
	r.section("📈 Live Ticker")
	if len(rows) == 0 {
		r.empty("No markets in snapshot.")
		return
	}
	for _, row := range rows {
		change := strings.TrimSpace(row.Arrow + " " + row.Delta)
		fmt.Fprintf(r.buf, "  %s %s %s\n",
			pad(strings.ToUpper(row.Name), 12),
			pad(row.Value, 8),
			r.paint(r.directionColor(row.Direction), change),
		)
	}
}

func (r renderer) movers(rows []MoverRow) {
	r.section("🔥 Recent Movers")
	if len(rows) == 0 {
		r.empty("No movers yet.")
		return
	}
	fmt.Fprintf(r.buf, "  %s %s %s %s %s %s\n",
		pad("time", 16), pad("team", 10), pad("old", 8), pad("new", 8), pad("change", 8), "direction")
	for _, row := range rows {
		fmt.Fprintf(r.buf, "  %s %s %s %s %s %s\n",
			pad(row.Time, 16), pad(row.Name, 10), pad(row.Old, 8), pad(row.New, 8), pad(row.Change, 8),
			row.Label,
		)
	}
}

func (r renderer) net(v View) {
	r.section("📊 Net Movers (" + v.Window + ")")
	if len(v.Net) == 0 {
		r.empty("No movement in window.")
		return
	}
	for _, row := range v.Net {
		change := strings.TrimSpace(row.Arrow + " " + row.Net)
		fmt.Fprintf(r.buf, "  %s %s\n", pad(row.Name, 12), r.paint(r.directionColor(row.Direction), change))
	}
}

func (r renderer) prices(rows []PriceRow) {
	r.section("💵 Current Prices")
	if len(rows) == 0 {
		r.empty("No markets in snapshot.")
		return
	}
	fmt.Fprintf(r.buf, "  %s %s %s\n", pad("team", 12), pad("probability (%)", 16), "price")
	for _, row := range rows {
		fmt.Fprintf(r.buf, "  %s %s %s\n", pad(row.Name, 12), pad(row.Probability, 16), row.Price)
	}
}

// pad right-pads s to width runes.
func pad(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}

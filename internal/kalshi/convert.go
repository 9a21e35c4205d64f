package kalshi

import (
	"strings"

	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/shopspring/decimal"
)

var (
	hundred = decimal.NewFromInt(100)
	two     = decimal.NewFromInt(2)
)

// DollarsToPoints converts a dollar price string to points.
// "0.52" -> 52, "0.5250" -> 52.5. Empty or invalid input is reported as absent.
func DollarsToPoints(dollars string) (decimal.Decimal, bool) {
	dollars = strings.TrimSpace(dollars)
	if dollars == "" {
		return decimal.Zero, false
	}
	d, err := decimal.NewFromString(dollars)
	if err != nil {
		return decimal.Zero, false
	}
	return d.Mul(hundred), true
}

// price picks the dollar string when present, otherwise the cent field.
func price(cents int, dollars string) decimal.Decimal {
	if p, ok := DollarsToPoints(dollars); ok {
		return p
	}
	return decimal.NewFromInt(int64(cents))
}

// quoted reports whether a side carries a live order. A bid of 0 and an ask
// of 100 are the exchange's placeholders for an empty book side.
func quoted(p decimal.Decimal) bool {
	return p.IsPositive() && p.LessThan(hundred)
}

// sidePrice is the midpoint of bid and ask, or whichever side is quoted.
func sidePrice(bid, ask decimal.Decimal) (decimal.Decimal, bool) {
	hasBid, hasAsk := quoted(bid), quoted(ask)
	switch {
	case hasBid && hasAsk:
		return bid.Add(ask).Div(two), true
	case hasBid:
		return bid, true
	case hasAsk:
		return ask, true
	default:
		return decimal.Zero, false
	}
}

func toFloat(d decimal.Decimal, ok bool) models.Float {
	if !ok {
		return models.Float{}
	}
	return models.SomeFloat(d.InexactFloat64())
}

// ToRawQuote converts a market listing to a quote record in points. The
// probability is derived from the yes price, or the last trade when the
// yes side has no quotes.
func ToRawQuote(m APIMarket) models.RawQuote {
	yes, yesOK := sidePrice(price(m.YesBid, m.YesBidDollars), price(m.YesAsk, m.YesAskDollars))
	no, noOK := sidePrice(price(m.NoBid, m.NoBidDollars), price(m.NoAsk, m.NoAskDollars))
	last := price(m.LastPrice, m.LastPriceDollars)
	lastOK := last.IsPositive()

	q := models.RawQuote{
		Ticker:    m.Ticker,
		YesPrice:  toFloat(yes, yesOK),
		NoPrice:   toFloat(no, noOK),
		LastPrice: toFloat(last, lastOK),
		Volume:    models.SomeInt(m.Volume),
	}

	switch {
	case yesOK:
		q.Probability = toFloat(yes.Div(hundred), true)
	case lastOK:
		q.Probability = toFloat(last.Div(hundred), true)
	}
	return q
}

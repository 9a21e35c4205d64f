// Package polymarket reads one Polymarket event from the Gamma API and turns
// its outcome markets into quote records.
package polymarket

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
	"unicode"

	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/shopspring/decimal"
)

// DefaultGammaAPIURL is the public Gamma API endpoint.
const DefaultGammaAPIURL = "https://gamma-api.polymarket.com"

// Client provides access to Polymarket API
type Client struct {
	gammaAPIURL    string
	httpClient     *http.Client
	maxRetries     int
	retryDelayBase time.Duration
}

// Event represents an event from Polymarket Gamma API
type Event struct {
	ID      string   `json:"id"`
	Slug    string   `json:"slug"`
	Title   string   `json:"title"`
	Active  bool     `json:"active"`
	Closed  bool     `json:"closed"`
	Markets []Market `json:"markets"`
}

// Market represents one outcome market of an event
type Market struct {
	ID             string  `json:"id"`
	Slug           string  `json:"slug"`
	Question       string  `json:"question"`
	GroupItemTitle string  `json:"groupItemTitle"`
	Outcomes       string  `json:"outcomes"`      // JSON string: "[\"Yes\", \"No\"]"
	OutcomePrices  string  `json:"outcomePrices"` // JSON string: "[\"0.75\", \"0.25\"]"
	LastTradePrice float64 `json:"lastTradePrice"`
	VolumeNum      float64 `json:"volumeNum"`
	Closed         bool    `json:"closed"`
}

// NewClient creates a new Polymarket client
func NewClient(gammaAPIURL string, timeout time.Duration, maxRetries int, retryDelayBase time.Duration) *Client {
	if gammaAPIURL == "" {
		gammaAPIURL = DefaultGammaAPIURL
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if retryDelayBase <= 0 {
		retryDelayBase = time.Second
	}
	return &Client{
		gammaAPIURL: strings.TrimRight(gammaAPIURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		maxRetries:     maxRetries,
		retryDelayBase: retryDelayBase,
	}
}

// FetchEvent retrieves one event with its markets by slug.
func (c *Client) FetchEvent(ctx context.Context, slug string) (*Event, error) {
	u, err := url.Parse(c.gammaAPIURL + "/events")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	q.Set("slug", slug)
	u.RawQuery = q.Encode()

	body, err := c.doRequest(ctx, u.String())
	if err != nil {
		return nil, fmt.Errorf("failed to fetch event %s: %w", slug, err)
	}

	// Response is array directly, not wrapped
	var events []Event
	if err := json.Unmarshal(body, &events); err != nil {
		return nil, fmt.Errorf("failed to decode events: %w", err)
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("event %s not found", slug)
	}
	return &events[0], nil
}

// FetchQuotes retrieves an event and converts its open markets to quotes.
func (c *Client) FetchQuotes(ctx context.Context, slug string) ([]models.RawQuote, error) {
	event, err := c.FetchEvent(ctx, slug)
	if err != nil {
		return nil, err
	}

	quotes := make([]models.RawQuote, 0, len(event.Markets))
	for _, m := range event.Markets {
		if m.Closed {
			continue
		}
		quotes = append(quotes, ToRawQuote(event.Slug, m))
	}
	logger.Debug("Polymarket: fetched %d open markets of %s", len(quotes), slug)
	return quotes, nil
}

// ToRawQuote converts an outcome market to a quote record. Prices are in
// points; the probability is the Yes price. The identifier is the event slug
// followed by the market's group title, so the display name is the outcome.
func ToRawQuote(eventSlug string, m Market) models.RawQuote {
	q := models.RawQuote{Ticker: Identifier(eventSlug, m)}

	if yes, no, err := parseOutcomePrices(m); err == nil {
		if yes != nil {
			q.Probability = models.SomeFloat(yes.InexactFloat64())
			q.YesPrice = models.SomeFloat(yes.Mul(hundred).InexactFloat64())
		}
		if no != nil {
			q.NoPrice = models.SomeFloat(no.Mul(hundred).InexactFloat64())
		}
	}
	if m.LastTradePrice > 0 {
		q.LastPrice = models.SomeFloat(decimal.NewFromFloat(m.LastTradePrice).Mul(hundred).InexactFloat64())
	}
	if m.VolumeNum > 0 {
		q.Volume = models.SomeInt(int64(m.VolumeNum))
	}
	return q
}

// Identifier builds a hyphen-delimited identifier whose last segment names
// the outcome, e.g. "college-football-champion-OHIOSTATE".
func Identifier(eventSlug string, m Market) string {
	name := m.GroupItemTitle
	if name == "" {
		name = m.ID
	}
	var b strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(unicode.ToUpper(r))
		}
	}
	outcome := b.String()
	if outcome == "" {
		outcome = m.ID
	}
	if eventSlug == "" {
		return outcome
	}
	return eventSlug + "-" + outcome
}

var hundred = decimal.NewFromInt(100)

// parseOutcomePrices extracts the Yes and No prices (0-1) of a market.
func parseOutcomePrices(market Market) (yes, no *decimal.Decimal, err error) {
	var outcomes []string
	if err := json.Unmarshal([]byte(market.Outcomes), &outcomes); err != nil {
		return nil, nil, fmt.Errorf("failed to parse outcomes: %w", err)
	}
	var outcomePrices []string
	if err := json.Unmarshal([]byte(market.OutcomePrices), &outcomePrices); err != nil {
		return nil, nil, fmt.Errorf("failed to parse outcome prices: %w", err)
	}

	for i, outcome := range outcomes {
		if i >= len(outcomePrices) {
			break
		}
		price, err := decimal.NewFromString(strings.TrimSpace(outcomePrices[i]))
		if err != nil {
			continue
		}
		switch outcome {
		case "Yes":
			yes = &price
		case "No":
			no = &price
		}
	}
	return yes, no, nil
}

// doRequest performs a GET with linear-backoff retry on transport and 5xx errors.
func (c *Client) doRequest(ctx context.Context, urlStr string) ([]byte, error) {
	var lastErr error

	for i := 0; i < c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.retryDelayBase * time.Duration(i)):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		body, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 500:
			lastErr = fmt.Errorf("server error: %d", resp.StatusCode)
			continue
		case resp.StatusCode >= 400:
			return nil, fmt.Errorf("client error: %d", resp.StatusCode)
		case readErr != nil:
			lastErr = readErr
			continue
		}
		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}

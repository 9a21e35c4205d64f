package kalshi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
)

// maxPageSize is the largest page the markets endpoint serves.
const maxPageSize = 1000

// GetMarkets fetches one page of markets.
func (c *Client) GetMarkets(ctx context.Context, opts GetMarketsOptions) (*MarketsResponse, error) {
	query := url.Values{}
	if opts.Limit > 0 {
		query.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		query.Set("cursor", opts.Cursor)
	}
	if opts.EventTicker != "" {
		query.Set("event_ticker", opts.EventTicker)
	}
	if opts.SeriesTicker != "" {
		query.Set("series_ticker", opts.SeriesTicker)
	}
	if len(opts.Tickers) > 0 {
		query.Set("tickers", strings.Join(opts.Tickers, ","))
	}
	if opts.Status != "" {
		query.Set("status", opts.Status)
	}

	var resp MarketsResponse
	if err := c.get(ctx, "/markets", query, &resp); err != nil {
		return nil, fmt.Errorf("get markets: %w", err)
	}
	return &resp, nil
}

// GetAllMarkets follows the cursor until every matching market is fetched.
func (c *Client) GetAllMarkets(ctx context.Context, opts GetMarketsOptions) ([]APIMarket, error) {
	var all []APIMarket
	if opts.Limit <= 0 || opts.Limit > maxPageSize {
		opts.Limit = maxPageSize
	}
	opts.Cursor = ""

	for {
		resp, err := c.GetMarkets(ctx, opts)
		if err != nil {
			return nil, err
		}
		all = append(all, resp.Markets...)

		if resp.Cursor == "" || resp.Cursor == opts.Cursor {
			break
		}
		opts.Cursor = resp.Cursor
	}

	return all, nil
}

// FetchQuotes fetches every matching market and converts it to a quote
// record. A failed fetch returns an error, never a partial list.
func (c *Client) FetchQuotes(ctx context.Context, opts GetMarketsOptions) ([]models.RawQuote, error) {
	markets, err := c.GetAllMarkets(ctx, opts)
	if err != nil {
		return nil, err
	}

	quotes := make([]models.RawQuote, 0, len(markets))
	for _, m := range markets {
		quotes = append(quotes, ToRawQuote(m))
	}
	logger.Debug("Kalshi: fetched %d markets", len(quotes))
	return quotes, nil
}

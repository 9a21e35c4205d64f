package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rewired-gh/oddsticker/internal/kalshi"
	"github.com/rewired-gh/oddsticker/internal/logger"
	"github.com/rewired-gh/oddsticker/internal/models"
	"github.com/rewired-gh/oddsticker/internal/polymarket"
	"github.com/rewired-gh/oddsticker/internal/storage"
)

// quoteSource produces the raw records of one poll. An error means the poll
// failed and the cycle must be skipped; an empty slice is a valid poll.
type quoteSource interface {
	Fetch(ctx context.Context) ([]models.RawQuote, error)
	Name() string
}

// storeSource reads the current snapshot document written by another process.
type storeSource struct {
	store *storage.Storage
}

func (s *storeSource) Name() string { return "store" }

func (s *storeSource) Fetch(ctx context.Context) ([]models.RawQuote, error) {
	markets, updatedAt, err := s.store.GetCurrent()
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("no current snapshot in store: %w", err)
	}
	if err != nil {
		return nil, err
	}
	logger.Debug("Read %d markets from store (written %v ago)", len(markets), time.Since(updatedAt).Round(time.Second))
	return markets, nil
}

// kalshiSource fetches quotes from the exchange and publishes them as the
// current snapshot document so store-mode readers see the same data.
type kalshiSource struct {
	client *kalshi.Client
	store  *storage.Storage
	opts   kalshi.GetMarketsOptions
}

func (s *kalshiSource) Name() string { return "kalshi" }

func (s *kalshiSource) Fetch(ctx context.Context) ([]models.RawQuote, error) {
	quotes, err := s.client.FetchQuotes(ctx, s.opts)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutCurrent(quotes, time.Now()); err != nil {
		logger.Warn("Failed to publish current snapshot: %v", err)
	}
	return quotes, nil
}

// polymarketSource fetches one Gamma event and publishes it like kalshiSource.
type polymarketSource struct {
	client    *polymarket.Client
	store     *storage.Storage
	eventSlug string
}

func (s *polymarketSource) Name() string { return "polymarket" }

func (s *polymarketSource) Fetch(ctx context.Context) ([]models.RawQuote, error) {
	quotes, err := s.client.FetchQuotes(ctx, s.eventSlug)
	if err != nil {
		return nil, err
	}
	if err := s.store.PutCurrent(quotes, time.Now()); err != nil {
		logger.Warn("Failed to publish current snapshot: %v", err)
	}
	return quotes, nil
}

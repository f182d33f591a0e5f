// Package history exposes the authenticated user's past signals.
package history

import (
	"context"
	"sync"

	"aitrader/internal/signal"
)

// Fetcher is the slice of the backend API the store needs.
type Fetcher interface {
	History(ctx context.Context) ([]signal.HistorySignal, error)
}

// Store fetches the signal history once and serves it from memory after
// that. Refresh discards the cache so the next read hits the backend again.
type Store struct {
	fetcher Fetcher

	mu      sync.Mutex
	loaded  bool
	signals []signal.HistorySignal
}

func NewStore(fetcher Fetcher) *Store {
	return &Store{fetcher: fetcher}
}

// Signals returns the ordered history, fetching it on first use.
func (s *Store) Signals(ctx context.Context) ([]signal.HistorySignal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.loaded {
		return s.signals, nil
	}

	signals, err := s.fetcher.History(ctx)
	if err != nil {
		return nil, err
	}
	s.signals = signals
	s.loaded = true
	return signals, nil
}

// Refresh drops the cached list.
func (s *Store) Refresh() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loaded = false
	s.signals = nil
}

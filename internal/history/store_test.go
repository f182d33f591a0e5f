package history

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aitrader/internal/signal"
)

type fakeFetcher struct {
	calls   int
	signals []signal.HistorySignal
	err     error
}

func (f *fakeFetcher) History(ctx context.Context) ([]signal.HistorySignal, error) {
	f.calls++
	return f.signals, f.err
}

func TestSignalsFetchesOnceAndCaches(t *testing.T) {
	fetcher := &fakeFetcher{signals: []signal.HistorySignal{
		{Analysis: signal.Analysis{Symbol: "BTC/USDT", Direction: signal.Long}, Status: signal.StatusActive},
	}}
	store := NewStore(fetcher)

	first, err := store.Signals(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)

	second, err := store.Signals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, fetcher.calls)
}

func TestSignalsDoesNotCacheFailures(t *testing.T) {
	fetcher := &fakeFetcher{err: errors.New("boom")}
	store := NewStore(fetcher)

	_, err := store.Signals(context.Background())
	require.Error(t, err)

	fetcher.err = nil
	_, err = store.Signals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

func TestRefreshDropsCache(t *testing.T) {
	fetcher := &fakeFetcher{}
	store := NewStore(fetcher)

	_, err := store.Signals(context.Background())
	require.NoError(t, err)

	store.Refresh()

	_, err = store.Signals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, fetcher.calls)
}

package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aitrader/internal/api"
	"aitrader/internal/signal"
	"aitrader/internal/strategy"
)

// fakeTransport records call order and lets tests gate the analyze call.
type fakeTransport struct {
	mu          sync.Mutex
	calls       []string
	activeCount int
	probeErr    error
	outcome     signal.Outcome
	analyzeErr  error
	gate        chan struct{} // when set, Analyze blocks until closed
}

func (f *fakeTransport) ActiveAnalyses(ctx context.Context) (int, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "probe")
	f.mu.Unlock()
	return f.activeCount, f.probeErr
}

func (f *fakeTransport) Analyze(ctx context.Context, pair string, strategyKey strategy.Key) (signal.Outcome, error) {
	f.mu.Lock()
	f.calls = append(f.calls, "analyze")
	gate := f.gate
	f.mu.Unlock()
	if gate != nil {
		<-gate
	}
	return f.outcome, f.analyzeErr
}

func (f *fakeTransport) callOrder() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func planOutcome(symbol string) signal.Outcome {
	return signal.Outcome{Analysis: &signal.Analysis{Symbol: symbol, Direction: signal.Long}}
}

func newTestController(transport Transport, opts ...ControllerOption) *Controller {
	return NewController(NewOrchestrator(transport), opts...)
}

func waitForStage(t *testing.T, c *Controller, stage Stage) {
	t.Helper()
	require.Eventually(t, func() bool {
		return c.Snapshot().Stage == stage
	}, 2*time.Second, 5*time.Millisecond, "never reached stage %s", stage)
}

func TestSubmitPairNormalizesAndAdvances(t *testing.T) {
	c := newTestController(&fakeTransport{})

	require.True(t, c.SubmitPair("  btc/usdt "))

	snap := c.Snapshot()
	assert.Equal(t, StageStrategySelection, snap.Stage)
	assert.Equal(t, "BTC/USDT", snap.Pair)
}

func TestSubmitPairRefusesBlankInput(t *testing.T) {
	c := newTestController(&fakeTransport{})

	for _, input := range []string{"", "   ", "\t\n"} {
		assert.False(t, c.SubmitPair(input))
		assert.Equal(t, StagePairEntry, c.Snapshot().Stage)
	}
}

func TestSelectStrategyRequiresStrategyStage(t *testing.T) {
	transport := &fakeTransport{}
	c := newTestController(transport)

	assert.False(t, c.SelectStrategy(context.Background(), strategy.Swing))
	assert.Empty(t, transport.callOrder())
}

func TestOrchestratorCallsAreStrictlyOrdered(t *testing.T) {
	transport := &fakeTransport{activeCount: 1, outcome: planOutcome("BTC/USDT")}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageResult)

	assert.Equal(t, []string{"probe", "analyze"}, transport.callOrder())
}

func TestProbeFailureShortCircuitsSubmission(t *testing.T) {
	transport := &fakeTransport{probeErr: &api.Error{Kind: api.KindConnectivity}}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageError)

	assert.Equal(t, []string{"probe"}, transport.callOrder())
	snap := c.Snapshot()
	assert.Equal(t, MsgUnreachable, snap.ErrorMessage)
	assert.Nil(t, snap.Outcome)
}

func TestServerRejectionSurfacesDetail(t *testing.T) {
	transport := &fakeTransport{
		analyzeErr: &api.Error{Kind: api.KindServerRejected, StatusCode: 400, Detail: "Strategy 'foo' not found."},
	}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageError)

	assert.Equal(t, "Server error: Strategy 'foo' not found.", c.Snapshot().ErrorMessage)
}

func TestAuthorizationExpiryFiresHook(t *testing.T) {
	transport := &fakeTransport{
		analyzeErr: &api.Error{Kind: api.KindUnauthorized, StatusCode: 401},
	}
	expired := make(chan struct{}, 1)
	c := newTestController(transport, WithSessionExpiredHook(func() {
		expired <- struct{}{}
	}))

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Intraday))
	waitForStage(t, c, StageError)

	assert.Equal(t, MsgSessionExpired, c.Snapshot().ErrorMessage)
	select {
	case <-expired:
	case <-time.After(time.Second):
		t.Fatal("session-expired hook never fired")
	}
}

func TestAnalyzeAgainYieldsFreshState(t *testing.T) {
	transport := &fakeTransport{activeCount: 2, outcome: planOutcome("ETH/USDT")}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("ETH/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageResult)

	require.True(t, c.AnalyzeAgain())

	snap := c.Snapshot()
	assert.Equal(t, Snapshot{Stage: StagePairEntry}, snap)

	// refused outside Result/Error
	assert.False(t, c.AnalyzeAgain())
}

func TestAnalyzeAgainFromError(t *testing.T) {
	transport := &fakeTransport{probeErr: &api.Error{Kind: api.KindConnectivity}}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageError)

	require.True(t, c.AnalyzeAgain())
	assert.Equal(t, Snapshot{Stage: StagePairEntry}, c.Snapshot())
}

func TestBackToStrategiesKeepsPair(t *testing.T) {
	transport := &fakeTransport{activeCount: 0, outcome: planOutcome("BTC/USDT")}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))
	waitForStage(t, c, StageResult)

	require.True(t, c.BackToStrategies())

	snap := c.Snapshot()
	assert.Equal(t, StageStrategySelection, snap.Stage)
	assert.Equal(t, "BTC/USDT", snap.Pair)
	assert.Nil(t, snap.Outcome)
	assert.Empty(t, snap.ErrorMessage)
}

func TestStaleSettlementIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	transport := &fakeTransport{activeCount: 1, outcome: planOutcome("BTC/USDT"), gate: gate}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))

	// wait until the probe has reported and the request is blocked in-flight
	require.Eventually(t, func() bool {
		return c.Snapshot().Estimate != nil
	}, 2*time.Second, 5*time.Millisecond)

	c.Reset()
	close(gate)

	// the late settlement must not touch the fresh session
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, Snapshot{Stage: StagePairEntry}, c.Snapshot())
}

func TestEndToEndAnalysisFlow(t *testing.T) {
	gate := make(chan struct{})
	transport := &fakeTransport{activeCount: 2, outcome: planOutcome("BTC/USDT"), gate: gate}
	c := newTestController(transport)

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Swing))

	// the queue estimate appears before the submission settles
	require.Eventually(t, func() bool {
		return c.Snapshot().Estimate != nil
	}, 2*time.Second, 5*time.Millisecond)
	assert.Equal(t, 3, c.Snapshot().Estimate.PositionInQueue)

	close(gate)
	waitForStage(t, c, StageResult)

	snap := c.Snapshot()
	require.NotNil(t, snap.Outcome)
	require.NotNil(t, snap.Outcome.Analysis)
	assert.Equal(t, "BTC/USDT", snap.Outcome.Analysis.Symbol)
	assert.Empty(t, snap.ErrorMessage)
}

func TestCountdownDecrementsAndFloorsAtZero(t *testing.T) {
	gate := make(chan struct{})
	defer close(gate)
	transport := &fakeTransport{activeCount: 0, outcome: planOutcome("BTC/USDT"), gate: gate}
	c := newTestController(transport, WithCountdownInterval(time.Millisecond))

	require.True(t, c.SubmitPair("BTC/USDT"))
	require.True(t, c.SelectStrategy(context.Background(), strategy.Scalping))

	// 120 ticks at 1ms drain the whole estimate; it must stop at zero
	require.Eventually(t, func() bool {
		snap := c.Snapshot()
		return snap.Estimate != nil && snap.Estimate.SecondsRemaining == 0
	}, 2*time.Second, 5*time.Millisecond)

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 0, c.Snapshot().Estimate.SecondsRemaining)
}

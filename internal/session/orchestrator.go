package session

import (
	"context"
	"fmt"

	"aitrader/internal/signal"
	"aitrader/internal/strategy"
)

// Transport is the slice of the backend API the orchestrator needs.
type Transport interface {
	ActiveAnalyses(ctx context.Context) (int, error)
	Analyze(ctx context.Context, pair string, strategyKey strategy.Key) (signal.Outcome, error)
}

// Step names which of the two sequential calls failed.
type Step string

const (
	StepQueueProbe Step = "queue probe"
	StepSubmit     Step = "submit"
)

// StepError wraps a transport failure with the step it happened in. Both
// steps present identically to the user; the step is kept for diagnostics.
type StepError struct {
	Step Step
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("%s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

// Orchestrator runs the two-call sequence behind one analysis request.
type Orchestrator struct {
	transport Transport
}

func NewOrchestrator(transport Transport) *Orchestrator {
	return &Orchestrator{transport: transport}
}

// Run probes the queue depth, reports it through onQueueDepth, then submits
// the analysis. The submission is never attempted unless the probe succeeded,
// and the depth is emitted before the submission starts so a wait estimate
// can be shown immediately, whatever the final outcome.
func (o *Orchestrator) Run(ctx context.Context, pair string, strategyKey strategy.Key, onQueueDepth func(int)) (signal.Outcome, error) {
	depth, err := o.transport.ActiveAnalyses(ctx)
	if err != nil {
		return signal.Outcome{}, &StepError{Step: StepQueueProbe, Err: err}
	}
	if onQueueDepth != nil {
		onQueueDepth(depth)
	}

	outcome, err := o.transport.Analyze(ctx, pair, strategyKey)
	if err != nil {
		return signal.Outcome{}, &StepError{Step: StepSubmit, Err: err}
	}
	return outcome, nil
}

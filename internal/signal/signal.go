// Package signal holds the analysis result model shared by the transport,
// the session core and the presentation layer.
package signal

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

// Direction is the side of a trade plan.
type Direction string

const (
	Long  Direction = "Long"
	Short Direction = "Short"
)

// Analysis is a concrete trade plan returned by the backend. Price levels are
// decimals because the backend serves them both quoted and bare depending on
// the pair.
type Analysis struct {
	Symbol            string          `json:"symbol"`
	Direction         Direction       `json:"direction"`
	EntryType         string          `json:"entry_type"`
	EntryPrice        decimal.Decimal `json:"entry_price"`
	StopLoss          decimal.Decimal `json:"stop_loss"`
	TakeProfit        decimal.Decimal `json:"take_profit"`
	RiskRewardRatio   string          `json:"risk_reward_ratio"`
	InvalidationHours int             `json:"invalidation_hours"`
	Consensus         string          `json:"consensus"`
	ConfidenceScore   float64         `json:"confidence_score"`
	AnalysisSummary   string          `json:"analysis_summary"`
	ChartImages       []string        `json:"chart_images"`
}

// NoSignal is the backend's verdict when no trade plan was produced. Details
// carries the per-direction vote counts for an ambiguous market.
type NoSignal struct {
	Status  string         `json:"status"`
	Message string         `json:"message"`
	Details map[string]int `json:"details"`
}

// No-signal statuses as served by the backend.
const (
	NoSignalStatus  = "no_signal"
	AmbiguousStatus = "ambiguous"
)

// Outcome is the settled result of one analysis request: exactly one of the
// two fields is set.
type Outcome struct {
	Analysis *Analysis
	NoSignal *NoSignal
}

// DecodeOutcome parses an analyze response body. The status field decides the
// shape: no_signal and ambiguous bodies are verdicts, everything else is a
// trade plan.
func DecodeOutcome(data []byte) (Outcome, error) {
	var probe struct {
		Status string `json:"status"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return Outcome{}, fmt.Errorf("parse analysis response: %w", err)
	}

	switch probe.Status {
	case NoSignalStatus, AmbiguousStatus:
		var ns NoSignal
		if err := json.Unmarshal(data, &ns); err != nil {
			return Outcome{}, fmt.Errorf("parse no-signal verdict: %w", err)
		}
		return Outcome{NoSignal: &ns}, nil
	default:
		var a Analysis
		if err := json.Unmarshal(data, &a); err != nil {
			return Outcome{}, fmt.Errorf("parse trade plan: %w", err)
		}
		return Outcome{Analysis: &a}, nil
	}
}

// Status is the lifecycle state of a historical signal.
type Status string

const (
	StatusActive        Status = "active"
	StatusActivated     Status = "activated"
	StatusTakeProfitHit Status = "take_profit_hit"
	StatusStopLossHit   Status = "stop_loss_hit"
	StatusExpired       Status = "expired"
)

// HistorySignal is a past trade plan together with how it played out.
type HistorySignal struct {
	Analysis
	Status Status `json:"status"`
}

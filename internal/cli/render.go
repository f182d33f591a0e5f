package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"aitrader/internal/session"
	"aitrader/internal/signal"
)

// UI styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#BB86FC"))

	accentStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#64FFDA"))

	labelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#A0A0A0"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#6B7280"))

	successStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00E676"))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF5252"))

	longStyle  = successStyle
	shortStyle = errorStyle

	entryStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#82AAFF"))
	stopStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF8A80"))
	takeStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#B9F6CA"))
	riskStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFEB3B"))

	cardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#3B3B3B")).
			Padding(1, 2).
			Width(64)
)

// displayWelcomeBanner shows the startup header.
func displayWelcomeBanner() {
	fmt.Println(titleStyle.Render("📈 AI-Trader"))
	fmt.Println(mutedStyle.Render("Trading signal analysis for a pair and strategy"))
	fmt.Println()
}

func directionBadge(d signal.Direction) string {
	if d == signal.Short {
		return shortStyle.Render("▼ SHORT")
	}
	return longStyle.Render("▲ LONG")
}

// renderOutcome picks the right card for a settled analysis.
func renderOutcome(outcome *signal.Outcome) string {
	if outcome == nil {
		return ""
	}
	if outcome.NoSignal != nil {
		return renderNoSignal(outcome.NoSignal)
	}
	return renderAnalysis(outcome.Analysis)
}

// renderAnalysis paints a trade plan card.
func renderAnalysis(a *signal.Analysis) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("%s  %s\n\n", accentStyle.Render(a.Symbol), directionBadge(a.Direction)))

	if a.AnalysisSummary != "" {
		b.WriteString(labelStyle.Italic(true).Render(a.AnalysisSummary))
		b.WriteString("\n\n")
	}

	row := func(label, value string) {
		b.WriteString(fmt.Sprintf("%s %s\n", labelStyle.Render(fmt.Sprintf("%-18s", label)), value))
	}

	entry := a.EntryPrice.String()
	if a.EntryType != "" {
		entry = fmt.Sprintf("%s (%s)", entry, a.EntryType)
	}
	row("Entry:", entryStyle.Render(entry))
	row("Stop loss:", stopStyle.Render(a.StopLoss.String()))
	row("Take profit:", takeStyle.Render(a.TakeProfit.String()))
	if a.RiskRewardRatio != "" {
		row("Risk/reward:", riskStyle.Render(a.RiskRewardRatio))
	}
	if a.InvalidationHours > 0 {
		row("Valid for:", fmt.Sprintf("%d hours", a.InvalidationHours))
	}
	if a.Consensus != "" {
		row("Consensus:", a.Consensus)
	}
	if a.ConfidenceScore > 0 {
		row("Confidence:", fmt.Sprintf("%.1f / 10", a.ConfidenceScore))
	}
	if len(a.ChartImages) > 0 {
		row("Charts:", mutedStyle.Render(strings.Join(a.ChartImages, ", ")))
	}

	return cardStyle.Render(strings.TrimRight(b.String(), "\n"))
}

// renderNoSignal paints the no-setup / ambiguous verdict.
func renderNoSignal(ns *signal.NoSignal) string {
	var b strings.Builder

	if ns.Status == signal.AmbiguousStatus {
		b.WriteString(riskStyle.Render("⚖️  Ambiguous market"))
	} else {
		b.WriteString(mutedStyle.Render("🔍 No signal"))
	}
	b.WriteString("\n\n")
	b.WriteString(ns.Message)

	if len(ns.Details) > 0 {
		b.WriteString("\n\n")
		b.WriteString(labelStyle.Render("Votes: "))
		parts := make([]string, 0, len(ns.Details))
		for _, d := range []signal.Direction{signal.Long, signal.Short} {
			if count, ok := ns.Details[string(d)]; ok {
				parts = append(parts, fmt.Sprintf("%s %d", d, count))
			}
		}
		b.WriteString(strings.Join(parts, " · "))
	}

	return cardStyle.Render(b.String())
}

// statusBadge maps a history status onto its badge text and color.
func statusBadge(s signal.Status) string {
	switch s {
	case signal.StatusTakeProfitHit:
		return successStyle.Render("✅ Take profit")
	case signal.StatusStopLossHit:
		return errorStyle.Render("🛡 Stop loss")
	case signal.StatusActivated:
		return entryStyle.Render("🔥 In the market")
	case signal.StatusExpired:
		return mutedStyle.Render("⌛ Expired")
	default:
		return riskStyle.Render("⏳ Pending")
	}
}

// renderHistory paints the past-signals list, one line per signal.
func renderHistory(signals []signal.HistorySignal) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("History"))
	b.WriteString("\n")

	if len(signals) == 0 {
		b.WriteString(mutedStyle.Render("Your history is empty so far."))
		return b.String()
	}

	for _, s := range signals {
		b.WriteString(fmt.Sprintf("%s %s  %s  %s\n",
			accentStyle.Render(fmt.Sprintf("%-12s", s.Symbol)),
			directionBadge(s.Direction),
			statusBadge(s.Status),
			labelStyle.Render(fmt.Sprintf("entry %s · stop %s · take %s",
				s.EntryPrice.String(), s.StopLoss.String(), s.TakeProfit.String())),
		))
	}
	return strings.TrimRight(b.String(), "\n")
}

// renderHistoryDetail paints one past signal as a full card with its
// lifecycle status on top.
func renderHistoryDetail(s signal.HistorySignal) string {
	return statusBadge(s.Status) + "\n" + renderAnalysis(&s.Analysis)
}

// renderWaiting is the single status line repainted while an analysis runs.
func renderWaiting(est *session.QueueEstimate) string {
	if est == nil {
		return mutedStyle.Render("⏳ Contacting the server...")
	}
	return fmt.Sprintf("%s %s",
		riskStyle.Render(fmt.Sprintf("⏳ Position in queue: %d", est.PositionInQueue)),
		mutedStyle.Render(fmt.Sprintf("· estimated wait %ds", est.SecondsRemaining)),
	)
}

func renderError(message string) string {
	return errorStyle.Render("❌ " + message)
}

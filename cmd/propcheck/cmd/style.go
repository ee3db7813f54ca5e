package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"

	"github.com/rustyeddy/propcheck/analysis"
	"github.com/rustyeddy/propcheck/compliance"
	"github.com/rustyeddy/propcheck/metrics"
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("86"))
	headerStyle = lipgloss.NewStyle().Bold(true)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	failStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}

func status(v compliance.Verdict) string {
	switch {
	case v.Fallback:
		return warnStyle.Render("N/A")
	case v.Compliant:
		return okStyle.Render("OK")
	default:
		return failStyle.Render("FAIL")
	}
}

func money(x float64) string {
	return fmt.Sprintf("%.2f", x)
}

func renderEvaluation(w io.Writer, ev analysis.Evaluation) {
	run := ev.Run
	fmt.Fprintln(w, titleStyle.Render(fmt.Sprintf("Account %s", run.Account)))
	fmt.Fprintf(w, "%s  run %s  size %s\n\n",
		mutedStyle.Render(run.Source), run.RunID, money(run.AccountSize))

	renderSnapshot(w, ev.Snapshot)
	fmt.Fprintln(w)
	renderVerdicts(w, ev.Verdicts)

	switch {
	case run.FatalBreach:
		fmt.Fprintln(w, failStyle.Render("\nFatal rule breached: the evaluation is lost."))
	case run.Violations > 0:
		fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("\n%d rules violated.", run.Violations)))
	default:
		fmt.Fprintln(w, okStyle.Render("\nAll rules respected."))
	}
	fmt.Fprintln(w)
}

func renderSnapshot(w io.Writer, s metrics.Snapshot) {
	tw := newTable(w)
	defer tw.Flush()

	rows := [][2]string{
		{"Period", fmt.Sprintf("%s .. %s (%d days, %d remaining)",
			s.Start.Format("2006-01-02"), s.Today.Format("2006-01-02"), s.DaysElapsed, s.DaysRemaining)},
		{"Net P/L", money(s.PnLTotal)},
		{"Progress", fmt.Sprintf("%.2f%%", s.ProgressPct)},
		{"Max drawdown", money(s.MaxDrawdown)},
		{"Daily loss", s.DailyLossStatus},
		{"Trades", fmt.Sprintf("%d (%d won, %d lost, %.2f%%)", s.TotalTrades, s.Wins, s.Losses, s.WinRate)},
		{"Trading days", fmt.Sprintf("%d", s.TradingDays)},
		{"Profit factor", fmt.Sprintf("%.2f", s.ProfitFactor)},
		{"Expectancy", money(s.Expectancy)},
		{"Risk:reward", fmt.Sprintf("%.2f", s.RiskReward)},
		{"Consistency", fmt.Sprintf("%.2f%%", s.DailyConsistency)},
		{"Max loss streak", fmt.Sprintf("%d", s.MaxLossStreak)},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render(r[0]), r[1])
	}
}

func renderVerdicts(w io.Writer, vs []compliance.Verdict) {
	tw := newTable(w)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Category"),
		headerStyle.Render("Rule"),
		headerStyle.Render("Limit"),
		headerStyle.Render("Observed"),
		headerStyle.Render("Status"),
		headerStyle.Render("Note"))
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
		strings.Repeat("-", 11), strings.Repeat("-", 24), strings.Repeat("-", 8),
		strings.Repeat("-", 9), strings.Repeat("-", 6), strings.Repeat("-", 20))

	for _, v := range vs {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%.2f\t%s\t%s\n",
			v.Category, v.DisplayName, v.Limit, v.Observed, status(v), mutedStyle.Render(v.Message))
	}
}

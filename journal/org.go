package journal

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"

	"github.com/rustyeddy/propcheck/compliance"
)

var reportOrgFuncs = template.FuncMap{
	"orTime": func(t time.Time) time.Time {
		if t.IsZero() {
			return time.Now()
		}
		return t
	},
	"status": func(v compliance.Verdict) string {
		switch {
		case v.Fallback:
			return "N/A"
		case v.Compliant:
			return "OK"
		default:
			return "FAIL"
		}
	},
	"byCategory": func(vs []compliance.Verdict, c compliance.Category) []compliance.Verdict {
		var out []compliance.Verdict
		for _, v := range vs {
			if v.Category == c {
				out = append(out, v)
			}
		}
		return out
	},
	"categories": func() []compliance.Category { return compliance.Categories },
}

var reportOrg = template.Must(template.New("report").Funcs(reportOrgFuncs).Parse(ReportOrgTemplate))

// WriteReportOrg renders rec as an Org-mode report.
func WriteReportOrg(w io.Writer, rec Record) error {
	if err := reportOrg.Execute(w, rec); err != nil {
		return fmt.Errorf("render org report: %w", err)
	}
	return nil
}

// ExportReportOrg writes the Org report of rec to path.
func ExportReportOrg(path string, rec Record) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create org report: %w", err)
	}
	if err := WriteReportOrg(fh, rec); err != nil {
		_ = fh.Close()
		return err
	}
	return fh.Close()
}

const ReportOrgTemplate = `* EVALUATION: {{if .Run.Account}}{{.Run.Account}}{{else}}(account?){{end}}{{if .Run.Template}} / {{.Run.Template}}{{end}}
:PROPERTIES:
:RUN_ID:      {{if .Run.RunID}}{{.Run.RunID}}{{else}}(run-id?){{end}}
:SOURCE:      {{.Run.Source}}
:ACCOUNT:     {{.Run.Account}}
:SIZE:        {{printf "%.2f" .Run.AccountSize}}
:START_DATE:  {{.Snapshot.Start.Format "2006-01-02"}}
:TODAY:       {{.Snapshot.Today.Format "2006-01-02"}}
:TRADES:      {{.Run.Trades}}
:NET_PL:      {{printf "%.2f" .Run.PnL}}
:VIOLATIONS:  {{.Run.Violations}}
:FATAL:       {{if .Run.FatalBreach}}yes{{else}}no{{end}}
:CREATED:     [{{(orTime .Run.Created).Format "2006-01-02 Mon 15:04"}}]
:END:

** Progress
- Net P/L:          *{{printf "%.2f" .Snapshot.PnLTotal}}*
- Progress:         *{{printf "%.2f" .Snapshot.ProgressPct}}%*
- Days elapsed:     {{.Snapshot.DaysElapsed}}
- Days remaining:   {{.Snapshot.DaysRemaining}}
- Trading days:     {{.Snapshot.TradingDays}}
- Max drawdown:     *{{printf "%.2f" .Snapshot.MaxDrawdown}}*
- Daily loss:       {{.Snapshot.DailyLossStatus}}

** Performance Summary
| Metric            | Value |
|-------------------+-------|
| Trades            | {{.Snapshot.TotalTrades}} |
| Wins              | {{.Snapshot.Wins}} |
| Losses            | {{.Snapshot.Losses}} |
| Win rate %        | {{printf "%.2f" .Snapshot.WinRate}} |
| Avg win (ticks)   | {{printf "%.2f" .Snapshot.AvgWinTicks}} |
| Avg loss (ticks)  | {{printf "%.2f" .Snapshot.AvgLossTicks}} |
| Risk:reward       | {{printf "%.2f" .Snapshot.RiskReward}} |
| Profit factor     | {{printf "%.2f" .Snapshot.ProfitFactor}} |
| Expectancy        | {{printf "%.2f" .Snapshot.Expectancy}} |
| Avg MAE           | {{printf "%.2f" .Snapshot.AvgMAE}} |
| Avg MFE           | {{printf "%.2f" .Snapshot.AvgMFE}} |
| Avg ETD           | {{printf "%.2f" .Snapshot.AvgETD}} |
| Consistency %     | {{printf "%.2f" .Snapshot.DailyConsistency}} |
| Max loss streak   | {{.Snapshot.MaxLossStreak}} |
| Out of session    | {{.Snapshot.OutOfWindow}} |
| SL violations     | {{.Snapshot.SLViolations}} |

** Rules
{{- $vs := .Verdicts }}
{{- range $c := categories }}
*** {{ $c }}
| Rule | Limit | Observed | Status | Note |
|------+-------+----------+--------+------|
{{- range byCategory $vs $c }}
| {{.DisplayName}} | {{.Limit}} | {{printf "%.2f" .Observed}} | {{status .}} | {{.Message}} |
{{- end }}
{{- end }}
`

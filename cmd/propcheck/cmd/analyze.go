package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propcheck/analysis"
	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/journal"
)

var errViolations = errors.New("rules violated")

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Evaluate a trade export against an account template",
	Long: `Process a trade export, compute the evaluation metrics and judge every rule
of the account, once per account found in the export.

The account comes from a stored template (--template) or an account file
(--account-file). The evaluation starts on the earliest entry date of the
export unless --start is given.

Examples:
  propcheck analyze --trades trades.csv --template Apex_50000
  propcheck analyze --trades trades.csv --account-file account.yaml --account APEX-123 --record
  propcheck analyze --trades trades.csv --template Apex_50000 --org report.org --csv trades_out.csv`,
	Args: cobra.NoArgs,
	RunE: runAnalyze,
}

var (
	analyzeTrades      string
	analyzeTemplate    string
	analyzeAccountFile string
	analyzeAccount     string
	analyzeStart       string
	analyzeDelimiter   string
	analyzeRecord      bool
	analyzeOrg         string
	analyzeCSV         string
	analyzeStrict      bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzeTrades, "trades", "t", "", "trade export (CSV) (required)")
	analyzeCmd.Flags().StringVar(&analyzeTemplate, "template", "", "stored account template name")
	analyzeCmd.Flags().StringVar(&analyzeAccountFile, "account-file", "", "account file (YAML or JSON)")
	analyzeCmd.Flags().StringVar(&analyzeAccount, "account", "", "evaluate only this account of the export")
	analyzeCmd.Flags().StringVar(&analyzeStart, "start", "", "evaluation start date YYYY-MM-DD")
	analyzeCmd.Flags().StringVar(&analyzeDelimiter, "delimiter", "", "export delimiter, overrides settings (auto sniffs)")
	analyzeCmd.Flags().BoolVar(&analyzeRecord, "record", false, "record the evaluation in the journal")
	analyzeCmd.Flags().StringVar(&analyzeOrg, "org", "", "write an Org-mode report to this path")
	analyzeCmd.Flags().StringVar(&analyzeCSV, "csv", "", "write the processed trades to this CSV path")
	analyzeCmd.Flags().BoolVar(&analyzeStrict, "strict", false, "exit non-zero when any rule is violated")
	_ = analyzeCmd.MarkFlagRequired("trades")
	analyzeCmd.MarkFlagsMutuallyExclusive("template", "account-file")
	analyzeCmd.MarkFlagsOneRequired("template", "account-file")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	ingest := settings.Ingest
	if analyzeDelimiter != "" {
		ingest.Delimiter = analyzeDelimiter
	}
	delim, err := ingest.Rune()
	if err != nil {
		return err
	}

	in := analysis.Input{
		TradesPath:    analyzeTrades,
		Delimiter:     delim,
		Template:      analyzeTemplate,
		AccountFilter: analyzeAccount,
		Record:        analyzeRecord,
	}
	if analyzeAccountFile != "" {
		if in.Account, err = config.LoadAccountFile(analyzeAccountFile); err != nil {
			return err
		}
	}
	if analyzeStart != "" {
		if in.Start, err = time.Parse(time.DateOnly, analyzeStart); err != nil {
			return fmt.Errorf("bad --start: %w", err)
		}
	}

	store, release, err := templateStore()
	if err != nil {
		return err
	}
	defer release()

	r := &analysis.Runner{Store: store, Logger: log}
	if analyzeRecord {
		j, err := openJournal()
		if err != nil {
			return err
		}
		defer j.Close()
		r.Journal = j
	}

	rep, err := r.Run(cmd.Context(), in)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	violated := false
	multi := len(rep.Evaluations) > 1
	for _, ev := range rep.Evaluations {
		renderEvaluation(out, ev)
		violated = violated || ev.Run.Violations > 0

		if analyzeOrg != "" {
			path := perAccount(analyzeOrg, ev.Run.Account, multi)
			if err := journal.ExportReportOrg(path, ev.Record); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote report: %s\n", path)
		}
		if analyzeCSV != "" {
			path := perAccount(analyzeCSV, ev.Run.Account, multi)
			if err := journal.ExportTradesCSV(path, ev.Trades); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote trades: %s\n", path)
		}
	}

	if analyzeStrict && violated {
		return errViolations
	}
	return nil
}

// perAccount inserts the account before the extension when an export
// carries several accounts: report.org -> report_APEX-1.org.
func perAccount(path, account string, multi bool) string {
	if !multi {
		return path
	}
	ext := filepath.Ext(path)
	safe := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ' ' {
			return '_'
		}
		return r
	}, account)
	return strings.TrimSuffix(path, ext) + "_" + safe + ext
}

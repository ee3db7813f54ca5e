package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propcheck/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded evaluations",
	Long: `Query the evaluations recorded with "analyze --record".

Subcommands:
  runs   - List recorded runs, newest first
  show   - Show one run with its metrics and verdicts
  delete - Delete a run

Examples:
  propcheck journal runs --account APEX-123
  propcheck journal show 01HQ3J5C8W6XH1M2N3P4Q5R6S7
  propcheck journal show 01HQ3J5C8W6XH1M2N3P4Q5R6S7 --org report.org`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalShow,
}

var journalDeleteCmd = &cobra.Command{
	Use:   "delete <run-id>",
	Short: "Delete a recorded run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalDelete,
}

var (
	journalAccount string
	journalLimit   int
	journalOrg     string
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalShowCmd)
	journalCmd.AddCommand(journalDeleteCmd)

	journalRunsCmd.Flags().StringVar(&journalAccount, "account", "", "only runs of this account")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs listed (0 for all)")
	journalShowCmd.Flags().StringVar(&journalOrg, "org", "", "also write the Org-mode report to this path")
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(cmd.Context(), journalAccount, journalLimit)
	if err != nil {
		return fmt.Errorf("list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("(no runs)"))
		return nil
	}

	tw := newTable(out)
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
		headerStyle.Render("Run"),
		headerStyle.Render("Created"),
		headerStyle.Render("Account"),
		headerStyle.Render("Template"),
		headerStyle.Render("Trades"),
		headerStyle.Render("P/L"),
		headerStyle.Render("Result"))
	for _, r := range runs {
		result := okStyle.Render("OK")
		switch {
		case r.FatalBreach:
			result = failStyle.Render("FATAL")
		case r.Violations > 0:
			result = warnStyle.Render(fmt.Sprintf("%d violations", r.Violations))
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			r.RunID, r.Created.Format("2006-01-02 15:04"), r.Account, r.Template, r.Trades, money(r.PnL), result)
	}
	return tw.Flush()
}

func runJournalShow(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := cmd.Context()
	runID := args[0]

	run, err := j.GetRun(ctx, runID)
	if err != nil {
		return err
	}
	snap, err := j.GetSnapshot(ctx, runID)
	if err != nil {
		return err
	}
	vs, err := j.ListVerdicts(ctx, runID)
	if err != nil {
		return err
	}
	rec := journal.Record{Run: run, Snapshot: snap, Verdicts: vs}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Run %s", run.RunID)))
	fmt.Fprintf(out, "%s  %s  recorded %s\n\n",
		run.Account, mutedStyle.Render(run.Source), run.Created.Format("2006-01-02 15:04"))
	renderSnapshot(out, snap)
	fmt.Fprintln(out)
	renderVerdicts(out, vs)

	if journalOrg != "" {
		if err := journal.ExportReportOrg(journalOrg, rec); err != nil {
			return err
		}
		fmt.Fprintf(out, "\n✓ Wrote report: %s\n", journalOrg)
	}
	return nil
}

func runJournalDelete(cmd *cobra.Command, args []string) error {
	j, err := openJournal()
	if err != nil {
		return err
	}
	defer j.Close()

	if err := j.DeleteRun(cmd.Context(), args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "✓ Deleted run %s\n", args[0])
	return nil
}

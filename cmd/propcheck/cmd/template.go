package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/rules"
)

var templateCmd = &cobra.Command{
	Use:   "template",
	Short: "Manage account templates",
	Long: `List, inspect and store prop-firm account templates.

Subcommands:
  list    - List the stored templates
  show    - Show the resolved account and rules of a template
  save    - Resolve a template file and store it under a name
  resolve - Print the canonical form of a template file

Examples:
  propcheck template list
  propcheck template show Apex_50000
  propcheck template save Apex_50000 --from apex.json
  propcheck template resolve --from legacy.json`,
}

var templateListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the stored templates",
	Args:  cobra.NoArgs,
	RunE:  runTemplateList,
}

var templateShowCmd = &cobra.Command{
	Use:   "show <name>",
	Short: "Show the resolved account and rules of a template",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateShow,
}

var templateSaveCmd = &cobra.Command{
	Use:   "save <name>",
	Short: "Resolve a template file and store it",
	Args:  cobra.ExactArgs(1),
	RunE:  runTemplateSave,
}

var templateResolveCmd = &cobra.Command{
	Use:   "resolve",
	Short: "Print the canonical form of a template file",
	Args:  cobra.NoArgs,
	RunE:  runTemplateResolve,
}

var (
	templateSaveFrom    string
	templateResolveFrom string
)

func init() {
	rootCmd.AddCommand(templateCmd)
	templateCmd.AddCommand(templateListCmd)
	templateCmd.AddCommand(templateShowCmd)
	templateCmd.AddCommand(templateSaveCmd)
	templateCmd.AddCommand(templateResolveCmd)

	templateSaveCmd.Flags().StringVarP(&templateSaveFrom, "from", "f", "", "template file, JSON or YAML (required)")
	_ = templateSaveCmd.MarkFlagRequired("from")
	templateResolveCmd.Flags().StringVarP(&templateResolveFrom, "from", "f", "", "template file, JSON or YAML (required)")
	_ = templateResolveCmd.MarkFlagRequired("from")
}

func runTemplateList(cmd *cobra.Command, args []string) error {
	store, release, err := templateStore()
	if err != nil {
		return err
	}
	defer release()

	names, err := store.ListTemplates(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(names) == 0 {
		fmt.Fprintln(out, mutedStyle.Render("(no templates)"))
		return nil
	}
	for _, n := range names {
		fmt.Fprintln(out, n)
	}
	return nil
}

func runTemplateShow(cmd *cobra.Command, args []string) error {
	store, release, err := templateStore()
	if err != nil {
		return err
	}
	defer release()

	tpl, err := store.LoadTemplate(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	acct := config.AccountFromTemplate(args[0], tpl)

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, titleStyle.Render(fmt.Sprintf("Template %s", args[0])))
	if tpl.Empresa != "" {
		fmt.Fprintf(out, "%s\n", mutedStyle.Render(tpl.Empresa))
	}
	fmt.Fprintln(out)

	tw := newTable(out)
	for _, r := range [][2]string{
		{"Account size", money(acct.AccountSize)},
		{"Target", fmt.Sprintf("%s (%.2f%%)", money(acct.TargetProfit), acct.TargetPct)},
		{"Max drawdown", fmt.Sprintf("%s (%.2f%%, %s)", money(acct.MaxDrawdownUSD), acct.MaxDrawdownPct, acct.DrawdownType)},
		{"Payout", fmt.Sprintf("threshold %s, max %s", money(acct.PayoutThreshold), money(acct.MaxPayout))},
		{"Trial days", fmt.Sprint(acct.TrialDays)},
		{"Contract limit", fmt.Sprint(acct.ContractLimit)},
	} {
		fmt.Fprintf(tw, "%s\t%s\n", headerStyle.Render(r[0]), r[1])
	}
	tw.Flush()
	fmt.Fprintln(out)

	renderRules(out, acct.Rules, acct.Defaulted)
	if err := acct.Validate(); err != nil {
		fmt.Fprintln(out, failStyle.Render("\ninvalid: "+err.Error()))
	}
	return nil
}

func renderRules(w io.Writer, set rules.Set, defaulted []rules.Key) {
	isDefault := map[rules.Key]bool{}
	for _, k := range defaulted {
		isDefault[k] = true
	}

	tw := newTable(w)
	defer tw.Flush()
	fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
		headerStyle.Render("Key"), headerStyle.Render("Name"), headerStyle.Render("Value"), headerStyle.Render(""))
	for _, k := range rules.Keys() {
		r := set.Get(k)
		note := ""
		if isDefault[k] {
			note = mutedStyle.Render("default")
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", k, r.DisplayName, r.Value, note)
	}
}

func runTemplateSave(cmd *cobra.Command, args []string) error {
	tpl, err := config.LoadTemplateFile(templateSaveFrom)
	if err != nil {
		return err
	}
	canonical, defaulted := tpl.Canonical()

	if err := config.AccountFromTemplate(args[0], canonical).Validate(); err != nil {
		return fmt.Errorf("template %s: %w", args[0], err)
	}

	store, release, err := templateStore()
	if err != nil {
		return err
	}
	defer release()

	if err := store.SaveTemplate(cmd.Context(), args[0], canonical); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "✓ Saved template %s\n", args[0])
	reportDefaulted(out, defaulted)
	return nil
}

func runTemplateResolve(cmd *cobra.Command, args []string) error {
	tpl, err := config.LoadTemplateFile(templateResolveFrom)
	if err != nil {
		return err
	}
	canonical, defaulted := tpl.Canonical()

	body, err := json.MarshalIndent(canonical, "", "    ")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, string(body))
	reportDefaulted(cmd.ErrOrStderr(), defaulted)
	return nil
}

func reportDefaulted(w io.Writer, keys []rules.Key) {
	if len(keys) == 0 {
		return
	}
	fmt.Fprintln(w, warnStyle.Render(fmt.Sprintf("%d rules missing, defaults used:", len(keys))))
	for _, k := range keys {
		spec, _ := rules.Lookup(k)
		fmt.Fprintf(w, "  %s = %s\n", k, spec.Default)
	}
}

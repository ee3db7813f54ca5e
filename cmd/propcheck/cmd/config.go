package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/propcheck/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Generate or validate settings and account files",
	Long: `Manage the settings file of the CLI and standalone account files.

Subcommands:
  init     - Generate default settings (and optionally a default account)
  validate - Validate a settings file (and optionally an account file)

Examples:
  propcheck config init -o settings.yaml --account account.yaml
  propcheck config validate -f settings.yaml --account account.yaml`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Generate default settings",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a settings file",
	Args:  cobra.NoArgs,
	RunE:  runConfigValidate,
}

var (
	configInitOutput      string
	configInitAccount     string
	configValidatePath    string
	configValidateAccount string
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configValidateCmd)

	configInitCmd.Flags().StringVarP(&configInitOutput, "output", "o", "settings.yaml", "output settings file path")
	configInitCmd.Flags().StringVar(&configInitAccount, "account", "", "also write a default account file here (YAML or JSON)")
	configValidateCmd.Flags().StringVarP(&configValidatePath, "file", "f", "", "path to settings file")
	configValidateCmd.Flags().StringVar(&configValidateAccount, "account", "", "path to account file")
	configValidateCmd.MarkFlagsOneRequired("file", "account")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	body, err := yaml.Marshal(config.DefaultSettings())
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}
	if err := os.WriteFile(configInitOutput, body, 0o644); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	fmt.Fprintf(out, "✓ Created default settings: %s\n", configInitOutput)

	if configInitAccount != "" {
		if err := config.Default().SaveToFile(configInitAccount); err != nil {
			return fmt.Errorf("save account: %w", err)
		}
		fmt.Fprintf(out, "✓ Created default account: %s\n", configInitAccount)
	}

	fmt.Fprintln(out, "\nEdit the files and run with:")
	fmt.Fprintf(out, "  propcheck --settings %s analyze --trades trades.csv --account-file <account>\n", configInitOutput)
	return nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	if configValidatePath != "" {
		s, err := config.LoadSettings(configValidatePath)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(out, "✓ Settings valid: %s\n", configValidatePath)
		fmt.Fprintf(out, "  Log: %s (%s)\n", s.Log.Level, s.Log.Encoding)
		fmt.Fprintf(out, "  Delimiter: %q\n", s.Ingest.Delimiter)
		fmt.Fprintf(out, "  Templates: %s %s\n", s.Templates.Store, s.Templates.Dir)
		fmt.Fprintf(out, "  Journal: %s\n", s.Journal.DBPath)
	}

	if configValidateAccount != "" {
		a, err := config.LoadAccountFile(configValidateAccount)
		if err != nil {
			return fmt.Errorf("validation failed: %w", err)
		}
		fmt.Fprintf(out, "✓ Account valid: %s\n", configValidateAccount)
		fmt.Fprintf(out, "  %s: size %s, target %s, drawdown %s\n",
			a.Name, money(a.AccountSize), money(a.TargetProfit), money(a.DrawdownLimit()))
		if len(a.Defaulted) > 0 {
			reportDefaulted(out, a.Defaulted)
		}
	}
	return nil
}

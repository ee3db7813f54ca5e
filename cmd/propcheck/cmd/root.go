package cmd

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/internal/logger"
	"github.com/rustyeddy/propcheck/journal"
)

var (
	settingsPath string
	envFile      string
	logLevel     string

	// set by setup before any command runs
	settings = config.DefaultSettings()
	log      = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "propcheck",
	Short: "Check futures trade exports against prop-firm evaluation rules",
	Long: `Propcheck reads the trade-grid export of a futures platform and checks an
evaluation account against its prop-firm rulebook.

It provides tools for:
  - Verifying that an export can be read before evaluating it
  - Computing progress, drawdown and performance metrics per account
  - Judging every rule of the account template, from fatal to operational
  - Managing account templates and recording evaluations in a journal`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = log.Sync()
	},
}

// Execute runs the command line and prints any error to stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		fmt.Fprintln(os.Stderr, failStyle.Render("error:"), err)
	}
	return err
}

func init() {
	rootCmd.PersistentFlags().StringVar(&settingsPath, "settings", "", "settings file (YAML, optional)")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override: debug|info|warn|error")
}

func setup(cmd *cobra.Command, args []string) error {
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", envFile, err)
	}

	s, err := config.LoadSettings(settingsPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		s.Log.Level = logLevel
	}

	l, err := logger.New(s.Log)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}

	settings, log = s, l
	log.Debug("settings loaded",
		zap.String("file", settingsPath),
		zap.String("templates", settings.Templates.Store),
		zap.String("journal", settings.Journal.DBPath))
	return nil
}

// templateStore opens the configured template store. The returned func
// releases it.
func templateStore() (journal.TemplateStore, func(), error) {
	if settings.Templates.Store == "sqlite" {
		j, err := journal.NewSQLite(settings.Journal.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open template store: %w", err)
		}
		return j, func() { _ = j.Close() }, nil
	}
	return journal.DirStore{Dir: settings.Templates.Dir}, func() {}, nil
}

func openJournal() (*journal.SQLite, error) {
	j, err := journal.NewSQLite(settings.Journal.DBPath)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	return j, nil
}

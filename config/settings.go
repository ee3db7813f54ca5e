package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. PROPCHECK_LOG_LEVEL.
const EnvPrefix = "PROPCHECK"

// Settings are the process settings of the propcheck CLI.
type Settings struct {
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
	Ingest    IngestConfig    `mapstructure:"ingest" yaml:"ingest"`
	Templates TemplatesConfig `mapstructure:"templates" yaml:"templates"`
	Journal   JournalConfig   `mapstructure:"journal" yaml:"journal"`
}

type LogConfig struct {
	Level             string `mapstructure:"level" yaml:"level"`
	Encoding          string `mapstructure:"encoding" yaml:"encoding"`
	Development       bool   `mapstructure:"development" yaml:"development"`
	DisableCaller     bool   `mapstructure:"disable_caller" yaml:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace" yaml:"disable_stacktrace"`
}

type IngestConfig struct {
	// Delimiter of trade exports; "auto" sniffs it from the file.
	Delimiter string `mapstructure:"delimiter" yaml:"delimiter"`
}

type TemplatesConfig struct {
	// Store is "dir" (one JSON file per template) or "sqlite".
	Store string `mapstructure:"store" yaml:"store"`
	Dir   string `mapstructure:"dir" yaml:"dir"`
}

type JournalConfig struct {
	DBPath string `mapstructure:"db_path" yaml:"db_path"`
}

// LoadSettings reads settings from path (optional, YAML) and the
// environment, on top of the defaults.
func LoadSettings(path string) (Settings, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	for k, val := range settingDefaults {
		v.SetDefault(k, val)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return Settings{}, fmt.Errorf("read settings: %w", err)
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	if err := s.Validate(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings: %w", err)
	}
	return s, nil
}

var settingDefaults = map[string]any{
	"log.level":              "info",
	"log.encoding":           "console",
	"log.development":        false,
	"log.disable_caller":     true,
	"log.disable_stacktrace": true,
	"ingest.delimiter":       ";",
	"templates.store":        "dir",
	"templates.dir":          "./plantillas",
	"journal.db_path":        "./propcheck.db",
}

// DefaultSettings returns the settings used when nothing overrides them.
func DefaultSettings() Settings {
	return Settings{
		Log:       LogConfig{Level: "info", Encoding: "console", DisableCaller: true, DisableStacktrace: true},
		Ingest:    IngestConfig{Delimiter: ";"},
		Templates: TemplatesConfig{Store: "dir", Dir: "./plantillas"},
		Journal:   JournalConfig{DBPath: "./propcheck.db"},
	}
}

// Validate checks the settings values.
func (s Settings) Validate() error {
	switch s.Log.Encoding {
	case "console", "json":
	default:
		return fmt.Errorf("log.encoding must be 'console' or 'json'")
	}
	switch s.Templates.Store {
	case "dir":
		if s.Templates.Dir == "" {
			return fmt.Errorf("templates.dir required for dir store")
		}
	case "sqlite":
		if s.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite template store")
		}
	default:
		return fmt.Errorf("templates.store must be 'dir' or 'sqlite'")
	}
	if _, err := s.Ingest.Rune(); err != nil {
		return err
	}
	return nil
}

// Rune returns the configured delimiter, or 0 for "auto".
func (c IngestConfig) Rune() (rune, error) {
	switch c.Delimiter {
	case "auto":
		return 0, nil
	case ";", ",", "\t", "|":
		return []rune(c.Delimiter)[0], nil
	case "tab":
		return '\t', nil
	default:
		return 0, fmt.Errorf("ingest.delimiter must be one of ';' ',' '|' 'tab' 'auto', got %q", c.Delimiter)
	}
}

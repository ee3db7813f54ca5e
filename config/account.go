// Package config holds the prop-firm account configuration, the stored
// template shape it is built from, and the process settings.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/propcheck/rules"
)

// Account is the configuration of one evaluated prop account.
type Account struct {
	Name            string  `json:"name,omitempty" yaml:"name,omitempty"`
	AccountSize     float64 `json:"account_size" yaml:"account_size"`
	TargetProfit    float64 `json:"target_profit" yaml:"target_profit"`
	TargetPct       float64 `json:"target_pct" yaml:"target_pct"`
	MaxDrawdownUSD  float64 `json:"max_drawdown_usd" yaml:"max_drawdown_usd"`
	MaxDrawdownPct  float64 `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	PayoutThreshold float64 `json:"payout_threshold" yaml:"payout_threshold"`
	MaxPayout       float64 `json:"max_payout" yaml:"max_payout"`
	TrialDays       int     `json:"trial_days" yaml:"trial_days"`
	DrawdownType    string  `json:"drawdown_type,omitempty" yaml:"drawdown_type,omitempty"`
	ContractLimit   float64 `json:"contract_limit,omitempty" yaml:"contract_limit,omitempty"`

	Rules rules.Set `json:"rules" yaml:"rules"`

	// Defaulted lists the rules that were missing where the account came
	// from and took their default value.
	Defaulted []rules.Key `json:"-" yaml:"-"`
}

// accountFile is the on-disk shape: rules are read loosely and resolved once.
type accountFile struct {
	Name            string         `json:"name" yaml:"name"`
	AccountSize     float64        `json:"account_size" yaml:"account_size"`
	TargetProfit    float64        `json:"target_profit" yaml:"target_profit"`
	TargetPct       float64        `json:"target_pct" yaml:"target_pct"`
	MaxDrawdownUSD  float64        `json:"max_drawdown_usd" yaml:"max_drawdown_usd"`
	MaxDrawdownPct  float64        `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	PayoutThreshold float64        `json:"payout_threshold" yaml:"payout_threshold"`
	MaxPayout       float64        `json:"max_payout" yaml:"max_payout"`
	TrialDays       int            `json:"trial_days" yaml:"trial_days"`
	DrawdownType    string         `json:"drawdown_type" yaml:"drawdown_type"`
	ContractLimit   float64        `json:"contract_limit" yaml:"contract_limit"`
	Rules           map[string]any `json:"rules" yaml:"rules"`
}

// Rule is shorthand for a.Rules.Get(k).Value.
func (a *Account) Rule(k rules.Key) rules.Value {
	return a.Rules.Get(k).Value
}

// DrawdownLimit returns the trailing drawdown limit in USD: MaxDrawdownUSD,
// or MaxDrawdownPct of the account size when no USD figure is set.
func (a *Account) DrawdownLimit() float64 {
	if a.MaxDrawdownUSD > 0 {
		return a.MaxDrawdownUSD
	}
	return a.MaxDrawdownPct / 100 * a.AccountSize
}

// LoadAccountFile loads an account from a YAML or JSON file.
func LoadAccountFile(path string) (*Account, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read account file: %w", err)
	}

	var f accountFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		if err := json.Unmarshal(data, &f); err != nil {
			return nil, fmt.Errorf("parse account (tried YAML and JSON): %w", err)
		}
	}

	res := rules.Resolve(f.Rules)
	acct := &Account{
		Name:            f.Name,
		AccountSize:     f.AccountSize,
		TargetProfit:    f.TargetProfit,
		TargetPct:       f.TargetPct,
		MaxDrawdownUSD:  f.MaxDrawdownUSD,
		MaxDrawdownPct:  f.MaxDrawdownPct,
		PayoutThreshold: f.PayoutThreshold,
		MaxPayout:       f.MaxPayout,
		TrialDays:       f.TrialDays,
		DrawdownType:    f.DrawdownType,
		ContractLimit:   f.ContractLimit,
		Rules:           res.Rules,
		Defaulted:       res.Defaulted,
	}

	if err := acct.Validate(); err != nil {
		return nil, fmt.Errorf("invalid account: %w", err)
	}
	return acct, nil
}

// SaveToFile writes the account as YAML or JSON depending on the extension.
func (a *Account) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(a)
	} else {
		data, err = json.MarshalIndent(a, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal account: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write account file: %w", err)
	}
	return nil
}

// Validate checks that the account can be evaluated.
func (a *Account) Validate() error {
	if a.AccountSize <= 0 {
		return fmt.Errorf("account_size must be positive")
	}
	if a.TargetProfit < 0 {
		return fmt.Errorf("target_profit must not be negative")
	}
	if a.MaxDrawdownUSD < 0 || a.MaxDrawdownPct < 0 {
		return fmt.Errorf("max drawdown must not be negative")
	}
	if a.MaxDrawdownPct > 100 {
		return fmt.Errorf("max_drawdown_pct must be at most 100")
	}
	if a.TrialDays < 0 {
		return fmt.Errorf("trial_days must not be negative")
	}
	for _, k := range []rules.Key{rules.SessionStart, rules.SessionEnd} {
		if _, ok := a.Rule(k).Clock(); !ok {
			return fmt.Errorf("%s must be a time of day, got %q", k, a.Rule(k).String())
		}
	}
	start, _ := a.Rule(rules.SessionStart).Clock()
	end, _ := a.Rule(rules.SessionEnd).Clock()
	if start >= end {
		return fmt.Errorf("session start %s must be before session end %s", start, end)
	}
	return nil
}

// Default returns a 50k evaluation account with the default rulebook.
func Default() *Account {
	return &Account{
		Name:            "default",
		AccountSize:     50000,
		TargetProfit:    3000,
		TargetPct:       6,
		MaxDrawdownUSD:  2500,
		MaxDrawdownPct:  5,
		PayoutThreshold: 1600,
		MaxPayout:       2000,
		TrialDays:       60,
		DrawdownType:    DrawdownDaily,
		Rules:           rules.Defaults(),
		Defaulted:       rules.Keys(),
	}
}

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/propcheck/rules"
)

// DrawdownDaily is the drawdown type assumed when a template names none.
const DrawdownDaily = "Diario"

// Template is a stored account template as written by the template editor.
// Reglas mixes rule entries, in any of their historical spellings, with the
// account-level settings.
type Template struct {
	Empresa string         `json:"empresa,omitempty" yaml:"empresa,omitempty"`
	Size    float64        `json:"size" yaml:"size"`
	Types   []string       `json:"types,omitempty" yaml:"types,omitempty"`
	Reglas  map[string]any `json:"reglas" yaml:"reglas"`
}

// AccountFromTemplate builds an Account from a stored template. The rule
// block goes through rules.Resolve exactly once; the account-level keys are
// read from the raw block.
func AccountFromTemplate(name string, tpl Template) *Account {
	raw := tpl.Reglas
	res := rules.Resolve(raw)

	trial := number(raw, "dias_prueba")
	if _, ok := raw["dias_prueba"]; !ok {
		trial = number(raw, "dias_minimos_operados")
	}

	ddType := DrawdownDaily
	if s, ok := raw["tipo_drawdown"].(string); ok && strings.TrimSpace(s) != "" {
		ddType = s
	}

	return &Account{
		Name:            name,
		AccountSize:     tpl.Size,
		TargetProfit:    number(raw, "objetivo_usd"),
		TargetPct:       number(raw, "objetivo_ganancia_pct"),
		MaxDrawdownUSD:  number(raw, "drawdown_usd"),
		MaxDrawdownPct:  number(raw, "drawdown_maximo_pct"),
		PayoutThreshold: number(raw, "umbral_pago"),
		MaxPayout:       number(raw, "pago_maximo"),
		TrialDays:       int(trial),
		DrawdownType:    ddType,
		ContractLimit:   number(raw, "limite_contratos"),
		Rules:           res.Rules,
		Defaulted:       res.Defaulted,
	}
}

// Canonical returns a copy of tpl whose rule block is the resolved canonical
// set plus the untouched account-level entries, along with the keys that
// had to be defaulted.
func (tpl Template) Canonical() (Template, []rules.Key) {
	res := rules.Resolve(tpl.Reglas)

	block := res.Rules.Block()
	for k, v := range res.Extra {
		block[k] = v
	}
	// keep the trial fallback readable after the legacy key is consumed
	if _, ok := block["dias_prueba"]; !ok {
		if v, ok := tpl.Reglas["dias_minimos_operados"]; ok {
			block["dias_prueba"] = v
		}
	}

	out := tpl
	out.Reglas = block
	return out, res.Defaulted
}

// LoadTemplateFile reads a template from a JSON file, or YAML when the
// extension is .yaml or .yml.
func LoadTemplateFile(path string) (Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Template{}, fmt.Errorf("read template file: %w", err)
	}

	var tpl Template
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &tpl)
	default:
		err = json.Unmarshal(data, &tpl)
	}
	if err != nil {
		return Template{}, fmt.Errorf("parse template file %s: %w", path, err)
	}
	if tpl.Reglas == nil {
		tpl.Reglas = map[string]any{}
	}
	return tpl, nil
}

func number(m map[string]any, key string) float64 {
	switch v := m[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return 0
		}
		return f
	case map[string]any:
		return number(v, "valor")
	default:
		return 0
	}
}

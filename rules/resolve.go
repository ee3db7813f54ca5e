package rules

import (
	"sort"
	"strings"
)

// legacyKeys maps rule names written by older template editors onto the
// canonical keys.
var legacyKeys = map[string]Key{
	"porcentaje_consistencia":      ConsistencyPct,
	"ganancia_diaria_maxima":       DailyGainMaxPct,
	"dias_minimos_operados":        MinTradingDays,
	"perdidas_consecutivas_maxima": ConsecutiveLossMax,
	"perdida_diaria_maxima":        DailyLossMaxPct,
	"perdida_semanal_maxima":       WeeklyLossMaxPct,
	"contratos_maximos":            ContractMultiplier,
	"ratio_tp_pips":                TakeProfitTicks,
	"ratio_sl_pips":                StopLossTicks,
	"uso_stop_loss_obligatorio":    StopLossMandatory,
}

const sessionBlock = "horario_operacion"

// Resolution is the outcome of reconciling a stored rule block.
type Resolution struct {
	Rules Set

	// Defaulted lists, in schema order, the canonical keys that were absent
	// from the block and took their default value.
	Defaulted []Key

	// Extra holds the entries that are not rules (account-level settings
	// such as "objetivo_usd"), keyed as they appeared in the block.
	Extra map[string]any
}

// Resolve reconciles a stored rule block into the canonical rule set.
//
// Legacy names are mapped to canonical keys; when both spellings are present
// the canonical entry wins and the legacy one is discarded. Lower-case
// spellings of canonical keys are accepted the same way. A nested
// "horario_operacion" {inicio, fin} block supplies the session keys unless
// they are set directly. Missing keys take their schema default and are
// listed in Defaulted. raw is not modified.
func Resolve(raw map[string]any) Resolution {
	block := make(map[string]any, len(raw))
	for k, v := range raw {
		block[k] = v
	}

	// iterate in sorted order so the outcome never depends on map order
	names := make([]string, 0, len(block))
	for k := range block {
		names = append(names, k)
	}
	sort.Strings(names)

	for _, name := range names {
		target, ok := legacyKeys[name]
		if !ok {
			up := Key(strings.ToUpper(name))
			if _, canonical := Lookup(up); !canonical || string(up) == name {
				continue
			}
			target = up
		}
		if _, exists := block[string(target)]; !exists {
			block[string(target)] = block[name]
		}
		delete(block, name)
	}

	if nested, ok := block[sessionBlock].(map[string]any); ok {
		if v, ok := nested["inicio"]; ok {
			if _, set := block[string(SessionStart)]; !set {
				block[string(SessionStart)] = v
			}
		}
		if v, ok := nested["fin"]; ok {
			if _, set := block[string(SessionEnd)]; !set {
				block[string(SessionEnd)] = v
			}
		}
		delete(block, sessionBlock)
	}

	res := Resolution{
		Rules: make(Set, len(schema)),
		Extra: map[string]any{},
	}
	for _, spec := range schema {
		rawVal, ok := block[string(spec.Key)]
		if !ok {
			res.Rules[spec.Key] = Rule{DisplayName: spec.DisplayName, Value: spec.Default}
			res.Defaulted = append(res.Defaulted, spec.Key)
			continue
		}
		res.Rules[spec.Key] = Rule{
			DisplayName: displayName(rawVal, spec.DisplayName),
			Value:       Coerce(rawVal),
		}
		delete(block, string(spec.Key))
	}
	for k, v := range block {
		res.Extra[k] = v
	}
	return res
}

// displayName keeps a stored {"nombre": ...} label, otherwise the schema one.
func displayName(raw any, fallback string) string {
	m, ok := raw.(map[string]any)
	if !ok {
		return fallback
	}
	if s, ok := m["nombre"].(string); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return fallback
}

// Block renders a Set back into the stored template shape:
// {"KEY": {"nombre": ..., "valor": ...}}.
func (s Set) Block() map[string]any {
	out := make(map[string]any, len(s))
	for k, r := range s {
		out[string(k)] = map[string]any{
			"nombre": r.DisplayName,
			"valor":  r.Value.Interface(),
		}
	}
	return out
}

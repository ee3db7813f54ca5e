package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveEmptyBlock(t *testing.T) {
	t.Parallel()

	res := Resolve(nil)
	assert.Equal(t, Keys(), res.Defaulted)
	assert.Equal(t, Defaults(), res.Rules)
	assert.Empty(t, res.Extra)
}

func TestResolveLegacyKeys(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"porcentaje_consistencia":   40,
		"dias_minimos_operados":     "3",
		"uso_stop_loss_obligatorio": "TRUE",
		"contratos_maximos":         map[string]any{"nombre": "Contratos", "valor": 2},
		"objetivo_usd":              3000,
	}

	res := Resolve(raw)

	assert.Equal(t, Num(40), res.Rules.Get(ConsistencyPct).Value)
	assert.Equal(t, Num(3), res.Rules.Get(MinTradingDays).Value)
	assert.Equal(t, Bool(true), res.Rules.Get(StopLossMandatory).Value)
	assert.Equal(t, Num(2), res.Rules.Get(ContractMultiplier).Value)
	assert.Equal(t, "Contratos", res.Rules.Get(ContractMultiplier).DisplayName)
	assert.Equal(t, map[string]any{"objetivo_usd": 3000}, res.Extra)

	assert.NotContains(t, res.Defaulted, ConsistencyPct)
	assert.Contains(t, res.Defaulted, DailyLossMaxPct)
	assert.Len(t, res.Rules, len(schema))

	// input untouched
	assert.Contains(t, raw, "porcentaje_consistencia")
	assert.NotContains(t, raw, string(ConsistencyPct))
}

func TestResolveCanonicalWinsOverLegacy(t *testing.T) {
	t.Parallel()

	res := Resolve(map[string]any{
		"perdida_diaria_maxima": 9,
		"PERDIDA_DIARIA_MAX":    4,
	})
	assert.Equal(t, Num(4), res.Rules.Get(DailyLossMaxPct).Value)
	assert.NotContains(t, res.Extra, "perdida_diaria_maxima")
}

func TestResolveLowerCaseCanonical(t *testing.T) {
	t.Parallel()

	res := Resolve(map[string]any{"ratio_sl_pips": 12, "consistencia": 30})
	assert.Equal(t, Num(12), res.Rules.Get(StopLossTicks).Value)
	assert.Equal(t, Num(30), res.Rules.Get(ConsistencyPct).Value)
	assert.Empty(t, res.Extra)
}

func TestResolveSessionBlock(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		raw       map[string]any
		wantStart string
		wantEnd   string
	}{
		{
			name:      "nested only",
			raw:       map[string]any{"horario_operacion": map[string]any{"inicio": "09:30", "fin": "15:00"}},
			wantStart: "09:30",
			wantEnd:   "15:00",
		},
		{
			name: "canonical wins",
			raw: map[string]any{
				"horario_operacion": map[string]any{"inicio": "09:30", "fin": "15:00"},
				"HORARIO_INICIO":    "07:00",
			},
			wantStart: "07:00",
			wantEnd:   "15:00",
		},
		{
			name:      "partial block",
			raw:       map[string]any{"horario_operacion": map[string]any{"fin": "14:00"}},
			wantStart: "08:00",
			wantEnd:   "14:00",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			res := Resolve(tt.raw)

			start, ok := res.Rules.Get(SessionStart).Value.Clock()
			require.True(t, ok)
			end, ok := res.Rules.Get(SessionEnd).Value.Clock()
			require.True(t, ok)

			assert.Equal(t, tt.wantStart, start)
			assert.Equal(t, tt.wantEnd, end)
			assert.NotContains(t, res.Extra, "horario_operacion")
		})
	}
}

func TestResolveIdempotent(t *testing.T) {
	t.Parallel()

	raw := map[string]any{
		"perdida_semanal_maxima": 8,
		"horario_operacion":      map[string]any{"inicio": "09:00", "fin": "15:30"},
		"STOP_LOSS_OBLIGATORIO":  true,
		"ratio_tp_pips":          "20.5",
	}

	first := Resolve(raw)
	second := Resolve(first.Rules.Block())

	assert.Equal(t, first.Rules, second.Rules)
	assert.Empty(t, second.Defaulted)
}

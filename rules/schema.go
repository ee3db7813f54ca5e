// Package rules defines the canonical prop-firm rulebook and reconciles the
// loosely shaped rule blocks found in stored account templates into it.
package rules

// Key names one canonical rule.
type Key string

const (
	StopLossTicks      Key = "RATIO_SL_PIPS"
	TakeProfitTicks    Key = "RATIO_TP_PIPS"
	SessionStart       Key = "HORARIO_INICIO"
	SessionEnd         Key = "HORARIO_FIN"
	StopLossMandatory  Key = "STOP_LOSS_OBLIGATORIO"
	DailyLossMaxPct    Key = "PERDIDA_DIARIA_MAX"
	WeeklyLossMaxPct   Key = "PERDIDA_SEMANAL_MAX"
	ConsecutiveLossMax Key = "PERDIDAS_CONSECUTIVAS_MAX"
	MinTradingDays     Key = "DIAS_OPERANDO_MIN"
	DailyGainMaxPct    Key = "GANANCIA_DIARIA_MAX_PORC"
	ContractMultiplier Key = "MULTIPLICADOR_CONTRATOS_MAX"
	ConsistencyPct     Key = "CONSISTENCIA"
	TrailingDrawdown   Key = "TRAILING_DRAWDOWN"
	ContractLimit      Key = "LIMITE_CONTRATOS"
	OvernightPositions Key = "OVERNIGHT_POSITIONS"
)

// Kind is the value type a rule expects.
type Kind int

const (
	Numeric Kind = iota
	Boolean
	TimeOfDay
)

func (k Kind) String() string {
	switch k {
	case Boolean:
		return "boolean"
	case TimeOfDay:
		return "time"
	default:
		return "numeric"
	}
}

// Spec describes one canonical rule.
type Spec struct {
	Key         Key
	DisplayName string
	Default     Value
	Kind        Kind
}

// schema is the canonical rulebook in display order.
var schema = []Spec{
	{StopLossTicks, "Stop Loss (ticks)", Num(10), Numeric},
	{TakeProfitTicks, "Take Profit (ticks)", Num(15), Numeric},
	{SessionStart, "Session start", Text("08:00"), TimeOfDay},
	{SessionEnd, "Session end", Text("16:00"), TimeOfDay},
	{StopLossMandatory, "Stop loss mandatory", Bool(false), Boolean},
	{DailyLossMaxPct, "Max daily loss (%)", Num(5), Numeric},
	{WeeklyLossMaxPct, "Max weekly loss (%)", Num(10), Numeric},
	{ConsecutiveLossMax, "Max consecutive losses", Num(7), Numeric},
	{MinTradingDays, "Min trading days", Num(5), Numeric},
	{DailyGainMaxPct, "Max daily gain (%)", Num(70), Numeric},
	{ContractMultiplier, "Contract multiplier", Num(3), Numeric},
	{ConsistencyPct, "Consistency (%)", Num(50), Numeric},
}

var schemaIndex = func() map[Key]int {
	m := make(map[Key]int, len(schema))
	for i, s := range schema {
		m[s.Key] = i
	}
	return m
}()

// Lookup returns the Spec for k.
func Lookup(k Key) (Spec, bool) {
	i, ok := schemaIndex[k]
	if !ok {
		return Spec{}, false
	}
	return schema[i], true
}

// Schema returns a copy of the canonical rulebook in display order.
func Schema() []Spec {
	out := make([]Spec, len(schema))
	copy(out, schema)
	return out
}

// Keys lists the canonical keys in schema order.
func Keys() []Key {
	out := make([]Key, len(schema))
	for i, s := range schema {
		out[i] = s.Key
	}
	return out
}

// Rule is one resolved entry of an account's rule set.
type Rule struct {
	DisplayName string `json:"nombre" yaml:"nombre"`
	Value       Value  `json:"valor" yaml:"valor"`
}

// Set maps canonical keys to their resolved rules.
type Set map[Key]Rule

// Defaults returns a Set holding every canonical rule at its default value.
func Defaults() Set {
	s := make(Set, len(schema))
	for _, spec := range schema {
		s[spec.Key] = Rule{DisplayName: spec.DisplayName, Value: spec.Default}
	}
	return s
}

// Get returns the rule for k, falling back to the schema default when the
// set does not carry it. Unknown keys yield a zero numeric rule named after
// the key.
func (s Set) Get(k Key) Rule {
	if r, ok := s[k]; ok {
		return r
	}
	if spec, ok := Lookup(k); ok {
		return Rule{DisplayName: spec.DisplayName, Value: spec.Default}
	}
	return Rule{DisplayName: string(k), Value: Num(0)}
}

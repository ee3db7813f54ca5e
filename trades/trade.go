// Package trades turns a raw trade export into the ordered, enriched trade
// sequence every metric and rule is computed from.
package trades

import (
	"time"

	"github.com/rustyeddy/propcheck/market"
)

// Canonical column names of the trade-grid export.
const (
	ColNumber     = "numero_trade"
	ColInstrument = "instrumento"
	ColAccount    = "cuenta"
	ColStrategy   = "estrategia"
	ColSide       = "mercado_pos"
	ColQuantity   = "cant"
	ColEntryPrice = "precio_de_entrada"
	ColExitPrice  = "precio_de_salida"
	ColEntryTime  = "tiempo_de_entrada"
	ColExitTime   = "tiempo_de_salida"
	ColPnL        = "ganancias"
	ColMAE        = "mae"
	ColMFE        = "mfe"
	ColETD        = "etd"
)

// Required are the columns Process cannot work without.
var Required = []string{ColAccount, ColPnL, ColEntryPrice, ColExitPrice, ColSide}

// NumericColumns are cleaned with the lenient numeric parser.
var NumericColumns = []string{ColEntryPrice, ColExitPrice, ColPnL, ColMAE, ColMFE, ColETD, ColQuantity}

// Trade is one processed trade. Fields after Contract are derived in
// order from the fields above them and from the trades before it.
type Trade struct {
	Number     string    `json:"number"`
	Instrument string    `json:"instrument"`
	Account    string    `json:"account"`
	Strategy   string    `json:"strategy,omitempty"`
	Side       string    `json:"side"`
	Quantity   float64   `json:"quantity"`
	EntryPrice float64   `json:"entry_price"`
	ExitPrice  float64   `json:"exit_price"`
	EntryTime  time.Time `json:"entry_time"`
	ExitTime   time.Time `json:"exit_time,omitempty"`
	PnL        float64   `json:"pnl"`
	MAE        float64   `json:"mae"`
	MFE        float64   `json:"mfe"`
	ETD        float64   `json:"etd"`

	Contract market.ContractSpec `json:"contract"`

	DurationMin   float64 `json:"duration_min"`
	Ticks         float64 `json:"ticks"`
	TickMagnitude float64 `json:"tick_magnitude"`
	TicksValue    float64 `json:"ticks_value"`
	Points        float64 `json:"points"`

	NetPnL     float64 `json:"net_pnl"`
	CumPnL     float64 `json:"cum_pnl"`
	EquityPeak float64 `json:"equity_peak"`
	Drawdown   float64 `json:"drawdown"`

	PlannedSL   float64 `json:"planned_sl_usd"`
	PlannedTP   float64 `json:"planned_tp_usd"`
	RMultiple   float64 `json:"r_multiple"`
	SLDeviation float64 `json:"sl_deviation"`
	TPDeviation float64 `json:"tp_deviation"`

	TimeOfDay  string    `json:"time_of_day"`
	Date       time.Time `json:"date"`
	Win        bool      `json:"win"`
	LossStreak int       `json:"loss_streak"`
}

// HasExit reports whether the exit time was readable.
func (t Trade) HasExit() bool { return !t.ExitTime.IsZero() }

// Outcome is 1 for a winning trade and 0 otherwise; breakeven is a loss.
func (t Trade) Outcome() int {
	if t.Win {
		return 1
	}
	return 0
}

// Contracts is the quantity of the trade, counting a missing quantity as one.
func (t Trade) Contracts() float64 {
	if t.Quantity <= 0 {
		return 1
	}
	return t.Quantity
}

// Diagnostics counts the cells and rows Process absorbed with a fallback.
type Diagnostics struct {
	// Fallbacks counts, per column, cells that did not parse as a number
	// and were read as 0.
	Fallbacks map[string]int `json:"fallbacks,omitempty"`

	// Dropped is the number of rows whose entry time could not be read.
	Dropped int `json:"dropped"`

	// BadExitTimes counts trades kept without a readable exit time.
	BadExitTimes int `json:"bad_exit_times"`

	// Skipped is the number of malformed lines ingestion left out.
	Skipped int `json:"skipped"`
}

// FallbackTotal sums the per-column fallbacks.
func (d Diagnostics) FallbackTotal() int {
	n := 0
	for _, c := range d.Fallbacks {
		n += c
	}
	return n
}

// Result is the output of Process.
type Result struct {
	Trades      []Trade
	Diagnostics Diagnostics
}

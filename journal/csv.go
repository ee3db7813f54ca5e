package journal

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/rustyeddy/propcheck/trades"
)

// TradeColumns is the header of the processed-trade CSV export.
var TradeColumns = []string{
	"numero_trade", "instrumento", "cuenta", "mercado_pos", "cant",
	"precio_de_entrada", "precio_de_salida", "tiempo_de_entrada", "tiempo_de_salida",
	"duracion_minutos", "ganancias", "pnl_neto", "pnl_acum", "equity_peak", "drawdown",
	"ticks", "ticks_magnitud", "valor_ticks", "puntos",
	"sl_planeado_usd", "tp_planeado_usd", "r_real", "sl_deviation", "tp_deviation",
	"mae", "mfe", "etd", "hora_operacion", "fecha", "resultado", "loss_streak",
}

// WriteTradesCSV writes ts with a header row to w.
func WriteTradesCSV(w io.Writer, ts []trades.Trade) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(TradeColumns); err != nil {
		return err
	}

	for _, t := range ts {
		exit := ""
		if t.HasExit() {
			exit = t.ExitTime.Format(time.DateTime)
		}
		err := cw.Write([]string{
			t.Number,
			t.Instrument,
			t.Account,
			t.Side,
			f(t.Quantity),
			f(t.EntryPrice),
			f(t.ExitPrice),
			t.EntryTime.Format(time.DateTime),
			exit,
			f(t.DurationMin),
			f(t.PnL),
			f(t.NetPnL),
			f(t.CumPnL),
			f(t.EquityPeak),
			f(t.Drawdown),
			f(t.Ticks),
			f(t.TickMagnitude),
			f(t.TicksValue),
			f(t.Points),
			f(t.PlannedSL),
			f(t.PlannedTP),
			f(t.RMultiple),
			f(t.SLDeviation),
			f(t.TPDeviation),
			f(t.MAE),
			f(t.MFE),
			f(t.ETD),
			t.TimeOfDay,
			t.Date.Format(time.DateOnly),
			strconv.Itoa(t.Outcome()),
			strconv.Itoa(t.LossStreak),
		})
		if err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportTradesCSV writes ts to a new file at path.
func ExportTradesCSV(path string, ts []trades.Trade) error {
	fh, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create csv: %w", err)
	}
	if err := WriteTradesCSV(fh, ts); err != nil {
		_ = fh.Close()
		return fmt.Errorf("write csv: %w", err)
	}
	return fh.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}

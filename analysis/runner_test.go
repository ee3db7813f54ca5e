package analysis

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/rustyeddy/propcheck/config"
	"github.com/rustyeddy/propcheck/journal"
	"github.com/rustyeddy/propcheck/metrics"
	"github.com/rustyeddy/propcheck/trades"
)

const twoAccounts = `Número de trade;Instrumento;Cuenta;Mercado pos.;Cant.;Precio de entrada;Precio de salida;Tiempo de entrada;Tiempo de salida;Ganancias;
1;ES 03-24;APEX-1;Long;1;4800;4802;15/01/2024 09:30:00;15/01/2024 09:40:00;100,00 $;
2;NQ 03-24;APEX-2;Short;1;17000;17010;16/01/2024 10:00:00;16/01/2024 10:05:00;-200,00 $;
3;ES 03-24;APEX-1;Long;2;4805;4803;17/01/2024 10:00:00;17/01/2024 10:20:00;n/d;
4;ES 03-24;APEX-1;Short;1;4810;4806;17/01/2024 11:00:00;17/01/2024 11:15:00;200,00 $;
`

func writeExport(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "trades.csv")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testAccount() *config.Account {
	acct := config.Default()
	acct.Name = "test"
	acct.AccountSize = 10000
	return acct
}

func newTestRunner(t *testing.T) (*Runner, *observer.ObservedLogs) {
	t.Helper()

	core, logs := observer.New(zapcore.InfoLevel)
	n := 0
	return &Runner{
		Logger:     zap.New(core),
		Calculator: metrics.Calculator{Now: func() time.Time { return time.Date(2024, 1, 20, 12, 0, 0, 0, time.UTC) }},
		ID: func() string {
			n++
			return fmt.Sprintf("01HRUN%020d", n)
		},
	}, logs
}

func TestRunEveryAccount(t *testing.T) {
	t.Parallel()

	r, logs := newTestRunner(t)
	rep, err := r.Run(context.Background(), Input{
		TradesPath: writeExport(t, twoAccounts),
		Account:    testAccount(),
	})
	require.NoError(t, err)

	assert.Equal(t, "trades.csv", rep.Source)
	assert.Equal(t, ';', rep.Delimiter)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC), rep.Start)
	assert.Equal(t, map[string]int{trades.ColPnL: 1}, rep.Diagnostics.Fallbacks)

	require.Len(t, rep.Evaluations, 2)
	first, second := rep.Evaluations[0], rep.Evaluations[1]

	assert.Equal(t, "APEX-1", first.Run.Account)
	assert.Equal(t, 3, first.Run.Trades)
	assert.Equal(t, 300.0, first.Run.PnL)
	assert.Equal(t, "01HRUN00000000000000000001", first.Run.RunID)

	assert.Equal(t, "APEX-2", second.Run.Account)
	assert.Equal(t, 1, second.Run.Trades)
	assert.Equal(t, -200.0, second.Run.PnL)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), second.Snapshot.Start, "start comes from the whole export")

	warned := logs.FilterMessage("unparseable cells read as 0").All()
	require.Len(t, warned, 1)
	assert.Equal(t, trades.ColPnL, warned[0].ContextMap()["column"])
	assert.EqualValues(t, 1, warned[0].ContextMap()["count"])
}

func TestRunAccountFilter(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	path := writeExport(t, twoAccounts)

	rep, err := r.Run(context.Background(), Input{TradesPath: path, Account: testAccount(), AccountFilter: "APEX-2"})
	require.NoError(t, err)
	require.Len(t, rep.Evaluations, 1)
	assert.Equal(t, "APEX-2", rep.Evaluations[0].Run.Account)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), rep.Evaluations[0].Snapshot.Start)

	_, err = r.Run(context.Background(), Input{TradesPath: path, Account: testAccount(), AccountFilter: "NOPE"})
	assert.ErrorIs(t, err, ErrUnknownAccount)
}

func TestRunExplicitStart(t *testing.T) {
	t.Parallel()

	r, _ := newTestRunner(t)
	start := time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC)
	rep, err := r.Run(context.Background(), Input{
		TradesPath:    writeExport(t, twoAccounts),
		Account:       testAccount(),
		AccountFilter: "APEX-1",
		Start:         start,
	})
	require.NoError(t, err)
	assert.Equal(t, start, rep.Evaluations[0].Snapshot.Start)
	assert.Equal(t, 11, rep.Evaluations[0].Snapshot.DaysElapsed)
}

func TestRunSingleAccountCommaExport(t *testing.T) {
	t.Parallel()

	body := "Account,Instrument,Market pos.,Entry price,Exit price,Entry time,Exit time,Profit\n" +
		"SIM1,ES 03-24,Long,4800,4801,01/15/2024 09:30:00 AM,01/15/2024 09:35:00 AM,50\n" +
		"SIM1,ES 03-24,Short,4801,4802,01/15/2024 10:30:00 AM,01/15/2024 10:35:00 AM,-50\n"

	r, _ := newTestRunner(t)
	rep, err := r.Run(context.Background(), Input{TradesPath: writeExport(t, body), Account: testAccount()})
	require.NoError(t, err)

	assert.Equal(t, ',', rep.Delimiter)
	require.Len(t, rep.Evaluations, 1)
	assert.Equal(t, 2, rep.Evaluations[0].Run.Trades)
	assert.Zero(t, rep.Evaluations[0].Run.PnL)
}

func TestRunFromTemplateAndRecord(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := journal.DirStore{Dir: t.TempDir()}
	require.NoError(t, store.SaveTemplate(ctx, "Apex_10000", config.Template{
		Empresa: "Apex",
		Size:    10000,
		Reglas: map[string]any{
			"objetivo_usd":          600.0,
			"drawdown_usd":          500.0,
			"perdida_diaria_maxima": 2.0,
		},
	}))

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	r, logs := newTestRunner(t)
	r.Store = store
	r.Journal = j

	rep, err := r.Run(ctx, Input{
		TradesPath: writeExport(t, twoAccounts),
		Template:   "Apex_10000",
		Record:     true,
	})
	require.NoError(t, err)
	require.Len(t, rep.Evaluations, 2)

	ev := rep.Evaluations[0]
	assert.Equal(t, 10000.0, ev.Config.AccountSize)
	assert.Equal(t, 2.0, ev.Config.Rule("PERDIDA_DIARIA_MAX").Float())
	assert.InDelta(t, 50.0, ev.Snapshot.ProgressPct, 1e-9)

	defaulted := logs.FilterMessage("rule missing from template, using default").Len()
	assert.Equal(t, len(ev.Config.Defaulted), defaulted)
	assert.NotZero(t, defaulted)

	runs, err := j.ListRuns(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, "Apex_10000", runs[0].Template)
	assert.Equal(t, "APEX-2", runs[0].Account)

	vs, err := j.ListVerdicts(ctx, runs[1].RunID)
	require.NoError(t, err)
	assert.Len(t, vs, len(ev.Verdicts))
}

func TestRunErrors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	good := writeExport(t, twoAccounts)

	tests := []struct {
		name  string
		r     Runner
		in    Input
		check func(t *testing.T, err error)
	}{
		{
			name: "no trades path",
			in:   Input{Account: testAccount()},
		},
		{
			name: "no account",
			in:   Input{TradesPath: good},
		},
		{
			name: "template without store",
			in:   Input{TradesPath: good, Template: "x"},
		},
		{
			name: "unknown template",
			r:    Runner{Store: journal.DirStore{Dir: t.TempDir()}},
			in:   Input{TradesPath: good, Template: "missing"},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, journal.ErrNotFound)
			},
		},
		{
			name: "invalid account",
			in:   Input{TradesPath: good, Account: &config.Account{Name: "zero"}},
		},
		{
			name: "missing file",
			in:   Input{TradesPath: filepath.Join(t.TempDir(), "none.csv"), Account: testAccount()},
		},
		{
			name: "schema",
			in:   Input{TradesPath: writeExport(t, "Cuenta;Ganancias\nA;1\n"), Account: testAccount()},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, trades.ErrSchema)
			},
		},
		{
			name: "record without journal",
			in:   Input{TradesPath: good, Account: testAccount(), Record: true},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := tt.r.Run(ctx, tt.in)
			require.Error(t, err)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

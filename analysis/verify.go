package analysis

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rustyeddy/propcheck/fields"
	"github.com/rustyeddy/propcheck/table"
	"github.com/rustyeddy/propcheck/trades"
)

// sniffBytes is how much of a file the delimiter is guessed from.
const sniffBytes = 8 << 10

// DateColumns are the timestamp columns checked by Verify.
var DateColumns = []string{trades.ColEntryTime, trades.ColExitTime}

// ColumnCheck counts the cells of one column that would fall back.
type ColumnCheck struct {
	Column  string
	Kind    string // "numeric" or "date"
	Invalid int
}

// Verification is the outcome of Verify.
type Verification struct {
	Delimiter rune
	Rows      int
	Skipped   int
	Columns   []string
	Missing   []string
	Checks    []ColumnCheck
}

// OK reports whether the export can be processed without any fallback.
func (v Verification) OK() bool {
	if len(v.Missing) > 0 || v.Skipped > 0 {
		return false
	}
	for _, c := range v.Checks {
		if c.Invalid > 0 {
			return false
		}
	}
	return true
}

// Verify checks a trade export without processing it: it reports the
// delimiter, the missing required columns and, per numeric and date column,
// how many cells would not convert. Only unreadable files are errors.
func Verify(path string, delim rune) (Verification, error) {
	if delim == 0 {
		var err error
		if delim, err = sniffFile(path); err != nil {
			return Verification{}, err
		}
	}
	raw, err := table.IngestFile(path, delim)
	if err != nil {
		return Verification{}, fmt.Errorf("ingest %s: %w", path, err)
	}
	tbl := table.NormalizeColumns(raw)

	v := Verification{
		Delimiter: delim,
		Rows:      tbl.Len(),
		Skipped:   tbl.Skipped,
		Columns:   tbl.Columns,
		Missing:   tbl.Missing(trades.Required...),
	}
	for _, col := range trades.NumericColumns {
		if tbl.Has(col) {
			v.Checks = append(v.Checks, check(tbl, col, "numeric", fields.IsNumericValid))
		}
	}
	for _, col := range DateColumns {
		if tbl.Has(col) {
			v.Checks = append(v.Checks, check(tbl, col, "date", fields.IsDateValid))
		}
	}
	return v, nil
}

func check(tbl table.Table, col, kind string, valid func(string) bool) ColumnCheck {
	c := ColumnCheck{Column: col, Kind: kind}
	for _, row := range tbl.Rows {
		if !valid(row.Get(col)) {
			c.Invalid++
		}
	}
	return c
}

func sniffFile(path string) (rune, error) {
	fh, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open %s: %w", path, err)
	}
	defer fh.Close()

	buf := make([]byte, sniffBytes)
	n, err := io.ReadFull(fh, buf)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return 0, fmt.Errorf("read %s: %w", path, err)
	}
	return table.SniffDelimiter(buf[:n]), nil
}

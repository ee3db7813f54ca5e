package table

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
)

// DefaultDelimiter is the separator of the trade-grid export.
const DefaultDelimiter = ';'

// ErrNoHeader is returned when the input has no header line.
var ErrNoHeader = errors.New("table: no header line")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IngestFile reads a delimited file from disk. See Ingest.
func IngestFile(path string, delim rune) (Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return Table{}, err
	}
	defer f.Close()

	t, err := Ingest(f, delim)
	if err != nil {
		return Table{}, fmt.Errorf("ingest %s: %w", path, err)
	}
	return t, nil
}

// Ingest parses delimited text into rows keyed by the trimmed header.
// Input that is not valid UTF-8 is decoded as Latin-1. Placeholder columns
// (blank or "Unnamed...") are dropped. Lines that cannot be parsed or carry
// more cells than the header are skipped and counted in Table.Skipped; short
// lines are padded with empty cells.
func Ingest(r io.Reader, delim rune) (Table, error) {
	if delim == 0 {
		delim = DefaultDelimiter
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return Table{}, err
	}
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		if data, err = charmap.ISO8859_1.NewDecoder().Bytes(data); err != nil {
			return Table{}, fmt.Errorf("decode latin-1: %w", err)
		}
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = delim
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if err == io.EOF {
		return Table{}, ErrNoHeader
	}
	if err != nil {
		return Table{}, fmt.Errorf("read header: %w", err)
	}

	var t Table
	keep := make([]int, 0, len(header))
	seen := make(map[string]bool, len(header))
	for i, h := range header {
		h = strings.TrimSpace(h)
		header[i] = h
		// a repeated header keeps its first column
		if isPlaceholder(h) || seen[h] {
			continue
		}
		seen[h] = true
		keep = append(keep, i)
		t.Columns = append(t.Columns, h)
	}

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				t.Skipped++
				continue
			}
			return Table{}, err
		}
		if len(rec) > len(header) {
			t.Skipped++
			continue
		}

		row := make(Row, len(keep))
		for _, i := range keep {
			if i < len(rec) {
				row[header[i]] = strings.TrimSpace(rec[i])
			} else {
				row[header[i]] = ""
			}
		}
		t.Rows = append(t.Rows, row)
	}

	return t, nil
}

func isPlaceholder(h string) bool {
	return h == "" || strings.HasPrefix(strings.ToLower(h), "unnamed")
}

// SniffDelimiter guesses between ',' and ';' from the first lines of a
// sample. The candidate appearing the same non-zero number of times on the
// most lines wins; ties and empty samples fall back to DefaultDelimiter.
func SniffDelimiter(sample []byte) rune {
	lines := strings.Split(strings.ReplaceAll(string(sample), "\r\n", "\n"), "\n")
	if len(lines) > 10 {
		lines = lines[:10]
	}

	best, bestScore := DefaultDelimiter, 0
	for _, cand := range []rune{';', ','} {
		counts := map[int]int{}
		for _, l := range lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			if n := strings.Count(l, string(cand)); n > 0 {
				counts[n]++
			}
		}
		score := 0
		for _, lines := range counts {
			if lines > score {
				score = lines
			}
		}
		if score > bestScore {
			best, bestScore = cand, score
		}
	}
	return best
}

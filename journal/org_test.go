package journal

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReportOrg(t *testing.T) {
	t.Parallel()

	rec := sampleRecord(t, "01HRUN0000000000000000001")

	var buf bytes.Buffer
	require.NoError(t, WriteReportOrg(&buf, rec))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, "* EVALUATION: APEX-1 / Apex_10000\n"))
	assert.Contains(t, out, ":RUN_ID:      01HRUN0000000000000000001")
	assert.Contains(t, out, ":START_DATE:  2024-01-15")
	assert.Contains(t, out, ":NET_PL:      -400.00")
	assert.Contains(t, out, "| Trades            | 4 |")
	assert.Contains(t, out, "*** fatal")
	assert.Contains(t, out, "*** operational")
	assert.Contains(t, out, "| Max daily loss (%) | 5 | 400.00 | OK |")
	assert.Contains(t, out, "| Session start | 08:00 |")

	// one table row per verdict
	assert.Equal(t, len(rec.Verdicts), strings.Count(out, " | OK | ")+strings.Count(out, " | FAIL | ")+strings.Count(out, " | N/A | "))
}

func TestWriteReportOrgPlaceholders(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, WriteReportOrg(&buf, Record{}))
	out := buf.String()

	assert.Contains(t, out, "* EVALUATION: (account?)")
	assert.Contains(t, out, ":RUN_ID:      (run-id?)")
	assert.Contains(t, out, ":FATAL:       no")
}

func TestExportReportOrg(t *testing.T) {
	t.Parallel()

	rec := sampleRecord(t, "01HRUN0000000000000000001")
	path := filepath.Join(t.TempDir(), "report.org")
	require.NoError(t, ExportReportOrg(path, rec))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "** Performance Summary")
}

package fields

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParseDateTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want time.Time
	}{
		{"day first seconds", "15/01/2024 09:30:15", time.Date(2024, 1, 15, 9, 30, 15, 0, time.UTC)},
		{"day first ambiguous", "05/06/2024 10:00", time.Date(2024, 6, 5, 10, 0, 0, 0, time.UTC)},
		{"month first fallback", "01/13/2024 10:00", time.Date(2024, 1, 13, 10, 0, 0, 0, time.UTC)},
		{"dashes", "15-01-2024 09:30", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"iso", "2024-01-15 09:30:00", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"iso t", "2024-01-15T09:30:00", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"single digits", "5/6/2024 9:05", time.Date(2024, 6, 5, 9, 5, 0, 0, time.UTC)},
		{"pm", "15/01/2024 03:15:00 PM", time.Date(2024, 1, 15, 15, 15, 0, 0, time.UTC)},
		{"spanish pm", "15/01/2024 03:15:00 p. m.", time.Date(2024, 1, 15, 15, 15, 0, 0, time.UTC)},
		{"spanish am dotted", "15/01/2024 11:15:00 a.m.", time.Date(2024, 1, 15, 11, 15, 0, 0, time.UTC)},
		{"lower pm", "15/01/2024 12:00:00 pm", time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)},
		{"nbsp garble", "15/01/2024\u00a009:30:00", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"latin1 garble", "15/01/2024Â 09:30", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
		{"date only", "15/01/2024", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)},
		{"dotted", "15.01.2024 09:30", time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := ParseDateTime(tt.raw)
			assert.True(t, ok)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseDateTimeRejects(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "   ", "not a date", "32/13/2024", "15/01/1850", "01/01/2150 10:00", "99999"} {
		_, ok := ParseDateTime(raw)
		assert.False(t, ok, raw)
	}
}

func TestIsDateValid(t *testing.T) {
	t.Parallel()

	assert.True(t, IsDateValid(""))
	assert.True(t, IsDateValid("15/01/2024 09:30"))
	assert.False(t, IsDateValid("yesterday"))
}

package id

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewIsMonotonic(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)
	g := NewGenerator(func() time.Time { return at })

	ids := make([]string, 100)
	for i := range ids {
		ids[i] = g.New()
	}
	assert.True(t, sort.StringsAreSorted(ids))

	seen := map[string]bool{}
	for _, s := range ids {
		assert.Len(t, s, 26)
		assert.False(t, seen[s], s)
		seen[s] = true
	}
}

func TestTime(t *testing.T) {
	t.Parallel()

	at := time.Date(2024, 1, 15, 9, 30, 0, 123_000_000, time.UTC)
	g := NewGenerator(func() time.Time { return at })

	got, err := Time(g.New())
	require.NoError(t, err)
	assert.True(t, at.Equal(got), got)

	_, err = Time("not-a-ulid")
	assert.Error(t, err)
}

func TestPackageNew(t *testing.T) {
	t.Parallel()

	a, b := New(), New()
	assert.Less(t, a, b)
}

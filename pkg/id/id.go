// Package id issues evaluation run identifiers.
//
// Run IDs are ULIDs: they sort by the time the run was recorded, so the
// journal lists newest runs first with a plain ORDER BY.
package id

import (
	cryptoRand "crypto/rand"
	"encoding/binary"
	"fmt"
	"io"
	"math/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Generator issues monotonic run IDs. The zero value is not usable; use
// NewGenerator.
type Generator struct {
	mu   sync.Mutex
	mono io.Reader
	now  func() time.Time
}

// NewGenerator returns a Generator stamping IDs with now, or the wall clock
// when now is nil.
func NewGenerator(now func() time.Time) *Generator {
	var seed int64
	_ = binary.Read(cryptoRand.Reader, binary.LittleEndian, &seed)
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if now == nil {
		now = time.Now
	}
	return &Generator{
		mono: ulid.Monotonic(rand.New(rand.NewSource(seed)), 0),
		now:  now,
	}
}

// New returns the next run ID. IDs issued within the same millisecond still
// increase.
func (g *Generator) New() string {
	g.mu.Lock()
	defer g.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(g.now().UTC()), g.mono)
	if err != nil {
		// only when the entropy of one millisecond is exhausted
		panic(err)
	}
	return id.String()
}

var std = NewGenerator(nil)

// New returns a run ID from the package generator.
func New() string {
	return std.New()
}

// Time returns the instant encoded in a run ID, to the millisecond.
func Time(runID string) (time.Time, error) {
	u, err := ulid.ParseStrict(runID)
	if err != nil {
		return time.Time{}, fmt.Errorf("run id %q: %w", runID, err)
	}
	return ulid.Time(u.Time()).UTC(), nil
}

package trades

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSchema reports a trade table lacking required columns.
	ErrSchema = errors.New("trades: required columns missing")

	// ErrEmptyResult reports a trade table with no row left to evaluate.
	ErrEmptyResult = errors.New("trades: no valid rows after date parsing")
)

// SchemaError lists the required columns absent after normalization.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("%v: %s", ErrSchema, strings.Join(e.Missing, ", "))
}

func (e *SchemaError) Unwrap() error { return ErrSchema }

// EmptyResultError reports how many rows were dropped for an unreadable
// entry time.
type EmptyResultError struct {
	Dropped int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("%v (%d rows dropped)", ErrEmptyResult, e.Dropped)
}

func (e *EmptyResultError) Unwrap() error { return ErrEmptyResult }

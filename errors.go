package huffmantree

import (
	"errors"
	"fmt"
)

// ErrInvalidFrequency is matched (via errors.Is) by every error reporting a
// negative count in a FrequencyTable.
var ErrInvalidFrequency = errors.New("invalid frequency")

// ErrWeightOverflow is returned when the sum of all counts in a FrequencyTable
// does not fit in an int64.
var ErrWeightOverflow = errors.New("total weight overflows int64")

// FrequencyError describes a negative count found in a FrequencyTable.
type FrequencyError struct {
	Symbol Symbol
	Count  int64
}

// Error fulfills the error interface.
func (err *FrequencyError) Error() string {
	return fmt.Sprintf("invalid frequency for symbol %d: %d", err.Symbol, err.Count)
}

// Is returns true for ErrInvalidFrequency.
func (err *FrequencyError) Is(target error) bool {
	return target == ErrInvalidFrequency
}

var _ error = (*FrequencyError)(nil)

package common

import (
	"errors"
	"fmt"

	"github.com/chronos-tachyon/huffmantree"
)

// ErrNegativeSymbol is returned by CheckSymbols.
var ErrNegativeSymbol = errors.New("negative symbol")

// CheckSymbols rejects a frequency table with a nonzero count keyed by a
// negative symbol.  The services exchange symbols as bytes or Unicode code
// points, so a negative key can only come from a malformed request.
func CheckSymbols(freqs huffmantree.FrequencyTable) error {
	symbols := freqs.Symbols()
	if len(symbols) != 0 && symbols[0] < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeSymbol, int32(symbols[0]))
	}
	return nil
}

package huffmantree

import (
	"strconv"
	"unicode"
)

// Symbol represents a symbol in an arbitrary alphabet, typically a byte or
// a Unicode code point.  BuildTree treats symbols as opaque keys and uses
// only their order, so negative values are accepted; callers that exchange
// bytes or runes reject them at their own boundary.
type Symbol int32

// InvalidSymbol is returned by some functions to clearly indicate that no
// symbol is being returned.
const InvalidSymbol = Symbol(-1)

// String returns a human-readable form of the symbol.  Printable runes are
// quoted; everything else is shown as a number.
func (s Symbol) String() string {
	if s >= 0 && s <= unicode.MaxRune && unicode.IsPrint(rune(s)) {
		return strconv.QuoteRune(rune(s))
	}
	return strconv.FormatInt(int64(s), 10)
}

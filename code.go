package huffmantree

import (
	"fmt"
	"strconv"
	"strings"
)

// Code represents a sequence of bits.  The zero Code is empty.
//
// Codes are immutable and comparable, so they may be used as map keys.  The
// bits are held as a string of '0' and '1' bytes, which places no limit on the
// depth of the tree a Code can describe.
//
type Code struct {
	bits string
}

// ParseCode parses a string of '0' and '1' characters into a Code.
func ParseCode(str string) (Code, error) {
	for index := 0; index < len(str); index++ {
		if ch := str[index]; ch != '0' && ch != '1' {
			return Code{}, fmt.Errorf("invalid bit %q at offset %d in code %q", ch, index, str)
		}
	}
	return Code{bits: str}, nil
}

// MustParseCode is like ParseCode, but panics on error.
func MustParseCode(str string) Code {
	hc, err := ParseCode(str)
	if err != nil {
		panic(err)
	}
	return hc
}

// MakeCode constructs a Code of the given size from packed bits.  The least
// significant bit of bits is the first bit.
func MakeCode(size byte, bits uint64) Code {
	var sb strings.Builder
	sb.Grow(int(size))
	for index := byte(0); index < size; index++ {
		sb.WriteByte('0' + byte((bits>>index)&1))
	}
	return Code{bits: sb.String()}
}

// Size returns the number of bits in this Code.
func (hc Code) Size() int {
	return len(hc.bits)
}

// Bit returns the bit at the given index, 0 or 1.
func (hc Code) Bit(index int) byte {
	return hc.bits[index] - '0'
}

// Append returns a new Code with one more bit at the end.
func (hc Code) Append(bit byte) Code {
	return Code{bits: hc.bits + string('0'+(bit&1))}
}

// HasPrefix reports whether prefix is a prefix of this Code.
func (hc Code) HasPrefix(prefix Code) bool {
	return strings.HasPrefix(hc.bits, prefix.bits)
}

// Packed returns the bits of this Code packed into a uint64, with the least
// significant bit holding the first bit.  The second return value is false
// if the Code is too long to fit.
func (hc Code) Packed() (uint64, bool) {
	if len(hc.bits) > 64 {
		return 0, false
	}
	var bits uint64
	for index := len(hc.bits) - 1; index >= 0; index-- {
		bits = (bits << 1) | uint64(hc.bits[index]-'0')
	}
	return bits, true
}

// Bits returns the raw bit string, e.g. "0110".
func (hc Code) Bits() string {
	return hc.bits
}

// String returns the string representation of this Code.
func (hc Code) String() string {
	return strconv.Quote(hc.bits)
}

// MarshalText fulfills encoding.TextMarshaler.
func (hc Code) MarshalText() ([]byte, error) {
	return []byte(hc.bits), nil
}

// UnmarshalText fulfills encoding.TextUnmarshaler.
func (hc *Code) UnmarshalText(text []byte) error {
	parsed, err := ParseCode(string(text))
	if err != nil {
		return err
	}
	*hc = parsed
	return nil
}

var _ fmt.Stringer = Code{}

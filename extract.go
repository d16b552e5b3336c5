package huffmantree

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	mathbits "math/bits"
	"sort"

	"github.com/chronos-tachyon/assert"
)

// Entry is one row of a CodeTable.
type Entry struct {
	Symbol Symbol
	Weight int64
	Code   Code
}

// CodeTable maps each Symbol of a Huffman tree to its Code.
type CodeTable struct {
	entries []Entry
	index   map[Symbol]int
	minSize int
	maxSize int
}

// ExtractCodes walks the tree depth-first, left before right, appending a 0
// bit for every left branch and a 1 bit for every right branch, and records
// the accumulated path at each leaf.
//
// A tree consisting of a single leaf has no branches at all; that leaf is
// assigned the one-bit code "0", since an empty code is not a valid prefix
// code.  A nil tree yields an empty table.
//
func ExtractCodes(root Node) *CodeTable {
	t := &CodeTable{index: make(map[Symbol]int)}
	if root == nil {
		return t
	}

	if leaf, ok := root.(*Leaf); ok {
		t.add(Entry{Symbol: leaf.Symbol, Weight: leaf.Freq, Code: MustParseCode("0")})
		return t
	}

	type stackItem struct {
		n  Node
		hc Code
	}

	// Right children are pushed before left ones so that leaves come out
	// in left-to-right order.
	stack := make([]stackItem, 0, 2*log2int(root.Weight()))
	stack = append(stack, stackItem{n: root})
	for len(stack) != 0 {
		top := stack[len(stack)-1]
		stack[len(stack)-1] = stackItem{}
		stack = stack[:len(stack)-1]

		switch x := top.n.(type) {
		case *Leaf:
			t.add(Entry{Symbol: x.Symbol, Weight: x.Freq, Code: top.hc})
		case *Internal:
			stack = append(stack, stackItem{n: x.Right, hc: top.hc.Append(1)})
			stack = append(stack, stackItem{n: x.Left, hc: top.hc.Append(0)})
		default:
			assert.Assertf(false, "unexpected node type %T", top.n)
		}
	}
	return t
}

func (t *CodeTable) add(e Entry) {
	_, dup := t.index[e.Symbol]
	assert.Assertf(!dup, "symbol %d appears twice in the tree", e.Symbol)

	size := e.Code.Size()
	if len(t.entries) == 0 {
		t.minSize, t.maxSize = size, size
	} else if t.minSize > size {
		t.minSize = size
	} else if t.maxSize < size {
		t.maxSize = size
	}

	t.index[e.Symbol] = len(t.entries)
	t.entries = append(t.entries, e)
}

// Lookup returns the Code assigned to symbol.
func (t *CodeTable) Lookup(symbol Symbol) (Code, bool) {
	i, found := t.index[symbol]
	if !found {
		return Code{}, false
	}
	return t.entries[i].Code, true
}

// Len returns the number of symbols in the table.
func (t *CodeTable) Len() int {
	return len(t.entries)
}

// Entries returns a copy of every row, in traversal order.
func (t *CodeTable) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// MinSize is the bit length of the shortest code, or 0 if the table is empty.
func (t *CodeTable) MinSize() int {
	return t.minSize
}

// MaxSize is the bit length of the longest code, or 0 if the table is empty.
func (t *CodeTable) MaxSize() int {
	return t.maxSize
}

// WeightedLength returns the sum of weight × code length over every symbol,
// i.e. the number of bits needed to encode the input the table was built
// from.
//
// A table whose total weight fits in an int64 can still have a weighted
// length that does not.  In that case WeightedLength returns
// (math.MaxInt64, false).
//
func (t *CodeTable) WeightedLength() (int64, bool) {
	var sum uint64
	for _, e := range t.entries {
		hi, lo := mathbits.Mul64(uint64(e.Weight), uint64(e.Code.Size()))
		if hi != 0 || lo > math.MaxInt64 {
			return math.MaxInt64, false
		}
		var carry uint64
		sum, carry = mathbits.Add64(sum, lo, 0)
		if carry != 0 || sum > math.MaxInt64 {
			return math.MaxInt64, false
		}
	}
	return int64(sum), true
}

// Canonical returns a new CodeTable with the same code lengths, but with the
// codes reassigned to form a canonical Huffman code: codes are handed out in
// increasing numerical order, sorted by (length, Symbol).  The rows of the
// result are in that same order.
//
// References:
//
//     <https://www.rfc-editor.org/rfc/rfc1951.html>, Section 3.2.2
//
//     <https://en.wikipedia.org/wiki/Canonical_Huffman_code>
//
func (t *CodeTable) Canonical() *CodeTable {
	out := &CodeTable{index: make(map[Symbol]int, len(t.entries))}
	if len(t.entries) == 0 {
		return out
	}

	// Step 1: sort the symbols by (size, symbol) ascending.

	sorted := make(bySize, len(t.entries))
	copy(sorted, t.entries)
	sorted.Sort()

	// Step 2: assign the codes sequentially.  nextCode holds the bits of
	// the next code, most significant (i.e. first) bit first.

	nextCode := make([]byte, sorted[0].Code.Size())
	for index := range nextCode {
		nextCode[index] = '0'
	}
	for _, e := range sorted {
		for len(nextCode) < e.Code.Size() {
			nextCode = append(nextCode, '0')
		}
		out.add(Entry{Symbol: e.Symbol, Weight: e.Weight, Code: Code{bits: string(nextCode)}})
		incrementBits(nextCode)
	}
	return out
}

// incrementBits adds 1 to a big-endian string of '0' and '1' bytes, in place.
// Carrying out of the top bit leaves every bit zeroed.
func incrementBits(bits []byte) {
	for index := len(bits) - 1; index >= 0; index-- {
		if bits[index] == '0' {
			bits[index] = '1'
			return
		}
		bits[index] = '0'
	}
}

// Dump writes a programmer-readable debugging dump of the CodeTable to the
// given writer.
func (t *CodeTable) Dump(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	buf.WriteString("CodeTable{\n")
	fmt.Fprintf(&buf, "\tMinSize() = %d\n", t.minSize)
	fmt.Fprintf(&buf, "\tMaxSize() = %d\n", t.maxSize)
	for _, e := range t.entries {
		fmt.Fprintf(&buf, "\tLookup(%s) = %s [weight %d]\n", e.Symbol, e.Code, e.Weight)
	}
	buf.WriteString("}\n")
	return buf.WriteTo(w)
}

// MarshalJSON encodes the table as a JSON object mapping each symbol number
// to its bit string.
func (t *CodeTable) MarshalJSON() ([]byte, error) {
	m := make(map[Symbol]Code, len(t.entries))
	for _, e := range t.entries {
		m[e.Symbol] = e.Code
	}
	return json.Marshal(m)
}

var _ json.Marshaler = (*CodeTable)(nil)

// type bySize {{{

type bySize []Entry

func (list bySize) Len() int {
	return len(list)
}

func (list bySize) Swap(i, j int) {
	list[i], list[j] = list[j], list[i]
}

func (list bySize) Less(i, j int) bool {
	a, b := list[i], list[j]
	ai, bi := a.Code.Size(), b.Code.Size()
	if ai != bi {
		return ai < bi
	}
	return a.Symbol < b.Symbol
}

func (list bySize) Sort() {
	sort.Sort(list)
}

var _ sort.Interface = bySize(nil)

// }}}

// Package report renders code tables for people (tab-separated rows) and
// for machines (JSON documents).
package report

import (
	"bufio"
	"fmt"
	"io"
	"time"

	"github.com/chronos-tachyon/huffmantree"
)

// Header is the first line written by Write.
const Header = "SYMBOL\tWEIGHT\tHUFFMAN CODE"

// Write prints one "symbol, weight, code" row per entry, in traversal order,
// followed by the elapsed time.  A negative elapsed time omits that line.
func Write(w io.Writer, table *huffmantree.CodeTable, elapsed time.Duration) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintln(bw, Header)
	for _, e := range table.Entries() {
		fmt.Fprintf(bw, "%s\t%d\t%s\n", e.Symbol, e.Weight, e.Code.Bits())
	}
	if elapsed >= 0 {
		fmt.Fprintf(bw, "Total execution time for current run: %d ms\n", elapsed.Milliseconds())
	}
	return bw.Flush()
}

// Row is one symbol of a Document.
type Row struct {
	Symbol  huffmantree.Symbol `json:"symbol"`
	Display string             `json:"display"`
	Weight  int64              `json:"weight"`
	Code    huffmantree.Code   `json:"code"`
}

// Document is the JSON form of a code table.
//
// WeightedLength saturates at math.MaxInt64, in which case
// WeightedLengthOverflow is set.
type Document struct {
	Symbols                int   `json:"symbols"`
	WeightedLength         int64 `json:"weighted_length"`
	WeightedLengthOverflow bool  `json:"weighted_length_overflow,omitempty"`
	MinSize                int   `json:"min_size"`
	MaxSize                int   `json:"max_size"`
	Codes                  []Row `json:"codes"`
}

// NewDocument converts a CodeTable into a Document, keeping the table's row
// order.
func NewDocument(table *huffmantree.CodeTable) Document {
	entries := table.Entries()
	weighted, ok := table.WeightedLength()
	doc := Document{
		Symbols:                len(entries),
		WeightedLength:         weighted,
		WeightedLengthOverflow: !ok,
		MinSize:                table.MinSize(),
		MaxSize:                table.MaxSize(),
		Codes:                  make([]Row, 0, len(entries)),
	}
	for _, e := range entries {
		doc.Codes = append(doc.Codes, Row{
			Symbol:  e.Symbol,
			Display: e.Symbol.String(),
			Weight:  e.Weight,
			Code:    e.Code,
		})
	}
	return doc
}

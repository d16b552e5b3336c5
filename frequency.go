package huffmantree

import (
	"context"
	"math"
	"sort"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"
)

// FrequencyTable maps each Symbol to its number of occurrences.
//
// Symbols with a count of 0 are permitted but ignored by BuildTree.  Negative
// counts are invalid, and BuildTree rejects them with ErrInvalidFrequency.
//
type FrequencyTable map[Symbol]int64

// CountSymbols builds a FrequencyTable from a sequence of symbols.
func CountSymbols(symbols []Symbol) FrequencyTable {
	freqs := make(FrequencyTable)
	for _, symbol := range symbols {
		freqs[symbol]++
	}
	return freqs
}

// CountBytes builds a FrequencyTable whose symbols are byte values.
func CountBytes(data []byte) FrequencyTable {
	var counts [256]int64
	countBytesInto(&counts, data)
	return fromByteCounts(&counts)
}

// CountRunes builds a FrequencyTable whose symbols are Unicode code points.
// Invalid UTF-8 sequences are counted as utf8.RuneError.
func CountRunes(text string) FrequencyTable {
	freqs := make(FrequencyTable)
	for _, ch := range text {
		freqs[Symbol(ch)]++
	}
	return freqs
}

// CountBytesParallel is like CountBytes, but splits data into up to workers
// disjoint chunks and counts each chunk in its own goroutine.
func CountBytesParallel(ctx context.Context, data []byte, workers int) (FrequencyTable, error) {
	chunks := splitChunks(data, workers, false)
	partials := make([][256]int64, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for index := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			countBytesInto(&partials[index], chunks[index])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var counts [256]int64
	for index := range partials {
		for b, n := range partials[index] {
			counts[b] += n
		}
	}
	return fromByteCounts(&counts), nil
}

// CountRunesParallel is like CountRunes, but splits data into up to workers
// disjoint chunks, each starting on a rune boundary, and counts each chunk in
// its own goroutine.
func CountRunesParallel(ctx context.Context, data []byte, workers int) (FrequencyTable, error) {
	chunks := splitChunks(data, workers, true)
	partials := make([]FrequencyTable, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for index := range chunks {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			partials[index] = CountRunes(string(chunks[index]))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	freqs := make(FrequencyTable)
	for _, partial := range partials {
		freqs.Merge(partial)
	}
	return freqs, nil
}

// Add adds n occurrences of symbol.
func (freqs FrequencyTable) Add(symbol Symbol, n int64) {
	freqs[symbol] += n
}

// Merge adds every count in other to this table.
func (freqs FrequencyTable) Merge(other FrequencyTable) {
	for symbol, n := range other {
		freqs[symbol] += n
	}
}

// Len returns the number of symbols with a nonzero count.
func (freqs FrequencyTable) Len() int {
	var n int
	for _, count := range freqs {
		if count != 0 {
			n++
		}
	}
	return n
}

// Symbols returns the symbols with a nonzero count, in ascending order.
func (freqs FrequencyTable) Symbols() []Symbol {
	out := make([]Symbol, 0, len(freqs))
	for symbol, count := range freqs {
		if count != 0 {
			out = append(out, symbol)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Validate checks that no count is negative and that the total fits in an
// int64.  It returns the total weight of the table.
func (freqs FrequencyTable) Validate() (int64, error) {
	var total int64
	for _, symbol := range freqs.sortedKeys() {
		count := freqs[symbol]
		if count < 0 {
			return 0, &FrequencyError{Symbol: symbol, Count: count}
		}
		if total > math.MaxInt64-count {
			return 0, ErrWeightOverflow
		}
		total += count
	}
	return total, nil
}

// sortedKeys returns every key, including zero-count ones, in ascending order,
// so that Validate reports the same offending symbol on every run.
func (freqs FrequencyTable) sortedKeys() []Symbol {
	out := make([]Symbol, 0, len(freqs))
	for symbol := range freqs {
		out = append(out, symbol)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func countBytesInto(counts *[256]int64, data []byte) {
	for _, b := range data {
		counts[b]++
	}
}

func fromByteCounts(counts *[256]int64) FrequencyTable {
	freqs := make(FrequencyTable)
	for b, n := range counts {
		if n != 0 {
			freqs[Symbol(b)] = n
		}
	}
	return freqs
}

// splitChunks splits data into at most n contiguous chunks of roughly equal
// size.  If runeAligned is set, chunk boundaries are moved forward so that no
// UTF-8 sequence straddles two chunks.
func splitChunks(data []byte, n int, runeAligned bool) [][]byte {
	if n < 1 {
		n = 1
	}
	if len(data) == 0 {
		return nil
	}
	chunkSize := (len(data) + n - 1) / n
	chunks := make([][]byte, 0, n)
	for start := 0; start < len(data); {
		end := min(start+chunkSize, len(data))
		if runeAligned {
			for end < len(data) && !utf8.RuneStart(data[end]) {
				end++
			}
		}
		chunks = append(chunks, data[start:end])
		start = end
	}
	return chunks
}

// RuneCounter is an io.Writer that counts the Unicode code points written to
// it.  A UTF-8 sequence may be split across calls to Write.
type RuneCounter struct {
	freqs FrequencyTable
	tail  []byte
}

// NewRuneCounter returns an empty RuneCounter.
func NewRuneCounter() *RuneCounter {
	return &RuneCounter{freqs: make(FrequencyTable)}
}

// Write counts every complete rune in p.  A trailing incomplete sequence is
// held back until the next Write or Table call.  It never fails.
func (rc *RuneCounter) Write(p []byte) (int, error) {
	buf := p
	if len(rc.tail) != 0 {
		buf = append(append([]byte(nil), rc.tail...), p...)
		rc.tail = rc.tail[:0]
	}
	for len(buf) != 0 {
		if !utf8.FullRune(buf) {
			rc.tail = append(rc.tail, buf...)
			break
		}
		ch, size := utf8.DecodeRune(buf)
		rc.freqs[Symbol(ch)]++
		buf = buf[size:]
	}
	return len(p), nil
}

// Table returns a snapshot of the counts so far.  Any held-back incomplete
// sequence is counted as utf8.RuneError, once per byte, matching CountRunes.
// Later writes do not affect a returned table.
func (rc *RuneCounter) Table() FrequencyTable {
	for range rc.tail {
		rc.freqs[utf8.RuneError]++
	}
	rc.tail = rc.tail[:0]
	out := make(FrequencyTable, len(rc.freqs))
	out.Merge(rc.freqs)
	return out
}

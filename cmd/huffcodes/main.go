// Command huffcodes prints the Huffman code of every symbol in a file.
//
// Usage:
//
//     huffcodes [-workers N] [-bytes] [-canonical] [-json] FILE
//
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/chronos-tachyon/huffmantree"
	"github.com/chronos-tachyon/huffmantree/internal/logging"
	"github.com/chronos-tachyon/huffmantree/internal/report"
)

func main() {
	logging.Setup(os.Stderr)
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		slog.Error("huffcodes failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	flags := flag.NewFlagSet("huffcodes", flag.ContinueOnError)
	workers := flags.Int("workers", runtime.NumCPU(), "number of goroutines counting frequencies")
	byBytes := flags.Bool("bytes", false, "count bytes instead of UTF-8 runes")
	canonical := flags.Bool("canonical", false, "print canonical codes with the same lengths")
	asJSON := flags.Bool("json", false, "print a JSON document instead of a table")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return fmt.Errorf("expected exactly one input file, got %d arguments", flags.NArg())
	}
	if *workers < 1 {
		return fmt.Errorf("-workers must be positive, got %d", *workers)
	}

	logger := slog.With("run", uuid.NewString(), "file", flags.Arg(0))
	start := time.Now()

	data, err := os.ReadFile(flags.Arg(0))
	if err != nil {
		return fmt.Errorf("cannot read input: %w", err)
	}
	logger.Debug("Read input", "bytes", len(data))

	var freqs huffmantree.FrequencyTable
	if *byBytes {
		freqs, err = huffmantree.CountBytesParallel(ctx, data, *workers)
	} else {
		freqs, err = huffmantree.CountRunesParallel(ctx, data, *workers)
	}
	if err != nil {
		return fmt.Errorf("counting frequencies: %w", err)
	}
	logger.Debug("Built frequency table", "symbols", freqs.Len(), "workers", *workers)

	root, err := huffmantree.BuildTree(freqs)
	if err != nil {
		return fmt.Errorf("building Huffman tree: %w", err)
	}
	table := huffmantree.ExtractCodes(root)
	if *canonical {
		table = table.Canonical()
	}
	elapsed := time.Since(start)
	weighted, ok := table.WeightedLength()
	logger.Info("Built code table", "symbols", table.Len(), "weighted_length", weighted, "weighted_length_overflow", !ok, "elapsed", elapsed)

	if *asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report.NewDocument(table))
	}
	return report.Write(stdout, table, elapsed)
}

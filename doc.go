// Package huffmantree builds Huffman prefix-code trees from symbol
// frequencies and derives a variable-length binary code for each symbol.
//
// The pipeline has three stages:
//
//     FrequencyTable  --BuildTree-->  Node  --ExtractCodes-->  *CodeTable
//
// Frequency counting may be spread across goroutines (CountBytesParallel,
// CountRunesParallel); tree construction is always a single sequential
// greedy merge over the combined table.
//
// References:
//
//     <https://en.wikipedia.org/wiki/Huffman_coding>
//
//     <https://en.wikipedia.org/wiki/Canonical_Huffman_code>
//
package huffmantree

package report

import (
	"encoding/json"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/chronos-tachyon/huffmantree"
)

func classicTable(t *testing.T) *huffmantree.CodeTable {
	t.Helper()
	root, err := huffmantree.BuildTree(huffmantree.FrequencyTable{'a': 5, 'b': 9, 'c': 12, 'd': 13, 'e': 16, 'f': 45})
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	return huffmantree.ExtractCodes(root)
}

func TestWrite(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, classicTable(t), 1500*time.Millisecond); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	expect := strings.Join([]string{
		"SYMBOL\tWEIGHT\tHUFFMAN CODE\n",
		"'f'\t45\t0\n",
		"'c'\t12\t100\n",
		"'d'\t13\t101\n",
		"'a'\t5\t1100\n",
		"'b'\t9\t1101\n",
		"'e'\t16\t111\n",
		"Total execution time for current run: 1500 ms\n",
	}, "")
	if actual := buf.String(); expect != actual {
		t.Errorf("wrong output:\n\texpect: %s\n\tactual: %s", expect, actual)
	}
}

func TestWrite_Empty(t *testing.T) {
	var buf strings.Builder
	if err := Write(&buf, huffmantree.ExtractCodes(nil), -1); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if expect, actual := Header+"\n", buf.String(); expect != actual {
		t.Errorf("wrong output:\n\texpect: %q\n\tactual: %q", expect, actual)
	}
}

func TestNewDocument(t *testing.T) {
	raw, err := json.Marshal(NewDocument(classicTable(t)))
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var doc Document
	if err := json.Unmarshal(raw, &doc); err != nil {
		t.Fatalf("json.Unmarshal failed: %v", err)
	}
	if doc.Symbols != 6 || doc.WeightedLength != 224 || doc.MinSize != 1 || doc.MaxSize != 4 {
		t.Errorf("wrong summary: %+v", doc)
	}
	if len(doc.Codes) != 6 {
		t.Fatalf("expected 6 rows, got %d", len(doc.Codes))
	}
	first := doc.Codes[0]
	if first.Symbol != 'f' || first.Display != "'f'" || first.Weight != 45 || first.Code.Bits() != "0" {
		t.Errorf("wrong first row: %+v", first)
	}
}

func TestNewDocument_WeightedLengthOverflow(t *testing.T) {
	root, err := huffmantree.BuildTree(huffmantree.FrequencyTable{1: 1, 2: 1, 3: 1 << 62, 4: 1<<62 - 3})
	if err != nil {
		t.Fatalf("BuildTree failed: %v", err)
	}
	doc := NewDocument(huffmantree.ExtractCodes(root))
	if !doc.WeightedLengthOverflow {
		t.Errorf("expected WeightedLengthOverflow to be set")
	}
	if doc.WeightedLength != math.MaxInt64 {
		t.Errorf("expected saturated weighted length, got %d", doc.WeightedLength)
	}

	raw, err := json.Marshal(NewDocument(classicTable(t)))
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}
	if strings.Contains(string(raw), "weighted_length_overflow") {
		t.Errorf("unexpected overflow field in %s", raw)
	}
}

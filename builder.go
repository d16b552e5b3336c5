package huffmantree

import (
	"container/heap"

	"github.com/chronos-tachyon/assert"
)

// BuildTree constructs a Huffman tree for the given frequencies, using the
// classic greedy algorithm: repeatedly merge the two lightest nodes of the
// forest until only one remains.
//
// Symbols with a frequency of 0 are omitted.  If no symbol has a nonzero
// frequency, BuildTree returns a nil Node and a nil error.  If exactly one
// symbol does, the result is a lone *Leaf.
//
// Ties between equal weights are broken by a sequence number: leaves are
// numbered in ascending Symbol order, and each merged node is numbered after
// every node that exists before it.  Two calls with the same table therefore
// always produce identical trees.
//
// BuildTree returns an error matching ErrInvalidFrequency if any count is
// negative, or ErrWeightOverflow if the counts sum past math.MaxInt64.
//
func BuildTree(freqs FrequencyTable) (Node, error) {
	total, err := freqs.Validate()
	if err != nil {
		return nil, err
	}

	symbols := freqs.Symbols()
	switch len(symbols) {
	case 0:
		return nil, nil
	case 1:
		return &Leaf{Symbol: symbols[0], Freq: freqs[symbols[0]]}, nil
	}

	// Step 1: seed the forest with one leaf per symbol and build a minheap.

	h := forestHeap{list: make([]forestItem, 0, len(symbols))}
	for _, symbol := range symbols {
		h.list = append(h.list, forestItem{
			node: &Leaf{Symbol: symbol, Freq: freqs[symbol]},
			seq:  h.nextSeq,
		})
		h.nextSeq++
	}
	h.Init()

	// Step 2: pop the two lightest nodes, join them under a new internal
	// node, and push that back.  Validate already proved that no partial
	// sum can overflow, since every partial sum is bounded by total.

	for h.Len() > 1 {
		a := heap.Pop(&h).(forestItem)
		b := heap.Pop(&h).(forestItem)
		sum := a.node.Weight() + b.node.Weight()
		assert.Assertf(sum >= 0 && sum <= total, "merged weight %d out of range [0, %d]", sum, total)

		heap.Push(&h, forestItem{
			node: &Internal{Sum: sum, Left: a.node, Right: b.node},
			seq:  h.nextSeq,
		})
		h.nextSeq++
	}

	root := heap.Pop(&h).(forestItem).node
	assert.Assertf(root.Weight() == total, "root weight %d != total %d", root.Weight(), total)
	return root, nil
}

// MustBuildTree is like BuildTree, but panics on error.
func MustBuildTree(freqs FrequencyTable) Node {
	root, err := BuildTree(freqs)
	if err != nil {
		panic(err)
	}
	return root
}

// type forestItem + type forestHeap {{{

type forestItem struct {
	node Node
	seq  uint64
}

type forestHeap struct {
	list    []forestItem
	nextSeq uint64
}

func (h *forestHeap) Init() {
	heap.Init(h)
}

func (h *forestHeap) Len() int {
	return len(h.list)
}

func (h *forestHeap) Swap(i, j int) {
	h.list[i], h.list[j] = h.list[j], h.list[i]
}

func (h *forestHeap) Less(i, j int) bool {
	a, b := h.list[i], h.list[j]
	aw, bw := a.node.Weight(), b.node.Weight()
	if aw != bw {
		return aw < bw
	}
	return a.seq < b.seq
}

func (h *forestHeap) Push(x interface{}) {
	h.list = append(h.list, x.(forestItem))
}

func (h *forestHeap) Pop() interface{} {
	last := uint(len(h.list)) - 1
	x := h.list[last]
	h.list[last] = forestItem{}
	h.list = h.list[:last]
	return x
}

var _ heap.Interface = (*forestHeap)(nil)

// }}}

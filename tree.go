package huffmantree

// Node is a node of a Huffman tree.  It is either a *Leaf or an *Internal.
//
// Trees are immutable once built, and each Internal node exclusively owns its
// two children.
//
type Node interface {
	// Weight returns the node's aggregate frequency.
	Weight() int64

	node()
}

// Leaf is a Node that carries a Symbol.
type Leaf struct {
	Symbol Symbol
	Freq   int64
}

// Weight returns the symbol's frequency.
func (leaf *Leaf) Weight() int64 { return leaf.Freq }

func (*Leaf) node() {}

// Internal is a Node with exactly two children.  Its weight is the sum of
// its children's weights.
type Internal struct {
	Sum   int64
	Left  Node
	Right Node
}

// Weight returns the combined weight of both children.
func (in *Internal) Weight() int64 { return in.Sum }

func (*Internal) node() {}

var (
	_ Node = (*Leaf)(nil)
	_ Node = (*Internal)(nil)
)

// Walk visits every node of the tree in pre-order, left before right.  The
// depth of the root is 0.  If fn returns false, the children of that node are
// skipped.
func Walk(root Node, fn func(n Node, depth int) bool) {
	if root == nil {
		return
	}
	walk(root, 0, fn)
}

func walk(n Node, depth int, fn func(Node, int) bool) {
	if !fn(n, depth) {
		return
	}
	if in, ok := n.(*Internal); ok {
		walk(in.Left, depth+1, fn)
		walk(in.Right, depth+1, fn)
	}
}

// CountNodes returns the number of leaves and internal nodes in the tree.
func CountNodes(root Node) (leaves int, internals int) {
	Walk(root, func(n Node, _ int) bool {
		switch n.(type) {
		case *Leaf:
			leaves++
		case *Internal:
			internals++
		}
		return true
	})
	return
}

// Depth returns the depth of the deepest leaf, or -1 for an empty tree.
func Depth(root Node) int {
	deepest := -1
	Walk(root, func(_ Node, depth int) bool {
		if depth > deepest {
			deepest = depth
		}
		return true
	})
	return deepest
}

// Resolve follows hc down the tree and returns the Symbol of the leaf it
// reaches.  It returns InvalidSymbol if hc ends at an internal node or runs
// past a leaf.  As with ExtractCodes, a tree consisting of a single leaf
// answers to the code "0".
func Resolve(root Node, hc Code) (Symbol, bool) {
	if leaf, ok := root.(*Leaf); ok {
		if hc.Size() == 1 && hc.Bit(0) == 0 {
			return leaf.Symbol, true
		}
		return InvalidSymbol, false
	}

	n := root
	for index := 0; index < hc.Size(); index++ {
		in, ok := n.(*Internal)
		if !ok {
			return InvalidSymbol, false
		}
		if hc.Bit(index) == 0 {
			n = in.Left
		} else {
			n = in.Right
		}
	}
	if leaf, ok := n.(*Leaf); ok {
		return leaf.Symbol, true
	}
	return InvalidSymbol, false
}

// Equal reports whether two trees are structurally identical: same shape,
// same weights, same symbols at the same positions.
func Equal(a, b Node) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case *Leaf:
		y, ok := b.(*Leaf)
		return ok && *x == *y
	case *Internal:
		y, ok := b.(*Internal)
		return ok && x.Sum == y.Sum && Equal(x.Left, y.Left) && Equal(x.Right, y.Right)
	default:
		return false
	}
}

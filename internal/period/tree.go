package period

import "time"

// Node is either a leaf holding one item or a branch holding ordered
// children. Level tells which calendar field a branch groups by.
type Node[T any] struct {
	Label    string
	Level    Unit
	Time     time.Time // first item's time, for titles
	Item     T
	Children []*Node[T]
	leaf     bool
}

// IsLeaf reports whether n carries an item.
func (n *Node[T]) IsLeaf() bool { return n.leaf }

// Leaves counts items below n.
func (n *Node[T]) Leaves() int {
	if n.leaf {
		return 1
	}
	total := 0
	for _, c := range n.Children {
		total += c.Leaves()
	}
	return total
}

var treeLevels = []Unit{Year, Month, Day}

// BuildTree nests items into year, month and day branches under an
// unlabeled root. Ordering follows GroupBy.
func BuildTree[T any](items []T, stamp func(T) time.Time) *Node[T] {
	root := &Node[T]{}
	root.Children = build(items, stamp, 0)
	return root
}

func build[T any](items []T, stamp func(T) time.Time, depth int) []*Node[T] {
	if depth == len(treeLevels) {
		out := make([]*Node[T], 0, len(items))
		for _, it := range items {
			out = append(out, &Node[T]{Item: it, Time: stamp(it), leaf: true})
		}
		return out
	}

	level := treeLevels[depth]
	groups, _ := GroupBy(items, stamp, level)
	out := make([]*Node[T], 0, len(groups))
	for _, g := range groups {
		out = append(out, &Node[T]{
			Label:    g.Key,
			Level:    level,
			Time:     stamp(g.Items[0]),
			Children: build(g.Items, stamp, depth+1),
		})
	}
	return out
}

// Walk visits n and its descendants depth first. The root is depth 0.
func Walk[T any](n *Node[T], fn func(depth int, n *Node[T])) {
	walk(n, 0, fn)
}

func walk[T any](n *Node[T], depth int, fn func(int, *Node[T])) {
	fn(depth, n)
	for _, c := range n.Children {
		walk(c, depth+1, fn)
	}
}

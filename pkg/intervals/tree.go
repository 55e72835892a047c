// Package intervals implements an augmented AVL tree over closed float64
// intervals.
//
// Every node stores the largest hi of its subtree, which lets Search skip
// any subtree that ends before the query starts. Queries run in
// O(log n + k) for k results.
//
// Intervals are closed: [lo, hi] overlaps [qlo, qhi] iff lo <= qhi and
// hi >= qlo. A zero-width interval (lo == hi) is therefore found by a query
// that touches its single point.
package intervals

import "cmp"

// Item is one stored interval with its payload.
type Item[T cmp.Ordered] struct {
	Lo, Hi float64
	Value  T
}

type node[T cmp.Ordered] struct {
	item        Item[T]
	max         float64
	height      int
	left, right *node[T]
}

// Tree is an interval tree keyed by (lo, hi, value). The zero value is an
// empty tree ready for use. A Tree is not safe for concurrent mutation.
type Tree[T cmp.Ordered] struct {
	root *node[T]
	size int
}

// New returns an empty tree.
func New[T cmp.Ordered]() *Tree[T] {
	return &Tree[T]{}
}

// Len returns the number of stored intervals.
func (t *Tree[T]) Len() int { return t.size }

// Height returns the height of the tree; 0 when empty.
func (t *Tree[T]) Height() int { return height(t.root) }

// Clear removes every interval.
func (t *Tree[T]) Clear() {
	t.root = nil
	t.size = 0
}

// Insert adds [lo, hi] with value v. A reversed interval is swapped. It
// returns false if the exact (lo, hi, v) triple is already stored.
func (t *Tree[T]) Insert(lo, hi float64, v T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	var added bool
	t.root = insert(t.root, Item[T]{Lo: lo, Hi: hi, Value: v}, &added)
	if added {
		t.size++
	}
	return added
}

// Remove deletes the exact (lo, hi, v) triple. It returns false if it was
// not stored.
func (t *Tree[T]) Remove(lo, hi float64, v T) bool {
	if hi < lo {
		lo, hi = hi, lo
	}
	var removed bool
	t.root = remove(t.root, Item[T]{Lo: lo, Hi: hi, Value: v}, &removed)
	if removed {
		t.size--
	}
	return removed
}

// Search returns every item overlapping [lo, hi], ordered by (lo, hi, value).
func (t *Tree[T]) Search(lo, hi float64) []Item[T] {
	if hi < lo {
		lo, hi = hi, lo
	}
	var out []Item[T]
	search(t.root, lo, hi, func(it Item[T]) { out = append(out, it) })
	return out
}

// Values is Search returning only the payloads.
func (t *Tree[T]) Values(lo, hi float64) []T {
	if hi < lo {
		lo, hi = hi, lo
	}
	var out []T
	search(t.root, lo, hi, func(it Item[T]) { out = append(out, it.Value) })
	return out
}

// Stab returns every item containing x.
func (t *Tree[T]) Stab(x float64) []Item[T] {
	return t.Search(x, x)
}

// Each calls fn for every item in key order until fn returns false.
func (t *Tree[T]) Each(fn func(Item[T]) bool) {
	each(t.root, fn)
}

func compareItems[T cmp.Ordered](a, b Item[T]) int {
	if c := cmp.Compare(a.Lo, b.Lo); c != 0 {
		return c
	}
	if c := cmp.Compare(a.Hi, b.Hi); c != 0 {
		return c
	}
	return cmp.Compare(a.Value, b.Value)
}

func height[T cmp.Ordered](n *node[T]) int {
	if n == nil {
		return 0
	}
	return n.height
}

func (n *node[T]) update() {
	n.height = 1 + max(height(n.left), height(n.right))
	n.max = n.item.Hi
	if n.left != nil && n.left.max > n.max {
		n.max = n.left.max
	}
	if n.right != nil && n.right.max > n.max {
		n.max = n.right.max
	}
}

func (n *node[T]) balance() int {
	return height(n.left) - height(n.right)
}

func rotateRight[T cmp.Ordered](n *node[T]) *node[T] {
	l := n.left
	n.left = l.right
	l.right = n
	n.update()
	l.update()
	return l
}

func rotateLeft[T cmp.Ordered](n *node[T]) *node[T] {
	r := n.right
	n.right = r.left
	r.left = n
	n.update()
	r.update()
	return r
}

func rebalance[T cmp.Ordered](n *node[T]) *node[T] {
	n.update()
	switch b := n.balance(); {
	case b > 1:
		if n.left.balance() < 0 {
			n.left = rotateLeft(n.left)
		}
		return rotateRight(n)
	case b < -1:
		if n.right.balance() > 0 {
			n.right = rotateRight(n.right)
		}
		return rotateLeft(n)
	}
	return n
}

func insert[T cmp.Ordered](n *node[T], it Item[T], added *bool) *node[T] {
	if n == nil {
		*added = true
		return &node[T]{item: it, max: it.Hi, height: 1}
	}
	switch c := compareItems(it, n.item); {
	case c < 0:
		n.left = insert(n.left, it, added)
	case c > 0:
		n.right = insert(n.right, it, added)
	default:
		return n
	}
	return rebalance(n)
}

func remove[T cmp.Ordered](n *node[T], it Item[T], removed *bool) *node[T] {
	if n == nil {
		return nil
	}
	switch c := compareItems(it, n.item); {
	case c < 0:
		n.left = remove(n.left, it, removed)
	case c > 0:
		n.right = remove(n.right, it, removed)
	default:
		*removed = true
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		succ := n.right
		for succ.left != nil {
			succ = succ.left
		}
		n.item = succ.item
		var dropped bool
		n.right = remove(n.right, succ.item, &dropped)
	}
	return rebalance(n)
}

func search[T cmp.Ordered](n *node[T], lo, hi float64, emit func(Item[T])) {
	if n == nil || n.max < lo {
		return
	}
	search(n.left, lo, hi, emit)
	if n.item.Lo > hi {
		// Everything to the right starts even later.
		return
	}
	if n.item.Hi >= lo {
		emit(n.item)
	}
	search(n.right, lo, hi, emit)
}

func each[T cmp.Ordered](n *node[T], fn func(Item[T]) bool) bool {
	if n == nil {
		return true
	}
	if !each(n.left, fn) {
		return false
	}
	if !fn(n.item) {
		return false
	}
	return each(n.right, fn)
}

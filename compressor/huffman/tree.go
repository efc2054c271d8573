package huffman

import (
	"container/heap"
)

type nodeKind uint8

const (
	leafNode nodeKind = iota
	internalNode
)

const noChild = -1

type node struct {
	kind        nodeKind
	symbol      Symbol
	weight      uint64
	left, right int
}

// Tree is a Huffman tree stored as an arena of nodes addressed by index.
// The root is always an internal node.
type Tree struct {
	nodes  []node
	root   int
	leaves int
}

func (t *Tree) Leaves() int {
	return t.leaves
}

func (t *Tree) isLeaf(i int) bool {
	return t.nodes[i].kind == leafNode
}

func (t *Tree) addLeaf(s Symbol, weight uint64) int {
	t.nodes = append(t.nodes, node{kind: leafNode, symbol: s, weight: weight, left: noChild, right: noChild})
	t.leaves++
	return len(t.nodes) - 1
}

func (t *Tree) addInternal(left, right int) int {
	var weight uint64
	if left != noChild {
		weight += t.nodes[left].weight
	}
	if right != noChild {
		weight += t.nodes[right].weight
	}
	t.nodes = append(t.nodes, node{kind: internalNode, weight: weight, left: left, right: right})
	return len(t.nodes) - 1
}

// treeHeap orders arena indices by weight, then by index. Leaves are created
// in ascending symbol order and merged nodes after them, so the index is the
// creation order.
type treeHeap struct {
	tree  *Tree
	items []int
}

func (hub *treeHeap) Push(item any) {
	hub.items = append(hub.items, item.(int))
}

func (hub *treeHeap) Pop() any {
	popped := hub.items[len(hub.items)-1]
	hub.items = hub.items[:len(hub.items)-1]
	return popped
}

func (hub treeHeap) Len() int {
	return len(hub.items)
}

func (hub treeHeap) Less(i, j int) bool {
	wi, wj := hub.tree.nodes[hub.items[i]].weight, hub.tree.nodes[hub.items[j]].weight
	if wi != wj {
		return wi < wj
	}
	return hub.items[i] < hub.items[j]
}

func (hub treeHeap) Swap(i, j int) {
	hub.items[i], hub.items[j] = hub.items[j], hub.items[i]
}

// BuildTree builds the Huffman tree for every symbol with a non-zero count.
// The table always holds at least the Terminator.
func BuildTree(ft *FrequencyTable) *Tree {
	t := &Tree{root: noChild}
	treehub := &treeHeap{tree: t}
	for s := range Symbol(NumSymbols) {
		if ft.counts[s] > 0 {
			treehub.items = append(treehub.items, t.addLeaf(s, uint64(ft.counts[s])))
		}
	}
	if treehub.Len() == 0 {
		// A table that skipped CountFrequencies may lack the Terminator.
		treehub.items = append(treehub.items, t.addLeaf(Terminator, 1))
	}
	if treehub.Len() == 1 {
		t.root = t.addInternal(treehub.items[0], noChild)
		return t
	}
	heap.Init(treehub)
	for treehub.Len() > 1 {
		x := heap.Pop(treehub).(int)
		y := heap.Pop(treehub).(int)
		heap.Push(treehub, t.addInternal(x, y))
	}
	t.root = heap.Pop(treehub).(int)
	t.normalize()
	log.Debugf("built tree with %d leaves, %d nodes", t.leaves, len(t.nodes))
	return t
}

// normalize rearranges an optimal tree so the serialized form can be read
// back without ambiguity: the leaf for byte 0 is last in pre-order, a
// 257-leaf tree starts with two internal nodes, and the Terminator leaf
// precedes the leaf for byte 3.
func (t *Tree) normalize() {
	zero := t.findLeaf(0)
	if zero != noChild {
		t.moveToRightSpine(zero)
	}
	if t.leaves == NumSymbols && t.isLeaf(t.nodes[t.root].left) {
		r := &t.nodes[t.root]
		r.left, r.right = r.right, r.left
		if zero != noChild {
			if last := t.lastLeaf(); last != zero {
				t.swapLabels(zero, last)
			}
		}
	}
	t.orderTerminator(zero)
}

// orderTerminator puts the Terminator leaf ahead of the leaf for byte 3 in
// pre-order. It prefers moves that keep every symbol at its depth: a label
// swap with a leaf at the same depth, then a child swap at the two leaves'
// common ancestor. Only when both would break the other orderings does it
// trade the two labels outright.
func (t *Tree) orderTerminator(zero int) {
	order := t.preorderLeaves()
	terminatorAt, threeAt := -1, -1
	for i, leaf := range order {
		switch t.nodes[leaf].symbol {
		case Terminator:
			terminatorAt = i
		case Symbol(TerminatorByte):
			threeAt = i
		}
	}
	if terminatorAt < 0 || threeAt < 0 || terminatorAt < threeAt {
		return
	}
	terminator, three := order[terminatorAt], order[threeAt]
	depth := t.depths()
	for i := 0; i <= threeAt; i++ {
		if depth[order[i]] == depth[terminator] && order[i] != zero {
			t.swapLabels(order[i], terminator)
			return
		}
	}
	for i := len(order) - 1; i > terminatorAt; i-- {
		if depth[order[i]] == depth[three] && order[i] != zero {
			t.swapLabels(order[i], three)
			return
		}
	}
	parent := t.parents()
	ancestor := t.commonAncestor(parent, depth, three, terminator)
	a := &t.nodes[ancestor]
	a.left, a.right = a.right, a.left
	brokeZero := zero != noChild && t.lastLeaf() != zero
	brokeRoot := t.leaves == NumSymbols && t.isLeaf(t.nodes[t.root].left)
	if brokeZero || brokeRoot {
		a.left, a.right = a.right, a.left
		t.swapLabels(three, terminator)
	}
}

func (t *Tree) parents() []int {
	parent := make([]int, len(t.nodes))
	for i := range parent {
		parent[i] = noChild
	}
	for i, n := range t.nodes {
		if n.kind == internalNode {
			if n.left != noChild {
				parent[n.left] = i
			}
			if n.right != noChild {
				parent[n.right] = i
			}
		}
	}
	return parent
}

// depths returns the distance from the root of every reachable node.
func (t *Tree) depths() []int {
	depth := make([]int, len(t.nodes))
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range [2]int{t.nodes[i].left, t.nodes[i].right} {
			if child != noChild {
				depth[child] = depth[i] + 1
				stack = append(stack, child)
			}
		}
	}
	return depth
}

func (t *Tree) commonAncestor(parent, depth []int, a, b int) int {
	for depth[a] > depth[b] {
		a = parent[a]
	}
	for depth[b] > depth[a] {
		b = parent[b]
	}
	for a != b {
		a, b = parent[a], parent[b]
	}
	return a
}

func (t *Tree) swapLabels(a, b int) {
	t.nodes[a].symbol, t.nodes[b].symbol = t.nodes[b].symbol, t.nodes[a].symbol
}

func (t *Tree) findLeaf(s Symbol) int {
	for i, n := range t.nodes {
		if n.kind == leafNode && n.symbol == s {
			return i
		}
	}
	return noChild
}

// moveToRightSpine swaps children on the path from the root to target so that
// target becomes the rightmost leaf. Depths do not change.
func (t *Tree) moveToRightSpine(target int) {
	parent := t.parents()
	for child := target; parent[child] != noChild; child = parent[child] {
		p := &t.nodes[parent[child]]
		if p.left == child && p.right != noChild {
			p.left, p.right = p.right, p.left
		}
	}
}

func (t *Tree) lastLeaf() int {
	i := t.root
	for !t.isLeaf(i) {
		if t.nodes[i].right != noChild {
			i = t.nodes[i].right
		} else {
			i = t.nodes[i].left
		}
	}
	return i
}

// preorderLeaves lists leaf indices in pre-order.
func (t *Tree) preorderLeaves() []int {
	var leaves []int
	t.walk(func(i int) {
		if t.isLeaf(i) {
			leaves = append(leaves, i)
		}
	})
	return leaves
}

// walk visits every node in pre-order using an explicit stack.
func (t *Tree) walk(visit func(i int)) {
	stack := []int{t.root}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		visit(i)
		n := t.nodes[i]
		if n.kind == internalNode {
			if n.right != noChild {
				stack = append(stack, n.right)
			}
			if n.left != noChild {
				stack = append(stack, n.left)
			}
		}
	}
}

// Equal reports whether t and other have the same shape and leaf symbols.
// Weights are ignored.
func (t *Tree) Equal(other *Tree) bool {
	if t.leaves != other.leaves {
		return false
	}
	type pair struct{ a, b int }
	stack := []pair{{t.root, other.root}}
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if (p.a == noChild) != (p.b == noChild) {
			return false
		}
		if p.a == noChild {
			continue
		}
		na, nb := t.nodes[p.a], other.nodes[p.b]
		if na.kind != nb.kind {
			return false
		}
		if na.kind == leafNode {
			if na.symbol != nb.symbol {
				return false
			}
			continue
		}
		stack = append(stack, pair{na.right, nb.right}, pair{na.left, nb.left})
	}
	return true
}

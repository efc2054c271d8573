package huffman

import (
	"bufio"
	"errors"
	"fmt"
	"io"
)

// WriteTo serializes the tree: one leaf-count byte followed by one byte per
// node in pre-order. Internal nodes are written as 0, leaves as their symbol
// byte. The count wraps modulo 256, so 256 leaves are written as 0 and 257 as 1.
func (t *Tree) WriteTo(w io.Writer) (int64, error) {
	out := make([]byte, 0, 1+len(t.nodes))
	out = append(out, byte(t.leaves))
	t.walk(func(i int) {
		if t.isLeaf(i) {
			out = append(out, t.nodes[i].symbol.wireByte())
		} else {
			out = append(out, internalMarker)
		}
	})
	n, err := w.Write(out)
	return int64(n), err
}

// slot is a child position waiting to be filled while reading a tree.
type slot struct {
	parent int
	right  bool
}

// ReadTree reconstructs a tree written by WriteTo.
//
// The format has no escape for a leaf whose symbol is 0: such a leaf looks
// exactly like an internal node. The leaf counter settles it only when every
// open child position must be a leaf, which is why BuildTree puts the 0 leaf
// last in pre-order. A tree from another encoder with the 0 leaf elsewhere is
// misread.
func ReadTree(r *bufio.Reader) (*Tree, error) {
	countByte, err := r.ReadByte()
	if err != nil {
		return nil, truncated("tree leaf count", err)
	}
	leaves := int(countByte)
	switch leaves {
	case 0:
		leaves = 256
	case 1:
		peeked, err := r.Peek(2)
		if err != nil {
			return nil, truncated("tree", err)
		}
		if peeked[1] == internalMarker {
			leaves = NumSymbols
		} else {
			return readSingleLeafTree(r)
		}
	}

	t := &Tree{root: noChild}
	sawTerminator := false
	remaining := leaves
	stack := []slot{{parent: noChild}}
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		pending := len(stack) + 1
		if remaining < pending {
			return nil, fmt.Errorf("%w: %d leaves left for %d open positions", ErrMalformedTree, remaining, pending)
		}
		b, err := r.ReadByte()
		if err != nil {
			return nil, truncated("tree", err)
		}
		var i int
		if b == internalMarker && remaining > pending {
			i = t.addInternal(noChild, noChild)
			stack = append(stack, slot{parent: i, right: true}, slot{parent: i})
		} else {
			sym := Symbol(b)
			if b == TerminatorByte && !sawTerminator {
				sym = Terminator
				sawTerminator = true
			}
			i = t.addLeaf(sym, 0)
			remaining--
		}
		t.attach(s, i)
	}
	if remaining != 0 {
		return nil, fmt.Errorf("%w: tree closed with %d leaves unread", ErrMalformedTree, remaining)
	}
	if t.isLeaf(t.root) {
		return nil, fmt.Errorf("%w: root is a leaf", ErrMalformedTree)
	}
	if !sawTerminator {
		return nil, fmt.Errorf("%w: no terminator leaf", ErrMalformedTree)
	}
	log.Debugf("read tree with %d leaves", t.leaves)
	return t, nil
}

func readSingleLeafTree(r *bufio.Reader) (*Tree, error) {
	var pair [2]byte
	if _, err := io.ReadFull(r, pair[:]); err != nil {
		return nil, truncated("tree", err)
	}
	if pair[0] != internalMarker || pair[1] != TerminatorByte {
		return nil, fmt.Errorf("%w: single-leaf tree must be a root over the terminator", ErrMalformedTree)
	}
	t := &Tree{root: noChild}
	t.root = t.addInternal(t.addLeaf(Terminator, 0), noChild)
	return t, nil
}

func (t *Tree) attach(s slot, child int) {
	switch {
	case s.parent == noChild:
		t.root = child
	case s.right:
		t.nodes[s.parent].right = child
	default:
		t.nodes[s.parent].left = child
	}
}

func truncated(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, bufio.ErrBufferFull) {
		return fmt.Errorf("%w: reading %s", ErrTruncatedStream, what)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

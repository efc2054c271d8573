package huffman

import (
	"strings"
)

// BitString is an ordered sequence of bits, one 0 or 1 per element.
type BitString []byte

func ParseBitString(s string) BitString {
	bits := make(BitString, 0, len(s))
	for _, c := range s {
		if c == '1' {
			bits = append(bits, 1)
		} else {
			bits = append(bits, 0)
		}
	}
	return bits
}

func (b BitString) String() string {
	var sb strings.Builder
	for _, bit := range b {
		sb.WriteByte('0' + bit)
	}
	return sb.String()
}

// HasPrefix reports whether prefix is a prefix of b.
func (b BitString) HasPrefix(prefix BitString) bool {
	if len(prefix) > len(b) {
		return false
	}
	for i := range prefix {
		if b[i] != prefix[i] {
			return false
		}
	}
	return true
}

// CodeTable maps each symbol to its root-to-leaf path. Absent symbols are nil.
type CodeTable [NumSymbols]BitString

// Codes derives the code table, 0 for a left branch and 1 for a right one.
func (t *Tree) Codes() *CodeTable {
	type frame struct {
		node int
		path BitString
	}
	table := new(CodeTable)
	stack := []frame{{node: t.root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := t.nodes[f.node]
		if n.kind == leafNode {
			table[n.symbol] = f.path
			continue
		}
		if n.right != noChild {
			stack = append(stack, frame{node: n.right, path: extend(f.path, 1)})
		}
		if n.left != noChild {
			stack = append(stack, frame{node: n.left, path: extend(f.path, 0)})
		}
	}
	return table
}

// extend copies path so sibling branches never share a backing array.
func extend(path BitString, bit byte) BitString {
	out := make(BitString, len(path)+1)
	copy(out, path)
	out[len(path)] = bit
	return out
}

package huffman

import (
	"errors"
	"fmt"
	"io"
)

// BitPacker accumulates codes and emits whole bytes, first bit in the least
// significant position.
type BitPacker struct {
	output     io.ByteWriter
	bitsHolder byte
	bitsCount  uint
	written    int64
}

func NewBitPacker(w io.ByteWriter) *BitPacker {
	return &BitPacker{output: w}
}

func (bp *BitPacker) WriteBits(bits BitString) error {
	for _, bit := range bits {
		bp.bitsHolder |= (bit & 1) << bp.bitsCount
		bp.bitsCount++
		if bp.bitsCount == 8 {
			if err := bp.emit(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Flush writes any partial byte, padding the high bits with zeros.
func (bp *BitPacker) Flush() error {
	if bp.bitsCount == 0 {
		return nil
	}
	log.Debugf("pad final byte with %d bits", 8-bp.bitsCount)
	return bp.emit()
}

// Bytes returns the number of bytes emitted so far.
func (bp *BitPacker) Bytes() int64 {
	return bp.written
}

func (bp *BitPacker) emit() error {
	if err := bp.output.WriteByte(bp.bitsHolder); err != nil {
		return err
	}
	bp.written++
	bp.bitsHolder, bp.bitsCount = 0, 0
	return nil
}

// bitReader hands out the bits of a byte stream from least to most
// significant within each byte.
type bitReader struct {
	input      io.ByteReader
	bitsHolder byte
	bitsCount  uint
}

func (br *bitReader) ReadBit() (byte, error) {
	if br.bitsCount == 0 {
		b, err := br.input.ReadByte()
		if err != nil {
			return 0, err
		}
		br.bitsHolder, br.bitsCount = b, 8
	}
	bit := br.bitsHolder & 1
	br.bitsHolder >>= 1
	br.bitsCount--
	return bit, nil
}

// BitUnpacker walks the tree one bit at a time. Reaching a leaf yields its
// symbol and restarts at the root; reaching the Terminator halts it for good
// and any remaining input is left unread.
type BitUnpacker struct {
	bits   bitReader
	tree   *Tree
	halted bool
}

func NewBitUnpacker(r io.ByteReader, t *Tree) *BitUnpacker {
	return &BitUnpacker{bits: bitReader{input: r}, tree: t}
}

// Next returns the next decoded byte, or io.EOF once the Terminator is reached.
func (bu *BitUnpacker) Next() (byte, error) {
	if bu.halted {
		return 0, io.EOF
	}
	pos := bu.tree.root
	for {
		bit, err := bu.bits.ReadBit()
		if errors.Is(err, io.EOF) {
			return 0, fmt.Errorf("%w: input ended before terminator", ErrTruncatedStream)
		} else if err != nil {
			return 0, err
		}
		n := bu.tree.nodes[pos]
		if bit == 0 {
			pos = n.left
		} else {
			pos = n.right
		}
		if pos == noChild {
			return 0, fmt.Errorf("%w: bit %d leads nowhere", ErrMalformedTree, bit)
		}
		if !bu.tree.isLeaf(pos) {
			continue
		}
		if sym := bu.tree.nodes[pos].symbol; sym != Terminator {
			return byte(sym), nil
		}
		bu.halted = true
		return 0, io.EOF
	}
}

func (bu *BitUnpacker) Halted() bool {
	return bu.halted
}

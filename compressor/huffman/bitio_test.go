package huffman

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/require"
)

func pack(t *testing.T, codes ...string) []byte {
	var buf bytes.Buffer
	packer := NewBitPacker(&buf)
	for _, code := range codes {
		require.NoError(t, packer.WriteBits(ParseBitString(code)))
	}
	require.NoError(t, packer.Flush())
	require.Equal(t, int64(buf.Len()), packer.Bytes())
	return buf.Bytes()
}

func readBits(t *testing.T, data []byte, n int) BitString {
	br := bitReader{input: bytes.NewReader(data)}
	var bits BitString
	for range n {
		bit, err := br.ReadBit()
		require.NoError(t, err)
		bits = append(bits, bit)
	}
	return bits
}

func TestBitPackerLeastSignificantFirst(t *testing.T) {
	packed := pack(t, "0", "1", "0", "1", "0", "1", "0", "1")
	require.Equal(t, []byte{0xAA}, packed)
	for i := range 8 {
		require.Equal(t, byte(i%2), packed[0]>>i&1, "bit %d", i)
	}
}

func TestBitPackerFlushPadsHighBits(t *testing.T) {
	packed := pack(t, "1011")
	require.Equal(t, []byte{0x0D}, packed)
	require.Equal(t, "10110000", readBits(t, packed, 8).String())
}

func TestBitPackerSpansBytes(t *testing.T) {
	packed := pack(t, "111", "10001", "10")
	require.Equal(t, []byte{0x8F, 0x01}, packed)
	require.Equal(t, "1111000110", readBits(t, packed, 10).String())
}

func TestBitPackerFlushOnBoundaryIsNoop(t *testing.T) {
	require.Equal(t, []byte{0xFF}, pack(t, "11111111"))
	require.Empty(t, pack(t))
}

func TestBitReaderEOF(t *testing.T) {
	br := bitReader{input: bytes.NewReader([]byte{0x01})}
	for range 8 {
		_, err := br.ReadBit()
		require.NoError(t, err)
	}
	_, err := br.ReadBit()
	require.ErrorIs(t, err, io.EOF)
}

func decodeAll(t *testing.T, u *BitUnpacker) ([]byte, error) {
	var out []byte
	for {
		b, err := u.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, b)
	}
}

func TestBitUnpackerStopsAtTerminator(t *testing.T) {
	tree := buildFor([]byte("AABC"))
	packed := pack(t, "11", "11", "00", "01", "10")
	in := bytes.NewReader(append(packed, 0xDE, 0xAD))

	u := NewBitUnpacker(in, tree)
	out, err := decodeAll(t, u)
	require.NoError(t, err)
	require.Equal(t, []byte("AABC"), out)
	require.True(t, u.Halted())
	require.Equal(t, 2, in.Len(), "bytes after the terminator are left unread")

	_, err = u.Next()
	require.ErrorIs(t, err, io.EOF)
}

func TestBitUnpackerTerminatorOnLastBit(t *testing.T) {
	tree := buildFor([]byte("AABC"))
	codes := tree.Codes()
	packed := pack(t, codes['A'].String(), codes['B'].String(), codes['C'].String(), codes[Terminator].String())
	require.Len(t, packed, 1)

	out, err := decodeAll(t, NewBitUnpacker(bytes.NewReader(packed), tree))
	require.NoError(t, err)
	require.Equal(t, []byte("ABC"), out)
}

func TestBitUnpackerTruncated(t *testing.T) {
	tree := buildFor([]byte("AABC"))
	packed := pack(t, "11", "11", "00", "01", "10")

	out, err := decodeAll(t, NewBitUnpacker(bytes.NewReader(packed[:1]), tree))
	require.ErrorIs(t, err, ErrTruncatedStream)
	require.Equal(t, []byte("AABC"), out)
}

func TestBitUnpackerSingleLeafTree(t *testing.T) {
	tree := buildFor(nil)
	out, err := decodeAll(t, NewBitUnpacker(bytes.NewReader([]byte{0x00}), tree))
	require.NoError(t, err)
	require.Empty(t, out)

	_, err = decodeAll(t, NewBitUnpacker(bytes.NewReader([]byte{0x01}), tree))
	require.ErrorIs(t, err, ErrMalformedTree)
}

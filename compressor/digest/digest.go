package digest

import (
	"crypto/md5"
	"encoding/hex"
	"hash"
	"io"
)

const Size = md5.Size

// Digest is the 128-bit MD5 of an uncompressed file.
type Digest [Size]byte

func Sum(data []byte) Digest {
	return Digest(md5.Sum(data))
}

func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// Writer hashes everything written through it and counts the bytes.
type Writer struct {
	hash hash.Hash
	size int64
}

func NewWriter() *Writer {
	return &Writer{hash: md5.New()}
}

func (w *Writer) Write(p []byte) (int, error) {
	w.hash.Write(p)
	w.size += int64(len(p))
	return len(p), nil
}

func (w *Writer) Sum() Digest {
	var d Digest
	copy(d[:], w.hash.Sum(nil))
	return d
}

func (w *Writer) Size() int64 {
	return w.size
}

// Read reads a digest from the head of r.
func Read(r io.Reader) (Digest, error) {
	var d Digest
	_, err := io.ReadFull(r, d[:])
	return d, err
}

package huffman

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/op/go-logging"

	"github.com/FitrahHaque/huffman-engine/compressor/digest"
)

var log = logging.MustGetLogger("huffman")

type Options struct {
	// Workers > 1 counts symbol frequencies on that many goroutines.
	Workers int
}

type Stats struct {
	OriginalSize   int64
	CompressedSize int64
	Leaves         int
	Digest         digest.Digest
	Warnings       []OverflowWarning
}

// Ratio is the compressed size as a percentage of the original.
func (s *Stats) Ratio() float64 {
	if s.OriginalSize == 0 {
		return 0
	}
	return float64(s.CompressedSize) / float64(s.OriginalSize) * 100
}

type Verification struct {
	Expected digest.Digest
	Actual   digest.Digest
	Size     int64
}

func (v *Verification) Verified() bool {
	return v.Expected == v.Actual
}

// Compress writes the encoded form of data to dst: the digest of data, the
// serialized tree, then the packed codes ending with the Terminator.
func Compress(dst io.Writer, data []byte, opts Options) (*Stats, error) {
	table, warnings := CountFrequencies(data, opts.Workers)
	stats, err := encode(dst, data, table)
	if err != nil {
		return nil, err
	}
	stats.Warnings = warnings
	return stats, nil
}

func encode(dst io.Writer, data []byte, table *FrequencyTable) (*Stats, error) {
	stats := &Stats{
		OriginalSize: int64(len(data)),
		Digest:       digest.Sum(data),
	}
	tree := BuildTree(table)
	codes := tree.Codes()
	stats.Leaves = tree.Leaves()

	out := bufio.NewWriter(dst)
	if _, err := out.Write(stats.Digest[:]); err != nil {
		return nil, outputError(err)
	}
	treeSize, err := tree.WriteTo(out)
	if err != nil {
		return nil, outputError(err)
	}
	packer := NewBitPacker(out)
	for _, b := range data {
		if err := packer.WriteBits(codes[b]); err != nil {
			return nil, outputError(err)
		}
	}
	if err := packer.WriteBits(codes[Terminator]); err != nil {
		return nil, outputError(err)
	}
	if err := packer.Flush(); err != nil {
		return nil, outputError(err)
	}
	if err := out.Flush(); err != nil {
		return nil, outputError(err)
	}
	stats.CompressedSize = digest.Size + treeSize + packer.Bytes()
	log.Debugf("encoded %d bytes into %d (%d leaves)", stats.OriginalSize, stats.CompressedSize, stats.Leaves)
	return stats, nil
}

// Decompress decodes src into dst and checks the result against the embedded
// digest. A mismatch is reported through the Verification, not as an error,
// and never undoes what was written. On error dst may hold partial output.
func Decompress(dst io.Writer, src io.Reader) (*Verification, error) {
	in := bufio.NewReader(src)
	expected, err := digest.Read(in)
	if err != nil {
		return nil, inputError(truncated("digest", err))
	}
	tree, err := ReadTree(in)
	if err != nil {
		return nil, inputError(err)
	}

	hasher := digest.NewWriter()
	out := bufio.NewWriter(io.MultiWriter(dst, hasher))
	unpacker := NewBitUnpacker(in, tree)
	for {
		b, err := unpacker.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			// Bytes decoded before the failure still reach dst.
			if ferr := out.Flush(); ferr != nil {
				return nil, errors.Join(inputError(err), outputError(ferr))
			}
			return nil, inputError(err)
		}
		if err := out.WriteByte(b); err != nil {
			return nil, outputError(err)
		}
	}
	if err := out.Flush(); err != nil {
		return nil, outputError(err)
	}
	v := &Verification{Expected: expected, Actual: hasher.Sum(), Size: hasher.Size()}
	if !v.Verified() {
		log.Warningf("digest mismatch: expected %v, got %v", v.Expected, v.Actual)
	}
	return v, nil
}

func outputError(err error) error {
	return fmt.Errorf("%w: %w", ErrOutputUnwritable, err)
}

func inputError(err error) error {
	if errors.Is(err, ErrTruncatedStream) || errors.Is(err, ErrMalformedTree) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrInputUnavailable, err)
}

// CompressionWriter buffers everything written to it and compresses it into
// the underlying writer on Close.
type CompressionWriter struct {
	lock   sync.Mutex
	w      io.Writer
	opts   Options
	buffer bytes.Buffer
	closed bool
	stats  *Stats
}

func NewWriter(w io.Writer, opts Options) *CompressionWriter {
	return &CompressionWriter{w: w, opts: opts}
}

func (cw *CompressionWriter) Write(data []byte) (int, error) {
	cw.lock.Lock()
	defer cw.lock.Unlock()
	if cw.closed {
		return 0, errors.New("write to closed huffman writer")
	}
	return cw.buffer.Write(data)
}

func (cw *CompressionWriter) Close() error {
	cw.lock.Lock()
	defer cw.lock.Unlock()
	if cw.closed {
		return nil
	}
	cw.closed = true
	stats, err := Compress(cw.w, cw.buffer.Bytes(), cw.opts)
	cw.buffer.Reset()
	if err != nil {
		return err
	}
	cw.stats = stats
	return nil
}

// Stats is nil until Close has succeeded.
func (cw *CompressionWriter) Stats() *Stats {
	cw.lock.Lock()
	defer cw.lock.Unlock()
	return cw.stats
}

// DecompressionReader decodes a compressed stream on a goroutine and serves the
// output through a pipe.
type DecompressionReader struct {
	pipe         *io.PipeReader
	done         chan struct{}
	verification *Verification
	err          error
}

func NewReader(r io.Reader) *DecompressionReader {
	pr, pw := io.Pipe()
	dr := &DecompressionReader{pipe: pr, done: make(chan struct{})}
	go func() {
		defer close(dr.done)
		dr.verification, dr.err = Decompress(pw, r)
		pw.CloseWithError(dr.err)
	}()
	return dr
}

func (dr *DecompressionReader) Read(data []byte) (int, error) {
	return dr.pipe.Read(data)
}

func (dr *DecompressionReader) Close() error {
	err := dr.pipe.Close()
	<-dr.done
	return err
}

// Verification blocks until decoding has finished.
func (dr *DecompressionReader) Verification() (*Verification, error) {
	<-dr.done
	return dr.verification, dr.err
}

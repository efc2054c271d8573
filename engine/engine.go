package engine

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"time"

	pb "github.com/cheggaaa/pb/v3"
	"github.com/op/go-logging"

	"github.com/FitrahHaque/huffman-engine/compressor/digest"
	"github.com/FitrahHaque/huffman-engine/compressor/huffman"
)

var log = logging.MustGetLogger("engine")

const DefaultExtension = "huf"

type Options struct {
	Workers int
	// Quiet disables the progress bar.
	Quiet bool
}

func (o Options) huffman() huffman.Options {
	return huffman.Options{Workers: o.Workers}
}

// CompressFiles compresses each file next to itself with the given extension.
func CompressFiles(files []string, fileExtension string, opts Options) ([]*huffman.Stats, error) {
	var all []*huffman.Stats
	for _, file := range files {
		stats, err := CompressFile(file, file+"."+fileExtension, opts)
		if err != nil {
			return all, err
		}
		all = append(all, stats)
	}
	return all, nil
}

func CompressFile(inputPath, outputPath string, opts Options) (*huffman.Stats, error) {
	content, err := readFile(inputPath, opts)
	if err != nil {
		return nil, err
	}
	log.Infof("compressing %s (%d bytes)", inputPath, len(content))
	var stats *huffman.Stats
	err = writeFile(outputPath, func(w io.Writer) error {
		stats, err = huffman.Compress(w, content, opts.huffman())
		return err
	})
	if err != nil {
		return nil, err
	}
	log.Infof("wrote %s (%d bytes, %.2f%%)", outputPath, stats.CompressedSize, stats.Ratio())
	return stats, nil
}

// DecompressFile decodes inputPath into outputPath. A failed integrity check is
// reported in the Verification; the output file is kept either way. On error
// the output file may be incomplete and should be discarded.
func DecompressFile(inputPath, outputPath string, opts Options) (*huffman.Verification, error) {
	in, err := os.Open(inputPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huffman.ErrInputUnavailable, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huffman.ErrInputUnavailable, err)
	}

	log.Infof("decompressing %s (%d bytes)", inputPath, info.Size())
	var v *huffman.Verification
	err = writeFile(outputPath, func(w io.Writer) error {
		bar := startBar(info.Size(), opts)
		defer finishBar(bar)
		v, err = huffman.Decompress(w, proxyReader(bar, in))
		return err
	})
	if err != nil {
		return nil, err
	}
	if v.Verified() {
		log.Infof("wrote %s (%d bytes), digest %v matches", outputPath, v.Size, v.Actual)
	} else {
		log.Warningf("wrote %s (%d bytes), digest %v does not match %v", outputPath, v.Size, v.Actual, v.Expected)
	}
	return v, nil
}

type BenchmarkResult struct {
	File           string
	OriginalSize   int64
	CompressedSize int64
	Ratio          float64
	CompressTime   time.Duration
	DecompressTime time.Duration
	Verified       bool
	Warnings       int
}

// Benchmark compresses and decompresses each file in memory and reports sizes,
// timings and whether the round trip reproduced the original digest.
func Benchmark(files []string, opts Options) ([]BenchmarkResult, error) {
	var results []BenchmarkResult
	for _, file := range files {
		content, err := readFile(file, opts)
		if err != nil {
			return results, err
		}
		result := BenchmarkResult{File: file, OriginalSize: int64(len(content))}

		var compressed bytes.Buffer
		start := time.Now()
		w := huffman.NewWriter(&compressed, opts.huffman())
		if _, err := w.Write(content); err != nil {
			return results, err
		}
		if err := w.Close(); err != nil {
			return results, err
		}
		result.CompressTime = time.Since(start)
		result.CompressedSize = w.Stats().CompressedSize
		result.Ratio = w.Stats().Ratio()
		result.Warnings = len(w.Stats().Warnings)

		start = time.Now()
		r := huffman.NewReader(&compressed)
		hasher := digest.NewWriter()
		_, err = io.Copy(hasher, r)
		if cerr := r.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return results, err
		}
		result.DecompressTime = time.Since(start)
		v, err := r.Verification()
		if err != nil {
			return results, err
		}
		result.Verified = v.Verified() && hasher.Sum() == digest.Sum(content)
		log.Debugf("benchmark %s: %+v", file, result)
		results = append(results, result)
	}
	return results, nil
}

func readFile(path string, opts Options) ([]byte, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huffman.ErrInputUnavailable, err)
	}
	defer in.Close()
	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huffman.ErrInputUnavailable, err)
	}
	bar := startBar(info.Size(), opts)
	defer finishBar(bar)
	content, err := io.ReadAll(proxyReader(bar, in))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", huffman.ErrInputUnavailable, err)
	}
	return content, nil
}

// writeFile creates path, runs fill against it and closes it on every path.
// A close failure is reported when fill itself succeeded.
func writeFile(path string, fill func(w io.Writer) error) (err error) {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %w", huffman.ErrOutputUnwritable, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("%w: %w", huffman.ErrOutputUnwritable, cerr)
		}
	}()
	return fill(out)
}

func startBar(total int64, opts Options) *pb.ProgressBar {
	if opts.Quiet {
		return nil
	}
	bar := pb.New64(total)
	bar.Set(pb.Bytes, true)
	bar.SetWriter(os.Stderr)
	return bar.Start()
}

func finishBar(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}

func proxyReader(bar *pb.ProgressBar, r io.Reader) io.Reader {
	if bar == nil {
		return r
	}
	return bar.NewProxyReader(r)
}

package engine

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/op/go-logging"
	"github.com/stretchr/testify/require"

	"github.com/FitrahHaque/huffman-engine/compressor/huffman"
)

var quiet = Options{Quiet: true}

func TestMain(m *testing.M) {
	logging.SetLevel(logging.ERROR, "")
	os.Exit(m.Run())
}

func TestLoggingQuietDuringTests(t *testing.T) {
	require.False(t, log.IsEnabledFor(logging.DEBUG))
	require.True(t, log.IsEnabledFor(logging.ERROR))
}

func writeTemp(t *testing.T, dir, name string, content []byte) string {
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0644))
	return path
}

func TestCompressDecompressFile(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("file level round trip\x00\x03\xff"), 500)
	input := writeTemp(t, dir, "input.txt", content)
	compressed := filepath.Join(dir, "input.huf")
	restored := filepath.Join(dir, "restored.txt")

	stats, err := CompressFile(input, compressed, quiet)
	require.NoError(t, err)
	info, err := os.Stat(compressed)
	require.NoError(t, err)
	require.Equal(t, info.Size(), stats.CompressedSize)
	require.Less(t, stats.CompressedSize, stats.OriginalSize)

	v, err := DecompressFile(compressed, restored, quiet)
	require.NoError(t, err)
	require.True(t, v.Verified())
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCompressEmptyFile(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "empty", nil)
	compressed := filepath.Join(dir, "empty.huf")
	restored := filepath.Join(dir, "empty.out")

	_, err := CompressFile(input, compressed, quiet)
	require.NoError(t, err)
	v, err := DecompressFile(compressed, restored, quiet)
	require.NoError(t, err)
	require.True(t, v.Verified())
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestCompressFileMissingInput(t *testing.T) {
	dir := t.TempDir()
	_, err := CompressFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"), quiet)
	require.ErrorIs(t, err, huffman.ErrInputUnavailable)
	require.ErrorIs(t, err, os.ErrNotExist)

	_, err = DecompressFile(filepath.Join(dir, "missing"), filepath.Join(dir, "out"), quiet)
	require.ErrorIs(t, err, huffman.ErrInputUnavailable)
}

func TestCompressFileUnwritableOutput(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "input", []byte("data"))
	_, err := CompressFile(input, filepath.Join(dir, "no", "such", "dir"), quiet)
	require.ErrorIs(t, err, huffman.ErrOutputUnwritable)
}

func TestDecompressFileTruncated(t *testing.T) {
	dir := t.TempDir()
	input := writeTemp(t, dir, "input", []byte("this file will be cut short"))
	compressed := filepath.Join(dir, "input.huf")
	_, err := CompressFile(input, compressed, quiet)
	require.NoError(t, err)

	encoded, err := os.ReadFile(compressed)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(compressed, encoded[:len(encoded)-1], 0644))

	restored := filepath.Join(dir, "restored")
	_, err = DecompressFile(compressed, restored, quiet)
	require.ErrorIs(t, err, huffman.ErrTruncatedStream)
	_, err = os.Stat(restored)
	require.NoError(t, err, "partial output is left in place")
}

func TestDecompressFileDigestMismatch(t *testing.T) {
	dir := t.TempDir()
	content := []byte("digest check is advisory")
	input := writeTemp(t, dir, "input", content)
	compressed := filepath.Join(dir, "input.huf")
	_, err := CompressFile(input, compressed, quiet)
	require.NoError(t, err)

	encoded, err := os.ReadFile(compressed)
	require.NoError(t, err)
	encoded[5] ^= 0x01
	require.NoError(t, os.WriteFile(compressed, encoded, 0644))

	restored := filepath.Join(dir, "restored")
	v, err := DecompressFile(compressed, restored, quiet)
	require.NoError(t, err)
	require.False(t, v.Verified())
	got, err := os.ReadFile(restored)
	require.NoError(t, err)
	require.Equal(t, content, got)
}

func TestCompressFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.txt", []byte("aaaaaaaab"))
	b := writeTemp(t, dir, "b.txt", []byte("bbbbbbbba"))

	all, err := CompressFiles([]string{a, b}, DefaultExtension, quiet)
	require.NoError(t, err)
	require.Len(t, all, 2)
	for _, path := range []string{a, b} {
		_, err := os.Stat(path + "." + DefaultExtension)
		require.NoError(t, err)
	}

	_, err = CompressFiles([]string{a, filepath.Join(dir, "missing")}, DefaultExtension, quiet)
	require.ErrorIs(t, err, huffman.ErrInputUnavailable)
}

func TestBenchmark(t *testing.T) {
	dir := t.TempDir()
	text := writeTemp(t, dir, "text", bytes.Repeat([]byte("benchmark me "), 1000))
	empty := writeTemp(t, dir, "empty", nil)

	results, err := Benchmark([]string{text, empty}, Options{Quiet: true, Workers: 2})
	require.NoError(t, err)
	require.Len(t, results, 2)
	for _, r := range results {
		require.True(t, r.Verified, r.File)
	}
	require.Equal(t, int64(13000), results[0].OriginalSize)
	require.Less(t, results[0].Ratio, 100.0)
	require.Equal(t, int64(0), results[1].OriginalSize)
}

package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/op/go-logging"

	"github.com/FitrahHaque/huffman-engine/compressor/huffman"
	"github.com/FitrahHaque/huffman-engine/engine"
)

var Commands = [...]string{"compress", "decompress", "benchmark", "help"}

var log = logging.MustGetLogger("main")

var errUsage = errors.New("invalid usage")

var (
	failure = color.New(color.FgRed, color.Bold)
	success = color.New(color.FgGreen, color.Bold)
	warning = color.New(color.FgYellow)
)

func main() {
	application := os.Args[0]
	if len(os.Args) == 1 {
		usage(application)
		os.Exit(1)
	}
	var err error
	switch os.Args[1] {
	case Commands[0]:
		err = runCompress(application, os.Args[2:])
	case Commands[1]:
		err = runDecompress(application, os.Args[2:])
	case Commands[2]:
		err = runBenchmark(application, os.Args[2:])
	case Commands[3], "-h", "--help":
		usage(application)
		return
	default:
		failure.Fprintf(os.Stderr, "Unknown command %q\n", os.Args[1])
		usage(application)
		os.Exit(1)
	}
	if err != nil {
		failure.Fprintf(os.Stderr, "Unable to complete operation: %v\n", err)
		os.Exit(1)
	}
}

func usage(application string) {
	fmt.Fprintf(os.Stderr, "Usage of %s:\n", application)
	fmt.Fprintf(os.Stderr, "\t%s compress [OPTIONS] <input> <output>\n", application)
	fmt.Fprintf(os.Stderr, "\t%s compress [OPTIONS] <file(s)>\n", application)
	fmt.Fprintf(os.Stderr, "\t%s decompress [OPTIONS] <input> <output>\n", application)
	fmt.Fprintf(os.Stderr, "\t%s benchmark [OPTIONS] <file(s)>\n", application)
	fmt.Fprintf(os.Stderr, "Valid commands include:\n\t%s\n", strings.Join(Commands[:], ", "))
	fmt.Fprintf(os.Stderr, "Run '%s <command> --help' for the options of a command.\n", application)
}

type commonFlags struct {
	quiet   *bool
	verbose *bool
}

func newFlagSet(application, command, arguments string) (*flag.FlagSet, commonFlags) {
	fs := flag.NewFlagSet(command, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s %s [OPTIONS] %s\n", application, command, arguments)
		fmt.Fprintf(os.Stderr, "Flag:\n")
		fs.PrintDefaults()
	}
	return fs, commonFlags{
		quiet:   fs.Bool("quiet", false, "Only report errors, no progress bar"),
		verbose: fs.Bool("verbose", false, "Debug logging"),
	}
}

func runCompress(application string, args []string) error {
	compressFS, common := newFlagSet(application, Commands[0], "<input> <output> | <file(s)>")
	workers := compressFS.Int("workers", 1, "Goroutines used to count symbol frequencies")
	deleteAfterCompress := compressFS.Bool("delete", false, "Delete file after compression")
	outputFileExtension := compressFS.String("outfileext", engine.DefaultExtension, "File extension used for the result when no output is given")
	compressFS.Parse(args)
	startLogging(*common.verbose, *common.quiet)
	opts := engine.Options{Workers: *workers, Quiet: *common.quiet}

	var files []string
	switch compressFS.NArg() {
	case 2:
		files = []string{compressFS.Arg(0)}
		stats, err := engine.CompressFile(compressFS.Arg(0), compressFS.Arg(1), opts)
		if err != nil {
			return err
		}
		report(compressFS.Arg(0), stats)
	case 1:
		files = strings.Split(compressFS.Arg(0), ",")
		trimSpace(files)
		all, err := engine.CompressFiles(files, *outputFileExtension, opts)
		for i, stats := range all {
			report(files[i], stats)
		}
		if err != nil {
			return err
		}
	default:
		compressFS.Usage()
		return fmt.Errorf("%w: no file provided for compression", errUsage)
	}
	if *deleteAfterCompress {
		return deleteFiles(files)
	}
	return nil
}

func runDecompress(application string, args []string) error {
	decompressFS, common := newFlagSet(application, Commands[1], "<input> <output>")
	decompressFS.Parse(args)
	startLogging(*common.verbose, *common.quiet)
	if decompressFS.NArg() != 2 {
		decompressFS.Usage()
		return fmt.Errorf("%w: decompress needs an input and an output file", errUsage)
	}
	input, output := decompressFS.Arg(0), decompressFS.Arg(1)
	fmt.Printf("Decoding %s\n", input)
	v, err := engine.DecompressFile(input, output, engine.Options{Quiet: *common.quiet})
	if err != nil {
		return err
	}
	fmt.Print("...Testing file integrity (MD5 hash)...")
	if v.Verified() {
		success.Println("PASSED")
	} else {
		failure.Println("FAILED")
	}
	fmt.Printf("...Saved as %s\n", output)
	return nil
}

func runBenchmark(application string, args []string) error {
	benchmarkFS, common := newFlagSet(application, Commands[2], "<file(s)>")
	workers := benchmarkFS.Int("workers", 1, "Goroutines used to count symbol frequencies")
	benchmarkFS.Parse(args)
	startLogging(*common.verbose, *common.quiet)
	if benchmarkFS.NArg() == 0 {
		benchmarkFS.Usage()
		return fmt.Errorf("%w: no file provided for benchmark", errUsage)
	}
	var files []string
	for _, arg := range benchmarkFS.Args() {
		files = append(files, strings.Split(arg, ",")...)
	}
	trimSpace(files)
	results, err := engine.Benchmark(files, engine.Options{Workers: *workers, Quiet: *common.quiet})
	for _, r := range results {
		verdict := success.Sprint("PASSED")
		if !r.Verified {
			verdict = failure.Sprint("FAILED")
		}
		fmt.Printf("%s: %d -> %d bytes (%.2f%%), compress %v, decompress %v, %s\n",
			r.File, r.OriginalSize, r.CompressedSize, r.Ratio, r.CompressTime, r.DecompressTime, verdict)
	}
	return err
}

func report(file string, stats *huffman.Stats) {
	for _, w := range stats.Warnings {
		warning.Printf("WARNING: %v\n", w)
	}
	fmt.Printf("Compressed %s\n", file)
	fmt.Printf("Original size (in bytes): %v\n", stats.OriginalSize)
	fmt.Printf("Compressed size (in bytes): %v\n", stats.CompressedSize)
	fmt.Printf("Compression ratio: %.2f%%\n", stats.Ratio())
}

func startLogging(verbose, quiet bool) {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter("%{level:8s} %{module:-10s} | %{message}")
	leveled := logging.AddModuleLevel(logging.NewBackendFormatter(backend, formatter))
	switch {
	case quiet:
		leveled.SetLevel(logging.ERROR, "")
	case verbose:
		leveled.SetLevel(logging.DEBUG, "")
	default:
		leveled.SetLevel(logging.INFO, "")
	}
	logging.SetBackend(leveled)
	log.Debugf("logging configured (verbose=%v, quiet=%v)", verbose, quiet)
}

func trimSpace(s []string) {
	for i := range s {
		s[i] = strings.TrimSpace(s[i])
	}
}

func deleteFiles(files []string) error {
	for _, file := range files {
		if err := os.Remove(file); err != nil {
			return err
		}
		log.Infof("deleted %s", file)
	}
	return nil
}

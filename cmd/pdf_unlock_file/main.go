package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-kit/log"
	"github.com/spf13/pflag"

	"github.com/a3tai/pdf-unlocker/internal/config"
	"github.com/a3tai/pdf-unlocker/internal/logging"
	"github.com/a3tai/pdf-unlocker/internal/pdf"
	"github.com/a3tai/pdf-unlocker/internal/pdf/archive"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
	"github.com/a3tai/pdf-unlocker/internal/pdf/unlock"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options holds the flags shared by both commands
type options struct {
	decrypter   string
	qpdfPath    string
	timeout     time.Duration
	maxFileSize int64
	output      string
	format      string
	verbose     bool
	password    string
}

// UnlockOutput is the summary printed after an unlock
type UnlockOutput struct {
	Input   string `json:"input"`
	Output  string `json:"output"`
	Pages   int    `json:"pages"`
	Size    int    `json:"size"`
	Backend string `json:"backend"`
}

// ExtractOutput is the summary printed after an extraction
type ExtractOutput struct {
	Input string   `json:"input"`
	Files []string `json:"files"`
}

// ErrorOutput is printed in json format when a command fails
type ErrorOutput struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		printUsage(stderr)
		return 2
	}

	command := args[0]
	if command == "help" || command == "-h" || command == "--help" {
		printHelp(stdout)
		return 0
	}
	if command != "unlock" && command != "extract" {
		fmt.Fprintf(stderr, "Error: unknown command %q\n\n", command)
		printUsage(stderr)
		return 2
	}

	opts := options{}
	fs := pflag.NewFlagSet(command, pflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.decrypter, "decrypter", config.DecrypterQPDF, "Decryption backend: qpdf, pdfcpu")
	fs.StringVar(&opts.qpdfPath, "qpdf-path", config.DefaultQPDFPath, "Path to the qpdf executable")
	fs.DurationVar(&opts.timeout, "timeout", config.DefaultDecryptTimeout, "Maximum time for one decryption")
	fs.Int64Var(&opts.maxFileSize, "max-file-size", config.DefaultMaxFileSize, "Maximum input size in bytes")
	fs.StringVarP(&opts.output, "output", "o", "", "Output file (unlock) or directory (extract)")
	fs.StringVar(&opts.format, "format", "text", "Output format: text, json")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log progress to stderr")
	if command == "unlock" {
		fs.StringVarP(&opts.password, "password", "p", "", "Password that opens the PDF")
	}

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}
	if fs.NArg() != 1 {
		fmt.Fprintf(stderr, "Error: exactly one input file required\n\n")
		printUsage(stderr)
		return 2
	}
	if opts.format != "text" && opts.format != "json" {
		fmt.Fprintf(stderr, "Error: invalid format %q\n", opts.format)
		return 2
	}

	input := fs.Arg(0)
	data, err := os.ReadFile(input)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	logger := log.NewNopLogger()
	if opts.verbose {
		logger = logging.NewWithWriter(stderr, config.LogFormatLogfmt, "debug", "pdf_unlock_file")
	}

	var result interface{}
	switch command {
	case "unlock":
		result, err = runUnlock(ctx, opts, input, data, logger)
	case "extract":
		result, err = runExtract(ctx, opts, input, data, logger)
	}
	if err != nil {
		printError(stdout, stderr, opts.format, err)
		return 1
	}

	if err := printResult(stdout, opts.format, result); err != nil {
		fmt.Fprintf(stderr, "Error outputting results: %v\n", err)
		return 1
	}
	return 0
}

func newService(opts options, logger log.Logger) (*pdf.Service, error) {
	tool, err := unlock.NewTool(opts.decrypter, opts.qpdfPath)
	if err != nil {
		return nil, err
	}
	invoker := unlock.NewInvoker(tool,
		unlock.WithTimeout(opts.timeout),
		unlock.WithMaxConcurrent(1),
		unlock.WithLogger(logger),
	)
	return pdf.NewService(opts.maxFileSize, invoker, archive.NewSelector(opts.maxFileSize), logger), nil
}

func runUnlock(ctx context.Context, opts options, input string, data []byte, logger log.Logger) (*UnlockOutput, error) {
	svc, err := newService(opts, logger)
	if err != nil {
		return nil, err
	}

	result, err := svc.Unlock(ctx, pdf.UnlockRequest{Password: opts.password, Content: data})
	if err != nil {
		return nil, err
	}

	output := opts.output
	if output == "" {
		ext := filepath.Ext(input)
		output = input[:len(input)-len(ext)] + "-unlocked.pdf"
	}
	if err := os.WriteFile(output, result.Content, 0o600); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", output, err)
	}

	return &UnlockOutput{
		Input:   input,
		Output:  output,
		Pages:   result.Pages,
		Size:    len(result.Content),
		Backend: svc.DecrypterName(),
	}, nil
}

func runExtract(ctx context.Context, opts options, input string, data []byte, logger log.Logger) (*ExtractOutput, error) {
	svc, err := newService(opts, logger)
	if err != nil {
		return nil, err
	}

	result, err := svc.ExtractPDFs(ctx, pdf.ExtractRequest{Archive: data})
	if err != nil {
		return nil, err
	}

	dir := opts.output
	if dir == "" {
		dir = "."
	}
	dest, err := archive.NewDestination(dir)
	if err != nil {
		return nil, err
	}

	out := &ExtractOutput{Input: input, Files: make([]string, 0, len(result.Files))}
	seen := make(map[string]int)
	for _, f := range result.Files {
		path, err := dest.Write(uniqueName(seen, f.Name), f.Content)
		if err != nil {
			return nil, err
		}
		out.Files = append(out.Files, path)
	}
	return out, nil
}

// uniqueName suffixes repeated base names so entries from different folders do not overwrite each other
func uniqueName(seen map[string]int, name string) string {
	n := seen[name]
	seen[name] = n + 1
	if n == 0 {
		return name
	}
	ext := filepath.Ext(name)
	return fmt.Sprintf("%s-%d%s", name[:len(name)-len(ext)], n, ext)
}

func printResult(w io.Writer, format string, result interface{}) error {
	if format == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	switch r := result.(type) {
	case *UnlockOutput:
		fmt.Fprintf(w, "Unlocked %s -> %s (%d pages, %d bytes, %s)\n", r.Input, r.Output, r.Pages, r.Size, r.Backend)
	case *ExtractOutput:
		fmt.Fprintf(w, "Extracted %d PDF(s) from %s\n", len(r.Files), r.Input)
		for _, f := range r.Files {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return nil
}

func printError(stdout, stderr io.Writer, format string, err error) {
	out := ErrorOutput{Error: err.Error()}
	if e, ok := pdferrors.As(err); ok {
		out = ErrorOutput{Error: e.Message, Details: e.Details}
	}

	if format == "json" {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
		return
	}
	if out.Details != "" {
		fmt.Fprintf(stderr, "Error: %s: %s\n", out.Error, out.Details)
		return
	}
	fmt.Fprintf(stderr, "Error: %s\n", out.Error)
}

func printHelp(w io.Writer) {
	fmt.Fprintln(w, "PDF Unlock File - Remove PDF passwords and pull PDFs out of zip archives offline")
	fmt.Fprintln(w)
	printUsage(w)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "OPTIONS:")
	fmt.Fprintln(w, "  -p, --password       Password that opens the PDF (unlock only)")
	fmt.Fprintln(w, "  -o, --output         Output file (unlock) or directory (extract)")
	fmt.Fprintln(w, "      --decrypter      Decryption backend: qpdf (default), pdfcpu")
	fmt.Fprintln(w, "      --qpdf-path      Path to the qpdf executable")
	fmt.Fprintln(w, "      --timeout        Maximum time for one decryption (default 1m)")
	fmt.Fprintln(w, "      --max-file-size  Maximum input size in bytes")
	fmt.Fprintln(w, "      --format         Output format: text (default), json")
	fmt.Fprintln(w, "      --verbose        Log progress to stderr")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "EXAMPLES:")
	fmt.Fprintln(w, "  pdf_unlock_file unlock -p s3cret statement.pdf")
	fmt.Fprintln(w, "  pdf_unlock_file unlock --decrypter pdfcpu -p s3cret -o open.pdf statement.pdf")
	fmt.Fprintln(w, "  pdf_unlock_file extract -o out/ --format json bundle.zip")
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "USAGE:")
	fmt.Fprintln(w, "  pdf_unlock_file unlock [OPTIONS] -p <password> <pdf_file>")
	fmt.Fprintln(w, "  pdf_unlock_file extract [OPTIONS] <zip_file>")
}

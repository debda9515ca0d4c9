package unlock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

const (
	// DefaultQPDFPath resolves qpdf through PATH
	DefaultQPDFPath = "qpdf"

	maxStderrBytes = 64 * 1024
	qpdfWaitDelay  = 5 * time.Second
)

// QPDF runs the qpdf command line tool:
//
//	qpdf --password-file=<file> --decrypt <input> <output>
//
// The password is written to a 0600 file next to the output so it never
// appears in the process arguments. Cancelling ctx kills the process.
type QPDF struct {
	Path string
}

// NewQPDF creates a qpdf tool; an empty path means "qpdf" on PATH
func NewQPDF(path string) *QPDF {
	if path == "" {
		path = DefaultQPDFPath
	}
	return &QPDF{Path: path}
}

// Name returns the tool name used in logs and diagnostics
func (q *QPDF) Name() string {
	return "qpdf"
}

// Decrypt runs qpdf once. A non-zero exit, including qpdf's "succeeded with
// warnings" status, is reported as a *ToolError carrying qpdf's stderr.
func (q *QPDF) Decrypt(ctx context.Context, inputPath, outputPath, password string) error {
	passwordPath, err := writePasswordFile(filepath.Dir(outputPath), password)
	if err != nil {
		return err
	}
	defer os.Remove(passwordPath)

	cmd := exec.CommandContext(ctx, q.Path,
		"--password-file="+passwordPath,
		"--decrypt",
		inputPath,
		outputPath,
	)
	stderr := &cappedBuffer{limit: maxStderrBytes}
	cmd.Stdout = io.Discard
	cmd.Stderr = stderr
	cmd.WaitDelay = qpdfWaitDelay

	err = cmd.Run()
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}

	toolErr := &ToolError{Tool: q.Name(), Stderr: stderr.String(), Err: err}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		toolErr.ExitCode = exitErr.ExitCode()
	}
	return toolErr
}

// writePasswordFile stores password in a new owner-only file under dir
func writePasswordFile(dir, password string) (string, error) {
	f, err := os.CreateTemp(dir, "*.password")
	if err != nil {
		return "", fmt.Errorf("failed to create password file: %w", err)
	}
	path := f.Name()
	_, werr := f.WriteString(password)
	cerr := f.Close()
	if werr != nil || cerr != nil {
		os.Remove(path)
		return "", fmt.Errorf("failed to write password file: %w", errors.Join(werr, cerr))
	}
	return path, nil
}

// cappedBuffer keeps the first limit bytes written to it and discards the rest
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (c *cappedBuffer) Write(p []byte) (int, error) {
	if room := c.limit - c.buf.Len(); room > 0 {
		if len(p) > room {
			c.buf.Write(p[:room])
		} else {
			c.buf.Write(p)
		}
	}
	return len(p), nil
}

func (c *cappedBuffer) String() string {
	return c.buf.String()
}

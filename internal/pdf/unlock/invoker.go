// Package unlock removes password protection from PDFs by handing them to a
// decryption tool inside a per-call scratch directory.
package unlock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/semaphore"

	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

const (
	DefaultTimeout       = 60 * time.Second
	DefaultMaxConcurrent = 8
)

// Decrypter removes password protection from a PDF held in memory.
type Decrypter interface {
	Unlock(ctx context.Context, content []byte, password string) ([]byte, error)
}

// Invoker runs a Tool once per call against a private Workspace.
type Invoker struct {
	tool    Tool
	tempDir string
	timeout time.Duration
	slots   *semaphore.Weighted
	limit   int
	logger  log.Logger
}

// Option configures an Invoker
type Option func(*Invoker)

// WithTempDir sets the directory workspaces are created in
func WithTempDir(dir string) Option {
	return func(inv *Invoker) { inv.tempDir = dir }
}

// WithTimeout bounds a single tool run
func WithTimeout(d time.Duration) Option {
	return func(inv *Invoker) {
		if d > 0 {
			inv.timeout = d
		}
	}
}

// WithMaxConcurrent bounds how many tool runs may be in flight at once
func WithMaxConcurrent(n int) Option {
	return func(inv *Invoker) {
		if n > 0 {
			inv.slots = semaphore.NewWeighted(int64(n))
			inv.limit = n
		}
	}
}

// WithLogger sets the logger
func WithLogger(logger log.Logger) Option {
	return func(inv *Invoker) { inv.logger = logger }
}

// NewInvoker creates an Invoker around tool
func NewInvoker(tool Tool, opts ...Option) *Invoker {
	inv := &Invoker{
		tool:    tool,
		tempDir: os.TempDir(),
		timeout: DefaultTimeout,
		slots:   semaphore.NewWeighted(DefaultMaxConcurrent),
		limit:   DefaultMaxConcurrent,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(inv)
	}
	return inv
}

// ToolName returns the name of the wrapped tool
func (inv *Invoker) ToolName() string {
	return inv.tool.Name()
}

// Timeout returns the bound on a single tool run
func (inv *Invoker) Timeout() time.Duration {
	return inv.timeout
}

// MaxConcurrent returns how many tool runs may be in flight at once
func (inv *Invoker) MaxConcurrent() int {
	return inv.limit
}

// Unlock writes content to a fresh workspace, runs the tool with password and
// returns the decrypted bytes. The workspace is removed on every return path.
//
// Once the tool has started it runs to completion or to the configured
// timeout even if ctx is cancelled, so that no process is left writing into a
// directory that is being deleted.
func (inv *Invoker) Unlock(ctx context.Context, content []byte, password string) ([]byte, error) {
	if err := inv.slots.Acquire(ctx, 1); err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindDecryptionFailed, "Decryption cancelled before it started", err)
	}
	defer inv.slots.Release(1)

	ws, err := NewWorkspace(inv.tempDir)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInternal, "Failed to prepare decryption", err)
	}
	defer func() {
		if cerr := ws.Close(); cerr != nil {
			level.Warn(inv.logger).Log("msg", "workspace cleanup failed", "dir", ws.Dir(), "err", cerr)
		}
	}()

	if err := ws.WriteInput(content); err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInternal, "Failed to prepare decryption", err)
	}

	runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), inv.timeout)
	defer cancel()

	start := time.Now()
	runErr := inv.tool.Decrypt(runCtx, ws.InputPath, ws.OutputPath, password)
	elapsed := time.Since(start)

	if err := ws.RemoveInput(); err != nil {
		level.Warn(inv.logger).Log("msg", "input cleanup failed", "err", err)
	}

	if runErr != nil {
		level.Debug(inv.logger).Log("msg", "decryption failed", "tool", inv.tool.Name(),
			"duration", elapsed, "err", runErr)
		return nil, inv.classify(runErr)
	}

	if !ws.OutputExists() {
		level.Warn(inv.logger).Log("msg", "tool reported success without output", "tool", inv.tool.Name())
		return nil, pdferrors.New(pdferrors.KindOutputMissing, "Decrypted file not found after decryption")
	}

	out, err := ws.TakeOutput()
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindInternal, "Failed to read decrypted file", err)
	}

	level.Debug(inv.logger).Log("msg", "decrypted", "tool", inv.tool.Name(),
		"in_bytes", len(content), "out_bytes", len(out), "duration", elapsed)
	return out, nil
}

func (inv *Invoker) classify(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return pdferrors.Wrap(pdferrors.KindDecryptionFailed, "Failed to decrypt PDF", err).
			WithDetails(fmt.Sprintf("%s timed out after %s", inv.tool.Name(), inv.timeout))
	}

	var toolErr *ToolError
	if errors.As(err, &toolErr) {
		return pdferrors.Wrap(pdferrors.KindDecryptionFailed, "Failed to decrypt PDF", err).
			WithDetails(toolErr.Diagnostics())
	}

	return pdferrors.Wrap(pdferrors.KindDecryptionFailed, "Failed to decrypt PDF", err)
}

// NewTool returns the tool registered under name
func NewTool(name, qpdfPath string) (Tool, error) {
	switch name {
	case "qpdf", "":
		return NewQPDF(qpdfPath), nil
	case "pdfcpu":
		return NewPDFCPU(), nil
	default:
		return nil, fmt.Errorf("unknown decryption tool: %s", name)
	}
}

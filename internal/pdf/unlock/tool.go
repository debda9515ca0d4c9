package unlock

import (
	"context"
	"fmt"
	"strings"
)

// Tool turns an encrypted PDF on disk into a decrypted one on disk.
// Implementations must not leave the output file in place on failure as a
// signal of success; the Invoker ignores output whenever Decrypt errors.
type Tool interface {
	Decrypt(ctx context.Context, inputPath, outputPath, password string) error
	Name() string
}

// ToolError is a decryption the tool itself rejected: wrong password,
// damaged input, or an encryption scheme it does not support.
type ToolError struct {
	Tool     string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *ToolError) Error() string {
	msg := fmt.Sprintf("%s failed", e.Tool)
	if e.ExitCode != 0 {
		msg += fmt.Sprintf(" with exit code %d", e.ExitCode)
	}
	if d := e.Diagnostics(); d != "" {
		msg += ": " + d
	}
	return msg
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// Diagnostics returns what the tool said about the failure
func (e *ToolError) Diagnostics() string {
	if s := strings.TrimSpace(e.Stderr); s != "" {
		return s
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

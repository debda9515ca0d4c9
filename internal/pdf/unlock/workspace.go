package unlock

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

const (
	workspacePattern = "pdf-unlock-*"
	filePerm         = 0o600
)

// Workspace is a scratch directory owned by exactly one decryption.
// Nothing inside it outlives Close.
type Workspace struct {
	dir        string
	InputPath  string
	OutputPath string

	closeOnce sync.Once
	closeErr  error
}

// NewWorkspace creates a fresh directory under root with uniquely named
// input and output paths.
func NewWorkspace(root string) (*Workspace, error) {
	dir, err := os.MkdirTemp(root, workspacePattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create workspace: %w", err)
	}

	id := uuid.NewString()
	return &Workspace{
		dir:        dir,
		InputPath:  filepath.Join(dir, id+"-input.pdf"),
		OutputPath: filepath.Join(dir, id+"-output.pdf"),
	}, nil
}

// Dir returns the workspace directory
func (w *Workspace) Dir() string {
	return w.dir
}

// WriteInput stores the encrypted document at InputPath
func (w *Workspace) WriteInput(content []byte) error {
	if err := os.WriteFile(w.InputPath, content, filePerm); err != nil {
		return fmt.Errorf("failed to write input file: %w", err)
	}
	return nil
}

// RemoveInput deletes the input file. A missing file is not an error.
func (w *Workspace) RemoveInput() error {
	return removeIfExists(w.InputPath)
}

// OutputExists reports whether the tool left a regular file at OutputPath
func (w *Workspace) OutputExists() bool {
	info, err := os.Stat(w.OutputPath)
	return err == nil && info.Mode().IsRegular()
}

// TakeOutput reads the decrypted document and deletes it from disk
func (w *Workspace) TakeOutput() ([]byte, error) {
	data, err := os.ReadFile(w.OutputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read output file: %w", err)
	}
	if err := removeIfExists(w.OutputPath); err != nil {
		return nil, err
	}
	return data, nil
}

// Close removes the workspace and anything left in it. Safe to call more than once.
func (w *Workspace) Close() error {
	w.closeOnce.Do(func() {
		if err := os.RemoveAll(w.dir); err != nil {
			w.closeErr = fmt.Errorf("failed to remove workspace %s: %w", w.dir, err)
		}
	})
	return w.closeErr
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
	}
	return nil
}

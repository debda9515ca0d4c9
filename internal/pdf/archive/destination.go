package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Destination places extracted entries inside a single output directory.
type Destination struct {
	dir string
}

// NewDestination creates dir if needed and returns a Destination rooted at it
func NewDestination(dir string) (*Destination, error) {
	if dir == "" {
		return nil, fmt.Errorf("output directory cannot be empty")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve output directory: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}
	return &Destination{dir: abs}, nil
}

// Dir returns the resolved output directory
func (d *Destination) Dir() string {
	return d.dir
}

// Resolve maps an entry name to a path directly inside the output directory.
// Only the base name is kept and names that would land elsewhere are rejected.
func (d *Destination) Resolve(name string) (string, error) {
	name = strings.ReplaceAll(name, "\x00", "")
	base := BaseName(name)
	if base == "" || base == "." || base == ".." {
		return "", fmt.Errorf("invalid entry name: %q", name)
	}

	path := filepath.Join(d.dir, base)
	if filepath.Dir(path) != d.dir {
		return "", fmt.Errorf("entry name escapes output directory: %q", name)
	}

	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return "", fmt.Errorf("refusing to write through symlink: %s", path)
	}
	return path, nil
}

// Write stores content under the resolved name for entry
func (d *Destination) Write(name string, content []byte) (string, error) {
	path, err := d.Resolve(name)
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, content, 0o600); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

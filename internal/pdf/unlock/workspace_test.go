package unlock

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWorkspace_UniquePaths(t *testing.T) {
	root := t.TempDir()

	a, err := NewWorkspace(root)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewWorkspace(root)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.Dir(), b.Dir())
	assert.NotEqual(t, a.InputPath, b.InputPath)
	assert.NotEqual(t, a.OutputPath, b.OutputPath)
	assert.NotEqual(t, a.InputPath, a.OutputPath)

	assert.Equal(t, root, filepath.Dir(a.Dir()))
	assert.True(t, strings.HasPrefix(filepath.Base(a.Dir()), "pdf-unlock-"))
	assert.True(t, strings.HasSuffix(a.InputPath, "-input.pdf"))
	assert.True(t, strings.HasSuffix(a.OutputPath, "-output.pdf"))
}

func TestWorkspace_Lifecycle(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	require.NoError(t, err)

	require.NoError(t, ws.WriteInput([]byte("encrypted")))
	info, err := os.Stat(ws.InputPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.False(t, ws.OutputExists())
	require.NoError(t, os.WriteFile(ws.OutputPath, []byte("decrypted"), 0o600))
	assert.True(t, ws.OutputExists())

	require.NoError(t, ws.RemoveInput())
	require.NoError(t, ws.RemoveInput(), "removing twice is not an error")
	_, err = os.Stat(ws.InputPath)
	assert.True(t, os.IsNotExist(err))

	out, err := ws.TakeOutput()
	require.NoError(t, err)
	assert.Equal(t, "decrypted", string(out))
	_, err = os.Stat(ws.OutputPath)
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, ws.Close())
	require.NoError(t, ws.Close())
	_, err = os.Stat(ws.Dir())
	assert.True(t, os.IsNotExist(err))
}

func TestWorkspace_CloseRemovesLeftovers(t *testing.T) {
	root := t.TempDir()
	ws, err := NewWorkspace(root)
	require.NoError(t, err)

	require.NoError(t, ws.WriteInput([]byte("in")))
	require.NoError(t, os.WriteFile(ws.OutputPath, []byte("partial"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(ws.Dir(), "qpdf-temp"), []byte("x"), 0o600))

	require.NoError(t, ws.Close())

	entries, err := os.ReadDir(root)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestWorkspace_OutputDirectoryIsNotOutput(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	require.NoError(t, err)
	defer ws.Close()

	require.NoError(t, os.Mkdir(ws.OutputPath, 0o700))
	assert.False(t, ws.OutputExists())
}

func TestNewWorkspace_MissingRoot(t *testing.T) {
	_, err := NewWorkspace(filepath.Join(t.TempDir(), "does-not-exist"))
	assert.Error(t, err)
}

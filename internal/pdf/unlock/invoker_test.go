package unlock

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

// fakeTool "decrypts" by prefixing the input with the password
type fakeTool struct {
	password   string
	skipOutput bool
	delay      time.Duration
	started    chan struct{}

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func (f *fakeTool) Name() string { return "fake" }

func (f *fakeTool) Decrypt(ctx context.Context, in, out, password string) error {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		m := f.maxInFlight.Load()
		if n <= m || f.maxInFlight.CompareAndSwap(m, n) {
			break
		}
	}

	if f.started != nil {
		close(f.started)
	}

	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	data, err := os.ReadFile(in)
	if err != nil {
		return err
	}
	if f.password != "" && password != f.password {
		return &ToolError{Tool: "fake", ExitCode: 2, Stderr: "invalid password\n"}
	}
	if f.skipOutput {
		return nil
	}
	return os.WriteFile(out, append([]byte(password+":"), data...), 0o600)
}

func assertEmptyDir(t *testing.T, dir string) {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary files were left behind in %s", dir)
}

func TestInvoker_Success(t *testing.T) {
	tmp := t.TempDir()
	inv := NewInvoker(&fakeTool{password: "secret"}, WithTempDir(tmp))

	out, err := inv.Unlock(context.Background(), []byte("%PDF-1.7 body"), "secret")
	require.NoError(t, err)
	assert.Equal(t, "secret:%PDF-1.7 body", string(out))
	assert.Equal(t, "fake", inv.ToolName())
	assertEmptyDir(t, tmp)
}

func TestInvoker_WrongPassword(t *testing.T) {
	tmp := t.TempDir()
	inv := NewInvoker(&fakeTool{password: "secret"}, WithTempDir(tmp))

	out, err := inv.Unlock(context.Background(), []byte("%PDF"), "guess")
	require.Error(t, err)
	assert.Nil(t, out)

	e, ok := pdferrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pdferrors.KindDecryptionFailed, e.Kind)
	assert.Equal(t, "Failed to decrypt PDF", e.Message)
	assert.Equal(t, "invalid password", e.Details)
	assertEmptyDir(t, tmp)
}

func TestInvoker_OutputMissing(t *testing.T) {
	tmp := t.TempDir()
	inv := NewInvoker(&fakeTool{skipOutput: true}, WithTempDir(tmp))

	_, err := inv.Unlock(context.Background(), []byte("%PDF"), "pw")
	require.Error(t, err)
	assert.Equal(t, pdferrors.KindOutputMissing, pdferrors.KindOf(err))
	assertEmptyDir(t, tmp)
}

func TestInvoker_Timeout(t *testing.T) {
	tmp := t.TempDir()
	inv := NewInvoker(&fakeTool{delay: time.Minute}, WithTempDir(tmp), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, err := inv.Unlock(context.Background(), []byte("%PDF"), "pw")
	require.Error(t, err)
	assert.Less(t, time.Since(start), 10*time.Second)

	e, ok := pdferrors.As(err)
	require.True(t, ok)
	assert.Equal(t, pdferrors.KindDecryptionFailed, e.Kind)
	assert.Contains(t, e.Details, "timed out")
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
	assertEmptyDir(t, tmp)
}

func TestInvoker_ClientCancelDoesNotAbortRunningTool(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{delay: 100 * time.Millisecond, started: make(chan struct{})}
	inv := NewInvoker(tool, WithTempDir(tmp))

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-tool.started
		cancel()
	}()

	out, err := inv.Unlock(ctx, []byte("data"), "pw")
	require.NoError(t, err)
	assert.Equal(t, "pw:data", string(out))
	assertEmptyDir(t, tmp)
}

func TestInvoker_CancelledBeforeStart(t *testing.T) {
	tmp := t.TempDir()
	inv := NewInvoker(&fakeTool{delay: time.Second}, WithTempDir(tmp), WithMaxConcurrent(1))

	// Hold the only slot
	busyCtx := context.Background()
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = inv.Unlock(busyCtx, []byte("first"), "pw")
	}()
	require.Eventually(t, func() bool {
		entries, _ := os.ReadDir(tmp)
		return len(entries) > 0
	}, 5*time.Second, 5*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := inv.Unlock(ctx, []byte("second"), "pw")
	require.Error(t, err)
	assert.Equal(t, pdferrors.KindDecryptionFailed, pdferrors.KindOf(err))

	<-done
	assertEmptyDir(t, tmp)
}

func TestInvoker_ConcurrentCallsAreIsolated(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{delay: 10 * time.Millisecond}
	inv := NewInvoker(tool, WithTempDir(tmp), WithMaxConcurrent(10))

	const n = 10
	var wg sync.WaitGroup
	results := make([][]byte, n)
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			content := bytes.Repeat([]byte{byte('a' + i)}, 1000+i)
			results[i], errs[i] = inv.Unlock(context.Background(), content, fmt.Sprintf("pw%d", i))
		}(i)
	}
	wg.Wait()

	for i := 0; i < n; i++ {
		require.NoError(t, errs[i])
		want := append([]byte(fmt.Sprintf("pw%d:", i)), bytes.Repeat([]byte{byte('a' + i)}, 1000+i)...)
		assert.Equal(t, want, results[i], "call %d received another call's output", i)
	}
	assertEmptyDir(t, tmp)
}

func TestInvoker_MaxConcurrent(t *testing.T) {
	tmp := t.TempDir()
	tool := &fakeTool{delay: 20 * time.Millisecond}
	inv := NewInvoker(tool, WithTempDir(tmp), WithMaxConcurrent(2))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := inv.Unlock(context.Background(), []byte("x"), "pw")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.LessOrEqual(t, tool.maxInFlight.Load(), int32(2))
	assertEmptyDir(t, tmp)
}

func TestInvoker_WorkspaceFailure(t *testing.T) {
	inv := NewInvoker(&fakeTool{}, WithTempDir("/nonexistent/pdf-unlocker-test"))

	_, err := inv.Unlock(context.Background(), []byte("x"), "pw")
	require.Error(t, err)
	assert.Equal(t, pdferrors.KindInternal, pdferrors.KindOf(err))
}

func TestNewTool(t *testing.T) {
	tool, err := NewTool("qpdf", "/usr/local/bin/qpdf")
	require.NoError(t, err)
	assert.Equal(t, "qpdf", tool.Name())
	assert.Equal(t, "/usr/local/bin/qpdf", tool.(*QPDF).Path)

	tool, err = NewTool("", "")
	require.NoError(t, err)
	assert.Equal(t, DefaultQPDFPath, tool.(*QPDF).Path)

	tool, err = NewTool("pdfcpu", "")
	require.NoError(t, err)
	assert.Equal(t, "pdfcpu", tool.Name())

	_, err = NewTool("mutool", "")
	assert.Error(t, err)
}

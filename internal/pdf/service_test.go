package pdf

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/pdf-unlocker/internal/pdf/archive"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
	"github.com/a3tai/pdf-unlocker/internal/testutil"
)

// fakeDecrypter returns a fresh MinimalPDF for the password "secret"
type fakeDecrypter struct {
	mu    sync.Mutex
	calls int
	err   error
	out   []byte
}

func (f *fakeDecrypter) Unlock(_ context.Context, content []byte, password string) ([]byte, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if f.err != nil {
		return nil, f.err
	}
	if password != "secret" {
		return nil, pdferrors.New(pdferrors.KindDecryptionFailed, "Failed to decrypt PDF").
			WithDetails("invalid password")
	}
	if f.out != nil {
		return f.out, nil
	}
	return testutil.MinimalPDF(string(content[:min(len(content), 8)])), nil
}

type limitedDecrypter struct {
	fakeDecrypter
}

func (l *limitedDecrypter) ToolName() string { return "qpdf" }
func (l *limitedDecrypter) Timeout() time.Duration { return 30 * time.Second }
func (l *limitedDecrypter) MaxConcurrent() int { return 4 }

func TestNewService(t *testing.T) {
	maxFileSize := int64(1024 * 1024) // 1MB
	service := NewService(maxFileSize, &fakeDecrypter{}, nil, nil)

	if service == nil {
		t.Fatal("NewService returned nil")
	}
	if service.GetMaxFileSize() != maxFileSize {
		t.Errorf("Expected maxFileSize to be %d, got %d", maxFileSize, service.GetMaxFileSize())
	}
	if service.validator == nil {
		t.Error("validator component should not be nil")
	}
	if service.selector == nil {
		t.Error("selector component should default to the archive selector")
	}
}

func TestService_Unlock(t *testing.T) {
	dec := &fakeDecrypter{}
	service := NewService(1024*1024, dec, nil, nil)

	result, err := service.Unlock(context.Background(), UnlockRequest{
		Password: "secret",
		Content:  []byte("%PDF-1.4 locked"),
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(result.Content, []byte("%PDF-1.4")))
	assert.Equal(t, 1, result.Pages)
	assert.Equal(t, 1, dec.calls)
}

func TestService_UnlockUninspectableOutput(t *testing.T) {
	service := NewService(1024*1024, &fakeDecrypter{out: []byte("not really a pdf")}, nil, nil)

	result, err := service.Unlock(context.Background(), UnlockRequest{Password: "secret", Content: []byte("x")})
	require.NoError(t, err)
	assert.Equal(t, []byte("not really a pdf"), result.Content)
	assert.Zero(t, result.Pages)
}

func TestService_UnlockFailures(t *testing.T) {
	tests := []struct {
		name      string
		req       UnlockRequest
		maxSize   int64
		wantKind  pdferrors.Kind
		wantCalls int
	}{
		{
			name:     "missing password",
			req:      UnlockRequest{Content: []byte("%PDF")},
			wantKind: pdferrors.KindValidation,
		},
		{
			name:     "missing content",
			req:      UnlockRequest{Password: "secret"},
			wantKind: pdferrors.KindValidation,
		},
		{
			name:     "too large",
			req:      UnlockRequest{Password: "secret", Content: make([]byte, 65)},
			maxSize:  64,
			wantKind: pdferrors.KindPayloadTooLarge,
		},
		{
			name:      "wrong password",
			req:       UnlockRequest{Password: "wrong", Content: []byte("%PDF")},
			wantKind:  pdferrors.KindDecryptionFailed,
			wantCalls: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			maxSize := tt.maxSize
			if maxSize == 0 {
				maxSize = 1024
			}
			dec := &fakeDecrypter{}
			service := NewService(maxSize, dec, nil, nil)

			result, err := service.Unlock(context.Background(), tt.req)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.Equal(t, tt.wantKind, pdferrors.KindOf(err))
			assert.Equal(t, tt.wantCalls, dec.calls)
		})
	}
}

func TestService_UnlockPassesDecrypterErrorThrough(t *testing.T) {
	want := pdferrors.New(pdferrors.KindOutputMissing, "Decrypted file not found after decryption")
	service := NewService(1024, &fakeDecrypter{err: want}, nil, nil)

	_, err := service.Unlock(context.Background(), UnlockRequest{Password: "secret", Content: []byte("x")})
	assert.ErrorIs(t, err, want)
}

func TestService_ExtractPDFs(t *testing.T) {
	service := NewService(1024*1024, &fakeDecrypter{}, nil, nil)
	data := testutil.Zip(t,
		testutil.ZipEntry{Name: "a.PDF", Content: []byte("A")},
		testutil.ZipEntry{Name: "notes.txt", Content: []byte("N")},
		testutil.ZipEntry{Name: "b.pdf", Content: []byte("B")},
	)

	result, err := service.ExtractPDFs(context.Background(), ExtractRequest{Archive: data})
	require.NoError(t, err)
	require.Len(t, result.Files, 2)
	assert.Equal(t, archive.Entry{Name: "a.PDF", Content: []byte("A")}, result.First())
	assert.Equal(t, "b.pdf", result.Files[1].Name)
}

func TestService_ExtractPDFsFailures(t *testing.T) {
	service := NewService(1024*1024, &fakeDecrypter{}, nil, nil)

	tests := []struct {
		name     string
		data     []byte
		wantKind pdferrors.Kind
	}{
		{name: "missing archive", data: nil, wantKind: pdferrors.KindValidation},
		{name: "not a zip", data: []byte("garbage"), wantKind: pdferrors.KindMalformedArchive},
		{
			name:     "no pdfs",
			data:     testutil.Zip(t, testutil.ZipEntry{Name: "notes.txt", Content: []byte("x")}),
			wantKind: pdferrors.KindNoMatchingEntries,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.ExtractPDFs(context.Background(), ExtractRequest{Archive: tt.data})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, pdferrors.KindOf(err))
		})
	}
}

func TestService_ExtractPDFsTooLarge(t *testing.T) {
	service := NewService(32, &fakeDecrypter{}, nil, nil)

	_, err := service.ExtractPDFs(context.Background(), ExtractRequest{Archive: make([]byte, 33)})
	require.Error(t, err)
	assert.Equal(t, pdferrors.KindPayloadTooLarge, pdferrors.KindOf(err))
}

func TestService_DecrypterName(t *testing.T) {
	assert.Equal(t, "custom", NewService(1, &fakeDecrypter{}, nil, nil).DecrypterName())
	assert.Equal(t, "qpdf", NewService(1, &limitedDecrypter{}, nil, nil).DecrypterName())
}

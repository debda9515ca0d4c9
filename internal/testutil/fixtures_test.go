package testutil

import (
	"bytes"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMinimalPDFIsReadable(t *testing.T) {
	data := MinimalPDF("Hello")

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, 1, r.NumPage())
}

func TestZipKeepsOrder(t *testing.T) {
	data := Zip(t,
		ZipEntry{Name: "docs/"},
		ZipEntry{Name: "docs/a.pdf", Content: []byte("a")},
		ZipEntry{Name: "b.txt", Content: []byte("b"), Store: true},
	)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "docs/", zr.File[0].Name)
	assert.Equal(t, "docs/a.pdf", zr.File[1].Name)
	assert.Equal(t, "b.txt", zr.File[2].Name)
}

// Package archive picks the PDF documents out of an uploaded zip archive.
package archive

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"

	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

const (
	DefaultMaxEntrySize int64 = 50 * 1024 * 1024
	DefaultMaxEntries         = 10000

	// the decompressed PDFs of one archive may add up to this many entry limits
	totalSizeFactor = 2

	// general purpose flag bit 0 marks an encrypted entry
	flagEncrypted = 0x1
)

// Entry is a PDF extracted from an archive. Name is the final component of
// the entry's path.
type Entry struct {
	Name    string
	Content []byte
}

// Selector filters archive entries down to PDFs. Zero limits fall back to
// the defaults; MaxTotalSize defaults to twice MaxEntrySize.
type Selector struct {
	MaxEntrySize int64
	MaxTotalSize int64
	MaxEntries   int
}

// NewSelector creates a selector with the given per-entry size limit
func NewSelector(maxEntrySize int64) *Selector {
	return &Selector{MaxEntrySize: maxEntrySize, MaxEntries: DefaultMaxEntries}
}

// SelectPDFEntries returns every non-directory entry whose name ends in
// ".pdf" (any case), in the order the archive lists them.
func (s *Selector) SelectPDFEntries(data []byte) ([]Entry, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindMalformedArchive, "Failed to read zip archive", err)
	}

	if limit := s.maxEntries(); len(zr.File) > limit {
		return nil, pdferrors.New(pdferrors.KindMalformedArchive, "Failed to read zip archive").
			WithDetails(fmt.Sprintf("archive has %d entries, limit is %d", len(zr.File), limit))
	}

	var entries []Entry
	remaining := s.maxTotalSize()
	for _, f := range zr.File {
		if !IsPDFName(f.Name) || f.FileInfo().IsDir() {
			continue
		}
		content, err := s.readEntry(f, remaining)
		if err != nil {
			return nil, err
		}
		remaining -= int64(len(content))
		entries = append(entries, Entry{Name: BaseName(f.Name), Content: content})
	}

	if len(entries) == 0 {
		return nil, pdferrors.New(pdferrors.KindNoMatchingEntries, "No PDF files found in archive")
	}
	return entries, nil
}

// readEntry decompresses f, failing once it passes the per-entry limit or
// the budget left for the whole archive.
func (s *Selector) readEntry(f *zip.File, remaining int64) ([]byte, error) {
	fail := func(details string, err error) error {
		e := pdferrors.Wrap(pdferrors.KindMalformedArchive, "Failed to read zip archive", err)
		if details != "" {
			e = e.WithDetails(details)
		}
		return e
	}

	if f.Flags&flagEncrypted != 0 {
		return nil, fail(fmt.Sprintf("%s: encrypted entries are not supported", f.Name), nil)
	}

	limit := s.maxEntrySize()
	if f.UncompressedSize64 > uint64(limit) {
		return nil, fail(fmt.Sprintf("%s: entry exceeds %d bytes", f.Name, limit), nil)
	}
	totalExceeded := func() error {
		return fail(fmt.Sprintf("%s: PDFs in archive exceed %d bytes in total", f.Name, s.maxTotalSize()), nil)
	}
	if f.UncompressedSize64 > uint64(remaining) {
		return nil, totalExceeded()
	}
	readLimit := min(limit, remaining)

	rc, err := f.Open()
	if err != nil {
		return nil, fail(fmt.Sprintf("%s: %v", f.Name, err), err)
	}
	defer rc.Close()

	// the header size is not trusted; read one byte past the limit to detect lies
	content, err := io.ReadAll(io.LimitReader(rc, readLimit+1))
	if err != nil {
		return nil, fail(fmt.Sprintf("%s: %v", f.Name, err), err)
	}
	if int64(len(content)) > limit {
		return nil, fail(fmt.Sprintf("%s: entry exceeds %d bytes", f.Name, limit), nil)
	}
	if int64(len(content)) > remaining {
		return nil, totalExceeded()
	}
	return content, nil
}

func (s *Selector) maxEntrySize() int64 {
	if s.MaxEntrySize > 0 {
		return s.MaxEntrySize
	}
	return DefaultMaxEntrySize
}

func (s *Selector) maxTotalSize() int64 {
	if s.MaxTotalSize > 0 {
		return s.MaxTotalSize
	}
	return totalSizeFactor * s.maxEntrySize()
}

func (s *Selector) maxEntries() int {
	if s.MaxEntries > 0 {
		return s.MaxEntries
	}
	return DefaultMaxEntries
}

// IsPDFName reports whether an entry path names a PDF file
func IsPDFName(name string) bool {
	return strings.HasSuffix(strings.ToLower(name), ".pdf")
}

// BaseName returns the last path component, accepting both / and \ separators
func BaseName(name string) string {
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		return name[i+1:]
	}
	return name
}

package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/ledongthuc/pdf"

	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

// Validator checks request payloads and inspects PDF documents held in memory
type Validator struct {
	maxFileSize int64
}

// NewValidator creates a new PDF validator with the specified constraints
func NewValidator(maxFileSize int64) *Validator {
	return &Validator{
		maxFileSize: maxFileSize,
	}
}

// ValidatePayload rejects empty payloads and payloads over the size limit.
// field names the request field in error messages.
func (v *Validator) ValidatePayload(field string, data []byte) error {
	if len(data) == 0 {
		return pdferrors.Newf(pdferrors.KindValidation, "%s cannot be empty", field)
	}
	if int64(len(data)) > v.maxFileSize {
		return pdferrors.New(pdferrors.KindPayloadTooLarge, "File too large").
			WithDetails(fmt.Sprintf("%s is %d bytes (max: %d bytes)", field, len(data), v.maxFileSize))
	}
	return nil
}

// Inspect opens content as a PDF and reports its page count and whether it
// still carries an encryption dictionary. A document that cannot be read
// without a password is reported as encrypted with zero pages.
func (v *Validator) Inspect(content []byte) (info *Inspection, err error) {
	// the reader panics on malformed object graphs
	defer func() {
		if r := recover(); r != nil {
			info, err = nil, fmt.Errorf("invalid PDF file: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return &Inspection{Encrypted: true}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("invalid PDF file: %w", err)
	}

	return &Inspection{
		Pages:     r.NumPage(),
		Encrypted: !r.Trailer().Key("Encrypt").IsNull(),
	}, nil
}


package pdf

import (
	"context"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/pdf/archive"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
	"github.com/a3tai/pdf-unlocker/internal/pdf/unlock"
)

// EntrySelector picks the PDF entries out of a zip archive
type EntrySelector interface {
	SelectPDFEntries(data []byte) ([]archive.Entry, error)
}

// Service handles unlock and extract requests by orchestrating the decrypter,
// the archive selector and the validator
type Service struct {
	maxFileSize int64
	decrypter   unlock.Decrypter
	selector    EntrySelector
	validator   *Validator
	logger      log.Logger
}

// NewService creates a new PDF service with all components
func NewService(maxFileSize int64, decrypter unlock.Decrypter, selector EntrySelector, logger log.Logger) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if selector == nil {
		selector = archive.NewSelector(maxFileSize)
	}
	return &Service{
		maxFileSize: maxFileSize,
		decrypter:   decrypter,
		selector:    selector,
		validator:   NewValidator(maxFileSize),
		logger:      log.With(logger, "component", "pdf"),
	}
}

// Unlock removes the password protection from req.Content
func (s *Service) Unlock(ctx context.Context, req UnlockRequest) (*UnlockResult, error) {
	if req.Password == "" || len(req.Content) == 0 {
		return nil, pdferrors.New(pdferrors.KindValidation, "Missing 'password' or 'fileBase64' in body")
	}
	if err := s.validator.ValidatePayload("fileBase64", req.Content); err != nil {
		return nil, err
	}

	out, err := s.decrypter.Unlock(ctx, req.Content, req.Password)
	if err != nil {
		return nil, err
	}

	result := &UnlockResult{Content: out}
	info, err := s.validator.Inspect(out)
	switch {
	case err != nil:
		level.Debug(s.logger).Log("msg", "decrypted output not inspectable", "err", err)
	case info.Encrypted:
		level.Warn(s.logger).Log("msg", "decrypted output still carries an encryption dictionary")
		result.Pages = info.Pages
	default:
		result.Pages = info.Pages
	}

	level.Info(s.logger).Log("msg", "unlocked", "in_bytes", len(req.Content),
		"out_bytes", len(out), "pages", result.Pages)
	return result, nil
}

// ExtractPDFs returns the PDF entries of req.Archive in archive order
func (s *Service) ExtractPDFs(_ context.Context, req ExtractRequest) (*ExtractResult, error) {
	if len(req.Archive) == 0 {
		return nil, pdferrors.New(pdferrors.KindValidation, "Missing 'zipBase64' in body")
	}
	if err := s.validator.ValidatePayload("zipBase64", req.Archive); err != nil {
		return nil, err
	}

	entries, err := s.selector.SelectPDFEntries(req.Archive)
	if err != nil {
		return nil, err
	}

	level.Info(s.logger).Log("msg", "extracted", "archive_bytes", len(req.Archive), "files", len(entries))
	return &ExtractResult{Files: entries}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// DecrypterName names the decryption backend, or "custom" when it does not say
func (s *Service) DecrypterName() string {
	if named, ok := s.decrypter.(interface{ ToolName() string }); ok {
		return named.ToolName()
	}
	return "custom"
}

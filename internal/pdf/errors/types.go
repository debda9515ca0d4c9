package errors

import (
	stderrors "errors"
	"fmt"
)

// Error is a classified failure of an unlock or extract operation
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
	Err     error  `json:"-"`
}

// Kind represents the categories of failure a request can end in
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindMalformedEncoding
	KindPayloadTooLarge
	KindDecryptionFailed
	KindOutputMissing
	KindMalformedArchive
	KindNoMatchingEntries
)

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Kind.String(), e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Kind.String(), e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.Err
}

// String returns a string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "VALIDATION"
	case KindMalformedEncoding:
		return "MALFORMED_ENCODING"
	case KindPayloadTooLarge:
		return "PAYLOAD_TOO_LARGE"
	case KindDecryptionFailed:
		return "DECRYPTION_FAILED"
	case KindOutputMissing:
		return "OUTPUT_MISSING"
	case KindMalformedArchive:
		return "MALFORMED_ARCHIVE"
	case KindNoMatchingEntries:
		return "NO_MATCHING_ENTRIES"
	default:
		return "INTERNAL"
	}
}

// IsClientError reports whether the failure was caused by the request itself
func (k Kind) IsClientError() bool {
	switch k {
	case KindValidation, KindMalformedEncoding, KindPayloadTooLarge, KindNoMatchingEntries:
		return true
	default:
		return false
	}
}

// New creates a new Error of the given kind
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Newf creates a new Error with a formatted message
func Newf(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap classifies err, keeping its text as the details
func Wrap(kind Kind, message string, err error) *Error {
	e := &Error{Kind: kind, Message: message, Err: err}
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// WithDetails sets diagnostic text on an existing Error
func (e *Error) WithDetails(details string) *Error {
	e.Details = details
	return e
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// As finds the first *Error in err's chain
func As(err error) (*Error, bool) {
	var e *Error
	ok := stderrors.As(err, &e)
	return e, ok
}

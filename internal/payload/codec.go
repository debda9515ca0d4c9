// Package payload converts file content between raw bytes and the base64 text
// carried in JSON request and response bodies.
package payload

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedEncoding is returned when text is not valid standard base64
var ErrMalformedEncoding = errors.New("malformed base64 encoding")

// Decode interprets text as standard base64. Padding is optional, CR/LF line
// breaks are ignored and a leading data URL header ("data:application/pdf;base64,")
// is stripped.
func Decode(text string) ([]byte, error) {
	text = stripDataURL(text)

	enc := base64.StdEncoding
	if !strings.HasSuffix(text, "=") && unwrappedLen(text)%4 != 0 {
		enc = base64.RawStdEncoding
	}

	raw, err := enc.DecodeString(text)
	if err != nil {
		var corrupt base64.CorruptInputError
		if errors.As(err, &corrupt) {
			return nil, fmt.Errorf("%w: illegal data at input byte %d", ErrMalformedEncoding, int64(corrupt))
		}
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return raw, nil
}

// Encode produces standard padded base64 without line wrapping
func Encode(raw []byte) string {
	return base64.StdEncoding.EncodeToString(raw)
}

func stripDataURL(text string) string {
	if !strings.HasPrefix(text, "data:") {
		return text
	}
	if i := strings.Index(text, ";base64,"); i >= 0 {
		return text[i+len(";base64,"):]
	}
	return text
}

// unwrappedLen counts characters the decoder does not skip
func unwrappedLen(text string) int {
	return len(text) - strings.Count(text, "\r") - strings.Count(text, "\n")
}

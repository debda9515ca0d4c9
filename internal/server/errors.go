package server

import (
	"context"
	"encoding/json"
	"net/http"

	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

// errorBody is the JSON envelope of every failed response
type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// StatusCode maps an error kind to its HTTP status
func StatusCode(kind pdferrors.Kind) int {
	switch kind {
	case pdferrors.KindValidation, pdferrors.KindMalformedEncoding:
		return http.StatusBadRequest
	case pdferrors.KindPayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case pdferrors.KindNoMatchingEntries:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// envelope builds the response body for err
func envelope(err error) (int, errorBody) {
	e, ok := pdferrors.As(err)
	if !ok {
		return http.StatusInternalServerError, errorBody{Error: "Unexpected server error", Details: err.Error()}
	}

	body := errorBody{Error: e.Message, Details: e.Details}
	switch e.Kind {
	case pdferrors.KindValidation, pdferrors.KindNoMatchingEntries, pdferrors.KindOutputMissing:
		body.Details = ""
	case pdferrors.KindInternal:
		body.Error = "Unexpected server error"
		if body.Details == "" {
			body.Details = e.Message
		}
	}
	return StatusCode(e.Kind), body
}

func encodeError(_ context.Context, err error, w http.ResponseWriter) {
	status, body := envelope(err)
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	httptransport "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/payload"
	"github.com/a3tai/pdf-unlocker/internal/pdf"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

const unlockedFilename = "unlocked.pdf"

// unlockBody is the JSON body of POST /unlock
type unlockBody struct {
	Password     string   `json:"password"`
	FileBase64   string   `json:"fileBase64"`
	ReturnBase64 flexBool `json:"returnBase64"`
}

// extractBody is the JSON body of POST /extract-pdfs
type extractBody struct {
	ZipBase64    string   `json:"zipBase64"`
	ReturnBase64 flexBool `json:"returnBase64"`
}

type unlockJSON struct {
	Success    bool   `json:"success"`
	FileBase64 string `json:"fileBase64"`
}

type extractedFile struct {
	Filename   string `json:"filename"`
	FileBase64 string `json:"fileBase64"`
}

type extractJSON struct {
	Success bool            `json:"success"`
	Files   []extractedFile `json:"files"`
}

// Options configures the HTTP handler
type Options struct {
	ServerName  string
	Version     string
	MaxBodySize int64
	Logger      log.Logger
}

// NewHandler builds the gin engine serving every route
func NewHandler(svc Service, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.NewNopLogger()
	}
	logger = log.With(logger, "component", "http")

	endpoints := MakeEndpoints(svc, opts.ServerName, opts.Version, logger)
	options := []httptransport.ServerOption{
		httptransport.ServerErrorEncoder(encodeError),
	}

	r := gin.New()
	r.Use(
		RequestID(),
		AccessLog(logger),
		Recovery(logger),
		BodyLimit(opts.MaxBodySize),
	)

	r.GET("/health", gin.WrapH(httptransport.NewServer(
		endpoints.Health,
		httptransport.NopRequestDecoder,
		httptransport.EncodeJSONResponse,
		options...,
	)))
	r.GET("/info", gin.WrapH(httptransport.NewServer(
		endpoints.Info,
		httptransport.NopRequestDecoder,
		httptransport.EncodeJSONResponse,
		options...,
	)))
	r.POST("/unlock", gin.WrapH(httptransport.NewServer(
		endpoints.Unlock,
		decodeUnlockRequest,
		encodeUnlockResponse,
		options...,
	)))
	r.POST("/extract-pdfs", gin.WrapH(httptransport.NewServer(
		endpoints.Extract,
		decodeExtractRequest,
		encodeExtractResponse,
		options...,
	)))

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "Not found"})
	})

	level.Debug(logger).Log("msg", "routes registered", "routes", len(r.Routes()))
	return r
}

func decodeUnlockRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body unlockBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if body.Password == "" || body.FileBase64 == "" {
		return nil, pdferrors.New(pdferrors.KindValidation, "Missing 'password' or 'fileBase64' in body")
	}

	content, err := payload.Decode(body.FileBase64)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindMalformedEncoding, "Invalid base64 in 'fileBase64'", err)
	}
	return pdf.UnlockRequest{
		Password:     body.Password,
		Content:      content,
		ReturnBase64: bool(body.ReturnBase64),
	}, nil
}

func decodeExtractRequest(_ context.Context, r *http.Request) (interface{}, error) {
	var body extractBody
	if err := decodeJSON(r, &body); err != nil {
		return nil, err
	}
	if body.ZipBase64 == "" {
		return nil, pdferrors.New(pdferrors.KindValidation, "Missing 'zipBase64' in body")
	}

	archive, err := payload.Decode(body.ZipBase64)
	if err != nil {
		return nil, pdferrors.Wrap(pdferrors.KindMalformedEncoding, "Invalid base64 in 'zipBase64'", err)
	}
	return pdf.ExtractRequest{
		Archive:      archive,
		ReturnBase64: bool(body.ReturnBase64),
	}, nil
}

// decodeJSON reads a JSON object body. An empty body decodes as an empty
// object so that it is reported as missing fields.
func decodeJSON(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return nil
	}

	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return pdferrors.Wrap(pdferrors.KindPayloadTooLarge, "Request body too large", err).
			WithDetails("limit is " + strconv.FormatInt(tooLarge.Limit, 10) + " bytes")
	}
	return pdferrors.Wrap(pdferrors.KindValidation, "Invalid JSON body", err)
}

func encodeUnlockResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(unlockResponse)
	if resp.returnBase64 {
		return httptransport.EncodeJSONResponse(ctx, w, unlockJSON{
			Success:    true,
			FileBase64: payload.Encode(resp.result.Content),
		})
	}
	return writePDF(w, unlockedFilename, resp.result.Content)
}

func encodeExtractResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(extractResponse)
	if resp.returnBase64 {
		files := make([]extractedFile, 0, len(resp.result.Files))
		for _, f := range resp.result.Files {
			files = append(files, extractedFile{Filename: f.Name, FileBase64: payload.Encode(f.Content)})
		}
		return httptransport.EncodeJSONResponse(ctx, w, extractJSON{Success: true, Files: files})
	}

	// binary responses carry a single document
	first := resp.result.First()
	return writePDF(w, first.Name, first.Content)
}

func writePDF(w http.ResponseWriter, filename string, content []byte) error {
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = mime.FormatMediaType("attachment", map[string]string{"filename": unlockedFilename})
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", disposition)
	w.Header().Set("Content-Length", strconv.Itoa(len(content)))
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(content)
	return err
}

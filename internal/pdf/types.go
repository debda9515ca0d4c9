package pdf

import "github.com/a3tai/pdf-unlocker/internal/pdf/archive"

// Request Types

// UnlockRequest asks for the password protection of a PDF to be removed
type UnlockRequest struct {
	Password     string `json:"password"`
	Content      []byte `json:"-"`
	ReturnBase64 bool   `json:"returnBase64"`
}

// ExtractRequest asks for the PDF entries of a zip archive
type ExtractRequest struct {
	Archive      []byte `json:"-"`
	ReturnBase64 bool   `json:"returnBase64"`
}

// Response Types

// UnlockResult holds the decrypted document. Pages is 0 when the output could
// not be inspected.
type UnlockResult struct {
	Content []byte `json:"-"`
	Pages   int    `json:"pages"`
}

// ExtractResult holds the PDF entries in archive order; never empty on success
type ExtractResult struct {
	Files []archive.Entry `json:"-"`
}

// First returns the first extracted file
func (r *ExtractResult) First() archive.Entry {
	return r.Files[0]
}

// Inspection describes a PDF as seen by the validator
type Inspection struct {
	Pages     int  `json:"pages"`
	Encrypted bool `json:"encrypted"`
}

// ServerInfoResult describes the running service
type ServerInfoResult struct {
	ServerName           string     `json:"server_name"`
	Version              string     `json:"version"`
	Decrypter            string     `json:"decrypter"`
	MaxFileSize          int64      `json:"max_file_size"`
	MaxConcurrentUnlocks int        `json:"max_concurrent_unlocks,omitempty"`
	DecryptTimeout       string     `json:"decrypt_timeout,omitempty"`
	Endpoints            []Endpoint `json:"endpoints"`
	AvailableTools       []ToolInfo `json:"available_tools"`
	UsageGuidance        string     `json:"usage_guidance"`
}

// Endpoint describes one HTTP route
type Endpoint struct {
	Method      string `json:"method"`
	Path        string `json:"path"`
	Description string `json:"description"`
}

// ToolInfo represents information about an available MCP tool
type ToolInfo struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Usage       string `json:"usage"`
	Parameters  string `json:"parameters"`
}

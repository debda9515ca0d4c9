package pdf

import (
	"fmt"
	"time"

	"github.com/a3tai/pdf-unlocker/internal/descriptions"
)

// decryptLimits is implemented by decrypters that bound their own work
type decryptLimits interface {
	Timeout() time.Duration
	MaxConcurrent() int
}

// ServerInfo returns server information and usage guidance
func (s *Service) ServerInfo(serverName, version string) *ServerInfoResult {
	result := &ServerInfoResult{
		ServerName:     serverName,
		Version:        version,
		Decrypter:      s.DecrypterName(),
		MaxFileSize:    s.GetMaxFileSize(),
		Endpoints:      endpoints(),
		AvailableTools: availableTools(),
		UsageGuidance:  s.usageGuidance(),
	}
	if limits, ok := s.decrypter.(decryptLimits); ok {
		result.MaxConcurrentUnlocks = limits.MaxConcurrent()
		result.DecryptTimeout = limits.Timeout().String()
	}
	return result
}

func endpoints() []Endpoint {
	return []Endpoint{
		{Method: "GET", Path: "/health", Description: "Liveness probe"},
		{Method: "GET", Path: "/info", Description: "This document"},
		{
			Method:      "POST",
			Path:        "/unlock",
			Description: "Body {password, fileBase64, returnBase64}. Returns the decrypted PDF or {success, fileBase64}",
		},
		{
			Method: "POST",
			Path:   "/extract-pdfs",
			Description: "Body {zipBase64, returnBase64}. Returns the first PDF in the archive " +
				"or {success, files:[{filename, fileBase64}]}",
		},
	}
}

func availableTools() []ToolInfo {
	return []ToolInfo{
		{
			Name:        "pdf_unlock",
			Description: descriptions.GetToolDescription("pdf_unlock"),
			Usage:       "Use this tool to remove the password from a protected PDF.",
			Parameters:  "password (required): the document password, file_base64 (required): base64 encoded PDF",
		},
		{
			Name:        "pdf_extract_from_zip",
			Description: descriptions.GetToolDescription("pdf_extract_from_zip"),
			Usage:       "Use this tool to get the PDF documents out of a zip archive.",
			Parameters:  "zip_base64 (required): base64 encoded zip archive",
		},
		{
			Name:        "pdf_server_info",
			Description: descriptions.GetToolDescription("pdf_server_info"),
			Usage:       "Use this tool to get server limits and available capabilities.",
			Parameters:  "No parameters required",
		},
	}
}

func (s *Service) usageGuidance() string {
	maxFileSizeMB := s.GetMaxFileSize() / (1024 * 1024)

	return fmt.Sprintf(`PDF Unlocker Usage Guide:

1. UNLOCK A DOCUMENT:
   - Send the PDF as base64 together with its password
   - A wrong password fails with the decryption tool's diagnostics

2. EXTRACT FROM AN ARCHIVE:
   - Send the zip archive as base64
   - Only entries whose name ends in ".pdf" (any case) are returned, in archive order
   - Directory prefixes are stripped from entry names
   - Binary responses carry the first PDF only; ask for base64 to get all of them

IMPORTANT NOTES:
- The server accepts files up to %dMB
- Each call is independent; nothing is kept between calls`, maxFileSizeMB)
}

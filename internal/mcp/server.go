package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	stdlog "log"
	"os"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/a3tai/pdf-unlocker/internal/config"
	"github.com/a3tai/pdf-unlocker/internal/descriptions"
	"github.com/a3tai/pdf-unlocker/internal/payload"
	"github.com/a3tai/pdf-unlocker/internal/pdf"
	pdferrors "github.com/a3tai/pdf-unlocker/internal/pdf/errors"
)

// Server represents the MCP server instance
type Server struct {
	config     *config.Config
	pdfService *pdf.Service
	mcpServer  *server.MCPServer
	logger     log.Logger
}

// unlockResult is the JSON text returned by pdf_unlock
type unlockResult struct {
	FileBase64 string `json:"file_base64"`
	Pages      int    `json:"pages"`
	Size       int    `json:"size"`
}

type extractedFile struct {
	Filename   string `json:"filename"`
	FileBase64 string `json:"file_base64"`
	Size       int    `json:"size"`
}

// extractResult is the JSON text returned by pdf_extract_from_zip
type extractResult struct {
	Count int             `json:"count"`
	Files []extractedFile `json:"files"`
}

// NewServer creates a new MCP server instance
func NewServer(cfg *config.Config, pdfService *pdf.Service, logger log.Logger) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config cannot be nil")
	}
	if pdfService == nil {
		return nil, fmt.Errorf("pdfService cannot be nil")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	s := &Server{
		config:     cfg,
		pdfService: pdfService,
		logger:     log.With(logger, "component", "mcp"),
	}

	s.mcpServer = server.NewMCPServer(
		cfg.ServerName,
		cfg.Version,
		server.WithToolCapabilities(false), // We don't support dynamic tool capabilities
		server.WithRecovery(),
		server.WithToolHandlerMiddleware(s.logCalls),
		server.WithInstructions("Remove password protection from PDFs and extract PDFs from zip archives. "+
			"Files are exchanged as base64 text."),
	)

	s.registerTools()

	return s, nil
}

// registerTools registers all available MCP tools
func (s *Server) registerTools() {
	pdfUnlockTool := mcp.NewTool(
		"pdf_unlock",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_unlock")),
		mcp.WithString("password",
			mcp.Required(),
			mcp.Description("Password that opens the PDF"),
		),
		mcp.WithString("file_base64",
			mcp.Required(),
			mcp.Description("The protected PDF, base64 encoded"),
		),
	)
	s.mcpServer.AddTool(pdfUnlockTool, s.handlePDFUnlock)

	pdfExtractTool := mcp.NewTool(
		"pdf_extract_from_zip",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_extract_from_zip")),
		mcp.WithString("zip_base64",
			mcp.Required(),
			mcp.Description("The zip archive, base64 encoded"),
		),
	)
	s.mcpServer.AddTool(pdfExtractTool, s.handlePDFExtractFromZip)

	pdfServerInfoTool := mcp.NewTool(
		"pdf_server_info",
		mcp.WithDescription(descriptions.GetToolDescription("pdf_server_info")),
	)
	s.mcpServer.AddTool(pdfServerInfoTool, s.handlePDFServerInfo)
}

func (s *Server) logCalls(next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		start := time.Now()
		result, err := next(ctx, request)
		failed := err != nil || (result != nil && result.IsError)
		level.Debug(s.logger).Log("msg", "tool call", "tool", request.Params.Name,
			"failed", failed, "took", time.Since(start), "err", err)
		return result, err
	}
}

// Handler functions
func (s *Server) handlePDFUnlock(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	password, err := request.RequireString("password")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid password parameter: %v", err)), nil
	}
	encoded, err := request.RequireString("file_base64")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid file_base64 parameter: %v", err)), nil
	}

	content, err := payload.Decode(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid base64 in file_base64: %v", err)), nil
	}

	result, err := s.pdfService.Unlock(ctx, pdf.UnlockRequest{Password: password, Content: content})
	if err != nil {
		return mcp.NewToolResultError(formatError(err)), nil
	}

	return jsonResult(unlockResult{
		FileBase64: payload.Encode(result.Content),
		Pages:      result.Pages,
		Size:       len(result.Content),
	})
}

func (s *Server) handlePDFExtractFromZip(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	encoded, err := request.RequireString("zip_base64")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid zip_base64 parameter: %v", err)), nil
	}

	archive, err := payload.Decode(encoded)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("Invalid base64 in zip_base64: %v", err)), nil
	}

	result, err := s.pdfService.ExtractPDFs(ctx, pdf.ExtractRequest{Archive: archive})
	if err != nil {
		return mcp.NewToolResultError(formatError(err)), nil
	}

	out := extractResult{Count: len(result.Files), Files: make([]extractedFile, 0, len(result.Files))}
	for _, f := range result.Files {
		out.Files = append(out.Files, extractedFile{
			Filename:   f.Name,
			FileBase64: payload.Encode(f.Content),
			Size:       len(f.Content),
		})
	}
	return jsonResult(out)
}

func (s *Server) handlePDFServerInfo(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	result := s.pdfService.ServerInfo(s.config.ServerName, s.config.Version)
	return mcp.NewToolResultText(s.formatServerInfoResult(result)), nil
}

// Formatting methods

func jsonResult(v interface{}) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

func formatError(err error) string {
	e, ok := pdferrors.As(err)
	if !ok {
		return err.Error()
	}
	if e.Details != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Details)
	}
	return e.Message
}

func (s *Server) formatServerInfoResult(result *pdf.ServerInfoResult) string {
	text := fmt.Sprintf("%s v%s - Server Information\n", result.ServerName, result.Version)
	text += fmt.Sprintf("Decryption backend: %s\n", result.Decrypter)
	text += fmt.Sprintf("Max File Size: %d MB\n", result.MaxFileSize/(1024*1024))
	if result.MaxConcurrentUnlocks > 0 {
		text += fmt.Sprintf("Concurrent decryptions: %d\n", result.MaxConcurrentUnlocks)
	}
	if result.DecryptTimeout != "" {
		text += fmt.Sprintf("Decryption timeout: %s\n", result.DecryptTimeout)
	}

	text += "\nAvailable Tools:\n"
	for _, tool := range result.AvailableTools {
		text += fmt.Sprintf("\n• %s\n", tool.Name)
		text += fmt.Sprintf("  Usage: %s\n", tool.Usage)
		text += fmt.Sprintf("  Parameters: %s\n", tool.Parameters)
	}

	text += "\n" + result.UsageGuidance

	return text
}

// Run serves MCP over stdin/stdout until ctx is cancelled or stdin closes
func (s *Server) Run(ctx context.Context) error {
	return s.Serve(ctx, os.Stdin, os.Stdout)
}

// Serve serves MCP over the given streams
func (s *Server) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	level.Debug(s.logger).Log("msg", "serving MCP over stdio", "decrypter", s.pdfService.DecrypterName())

	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(stdlog.New(log.NewStdlibAdapter(level.Error(s.logger)), "", 0))
	if err := stdio.Listen(ctx, in, out); err != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to serve stdio: %w", err)
	}
	return nil
}

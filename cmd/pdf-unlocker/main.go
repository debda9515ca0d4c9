package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/a3tai/pdf-unlocker/internal/config"
	"github.com/a3tai/pdf-unlocker/internal/logging"
	"github.com/a3tai/pdf-unlocker/internal/mcp"
	"github.com/a3tai/pdf-unlocker/internal/pdf"
	"github.com/a3tai/pdf-unlocker/internal/pdf/archive"
	"github.com/a3tai/pdf-unlocker/internal/pdf/unlock"
	"github.com/a3tai/pdf-unlocker/internal/server"
)

var (
	version   = "dev"     // This will be set by build flags
	buildTime = "unknown" // This will be set by build flags
	gitCommit = "unknown" // This will be set by build flags
)

// isVersionArg reports whether any argument asks for version information
func isVersionArg(args []string) bool {
	for _, arg := range args {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return true
		}
	}
	return false
}

// newService wires the decryption backend, the archive selector and the PDF service
func newService(cfg *config.Config, logger log.Logger) (*pdf.Service, error) {
	tool, err := unlock.NewTool(cfg.Decrypter, cfg.QPDFPath)
	if err != nil {
		return nil, err
	}

	invoker := unlock.NewInvoker(tool,
		unlock.WithTempDir(cfg.TempDir),
		unlock.WithTimeout(cfg.DecryptTimeout),
		unlock.WithMaxConcurrent(cfg.MaxConcurrentUnlocks),
		unlock.WithLogger(logger),
	)

	return pdf.NewService(cfg.MaxFileSize, invoker, archive.NewSelector(cfg.MaxFileSize), logger), nil
}

// run starts the surface selected by cfg.Mode and blocks until ctx is done or it fails
func run(ctx context.Context, cfg *config.Config, logger log.Logger) error {
	svc, err := newService(cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to create PDF service: %w", err)
	}

	if cfg.IsServerMode() {
		httpServer, err := server.New(cfg, svc, logger)
		if err != nil {
			return fmt.Errorf("failed to create HTTP server: %w", err)
		}
		return httpServer.Run(ctx)
	}

	mcpServer, err := mcp.NewServer(cfg, svc, logger)
	if err != nil {
		return fmt.Errorf("failed to create MCP server: %w", err)
	}
	return mcpServer.Run(ctx)
}

func main() {
	// Check for version flag before parsing other flags
	if isVersionArg(os.Args[1:]) {
		printVersion()
		return
	}

	cfg, err := config.LoadFromFlags()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(2)
	}

	// Set version if it was provided during build
	if version != "dev" {
		cfg.Version = version
	}

	logger := logging.New(cfg)
	level.Debug(logger).Log("msg", "starting", "config", cfg.String())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		level.Error(logger).Log("msg", "server stopped with error", "err", err)
		stop()
		os.Exit(1)
	}

	level.Info(logger).Log("msg", "server stopped")
}

// printVersion prints version information
func printVersion() {
	fmt.Printf("PDF Unlocker\n")
	fmt.Printf("Version: %s\n", version)
	fmt.Printf("Build Time: %s\n", buildTime)
	fmt.Printf("Git Commit: %s\n", gitCommit)
	fmt.Printf("Built with: %s\n", runtime.Version())
}

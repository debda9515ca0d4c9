package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/a3tai/pdf-unlocker/internal/pdf/unlock"
)

const (
	// Mode constants
	ModeStdio  = "stdio"
	ModeServer = "server"

	// Decryption backends
	DecrypterQPDF   = "qpdf"
	DecrypterPDFCPU = "pdfcpu"

	// Log formats
	LogFormatLogfmt = "logfmt"
	LogFormatJSON   = "json"

	// Default values
	DefaultPort                 = 3000
	DefaultHost                 = "0.0.0.0"
	DefaultLogLevel             = "info"
	DefaultMaxFileSize          = 50 * 1024 * 1024 // 50MB
	DefaultMaxBodySize          = 70 * 1024 * 1024 // base64 of DefaultMaxFileSize plus JSON overhead
	DefaultQPDFPath             = unlock.DefaultQPDFPath
	DefaultDecryptTimeout       = unlock.DefaultTimeout
	DefaultMaxConcurrentUnlocks = unlock.DefaultMaxConcurrent

	// Directory permissions
	DefaultDirPerm = 0o750

	envPrefix = "PDF_UNLOCKER"
)

// Config holds all configuration for the PDF unlocker service
type Config struct {
	// Server configuration
	Mode string // "server" or "stdio"
	Host string
	Port int

	// Decryption configuration
	Decrypter            string // "qpdf" or "pdfcpu"
	QPDFPath             string
	DecryptTimeout       time.Duration
	MaxConcurrentUnlocks int
	TempDir              string

	// Application configuration
	Version     string
	ServerName  string
	LogLevel    string
	LogFormat   string
	MaxFileSize int64 // Maximum decoded PDF or archive size in bytes
	MaxBodySize int64 // Maximum raw request body size in bytes
}

// DefaultConfig returns a configuration with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		Mode:                 ModeServer,
		Host:                 DefaultHost,
		Port:                 DefaultPort,
		Decrypter:            DecrypterQPDF,
		QPDFPath:             DefaultQPDFPath,
		DecryptTimeout:       DefaultDecryptTimeout,
		MaxConcurrentUnlocks: DefaultMaxConcurrentUnlocks,
		TempDir:              os.TempDir(),
		Version:              "1.0.0",
		ServerName:           "pdf-unlocker",
		LogLevel:             DefaultLogLevel,
		LogFormat:            LogFormatLogfmt,
		MaxFileSize:          DefaultMaxFileSize,
		MaxBodySize:          DefaultMaxBodySize,
	}
}

// LoadFromFlags parses command line flags and returns a configuration
func LoadFromFlags() (*Config, error) {
	cfg := DefaultConfig()

	setupViperEnvironment(cfg)
	defineCommandLineFlags(cfg)
	bindFlagsToViper()
	setupUsageMessage()

	// Check for version flag before parsing
	if err := checkVersionFlag(); err != nil {
		return nil, err
	}

	pflag.Parse()

	populateConfigFromViper(cfg)

	if cfg.TempDir != "" {
		if expandedPath, err := filepath.Abs(cfg.TempDir); err == nil {
			cfg.TempDir = expandedPath
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// setupViperEnvironment configures viper with environment variables and defaults
func setupViperEnvironment(cfg *Config) {
	viper.SetEnvPrefix(envPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	// The bare PORT variable is what container platforms set.
	_ = viper.BindEnv("port", envPrefix+"_PORT", "PORT")

	viper.SetDefault("mode", cfg.Mode)
	viper.SetDefault("host", cfg.Host)
	viper.SetDefault("port", cfg.Port)
	viper.SetDefault("decrypter", cfg.Decrypter)
	viper.SetDefault("qpdf-path", cfg.QPDFPath)
	viper.SetDefault("decrypt-timeout", cfg.DecryptTimeout)
	viper.SetDefault("max-concurrent-unlocks", cfg.MaxConcurrentUnlocks)
	viper.SetDefault("temp-dir", cfg.TempDir)
	viper.SetDefault("log-level", cfg.LogLevel)
	viper.SetDefault("log-format", cfg.LogFormat)
	viper.SetDefault("max-file-size", cfg.MaxFileSize)
	viper.SetDefault("max-body-size", cfg.MaxBodySize)
}

// defineCommandLineFlags sets up all command line flags
func defineCommandLineFlags(cfg *Config) {
	pflag.String("mode", cfg.Mode, "Run mode: 'server' for the HTTP API, 'stdio' for MCP standard I/O")
	pflag.String("host", cfg.Host, "Server host address (server mode only)")
	pflag.Int("port", cfg.Port, "Server port (server mode only)")
	pflag.String("decrypter", cfg.Decrypter, "Decryption backend: 'qpdf' (external tool) or 'pdfcpu' (in-process)")
	pflag.String("qpdf-path", cfg.QPDFPath, "Path to the qpdf executable")
	pflag.Duration("decrypt-timeout", cfg.DecryptTimeout, "Maximum time a single decryption may take")
	pflag.Int("max-concurrent-unlocks", cfg.MaxConcurrentUnlocks, "Maximum number of decryptions running at once")
	pflag.String("temp-dir", cfg.TempDir, "Directory for per-request scratch files")
	pflag.String("log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")
	pflag.String("log-format", cfg.LogFormat, "Log format (logfmt, json)")
	pflag.Int64("max-file-size", cfg.MaxFileSize, "Maximum decoded PDF or archive size in bytes")
	pflag.Int64("max-body-size", cfg.MaxBodySize, "Maximum request body size in bytes")
}

// bindFlagsToViper binds command line flags to viper configuration
func bindFlagsToViper() {
	for _, name := range []string{
		"mode", "host", "port", "decrypter", "qpdf-path", "decrypt-timeout",
		"max-concurrent-unlocks", "temp-dir", "log-level", "log-format",
		"max-file-size", "max-body-size",
	} {
		_ = viper.BindPFlag(name, pflag.Lookup(name))
	}
}

// setupUsageMessage configures the custom usage message
func setupUsageMessage() {
	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage of %s:\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nPDF Unlocker - removes PDF passwords and extracts PDFs from zip archives\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		pflag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s                                  # HTTP API on 0.0.0.0:3000 (default)\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --port=8081 --decrypter=pdfcpu   # in-process decryption\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s --mode=stdio                     # MCP tools over standard I/O\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		fmt.Fprintf(os.Stderr, "  PORT                                 Server port\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_MODE                    Run mode\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_HOST                    Server host\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_DECRYPTER               Decryption backend\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_QPDF_PATH               qpdf executable\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_DECRYPT_TIMEOUT         Decryption timeout\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_MAX_CONCURRENT_UNLOCKS  Concurrent decryptions\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_TEMP_DIR                Scratch directory\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_LOG_LEVEL               Log level\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_LOG_FORMAT              Log format\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_MAX_FILE_SIZE           Maximum file size\n")
		fmt.Fprintf(os.Stderr, "  PDF_UNLOCKER_MAX_BODY_SIZE           Maximum request body size\n")
	}
}

// checkVersionFlag checks if version flag was requested
func checkVersionFlag() error {
	for _, arg := range os.Args[1:] {
		if arg == "-version" || arg == "--version" || arg == "-v" {
			return fmt.Errorf("version requested")
		}
	}
	return nil
}

// populateConfigFromViper fills the config struct with values from viper
func populateConfigFromViper(cfg *Config) {
	cfg.Mode = viper.GetString("mode")
	cfg.Host = viper.GetString("host")
	cfg.Port = viper.GetInt("port")
	cfg.Decrypter = viper.GetString("decrypter")
	cfg.QPDFPath = viper.GetString("qpdf-path")
	cfg.DecryptTimeout = viper.GetDuration("decrypt-timeout")
	cfg.MaxConcurrentUnlocks = viper.GetInt("max-concurrent-unlocks")
	cfg.TempDir = viper.GetString("temp-dir")
	cfg.LogLevel = viper.GetString("log-level")
	cfg.LogFormat = viper.GetString("log-format")
	cfg.MaxFileSize = viper.GetInt64("max-file-size")
	cfg.MaxBodySize = viper.GetInt64("max-body-size")
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Mode != ModeStdio && c.Mode != ModeServer {
		return errors.New("mode must be either 'stdio' or 'server'")
	}

	// Port only matters when we listen
	if c.Mode == ModeServer && (c.Port < 1 || c.Port > 65535) {
		return errors.New("port must be between 1 and 65535")
	}

	switch c.Decrypter {
	case DecrypterQPDF:
		if c.QPDFPath == "" {
			return errors.New("qpdf path cannot be empty")
		}
	case DecrypterPDFCPU:
	default:
		return fmt.Errorf("invalid decrypter: %s (must be one of: qpdf, pdfcpu)", c.Decrypter)
	}

	if c.DecryptTimeout <= 0 {
		return errors.New("decrypt timeout must be positive")
	}

	if c.MaxConcurrentUnlocks < 1 {
		return errors.New("max concurrent unlocks must be at least 1")
	}

	if c.TempDir == "" {
		return errors.New("temp directory cannot be empty")
	}

	// Create the scratch directory if it doesn't exist
	if _, err := os.Stat(c.TempDir); os.IsNotExist(err) {
		if err := os.MkdirAll(c.TempDir, DefaultDirPerm); err != nil {
			return fmt.Errorf("cannot create temp directory %s: %w", c.TempDir, err)
		}
	} else if err != nil {
		return fmt.Errorf("cannot access temp directory %s: %w", c.TempDir, err)
	}

	if c.MaxFileSize <= 0 {
		return errors.New("maximum file size must be positive")
	}

	if c.MaxBodySize <= 0 {
		return errors.New("maximum body size must be positive")
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return fmt.Errorf("invalid log level: %s (must be one of: debug, info, warn, error)", c.LogLevel)
	}

	if c.LogFormat != LogFormatLogfmt && c.LogFormat != LogFormatJSON {
		return fmt.Errorf("invalid log format: %s (must be one of: logfmt, json)", c.LogFormat)
	}

	return nil
}

// Address returns the server address as host:port
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// IsDebug returns true if debug logging is enabled
func (c *Config) IsDebug() bool {
	return c.LogLevel == "debug"
}

// String returns a string representation of the configuration
func (c *Config) String() string {
	return fmt.Sprintf("Config{Mode: %s, Host: %s, Port: %d, Decrypter: %s, QPDFPath: %s, DecryptTimeout: %s, "+
		"MaxConcurrentUnlocks: %d, TempDir: %s, LogLevel: %s, LogFormat: %s, MaxFileSize: %d, MaxBodySize: %d}",
		c.Mode, c.Host, c.Port, c.Decrypter, c.QPDFPath, c.DecryptTimeout,
		c.MaxConcurrentUnlocks, c.TempDir, c.LogLevel, c.LogFormat, c.MaxFileSize, c.MaxBodySize)
}

// IsServerMode returns true if the process serves the HTTP API
func (c *Config) IsServerMode() bool {
	return c.Mode == ModeServer
}

// IsStdioMode returns true if the process serves MCP over standard I/O
func (c *Config) IsStdioMode() bool {
	return c.Mode == ModeStdio
}

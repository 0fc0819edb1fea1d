package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"shareit/internal/config"

	"github.com/rs/zerolog"
)

// New builds the process logger. Empty settings mean JSON at info level on
// stdout. Output "file" writes only to FilePath, "tee" writes to FilePath
// and stdout; the returned closer is non-nil in both cases.
func New(cfg config.LoggingConfig, app config.AppConfig) (*zerolog.Logger, io.Closer, error) {
	output, closer, err := openOutput(cfg)
	if err != nil {
		return nil, nil, err
	}
	return newLogger(cfg, app, output), closer, nil
}

func openOutput(cfg config.LoggingConfig) (io.Writer, io.Closer, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.Output))
	switch mode {
	case "", "stdout":
		return os.Stdout, nil, nil
	case "stderr":
		return os.Stderr, nil, nil
	case "file", "tee":
		if cfg.FilePath == "" {
			return nil, nil, fmt.Errorf("logging.output=%s requires logging.file_path", mode)
		}
		if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0o755); err != nil {
			return nil, nil, fmt.Errorf("create log directory: %w", err)
		}
		file, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return nil, nil, fmt.Errorf("open log file: %w", err)
		}
		if mode == "tee" {
			return zerolog.MultiLevelWriter(file, os.Stdout), file, nil
		}
		return file, file, nil
	default:
		return nil, nil, fmt.Errorf("unknown logging.output %q", cfg.Output)
	}
}

func newLogger(cfg config.LoggingConfig, app config.AppConfig, output io.Writer) *zerolog.Logger {
	level := zerolog.InfoLevel
	if parsed, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(cfg.Level))); err == nil && cfg.Level != "" {
		level = parsed
	}

	if strings.EqualFold(strings.TrimSpace(cfg.Format), "console") {
		output = zerolog.ConsoleWriter{Out: output, TimeFormat: time.RFC3339}
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano
	base := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("app", app.Name).
		Str("env", app.Environment).
		Str("version", app.Version).
		Logger()
	return &base
}

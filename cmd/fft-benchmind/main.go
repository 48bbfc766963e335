// Package main is the CLI entry point for FFT-BenchMind.
// It benchmarks FFT backends over a sweep of transform configurations.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

const Version = "1.0.0"

var (
	configPath string
	logLevel   string
	logDir     string

	// logFile is closed after the command finishes.
	logFile *os.File

	rootCmd = &cobra.Command{
		Use:   "fft-benchmind",
		Short: "Benchmark FFT libraries across transform configurations",
		Long: `FFT-BenchMind measures plan construction, data transfer and
forward/inverse transform times of FFT backends over a sweep of
precisions, layouts, placements and extents.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if logFile != nil {
				logFile.Close()
			}
		},
	}
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "fft-benchmind.yaml", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (default from config)")
	rootCmd.PersistentFlags().StringVar(&logDir, "log-dir", "", "directory for daily log files (default from config)")

	rootCmd.AddCommand(runCmd, devicesCmd, versionCmd, reportCmd, historyCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging installs a logger writing to stdout and a daily log file.
// Flags win over the configuration file; a missing file uses defaults.
func setupLogging(cmd *cobra.Command) error {
	cfg, err := loadConfig(cmd.Context())
	level, dir := "info", filepath.Join(".", "data", "logs")
	if err == nil {
		level, dir = cfg.Advanced.LogLevel, cfg.Advanced.LogDir
	}
	if logLevel != "" {
		level = logLevel
	}
	if logDir != "" {
		dir = logDir
	}

	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}

	writers := []io.Writer{os.Stdout}
	if dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create log directory: %w", err)
		}
		name := filepath.Join(dir, fmt.Sprintf("fft-benchmind-%s.log", time.Now().Format("2006-01-02")))
		f, err := os.OpenFile(name, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open log file: %w", err)
		}
		logFile = f
		writers = append(writers, f)
	}

	slog.SetDefault(slog.New(newMultiHandler(&slog.HandlerOptions{Level: lvl}, writers...)))
	slog.Debug("FFT-BenchMind started", "version", Version, "command", cmd.Name())
	return nil
}

// multiHandler writes log records to multiple handlers.
type multiHandler struct {
	handlers []slog.Handler
}

// newMultiHandler creates a new multi-handler that writes to all provided writers.
func newMultiHandler(opts *slog.HandlerOptions, writers ...io.Writer) slog.Handler {
	var handlers []slog.Handler
	for _, w := range writers {
		handlers = append(handlers, slog.NewTextHandler(w, opts))
	}
	return &multiHandler{handlers: handlers}
}

// Handle handles the log record by forwarding to all enabled handlers.
func (m *multiHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, h := range m.handlers {
		if !h.Enabled(ctx, r.Level) {
			continue
		}
		if err := h.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

// Enabled reports whether the handler is enabled for the given level.
func (m *multiHandler) Enabled(ctx context.Context, level slog.Level) bool {
	for _, h := range m.handlers {
		if h.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// WithAttrs returns a new handler with the given attributes.
func (m *multiHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	var newHandlers []slog.Handler
	for _, h := range m.handlers {
		newHandlers = append(newHandlers, h.WithAttrs(attrs))
	}
	return &multiHandler{handlers: newHandlers}
}

// WithGroup returns a new handler with the given group name.
func (m *multiHandler) WithGroup(name string) slog.Handler {
	var newHandlers []slog.Handler
	for _, h := range m.handlers {
		newHandlers = append(newHandlers, h.WithGroup(name))
	}
	return &multiHandler{handlers: newHandlers}
}

// Package main is the entry point for binembed, which converts a binary file
// into a C byte array literal that can be compiled into a program.
//
// Usage:
//
//	binembed <input> [output]
//
// Exit codes: 0 on success, 1 on configuration or I/O failure, 2 on usage
// errors (wrong argument count or unknown flags).
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/Guliveer/binembed/internal/config"
	"github.com/Guliveer/binembed/internal/embed"
)

// version is set at build time via -ldflags.
var version = "dev"

const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// usageError marks failures caused by how the command was invoked. Nothing
// has been read or written when one is returned.
type usageError struct {
	err error
}

func (e *usageError) Error() string { return e.err.Error() }
func (e *usageError) Unwrap() error { return e.err }

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)

	err := cmd.Execute()
	if err == nil {
		return exitOK
	}

	var uerr *usageError
	if errors.As(err, &uerr) {
		fmt.Fprintf(stderr, "Error: %v\n\n%s", err, cmd.UsageString())
		return exitUsage
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	return exitError
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var (
		configPath    string
		symbol        string
		logLevel      string
		noDeclaration bool
		atomic        bool
		verify        bool
	)

	cmd := &cobra.Command{
		Use:   "binembed <input> [output]",
		Short: "Convert a binary file into a C byte array literal",
		Long: `binembed reads <input> and writes a C byte array literal to [output]
(default Buffer.embed), 16 lowercase hex tokens per line:

  const uint8_t g_Buffer[] =
  {
  0x00, 0xff, 0x10
  };`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args: func(cmd *cobra.Command, args []string) error {
			if err := cobra.RangeArgs(1, 2)(cmd, args); err != nil {
				return &usageError{err: err}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cli := config.CLIOverrides{
				Symbol:   symbol,
				LogLevel: logLevel,
			}
			flags := cmd.Flags()
			if flags.Changed("no-declaration") {
				include := !noDeclaration
				cli.IncludeDeclaration = &include
			}
			if flags.Changed("atomic") {
				cli.Atomic = &atomic
			}
			if flags.Changed("verify") {
				cli.Verify = &verify
			}

			var (
				cfg *config.Config
				err error
			)
			if flags.Changed("config") {
				cfg, err = config.LoadLayered(cli, configPath)
			} else {
				cfg, err = config.LoadLayered(cli)
			}
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}

			logger := initLogger(cfg, stderr)
			defer logger.Sync()

			input := args[0]
			output := cfg.Output.Path
			if len(args) == 2 {
				output = args[1]
			}
			return embedFile(cfg, logger, input, output, stdout)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &usageError{err: err}
	})

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "Path to configuration file (default: auto-discover)")
	flags.StringVar(&symbol, "symbol", "", "Array name used in the declaration (default g_Buffer)")
	flags.StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
	flags.BoolVar(&noDeclaration, "no-declaration", false, "Emit only the bracketed body, without the const uint8_t declaration")
	flags.BoolVar(&atomic, "atomic", false, "Write to a temporary file and rename it into place on success")
	flags.BoolVar(&verify, "verify", false, "Decode the written artifact and compare it with the input")

	return cmd
}

func embedFile(cfg *config.Config, logger *zap.Logger, input, output string, stdout io.Writer) error {
	e := embed.New(cfg.EmbedOptions(), logger)

	n, err := e.Embed(input, output)
	if err != nil {
		logger.Debug("embed failed",
			zap.String("input", input),
			zap.String("output", output),
			zap.Error(err))
		return err
	}

	if cfg.Output.Verify {
		if err := embed.Verify(input, output); err != nil {
			return fmt.Errorf("verification failed: %w", err)
		}
		logger.Info("artifact verified", zap.String("output", output))
	}

	logger.Info("embed complete",
		zap.String("input", input),
		zap.String("output", output),
		zap.Int64("bytes", n))
	fmt.Fprintf(stdout, "Processed %d bytes -> %s\n", n, output)
	return nil
}

// initLogger creates a zap logger based on the configuration.
// It writes human-readable output to stderr, keeping stdout for the summary,
// and tees JSON into a log file when one is configured.
func initLogger(cfg *config.Config, stderr io.Writer) *zap.Logger {
	var level zapcore.Level
	switch cfg.Logging.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.WarnLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(stderr),
		level,
	)

	cores := []zapcore.Core{consoleCore}

	if cfg.Logging.File != "" {
		file, err := os.OpenFile(cfg.Logging.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0640)
		if err == nil {
			fileCore := zapcore.NewCore(
				zapcore.NewJSONEncoder(encoderConfig),
				zapcore.AddSync(file),
				level,
			)
			cores = append(cores, fileCore)
		}
	}

	return zap.New(zapcore.NewTee(cores...))
}

package logging

import (
	"fmt"
	"strings"

	"github.com/mikey/email-fraud-detector/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ServiceName is attached to every log entry of the daemon
const ServiceName = "email-fraud-detector"

// Options describes how a logger is built
type Options struct {
	Level       string
	JSON        bool
	OutputPaths []string
	Fields      []zap.Field
}

// New builds a logger from options. Unknown levels fall back to info.
func New(opts Options) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(opts.Level)))
	if err != nil {
		level = zapcore.InfoLevel
	}

	var logConfig zap.Config
	if opts.JSON {
		logConfig = zap.NewProductionConfig()
		logConfig.EncoderConfig.TimeKey = "time"
		logConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	} else {
		logConfig = zap.NewDevelopmentConfig()
		logConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)
	if len(opts.OutputPaths) > 0 {
		logConfig.OutputPaths = opts.OutputPaths
	}

	logger, err := logConfig.Build(zap.Fields(opts.Fields...))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return logger, nil
}

// InitLogger initializes the daemon logger from the logging.* settings
func InitLogger(cfg *config.Config) (*zap.Logger, error) {
	return New(Options{
		Level:       cfg.GetString("logging.level"),
		JSON:        cfg.GetString("logging.format") == "json",
		OutputPaths: cfg.GetStringSlice("logging.output_paths"),
		Fields:      []zap.Field{zap.String("service", ServiceName)},
	})
}

// InitConsoleLogger initializes a console-friendly logger for the command line tools
func InitConsoleLogger(verbose bool, jsonFormat bool) (*zap.Logger, error) {
	level := "info"
	if verbose {
		level = "debug"
	}
	return New(Options{
		Level:       level,
		JSON:        jsonFormat,
		OutputPaths: []string{"stderr"},
	})
}

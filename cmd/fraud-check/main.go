package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/di"
	"github.com/mikey/email-fraud-detector/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(func(
		logger *zap.Logger,
		emailFilter ports.EmailFilter,
		embedder core.Embedder,
		flags *di.CLIFlags,
	) error {
		defer logger.Sync()
		defer func() {
			if closer, ok := embedder.(interface{ Close() error }); ok {
				closer.Close()
			}
		}()

		raw, err := readInput(flags.InputFile, logger)
		if err != nil {
			return err
		}

		_, err = emailFilter.ProcessMessage(context.Background(), raw)
		return err
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// readInput reads the message from the file or from stdin
func readInput(path string, logger *zap.Logger) ([]byte, error) {
	if path == "" {
		logger.Info("Reading email from stdin")
		return io.ReadAll(os.Stdin)
	}

	logger.Info("Reading email from file", zap.String("file", path))
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input file: %w", err)
	}
	return raw, nil
}

package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/ports"
	"go.uber.org/zap"
)

// CliFilter prints the fraud report of a message as JSON
type CliFilter struct {
	service ports.MessageAnalyzer
	logger  *zap.Logger
	verbose bool
	out     io.Writer
	errOut  io.Writer
}

// NewCliFilter creates a new CLI filter writing to stdout
func NewCliFilter(service ports.MessageAnalyzer, logger *zap.Logger, verbose bool) (*CliFilter, error) {
	return NewCliFilterWithWriters(service, logger, verbose, os.Stdout, os.Stderr), nil
}

// NewCliFilterWithWriters creates a CLI filter writing the report to out and
// the verbose summary to errOut
func NewCliFilterWithWriters(service ports.MessageAnalyzer, logger *zap.Logger, verbose bool, out, errOut io.Writer) *CliFilter {
	return &CliFilter{
		service: service,
		logger:  logger,
		verbose: verbose,
		out:     out,
		errOut:  errOut,
	}
}

// ProcessMessage analyzes a raw message and prints its report
func (f *CliFilter) ProcessMessage(ctx context.Context, raw []byte) (*core.FraudReport, error) {
	f.logger.Debug("Processing message", zap.Int("size", len(raw)))

	startTime := time.Now()
	report, err := f.service.Analyze(ctx, raw)
	if err != nil {
		f.logger.Error("Failed to analyze email", zap.Error(err))
		return nil, err
	}
	duration := time.Since(startTime)

	if f.verbose {
		fmt.Fprintf(f.errOut, "\n=== Summary ===\n")
		fmt.Fprintf(f.errOut, "From: %s\n", report.Email.SenderAddress)
		fmt.Fprintf(f.errOut, "Subject: %s\n", report.Email.Subject)
		fmt.Fprintf(f.errOut, "Links: %d\n", len(report.Email.Links))
		fmt.Fprintf(f.errOut, "Credibility: %s (%s)\n", report.CredibilityPercentage, report.CredibilityStatus)
		fmt.Fprintf(f.errOut, "Similar: %s\n", SimilarSummary(report))
		fmt.Fprintf(f.errOut, "Processing time: %v\n\n", duration)
	}

	enc := json.NewEncoder(f.out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	return report, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

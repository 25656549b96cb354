package ports

import (
	"context"

	"github.com/mikey/email-fraud-detector/internal/core"
)

// MessageAnalyzer builds the fraud report of a raw message
type MessageAnalyzer interface {
	// Analyze parses the raw message and assesses it
	Analyze(ctx context.Context, raw []byte) (*core.FraudReport, error)
}

// EmailFilter defines the interface for email filtering
type EmailFilter interface {
	// ProcessMessage analyzes a raw message and returns its fraud report
	ProcessMessage(ctx context.Context, raw []byte) (*core.FraudReport, error)

	// Start starts the email filter service
	Start() error

	// Stop stops the email filter service
	Stop() error
}

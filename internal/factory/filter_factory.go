package factory

import (
	"fmt"

	"github.com/mikey/email-fraud-detector/internal/adapters/filter"
	"github.com/mikey/email-fraud-detector/internal/config"
	"github.com/mikey/email-fraud-detector/internal/core"
	"github.com/mikey/email-fraud-detector/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates email filters based on configuration
type FilterFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.FraudDetectionService
}

// NewFilterFactory creates a new filter factory
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, service *core.FraudDetectionService) *FilterFactory {
	return &FilterFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateEmailFilter creates an email filter based on the configuration
func (f *FilterFactory) CreateEmailFilter() (ports.EmailFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "postfix":
		analysisTimeout, err := f.cfg.GetDuration("server.analysis_timeout")
		if err != nil {
			return nil, &core.ConfigurationError{Key: "server.analysis_timeout", Reason: err.Error()}
		}
		return filter.NewPostfixFilter(
			f.service,
			f.logger,
			f.cfg.GetString("server.listen_address"),
			filter.HeaderNames{
				ReportID:    f.cfg.GetString("server.headers.report_id"),
				Credibility: f.cfg.GetString("server.headers.credibility"),
				Similar:     f.cfg.GetString("server.headers.similar"),
				Error:       f.cfg.GetString("server.headers.error"),
			},
			f.cfg.GetString("server.postfix.address"),
			f.cfg.GetInt("server.postfix.port"),
			f.cfg.GetBool("server.postfix.enabled"),
			analysisTimeout,
		), nil
	case "cli":
		return filter.NewCliFilter(
			f.service,
			f.logger,
			f.cfg.GetBool("cli.verbose"),
		)
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

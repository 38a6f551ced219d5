package factory

import (
	"fmt"
	"os"

	"github.com/mikey/form-spam-filter/internal/adapters/filter"
	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/ports"
	"go.uber.org/zap"
)

// FilterFactory creates submission filters based on configuration
type FilterFactory struct {
	cfg        *config.Config
	logger     *zap.Logger
	classifier *core.Classifier
	service    *core.SubmissionService
}

// NewFilterFactory creates a new filter factory. service may be nil for
// the CLI, which only classifies.
func NewFilterFactory(cfg *config.Config, logger *zap.Logger, classifier *core.Classifier, service *core.SubmissionService) *FilterFactory {
	return &FilterFactory{
		cfg:        cfg,
		logger:     logger,
		classifier: classifier,
		service:    service,
	}
}

// CreateSubmissionFilter creates a submission filter based on the configuration
func (f *FilterFactory) CreateSubmissionFilter() (ports.SubmissionFilter, error) {
	filterType := f.cfg.GetString("server.filter_type")

	switch filterType {
	case "http":
		if f.service == nil {
			return nil, fmt.Errorf("http filter requires a submission service")
		}
		serverCfg, err := f.cfg.GetServer()
		if err != nil {
			return nil, err
		}
		return filter.NewHTTPFilter(f.service, f.logger.Named("http"), serverCfg), nil
	case "cli":
		return filter.NewCliFilter(
			f.classifier,
			f.cfg.GetString("cli.honeypot_field"),
			os.Stdout,
			f.cfg.GetBool("cli.json"),
			f.logger,
		), nil
	default:
		return nil, fmt.Errorf("unsupported filter type: %s", filterType)
	}
}

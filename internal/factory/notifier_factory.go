package factory

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/mikey/form-spam-filter/internal/adapters/notify"
	"github.com/mikey/form-spam-filter/internal/config"
	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// NotifierFactory creates owner notifiers based on configuration
type NotifierFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewNotifierFactory creates a new notifier factory
func NewNotifierFactory(cfg *config.Config, logger *zap.Logger) *NotifierFactory {
	return &NotifierFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateNotifier creates the configured notifier. It returns nil when
// notifications are disabled.
func (f *NotifierFactory) CreateNotifier() (core.Notifier, error) {
	notifyCfg := f.cfg.GetNotify()
	logger := f.logger.Named("notify")

	switch notifyCfg.Type {
	case "none", "":
		return nil, nil
	case "log":
		return notify.NewLogNotifier(logger), nil
	case "smtp":
		smtpCfg, err := f.cfg.GetSMTP()
		if err != nil {
			return nil, err
		}
		return notify.NewSMTPNotifier(
			smtpCfg.Host,
			smtpCfg.Port,
			smtpCfg.Username,
			smtpCfg.Password,
			smtpCfg.StartTLS,
			smtpCfg.Timeout,
			notifyCfg.From,
			notifyCfg.SubjectPrefix,
			logger,
		), nil
	case "ses":
		awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(f.cfg.GetSES().Region))
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		return notify.NewSESNotifier(sesv2.NewFromConfig(awsCfg), notifyCfg.From, notifyCfg.SubjectPrefix, logger), nil
	default:
		return nil, fmt.Errorf("unsupported notifier type: %s", notifyCfg.Type)
	}
}

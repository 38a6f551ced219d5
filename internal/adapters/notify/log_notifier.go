package notify

import (
	"context"

	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// LogNotifier writes notifications to the service log instead of sending them
type LogNotifier struct {
	logger *zap.Logger
}

// NewLogNotifier creates a new log notifier
func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the accepted submission
func (n *LogNotifier) Notify(ctx context.Context, form *core.Form, sub *core.Submission) error {
	n.logger.Info("New submission",
		zap.String("form_id", form.ID),
		zap.String("form_name", form.Name),
		zap.String("submission_id", sub.ID),
		zap.String("notify_email", form.NotifyEmail),
		zap.Int("fields", len(sub.Data)))
	return nil
}

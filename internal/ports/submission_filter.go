package ports

import (
	"context"

	"github.com/mikey/form-spam-filter/internal/core"
)

// SubmissionFilter is a front end that feeds submissions to the service
type SubmissionFilter interface {
	// ProcessSubmission classifies and, unless spam, stores a submission
	ProcessSubmission(ctx context.Context, req *core.SubmissionRequest) (*core.SubmissionResult, error)

	// Start starts the filter
	Start() error

	// Stop stops the filter
	Stop() error
}

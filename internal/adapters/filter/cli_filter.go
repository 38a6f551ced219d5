package filter

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/mikey/form-spam-filter/internal/core"
	"go.uber.org/zap"
)

// CliFilter classifies a single payload from the command line
type CliFilter struct {
	classifier    *core.Classifier
	honeypotField string
	out           io.Writer
	jsonOutput    bool
	logger        *zap.Logger
}

// NewCliFilter creates a new CLI filter
func NewCliFilter(classifier *core.Classifier, honeypotField string, out io.Writer, jsonOutput bool, logger *zap.Logger) *CliFilter {
	return &CliFilter{
		classifier:    classifier,
		honeypotField: honeypotField,
		out:           out,
		jsonOutput:    jsonOutput,
		logger:        logger,
	}
}

// ReadPayload decodes a JSON object, keeping numbers as json.Number
func ReadPayload(r io.Reader) (core.Payload, error) {
	return decodeJSON(r)
}

type cliReport struct {
	core.Verdict
	Payload core.Payload `json:"payload"`
}

// ProcessSubmission classifies the payload and prints the verdict and
// the payload with the honeypot field removed
func (f *CliFilter) ProcessSubmission(ctx context.Context, req *core.SubmissionRequest) (*core.SubmissionResult, error) {
	f.logger.Debug("Classifying payload",
		zap.Int("fields", len(req.Payload)),
		zap.String("honeypot_field", f.honeypotField))

	verdict := f.classifier.Classify(req.Payload, f.honeypotField)
	cleaned := core.StripHoneypotField(req.Payload, f.honeypotField)

	result := &core.SubmissionResult{Verdict: verdict}
	if !verdict.IsSpam {
		result.Submission = &core.Submission{Data: cleaned}
	}

	if f.jsonOutput {
		enc := json.NewEncoder(f.out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(cliReport{Verdict: verdict, Payload: cleaned}); err != nil {
			return nil, fmt.Errorf("failed to write report: %w", err)
		}
		return result, nil
	}

	fmt.Fprintf(f.out, "=== Verdict ===\n")
	fmt.Fprintf(f.out, "Is spam: %t\n", verdict.IsSpam)
	if verdict.IsSpam {
		fmt.Fprintf(f.out, "Reason: %s\n", verdict.SpamReason)
	}

	fmt.Fprintf(f.out, "\n=== Cleaned payload ===\n")
	fields := core.Flatten(cleaned)
	for _, k := range core.SortedKeys(fields) {
		fmt.Fprintf(f.out, "%s: %s\n", k, fields[k])
	}

	return result, nil
}

// Start is a no-op for the CLI filter
func (f *CliFilter) Start() error {
	return nil
}

// Stop is a no-op for the CLI filter
func (f *CliFilter) Stop() error {
	return nil
}

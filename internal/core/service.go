package core

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/form-spam-filter/internal/metrics"
	"go.uber.org/zap"
)

// DefaultHoneypotField is assigned to forms created without one
const DefaultHoneypotField = "_gotcha"

// SubmissionService is the core service for accepting form submissions
type SubmissionService struct {
	classifier  *Classifier
	forms       FormRepository
	submissions SubmissionRepository
	validator   PayloadValidator
	content     *ContentChecker
	notifier    Notifier
	logger      *zap.Logger
}

// NewSubmissionService creates a new submission service. validator,
// content and notifier may be nil to skip that stage.
func NewSubmissionService(
	classifier *Classifier,
	forms FormRepository,
	submissions SubmissionRepository,
	validator PayloadValidator,
	content *ContentChecker,
	notifier Notifier,
	logger *zap.Logger,
) *SubmissionService {
	return &SubmissionService{
		classifier:  classifier,
		forms:       forms,
		submissions: submissions,
		validator:   validator,
		content:     content,
		notifier:    notifier,
		logger:      logger,
	}
}

// Submit classifies a submission and persists it when it is not spam.
// Spam is not an error: the result carries the verdict and a nil Submission.
func (s *SubmissionService) Submit(ctx context.Context, req *SubmissionRequest) (*SubmissionResult, error) {
	form, err := s.forms.GetForm(ctx, req.FormID)
	if err != nil {
		return nil, err
	}

	verdict := s.classifier.Classify(req.Payload, form.HoneypotField)
	if verdict.IsSpam {
		s.reject(form, req, verdict)
		return &SubmissionResult{Form: form, Verdict: verdict}, nil
	}

	cleaned := StripHoneypotField(req.Payload, form.HoneypotField)

	if s.validator != nil && len(form.Schema) > 0 {
		if err := s.validator.Validate(form.Schema, cleaned); err != nil {
			metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeInvalid).Inc()
			return nil, err
		}
	}

	var analysis *ContentAnalysis
	if s.content != nil {
		analysis, err = s.content.Check(ctx, form, cleaned)
		if err != nil {
			// Fail open on model errors
			s.logger.Warn("Content check failed, accepting submission",
				zap.String("form_id", form.ID),
				zap.Error(err))
			analysis = nil
		} else if s.content.IsSpam(analysis) {
			verdict = Verdict{IsSpam: true, SpamReason: ReasonContent}
			s.reject(form, req, verdict)
			return &SubmissionResult{Form: form, Verdict: verdict, Analysis: analysis}, nil
		}
	}

	sub := &Submission{
		ID:         uuid.NewString(),
		FormID:     form.ID,
		Data:       cleaned,
		RemoteAddr: req.RemoteAddr,
		UserAgent:  req.UserAgent,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.submissions.SaveSubmission(ctx, sub); err != nil {
		return nil, fmt.Errorf("failed to save submission: %w", err)
	}
	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeAccepted).Inc()

	s.logger.Info("Accepted submission",
		zap.String("form_id", form.ID),
		zap.String("submission_id", sub.ID))

	if s.notifier != nil && form.NotifyEmail != "" {
		if err := s.notifier.Notify(ctx, form, sub); err != nil {
			metrics.NotificationFailuresTotal.WithLabelValues("owner").Inc()
			s.logger.Error("Failed to notify form owner",
				zap.String("form_id", form.ID),
				zap.String("submission_id", sub.ID),
				zap.Error(err))
		}
	}

	return &SubmissionResult{Form: form, Verdict: verdict, Submission: sub, Analysis: analysis}, nil
}

func (s *SubmissionService) reject(form *Form, req *SubmissionRequest, verdict Verdict) {
	metrics.RecordSpam(string(verdict.SpamReason))
	s.logger.Info("Rejected spam submission",
		zap.String("form_id", form.ID),
		zap.String("reason", string(verdict.SpamReason)),
		zap.String("remote_addr", req.RemoteAddr))
}

// CreateForm validates and stores a new form
func (s *SubmissionService) CreateForm(ctx context.Context, form *Form) (*Form, error) {
	form.Name = strings.TrimSpace(form.Name)
	form.OwnerID = strings.TrimSpace(form.OwnerID)
	if form.Name == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidForm)
	}
	if form.OwnerID == "" {
		return nil, fmt.Errorf("%w: owner is required", ErrInvalidForm)
	}
	if form.HoneypotField == "" {
		form.HoneypotField = DefaultHoneypotField
	}

	now := time.Now().UTC()
	form.ID = uuid.NewString()
	form.CreatedAt = now
	form.UpdatedAt = now

	if err := s.forms.CreateForm(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}
	return form, nil
}

// GetForm returns a form by ID
func (s *SubmissionService) GetForm(ctx context.Context, id string) (*Form, error) {
	return s.forms.GetForm(ctx, id)
}

// ListForms returns the forms of one owner
func (s *SubmissionService) ListForms(ctx context.Context, ownerID string) ([]*Form, error) {
	return s.forms.ListForms(ctx, ownerID)
}

// DeleteForm removes a form and its submissions
func (s *SubmissionService) DeleteForm(ctx context.Context, id string) error {
	return s.forms.DeleteForm(ctx, id)
}

const (
	defaultPageSize = 50
	maxPageSize     = 500
)

// ListSubmissions pages through a form's accepted submissions, newest first
func (s *SubmissionService) ListSubmissions(ctx context.Context, formID string, limit, offset int) ([]*Submission, error) {
	if _, err := s.forms.GetForm(ctx, formID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	} else if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return s.submissions.ListSubmissions(ctx, formID, limit, offset)
}

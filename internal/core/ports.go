package core

import (
	"context"
)

// DomainSet is a read-only set of lower-cased email domains
type DomainSet interface {
	Contains(domain string) bool
}

// LLMClient defines the interface for interacting with LLM services
type LLMClient interface {
	// AnalyzeSubmission scores a submission's content for spam
	AnalyzeSubmission(ctx context.Context, req *ContentRequest) (*ContentAnalysis, error)
}

// CacheRepository defines the interface for caching content verdicts
type CacheRepository interface {
	// Get retrieves a cached entry for a sender
	Get(ctx context.Context, senderEmail string) (*CacheEntry, error)

	// Set stores a cache entry
	Set(ctx context.Context, entry *CacheEntry) error

	// Delete removes a cache entry
	Delete(ctx context.Context, senderEmail string) error

	// Cleanup removes expired entries
	Cleanup(ctx context.Context) error
}

// FormRepository persists form definitions
type FormRepository interface {
	CreateForm(ctx context.Context, form *Form) error
	GetForm(ctx context.Context, id string) (*Form, error)
	ListForms(ctx context.Context, ownerID string) ([]*Form, error)
	DeleteForm(ctx context.Context, id string) error
}

// SubmissionRepository persists accepted submissions
type SubmissionRepository interface {
	SaveSubmission(ctx context.Context, sub *Submission) error
	ListSubmissions(ctx context.Context, formID string, limit, offset int) ([]*Submission, error)
}

// Store is a backing store for both forms and submissions
type Store interface {
	FormRepository
	SubmissionRepository
	Close() error
}

// PayloadValidator checks a cleaned payload against a form's JSON schema
type PayloadValidator interface {
	Validate(schema map[string]any, payload Payload) error
}

// Notifier tells a form owner about an accepted submission
type Notifier interface {
	Notify(ctx context.Context, form *Form, sub *Submission) error
}

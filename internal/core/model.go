package core

import (
	"time"
)

// Payload is a submitted form body: field name to decoded value
type Payload map[string]any

// SpamReason identifies which check flagged a submission
type SpamReason string

const (
	// ReasonNone is the reason of a clean verdict
	ReasonNone SpamReason = ""
	// ReasonHoneypot is reported when the hidden honeypot field was filled in
	ReasonHoneypot SpamReason = "honeypot"
	// ReasonDisposableEmail is reported when the email field uses a throwaway domain
	ReasonDisposableEmail SpamReason = "disposable_email"
	// ReasonContent is reported when the content check scored the submission as spam
	ReasonContent SpamReason = "content"
)

// MarshalJSON encodes ReasonNone as null
func (r SpamReason) MarshalJSON() ([]byte, error) {
	if r == ReasonNone {
		return []byte("null"), nil
	}
	return []byte(`"` + string(r) + `"`), nil
}

// Verdict is the outcome of classifying one submission.
// SpamReason is set if and only if IsSpam is true.
type Verdict struct {
	IsSpam     bool       `json:"isSpam"`
	SpamReason SpamReason `json:"spamReason"`
}

// Form is a tenant-owned form that accepts public submissions
type Form struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"ownerId"`
	Name          string         `json:"name"`
	HoneypotField string         `json:"honeypotField"`
	NotifyEmail   string         `json:"notifyEmail,omitempty"`
	RedirectURL   string         `json:"redirectUrl,omitempty"`
	Schema        map[string]any `json:"schema,omitempty"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

// Submission is an accepted, persisted form submission
type Submission struct {
	ID         string    `json:"id"`
	FormID     string    `json:"formId"`
	Data       Payload   `json:"data"`
	RemoteAddr string    `json:"remoteAddr,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// SubmissionRequest is an inbound submission as decoded by a transport
type SubmissionRequest struct {
	FormID     string
	Payload    Payload
	RemoteAddr string
	UserAgent  string
}

// SubmissionResult is what the service decided for a submission.
// Submission is nil when the submission was rejected.
type SubmissionResult struct {
	Form       *Form
	Verdict    Verdict
	Submission *Submission
	Analysis   *ContentAnalysis
}

// ContentAnalysis represents the result of an LLM content check
type ContentAnalysis struct {
	IsSpam       bool
	Score        float64
	Confidence   float64
	Explanation  string
	AnalyzedAt   time.Time
	ModelUsed    string
	ProcessingID string
}

// ContentRequest is the input to an LLM content check
type ContentRequest struct {
	FormName    string
	SenderEmail string
	Fields      map[string]string
}

// CacheEntry is a cached content verdict for a submitter
type CacheEntry struct {
	SenderEmail string    `json:"sender_email"`
	IsSpam      bool      `json:"is_spam"`
	Score       float64   `json:"score"`
	LastSeen    time.Time `json:"last_seen"`
	ExpiresAt   time.Time `json:"expires_at"`
}

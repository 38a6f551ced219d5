package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mikey/form-spam-filter/internal/core"
)

// SystemPrompt is sent as the system role where the provider supports one
const SystemPrompt = "You are a spam detection system. Respond only with JSON."

const submissionPromptFormat = `You are a spam detection system for a web form backend. Analyze the following form submission and determine if it's spam.
Respond with a JSON object containing:
- is_spam: boolean (true if spam, false if not)
- score: number between 0 and 1 (higher means more likely to be spam)
- confidence: number between 0 and 1 (how confident you are in your assessment)
- explanation: string (brief explanation of why you think it's spam or not)

Form: %s
Sender: %s
Fields:
%s

Respond only with the JSON object and nothing else.`

// AnalysisResponse represents the structured response from the LLM
type AnalysisResponse struct {
	IsSpam      bool    `json:"is_spam"`
	Score       float64 `json:"score"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

// BuildSubmissionPrompt renders a content request as an LLM prompt. The
// field listing is sorted, truncated to maxBodySize and sanitized.
func BuildSubmissionPrompt(tp *TextProcessor, req *core.ContentRequest, maxBodySize int) string {
	var b strings.Builder
	for _, k := range core.SortedKeys(req.Fields) {
		fmt.Fprintf(&b, "%s: %s\n", k, req.Fields[k])
	}

	sender := req.SenderEmail
	if sender == "" {
		sender = "(not provided)"
	}

	return fmt.Sprintf(submissionPromptFormat, req.FormName, sender, tp.ProcessText(b.String(), maxBodySize))
}

// ParseAnalysisResponse decodes the model's answer. Models often wrap the
// JSON in prose, so the outermost {...} is tried when the text is not JSON.
func ParseAnalysisResponse(text string) (*AnalysisResponse, error) {
	var resp AnalysisResponse
	if err := json.Unmarshal([]byte(text), &resp); err == nil {
		return &resp, nil
	}

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, errors.New("failed to extract JSON from LLM response")
	}

	if err := json.Unmarshal([]byte(text[start:end+1]), &resp); err != nil {
		return nil, fmt.Errorf("failed to parse LLM response as JSON: %w", err)
	}
	return &resp, nil
}

// ToContentAnalysis converts a parsed response into the core result
func (r *AnalysisResponse) ToContentAnalysis(model, processingID string) *core.ContentAnalysis {
	return &core.ContentAnalysis{
		IsSpam:       r.IsSpam,
		Score:        r.Score,
		Confidence:   r.Confidence,
		Explanation:  r.Explanation,
		AnalyzedAt:   time.Now(),
		ModelUsed:    model,
		ProcessingID: processingID,
	}
}

package gemini

import (
	"context"
	"errors"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeModel struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	if len(parts) > 0 {
		if text, ok := parts[0].(genai.Text); ok {
			f.prompt = string(text)
		}
	}
	return f.resp, f.err
}

func responseWith(parts ...genai.Part) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func newClient(model contentGenerator) *GeminiClient {
	logger := zap.NewNop()
	return &GeminiClient{
		model:         model,
		modelName:     "gemini-pro",
		maxBodySize:   4096,
		logger:        logger,
		textProcessor: utils.NewTextProcessor(logger),
	}
}

func TestAnalyzeSubmission(t *testing.T) {
	model := &fakeModel{resp: responseWith(
		genai.Text(`{"is_spam":false,"score":0.2,`),
		genai.Text(`"confidence":0.9,"explanation":"genuine enquiry"}`),
	)}

	result, err := newClient(model).AnalyzeSubmission(context.Background(), &core.ContentRequest{
		FormName: "Quote",
		Fields:   map[string]string{"message": "Can you quote for 10 units?"},
	})

	require.NoError(t, err)
	assert.False(t, result.IsSpam)
	assert.Equal(t, 0.2, result.Score)
	assert.Equal(t, "gemini-pro", result.ModelUsed)
	assert.Contains(t, model.prompt, "Form: Quote")
	assert.Contains(t, model.prompt, "Sender: (not provided)")
}

func TestAnalyzeSubmission_Empty(t *testing.T) {
	_, err := newClient(&fakeModel{resp: &genai.GenerateContentResponse{}}).
		AnalyzeSubmission(context.Background(), &core.ContentRequest{})

	assert.Error(t, err)
}

func TestAnalyzeSubmission_Error(t *testing.T) {
	_, err := newClient(&fakeModel{err: errors.New("quota exceeded")}).
		AnalyzeSubmission(context.Background(), &core.ContentRequest{})

	assert.ErrorContains(t, err, "quota exceeded")
}

func TestClose_NilClient(t *testing.T) {
	assert.NoError(t, newClient(&fakeModel{}).Close())
}

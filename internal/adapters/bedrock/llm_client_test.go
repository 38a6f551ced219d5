package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/form-spam-filter/internal/core"
	"github.com/mikey/form-spam-filter/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeInvoker struct {
	body    []byte
	err     error
	lastReq map[string]any
	modelID string
}

func (f *fakeInvoker) InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.modelID = *params.ModelId
	if err := json.Unmarshal(params.Body, &f.lastReq); err != nil {
		return nil, err
	}
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: f.body}, nil
}

func newClient(inv InvokeModelAPI, modelID string) *BedrockClient {
	logger := zap.NewNop()
	return NewBedrockClient(inv, modelID, 500, 0.1, 0.9, 4096, logger, utils.NewTextProcessor(logger))
}

var request = &core.ContentRequest{
	FormName:    "Contact",
	SenderEmail: "x@example.com",
	Fields:      map[string]string{"message": "hello"},
}

const analysisJSON = `{"is_spam":true,"score":0.9,"confidence":0.7,"explanation":"link farm"}`

func TestAnalyzeSubmission_ClaudeMessages(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"content": []map[string]any{{"type": "text", "text": analysisJSON}},
	})
	inv := &fakeInvoker{body: body}

	result, err := newClient(inv, "anthropic.claude-3-haiku-20240307-v1:0").AnalyzeSubmission(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsSpam)
	assert.Equal(t, 0.9, result.Score)
	assert.Equal(t, "anthropic.claude-3-haiku-20240307-v1:0", result.ModelUsed)
	assert.Equal(t, "bedrock-2023-05-31", inv.lastReq["anthropic_version"])
	assert.Contains(t, inv.lastReq, "messages")
}

func TestAnalyzeSubmission_ClaudeText(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"completion": " " + analysisJSON})
	inv := &fakeInvoker{body: body}

	result, err := newClient(inv, "anthropic.claude-v2").AnalyzeSubmission(context.Background(), request)

	require.NoError(t, err)
	assert.Equal(t, "link farm", result.Explanation)
	prompt := inv.lastReq["prompt"].(string)
	assert.Contains(t, prompt, "\n\nHuman: ")
	assert.Contains(t, prompt, "message: hello")
	assert.Contains(t, inv.lastReq, "max_tokens_to_sample")
}

func TestAnalyzeSubmission_Titan(t *testing.T) {
	body, _ := json.Marshal(map[string]any{
		"results": []map[string]any{{"outputText": analysisJSON}},
	})
	inv := &fakeInvoker{body: body}

	result, err := newClient(inv, "amazon.titan-text-express-v1").AnalyzeSubmission(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsSpam)
	assert.Contains(t, inv.lastReq, "textGenerationConfig")
}

func TestAnalyzeSubmission_TitanEmpty(t *testing.T) {
	inv := &fakeInvoker{body: []byte(`{"results":[]}`)}

	_, err := newClient(inv, "amazon.titan-text-express-v1").AnalyzeSubmission(context.Background(), request)

	assert.Error(t, err)
}

func TestAnalyzeSubmission_Generic(t *testing.T) {
	body, _ := json.Marshal(map[string]any{"output": analysisJSON})
	inv := &fakeInvoker{body: body}

	result, err := newClient(inv, "meta.llama3-8b-instruct-v1:0").AnalyzeSubmission(context.Background(), request)

	require.NoError(t, err)
	assert.True(t, result.IsSpam)
	assert.Contains(t, inv.lastReq, "max_tokens")
}

func TestAnalyzeSubmission_InvokeError(t *testing.T) {
	inv := &fakeInvoker{err: errors.New("throttled")}

	_, err := newClient(inv, "anthropic.claude-v2").AnalyzeSubmission(context.Background(), request)

	assert.ErrorContains(t, err, "throttled")
}

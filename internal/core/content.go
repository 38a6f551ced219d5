package core

import (
	"context"
	"strings"
	"time"

	"github.com/mikey/form-spam-filter/internal/metrics"
	"go.uber.org/zap"
)

// ContentOptions configures the content checker
type ContentOptions struct {
	CacheEnabled bool
	CacheTTL     time.Duration
	Threshold    float64
}

// ContentChecker scores submission content with an LLM, caching the
// result per submitter email
type ContentChecker struct {
	llmClient    LLMClient
	cache        CacheRepository
	logger       *zap.Logger
	cacheEnabled bool
	cacheTTL     time.Duration
	threshold    float64
}

// NewContentChecker creates a new content checker
func NewContentChecker(llmClient LLMClient, cache CacheRepository, logger *zap.Logger, opts ContentOptions) *ContentChecker {
	return &ContentChecker{
		llmClient:    llmClient,
		cache:        cache,
		logger:       logger,
		cacheEnabled: opts.CacheEnabled && cache != nil,
		cacheTTL:     opts.CacheTTL,
		threshold:    opts.Threshold,
	}
}

// Check analyzes a cleaned payload
func (c *ContentChecker) Check(ctx context.Context, form *Form, payload Payload) (*ContentAnalysis, error) {
	sender, _ := payload[EmailField].(string)
	sender = strings.ToLower(strings.TrimSpace(sender))

	// Check cache if enabled
	if c.cacheEnabled && sender != "" {
		start := time.Now()
		if entry, err := c.cache.Get(ctx, sender); err == nil {
			metrics.ContentCheckDuration.WithLabelValues("cache").Observe(time.Since(start).Seconds())
			c.logger.Debug("Cache hit for sender", zap.String("sender", sender))
			return &ContentAnalysis{
				IsSpam:      entry.IsSpam,
				Score:       entry.Score,
				Confidence:  1.0,
				Explanation: "Result from cache",
				AnalyzedAt:  time.Now(),
				ModelUsed:   "cache",
			}, nil
		}
	}

	start := time.Now()
	result, err := c.llmClient.AnalyzeSubmission(ctx, &ContentRequest{
		FormName:    form.Name,
		SenderEmail: sender,
		Fields:      Flatten(payload),
	})
	metrics.ContentCheckDuration.WithLabelValues("model").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	if c.cacheEnabled && sender != "" {
		now := time.Now()
		entry := &CacheEntry{
			SenderEmail: sender,
			IsSpam:      c.IsSpam(result),
			Score:       result.Score,
			LastSeen:    now,
			ExpiresAt:   now.Add(c.cacheTTL),
		}
		if err := c.cache.Set(ctx, entry); err != nil {
			c.logger.Error("Failed to update cache", zap.Error(err))
		}
	}

	return result, nil
}

// IsSpam determines if an analysis crosses the spam threshold
func (c *ContentChecker) IsSpam(result *ContentAnalysis) bool {
	return result.Score >= c.threshold
}

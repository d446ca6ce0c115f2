// Package safety scores generated story text with two independent passes: a
// deterministic lexical and length check, and a model-based rubric review.
// The combined 0-100 score decides whether content ships as-is, gets one
// remediation pass, or is flagged for degraded delivery.
package safety

import (
	"context"
	"fmt"
	"math"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/prompts"
	"dreamweaver-server/internal/schemas"

	"go.uber.org/zap"
)

// Scoring constants. The blocked-word penalty alone pushes the deterministic
// score below the pass threshold, so a single lexical hit always fails that
// pass regardless of the model's opinion.
const (
	blockedWordPenalty = 25
	lengthPenaltyUnder = 15
	lengthPenaltyOver  = 10

	// Age-scaled word-count band: a story for age N should run roughly
	// 20*N to 80*N words.
	wordsPerAgeMin = 20
	wordsPerAgeMax = 80

	passThreshold = 80

	detWeight   = 0.4
	modelWeight = 0.6

	remediationTemperature = 0.4
	reviewMaxTokens        = 500
)

// Completer is the slice of the orchestrator the validator needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, params ai.CompletionParams) (ai.CompletionResult, error)
}

// Validator combines the deterministic and model-based passes.
type Validator struct {
	completer Completer
	logger    *zap.Logger
}

func NewValidator(completer Completer, logger *zap.Logger) *Validator {
	return &Validator{
		completer: completer,
		logger:    logger.Named("SafetyValidator"),
	}
}

// Check scores text for a child of the given age. The model pass runs with
// fallback disabled: a safety check must not silently run on a degraded,
// untested backend, so an unavailable primary tier propagates as an error
// instead of being masked.
func (v *Validator) Check(ctx context.Context, text string, age int) (models.SafetyResult, error) {
	detScore, detIssues := v.deterministicPass(text, age)

	review, err := v.modelPass(ctx, text, age)
	if err != nil {
		return models.SafetyResult{}, err
	}

	combined := int(math.Round(detWeight*float64(detScore) + modelWeight*float64(review.Score)))
	result := models.SafetyResult{
		Score:           combined,
		DetScore:        detScore,
		ModelScore:      review.Score,
		Issues:          append(detIssues, review.Concerns...),
		Recommendations: review.Recommendations,
	}
	result.IsSafe = detScore >= passThreshold && review.Score >= passThreshold && combined >= passThreshold

	v.logger.Debug("Safety check completed",
		zap.Int("deterministicScore", detScore),
		zap.Int("modelScore", review.Score),
		zap.Int("combinedScore", combined),
		zap.Bool("isSafe", result.IsSafe),
		zap.Int("issues", len(result.Issues)))
	return result, nil
}

// Remediate asks a backend for a corrected rewrite addressing the listed
// issues. Fallback stays disabled and the temperature is lowered so the
// rewrite stays close to the original. An empty rewrite is an error; the
// caller decides whether to keep the original (degraded delivery).
func (v *Validator) Remediate(ctx context.Context, text string, age int, issues []string) (string, error) {
	result, err := v.completer.Complete(ctx, prompts.RemediationPrompt(text, age, issues), ai.CompletionParams{
		MaxTokens:     len(text)/2 + 600,
		Temperature:   remediationTemperature,
		AllowFallback: false,
	})
	if err != nil {
		return "", fmt.Errorf("remediation generation failed: %w", err)
	}
	return result.Text, nil
}

// deterministicPass runs the lexical block-list scan and the age-scaled
// length check. Adding a blocked word can only ever lower the score.
func (v *Validator) deterministicPass(text string, age int) (int, []string) {
	score := 100
	var issues []string

	for _, hit := range scanBlockedWords(text) {
		score -= blockedWordPenalty
		issues = append(issues, fmt.Sprintf("contains blocked term %q", hit))
	}

	words := countWords(text)
	minWords := wordsPerAgeMin * age
	maxWords := wordsPerAgeMax * age
	if words < minWords {
		score -= lengthPenaltyUnder
		issues = append(issues, fmt.Sprintf("story is too short for age %d: %d words, expected at least %d", age, words, minWords))
	} else if words > maxWords {
		score -= lengthPenaltyOver
		issues = append(issues, fmt.Sprintf("story is too long for age %d: %d words, expected at most %d", age, words, maxWords))
	}

	if score < 0 {
		score = 0
	}
	return score, issues
}

// modelPass asks a backend to rate the text against the fixed rubric and
// parses the response with the marker-first strategy.
func (v *Validator) modelPass(ctx context.Context, text string, age int) (*schemas.SafetyReview, error) {
	result, err := v.completer.Complete(ctx, prompts.SafetyReviewPrompt(text, age), ai.CompletionParams{
		MaxTokens:     reviewMaxTokens,
		Temperature:   0.2,
		AllowFallback: false,
	})
	if err != nil {
		return nil, fmt.Errorf("safety model pass failed: %w", err)
	}

	review, err := schemas.ParseSafetyReview(result.Text)
	if err != nil {
		v.logger.Warn("Safety review response was unparseable",
			zap.String("tier", result.Tier),
			zap.Error(err))
		return nil, err
	}
	return review, nil
}

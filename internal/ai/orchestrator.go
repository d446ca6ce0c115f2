package ai

import (
	"context"
	"fmt"
	"strings"

	"dreamweaver-server/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Tier is one ranked backend in the fallback chain.
type Tier struct {
	Name   string
	Client Client
}

// CompletionParams controls one orchestrated completion.
type CompletionParams struct {
	MaxTokens   int
	Temperature float64
	// AllowFallback permits advancing past the first tier. Safety-critical
	// flows disable it so a check never silently runs on an untested backend.
	AllowFallback bool
}

// CompletionResult carries the generated text together with the tier that
// served it. The served tier is a value in the result, never orchestrator
// state, so concurrent requests cannot race on it.
type CompletionResult struct {
	Text  string
	Tier  string
	Model string
	Usage UsageInfo
}

// Orchestrator sends a prompt to an ordered list of backends and returns the
// first successful completion. One failed attempt is enough to advance to the
// next tier; there are no retries within a tier.
type Orchestrator struct {
	tiers  []Tier
	logger *zap.Logger
}

func NewOrchestrator(tiers []Tier, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		tiers:  tiers,
		logger: logger.Named("Orchestrator"),
	}
}

// Complete attempts the configured tiers in order. When every attempted tier
// fails, the aggregated error wraps models.ErrGenerationUnavailable and must
// propagate to the caller.
func (o *Orchestrator) Complete(ctx context.Context, prompt string, params CompletionParams) (CompletionResult, error) {
	if len(o.tiers) == 0 {
		return CompletionResult{}, fmt.Errorf("%w: no tiers configured", models.ErrGenerationUnavailable)
	}

	tiers := o.tiers
	if !params.AllowFallback {
		tiers = tiers[:1]
	}

	genParams := GenerationParams{}
	if params.Temperature > 0 {
		temp := params.Temperature
		genParams.Temperature = &temp
	}
	if params.MaxTokens > 0 {
		maxTok := params.MaxTokens
		genParams.MaxTokens = &maxTok
	}

	var failures []string
	for i, tier := range tiers {
		text, usage, err := tier.Client.Generate(ctx, prompt, genParams)
		if err != nil {
			o.logger.Warn("Generation tier failed",
				zap.String("tier", tier.Name),
				zap.String("model", tier.Client.Model()),
				zap.Error(err))
			failures = append(failures, fmt.Sprintf("%s: %v", tier.Name, err))
			continue
		}

		if i > 0 {
			aiFallbacksTotal.With(prometheus.Labels{"tier": tier.Name}).Inc()
			o.logger.Info("Completion served by fallback tier",
				zap.String("tier", tier.Name),
				zap.Int("tierIndex", i))
		}
		return CompletionResult{
			Text:  text,
			Tier:  tier.Name,
			Model: tier.Client.Model(),
			Usage: usage,
		}, nil
	}

	o.logger.Error("All generation tiers exhausted",
		zap.Int("attempted", len(tiers)),
		zap.Bool("fallbackAllowed", params.AllowFallback))
	return CompletionResult{}, fmt.Errorf("%w: %s", models.ErrGenerationUnavailable, strings.Join(failures, "; "))
}

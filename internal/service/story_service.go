// Package service implements the story generation pipeline: prompt
// composition, orchestrated completion, parsing, safety validation and the
// lazily-expanded branching persistence model.
package service

import (
	"context"
	"fmt"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/personalize"
	"dreamweaver-server/internal/prompts"
	"dreamweaver-server/internal/schemas"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Request bounds and sampling parameters per generation task.
const (
	MinOptionCount = 1
	MaxOptionCount = 5

	optionsTemperature      = 0.9
	segmentTemperature      = 0.8
	continuationTemperature = 0.8

	optionsMaxTokensPerOption = 300
	segmentMaxTokens          = 1200
	continuationMaxTokens     = 1400
)

// Completer is the slice of the model orchestrator the service needs.
type Completer interface {
	Complete(ctx context.Context, prompt string, params ai.CompletionParams) (ai.CompletionResult, error)
}

// SafetyChecker scores content and produces remediated rewrites.
type SafetyChecker interface {
	Check(ctx context.Context, text string, age int) (models.SafetyResult, error)
	Remediate(ctx context.Context, text string, age int, issues []string) (string, error)
}

// StoryService exposes the generation and persistence operations of the
// service: option listing, full content generation, lazy branch expansion and
// plain CRUD over saved stories.
type StoryService struct {
	completer Completer
	composer  *prompts.Composer
	validator SafetyChecker
	stories   interfaces.StoryRepository
	profiles  interfaces.ProfileRepository
	logger    *zap.Logger
}

func NewStoryService(
	completer Completer,
	composer *prompts.Composer,
	validator SafetyChecker,
	stories interfaces.StoryRepository,
	profiles interfaces.ProfileRepository,
	logger *zap.Logger,
) *StoryService {
	return &StoryService{
		completer: completer,
		composer:  composer,
		validator: validator,
		stories:   stories,
		profiles:  profiles,
		logger:    logger.Named("StoryService"),
	}
}

// GenerateOptions asks a backend for count distinct story proposals and
// returns the ones that parse cleanly, resolved for delivery. Returns between
// 1 and count options; zero parseable options is a generation failure.
func (s *StoryService) GenerateOptions(ctx context.Context, profileID uuid.UUID, count int) ([]models.StoryOption, error) {
	if count < MinOptionCount || count > MaxOptionCount {
		return nil, fmt.Errorf("%w: option count must be between %d and %d", models.ErrInvalidInput, MinOptionCount, MaxOptionCount)
	}
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, err
	}

	result, err := s.completer.Complete(ctx, s.composer.OptionsPrompt(profile, count), ai.CompletionParams{
		MaxTokens:     optionsMaxTokensPerOption * count,
		Temperature:   optionsTemperature,
		AllowFallback: true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := schemas.ParseOptions(result.Text, count)
	if err != nil {
		s.logger.Warn("Option generation produced no usable options",
			zap.String("tier", result.Tier),
			zap.Int("requested", count),
			zap.Error(err))
		return nil, err
	}

	options := make([]models.StoryOption, len(parsed))
	for i := range parsed {
		options[i] = *personalize.ResolveOption(&parsed[i], profile)
	}
	s.logger.Info("Story options generated",
		zap.String("profileID", profileID.String()),
		zap.Int("requested", count),
		zap.Int("returned", len(options)),
		zap.String("tier", result.Tier))
	return options, nil
}

// GenerateContent produces the opening segment for a chosen option, validates
// it, and persists the story with its root segment as one atomic unit. The
// returned segment is resolved for delivery; the stored form keeps the
// placeholder tokens.
func (s *StoryService) GenerateContent(ctx context.Context, profileID uuid.UUID, option models.StoryOption, prior []models.PriorChoice) (*models.SavedStory, *models.StorySegment, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return nil, nil, err
	}
	if err := profile.Validate(); err != nil {
		return nil, nil, err
	}

	result, err := s.completer.Complete(ctx, s.composer.SegmentPrompt(profile, &option, prior), ai.CompletionParams{
		MaxTokens:     segmentMaxTokens,
		Temperature:   segmentTemperature,
		AllowFallback: true,
	})
	if err != nil {
		return nil, nil, err
	}

	parsed, err := schemas.ParseSegment(result.Text)
	if err != nil {
		return nil, nil, err
	}

	parsed, err = s.reviewContent(ctx, parsed, profile.Age, schemas.ParseSegment)
	if err != nil {
		return nil, nil, err
	}

	story := &models.SavedStory{
		ProfileID:       profile.ID,
		Title:           option.Title,
		Description:     option.Description,
		DurationMinutes: option.DurationMinutes,
		EnergyLevel:     option.EnergyLevel,
		Tags:            option.Tags,
		Preview:         option.Preview,
	}
	root := &models.StorySegment{
		Content:      parsed.Content,
		Position:     0,
		HasChoices:   len(parsed.ChoicePoints) > 0,
		ChoicePoints: parsed.ChoicePoints,
	}

	if err := s.stories.CreateStory(ctx, story, root); err != nil {
		return nil, nil, err
	}
	s.logger.Info("Story content generated",
		zap.String("storyID", story.ID.String()),
		zap.String("profileID", profileID.String()),
		zap.String("tier", result.Tier),
		zap.Bool("hasChoices", root.HasChoices))
	return story, personalize.ResolveSegment(root, profile), nil
}

// ValidateContent exposes the safety validator directly for pre-publication
// checks.
func (s *StoryService) ValidateContent(ctx context.Context, text string, profileID uuid.UUID) (models.SafetyResult, error) {
	profile, err := s.profiles.GetByID(ctx, profileID)
	if err != nil {
		return models.SafetyResult{}, err
	}
	return s.validator.Check(ctx, text, profile.Age)
}

// GetStory returns the story metadata record.
func (s *StoryService) GetStory(ctx context.Context, storyID uuid.UUID) (*models.SavedStory, error) {
	return s.stories.GetStory(ctx, storyID)
}

// GetStoryWithSegments returns the story and its full segment tree resolved
// against the owning profile.
func (s *StoryService) GetStoryWithSegments(ctx context.Context, storyID uuid.UUID) (*models.SavedStory, []*models.StorySegment, error) {
	story, err := s.stories.GetStory(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}
	profile, err := s.profiles.GetByID(ctx, story.ProfileID)
	if err != nil {
		return nil, nil, err
	}
	segments, err := s.stories.GetSegments(ctx, storyID)
	if err != nil {
		return nil, nil, err
	}
	resolved := make([]*models.StorySegment, len(segments))
	for i, segment := range segments {
		resolved[i] = personalize.ResolveSegment(segment, profile)
	}
	return story, resolved, nil
}

// ListStories returns every saved story for a profile.
func (s *StoryService) ListStories(ctx context.Context, profileID uuid.UUID) ([]*models.SavedStory, error) {
	if _, err := s.profiles.GetByID(ctx, profileID); err != nil {
		return nil, err
	}
	return s.stories.ListByProfile(ctx, profileID)
}

// DeleteStory removes a story and its whole tree.
func (s *StoryService) DeleteStory(ctx context.Context, storyID uuid.UUID) error {
	return s.stories.DeleteStory(ctx, storyID)
}

// reviewContent runs the two-pass safety check and at most one remediation
// attempt. When remediation fails or its output does not parse, the original
// content ships anyway and the condition is logged for operators: an
// availability-over-strictness trade-off, never a silent failure.
func (s *StoryService) reviewContent(ctx context.Context, parsed *schemas.SegmentContent, age int, reparse func(string) (*schemas.SegmentContent, error)) (*schemas.SegmentContent, error) {
	check, err := s.validator.Check(ctx, parsed.Content, age)
	if err != nil {
		// Safety checks must not silently downgrade; an unavailable
		// backend propagates instead of letting unvalidated text through.
		return nil, err
	}
	if !check.NeedsImprovement() {
		return parsed, nil
	}

	s.logger.Info("Content flagged for remediation",
		zap.Int("score", check.Score),
		zap.Strings("issues", check.Issues))

	rewritten, err := s.validator.Remediate(ctx, parsed.Content, age, check.Issues)
	if err != nil || rewritten == "" {
		s.logger.Warn("Remediation failed, delivering original content below safety threshold",
			zap.Int("score", check.Score),
			zap.Strings("issues", check.Issues),
			zap.Error(err))
		return parsed, nil
	}

	reparsed, err := reparse(rewritten)
	if err != nil {
		s.logger.Warn("Remediated content was unparseable, keeping original",
			zap.Error(err))
		return parsed, nil
	}
	// The rewrite may have dropped the choice markers; keep the original
	// choice points in that case so the branch structure survives.
	if len(reparsed.ChoicePoints) == 0 && len(parsed.ChoicePoints) > 0 {
		reparsed.ChoicePoints = parsed.ChoicePoints
		reparsed.IsEnding = parsed.IsEnding
	}

	recheck, err := s.validator.Check(ctx, reparsed.Content, age)
	if err != nil {
		return nil, err
	}
	if recheck.Score < check.Score {
		s.logger.Warn("Remediation lowered the safety score, keeping original",
			zap.Int("originalScore", check.Score),
			zap.Int("remediatedScore", recheck.Score))
		return parsed, nil
	}
	s.logger.Info("Content remediated",
		zap.Int("originalScore", check.Score),
		zap.Int("remediatedScore", recheck.Score))
	return reparsed, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/personalize"
	"dreamweaver-server/internal/schemas"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// GetNextSegment walks the story tree one step. With a nil segmentID it
// returns the root. Otherwise it looks up the child the given choice leads
// to, generating and persisting that branch on first visit. Every returned
// segment is resolved against the owning profile.
func (s *StoryService) GetNextSegment(ctx context.Context, storyID uuid.UUID, segmentID *uuid.UUID, choiceID string) (*models.StorySegment, error) {
	story, err := s.stories.GetStory(ctx, storyID)
	if err != nil {
		return nil, err
	}
	profile, err := s.profiles.GetByID(ctx, story.ProfileID)
	if err != nil {
		return nil, err
	}

	if segmentID == nil {
		root, err := s.stories.GetRootSegment(ctx, storyID)
		if err != nil {
			return nil, err
		}
		return personalize.ResolveSegment(root, profile), nil
	}

	if choiceID == "" {
		return nil, fmt.Errorf("%w: choiceId is required when a segment is given", models.ErrInvalidInput)
	}

	parent, err := s.stories.GetSegment(ctx, *segmentID)
	if err != nil {
		return nil, err
	}
	if parent.StoryID != storyID {
		return nil, models.ErrSegmentNotFound
	}

	child, err := s.stories.FindChildSegment(ctx, parent.ID, choiceID)
	if err == nil {
		return personalize.ResolveSegment(child, profile), nil
	}
	if !errors.Is(err, models.ErrSegmentNotFound) {
		return nil, err
	}

	// First visit to this branch: generate the continuation now.
	child, err = s.expandBranch(ctx, profile, story, parent, choiceID)
	if err != nil {
		return nil, err
	}
	return personalize.ResolveSegment(child, profile), nil
}

// expandBranch generates the continuation for an unexplored choice and
// appends it to the tree. If a concurrent request persisted the same branch
// first, the unique (parent, choice) constraint fires and the winner's
// segment is re-read and returned, so both callers see one canonical branch.
func (s *StoryService) expandBranch(ctx context.Context, profile *models.ChildProfile, story *models.SavedStory, parent *models.StorySegment, choiceID string) (*models.StorySegment, error) {
	_, option := parent.FindChoiceOption(choiceID)
	if option == nil {
		return nil, fmt.Errorf("%w: segment %s has no choice %q", models.ErrChoiceNotFound, parent.ID, choiceID)
	}

	result, err := s.completer.Complete(ctx, s.composer.ContinuationPrompt(profile, parent.Content, option.Text, option.Outcome), ai.CompletionParams{
		MaxTokens:     continuationMaxTokens,
		Temperature:   continuationTemperature,
		AllowFallback: true,
	})
	if err != nil {
		return nil, err
	}

	parsed, err := schemas.ParseContinuation(result.Text)
	if err != nil {
		return nil, err
	}
	parsed, err = s.reviewContent(ctx, parsed, profile.Age, schemas.ParseContinuation)
	if err != nil {
		return nil, err
	}

	position, err := s.stories.CountSegments(ctx, story.ID)
	if err != nil {
		return nil, err
	}

	segment := &models.StorySegment{
		StoryID:         story.ID,
		ParentSegmentID: &parent.ID,
		Content:         parsed.Content,
		ChoiceText:      option.Text,
		ChoiceID:        choiceID,
		Position:        position,
		HasChoices:      len(parsed.ChoicePoints) > 0 && !parsed.IsEnding,
		ChoicePoints:    parsed.ChoicePoints,
	}

	err = s.stories.AppendSegments(ctx, []*models.StorySegment{segment})
	if errors.Is(err, models.ErrSegmentExists) {
		s.logger.Info("Branch generated concurrently, returning existing segment",
			zap.String("parentSegmentID", parent.ID.String()),
			zap.String("choiceID", choiceID))
		return s.stories.FindChildSegment(ctx, parent.ID, choiceID)
	}
	if err != nil {
		return nil, err
	}

	s.logger.Info("Branch expanded",
		zap.String("storyID", story.ID.String()),
		zap.String("segmentID", segment.ID.String()),
		zap.String("choiceID", choiceID),
		zap.Bool("isEnding", parsed.IsEnding),
		zap.String("tier", result.Tier))
	return segment, nil
}

package service_test

import (
	"context"
	"errors"
	"math/rand"
	"strings"
	"testing"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/mocks"
	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/prompts"
	"dreamweaver-server/internal/service"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceMocks struct {
	completer *mocks.MockCompleter
	validator *mocks.MockSafetyChecker
	stories   *mocks.MockStoryRepository
	profiles  *mocks.MockProfileRepository
}

func newTestService(t *testing.T) (*service.StoryService, *serviceMocks) {
	m := &serviceMocks{
		completer: mocks.NewMockCompleter(t),
		validator: mocks.NewMockSafetyChecker(t),
		stories:   mocks.NewMockStoryRepository(t),
		profiles:  mocks.NewMockProfileRepository(t),
	}
	svc := service.NewStoryService(
		m.completer,
		prompts.NewComposer(rand.New(rand.NewSource(1))),
		m.validator,
		m.stories,
		m.profiles,
		zap.NewNop(),
	)
	return svc, m
}

func emmaProfile() *models.ChildProfile {
	return &models.ChildProfile{
		ID:             uuid.New(),
		Name:           "Emma",
		Age:            5,
		FavoriteAnimal: "unicorn",
		FavoriteColor:  "purple",
	}
}

func safeResult() models.SafetyResult {
	return models.SafetyResult{IsSafe: true, Score: 95, DetScore: 100, ModelScore: 92}
}

const optionsResponse = `STORY 1:
TITLE: {{childName}} and the {{favoriteAnimal}} Parade
DESCRIPTION: {{childName}} leads a parade of gentle creatures through a {{favoriteColor}} meadow at dusk.
DURATION: 6
ENERGY: playful
TAGS: parade, meadow
PREVIEW: The first lantern lit up all by itself.

STORY 2:
TITLE: The {{favoriteColor}} Cloud Castle
DESCRIPTION: High above the town floats a castle made of {{favoriteColor}} clouds, waiting for {{childName}}.
DURATION: 8
ENERGY: peaceful
TAGS: clouds, castle
PREVIEW: A rope ladder of moonlight unrolled from the sky.

STORY 3:
TITLE: A Lullaby for the {{favoriteAnimal}}
DESCRIPTION: The sleepiest {{favoriteAnimal}} in the world cannot fall asleep, and only {{childName}} knows the right song.
DURATION: 5
ENERGY: cozy
TAGS: lullaby, friendship
PREVIEW: Somewhere far away, a very big yawn echoed.
`

const segmentResponse = `Once upon a time, {{childName}} found a tiny silver key under the pillow.
It hummed softly and tugged toward the hallway, where two doors waited in the dark.
The {{favoriteAnimal}} from the nightlight blinked awake and trotted alongside.

CHOICE POINT: The key points at two doors at the end of the hallway.
OPTION A: Open the round wooden door
OUTCOME A: A cozy room full of sleepy owls
OPTION B: Open the tall glass door
OUTCOME B: A staircase made of moonbeams
`

const continuationResponse = `{{childName}} pushed the tall glass door open, and a staircase of pale light unfolded upward.
Step by step it chimed like tiny bells, and the {{favoriteAnimal}} hummed along.

CHOICE POINT: At the top, two clouds drift closer, each offering a ride.
OPTION A: Ride the fluffy white cloud
OUTCOME A: A slow drift over the sleeping town
OPTION B: Ride the {{favoriteColor}} cloud
OUTCOME B: A gentle loop around the moon
`

func TestGenerateOptions(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		// The prompt personalizes through placeholders, never literals.
		return strings.Contains(prompt, "{{childName}}") && !strings.Contains(prompt, "Emma")
	}), mock.MatchedBy(func(p ai.CompletionParams) bool {
		return p.AllowFallback
	})).Return(ai.CompletionResult{Text: optionsResponse, Tier: "primary"}, nil).Once()

	options, err := svc.GenerateOptions(context.Background(), profile.ID, 3)
	require.NoError(t, err)
	require.Len(t, options, 3)

	titles := map[string]bool{}
	for _, option := range options {
		titles[option.Title] = true
		personalized := strings.Contains(option.Title+option.Description, "unicorn") ||
			strings.Contains(option.Title+option.Description, "purple") ||
			strings.Contains(option.Title+option.Description, "Emma")
		assert.True(t, personalized, "option %q is not personalized", option.Title)
		assert.NotContains(t, option.Description, "{{", "delivered options must be fully resolved")
	}
	assert.Len(t, titles, 3, "titles must be distinct")
}

func TestGenerateOptions_CountBounds(t *testing.T) {
	svc, _ := newTestService(t)

	for _, count := range []int{0, -1, 6} {
		_, err := svc.GenerateOptions(context.Background(), uuid.New(), count)
		require.Error(t, err)
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	}
}

func TestGenerateOptions_ProfileNotFound(t *testing.T) {
	svc, m := newTestService(t)
	id := uuid.New()
	m.profiles.On("GetByID", mock.Anything, id).Return(nil, models.ErrProfileNotFound).Once()

	_, err := svc.GenerateOptions(context.Background(), id, 3)
	assert.True(t, errors.Is(err, models.ErrProfileNotFound))
}

func TestGenerateOptions_GenerationUnavailable(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{}, models.ErrGenerationUnavailable).Once()

	_, err := svc.GenerateOptions(context.Background(), profile.ID, 3)
	assert.True(t, errors.Is(err, models.ErrGenerationUnavailable))
}

func TestGenerateContent_StoresPlaceholdersDeliversResolved(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	option := models.StoryOption{
		ID:              uuid.New(),
		Title:           "{{childName}} and the Silver Key",
		Description:     "A key under the pillow leads somewhere soft.",
		DurationMinutes: 6,
		EnergyLevel:     models.EnergyPeaceful,
		Tags:            []string{"key", "doors"},
	}

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{Text: segmentResponse, Tier: "primary"}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).Return(safeResult(), nil).Once()

	var storedRoot *models.StorySegment
	m.stories.On("CreateStory", mock.Anything, mock.AnythingOfType("*models.SavedStory"), mock.AnythingOfType("*models.StorySegment")).
		Return(nil).Once().Run(func(args mock.Arguments) {
		storedRoot = args.Get(2).(*models.StorySegment)
	})

	story, delivered, err := svc.GenerateContent(context.Background(), profile.ID, option, nil)
	require.NoError(t, err)

	assert.Equal(t, option.Title, story.Title)
	assert.Equal(t, profile.ID, story.ProfileID)
	assert.Equal(t, 6, story.DurationMinutes)

	// Stored form keeps the placeholder vocabulary.
	require.NotNil(t, storedRoot)
	assert.Contains(t, storedRoot.Content, "{{childName}}")
	assert.True(t, storedRoot.HasChoices)
	require.Len(t, storedRoot.ChoicePoints, 1)
	assert.Equal(t, 0, storedRoot.Position)

	// Delivered form is fully resolved.
	assert.Contains(t, delivered.Content, "Emma")
	assert.NotContains(t, delivered.Content, "{{")
	assert.Contains(t, delivered.Content, "unicorn")
}

func TestGenerateContent_RemediationImprovesContent(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	option := models.StoryOption{Title: "A Story", Description: "desc", EnergyLevel: models.EnergyCozy}

	flagged := models.SafetyResult{Score: 78, DetScore: 75, ModelScore: 80, Issues: []string{"too intense"}}
	remediated := "A much gentler retelling of the same story, with every sharp edge rounded off for bedtime."

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{Text: segmentResponse, Tier: "primary"}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).Return(flagged, nil).Once()
	m.validator.On("Remediate", mock.Anything, mock.Anything, profile.Age, flagged.Issues).
		Return(remediated, nil).Once()
	m.validator.On("Check", mock.Anything, remediated, profile.Age).Return(safeResult(), nil).Once()

	var storedRoot *models.StorySegment
	m.stories.On("CreateStory", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once().Run(func(args mock.Arguments) {
		storedRoot = args.Get(2).(*models.StorySegment)
	})

	_, _, err := svc.GenerateContent(context.Background(), profile.ID, option, nil)
	require.NoError(t, err)

	require.NotNil(t, storedRoot)
	assert.Equal(t, remediated, storedRoot.Content)
	// The rewrite dropped the choice markers; the original branch structure
	// must survive remediation.
	require.Len(t, storedRoot.ChoicePoints, 1)
	m.validator.AssertExpectations(t)
}

func TestGenerateContent_RemediationFailureDeliversOriginal(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	option := models.StoryOption{Title: "A Story", Description: "desc", EnergyLevel: models.EnergyCozy}

	flagged := models.SafetyResult{Score: 70, Issues: []string{"too intense"}}

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{Text: segmentResponse, Tier: "primary"}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).Return(flagged, nil).Once()
	m.validator.On("Remediate", mock.Anything, mock.Anything, profile.Age, flagged.Issues).
		Return("", errors.New("remediation backend down")).Once()

	var storedRoot *models.StorySegment
	m.stories.On("CreateStory", mock.Anything, mock.Anything, mock.Anything).
		Return(nil).Once().Run(func(args mock.Arguments) {
		storedRoot = args.Get(2).(*models.StorySegment)
	})

	_, _, err := svc.GenerateContent(context.Background(), profile.ID, option, nil)
	require.NoError(t, err, "remediation failure degrades, it does not block delivery")
	require.NotNil(t, storedRoot)
	assert.Contains(t, storedRoot.Content, "silver key", "original content ships when remediation fails")
}

func TestGenerateContent_SafetyCheckErrorPropagates(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	option := models.StoryOption{Title: "A Story", Description: "desc"}

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{Text: segmentResponse}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).
		Return(models.SafetyResult{}, models.ErrGenerationUnavailable).Once()

	_, _, err := svc.GenerateContent(context.Background(), profile.ID, option, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrGenerationUnavailable))
	m.stories.AssertNotCalled(t, "CreateStory", mock.Anything, mock.Anything, mock.Anything)
}

func storyFixture(profileID uuid.UUID) *models.SavedStory {
	return &models.SavedStory{ID: uuid.New(), ProfileID: profileID, Title: "The Silver Key"}
}

func parentFixture(storyID uuid.UUID) *models.StorySegment {
	return &models.StorySegment{
		ID:      uuid.New(),
		StoryID: storyID,
		Content: "{{childName}} stood before two doors.",
		ChoicePoints: []models.ChoicePoint{
			{
				ID:        uuid.New(),
				Situation: "Two doors wait in the hallway.",
				Options: []models.ChoiceOption{
					{ID: "opt-wood", Label: "A", Text: "Open the round wooden door", Outcome: "sleepy owls"},
					{ID: "opt-glass", Label: "B", Text: "Open the tall glass door", Outcome: "moonbeam stairs"},
				},
			},
		},
		HasChoices: true,
	}
}

func TestGetNextSegment_RootWhenNoSegmentGiven(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	root := parentFixture(story.ID)

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetRootSegment", mock.Anything, story.ID).Return(root, nil).Once()

	segment, err := svc.GetNextSegment(context.Background(), story.ID, nil, "")
	require.NoError(t, err)
	assert.Contains(t, segment.Content, "Emma", "delivered root must be resolved")
	m.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetNextSegment_ExistingBranchNotRegenerated(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	parent := parentFixture(story.ID)
	child := &models.StorySegment{
		ID:      uuid.New(),
		StoryID: story.ID,
		Content: "{{childName}} greeted the sleepy owls.",
	}

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetSegment", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.stories.On("FindChildSegment", mock.Anything, parent.ID, "opt-wood").Return(child, nil).Once()

	segment, err := svc.GetNextSegment(context.Background(), story.ID, &parent.ID, "opt-wood")
	require.NoError(t, err)
	assert.Contains(t, segment.Content, "Emma")
	m.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
	m.stories.AssertNotCalled(t, "AppendSegments", mock.Anything, mock.Anything)
}

func TestGetNextSegment_LazyExpansion(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	parent := parentFixture(story.ID)

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetSegment", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.stories.On("FindChildSegment", mock.Anything, parent.ID, "opt-glass").
		Return(nil, models.ErrSegmentNotFound).Once()

	m.completer.On("Complete", mock.Anything, mock.MatchedBy(func(prompt string) bool {
		return strings.Contains(prompt, "Open the tall glass door") &&
			strings.Contains(prompt, "moonbeam stairs")
	}), mock.Anything).Return(ai.CompletionResult{Text: continuationResponse, Tier: "primary"}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).Return(safeResult(), nil).Once()
	m.stories.On("CountSegments", mock.Anything, story.ID).Return(1, nil).Once()

	var appended *models.StorySegment
	m.stories.On("AppendSegments", mock.Anything, mock.AnythingOfType("[]*models.StorySegment")).
		Return(nil).Once().Run(func(args mock.Arguments) {
		segments := args.Get(1).([]*models.StorySegment)
		require.Len(t, segments, 1)
		appended = segments[0]
	})

	segment, err := svc.GetNextSegment(context.Background(), story.ID, &parent.ID, "opt-glass")
	require.NoError(t, err)

	require.NotNil(t, appended)
	assert.Equal(t, story.ID, appended.StoryID)
	require.NotNil(t, appended.ParentSegmentID)
	assert.Equal(t, parent.ID, *appended.ParentSegmentID)
	assert.Equal(t, "opt-glass", appended.ChoiceID)
	assert.Equal(t, "Open the tall glass door", appended.ChoiceText)
	assert.Equal(t, 1, appended.Position)
	assert.True(t, appended.HasChoices)
	assert.Contains(t, appended.Content, "{{childName}}", "stored branch keeps placeholders")

	assert.Contains(t, segment.Content, "Emma", "delivered branch is resolved")
}

func TestGetNextSegment_ConcurrentWriterWinsConflict(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	parent := parentFixture(story.ID)
	winner := &models.StorySegment{
		ID:      uuid.New(),
		StoryID: story.ID,
		Content: "{{childName}} climbed the moonbeam stairs first.",
	}

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetSegment", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.stories.On("FindChildSegment", mock.Anything, parent.ID, "opt-glass").
		Return(nil, models.ErrSegmentNotFound).Once()
	m.completer.On("Complete", mock.Anything, mock.Anything, mock.Anything).
		Return(ai.CompletionResult{Text: continuationResponse}, nil).Once()
	m.validator.On("Check", mock.Anything, mock.Anything, profile.Age).Return(safeResult(), nil).Once()
	m.stories.On("CountSegments", mock.Anything, story.ID).Return(1, nil).Once()
	m.stories.On("AppendSegments", mock.Anything, mock.Anything).
		Return(models.ErrSegmentExists).Once()
	// The losing writer re-reads and serves the winner's canonical branch.
	m.stories.On("FindChildSegment", mock.Anything, parent.ID, "opt-glass").
		Return(winner, nil).Once()

	segment, err := svc.GetNextSegment(context.Background(), story.ID, &parent.ID, "opt-glass")
	require.NoError(t, err)
	assert.Contains(t, segment.Content, "Emma climbed the moonbeam stairs first.")
	m.stories.AssertExpectations(t)
}

func TestGetNextSegment_UnknownChoice(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	parent := parentFixture(story.ID)

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetSegment", mock.Anything, parent.ID).Return(parent, nil).Once()
	m.stories.On("FindChildSegment", mock.Anything, parent.ID, "no-such-choice").
		Return(nil, models.ErrSegmentNotFound).Once()

	_, err := svc.GetNextSegment(context.Background(), story.ID, &parent.ID, "no-such-choice")
	require.Error(t, err)
	assert.True(t, errors.Is(err, models.ErrChoiceNotFound))
	m.completer.AssertNotCalled(t, "Complete", mock.Anything, mock.Anything, mock.Anything)
}

func TestGetNextSegment_SegmentFromAnotherStory(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	parent := parentFixture(uuid.New()) // belongs to a different story

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.stories.On("GetSegment", mock.Anything, parent.ID).Return(parent, nil).Once()

	_, err := svc.GetNextSegment(context.Background(), story.ID, &parent.ID, "opt-wood")
	assert.True(t, errors.Is(err, models.ErrSegmentNotFound))
}

func TestGetNextSegment_ChoiceIDRequired(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()
	story := storyFixture(profile.ID)
	segmentID := uuid.New()

	m.stories.On("GetStory", mock.Anything, story.ID).Return(story, nil).Once()
	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()

	_, err := svc.GetNextSegment(context.Background(), story.ID, &segmentID, "")
	assert.True(t, errors.Is(err, models.ErrInvalidInput))
}

func TestValidateContent(t *testing.T) {
	svc, m := newTestService(t)
	profile := emmaProfile()

	m.profiles.On("GetByID", mock.Anything, profile.ID).Return(profile, nil).Once()
	m.validator.On("Check", mock.Anything, "some story text", profile.Age).
		Return(safeResult(), nil).Once()

	result, err := svc.ValidateContent(context.Background(), "some story text", profile.ID)
	require.NoError(t, err)
	assert.True(t, result.IsSafe)
}

func TestListStories_RequiresExistingProfile(t *testing.T) {
	svc, m := newTestService(t)
	id := uuid.New()
	m.profiles.On("GetByID", mock.Anything, id).Return(nil, models.ErrProfileNotFound).Once()

	_, err := svc.ListStories(context.Background(), id)
	assert.True(t, errors.Is(err, models.ErrProfileNotFound))
	m.stories.AssertNotCalled(t, "ListByProfile", mock.Anything, mock.Anything)
}

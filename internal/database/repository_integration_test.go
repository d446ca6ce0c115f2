package database_test

import (
	"context"
	"testing"
	"time"

	"dreamweaver-server/internal/database"
	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

type RepositoryIntegrationSuite struct {
	suite.Suite
	ctx         context.Context
	pgContainer *postgres.PostgresContainer
	pool        *pgxpool.Pool
	profiles    interfaces.ProfileRepository
	stories     interfaces.StoryRepository
	logger      *zap.Logger
}

func TestRepositoryIntegrationSuite(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}
	suite.Run(t, new(RepositoryIntegrationSuite))
}

func (s *RepositoryIntegrationSuite) SetupSuite() {
	s.ctx = context.Background()
	var err error

	s.logger = zap.NewNop()

	s.pgContainer, err = postgres.Run(s.ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("dreamweaver_test"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(5*time.Minute),
		),
	)
	require.NoError(s.T(), err, "Failed to start postgres container")

	dsn, err := s.pgContainer.ConnectionString(s.ctx, "sslmode=disable")
	require.NoError(s.T(), err)

	s.pool, err = pgxpool.New(s.ctx, dsn)
	require.NoError(s.T(), err)

	require.NoError(s.T(), database.RunMigrations(s.ctx, s.pool, "migrations", s.logger))

	s.profiles = database.NewPgProfileRepository(s.pool, s.logger)
	s.stories = database.NewPgStoryRepository(s.pool, s.logger)
}

func (s *RepositoryIntegrationSuite) TearDownSuite() {
	if s.pool != nil {
		s.pool.Close()
	}
	if s.pgContainer != nil {
		_ = s.pgContainer.Terminate(s.ctx)
	}
}

func (s *RepositoryIntegrationSuite) createProfile() *models.ChildProfile {
	profile := &models.ChildProfile{
		Name:           "Emma",
		Age:            5,
		FavoriteAnimal: "unicorn",
		FavoriteColor:  "purple",
	}
	require.NoError(s.T(), s.profiles.Create(s.ctx, profile))
	return profile
}

func (s *RepositoryIntegrationSuite) createStoryWithRoot(profileID uuid.UUID) (*models.SavedStory, *models.StorySegment) {
	story := &models.SavedStory{
		ProfileID:       profileID,
		Title:           "{{childName}} and the Silver Key",
		Description:     "A key under the pillow leads somewhere soft.",
		DurationMinutes: 6,
		EnergyLevel:     models.EnergyPeaceful,
		Tags:            []string{"key", "doors"},
	}
	root := &models.StorySegment{
		Content:    "{{childName}} found a tiny silver key.",
		HasChoices: true,
		ChoicePoints: []models.ChoicePoint{
			{
				Situation: "Two doors wait in the hallway.",
				Options: []models.ChoiceOption{
					{ID: uuid.NewString(), Label: "A", Text: "Open the wooden door", Outcome: "sleepy owls", Position: 0},
					{ID: uuid.NewString(), Label: "B", Text: "Open the glass door", Outcome: "moonbeam stairs", Position: 1},
				},
			},
		},
	}
	require.NoError(s.T(), s.stories.CreateStory(s.ctx, story, root))
	return story, root
}

func (s *RepositoryIntegrationSuite) TestProfileCRUD() {
	t := s.T()
	profile := s.createProfile()

	loaded, err := s.profiles.GetByID(s.ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, "Emma", loaded.Name)
	require.Equal(t, 5, loaded.Age)

	loaded.FavoriteColor = "turquoise"
	require.NoError(t, s.profiles.Update(s.ctx, loaded))
	updated, err := s.profiles.GetByID(s.ctx, profile.ID)
	require.NoError(t, err)
	require.Equal(t, "turquoise", updated.FavoriteColor)

	require.NoError(t, s.profiles.Delete(s.ctx, profile.ID))
	_, err = s.profiles.GetByID(s.ctx, profile.ID)
	require.ErrorIs(t, err, models.ErrProfileNotFound)
}

func (s *RepositoryIntegrationSuite) TestProfileNotFound() {
	_, err := s.profiles.GetByID(s.ctx, uuid.New())
	require.ErrorIs(s.T(), err, models.ErrProfileNotFound)

	require.ErrorIs(s.T(), s.profiles.Delete(s.ctx, uuid.New()), models.ErrProfileNotFound)
}

func (s *RepositoryIntegrationSuite) TestCreateStoryRoundtrip() {
	t := s.T()
	profile := s.createProfile()
	story, root := s.createStoryWithRoot(profile.ID)

	loaded, err := s.stories.GetStory(s.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, story.Title, loaded.Title)
	require.Equal(t, []string{"key", "doors"}, loaded.Tags)

	loadedRoot, err := s.stories.GetRootSegment(s.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, root.ID, loadedRoot.ID)
	require.Nil(t, loadedRoot.ParentSegmentID)
	require.True(t, loadedRoot.HasChoices)
	require.Len(t, loadedRoot.ChoicePoints, 1)
	require.Len(t, loadedRoot.ChoicePoints[0].Options, 2)
	require.Equal(t, "Open the wooden door", loadedRoot.ChoicePoints[0].Options[0].Text)

	stories, err := s.stories.ListByProfile(s.ctx, profile.ID)
	require.NoError(t, err)
	require.Len(t, stories, 1)
}

func (s *RepositoryIntegrationSuite) TestLazyBranchLifecycle() {
	t := s.T()
	profile := s.createProfile()
	story, root := s.createStoryWithRoot(profile.ID)
	choiceID := root.ChoicePoints[0].Options[0].ID

	// Unexplored branch: not found is the expansion signal.
	_, err := s.stories.FindChildSegment(s.ctx, root.ID, choiceID)
	require.ErrorIs(t, err, models.ErrSegmentNotFound)

	child := &models.StorySegment{
		StoryID:         story.ID,
		ParentSegmentID: &root.ID,
		Content:         "{{childName}} greeted the sleepy owls.",
		ChoiceText:      "Open the wooden door",
		ChoiceID:        choiceID,
		Position:        1,
	}
	require.NoError(t, s.stories.AppendSegments(s.ctx, []*models.StorySegment{child}))

	found, err := s.stories.FindChildSegment(s.ctx, root.ID, choiceID)
	require.NoError(t, err)
	require.Equal(t, child.ID, found.ID)
	require.Equal(t, choiceID, found.ChoiceID)

	count, err := s.stories.CountSegments(s.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// A second child for the same (parent, choice) must be rejected.
	duplicate := &models.StorySegment{
		StoryID:         story.ID,
		ParentSegmentID: &root.ID,
		Content:         "A different telling of the same branch.",
		ChoiceID:        choiceID,
		Position:        2,
	}
	err = s.stories.AppendSegments(s.ctx, []*models.StorySegment{duplicate})
	require.ErrorIs(t, err, models.ErrSegmentExists)

	// The rejected transaction must not have persisted anything.
	count, err = s.stories.CountSegments(s.ctx, story.ID)
	require.NoError(t, err)
	require.Equal(t, 2, count)

	// A different choice on the same parent is fine.
	other := &models.StorySegment{
		StoryID:         story.ID,
		ParentSegmentID: &root.ID,
		Content:         "{{childName}} climbed the moonbeam stairs.",
		ChoiceID:        root.ChoicePoints[0].Options[1].ID,
		Position:        2,
	}
	require.NoError(t, s.stories.AppendSegments(s.ctx, []*models.StorySegment{other}))

	segments, err := s.stories.GetSegments(s.ctx, story.ID)
	require.NoError(t, err)
	require.Len(t, segments, 3)
}

func (s *RepositoryIntegrationSuite) TestDeleteStoryCascades() {
	t := s.T()
	profile := s.createProfile()
	story, root := s.createStoryWithRoot(profile.ID)

	child := &models.StorySegment{
		StoryID:         story.ID,
		ParentSegmentID: &root.ID,
		Content:         "A branch segment.",
		ChoiceID:        root.ChoicePoints[0].Options[0].ID,
		Position:        1,
	}
	require.NoError(t, s.stories.AppendSegments(s.ctx, []*models.StorySegment{child}))

	require.NoError(t, s.stories.DeleteStory(s.ctx, story.ID))

	_, err := s.stories.GetStory(s.ctx, story.ID)
	require.ErrorIs(t, err, models.ErrStoryNotFound)

	count, err := s.stories.CountSegments(s.ctx, story.ID)
	require.NoError(t, err)
	require.Zero(t, count, "cascade delete must leave no orphaned segments")

	var orphans int
	err = s.pool.QueryRow(s.ctx, `SELECT COUNT(*) FROM choice_points cp
		LEFT JOIN story_segments seg ON seg.id = cp.segment_id
		WHERE seg.id IS NULL`).Scan(&orphans)
	require.NoError(t, err)
	require.Zero(t, orphans, "cascade delete must leave no orphaned choice points")
}

func (s *RepositoryIntegrationSuite) TestDeleteStoryNotFound() {
	require.ErrorIs(s.T(), s.stories.DeleteStory(s.ctx, uuid.New()), models.ErrStoryNotFound)
}

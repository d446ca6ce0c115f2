package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.StoryRepository = (*pgStoryRepository)(nil)

// pgStoryRepository persists a story as a root metadata record plus an
// append-only tree of segments. It takes the pool directly because story
// creation and branch appends are transactional units.
type pgStoryRepository struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

func NewPgStoryRepository(pool *pgxpool.Pool, logger *zap.Logger) interfaces.StoryRepository {
	return &pgStoryRepository{
		pool:   pool,
		logger: logger.Named("PgStoryRepo"),
	}
}

const createStoryQuery = `
INSERT INTO saved_stories (id, profile_id, title, description, duration_minutes, energy_level, tags, preview, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

const getStoryByIDQuery = `
SELECT id, profile_id, title, description, duration_minutes, energy_level, tags, preview, created_at, updated_at
FROM saved_stories
WHERE id = $1`

const listStoriesByProfileQuery = `
SELECT id, profile_id, title, description, duration_minutes, energy_level, tags, preview, created_at, updated_at
FROM saved_stories
WHERE profile_id = $1
ORDER BY created_at DESC`

const deleteStoryQuery = `DELETE FROM saved_stories WHERE id = $1`

// CreateStory persists the story metadata and its root segment, with choice
// points and options, as one atomic unit. A failed insert anywhere rolls the
// whole unit back: a story is either fully visible or not visible at all.
func (r *pgStoryRepository) CreateStory(ctx context.Context, story *models.SavedStory, root *models.StorySegment) error {
	if story.ID == uuid.Nil {
		story.ID = uuid.New()
	}
	now := time.Now()
	if story.CreatedAt.IsZero() {
		story.CreatedAt = now
	}
	story.UpdatedAt = now

	root.StoryID = story.ID

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, createStoryQuery,
		story.ID,
		story.ProfileID,
		story.Title,
		story.Description,
		story.DurationMinutes,
		story.EnergyLevel,
		story.Tags,
		story.Preview,
		story.CreatedAt,
		story.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to insert story", zap.Error(err), zap.String("storyID", story.ID.String()))
		return fmt.Errorf("failed to insert story: %w", err)
	}

	if err := insertSegmentTx(ctx, tx, root); err != nil {
		r.logger.Error("Failed to insert root segment", zap.Error(err), zap.String("storyID", story.ID.String()))
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit story creation: %w", err)
	}
	r.logger.Info("Story created",
		zap.String("storyID", story.ID.String()),
		zap.String("rootSegmentID", root.ID.String()))
	return nil
}

// GetStory retrieves the story metadata record.
func (r *pgStoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.SavedStory, error) {
	story := &models.SavedStory{}
	err := r.pool.QueryRow(ctx, getStoryByIDQuery, id).Scan(
		&story.ID,
		&story.ProfileID,
		&story.Title,
		&story.Description,
		&story.DurationMinutes,
		&story.EnergyLevel,
		&story.Tags,
		&story.Preview,
		&story.CreatedAt,
		&story.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrStoryNotFound
		}
		r.logger.Error("Failed to get story", zap.Error(err), zap.String("storyID", id.String()))
		return nil, fmt.Errorf("failed to get story %s: %w", id, err)
	}
	return story, nil
}

// ListByProfile returns every story saved for a profile, newest first.
func (r *pgStoryRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*models.SavedStory, error) {
	rows, err := r.pool.Query(ctx, listStoriesByProfileQuery, profileID)
	if err != nil {
		r.logger.Error("Failed to list stories", zap.Error(err), zap.String("profileID", profileID.String()))
		return nil, fmt.Errorf("failed to list stories for profile %s: %w", profileID, err)
	}
	defer rows.Close()

	var stories []*models.SavedStory
	for rows.Next() {
		story := &models.SavedStory{}
		if err := rows.Scan(
			&story.ID,
			&story.ProfileID,
			&story.Title,
			&story.Description,
			&story.DurationMinutes,
			&story.EnergyLevel,
			&story.Tags,
			&story.Preview,
			&story.CreatedAt,
			&story.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan story row: %w", err)
		}
		stories = append(stories, story)
	}
	return stories, rows.Err()
}

// DeleteStory removes a story; segments, choice points and options go with it
// via ON DELETE CASCADE.
func (r *pgStoryRepository) DeleteStory(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, deleteStoryQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete story", zap.Error(err), zap.String("storyID", id.String()))
		return fmt.Errorf("failed to delete story %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrStoryNotFound
	}
	r.logger.Info("Story deleted", zap.String("storyID", id.String()))
	return nil
}

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

	"go.uber.org/zap"
)

// Compile-time check to ensure implementation satisfies the interface.
var _ interfaces.ProfileRepository = (*pgProfileRepository)(nil)

type pgProfileRepository struct {
	db     interfaces.DBTX
	logger *zap.Logger
}

func NewPgProfileRepository(db interfaces.DBTX, logger *zap.Logger) interfaces.ProfileRepository {
	return &pgProfileRepository{
		db:     db,
		logger: logger.Named("PgProfileRepo"),
	}
}

const createProfileQuery = `
INSERT INTO child_profiles (id, name, age, favorite_animal, favorite_color, best_friend, current_interest, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const getProfileByIDQuery = `
SELECT id, name, age, favorite_animal, favorite_color, best_friend, current_interest, created_at, updated_at
FROM child_profiles
WHERE id = $1`

const updateProfileQuery = `
UPDATE child_profiles
SET name = $2, age = $3, favorite_animal = $4, favorite_color = $5, best_friend = $6, current_interest = $7, updated_at = $8
WHERE id = $1`

const deleteProfileQuery = `DELETE FROM child_profiles WHERE id = $1`

const listProfilesQuery = `
SELECT id, name, age, favorite_animal, favorite_color, best_friend, current_interest, created_at, updated_at
FROM child_profiles
ORDER BY created_at`

// Create inserts a new child profile record.
func (r *pgProfileRepository) Create(ctx context.Context, profile *models.ChildProfile) error {
	if profile.ID == uuid.Nil {
		profile.ID = uuid.New()
	}
	now := time.Now()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = now

	_, err := r.db.Exec(ctx, createProfileQuery,
		profile.ID,
		profile.Name,
		profile.Age,
		profile.FavoriteAnimal,
		profile.FavoriteColor,
		profile.BestFriend,
		profile.CurrentInterest,
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create profile", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return fmt.Errorf("failed to create profile: %w", err)
	}
	r.logger.Info("Child profile created", zap.String("profileID", profile.ID.String()))
	return nil
}

// GetByID retrieves a child profile by its unique ID.
func (r *pgProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChildProfile, error) {
	profile := &models.ChildProfile{}
	err := r.db.QueryRow(ctx, getProfileByIDQuery, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Age,
		&profile.FavoriteAnimal,
		&profile.FavoriteColor,
		&profile.BestFriend,
		&profile.CurrentInterest,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrProfileNotFound
		}
		r.logger.Error("Failed to get profile", zap.Error(err), zap.String("profileID", id.String()))
		return nil, fmt.Errorf("failed to get profile %s: %w", id, err)
	}
	return profile, nil
}

// Update rewrites the mutable fields of a profile. Stories generated before
// the update keep their placeholder text; resolution picks up the new values
// on the next delivery.
func (r *pgProfileRepository) Update(ctx context.Context, profile *models.ChildProfile) error {
	profile.UpdatedAt = time.Now()
	tag, err := r.db.Exec(ctx, updateProfileQuery,
		profile.ID,
		profile.Name,
		profile.Age,
		profile.FavoriteAnimal,
		profile.FavoriteColor,
		profile.BestFriend,
		profile.CurrentInterest,
		profile.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to update profile", zap.Error(err), zap.String("profileID", profile.ID.String()))
		return fmt.Errorf("failed to update profile %s: %w", profile.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	return nil
}

// Delete removes a profile and, via cascade, every story generated for it.
func (r *pgProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.db.Exec(ctx, deleteProfileQuery, id)
	if err != nil {
		r.logger.Error("Failed to delete profile", zap.Error(err), zap.String("profileID", id.String()))
		return fmt.Errorf("failed to delete profile %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrProfileNotFound
	}
	r.logger.Info("Child profile deleted", zap.String("profileID", id.String()))
	return nil
}

// List returns every profile ordered by creation time.
func (r *pgProfileRepository) List(ctx context.Context) ([]*models.ChildProfile, error) {
	rows, err := r.db.Query(ctx, listProfilesQuery)
	if err != nil {
		r.logger.Error("Failed to list profiles", zap.Error(err))
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []*models.ChildProfile
	for rows.Next() {
		profile := &models.ChildProfile{}
		if err := rows.Scan(
			&profile.ID,
			&profile.Name,
			&profile.Age,
			&profile.FavoriteAnimal,
			&profile.FavoriteColor,
			&profile.BestFriend,
			&profile.CurrentInterest,
			&profile.CreatedAt,
			&profile.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan profile row: %w", err)
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

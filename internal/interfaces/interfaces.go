package interfaces

import (
	"context"

	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DBTX abstracts over *pgxpool.Pool and pgx.Tx so repositories can run inside
// or outside a transaction.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// ProfileRepository persists child profiles.
type ProfileRepository interface {
	Create(ctx context.Context, profile *models.ChildProfile) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.ChildProfile, error)
	Update(ctx context.Context, profile *models.ChildProfile) error
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*models.ChildProfile, error)
}

// StoryRepository persists stories as a root record plus an append-only tree
// of segments keyed by (parent segment, choice).
type StoryRepository interface {
	// CreateStory persists the story metadata and its root segment (with choice
	// points and options) as one atomic unit.
	CreateStory(ctx context.Context, story *models.SavedStory, root *models.StorySegment) error

	// AppendSegments persists additional segments atomically. A conflicting
	// (parent, choice) pair yields models.ErrSegmentExists.
	AppendSegments(ctx context.Context, segments []*models.StorySegment) error

	GetStory(ctx context.Context, id uuid.UUID) (*models.SavedStory, error)
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*models.SavedStory, error)

	// GetSegments returns every segment of the story ordered by position, each
	// with its choice points and options attached.
	GetSegments(ctx context.Context, storyID uuid.UUID) ([]*models.StorySegment, error)

	GetSegment(ctx context.Context, id uuid.UUID) (*models.StorySegment, error)
	GetRootSegment(ctx context.Context, storyID uuid.UUID) (*models.StorySegment, error)

	// FindChildSegment looks up the segment produced by choiceID on the given
	// parent. models.ErrSegmentNotFound is the lazy-expansion signal: the
	// caller, not the store, generates the missing branch.
	FindChildSegment(ctx context.Context, parentID uuid.UUID, choiceID string) (*models.StorySegment, error)

	CountSegments(ctx context.Context, storyID uuid.UUID) (int, error)

	// DeleteStory cascades over segments, choice points and options.
	DeleteStory(ctx context.Context, id uuid.UUID) error
}

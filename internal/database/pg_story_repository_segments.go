package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"go.uber.org/zap"
)

const parentChoiceConstraint = "story_segments_parent_choice_key"

const insertSegmentQuery = `
INSERT INTO story_segments (id, story_id, parent_segment_id, content, choice_text, choice_id, position, has_choices, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

const insertChoicePointQuery = `
INSERT INTO choice_points (id, segment_id, situation, position)
VALUES ($1, $2, $3, $4)`

const insertChoiceOptionQuery = `
INSERT INTO choice_options (id, choice_point_id, label, option_text, outcome, position)
VALUES ($1, $2, $3, $4, $5, $6)`

const segmentColumns = `id, story_id, parent_segment_id, content, choice_text, choice_id, position, has_choices, created_at`

const getSegmentByIDQuery = `
SELECT ` + segmentColumns + `
FROM story_segments
WHERE id = $1`

const getSegmentsByStoryQuery = `
SELECT ` + segmentColumns + `
FROM story_segments
WHERE story_id = $1
ORDER BY position, created_at`

const getRootSegmentQuery = `
SELECT ` + segmentColumns + `
FROM story_segments
WHERE story_id = $1 AND parent_segment_id IS NULL`

const findChildSegmentQuery = `
SELECT ` + segmentColumns + `
FROM story_segments
WHERE parent_segment_id = $1 AND choice_id = $2`

const countSegmentsQuery = `SELECT COUNT(*) FROM story_segments WHERE story_id = $1`

const getChoicePointsQuery = `
SELECT cp.id, cp.segment_id, cp.situation, cp.position,
       co.id, co.label, co.option_text, co.outcome, co.position
FROM choice_points cp
JOIN choice_options co ON co.choice_point_id = cp.id
WHERE cp.segment_id = ANY($1)
ORDER BY cp.position, co.position`

// AppendSegments persists one or more additional segments atomically. A
// conflicting (parent, choice) pair aborts the transaction with
// models.ErrSegmentExists; the caller re-reads the winner's segment.
func (r *pgStoryRepository) AppendSegments(ctx context.Context, segments []*models.StorySegment) error {
	if len(segments) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, segment := range segments {
		if err := insertSegmentTx(ctx, tx, segment); err != nil {
			if errors.Is(err, models.ErrSegmentExists) {
				r.logger.Info("Branch already created by concurrent writer",
					zap.String("choiceID", segment.ChoiceID))
				return err
			}
			r.logger.Error("Failed to append segment", zap.Error(err), zap.String("segmentID", segment.ID.String()))
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit segment append: %w", err)
	}
	r.logger.Info("Segments appended", zap.Int("count", len(segments)))
	return nil
}

// insertSegmentTx inserts a segment with its choice points and options inside
// the given transaction.
func insertSegmentTx(ctx context.Context, tx pgx.Tx, segment *models.StorySegment) error {
	if segment.ID == uuid.Nil {
		segment.ID = uuid.New()
	}
	if segment.CreatedAt.IsZero() {
		segment.CreatedAt = time.Now()
	}

	var choiceID *string
	if segment.ChoiceID != "" {
		choiceID = &segment.ChoiceID
	}

	_, err := tx.Exec(ctx, insertSegmentQuery,
		segment.ID,
		segment.StoryID,
		segment.ParentSegmentID,
		segment.Content,
		segment.ChoiceText,
		choiceID,
		segment.Position,
		segment.HasChoices,
		segment.CreatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && pgErr.ConstraintName == parentChoiceConstraint {
			return models.ErrSegmentExists
		}
		return fmt.Errorf("failed to insert segment: %w", err)
	}

	for i := range segment.ChoicePoints {
		cp := &segment.ChoicePoints[i]
		if cp.ID == uuid.Nil {
			cp.ID = uuid.New()
		}
		cp.SegmentID = segment.ID
		if _, err := tx.Exec(ctx, insertChoicePointQuery, cp.ID, cp.SegmentID, cp.Situation, cp.Position); err != nil {
			return fmt.Errorf("failed to insert choice point: %w", err)
		}
		for _, opt := range cp.Options {
			if _, err := tx.Exec(ctx, insertChoiceOptionQuery, opt.ID, cp.ID, opt.Label, opt.Text, opt.Outcome, opt.Position); err != nil {
				return fmt.Errorf("failed to insert choice option: %w", err)
			}
		}
	}
	return nil
}

// GetSegment retrieves one segment with its choice points attached.
func (r *pgStoryRepository) GetSegment(ctx context.Context, id uuid.UUID) (*models.StorySegment, error) {
	segment, err := r.scanOneSegment(ctx, getSegmentByIDQuery, id)
	if err != nil {
		return nil, err
	}
	if err := r.attachChoicePoints(ctx, []*models.StorySegment{segment}); err != nil {
		return nil, err
	}
	return segment, nil
}

// GetRootSegment retrieves the parentless segment of a story.
func (r *pgStoryRepository) GetRootSegment(ctx context.Context, storyID uuid.UUID) (*models.StorySegment, error) {
	segment, err := r.scanOneSegment(ctx, getRootSegmentQuery, storyID)
	if err != nil {
		return nil, err
	}
	if err := r.attachChoicePoints(ctx, []*models.StorySegment{segment}); err != nil {
		return nil, err
	}
	return segment, nil
}

// FindChildSegment looks up the child produced by choiceID on the parent.
// models.ErrSegmentNotFound here is the lazy-expansion signal: the service
// generates the missing branch and appends it.
func (r *pgStoryRepository) FindChildSegment(ctx context.Context, parentID uuid.UUID, choiceID string) (*models.StorySegment, error) {
	segment, err := r.scanOneSegment(ctx, findChildSegmentQuery, parentID, choiceID)
	if err != nil {
		return nil, err
	}
	if err := r.attachChoicePoints(ctx, []*models.StorySegment{segment}); err != nil {
		return nil, err
	}
	return segment, nil
}

// GetSegments returns every segment of a story ordered by position, each with
// its choice points and options attached.
func (r *pgStoryRepository) GetSegments(ctx context.Context, storyID uuid.UUID) ([]*models.StorySegment, error) {
	rows, err := r.pool.Query(ctx, getSegmentsByStoryQuery, storyID)
	if err != nil {
		r.logger.Error("Failed to query segments", zap.Error(err), zap.String("storyID", storyID.String()))
		return nil, fmt.Errorf("failed to query segments for story %s: %w", storyID, err)
	}
	defer rows.Close()

	var segments []*models.StorySegment
	for rows.Next() {
		segment, err := scanSegmentRow(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.attachChoicePoints(ctx, segments); err != nil {
		return nil, err
	}
	return segments, nil
}

// CountSegments returns the number of segments persisted for a story.
func (r *pgStoryRepository) CountSegments(ctx context.Context, storyID uuid.UUID) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, countSegmentsQuery, storyID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count segments for story %s: %w", storyID, err)
	}
	return count, nil
}

func (r *pgStoryRepository) scanOneSegment(ctx context.Context, query string, args ...any) (*models.StorySegment, error) {
	row := r.pool.QueryRow(ctx, query, args...)
	segment, err := scanSegmentRow(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrSegmentNotFound
		}
		return nil, err
	}
	return segment, nil
}

func scanSegmentRow(row pgx.Row) (*models.StorySegment, error) {
	segment := &models.StorySegment{}
	var choiceID *string
	err := row.Scan(
		&segment.ID,
		&segment.StoryID,
		&segment.ParentSegmentID,
		&segment.Content,
		&segment.ChoiceText,
		&choiceID,
		&segment.Position,
		&segment.HasChoices,
		&segment.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan segment row: %w", err)
	}
	if choiceID != nil {
		segment.ChoiceID = *choiceID
	}
	return segment, nil
}

// attachChoicePoints loads the choice points and options for the given
// segments in one query and attaches them in order.
func (r *pgStoryRepository) attachChoicePoints(ctx context.Context, segments []*models.StorySegment) error {
	if len(segments) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, len(segments))
	byID := make(map[uuid.UUID]*models.StorySegment, len(segments))
	for i, s := range segments {
		ids[i] = s.ID
		byID[s.ID] = s
	}

	rows, err := r.pool.Query(ctx, getChoicePointsQuery, ids)
	if err != nil {
		return fmt.Errorf("failed to query choice points: %w", err)
	}
	defer rows.Close()

	pointsByID := make(map[uuid.UUID]*models.ChoicePoint)
	var order []uuid.UUID
	for rows.Next() {
		var cp models.ChoicePoint
		var opt models.ChoiceOption
		if err := rows.Scan(
			&cp.ID, &cp.SegmentID, &cp.Situation, &cp.Position,
			&opt.ID, &opt.Label, &opt.Text, &opt.Outcome, &opt.Position,
		); err != nil {
			return fmt.Errorf("failed to scan choice point row: %w", err)
		}
		point, ok := pointsByID[cp.ID]
		if !ok {
			point = &cp
			pointsByID[cp.ID] = point
			order = append(order, cp.ID)
		}
		point.Options = append(point.Options, opt)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, id := range order {
		point := pointsByID[id]
		segment := byID[point.SegmentID]
		segment.ChoicePoints = append(segment.ChoicePoints, *point)
	}
	return nil
}

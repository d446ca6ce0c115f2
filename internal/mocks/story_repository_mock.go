package mocks

import (
	"context"

	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockStoryRepository is a mock type for the StoryRepository type
type MockStoryRepository struct {
	mock.Mock
}

// CreateStory provides a mock function with given fields: ctx, story, root
func (_m *MockStoryRepository) CreateStory(ctx context.Context, story *models.SavedStory, root *models.StorySegment) error {
	ret := _m.Called(ctx, story, root)
	return ret.Error(0)
}

// AppendSegments provides a mock function with given fields: ctx, segments
func (_m *MockStoryRepository) AppendSegments(ctx context.Context, segments []*models.StorySegment) error {
	ret := _m.Called(ctx, segments)
	return ret.Error(0)
}

// GetStory provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) GetStory(ctx context.Context, id uuid.UUID) (*models.SavedStory, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.SavedStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.SavedStory)
	}

	return r0, ret.Error(1)
}

// ListByProfile provides a mock function with given fields: ctx, profileID
func (_m *MockStoryRepository) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*models.SavedStory, error) {
	ret := _m.Called(ctx, profileID)

	var r0 []*models.SavedStory
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.SavedStory)
	}

	return r0, ret.Error(1)
}

// GetSegments provides a mock function with given fields: ctx, storyID
func (_m *MockStoryRepository) GetSegments(ctx context.Context, storyID uuid.UUID) ([]*models.StorySegment, error) {
	ret := _m.Called(ctx, storyID)

	var r0 []*models.StorySegment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.StorySegment)
	}

	return r0, ret.Error(1)
}

// GetSegment provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) GetSegment(ctx context.Context, id uuid.UUID) (*models.StorySegment, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.StorySegment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StorySegment)
	}

	return r0, ret.Error(1)
}

// GetRootSegment provides a mock function with given fields: ctx, storyID
func (_m *MockStoryRepository) GetRootSegment(ctx context.Context, storyID uuid.UUID) (*models.StorySegment, error) {
	ret := _m.Called(ctx, storyID)

	var r0 *models.StorySegment
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(*models.StorySegment)
	}

	return r0, ret.Error(1)
}

// FindChildSegment provides a mock function with given fields: ctx, parentID, choiceID
func (_m *MockStoryRepository) FindChildSegment(ctx context.Context, parentID uuid.UUID, choiceID string) (*models.StorySegment, error) {
	ret := _m.Called(ctx, parentID, choiceID)

	var r0 *models.StorySegment
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID, string) *models.StorySegment); ok {
		r0 = rf(ctx, parentID, choiceID)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*models.StorySegment)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID, string) error); ok {
		r1 = rf(ctx, parentID, choiceID)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// CountSegments provides a mock function with given fields: ctx, storyID
func (_m *MockStoryRepository) CountSegments(ctx context.Context, storyID uuid.UUID) (int, error) {
	ret := _m.Called(ctx, storyID)
	return ret.Int(0), ret.Error(1)
}

// DeleteStory provides a mock function with given fields: ctx, id
func (_m *MockStoryRepository) DeleteStory(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// NewMockStoryRepository creates a new instance of MockStoryRepository. It
// also registers a testing interface on the mock.
func NewMockStoryRepository(t interface {
	mock.TestingT
	Helper()
}) *MockStoryRepository {
	m := &MockStoryRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.StoryRepository = (*MockStoryRepository)(nil)

package mocks

import (
	"context"

	"dreamweaver-server/internal/interfaces"
	"dreamweaver-server/internal/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockProfileRepository is a mock type for the ProfileRepository type
type MockProfileRepository struct {
	mock.Mock
}

// Create provides a mock function with given fields: ctx, profile
func (_m *MockProfileRepository) Create(ctx context.Context, profile *models.ChildProfile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

// GetByID provides a mock function with given fields: ctx, id
func (_m *MockProfileRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.ChildProfile, error) {
	ret := _m.Called(ctx, id)

	var r0 *models.ChildProfile
	if rf, ok := ret.Get(0).(func(context.Context, uuid.UUID) *models.ChildProfile); ok {
		r0 = rf(ctx, id)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(*models.ChildProfile)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, uuid.UUID) error); ok {
		r1 = rf(ctx, id)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Update provides a mock function with given fields: ctx, profile
func (_m *MockProfileRepository) Update(ctx context.Context, profile *models.ChildProfile) error {
	ret := _m.Called(ctx, profile)
	return ret.Error(0)
}

// Delete provides a mock function with given fields: ctx, id
func (_m *MockProfileRepository) Delete(ctx context.Context, id uuid.UUID) error {
	ret := _m.Called(ctx, id)
	return ret.Error(0)
}

// List provides a mock function with given fields: ctx
func (_m *MockProfileRepository) List(ctx context.Context) ([]*models.ChildProfile, error) {
	ret := _m.Called(ctx)

	var r0 []*models.ChildProfile
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]*models.ChildProfile)
	}

	return r0, ret.Error(1)
}

// NewMockProfileRepository creates a new instance of MockProfileRepository. It
// also registers a testing interface on the mock.
func NewMockProfileRepository(t interface {
	mock.TestingT
	Helper()
}) *MockProfileRepository {
	m := &MockProfileRepository{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ interfaces.ProfileRepository = (*MockProfileRepository)(nil)

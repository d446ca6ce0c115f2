package mocks

import (
	"context"

	"dreamweaver-server/internal/ai"
	"dreamweaver-server/internal/models"
	"dreamweaver-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockCompleter is a mock type for the Completer type
type MockCompleter struct {
	mock.Mock
}

// Complete provides a mock function with given fields: ctx, prompt, params
func (_m *MockCompleter) Complete(ctx context.Context, prompt string, params ai.CompletionParams) (ai.CompletionResult, error) {
	ret := _m.Called(ctx, prompt, params)

	var r0 ai.CompletionResult
	if rf, ok := ret.Get(0).(func(context.Context, string, ai.CompletionParams) ai.CompletionResult); ok {
		r0 = rf(ctx, prompt, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(ai.CompletionResult)
		}
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, ai.CompletionParams) error); ok {
		r1 = rf(ctx, prompt, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockCompleter creates a new instance of MockCompleter. It also registers a
// testing interface on the mock.
func NewMockCompleter(t interface {
	mock.TestingT
	Helper()
}) *MockCompleter {
	m := &MockCompleter{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.Completer = (*MockCompleter)(nil)

// MockSafetyChecker is a mock type for the SafetyChecker type
type MockSafetyChecker struct {
	mock.Mock
}

// Check provides a mock function with given fields: ctx, text, age
func (_m *MockSafetyChecker) Check(ctx context.Context, text string, age int) (models.SafetyResult, error) {
	ret := _m.Called(ctx, text, age)

	var r0 models.SafetyResult
	if rf, ok := ret.Get(0).(func(context.Context, string, int) models.SafetyResult); ok {
		r0 = rf(ctx, text, age)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(models.SafetyResult)
		}
	}

	return r0, ret.Error(1)
}

// Remediate provides a mock function with given fields: ctx, text, age, issues
func (_m *MockSafetyChecker) Remediate(ctx context.Context, text string, age int, issues []string) (string, error) {
	ret := _m.Called(ctx, text, age, issues)

	var r0 string
	if rf, ok := ret.Get(0).(func(context.Context, string, int, []string) string); ok {
		r0 = rf(ctx, text, age, issues)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(string)
		}
	}

	return r0, ret.Error(1)
}

// NewMockSafetyChecker creates a new instance of MockSafetyChecker. It also
// registers a testing interface on the mock.
func NewMockSafetyChecker(t interface {
	mock.TestingT
	Helper()
}) *MockSafetyChecker {
	m := &MockSafetyChecker{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ service.SafetyChecker = (*MockSafetyChecker)(nil)

// MockAIClient is a mock type for the ai.Client type
type MockAIClient struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, prompt, params
func (_m *MockAIClient) Generate(ctx context.Context, prompt string, params ai.GenerationParams) (string, ai.UsageInfo, error) {
	ret := _m.Called(ctx, prompt, params)

	var r0 string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).(string)
	}

	var r1 ai.UsageInfo
	if ret.Get(1) != nil {
		r1 = ret.Get(1).(ai.UsageInfo)
	}

	return r0, r1, ret.Error(2)
}

// Model provides a mock function with no fields
func (_m *MockAIClient) Model() string {
	ret := _m.Called()
	return ret.String(0)
}

// NewMockAIClient creates a new instance of MockAIClient. It also registers a
// testing interface on the mock.
func NewMockAIClient(t interface {
	mock.TestingT
	Helper()
}) *MockAIClient {
	m := &MockAIClient{}
	m.Mock.Test(t)
	t.Helper()
	return m
}

var _ ai.Client = (*MockAIClient)(nil)

package schedulertest

import (
	"time"

	"github.com/rworsnop/vertx-concurrent/scheduler"
	"github.com/stretchr/testify/mock"
)

// Mock is a stretchr mock for a scheduler.  In addition to implementing
// scheduler.Interface and supplying mock behavior, other methods that make
// mocking a bit easier are supplied.
type Mock struct {
	mock.Mock
}

var _ scheduler.Interface = (*Mock)(nil)

func (m *Mock) Current() scheduler.Context {
	return m.Called().Get(0).(scheduler.Context)
}

func (m *Mock) OnCurrent(c scheduler.Context) *mock.Call {
	return m.On("Current").Return(c)
}

func (m *Mock) NewTimer(d time.Duration, action func()) scheduler.Timer {
	return m.Called(d, action).Get(0).(scheduler.Timer)
}

func (m *Mock) OnNewTimer(d time.Duration, t scheduler.Timer) *mock.Call {
	return m.On("NewTimer", d, mock.AnythingOfType("func()")).Return(t)
}

// MockContext is a stretchr mock for the scheduler.Context interface
type MockContext struct {
	mock.Mock
}

var _ scheduler.Context = (*MockContext)(nil)

func (m *MockContext) Post(action func()) {
	m.Called(action)
}

func (m *MockContext) OnPost() *mock.Call {
	return m.On("Post", mock.AnythingOfType("func()"))
}

// MockTimer is a stretchr mock for the scheduler.Timer interface
type MockTimer struct {
	mock.Mock
}

var _ scheduler.Timer = (*MockTimer)(nil)

func (m *MockTimer) Cancel() {
	m.Called()
}

func (m *MockTimer) OnCancel() *mock.Call {
	return m.On("Cancel")
}

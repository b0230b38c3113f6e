package mocks

import (
	"github.com/stretchr/testify/mock"

	"github.com/escrow-express/deal-bot/internal/engine"
)

// MockNotifier is a mock implementation of engine.Notifier
type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) SendGroup(text string) {
	m.Called(text)
}

func (m *MockNotifier) SendGroupKeyboard(text string, buttons []engine.Button) {
	m.Called(text, buttons)
}

func (m *MockNotifier) SendLog(text string) {
	m.Called(text)
}

func (m *MockNotifier) SendHandle(handle, text string) {
	m.Called(handle, text)
}

func (m *MockNotifier) SendUser(userID int64, text string) {
	m.Called(userID, text)
}

package identity

import (
	"context"
	"sync/atomic"
)

// MockIDReader implements IDReader for testing.
type MockIDReader struct {
	IDValue string
	IDErr   error

	calls atomic.Int32
}

// NewMockIDReader creates a MockIDReader returning a fixed identifier.
func NewMockIDReader() *MockIDReader {
	return &MockIDReader{
		IDValue: "9774d56d682e549c",
	}
}

func (m *MockIDReader) GetID(_ context.Context) (string, error) {
	m.calls.Add(1)
	if m.IDErr != nil {
		return "", m.IDErr
	}
	return m.IDValue, nil
}

// Calls returns how many times GetID was invoked.
func (m *MockIDReader) Calls() int {
	return int(m.calls.Load())
}

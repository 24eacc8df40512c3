package model

import (
	"context"
	"sync"
)

// MockModel replays scripted responses in order and records every request it
// receives. When the script runs out it repeats the last response, or
// returns an empty response if no script was given. Safe for concurrent use.
type MockModel struct {
	mu        sync.Mutex
	responses []Response
	err       error
	requests  []Request
	index     int
}

// NewMockModel scripts the given responses.
func NewMockModel(responses ...Response) *MockModel {
	return &MockModel{responses: responses}
}

// NewMockModelError makes every Generate call fail with err.
func NewMockModelError(err error) *MockModel {
	return &MockModel{err: err}
}

func (m *MockModel) Generate(_ context.Context, req Request) (Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return Response{}, m.err
	}
	if len(m.responses) == 0 {
		return Response{}, nil
	}

	resp := m.responses[m.index]
	if m.index < len(m.responses)-1 {
		m.index++
	}
	return resp, nil
}

// Requests returns a copy of every request seen so far.
func (m *MockModel) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// CallCount returns how many times Generate was invoked.
func (m *MockModel) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *MockModel) Info() Info {
	return Info{Name: "mock", Provider: "mock", SupportsTools: true}
}

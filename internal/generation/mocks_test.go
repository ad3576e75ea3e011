package generation

import (
	"context"
	"encoding/json"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/xkilldash9x/easel-cli/api/schemas"
)

var (
	_ schemas.PageSession    = (*MockPageSession)(nil)
	_ schemas.BrowserManager = (*MockBrowserManager)(nil)
)

// -- Page Session Mock --

// MockPageSession mocks the schemas.PageSession interface the pipeline
// components drive.
type MockPageSession struct {
	mock.Mock
}

func (m *MockPageSession) ID() string {
	args := m.Called()
	return args.String(0)
}

func (m *MockPageSession) SetContent(ctx context.Context, html string) error {
	args := m.Called(ctx, html)
	return args.Error(0)
}

func (m *MockPageSession) Evaluate(ctx context.Context, expression string) (json.RawMessage, error) {
	args := m.Called(ctx, expression)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockPageSession) EvaluateAsync(ctx context.Context, expression string) (json.RawMessage, error) {
	args := m.Called(ctx, expression)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(json.RawMessage), args.Error(1)
}

func (m *MockPageSession) WaitForExpression(ctx context.Context, expression string, timeout time.Duration) error {
	args := m.Called(ctx, expression, timeout)
	return args.Error(0)
}

func (m *MockPageSession) ConsoleLogs() []schemas.ConsoleLog {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]schemas.ConsoleLog)
}

func (m *MockPageSession) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// newMockSession returns a session mock with the bookkeeping methods already
// stubbed, so individual tests only describe the calls they care about.
// Close is deliberately not stubbed: teardown is part of every pipeline
// contract and each test states its expectation explicitly.
func newMockSession() *MockPageSession {
	s := &MockPageSession{}
	s.On("ID").Return("mock-session").Maybe()
	s.On("ConsoleLogs").Return(nil).Maybe()
	return s
}

// -- Browser Manager Mock --

// MockBrowserManager mocks the schemas.BrowserManager interface.
type MockBrowserManager struct {
	mock.Mock
}

func (m *MockBrowserManager) NewSession(ctx context.Context) (schemas.PageSession, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(schemas.PageSession), args.Error(1)
}

func (m *MockBrowserManager) Shutdown(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// managerFor hands out exactly one session.
func managerFor(s schemas.PageSession) *MockBrowserManager {
	m := &MockBrowserManager{}
	m.On("NewSession", mock.Anything).Return(s, nil).Once()
	return m
}

// -- Raw Protocol Payload Helpers --

// rawSnapshot encodes a poll snapshot the way the page's snapshot expression
// returns it over the protocol.
func rawSnapshot(ready, hasData bool, errMsg string) json.RawMessage {
	b, err := json.Marshal(schemas.PollSnapshot{Ready: ready, HasData: hasData, Error: errMsg})
	if err != nil {
		panic(err)
	}
	return b
}

// rawString encodes a bare string evaluation result.
func rawString(s string) json.RawMessage {
	b, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return b
}

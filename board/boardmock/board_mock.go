// Copyright (C) 2025, Sequent Technologies. All rights reserved.
// See the file LICENSE for licensing terms.

// Package boardmock provides a mock for board.Client, in the shape
// mockgen would generate for it, for tests that need to assert on the
// exact calls a session makes rather than run a full in-memory board.
package boardmock

import (
	"context"
	"reflect"

	"go.uber.org/mock/gomock"

	"github.com/sequentech/braid/board"
)

// MockClient is a mock of the board.Client interface.
type MockClient struct {
	ctrl     *gomock.Controller
	recorder *MockClientMockRecorder
}

// MockClientMockRecorder is the mock recorder for MockClient.
type MockClientMockRecorder struct {
	mock *MockClient
}

// NewMockClient creates a new mock instance.
func NewMockClient(ctrl *gomock.Controller) *MockClient {
	mock := &MockClient{ctrl: ctrl}
	mock.recorder = &MockClientMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockClient) EXPECT() *MockClientMockRecorder {
	return m.recorder
}

// GetBoards mocks base method.
func (m *MockClient) GetBoards(ctx context.Context) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetBoards", ctx)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetBoards indicates an expected call of GetBoards.
func (mr *MockClientMockRecorder) GetBoards(ctx interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetBoards", reflect.TypeOf((*MockClient)(nil).GetBoards), ctx)
}

// GetMessagesMulti mocks base method.
func (m *MockClient) GetMessagesMulti(ctx context.Context, cursors []board.Cursor) ([]board.BoardMessages, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "GetMessagesMulti", ctx, cursors)
	ret0, _ := ret[0].([]board.BoardMessages)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// GetMessagesMulti indicates an expected call of GetMessagesMulti.
func (mr *MockClientMockRecorder) GetMessagesMulti(ctx, cursors interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "GetMessagesMulti", reflect.TypeOf((*MockClient)(nil).GetMessagesMulti), ctx, cursors)
}

// PutMessagesMulti mocks base method.
func (m *MockClient) PutMessagesMulti(ctx context.Context, batches []board.BoardMessages) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "PutMessagesMulti", ctx, batches)
	ret0, _ := ret[0].(error)
	return ret0
}

// PutMessagesMulti indicates an expected call of PutMessagesMulti.
func (mr *MockClientMockRecorder) PutMessagesMulti(ctx, batches interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "PutMessagesMulti", reflect.TypeOf((*MockClient)(nil).PutMessagesMulti), ctx, batches)
}

var _ board.Client = (*MockClient)(nil)

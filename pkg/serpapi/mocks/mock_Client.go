// Package mocks provides test doubles for the serpapi client.
package mocks

import (
	"context"
	"encoding/json"
	"net/url"

	mock "github.com/stretchr/testify/mock"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, engine, params
func (_m *MockClient) Search(ctx context.Context, engine string, params url.Values) (json.RawMessage, error) {
	ret := _m.Called(ctx, engine, params)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 json.RawMessage
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, url.Values) (json.RawMessage, error)); ok {
		return rf(ctx, engine, params)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, url.Values) json.RawMessage); ok {
		r0 = rf(ctx, engine, params)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).(json.RawMessage)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, url.Values) error); ok {
		r1 = rf(ctx, engine, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockClient creates a new instance of MockClient.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

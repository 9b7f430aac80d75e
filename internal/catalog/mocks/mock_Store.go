// Package mocks provides test doubles for the catalog store.
package mocks

import (
	"context"

	mock "github.com/stretchr/testify/mock"

	"github.com/sells-group/catalog-verify/internal/model"
)

// MockStore is a mock type for the catalog.Store interface.
type MockStore struct {
	mock.Mock
}

// FetchByUPC provides a mock function with given fields: ctx, keys
func (_m *MockStore) FetchByUPC(ctx context.Context, keys []string) ([]model.CatalogRecord, error) {
	ret := _m.Called(ctx, keys)

	if len(ret) == 0 {
		panic("no return value specified for FetchByUPC")
	}

	var r0 []model.CatalogRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []string) ([]model.CatalogRecord, error)); ok {
		return rf(ctx, keys)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []string) []model.CatalogRecord); ok {
		r0 = rf(ctx, keys)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.CatalogRecord)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, []string) error); ok {
		r1 = rf(ctx, keys)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// ScanPage provides a mock function with given fields: ctx, afterID, limit
func (_m *MockStore) ScanPage(ctx context.Context, afterID string, limit int) ([]model.CatalogRecord, error) {
	ret := _m.Called(ctx, afterID, limit)

	if len(ret) == 0 {
		panic("no return value specified for ScanPage")
	}

	var r0 []model.CatalogRecord
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, string, int) ([]model.CatalogRecord, error)); ok {
		return rf(ctx, afterID, limit)
	}
	if rf, ok := ret.Get(0).(func(context.Context, string, int) []model.CatalogRecord); ok {
		r0 = rf(ctx, afterID, limit)
	} else {
		if ret.Get(0) != nil {
			r0 = ret.Get(0).([]model.CatalogRecord)
		}
	}

	if rf, ok := ret.Get(1).(func(context.Context, string, int) error); ok {
		r1 = rf(ctx, afterID, limit)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Count provides a mock function with given fields: ctx
func (_m *MockStore) Count(ctx context.Context) (int, error) {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Count")
	}

	var r0 int
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context) (int, error)); ok {
		return rf(ctx)
	}
	if rf, ok := ret.Get(0).(func(context.Context) int); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Get(0).(int)
	}

	if rf, ok := ret.Get(1).(func(context.Context) error); ok {
		r1 = rf(ctx)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Insert provides a mock function with given fields: ctx, records
func (_m *MockStore) Insert(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	ret := _m.Called(ctx, records)

	if len(ret) == 0 {
		panic("no return value specified for Insert")
	}

	var r0 int64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.CatalogRecord) (int64, error)); ok {
		return rf(ctx, records)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []model.CatalogRecord) int64); ok {
		r0 = rf(ctx, records)
	} else {
		r0 = ret.Get(0).(int64)
	}

	if rf, ok := ret.Get(1).(func(context.Context, []model.CatalogRecord) error); ok {
		r1 = rf(ctx, records)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Replace provides a mock function with given fields: ctx, records
func (_m *MockStore) Replace(ctx context.Context, records []model.CatalogRecord) (int64, error) {
	ret := _m.Called(ctx, records)

	if len(ret) == 0 {
		panic("no return value specified for Replace")
	}

	var r0 int64
	var r1 error
	if rf, ok := ret.Get(0).(func(context.Context, []model.CatalogRecord) (int64, error)); ok {
		return rf(ctx, records)
	}
	if rf, ok := ret.Get(0).(func(context.Context, []model.CatalogRecord) int64); ok {
		r0 = rf(ctx, records)
	} else {
		r0 = ret.Get(0).(int64)
	}

	if rf, ok := ret.Get(1).(func(context.Context, []model.CatalogRecord) error); ok {
		r1 = rf(ctx, records)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// Migrate provides a mock function with given fields: ctx
func (_m *MockStore) Migrate(ctx context.Context) error {
	ret := _m.Called(ctx)

	if len(ret) == 0 {
		panic("no return value specified for Migrate")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func(context.Context) error); ok {
		r0 = rf(ctx)
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// Close provides a mock function with given fields:
func (_m *MockStore) Close() error {
	ret := _m.Called()

	if len(ret) == 0 {
		panic("no return value specified for Close")
	}

	var r0 error
	if rf, ok := ret.Get(0).(func() error); ok {
		r0 = rf()
	} else {
		r0 = ret.Error(0)
	}

	return r0
}

// NewMockStore creates a new instance of MockStore.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockStore {
	mock := &MockStore{}
	mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}

// Package mocks provides shared test doubles for the store interfaces.
//
// MemoryDB is a working in-memory database that implements every store and
// store.Transactor; use it for scenario tests that need real persistence
// behavior. The Testify* types are testify/mock doubles for injecting
// failures:
//
//	tasks := &mocks.TestifyMockTaskStore{}
//	tasks.On("GetByID", mock.Anything, id).Return(nil, errors.New("connection reset"))
package mocks

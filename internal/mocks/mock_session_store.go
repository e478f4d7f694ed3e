package mocks

import (
	"context"

	"github.com/you/shopauthsvc/domain"
)

// MockSessionStore implements domain.SessionStore interface for testing
type MockSessionStore struct {
	NewIDFunc   func() (string, error)
	GetFunc     func(ctx context.Context, id string) (*domain.Session, error)
	MutateFunc  func(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error)
	TakeFunc    func(ctx context.Context, id string) (domain.Cart, error)
	RestoreFunc func(ctx context.Context, id string, cart domain.Cart) error
	DestroyFunc func(ctx context.Context, id string) error
}

// NewMockSessionStore creates a new MockSessionStore with default behaviors
func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{}
}

func (m *MockSessionStore) NewID() (string, error) {
	if m.NewIDFunc != nil {
		return m.NewIDFunc()
	}
	return "test-session-id", nil
}

func (m *MockSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionStore) Mutate(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error) {
	if m.MutateFunc != nil {
		return m.MutateFunc(ctx, id, op)
	}
	// Default behavior: apply op to an empty cart
	return &domain.Session{ID: id, Cart: op(domain.Cart{})}, nil
}

func (m *MockSessionStore) Take(ctx context.Context, id string) (domain.Cart, error) {
	if m.TakeFunc != nil {
		return m.TakeFunc(ctx, id)
	}
	return nil, domain.ErrSessionNotFound
}

func (m *MockSessionStore) Restore(ctx context.Context, id string, cart domain.Cart) error {
	if m.RestoreFunc != nil {
		return m.RestoreFunc(ctx, id, cart)
	}
	return nil
}

func (m *MockSessionStore) Destroy(ctx context.Context, id string) error {
	if m.DestroyFunc != nil {
		return m.DestroyFunc(ctx, id)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.SessionStore = (*MockSessionStore)(nil)

package mocks

import (
	"context"

	"github.com/you/shopauthsvc/domain"
)

// MockOrderRepository implements domain.OrderRepository interface for testing
type MockOrderRepository struct {
	CreateFunc               func(ctx context.Context, order *domain.Order) error
	FindByIDFunc             func(ctx context.Context, id string) (*domain.Order, error)
	FindByIdempotencyKeyFunc func(ctx context.Context, key string) (*domain.Order, error)
	UpdateStatusFunc         func(ctx context.Context, id string, next domain.OrderStatus) error
}

// NewMockOrderRepository creates a new MockOrderRepository with default behaviors
func NewMockOrderRepository() *MockOrderRepository {
	return &MockOrderRepository{}
}

func (m *MockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, order)
	}
	return nil
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) FindByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	if m.FindByIdempotencyKeyFunc != nil {
		return m.FindByIdempotencyKeyFunc(ctx, key)
	}
	return nil, domain.ErrOrderNotFound
}

func (m *MockOrderRepository) UpdateStatus(ctx context.Context, id string, next domain.OrderStatus) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, id, next)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.OrderRepository = (*MockOrderRepository)(nil)

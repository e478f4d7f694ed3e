package mocks

import (
	"context"

	"github.com/you/shopauthsvc/domain"
)

// MockProductCatalog implements domain.ProductCatalog interface for testing
type MockProductCatalog struct {
	LookupFunc func(ctx context.Context, ref string) (*domain.Product, error)

	// Products is consulted by the default Lookup behavior
	Products map[string]*domain.Product
}

// NewMockProductCatalog creates a new MockProductCatalog with default behaviors
func NewMockProductCatalog() *MockProductCatalog {
	return &MockProductCatalog{Products: map[string]*domain.Product{}}
}

func (m *MockProductCatalog) Lookup(ctx context.Context, ref string) (*domain.Product, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, ref)
	}
	if p, ok := m.Products[ref]; ok {
		return p, nil
	}
	return nil, domain.ErrProductUnavailable
}

// Compile-time interface compliance verification
var _ domain.ProductCatalog = (*MockProductCatalog)(nil)

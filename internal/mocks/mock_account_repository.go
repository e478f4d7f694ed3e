package mocks

import (
	"context"

	"github.com/you/shopauthsvc/domain"
)

// MockAccountRepository implements domain.AccountRepository interface for testing
type MockAccountRepository struct {
	CreateFunc            func(ctx context.Context, account *domain.Account) error
	FindByEmailFunc       func(ctx context.Context, email string) (*domain.Account, error)
	FindByIDFunc          func(ctx context.Context, id uint) (*domain.Account, error)
	MarkEmailVerifiedFunc func(ctx context.Context, id uint) error
	UpdatePasswordFunc    func(ctx context.Context, id uint, passwordHash string) error

	GetCartFunc        func(ctx context.Context, accountID uint) (domain.Cart, error)
	AddToCartFunc      func(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error)
	SetCartItemFunc    func(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error)
	RemoveFromCartFunc func(ctx context.Context, accountID uint, ref string) (domain.Cart, error)
	MergeCartFunc      func(ctx context.Context, accountID uint, items domain.Cart) error
	ClearCartFunc      func(ctx context.Context, accountID uint) error
}

// NewMockAccountRepository creates a new MockAccountRepository with default behaviors
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, account)
	}
	// Default behavior: success
	return nil
}

func (m *MockAccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	if m.FindByEmailFunc != nil {
		return m.FindByEmailFunc(ctx, email)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) FindByID(ctx context.Context, id uint) (*domain.Account, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, id)
	}
	// Default behavior: not found
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) MarkEmailVerified(ctx context.Context, id uint) error {
	if m.MarkEmailVerifiedFunc != nil {
		return m.MarkEmailVerifiedFunc(ctx, id)
	}
	return nil
}

func (m *MockAccountRepository) UpdatePassword(ctx context.Context, id uint, passwordHash string) error {
	if m.UpdatePasswordFunc != nil {
		return m.UpdatePasswordFunc(ctx, id, passwordHash)
	}
	return nil
}

func (m *MockAccountRepository) GetCart(ctx context.Context, accountID uint) (domain.Cart, error) {
	if m.GetCartFunc != nil {
		return m.GetCartFunc(ctx, accountID)
	}
	// Default behavior: empty cart
	return domain.Cart{}, nil
}

func (m *MockAccountRepository) AddToCart(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error) {
	if m.AddToCartFunc != nil {
		return m.AddToCartFunc(ctx, accountID, ref, qty)
	}
	return domain.Cart{{ProductRef: ref, Quantity: qty}}, nil
}

func (m *MockAccountRepository) SetCartItem(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error) {
	if m.SetCartItemFunc != nil {
		return m.SetCartItemFunc(ctx, accountID, ref, qty)
	}
	return domain.Cart{{ProductRef: ref, Quantity: qty}}, nil
}

func (m *MockAccountRepository) RemoveFromCart(ctx context.Context, accountID uint, ref string) (domain.Cart, error) {
	if m.RemoveFromCartFunc != nil {
		return m.RemoveFromCartFunc(ctx, accountID, ref)
	}
	return domain.Cart{}, nil
}

func (m *MockAccountRepository) MergeCart(ctx context.Context, accountID uint, items domain.Cart) error {
	if m.MergeCartFunc != nil {
		return m.MergeCartFunc(ctx, accountID, items)
	}
	return nil
}

func (m *MockAccountRepository) ClearCart(ctx context.Context, accountID uint) error {
	if m.ClearCartFunc != nil {
		return m.ClearCartFunc(ctx, accountID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.AccountRepository = (*MockAccountRepository)(nil)

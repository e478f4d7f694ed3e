package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/you/shopauthsvc/domain"
)

func errUnknownOwner(owner domain.CartOwner) error {
	return fmt.Errorf("unknown cart owner type %T", owner)
}

// CartServiceImpl implements domain.CartService. All operations resolve the
// cart through the CartOwner abstraction, so guest and account carts share
// one code path at every call site.
type CartServiceImpl struct {
	sessions domain.SessionStore
	accounts domain.AccountRepository
}

// NewCartService creates a new cart service
func NewCartService(sessions domain.SessionStore, accounts domain.AccountRepository) domain.CartService {
	return &CartServiceImpl{
		sessions: sessions,
		accounts: accounts,
	}
}

// GetCart implements domain.CartService. An unknown or expired guest
// session reads as an empty cart; absence is a normal branch here, never an
// error, and reading never creates a record.
func (s *CartServiceImpl) GetCart(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	switch o := owner.(type) {
	case domain.GuestOwner:
		session, err := s.sessions.Get(ctx, o.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return domain.Cart{}, nil
			}
			return nil, err
		}
		return session.Cart, nil
	case domain.AccountOwner:
		return s.accounts.GetCart(ctx, o.AccountID)
	}
	return nil, errUnknownOwner(owner)
}

// AddItem implements domain.CartService
func (s *CartServiceImpl) AddItem(ctx context.Context, owner domain.CartOwner, ref string, qty int) (domain.Cart, error) {
	if qty <= 0 {
		return nil, domain.ErrInvalidQuantity
	}

	switch o := owner.(type) {
	case domain.GuestOwner:
		session, err := s.sessions.Mutate(ctx, o.SessionID, func(c domain.Cart) domain.Cart {
			return c.WithItem(ref, c.Quantity(ref)+qty)
		})
		if err != nil {
			return nil, err
		}
		return session.Cart, nil
	case domain.AccountOwner:
		return s.accounts.AddToCart(ctx, o.AccountID, ref, qty)
	}
	return nil, errUnknownOwner(owner)
}

// UpdateItem implements domain.CartService. A non-positive quantity removes
// the line rather than being rejected.
func (s *CartServiceImpl) UpdateItem(ctx context.Context, owner domain.CartOwner, ref string, qty int) (domain.Cart, error) {
	switch o := owner.(type) {
	case domain.GuestOwner:
		session, err := s.sessions.Mutate(ctx, o.SessionID, func(c domain.Cart) domain.Cart {
			return c.WithItem(ref, qty)
		})
		if err != nil {
			return nil, err
		}
		return session.Cart, nil
	case domain.AccountOwner:
		return s.accounts.SetCartItem(ctx, o.AccountID, ref, qty)
	}
	return nil, errUnknownOwner(owner)
}

// RemoveItem implements domain.CartService
func (s *CartServiceImpl) RemoveItem(ctx context.Context, owner domain.CartOwner, ref string) (domain.Cart, error) {
	switch o := owner.(type) {
	case domain.GuestOwner:
		session, err := s.sessions.Mutate(ctx, o.SessionID, func(c domain.Cart) domain.Cart {
			return c.WithItem(ref, 0)
		})
		if err != nil {
			return nil, err
		}
		return session.Cart, nil
	case domain.AccountOwner:
		return s.accounts.RemoveFromCart(ctx, o.AccountID, ref)
	}
	return nil, errUnknownOwner(owner)
}

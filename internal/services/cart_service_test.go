package services

import (
	"context"
	"errors"
	"testing"

	"github.com/you/shopauthsvc/domain"
	"github.com/you/shopauthsvc/internal/mocks"
)

func newCartService() (*mocks.MockSessionStore, *mocks.MockAccountRepository, domain.CartService) {
	sessions := mocks.NewMockSessionStore()
	accounts := mocks.NewMockAccountRepository()
	return sessions, accounts, NewCartService(sessions, accounts)
}

func TestCartServiceImpl_GetCart_GuestAbsenceReadsEmpty(t *testing.T) {
	_, _, svc := newCartService()

	// Default store behavior: session not found
	cart, err := svc.GetCart(context.Background(), domain.GuestOwner{SessionID: "gone"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected empty cart, got %v", cart)
	}
}

func TestCartServiceImpl_GetCart_GuestFaultSurfaces(t *testing.T) {
	sessions, _, svc := newCartService()
	sessions.GetFunc = func(ctx context.Context, id string) (*domain.Session, error) {
		return nil, domain.ErrStoreUnavailable
	}

	if _, err := svc.GetCart(context.Background(), domain.GuestOwner{SessionID: "s"}); !errors.Is(err, domain.ErrStoreUnavailable) {
		t.Errorf("expected ErrStoreUnavailable, got %v", err)
	}
}

func TestCartServiceImpl_AddItem(t *testing.T) {
	t.Run("guest add sums into existing line", func(t *testing.T) {
		sessions, _, svc := newCartService()
		sessions.MutateFunc = func(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error) {
			return &domain.Session{ID: id, Cart: op(domain.Cart{{ProductRef: "sku-1", Quantity: 2}})}, nil
		}

		cart, err := svc.AddItem(context.Background(), domain.GuestOwner{SessionID: "s"}, "sku-1", 3)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cart.Quantity("sku-1") != 5 {
			t.Errorf("expected quantity 5, got %d", cart.Quantity("sku-1"))
		}
	})

	t.Run("account add delegates to repository", func(t *testing.T) {
		_, accounts, svc := newCartService()
		var gotRef string
		var gotQty int
		accounts.AddToCartFunc = func(ctx context.Context, accountID uint, ref string, qty int) (domain.Cart, error) {
			gotRef, gotQty = ref, qty
			return domain.Cart{{ProductRef: ref, Quantity: qty}}, nil
		}

		if _, err := svc.AddItem(context.Background(), domain.AccountOwner{AccountID: 7}, "sku-1", 2); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gotRef != "sku-1" || gotQty != 2 {
			t.Errorf("expected sku-1 x2, got %s x%d", gotRef, gotQty)
		}
	})

	t.Run("non-positive quantity is rejected for any owner", func(t *testing.T) {
		_, _, svc := newCartService()
		for _, owner := range []domain.CartOwner{domain.GuestOwner{SessionID: "s"}, domain.AccountOwner{AccountID: 7}} {
			if _, err := svc.AddItem(context.Background(), owner, "sku-1", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
				t.Errorf("owner %T: expected ErrInvalidQuantity, got %v", owner, err)
			}
		}
	})
}

func TestCartServiceImpl_UpdateItem_ZeroRemovesLine(t *testing.T) {
	sessions, _, svc := newCartService()
	sessions.MutateFunc = func(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error) {
		return &domain.Session{ID: id, Cart: op(domain.Cart{{ProductRef: "sku-1", Quantity: 2}})}, nil
	}

	cart, err := svc.UpdateItem(context.Background(), domain.GuestOwner{SessionID: "s"}, "sku-1", 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !cart.IsEmpty() {
		t.Errorf("expected line removed, got %v", cart)
	}
}

func TestCartServiceImpl_RemoveItem(t *testing.T) {
	sessions, _, svc := newCartService()
	sessions.MutateFunc = func(ctx context.Context, id string, op func(domain.Cart) domain.Cart) (*domain.Session, error) {
		return &domain.Session{ID: id, Cart: op(domain.Cart{
			{ProductRef: "sku-1", Quantity: 2},
			{ProductRef: "sku-2", Quantity: 1},
		})}, nil
	}

	cart, err := svc.RemoveItem(context.Background(), domain.GuestOwner{SessionID: "s"}, "sku-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cart.Quantity("sku-1") != 0 || cart.Quantity("sku-2") != 1 {
		t.Errorf("expected only sku-2 to remain, got %v", cart)
	}
}

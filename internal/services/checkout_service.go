package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
)

// CheckoutServiceImpl implements domain.CheckoutService. The effect order
// is fixed: snapshot and price the cart, create the order as pending, clear
// the source cart. A crash after order creation is resolved by re-querying
// the idempotency key on retry, never by re-running checkout against the
// stale cart.
type CheckoutServiceImpl struct {
	sessions domain.SessionStore
	accounts domain.AccountRepository
	catalog  domain.ProductCatalog
	orders   domain.OrderRepository
	logger   zerolog.Logger
}

// NewCheckoutService creates a new checkout service
func NewCheckoutService(
	sessions domain.SessionStore,
	accounts domain.AccountRepository,
	catalog domain.ProductCatalog,
	orders domain.OrderRepository,
	logger zerolog.Logger,
) domain.CheckoutService {
	return &CheckoutServiceImpl{
		sessions: sessions,
		accounts: accounts,
		catalog:  catalog,
		orders:   orders,
		logger:   logger,
	}
}

// Checkout implements domain.CheckoutService
func (s *CheckoutServiceImpl) Checkout(ctx context.Context, owner domain.CartOwner, shipping domain.ShippingInfo, paymentMethod, guestEmail, idempotencyKey string) (*domain.Order, error) {
	if idempotencyKey != "" {
		existing, err := s.orders.FindByIdempotencyKey(ctx, idempotencyKey)
		if err == nil {
			return existing, nil
		}
		if !errors.Is(err, domain.ErrOrderNotFound) {
			return nil, err
		}
	}

	if owner.IsGuest() && guestEmail == "" {
		return nil, domain.ErrGuestEmailRequired
	}

	cart, err := s.resolveCart(ctx, owner)
	if err != nil {
		return nil, err
	}
	cart = cart.Normalize()
	if cart.IsEmpty() {
		return nil, domain.ErrEmptyCart
	}

	lineItems, total, err := s.priceCart(ctx, cart)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		ID:             uuid.NewString(),
		LineItems:      lineItems,
		TotalAmount:    total,
		Status:         domain.OrderPending,
		Shipping:       shipping,
		PaymentMethod:  paymentMethod,
		IdempotencyKey: idempotencyKey,
	}
	switch o := owner.(type) {
	case domain.GuestOwner:
		order.GuestEmail = guestEmail
	case domain.AccountOwner:
		id := o.AccountID
		order.OwnerRef = &id
	}

	if err := s.orders.Create(ctx, order); err != nil {
		if errors.Is(err, domain.ErrDuplicateIdempotencyKey) && idempotencyKey != "" {
			// Lost a race with a concurrent submission of the same key
			return s.orders.FindByIdempotencyKey(ctx, idempotencyKey)
		}
		return nil, err
	}

	// The order already exists; a failed clear must not fail checkout.
	// Retrying with the same idempotency key resolves against the order,
	// not the stale cart.
	if err := s.clearCart(ctx, owner); err != nil {
		s.logger.Error().
			Err(err).
			Str("order_id", order.ID).
			Str("owner", owner.OwnerKey()).
			Msg("failed to clear cart after order creation")
	}

	s.logger.Info().
		Str("order_id", order.ID).
		Str("owner", owner.OwnerKey()).
		Int64("total_amount", order.TotalAmount).
		Msg("order created")

	return order, nil
}

func (s *CheckoutServiceImpl) resolveCart(ctx context.Context, owner domain.CartOwner) (domain.Cart, error) {
	switch o := owner.(type) {
	case domain.GuestOwner:
		session, err := s.sessions.Get(ctx, o.SessionID)
		if err != nil {
			if errors.Is(err, domain.ErrSessionNotFound) {
				return nil, domain.ErrEmptyCart
			}
			return nil, err
		}
		return session.Cart, nil
	case domain.AccountOwner:
		return s.accounts.GetCart(ctx, o.AccountID)
	}
	return nil, errUnknownOwner(owner)
}

// priceCart snapshots every line against the catalog. Any unavailable line
// fails the whole checkout; nothing has been written yet at this point.
func (s *CheckoutServiceImpl) priceCart(ctx context.Context, cart domain.Cart) ([]domain.LineItem, int64, error) {
	lineItems := make([]domain.LineItem, 0, len(cart))
	var total int64
	for _, it := range cart {
		product, err := s.catalog.Lookup(ctx, it.ProductRef)
		if err != nil {
			if errors.Is(err, domain.ErrProductUnavailable) {
				return nil, 0, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, it.ProductRef)
			}
			return nil, 0, err
		}
		if !product.Available {
			return nil, 0, fmt.Errorf("%w: %s", domain.ErrProductUnavailable, it.ProductRef)
		}

		lineItems = append(lineItems, domain.LineItem{
			ProductRef: product.Ref,
			Name:       product.Name,
			UnitPrice:  product.UnitPrice,
			Quantity:   it.Quantity,
		})
		total += product.UnitPrice * int64(it.Quantity)
	}
	return lineItems, total, nil
}

func (s *CheckoutServiceImpl) clearCart(ctx context.Context, owner domain.CartOwner) error {
	switch o := owner.(type) {
	case domain.GuestOwner:
		return s.sessions.Destroy(ctx, o.SessionID)
	case domain.AccountOwner:
		return s.accounts.ClearCart(ctx, o.AccountID)
	}
	return errUnknownOwner(owner)
}

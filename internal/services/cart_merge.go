package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
)

// CartMergerImpl implements domain.CartMerger. Registration and login both
// run through here so the invariant "accounts never silently lose a guest
// cart" lives in exactly one place.
type CartMergerImpl struct {
	sessions domain.SessionStore
	accounts domain.AccountRepository
	logger   zerolog.Logger
}

// NewCartMerger creates a new cart merge engine
func NewCartMerger(sessions domain.SessionStore, accounts domain.AccountRepository, logger zerolog.Logger) domain.CartMerger {
	return &CartMergerImpl{
		sessions: sessions,
		accounts: accounts,
		logger:   logger,
	}
}

// MergeSessionIntoAccount implements domain.CartMerger. Take removes the
// session cart atomically, so at most one merge ever executes per session:
// a concurrent login racing on the same session observes the post-merge
// ErrSessionNotFound and treats the work as already done.
func (m *CartMergerImpl) MergeSessionIntoAccount(ctx context.Context, sessionID string, accountID uint) error {
	if sessionID == "" {
		return nil
	}

	guestCart, err := m.sessions.Take(ctx, sessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			// Already merged, or the session expired. Nothing to do.
			return nil
		}
		return err
	}

	guestCart = guestCart.Normalize()
	if guestCart.IsEmpty() {
		return nil
	}

	if err := m.accounts.MergeCart(ctx, accountID, guestCart); err != nil {
		// The session cart was already taken; put it back so the items
		// survive a retry instead of vanishing with the failed write.
		if rerr := m.sessions.Restore(ctx, sessionID, guestCart); rerr != nil {
			m.logger.Error().
				Err(rerr).
				Str("session_id", sessionID).
				Uint("account_id", accountID).
				Msg("failed to restore guest cart after merge failure")
		}
		return fmt.Errorf("failed to merge cart into account %d: %w", accountID, err)
	}

	m.logger.Info().
		Str("session_id", sessionID).
		Uint("account_id", accountID).
		Int("lines", len(guestCart)).
		Msg("guest cart merged into account")

	return nil
}

package mocks

import (
	"context"

	"github.com/you/shopauthsvc/domain"
)

// MockCartMerger implements domain.CartMerger interface for testing
type MockCartMerger struct {
	MergeSessionIntoAccountFunc func(ctx context.Context, sessionID string, accountID uint) error

	// Calls records every (sessionID, accountID) pair merged
	Calls []MergeCall
}

// MergeCall is one recorded merge invocation
type MergeCall struct {
	SessionID string
	AccountID uint
}

// NewMockCartMerger creates a new MockCartMerger with default behaviors
func NewMockCartMerger() *MockCartMerger {
	return &MockCartMerger{}
}

func (m *MockCartMerger) MergeSessionIntoAccount(ctx context.Context, sessionID string, accountID uint) error {
	m.Calls = append(m.Calls, MergeCall{SessionID: sessionID, AccountID: accountID})
	if m.MergeSessionIntoAccountFunc != nil {
		return m.MergeSessionIntoAccountFunc(ctx, sessionID, accountID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.CartMerger = (*MockCartMerger)(nil)

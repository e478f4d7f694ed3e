package mocks

import (
	"context"
	"time"

	"github.com/you/shopauthsvc/domain"
)

// MockTokenService implements domain.TokenService interface for testing
type MockTokenService struct {
	IssueFunc             func(ctx context.Context, subjectID string, purpose domain.TokenPurpose, ttl time.Duration) (string, *domain.Token, error)
	VerifyFunc            func(ctx context.Context, value string, expected domain.TokenPurpose) (*domain.Token, error)
	RotateFunc            func(ctx context.Context, refreshValue string) (string, *domain.Token, error)
	RevokeFamilyFunc      func(ctx context.Context, familyID string) error
	RevokeAllFamiliesFunc func(ctx context.Context, subjectID string) error
}

// NewMockTokenService creates a new MockTokenService with default behaviors
func NewMockTokenService() *MockTokenService {
	return &MockTokenService{}
}

func (m *MockTokenService) Issue(ctx context.Context, subjectID string, purpose domain.TokenPurpose, ttl time.Duration) (string, *domain.Token, error) {
	if m.IssueFunc != nil {
		return m.IssueFunc(ctx, subjectID, purpose, ttl)
	}
	// Default behavior: deterministic token value
	now := time.Now()
	return "tok-" + string(purpose), &domain.Token{
		ID:        "id-" + string(purpose),
		SubjectID: subjectID,
		Purpose:   purpose,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

func (m *MockTokenService) Verify(ctx context.Context, value string, expected domain.TokenPurpose) (*domain.Token, error) {
	if m.VerifyFunc != nil {
		return m.VerifyFunc(ctx, value, expected)
	}
	// Default behavior: not found
	return nil, domain.ErrTokenNotFound
}

func (m *MockTokenService) Rotate(ctx context.Context, refreshValue string) (string, *domain.Token, error) {
	if m.RotateFunc != nil {
		return m.RotateFunc(ctx, refreshValue)
	}
	return "", nil, domain.ErrTokenNotFound
}

func (m *MockTokenService) RevokeFamily(ctx context.Context, familyID string) error {
	if m.RevokeFamilyFunc != nil {
		return m.RevokeFamilyFunc(ctx, familyID)
	}
	return nil
}

func (m *MockTokenService) RevokeAllFamilies(ctx context.Context, subjectID string) error {
	if m.RevokeAllFamiliesFunc != nil {
		return m.RevokeAllFamiliesFunc(ctx, subjectID)
	}
	return nil
}

// Compile-time interface compliance verification
var _ domain.TokenService = (*MockTokenService)(nil)

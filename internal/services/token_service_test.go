package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
	"github.com/you/shopauthsvc/internal/infrastructure/auth"
)

func setupTokenService(t *testing.T) (*miniredis.Miniredis, domain.TokenService) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	codec := auth.NewTokenCodec("test-secret", "shopauthsvc-test")
	return mr, NewTokenService(codec, client, zerolog.Nop())
}

func TestTokenServiceImpl_IssueAndVerify(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	value, tok, err := svc.Issue(ctx, "42", domain.PurposeAccess, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if value == "" || tok == nil {
		t.Fatal("expected a token value and record")
	}
	if tok.FamilyID != "" {
		t.Error("access tokens must not open a family")
	}

	verified, err := svc.Verify(ctx, value, domain.PurposeAccess)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if verified.SubjectID != "42" {
		t.Errorf("expected subject 42, got %s", verified.SubjectID)
	}

	// Access tokens survive verification
	if _, err := svc.Verify(ctx, value, domain.PurposeAccess); err != nil {
		t.Errorf("expected repeated verification of an access token to succeed, got %v", err)
	}
}

func TestTokenServiceImpl_Issue_Validation(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	if _, _, err := svc.Issue(ctx, "42", domain.TokenPurpose("bogus"), time.Minute); !errors.Is(err, domain.ErrInvalidPurpose) {
		t.Errorf("expected ErrInvalidPurpose, got %v", err)
	}
	if _, _, err := svc.Issue(ctx, "42", domain.PurposeAccess, 0); !errors.Is(err, domain.ErrInvalidTTL) {
		t.Errorf("expected ErrInvalidTTL for zero ttl, got %v", err)
	}
	if _, _, err := svc.Issue(ctx, "42", domain.PurposeAccess, -time.Minute); !errors.Is(err, domain.ErrInvalidTTL) {
		t.Errorf("expected ErrInvalidTTL for negative ttl, got %v", err)
	}
}

func TestTokenServiceImpl_Verify_PurposeMismatch(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	value, _, err := svc.Issue(ctx, "42", domain.PurposeAccess, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Verify(ctx, value, domain.PurposeRefresh); !errors.Is(err, domain.ErrTokenPurposeMismatch) {
		t.Errorf("expected ErrTokenPurposeMismatch, got %v", err)
	}

	// A mismatch must not burn the token
	if _, err := svc.Verify(ctx, value, domain.PurposeAccess); err != nil {
		t.Errorf("expected token to remain valid after mismatch, got %v", err)
	}
}

func TestTokenServiceImpl_Verify_Malformed(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	if _, err := svc.Verify(ctx, "not-a-token", domain.PurposeAccess); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed, got %v", err)
	}

	// Valid shape, wrong signature
	other := newTokenServiceWithSecret(t, "other-secret")
	value, _, err := other.Issue(ctx, "42", domain.PurposeAccess, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.Verify(ctx, value, domain.PurposeAccess); !errors.Is(err, domain.ErrTokenMalformed) {
		t.Errorf("expected ErrTokenMalformed for foreign signature, got %v", err)
	}
}

// newTokenServiceWithSecret builds a token service signing with the given
// secret over its own miniredis.
func newTokenServiceWithSecret(t *testing.T, secret string) domain.TokenService {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(func() { mr.Close() })
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewTokenService(auth.NewTokenCodec(secret, "shopauthsvc-test"), client, zerolog.Nop())
}

func TestTokenServiceImpl_SingleUseConsumption(t *testing.T) {
	for _, purpose := range []domain.TokenPurpose{domain.PurposeEmailVerify, domain.PurposePasswordReset} {
		t.Run(string(purpose), func(t *testing.T) {
			_, svc := setupTokenService(t)
			ctx := context.Background()

			value, _, err := svc.Issue(ctx, "user@example.com", purpose, time.Minute)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			if _, err := svc.Verify(ctx, value, purpose); err != nil {
				t.Fatalf("first verification failed: %v", err)
			}

			// Verification consumed the token
			if _, err := svc.Verify(ctx, value, purpose); !errors.Is(err, domain.ErrTokenNotFound) {
				t.Errorf("expected ErrTokenNotFound on replay, got %v", err)
			}
		})
	}
}

func TestTokenServiceImpl_ExpiredIsDistinctFromNotFound(t *testing.T) {
	mr, svc := setupTokenService(t)
	ctx := context.Background()

	value, _, err := svc.Issue(ctx, "42", domain.PurposeAccess, 20*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Inside the retention window the record still exists, so verification
	// can tell "expired" apart from "never existed".
	time.Sleep(30 * time.Millisecond)
	if _, err := svc.Verify(ctx, value, domain.PurposeAccess); !errors.Is(err, domain.ErrTokenExpired) {
		t.Fatalf("expected ErrTokenExpired, got %v", err)
	}

	// Once the store evicts the record, absence is all that remains
	value2, _, err := svc.Issue(ctx, "42", domain.PurposeAccess, time.Minute)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.FastForward(3 * time.Minute)
	if _, err := svc.Verify(ctx, value2, domain.PurposeAccess); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected ErrTokenNotFound after eviction, got %v", err)
	}
}

func TestTokenServiceImpl_Rotate(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	original, tok, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tok.FamilyID == "" {
		t.Fatal("expected refresh token to open a family")
	}

	rotated, newTok, err := svc.Rotate(ctx, original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if newTok.FamilyID != tok.FamilyID {
		t.Errorf("expected rotation to stay in family %s, got %s", tok.FamilyID, newTok.FamilyID)
	}
	if rotated == original {
		t.Error("expected a fresh token value")
	}

	// The successor is live
	if _, err := svc.Verify(ctx, rotated, domain.PurposeRefresh); err != nil {
		t.Errorf("expected rotated token to verify, got %v", err)
	}
	// The predecessor is dead
	if _, err := svc.Verify(ctx, original, domain.PurposeRefresh); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected original token to be dead, got %v", err)
	}
}

// Rotation consumes the record and plants the dead-marker in one
// transaction, so there is no moment where the record is gone but the
// marker is missing and a racing replay could slip past as "not found".
func TestTokenServiceImpl_RotateConsumesAndMarksAtomically(t *testing.T) {
	mr, svc := setupTokenService(t)
	ctx := context.Background()

	original, tok, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Rotate(ctx, original); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if mr.Exists("tok:refresh:" + tok.ID) {
		t.Error("expected the rotated record to be consumed")
	}
	marker, err := mr.Get("tokdead:" + tok.ID)
	if err != nil {
		t.Fatalf("expected a dead-marker for the rotated token: %v", err)
	}
	if marker != tok.FamilyID {
		t.Errorf("expected marker to carry family %s, got %s", tok.FamilyID, marker)
	}

	// Any replay from here on observes the marker
	if _, _, err := svc.Rotate(ctx, original); !errors.Is(err, domain.ErrTokenReuseDetected) {
		t.Errorf("expected ErrTokenReuseDetected, got %v", err)
	}
	if mr.Exists("tokfam:" + tok.FamilyID) {
		t.Error("expected the family to be revoked after the replay")
	}
}

// A record that fell out of retention has no dead-marker either; rotating
// it reads as absence, not as theft, and leaves no marker behind.
func TestTokenServiceImpl_RotateEvictedTokenReadsAsAbsent(t *testing.T) {
	mr, svc := setupTokenService(t)
	ctx := context.Background()

	original, tok, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	mr.Del("tok:refresh:" + tok.ID)

	if _, _, err := svc.Rotate(ctx, original); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Fatalf("expected ErrTokenNotFound, got %v", err)
	}
	if mr.Exists("tokdead:" + tok.ID) {
		t.Error("expected no dead-marker for an evicted token")
	}
}

// Replaying a rotated refresh token is treated as theft: the replay fails
// and the entire family dies with it, including the live successor.
func TestTokenServiceImpl_RotationReuseRevokesFamily(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	original, _, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	successor, _, err := svc.Rotate(ctx, original)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, _, err := svc.Rotate(ctx, original); !errors.Is(err, domain.ErrTokenReuseDetected) {
		t.Fatalf("expected ErrTokenReuseDetected, got %v", err)
	}

	if _, err := svc.Verify(ctx, successor, domain.PurposeRefresh); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected successor to be revoked with its family, got %v", err)
	}
	if _, _, err := svc.Rotate(ctx, successor); err == nil {
		t.Error("expected rotating the revoked successor to fail")
	}
}

func TestTokenServiceImpl_RevokeAllFamilies(t *testing.T) {
	_, svc := setupTokenService(t)
	ctx := context.Background()

	// Two independent devices, two families
	first, _, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, _, err := svc.Issue(ctx, "42", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// A different subject is untouched
	other, _, err := svc.Issue(ctx, "7", domain.PurposeRefresh, time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.RevokeAllFamilies(ctx, "42"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.Verify(ctx, first, domain.PurposeRefresh); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected first family revoked, got %v", err)
	}
	if _, err := svc.Verify(ctx, second, domain.PurposeRefresh); !errors.Is(err, domain.ErrTokenNotFound) {
		t.Errorf("expected second family revoked, got %v", err)
	}
	if _, err := svc.Verify(ctx, other, domain.PurposeRefresh); err != nil {
		t.Errorf("expected other subject's token to survive, got %v", err)
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
)

// Compared against when login can't find the account, so that the password
// check costs the same whether or not the email exists.
const dummyPasswordHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// IdentityConfig carries the token lifetimes the lifecycle hands out
type IdentityConfig struct {
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	VerifyTTL  time.Duration
	ResetTTL   time.Duration
}

// IdentityServiceImpl implements domain.IdentityService. It owns the
// anonymous -> registered -> verified -> authenticated state machine and
// drives the cart merge on every transition that authenticates a guest.
type IdentityServiceImpl struct {
	accounts    domain.AccountRepository
	passwordSvc domain.PasswordService
	tokenSvc    domain.TokenService
	merger      domain.CartMerger
	mailer      domain.Mailer
	logger      zerolog.Logger
	config      IdentityConfig
}

// NewIdentityService creates a new identity service
func NewIdentityService(
	accounts domain.AccountRepository,
	passwordSvc domain.PasswordService,
	tokenSvc domain.TokenService,
	merger domain.CartMerger,
	mailer domain.Mailer,
	logger zerolog.Logger,
	config IdentityConfig,
) domain.IdentityService {
	return &IdentityServiceImpl{
		accounts:    accounts,
		passwordSvc: passwordSvc,
		tokenSvc:    tokenSvc,
		merger:      merger,
		mailer:      mailer,
		logger:      logger,
		config:      config,
	}
}

func accountSubject(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// Register implements domain.IdentityService. The caller learns only that
// the email is taken, never whether it belongs to a verified account.
func (s *IdentityServiceImpl) Register(ctx context.Context, email, password, guestSessionID string) (*domain.Account, error) {
	existing, err := s.accounts.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		// Support tooling cares whether the clash is a verified account or
		// an abandoned registration; the caller must not.
		s.logger.Debug().
			Str("email", email).
			Bool("existing_verified", existing.EmailVerified).
			Msg("registration against existing email")
		return nil, domain.ErrEmailAlreadyRegistered
	}
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	hashed, err := s.passwordSvc.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	account := &domain.Account{
		Email:         email,
		PasswordHash:  hashed,
		Role:          "user",
		EmailVerified: false,
	}

	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}

	// Merging into the brand-new empty cart is a plain copy, but the shared
	// path keeps the no-cart-loss invariant uniform with login.
	if err := s.merger.MergeSessionIntoAccount(ctx, guestSessionID, account.ID); err != nil {
		s.logger.Error().Err(err).Uint("account_id", account.ID).Msg("guest cart merge failed during registration")
	}

	s.sendVerification(ctx, email)

	return account, nil
}

// sendVerification issues a fresh email-verification token and mails it
// best-effort. The token is valid whether or not the mail arrives.
func (s *IdentityServiceImpl) sendVerification(ctx context.Context, email string) {
	value, _, err := s.tokenSvc.Issue(ctx, email, domain.PurposeEmailVerify, s.config.VerifyTTL)
	if err != nil {
		s.logger.Error().Err(err).Str("email", email).Msg("failed to issue verification token")
		return
	}
	if err := s.mailer.SendVerificationEmail(email, value); err != nil {
		s.logger.Warn().Err(err).Str("email", email).Msg("verification mail delivery failed")
	}
}

// VerifyEmail implements domain.IdentityService. The token is consumed by
// the verification itself; a replay sees ErrTokenNotFound.
func (s *IdentityServiceImpl) VerifyEmail(ctx context.Context, tokenValue string) error {
	tok, err := s.tokenSvc.Verify(ctx, tokenValue, domain.PurposeEmailVerify)
	if err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, tok.SubjectID)
	if err != nil {
		return err
	}

	return s.accounts.MarkEmailVerified(ctx, account.ID)
}

// ResendVerification implements domain.IdentityService. Idempotent: a fresh
// token is issued without invalidating one from a prior resend, and unknown
// or already-verified emails succeed silently.
func (s *IdentityServiceImpl) ResendVerification(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return err
	}
	if account.EmailVerified {
		return nil
	}

	s.sendVerification(ctx, email)
	return nil
}

// Login implements domain.IdentityService
func (s *IdentityServiceImpl) Login(ctx context.Context, email, password, guestSessionID string) (*domain.AuthResult, error) {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			// Burn a comparison anyway so response time doesn't reveal
			// whether the email exists.
			s.passwordSvc.Verify(dummyPasswordHash, password)
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.passwordSvc.Verify(account.PasswordHash, password) {
		return nil, domain.ErrInvalidCredentials
	}

	// Distinct from bad credentials: the user can act on this one
	if !account.EmailVerified {
		return nil, domain.ErrEmailNotVerified
	}

	if err := s.merger.MergeSessionIntoAccount(ctx, guestSessionID, account.ID); err != nil {
		s.logger.Error().Err(err).Uint("account_id", account.ID).Msg("guest cart merge failed during login")
	}

	pair, err := s.issuePair(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &domain.AuthResult{Account: account, Tokens: *pair}, nil
}

// issuePair mints a fresh access token and a refresh token in a new family
func (s *IdentityServiceImpl) issuePair(ctx context.Context, accountID uint) (*domain.TokenPair, error) {
	subject := accountSubject(accountID)

	refreshValue, _, err := s.tokenSvc.Issue(ctx, subject, domain.PurposeRefresh, s.config.RefreshTTL)
	if err != nil {
		return nil, err
	}

	accessValue, _, err := s.tokenSvc.Issue(ctx, subject, domain.PurposeAccess, s.config.AccessTTL)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessValue,
		RefreshToken: refreshValue,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// Refresh implements domain.IdentityService. Rotation and reuse detection
// live in the token service; this layer just mints the matching access
// token for the rotated refresh token.
func (s *IdentityServiceImpl) Refresh(ctx context.Context, refreshValue string) (*domain.TokenPair, error) {
	newRefresh, tok, err := s.tokenSvc.Rotate(ctx, refreshValue)
	if err != nil {
		return nil, err
	}

	accessValue, _, err := s.tokenSvc.Issue(ctx, tok.SubjectID, domain.PurposeAccess, s.config.AccessTTL)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessValue,
		RefreshToken: newRefresh,
		ExpiresIn:    int64(s.config.AccessTTL.Seconds()),
	}, nil
}

// RequestPasswordReset implements domain.IdentityService. Always succeeds
// from the caller's point of view, whether or not the email exists.
func (s *IdentityServiceImpl) RequestPasswordReset(ctx context.Context, email string) error {
	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil
		}
		return err
	}

	value, _, err := s.tokenSvc.Issue(ctx, account.Email, domain.PurposePasswordReset, s.config.ResetTTL)
	if err != nil {
		s.logger.Error().Err(err).Uint("account_id", account.ID).Msg("failed to issue password reset token")
		return nil
	}

	if err := s.mailer.SendPasswordResetEmail(account.Email, value); err != nil {
		s.logger.Warn().Err(err).Uint("account_id", account.ID).Msg("password reset mail delivery failed")
	}
	return nil
}

// ResetPassword implements domain.IdentityService. Consuming the token,
// replacing the hash and revoking every refresh family all happen here: the
// old password may be compromised, so no existing session survives.
func (s *IdentityServiceImpl) ResetPassword(ctx context.Context, tokenValue, newPassword string) error {
	tok, err := s.tokenSvc.Verify(ctx, tokenValue, domain.PurposePasswordReset)
	if err != nil {
		return err
	}

	account, err := s.accounts.FindByEmail(ctx, tok.SubjectID)
	if err != nil {
		return err
	}

	hashed, err := s.passwordSvc.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.accounts.UpdatePassword(ctx, account.ID, hashed); err != nil {
		return err
	}

	if err := s.tokenSvc.RevokeAllFamilies(ctx, accountSubject(account.ID)); err != nil {
		return err
	}

	s.logger.Info().Uint("account_id", account.ID).Msg("password reset, all sessions revoked")
	return nil
}

// Logout implements domain.IdentityService: single-device, the presented
// refresh token's family dies. Logging out an already-dead token succeeds.
func (s *IdentityServiceImpl) Logout(ctx context.Context, refreshValue string) error {
	tok, err := s.tokenSvc.Verify(ctx, refreshValue, domain.PurposeRefresh)
	if err != nil {
		if errors.Is(err, domain.ErrTokenNotFound) || errors.Is(err, domain.ErrTokenExpired) {
			return nil
		}
		return err
	}

	return s.tokenSvc.RevokeFamily(ctx, tok.FamilyID)
}

// LogoutAll implements domain.IdentityService: every family on the account
// dies, forcing re-login on all devices.
func (s *IdentityServiceImpl) LogoutAll(ctx context.Context, accountID uint) error {
	return s.tokenSvc.RevokeAllFamilies(ctx, accountSubject(accountID))
}

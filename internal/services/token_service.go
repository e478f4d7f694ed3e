package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/you/shopauthsvc/domain"
	"github.com/you/shopauthsvc/internal/infrastructure/auth"
)

// TokenServiceImpl implements domain.TokenService with Redis persistence.
// Every issued token has a record under tok:<purpose>:<jti>; the signed
// envelope alone proves nothing. Records are retained for twice their TTL
// so that a verification attempt inside the retention window can report
// "expired" rather than "not found".
type TokenServiceImpl struct {
	codec       *auth.TokenCodec
	redisClient *redis.Client
	logger      zerolog.Logger
}

// NewTokenService creates a new Redis-backed token service
func NewTokenService(codec *auth.TokenCodec, redisClient *redis.Client, logger zerolog.Logger) domain.TokenService {
	return &TokenServiceImpl{
		codec:       codec,
		redisClient: redisClient,
		logger:      logger,
	}
}

func recordKey(purpose domain.TokenPurpose, jti string) string {
	return fmt.Sprintf("tok:%s:%s", purpose, jti)
}

func deadKey(jti string) string    { return "tokdead:" + jti }
func familyKey(id string) string   { return "tokfam:" + id }
func subjectKey(sub string) string { return "tokfams:" + sub }

// Issue implements domain.TokenService
func (s *TokenServiceImpl) Issue(ctx context.Context, subjectID string, purpose domain.TokenPurpose, ttl time.Duration) (string, *domain.Token, error) {
	if !purpose.Valid() {
		return "", nil, domain.ErrInvalidPurpose
	}
	if ttl <= 0 {
		return "", nil, domain.ErrInvalidTTL
	}

	familyID := ""
	if purpose == domain.PurposeRefresh {
		familyID = randomID()
	}

	return s.mint(ctx, subjectID, purpose, familyID, ttl)
}

// mint writes the record and signs the envelope. For refresh tokens the jti
// is registered in its family set and the family in the subject index.
func (s *TokenServiceImpl) mint(ctx context.Context, subjectID string, purpose domain.TokenPurpose, familyID string, ttl time.Duration) (string, *domain.Token, error) {
	now := time.Now()
	tok := &domain.Token{
		ID:        randomID(),
		SubjectID: subjectID,
		Purpose:   purpose,
		FamilyID:  familyID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	payload, err := json.Marshal(tok)
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal token record: %w", err)
	}

	retention := 2 * ttl
	if err := s.redisClient.Set(ctx, recordKey(purpose, tok.ID), payload, retention).Err(); err != nil {
		return "", nil, storeFault(err)
	}

	if purpose == domain.PurposeRefresh {
		_, err := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SAdd(ctx, familyKey(familyID), tok.ID)
			pipe.Expire(ctx, familyKey(familyID), retention)
			pipe.SAdd(ctx, subjectKey(subjectID), familyID)
			pipe.Expire(ctx, subjectKey(subjectID), retention)
			return nil
		})
		if err != nil {
			return "", nil, storeFault(err)
		}
	}

	value, err := s.codec.Encode(tok)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return value, tok, nil
}

// Verify implements domain.TokenService. Single-use purposes are fetched
// with GETDEL, so the validity check and the invalidation are one atomic
// operation: of two concurrent verifications, exactly one can succeed.
func (s *TokenServiceImpl) Verify(ctx context.Context, value string, expected domain.TokenPurpose) (*domain.Token, error) {
	if !expected.Valid() {
		return nil, domain.ErrInvalidPurpose
	}

	decoded, err := s.codec.Decode(value)
	if err != nil {
		return nil, err
	}

	if decoded.Purpose != expected {
		return nil, domain.ErrTokenPurposeMismatch
	}

	key := recordKey(decoded.Purpose, decoded.ID)
	var data string
	var redisErr error
	if expected.SingleUse() {
		data, redisErr = s.redisClient.GetDel(ctx, key).Result()
	} else {
		data, redisErr = s.redisClient.Get(ctx, key).Result()
	}
	if redisErr != nil {
		if redisErr == redis.Nil {
			return nil, domain.ErrTokenNotFound
		}
		return nil, storeFault(redisErr)
	}

	var tok domain.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}

	// Strictly past expiry is dead, no grace window
	if !time.Now().Before(tok.ExpiresAt) {
		s.redisClient.Del(ctx, key)
		return nil, domain.ErrTokenExpired
	}

	return &tok, nil
}

// Rotate implements domain.TokenService. GETDEL on the presented record
// picks exactly one winner among concurrent redemptions. The loser finds a
// dead-marker in place of the record, which is treated as probable token
// theft: the whole family is revoked and ErrTokenReuseDetected returned.
func (s *TokenServiceImpl) Rotate(ctx context.Context, refreshValue string) (string, *domain.Token, error) {
	decoded, err := s.codec.Decode(refreshValue)
	if err != nil {
		return "", nil, err
	}
	if decoded.Purpose != domain.PurposeRefresh {
		return "", nil, domain.ErrTokenPurposeMismatch
	}

	// Consuming the record and planting the dead-marker are one transaction:
	// a concurrent replay can never observe the record gone without the
	// marker already in its place.
	key := recordKey(domain.PurposeRefresh, decoded.ID)
	ttl := decoded.ExpiresAt.Sub(decoded.IssuedAt)
	retention := 2 * ttl

	var record *redis.StringCmd
	var marked *redis.BoolCmd
	_, txErr := s.redisClient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		record = pipe.GetDel(ctx, key)
		marked = pipe.SetNX(ctx, deadKey(decoded.ID), decoded.FamilyID, retention)
		pipe.SRem(ctx, familyKey(decoded.FamilyID), decoded.ID)
		return nil
	})
	if txErr != nil && txErr != redis.Nil {
		return "", nil, storeFault(txErr)
	}

	data, redisErr := record.Result()
	if redisErr == redis.Nil {
		if !marked.Val() {
			// marker predates this call: the token was already rotated
			s.logger.Warn().
				Str("event", "refresh_token_reuse").
				Str("jti", decoded.ID).
				Str("family_id", decoded.FamilyID).
				Str("subject", decoded.SubjectID).
				Msg("rotated refresh token replayed, revoking family")

			if err := s.RevokeFamily(ctx, decoded.FamilyID); err != nil {
				return "", nil, err
			}
			return "", nil, domain.ErrTokenReuseDetected
		}

		// no record and no prior marker: the token fell out of retention,
		// drop the marker this call planted
		s.redisClient.Del(ctx, deadKey(decoded.ID))
		return "", nil, domain.ErrTokenNotFound
	}
	if redisErr != nil {
		return "", nil, storeFault(redisErr)
	}

	var tok domain.Token
	if err := json.Unmarshal([]byte(data), &tok); err != nil {
		return "", nil, fmt.Errorf("failed to unmarshal token record: %w", err)
	}

	if !time.Now().Before(tok.ExpiresAt) {
		// an expired token was never rotated and must not read as reuse later
		s.redisClient.Del(ctx, deadKey(tok.ID))
		return "", nil, domain.ErrTokenExpired
	}

	return s.mint(ctx, tok.SubjectID, domain.PurposeRefresh, tok.FamilyID, ttl)
}

// RevokeFamily implements domain.TokenService. Every live token descended
// from the family lineage dies with it.
func (s *TokenServiceImpl) RevokeFamily(ctx context.Context, familyID string) error {
	members, err := s.redisClient.SMembers(ctx, familyKey(familyID)).Result()
	if err != nil {
		return storeFault(err)
	}

	keys := make([]string, 0, len(members)+1)
	for _, jti := range members {
		keys = append(keys, recordKey(domain.PurposeRefresh, jti))
	}
	keys = append(keys, familyKey(familyID))

	if err := s.redisClient.Del(ctx, keys...).Err(); err != nil {
		return storeFault(err)
	}
	return nil
}

// RevokeAllFamilies implements domain.TokenService; used on password reset
// and logout-all, when every existing session must die.
func (s *TokenServiceImpl) RevokeAllFamilies(ctx context.Context, subjectID string) error {
	families, err := s.redisClient.SMembers(ctx, subjectKey(subjectID)).Result()
	if err != nil {
		return storeFault(err)
	}

	for _, familyID := range families {
		if err := s.RevokeFamily(ctx, familyID); err != nil {
			return err
		}
	}

	if err := s.redisClient.Del(ctx, subjectKey(subjectID)).Err(); err != nil {
		return storeFault(err)
	}
	return nil
}

func randomID() string {
	bytes := make([]byte, 16)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func storeFault(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrStoreUnavailable, err)
}

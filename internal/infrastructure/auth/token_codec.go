package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/you/shopauthsvc/domain"
)

// TokenCodec signs and parses the wire envelope of a token. The envelope is
// an HS256 JWT, but the claims are only a pointer into the token store: a
// value that decodes cleanly is still dead unless its record is live.
type TokenCodec struct {
	secretKey []byte
	issuer    string
}

// NewTokenCodec creates a codec bound to the signing secret
func NewTokenCodec(secretKey, issuer string) *TokenCodec {
	return &TokenCodec{
		secretKey: []byte(secretKey),
		issuer:    issuer,
	}
}

// Encode signs tok into its client-visible string value
func (c *TokenCodec) Encode(tok *domain.Token) (string, error) {
	claims := jwt.MapClaims{
		"jti": tok.ID,
		"sub": tok.SubjectID,
		"pur": string(tok.Purpose),
		"iss": c.issuer,
		"iat": tok.IssuedAt.Unix(),
		"exp": tok.ExpiresAt.Unix(),
	}
	if tok.FamilyID != "" {
		claims["fam"] = tok.FamilyID
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(c.secretKey)
}

// Decode verifies the signature and unpacks the claims. Expiry is not
// enforced here; the token service checks the stored record so that expired
// and unknown tokens surface as distinct failures.
func (c *TokenCodec) Decode(value string) (*domain.Token, error) {
	token, err := jwt.Parse(value, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrTokenMalformed
		}
		return c.secretKey, nil
	}, jwt.WithoutClaimsValidation())

	if err != nil || !token.Valid {
		return nil, domain.ErrTokenMalformed
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	jti, ok := claims["jti"].(string)
	if !ok || jti == "" {
		return nil, domain.ErrTokenMalformed
	}

	sub, ok := claims["sub"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	pur, ok := claims["pur"].(string)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}
	purpose := domain.TokenPurpose(pur)
	if !purpose.Valid() {
		return nil, domain.ErrTokenMalformed
	}

	iat, ok := claims["iat"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	exp, ok := claims["exp"].(float64)
	if !ok {
		return nil, domain.ErrTokenMalformed
	}

	decoded := &domain.Token{
		ID:        jti,
		SubjectID: sub,
		Purpose:   purpose,
		IssuedAt:  time.Unix(int64(iat), 0),
		ExpiresAt: time.Unix(int64(exp), 0),
	}

	if fam, ok := claims["fam"].(string); ok {
		decoded.FamilyID = fam
	}

	return decoded, nil
}
